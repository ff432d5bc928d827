package pokeapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"nftmaker/pkg/errors"
	"nftmaker/pkg/logger"
)

// DefaultBaseURL is the PokeAPI pokemon endpoint. Identifiers are appended
// directly, so the base keeps its trailing slash.
const DefaultBaseURL = "https://pokeapi.co/api/v2/pokemon/"

// Client fetches entity records from the catalog API
type Client struct {
	httpClient *http.Client
	baseURL    string
	userAgent  string
	logger     logger.Logger
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithUserAgent sets the User-Agent header sent with every request
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		c.userAgent = ua
	}
}

// NewClient creates a new catalog API client
func NewClient(baseURL string, timeout time.Duration, log logger.Logger, opts ...Option) *Client {
	if log == nil {
		log = logger.GetLogger()
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	c := &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL: baseURL,
		logger:  log,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// EntityURL builds the endpoint URL for id by plain concatenation
func (c *Client) EntityURL(id int) string {
	return c.baseURL + strconv.Itoa(id)
}

// FetchEntity fetches and decodes the record for id. Any non-200 status,
// transport failure or undecodable body comes back as a typed *errors.Error.
func (c *Client) FetchEntity(ctx context.Context, id int) (*EntityRecord, error) {
	url := c.EntityURL(id)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errors.Wrap(errors.ErrorTypeInvalidInput, 0, "failed to create request", err)
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	duration := time.Since(start)
	if err != nil {
		c.logger.ErrorWithFields("HTTP request failed", map[string]interface{}{
			"entity_id": id,
			"url":       url,
			"error":     err.Error(),
			"duration":  duration,
		})
		return nil, errors.Wrap(errors.ErrorTypeNetwork, 0, "request failed", err)
	}
	defer resp.Body.Close()

	logger.LogRequest(c.logger, req.Method, url, resp.StatusCode, duration)

	if resp.StatusCode != http.StatusOK {
		c.logger.WarnWithFields(fmt.Sprintf("Error fetching entity %d: %d", id, resp.StatusCode), map[string]interface{}{
			"entity_id": id,
			"status":    resp.StatusCode,
		})
		// drain so the connection can be reused
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, errors.ForStatus(resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(errors.ErrorTypeNetwork, resp.StatusCode, "failed to read response body", err)
	}

	var record EntityRecord
	if err := json.Unmarshal(body, &record); err != nil {
		bodyPreview := string(body)
		if len(bodyPreview) > 200 {
			bodyPreview = bodyPreview[:200] + "..."
		}
		c.logger.ErrorWithFields("failed to parse JSON response", map[string]interface{}{
			"entity_id":    id,
			"error":        err.Error(),
			"body_preview": bodyPreview,
		})
		return nil, errors.Wrap(errors.ErrorTypeParsing, resp.StatusCode, "failed to parse JSON", err)
	}

	c.logger.DebugWithFields("fetched entity", map[string]interface{}{
		"entity_id": id,
		"name":      record.Name,
	})

	return &record, nil
}
