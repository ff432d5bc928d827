package scraper

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"nftmaker/pkg/config"
	"nftmaker/pkg/errors"
	"nftmaker/pkg/logger"
	"nftmaker/pkg/metrics"
	"nftmaker/pkg/pokeapi"
	"nftmaker/pkg/ratelimit"
	"nftmaker/pkg/storage"
)

const artwork = "https://img.example/%d.png"

// entityJSON renders a minimal catalog record
func entityJSON(id int, name string, baseExperience string, stats string) string {
	be := ""
	if baseExperience != "" {
		be = fmt.Sprintf(`"base_experience": %s,`, baseExperience)
	}
	return fmt.Sprintf(`{
		"id": %d,
		"name": %q,
		%s
		"sprites": {"other": {"official-artwork": {"front_default": %q}}},
		"stats": [%s]
	}`, id, name, be, fmt.Sprintf(artwork, id), stats)
}

const hpStat = `{"base_stat": 35, "effort": 0, "stat": {"name": "hp", "url": "https://pokeapi.co/api/v2/stat/1/"}}`

// mockCatalogServer serves records by id; ids without a body get statuses[id] or 404
type mockCatalogServer struct {
	server   *httptest.Server
	bodies   map[int]string
	statuses map[int]int
	calls    int32
}

func newMockCatalogServer(t *testing.T) *mockCatalogServer {
	m := &mockCatalogServer{
		bodies:   map[int]string{},
		statuses: map[int]int{},
	}
	m.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&m.calls, 1)

		var id int
		if _, err := fmt.Sscanf(strings.TrimPrefix(r.URL.Path, "/"), "%d", &id); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		if body, ok := m.bodies[id]; ok {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(body))
			return
		}
		if status, ok := m.statuses[id]; ok {
			w.WriteHeader(status)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	t.Cleanup(m.server.Close)
	return m
}

func (m *mockCatalogServer) client(log logger.Logger) *pokeapi.Client {
	return pokeapi.NewClient(m.server.URL+"/", 5*time.Second, log)
}

func newStore(t *testing.T) *storage.Manager {
	t.Helper()
	store, err := storage.NewManager(t.TempDir(), storage.DefaultFileNamePattern, false)
	require.NoError(t, err)
	return store
}

func readDocument(t *testing.T, path string) map[string]interface{} {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var doc map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &doc))
	return doc
}

// failingStore fails on file number failOn and records everything else
type failingStore struct {
	failOn  int
	written []int
}

func (f *failingStore) Write(n int, data []byte) (string, error) {
	if n == f.failOn {
		return "", errors.Wrap(errors.ErrorTypeStorage, 0, fmt.Sprintf("failed to write metadata_%d.json", n), os.ErrPermission)
	}
	f.written = append(f.written, n)
	return fmt.Sprintf("metadata_%d.json", n), nil
}

// cancellingFetcher cancels the run while a fetch is in flight
type cancellingFetcher struct {
	cancel context.CancelFunc
}

func (c *cancellingFetcher) FetchEntity(ctx context.Context, id int) (*pokeapi.EntityRecord, error) {
	c.cancel()
	return nil, errors.Wrap(errors.ErrorTypeNetwork, 0, "request failed", ctx.Err())
}

func TestRunWritesEveryCopy(t *testing.T) {
	catalog := newMockCatalogServer(t)
	catalog.bodies[25] = entityJSON(25, "pikachu", "112", hpStat)

	tl := logger.NewTestLogger()
	store := newStore(t)
	s, err := New(catalog.client(tl), store, ratelimit.Unlimited{}, tl, Options{StartID: 25, TotalEntities: 25, CopiesPerEntity: 2})
	require.NoError(t, err)

	summary, err := s.Run(context.Background())
	require.NoError(t, err)

	assert.NotEmpty(t, summary.RunID)
	assert.Equal(t, 1, summary.Processed)
	assert.Equal(t, 1, summary.Generated)
	assert.Equal(t, 2, summary.Written)
	assert.Empty(t, summary.Skipped)

	for copyIndex, n := range []int{50, 51} {
		doc := readDocument(t, store.Path(n))
		assert.Equal(t, "Pikachu", doc["name"])
		assert.Equal(t, "An NFT representing the Pokemon Pikachu.", doc["description"])
		assert.Equal(t, float64(copyIndex), doc["copy_number"])
		assert.Equal(t, "https://img.example/25.png", doc["image"])
		assert.Equal(t, []interface{}{
			map[string]interface{}{"trait_type": "Hp", "value": float64(35)},
			map[string]interface{}{"trait_type": "Base Experience", "value": float64(112)},
			map[string]interface{}{"trait_type": "Rarity", "value": "Common"},
		}, doc["attributes"])
	}

	assert.True(t, tl.HasMessage("Starting metadata generation"))
	assert.True(t, tl.HasMessage("Generated metadata for entity 25"))
	assert.True(t, tl.HasMessage("Metadata generation complete"))

	state, _ := s.State()
	assert.Equal(t, StateDone, state)
}

func TestRunSkipsFailedFetch(t *testing.T) {
	catalog := newMockCatalogServer(t)
	catalog.statuses[5] = http.StatusInternalServerError
	catalog.bodies[6] = entityJSON(6, "charizard", "267", hpStat)

	tl := logger.NewTestLogger()
	store := newStore(t)
	s, err := New(catalog.client(tl), store, ratelimit.Unlimited{}, tl, Options{StartID: 5, TotalEntities: 6, CopiesPerEntity: 1})
	require.NoError(t, err)

	summary, err := s.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, summary.Processed)
	assert.Equal(t, []int{5}, summary.Skipped)
	assert.Equal(t, 1, summary.Written)
	assert.False(t, store.Exists(5))
	assert.True(t, store.Exists(6))
	assert.Equal(t, "Rare", readDocument(t, store.Path(6))["attributes"].([]interface{})[2].(map[string]interface{})["value"])

	var skips []logger.LogMessage
	for _, msg := range tl.GetMessagesByLevel("WARN") {
		if strings.HasPrefix(msg.Message, "Skipping entity") {
			skips = append(skips, msg)
		}
	}
	require.Len(t, skips, 1)
	assert.Equal(t, "Skipping entity 5 due to an error", skips[0].Message)
	assert.Equal(t, 5, skips[0].Fields["entity_id"])
	assert.Equal(t, http.StatusInternalServerError, skips[0].Fields["status_code"])
	assert.Equal(t, int32(2), atomic.LoadInt32(&catalog.calls))
}

func TestRunMissingBaseExperienceIsCommon(t *testing.T) {
	catalog := newMockCatalogServer(t)
	catalog.bodies[1] = entityJSON(1, "bulbasaur", "", "")

	store := newStore(t)
	s, err := New(catalog.client(logger.NewNopLogger()), store, ratelimit.Unlimited{}, logger.NewNopLogger(), Options{StartID: 1, TotalEntities: 1, CopiesPerEntity: 1})
	require.NoError(t, err)

	_, err = s.Run(context.Background())
	require.NoError(t, err)

	doc := readDocument(t, store.Path(1))
	assert.Equal(t, []interface{}{
		map[string]interface{}{"trait_type": "Base Experience", "value": float64(0)},
		map[string]interface{}{"trait_type": "Rarity", "value": "Common"},
	}, doc["attributes"])
}

func TestRunSkipsMalformedRecord(t *testing.T) {
	catalog := newMockCatalogServer(t)
	catalog.bodies[1] = `{"id": 1, "name": "missingno", "base_experience": 10, "sprites": {"other": {}}, "stats": []}`
	catalog.bodies[2] = `{not json`
	catalog.bodies[3] = entityJSON(3, "venusaur", "263", hpStat)

	tl := logger.NewTestLogger()
	store := newStore(t)
	s, err := New(catalog.client(tl), store, ratelimit.Unlimited{}, tl, Options{StartID: 1, TotalEntities: 3, CopiesPerEntity: 3})
	require.NoError(t, err)

	summary, err := s.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []int{1, 2}, summary.Skipped)
	assert.Equal(t, 3, summary.Written)
	for _, n := range []int{3, 4, 5, 6, 7, 8} {
		assert.False(t, store.Exists(n), "file %d", n)
	}
	for _, n := range []int{9, 10, 11} {
		assert.True(t, store.Exists(n), "file %d", n)
	}
}

func TestRunStopsOnWriteFailure(t *testing.T) {
	catalog := newMockCatalogServer(t)
	catalog.bodies[1] = entityJSON(1, "bulbasaur", "64", hpStat)
	catalog.bodies[2] = entityJSON(2, "ivysaur", "142", hpStat)

	tl := logger.NewTestLogger()
	store := &failingStore{failOn: 3}
	s, err := New(catalog.client(tl), store, ratelimit.Unlimited{}, tl, Options{StartID: 1, TotalEntities: 2, CopiesPerEntity: 2})
	require.NoError(t, err)

	summary, err := s.Run(context.Background())
	require.Error(t, err)

	assert.Equal(t, errors.ErrorTypeStorage, errors.TypeOf(err))
	assert.Contains(t, err.Error(), "metadata_3.json")
	assert.Equal(t, []int{2}, store.written)
	assert.Equal(t, 1, summary.Written)
	assert.Equal(t, 0, summary.Processed)
	assert.True(t, tl.HasMessage("Failed to write metadata file"))
	assert.Equal(t, int32(1), atomic.LoadInt32(&catalog.calls))
}

func TestRunRefusesLockedOutput(t *testing.T) {
	catalog := newMockCatalogServer(t)
	store := newStore(t)

	other, err := storage.NewManager(store.GetOutputDir(), "", false)
	require.NoError(t, err)
	require.NoError(t, other.Lock())
	defer other.Unlock()

	s, err := New(catalog.client(logger.NewNopLogger()), store, ratelimit.Unlimited{}, logger.NewNopLogger(), Options{StartID: 1, TotalEntities: 2, CopiesPerEntity: 1})
	require.NoError(t, err)

	_, err = s.Run(context.Background())
	require.Error(t, err)
	assert.Equal(t, errors.ErrorTypeStorage, errors.TypeOf(err))
	assert.Equal(t, int32(0), atomic.LoadInt32(&catalog.calls))
}

func TestRunCancelledBeforeStart(t *testing.T) {
	catalog := newMockCatalogServer(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s, err := New(catalog.client(logger.NewNopLogger()), newStore(t), ratelimit.Unlimited{}, logger.NewNopLogger(), Options{StartID: 1, TotalEntities: 10, CopiesPerEntity: 1})
	require.NoError(t, err)

	summary, err := s.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, summary.Processed)
	assert.Equal(t, int32(0), atomic.LoadInt32(&catalog.calls))
}

func TestRunCancelledDuringFetchIsNotASkip(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	s, err := New(&cancellingFetcher{cancel: cancel}, newStore(t), ratelimit.Unlimited{}, logger.NewNopLogger(), Options{StartID: 1, TotalEntities: 3, CopiesPerEntity: 1})
	require.NoError(t, err)

	summary, err := s.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, summary.Skipped)
}

func TestRunDryRun(t *testing.T) {
	catalog := newMockCatalogServer(t)
	catalog.bodies[1] = entityJSON(1, "bulbasaur", "64", hpStat)

	tl := logger.NewTestLogger()
	s, err := New(catalog.client(tl), nil, ratelimit.Unlimited{}, tl, Options{StartID: 1, TotalEntities: 1, CopiesPerEntity: 4, DryRun: true})
	require.NoError(t, err)

	summary, err := s.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Generated)
	assert.Equal(t, 0, summary.Written)
	dryRunLines := 0
	for _, msg := range tl.GetMessagesByLevel("DEBUG") {
		if msg.Message == "Dry run, not writing metadata file" {
			dryRunLines++
		}
	}
	assert.Equal(t, 4, dryRunLines)
}

func TestRunPacesRequests(t *testing.T) {
	catalog := newMockCatalogServer(t)

	s, err := New(catalog.client(logger.NewNopLogger()), newStore(t), ratelimit.NewFixedDelay(20*time.Millisecond), logger.NewNopLogger(), Options{StartID: 1, TotalEntities: 3, CopiesPerEntity: 1})
	require.NoError(t, err)

	summary, err := s.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []int{1, 2, 3}, summary.Skipped)
	assert.GreaterOrEqual(t, summary.Elapsed, 60*time.Millisecond)
}

func TestRunRecordsMetrics(t *testing.T) {
	catalog := newMockCatalogServer(t)
	catalog.bodies[1] = entityJSON(1, "mewtwo", "340", hpStat)

	rec := metrics.New()
	s, err := New(catalog.client(logger.NewNopLogger()), newStore(t), ratelimit.Unlimited{}, logger.NewNopLogger(),
		Options{StartID: 1, TotalEntities: 2, CopiesPerEntity: 2}, WithMetrics(rec))
	require.NoError(t, err)

	_, err = s.Run(context.Background())
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "run.prom")
	require.NoError(t, rec.WriteTextfile(path))
	data, err := os.ReadFile(path)
	require.NoError(t, err)

	out := string(data)
	assert.Contains(t, out, "nftmaker_documents_written_total 2")
	assert.Contains(t, out, `nftmaker_rarity_total{rarity="Legendary"} 1`)
	assert.Contains(t, out, `nftmaker_skips_total{reason="not_found"} 1`)
}

func TestNewValidatesOptions(t *testing.T) {
	catalog := newMockCatalogServer(t)
	client := catalog.client(logger.NewNopLogger())

	tests := []struct {
		name  string
		store DocumentStore
		opts  Options
	}{
		{"no store", nil, Options{StartID: 1, TotalEntities: 1, CopiesPerEntity: 1}},
		{"zero start", newStore(t), Options{StartID: 0, TotalEntities: 1, CopiesPerEntity: 1}},
		{"zero copies", newStore(t), Options{StartID: 1, TotalEntities: 1, CopiesPerEntity: 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(client, tt.store, nil, logger.NewNopLogger(), tt.opts)
			require.Error(t, err)
			assert.Equal(t, errors.ErrorTypeInvalidInput, errors.TypeOf(err))
		})
	}

	_, err := New(nil, newStore(t), nil, logger.NewNopLogger(), Options{StartID: 1, CopiesPerEntity: 1})
	assert.Error(t, err)
}

func TestNewFromConfig(t *testing.T) {
	catalog := newMockCatalogServer(t)
	catalog.bodies[1] = entityJSON(1, "bulbasaur", "64", hpStat)

	cfg := config.DefaultConfig()
	cfg.API.BaseURL = catalog.server.URL + "/"
	cfg.Catalog.TotalEntities = 1
	cfg.Catalog.CopiesPerEntity = 3
	cfg.RateLimit.Disabled = true
	cfg.Output.Directory = filepath.Join(t.TempDir(), "out")
	cfg.Output.CreateDirectory = true

	s, err := NewFromConfig(cfg, logger.NewNopLogger())
	require.NoError(t, err)

	summary, err := s.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, summary.Written)

	for _, n := range []int{3, 4, 5} {
		_, err := os.Stat(filepath.Join(cfg.Output.Directory, fmt.Sprintf("metadata_%d.json", n)))
		assert.NoError(t, err)
	}
}

func TestNewFromConfigMissingOutputDir(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Output.Directory = filepath.Join(t.TempDir(), "missing")

	_, err := NewFromConfig(cfg, logger.NewNopLogger())
	require.Error(t, err)
	assert.Equal(t, errors.ErrorTypeStorage, errors.TypeOf(err))
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "idle", StateIdle.String())
	assert.Equal(t, "fetching_entity", StateFetchingEntity.String())
	assert.Equal(t, "emitting_copies", StateEmittingCopies.String())
	assert.Equal(t, "skipping_entity", StateSkippingEntity.String())
	assert.Equal(t, "done", StateDone.String())
}
