package scraper

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"nftmaker/pkg/config"
	"nftmaker/pkg/errors"
	"nftmaker/pkg/logger"
	"nftmaker/pkg/metadata"
	"nftmaker/pkg/metrics"
	"nftmaker/pkg/pokeapi"
	"nftmaker/pkg/rarity"
	"nftmaker/pkg/ratelimit"
	"nftmaker/pkg/storage"
	"nftmaker/pkg/ui"
)

// State is the driver's position in the per-entity state machine
type State int

const (
	StateIdle State = iota
	StateFetchingEntity
	StateEmittingCopies
	StateSkippingEntity
	StateDone
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateFetchingEntity:
		return "fetching_entity"
	case StateEmittingCopies:
		return "emitting_copies"
	case StateSkippingEntity:
		return "skipping_entity"
	case StateDone:
		return "done"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Options are the run parameters
type Options struct {
	StartID         int
	TotalEntities   int
	CopiesPerEntity int
	DryRun          bool
}

// Summary describes a finished (or stopped) run
type Summary struct {
	RunID     string
	Processed int
	Generated int
	Skipped   []int
	Written   int
	Elapsed   time.Duration
}

// Option configures optional Scraper collaborators
type Option func(*Scraper)

// WithMetrics records run counters into rec
func WithMetrics(rec *metrics.Recorder) Option {
	return func(s *Scraper) {
		s.metrics = rec
	}
}

// WithTracker prints console progress through tracker
func WithTracker(tracker *ui.StatusTracker) Option {
	return func(s *Scraper) {
		s.tracker = tracker
	}
}

// Scraper drives a generation run over a range of catalog identifiers
type Scraper struct {
	fetcher     EntityFetcher
	store       DocumentStore
	rateLimiter ratelimit.Limiter
	logger      logger.Logger
	metrics     *metrics.Recorder
	tracker     *ui.StatusTracker
	opts        Options

	mu        sync.Mutex
	state     State
	currentID int
}

// New creates a Scraper. store may be nil only for a dry run.
func New(fetcher EntityFetcher, store DocumentStore, limiter ratelimit.Limiter, log logger.Logger, opts Options, options ...Option) (*Scraper, error) {
	if fetcher == nil {
		return nil, errors.New(errors.ErrorTypeInvalidInput, 0, "fetcher is required")
	}
	if store == nil && !opts.DryRun {
		return nil, errors.New(errors.ErrorTypeInvalidInput, 0, "document store is required")
	}
	if opts.StartID < 1 {
		return nil, errors.New(errors.ErrorTypeInvalidInput, 0, fmt.Sprintf("start id must be at least 1, got %d", opts.StartID))
	}
	if opts.CopiesPerEntity < 1 {
		return nil, errors.New(errors.ErrorTypeInvalidInput, 0, fmt.Sprintf("copies per entity must be at least 1, got %d", opts.CopiesPerEntity))
	}
	if limiter == nil {
		limiter = ratelimit.Unlimited{}
	}
	if log == nil {
		log = logger.GetLogger()
	}

	s := &Scraper{
		fetcher:     fetcher,
		store:       store,
		rateLimiter: limiter,
		logger:      log.WithField("component", "scraper"),
		opts:        opts,
	}
	for _, o := range options {
		o(s)
	}
	return s, nil
}

// NewFromConfig wires the catalog client, storage and limiter described by cfg
func NewFromConfig(cfg *config.Config, log logger.Logger, options ...Option) (*Scraper, error) {
	if log == nil {
		log = logger.GetLogger()
	}

	client := pokeapi.NewClient(cfg.API.BaseURL, cfg.API.Timeout, log, pokeapi.WithUserAgent(cfg.API.UserAgent))

	limiter, err := ratelimit.New(cfg.RateLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to create rate limiter: %w", err)
	}

	// A nil *storage.Manager must not end up inside the interface.
	var store DocumentStore
	if !cfg.Output.DryRun {
		manager, err := storage.NewManager(cfg.Output.Directory, cfg.Output.FileNamePattern, cfg.Output.CreateDirectory)
		if err != nil {
			return nil, fmt.Errorf("failed to create storage manager: %w", err)
		}
		store = manager
	}

	return New(client, store, limiter, log, Options{
		StartID:         cfg.Catalog.StartID,
		TotalEntities:   cfg.Catalog.TotalEntities,
		CopiesPerEntity: cfg.Catalog.CopiesPerEntity,
		DryRun:          cfg.Output.DryRun,
	}, options...)
}

// State returns the current state and the entity it refers to
func (s *Scraper) State() (State, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state, s.currentID
}

func (s *Scraper) setState(state State, id int) {
	s.mu.Lock()
	s.state = state
	s.currentID = id
	s.mu.Unlock()
}

// Run processes every identifier from StartID through TotalEntities in order.
// Entities that cannot be fetched or generated are skipped. A storage failure
// or context cancellation stops the run; the returned Summary covers the work
// done up to that point.
func (s *Scraper) Run(ctx context.Context) (*Summary, error) {
	start := time.Now()
	summary := &Summary{RunID: uuid.NewString(), Skipped: []int{}}
	log := s.logger.WithField("run_id", summary.RunID)

	if locker, ok := s.store.(Locker); ok && !s.opts.DryRun {
		if err := locker.Lock(); err != nil {
			log.WithError(err).Error("Failed to lock output")
			return summary, err
		}
		defer func() {
			if err := locker.Unlock(); err != nil {
				log.WithError(err).Warn("Failed to unlock output")
			}
		}()
	}

	log.InfoWithFields("Starting metadata generation", map[string]interface{}{
		"start_id":          s.opts.StartID,
		"total_entities":    s.opts.TotalEntities,
		"copies_per_entity": s.opts.CopiesPerEntity,
		"dry_run":           s.opts.DryRun,
	})

	defer func() {
		summary.Elapsed = time.Since(start)
		s.setState(StateDone, 0)
		if s.metrics != nil {
			s.metrics.SetRunDuration(summary.Elapsed)
		}
	}()

	for id := s.opts.StartID; id <= s.opts.TotalEntities; id++ {
		if err := s.rateLimiter.Wait(ctx); err != nil {
			log.WithError(err).Warn("Run interrupted")
			return summary, err
		}

		if err := s.processEntity(ctx, log, id, summary); err != nil {
			return summary, err
		}

		summary.Processed++
		logger.LogProgress(log, summary.Processed, s.opts.TotalEntities-s.opts.StartID+1)
		if s.tracker != nil {
			s.tracker.PrintProgress()
		}
	}

	logger.LogRunSummary(log, summary.Processed, len(summary.Skipped), summary.Written, time.Since(start))
	return summary, nil
}

// processEntity fetches one entity and writes all of its copies. It returns
// an error only when the run has to stop.
func (s *Scraper) processEntity(ctx context.Context, log logger.Logger, id int, summary *Summary) error {
	s.setState(StateFetchingEntity, id)

	fetchStart := time.Now()
	record, err := s.fetcher.FetchEntity(ctx, id)
	if s.metrics != nil {
		s.metrics.ObserveFetch(time.Since(fetchStart))
	}
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return s.skip(log, id, err, summary)
	}

	// Every copy is generated and encoded before the first write, so a
	// malformed record never leaves partial output behind.
	docs, err := metadata.GenerateCopies(record, s.opts.CopiesPerEntity)
	if err != nil {
		return s.skip(log, id, err, summary)
	}
	payloads := make([][]byte, len(docs))
	for i, doc := range docs {
		data, err := metadata.Marshal(doc)
		if err != nil {
			return fmt.Errorf("entity %d copy %d: %w", id, i, err)
		}
		payloads[i] = data
	}

	s.setState(StateEmittingCopies, id)
	for i, data := range payloads {
		n := storage.FileNumber(id, s.opts.CopiesPerEntity, i)

		if s.opts.DryRun {
			log.DebugWithFields("Dry run, not writing metadata file", map[string]interface{}{
				"entity_id":   id,
				"file_number": n,
			})
			continue
		}

		path, err := s.store.Write(n, data)
		if err != nil {
			log.WithError(err).ErrorWithFields("Failed to write metadata file", map[string]interface{}{
				"entity_id":   id,
				"file_number": n,
			})
			return fmt.Errorf("entity %d copy %d: %w", id, i, err)
		}
		summary.Written++
		if s.metrics != nil {
			s.metrics.DocumentWritten()
		}
		log.DebugWithFields("Wrote metadata file", map[string]interface{}{
			"entity_id": id,
			"path":      path,
		})
	}

	summary.Generated++
	logger.LogEntityGenerated(log, id, docs[0].Name, len(docs))
	if s.metrics != nil {
		s.metrics.EntityGenerated(rarity.Classify(record.BaseExperienceOrZero()))
	}
	if s.tracker != nil {
		written := len(docs)
		if s.opts.DryRun {
			written = 0
		}
		s.tracker.IncrementGenerated(written)
	}
	return nil
}

// skip records a skipped entity. Errors that are not skippable stop the run.
func (s *Scraper) skip(log logger.Logger, id int, err error, summary *Summary) error {
	if !errors.IsSkippable(err) {
		return fmt.Errorf("entity %d: %w", id, err)
	}

	s.setState(StateSkippingEntity, id)
	logger.LogEntitySkipped(log, id, errors.StatusCode(err), err)

	summary.Skipped = append(summary.Skipped, id)
	if s.metrics != nil {
		s.metrics.EntitySkipped(err)
	}
	if s.tracker != nil {
		s.tracker.IncrementSkipped()
	}
	return nil
}
