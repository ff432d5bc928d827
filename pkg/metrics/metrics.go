// Package metrics records run counters for a generation run and can export
// them in the Prometheus text format.
//
// Metrics:
//   - nftmaker_entities_total{outcome} (Counter): Entities by outcome (generated, skipped)
//   - nftmaker_skips_total{reason} (Counter): Skipped entities by error type
//   - nftmaker_documents_written_total (Counter): Metadata files written
//   - nftmaker_rarity_total{rarity} (Counter): Generated entities by rarity tier
//   - nftmaker_fetch_duration_seconds (Histogram): Catalog fetch latency
//   - nftmaker_run_duration_seconds (Gauge): Wall time of the last run
//
// Each Recorder owns its registry, so several runs in one process (and the
// tests) never collide on the default registerer.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"nftmaker/pkg/errors"
	"nftmaker/pkg/rarity"
)

const (
	OutcomeGenerated = "generated"
	OutcomeSkipped   = "skipped"
)

// Recorder holds the collectors for one run
type Recorder struct {
	registry *prometheus.Registry

	entities      *prometheus.CounterVec
	skips         *prometheus.CounterVec
	documents     prometheus.Counter
	rarities      *prometheus.CounterVec
	fetchDuration prometheus.Histogram
	runDuration   prometheus.Gauge
}

// New creates a Recorder with a fresh registry
func New() *Recorder {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Recorder{
		registry: reg,
		entities: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "nftmaker_entities_total",
				Help: "Total number of catalog entities processed",
			},
			[]string{"outcome"}, // "generated", "skipped"
		),
		skips: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "nftmaker_skips_total",
				Help: "Total number of skipped entities by error type",
			},
			[]string{"reason"},
		),
		documents: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "nftmaker_documents_written_total",
				Help: "Total number of metadata documents written",
			},
		),
		rarities: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "nftmaker_rarity_total",
				Help: "Total number of generated entities by rarity tier",
			},
			[]string{"rarity"},
		),
		fetchDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "nftmaker_fetch_duration_seconds",
				Help:    "Catalog fetch duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
		),
		runDuration: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "nftmaker_run_duration_seconds",
				Help: "Wall time of the last generation run in seconds",
			},
		),
	}
}

// Registry exposes the underlying registry
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// ObserveFetch records one catalog request
func (r *Recorder) ObserveFetch(d time.Duration) {
	r.fetchDuration.Observe(d.Seconds())
}

// EntityGenerated counts an entity whose copies were all written
func (r *Recorder) EntityGenerated(label rarity.Label) {
	r.entities.WithLabelValues(OutcomeGenerated).Inc()
	r.rarities.WithLabelValues(label.String()).Inc()
}

// EntitySkipped counts a skipped entity, labelled with the error type of err
func (r *Recorder) EntitySkipped(err error) {
	r.entities.WithLabelValues(OutcomeSkipped).Inc()
	r.skips.WithLabelValues(string(errors.TypeOf(err))).Inc()
}

// DocumentWritten counts one metadata file
func (r *Recorder) DocumentWritten() {
	r.documents.Inc()
}

// SetRunDuration records the total run time
func (r *Recorder) SetRunDuration(d time.Duration) {
	r.runDuration.Set(d.Seconds())
}

// WriteTextfile writes every metric to path in the node_exporter textfile format
func (r *Recorder) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return errors.Wrap(errors.ErrorTypeStorage, 0, "failed to write metrics file", err)
	}
	return nil
}
