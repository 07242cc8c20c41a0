package prometheus

import "time"

// PipelineMetrics holds the metric families recorded by the curation
// pipeline.
type PipelineMetrics struct {
	// Per-entry outcomes.
	EntriesTotal    CounterVec // labels: outcome (finalized|unresolvable|unbalanced|unmapped)
	ReactionsMapped CounterVec // labels: source (direct|suggested), step (single|multi)

	// Per-group processing.
	GroupsTotal   CounterVec // labels: status (ok|timeout|error)
	GroupDuration HistogramVec
	GroupEntries  HistogramVec

	// Balance cache.
	CacheHitsTotal   CounterVec // labels: cache
	CacheMissesTotal CounterVec // labels: cache

	// Candidate space.
	CandidatesPerEntry HistogramVec

	// Infrastructure.
	DBQueryDuration HistogramVec // labels: operation
	PublishTotal    CounterVec   // labels: topic, status

	ErrorsTotal CounterVec // labels: component, code
}

// Histogram bucket presets.
var (
	GroupDurationBuckets = []float64{.1, .5, 1, 5, 15, 30, 60, 120, 300, 600}
	CountBuckets         = []float64{1, 2, 4, 8, 16, 32, 64, 128, 256}
	DBDurationBuckets    = []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 5}
)

// NewPipelineMetrics registers all pipeline metric families on collector.
func NewPipelineMetrics(collector MetricsCollector) *PipelineMetrics {
	m := &PipelineMetrics{}

	m.EntriesTotal = collector.RegisterCounter("entries_total", "Reaction entries processed by outcome", "outcome")
	m.ReactionsMapped = collector.RegisterCounter("reactions_mapped_total", "Atom-mapped reactions produced", "source", "step")

	m.GroupsTotal = collector.RegisterCounter("groups_total", "Enzyme groups processed by status", "status")
	m.GroupDuration = collector.RegisterHistogram("group_duration_seconds", "Wall time per enzyme group", GroupDurationBuckets, "status")
	m.GroupEntries = collector.RegisterHistogram("group_entries", "Entries per enzyme group", CountBuckets)

	m.CacheHitsTotal = collector.RegisterCounter("cache_hits_total", "Balance cache hits", "cache")
	m.CacheMissesTotal = collector.RegisterCounter("cache_misses_total", "Balance cache misses", "cache")

	m.CandidatesPerEntry = collector.RegisterHistogram("candidates_per_entry", "Candidate reactions generated per entry", CountBuckets)

	m.DBQueryDuration = collector.RegisterHistogram("db_query_duration_seconds", "Database query duration", DBDurationBuckets, "operation")
	m.PublishTotal = collector.RegisterCounter("publish_total", "Finalized reaction publish attempts", "topic", "status")

	m.ErrorsTotal = collector.RegisterCounter("errors_total", "Errors by component and code", "component", "code")

	return m
}

// RecordEntryOutcome counts one processed entry under its outcome label.
func (m *PipelineMetrics) RecordEntryOutcome(outcome string) {
	m.EntriesTotal.WithLabelValues(outcome).Inc()
}

// RecordGroup records one completed enzyme group.
func (m *PipelineMetrics) RecordGroup(status string, entries int, elapsed time.Duration) {
	m.GroupsTotal.WithLabelValues(status).Inc()
	m.GroupDuration.WithLabelValues(status).Observe(elapsed.Seconds())
	m.GroupEntries.WithLabelValues().Observe(float64(entries))
}

// RecordCacheAccess counts one cache lookup.
func (m *PipelineMetrics) RecordCacheAccess(cache string, hit bool) {
	if hit {
		m.CacheHitsTotal.WithLabelValues(cache).Inc()
	} else {
		m.CacheMissesTotal.WithLabelValues(cache).Inc()
	}
}
