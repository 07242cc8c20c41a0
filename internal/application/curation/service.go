// Package curation provides the application-level batch service that turns
// raw enzyme reaction records into balanced, atom-mapped, finalized rows.
// It orchestrates the domain pipeline per enzyme group and feeds the results
// to storage and messaging.
package curation

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/turtacn/enzymemap/internal/config"
	"github.com/turtacn/enzymemap/internal/domain/reaction"
	"github.com/turtacn/enzymemap/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/enzymemap/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/enzymemap/pkg/errors"
	rtypes "github.com/turtacn/enzymemap/pkg/types/reaction"
)

// Store persists finalized reactions.
type Store interface {
	BatchInsert(ctx context.Context, reactions []rtypes.FinalizedReaction) error
}

// Publisher emits finalized reactions to downstream consumers.
type Publisher interface {
	PublishFinalized(ctx context.Context, reactions []rtypes.FinalizedReaction) error
}

// Options tunes the batch run.
type Options struct {
	// Concurrency bounds the number of enzyme groups processed in
	// parallel.  Values below 1 select 1.
	Concurrency int
	// GroupTimeout caps the wall time spent on one enzyme group.  Zero
	// means no limit.
	GroupTimeout time.Duration
	// MaxCandidates caps the per-entry candidate space.
	MaxCandidates int
	// Suggestions enables the similarity-based fallback for entries the
	// template pass left unmapped.
	Suggestions bool
	// MultiStep enables depth-two template composition.
	MultiStep bool
}

// OptionsFromConfig derives Options from the loaded configuration.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		Concurrency:   cfg.Worker.Concurrency,
		GroupTimeout:  cfg.Curation.GroupTimeout,
		MaxCandidates: cfg.Curation.MaxCandidates,
		Suggestions:   cfg.Curation.Suggestions,
		MultiStep:     cfg.Curation.MultiStep,
	}
}

// Result is the outcome of one batch run.
type Result struct {
	Stats rtypes.BatchStats
	Rows  []rtypes.FinalizedReaction
}

// Service runs the curation pipeline over batches of raw reactions.
type Service struct {
	resolver  reaction.StructureResolver
	library   *reaction.Library
	cache     reaction.BalanceCache
	store     Store
	publisher Publisher
	metrics   *prometheus.PipelineMetrics
	logger    logging.Logger
	opts      Options
}

// NewService constructs the curation service.  store, publisher and metrics
// are optional; a nil cache selects the in-memory balance cache.
func NewService(
	resolver reaction.StructureResolver,
	library *reaction.Library,
	cache reaction.BalanceCache,
	store Store,
	publisher Publisher,
	metrics *prometheus.PipelineMetrics,
	opts Options,
	logger logging.Logger,
) (*Service, error) {
	if resolver == nil {
		return nil, errors.New(errors.ErrCodeBadRequest, "structure resolver is required")
	}
	if library == nil || library.Len() == 0 {
		return nil, errors.New(errors.ErrCodeRuleLibraryEmpty, "rule library is required")
	}
	if cache == nil {
		cache = reaction.NewMemoryBalanceCache()
	}
	if opts.Concurrency < 1 {
		opts.Concurrency = 1
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Service{
		resolver:  resolver,
		library:   library,
		cache:     cache,
		store:     store,
		publisher: publisher,
		metrics:   metrics,
		logger:    logger.Named("curation"),
		opts:      opts,
	}, nil
}

// Run curates the given entries: resolves structures once for the whole
// batch, processes enzyme groups concurrently, persists and publishes the
// finalized rows.  Recoverable per-entry failures are counted, never fatal;
// Run errors only on batch-level problems (resolution, storage, publishing).
func (s *Service) Run(ctx context.Context, entries []rtypes.RawReaction) (*Result, error) {
	if len(entries) == 0 {
		return &Result{}, nil
	}
	start := time.Now()

	variants, err := s.resolver.Resolve(ctx, compoundNames(entries))
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSourceUnavailable, "structure resolution failed")
	}
	redox := reaction.BuildRedoxTables(variants, s.logger)

	groups := groupByEC(entries)
	s.logger.Info("batch started",
		logging.Int("entries", len(entries)),
		logging.Int("groups", len(groups)),
		logging.Int("concurrency", s.opts.Concurrency),
	)

	var (
		mu     sync.Mutex
		result Result
	)
	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(s.opts.Concurrency)
	for _, g := range groups {
		g := g
		eg.Go(func() error {
			rows, stats := s.runGroup(egCtx, g, variants, redox)
			mu.Lock()
			result.Rows = append(result.Rows, rows...)
			result.Stats.Add(stats)
			mu.Unlock()
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	if s.store != nil && len(result.Rows) > 0 {
		if err := s.store.BatchInsert(ctx, result.Rows); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "persisting finalized reactions failed")
		}
	}
	if s.publisher != nil && len(result.Rows) > 0 {
		if err := s.publisher.PublishFinalized(ctx, result.Rows); err != nil {
			return nil, err
		}
	}

	s.logger.Info("batch finished",
		logging.Int("entries", result.Stats.Entries),
		logging.Int("finalized", result.Stats.Finalized),
		logging.Int("unresolvable", result.Stats.Unresolvable),
		logging.Int("unbalanced", result.Stats.Unbalanced),
		logging.Int("unmapped", result.Stats.Unmapped),
		logging.Int("rows", len(result.Rows)),
		logging.Duration("elapsed", time.Since(start)),
	)
	return &result, nil
}

// ecGroup is one enzyme group: every entry sharing an EC identifier.
type ecGroup struct {
	ec      string
	entries []rtypes.RawReaction
}

// groupByEC partitions entries by EC identifier, groups ordered by EC so
// scheduling is deterministic.
func groupByEC(entries []rtypes.RawReaction) []ecGroup {
	byEC := map[string][]rtypes.RawReaction{}
	for _, e := range entries {
		byEC[e.ECNumber] = append(byEC[e.ECNumber], e)
	}
	ecs := make([]string, 0, len(byEC))
	for ec := range byEC {
		ecs = append(ecs, ec)
	}
	sort.Strings(ecs)
	out := make([]ecGroup, 0, len(ecs))
	for _, ec := range ecs {
		out = append(out, ecGroup{ec: ec, entries: byEC[ec]})
	}
	return out
}

// compoundNames returns the deduplicated participant names of all entries.
func compoundNames(entries []rtypes.RawReaction) []string {
	seen := map[string]bool{}
	var out []string
	for _, e := range entries {
		for _, side := range [][]string{e.Substrates, e.Products} {
			for _, name := range side {
				if !seen[name] {
					seen[name] = true
					out = append(out, name)
				}
			}
		}
	}
	sort.Strings(out)
	return out
}

// runGroup processes one enzyme group.  Panics and errors are contained to
// the group; the group's outcome is always a row list plus statistics.
func (s *Service) runGroup(ctx context.Context, g ecGroup, variants map[string][]string, redox reaction.RedoxTables) (rows []rtypes.FinalizedReaction, stats rtypes.BatchStats) {
	start := time.Now()
	status := "ok"
	defer func() {
		if r := recover(); r != nil {
			status = "error"
			rows, stats = nil, rtypes.BatchStats{}
			s.logger.Error("enzyme group panicked",
				logging.String("ec", g.ec),
				logging.Any("panic", r),
			)
		}
		stats.GroupsProcessed++
		if status == "timeout" {
			stats.GroupsTimedOut++
		}
		if s.metrics != nil {
			s.metrics.RecordGroup(status, len(g.entries), time.Since(start))
		}
	}()

	if s.opts.GroupTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.GroupTimeout)
		defer cancel()
	}

	logger := s.logger.With(logging.String("ec", g.ec))
	builder := reaction.NewCandidateBuilder(s.opts.MaxCandidates, logger)
	balancer := reaction.NewBalancer(s.cache, redox, logger)
	if s.metrics != nil {
		balancer.CacheObserver = func(hit bool) { s.metrics.RecordCacheAccess("balance", hit) }
	}
	mapper := reaction.NewMapper(s.library, logger)
	selector := reaction.NewSelector(nil, logger)
	finalizer := reaction.NewFinalizer(logger)

	results := make([]reaction.EntryResult, 0, len(g.entries))

	// First pass: candidates, balance, single-step mapping over the full
	// library.  Rule ids validated here seed the fallback passes.
	groupRules := map[int]bool{}
	for _, entry := range g.entries {
		if ctx.Err() != nil {
			status = "timeout"
			logger.Warn("group timed out", logging.Int("processed", len(results)))
			break
		}
		res := s.processEntry(ctx, entry, builder, balancer, mapper, variants, logger)
		for _, m := range res.Mappings {
			for _, id := range m.RuleIDs {
				groupRules[id] = true
			}
		}
		results = append(results, res)
	}

	// Second pass: multi-step composition for entries single-step mapping
	// missed, restricted to the group's validated rules when any exist.
	if s.opts.MultiStep {
		for i := range results {
			if len(results[i].Mappings) > 0 || len(results[i].Balanced) == 0 {
				continue
			}
			results[i].Mappings = mapper.MapMulti(results[i].Balanced, groupRules, rtypes.SourceDirect)
		}
	}

	// Isomerases get the reserved isomerization assignment when templates
	// fail: same-formula single-substrate single-product reactions.
	if strings.HasPrefix(g.ec, "5.") {
		for i := range results {
			if len(results[i].Mappings) > 0 || len(results[i].Balanced) == 0 {
				continue
			}
			results[i].Mappings = mapper.MapIsomerization(results[i].Balanced, rtypes.SourceDirect)
		}
	}

	// Suggestion fallback: transplant reaction centers the group already
	// mapped onto the entries still unmapped, then re-map the corrected
	// candidates with the rules those centers came from.
	if s.opts.Suggestions {
		index := reaction.NewSuggestionIndex(logger)
		for _, res := range results {
			for _, m := range res.Mappings {
				index.Add(m)
			}
		}
		if index.Len() > 0 {
			known := index.RuleIDs()
			for i := range results {
				if len(results[i].Mappings) > 0 || len(results[i].Candidates) == 0 {
					continue
				}
				suggested := balancedOnly(index.Suggest(results[i].Candidates))
				if len(suggested) == 0 {
					continue
				}
				results[i].Mappings = mapper.MapSingle(suggested, known, rtypes.SourceSuggested)
				if len(results[i].Mappings) > 0 && len(results[i].Balanced) == 0 {
					results[i].Balanced = suggested
				}
			}
		}
	}

	// Selection, reversibility inference, group-level quality scoring,
	// flattening.
	selected := make([][]reaction.Mapping, 0, len(results))
	for i := range results {
		results[i].Mappings = selector.SelectBest(results[i].Mappings)
		if results[i].Entry.Reversible == rtypes.UnknownReversibility {
			for _, m := range results[i].Mappings {
				if mapper.MapsReverse(m.Reaction, groupRules) {
					results[i].ProbablyReversible = true
					break
				}
			}
		}
		selected = append(selected, results[i].Mappings)
	}
	scores := reaction.QualityScores(s.library, selected)

	for _, res := range results {
		stats.Entries++
		outcome := classify(res)
		switch outcome {
		case "finalized":
			stats.Finalized++
		case "unresolvable":
			stats.Unresolvable++
		case "unbalanced":
			stats.Unbalanced++
		case "unmapped":
			stats.Unmapped++
		}
		for _, m := range res.Mappings {
			if m.Source == rtypes.SourceSuggested {
				stats.Suggested++
			}
			if m.Step == rtypes.StepMulti {
				stats.MultiStep++
			}
			if s.metrics != nil {
				s.metrics.ReactionsMapped.WithLabelValues(string(m.Source), string(m.Step)).Inc()
			}
		}
		if s.metrics != nil {
			s.metrics.RecordEntryOutcome(outcome)
		}
		rows = append(rows, finalizer.Finalize(res, s.library, scores)...)
	}

	logger.Debug("group finished",
		logging.Int("entries", stats.Entries),
		logging.Int("finalized", stats.Finalized),
		logging.Int("rows", len(rows)),
		logging.Duration("elapsed", time.Since(start)),
	)
	return rows, stats
}

// processEntry runs one entry through candidates, balance and single-step
// mapping.  A panic inside the chemistry is contained to the entry.
func (s *Service) processEntry(
	ctx context.Context,
	entry rtypes.RawReaction,
	builder *reaction.CandidateBuilder,
	balancer *reaction.Balancer,
	mapper *reaction.Mapper,
	variants map[string][]string,
	logger logging.Logger,
) (res reaction.EntryResult) {
	res = reaction.EntryResult{Entry: entry}
	defer func() {
		if r := recover(); r != nil {
			res = reaction.EntryResult{Entry: entry}
			logger.Error("entry panicked",
				logging.String("rxn", entry.EquationText()),
				logging.Any("panic", r),
			)
		}
	}()

	candidates, err := builder.Build(entry, variants)
	if err != nil {
		if !errors.IsRecoverable(err) {
			logger.Warn("candidate enumeration failed",
				logging.String("rxn", entry.EquationText()), logging.Err(err))
		}
		return res
	}
	res.Candidates = candidates
	if s.metrics != nil {
		s.metrics.CandidatesPerEntry.WithLabelValues().Observe(float64(len(candidates)))
	}

	res.Balanced = balancer.Resolve(ctx, candidates, entry.EquationText())
	if len(res.Balanced) == 0 {
		return res
	}

	res.Mappings = mapper.MapSingle(res.Balanced, nil, rtypes.SourceDirect)
	return res
}

// classify names the terminal outcome of one entry.
func classify(res reaction.EntryResult) string {
	switch {
	case len(res.Mappings) > 0:
		return "finalized"
	case len(res.Candidates) == 0:
		return "unresolvable"
	case len(res.Balanced) == 0:
		return "unbalanced"
	default:
		return "unmapped"
	}
}

// balancedOnly filters a reaction list down to the atom-conserving members.
func balancedOnly(candidates []reaction.Reaction) []reaction.Reaction {
	out := candidates[:0:0]
	for _, c := range candidates {
		if c.IsBalanced() {
			out = append(out, c)
		}
	}
	return out
}

// String implements fmt.Stringer for log lines summarizing a result.
func (r *Result) String() string {
	return fmt.Sprintf("entries=%d finalized=%d unresolvable=%d unbalanced=%d unmapped=%d rows=%d",
		r.Stats.Entries, r.Stats.Finalized, r.Stats.Unresolvable, r.Stats.Unbalanced, r.Stats.Unmapped, len(r.Rows))
}
