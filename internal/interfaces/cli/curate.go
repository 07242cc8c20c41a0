package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/turtacn/enzymemap/internal/application/curation"
	"github.com/turtacn/enzymemap/internal/config"
	"github.com/turtacn/enzymemap/internal/domain/reaction"
	"github.com/turtacn/enzymemap/internal/infrastructure/brenda"
	"github.com/turtacn/enzymemap/internal/infrastructure/database/postgres"
	"github.com/turtacn/enzymemap/internal/infrastructure/database/postgres/repositories"
	"github.com/turtacn/enzymemap/internal/infrastructure/database/redis"
	"github.com/turtacn/enzymemap/internal/infrastructure/messaging/kafka"
	"github.com/turtacn/enzymemap/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/enzymemap/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/enzymemap/internal/infrastructure/resolver"
	"github.com/turtacn/enzymemap/pkg/errors"
	rtypes "github.com/turtacn/enzymemap/pkg/types/reaction"
)

// curateOptions holds the curate subcommand flags.
type curateOptions struct {
	input      string
	structures string
	rulesFile  string
	ecPrefix   string
	dryRun     bool
}

func newCurateCommand(root *RootOptions) *cobra.Command {
	opts := &curateOptions{}

	cmd := &cobra.Command{
		Use:   "curate",
		Short: "Run the curation pipeline over a reaction database dump",
		Long: "Curate parses a BRENDA-style flat file, resolves compound structures,\n" +
			"balances and atom-maps every reaction and writes the finalized rows to\n" +
			"Postgres.  With --dry-run nothing is persisted or published.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runCurate(cmd.Context(), root, opts)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.input, "input", "i", "", "BRENDA-style flat file to curate (required)")
	f.StringVarP(&opts.structures, "structures", "s", "", "JSON compound-to-structures table (required)")
	f.StringVar(&opts.rulesFile, "rules", "", "JSON rule library file (default: load rules from Postgres)")
	f.StringVar(&opts.ecPrefix, "ec", "", "only curate entries whose EC number starts with this prefix")
	f.BoolVar(&opts.dryRun, "dry-run", false, "run the pipeline without persisting or publishing")
	_ = cmd.MarkFlagRequired("input")
	_ = cmd.MarkFlagRequired("structures")

	return cmd
}

func runCurate(ctx context.Context, root *RootOptions, opts *curateOptions) error {
	cfg, err := loadConfig(root)
	if err != nil {
		return err
	}
	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	entries, err := loadEntries(opts, logger)
	if err != nil {
		return err
	}
	res, err := resolver.LoadFile(opts.structures, logger)
	if err != nil {
		return err
	}

	var (
		pool      *postgres.Connection
		store     curation.Store
		publisher curation.Publisher
		library   *reaction.Library
	)
	needDB := !opts.dryRun || opts.rulesFile == ""
	if needDB {
		pool, err = postgres.NewConnection(ctx, cfg.Database, logger)
		if err != nil {
			return err
		}
		defer pool.Close()
	}

	if opts.rulesFile != "" {
		library, err = loadRuleFile(opts.rulesFile)
	} else {
		library, err = repositories.NewRuleRepository(pool.Pool(), logger).LoadLibrary(ctx)
	}
	if err != nil {
		return err
	}

	if !opts.dryRun {
		store = repositories.NewReactionRepository(pool.Pool(), logger)
		if cfg.Kafka.Enabled {
			producer, perr := kafka.NewProducer(cfg.Kafka, logger)
			if perr != nil {
				return perr
			}
			defer producer.Close()
			publisher = producer
		}
	}

	cache, closeCache, err := newBalanceCache(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeCache()

	metrics, closeMetrics, err := startMetrics(cfg, logger)
	if err != nil {
		return err
	}
	defer closeMetrics()

	svc, err := curation.NewService(res, library, cache, store, publisher, metrics,
		curation.OptionsFromConfig(cfg), logger)
	if err != nil {
		return err
	}

	result, err := svc.Run(ctx, entries)
	if err != nil {
		return err
	}
	return printStats(result.Stats)
}

// loadEntries parses the input file and applies the EC prefix filter.
func loadEntries(opts *curateOptions, logger logging.Logger) ([]rtypes.RawReaction, error) {
	entries, err := brenda.NewParser(logger).ParseFile(opts.input)
	if err != nil {
		return nil, err
	}
	if opts.ecPrefix == "" {
		return entries, nil
	}
	filtered := entries[:0:0]
	for _, e := range entries {
		if strings.HasPrefix(e.ECNumber, opts.ecPrefix) {
			filtered = append(filtered, e)
		}
	}
	logger.Info("entries filtered by EC prefix",
		logging.String("prefix", opts.ecPrefix),
		logging.Int("kept", len(filtered)),
		logging.Int("total", len(entries)),
	)
	return filtered, nil
}

// ruleFileEntry is the JSON shape of one rule in a --rules file.
type ruleFileEntry struct {
	ID      int    `json:"id"`
	Name    string `json:"name"`
	Pattern string `json:"pattern"`
	GroupID int    `json:"group_id"`
}

func loadRuleFile(path string) (*reaction.Library, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSourceUnavailable, "cannot read rule file").
			WithDetail(path)
	}
	var raw []ruleFileEntry
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSourceParseError, "rule file is not valid JSON").
			WithDetail(path)
	}
	rules := make([]reaction.Rule, 0, len(raw))
	for _, r := range raw {
		rules = append(rules, reaction.Rule{ID: r.ID, Name: r.Name, Pattern: r.Pattern, GroupID: r.GroupID})
	}
	return reaction.NewLibrary(rules)
}

// newBalanceCache selects the Redis-backed cache when configured, the
// in-process cache otherwise.
func newBalanceCache(ctx context.Context, cfg *config.Config, logger logging.Logger) (reaction.BalanceCache, func(), error) {
	if !cfg.Redis.Enabled {
		return reaction.NewMemoryBalanceCache(), func() {}, nil
	}
	client, err := redis.NewClient(cfg.Redis, logger)
	if err != nil {
		return nil, nil, err
	}
	if err := client.Ping(ctx); err != nil {
		logger.Warn("redis unreachable, falling back to the in-memory cache", logging.Err(err))
		_ = client.Close()
		return reaction.NewMemoryBalanceCache(), func() {}, nil
	}
	cache := redis.NewBalanceCache(client, cfg.Redis.KeyPrefix, cfg.Redis.DefaultTTL, logger)
	return cache, func() { _ = client.Close() }, nil
}

// startMetrics registers the pipeline metric families and serves them over
// HTTP when metrics are enabled.
func startMetrics(cfg *config.Config, logger logging.Logger) (*prometheus.PipelineMetrics, func(), error) {
	if !cfg.Metrics.Enabled {
		return nil, func() {}, nil
	}
	collector, err := prometheus.NewMetricsCollector(prometheus.CollectorConfig{
		Namespace:            cfg.Metrics.Namespace,
		EnableProcessMetrics: true,
		EnableGoMetrics:      true,
	}, logger)
	if err != nil {
		return nil, nil, err
	}

	mux := http.NewServeMux()
	mux.Handle(cfg.Metrics.Path, collector.Handler())
	srv := &http.Server{Addr: cfg.Metrics.Addr, Handler: mux}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("metrics server failed", logging.Err(err))
		}
	}()
	logger.Info("metrics server started",
		logging.String("addr", cfg.Metrics.Addr),
		logging.String("path", cfg.Metrics.Path),
	)

	stop := func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}
	return prometheus.NewPipelineMetrics(collector), stop, nil
}

// printStats writes the batch statistics to stdout as JSON.
func printStats(stats rtypes.BatchStats) error {
	out, err := json.MarshalIndent(stats, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}
