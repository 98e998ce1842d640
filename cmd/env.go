package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/talesin/civics100-sub000/internal/config"
	"github.com/talesin/civics100-sub000/internal/filter"
	"github.com/talesin/civics100-sub000/internal/genclient"
	"github.com/talesin/civics100-sub000/internal/llm"
	"github.com/talesin/civics100-sub000/internal/logging"
	"github.com/talesin/civics100-sub000/internal/pipeline"
	"github.com/talesin/civics100-sub000/internal/quality"
	"github.com/talesin/civics100-sub000/internal/quiz"
	"github.com/talesin/civics100-sub000/internal/sources"
	"github.com/talesin/civics100-sub000/internal/store"
	"github.com/talesin/civics100-sub000/internal/strategy"
)

// env is everything a generating command needs, built from flags and
// configuration.
type env struct {
	cfg       config.Config
	log       *zap.Logger
	store     *store.Store
	questions []quiz.Question
	client    *genclient.Client
	model     string
	runner    *pipeline.Runner

	closers []func() error
}

func (e *env) Close() {
	for i := len(e.closers) - 1; i >= 0; i-- {
		if err := e.closers[i](); err != nil {
			e.log.Warn("close", zap.Error(err))
		}
	}
	_ = e.log.Sync()
}

// newLogger builds the logger from the persistent flags.
func newLogger(cmd *cobra.Command) (*zap.Logger, error) {
	verbose, _ := cmd.Flags().GetBool("verbose")
	jsonLogs, _ := cmd.Flags().GetBool("json-logs")
	return logging.New(logging.Options{Verbose: verbose, JSON: jsonLogs})
}

// loadConfig reads the env file and CIVICS_* variables, applies the
// generation flags the command defines and validates the result.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	envFile, _ := cmd.Flags().GetString("env")
	cfg, err := config.Load(envFile)
	if err != nil {
		return cfg, err
	}
	applyFlags(cmd, &cfg)
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func applyFlags(cmd *cobra.Command, cfg *config.Config) {
	f := cmd.Flags()
	if f.Lookup("target") != nil && f.Changed("target") {
		cfg.Target, _ = f.GetInt("target")
	}
	if f.Lookup("concurrency") != nil && f.Changed("concurrency") {
		cfg.Concurrency, _ = f.GetInt("concurrency")
	}
	if f.Lookup("questions") != nil && f.Changed("questions") {
		cfg.QuestionsPath, _ = f.GetString("questions")
	}
	if f.Lookup("curated") != nil && f.Changed("curated") {
		cfg.CuratedPath, _ = f.GetString("curated")
	}
	if f.Lookup("pools") != nil && f.Changed("pools") {
		cfg.PoolsPath, _ = f.GetString("pools")
	}
	if f.Lookup("output") != nil && f.Changed("output") {
		cfg.OutputPath, _ = f.GetString("output")
	}
	if f.Lookup("mode") != nil && f.Changed("mode") {
		cfg.FilterMode, _ = f.GetString("mode")
	}
	if f.Lookup("addr") != nil && f.Changed("addr") {
		cfg.ListenAddr, _ = f.GetString("addr")
	}
	if noLLM, _ := f.GetBool("no-llm"); noLLM {
		cfg.LLMEnabled = false
	}
	if noSim, _ := f.GetBool("no-similarity"); noSim {
		cfg.SimilarityEnabled = false
	}
}

// addGenerationFlags registers the flags shared by the generating commands.
func addGenerationFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.IntP("target", "t", 0, "Distractors per question (5-20)")
	f.IntP("concurrency", "c", 0, "Questions generated at once")
	f.StringP("questions", "q", "", "Question file")
	f.String("curated", "", "Curated distractor file")
	f.String("pools", "", "Answer pool file for structured answers")
	f.StringP("output", "o", "", "Result file")
	f.String("mode", "", "Similarity filter mode: strict or lenient")
	f.Bool("no-llm", false, "Disable LLM generation")
	f.Bool("no-similarity", false, "Disable the similarity threshold check")
}

// setup builds the full generation stack. The caller must Close the env.
func setup(ctx context.Context, cmd *cobra.Command, opts ...pipeline.Option) (*env, error) {
	log, err := newLogger(cmd)
	if err != nil {
		return nil, err
	}
	e := &env{log: log}

	e.cfg, err = loadConfig(cmd)
	if err != nil {
		e.Close()
		return nil, err
	}

	e.questions, err = quiz.LoadFile(e.cfg.QuestionsPath)
	if err != nil {
		e.Close()
		return nil, err
	}
	curated, err := sources.LoadCurated(e.cfg.CuratedPath)
	if err != nil {
		e.Close()
		return nil, err
	}
	pools, err := sources.LoadPools(e.cfg.PoolsPath)
	if err != nil {
		e.Close()
		return nil, err
	}

	dbPath, err := resolveDBPath(cmd)
	if err != nil {
		e.Close()
		return nil, fmt.Errorf("resolve database path: %w", err)
	}
	e.store, err = store.Open(dbPath)
	if err != nil {
		e.Close()
		return nil, fmt.Errorf("open database: %w", err)
	}
	e.closers = append(e.closers, e.store.Close)

	selCfg := e.cfg.Selector()
	if e.cfg.LLMEnabled {
		if err := e.buildClient(ctx); err != nil {
			e.Close()
			return nil, err
		}
		if cost := llm.LookupCost(e.model); cost != nil {
			selCfg.CostPerToken = cost.PerToken()
		}
		opts = append([]pipeline.Option{pipeline.WithGenerator(e.client)}, opts...)
	}

	set := sources.NewSet(e.questions, curated, pools, sources.NewUsageTracker())
	flt := filter.New(e.cfg.Filter(), nil)
	opts = append(opts,
		pipeline.WithRecorder(e.store.ResultRepo()),
		pipeline.WithLogger(log),
	)
	e.runner = pipeline.NewRunner(strategy.NewSelector(selCfg, log), set, flt, quality.New(flt.Scorer()), opts...)

	log.Debug("setup complete",
		zap.Int("questions", len(e.questions)),
		zap.Int("curated", len(curated)),
		zap.Bool("llm", e.cfg.LLMEnabled),
		zap.String("db", dbPath))
	return e, nil
}

func (e *env) buildClient(ctx context.Context) error {
	provider, err := llm.NewProvider(ctx, e.cfg.LLM, e.store.EventRepo(), e.log)
	if err != nil {
		return err
	}

	var copts []genclient.Option
	copts = append(copts, genclient.WithLogger(e.log))
	if e.cfg.RedisURL != "" {
		rc, err := genclient.NewRedisClient(ctx, e.cfg.RedisURL)
		if err != nil {
			// The shared tier is optional.
			e.log.Warn("redis unavailable, using in-process cache only", zap.Error(err))
		} else {
			cache := genclient.NewRedisCache(rc, e.log)
			e.closers = append(e.closers, cache.Close)
			copts = append(copts, genclient.WithSharedCache(cache))
		}
	}

	e.client = genclient.New(provider, e.cfg.GenClient(), copts...)
	e.model = provider.ModelID()
	e.log.Info("llm enabled",
		zap.String("provider", e.cfg.LLM.Provider),
		zap.String("model", provider.ModelID()))
	return nil
}

// openStore opens the database named by --db or the default path.
func openStore(cmd *cobra.Command) (*store.Store, error) {
	dbPath, err := resolveDBPath(cmd)
	if err != nil {
		return nil, fmt.Errorf("resolve database path: %w", err)
	}
	s, err := store.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return s, nil
}
