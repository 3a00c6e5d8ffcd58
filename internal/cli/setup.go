package cli

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"routerprobe/internal/aggregate"
	"routerprobe/internal/common/fsutil"
	"routerprobe/internal/common/httpclient"
	"routerprobe/internal/config"
	"routerprobe/internal/directory"
	"routerprobe/internal/invoke"
	"routerprobe/internal/orchestrator"
	"routerprobe/internal/probe"
	"routerprobe/internal/registry"
	"routerprobe/internal/store"
	"routerprobe/pkg/types"
)

// loadConfig reads the config file (if any), overlays the environment and
// then the persistent flags, and fills defaults.
func loadConfig(g *globalOptions) (config.Config, error) {
	var cfg config.Config
	if g.ConfigPath != "" {
		path, err := fsutil.Resolve(g.ConfigPath)
		if err != nil {
			return cfg, err
		}
		if cfg, err = config.Load(path); err != nil {
			return cfg, err
		}
	}
	cfg.ApplyEnv(g.Getenv)
	if g.LogLevel != "" {
		cfg.LogLevel = g.LogLevel
	}
	if g.DataDir != "" {
		cfg.DataDir = g.DataDir
	}
	cfg.FillDefaults()
	dir, err := fsutil.Resolve(cfg.DataDir)
	if err != nil {
		return cfg, fmt.Errorf("data dir: %w", err)
	}
	cfg.DataDir = dir
	return cfg, nil
}

// collectModels resolves the run's model list. Without a models file or
// inline ids, models.json in the working directory is used.
func collectModels(cfg config.Config) ([]types.ModelID, error) {
	file := cfg.ModelsFile
	if file == "" && len(cfg.Models) == 0 {
		file = registry.DefaultModelsFile
	}
	models, err := registry.Collect(file, cfg.Models, cfg.Include, cfg.Exclude)
	if err != nil {
		return nil, fmt.Errorf("models: %w", err)
	}
	if len(models) == 0 {
		return nil, errors.New("no models to probe")
	}
	return models, nil
}

// buildOrchestrator wires the OpenRouter clients, prober, aggregator and
// store for one capability.
func buildOrchestrator(cfg config.Config, log zerolog.Logger, pub orchestrator.EventPublisher) (*orchestrator.Orchestrator, *store.Store, error) {
	c := cfg.CapabilityValue()
	client := httpclient.New(httpclient.Options{
		Name:    "openrouter",
		BaseURL: cfg.BaseURL,
		APIKey:  cfg.APIKey,
		Timeout: cfg.RequestTimeout.D(),
		Referer: cfg.Referer,
		Title:   cfg.AppTitle,
		Logger:  log,
	})
	def, err := invoke.ForCapability(c, cfg.MaxTokens)
	if err != nil {
		return nil, nil, err
	}
	classifier := probe.NewPhraseClassifier(cfg.Classifier.RefusalPhrases, cfg.Classifier.ErrorKeywords)
	prober, err := probe.New(invoke.NewOpenRouter(client), def, classifier, log)
	if err != nil {
		return nil, nil, err
	}
	st := store.New(cfg.DataDir, log)
	orch := orchestrator.New(orchestrator.Config{
		Capability: c,
		Trials:     cfg.Trials,
		Workers:    cfg.Concurrency.Workers,
		Pacing: &orchestrator.Pacing{
			Trial:    cfg.Pacing.Trial(),
			Provider: cfg.Pacing.Provider(),
			Model:    cfg.Pacing.Model(),
		},
		Directory:  directory.NewOpenRouter(client, log),
		Prober:     prober,
		Aggregator: aggregate.New(classifier, cfg.MaxReasons),
		Store:      st,
		Limiter:    orchestrator.NewLimiter(cfg.Concurrency.RequestsPerSecond, cfg.Concurrency.Burst, cfg.Concurrency.PerProvider),
		Publisher:  pub,
		Logger:     log,
	})
	return orch, st, nil
}

// priorRun loads the latest results of the capability for --resume.
func priorRun(st *store.Store, c types.Capability) (*types.RunResult, error) {
	r, _, err := st.Latest(c)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("resume: %w", err)
	}
	return &r, nil
}
