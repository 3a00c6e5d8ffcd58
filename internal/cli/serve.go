package cli

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"routerprobe/internal/config"
	"routerprobe/internal/httpapi"
	"routerprobe/internal/orchestrator"
	"routerprobe/internal/store"
	"routerprobe/pkg/types"
)

// serveOptions holds serve-only flags.
type serveOptions struct {
	Addr string
	// Probe runs one probe of the configured models in the background.
	Probe bool
}

func runServe(ctx context.Context, g *globalOptions, cfg config.Config, so serveOptions) error {
	log, err := newLogger(cfg.LogLevel, g.Stderr)
	if err != nil {
		return err
	}
	addr := so.Addr
	if addr == "" {
		addr = cfg.Server.Addr
	}

	st := store.New(cfg.DataDir, log)
	for _, c := range types.Capabilities {
		if snaps, err := st.List(c); err == nil && len(snaps) > 0 {
			log.Info().Str("capability", string(c)).Int("snapshots", len(snaps)).Str("newest", snaps[len(snaps)-1]).Msg("results on disk")
		}
	}
	var run httpapi.RunStatus
	if so.Probe {
		if err := cfg.Validate(); err != nil {
			return err
		}
		models, err := collectModels(cfg)
		if err != nil {
			return err
		}
		orch, _, err := buildOrchestrator(cfg, log, orchestrator.PublisherFunc(func(e orchestrator.Event) {
			if e.Name == orchestrator.EventCheckpoint {
				log.Info().Str("model", e.ModelID.String()).Interface("models", e.Fields["models"]).Interface("path", e.Fields["path"]).Msg("checkpoint")
			}
		}))
		if err != nil {
			return err
		}
		run = orch
		go backgroundProbe(ctx, orch, st, models, log)
	}

	srv := &http.Server{
		Addr:              addr,
		Handler:           newHandler(cfg, log, st, run),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", addr).Str("data_dir", cfg.DataDir).Msg("routerprobe listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	// Graceful shutdown (Ctrl+C / SIGTERM)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("graceful shutdown")
	}
	return nil
}

// newHandler applies the server section of cfg to the http layer.
func newHandler(cfg config.Config, log zerolog.Logger, st *store.Store, run httpapi.RunStatus) http.Handler {
	httpapi.SetLogger(log)
	httpapi.SetRequestLogLevel(cfg.LogLevel)
	if cfg.Server.CacheMaxAge != nil {
		httpapi.SetCacheMaxAge(cfg.Server.CacheMaxAge.D())
	}
	httpapi.SetCORSOptions(len(cfg.Server.CORSOrigins) > 0, cfg.Server.CORSOrigins, nil, nil)
	httpapi.SetRateLimit(cfg.Server.RateLimit)
	return httpapi.NewMux(httpapi.NewService(st, run))
}

func backgroundProbe(ctx context.Context, orch *orchestrator.Orchestrator, st *store.Store, models []types.ModelID, log zerolog.Logger) {
	prior, err := priorRun(st, orch.Capability())
	if err != nil {
		log.Warn().Err(err).Msg("not resuming")
		prior = nil
	}
	if _, err := orch.Run(ctx, models, prior); err != nil && !errors.Is(err, context.Canceled) {
		log.Error().Err(err).Msg("background probe failed")
	}
}
