package cli

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"routerprobe/internal/config"
	"routerprobe/internal/report"
	"routerprobe/pkg/types"
)

// probeOptions holds probe-only flags.
type probeOptions struct {
	Resume      bool
	MetricsAddr string
}

func runProbe(ctx context.Context, g *globalOptions, cfg config.Config, po probeOptions) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	log, err := newLogger(cfg.LogLevel, g.Stderr)
	if err != nil {
		return err
	}
	models, err := collectModels(cfg)
	if err != nil {
		return err
	}
	orch, st, err := buildOrchestrator(cfg, log, report.NewProgress(g.Stdout))
	if err != nil {
		return err
	}

	if po.MetricsAddr != "" {
		stop, err := serveMetrics(po.MetricsAddr, log)
		if err != nil {
			return err
		}
		defer stop()
	}

	var prior *types.RunResult
	if po.Resume {
		if prior, err = priorRun(st, orch.Capability()); err != nil {
			return err
		}
	}

	run, runErr := orch.Run(ctx, models, prior)
	if len(run.Models) > 0 {
		fmt.Fprintln(g.Stdout)
		report.Summary(g.Stdout, run)
	}
	if runErr != nil {
		if errors.Is(runErr, context.Canceled) {
			return fmt.Errorf("interrupted after %d of %d models; rerun with --resume to continue: %w", len(run.Models), len(models), runErr)
		}
		return runErr
	}
	fmt.Fprintf(g.Stdout, "Results saved to: %s\n", st.LatestPath(orch.Capability()))
	return nil
}

// serveMetrics exposes /metrics while a probe runs.
func serveMetrics(addr string, log zerolog.Logger) (func(), error) {
	r := chi.NewRouter()
	r.Get("/metrics", promhttp.Handler().ServeHTTP)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("metrics listener: %w", err)
	}
	srv := &http.Server{Handler: r, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("metrics server")
		}
	}()
	log.Info().Str("addr", ln.Addr().String()).Msg("metrics listening")
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}, nil
}
