package httpapi

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"routerprobe/internal/matrix"
	"routerprobe/internal/report"
	"routerprobe/internal/store"
	"routerprobe/pkg/types"
)

// NewMux builds the router serving the matrix page, result JSON and
// operational endpoints.
func NewMux(svc Service) http.Handler {
	r := chi.NewRouter()
	// Basic middlewares: request id, real ip, recoverer
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(MetricsMiddleware)
	r.Use(accessLog)
	// Compression for JSON and HTML
	r.Use(middleware.Compress(5))
	// Security headers
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			next.ServeHTTP(w, r)
		})
	})
	if corsEnabled {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: corsAllowedOrigins,
			AllowedMethods: corsAllowedMethods,
			AllowedHeaders: corsAllowedHeaders,
			ExposedHeaders: []string{"ETag"},
			MaxAge:         300,
		}))
	}

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		var (
			ms     []matrix.Matrix
			latest time.Time
		)
		for _, c := range types.Capabilities {
			run, _, err := svc.Latest(c)
			if errors.Is(err, store.ErrNotFound) {
				continue
			}
			if err != nil {
				writeJSONError(w, http.StatusInternalServerError, err.Error())
				return
			}
			m := matrix.Build(run)
			if m.Capability == "" {
				m.Capability = c
			}
			if m.GeneratedAt.After(latest) {
				latest = m.GeneratedAt
			}
			ms = append(ms, m)
		}
		if latest.IsZero() {
			latest = time.Now()
		}
		var buf bytes.Buffer
		if err := report.HTML(&buf, ms, latest); err != nil {
			writeJSONError(w, http.StatusInternalServerError, err.Error())
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write(buf.Bytes())
	})

	r.Route("/api", func(r chi.Router) {
		if apiRequestsPerMinute > 0 {
			r.Use(httprate.LimitByIP(apiRequestsPerMinute, time.Minute))
		}
		r.Get("/results/{capability}", func(w http.ResponseWriter, r *http.Request) {
			run, art, ok := loadLatest(w, r, svc)
			if !ok {
				return
			}
			writeCachedJSON(w, r, art.Digest, run.Capability, run)
		})
		r.Get("/matrix/{capability}", func(w http.ResponseWriter, r *http.Request) {
			run, art, ok := loadLatest(w, r, svc)
			if !ok {
				return
			}
			writeCachedJSON(w, r, "matrix-"+art.Digest, run.Capability, matrix.Build(run))
		})
	})

	r.Get("/status", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(svc.Status()); err != nil {
			writeJSONError(w, http.StatusInternalServerError, "failed to encode response")
			return
		}
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if svc.Ready() {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("ready"))
			return
		}
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("no results"))
	})

	// Prometheus metrics endpoint
	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	return r
}

// loadLatest resolves the {capability} URL parameter and loads its latest
// run, writing the error response itself when it fails.
func loadLatest(w http.ResponseWriter, r *http.Request, svc Service) (types.RunResult, store.Artifact, bool) {
	c, err := types.ParseCapability(chi.URLParam(r, "capability"))
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return types.RunResult{}, store.Artifact{}, false
	}
	run, art, err := svc.Latest(c)
	switch {
	case errors.Is(err, store.ErrNotFound):
		writeJSONError(w, http.StatusNotFound, fmt.Sprintf("no results for %s", c))
		return types.RunResult{}, store.Artifact{}, false
	case err != nil:
		writeJSONError(w, http.StatusInternalServerError, err.Error())
		return types.RunResult{}, store.Artifact{}, false
	}
	if run.Capability == "" {
		run.Capability = c
	}
	return run, art, true
}

// writeCachedJSON answers 304 when If-None-Match carries the current tag.
func writeCachedJSON(w http.ResponseWriter, r *http.Request, tag string, c types.Capability, v any) {
	etag := `"` + tag + `"`
	w.Header().Set("ETag", etag)
	if cacheMaxAge >= 0 {
		w.Header().Set("Cache-Control", fmt.Sprintf("public, max-age=%d", int(cacheMaxAge.Seconds())))
	}
	if etagMatch(r.Header.Get("If-None-Match"), etag) {
		notModifiedTotal.WithLabelValues(string(c)).Inc()
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		writeJSONError(w, http.StatusInternalServerError, "failed to encode response")
	}
}

func etagMatch(header, etag string) bool {
	if header == "" {
		return false
	}
	for _, part := range strings.Split(header, ",") {
		part = strings.TrimSpace(part)
		if part == "*" || strings.TrimPrefix(part, "W/") == etag {
			return true
		}
	}
	return false
}
