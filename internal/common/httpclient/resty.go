package httpclient

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"resty.dev/v3"
)

type startedAtKey struct{}

// Options configures a router client.
type Options struct {
	// Name tags debug log lines, e.g. "directory" or "invoke".
	Name    string
	BaseURL string
	APIKey  string
	Timeout time.Duration
	// Optional attribution headers the router displays on its dashboards.
	Referer string
	Title   string
	Logger  zerolog.Logger
}

// New returns a resty client bound to the router base URL with bearer auth
// and a debug-level access log.
func New(o Options) *resty.Client {
	c := resty.New().
		SetBaseURL(strings.TrimRight(strings.TrimSpace(o.BaseURL), "/")).
		SetHeader("Content-Type", "application/json")
	if strings.TrimSpace(o.APIKey) != "" {
		c.SetAuthToken(o.APIKey)
	}
	if o.Timeout > 0 {
		c.SetTimeout(o.Timeout)
	}
	if o.Referer != "" {
		c.SetHeader("HTTP-Referer", o.Referer)
	}
	if o.Title != "" {
		c.SetHeader("X-Title", o.Title)
	}
	log := o.Logger
	name := o.Name
	c.AddRequestMiddleware(func(_ *resty.Client, r *resty.Request) error {
		r.SetContext(context.WithValue(r.Context(), startedAtKey{}, time.Now()))
		return nil
	})
	c.AddResponseMiddleware(func(_ *resty.Client, r *resty.Response) error {
		started, _ := r.Request.Context().Value(startedAtKey{}).(time.Time)
		ev := log.Debug().
			Str("client", name).
			Int("status", r.StatusCode()).
			Dur("latency", time.Since(started))
		if raw := r.Request.RawRequest; raw != nil {
			ev = ev.Str("method", raw.Method).Str("path", raw.URL.Path)
		}
		ev.Msg("router request")
		return nil
	})
	return c
}
