// Package directory lists the serving endpoints (providers) the router
// exposes for a model.
package directory

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"resty.dev/v3"

	"routerprobe/pkg/types"
)

// Client returns the providers serving a model, in directory order.
// On any failure it returns an empty slice plus a *LookupError.
type Client interface {
	Providers(ctx context.Context, id types.ModelID) ([]types.ProviderDescriptor, error)
}

// endpointsResponse mirrors GET /models/{author}/{slug}/endpoints.
type endpointsResponse struct {
	Data struct {
		ID        string     `json:"id"`
		Name      string     `json:"name"`
		Endpoints []endpoint `json:"endpoints"`
	} `json:"data"`
}

type endpoint struct {
	Name                string         `json:"name"`
	ProviderName        string         `json:"provider_name"`
	Tag                 string         `json:"tag"`
	ContextLength       int            `json:"context_length"`
	Pricing             *types.Pricing `json:"pricing"`
	SupportedParameters []string       `json:"supported_parameters"`
	Quantization        string         `json:"quantization"`
}

type errorEnvelope struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

// OpenRouter is the router-backed Client.
type OpenRouter struct {
	http *resty.Client
	log  zerolog.Logger
}

// NewOpenRouter wraps a client created by httpclient.New.
func NewOpenRouter(http *resty.Client, log zerolog.Logger) *OpenRouter {
	return &OpenRouter{http: http, log: log}
}

func (c *OpenRouter) Providers(ctx context.Context, id types.ModelID) ([]types.ProviderDescriptor, error) {
	author, slug, ok := id.Split()
	if !ok {
		return []types.ProviderDescriptor{}, &LookupError{ModelID: id, Reason: "malformed model id (want author/slug)"}
	}
	resp, err := c.http.R().
		SetContext(ctx).
		SetPathParams(map[string]string{"author": author, "slug": slug}).
		Get("/models/{author}/{slug}/endpoints")
	if err != nil {
		return []types.ProviderDescriptor{}, &LookupError{ModelID: id, Err: err}
	}
	body := resp.Bytes()
	if !resp.IsSuccess() {
		reason := strings.TrimSpace(string(body))
		var env errorEnvelope
		if json.Unmarshal(body, &env) == nil && env.Error.Message != "" {
			reason = env.Error.Message
		}
		return []types.ProviderDescriptor{}, &LookupError{ModelID: id, Status: resp.StatusCode(), Reason: reason}
	}
	var out endpointsResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return []types.ProviderDescriptor{}, &LookupError{ModelID: id, Status: resp.StatusCode(), Err: fmt.Errorf("decode endpoints: %w", err)}
	}
	providers := make([]types.ProviderDescriptor, 0, len(out.Data.Endpoints))
	for _, ep := range out.Data.Endpoints {
		if strings.TrimSpace(ep.ProviderName) == "" {
			c.log.Debug().Str("model", id.String()).Str("endpoint", ep.Name).Msg("skipping endpoint without provider name")
			continue
		}
		providers = append(providers, types.ProviderDescriptor{
			ProviderName:        ep.ProviderName,
			DisplayName:         ep.Name,
			ContextLength:       ep.ContextLength,
			Pricing:             ep.Pricing,
			SupportedParameters: ep.SupportedParameters,
			Quantization:        ep.Quantization,
		})
	}
	return providers, nil
}

// Static is a fixed in-memory Client, used for dry runs and tests.
type Static map[types.ModelID][]types.ProviderDescriptor

func (s Static) Providers(_ context.Context, id types.ModelID) ([]types.ProviderDescriptor, error) {
	if _, _, ok := id.Split(); !ok {
		return []types.ProviderDescriptor{}, &LookupError{ModelID: id, Reason: "malformed model id (want author/slug)"}
	}
	ps, ok := s[id]
	if !ok {
		return []types.ProviderDescriptor{}, &LookupError{ModelID: id, Status: 404, Reason: "model not found"}
	}
	return append([]types.ProviderDescriptor(nil), ps...), nil
}
