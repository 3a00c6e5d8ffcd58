package e2e

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
)

// behavior scripts how the fake router answers for one provider.
type behavior string

const (
	answerToolCall behavior = "tool_call"
	answerRefusal  behavior = "refusal"
	answerJSON     behavior = "json"
	answerError    behavior = "error"
	// alternates tool call and plain text, starting with a tool call
	answerFlaky behavior = "flaky"
)

type fakeEndpoint struct {
	Provider string
	Behavior behavior
}

// fakeRouter is an in-process stand-in for the OpenRouter API.
type fakeRouter struct {
	srv *httptest.Server

	mu        sync.Mutex
	endpoints map[string][]fakeEndpoint
	calls     map[string]int // "model|provider" -> completions served
}

func newFakeRouter(t *testing.T, endpoints map[string][]fakeEndpoint) *fakeRouter {
	t.Helper()
	f := &fakeRouter{endpoints: endpoints, calls: map[string]int{}}
	r := chi.NewRouter()
	r.Get("/models/{author}/{slug}/endpoints", f.handleEndpoints)
	r.Post("/chat/completions", f.handleCompletion)
	f.srv = httptest.NewServer(r)
	t.Cleanup(f.srv.Close)
	return f
}

func (f *fakeRouter) URL() string { return f.srv.URL }

func (f *fakeRouter) Calls(model, provider string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[model+"|"+provider]
}

func (f *fakeRouter) handleEndpoints(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "author") + "/" + chi.URLParam(r, "slug")
	eps, ok := f.endpoints[id]
	w.Header().Set("Content-Type", "application/json")
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, `{"error":{"message":"Model not found"}}`)
		return
	}
	type endpoint struct {
		Name         string `json:"name"`
		ProviderName string `json:"provider_name"`
	}
	var resp struct {
		Data struct {
			ID        string     `json:"id"`
			Endpoints []endpoint `json:"endpoints"`
		} `json:"data"`
	}
	resp.Data.ID = id
	resp.Data.Endpoints = []endpoint{}
	for _, ep := range eps {
		resp.Data.Endpoints = append(resp.Data.Endpoints, endpoint{Name: ep.Provider + " | " + id, ProviderName: ep.Provider})
	}
	_ = json.NewEncoder(w).Encode(resp)
}

func (f *fakeRouter) handleCompletion(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Model    string `json:"model"`
		Provider struct {
			Only []string `json:"only"`
		} `json:"provider"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || len(req.Provider.Only) != 1 {
		http.Error(w, `{"error":{"message":"bad request"}}`, http.StatusBadRequest)
		return
	}
	provider := req.Provider.Only[0]
	var b behavior
	for _, ep := range f.endpoints[req.Model] {
		if ep.Provider == provider {
			b = ep.Behavior
		}
	}
	f.mu.Lock()
	n := f.calls[req.Model+"|"+provider]
	f.calls[req.Model+"|"+provider] = n + 1
	f.mu.Unlock()

	if b == answerFlaky {
		b = answerToolCall
		if n%2 == 1 {
			b = answerRefusal
		}
	}
	w.Header().Set("Content-Type", "application/json")
	switch b {
	case answerToolCall:
		fmt.Fprintf(w, `{"id":"gen","model":%q,"choices":[{"index":0,"finish_reason":"tool_calls","message":{"role":"assistant","tool_calls":[{"id":"call_1","type":"function","function":{"name":"get_weather","arguments":"{\"location\":\"San Francisco, CA\"}"}}]}}]}`, req.Model)
	case answerJSON:
		fmt.Fprintf(w, `{"id":"gen","model":%q,"choices":[{"index":0,"finish_reason":"stop","message":{"role":"assistant","content":"{\"name\":\"launch planning\",\"location\":\"Ferry Building\",\"date\":\"2024-06-01\",\"participants\":[\"Alice\",\"Bob\"]}"}}]}`, req.Model)
	case answerRefusal:
		fmt.Fprintf(w, `{"id":"gen","model":%q,"choices":[{"index":0,"finish_reason":"stop","message":{"role":"assistant","content":"I cannot check the weather right now."}}]}`, req.Model)
	default:
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprintf(w, `{"error":{"message":"Provider returned error","code":400,"metadata":{"raw":"tools not supported","provider_name":%q}}}`, provider)
	}
}

// writeConfig writes a YAML config that points at the fake router and
// keeps pacing short.
func writeConfig(t *testing.T, dir, baseURL string, models ...string) string {
	t.Helper()
	var b strings.Builder
	fmt.Fprintf(&b, "api_key: sk-test\nbase_url: %s\ntrials: 3\n", baseURL)
	b.WriteString("pacing:\n  trial_delay: 1ms\n  provider_delay: 1ms\n  model_delay: 1ms\n")
	b.WriteString("models:\n")
	for _, m := range models {
		fmt.Fprintf(&b, "  - %s\n", m)
	}
	path := filepath.Join(dir, "routerprobe.yaml")
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}
