package e2e

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"

	"routerprobe/internal/cli"
	"routerprobe/internal/httpapi"
	"routerprobe/internal/matrix"
	"routerprobe/internal/store"
	"routerprobe/pkg/types"
)

func probe(t *testing.T, cfgPath, dataDir string, extra ...string) int {
	t.Helper()
	args := append([]string{"--config", cfgPath, "--data-dir", dataDir, "--log-level", "error", "probe"}, extra...)
	return cli.MainWithArgs(args)
}

func latest(t *testing.T, dataDir string, c types.Capability) (types.RunResult, store.Artifact) {
	t.Helper()
	r, art, err := store.New(dataDir, zerolog.Nop()).Latest(c)
	if err != nil {
		t.Fatalf("latest %s: %v", c, err)
	}
	return r, art
}

func level(t *testing.T, r types.RunResult, model types.ModelID, provider string) types.ProviderSummary {
	t.Helper()
	m, ok := r.Model(model)
	if !ok {
		t.Fatalf("model %s missing", model)
	}
	p, ok := m.Provider(provider)
	if !ok {
		t.Fatalf("provider %s missing for %s", provider, model)
	}
	return p
}

// TestE2E_ProbeThenServe runs a tool calling probe against the fake router
// and reads the result back through the HTTP API.
func TestE2E_ProbeThenServe(t *testing.T) {
	router := newFakeRouter(t, map[string][]fakeEndpoint{
		"acme/tool-model": {
			{Provider: "Groq", Behavior: answerToolCall},
			{Provider: "Flaky", Behavior: answerFlaky},
			{Provider: "Broken", Behavior: answerError},
		},
		"acme/tool-model:free": {
			{Provider: "Groq", Behavior: answerRefusal},
		},
	})
	dir := t.TempDir()
	dataDir := filepath.Join(dir, "data")
	cfg := writeConfig(t, dir, router.URL(), "acme/tool-model", "acme/tool-model:free", "acme/missing")

	if code := probe(t, cfg, dataDir); code != 0 {
		t.Fatalf("probe exit code %d", code)
	}

	r, _ := latest(t, dataDir, types.CapabilityToolCalling)
	if r.TotalModels != 3 || len(r.Models) != 3 {
		t.Fatalf("expected 3 model reports, got %d/%d", r.TotalModels, len(r.Models))
	}
	for _, want := range []struct {
		model    types.ModelID
		provider string
		level    types.SupportLevel
		display  string
	}{
		{"acme/tool-model", "Groq", types.LevelFull, "3/3"},
		{"acme/tool-model", "Flaky", types.LevelPartial, "2/3"},
		{"acme/tool-model", "Broken", types.LevelNone, "0/3"},
		{"acme/tool-model:free", "Groq", types.LevelNone, "0/3"},
	} {
		p := level(t, r, want.model, want.provider)
		if p.Level() != want.level || p.Summary.Display() != want.display || !p.Summary.Conserved() {
			t.Fatalf("%s/%s: level=%s display=%s summary=%+v", want.model, want.provider, p.Level(), p.Summary.Display(), p.Summary)
		}
		if len(p.TestRuns) != 3 {
			t.Fatalf("%s/%s: expected 3 trials, got %d", want.model, want.provider, len(p.TestRuns))
		}
	}
	if p := level(t, r, "acme/tool-model", "Broken"); p.Summary.ErrorCount != 3 || len(p.Reasons) == 0 {
		t.Fatalf("broken provider should carry error reasons: %+v", p)
	}
	if m, _ := r.Model("acme/missing"); m.ProvidersTested != 0 || len(m.Providers) != 0 {
		t.Fatalf("unknown model should have no providers: %+v", m)
	}
	if n := router.Calls("acme/tool-model", "Groq"); n != 3 {
		t.Fatalf("expected 3 completions for Groq, got %d", n)
	}

	srv := httptest.NewServer(httpapi.NewMux(httpapi.NewService(store.New(dataDir, zerolog.Nop()), nil)))
	t.Cleanup(srv.Close)

	resp, err := http.Get(srv.URL + "/api/matrix/tool_calling")
	if err != nil {
		t.Fatalf("get matrix: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("matrix status %d: %s", resp.StatusCode, body)
	}
	var m matrix.Matrix
	if err := json.Unmarshal(body, &m); err != nil {
		t.Fatalf("decode matrix: %v", err)
	}
	if len(m.Models) != 2 || len(m.Providers) != 3 {
		t.Fatalf("unexpected axes: models=%v providers=%v", m.Models, m.Providers)
	}
	if c, ok := m.Cell("acme/tool-model", "Groq"); !ok || c.Display() != "3/3 0/3" {
		t.Fatalf("unexpected Groq cell: %+v", c)
	}
	if c, _ := m.Cell("acme/tool-model", "Flaky"); c.Display() != "2/3" {
		t.Fatalf("unexpected Flaky cell: %+v", c)
	}

	req, _ := http.NewRequest(http.MethodGet, srv.URL+"/api/matrix/tool_calling", nil)
	req.Header.Set("If-None-Match", resp.Header.Get("ETag"))
	resp2, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("conditional get: %v", err)
	}
	_ = resp2.Body.Close()
	if resp2.StatusCode != http.StatusNotModified {
		t.Fatalf("expected 304, got %d", resp2.StatusCode)
	}

	resp3, err := http.Get(srv.URL + "/readyz")
	if err != nil {
		t.Fatalf("readyz: %v", err)
	}
	_ = resp3.Body.Close()
	if resp3.StatusCode != http.StatusOK {
		t.Fatalf("readyz %d", resp3.StatusCode)
	}
}

// TestE2E_ResumeSkipsFinishedModels probes one model, then resumes with a
// second one added.
func TestE2E_ResumeSkipsFinishedModels(t *testing.T) {
	router := newFakeRouter(t, map[string][]fakeEndpoint{
		"acme/first":  {{Provider: "Groq", Behavior: answerToolCall}},
		"acme/second": {{Provider: "Groq", Behavior: answerRefusal}},
	})
	dir := t.TempDir()
	dataDir := filepath.Join(dir, "data")

	if code := probe(t, writeConfig(t, dir, router.URL(), "acme/first"), dataDir); code != 0 {
		t.Fatalf("first probe exit code %d", code)
	}
	first, _ := latest(t, dataDir, types.CapabilityToolCalling)
	firstReport, _ := first.Model("acme/first")

	if code := probe(t, writeConfig(t, dir, router.URL(), "acme/first", "acme/second"), dataDir, "--resume"); code != 0 {
		t.Fatalf("resumed probe exit code %d", code)
	}
	if n := router.Calls("acme/first", "Groq"); n != 3 {
		t.Fatalf("finished model was probed again: %d calls", n)
	}
	if n := router.Calls("acme/second", "Groq"); n != 3 {
		t.Fatalf("new model should be probed once: %d calls", n)
	}
	r, _ := latest(t, dataDir, types.CapabilityToolCalling)
	if len(r.Models) != 2 {
		t.Fatalf("resumed run should carry both models, got %d", len(r.Models))
	}
	if m, _ := r.Model("acme/first"); !m.Timestamp.Equal(firstReport.Timestamp) {
		t.Fatalf("finished model report should be copied from the prior run")
	}
	if p := level(t, r, "acme/second", "Groq"); p.Level() != types.LevelNone {
		t.Fatalf("refusing provider should be none, got %s", p.Level())
	}
}

func TestE2E_StructuredOutput(t *testing.T) {
	router := newFakeRouter(t, map[string][]fakeEndpoint{
		"acme/json-model": {
			{Provider: "Strict", Behavior: answerJSON},
			{Provider: "Chatty", Behavior: answerRefusal},
		},
	})
	dir := t.TempDir()
	dataDir := filepath.Join(dir, "data")
	cfg := writeConfig(t, dir, router.URL(), "acme/json-model")

	if code := probe(t, cfg, dataDir, "--capability", "structured_output"); code != 0 {
		t.Fatalf("probe exit code %d", code)
	}
	r, art := latest(t, dataDir, types.CapabilityStructuredOutput)
	if filepath.Base(art.Latest) != "structured_output_results_latest.json" {
		t.Fatalf("unexpected latest file %s", art.Latest)
	}
	if p := level(t, r, "acme/json-model", "Strict"); p.Level() != types.LevelFull {
		t.Fatalf("schema-valid answers should be full, got %s (%+v)", p.Level(), p.Summary)
	}
	if p := level(t, r, "acme/json-model", "Chatty"); p.Level() != types.LevelNone || p.Summary.NoCapabilityCount != 3 {
		t.Fatalf("prose answers should be none/no_capability, got %s (%+v)", p.Level(), p.Summary)
	}
	if _, _, err := store.New(dataDir, zerolog.Nop()).Latest(types.CapabilityToolCalling); err == nil {
		t.Fatalf("structured output run must not write tool calling results")
	}
}
