package types

import (
	"fmt"
	"time"
)

// ToolCall is a function call the model emitted.
type ToolCall struct {
	ID        string `json:"id,omitempty"`
	Type      string `json:"type,omitempty"`
	Name      string `json:"name"`
	Arguments string `json:"arguments,omitempty"`
}

// Usage contains token accounting reported by the router.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Trial is one attempt to exercise a capability against a pinned provider.
type Trial struct {
	// Outcome of the attempt.
	// example: success
	Status TrialStatus `json:"status"`
	// Failure message when Status is error.
	Error string `json:"error,omitempty"`
	// Text the model answered with when no capability was invoked.
	ResponseContent string `json:"response_content,omitempty"`
	// True when the response carried a tool call or schema-valid JSON.
	CapabilityInvoked bool `json:"capability_invoked"`
	// Why a structured output answer was rejected (parse or schema failure).
	ValidationError string `json:"validation_error,omitempty"`
	// Finish reason reported by the upstream provider.
	FinishReason string `json:"finish_reason,omitempty"`
	// Model the router actually served.
	ModelUsed string `json:"model_used,omitempty"`
	// Tool calls emitted by the model.
	ToolCalls []ToolCall `json:"tool_calls,omitempty"`
	// Token usage, when reported.
	Usage *Usage `json:"usage,omitempty"`
	// Wall time of the invocation in milliseconds.
	LatencyMS int64 `json:"latency_ms,omitempty"`
	// When the trial finished.
	Timestamp time.Time `json:"timestamp"`
}

// Summary holds the per-status trial counts of a ProviderSummary.
type Summary struct {
	TotalRuns         int `json:"total_runs"`
	SuccessCount      int `json:"success_count"`
	ErrorCount        int `json:"error_count"`
	UnclearCount      int `json:"unclear_count"`
	NoCapabilityCount int `json:"no_capability_count"`
	// Error trials whose message names the capability (e.g. "tools not supported").
	UnsupportedErrorCount int `json:"unsupported_error_count,omitempty"`
}

// Conserved reports whether the per-status counts add up to TotalRuns.
func (s Summary) Conserved() bool {
	return s.SuccessCount+s.ErrorCount+s.UnclearCount+s.NoCapabilityCount == s.TotalRuns
}

// Level derives the support level from the success count.
func (s Summary) Level() SupportLevel { return LevelFor(s.SuccessCount, s.TotalRuns) }

// Display renders the "k/N" badge text.
func (s Summary) Display() string { return fmt.Sprintf("%d/%d", s.SuccessCount, s.TotalRuns) }

// ProviderSummary aggregates the trials of one (model, provider) pair.
type ProviderSummary struct {
	ModelID      ModelID `json:"model_id"`
	ProviderName string  `json:"provider_name"`
	DisplayName  string  `json:"display_name"`
	// Trials in execution order.
	TestRuns []Trial  `json:"test_runs"`
	Summary  Summary  `json:"summary"`
	Reasons  []string `json:"reasons,omitempty"`
	// Time of the last trial.
	Timestamp time.Time `json:"timestamp"`
}

// Level derives the support level of this pair.
func (p ProviderSummary) Level() SupportLevel { return p.Summary.Level() }

// Tally counts providers per support level.
type Tally struct {
	Full    int `json:"full"`
	Partial int `json:"partial"`
	None    int `json:"none"`
}

// Total is the number of providers counted.
func (t Tally) Total() int { return t.Full + t.Partial + t.None }

// Add folds another tally into t.
func (t *Tally) Add(o Tally) {
	t.Full += o.Full
	t.Partial += o.Partial
	t.None += o.None
}

// ModelReport holds every provider summary of one model.
type ModelReport struct {
	ModelID         ModelID           `json:"model_id"`
	Timestamp       time.Time         `json:"timestamp"`
	ProvidersTested int               `json:"providers_tested"`
	Providers       []ProviderSummary `json:"providers"`
}

// Provider returns the summary for name, if present.
func (m ModelReport) Provider(name string) (ProviderSummary, bool) {
	for _, p := range m.Providers {
		if p.ProviderName == name {
			return p, true
		}
	}
	return ProviderSummary{}, false
}

// Tally counts this model's providers per support level.
func (m ModelReport) Tally() Tally {
	var t Tally
	for _, p := range m.Providers {
		switch p.Level() {
		case LevelFull:
			t.Full++
		case LevelPartial:
			t.Partial++
		default:
			t.None++
		}
	}
	return t
}

// RunResult is the persisted document of one probe run.
type RunResult struct {
	// ULID of the run.
	RunID      string     `json:"run_id,omitempty"`
	Capability Capability `json:"capability,omitempty"`
	// When the run started.
	GeneratedAt       time.Time     `json:"generated_at"`
	TotalModels       int           `json:"total_models"`
	TrialsPerProvider int           `json:"trials_per_provider,omitempty"`
	Models            []ModelReport `json:"models"`
}

// Model returns the report for id, if present.
func (r *RunResult) Model(id ModelID) (ModelReport, bool) {
	for _, m := range r.Models {
		if m.ModelID == id {
			return m, true
		}
	}
	return ModelReport{}, false
}

// Tally sums every model's tally.
func (r *RunResult) Tally() Tally {
	var t Tally
	for _, m := range r.Models {
		t.Add(m.Tally())
	}
	return t
}

// ErrorResponse is a consistent JSON error payload.
type ErrorResponse struct {
	// example: no results for capability
	Error string `json:"error"`
	// example: 404
	Code int `json:"code"`
}

// StatusResponse is returned by GET /status while a probe run is active.
type StatusResponse struct {
	RunID        string     `json:"run_id,omitempty"`
	Capability   Capability `json:"capability,omitempty"`
	State        string     `json:"state"`
	CurrentModel ModelID    `json:"current_model,omitempty"`
	// State of the current model: fetching_providers, probing_providers, ...
	ModelState  string `json:"model_state,omitempty"`
	ModelsDone  int    `json:"models_done"`
	ModelsTotal int    `json:"models_total"`
	TrialsDone  int    `json:"trials_done"`
	LastError   string `json:"last_error,omitempty"`
	// Uptime of the run in seconds.
	UptimeSeconds int64 `json:"uptime_seconds"`
}
