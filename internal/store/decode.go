package store

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"routerprobe/pkg/types"
)

// Decode parses a persisted document. The current layout is tried first;
// documents without a run_id are read with the legacy layout, taking the
// provider list that matches c.
func Decode(b []byte, c types.Capability) (types.RunResult, error) {
	var probe struct {
		RunID string `json:"run_id"`
	}
	if err := json.Unmarshal(b, &probe); err != nil {
		return types.RunResult{}, err
	}
	if probe.RunID != "" {
		var r types.RunResult
		if err := json.Unmarshal(b, &r); err != nil {
			return types.RunResult{}, err
		}
		if r.Capability == "" {
			r.Capability = c
		}
		return r, nil
	}
	return decodeLegacy(b, c)
}

// legacyTime accepts RFC 3339 and zone-less ISO timestamps.
type legacyTime time.Time

var legacyLayouts = []string{time.RFC3339Nano, "2006-01-02T15:04:05.999999999", "2006-01-02T15:04:05", "2006-01-02 15:04:05"}

func (t *legacyTime) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		*t = legacyTime{}
		return nil
	}
	for _, layout := range legacyLayouts {
		if v, err := time.Parse(layout, s); err == nil {
			*t = legacyTime(v)
			return nil
		}
	}
	return fmt.Errorf("unrecognized timestamp %q", s)
}

type legacyToolCall struct {
	ID       string `json:"id"`
	Type     string `json:"type"`
	Function struct {
		Name      string `json:"name"`
		Arguments string `json:"arguments"`
	} `json:"function"`
}

type legacyTrial struct {
	Status          types.TrialStatus `json:"status"`
	Error           *string           `json:"error"`
	ResponseContent *string           `json:"response_content"`
	ToolCallMade    bool              `json:"tool_call_made"`
	ToolCalls       []legacyToolCall  `json:"tool_calls"`
	FinishReason    *string           `json:"finish_reason"`
	ModelUsed       *string           `json:"model_used"`
	ValidationError *string           `json:"validation_error"`
	Timestamp       legacyTime        `json:"timestamp"`
}

type legacyProvider struct {
	ModelID      types.ModelID `json:"model_id"`
	ProviderName string        `json:"provider_name"`
	DisplayName  string        `json:"display_name"`
	TestRuns     []legacyTrial `json:"test_runs"`
	Summary      struct {
		TotalRuns         int `json:"total_runs"`
		SuccessCount      int `json:"success_count"`
		ErrorCount        int `json:"error_count"`
		UnclearCount      int `json:"unclear_count"`
		NoToolCallCount   int `json:"no_tool_call_count"`
		NoCapabilityCount int `json:"no_capability_count"`
	} `json:"summary"`
	Timestamp legacyTime `json:"timestamp"`
}

type legacyModel struct {
	ModelID          types.ModelID    `json:"model_id"`
	Timestamp        legacyTime       `json:"timestamp"`
	Providers        []legacyProvider `json:"providers"`
	StructuredOutput []legacyProvider `json:"structured_output"`
}

type legacyDoc struct {
	GeneratedAt legacyTime    `json:"generated_at"`
	Timestamp   legacyTime    `json:"timestamp"`
	TotalModels int           `json:"total_models"`
	Models      []legacyModel `json:"models"`
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func decodeLegacy(b []byte, c types.Capability) (types.RunResult, error) {
	var doc legacyDoc
	if err := json.Unmarshal(b, &doc); err != nil {
		return types.RunResult{}, fmt.Errorf("legacy layout: %w", err)
	}
	r := types.RunResult{
		Capability:  c,
		GeneratedAt: time.Time(doc.GeneratedAt),
		TotalModels: doc.TotalModels,
		Models:      make([]types.ModelReport, 0, len(doc.Models)),
	}
	if r.GeneratedAt.IsZero() {
		r.GeneratedAt = time.Time(doc.Timestamp)
	}
	for _, m := range doc.Models {
		list := m.Providers
		if c == types.CapabilityStructuredOutput {
			list = m.StructuredOutput
		}
		mr := types.ModelReport{ModelID: m.ModelID, Timestamp: time.Time(m.Timestamp), Providers: make([]types.ProviderSummary, 0, len(list))}
		for _, p := range list {
			mr.Providers = append(mr.Providers, convertLegacyProvider(m.ModelID, p))
			if len(p.TestRuns) > r.TrialsPerProvider {
				r.TrialsPerProvider = len(p.TestRuns)
			}
		}
		mr.ProvidersTested = len(mr.Providers)
		r.Models = append(r.Models, mr)
	}
	if r.TotalModels == 0 {
		r.TotalModels = len(r.Models)
	}
	return r, nil
}

func convertLegacyProvider(model types.ModelID, p legacyProvider) types.ProviderSummary {
	ps := types.ProviderSummary{
		ModelID:      p.ModelID,
		ProviderName: p.ProviderName,
		DisplayName:  p.DisplayName,
		TestRuns:     make([]types.Trial, 0, len(p.TestRuns)),
		Timestamp:    time.Time(p.Timestamp),
	}
	if ps.ModelID == "" {
		ps.ModelID = model
	}
	for _, t := range p.TestRuns {
		tr := types.Trial{
			Status:            t.Status,
			Error:             deref(t.Error),
			ResponseContent:   deref(t.ResponseContent),
			CapabilityInvoked: t.ToolCallMade || t.Status == types.StatusSuccess,
			ValidationError:   deref(t.ValidationError),
			FinishReason:      deref(t.FinishReason),
			ModelUsed:         deref(t.ModelUsed),
			Timestamp:         time.Time(t.Timestamp),
		}
		for _, tc := range t.ToolCalls {
			tr.ToolCalls = append(tr.ToolCalls, types.ToolCall{ID: tc.ID, Type: tc.Type, Name: tc.Function.Name, Arguments: tc.Function.Arguments})
		}
		ps.TestRuns = append(ps.TestRuns, tr)
	}
	s := p.Summary
	ps.Summary = types.Summary{
		TotalRuns:         s.TotalRuns,
		SuccessCount:      s.SuccessCount,
		ErrorCount:        s.ErrorCount,
		UnclearCount:      s.UnclearCount,
		NoCapabilityCount: s.NoCapabilityCount + s.NoToolCallCount,
	}
	if ps.Summary.TotalRuns == 0 {
		ps.Summary.TotalRuns = len(ps.TestRuns)
	}
	return ps
}
