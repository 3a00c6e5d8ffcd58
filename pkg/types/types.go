package types

import (
	"fmt"
	"strings"
)

// Capability names the feature a run exercises.
type Capability string

const (
	CapabilityToolCalling      Capability = "tool_calling"
	CapabilityStructuredOutput Capability = "structured_output"
)

// Capabilities lists every capability in display order.
var Capabilities = []Capability{CapabilityToolCalling, CapabilityStructuredOutput}

// ParseCapability accepts the canonical names plus a few aliases.
func ParseCapability(s string) (Capability, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "tool_calling", "tools", "tool", "tool_support", "function_calling":
		return CapabilityToolCalling, nil
	case "structured_output", "structured", "json_schema", "response_format":
		return CapabilityStructuredOutput, nil
	default:
		return "", fmt.Errorf("unknown capability %q (want tool_calling|structured_output)", s)
	}
}

// Title is the human label used by renderers.
func (c Capability) Title() string {
	switch c {
	case CapabilityToolCalling:
		return "Tool Support"
	case CapabilityStructuredOutput:
		return "Structured Output"
	default:
		return string(c)
	}
}

// Parameter is the request parameter an endpoint must accept to serve c.
func (c Capability) Parameter() string {
	switch c {
	case CapabilityToolCalling:
		return "tools"
	case CapabilityStructuredOutput:
		return "response_format"
	default:
		return ""
	}
}

// TrialStatus is the outcome of one trial.
type TrialStatus string

const (
	StatusSuccess      TrialStatus = "success"
	StatusNoCapability TrialStatus = "no_capability"
	StatusUnclear      TrialStatus = "unclear"
	StatusError        TrialStatus = "error"
)

// UnmarshalText maps legacy status names written by older runs.
func (s *TrialStatus) UnmarshalText(b []byte) error {
	switch v := TrialStatus(strings.ToLower(strings.TrimSpace(string(b)))); v {
	case StatusSuccess, StatusNoCapability, StatusUnclear, StatusError:
		*s = v
	case "no_tool_call", "invalid_json", "invalid_schema":
		*s = StatusNoCapability
	case "unknown", "":
		*s = StatusUnclear
	default:
		return fmt.Errorf("unknown trial status %q", string(b))
	}
	return nil
}

// SupportLevel is the aggregate verdict for a (model, provider) pair.
type SupportLevel string

const (
	LevelFull    SupportLevel = "full"
	LevelPartial SupportLevel = "partial"
	LevelNone    SupportLevel = "none"
)

// LevelFor derives the level from the success count alone.
func LevelFor(success, total int) SupportLevel {
	switch {
	case total > 0 && success >= total:
		return LevelFull
	case success <= 0:
		return LevelNone
	default:
		return LevelPartial
	}
}
