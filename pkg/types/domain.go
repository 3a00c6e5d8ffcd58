package types

import "strings"

// StandardVariant is the variant suffix reported for ids without a ':' suffix.
const StandardVariant = "standard"

// ModelID identifies a routed model as author/slug[:variant].
// example: meta-llama/llama-3.3-70b-instruct:free
type ModelID string

func (id ModelID) String() string { return string(id) }

// BaseName returns the portion before the first ':'.
func (id ModelID) BaseName() string {
	s := string(id)
	if i := strings.IndexByte(s, ':'); i >= 0 {
		return s[:i]
	}
	return s
}

// VariantSuffix returns the portion after the last ':', or StandardVariant.
// a/b:beta:free is the free variant of a/b.
func (id ModelID) VariantSuffix() string {
	s := string(id)
	if i := strings.LastIndexByte(s, ':'); i >= 0 && i < len(s)-1 {
		return s[i+1:]
	}
	return StandardVariant
}

// HasVariant reports whether the id carries an explicit ':' suffix.
func (id ModelID) HasVariant() bool { return id.VariantSuffix() != StandardVariant }

// Split returns author and slug. ok is false unless the id has exactly two
// non-empty '/'-separated segments. The variant stays attached to the slug.
func (id ModelID) Split() (author, slug string, ok bool) {
	parts := strings.Split(strings.TrimSpace(string(id)), "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", false
	}
	return parts[0], parts[1], true
}

// Pricing is the per-token price sheet of an endpoint, kept as the decimal
// strings the router returns.
type Pricing struct {
	Prompt     string `json:"prompt,omitempty" yaml:"prompt,omitempty"`
	Completion string `json:"completion,omitempty" yaml:"completion,omitempty"`
	Request    string `json:"request,omitempty" yaml:"request,omitempty"`
}

// Free reports whether prompt and completion are both priced at zero.
func (p Pricing) Free() bool {
	zero := func(s string) bool { return strings.Trim(strings.TrimSpace(s), "0.") == "" }
	return p.Prompt != "" && p.Completion != "" && zero(p.Prompt) && zero(p.Completion)
}

// ProviderDescriptor describes one serving endpoint for a model.
type ProviderDescriptor struct {
	// Stable lowercase provider key used for routing.
	// example: deepinfra
	ProviderName string `json:"provider_name"`
	// Human-friendly endpoint name.
	// example: DeepInfra (FP8)
	DisplayName string `json:"display_name"`
	// Maximum context window in tokens.
	ContextLength int `json:"context_length"`
	// Price sheet, when the router publishes one.
	Pricing *Pricing `json:"pricing,omitempty"`
	// Request parameters the endpoint accepts (tools, response_format, ...).
	SupportedParameters []string `json:"supported_parameters,omitempty"`
	// Optional quantization label.
	Quantization string `json:"quantization,omitempty"`
}

// Name returns the display name, falling back to the provider key.
func (p ProviderDescriptor) Name() string {
	if strings.TrimSpace(p.DisplayName) != "" {
		return p.DisplayName
	}
	return p.ProviderName
}

// Advertises reports whether the endpoint lists param among its supported parameters.
func (p ProviderDescriptor) Advertises(param string) bool {
	param = strings.ToLower(strings.TrimSpace(param))
	for _, v := range p.SupportedParameters {
		if strings.ToLower(strings.TrimSpace(v)) == param {
			return true
		}
	}
	return false
}
