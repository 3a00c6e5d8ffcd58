// Package probe runs single capability trials against a pinned provider
// and classifies the outcome.
package probe

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/santhosh-tekuri/jsonschema/v5"

	"routerprobe/internal/invoke"
	"routerprobe/pkg/types"
)

// Prober issues one invocation per Probe call. It never retries.
type Prober struct {
	inv        invoke.Invoker
	def        invoke.Definition
	classifier Classifier
	schema     *jsonschema.Schema
	log        zerolog.Logger
	now        func() time.Time
}

// New builds a Prober for def. Structured output definitions must carry a
// schema that compiles.
func New(inv invoke.Invoker, def invoke.Definition, classifier Classifier, log zerolog.Logger) (*Prober, error) {
	if inv == nil {
		return nil, fmt.Errorf("probe: nil invoker")
	}
	if classifier == nil {
		return nil, fmt.Errorf("probe: nil classifier")
	}
	p := &Prober{inv: inv, def: def, classifier: classifier, log: log, now: time.Now}
	if def.Capability == types.CapabilityStructuredOutput {
		if len(def.Schema) == 0 {
			return nil, fmt.Errorf("probe: structured output definition has no schema")
		}
		s, err := compileSchema(def.Schema)
		if err != nil {
			return nil, fmt.Errorf("probe: compile schema: %w", err)
		}
		p.schema = s
	}
	return p, nil
}

func compileSchema(raw json.RawMessage) (*jsonschema.Schema, error) {
	c := jsonschema.NewCompiler()
	if err := c.AddResource("schema.json", bytes.NewReader(raw)); err != nil {
		return nil, err
	}
	return c.Compile("schema.json")
}

// Capability is the capability this prober exercises.
func (p *Prober) Capability() types.Capability { return p.def.Capability }

// Classifier returns the classifier shared with aggregation.
func (p *Prober) Classifier() Classifier { return p.classifier }

// Probe runs one trial. The returned trial always has a status.
func (p *Prober) Probe(ctx context.Context, id types.ModelID, desc types.ProviderDescriptor) types.Trial {
	start := p.now()
	resp, err := p.inv.Invoke(ctx, invoke.Request{Model: id, Provider: desc.ProviderName, Def: p.def})
	end := p.now()
	t := types.Trial{LatencyMS: end.Sub(start).Milliseconds(), Timestamp: end}

	if err != nil {
		t.Status = types.StatusError
		t.Error = err.Error()
		p.logFailure(id, desc, err)
		return t
	}
	t.FinishReason = resp.FinishReason
	t.ModelUsed = resp.ModelUsed
	t.ToolCalls = resp.ToolCalls
	t.Usage = resp.Usage

	invoked, verr := p.invoked(resp)
	if invoked {
		t.Status = types.StatusSuccess
		t.CapabilityInvoked = true
		return t
	}
	t.ValidationError = verr

	t.ResponseContent = resp.Text
	switch v := p.classifier.ClassifyText(resp.Text); v {
	case VerdictBlank:
		t.Status = types.StatusUnclear
	default:
		t.Status = types.StatusNoCapability
		p.log.Debug().Str("model", id.String()).Str("provider", desc.ProviderName).Str("verdict", v.String()).Msg("capability not used")
	}
	return t
}

// invoked reports whether resp exercised the capability. For structured
// output the second value explains a rejected answer.
func (p *Prober) invoked(resp invoke.Response) (bool, string) {
	switch p.def.Capability {
	case types.CapabilityStructuredOutput:
		text := strings.TrimSpace(resp.Text)
		if text == "" {
			return false, ""
		}
		var v any
		if err := json.Unmarshal([]byte(text), &v); err != nil {
			return false, "invalid json: " + err.Error()
		}
		if err := p.schema.Validate(v); err != nil {
			return false, "schema mismatch: " + err.Error()
		}
		return true, ""
	default:
		return len(resp.ToolCalls) > 0, ""
	}
}

// logFailure warns on throttling and network failures, which say nothing
// about the capability; other upstream errors are routine and stay at debug.
func (p *Prober) logFailure(id types.ModelID, desc types.ProviderDescriptor, err error) {
	ev, kind := p.log.Debug(), "upstream"
	switch {
	case invoke.IsRateLimited(err):
		ev, kind = p.log.Warn(), "rate_limited"
	case invoke.IsTransport(err):
		ev, kind = p.log.Warn(), "transport"
	}
	ev.Str("model", id.String()).Str("provider", desc.ProviderName).Str("kind", kind).Err(err).Msg("trial failed")
}
