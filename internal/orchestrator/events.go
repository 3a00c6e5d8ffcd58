package orchestrator

import "routerprobe/pkg/types"

// Event names.
const (
	EventRunStart       = "run_start"
	EventModelStart     = "model_start"
	EventModelSkipped   = "model_skipped"
	EventProvidersFound = "providers_found"
	EventTrialDone      = "trial_done"
	EventProviderDone   = "provider_done"
	EventCheckpoint     = "checkpoint"
	EventRunDone        = "run_done"
)

// Event represents a run progress event.
// Minimal and stable: name, model, provider and optional fields.
type Event struct {
	Name     string
	ModelID  types.ModelID
	Provider string
	Fields   map[string]any
}

// EventPublisher receives events from the orchestrator. Implementations
// should be lightweight; Publish may be called from several workers at once
// and must not panic.
type EventPublisher interface {
	Publish(Event)
}

// noopPublisher is the default; it drops events.
type noopPublisher struct{}

func (noopPublisher) Publish(Event) {}

// PublisherFunc adapts a function to EventPublisher.
type PublisherFunc func(Event)

func (f PublisherFunc) Publish(e Event) { f(e) }
