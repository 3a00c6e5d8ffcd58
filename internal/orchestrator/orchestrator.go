package orchestrator

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"routerprobe/internal/directory"
	"routerprobe/internal/store"
	"routerprobe/pkg/types"
)

// TrialProber runs one trial against a pinned provider.
type TrialProber interface {
	Probe(ctx context.Context, id types.ModelID, desc types.ProviderDescriptor) types.Trial
}

// ResultAggregator folds a provider's trials into a summary.
type ResultAggregator interface {
	Aggregate(id types.ModelID, desc types.ProviderDescriptor, trials []types.Trial) types.ProviderSummary
}

// Checkpointer persists the run after every model.
type Checkpointer interface {
	Checkpoint(r types.RunResult) (store.Artifact, error)
}

// Orchestrator runs one capability over a list of models. A single
// Orchestrator executes one Run at a time.
type Orchestrator struct {
	capability types.Capability
	trials     int
	workers    int
	pacing     Pacing

	dir     directory.Client
	prober  TrialProber
	agg     ResultAggregator
	store   Checkpointer
	limiter *Limiter
	pub     EventPublisher
	log     zerolog.Logger

	now      func() time.Time
	newRunID func() string
	sleep    func(ctx context.Context, d time.Duration) error

	runMu sync.Mutex

	mu           sync.RWMutex
	state        RunState
	runID        string
	started      time.Time
	currentModel types.ModelID
	modelState   ModelState
	modelsDone   int
	modelsTotal  int
	trialsDone   int
	lastError    string
}

// Capability is the capability this orchestrator probes.
func (o *Orchestrator) Capability() types.Capability { return o.capability }

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
