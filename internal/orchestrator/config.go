package orchestrator

import (
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"routerprobe/internal/directory"
	"routerprobe/pkg/types"
)

// Defaults applied when corresponding Config fields are unset.
const (
	defaultTrials        = 3
	defaultWorkers       = 1
	defaultTrialDelay    = 300 * time.Millisecond
	defaultProviderDelay = 500 * time.Millisecond
	defaultModelDelay    = defaultProviderDelay
)

// Pacing holds the courtesy delays of a run. A nil *Pacing in Config
// selects the defaults; a zero Pacing disables all delays.
type Pacing struct {
	Trial    time.Duration
	Provider time.Duration
	Model    time.Duration
}

// DefaultPacing is 300ms between trials and 500ms between providers and
// between models.
func DefaultPacing() Pacing {
	return Pacing{Trial: defaultTrialDelay, Provider: defaultProviderDelay, Model: defaultModelDelay}
}

// Config encapsulates all collaborators and tunables of an Orchestrator.
type Config struct {
	Capability types.Capability
	Trials     int
	// Providers of one model probed concurrently; 1 keeps the run sequential.
	Workers int
	Pacing  *Pacing

	Directory  directory.Client
	Prober     TrialProber
	Aggregator ResultAggregator
	Store      Checkpointer
	// Optional; nil means no token bucket and one slot per provider.
	Limiter   *Limiter
	Publisher EventPublisher
	Logger    zerolog.Logger

	// Test hooks.
	Now      func() time.Time
	NewRunID func() string
}

// New constructs an Orchestrator from Config, applying defaults.
func New(cfg Config) *Orchestrator {
	o := &Orchestrator{
		capability: cfg.Capability,
		trials:     cfg.Trials,
		workers:    cfg.Workers,
		dir:        cfg.Directory,
		prober:     cfg.Prober,
		agg:        cfg.Aggregator,
		store:      cfg.Store,
		limiter:    cfg.Limiter,
		pub:        cfg.Publisher,
		log:        cfg.Logger,
		now:        cfg.Now,
		newRunID:   cfg.NewRunID,
		state:      RunIdle,
	}
	if o.capability == "" {
		o.capability = types.CapabilityToolCalling
	}
	if o.trials <= 0 {
		o.trials = defaultTrials
	}
	if o.workers <= 0 {
		o.workers = defaultWorkers
	}
	if cfg.Pacing == nil {
		o.pacing = DefaultPacing()
	} else {
		o.pacing = *cfg.Pacing
	}
	if o.limiter == nil {
		o.limiter = NewLimiter(0, 0, 1)
	}
	if o.pub == nil {
		o.pub = noopPublisher{}
	}
	if o.now == nil {
		o.now = time.Now
	}
	if o.newRunID == nil {
		o.newRunID = func() string { return ulid.Make().String() }
	}
	o.sleep = sleepCtx
	return o
}
