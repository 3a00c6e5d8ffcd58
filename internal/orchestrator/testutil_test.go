package orchestrator

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"routerprobe/internal/aggregate"
	"routerprobe/internal/directory"
	"routerprobe/internal/probe"
	"routerprobe/internal/store"
	"routerprobe/pkg/types"
)

// fakeProber returns scripted statuses per (model, provider) and records calls.
type fakeProber struct {
	mu     sync.Mutex
	script map[string][]types.TrialStatus
	calls  map[string]int
	delay  func(provider string) time.Duration
	onCall func(id types.ModelID, provider string)
}

func newFakeProber() *fakeProber {
	return &fakeProber{script: map[string][]types.TrialStatus{}, calls: map[string]int{}}
}

func key(id types.ModelID, provider string) string { return id.String() + "|" + provider }

func (f *fakeProber) Probe(ctx context.Context, id types.ModelID, desc types.ProviderDescriptor) types.Trial {
	if f.onCall != nil {
		f.onCall(id, desc.ProviderName)
	}
	if f.delay != nil {
		select {
		case <-time.After(f.delay(desc.ProviderName)):
		case <-ctx.Done():
			return types.Trial{Status: types.StatusError, Error: ctx.Err().Error(), Timestamp: time.Now()}
		}
	}
	f.mu.Lock()
	k := key(id, desc.ProviderName)
	n := f.calls[k]
	f.calls[k] = n + 1
	status := types.StatusSuccess
	if s := f.script[k]; n < len(s) {
		status = s[n]
	}
	f.mu.Unlock()
	t := types.Trial{Status: status, Timestamp: time.Date(2025, 3, 1, 12, 0, n, 0, time.UTC)}
	if status == types.StatusError {
		t.Error = "status 400: tools not supported"
	}
	return t
}

func (f *fakeProber) Calls(id types.ModelID, provider string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[key(id, provider)]
}

func (f *fakeProber) Total() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		n += c
	}
	return n
}

// failingStore delegates to a real store until failAt checkpoints succeeded.
type failingStore struct {
	inner  *store.Store
	failAt int
	n      int
}

func (s *failingStore) Checkpoint(r types.RunResult) (store.Artifact, error) {
	s.n++
	if s.n == s.failAt {
		return store.Artifact{}, errors.New("disk full")
	}
	return s.inner.Checkpoint(r)
}

func providers(names ...string) []types.ProviderDescriptor {
	out := make([]types.ProviderDescriptor, len(names))
	for i, n := range names {
		out[i] = types.ProviderDescriptor{ProviderName: n, DisplayName: n + " display"}
	}
	return out
}

type harness struct {
	orch   *Orchestrator
	prober *fakeProber
	store  *store.Store
	pub    *MemoryPublisher
}

func newHarness(t *testing.T, dir directory.Client, mutate func(*Config)) *harness {
	t.Helper()
	h := &harness{
		prober: newFakeProber(),
		store:  store.New(filepath.Join(t.TempDir(), "data"), zerolog.Nop()),
		pub:    NewMemoryPublisher(),
	}
	cfg := Config{
		Capability: types.CapabilityToolCalling,
		Trials:     3,
		Pacing:     &Pacing{},
		Directory:  dir,
		Prober:     h.prober,
		Aggregator: aggregate.New(probe.NewPhraseClassifier(nil, []string{"tool"}), 0),
		Store:      h.store,
		Publisher:  h.pub,
		Logger:     zerolog.Nop(),
		NewRunID:   func() string { return "run-1" },
	}
	if mutate != nil {
		mutate(&cfg)
	}
	h.orch = New(cfg)
	return h
}

func testCtx(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	t.Cleanup(cancel)
	return ctx
}
