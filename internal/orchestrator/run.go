package orchestrator

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"routerprobe/internal/directory"
	"routerprobe/pkg/types"
)

// Run probes every model in order and checkpoints after each one. Models
// that already have a report in prior (same capability) are copied, not
// probed again; prior itself is never modified.
//
// The returned RunResult holds every finished model, also on error. A
// *PersistenceError aborts the run; context cancellation abandons the
// model in progress and returns ctx.Err().
func (o *Orchestrator) Run(ctx context.Context, models []types.ModelID, prior *types.RunResult) (types.RunResult, error) {
	if o.dir == nil || o.prober == nil || o.agg == nil || o.store == nil {
		return types.RunResult{}, errors.New("orchestrator: directory, prober, aggregator and store are required")
	}
	if !o.runMu.TryLock() {
		return types.RunResult{}, errors.New("orchestrator: run already in progress")
	}
	defer o.runMu.Unlock()

	run := types.RunResult{
		RunID:             o.newRunID(),
		Capability:        o.capability,
		GeneratedAt:       o.now(),
		TotalModels:       len(models),
		TrialsPerProvider: o.trials,
		Models:            make([]types.ModelReport, 0, len(models)),
	}
	resumed := o.resumeFrom(prior, models)
	for _, id := range models {
		if rep, ok := resumed[id]; ok {
			run.Models = append(run.Models, rep)
		}
	}

	o.mu.Lock()
	o.state = RunRunning
	o.runID = run.RunID
	o.started = run.GeneratedAt
	o.modelsTotal = len(models)
	o.modelsDone = len(run.Models)
	o.trialsDone = 0
	o.lastError = ""
	o.currentModel, o.modelState = "", ""
	o.mu.Unlock()
	modelsInRun.Set(float64(len(models) - len(run.Models)))

	o.log.Info().Str("run_id", run.RunID).Str("capability", string(o.capability)).
		Int("models", len(models)).Int("resumed", len(run.Models)).Int("trials", o.trials).Msg("run started")
	o.pub.Publish(Event{Name: EventRunStart, Fields: map[string]any{"run_id": run.RunID, "models": len(models), "resumed": len(run.Models)}})

	first := true
	for _, id := range models {
		if _, ok := resumed[id]; ok {
			o.pub.Publish(Event{Name: EventModelSkipped, ModelID: id})
			continue
		}
		o.setModel(id, ModelPending)
		if !first {
			if err := o.sleep(ctx, o.pacing.Model); err != nil {
				return o.abort(run, err)
			}
		}
		first = false
		if err := ctx.Err(); err != nil {
			return o.abort(run, err)
		}

		report, err := o.probeModel(ctx, id)
		if err != nil {
			return o.abort(run, err)
		}
		run.Models = append(run.Models, report)
		if err := o.checkpoint(run, id); err != nil {
			return o.abort(run, err)
		}
		o.finishModel()
	}

	if err := o.checkpoint(run, ""); err != nil {
		return o.abort(run, err)
	}
	o.setRunState(RunDone, nil)
	tally := run.Tally()
	o.log.Info().Str("run_id", run.RunID).Int("models", len(run.Models)).
		Int("full", tally.Full).Int("partial", tally.Partial).Int("none", tally.None).Msg("run finished")
	o.pub.Publish(Event{Name: EventRunDone, Fields: map[string]any{"run_id": run.RunID, "full": tally.Full, "partial": tally.Partial, "none": tally.None}})
	return run, nil
}

func (o *Orchestrator) resumeFrom(prior *types.RunResult, models []types.ModelID) map[types.ModelID]types.ModelReport {
	out := make(map[types.ModelID]types.ModelReport)
	if prior == nil {
		return out
	}
	if prior.Capability != "" && prior.Capability != o.capability {
		o.log.Warn().Str("prior", string(prior.Capability)).Str("capability", string(o.capability)).Msg("prior run is for another capability, not resuming")
		return out
	}
	wanted := make(map[types.ModelID]struct{}, len(models))
	for _, id := range models {
		wanted[id] = struct{}{}
	}
	for _, m := range prior.Models {
		if _, ok := wanted[m.ModelID]; !ok {
			continue
		}
		cp := m
		cp.Providers = append([]types.ProviderSummary(nil), m.Providers...)
		out[m.ModelID] = cp
	}
	return out
}

func (o *Orchestrator) abort(run types.RunResult, err error) (types.RunResult, error) {
	state := RunFailed
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		state = RunCanceled
	}
	o.setRunState(state, err)
	o.log.Warn().Err(err).Str("run_id", run.RunID).Int("models_done", len(run.Models)).Msg("run stopped")
	return run, err
}

func (o *Orchestrator) checkpoint(run types.RunResult, id types.ModelID) error {
	art, err := o.store.Checkpoint(run)
	if err != nil {
		checkpointsTotal.WithLabelValues("error").Inc()
		return &PersistenceError{ModelID: id, Err: err}
	}
	checkpointsTotal.WithLabelValues("ok").Inc()
	o.pub.Publish(Event{Name: EventCheckpoint, ModelID: id, Fields: map[string]any{"path": art.Latest, "digest": art.Digest, "models": len(run.Models)}})
	return nil
}

// probeModel fetches the providers of id and probes them. Results keep the
// directory order regardless of completion order.
func (o *Orchestrator) probeModel(ctx context.Context, id types.ModelID) (types.ModelReport, error) {
	o.setModel(id, ModelFetchingProviders)
	o.pub.Publish(Event{Name: EventModelStart, ModelID: id})

	providers, err := o.dir.Providers(ctx, id)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return types.ModelReport{}, ctxErr
		}
		ev := o.log.Warn().Err(err).Str("model", id.String())
		if !directory.IsLookup(err) {
			ev = o.log.Error().Err(err).Str("model", id.String())
		}
		ev.Msg("provider lookup failed, recording zero providers")
	}
	o.pub.Publish(Event{Name: EventProvidersFound, ModelID: id, Fields: map[string]any{"count": len(providers)}})

	if len(providers) == 0 {
		o.setModel(id, ModelNoProviders)
		modelsTotal.WithLabelValues(string(o.capability), string(ModelNoProviders)).Inc()
		return types.ModelReport{ModelID: id, Timestamp: o.now(), ProvidersTested: 0, Providers: []types.ProviderSummary{}}, nil
	}

	o.setModel(id, ModelProbingProviders)
	results := make([]types.ProviderSummary, len(providers))
	var g errgroup.Group
	g.SetLimit(o.workers)
	for i, desc := range providers {
		i, desc := i, desc
		g.Go(func() error {
			if i > 0 {
				if err := o.sleep(ctx, o.pacing.Provider); err != nil {
					return err
				}
			}
			ps, err := o.probeProvider(ctx, id, desc)
			if err != nil {
				return err
			}
			results[i] = ps
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return types.ModelReport{}, err
	}
	modelsTotal.WithLabelValues(string(o.capability), string(ModelCheckpointed)).Inc()
	return types.ModelReport{ModelID: id, Timestamp: o.now(), ProvidersTested: len(results), Providers: results}, nil
}

// probeProvider runs the trials of one provider sequentially.
func (o *Orchestrator) probeProvider(ctx context.Context, id types.ModelID, desc types.ProviderDescriptor) (types.ProviderSummary, error) {
	hints := endpointHints(o.capability, desc)
	if adv, ok := hints["advertised"].(bool); ok && !adv {
		o.log.Debug().Str("model", id.String()).Str("provider", desc.ProviderName).
			Str("parameter", o.capability.Parameter()).Msg("endpoint does not advertise parameter")
	}
	trials := make([]types.Trial, 0, o.trials)
	for n := 0; n < o.trials; n++ {
		if n > 0 {
			if err := o.sleep(ctx, o.pacing.Trial); err != nil {
				return types.ProviderSummary{}, err
			}
		}
		if err := ctx.Err(); err != nil {
			return types.ProviderSummary{}, err
		}
		release, err := o.limiter.Acquire(ctx, desc.ProviderName)
		if err != nil {
			return types.ProviderSummary{}, fmt.Errorf("limiter: %w", err)
		}
		t := o.prober.Probe(ctx, id, desc)
		release()

		trials = append(trials, t)
		o.countTrial()
		trialsTotal.WithLabelValues(string(o.capability), desc.ProviderName, string(t.Status)).Inc()
		trialDuration.WithLabelValues(string(o.capability)).Observe(float64(t.LatencyMS) / 1000)
		o.log.Debug().Str("model", id.String()).Str("provider", desc.ProviderName).Int("trial", n+1).
			Str("status", string(t.Status)).Int64("latency_ms", t.LatencyMS).Msg("trial done")
		o.pub.Publish(Event{Name: EventTrialDone, ModelID: id, Provider: desc.ProviderName, Fields: map[string]any{"trial": n + 1, "status": t.Status}})
	}
	// The in-flight trial of a canceled run is not a real outcome.
	if err := ctx.Err(); err != nil {
		return types.ProviderSummary{}, err
	}
	ps := o.agg.Aggregate(id, desc, trials)
	providersTotal.WithLabelValues(string(o.capability), string(ps.Level())).Inc()
	hints["level"], hints["display"], hints["reasons"] = ps.Level(), ps.Summary.Display(), ps.Reasons
	o.pub.Publish(Event{Name: EventProviderDone, ModelID: id, Provider: desc.ProviderName, Fields: hints})
	return ps, nil
}

// endpointHints records what the directory says about an endpoint.
// "advertised" is set only when the endpoint lists its supported parameters.
func endpointHints(c types.Capability, desc types.ProviderDescriptor) map[string]any {
	h := make(map[string]any, 5)
	if param := c.Parameter(); param != "" && len(desc.SupportedParameters) > 0 {
		h["advertised"] = desc.Advertises(param)
	}
	if desc.Pricing != nil && desc.Pricing.Free() {
		h["free"] = true
	}
	return h
}
