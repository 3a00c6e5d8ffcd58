package orchestrator

import (
	"routerprobe/pkg/types"
)

// Status builds a detailed status response for /status.
func (o *Orchestrator) Status() types.StatusResponse {
	o.mu.RLock()
	defer o.mu.RUnlock()
	resp := types.StatusResponse{
		RunID:        o.runID,
		Capability:   o.capability,
		State:        string(o.state),
		CurrentModel: o.currentModel,
		ModelState:   string(o.modelState),
		ModelsDone:   o.modelsDone,
		ModelsTotal:  o.modelsTotal,
		TrialsDone:   o.trialsDone,
		LastError:    o.lastError,
	}
	if !o.started.IsZero() {
		resp.UptimeSeconds = int64(o.now().Sub(o.started).Seconds())
	}
	return resp
}

// Ready reports whether no run is in progress.
func (o *Orchestrator) Ready() bool {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.state != RunRunning
}

func (o *Orchestrator) setModel(id types.ModelID, s ModelState) {
	o.mu.Lock()
	o.currentModel = id
	o.modelState = s
	o.mu.Unlock()
}

func (o *Orchestrator) finishModel() {
	o.mu.Lock()
	o.modelsDone++
	o.modelState = ModelCheckpointed
	o.mu.Unlock()
	modelsInRun.Dec()
}

func (o *Orchestrator) countTrial() {
	o.mu.Lock()
	o.trialsDone++
	o.mu.Unlock()
}

func (o *Orchestrator) setRunState(s RunState, err error) {
	o.mu.Lock()
	o.state = s
	if err != nil {
		o.lastError = err.Error()
	}
	o.mu.Unlock()
}
