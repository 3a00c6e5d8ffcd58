package orchestrator

// ModelState is the per-model progress state.
type ModelState string

const (
	ModelPending           ModelState = "pending"
	ModelFetchingProviders ModelState = "fetching_providers"
	ModelNoProviders       ModelState = "no_providers"
	ModelProbingProviders  ModelState = "probing_providers"
	ModelCheckpointed      ModelState = "checkpointed"
)

// RunState is the state of the whole run.
type RunState string

const (
	RunIdle     RunState = "idle"
	RunRunning  RunState = "running"
	RunDone     RunState = "done"
	RunCanceled RunState = "canceled"
	RunFailed   RunState = "failed"
)
