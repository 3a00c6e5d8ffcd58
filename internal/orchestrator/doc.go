// Package orchestrator drives a probe run over a list of models. It is
// structured into small files by concern:
//
//   - orchestrator.go: Orchestrator type, collaborator interfaces, constructor.
//   - config.go: Config and package defaults; New applies defaults.
//   - types.go: run and per-model states.
//   - errors.go: PersistenceError and helpers.
//   - limiter.go: global token bucket plus per-provider in-flight slots.
//   - run.go: the model loop, provider worker pool, checkpoints and resume.
//   - events.go, eventpub_memory.go: progress events.
//   - status.go: Status snapshot for /status.
//   - metrics.go: Prometheus collectors.
//
// Per model the state moves pending -> fetching_providers ->
// no_providers | probing_providers -> checkpointed. A failed checkpoint
// aborts the run; a canceled context abandons the model in progress.
package orchestrator
