package httpapi

import (
	"routerprobe/internal/store"
	"routerprobe/pkg/types"
)

// Results is the read side of the result store.
type Results interface {
	Latest(c types.Capability) (types.RunResult, store.Artifact, error)
}

// RunStatus reports on a probe run in the same process.
type RunStatus interface {
	Status() types.StatusResponse
	Ready() bool
}

// Service defines the methods required by the HTTP API layer.
type Service interface {
	Results
	Status() types.StatusResponse
	Ready() bool
}

type service struct {
	results Results
	run     RunStatus
}

// NewService joins a result store with an optional in-process run.
func NewService(results Results, run RunStatus) Service {
	return &service{results: results, run: run}
}

func (s *service) Latest(c types.Capability) (types.RunResult, store.Artifact, error) {
	return s.results.Latest(c)
}

func (s *service) Status() types.StatusResponse {
	if s.run == nil {
		return types.StatusResponse{State: "idle"}
	}
	return s.run.Status()
}

// Ready reports whether at least one capability has results to serve.
func (s *service) Ready() bool {
	for _, c := range types.Capabilities {
		if _, _, err := s.results.Latest(c); err == nil {
			return true
		}
	}
	return false
}
