package orchestrator

import (
	"errors"
	"fmt"

	"routerprobe/pkg/types"
)

// PersistenceError aborts a run: a checkpoint could not be written.
type PersistenceError struct {
	// Model whose completion triggered the checkpoint; empty for the final one.
	ModelID types.ModelID
	Err     error
}

func (e *PersistenceError) Error() string {
	if e.ModelID == "" {
		return fmt.Sprintf("persist final results: %v", e.Err)
	}
	return fmt.Sprintf("persist results after %s: %v", e.ModelID, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// IsPersistence reports whether err is (or wraps) a *PersistenceError.
func IsPersistence(err error) bool {
	var pe *PersistenceError
	return errors.As(err, &pe)
}
