package directory

import (
	"errors"
	"fmt"

	"routerprobe/pkg/types"
)

// LookupError reports why a model's endpoint list could not be fetched.
// Callers treat it as "zero providers".
type LookupError struct {
	ModelID types.ModelID
	// HTTP status, 0 for malformed ids and transport failures.
	Status int
	Reason string
	Err    error
}

func (e *LookupError) Error() string {
	msg := fmt.Sprintf("endpoint lookup %s", e.ModelID)
	if e.Status != 0 {
		msg += fmt.Sprintf(": status %d", e.Status)
	}
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *LookupError) Unwrap() error { return e.Err }

// IsLookup reports whether err is a *LookupError.
func IsLookup(err error) bool {
	var le *LookupError
	return errors.As(err, &le)
}
