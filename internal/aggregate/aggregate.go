// Package aggregate folds the trials of one (model, provider) pair into a
// ProviderSummary.
package aggregate

import (
	"routerprobe/internal/probe"
	"routerprobe/pkg/types"
)

const (
	// DefaultMaxReasons caps the reasons list of a summary.
	DefaultMaxReasons = 5
	maxReasonRunes    = 100

	reasonEmpty      = "empty response"
	reasonInvalid    = "invalid response"
	reasonNoResponse = "no proper response"
)

// Aggregator is pure in the trials it is given.
type Aggregator struct {
	classifier probe.Classifier
	maxReasons int
}

// New returns an Aggregator. maxReasons <= 0 selects DefaultMaxReasons.
func New(classifier probe.Classifier, maxReasons int) *Aggregator {
	if maxReasons <= 0 {
		maxReasons = DefaultMaxReasons
	}
	return &Aggregator{classifier: classifier, maxReasons: maxReasons}
}

// Aggregate counts trials per status and collects reasons in trial order.
// The summary timestamp is the latest trial timestamp, zero when no trial
// carries one.
func (a *Aggregator) Aggregate(id types.ModelID, desc types.ProviderDescriptor, trials []types.Trial) types.ProviderSummary {
	ps := types.ProviderSummary{
		ModelID:      id,
		ProviderName: desc.ProviderName,
		DisplayName:  desc.Name(),
		TestRuns:     append([]types.Trial(nil), trials...),
	}
	if ps.TestRuns == nil {
		ps.TestRuns = []types.Trial{}
	}
	ps.Summary.TotalRuns = len(trials)

	seen := make(map[string]struct{})
	addReason := func(r string) {
		if r == "" || len(ps.Reasons) >= a.maxReasons {
			return
		}
		if _, dup := seen[r]; dup {
			return
		}
		seen[r] = struct{}{}
		ps.Reasons = append(ps.Reasons, r)
	}

	for _, t := range trials {
		if t.Timestamp.After(ps.Timestamp) {
			ps.Timestamp = t.Timestamp
		}
		switch t.Status {
		case types.StatusSuccess:
			ps.Summary.SuccessCount++
		case types.StatusError:
			ps.Summary.ErrorCount++
			if a.classifier != nil && a.classifier.ErrorImpliesUnsupported(t.Error) {
				ps.Summary.UnsupportedErrorCount++
			}
			addReason(truncate(t.Error, maxReasonRunes))
		case types.StatusUnclear:
			ps.Summary.UnclearCount++
			addReason(reasonEmpty)
		default:
			// no_capability and anything unrecognized
			ps.Summary.NoCapabilityCount++
			if t.ValidationError != "" {
				addReason(reasonInvalid)
			} else {
				addReason(reasonNoResponse)
			}
		}
	}
	return ps
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
