package report

import (
	"fmt"
	"io"

	"github.com/fatih/color"

	"routerprobe/pkg/types"
)

var (
	fullColor    = color.New(color.FgGreen)
	partialColor = color.New(color.FgYellow)
	noneColor    = color.New(color.FgRed)
	headColor    = color.New(color.FgCyan, color.Bold)
	mutedColor   = color.New(color.FgHiBlack)
)

// Summary prints per-model and total support counts of a run.
func Summary(w io.Writer, r types.RunResult) {
	n := r.TrialsPerProvider
	if n <= 0 {
		n = 3
	}
	headColor.Fprintf(w, "%s summary\n", r.Capability.Title())
	for _, m := range r.Models {
		t := m.Tally()
		if t.Total() == 0 {
			fmt.Fprintf(w, "  %s: %s\n", m.ModelID, mutedColor.Sprint("no providers"))
			continue
		}
		fmt.Fprintf(w, "  %s: %d providers, %s, %s, %s\n", m.ModelID, t.Total(),
			fullColor.Sprintf("full %d", t.Full),
			partialColor.Sprintf("partial %d", t.Partial),
			noneColor.Sprintf("none %d", t.None))
	}

	total := r.Tally()
	fmt.Fprintf(w, "Total providers tested: %d\n", total.Total())
	fullColor.Fprintf(w, "  Full support (%d/%d): %d (%.1f%%)\n", n, n, total.Full, percent(total.Full, total.Total()))
	partialColor.Fprintf(w, "  Partial support%s: %d (%.1f%%)\n", partialRange(n), total.Partial, percent(total.Partial, total.Total()))
	noneColor.Fprintf(w, "  No support (0/%d): %d (%.1f%%)\n", n, total.None, percent(total.None, total.Total()))
}

// partialRange is the success counts that make a provider partial; there are
// none with a single trial.
func partialRange(n int) string {
	switch {
	case n <= 1:
		return ""
	case n == 2:
		return " (1/2)"
	default:
		return fmt.Sprintf(" (1-%d/%d)", n-1, n)
	}
}

func percent(part, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(part) / float64(total) * 100
}
