package report

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/fatih/color"

	"routerprobe/internal/orchestrator"
	"routerprobe/pkg/types"
)

// Progress prints run events as they happen. Trial marks are buffered per
// provider so parallel providers do not interleave within a line.
type Progress struct {
	mu    sync.Mutex
	w     io.Writer
	marks map[string][]string
}

var _ orchestrator.EventPublisher = (*Progress)(nil)

func NewProgress(w io.Writer) *Progress {
	return &Progress{w: w, marks: make(map[string][]string)}
}

func mark(s types.TrialStatus) string {
	switch s {
	case types.StatusSuccess:
		return fullColor.Sprint("✓")
	case types.StatusUnclear:
		return partialColor.Sprint("?")
	case types.StatusError:
		return partialColor.Sprint("⚠")
	default:
		return noneColor.Sprint("✗")
	}
}

func (p *Progress) Publish(e orchestrator.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	switch e.Name {
	case orchestrator.EventRunStart:
		headColor.Fprintf(p.w, "Probing %v models (%v resumed)\n", e.Fields["models"], e.Fields["resumed"])
	case orchestrator.EventModelStart:
		headColor.Fprintf(p.w, "\n%s\n", e.ModelID)
	case orchestrator.EventModelSkipped:
		mutedColor.Fprintf(p.w, "%s: already in prior results, skipped\n", e.ModelID)
	case orchestrator.EventProvidersFound:
		if n, _ := e.Fields["count"].(int); n == 0 {
			mutedColor.Fprintln(p.w, "  no providers found")
		} else {
			fmt.Fprintf(p.w, "  %d providers\n", n)
		}
	case orchestrator.EventTrialDone:
		if s, ok := e.Fields["status"].(types.TrialStatus); ok {
			k := e.ModelID.String() + "|" + e.Provider
			p.marks[k] = append(p.marks[k], mark(s))
		}
	case orchestrator.EventProviderDone:
		k := e.ModelID.String() + "|" + e.Provider
		marks := p.marks[k]
		delete(p.marks, k)
		level, _ := e.Fields["level"].(types.SupportLevel)
		fmt.Fprintf(p.w, "  %-28s %s  %s%s\n", e.Provider, strings.Join(marks, " "), levelColor(level).Sprintf("%v %s", e.Fields["display"], level), endpointNote(e.Fields))
	case orchestrator.EventRunDone:
		headColor.Fprintf(p.w, "\nDone: full %v, partial %v, none %v\n", e.Fields["full"], e.Fields["partial"], e.Fields["none"])
	}
}

// endpointNote flags free endpoints and those whose directory entry omits
// the parameter the capability needs.
func endpointNote(f map[string]any) string {
	var notes []string
	if free, _ := f["free"].(bool); free {
		notes = append(notes, "free")
	}
	if adv, ok := f["advertised"].(bool); ok && !adv {
		notes = append(notes, "not advertised")
	}
	if len(notes) == 0 {
		return ""
	}
	return mutedColor.Sprintf("  (%s)", strings.Join(notes, ", "))
}

func levelColor(l types.SupportLevel) *color.Color {
	switch l {
	case types.LevelFull:
		return fullColor
	case types.LevelPartial:
		return partialColor
	default:
		return noneColor
	}
}
