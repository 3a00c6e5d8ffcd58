// Package matrix groups the model reports of a run by base model and lays
// them out against the distinct providers, ready for rendering.
package matrix

import (
	"cmp"
	"slices"
	"sort"
	"strings"
	"time"

	"routerprobe/pkg/types"
)

// NotAvailable is the display text of a cell no variant contributes to.
const NotAvailable = "-"

// Variant is the outcome of one model variant against one provider.
type Variant struct {
	ModelID types.ModelID      `json:"model_id"`
	Suffix  string             `json:"variant"`
	Level   types.SupportLevel `json:"level"`
	// "k/N"
	Display string   `json:"display"`
	Reasons []string `json:"reasons,omitempty"`
}

// Cell aggregates every variant of one base model against one provider.
type Cell struct {
	BaseModel string    `json:"base_model"`
	Provider  string    `json:"provider"`
	Variants  []Variant `json:"variants"`
}

// Available reports whether at least one variant was probed on the provider.
func (c Cell) Available() bool { return len(c.Variants) > 0 }

// Display joins the variant badges, or returns NotAvailable.
func (c Cell) Display() string {
	if !c.Available() {
		return NotAvailable
	}
	parts := make([]string, len(c.Variants))
	for i, v := range c.Variants {
		parts[i] = v.Display
	}
	return strings.Join(parts, " ")
}

// Best returns the strongest level among the variants; LevelNone when empty.
func (c Cell) Best() types.SupportLevel {
	best := types.LevelNone
	for _, v := range c.Variants {
		if rank(v.Level) > rank(best) {
			best = v.Level
		}
	}
	return best
}

func rank(l types.SupportLevel) int {
	switch l {
	case types.LevelFull:
		return 2
	case types.LevelPartial:
		return 1
	default:
		return 0
	}
}

// Matrix is the rendering contract: two sorted axes and one cell per
// (model, provider) pair in row-major order.
type Matrix struct {
	Capability  types.Capability `json:"capability"`
	RunID       string           `json:"run_id,omitempty"`
	GeneratedAt time.Time        `json:"generated_at"`
	Providers   []string         `json:"providers"`
	Models      []string         `json:"models"`
	Cells       []Cell           `json:"cells"`
	Tally       types.Tally      `json:"tally"`
}

// Cell returns the cell at (base, provider). ok is false when either is not
// on its axis.
func (m Matrix) Cell(base, provider string) (Cell, bool) {
	r, ok := slices.BinarySearch(m.Models, base)
	if !ok {
		return Cell{}, false
	}
	c, ok := slices.BinarySearch(m.Providers, provider)
	if !ok {
		return Cell{}, false
	}
	i := r*len(m.Providers) + c
	if i >= len(m.Cells) {
		return Cell{}, false
	}
	return m.Cells[i], true
}

// Row returns the cells of base in provider order.
func (m Matrix) Row(base string) []Cell {
	r, ok := slices.BinarySearch(m.Models, base)
	if !ok || len(m.Providers) == 0 {
		return nil
	}
	start := r * len(m.Providers)
	if start+len(m.Providers) > len(m.Cells) {
		return nil
	}
	return m.Cells[start : start+len(m.Providers)]
}

// Build derives the matrix from a run. The output does not depend on the
// order of models or providers in r.
func Build(r types.RunResult) Matrix {
	groups := make(map[string][]types.ModelReport)
	providerSet := make(map[string]struct{})
	for _, rep := range r.Models {
		base := rep.ModelID.BaseName()
		groups[base] = append(groups[base], rep)
		for _, p := range rep.Providers {
			providerSet[p.ProviderName] = struct{}{}
		}
	}

	m := Matrix{
		Capability:  r.Capability,
		RunID:       r.RunID,
		GeneratedAt: r.GeneratedAt,
		Providers:   make([]string, 0, len(providerSet)),
		Models:      make([]string, 0, len(groups)),
		Tally:       r.Tally(),
	}
	for p := range providerSet {
		m.Providers = append(m.Providers, p)
	}
	for base := range groups {
		m.Models = append(m.Models, base)
	}
	sort.Strings(m.Providers)
	sort.Strings(m.Models)

	m.Cells = make([]Cell, 0, len(m.Models)*len(m.Providers))
	for _, base := range m.Models {
		variants := groups[base]
		SortVariants(variants)
		for _, prov := range m.Providers {
			cell := Cell{BaseModel: base, Provider: prov, Variants: []Variant{}}
			for _, rep := range variants {
				ps, ok := rep.Provider(prov)
				if !ok {
					continue
				}
				cell.Variants = append(cell.Variants, Variant{
					ModelID: rep.ModelID,
					Suffix:  rep.ModelID.VariantSuffix(),
					Level:   ps.Level(),
					Display: ps.Summary.Display(),
					Reasons: ps.Reasons,
				})
			}
			m.Cells = append(m.Cells, cell)
		}
	}
	return m
}

// SortVariants orders reports of one base model: the standard variant
// first, then "free", then the remaining suffixes by lowercase name. Ties
// fall back to the model id.
func SortVariants(reps []types.ModelReport) {
	slices.SortStableFunc(reps, func(a, b types.ModelReport) int {
		ra, sa := variantKey(a.ModelID)
		rb, sb := variantKey(b.ModelID)
		if c := cmp.Compare(ra, rb); c != 0 {
			return c
		}
		if c := cmp.Compare(sa, sb); c != 0 {
			return c
		}
		return cmp.Compare(a.ModelID, b.ModelID)
	})
}

func variantKey(id types.ModelID) (int, string) {
	if !id.HasVariant() {
		return 0, ""
	}
	s := strings.ToLower(id.VariantSuffix())
	if s == "free" {
		return 1, s
	}
	return 2, s
}
