package matrix

import (
	"encoding/json"
	"math/rand"
	"reflect"
	"testing"
	"time"

	"routerprobe/pkg/types"
)

func summary(id types.ModelID, provider string, success, total int, reasons ...string) types.ProviderSummary {
	return types.ProviderSummary{
		ModelID:      id,
		ProviderName: provider,
		Summary:      types.Summary{TotalRuns: total, SuccessCount: success, NoCapabilityCount: total - success},
		Reasons:      reasons,
	}
}

func report(id types.ModelID, ps ...types.ProviderSummary) types.ModelReport {
	return types.ModelReport{ModelID: id, ProvidersTested: len(ps), Providers: ps}
}

func sampleRun() types.RunResult {
	return types.RunResult{
		RunID:       "r1",
		Capability:  types.CapabilityToolCalling,
		GeneratedAt: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
		Models: []types.ModelReport{
			report("z/m:beta", summary("z/m:beta", "groq", 1, 3, "empty response")),
			report("z/m", summary("z/m", "groq", 3, 3), summary("z/m", "azure", 0, 3, "no proper response")),
			report("a/x", summary("a/x", "azure", 1, 3, "status 400: tools not supported", "empty response")),
			report("z/m:free", summary("z/m:free", "groq", 0, 3)),
			report("a/y"),
		},
	}
}

func TestBuild_AxesAndCells(t *testing.T) {
	m := Build(sampleRun())
	if !reflect.DeepEqual(m.Providers, []string{"azure", "groq"}) {
		t.Fatalf("providers: %v", m.Providers)
	}
	if !reflect.DeepEqual(m.Models, []string{"a/x", "a/y", "z/m"}) {
		t.Fatalf("models: %v", m.Models)
	}
	if len(m.Cells) != 6 {
		t.Fatalf("expected 6 cells, got %d", len(m.Cells))
	}

	c, ok := m.Cell("z/m", "groq")
	if !ok {
		t.Fatalf("cell missing")
	}
	var order []string
	for _, v := range c.Variants {
		order = append(order, string(v.ModelID))
	}
	if !reflect.DeepEqual(order, []string{"z/m", "z/m:free", "z/m:beta"}) {
		t.Fatalf("variant order: %v", order)
	}
	if c.Display() != "3/3 0/3 1/3" || c.Best() != types.LevelFull {
		t.Fatalf("display %q best %s", c.Display(), c.Best())
	}
	if c.Variants[2].Suffix != "beta" || c.Variants[0].Suffix != types.StandardVariant {
		t.Fatalf("suffixes: %+v", c.Variants)
	}

	// only the standard variant has azure
	c, _ = m.Cell("z/m", "azure")
	if len(c.Variants) != 1 || c.Variants[0].Level != types.LevelNone || c.Display() != "0/3" {
		t.Fatalf("unexpected azure cell: %+v", c)
	}

	c, _ = m.Cell("a/y", "groq")
	if c.Available() || c.Display() != NotAvailable {
		t.Fatalf("model without providers should be not available: %+v", c)
	}
	if _, ok := m.Cell("nope", "groq"); ok {
		t.Fatalf("unknown model should not resolve")
	}
	if _, ok := m.Cell("a/x", "nope"); ok {
		t.Fatalf("unknown provider should not resolve")
	}
	if row := m.Row("a/x"); len(row) != 2 || row[0].Provider != "azure" || row[1].Provider != "groq" {
		t.Fatalf("row: %+v", row)
	}
}

func TestBuild_CellDisplay(t *testing.T) {
	run := types.RunResult{Models: []types.ModelReport{
		report("s/a", summary("s/a", "p", 3, 3)),
		report("s/b", types.ProviderSummary{ProviderName: "p", Summary: types.Summary{TotalRuns: 3, SuccessCount: 1, ErrorCount: 1, UnclearCount: 1}, Reasons: []string{"boom", "empty response"}}),
		report("s/c", summary("s/c", "p", 0, 3)),
	}}
	m := Build(run)
	want := map[string]struct {
		display string
		level   types.SupportLevel
	}{
		"s/a": {"3/3", types.LevelFull},
		"s/b": {"1/3", types.LevelPartial},
		"s/c": {"0/3", types.LevelNone},
	}
	for base, w := range want {
		c, ok := m.Cell(base, "p")
		if !ok || c.Display() != w.display || c.Variants[0].Level != w.level {
			t.Fatalf("%s: got %+v", base, c)
		}
	}
	c, _ := m.Cell("s/b", "p")
	if !reflect.DeepEqual(c.Variants[0].Reasons, []string{"boom", "empty response"}) {
		t.Fatalf("reasons: %v", c.Variants[0].Reasons)
	}
}

func TestBuild_InvariantToInputOrder(t *testing.T) {
	want := Build(sampleRun())
	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 20; i++ {
		run := sampleRun()
		rng.Shuffle(len(run.Models), func(a, b int) { run.Models[a], run.Models[b] = run.Models[b], run.Models[a] })
		for _, rep := range run.Models {
			rng.Shuffle(len(rep.Providers), func(a, b int) { rep.Providers[a], rep.Providers[b] = rep.Providers[b], rep.Providers[a] })
		}
		if got := Build(run); !reflect.DeepEqual(got, want) {
			t.Fatalf("shuffle %d changed the matrix", i)
		}
	}
}

func TestSortVariants(t *testing.T) {
	reps := []types.ModelReport{{ModelID: "m/x:beta"}, {ModelID: "m/x:Free"}, {ModelID: "m/x:alpha"}, {ModelID: "m/x"}, {ModelID: "m/x:Beta"}}
	SortVariants(reps)
	var got []types.ModelID
	for _, r := range reps {
		got = append(got, r.ModelID)
	}
	want := []types.ModelID{"m/x", "m/x:Free", "m/x:alpha", "m/x:Beta", "m/x:beta"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v want %v", got, want)
	}
}

func TestBuild_EmptyRunAndJSON(t *testing.T) {
	m := Build(types.RunResult{Capability: types.CapabilityStructuredOutput})
	if len(m.Providers) != 0 || len(m.Models) != 0 || len(m.Cells) != 0 {
		t.Fatalf("expected empty matrix: %+v", m)
	}
	b, err := json.Marshal(m)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var back map[string]any
	if err := json.Unmarshal(b, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if back["providers"] == nil || back["cells"] == nil {
		t.Fatalf("axes must encode as arrays, got %s", b)
	}
}
