package report

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"strings"
	"time"

	"routerprobe/internal/matrix"
	"routerprobe/pkg/types"
)

//go:embed templates/matrix.html.tmpl
var templatesFS embed.FS

var pageTmpl = template.Must(template.New("matrix.html.tmpl").Funcs(template.FuncMap{
	"levelClass": levelClass,
	"tooltip":    tooltip,
	"tabID":      func(c types.Capability) string { return "tab-" + strings.ReplaceAll(string(c), "_", "-") },
	"cell":       func(m matrix.Matrix, base, provider string) matrix.Cell { c, _ := m.Cell(base, provider); return c },
}).ParseFS(templatesFS, "templates/matrix.html.tmpl"))

type pageData struct {
	Title       string
	GeneratedAt string
	Tabs        []matrix.Matrix
}

// HTML writes a self-contained page with one tab per matrix. Matrices
// without models are skipped; the first remaining one is the active tab.
func HTML(w io.Writer, ms []matrix.Matrix, generatedAt time.Time) error {
	data := pageData{Title: "Provider Capability Matrix", GeneratedAt: generatedAt.UTC().Format("2006-01-02 15:04 UTC")}
	for _, m := range ms {
		if len(m.Models) == 0 {
			continue
		}
		data.Tabs = append(data.Tabs, m)
	}
	if err := pageTmpl.Execute(w, data); err != nil {
		return fmt.Errorf("render html: %w", err)
	}
	return nil
}

// levelClass maps a level to the CSS badge class.
func levelClass(l types.SupportLevel) string {
	switch l {
	case types.LevelFull:
		return "full"
	case types.LevelPartial:
		return "partial"
	default:
		return "none"
	}
}

func tooltip(v matrix.Variant) string {
	label := v.Suffix
	if label == types.StandardVariant {
		label = string(v.ModelID)
	}
	if len(v.Reasons) == 0 {
		return label
	}
	return label + ": " + strings.Join(v.Reasons, " | ")
}
