package report

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"routerprobe/internal/matrix"
	"routerprobe/pkg/types"
)

var levelColors = map[types.SupportLevel]lipgloss.Color{
	types.LevelFull:    lipgloss.Color("2"),
	types.LevelPartial: lipgloss.Color("3"),
	types.LevelNone:    lipgloss.Color("1"),
}

// Terminal writes m as a bordered table. Cells are colored by their best
// variant; colors are dropped when w is not a terminal.
func Terminal(w io.Writer, m matrix.Matrix) error {
	r := lipgloss.NewRenderer(w)
	cellStyle := r.NewStyle().Padding(0, 1)
	headerStyle := cellStyle.Bold(true)
	muted := cellStyle.Foreground(lipgloss.Color("8"))

	if _, err := fmt.Fprintf(w, "%s (%d models, %d providers)\n", m.Capability.Title(), len(m.Models), len(m.Providers)); err != nil {
		return err
	}
	if len(m.Models) == 0 {
		_, err := fmt.Fprintln(w, "no results")
		return err
	}

	rows := make([][]string, len(m.Models))
	for i, base := range m.Models {
		row := make([]string, 0, len(m.Providers)+1)
		row = append(row, base)
		for _, c := range m.Row(base) {
			row = append(row, c.Display())
		}
		rows[i] = row
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(muted).
		Headers(append([]string{"Model"}, m.Providers...)...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return headerStyle
			case col == 0:
				return cellStyle
			}
			if row < 0 || row >= len(m.Models) || col-1 >= len(m.Providers) {
				return cellStyle
			}
			c, _ := m.Cell(m.Models[row], m.Providers[col-1])
			if !c.Available() {
				return muted
			}
			return cellStyle.Foreground(levelColors[c.Best()])
		})
	_, err := fmt.Fprintln(w, t.Render())
	return err
}
