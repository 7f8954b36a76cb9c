package component

import (
	"fmt"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/rovshanmuradov/curve-launchpad/internal/curve"
	"github.com/rovshanmuradov/curve-launchpad/internal/ui/style"
)

// CurveTable lists curves and draws the sale progress of the selected one.
type CurveTable struct {
	table    table.Model
	progress progress.Model
	curves   []*curve.BondingCurve
	width    int
}

func curveColumns(width int) []table.Column {
	mintWidth := width - 70
	if mintWidth < 12 {
		mintWidth = 12
	}
	return []table.Column{
		{Title: "Symbol", Width: 8},
		{Title: "Team", Width: 5},
		{Title: "Status", Width: 8},
		{Title: "Progress", Width: 8},
		{Title: "Price (SOL)", Width: 14},
		{Title: "Mcap (SOL)", Width: 12},
		{Title: "Mint", Width: mintWidth},
	}
}

// NewCurveTable creates an empty focused table.
func NewCurveTable() *CurveTable {
	palette := style.DefaultPalette()

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(palette.TextMuted).
		BorderBottom(true).
		Foreground(palette.Secondary).
		Bold(true)
	s.Selected = s.Selected.
		Foreground(palette.Background).
		Background(palette.Primary).
		Bold(false)

	return &CurveTable{
		table: table.New(
			table.WithColumns(curveColumns(80)),
			table.WithFocused(true),
			table.WithHeight(8),
			table.WithStyles(s),
		),
		progress: progress.New(progress.WithGradient(string(palette.Primary), string(palette.Success)), progress.WithWidth(40)),
		width:    80,
	}
}

// SetSize resizes the table to width columns and height rows.
func (t *CurveTable) SetSize(width, height int) {
	t.width = width
	t.table.SetColumns(curveColumns(width))
	t.table.SetWidth(width)
	if height > 3 {
		t.table.SetHeight(height)
	}
	t.progress.Width = width - 20
	if t.progress.Width < 10 {
		t.progress.Width = 10
	}
}

// SetCurves replaces the rows, keeping the selected mint when it still exists.
func (t *CurveTable) SetCurves(curves []*curve.BondingCurve) {
	var selected *curve.BondingCurve
	if cur := t.Selected(); cur != nil {
		selected = cur
	}

	rows := make([]table.Row, 0, len(curves))
	cursor := 0
	for i, c := range curves {
		rows = append(rows, table.Row{
			c.Symbol,
			c.Team.String(),
			string(c.Status()),
			fmt.Sprintf("%.2f%%", float64(c.ProgressBPS())/100),
			c.SpotPrice().StringFixed(10),
			c.MarketCap().StringFixed(2),
			c.Mint.String(),
		})
		if selected != nil && c.Mint.Equals(selected.Mint) {
			cursor = i
		}
	}
	t.curves = curves
	t.table.SetRows(rows)
	t.table.SetCursor(cursor)
}

// Selected returns the highlighted curve, or nil when the table is empty.
func (t *CurveTable) Selected() *curve.BondingCurve {
	i := t.table.Cursor()
	if i < 0 || i >= len(t.curves) {
		return nil
	}
	return t.curves[i]
}

// Len returns the number of curves shown.
func (t *CurveTable) Len() int {
	return len(t.curves)
}

func (t *CurveTable) Focus() { t.table.Focus() }
func (t *CurveTable) Blur()  { t.table.Blur() }

// Update forwards navigation keys to the table.
func (t *CurveTable) Update(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	t.table, cmd = t.table.Update(msg)
	return cmd
}

func (t *CurveTable) View() string {
	if len(t.curves) == 0 {
		return style.Muted().Render("No curves yet.")
	}
	view := t.table.View()
	if c := t.Selected(); c != nil {
		pct := float64(c.ProgressBPS()) / curve.BasisPointsDenominator
		view = lipgloss.JoinVertical(lipgloss.Left,
			view,
			"",
			fmt.Sprintf("%s %s  %s", style.Title().Render(c.Symbol), style.Team(c.Team), t.progress.ViewAs(pct)),
		)
	}
	return view
}
