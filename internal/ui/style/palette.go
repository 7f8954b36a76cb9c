package style

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/rovshanmuradov/curve-launchpad/internal/curve"
)

var (
	Cyan    = lipgloss.Color("#00E5FF")
	Magenta = lipgloss.Color("#FF1B6B")
	Yellow  = lipgloss.Color("#FFB500")
	Green   = lipgloss.Color("#2AFFAA")
	Red     = lipgloss.Color("#FF5555")
	Blue    = lipgloss.Color("#3B82F6")
	Purple  = lipgloss.Color("#8B5CF6")

	Base03 = lipgloss.Color("#1B1D23")
	Base02 = lipgloss.Color("#262831")
	Base01 = lipgloss.Color("#6C7280")
	Base2  = lipgloss.Color("#ECEFF4")
	Base1  = lipgloss.Color("#B4BCC8")
)

// Palette groups the colours used across the dashboard.
type Palette struct {
	Primary   lipgloss.Color
	Secondary lipgloss.Color
	Success   lipgloss.Color
	Error     lipgloss.Color
	Warning   lipgloss.Color
	Info      lipgloss.Color

	Background    lipgloss.Color
	Text          lipgloss.Color
	TextMuted     lipgloss.Color
	TextSecondary lipgloss.Color

	Buy      lipgloss.Color
	Sell     lipgloss.Color
	TeamBlue lipgloss.Color
	TeamRed  lipgloss.Color
}

func DefaultPalette() Palette {
	return Palette{
		Primary:   Cyan,
		Secondary: Magenta,
		Success:   Green,
		Error:     Red,
		Warning:   Yellow,
		Info:      Blue,

		Background:    Base03,
		Text:          Base2,
		TextMuted:     Base01,
		TextSecondary: Base1,

		Buy:      Green,
		Sell:     Red,
		TeamBlue: Blue,
		TeamRed:  Magenta,
	}
}

// Team renders a team name in its colour.
func Team(t curve.Team) string {
	p := DefaultPalette()
	c := p.TeamBlue
	if t == curve.TeamRed {
		c = p.TeamRed
	}
	return lipgloss.NewStyle().Foreground(c).Bold(true).Render(t.String())
}

// Side renders "buy" or "sell" in the trade colours.
func Side(isBuy bool) string {
	p := DefaultPalette()
	if isBuy {
		return lipgloss.NewStyle().Foreground(p.Buy).Render("buy ")
	}
	return lipgloss.NewStyle().Foreground(p.Sell).Render("sell")
}

// Pane is the bordered box every dashboard section sits in.
func Pane(focused bool) lipgloss.Style {
	p := DefaultPalette()
	border := p.TextMuted
	if focused {
		border = p.Primary
	}
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(border).
		Padding(0, 1)
}

// Title styles pane headings.
func Title() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(DefaultPalette().Primary).Bold(true)
}

// Muted styles secondary text.
func Muted() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(DefaultPalette().TextMuted)
}
