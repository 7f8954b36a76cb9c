package component

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/rovshanmuradov/curve-launchpad/internal/logger"
	"github.com/rovshanmuradov/curve-launchpad/internal/ui/style"
)

// CompactLogViewer renders the tail of a LogBuffer in a scrollable viewport.
type CompactLogViewer struct {
	buffer    *logger.LogBuffer
	viewport  viewport.Model
	showDebug bool
	follow    bool

	timestamp lipgloss.Style
	name      lipgloss.Style
	levels    map[string]lipgloss.Style
}

func NewCompactLogViewer(logBuffer *logger.LogBuffer) *CompactLogViewer {
	palette := style.DefaultPalette()

	return &CompactLogViewer{
		buffer:    logBuffer,
		viewport:  viewport.New(80, 6),
		follow:    true,
		timestamp: lipgloss.NewStyle().Foreground(palette.TextMuted),
		name:      lipgloss.NewStyle().Foreground(palette.TextSecondary),
		levels: map[string]lipgloss.Style{
			"error": lipgloss.NewStyle().Foreground(palette.Error).Bold(true),
			"warn":  lipgloss.NewStyle().Foreground(palette.Warning).Bold(true),
			"info":  lipgloss.NewStyle().Foreground(palette.Info),
			"debug": lipgloss.NewStyle().Foreground(palette.TextMuted),
		},
	}
}

// SetSize sets the viewport dimensions
func (clv *CompactLogViewer) SetSize(width, height int) {
	clv.viewport.Width = width
	clv.viewport.Height = height
}

// Refresh reloads the buffer into the viewport. It follows the tail unless the
// user scrolled up.
func (clv *CompactLogViewer) Refresh() {
	if clv.buffer == nil {
		return
	}
	var lines []string
	for _, e := range clv.buffer.GetRecentLogs(0) {
		if e.Level == "debug" && !clv.showDebug {
			continue
		}
		lines = append(lines, clv.formatEntry(e))
	}
	clv.follow = clv.follow || clv.viewport.AtBottom()
	clv.viewport.SetContent(strings.Join(lines, "\n"))
	if clv.follow {
		clv.viewport.GotoBottom()
	}
}

func (clv *CompactLogViewer) formatEntry(e logger.LogEntry) string {
	levelStyle, ok := clv.levels[e.Level]
	if !ok {
		levelStyle = clv.levels["info"]
	}
	line := fmt.Sprintf("%s %s %s",
		clv.timestamp.Render(e.Timestamp.Format("15:04:05")),
		levelStyle.Render(fmt.Sprintf("%-5s", strings.ToUpper(e.Level))),
		e.Message)
	if e.Logger != "" {
		line += " " + clv.name.Render("["+e.Logger+"]")
	}
	return line
}

// ToggleDebug shows or hides debug entries.
func (clv *CompactLogViewer) ToggleDebug() {
	clv.showDebug = !clv.showDebug
	clv.Refresh()
}

// Update scrolls the viewport.
func (clv *CompactLogViewer) Update(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	clv.viewport, cmd = clv.viewport.Update(msg)
	clv.follow = clv.viewport.AtBottom()
	return cmd
}

func (clv *CompactLogViewer) View() string {
	if clv.buffer == nil {
		return style.Muted().Render("Logging to file only.")
	}
	return clv.viewport.View()
}
