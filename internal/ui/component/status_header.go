package component

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/gagliardetto/solana-go"

	"github.com/rovshanmuradov/curve-launchpad/internal/curve"
	"github.com/rovshanmuradov/curve-launchpad/internal/ui/style"
)

// StatusHeader shows the demo wallet and launchpad totals on one line.
type StatusHeader struct {
	wallet    solana.PublicKey
	sol       uint64
	holdings  uint64
	symbol    string
	tradeSize uint64
	trades    int
	volume    uint64
	width     int

	container lipgloss.Style
	title     lipgloss.Style
	label     lipgloss.Style
	value     lipgloss.Style
}

func NewStatusHeader(wallet solana.PublicKey) *StatusHeader {
	palette := style.DefaultPalette()

	return &StatusHeader{
		wallet: wallet,
		container: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(palette.Primary).
			Padding(0, 2),
		title: lipgloss.NewStyle().Foreground(palette.Primary).Bold(true),
		label: lipgloss.NewStyle().Foreground(palette.TextMuted),
		value: lipgloss.NewStyle().Foreground(palette.Text).Bold(true),
	}
}

// SetWidth sets the component width for responsive layout
func (sh *StatusHeader) SetWidth(width int) {
	sh.width = width
}

// SetWallet updates the wallet balances. symbol names the curve holdings is for.
func (sh *StatusHeader) SetWallet(sol, holdings uint64, symbol string) {
	sh.sol = sol
	sh.holdings = holdings
	sh.symbol = symbol
}

// SetTradeSize updates the raw token amount traded per keypress.
func (sh *StatusHeader) SetTradeSize(raw uint64) {
	sh.tradeSize = raw
}

// SetActivity updates the feed totals.
func (sh *StatusHeader) SetActivity(trades int, volume uint64) {
	sh.trades = trades
	sh.volume = volume
}

func (sh *StatusHeader) item(label, value string) string {
	return sh.label.Render(label+" ") + sh.value.Render(value)
}

func (sh *StatusHeader) View() string {
	wallet := sh.wallet.String()
	if len(wallet) > 8 {
		wallet = wallet[:8] + "..."
	}
	parts := []string{
		sh.title.Render("Curve Launchpad"),
		sh.item("wallet", wallet),
		sh.item("SOL", curve.LamportsToSol(sh.sol).StringFixed(4)),
	}
	if sh.symbol != "" {
		parts = append(parts, sh.item(sh.symbol, curve.TokensToUI(sh.holdings).StringFixed(2)))
	}
	parts = append(parts,
		sh.item("size", curve.TokensToUI(sh.tradeSize).String()),
		sh.item("trades", fmt.Sprint(sh.trades)),
		sh.item("volume", curve.LamportsToSol(sh.volume).StringFixed(3)),
	)

	c := sh.container
	if sh.width > 4 {
		c = c.Width(sh.width - 2)
	}
	return c.Render(strings.Join(parts, "  "))
}
