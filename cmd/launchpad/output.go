package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"

	"github.com/rovshanmuradov/curve-launchpad/internal/curve"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7D56F4"))
	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888")).Width(26)
	valueStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFFFFF"))
	okStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#04B575")).Bold(true)
	warnStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFA500")).Bold(true)
)

type section struct {
	title string
	rows  [][2]string
}

func newSection(title string) *section {
	return &section{title: title}
}

func (s *section) add(label string, value any) *section {
	s.rows = append(s.rows, [2]string{label, fmt.Sprint(value)})
	return s
}

func (s *section) render(w io.Writer) {
	var b strings.Builder
	b.WriteString(titleStyle.Render(s.title))
	b.WriteByte('\n')
	for _, r := range s.rows {
		b.WriteString(labelStyle.Render(r[0]))
		b.WriteString(valueStyle.Render(r[1]))
		b.WriteByte('\n')
	}
	fmt.Fprint(w, b.String())
}

func sol(lamports uint64) string {
	return curve.LamportsToSol(lamports).String() + " SOL"
}

func tokens(raw uint64) string {
	return curve.TokensToUI(raw).String()
}

func percent(bps uint64) string {
	return decimal.NewFromUint64(bps).Div(decimal.NewFromInt(100)).StringFixed(2) + "%"
}

func curveSection(c *curve.BondingCurve) *section {
	status := okStyle.Render(string(c.Status()))
	if c.Complete {
		status = warnStyle.Render(string(c.Status()))
	}
	s := newSection(fmt.Sprintf("%s (%s)", c.Name, c.Symbol)).
		add("Mint", c.Mint).
		add("Creator", c.Creator).
		add("Team", c.Team).
		add("Status", status).
		add("Progress", percent(c.ProgressBPS())).
		add("Spot price", c.SpotPrice().StringFixed(12)+" SOL").
		add("Market cap", c.MarketCap().StringFixed(4)+" SOL").
		add("Virtual SOL reserves", sol(c.VirtualSolReserves)).
		add("Virtual token reserves", tokens(c.VirtualTokenReserves)).
		add("Real SOL reserves", sol(c.RealSolReserves)).
		add("Real token reserves", tokens(c.RealTokenReserves)).
		add("Token supply", tokens(c.TokenTotalSupply))
	if c.URI != "" {
		s.add("URI", c.URI)
	}
	return s
}

func globalSection(g *curve.GlobalConfig) *section {
	return newSection("Global config").
		add("Authority", g.Authority).
		add("Fee recipient", g.FeeRecipient).
		add("Withdraw authority", g.WithdrawAuthority).
		add("Fee", percent(g.FeeBasisPoints)).
		add("Initial virtual SOL", sol(g.InitialVirtualSolReserves)).
		add("Initial virtual tokens", tokens(g.InitialVirtualTokenReserves)).
		add("Initial real tokens", tokens(g.InitialRealTokenReserves)).
		add("Initial token supply", tokens(g.InitialTokenSupply))
}
