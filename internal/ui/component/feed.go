package component

import (
	"fmt"
	"strings"

	"github.com/gagliardetto/solana-go"

	"github.com/rovshanmuradov/curve-launchpad/internal/curve"
	"github.com/rovshanmuradov/curve-launchpad/internal/events"
	"github.com/rovshanmuradov/curve-launchpad/internal/ui/style"
)

// TradeFeed shows the most recent trades, newest first.
type TradeFeed struct {
	trades []events.TradeEvent
	max    int
	total  int
	volume uint64
	// symbols maps mints to tickers for display.
	symbols map[solana.PublicKey]string
}

func NewTradeFeed(max int) *TradeFeed {
	if max <= 0 {
		max = 1
	}
	return &TradeFeed{max: max, symbols: make(map[solana.PublicKey]string)}
}

// SetSymbols refreshes the ticker lookup from curves.
func (f *TradeFeed) SetSymbols(curves []*curve.BondingCurve) {
	for _, c := range curves {
		f.symbols[c.Mint] = c.Symbol
	}
}

// Add records a trade.
func (f *TradeFeed) Add(e events.TradeEvent) {
	f.trades = append([]events.TradeEvent{e}, f.trades...)
	if len(f.trades) > f.max {
		f.trades = f.trades[:f.max]
	}
	f.total++
	f.volume += e.SolAmount
}

// Total returns how many trades were seen.
func (f *TradeFeed) Total() int {
	return f.total
}

// Volume returns the summed curve price of every trade seen, in lamports.
func (f *TradeFeed) Volume() uint64 {
	return f.volume
}

// Trades returns the retained trades, newest first.
func (f *TradeFeed) Trades() []events.TradeEvent {
	return f.trades
}

func shortKey(k solana.PublicKey) string {
	s := k.String()
	if len(s) > 8 {
		return s[:4] + ".." + s[len(s)-4:]
	}
	return s
}

func (f *TradeFeed) View() string {
	if len(f.trades) == 0 {
		return style.Muted().Render("Waiting for trades...")
	}
	var b strings.Builder
	for i, t := range f.trades {
		if i > 0 {
			b.WriteByte('\n')
		}
		symbol := f.symbols[t.Mint]
		if symbol == "" {
			symbol = shortKey(t.Mint)
		}
		fmt.Fprintf(&b, "%s %s %-8s %14s tok %14s SOL  %s",
			style.Muted().Render(t.Timestamp().Format("15:04:05")),
			style.Side(t.IsBuy),
			symbol,
			curve.TokensToUI(t.TokenAmount).StringFixed(2),
			curve.LamportsToSol(t.SolAmount).StringFixed(6),
			style.Muted().Render(shortKey(t.User)),
		)
	}
	return b.String()
}
