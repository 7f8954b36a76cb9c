package ui

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/gagliardetto/solana-go"

	"github.com/rovshanmuradov/curve-launchpad/internal/curve"
	"github.com/rovshanmuradov/curve-launchpad/internal/events"
	"github.com/rovshanmuradov/curve-launchpad/internal/launchpad"
	"github.com/rovshanmuradov/curve-launchpad/internal/logger"
	"github.com/rovshanmuradov/curve-launchpad/internal/settlement"
	"github.com/rovshanmuradov/curve-launchpad/internal/ui/component"
	"github.com/rovshanmuradov/curve-launchpad/internal/ui/style"
)

const (
	// DefaultTradeSize is 1000 whole tokens.
	DefaultTradeSize uint64 = 1_000_000_000
	// DefaultSlippageBps widens quotes before a keyboard trade is sent.
	DefaultSlippageBps uint64 = 100

	refreshInterval = time.Second
	feedSize        = 8
)

type focus int

const (
	focusCurves focus = iota
	focusLogs
)

// Dashboard is the root bubbletea model: a curve table, a live trade feed, a
// log pane and keyboard trading for one demo wallet.
type Dashboard struct {
	ctx     context.Context
	lp      *launchpad.Launchpad
	wallet  solana.PublicKey
	updates *UpdateSender

	keys   KeyMap
	help   help.Model
	header *component.StatusHeader
	curves *component.CurveTable
	feed   *component.TradeFeed
	logs   *component.CompactLogViewer

	holdings  map[solana.PublicKey]uint64
	sol       uint64
	tradeSize uint64
	focus     focus
	status    string
	statusErr bool
	width     int
	height    int
}

// NewDashboard wires a dashboard to lp. updates may be nil when no bus feeds the
// UI; logs may be nil when logging goes to a file only.
func NewDashboard(ctx context.Context, lp *launchpad.Launchpad, wallet solana.PublicKey, updates *UpdateSender, logs *logger.LogBuffer) *Dashboard {
	d := &Dashboard{
		ctx:       ctx,
		lp:        lp,
		wallet:    wallet,
		updates:   updates,
		keys:      DefaultKeyMap(),
		help:      help.New(),
		header:    component.NewStatusHeader(wallet),
		curves:    component.NewCurveTable(),
		feed:      component.NewTradeFeed(feedSize),
		logs:      component.NewCompactLogViewer(logs),
		holdings:  make(map[solana.PublicKey]uint64),
		tradeSize: DefaultTradeSize,
	}
	d.header.SetTradeSize(d.tradeSize)
	return d
}

func (d *Dashboard) Init() tea.Cmd {
	cmds := []tea.Cmd{d.refresh(), tick()}
	if d.updates != nil {
		cmds = append(cmds, d.updates.Listen())
	}
	return tea.Batch(cmds...)
}

func tick() tea.Cmd {
	return tea.Tick(refreshInterval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

// refresh loads every curve and the wallet balances.
func (d *Dashboard) refresh() tea.Cmd {
	return func() tea.Msg {
		curves, err := d.lp.Curves(d.ctx)
		if err != nil {
			return StateMsg{Err: err}
		}
		msg := StateMsg{Curves: curves, Holdings: make(map[solana.PublicKey]uint64, len(curves))}
		if msg.SOL, err = d.lp.Balance(d.ctx, d.wallet, settlement.NativeSOL); err != nil {
			return StateMsg{Err: err}
		}
		for _, c := range curves {
			held, err := d.lp.Balance(d.ctx, d.wallet, c.Mint)
			if err != nil {
				return StateMsg{Err: err}
			}
			msg.Holdings[c.Mint] = held
		}
		return msg
	}
}

// trade quotes the order, applies slippage and submits it.
func (d *Dashboard) trade(mint solana.PublicKey, isBuy bool, amount uint64) tea.Cmd {
	return func() tea.Msg {
		result := TradeResultMsg{IsBuy: isBuy, Mint: mint}
		g, err := d.lp.Global(d.ctx)
		if err != nil {
			result.Err = err
			return result
		}

		if isBuy {
			q, err := d.lp.QuoteBuy(d.ctx, mint, amount)
			if err != nil {
				result.Err = err
				return result
			}
			slip, _ := curve.CalculateFee(q.Total, DefaultSlippageBps)
			result.Receipt, result.Err = d.lp.Buy(d.ctx, launchpad.BuyRequest{
				Mint:         mint,
				User:         d.wallet,
				FeeRecipient: g.FeeRecipient,
				TokenAmount:  amount,
				MaxSolCost:   q.Total + slip,
			})
			return result
		}

		q, err := d.lp.QuoteSell(d.ctx, mint, amount)
		if err != nil {
			result.Err = err
			return result
		}
		slip, _ := curve.CalculateFee(q.Total, DefaultSlippageBps)
		result.Receipt, result.Err = d.lp.Sell(d.ctx, launchpad.SellRequest{
			Mint:         mint,
			User:         d.wallet,
			FeeRecipient: g.FeeRecipient,
			TokenAmount:  amount,
			MinSolOutput: q.Total - slip,
		})
		return result
	}
}

func (d *Dashboard) setStatus(format string, args ...any) {
	d.status = fmt.Sprintf(format, args...)
	d.statusErr = false
}

func (d *Dashboard) setError(err error) {
	d.status = err.Error()
	if code := curve.ErrorCode(err); code != "Unknown" {
		d.status = code + ": " + d.status
	}
	d.statusErr = true
}

func (d *Dashboard) syncHeader() {
	var held uint64
	var symbol string
	if c := d.curves.Selected(); c != nil {
		held = d.holdings[c.Mint]
		symbol = c.Symbol
	}
	d.header.SetWallet(d.sol, held, symbol)
	d.header.SetTradeSize(d.tradeSize)
	d.header.SetActivity(d.feed.Total(), d.feed.Volume())
}

func (d *Dashboard) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		d.resize(msg.Width, msg.Height)

	case tea.KeyMsg:
		if cmd, handled := d.handleKey(msg); handled {
			return d, cmd
		}
		if d.focus == focusLogs {
			cmds = append(cmds, d.logs.Update(msg))
		} else {
			cmds = append(cmds, d.curves.Update(msg))
		}
		d.syncHeader()

	case StateMsg:
		if msg.Err != nil {
			d.setError(msg.Err)
			break
		}
		d.curves.SetCurves(msg.Curves)
		d.feed.SetSymbols(msg.Curves)
		d.sol = msg.SOL
		d.holdings = msg.Holdings
		d.syncHeader()

	case TradeResultMsg:
		if msg.Err != nil {
			d.setError(msg.Err)
		} else {
			verb := "Sold"
			if msg.IsBuy {
				verb = "Bought"
			}
			d.setStatus("%s %s tokens for %s SOL (fee %s)", verb,
				curve.TokensToUI(msg.Receipt.TokenAmount).String(),
				curve.LamportsToSol(msg.Receipt.SolAmount).String(),
				curve.LamportsToSol(msg.Receipt.Fee).String())
			if msg.Receipt.Completed {
				d.status += " and completed the curve"
			}
		}
		cmds = append(cmds, d.refresh())

	case EventMsg:
		switch e := msg.Event.(type) {
		case events.TradeEvent:
			d.feed.Add(e)
			d.syncHeader()
			cmds = append(cmds, d.refresh())
		case events.CurveCreatedEvent, events.CurveCompletedEvent, events.WithdrawEvent:
			cmds = append(cmds, d.refresh())
		}
		if d.updates != nil {
			cmds = append(cmds, d.updates.Listen())
		}

	case tickMsg:
		d.logs.Refresh()
		cmds = append(cmds, tick())
	}

	return d, tea.Batch(cmds...)
}

func (d *Dashboard) handleKey(msg tea.KeyMsg) (tea.Cmd, bool) {
	switch {
	case key.Matches(msg, d.keys.Quit):
		return tea.Quit, true
	case key.Matches(msg, d.keys.Help):
		d.help.ShowAll = !d.help.ShowAll
		return nil, true
	case key.Matches(msg, d.keys.Tab):
		if d.focus == focusCurves {
			d.focus = focusLogs
			d.curves.Blur()
		} else {
			d.focus = focusCurves
			d.curves.Focus()
		}
		return nil, true
	case key.Matches(msg, d.keys.Refresh):
		return d.refresh(), true
	case key.Matches(msg, d.keys.SizeUp):
		if d.tradeSize <= curve.DefaultInitialTokenSupply/10 {
			d.tradeSize *= 10
		}
		d.syncHeader()
		return nil, true
	case key.Matches(msg, d.keys.SizeDown):
		if d.tradeSize >= 10 {
			d.tradeSize /= 10
		}
		d.syncHeader()
		return nil, true
	case key.Matches(msg, d.keys.Buy), key.Matches(msg, d.keys.Sell):
		c := d.curves.Selected()
		if c == nil {
			d.setStatus("No curve selected")
			return nil, true
		}
		isBuy := key.Matches(msg, d.keys.Buy)
		amount := d.tradeSize
		if !isBuy {
			amount = min(amount, d.holdings[c.Mint])
			if amount == 0 {
				d.setStatus("Nothing to sell on %s", c.Symbol)
				return nil, true
			}
		}
		return d.trade(c.Mint, isBuy, amount), true
	}
	return nil, false
}

func (d *Dashboard) resize(width, height int) {
	d.width, d.height = width, height
	inner := width - 4
	d.header.SetWidth(width)
	d.help.Width = width

	// header 3, feed pane feedSize+2, status 1, help 1, borders.
	tableHeight := height - feedSize - 18
	if tableHeight < 4 {
		tableHeight = 4
	}
	d.curves.SetSize(inner, tableHeight)
	d.logs.SetSize(inner, 6)
}

func (d *Dashboard) View() string {
	if d.width == 0 {
		return "Initializing..."
	}
	curvesPane := style.Pane(d.focus == focusCurves).Width(d.width - 2).Render(
		lipgloss.JoinVertical(lipgloss.Left, style.Title().Render("Curves"), d.curves.View()))
	feedPane := style.Pane(false).Width(d.width - 2).Render(
		lipgloss.JoinVertical(lipgloss.Left, style.Title().Render("Trades"), d.feed.View()))
	logsPane := style.Pane(d.focus == focusLogs).Width(d.width - 2).Render(
		lipgloss.JoinVertical(lipgloss.Left, style.Title().Render("Logs"), d.logs.View()))

	status := style.Muted().Render(d.status)
	if d.statusErr {
		status = lipgloss.NewStyle().Foreground(style.DefaultPalette().Error).Render(d.status)
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		d.header.View(),
		curvesPane,
		feedPane,
		logsPane,
		status,
		d.help.View(d.keys),
	)
}

// Status returns the last status line.
func (d *Dashboard) Status() (string, bool) {
	return d.status, d.statusErr
}

// TradeSize returns the raw token amount traded per keypress.
func (d *Dashboard) TradeSize() uint64 {
	return d.tradeSize
}
