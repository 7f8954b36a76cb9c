package ui

import (
	"time"

	"github.com/gagliardetto/solana-go"

	"github.com/rovshanmuradov/curve-launchpad/internal/curve"
	"github.com/rovshanmuradov/curve-launchpad/internal/events"
	"github.com/rovshanmuradov/curve-launchpad/internal/launchpad"
)

// EventMsg wraps a launchpad event for the UI.
type EventMsg struct {
	Event events.Event
}

// StateMsg carries a fresh snapshot of the curves and the demo wallet.
type StateMsg struct {
	Curves []*curve.BondingCurve
	SOL    uint64
	// Holdings maps mint to the wallet's raw token balance.
	Holdings map[solana.PublicKey]uint64
	Err      error
}

// TradeResultMsg reports a trade submitted from the keyboard.
type TradeResultMsg struct {
	IsBuy   bool
	Mint    solana.PublicKey
	Receipt *launchpad.TradeReceipt
	Err     error
}

type tickMsg time.Time
