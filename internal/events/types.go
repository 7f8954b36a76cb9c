// internal/events/types.go
package events

import (
	"time"

	"github.com/gagliardetto/solana-go"
)

// EventType represents the type of event.
type EventType string

const (
	CurveCreated   EventType = "curve.created"
	CurveTrade     EventType = "curve.trade"
	CurveCompleted EventType = "curve.completed"
	CurveWithdrawn EventType = "curve.withdrawn"
	ParamsSet      EventType = "params.set"
)

// AllEventTypes lists every type the launchpad publishes.
var AllEventTypes = []EventType{CurveCreated, CurveTrade, CurveCompleted, CurveWithdrawn, ParamsSet}

// Event is the base interface for all events.
type Event interface {
	Type() EventType
	Timestamp() time.Time
}

// BaseEvent provides common fields for all events.
type BaseEvent struct {
	EventType EventType
	EventTime time.Time
}

// Type returns the event type.
func (e BaseEvent) Type() EventType {
	return e.EventType
}

// Timestamp returns when the event occurred.
func (e BaseEvent) Timestamp() time.Time {
	return e.EventTime
}

// NewBase stamps an event of type t at time at.
func NewBase(t EventType, at time.Time) BaseEvent {
	return BaseEvent{EventType: t, EventTime: at}
}

// Reserves is the post-transition reserve state of a curve.
type Reserves struct {
	VirtualSolReserves   uint64
	VirtualTokenReserves uint64
	RealSolReserves      uint64
	RealTokenReserves    uint64
}

// CurveCreatedEvent is emitted when a new bonding curve is launched.
type CurveCreatedEvent struct {
	BaseEvent
	Mint    solana.PublicKey
	Creator solana.PublicKey
	Custody solana.PublicKey
	Name    string
	Symbol  string
	URI     string
	Team    string
	Reserves
	TokenTotalSupply uint64
}

// TradeEvent is emitted for every successful buy or sell.
type TradeEvent struct {
	BaseEvent
	Mint        solana.PublicKey
	User        solana.PublicKey
	IsBuy       bool
	SolAmount   uint64
	TokenAmount uint64
	Fee         uint64
	// Unix seconds of the clock read that priced the trade.
	UnixTimestamp int64
	Reserves
}

// Side returns "buy" or "sell".
func (e TradeEvent) Side() string {
	if e.IsBuy {
		return "buy"
	}
	return "sell"
}

// CurveCompletedEvent is emitted once, by the buy that empties the real token reserves.
type CurveCompletedEvent struct {
	BaseEvent
	Mint          solana.PublicKey
	User          solana.PublicKey
	UnixTimestamp int64
}

// WithdrawEvent is emitted when the withdraw authority sweeps a complete curve.
type WithdrawEvent struct {
	BaseEvent
	Mint        solana.PublicKey
	Authority   solana.PublicKey
	SolAmount   uint64
	TokenAmount uint64
}

// ParamsSetEvent is emitted when the authority changes the launch parameters.
type ParamsSetEvent struct {
	BaseEvent
	FeeRecipient                solana.PublicKey
	WithdrawAuthority           solana.PublicKey
	InitialVirtualTokenReserves uint64
	InitialVirtualSolReserves   uint64
	InitialRealTokenReserves    uint64
	InitialTokenSupply          uint64
	FeeBasisPoints              uint64
}
