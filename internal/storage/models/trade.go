// internal/storage/models/trade.go
package models

import (
	"time"

	"github.com/rovshanmuradov/curve-launchpad/internal/events"
)

// Trade is one row of the trade journal. Amounts are raw units and must fit in
// a signed 64-bit column.
type Trade struct {
	BaseModel
	Mint                 string    `db:"mint" json:"mint"`
	UserAddress          string    `db:"user_address" json:"user"`
	Side                 string    `db:"side" json:"side"`
	SolAmount            uint64    `db:"sol_amount" json:"sol_amount"`
	TokenAmount          uint64    `db:"token_amount" json:"token_amount"`
	Fee                  uint64    `db:"fee" json:"fee"`
	VirtualSolReserves   uint64    `db:"virtual_sol_reserves" json:"virtual_sol_reserves"`
	VirtualTokenReserves uint64    `db:"virtual_token_reserves" json:"virtual_token_reserves"`
	RealSolReserves      uint64    `db:"real_sol_reserves" json:"real_sol_reserves"`
	RealTokenReserves    uint64    `db:"real_token_reserves" json:"real_token_reserves"`
	UnixTimestamp        int64     `db:"unix_timestamp" json:"unix_timestamp"`
	OccurredAt           time.Time `db:"occurred_at" json:"occurred_at"`
}

// TradeFromEvent maps a trade event onto a journal row.
func TradeFromEvent(e events.TradeEvent) *Trade {
	return &Trade{
		Mint:                 e.Mint.String(),
		UserAddress:          e.User.String(),
		Side:                 e.Side(),
		SolAmount:            e.SolAmount,
		TokenAmount:          e.TokenAmount,
		Fee:                  e.Fee,
		VirtualSolReserves:   e.VirtualSolReserves,
		VirtualTokenReserves: e.VirtualTokenReserves,
		RealSolReserves:      e.RealSolReserves,
		RealTokenReserves:    e.RealTokenReserves,
		UnixTimestamp:        e.UnixTimestamp,
		OccurredAt:           e.Timestamp(),
	}
}
