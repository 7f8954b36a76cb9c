// internal/storage/models/curve_event.go
package models

import "time"

// Lifecycle event kinds. Each happens at most once per mint.
const (
	KindCreated   = "created"
	KindCompleted = "completed"
	KindWithdrawn = "withdrawn"
)

// CurveEvent is one lifecycle transition of a curve.
type CurveEvent struct {
	BaseModel
	Mint        string    `db:"mint"`
	Kind        string    `db:"kind"`
	Actor       string    `db:"actor"`
	SolAmount   uint64    `db:"sol_amount"`
	TokenAmount uint64    `db:"token_amount"`
	OccurredAt  time.Time `db:"occurred_at"`
}
