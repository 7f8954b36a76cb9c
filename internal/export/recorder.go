package export

import (
	"context"
	"sync"

	"github.com/rovshanmuradov/curve-launchpad/internal/events"
	"github.com/rovshanmuradov/curve-launchpad/internal/storage/models"
)

// Recorder keeps the trades published on an event bus in memory, for processes
// that run without a journal.
type Recorder struct {
	mu     sync.Mutex
	nextID int64
	trades []*models.Trade
}

// Compile-time interface check.
var _ events.Handler = (*Recorder)(nil)

func NewRecorder() *Recorder {
	return &Recorder{}
}

// Handle implements events.Handler. Non-trade events are ignored.
func (r *Recorder) Handle(_ context.Context, event events.Event) error {
	e, ok := event.(events.TradeEvent)
	if !ok {
		return nil
	}
	t := models.TradeFromEvent(e)

	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	t.ID = r.nextID
	t.CreatedAt = e.Timestamp()
	r.trades = append(r.trades, t)
	return nil
}

// Trades returns the recorded trades in arrival order.
func (r *Recorder) Trades() []*models.Trade {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*models.Trade, len(r.trades))
	copy(out, r.trades)
	return out
}
