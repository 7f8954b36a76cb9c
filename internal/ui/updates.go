package ui

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/curve-launchpad/internal/events"
)

// UpdateSender forwards bus events into the UI without blocking the bus.
type UpdateSender struct {
	msgChan        chan tea.Msg
	droppedUpdates uint64
	sentUpdates    uint64
	logger         *zap.Logger
	statsInterval  time.Duration
	stopStats      chan struct{}
	closeOnce      sync.Once
}

// Compile-time interface check.
var _ events.Handler = (*UpdateSender)(nil)

// NewUpdateSender creates a sender with a buffer of size messages.
func NewUpdateSender(size int, logger *zap.Logger) *UpdateSender {
	us := &UpdateSender{
		msgChan:       make(chan tea.Msg, size),
		logger:        logger,
		statsInterval: 30 * time.Second,
		stopStats:     make(chan struct{}),
	}

	go us.logStats()

	return us
}

// Handle implements events.Handler.
func (us *UpdateSender) Handle(_ context.Context, event events.Event) error {
	us.SendUpdate(EventMsg{Event: event})
	return nil
}

// SendUpdate sends a message to the UI, dropping it when the buffer is full.
func (us *UpdateSender) SendUpdate(msg tea.Msg) {
	select {
	case us.msgChan <- msg:
		atomic.AddUint64(&us.sentUpdates, 1)
	default:
		atomic.AddUint64(&us.droppedUpdates, 1)
	}
}

// Listen returns a command that waits for the next update.
func (us *UpdateSender) Listen() tea.Cmd {
	return func() tea.Msg {
		return <-us.msgChan
	}
}

// GetStats returns current statistics
func (us *UpdateSender) GetStats() (sent, dropped uint64) {
	sent = atomic.LoadUint64(&us.sentUpdates)
	dropped = atomic.LoadUint64(&us.droppedUpdates)
	return sent, dropped
}

func (us *UpdateSender) logStats() {
	ticker := time.NewTicker(us.statsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			sent, dropped := us.GetStats()
			if dropped > 0 {
				us.logger.Warn("UI update statistics",
					zap.Uint64("sent", sent),
					zap.Uint64("dropped", dropped),
					zap.Float64("drop_rate", float64(dropped)/float64(sent+dropped)*100))
			}
		case <-us.stopStats:
			return
		}
	}
}

// Close stops the stats loop. Pending updates stay readable.
func (us *UpdateSender) Close() {
	us.closeOnce.Do(func() { close(us.stopStats) })
}
