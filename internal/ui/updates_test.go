package ui

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/curve-launchpad/internal/events"
)

func TestUpdateSenderNonBlocking(t *testing.T) {
	sender := NewUpdateSender(10, zap.NewNop())
	defer sender.Close()

	for i := 0; i < 10; i++ {
		sender.SendUpdate(tickMsg(time.Now()))
	}

	start := time.Now()
	for i := 0; i < 100; i++ {
		sender.SendUpdate(tickMsg(time.Now()))
	}
	assert.Less(t, time.Since(start), 100*time.Millisecond, "SendUpdate blocked")

	sent, dropped := sender.GetStats()
	assert.Equal(t, uint64(10), sent)
	assert.Equal(t, uint64(100), dropped)
}

func TestUpdateSenderConcurrent(t *testing.T) {
	sender := NewUpdateSender(100, zap.NewNop())
	defer sender.Close()

	var wg sync.WaitGroup
	const goroutines, perGoroutine = 10, 100
	wg.Add(goroutines)
	for i := 0; i < goroutines; i++ {
		go func() {
			defer wg.Done()
			for j := 0; j < perGoroutine; j++ {
				sender.SendUpdate(tickMsg(time.Now()))
			}
		}()
	}
	wg.Wait()

	sent, dropped := sender.GetStats()
	assert.Equal(t, uint64(goroutines*perGoroutine), sent+dropped)
	assert.Equal(t, uint64(100), sent)
}

func TestUpdateSenderHandlesBusEvents(t *testing.T) {
	sender := NewUpdateSender(4, zap.NewNop())
	defer sender.Close()
	sender.Close()

	event := events.CurveCompletedEvent{BaseEvent: events.NewBase(events.CurveCompleted, time.Now())}
	require.NoError(t, sender.Handle(context.Background(), event))

	msg := sender.Listen()()
	require.IsType(t, EventMsg{}, msg)
	assert.Equal(t, event, msg.(EventMsg).Event)
}
