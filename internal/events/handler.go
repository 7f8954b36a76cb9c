// internal/events/handler.go
package events

import (
	"context"
)

// Handler processes events of a specific type.
type Handler interface {
	// Handle processes an event. It runs on the bus dispatcher, so a slow
	// handler delays every later event.
	Handle(ctx context.Context, event Event) error
}

// HandlerFunc is an adapter to allow the use of ordinary functions as event handlers.
type HandlerFunc func(ctx context.Context, event Event) error

// Handle calls f(ctx, event).
func (f HandlerFunc) Handle(ctx context.Context, event Event) error {
	return f(ctx, event)
}

// ChanHandler forwards events into a channel, dropping them when the channel is
// full. It suits UIs that only care about the latest state.
type ChanHandler chan<- Event

// Handle implements Handler.
func (c ChanHandler) Handle(_ context.Context, event Event) error {
	select {
	case c <- event:
	default:
	}
	return nil
}

// Subscription represents a subscription to events.
type Subscription interface {
	// Unsubscribe removes the subscription.
	Unsubscribe()
}

type subscription struct {
	id       string
	eventBus *Bus
	types    []EventType
}

func (s *subscription) Unsubscribe() {
	for _, t := range s.types {
		s.eventBus.unsubscribe(s.id, t)
	}
}
