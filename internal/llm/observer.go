package llm

import (
	"context"
	"time"
)

// Observer receives a notification after every provider call, successful,
// blocked or failed. Implementations must not block.
type Observer interface {
	OnCall(ctx context.Context, event CallEvent)
}

// CallEvent describes a single provider call.
type CallEvent struct {
	// ID is the source identifier the call was made for.
	ID string

	// Provider and Model that served the call.
	Provider string
	Model    string

	// Attempt number (1 = first attempt).
	Attempt int

	// HasImage is true for transcription calls.
	HasImage bool

	// Response is nil if the call failed before getting a response.
	Response *Response

	// Error if the call failed (nil on success or block).
	Error error

	StartedAt time.Time
	Duration  time.Duration
}

// ObserverFunc is a convenience type for using a function as an Observer.
type ObserverFunc func(ctx context.Context, event CallEvent)

// OnCall implements Observer.
func (f ObserverFunc) OnCall(ctx context.Context, event CallEvent) {
	f(ctx, event)
}
