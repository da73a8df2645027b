package event

import "context"

// Listener observes events
type Listener interface {
	OnEvent(ctx context.Context, e *Event)
}

// ListenerFunc adapts a function to Listener
type ListenerFunc func(ctx context.Context, e *Event)

// OnEvent calls fn
func (fn ListenerFunc) OnEvent(ctx context.Context, e *Event) {
	fn(ctx, e)
}

// Publisher emits events
type Publisher interface {
	Publish(ctx context.Context, e *Event)
}

// Nop discards events
type Nop struct{}

// Publish does nothing
func (Nop) Publish(context.Context, *Event) {}
