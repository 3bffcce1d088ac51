package interactions

import "context"

// Listener receives dispatched events. Registrations are compared by
// identity, so implementations should be pointers.
type Listener interface {
	OnEvent(ctx context.Context, event Event) error
}

// NewListenerFunc wraps f into a Listener that only fires for events of type E.
func NewListenerFunc[E Event](f func(ctx context.Context, e E) error) Listener {
	return &listenerFunc[E]{f: f}
}

type listenerFunc[E Event] struct {
	f func(ctx context.Context, e E) error
}

func (l *listenerFunc[E]) OnEvent(ctx context.Context, event Event) error {
	if e, ok := event.(E); ok {
		return l.f(ctx, e)
	}
	return nil
}
