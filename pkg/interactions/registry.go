package interactions

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/lmittmann/tint"
)

// ErrorHandler is called for every listener failure during dispatch.
type ErrorHandler func(event Event, err error)

// Registry maps event types to listeners. Registration order is dispatch order.
type Registry struct {
	mu        sync.RWMutex
	listeners map[EventType][]Listener

	logger       *slog.Logger
	errorHandler ErrorHandler
}

func NewRegistry(logger *slog.Logger, errorHandler ErrorHandler) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		listeners:    make(map[EventType][]Listener),
		logger:       logger,
		errorHandler: errorHandler,
	}
}

// Subscribe appends listener to eventType. The same listener may be registered
// more than once and then runs once per registration.
func (r *Registry) Subscribe(eventType EventType, listener Listener) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.listeners[eventType] = append(r.listeners[eventType], listener)
}

// Unsubscribe removes the first registration of listener for eventType.
func (r *Registry) Unsubscribe(eventType EventType, listener Listener) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	listeners := r.listeners[eventType]
	i := slices.Index(listeners, listener)
	if i == -1 {
		return fmt.Errorf("%w: %s", ErrListenerNotFound, eventType)
	}
	r.listeners[eventType] = slices.Delete(listeners, i, i+1)
	return nil
}

// Len returns the number of registrations for eventType.
func (r *Registry) Len(eventType EventType) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.listeners[eventType])
}

func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	clear(r.listeners)
}

// Dispatch runs every listener registered for the event's type, in order, on
// the calling goroutine. A failing listener is reported and the rest still run.
// Listeners may subscribe or unsubscribe while a dispatch is running; the
// change applies to the next dispatch.
func (r *Registry) Dispatch(ctx context.Context, event Event) {
	r.mu.RLock()
	listeners := slices.Clone(r.listeners[event.Type()])
	r.mu.RUnlock()

	for _, listener := range listeners {
		if err := r.invoke(ctx, listener, event); err != nil {
			r.report(event, err)
		}
	}
}

func (r *Registry) invoke(ctx context.Context, listener Listener, event Event) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("%w: %v", ErrListenerPanic, rec)
		}
	}()
	return listener.OnEvent(ctx, event)
}

func (r *Registry) report(event Event, err error) {
	attrs := []any{slog.String("event.type", event.Type().String())}
	if i, ok := interactionOf(event); ok {
		attrs = append(attrs, slog.String("custom.id", i.CustomID), slog.Any("interaction.id", i.ID))
	}
	r.logger.Error("interactions: error while running a listener", append(attrs, tint.Err(err))...)
	if r.errorHandler != nil {
		r.errorHandler(event, err)
	}
}

func interactionOf(event Event) (Interaction, bool) {
	switch e := event.(type) {
	case *ComponentInteractionCreate:
		return e.Interaction, true
	case *ModalInteractionCreate:
		return e.Interaction, true
	}
	return Interaction{}, false
}
