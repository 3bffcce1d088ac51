package interactions

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/disgoorg/disgo/bot"
	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/events"
	"github.com/disgoorg/disgo/rest"
	"github.com/lmittmann/tint"
)

// EventManager is the part of the host event manager the classifier attaches to.
type EventManager interface {
	AddEventListeners(listeners ...bot.EventListener)
	RemoveEventListeners(listeners ...bot.EventListener)
}

// App is the capability set a Manager needs from the running application.
type App interface {
	EventManager() EventManager
	Rest() rest.Rest
}

// NewApp adapts a disgo client to App.
func NewApp(client *bot.Client) App {
	return &clientApp{client: client}
}

type clientApp struct {
	client *bot.Client
}

func (a *clientApp) EventManager() EventManager {
	if a.client == nil || a.client.EventManager == nil {
		return nil
	}
	return a.client.EventManager
}

func (a *clientApp) Rest() rest.Rest {
	if a.client == nil {
		return nil
	}
	return a.client.Rest
}

// Manager owns the interaction registry and attaches the classifier to at most
// one application at a time.
type Manager struct {
	config   Config
	registry *Registry
	views    *ViewRegistry
	listener bot.EventListener

	mu         sync.RWMutex
	app        App
	dispatcher *Dispatcher
	cancel     context.CancelFunc
}

func New(opts ...ConfigOpt) *Manager {
	config := defaultConfig()
	config.apply(opts)

	m := &Manager{
		config:   config,
		registry: NewRegistry(config.Logger, config.ErrorHandler),
		views:    newViewRegistry(),
	}
	m.listener = bot.NewListenerFunc(m.onInteractionCreate)
	return m
}

// Load attaches the manager to app and starts dispatching component and modal
// interactions.
func (m *Manager) Load(app App) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.app != nil {
		return ErrAlreadyLoaded
	}
	if err := checkCapabilities(app); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	dispatcher := NewDispatcher(m.registry, m.config.QueueSize)
	if err := dispatcher.Start(ctx); err != nil {
		cancel()
		return err
	}

	m.app = app
	m.dispatcher = dispatcher
	m.cancel = cancel
	app.EventManager().AddEventListeners(m.listener)
	m.config.Logger.Debug("interactions: loaded")
	return nil
}

// Unload stops every view bound to a message and every pending modal, detaches
// unbound persistent views and the classifier, and clears all listeners.
// It waits for the running dispatch to finish, so it must not be called from
// a listener or a view callback.
func (m *Manager) Unload() error {
	m.mu.Lock()
	app := m.app
	if app == nil {
		m.mu.Unlock()
		return ErrNotLoaded
	}
	dispatcher := m.dispatcher
	cancel := m.cancel
	m.app = nil
	m.dispatcher = nil
	m.cancel = nil
	m.mu.Unlock()

	m.views.StopAll()
	m.views.detachAll()
	app.EventManager().RemoveEventListeners(m.listener)

	dispatcher.Stop()
	cancel()
	dispatcher.Wait()

	m.registry.Clear()
	m.config.Logger.Debug("interactions: unloaded")
	return nil
}

func checkCapabilities(app App) error {
	if app == nil {
		return fmt.Errorf("%w: app is nil", ErrMissingCapability)
	}
	if app.EventManager() == nil {
		return fmt.Errorf("%w: no event manager", ErrMissingCapability)
	}
	if app.Rest() == nil {
		return fmt.Errorf("%w: no rest client", ErrMissingCapability)
	}
	return nil
}

// App returns the currently loaded app.
func (m *Manager) App() (App, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.app, m.app != nil
}

func (m *Manager) Loaded() bool {
	_, ok := m.App()
	return ok
}

func (m *Manager) Subscribe(eventType EventType, listener Listener) {
	m.registry.Subscribe(eventType, listener)
}

func (m *Manager) Unsubscribe(eventType EventType, listener Listener) error {
	return m.registry.Unsubscribe(eventType, listener)
}

// Views returns the registry of views bound to messages.
func (m *Manager) Views() *ViewRegistry {
	return m.views
}

// WaitUntilIdle blocks until every queued event was dispatched.
func (m *Manager) WaitUntilIdle(ctx context.Context) error {
	m.mu.RLock()
	dispatcher := m.dispatcher
	m.mu.RUnlock()
	if dispatcher == nil {
		return nil
	}
	return dispatcher.WaitUntilIdle(ctx)
}

func (m *Manager) onInteractionCreate(e *events.InteractionCreate) {
	m.HandleInteraction(context.Background(), e.Interaction, e.Respond)
}

// HandleInteraction classifies raw and queues the matching typed event. It
// reports whether an event was queued.
func (m *Manager) HandleInteraction(ctx context.Context, raw discord.Interaction, respond events.InteractionResponderFunc) bool {
	kind := Classify(raw)
	if kind == KindOther {
		return false
	}

	m.mu.RLock()
	app, dispatcher := m.app, m.dispatcher
	m.mu.RUnlock()
	if app == nil {
		return false
	}

	interaction := newInteraction(kind, raw)
	responseContext := newContext(app, interaction, respond)

	var event Event
	switch kind {
	case KindComponent:
		event = &ComponentInteractionCreate{app: app, Context: responseContext, Interaction: interaction}
	case KindModal:
		event = &ModalInteractionCreate{app: app, Context: responseContext, Interaction: interaction}
	}

	if err := dispatcher.Enqueue(ctx, event); err != nil {
		m.config.Logger.Warn("interactions: dropped an interaction",
			slog.String("interaction.kind", kind.String()),
			slog.String("custom.id", interaction.CustomID),
			tint.Err(err))
		return false
	}
	return true
}
