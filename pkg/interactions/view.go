package interactions

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/snowflake/v2"
	"github.com/lmittmann/tint"
)

const (
	maxViewItems   = 25
	maxRowItems    = 5
	defaultTimeout = 120 * time.Second
)

// ButtonCallback runs when the button it belongs to is pressed.
type ButtonCallback func(ctx context.Context, c *ViewContext) error

// Button is a view item. A button with a URL never produces interactions.
type Button struct {
	CustomID string
	Label    string
	Style    discord.ButtonStyle
	URL      string
	Disabled bool
	Callback ButtonCallback
}

func (b *Button) component() discord.InteractiveComponent {
	if b.URL != "" {
		return discord.ButtonComponent{
			Style:    discord.ButtonStyleLink,
			Label:    b.Label,
			URL:      b.URL,
			Disabled: b.Disabled,
		}
	}
	style := b.Style
	if style == 0 {
		style = discord.ButtonStylePrimary
	}
	return discord.ButtonComponent{
		Style:    style,
		Label:    b.Label,
		CustomID: b.CustomID,
		Disabled: b.Disabled,
	}
}

// ViewContext is the response context handed to button callbacks.
type ViewContext struct {
	*Context
	View *View
}

// ViewOpt is a functional option for a View.
type ViewOpt func(v *View)

// WithTimeout sets how long the view may idle before it stops. Zero makes the
// view persistent.
func WithTimeout(timeout time.Duration) ViewOpt {
	return func(v *View) {
		v.timeout = timeout
	}
}

// WithAutodefer controls whether unanswered interactions are deferred after
// the callback returns.
func WithAutodefer(autodefer bool) ViewOpt {
	return func(v *View) {
		v.autodefer = autodefer
	}
}

// WithCheck installs a predicate every interaction must pass before callbacks run.
func WithCheck(check func(c *ViewContext) bool) ViewOpt {
	return func(v *View) {
		v.check = check
	}
}

// WithOnTimeout installs a hook that runs when the view times out.
func WithOnTimeout(onTimeout func(v *View)) ViewOpt {
	return func(v *View) {
		v.onTimeout = onTimeout
	}
}

// View is a stateful group of buttons attached to one message.
type View struct {
	manager   *Manager
	timeout   time.Duration
	autodefer bool
	check     func(c *ViewContext) bool
	onTimeout func(v *View)

	mu        sync.Mutex
	items     []*Button
	messageID snowflake.ID
	started   bool
	active    bool
	timer     *time.Timer
	listener  Listener

	stopOnce sync.Once
	done     chan struct{}
}

func NewView(manager *Manager, opts ...ViewOpt) *View {
	v := &View{
		manager:   manager,
		timeout:   defaultTimeout,
		autodefer: true,
		done:      make(chan struct{}),
	}
	for _, opt := range opts {
		opt(v)
	}
	v.listener = NewListenerFunc(v.onComponent)
	return v
}

// AddButton appends a button to the view.
func (v *View) AddButton(button *Button) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if len(v.items) >= maxViewItems {
		return ErrTooManyItems
	}
	if button.CustomID != "" {
		for _, item := range v.items {
			if item.CustomID == button.CustomID {
				return ErrDuplicateItem
			}
		}
	}
	v.items = append(v.items, button)
	return nil
}

func (v *View) Items() []*Button {
	v.mu.Lock()
	defer v.mu.Unlock()
	items := make([]*Button, len(v.items))
	copy(items, v.items)
	return items
}

// Persistent reports whether the view never times out and every item can be
// routed by custom id alone.
func (v *View) Persistent() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.timeout != 0 {
		return false
	}
	for _, item := range v.items {
		if item.URL == "" && item.CustomID == "" {
			return false
		}
	}
	return true
}

// Build renders the view as action rows of at most five buttons.
func (v *View) Build() []discord.LayoutComponent {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.build()
}

func (v *View) build() []discord.LayoutComponent {
	var rows []discord.LayoutComponent
	for start := 0; start < len(v.items); start += maxRowItems {
		end := min(start+maxRowItems, len(v.items))
		components := make([]discord.InteractiveComponent, 0, end-start)
		for _, item := range v.items[start:end] {
			components = append(components, item.component())
		}
		rows = append(rows, discord.NewActionRow(components...))
	}
	return rows
}

// MessageID returns the message the view is bound to, if any.
func (v *View) MessageID() snowflake.ID {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.messageID
}

func (v *View) Bound() bool {
	return v.MessageID() != 0
}

func (v *View) Active() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.active
}

// Done is closed once the view stops.
func (v *View) Done() <-chan struct{} {
	return v.done
}

// Wait blocks until the view stops or ctx is done.
func (v *View) Wait(ctx context.Context) error {
	select {
	case <-v.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Start binds the view to a message and begins listening. A view already
// bound to the same message is stopped and replaced.
func (v *View) Start(messageID snowflake.ID) error {
	if messageID == 0 {
		return ErrMissingMessageID
	}
	if !v.hasInteractiveItems() {
		return nil
	}
	if err := v.begin(messageID); err != nil {
		return err
	}
	if previous := v.manager.views.add(messageID, v); previous != nil && previous != v {
		previous.Stop()
	}
	return nil
}

// StartListener starts a persistent view without binding it to a message, for
// example after a restart. Manager.Unload does not stop such a view: it is
// detached, reports Active as false and may be started again after the next Load.
func (v *View) StartListener() error {
	if !v.Persistent() {
		return ErrNotPersistent
	}
	if err := v.begin(0); err != nil {
		return err
	}
	v.manager.views.addUnbound(v)
	return nil
}

func (v *View) detach() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.started = false
	v.active = false
	if v.timer != nil {
		v.timer.Stop()
		v.timer = nil
	}
}

func (v *View) begin(messageID snowflake.ID) error {
	if !v.manager.Loaded() {
		return ErrNotLoaded
	}
	v.mu.Lock()
	if v.started {
		v.mu.Unlock()
		return ErrViewStarted
	}
	v.started = true
	v.active = true
	v.messageID = messageID
	if v.timeout > 0 {
		v.timer = time.AfterFunc(v.timeout, v.handleTimeout)
	}
	v.mu.Unlock()

	v.manager.Subscribe(EventTypeComponentInteraction, v.listener)
	return nil
}

// Stop stops listening for interactions. It is safe to call more than once.
func (v *View) Stop() {
	v.stopOnce.Do(func() {
		v.mu.Lock()
		started := v.started
		v.active = false
		if v.timer != nil {
			v.timer.Stop()
		}
		messageID := v.messageID
		v.mu.Unlock()

		if started {
			_ = v.manager.Unsubscribe(EventTypeComponentInteraction, v.listener)
		}
		if messageID != 0 {
			v.manager.views.remove(messageID, v)
		} else {
			v.manager.views.removeUnbound(v)
		}
		close(v.done)
	})
}

func (v *View) hasInteractiveItems() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	for _, item := range v.items {
		if item.URL == "" {
			return true
		}
	}
	return false
}

func (v *View) handleTimeout() {
	if v.onTimeout != nil {
		v.onTimeout(v)
	}
	v.Stop()
}

func (v *View) onComponent(ctx context.Context, e *ComponentInteractionCreate) error {
	v.mu.Lock()
	if !v.active || (v.messageID != 0 && e.Interaction.MessageID != v.messageID) {
		v.mu.Unlock()
		return nil
	}
	var matched []*Button
	for _, item := range v.items {
		if item.URL == "" && item.CustomID == e.Interaction.CustomID {
			matched = append(matched, item)
		}
	}
	if len(matched) == 0 {
		v.mu.Unlock()
		return nil
	}
	if v.timer != nil {
		v.timer.Reset(v.timeout)
	}
	v.mu.Unlock()

	viewContext := &ViewContext{Context: e.Context, View: v}
	if v.check != nil && !v.check(viewContext) {
		return nil
	}
	for _, item := range matched {
		if item.Callback == nil {
			continue
		}
		if err := item.Callback(ctx, viewContext); err != nil {
			v.manager.config.Logger.Error("interactions: error while running a view callback",
				slog.String("custom.id", item.CustomID),
				slog.Any("message.id", e.Interaction.MessageID),
				tint.Err(err))
		}
	}
	if v.autodefer && !e.Context.Responded() {
		return e.Context.DeferUpdate()
	}
	return nil
}
