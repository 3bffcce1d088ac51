package interactions

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"log/slog"
	"sync"
	"time"

	"github.com/disgoorg/disgo/discord"
	"github.com/lmittmann/tint"
)

const (
	maxModalInputs      = 5
	defaultModalTimeout = 300 * time.Second
)

// TextInput is a modal text field.
type TextInput struct {
	CustomID    string
	Label       string
	Description string
	Style       discord.TextInputStyle
	Placeholder string
	Value       string
	Required    bool
	MinLength   int
	MaxLength   int
}

func (t *TextInput) component() discord.LayoutComponent {
	style := t.Style
	if style == 0 {
		style = discord.TextInputStyleShort
	}
	input := discord.TextInputComponent{
		CustomID:    t.CustomID,
		Style:       style,
		Required:    t.Required,
		Placeholder: t.Placeholder,
		Value:       t.Value,
		MaxLength:   t.MaxLength,
	}
	if t.MinLength > 0 {
		minLength := t.MinLength
		input.MinLength = &minLength
	}
	label := discord.NewLabel(t.Label, input)
	label.Description = t.Description
	return label
}

// ModalContext is handed to the submit callback. Values holds the submitted
// text keyed by input custom id.
type ModalContext struct {
	*Context
	Modal  *Modal
	Values map[string]string
}

// Value returns the submitted text of one input.
func (c *ModalContext) Value(customID string) string {
	return c.Values[customID]
}

// ModalCallback runs once when the modal is submitted.
type ModalCallback func(ctx context.Context, c *ModalContext) error

type ModalOpt func(m *Modal)

// WithModalCustomID overrides the random custom id of the modal.
func WithModalCustomID(customID string) ModalOpt {
	return func(m *Modal) {
		m.customID = customID
	}
}

// WithModalTimeout sets how long the modal waits for a submission. Zero
// waits forever.
func WithModalTimeout(timeout time.Duration) ModalOpt {
	return func(m *Modal) {
		m.timeout = timeout
	}
}

func WithModalAutodefer(autodefer bool) ModalOpt {
	return func(m *Modal) {
		m.autodefer = autodefer
	}
}

func WithModalCheck(check func(c *ModalContext) bool) ModalOpt {
	return func(m *Modal) {
		m.check = check
	}
}

func WithModalOnTimeout(onTimeout func(m *Modal)) ModalOpt {
	return func(m *Modal) {
		m.onTimeout = onTimeout
	}
}

// Modal is a form of text inputs answered by a single submission.
type Modal struct {
	manager   *Manager
	title     string
	customID  string
	callback  ModalCallback
	timeout   time.Duration
	autodefer bool
	check     func(c *ModalContext) bool
	onTimeout func(m *Modal)

	mu       sync.Mutex
	inputs   []*TextInput
	values   map[string]string
	started  bool
	active   bool
	timer    *time.Timer
	listener Listener

	stopOnce sync.Once
	done     chan struct{}
}

func NewModal(manager *Manager, title string, callback ModalCallback, opts ...ModalOpt) *Modal {
	m := &Modal{
		manager:   manager,
		title:     title,
		callback:  callback,
		timeout:   defaultModalTimeout,
		autodefer: true,
		done:      make(chan struct{}),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.customID == "" {
		m.customID = randomCustomID()
	}
	m.listener = NewListenerFunc(m.onSubmit)
	return m
}

func randomCustomID() string {
	b := make([]byte, 16)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}

func (m *Modal) CustomID() string {
	return m.customID
}

// AddTextInput appends an input to the modal.
func (m *Modal) AddTextInput(input *TextInput) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.inputs) >= maxModalInputs {
		return ErrTooManyInputs
	}
	for _, existing := range m.inputs {
		if existing.CustomID == input.CustomID {
			return ErrDuplicateItem
		}
	}
	m.inputs = append(m.inputs, input)
	return nil
}

// Build renders the modal for a modal response.
func (m *Modal) Build() discord.ModalCreate {
	m.mu.Lock()
	defer m.mu.Unlock()
	components := make([]discord.LayoutComponent, 0, len(m.inputs))
	for _, input := range m.inputs {
		components = append(components, input.component())
	}
	return discord.ModalCreate{
		CustomID:   m.customID,
		Title:      m.title,
		Components: components,
	}
}

// Send opens the modal in response to c and starts listening for the submission.
func (m *Modal) Send(c *Context) error {
	if err := c.RespondWithModal(m.Build()); err != nil {
		return err
	}
	return m.Start()
}

// Start listens for the submission of a modal that was sent by other means.
func (m *Modal) Start() error {
	if !m.manager.Loaded() {
		return ErrNotLoaded
	}
	m.mu.Lock()
	if m.started {
		m.mu.Unlock()
		return ErrModalStarted
	}
	m.started = true
	m.active = true
	if m.timeout > 0 {
		m.timer = time.AfterFunc(m.timeout, m.handleTimeout)
	}
	m.mu.Unlock()

	m.manager.Subscribe(EventTypeModalInteraction, m.listener)
	m.manager.views.addModal(m)
	return nil
}

// Stop stops listening. It is safe to call more than once.
func (m *Modal) Stop() {
	m.stopOnce.Do(func() {
		m.mu.Lock()
		started := m.started
		m.active = false
		if m.timer != nil {
			m.timer.Stop()
		}
		m.mu.Unlock()

		if started {
			_ = m.manager.Unsubscribe(EventTypeModalInteraction, m.listener)
			m.manager.views.removeModal(m)
		}
		close(m.done)
	})
}

func (m *Modal) Active() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.active
}

// Values returns the submitted values, or nil before a submission.
func (m *Modal) Values() map[string]string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.values
}

func (m *Modal) Done() <-chan struct{} {
	return m.done
}

// Wait blocks until the modal is submitted, times out or ctx is done.
func (m *Modal) Wait(ctx context.Context) error {
	select {
	case <-m.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (m *Modal) handleTimeout() {
	if m.onTimeout != nil {
		m.onTimeout(m)
	}
	m.Stop()
}

func (m *Modal) onSubmit(ctx context.Context, e *ModalInteractionCreate) error {
	if e.Interaction.CustomID != m.customID {
		return nil
	}
	raw, ok := e.Interaction.Raw.(discord.ModalSubmitInteraction)
	if !ok {
		return nil
	}

	m.mu.Lock()
	if !m.active {
		m.mu.Unlock()
		return nil
	}
	values := make(map[string]string, len(m.inputs))
	for _, input := range m.inputs {
		if text, ok := raw.Data.OptText(input.CustomID); ok {
			values[input.CustomID] = text
		}
	}
	m.mu.Unlock()
	if len(values) == 0 {
		return nil
	}

	modalContext := &ModalContext{Context: e.Context, Modal: m, Values: values}
	if m.check != nil && !m.check(modalContext) {
		return nil
	}

	m.mu.Lock()
	m.values = values
	m.mu.Unlock()
	defer m.Stop()

	if m.callback != nil {
		if err := m.callback(ctx, modalContext); err != nil {
			m.manager.config.Logger.Error("interactions: error while running a modal callback",
				slog.String("custom.id", m.customID),
				tint.Err(err))
		}
	}
	if m.autodefer && !e.Context.Responded() {
		if raw.Message != nil {
			return e.Context.DeferUpdate()
		}
		return e.Context.Defer(true)
	}
	return nil
}
