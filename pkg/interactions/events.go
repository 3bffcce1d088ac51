package interactions

// Event is implemented by every event the registry dispatches.
type Event interface {
	Type() EventType
	App() App
}

// ComponentInteractionCreate is dispatched when a button or select menu is used.
type ComponentInteractionCreate struct {
	app         App
	Context     *Context
	Interaction Interaction
}

func (e *ComponentInteractionCreate) Type() EventType {
	return EventTypeComponentInteraction
}

func (e *ComponentInteractionCreate) App() App {
	return e.app
}

// ModalInteractionCreate is dispatched when a modal is submitted.
type ModalInteractionCreate struct {
	app         App
	Context     *Context
	Interaction Interaction
}

func (e *ModalInteractionCreate) Type() EventType {
	return EventTypeModalInteraction
}

func (e *ModalInteractionCreate) App() App {
	return e.app
}

var (
	_ Event = (*ComponentInteractionCreate)(nil)
	_ Event = (*ModalInteractionCreate)(nil)
)

// ContextOf returns the response context carried by event.
func ContextOf(event Event) (*Context, bool) {
	switch e := event.(type) {
	case *ComponentInteractionCreate:
		return e.Context, e.Context != nil
	case *ModalInteractionCreate:
		return e.Context, e.Context != nil
	}
	return nil, false
}
