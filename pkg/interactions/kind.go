package interactions

import "github.com/disgoorg/disgo/discord"

// Kind is the classification of an inbound interaction.
type Kind int

const (
	KindOther Kind = iota
	KindComponent
	KindModal
)

func (k Kind) String() string {
	switch k {
	case KindComponent:
		return "component"
	case KindModal:
		return "modal"
	}
	return "other"
}

// EventType identifies the typed events the registry dispatches.
type EventType int

const (
	EventTypeComponentInteraction EventType = iota + 1
	EventTypeModalInteraction
)

func (t EventType) String() string {
	switch t {
	case EventTypeComponentInteraction:
		return "component_interaction_create"
	case EventTypeModalInteraction:
		return "modal_interaction_create"
	}
	return "unknown"
}

// Classify decides once which arm an interaction belongs to. Everything that
// is neither a component nor a modal submission is KindOther.
func Classify(interaction discord.Interaction) Kind {
	switch interaction.(type) {
	case discord.ComponentInteraction:
		return KindComponent
	case discord.ModalSubmitInteraction:
		return KindModal
	}
	return KindOther
}
