package interactions

import (
	"sync"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/events"
	"github.com/disgoorg/disgo/rest"
	"github.com/disgoorg/snowflake/v2"
)

// Context is the response context built for every dispatched interaction. The
// first reply goes out as the interaction response, later ones as followups.
type Context struct {
	app         App
	interaction Interaction
	respond     events.InteractionResponderFunc

	mu        sync.Mutex
	responses int
}

func newContext(app App, interaction Interaction, respond events.InteractionResponderFunc) *Context {
	return &Context{
		app:         app,
		interaction: interaction,
		respond:     respond,
	}
}

func (c *Context) App() App {
	return c.app
}

func (c *Context) Interaction() Interaction {
	return c.interaction
}

func (c *Context) CustomID() string {
	return c.interaction.CustomID
}

func (c *Context) GuildID() *snowflake.ID {
	return c.interaction.GuildID
}

func (c *Context) ChannelID() snowflake.ID {
	return c.interaction.ChannelID
}

func (c *Context) User() discord.User {
	return c.interaction.User
}

func (c *Context) Member() *discord.ResolvedMember {
	return c.interaction.Member
}

// Responded reports whether an initial response was issued.
func (c *Context) Responded() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.responses > 0
}

// Responses returns how many responses (initial and followups) were sent.
func (c *Context) Responses() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.responses
}

// Respond sends a message. The first call creates the interaction response,
// subsequent calls create followup messages.
func (c *Context) Respond(messageCreate discord.MessageCreate, opts ...rest.RequestOpt) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.responses == 0 {
		return c.initial(discord.InteractionResponseTypeCreateMessage, messageCreate, opts...)
	}
	if _, err := c.app.Rest().CreateFollowupMessage(c.interaction.ApplicationID, c.interaction.Token, messageCreate, opts...); err != nil {
		return err
	}
	c.responses++
	return nil
}

// RespondContent is a shorthand for Respond with plain content.
func (c *Context) RespondContent(content string, ephemeral bool) error {
	return c.Respond(discord.NewMessageCreate().WithContent(content).WithEphemeral(ephemeral))
}

func (c *Context) Defer(ephemeral bool, opts ...rest.RequestOpt) error {
	var data discord.InteractionResponseData
	if ephemeral {
		data = discord.MessageCreate{Flags: discord.MessageFlagEphemeral}
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.initialOnce(discord.InteractionResponseTypeDeferredCreateMessage, data, opts...)
}

// DeferUpdate acknowledges a component interaction without changing the message.
func (c *Context) DeferUpdate(opts ...rest.RequestOpt) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.initialOnce(discord.InteractionResponseTypeDeferredUpdateMessage, nil, opts...)
}

// UpdateMessage edits the message the component is attached to. After an
// initial response it edits the original response instead.
func (c *Context) UpdateMessage(messageUpdate discord.MessageUpdate, opts ...rest.RequestOpt) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.responses == 0 {
		return c.initial(discord.InteractionResponseTypeUpdateMessage, messageUpdate, opts...)
	}
	_, err := c.app.Rest().UpdateInteractionResponse(c.interaction.ApplicationID, c.interaction.Token, messageUpdate, opts...)
	return err
}

// RespondWithModal opens a modal. Modals cannot answer modal submissions.
func (c *Context) RespondWithModal(modalCreate discord.ModalCreate, opts ...rest.RequestOpt) error {
	if c.interaction.Kind != KindComponent {
		return ErrModalNotAllowed
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.initialOnce(discord.InteractionResponseTypeModal, modalCreate, opts...)
}

func (c *Context) initialOnce(responseType discord.InteractionResponseType, data discord.InteractionResponseData, opts ...rest.RequestOpt) error {
	if c.responses > 0 {
		return ErrAlreadyResponded
	}
	return c.initial(responseType, data, opts...)
}

func (c *Context) initial(responseType discord.InteractionResponseType, data discord.InteractionResponseData, opts ...rest.RequestOpt) error {
	if err := c.respond(responseType, data, opts...); err != nil {
		return err
	}
	c.responses++
	return nil
}
