package interactions

import (
	"slices"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/snowflake/v2"
)

// Interaction is the normalized view of a component or modal interaction
// handed to listeners.
type Interaction struct {
	Kind          Kind
	ID            snowflake.ID
	ApplicationID snowflake.ID
	Token         string
	CustomID      string
	GuildID       *snowflake.ID
	ChannelID     snowflake.ID
	User          discord.User
	Member        *discord.ResolvedMember

	// MessageID and Values are only set for component interactions.
	MessageID snowflake.ID
	Values    []string

	Raw discord.Interaction
}

func newInteraction(kind Kind, raw discord.Interaction) Interaction {
	i := Interaction{
		Kind:          kind,
		ID:            raw.ID(),
		ApplicationID: raw.ApplicationID(),
		Token:         raw.Token(),
		GuildID:       raw.GuildID(),
		ChannelID:     raw.Channel().ID(),
		Member:        raw.Member(),
		Raw:           raw,
	}
	if i.Member != nil {
		i.User = i.Member.User
	} else {
		i.User = raw.User()
	}

	switch r := raw.(type) {
	case discord.ComponentInteraction:
		i.CustomID = r.Data.CustomID()
		i.MessageID = r.Message.ID
		if data, ok := r.Data.(discord.StringSelectMenuInteractionData); ok {
			i.Values = data.Values
		}
	case discord.ModalSubmitInteraction:
		i.CustomID = r.Data.CustomID
	}
	return i
}

// InGuild reports whether the interaction happened inside a guild.
func (i Interaction) InGuild() bool {
	return i.GuildID != nil
}

// HasRole reports whether the invoking member has the given role.
func (i Interaction) HasRole(roleID snowflake.ID) bool {
	if i.Member == nil {
		return false
	}
	return slices.Contains(i.Member.RoleIDs, roleID)
}
