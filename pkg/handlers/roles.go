package handlers

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"kasugai-bot/pkg/interactions"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/handler"
	"github.com/disgoorg/json"
	"github.com/disgoorg/snowflake/v2"
	"github.com/lmittmann/tint"
)

const roleCustomIDPrefix = "roles:"

func roleCustomID(roleID snowflake.ID) string {
	return roleCustomIDPrefix + roleID.String()
}

func parseRoleCustomID(customID string) (snowflake.ID, bool) {
	raw, ok := strings.CutPrefix(customID, roleCustomIDPrefix)
	if !ok {
		return 0, false
	}
	roleID, err := snowflake.Parse(raw)
	if err != nil || roleID == 0 {
		return 0, false
	}
	return roleID, true
}

// roleButtons returns a button per self-assignable role, skipping @everyone and
// roles managed by bots or integrations.
func roleButtons(guildID snowflake.ID, roles []discord.Role) []*interactions.Button {
	var buttons []*interactions.Button
	for _, role := range roles {
		if role.ID == guildID || role.Managed {
			continue
		}
		buttons = append(buttons, &interactions.Button{
			CustomID: roleCustomID(role.ID),
			Label:    role.Name,
			Style:    discord.ButtonStylePrimary,
		})
	}
	return buttons
}

func (h *Handler) HandleRoles(e *handler.CommandEvent) error {
	guildID := e.GuildID()
	if guildID == nil {
		return e.CreateMessage(ephemeral(guildOnly))
	}
	client := e.Client().Rest
	roles, err := client.GetRoles(*guildID)
	if err != nil {
		return fmt.Errorf("get roles: %w", err)
	}
	buttons := roleButtons(*guildID, roles)
	if len(buttons) == 0 {
		return e.CreateMessage(ephemeral("There are no roles to choose from."))
	}

	applicationID, token := e.ApplicationID(), e.Token()
	view := interactions.NewView(h.Bot.Interactions,
		interactions.WithAutodefer(false),
		interactions.WithOnTimeout(func(*interactions.View) {
			if _, err := client.UpdateInteractionResponse(applicationID, token, discord.MessageUpdate{
				Components: json.Ptr([]discord.LayoutComponent{}),
			}); err != nil {
				slog.Warn("kasugai: error while clearing role buttons", slog.Any("guild.id", *guildID), tint.Err(err))
			}
		}))
	for _, button := range buttons {
		if err := view.AddButton(button); err != nil {
			slog.Warn("kasugai: too many roles for one message", slog.Any("guild.id", *guildID), slog.Int("roles", len(buttons)))
			break
		}
	}

	if err := e.CreateMessage(discord.MessageCreate{
		Content:    "Choose roles for notifications!",
		Components: view.Build(),
	}); err != nil {
		return err
	}
	message, err := client.GetInteractionResponse(applicationID, token)
	if err != nil {
		return fmt.Errorf("get roles message: %w", err)
	}
	return view.Start(message.ID)
}

// OnRoleToggle adds or removes the role named by a roles:<id> button.
func (h *Handler) OnRoleToggle(_ context.Context, e *interactions.ComponentInteractionCreate) error {
	roleID, ok := parseRoleCustomID(e.Interaction.CustomID)
	if !ok {
		return nil
	}
	guildID := e.Interaction.GuildID
	if guildID == nil || e.Interaction.Member == nil {
		return e.Context.RespondContent("Roles can only be changed in a server.", true)
	}
	if roleID == *guildID {
		return e.Context.RespondContent("This role is not a valid class!", true)
	}

	client := e.App().Rest()
	userID := e.Interaction.User.ID
	if e.Interaction.HasRole(roleID) {
		if err := client.RemoveMemberRole(*guildID, userID, roleID); err != nil {
			return fmt.Errorf("remove role %s: %w", roleID, err)
		}
		return e.Context.RespondContent(fmt.Sprintf("Removed <@&%s>.", roleID), true)
	}
	if err := client.AddMemberRole(*guildID, userID, roleID); err != nil {
		return fmt.Errorf("add role %s: %w", roleID, err)
	}
	return e.Context.RespondContent(fmt.Sprintf("Added <@&%s>.", roleID), true)
}

// Subscribe registers the handler's component listeners on the loaded manager.
func (h *Handler) Subscribe() {
	h.Bot.Interactions.Subscribe(interactions.EventTypeComponentInteraction, interactions.NewListenerFunc(h.OnRoleToggle))
}
