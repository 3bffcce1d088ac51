package handlers

import (
	"context"
	"fmt"
	"log/slog"

	"kasugai-bot/pkg/config"
	"kasugai-bot/pkg/db"
	"kasugai-bot/pkg/interactions"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/handler"
	"github.com/disgoorg/disgo/rest"
	"github.com/disgoorg/snowflake/v2"
	"github.com/lmittmann/tint"
)

const (
	assignmentsTitle = "Assignments due"
	assignmentsColor = 0x44EA55
	maxEmbedFields   = 25
)

// assignmentPages renders assignments as embeds of at most 25 fields. There is
// always at least one page.
func assignmentPages(assignments []db.Assignment) []discord.Embed {
	var pages []discord.Embed
	for start := 0; start == 0 || start < len(assignments); start += maxEmbedFields {
		end := min(start+maxEmbedFields, len(assignments))
		embed := discord.Embed{
			Title: assignmentsTitle,
			Color: assignmentsColor,
		}
		for _, a := range assignments[start:end] {
			embed.Fields = append(embed.Fields, discord.EmbedField{
				Name: a.Assignment,
				Value: fmt.Sprintf("Class: %s\nDue Date: %s\nTime: %s",
					a.Section, a.DueDate.Format(config.DateLayout), a.DueTime().Format("03:04 PM")),
			})
		}
		pages = append(pages, embed)
	}
	return pages
}

func (h *Handler) HandleWhatsDue(e *handler.CommandEvent) error {
	guildID := e.GuildID()
	if guildID == nil {
		return e.CreateMessage(ephemeral(guildOnly))
	}
	user := e.User()
	assignments, err := h.Bot.DB.GetAssignments(context.Background(), *guildID, user.ID)
	if err != nil {
		slog.Error("kasugai: error while getting assignments", slog.Any("guild.id", *guildID), slog.Any("user.id", user.ID), tint.Err(err))
		return e.CreateMessage(ephemeral("There was an error while getting your assignments."))
	}

	if err := h.sendPages(e.Client().Rest, user.ID, assignmentPages(assignments)); err != nil {
		slog.Warn("kasugai: error while sending assignments", slog.Any("user.id", user.ID), tint.Err(err))
		return e.CreateMessage(ephemeral("I couldn't send you a DM. Check your privacy settings and try again."))
	}
	return e.CreateMessage(ephemeral("Check DM's for assignments due!"))
}

func (h *Handler) sendPages(client rest.Rest, userID snowflake.ID, pages []discord.Embed) error {
	channel, err := client.CreateDMChannel(userID)
	if err != nil {
		return err
	}
	if len(pages) == 1 {
		_, err = client.CreateMessage(channel.ID(), discord.NewMessageCreate().WithEmbeds(pages[0]))
		return err
	}
	navigator, err := interactions.NewNavigator(h.Bot.Interactions, pages)
	if err != nil {
		return err
	}
	_, err = navigator.Send(channel.ID())
	return err
}
