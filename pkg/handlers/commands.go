package handlers

import (
	"log/slog"

	"kasugai-bot/pkg"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/handler"
	"github.com/lmittmann/tint"
)

// Commands are the application commands served by NewHandler.
var Commands = []discord.ApplicationCommandCreate{
	discord.SlashCommandCreate{
		Name:        "register",
		Description: "Set up a notification for an upcoming assignment.",
		Options: []discord.ApplicationCommandOption{
			discord.ApplicationCommandOptionRole{
				Name:        "section",
				Description: "Class assignment is from (example: @comp380)",
				Required:    true,
			},
			discord.ApplicationCommandOptionString{
				Name:        "assignment",
				Description: "Assignment name",
				Required:    true,
			},
			discord.ApplicationCommandOptionString{
				Name:        "duedate",
				Description: "Date the assignment is due. FORMAT: MM/DD/YYYY (example: 03/24/2022)",
				Required:    true,
			},
			discord.ApplicationCommandOptionString{
				Name:        "time",
				Description: "Time the assignment is due. FORMAT: H:MM AM/PM (example: 11:59 PM)",
				Required:    true,
			},
		},
	},
	discord.SlashCommandCreate{
		Name:        "registerform",
		Description: "Set up a notification for an upcoming assignment using a form.",
		Options: []discord.ApplicationCommandOption{
			discord.ApplicationCommandOptionRole{
				Name:        "section",
				Description: "Class assignment is from (example: @comp380)",
				Required:    true,
			},
		},
	},
	discord.SlashCommandCreate{
		Name:        "whatsdue",
		Description: "A list of your assignments that are due",
	},
	discord.SlashCommandCreate{
		Name:        "roles",
		Description: "Assign or remove yourself to roles",
	},
}

func NewHandler(b *pkg.Bot) *Handler {
	mux := handler.New()
	mux.Error(func(e *handler.InteractionEvent, err error) {
		attrs := []any{tint.Err(err)}
		if i, ok := e.Interaction.(discord.ApplicationCommandInteraction); ok {
			attrs = append(attrs, slog.String("command.name", i.Data.CommandName()))
		}
		slog.Error("kasugai: error while handling a command", attrs...)
		_ = e.Respond(discord.InteractionResponseTypeCreateMessage, discord.NewMessageCreate().
			WithContentf("There was an error while handling the command: %v", err).
			WithEphemeral(true))
	})
	// components and modals are answered by the interactions manager
	mux.NotFound(func(*handler.InteractionEvent) error {
		return nil
	})
	handlers := &Handler{
		Bot:    b,
		Router: mux,
	}
	handlers.Group(func(r handler.Router) {
		r.SlashCommand("/register", handlers.HandleRegister)
		r.SlashCommand("/registerform", handlers.HandleRegisterForm)
		r.Command("/whatsdue", handlers.HandleWhatsDue)
		r.Command("/roles", handlers.HandleRoles)
	})
	return handlers
}

type Handler struct {
	Bot *pkg.Bot
	handler.Router
}

const guildOnly = "This command can only be used in a server."

func ephemeral(content string) discord.MessageCreate {
	return discord.NewMessageCreate().WithContent(content).WithEphemeral(true)
}
