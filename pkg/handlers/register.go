package handlers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"kasugai-bot/pkg/config"
	"kasugai-bot/pkg/db"
	"kasugai-bot/pkg/interactions"
	"kasugai-bot/pkg/reminder"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/handler"
	"github.com/disgoorg/snowflake/v2"
	"github.com/lmittmann/tint"
)

// invalidInputError is shown to the user as is.
type invalidInputError struct {
	msg string
}

func (e *invalidInputError) Error() string {
	return e.msg
}

var (
	errNotAssigned = &invalidInputError{"You are not assigned to this class! Check if you are assigned to the class and try the command again."}
	errNotAClass   = &invalidInputError{"This role is not a valid class!"}
	errInvalidDate = &invalidInputError{"Invalid Date format! **FORMAT: MM/DD/YYYY (example: 03/25/2022)**"}
	errInvalidTime = &invalidInputError{"Invalid time format! **FORMAT: H:MM AM/PM (example: 11:59 PM)**"}
)

type registration struct {
	Section    discord.Role
	Assignment string
	RawDate    string
	RawTime    string
	DueDate    time.Time
	DueTime    time.Time
}

func parseRegistration(guildID snowflake.ID, memberRoles []snowflake.ID, section discord.Role, assignment, dueDate, dueTime string) (registration, error) {
	// the @everyone role shares the guild id and is never in the member's role list
	if section.ID == guildID {
		return registration{}, errNotAClass
	}
	if !slices.Contains(memberRoles, section.ID) {
		return registration{}, errNotAssigned
	}
	date, err := time.ParseInLocation(config.DateLayout, strings.TrimSpace(dueDate), time.Local)
	if err != nil {
		return registration{}, errInvalidDate
	}
	clock, err := time.Parse(config.TimeLayout, strings.ToUpper(strings.TrimSpace(dueTime)))
	if err != nil {
		return registration{}, errInvalidTime
	}
	return registration{
		Section:    section,
		Assignment: assignment,
		RawDate:    dueDate,
		RawTime:    dueTime,
		DueDate:    date,
		DueTime:    clock,
	}, nil
}

func (r registration) noted() string {
	return fmt.Sprintf("Noted, %s is due on %s for %s", r.Assignment, r.RawDate, r.Section.Name)
}

func (r registration) reminder() string {
	return fmt.Sprintf("Remember, %s is due on %s %s for %s!", r.Assignment, r.RawDate, r.RawTime, r.Section.Name)
}

// reminderCount is the number of whole days left until due, plus one. It is
// zero or less for dates already past.
func reminderCount(due time.Time, now time.Time) int {
	left := due.Sub(now)
	days := int(left / (24 * time.Hour))
	if left < 0 && left%(24*time.Hour) != 0 {
		days--
	}
	return days + 1
}

func (h *Handler) HandleRegister(data discord.SlashCommandInteractionData, e *handler.CommandEvent) error {
	guildID := e.GuildID()
	member := e.Member()
	if guildID == nil || member == nil {
		return e.CreateMessage(ephemeral(guildOnly))
	}
	reply, err := h.register(*guildID, member.Member, data.Role("section"),
		data.String("assignment"), data.String("duedate"), data.String("time"))
	if err != nil {
		return err
	}
	return e.CreateMessage(ephemeral(reply))
}

// HandleRegisterForm asks for the assignment in a modal instead of command options.
func (h *Handler) HandleRegisterForm(data discord.SlashCommandInteractionData, e *handler.CommandEvent) error {
	guildID := e.GuildID()
	member := e.Member()
	if guildID == nil || member == nil {
		return e.CreateMessage(ephemeral(guildOnly))
	}
	section := data.Role("section")
	userID := member.User.ID

	modal := interactions.NewModal(h.Bot.Interactions, "Register an assignment",
		func(_ context.Context, c *interactions.ModalContext) error {
			reply, err := h.register(*guildID, member.Member, section,
				c.Value(formAssignmentID), c.Value(formDueDateID), c.Value(formTimeID))
			if err != nil {
				return err
			}
			return c.RespondContent(reply, true)
		},
		interactions.WithModalCheck(func(c *interactions.ModalContext) bool {
			return c.User().ID == userID
		}),
	)
	for _, input := range registerFormInputs() {
		if err := modal.AddTextInput(input); err != nil {
			return err
		}
	}
	if err := modal.Start(); err != nil {
		return err
	}
	if err := e.Modal(modal.Build()); err != nil {
		modal.Stop()
		return err
	}
	return nil
}

const (
	formAssignmentID = "assignment"
	formDueDateID    = "duedate"
	formTimeID       = "time"
)

func registerFormInputs() []*interactions.TextInput {
	return []*interactions.TextInput{
		{CustomID: formAssignmentID, Label: "Assignment", Required: true, MaxLength: 100},
		{CustomID: formDueDateID, Label: "Due date", Description: "MM/DD/YYYY", Placeholder: "03/24/2022", Required: true, MinLength: 8, MaxLength: 10},
		{CustomID: formTimeID, Label: "Time", Description: "H:MM AM/PM", Placeholder: "11:59 PM", Required: true, MaxLength: 8},
	}
}

// register validates and stores one assignment, schedules its reminder and
// returns the reply for the user. Only unexpected failures are returned as errors.
func (h *Handler) register(guildID snowflake.ID, member discord.Member, section discord.Role, assignmentName, dueDate, dueTime string) (string, error) {
	reg, err := parseRegistration(guildID, member.RoleIDs, section, assignmentName, dueDate, dueTime)
	if err != nil {
		var invalid *invalidInputError
		if errors.As(err, &invalid) {
			return invalid.Error(), nil
		}
		return "", err
	}

	assignment := db.Assignment{
		GuildID:    guildID,
		UserID:     member.User.ID,
		Username:   member.User.Username,
		Section:    reg.Section.Name,
		SectionID:  reg.Section.ID,
		Assignment: reg.Assignment,
		DueDate:    reg.DueDate,
		Time:       db.TimeOfDay(reg.DueTime),
	}
	if err := h.Bot.DB.InsertAssignment(context.Background(), assignment); err != nil {
		slog.Error("kasugai: error while saving an assignment",
			slog.Any("guild.id", guildID),
			slog.Any("user.id", member.User.ID),
			tint.Err(err))
		return "There was an error while saving the assignment.", nil
	}

	if count := reminderCount(reg.DueDate, time.Now()); count > 0 {
		if _, err := h.Bot.Reminders.Schedule(reminder.Reminder{
			UserID:  member.User.ID,
			Content: reg.reminder(),
			Count:   count,
		}); err != nil {
			slog.Error("kasugai: error while scheduling a reminder", slog.Any("user.id", member.User.ID), tint.Err(err))
		}
	}
	return reg.noted(), nil
}

// SendReminder delivers one reminder run as a direct message.
func (h *Handler) SendReminder(_ context.Context, r reminder.Reminder) error {
	app, ok := h.Bot.Interactions.App()
	if !ok {
		return errors.New("reminder: bot is not running")
	}
	rest := app.Rest()
	channel, err := rest.CreateDMChannel(r.UserID)
	if err != nil {
		return fmt.Errorf("open dm channel: %w", err)
	}
	_, err = rest.CreateMessage(channel.ID(), discord.NewMessageCreate().WithContent(r.Content))
	return err
}
