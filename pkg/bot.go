package pkg

import (
	"kasugai-bot/pkg/config"
	"kasugai-bot/pkg/db"
	"kasugai-bot/pkg/interactions"
	"kasugai-bot/pkg/reminder"
)

type Bot struct {
	Config       config.Bot
	DB           *db.DB
	Interactions *interactions.Manager
	Reminders    *reminder.Scheduler
}
