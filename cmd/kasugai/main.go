package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"kasugai-bot/pkg"
	"kasugai-bot/pkg/config"
	"kasugai-bot/pkg/db"
	"kasugai-bot/pkg/handlers"
	"kasugai-bot/pkg/interactions"
	"kasugai-bot/pkg/reminder"

	"github.com/disgoorg/disgo"
	"github.com/disgoorg/disgo/bot"
	"github.com/disgoorg/disgo/cache"
	"github.com/disgoorg/disgo/gateway"
	"github.com/disgoorg/disgo/handler"
	"github.com/getsentry/sentry-go"
	sentryslog "github.com/getsentry/sentry-go/slog"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lmittmann/tint"
	slogmulti "github.com/samber/slog-multi"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		slog.Error("kasugai: fatal error", tint.Err(err))
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var syncCommands bool
	root := &cobra.Command{
		Use:           "kasugai",
		Short:         "Discord bot for class assignment reminders",
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("sync-commands") {
				cfg.SyncCommands = syncCommands
			}
			return run(cmd.Context(), cfg)
		},
	}
	root.Flags().BoolVar(&syncCommands, "sync-commands", false, "sync application commands before connecting")
	root.AddCommand(newSyncCmd())
	return root
}

func newSyncCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Sync application commands and exit",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			setupLogger(cmd.Context(), cfg)
			client, err := disgo.New(cfg.Token)
			if err != nil {
				return err
			}
			defer client.Close(context.TODO())
			if err := handler.SyncCommands(client, handlers.Commands, nil); err != nil {
				return fmt.Errorf("sync commands: %w", err)
			}
			slog.Info("kasugai: commands synced", slog.Int("count", len(handlers.Commands)))
			return nil
		},
	}
}

func setupLogger(ctx context.Context, cfg config.Bot) {
	logger := slog.New(slogmulti.Fanout(
		tint.NewHandler(os.Stdout, &tint.Options{
			Level: cfg.LogLevel,
		}),
		sentryslog.Option{
			EventLevel: []slog.Level{slog.LevelWarn, slog.LevelError},
			LogLevel:   []slog.Level{},
		}.NewSentryHandler(ctx)))
	slog.SetDefault(logger)
}

func run(ctx context.Context, cfg config.Bot) error {
	err := sentry.Init(sentry.ClientOptions{
		Dsn:           cfg.SentryDSN,
		Environment:   string(cfg.Environment),
		EnableTracing: false,
		BeforeSend: func(event *sentry.Event, hint *sentry.EventHint) *sentry.Event {
			if cfg.Production() { // only report events in prod
				return event
			}
			return nil
		},
	})
	if err != nil {
		return fmt.Errorf("init sentry: %w", err)
	}
	defer sentry.Flush(2 * time.Second)

	setupLogger(ctx, cfg)
	slog.Info("starting the bot...", slog.String("disgo.version", disgo.Version))

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer pool.Close()

	manager := interactions.New(
		interactions.WithLogger(slog.Default()),
		interactions.WithQueueSize(cfg.QueueSize),
		interactions.WithErrorHandler(replyWithError))
	b := &pkg.Bot{
		Config:       cfg,
		DB:           db.NewDB(pool),
		Interactions: manager,
	}
	h := handlers.NewHandler(b)
	b.Reminders = reminder.New(cfg.ReminderInterval, h.SendReminder)

	client, err := disgo.New(cfg.Token,
		bot.WithGatewayConfigOpts(gateway.WithIntents(gateway.IntentGuilds),
			gateway.WithPresenceOpts(gateway.WithWatchingActivity("assignments due"))),
		bot.WithCacheConfigOpts(cache.WithCaches(cache.FlagGuilds, cache.FlagRoles)),
		bot.WithEventListeners(h))
	if err != nil {
		return fmt.Errorf("create client: %w", err)
	}
	defer client.Close(context.TODO())

	if err := manager.Load(interactions.NewApp(client)); err != nil {
		return err
	}
	defer func() {
		if err := manager.Unload(); err != nil {
			slog.Error("kasugai: error while unloading interactions", tint.Err(err))
		}
	}()
	h.Subscribe()

	if cfg.SyncCommands {
		if err := handler.SyncCommands(client, handlers.Commands, nil); err != nil {
			slog.Error("kasugai: error while syncing commands", tint.Err(err))
		}
	}

	runCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := client.OpenGateway(runCtx); err != nil {
		return fmt.Errorf("open gateway: %w", err)
	}
	b.Reminders.Start()
	slog.Info("kasugai bot is now running.")

	eg, egCtx := errgroup.WithContext(runCtx)
	eg.Go(func() error {
		<-egCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return b.Reminders.Stop(shutdownCtx)
	})
	eg.Go(func() error {
		<-egCtx.Done()
		idleCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := manager.WaitUntilIdle(idleCtx); err != nil {
			slog.Warn("kasugai: interactions still running at shutdown", tint.Err(err))
		}
		return nil
	})
	return eg.Wait()
}

// replyWithError answers an interaction whose listener failed before responding.
func replyWithError(event interactions.Event, err error) {
	c, ok := interactions.ContextOf(event)
	if !ok || c.Responded() {
		return
	}
	if rerr := c.RespondContent(fmt.Sprintf("There was an error while handling the interaction: %v", err), true); rerr != nil {
		slog.Warn("kasugai: error while reporting a listener error", tint.Err(rerr))
	}
}
