package cli

import (
	"fmt"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gopkg.in/telebot.v3"

	"reply_reminder_bot/internal/app"
	"reply_reminder_bot/internal/domain/chat"
	"reply_reminder_bot/internal/domain/journal"
	"reply_reminder_bot/internal/domain/proxy"
	"reply_reminder_bot/internal/infra/config"
	idb "reply_reminder_bot/internal/infra/database"
	"reply_reminder_bot/internal/infra/discord"
	"reply_reminder_bot/internal/infra/httpapi"
	"reply_reminder_bot/internal/infra/logger"
	"reply_reminder_bot/internal/infra/memory"
	"reply_reminder_bot/internal/infra/pluralkit"
	"reply_reminder_bot/internal/infra/scheduler"
	"reply_reminder_bot/internal/infra/telegram"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Connect to the chat platform and start reminding",
	RunE:  runBot,
}

func runBot(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("could not load application configuration: %w", err)
	}
	logger.Init(cfg)
	mainLogger := logger.Component("main")
	mainLogger.WithFields(logrus.Fields{
		"platform":    cfg.Platform,
		"guild_id":    cfg.GuildID,
		"channels":    len(cfg.ChannelIDs),
		"environment": cfg.Environment,
	}).Info("Reply reminder bot starting...")

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Journal is optional; a nil repository keeps it off everywhere.
	var (
		journalRepo journal.Repository
		pruner      scheduler.JournalPruner
	)
	if cfg.DatabaseURL != "" {
		db, err := idb.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("could not open journal database: %w", err)
		}
		defer db.Close()
		repo := idb.NewJournalRepository(db)
		journalRepo, pruner = repo, repo
		mainLogger.WithField("driver", db.Driver).Info("Reminder journal enabled")
	}

	store := memory.NewReminderRepository()
	policy := app.Policy{
		GuildID:            cfg.GuildID,
		ChannelIDs:         cfg.ChannelIDs,
		TargetUserID:       cfg.TargetUserID,
		RelayApplicationID: cfg.RelayApplicationID,
		SelfReminderDelay:  cfg.SelfReminderDelay,
		OtherReminderDelay: cfg.OtherReminderDelay,
		SendDM:             cfg.SendDM,
	}

	var resolver proxy.Resolver
	if cfg.Platform == config.PlatformDiscord {
		resolver = pluralkit.NewResolver(pluralkit.ClientOptions{
			BaseURL:   cfg.PluralKitAPIURL,
			UserAgent: "reply_reminder_bot/" + Version,
		}, cfg.ProxyCacheTTL)
		if cached, ok := resolver.(*pluralkit.CachingResolver); ok {
			defer cached.Stop()
		}
	}
	reminderService := app.NewReminderService(store, resolver, journalRepo, policy, logger.Component("reminders"))

	var deliverer chat.Deliverer
	switch cfg.Platform {
	case config.PlatformDiscord:
		session, err := discord.NewSession(cfg.DiscordToken)
		if err != nil {
			return err
		}
		deliverer = discord.NewDeliverer(session)
		commandService := app.NewCommandService(store, deliverer, journalRepo, cfg.SnoozeDelay, logger.Component("commands"))

		gw := discord.NewGateway(ctx, session, reminderService, commandService, cfg.RelayApplicationID, logger.Component("discord"))
		if err := gw.Open(); err != nil {
			return err
		}
		defer gw.Close()

	case config.PlatformTelegram:
		telegramLogger := logger.Component("telegram")
		bot, err := telebot.NewBot(telebot.Settings{
			Token:  cfg.TelegramToken,
			Poller: &telebot.LongPoller{Timeout: 10 * time.Second},
			OnError: func(err error, c telebot.Context) { // Global error handler
				entry := telegramLogger.WithError(err)
				if c != nil && c.Sender() != nil && c.Chat() != nil {
					entry = entry.WithFields(logrus.Fields{"sender_id": c.Sender().ID, "chat_id": c.Chat().ID})
				}
				entry.Error("Telegram handler failed")
			},
		})
		if err != nil {
			return fmt.Errorf("could not create Telegram bot: %w", err)
		}
		reminderService.SetSelfUserID(strconv.FormatInt(bot.Me.ID, 10))

		deliverer = telegram.NewTelebotAdapter(bot)
		commandService := app.NewCommandService(store, deliverer, journalRepo, cfg.SnoozeDelay, logger.Component("commands"))
		telegram.NewHandlers(ctx, reminderService, commandService, reminderService, telegramLogger).Register(bot)

		go bot.Start()
		defer bot.Stop()
	}

	if cfg.StatusAddr != "" {
		status := httpapi.New(reminderService, journalRepo, VersionString(), logger.Component("httpapi"))
		go func() {
			if err := status.Run(ctx, cfg.StatusAddr); err != nil {
				mainLogger.WithError(err).Error("Status API stopped")
			}
		}()
	}

	dispatcher := app.NewDispatcher(store, deliverer, journalRepo, logger.Component("dispatcher"))
	sched := scheduler.NewReminderScheduler(dispatcher, reminderService, pruner, logger.Component("scheduler"), scheduler.Options{
		DispatchInterval:     cfg.DispatchInterval,
		CronSpecSummary:      cfg.CronSpecSummary,
		CronSpecJournalPrune: cfg.CronSpecJournalPrune,
		JournalRetention:     cfg.JournalRetention,
	})

	mainLogger.Info("Application setup complete. Dispatch loop is starting...")
	if err := sched.Run(ctx); err != nil {
		return fmt.Errorf("dispatch loop failed: %w", err)
	}
	mainLogger.Info("Application shut down gracefully.")
	return nil
}
