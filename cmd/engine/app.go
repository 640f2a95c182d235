package main

import (
	"fmt"
	"time"

	appService "reminderengine/internal/application/service"
	"reminderengine/internal/infrastructure/database/sqlite"
	"reminderengine/internal/infrastructure/launcher"
	lineClient "reminderengine/internal/infrastructure/line"
	"reminderengine/internal/infrastructure/rpc"
	"reminderengine/internal/infrastructure/scheduler"
	"reminderengine/internal/pkg/config"
	appLogger "reminderengine/internal/pkg/logger"
	"reminderengine/internal/pkg/metrics"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"gorm.io/gorm"
)

// app holds every wired component of the engine.
type app struct {
	cfg      *config.Config
	log      appLogger.Logger
	db       *gorm.DB
	registry *prometheus.Registry
	cron     *scheduler.Scheduler
	line     *lineClient.Client
	notifier *rpc.Notifier

	recipients appService.RecipientService
	alarms     appService.AlarmScheduler
	bridge     appService.Bridge
	runner     appService.DeferredWorkRunner
	dispatcher appService.ActionDispatcher
	commands   appService.BridgeCommands
	boot       appService.BootReceiver
}

// newApp opens the database and wires the services.
func newApp(cfg *config.Config, log appLogger.Logger) (*app, error) {
	db, err := sqlite.NewDB(cfg.DBURL, cfg.SQLDebug)
	if err != nil {
		return nil, err
	}
	itemStore := sqlite.NewItemStore(db)
	flagRepo := sqlite.NewFlagRepository(db)
	jobRepo := sqlite.NewJobRepository(db)
	recipientRepo := sqlite.NewRecipientRepository(db)
	log.Info("Database and repositories initialized.")

	a := &app{cfg: cfg, log: log, db: db, registry: prometheus.NewRegistry()}
	a.registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(a.registry)

	if cfg.LineEnabled() {
		if a.line, err = lineClient.NewClient(cfg.ChannelSecret, cfg.ChannelAccessToken, cfg.LineEndpointBase, log); err != nil {
			_ = sqlite.CloseDB(db)
			return nil, err
		}
	} else {
		log.Warn("CHANNEL_SECRET or CHANNEL_ACCESS_TOKEN not set, alerts are only logged")
	}
	shade := lineClient.NewShade(a.line, recipientRepo, log)

	var bgLauncher appService.Launcher
	if l := launcher.NewExecLauncher(cfg.AppBackgroundCommand, log); l != nil {
		bgLauncher = l
	}

	a.cron = scheduler.NewScheduler(log)
	a.notifier = rpc.NewNotifier(nil, log)

	registry := appService.NewRegistry(flagRepo, log)
	presenter := appService.NewNotificationPresenter(shade, log)
	fired := appService.NewFiredReminderHandler(registry, presenter, m, log)
	a.alarms = appService.NewAlarmScheduler(a.cron, fired, cfg.HandlerTimeout, log)
	a.bridge = appService.NewBridge(a.notifier, m, log)
	a.notifier.SetOnEmpty(a.bridge.Detach)
	a.runner = appService.NewDeferredWorkRunner(
		jobRepo,
		itemStore,
		registry,
		a.alarms,
		a.bridge,
		bgLauncher,
		appService.RetryPolicy{Base: cfg.JobRetryBase, Max: cfg.JobRetryMax},
		time.Now,
		m,
		log,
	)
	a.dispatcher = appService.NewActionDispatcher(itemStore, registry, presenter, a.alarms, a.runner, a.bridge, a.runner, cfg.SnoozeDelay, time.Now, m, log)
	a.commands = appService.NewBridgeCommands(a.alarms, presenter, registry, a.bridge, log)
	a.boot = appService.NewBootReceiver(a.runner, log)
	a.recipients = appService.NewRecipientService(recipientRepo, log)
	log.Info("Application services initialized.")
	return a, nil
}

// close stops the scheduler and closes the database.
func (a *app) close() {
	a.log.Info("Stopping scheduler...")
	a.cron.Stop()
	a.log.Info("Closing database connection...")
	if err := sqlite.CloseDB(a.db); err != nil {
		a.log.Error("Error closing database", err)
	}
}

// loadConfig reads the configuration and builds the logger it asks for.
func loadConfig() (*config.Config, appLogger.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	log := appLogger.New(appLogger.ParseLevel(cfg.LogLevel))
	log.Info("Logger initialized.")
	return cfg, log, nil
}
