package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/jasonb194/MAMManager/internal/config"
	"github.com/jasonb194/MAMManager/internal/mam"
	"github.com/jasonb194/MAMManager/internal/model"
	"github.com/jasonb194/MAMManager/internal/notifier"
	"github.com/jasonb194/MAMManager/internal/recorder"
	"github.com/jasonb194/MAMManager/internal/scheduler"
	"github.com/jasonb194/MAMManager/internal/state"
	"github.com/jasonb194/MAMManager/internal/status"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("[INFO] MAMManager starting...")

	// Optional .env file, then config with env overrides
	_ = godotenv.Load()
	cfgPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgPath = v
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("[FATAL] load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("[FATAL] config validation: %v", err)
	}

	// Init persisted state (credential, run dates, toggles)
	store, err := state.NewStore(cfg.State.File, cfg.MAM.SessionCookie, model.Toggles{
		DonateVault: cfg.Automation.DonateVault,
		BuyVIP:      cfg.Automation.BuyVIP,
		BuyCredit:   cfg.Automation.BuyCredit,
	})
	if err != nil {
		log.Fatalf("[FATAL] init state store: %v", err)
	}

	// Init MAM client and status fetcher
	client := mam.NewClient(cfg.MAM.BaseURL, cfg.MAM.UserID, cfg.MAM.DonateAmount, store, cfg.Proxy)
	fetcher := status.NewFetcher(client)

	// Init Telegram notifier (optional)
	var tn *notifier.TelegramNotifier
	if cfg.Telegram.BotToken != "" && cfg.Telegram.ChatID != "" {
		tn = notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy)
	}

	// Init recorder
	var rec recorder.Recorder
	if cfg.Database.SQLitePath != "" {
		sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath)
		if err != nil {
			log.Printf("[WARN] init sqlite recorder failed, using noop: %v", err)
			rec = recorder.NewNoopRecorder()
		} else {
			rec = sr
			defer sr.Close()
		}
	} else {
		rec = recorder.NewNoopRecorder()
	}

	// Context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Init scheduler
	sched := scheduler.NewScheduler(ctx, fetcher, store, client, tn, rec)
	if err := sched.RegisterAll(cfg.Schedule.DailyCron, cfg.Schedule.PollCron); err != nil {
		log.Fatalf("[FATAL] register cron tasks: %v", err)
	}
	sched.Start()
	defer sched.Stop()

	// Start Telegram command polling
	if tn != nil {
		go tn.StartPolling(ctx, sched.HandleCommand)
		log.Println("[INFO] Telegram polling started")
	}

	// Initial refresh plus catch-up in case we're past the trigger time
	// and today's cycle hasn't run yet.
	go func() {
		if _, err := sched.RefreshNow(); err != nil {
			log.Printf("[WARN] initial refresh: %v", err)
		}
		sched.RunCycleIfDue()
	}()

	log.Println("[INFO] MAMManager is running. Press Ctrl+C to stop.")

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Println("[INFO] shutdown signal received, stopping...")
	cancel()
	log.Println("[INFO] MAMManager stopped")
}
