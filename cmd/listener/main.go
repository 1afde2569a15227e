package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"BankSentinel/internal/cache"
	"BankSentinel/internal/config"
	"BankSentinel/internal/dispatch"
	"BankSentinel/internal/notifier"
	"BankSentinel/internal/queue"
	"BankSentinel/internal/rules"
	"BankSentinel/internal/scheduler"
	"BankSentinel/internal/server"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("[INFO] BankSentinel starting...")

	// Load config
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

	// The cache and the pending queue share one database file. Both are
	// hard requirements: without the queue the persist-first guarantee is
	// gone, so failing to open it is fatal rather than degraded.
	ruleCache, err := cache.NewSQLiteCache(cfg.Database.SQLitePath)
	if err != nil {
		log.Fatalf("[FATAL] init rule cache: %v", err)
	}
	defer ruleCache.Close()

	pendingQueue, err := queue.NewSQLiteQueue(cfg.Database.SQLitePath)
	if err != nil {
		log.Fatalf("[FATAL] init pending queue: %v", err)
	}
	defer pendingQueue.Close()

	// Rule manager: cached rules first (instant), fresh fetch in background.
	source := rules.NewHTTPSource(cfg.Rules.URL)
	manager := rules.NewManager(source, ruleCache, cfg.RefreshEvery)

	loaded, err := manager.LoadCached()
	if err != nil {
		log.Printf("[WARN] load cached rules: %v", err)
	}

	// Context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Periodic refresh
	sched := scheduler.NewScheduler(ctx, manager)
	if err := sched.Register(cfg.RefreshEvery); err != nil {
		log.Fatalf("[FATAL] register refresh task: %v", err)
	}
	sched.Start()
	defer sched.Stop()

	if !loaded || manager.ShouldRefresh(time.Now()) {
		log.Println("[INFO] cached rules missing or stale, refreshing now")
		go sched.RunNow()
	}

	// Live listener is optional; the pending queue alone still satisfies
	// the delivery contract.
	var live dispatch.LiveSink
	if cfg.Listener.WebhookURL != "" {
		live = notifier.NewWebhookNotifier(cfg.Listener.WebhookURL)
		log.Printf("[INFO] live listener attached: %s", cfg.Listener.WebhookURL)
	} else {
		log.Println("[INFO] no live listener configured, records queue only")
	}
	dispatcher := dispatch.New(pendingQueue, live)

	// HTTP boundary
	srv := server.New(manager, dispatcher, pendingQueue)
	httpServer := &http.Server{
		Addr:    cfg.Server.ListenAddr,
		Handler: srv.Router(),
	}
	go func() {
		log.Printf("[INFO] listening on %s", cfg.Server.ListenAddr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("[FATAL] http server: %v", err)
		}
	}()

	log.Println("[INFO] BankSentinel is running. Press Ctrl+C to stop.")

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Println("[INFO] shutdown signal received, stopping...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("[WARN] http shutdown: %v", err)
	}

	log.Println("[INFO] BankSentinel stopped")
}
