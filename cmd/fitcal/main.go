package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"fitcal/internal/config"
	appLog "fitcal/internal/log"
	"fitcal/internal/notify"
	"fitcal/internal/store"
	"fitcal/internal/water"
	"fitcal/internal/web"
)

func main() {
	configPath := flag.String("config", "/etc/fitcal/config.yaml", "path to the YAML configuration file")
	listen := flag.String("listen", "", "override the HTTP listen address")
	debug := flag.Bool("debug", false, "force debug logging")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		appLog.Error("failed to load config", err, "path", *configPath)
		os.Exit(1)
	}
	if *listen != "" {
		cfg.Listen = *listen
	}
	if *debug {
		cfg.LogLevel = "debug"
	}
	appLog.SetLevel(cfg.LogLevel)

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		appLog.Warn("unknown timezone, falling back to system local", "timezone", cfg.Timezone)
		loc = time.Local
	}

	st, err := store.Open(cfg.DataDir, loc)
	if err != nil {
		appLog.Error("failed to open store", err, "data_dir", cfg.DataDir)
		os.Exit(1)
	}
	defer st.Close()

	var sink notify.Sink = notify.LogSink{}
	if cfg.Notify.Command != "" {
		sink = notify.NewCommandSink(cfg.Notify.Command, cfg.Notify.Args)
		appLog.Info("notifications delivered via command", "command", cfg.Notify.Command)
	}
	dispatcher := notify.NewDispatcher(sink, loc)
	defer dispatcher.Stop()

	recon := notify.NewReconciler(dispatcher)

	// Trigger state lives in memory, so every start reinstalls the
	// reminders for all stored items.
	items, err := st.ListItems()
	if err != nil {
		appLog.Error("failed to list items at startup", err)
		os.Exit(1)
	}
	for _, it := range items {
		if err := recon.Sync(it); err != nil {
			appLog.Error("failed to install reminders", err, "item_id", it.ID)
		}
	}
	appLog.Info("reminders installed", "items", len(items))

	tracker := water.NewTracker(st, dispatcher, loc, cfg.Water.DefaultGoalMl)
	if err := tracker.SyncReminders(cfg.Water.Reminders); err != nil {
		appLog.Error("failed to install water reminders", err)
	}

	aiClient := newAIClient(cfg)

	srv := web.NewServer(cfg, *configPath, st, recon, tracker, aiClient, loc, *debug)
	httpServer := &http.Server{
		Addr:              cfg.Listen,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		appLog.Info("HTTP server listening", "listen", "http://"+cfg.Listen)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLog.Error("HTTP server stopped", err)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	sig := <-stop
	appLog.Info("shutting down", "signal", sig.String())

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		appLog.Error("HTTP shutdown failed", err)
	}
}
