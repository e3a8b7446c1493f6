package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/crucial707/cloudscan/internal/config"
	"github.com/crucial707/cloudscan/internal/db"
	"github.com/crucial707/cloudscan/internal/notify"
	"github.com/crucial707/cloudscan/internal/scanner"
	"github.com/crucial707/cloudscan/internal/scheduler"
	"github.com/crucial707/cloudscan/internal/store"
)

func main() {

	// Load configuration
	cfg := config.Load()
	setupLogging(cfg)

	if cfg.Env == "prod" && cfg.JWTSecret == "supersecretkey" {
		log.Fatal("JWT_SECRET must be set in prod")
	}

	// Connect to database FIRST
	database, err := db.Connect(
		cfg.DBHost,
		cfg.DBPort,
		cfg.DBName,
		cfg.DBUser,
		cfg.DBPass,
	)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	database.SetMaxOpenConns(cfg.DBMaxOpenConns)
	database.SetMaxIdleConns(cfg.DBMaxIdleConns)

	log.Println("Successfully connected to the database")

	// Apply migrations
	dsn := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
		cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err := db.Run(dsn); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	// Scheduler wiring: store -> executor -> dispatcher -> tick loop
	st := store.New(database)
	executor := scanner.New(st)

	channels := []notify.Channel{notify.NewWebhookSender(), notify.NewSlackSender()}
	if cfg.SMTPHost != "" {
		channels = append(channels,
			notify.NewEmailSender(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass, cfg.SMTPFrom))
	} else {
		slog.Info("SMTP_HOST not set; email notifications disabled")
	}
	dispatcher := notify.NewDispatcher(st, channels...)

	sched := scheduler.New(st, executor, dispatcher, cfg.SchedulerInterval, cfg.SchedulerOpTimeout)
	if err := sched.Start(); err != nil {
		log.Fatalf("Failed to start scheduler: %v", err)
	}

	r := newRouter(database, cfg, sched)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Println("Starting server on :" + cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal(err)
		}
	}()

	// Wait for SIGINT/SIGTERM, then drain: stop accepting requests, finish the
	// in-flight tick, close the pool.
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	slog.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("server shutdown", "error", err)
	}
	sched.Stop()
	database.Close()
}

func setupLogging(cfg config.Config) {
	var handler slog.Handler
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stdout, nil)
	} else {
		handler = slog.NewTextHandler(os.Stdout, nil)
	}
	slog.SetDefault(slog.New(handler))
}
