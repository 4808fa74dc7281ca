package main

import (
	"context"
	"errors"
	"log"
	"os/signal"
	"syscall"

	"github.com/oyasudev/oyasify/internal/admin"
	"github.com/oyasudev/oyasify/internal/app"
	"github.com/oyasudev/oyasify/internal/config"
	"github.com/oyasudev/oyasify/internal/database"
	"github.com/oyasudev/oyasify/internal/notify"
	"github.com/oyasudev/oyasify/internal/repository"
	"github.com/oyasudev/oyasify/internal/service"
	"github.com/oyasudev/oyasify/internal/session"
	"github.com/oyasudev/oyasify/internal/storage"
	"github.com/oyasudev/oyasify/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logr := logger.New()

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("database connect: %v", err)
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := database.Migrate(ctx, db); err != nil {
		log.Fatalf("database migrate: %v", err)
	}

	repos := app.Repositories{
		Accounts:        repository.NewAccountRepository(db),
		Payments:        repository.NewPaymentRepository(db),
		ProductRequests: repository.NewProductRequestRepository(db),
	}
	sessionRepo := repository.NewSessionRepository(db)

	sessions := session.NewManager(logr, repos.Accounts, sessionRepo, cfg.SweepInterval)
	if err := sessions.Restore(ctx); err != nil {
		log.Fatalf("session restore: %v", err)
	}
	go sessions.Run(ctx)

	var uploader service.AssetUploader
	if cfg.S3Configured() {
		up, err := storage.NewUploader(storage.Config{
			Endpoint:      cfg.S3Endpoint,
			Region:        cfg.S3Region,
			AccessKey:     cfg.S3AccessKey,
			SecretKey:     cfg.S3SecretKey,
			Bucket:        cfg.S3Bucket,
			PublicBaseURL: cfg.S3PublicBaseURL,
			UsePathStyle:  cfg.S3UsePathStyle,
			Prefix:        cfg.S3Prefix,
		})
		if err != nil {
			log.Fatalf("storage uploader: %v", err)
		}
		uploader = up
	}

	var notifier service.OwnerNotifier
	if cfg.NotifyConfigured() {
		tg, err := notify.NewTelegram(cfg.NotifyBotToken, cfg.NotifyChatID, logr)
		if err != nil {
			logr.Error("owner notifier disabled", "err", err)
		} else {
			notifier = tg
		}
	}

	application := app.New(cfg, logr, repos, sessions, uploader, notifier)

	adminServer := admin.NewServer(cfg, logr, repos.Accounts, application.Payments, application.ProductRequests, application.Notifications)
	if err := adminServer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logr.Error("admin server stopped", "err", err)
	}
}
