package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/team-progress-api/internal/application/alerting"
	"github.com/team-progress-api/internal/application/notifier"
	"github.com/team-progress-api/internal/application/retention"
	"github.com/team-progress-api/internal/application/tasks"
	"github.com/team-progress-api/internal/config"
	"github.com/team-progress-api/internal/infrastructure/dynamo"
	jwtinfra "github.com/team-progress-api/internal/infrastructure/jwt"
	s3infra "github.com/team-progress-api/internal/infrastructure/s3"
	"github.com/team-progress-api/internal/infrastructure/sns"
	transporthttp "github.com/team-progress-api/internal/transport/http"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, reading from environment")
	}

	cfg := config.Load()

	// Bootstrap DynamoDB tables (creates them if they don't exist).
	dynamoClient := dynamo.NewClient(cfg)
	dynamo.Bootstrap(context.Background(), dynamoClient, cfg.DynamoTables)

	memberRepo := dynamo.NewMemberRepo(dynamoClient, cfg.DynamoTables.Members)
	progressRepo := dynamo.NewProgressRepo(dynamoClient, cfg.DynamoTables.ProgressEvents)
	alertRepo := dynamo.NewAlertRepo(dynamoClient, cfg.DynamoTables.Alerts)
	logRepo := dynamo.NewLogRepo(dynamoClient, cfg.DynamoTables.NotificationLogs)

	// JWT provider is optional; auth routes stay open if keys are missing.
	var jwtProvider *jwtinfra.Provider
	if p, err := jwtinfra.NewProvider(cfg); err == nil {
		jwtProvider = p
	} else {
		log.Printf("WARN: JWT provider not available: %v", err)
	}

	// S3 store for cultural symbol images.
	s3Client := s3infra.NewClient(cfg)
	s3Store := s3infra.NewStore(s3Client, cfg.S3BucketName)

	// SNS push sender.
	pushSender, err := sns.NewSender(cfg)
	if err != nil {
		log.Fatalf("SNS sender: %v", err)
	}

	dispatcher := notifier.NewService(pushSender)
	alertSvc := alerting.NewService(alertRepo)
	cleaner := retention.NewCleaner(alertRepo, logRepo)

	orchestrator := tasks.NewOrchestrator(tasks.Deps{
		Members:    memberRepo,
		Progress:   progressRepo,
		Logs:       logRepo,
		Dispatcher: dispatcher,
		Alerts:     alertSvc,
		Cleaner:    cleaner,
	}, tasks.Config{
		ReminderCron:     cfg.ReminderCron,
		VerificationCron: cfg.VerificationCron,
		AlertSweepCron:   cfg.AlertSweepCron,
		CleanupCron:      cfg.CleanupCron,
		Retention:        time.Duration(cfg.RetentionDays) * 24 * time.Hour,
	})
	if err := orchestrator.Start(); err != nil {
		log.Fatalf("scheduler: %v", err)
	}

	deps := &transporthttp.Deps{
		MemberRepo:   memberRepo,
		ProgressRepo: progressRepo,
		S3Store:      s3Store,
		Dispatcher:   dispatcher,
		AlertSvc:     alertSvc,
		Orchestrator: orchestrator,
		JWTProvider:  jwtProvider,
	}

	router := transporthttp.NewRouter(cfg, deps)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.AppPort),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Server starting on :%s (env=%s)", cfg.AppPort, cfg.AppEnv)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")
	orchestrator.Stop()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("forced shutdown: %v", err)
	}
	log.Println("Server stopped")
}
