package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cashflow-api/internal/config"
	"github.com/cashflow-api/internal/infrastructure/dynamo"
	jwtinfra "github.com/cashflow-api/internal/infrastructure/jwt"
	"github.com/cashflow-api/internal/infrastructure/postgres"
	s3infra "github.com/cashflow-api/internal/infrastructure/s3"
	"github.com/cashflow-api/internal/infrastructure/smtp"
	"github.com/cashflow-api/internal/infrastructure/sns"
	transporthttp "github.com/cashflow-api/internal/transport/http"
	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, reading from environment")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	ctx := context.Background()

	deps, closeStores, err := openStores(ctx, cfg)
	if err != nil {
		log.Fatalf("store: %v", err)
	}
	defer closeStores()

	jwtProvider, err := jwtinfra.NewProvider(cfg)
	if err != nil {
		log.Fatalf("jwt: %v", err)
	}
	deps.JWTProvider = jwtProvider

	s3Client, err := s3infra.NewClient(ctx, cfg)
	if err != nil {
		log.Fatalf("s3: %v", err)
	}
	deps.ImageStore = s3infra.NewStore(s3Client, cfg.S3BucketName)

	deps.Mailer = smtp.NewMailer(cfg)

	// SMS copies of registration codes are opt-in.
	if cfg.OTPSMSEnabled {
		if sender, err := sns.NewSender(ctx, cfg); err == nil {
			deps.SMSSender = sender
		} else {
			log.Printf("WARN: SNS sender not available: %v", err)
		}
	}

	router, limiter := transporthttp.NewRouter(cfg, deps)
	defer limiter.Stop()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.AppPort),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Server starting on :%s (env=%s, store=%s)", cfg.AppPort, cfg.AppEnv, cfg.StoreDriver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("forced shutdown: %v", err)
		return
	}
	log.Println("Server stopped")
}

// openStores builds the account and bookkeeping repositories for the
// configured driver.
func openStores(ctx context.Context, cfg *config.Config) (*transporthttp.Deps, func(), error) {
	switch cfg.StoreDriver {
	case config.DriverPostgres:
		db, err := postgres.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		if err := postgres.Migrate(db); err != nil {
			_ = db.Close()
			return nil, nil, err
		}
		return &transporthttp.Deps{
			UserRepo:     postgres.NewUserRepo(db),
			SessionRepo:  postgres.NewSessionRepo(db),
			ActivityRepo: postgres.NewActivityRepo(db),
			ContactRepo:  postgres.NewContactRepo(db),
			TagRepo:      postgres.NewTagRepo(db),
			TxRepo:       postgres.NewTransactionRepo(db),
		}, func() { _ = db.Close() }, nil
	default:
		client, err := dynamo.NewClient(ctx, cfg)
		if err != nil {
			return nil, nil, err
		}
		// Creates the tables if they don't exist.
		dynamo.Bootstrap(ctx, client, cfg.DynamoTables)
		t := cfg.DynamoTables
		return &transporthttp.Deps{
			UserRepo:     dynamo.NewUserRepo(client, t.Users, t.UserEmails),
			SessionRepo:  dynamo.NewSessionRepo(client, t.Sessions, t.SessionFingerprints),
			ActivityRepo: dynamo.NewActivityRepo(client, t.Activities),
			ContactRepo:  dynamo.NewContactRepo(client, t.Contacts, t.Uniques),
			TagRepo:      dynamo.NewTagRepo(client, t.Tags, t.Uniques),
			TxRepo:       dynamo.NewTransactionRepo(client, t.Transactions),
		}, func() {}, nil
	}
}
