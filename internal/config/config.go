package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	DriverDynamo   = "dynamo"
	DriverPostgres = "postgres"
)

// Config holds all runtime configuration loaded from environment variables.
type Config struct {
	AppPort        string
	AppEnv         string
	StoreDriver    string // "dynamo" | "postgres"
	DatabaseURL    string
	AWSRegion      string
	AWSEndpointURL string // empty in prod, set to LocalStack URL in dev
	AWSAccessKeyID string
	AWSSecretKey   string
	DynamoTables   DynamoTables
	S3BucketName   string

	JWTSecret        string
	JWTExpiry        time.Duration
	ResetTokenExpiry time.Duration

	OTPExpiry       time.Duration
	OTPResendExpiry time.Duration
	OTPSMSEnabled   bool
	EmailOTPExpiry  time.Duration

	SMTPHost     string
	SMTPPort     string
	SMTPFrom     string
	SMTPUsername string
	SMTPPassword string
	SNSRegion    string

	ClientURL      string
	AllowedOrigins []string // CORS allowed origins
	RateLimitRPS   float64
	RateLimitBurst int
	// TrustProxy makes the router take the client address from
	// True-Client-IP, X-Real-IP or X-Forwarded-For. Enable it only behind a
	// proxy that overwrites those headers.
	TrustProxy bool
}

// DynamoTables holds the DynamoDB table name for each entity.
type DynamoTables struct {
	Users               string
	UserEmails          string
	Sessions            string
	SessionFingerprints string
	Activities          string
	Contacts            string
	Tags                string
	Transactions        string
	// Uniques holds claim items for per-user unique values such as contact
	// emails and tag names.
	Uniques string
}

// Load reads all configuration from environment variables and validates the
// inputs the process cannot start without.
func Load() (*Config, error) {
	cfg := &Config{
		AppPort:        getEnv("APP_PORT", "3001"),
		AppEnv:         getEnv("APP_ENV", "development"),
		StoreDriver:    strings.ToLower(getEnv("STORE_DRIVER", DriverDynamo)),
		DatabaseURL:    getEnv("DATABASE_URL", ""),
		AWSRegion:      getEnv("AWS_REGION", "us-east-1"),
		AWSEndpointURL: getEnv("AWS_ENDPOINT_URL", ""),
		AWSAccessKeyID: getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretKey:   getEnv("AWS_SECRET_ACCESS_KEY", ""),
		DynamoTables: DynamoTables{
			Users:               getEnv("DYNAMO_TABLE_USERS", "users"),
			UserEmails:          getEnv("DYNAMO_TABLE_USER_EMAILS", "user_emails"),
			Sessions:            getEnv("DYNAMO_TABLE_SESSIONS", "user_sessions"),
			SessionFingerprints: getEnv("DYNAMO_TABLE_SESSION_FINGERPRINTS", "session_fingerprints"),
			Activities:          getEnv("DYNAMO_TABLE_ACTIVITIES", "activity_logs"),
			Contacts:            getEnv("DYNAMO_TABLE_CONTACTS", "contacts"),
			Tags:                getEnv("DYNAMO_TABLE_TAGS", "tags"),
			Transactions:        getEnv("DYNAMO_TABLE_TRANSACTIONS", "transactions"),
			Uniques:             getEnv("DYNAMO_TABLE_UNIQUES", "unique_claims"),
		},
		S3BucketName:     getEnv("S3_BUCKET_NAME", "cashflow-uploads"),
		JWTSecret:        getEnv("JWT_SECRET", ""),
		JWTExpiry:        getEnvDuration("JWT_EXPIRES_IN", 24*time.Hour),
		ResetTokenExpiry: getEnvDuration("RESET_TOKEN_EXPIRES_IN", time.Hour),
		OTPExpiry:        getEnvDuration("OTP_EXPIRES_IN", 15*time.Minute),
		OTPResendExpiry:  getEnvDuration("OTP_RESEND_EXPIRES_IN", 30*time.Minute),
		OTPSMSEnabled:    getEnvBool("OTP_SMS_ENABLED", false),
		EmailOTPExpiry:   getEnvDuration("EMAIL_OTP_EXPIRES_IN", 30*time.Minute),
		SMTPHost:         getEnv("SMTP_HOST", "localhost"),
		SMTPPort:         getEnv("SMTP_PORT", "1025"),
		SMTPFrom:         getEnv("EMAIL_FROM", "noreply@example.com"),
		SMTPUsername:     getEnv("SMTP_USERNAME", ""),
		SMTPPassword:     getEnv("SMTP_PASSWORD", ""),
		SNSRegion:        getEnv("SNS_REGION", "us-east-1"),
		ClientURL:        getEnv("FRONTEND_URL", "http://localhost:3000"),
		AllowedOrigins:   strings.Split(getEnv("ALLOWED_ORIGINS", "*"), ","),
		RateLimitRPS:     getEnvFloat("RATE_LIMIT_RPS", 5),
		RateLimitBurst:   getEnvInt("RATE_LIMIT_BURST", 10),
		TrustProxy:       getEnvBool("TRUST_PROXY", false),
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports missing or inconsistent settings.
func (c *Config) Validate() error {
	var errs []error
	if c.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	}
	switch c.StoreDriver {
	case DriverDynamo:
	case DriverPostgres:
		if c.DatabaseURL == "" {
			errs = append(errs, errors.New("DATABASE_URL is required when STORE_DRIVER=postgres"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver))
	}
	if c.OTPExpiry <= 0 || c.OTPResendExpiry <= 0 || c.EmailOTPExpiry <= 0 {
		errs = append(errs, errors.New("OTP expiry durations must be positive"))
	}
	return errors.Join(errs...)
}

// IsProduction reports whether the process runs with APP_ENV=production.
func (c *Config) IsProduction() bool { return c.AppEnv == "production" }

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

// getEnvDuration accepts Go durations ("24h", "15m").
func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
