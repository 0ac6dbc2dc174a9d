package config

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"turnolibre/pkg/client"
	"turnolibre/pkg/logger"
)

type Config struct {
	MongoURI          string
	MongoDatabaseName string
	MongoConnTimeout  time.Duration

	Port string

	FrontURL string

	MPAccessToken   string
	MPBaseURL       string
	MPWebhookSecret string

	CredentialSealKey string

	SMTPHost     string
	SMTPPort     int
	SMTPUser     string
	SMTPPassword string
	SMTPFrom     string

	KafkaBrokers []string
	KafkaTopic   string

	RateLimitRequests int
	RateLimitWindow   time.Duration

	RequestTimeout time.Duration
	IdempotencyTTL time.Duration
	MaxRequestSize int

	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration

	HoldTTL               time.Duration
	HoldSweepInterval     time.Duration
	FeaturedSweepInterval time.Duration
	FeaturedDays          int
	FeaturedPrice         float64

	Timezone           string
	Location           *time.Location
	SlotDurationMin    int
	SlotConflictPolicy string

	Log    *logger.Logger
	Client *client.Client
}

func Load(serviceName string) *Config {
	cfg := &Config{
		MongoURI:          getEnvStr(EnvMongoURI, DefaultMongoURI),
		MongoDatabaseName: getEnvStr(EnvMongoDatabaseName, DefaultMongoDatabaseName),
		MongoConnTimeout:  getEnvDuration(EnvMongoConnTimeout, DefaultMongoConnTimeout),

		Port: getEnvStr(EnvPort, DefaultPort),

		FrontURL: getEnvStr(EnvFrontURL, ""),

		MPAccessToken:   getEnvStr(EnvMPAccessToken, ""),
		MPBaseURL:       getEnvStr(EnvMPBaseURL, DefaultMPBaseURL),
		MPWebhookSecret: getEnvStr(EnvMPWebhookSecret, ""),

		CredentialSealKey: getEnvStr(EnvCredentialSealKey, ""),

		SMTPHost:     getEnvStr(EnvSMTPHost, ""),
		SMTPPort:     getEnvNum(EnvSMTPPort, DefaultSMTPPort),
		SMTPUser:     getEnvStr(EnvSMTPUser, ""),
		SMTPPassword: getEnvStr(EnvSMTPPassword, ""),
		SMTPFrom:     getEnvStr(EnvSMTPFrom, ""),

		KafkaBrokers: getEnvList(EnvKafkaBrokers),
		KafkaTopic:   getEnvStr(EnvKafkaTopic, "turnolibre.bookings"),

		RateLimitRequests: getEnvNum(EnvRateLimitRequests, DefaultRateLimitRequests),
		RateLimitWindow:   getEnvDuration(EnvRateLimitWindow, DefaultRateLimitWindow),

		RequestTimeout: getEnvDuration(EnvRequestTimeout, DefaultRequestTimeout),
		IdempotencyTTL: getEnvDuration(EnvIdempotencyTTL, DefaultIdempotencyTTL),
		MaxRequestSize: getEnvNum(EnvMaxRequestSize, DefaultMaxRequestSize),

		ReadTimeout:     getEnvDuration(EnvReadTimeout, DefaultReadTimeout),
		WriteTimeout:    getEnvDuration(EnvWriteTimeout, DefaultWriteTimeout),
		IdleTimeout:     getEnvDuration(EnvIdleTimeout, DefaultIdleTimeout),
		ShutdownTimeout: getEnvDuration(EnvShutdownTimeout, DefaultShutdownTimeout),

		HoldTTL:               getEnvDuration(EnvHoldTTL, DefaultHoldTTL),
		HoldSweepInterval:     getEnvDuration(EnvHoldSweepInterval, DefaultHoldSweepInterval),
		FeaturedSweepInterval: getEnvDuration(EnvFeaturedSweepInterval, DefaultFeaturedSweepInterval),
		FeaturedDays:          getEnvNum(EnvFeaturedDays, DefaultFeaturedDays),
		FeaturedPrice:         getEnvFloat(EnvFeaturedPrice, DefaultFeaturedPrice),

		Timezone:           getEnvStr(EnvTimezone, DefaultTimezone),
		SlotDurationMin:    getEnvNum(EnvSlotDurationMin, DefaultSlotDurationMin),
		SlotConflictPolicy: getEnvStr(EnvSlotConflictPolicy, DefaultSlotConflictPolicy),

		Log: logger.New(logger.Config{
			Level:     getEnvStr(EnvLogLevel, DefaultLogLevel),
			Format:    logger.JSON,
			AddSource: true,
			Service:   serviceName,
		}),
		Client: client.NewClient(),
	}

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		cfg.Log.Fatal("Invalid timezone", "timezone", cfg.Timezone, "error", err)
	}
	cfg.Location = loc

	if err := cfg.Validate(); err != nil {
		cfg.Log.Fatal(err.Error())
	}
	cfg.LogConfiguration()
	return cfg
}

func (cfg *Config) SetMongo() {
	cfg.Client.SetMongo(cfg.Log, cfg.MongoURI, cfg.MongoConnTimeout)
}

func (cfg *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(cfg.Port); err != nil || port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("Port must be between 1 and 65535, got: %s", cfg.Port))
	}

	if cfg.MongoURI == "" {
		errors = append(errors, "MongoURI cannot be empty")
	} else if !regexp.MustCompile(`^mongodb(\+srv)?://`).MatchString(cfg.MongoURI) {
		errors = append(errors, fmt.Sprintf("MongoURI must start with 'mongodb://' or 'mongodb+srv://', got: %s", cfg.MongoURI))
	}

	if cfg.MongoDatabaseName == "" {
		errors = append(errors, "MongoDatabaseName cannot be empty")
	}

	if cfg.MongoConnTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("MongoConnTimeout must be positive, got: %s", cfg.MongoConnTimeout))
	}
	if cfg.RateLimitWindow <= 0 {
		errors = append(errors, fmt.Sprintf("RateLimitWindow must be positive, got: %s", cfg.RateLimitWindow))
	}
	if cfg.RequestTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("RequestTimeout must be positive, got: %s", cfg.RequestTimeout))
	}
	if cfg.IdempotencyTTL <= 0 {
		errors = append(errors, fmt.Sprintf("IdempotencyTTL must be positive, got: %s", cfg.IdempotencyTTL))
	}
	if cfg.ReadTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("ReadTimeout must be positive, got: %s", cfg.ReadTimeout))
	}
	if cfg.WriteTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("WriteTimeout must be positive, got: %s", cfg.WriteTimeout))
	}
	if cfg.IdleTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("IdleTimeout must be positive, got: %s", cfg.IdleTimeout))
	}
	if cfg.ShutdownTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("ShutdownTimeout must be positive, got: %s", cfg.ShutdownTimeout))
	}

	if cfg.RateLimitRequests <= 0 {
		errors = append(errors, fmt.Sprintf("RateLimitRequests must be positive, got: %d", cfg.RateLimitRequests))
	}
	if cfg.MaxRequestSize <= 0 {
		errors = append(errors, fmt.Sprintf("MaxRequestSize must be positive, got: %d", cfg.MaxRequestSize))
	}

	if cfg.HoldTTL <= 0 {
		errors = append(errors, fmt.Sprintf("HoldTTL must be positive, got: %s", cfg.HoldTTL))
	}
	if cfg.HoldSweepInterval <= 0 {
		errors = append(errors, fmt.Sprintf("HoldSweepInterval must be positive, got: %s", cfg.HoldSweepInterval))
	}
	if cfg.FeaturedSweepInterval <= 0 {
		errors = append(errors, fmt.Sprintf("FeaturedSweepInterval must be positive, got: %s", cfg.FeaturedSweepInterval))
	}
	if cfg.FeaturedDays <= 0 {
		errors = append(errors, fmt.Sprintf("FeaturedDays must be positive, got: %d", cfg.FeaturedDays))
	}
	if cfg.FeaturedPrice <= 0 {
		errors = append(errors, fmt.Sprintf("FeaturedPrice must be positive, got: %f", cfg.FeaturedPrice))
	}

	if cfg.SlotDurationMin <= 0 {
		errors = append(errors, fmt.Sprintf("SlotDurationMin must be positive, got: %d", cfg.SlotDurationMin))
	}
	if cfg.SlotConflictPolicy != ConflictPolicyOverwrite && cfg.SlotConflictPolicy != ConflictPolicyReject {
		errors = append(errors, fmt.Sprintf("SlotConflictPolicy must be %q or %q, got: %s", ConflictPolicyOverwrite, ConflictPolicyReject, cfg.SlotConflictPolicy))
	}

	if cfg.CredentialSealKey != "" && len(cfg.CredentialSealKey) != 64 {
		errors = append(errors, "CredentialSealKey must be a 64-character hex string (32 bytes)")
	}

	if len(errors) > 0 {
		errMsg := "Configuration validation failed:\n"
		for i, err := range errors {
			errMsg += fmt.Sprintf("  %d. %s\n", i+1, err)
		}
		return fmt.Errorf("%s", errMsg)
	}

	return nil
}

func (cfg *Config) LogConfiguration() {
	cfg.Log.Info("Configuration loaded successfully",
		"mongo_uri", redactMongoURI(cfg.MongoURI),
		"mongo_database", cfg.MongoDatabaseName,
		"mongo_conn_timeout", cfg.MongoConnTimeout,
		"port", cfg.Port,
		"front_url", cfg.FrontURL,
		"mp_base_url", cfg.MPBaseURL,
		"mp_access_token_set", cfg.MPAccessToken != "",
		"mp_webhook_secret_set", cfg.MPWebhookSecret != "",
		"credential_seal_key_set", cfg.CredentialSealKey != "",
		"smtp_host", cfg.SMTPHost,
		"smtp_port", cfg.SMTPPort,
		"kafka_brokers", cfg.KafkaBrokers,
		"kafka_topic", cfg.KafkaTopic,
		"rate_limit_requests", cfg.RateLimitRequests,
		"rate_limit_window", cfg.RateLimitWindow,
		"request_timeout", cfg.RequestTimeout,
		"idempotency_ttl", cfg.IdempotencyTTL,
		"max_request_size", cfg.MaxRequestSize,
		"read_timeout", cfg.ReadTimeout,
		"write_timeout", cfg.WriteTimeout,
		"idle_timeout", cfg.IdleTimeout,
		"shutdown_timeout", cfg.ShutdownTimeout,
		"hold_ttl", cfg.HoldTTL,
		"hold_sweep_interval", cfg.HoldSweepInterval,
		"featured_sweep_interval", cfg.FeaturedSweepInterval,
		"featured_days", cfg.FeaturedDays,
		"featured_price", cfg.FeaturedPrice,
		"timezone", cfg.Timezone,
		"slot_duration_min", cfg.SlotDurationMin,
		"slot_conflict_policy", cfg.SlotConflictPolicy,
	)
}

func redactMongoURI(uri string) string {
	credentialRegex := regexp.MustCompile(`(mongodb(\+srv)?://)[^:]+:[^@]+@`)
	return credentialRegex.ReplaceAllString(uri, "${1}***:***@")
}

func getEnvStr(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvNum(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}

func getEnvList(key string) []string {
	value := os.Getenv(key)
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func (cfg *Config) GracefulShutdown() {
	cfg.Client.GracefulShutdown()
}

func NormalizePaginationLimit(limit int) int {
	if limit <= 0 {
		limit = 10
	} else if limit > DefaultPaginationLimit {
		limit = DefaultPaginationLimit
	}
	return limit
}

func NormalizeOffset(offset int64) int64 {
	return max(0, offset)
}
