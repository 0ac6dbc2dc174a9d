package config

const (
	EnvMongoURI          = "MONGO_URI"
	EnvMongoDatabaseName = "MONGO_DATABASE_NAME"
	EnvMongoConnTimeout  = "MONGO_CONN_TIMEOUT"

	EnvPort     = "PORT"
	EnvLogLevel = "LOG_LEVEL"

	EnvFrontURL = "FRONT_URL"

	EnvMPAccessToken   = "MP_ACCESS_TOKEN"
	EnvMPBaseURL       = "MP_BASE_URL"
	EnvMPWebhookSecret = "MP_WEBHOOK_SECRET"

	EnvCredentialSealKey = "CREDENTIAL_SEAL_KEY"

	EnvSMTPHost     = "SMTP_HOST"
	EnvSMTPPort     = "SMTP_PORT"
	EnvSMTPUser     = "SMTP_USER"
	EnvSMTPPassword = "SMTP_PASSWORD"
	EnvSMTPFrom     = "SMTP_FROM"

	EnvKafkaBrokers = "KAFKA_BROKERS"
	EnvKafkaTopic   = "KAFKA_TOPIC"

	EnvRateLimitRequests = "RATE_LIMIT_REQUESTS"
	EnvRateLimitWindow   = "RATE_LIMIT_WINDOW"

	EnvRequestTimeout = "REQUEST_TIMEOUT"
	EnvIdempotencyTTL = "IDEMPOTENCY_TTL"
	EnvMaxRequestSize = "MAX_REQUEST_SIZE"

	EnvReadTimeout     = "READ_TIMEOUT"
	EnvWriteTimeout    = "WRITE_TIMEOUT"
	EnvIdleTimeout     = "IDLE_TIMEOUT"
	EnvShutdownTimeout = "SHUTDOWN_TIMEOUT"

	EnvHoldTTL               = "HOLD_TTL"
	EnvHoldSweepInterval     = "HOLD_SWEEP_INTERVAL"
	EnvFeaturedSweepInterval = "FEATURED_SWEEP_INTERVAL"
	EnvFeaturedDays          = "FEATURED_DAYS"
	EnvFeaturedPrice         = "FEATURED_PRICE"

	EnvTimezone           = "TIMEZONE"
	EnvSlotDurationMin    = "SLOT_DURATION_MIN"
	EnvSlotConflictPolicy = "SLOT_CONFLICT_POLICY"
)
