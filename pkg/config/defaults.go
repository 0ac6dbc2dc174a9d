package config

import "time"

const (
	DefaultMongoURI          = "mongodb://localhost:27017"
	DefaultMongoDatabaseName = "turnolibre"
	DefaultMongoConnTimeout  = 10 * time.Second

	DefaultPort     = "8080"
	DefaultLogLevel = "info"

	DefaultRateLimitRequests = 10
	DefaultRateLimitWindow   = 1 * time.Minute

	DefaultRequestTimeout = 30 * time.Second
	DefaultIdempotencyTTL = 24 * time.Hour
	DefaultMaxRequestSize = 1 * 1024 * 1024 // 1MB

	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = 15 * time.Second
	DefaultIdleTimeout     = 60 * time.Second
	DefaultShutdownTimeout = 30 * time.Second

	DefaultHoldTTL               = 10 * time.Minute
	DefaultHoldSweepInterval     = 2 * time.Minute
	DefaultFeaturedSweepInterval = 5 * time.Minute
	DefaultFeaturedDays          = 30
	DefaultFeaturedPrice         = 4999.0

	DefaultTimezone           = "America/Argentina/Buenos_Aires"
	DefaultSlotDurationMin    = 60
	DefaultSlotConflictPolicy = ConflictPolicyOverwrite

	DefaultMPBaseURL = "https://api.mercadopago.com"

	DefaultSMTPPort = 587

	DefaultPaginationLimit = 100
)

const (
	// ConflictPolicyOverwrite keeps the historical behavior: a new
	// reservation for an occupied slot replaces the current holder.
	ConflictPolicyOverwrite = "overwrite"
	// ConflictPolicyReject refuses reservations for occupied slots.
	ConflictPolicyReject = "reject"
)
