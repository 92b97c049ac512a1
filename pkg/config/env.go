package config

const (
	EnvMongoURI          = "MONGO_URI"
	EnvMongoDatabaseName = "MONGO_DATABASE_NAME"
	EnvMongoConnTimeout  = "MONGO_CONN_TIMEOUT"

	EnvPort     = "PORT"
	EnvLogLevel = "LOG_LEVEL"

	EnvRedisAddr     = "REDIS_ADDR"
	EnvRedisPassword = "REDIS_PASSWORD"
	EnvRedisDB       = "REDIS_DB"

	EnvRabbitMQURL = "RABBITMQ_URL"
	EnvEmailQueue  = "EMAIL_QUEUE"
	EnvAdminEmails = "ADMIN_EMAILS"

	EnvSessionSecret     = "SESSION_SECRET"
	EnvSessionCookieName = "SESSION_COOKIE_NAME"

	EnvEventsTopic     = "EVENTS_TOPIC"
	EnvEventsDLQTopic  = "EVENTS_DLQ_TOPIC"
	EnvNotifierGroupID = "NOTIFIER_GROUP_ID"

	EnvRateLimitRequests = "RATE_LIMIT_REQUESTS"
	EnvRateLimitWindow   = "RATE_LIMIT_WINDOW"

	EnvRequestTimeout     = "REQUEST_TIMEOUT"
	EnvIdempotencyTTL     = "IDEMPOTENCY_TTL"
	EnvIdempotencyBackend = "IDEMPOTENCY_BACKEND"
	EnvMaxRequestSize     = "MAX_REQUEST_SIZE"

	EnvReadTimeout     = "READ_TIMEOUT"
	EnvWriteTimeout    = "WRITE_TIMEOUT"
	EnvIdleTimeout     = "IDLE_TIMEOUT"
	EnvShutdownTimeout = "SHUTDOWN_TIMEOUT"

	EnvDefaultSlotDurationMin = "DEFAULT_SLOT_DURATION_MIN"
	EnvDefaultGraceMinutes    = "DEFAULT_GRACE_MINUTES"
	EnvOperatingWindowStart   = "OPERATING_WINDOW_START"
	EnvOperatingWindowEnd     = "OPERATING_WINDOW_END"
	EnvMaxSuggestions         = "MAX_SUGGESTIONS"
	EnvMaxBulkSlots           = "MAX_BULK_SLOTS"
	EnvBulkInsertConcurrency  = "BULK_INSERT_CONCURRENCY"
	EnvConflictDomains        = "CONFLICT_DOMAINS"
	EnvAllowConflictOverride  = "ALLOW_CONFLICT_OVERRIDE"
)
