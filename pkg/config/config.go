package config

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"agenda/pkg/client"
	kafka_config "agenda/pkg/kafka/config"
	"agenda/pkg/logger"
	"agenda/pkg/sanitizer"
	"agenda/pkg/timeofday"

	"github.com/joho/godotenv"
)

type Config struct {
	MongoURI          string
	MongoDatabaseName string
	MongoConnTimeout  time.Duration

	Port string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	RabbitMQURL string
	EmailQueue  string
	AdminEmails []string

	SessionSecret     string
	SessionCookieName string

	EventsTopic     string
	EventsDLQTopic  string
	NotifierGroupID string

	RateLimitRequests int
	RateLimitWindow   time.Duration

	RequestTimeout     time.Duration
	IdempotencyTTL     time.Duration
	IdempotencyBackend string
	MaxRequestSize     int

	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration

	DefaultSlotDurationMin int
	DefaultGraceMinutes    int
	OperatingWindowStart   string
	OperatingWindowEnd     string
	MaxSuggestions         int
	MaxBulkSlots           int
	BulkInsertConcurrency  int
	AllowConflictOverride  bool

	// ConflictDomains maps a domain name to the categories that must not overlap.
	ConflictDomains map[string][]string

	Log    *logger.Logger
	Client *client.Client
	Kafka  *kafka_config.Config
}

func Load(serviceName string) *Config {
	// A missing .env file is normal outside local development.
	_ = godotenv.Load()

	cfg := &Config{
		MongoURI:          getEnvStr(EnvMongoURI, DefaultMongoURI),
		MongoDatabaseName: getEnvStr(EnvMongoDatabaseName, DefaultMongoDatabaseName),
		MongoConnTimeout:  getEnvDuration(EnvMongoConnTimeout, DefaultMongoConnTimeout),

		Port: getEnvStr(EnvPort, DefaultPort),

		RedisAddr:     getEnvStr(EnvRedisAddr, DefaultRedisAddr),
		RedisPassword: getEnvStr(EnvRedisPassword, ""),
		RedisDB:       getEnvNum(EnvRedisDB, DefaultRedisDB),

		RabbitMQURL: getEnvStr(EnvRabbitMQURL, DefaultRabbitMQURL),
		EmailQueue:  getEnvStr(EnvEmailQueue, DefaultEmailQueue),
		AdminEmails: sanitizer.NormalizeEmails(getEnvList(EnvAdminEmails)),

		SessionSecret:     getEnvStr(EnvSessionSecret, ""),
		SessionCookieName: getEnvStr(EnvSessionCookieName, DefaultSessionCookieName),

		EventsTopic:     getEnvStr(EnvEventsTopic, DefaultEventsTopic),
		EventsDLQTopic:  getEnvStr(EnvEventsDLQTopic, DefaultEventsDLQTopic),
		NotifierGroupID: getEnvStr(EnvNotifierGroupID, DefaultNotifierGroupID),

		RateLimitRequests: getEnvNum(EnvRateLimitRequests, DefaultRateLimitRequests),
		RateLimitWindow:   getEnvDuration(EnvRateLimitWindow, DefaultRateLimitWindow),

		RequestTimeout:     getEnvDuration(EnvRequestTimeout, DefaultRequestTimeout),
		IdempotencyTTL:     getEnvDuration(EnvIdempotencyTTL, DefaultIdempotencyTTL),
		IdempotencyBackend: strings.ToLower(getEnvStr(EnvIdempotencyBackend, DefaultIdempotencyBackend)),
		MaxRequestSize:     getEnvNum(EnvMaxRequestSize, DefaultMaxRequestSize),

		ReadTimeout:     getEnvDuration(EnvReadTimeout, DefaultReadTimeout),
		WriteTimeout:    getEnvDuration(EnvWriteTimeout, DefaultWriteTimeout),
		IdleTimeout:     getEnvDuration(EnvIdleTimeout, DefaultIdleTimeout),
		ShutdownTimeout: getEnvDuration(EnvShutdownTimeout, DefaultShutdownTimeout),

		DefaultSlotDurationMin: getEnvNum(EnvDefaultSlotDurationMin, DefaultSlotDurationMin),
		DefaultGraceMinutes:    getEnvNum(EnvDefaultGraceMinutes, DefaultGraceMinutes),
		OperatingWindowStart:   getEnvStr(EnvOperatingWindowStart, DefaultOperatingWindowStart),
		OperatingWindowEnd:     getEnvStr(EnvOperatingWindowEnd, DefaultOperatingWindowEnd),
		MaxSuggestions:         getEnvNum(EnvMaxSuggestions, DefaultMaxSuggestions),
		MaxBulkSlots:           getEnvNum(EnvMaxBulkSlots, DefaultMaxBulkSlots),
		BulkInsertConcurrency:  getEnvNum(EnvBulkInsertConcurrency, DefaultBulkInsertConcurrency),
		AllowConflictOverride:  getEnvBool(EnvAllowConflictOverride, DefaultAllowConflictOverride),

		Log: logger.New(logger.Config{
			Level:     getEnvStr(EnvLogLevel, DefaultLogLevel),
			Format:    logger.JSON,
			AddSource: true,
			Service:   serviceName,
		}),
		Client: client.NewClient(),
	}

	domains, err := ParseConflictDomains(getEnvStr(EnvConflictDomains, DefaultConflictDomains))
	if err != nil {
		cfg.Log.Fatal("Invalid conflict domains", "error", err)
	}
	cfg.ConflictDomains = domains

	if err := cfg.Validate(); err != nil {
		cfg.Log.Fatal(err.Error())
	}
	cfg.LogConfiguration()
	return cfg
}

func (cfg *Config) SetMongo() {
	cfg.Client.SetMongo(cfg.Log, cfg.MongoURI, cfg.MongoConnTimeout)
}

func (cfg *Config) SetRedis() {
	cfg.Client.SetRedis(cfg.Log, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, DefaultRedisDialTimeout)
}

func (cfg *Config) SetRabbitMQ() {
	cfg.Client.SetRabbitMQ(cfg.Log, cfg.RabbitMQURL)
}

// SetKafka loads the broker settings; producers and consumers are built by their owners.
func (cfg *Config) SetKafka() {
	kcfg, err := kafka_config.Load()
	if err != nil {
		cfg.Log.Fatal("Invalid Kafka configuration", "error", err)
	}
	kcfg.LogConfiguration(cfg.Log.Info)
	cfg.Kafka = kcfg
}

func (cfg *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(cfg.Port); err != nil || port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("Port must be between 1 and 65535, got: %s", cfg.Port))
	}

	if cfg.MongoURI == "" {
		errors = append(errors, "MongoURI cannot be empty")
	} else if len(cfg.MongoURI) < 10 || !regexp.MustCompile(`^mongodb(\+srv)?://`).MatchString(cfg.MongoURI) {
		errors = append(errors, fmt.Sprintf("MongoURI must start with 'mongodb://' or 'mongodb+srv://', got: %s", redactMongoURI(cfg.MongoURI)))
	}
	if cfg.MongoDatabaseName == "" {
		errors = append(errors, "MongoDatabaseName cannot be empty")
	}
	if cfg.MongoConnTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("MongoConnTimeout must be positive, got: %s", cfg.MongoConnTimeout))
	}

	if cfg.RedisDB < 0 {
		errors = append(errors, fmt.Sprintf("RedisDB cannot be negative, got: %d", cfg.RedisDB))
	}
	if cfg.EmailQueue == "" {
		errors = append(errors, "EmailQueue cannot be empty")
	}
	if cfg.SessionSecret != "" && len(cfg.SessionSecret) < 16 {
		errors = append(errors, "SessionSecret must be at least 16 characters")
	}
	if cfg.SessionCookieName == "" {
		errors = append(errors, "SessionCookieName cannot be empty")
	}
	if cfg.EventsTopic == "" {
		errors = append(errors, "EventsTopic cannot be empty")
	}
	if cfg.NotifierGroupID == "" {
		errors = append(errors, "NotifierGroupID cannot be empty")
	}

	if cfg.RateLimitRequests <= 0 {
		errors = append(errors, fmt.Sprintf("RateLimitRequests must be positive, got: %d", cfg.RateLimitRequests))
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
	if cfg.IdempotencyBackend != IdempotencyBackendMemory && cfg.IdempotencyBackend != IdempotencyBackendRedis {
		errors = append(errors, fmt.Sprintf("IdempotencyBackend must be 'memory' or 'redis', got: %s", cfg.IdempotencyBackend))
	}
	if cfg.MaxRequestSize <= 0 {
		errors = append(errors, fmt.Sprintf("MaxRequestSize must be positive, got: %d", cfg.MaxRequestSize))
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

	if cfg.DefaultSlotDurationMin <= 0 || cfg.DefaultSlotDurationMin > timeofday.MinutesPerDay {
		errors = append(errors, fmt.Sprintf("DefaultSlotDurationMin must be between 1 and %d, got: %d", timeofday.MinutesPerDay, cfg.DefaultSlotDurationMin))
	}
	if cfg.DefaultGraceMinutes < 0 {
		errors = append(errors, fmt.Sprintf("DefaultGraceMinutes cannot be negative, got: %d", cfg.DefaultGraceMinutes))
	}

	windowStart, startErr := timeofday.Parse(cfg.OperatingWindowStart)
	if startErr != nil {
		errors = append(errors, fmt.Sprintf("OperatingWindowStart must be in HH:MM format (00:00-23:59), got: %s", cfg.OperatingWindowStart))
	}
	windowEnd, endErr := timeofday.Parse(cfg.OperatingWindowEnd)
	if endErr != nil {
		errors = append(errors, fmt.Sprintf("OperatingWindowEnd must be in HH:MM format (00:00-23:59), got: %s", cfg.OperatingWindowEnd))
	}
	if startErr == nil && endErr == nil && windowEnd <= windowStart {
		errors = append(errors, fmt.Sprintf("OperatingWindowEnd (%s) must be after OperatingWindowStart (%s)", cfg.OperatingWindowEnd, cfg.OperatingWindowStart))
	}

	if cfg.MaxSuggestions < 1 {
		errors = append(errors, fmt.Sprintf("MaxSuggestions must be at least 1, got: %d", cfg.MaxSuggestions))
	}
	if cfg.MaxBulkSlots <= 0 {
		errors = append(errors, fmt.Sprintf("MaxBulkSlots must be positive, got: %d", cfg.MaxBulkSlots))
	}
	if cfg.BulkInsertConcurrency < 1 {
		errors = append(errors, fmt.Sprintf("BulkInsertConcurrency must be at least 1, got: %d", cfg.BulkInsertConcurrency))
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

// ParseConflictDomains reads "domain=cat1,cat2;other=cat3". Categories are sanitized
// and may belong to a single domain only.
func ParseConflictDomains(raw string) (map[string][]string, error) {
	domains := make(map[string][]string)
	owner := make(map[string]string)

	for _, group := range strings.Split(raw, ";") {
		group = strings.TrimSpace(group)
		if group == "" {
			continue
		}
		name, members, ok := strings.Cut(group, "=")
		name = sanitizer.SanitizeCategory(name)
		if !ok || name == "" {
			return nil, fmt.Errorf("ConflictDomains entry %q must look like domain=cat1,cat2", group)
		}

		categories := sanitizer.NormalizeCategories(strings.Split(members, ","))
		if len(categories) == 0 {
			return nil, fmt.Errorf("ConflictDomains domain %q has no categories", name)
		}
		for _, c := range categories {
			if prev, taken := owner[c]; taken && prev != name {
				return nil, fmt.Errorf("ConflictDomains category %q appears in domains %q and %q", c, prev, name)
			}
			owner[c] = name
		}
		domains[name] = append(domains[name], categories...)
	}

	return domains, nil
}

func (cfg *Config) LogConfiguration() {
	cfg.Log.Info("Configuration loaded successfully",
		"mongo_uri", redactMongoURI(cfg.MongoURI),
		"mongo_database", cfg.MongoDatabaseName,
		"mongo_conn_timeout", cfg.MongoConnTimeout,
		"port", cfg.Port,
		"redis_addr", cfg.RedisAddr,
		"redis_db", cfg.RedisDB,
		"rabbitmq_url", redactAMQPURL(cfg.RabbitMQURL),
		"email_queue", cfg.EmailQueue,
		"admin_emails", len(cfg.AdminEmails),
		"session_secret_set", cfg.SessionSecret != "",
		"session_cookie_name", cfg.SessionCookieName,
		"events_topic", cfg.EventsTopic,
		"events_dlq_topic", cfg.EventsDLQTopic,
		"notifier_group_id", cfg.NotifierGroupID,
		"rate_limit_requests", cfg.RateLimitRequests,
		"rate_limit_window", cfg.RateLimitWindow,
		"request_timeout", cfg.RequestTimeout,
		"idempotency_ttl", cfg.IdempotencyTTL,
		"idempotency_backend", cfg.IdempotencyBackend,
		"max_request_size", cfg.MaxRequestSize,
		"read_timeout", cfg.ReadTimeout,
		"write_timeout", cfg.WriteTimeout,
		"idle_timeout", cfg.IdleTimeout,
		"shutdown_timeout", cfg.ShutdownTimeout,
		"default_slot_duration_min", cfg.DefaultSlotDurationMin,
		"default_grace_minutes", cfg.DefaultGraceMinutes,
		"operating_window", cfg.OperatingWindowStart+"-"+cfg.OperatingWindowEnd,
		"max_suggestions", cfg.MaxSuggestions,
		"max_bulk_slots", cfg.MaxBulkSlots,
		"bulk_insert_concurrency", cfg.BulkInsertConcurrency,
		"allow_conflict_override", cfg.AllowConflictOverride,
		"conflict_domains", cfg.ConflictDomains,
	)
}

func redactMongoURI(uri string) string {
	credentialRegex := regexp.MustCompile(`(mongodb(\+srv)?://)[^:]+:[^@]+@`)
	return credentialRegex.ReplaceAllString(uri, "${1}***:***@")
}

func redactAMQPURL(uri string) string {
	credentialRegex := regexp.MustCompile(`(amqps?://)[^:]+:[^@]+@`)
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

func getEnvBool(key string, fallback bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
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
	return strings.Split(value, ",")
}

func (cfg *Config) GracefulShutdown() {
	cfg.Client.GracefulShutdown(cfg.Log, cfg.ShutdownTimeout)
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
