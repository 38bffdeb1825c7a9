package config

import (
	"fmt"
	"regexp"
	"strconv"
	"time"

	"bizqueue/pkg/client"
	"bizqueue/pkg/logger"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	MongoURI          string        `env:"MONGO_URI" envDefault:"mongodb://localhost:27017"`
	MongoDatabaseName string        `env:"MONGO_DATABASE_NAME" envDefault:"bizqueue"`
	MongoConnTimeout  time.Duration `env:"MONGO_CONN_TIMEOUT" envDefault:"10s"`

	Port     string `env:"PORT" envDefault:"8080"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	JWTSecret string `env:"JWT_SECRET"`
	JWTIssuer string `env:"JWT_ISSUER"`

	RateLimitRequests int           `env:"RATE_LIMIT_REQUESTS" envDefault:"10"`
	RateLimitWindow   time.Duration `env:"RATE_LIMIT_WINDOW" envDefault:"1m"`

	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT" envDefault:"30s"`
	MaxRequestSize int           `env:"MAX_REQUEST_SIZE" envDefault:"1048576"`

	ReadTimeout     time.Duration `env:"READ_TIMEOUT" envDefault:"15s"`
	WriteTimeout    time.Duration `env:"WRITE_TIMEOUT" envDefault:"15s"`
	IdleTimeout     time.Duration `env:"IDLE_TIMEOUT" envDefault:"60s"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"30s"`

	DiscoveryTimeout time.Duration `env:"DISCOVERY_TIMEOUT" envDefault:"3s"`
	BookingTimeout   time.Duration `env:"BOOKING_TIMEOUT" envDefault:"5s"`
	DefaultRadiusKm  float64       `env:"DEFAULT_RADIUS_KM" envDefault:"5"`
	MaxRadiusKm      float64       `env:"MAX_RADIUS_KM" envDefault:"100"`

	AvailabilityCacheTTL  time.Duration `env:"AVAILABILITY_CACHE_TTL" envDefault:"5s"`
	AvailabilityCacheSize int           `env:"AVAILABILITY_CACHE_SIZE" envDefault:"10000"`

	BookingSlotPolicy string        `env:"BOOKING_SLOT_POLICY" envDefault:"allow"`
	BookingLockTTL    time.Duration `env:"BOOKING_LOCK_TTL" envDefault:"10s"`

	EventsEnabled bool   `env:"EVENTS_ENABLED" envDefault:"false"`
	StatusTopic   string `env:"STATUS_TOPIC" envDefault:"bizqueue.availability"`
	BookingTopic  string `env:"BOOKING_TOPIC" envDefault:"bizqueue.bookings"`

	OTelEndpoint string `env:"OTEL_ENDPOINT"`

	Log    *logger.Logger
	Client *client.Client
}

// Parse reads the environment without side effects.
func Parse() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

func Load(serviceName string) *Config {
	cfg, err := Parse()
	if err != nil {
		cfg = &Config{LogLevel: logger.INFO}
		cfg.Log = newLogger(cfg.LogLevel, serviceName)
		cfg.Log.Fatal("Failed to read configuration", "error", err)
	}
	cfg.Log = newLogger(cfg.LogLevel, serviceName)
	cfg.Client = client.NewClient()

	if err := cfg.Validate(); err != nil {
		cfg.Log.Fatal(err.Error())
	}
	cfg.LogConfiguration()
	return cfg
}

func newLogger(level, serviceName string) *logger.Logger {
	return logger.New(logger.Config{
		Level:     level,
		Format:    logger.JSON,
		AddSource: true,
		Service:   serviceName,
	})
}

func (cfg *Config) SetMongo() {
	cfg.Client.SetMongo(cfg.Log, cfg.MongoURI, cfg.MongoConnTimeout)
}

func (cfg *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(cfg.Port); err != nil || port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("Port must be between 1 and 65535, got: %s", cfg.Port))
	}

	if _, ok := logger.ParseLevel(cfg.LogLevel); !ok {
		errors = append(errors, fmt.Sprintf("LogLevel must be one of [debug, info, warn, error], got: %s", cfg.LogLevel))
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

	if len(cfg.JWTSecret) < 16 {
		errors = append(errors, "JWTSecret must be at least 16 characters")
	}

	positiveDurations := []struct {
		name  string
		value time.Duration
	}{
		{"RateLimitWindow", cfg.RateLimitWindow},
		{"RequestTimeout", cfg.RequestTimeout},
		{"ReadTimeout", cfg.ReadTimeout},
		{"WriteTimeout", cfg.WriteTimeout},
		{"IdleTimeout", cfg.IdleTimeout},
		{"ShutdownTimeout", cfg.ShutdownTimeout},
		{"DiscoveryTimeout", cfg.DiscoveryTimeout},
		{"BookingTimeout", cfg.BookingTimeout},
		{"BookingLockTTL", cfg.BookingLockTTL},
	}
	for _, d := range positiveDurations {
		if d.value <= 0 {
			errors = append(errors, fmt.Sprintf("%s must be positive, got: %s", d.name, d.value))
		}
	}

	if cfg.RateLimitRequests <= 0 {
		errors = append(errors, fmt.Sprintf("RateLimitRequests must be positive, got: %d", cfg.RateLimitRequests))
	}
	if cfg.MaxRequestSize <= 0 {
		errors = append(errors, fmt.Sprintf("MaxRequestSize must be positive, got: %d", cfg.MaxRequestSize))
	}

	if cfg.DiscoveryTimeout > cfg.RequestTimeout {
		errors = append(errors, fmt.Sprintf("DiscoveryTimeout (%s) must not exceed RequestTimeout (%s)", cfg.DiscoveryTimeout, cfg.RequestTimeout))
	}
	if cfg.BookingTimeout > cfg.RequestTimeout {
		errors = append(errors, fmt.Sprintf("BookingTimeout (%s) must not exceed RequestTimeout (%s)", cfg.BookingTimeout, cfg.RequestTimeout))
	}

	if cfg.MaxRadiusKm <= 0 {
		errors = append(errors, fmt.Sprintf("MaxRadiusKm must be positive, got: %g", cfg.MaxRadiusKm))
	}
	if cfg.DefaultRadiusKm <= 0 || cfg.DefaultRadiusKm > cfg.MaxRadiusKm {
		errors = append(errors, fmt.Sprintf("DefaultRadiusKm (%g) must be in (0, MaxRadiusKm=%g]", cfg.DefaultRadiusKm, cfg.MaxRadiusKm))
	}

	if cfg.AvailabilityCacheTTL <= 0 || cfg.AvailabilityCacheTTL > MaxAvailabilityCacheTTLSeconds*time.Second {
		errors = append(errors, fmt.Sprintf("AvailabilityCacheTTL must be between 0s and %ds, got: %s", MaxAvailabilityCacheTTLSeconds, cfg.AvailabilityCacheTTL))
	}
	if cfg.AvailabilityCacheSize <= 0 {
		errors = append(errors, fmt.Sprintf("AvailabilityCacheSize must be positive, got: %d", cfg.AvailabilityCacheSize))
	}

	if cfg.BookingSlotPolicy != SlotPolicyAllow && cfg.BookingSlotPolicy != SlotPolicyExclusive {
		errors = append(errors, fmt.Sprintf("BookingSlotPolicy must be one of [%s, %s], got: %s", SlotPolicyAllow, SlotPolicyExclusive, cfg.BookingSlotPolicy))
	}

	if cfg.EventsEnabled && (cfg.StatusTopic == "" || cfg.BookingTopic == "") {
		errors = append(errors, "StatusTopic and BookingTopic are required when events are enabled")
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
		"jwt_issuer", cfg.JWTIssuer,
		"rate_limit_requests", cfg.RateLimitRequests,
		"rate_limit_window", cfg.RateLimitWindow,
		"request_timeout", cfg.RequestTimeout,
		"max_request_size", cfg.MaxRequestSize,
		"read_timeout", cfg.ReadTimeout,
		"write_timeout", cfg.WriteTimeout,
		"idle_timeout", cfg.IdleTimeout,
		"shutdown_timeout", cfg.ShutdownTimeout,
		"discovery_timeout", cfg.DiscoveryTimeout,
		"booking_timeout", cfg.BookingTimeout,
		"default_radius_km", cfg.DefaultRadiusKm,
		"max_radius_km", cfg.MaxRadiusKm,
		"availability_cache_ttl", cfg.AvailabilityCacheTTL,
		"availability_cache_size", cfg.AvailabilityCacheSize,
		"booking_slot_policy", cfg.BookingSlotPolicy,
		"booking_lock_ttl", cfg.BookingLockTTL,
		"events_enabled", cfg.EventsEnabled,
		"status_topic", cfg.StatusTopic,
		"booking_topic", cfg.BookingTopic,
		"otel_enabled", cfg.OTelEndpoint != "",
	)
}

func redactMongoURI(uri string) string {
	credentialRegex := regexp.MustCompile(`(mongodb(\+srv)?://)[^:]+:[^@]+@`)
	return credentialRegex.ReplaceAllString(uri, "${1}***:***@")
}

func (cfg *Config) GracefulShutdown() {
	cfg.Client.GracefulShutdown(cfg.Log)
}

func NormalizePaginationLimit(limit int) int {
	if limit <= 0 {
		limit = fallbackPageSize
	} else if limit > DefaultPaginationLimit {
		limit = DefaultPaginationLimit
	}
	return limit
}

func NormalizeOffset(offset int64) int64 {
	return max(0, offset)
}
