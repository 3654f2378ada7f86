package config

import (
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds application configuration.
type Config struct {
	DatabaseURL   string
	DBMaxConns    int32
	Port          string
	IsProduction  bool
	JWTSecret     string
	RunMigrations bool

	// Transactional executor
	TxMaxAttempts int
	TxBaseDelay   time.Duration

	// Profit accrual
	AccrualEnabled   bool
	AccrualSchedule  string // cron expression, or gocron "@every" shorthand
	AccrualPeriod    time.Duration
	AccrualBatchSize int

	RateLimit          string // ulule/limiter formatted rate, e.g. "100-M"
	CORSAllowedOrigins []string

	// Notifications
	NATSURL           string
	NATSSubjectPrefix string
	NotifyWorkers     int

	// RedisURL enables the distributed scheduler lock when set.
	RedisURL string
}

const defaultJWTSecret = "a-very-secret-key-should-be-longer-and-random"

// LoadConfig loads configuration from environment variables and .env file if present.
func LoadConfig() (*Config, error) {
	// Attempt to load .env file, ignore error if it doesn't exist
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	cfg := &Config{
		DatabaseURL:       v.GetString("PGSQL_URL"),
		DBMaxConns:        v.GetInt32("DB_MAX_CONNS"),
		Port:              v.GetString("PORT"),
		IsProduction:      v.GetBool("IS_PRODUCTION"),
		JWTSecret:         v.GetString("JWT_SECRET"),
		RunMigrations:     v.GetBool("RUN_MIGRATIONS"),
		TxMaxAttempts:     v.GetInt("TX_MAX_ATTEMPTS"),
		AccrualEnabled:    v.GetBool("ACCRUAL_ENABLED"),
		AccrualSchedule:   v.GetString("ACCRUAL_SCHEDULE"),
		AccrualBatchSize:  v.GetInt("ACCRUAL_BATCH_SIZE"),
		RateLimit:         v.GetString("RATE_LIMIT"),
		NATSURL:           v.GetString("NATS_URL"),
		NATSSubjectPrefix: v.GetString("NATS_SUBJECT_PREFIX"),
		NotifyWorkers:     v.GetInt("NOTIFY_WORKERS"),
		RedisURL:          v.GetString("REDIS_URL"),
	}

	if cfg.DatabaseURL == "" {
		log.Println("Warning: PGSQL_URL environment variable not set. Using the in-memory store.")
	}
	if cfg.Port == "" {
		cfg.Port = "8080"
		log.Printf("Warning: PORT environment variable not set. Defaulting to %s\n", cfg.Port)
	}
	if cfg.JWTSecret == "" || cfg.JWTSecret == defaultJWTSecret {
		cfg.JWTSecret = defaultJWTSecret // !! CHANGE IN PRODUCTION !!
		log.Println("Warning: JWT_SECRET environment variable not set. Using default insecure key.")
	}
	if cfg.TxMaxAttempts < 1 {
		log.Printf("Warning: Invalid TX_MAX_ATTEMPTS (%d). Defaulting to 3.\n", cfg.TxMaxAttempts)
		cfg.TxMaxAttempts = 3
	}
	if cfg.AccrualBatchSize < 1 {
		log.Printf("Warning: Invalid ACCRUAL_BATCH_SIZE (%d). Defaulting to 100.\n", cfg.AccrualBatchSize)
		cfg.AccrualBatchSize = 100
	}
	if cfg.NotifyWorkers < 1 {
		cfg.NotifyWorkers = 1
	}

	cfg.TxBaseDelay = durationOr(v, "TX_BASE_DELAY", time.Second)
	cfg.AccrualPeriod = durationOr(v, "ACCRUAL_PERIOD", 30*24*time.Hour)

	for _, origin := range strings.Split(v.GetString("CORS_ALLOWED_ORIGINS"), ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			cfg.CORSAllowedOrigins = append(cfg.CORSAllowedOrigins, origin)
		}
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("PGSQL_URL", "")
	v.SetDefault("DB_MAX_CONNS", 10)
	v.SetDefault("PORT", "8080")
	v.SetDefault("IS_PRODUCTION", false)
	v.SetDefault("JWT_SECRET", defaultJWTSecret)
	v.SetDefault("RUN_MIGRATIONS", true)
	v.SetDefault("TX_MAX_ATTEMPTS", 3)
	v.SetDefault("TX_BASE_DELAY", "1s")
	v.SetDefault("ACCRUAL_ENABLED", true)
	v.SetDefault("ACCRUAL_SCHEDULE", "0 0 * * *")
	v.SetDefault("ACCRUAL_PERIOD", "720h")
	v.SetDefault("ACCRUAL_BATCH_SIZE", 100)
	v.SetDefault("RATE_LIMIT", "100-M")
	v.SetDefault("CORS_ALLOWED_ORIGINS", "*")
	v.SetDefault("NATS_URL", "")
	v.SetDefault("NATS_SUBJECT_PREFIX", "ledger.events")
	v.SetDefault("NOTIFY_WORKERS", 4)
	v.SetDefault("REDIS_URL", "")
}

// durationOr parses key as a duration, logging and falling back to def on bad input.
func durationOr(v *viper.Viper, key string, def time.Duration) time.Duration {
	raw := v.GetString(key)
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		log.Printf("Warning: Invalid value for %s ('%s'). Defaulting to %s.\n", key, raw, def)
		return def
	}
	return d
}
