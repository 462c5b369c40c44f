package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	defaultHTTPAddr            = ":8080"
	defaultJWTSecret           = "change-me-jwt-secret"
	defaultTimezone            = "UTC"
	defaultSweepInterval       = "15m"
	defaultSweepInitialDelay   = "1m"
	defaultFastPathWindow      = "5m"
	defaultWorkReminderHour    = "18"
	defaultCompleteReminderHr  = "19"
	defaultSideEffectTimeout   = "30s"
	defaultShutdownTimeout     = "10s"
	defaultLogLevel            = "info"
	defaultLocale              = "ru"
	defaultSweepLockTTL        = "5m"
	defaultCORSOrigins         = "http://localhost:3000,http://localhost:5173"
	defaultDatabaseURLForLocal = "file:gigmarket.db?cache=shared"
)

type Config struct {
	AppEnv        string
	HTTPAddr      string
	DatabaseURL   string
	JWTSecret     string
	InternalToken string
	LogLevel      string
	DefaultLocale string
	CORSOrigins   []string

	Location               *time.Location
	SweepInterval          time.Duration
	SweepInitialDelay      time.Duration
	SweepLockTTL           time.Duration
	FastPathWindow         time.Duration
	WorkReminderHour       int
	CompleteReminderHour   int
	SideEffectTimeout      time.Duration
	ShutdownTimeout        time.Duration
	RedisURL               string
	FCMCredentialsFile     string
	AutoMigrate            bool
	ReminderSweeperEnabled bool
}

// Load reads .env (if present) and the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load()
	return FromEnv()
}

func FromEnv() (*Config, error) {
	cfg := &Config{}
	appEnv := strings.TrimSpace(os.Getenv("APP_ENV"))
	if appEnv == "" {
		appEnv = strings.TrimSpace(os.Getenv("ENV"))
	}
	if appEnv == "" {
		appEnv = "dev"
	}
	cfg.AppEnv = strings.ToLower(appEnv)

	cfg.HTTPAddr = strings.TrimSpace(getEnv("HTTP_ADDR", defaultHTTPAddr))
	cfg.DatabaseURL = strings.TrimSpace(os.Getenv("DATABASE_URL"))
	if cfg.DatabaseURL == "" && !IsProdLike(cfg.AppEnv) {
		cfg.DatabaseURL = defaultDatabaseURLForLocal
	}
	cfg.JWTSecret = strings.TrimSpace(getEnv("JWT_SECRET", defaultJWTSecret))
	cfg.InternalToken = strings.TrimSpace(os.Getenv("INTERNAL_TOKEN"))
	cfg.LogLevel = strings.TrimSpace(getEnv("LOG_LEVEL", defaultLogLevel))
	cfg.DefaultLocale = strings.TrimSpace(getEnv("DEFAULT_LOCALE", defaultLocale))
	cfg.CORSOrigins = splitList(getEnv("CORS_ORIGINS", defaultCORSOrigins))
	cfg.RedisURL = strings.TrimSpace(os.Getenv("REDIS_URL"))
	cfg.FCMCredentialsFile = strings.TrimSpace(os.Getenv("FCM_CREDENTIALS_FILE"))
	cfg.AutoMigrate = parseBoolEnv("AUTO_MIGRATE", "false")
	cfg.ReminderSweeperEnabled = parseBoolEnv("REMINDER_SWEEPER_ENABLED", "true")

	tz := strings.TrimSpace(getEnv("APP_TIMEZONE", defaultTimezone))
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("invalid APP_TIMEZONE value %q: %w", tz, err)
	}
	cfg.Location = loc

	if cfg.SweepInterval, err = parseDurationEnv("REMINDER_SWEEP_INTERVAL", defaultSweepInterval); err != nil {
		return nil, err
	}
	if cfg.SweepInitialDelay, err = parseDurationEnv("REMINDER_SWEEP_INITIAL_DELAY", defaultSweepInitialDelay); err != nil {
		return nil, err
	}
	if cfg.SweepLockTTL, err = parseDurationEnv("REMINDER_SWEEP_LOCK_TTL", defaultSweepLockTTL); err != nil {
		return nil, err
	}
	if cfg.FastPathWindow, err = parseDurationEnv("REMINDER_FAST_PATH_WINDOW", defaultFastPathWindow); err != nil {
		return nil, err
	}
	if cfg.SideEffectTimeout, err = parseDurationEnv("SIDE_EFFECT_TIMEOUT", defaultSideEffectTimeout); err != nil {
		return nil, err
	}
	if cfg.ShutdownTimeout, err = parseDurationEnv("SHUTDOWN_TIMEOUT", defaultShutdownTimeout); err != nil {
		return nil, err
	}
	if cfg.WorkReminderHour, err = parseIntEnv("WORK_REMINDER_HOUR", defaultWorkReminderHour); err != nil {
		return nil, err
	}
	if cfg.CompleteReminderHour, err = parseIntEnv("COMPLETE_REMINDER_HOUR", defaultCompleteReminderHr); err != nil {
		return nil, err
	}

	if err := validateConfig(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func validateConfig(cfg *Config) error {
	if cfg.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL must be set")
	}
	if cfg.SweepInterval <= 0 {
		return fmt.Errorf("REMINDER_SWEEP_INTERVAL must be > 0")
	}
	if cfg.SweepInitialDelay < 0 {
		return fmt.Errorf("REMINDER_SWEEP_INITIAL_DELAY must be >= 0")
	}
	if cfg.FastPathWindow < 0 {
		return fmt.Errorf("REMINDER_FAST_PATH_WINDOW must be >= 0")
	}
	if cfg.SideEffectTimeout <= 0 {
		return fmt.Errorf("SIDE_EFFECT_TIMEOUT must be > 0")
	}
	if cfg.WorkReminderHour < 0 || cfg.WorkReminderHour > 23 {
		return fmt.Errorf("WORK_REMINDER_HOUR must be within 0..23")
	}
	if cfg.CompleteReminderHour < 0 || cfg.CompleteReminderHour > 23 {
		return fmt.Errorf("COMPLETE_REMINDER_HOUR must be within 0..23")
	}

	if IsProdLike(cfg.AppEnv) {
		if isEmptyOrDefault(cfg.JWTSecret, defaultJWTSecret) {
			return fmt.Errorf("in prod/release JWT_SECRET must be set and not default")
		}
		if cfg.InternalToken == "" {
			return fmt.Errorf("in prod/release INTERNAL_TOKEN must be set")
		}
	}

	return nil
}

func IsProdLike(env string) bool {
	env = strings.ToLower(strings.TrimSpace(env))
	return env == "prod" || env == "production" || env == "release"
}

func isEmptyOrDefault(v, def string) bool {
	trimmed := strings.TrimSpace(v)
	return trimmed == "" || trimmed == def
}

func parseDurationEnv(name, fallback string) (time.Duration, error) {
	value := strings.TrimSpace(getEnv(name, fallback))
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", name, value, err)
	}
	return d, nil
}

func parseIntEnv(name, fallback string) (int, error) {
	value := strings.TrimSpace(getEnv(name, fallback))
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", name, value, err)
	}
	return n, nil
}

func parseBoolEnv(name, fallback string) bool {
	value := strings.ToLower(strings.TrimSpace(getEnv(name, fallback)))
	return value == "1" || value == "true" || value == "yes" || value == "on"
}

func splitList(raw string) []string {
	var out []string
	for _, item := range strings.Split(raw, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func getEnv(name, fallback string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return fallback
}
