package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config is the process-wide settings read from the environment.
type Config struct {
	Port string // listen port (8080)

	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresHost     string
	PostgresPort     int
	PostgresSSLMode  string
	DatabaseURL      string // overrides the POSTGRES_* form when set

	JWTSecret string
	GoEnv     string // dev/prod

	RedisAddr string // empty: no dedup store

	KafkaBrokers []string // empty: events are dropped, no consumer
	KafkaGroupID string
	KafkaWorkers int

	OrderExpiry    time.Duration
	ReaperInterval time.Duration
	ReaperBatch    int

	GatewaySuccessRate float64
	WebhookSecret      string // empty: webhook header is not checked

	OTelEndpoint    string // empty: no-op meter
	OTelInsecure    bool
	OTelServiceName string
}

// Load reads the environment. Call godotenv first if a .env file should apply.
func Load() (Config, error) {
	pgPort, err := mustAtoi("POSTGRES_PORT")
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		Port: os.Getenv("PORT"),

		PostgresUser:     os.Getenv("POSTGRES_USER"),
		PostgresPassword: os.Getenv("POSTGRES_PASSWORD"),
		PostgresDB:       os.Getenv("POSTGRES_DB"),
		PostgresHost:     os.Getenv("POSTGRES_HOST"),
		PostgresPort:     pgPort,
		PostgresSSLMode:  getenv("POSTGRES_SSLMODE", "disable"),
		DatabaseURL:      os.Getenv("DATABASE_URL"),

		JWTSecret: os.Getenv("JWT_SECRET"),
		GoEnv:     os.Getenv("GO_ENV"),

		RedisAddr: os.Getenv("REDIS_ADDR"),

		KafkaBrokers: splitList(os.Getenv("KAFKA_BROKERS")),
		KafkaGroupID: getenv("KAFKA_GROUP_ID", "shopsphere-payments"),

		WebhookSecret: os.Getenv("WEBHOOK_SECRET"),

		OTelEndpoint:    os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
		OTelServiceName: getenv("OTEL_SERVICE_NAME", "shopsphere-orders"),
	}

	// required keys
	if cfg.Port == "" {
		return Config{}, fmt.Errorf("PORT is required")
	}
	if cfg.PostgresUser == "" {
		return Config{}, fmt.Errorf("POSTGRES_USER is required")
	}
	if cfg.PostgresPassword == "" {
		return Config{}, fmt.Errorf("POSTGRES_PASSWORD is required")
	}
	if cfg.PostgresDB == "" {
		return Config{}, fmt.Errorf("POSTGRES_DB is required")
	}
	if cfg.PostgresHost == "" {
		return Config{}, fmt.Errorf("POSTGRES_HOST is required")
	}
	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("JWT_SECRET is required")
	}
	if cfg.GoEnv == "" {
		return Config{}, fmt.Errorf("GO_ENV is required")
	}

	if cfg.KafkaWorkers, err = atoiDefault("KAFKA_WORKERS", 4); err != nil {
		return Config{}, err
	}
	if cfg.ReaperBatch, err = atoiDefault("REAPER_BATCH", 100); err != nil {
		return Config{}, err
	}
	if cfg.OrderExpiry, err = durationDefault("ORDER_EXPIRY", 10*time.Minute); err != nil {
		return Config{}, err
	}
	if cfg.ReaperInterval, err = durationDefault("REAPER_INTERVAL", time.Minute); err != nil {
		return Config{}, err
	}
	if cfg.GatewaySuccessRate, err = floatDefault("GATEWAY_SUCCESS_RATE", 0.9); err != nil {
		return Config{}, err
	}
	if cfg.GatewaySuccessRate < 0 || cfg.GatewaySuccessRate > 1 {
		return Config{}, fmt.Errorf("GATEWAY_SUCCESS_RATE must be between 0 and 1")
	}
	if cfg.OTelInsecure, err = boolDefault("OTEL_EXPORTER_OTLP_INSECURE", true); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func mustAtoi(key string) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return 0, fmt.Errorf("%s is required", key)
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be number: %w", key, err)
	}
	return i, nil
}

func atoiDefault(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be number: %w", key, err)
	}
	return i, nil
}

func floatDefault(key string, def float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("%s must be number: %w", key, err)
	}
	return f, nil
}

func durationDefault(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be duration: %w", key, err)
	}
	return d, nil
}

func boolDefault(key string, def bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%s must be bool: %w", key, err)
	}
	return b, nil
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func splitList(raw string) []string {
	var out []string
	for _, s := range strings.Split(raw, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
