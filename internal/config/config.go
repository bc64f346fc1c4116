package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

type Config struct {
	Env  string
	Port int

	DBDriver          string
	DBURL             string
	SQLitePath        string
	DBConnectAttempts int
	DBConnectDelay    time.Duration

	JWTSecret string
	JWTTTL    time.Duration

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisPrefix   string

	CORSOrigins   []string
	AuthRateLimit int
	MaxBodyBytes  int64

	OTelEndpoint    string
	OTelSampleRatio float64
	ServiceName     string

	BootstrapUsername string
	BootstrapEmail    string
	BootstrapPassword string
}

// Load reads the process environment, after merging an optional .env file
// from the working directory. Variables already set in the environment win.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		Env:  getEnv("APP_ENV", "dev"),
		Port: getEnvInt("PORT", 3001),

		DBDriver:          strings.ToLower(getEnv("DB_DRIVER", DriverPostgres)),
		DBURL:             getEnv("DATABASE_URL", buildDBURL()),
		SQLitePath:        getEnv("SQLITE_PATH", "todohub.db"),
		DBConnectAttempts: getEnvInt("DB_CONNECT_ATTEMPTS", 10),
		DBConnectDelay:    getEnvDuration("DB_CONNECT_DELAY", 5*time.Second),

		JWTSecret: os.Getenv("JWT_SECRET"),
		JWTTTL:    getEnvDuration("JWT_TTL", 7*24*time.Hour),

		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       getEnvInt("REDIS_DB", 0),
		RedisPrefix:   getEnv("REDIS_KEY_PREFIX", "todohub"),

		CORSOrigins:   splitList(getEnv("CORS_ORIGINS", "*")),
		AuthRateLimit: getEnvInt("AUTH_RATE_LIMIT", 20),
		MaxBodyBytes:  int64(getEnvInt("MAX_BODY_BYTES", 1<<20)),

		OTelEndpoint:    os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
		OTelSampleRatio: getEnvFloat("OTEL_SAMPLE_RATIO", 1),
		ServiceName:     getEnv("SERVICE_NAME", "todohub"),

		BootstrapUsername: os.Getenv("BOOTSTRAP_USERNAME"),
		BootstrapEmail:    os.Getenv("BOOTSTRAP_EMAIL"),
		BootstrapPassword: os.Getenv("BOOTSTRAP_PASSWORD"),
	}
}

// Validate reports settings the server cannot start with.
func (c Config) Validate() error {
	var errs []error

	if c.JWTSecret == "" && !c.IsLocal() {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	}

	switch c.DBDriver {
	case DriverPostgres, DriverSQLite:
	default:
		errs = append(errs, fmt.Errorf("unknown DB_DRIVER %q", c.DBDriver))
	}

	if c.DBConnectAttempts <= 0 {
		errs = append(errs, errors.New("DB_CONNECT_ATTEMPTS must be positive"))
	}

	if c.DBConnectDelay < 0 {
		errs = append(errs, errors.New("DB_CONNECT_DELAY must not be negative"))
	}

	if c.JWTTTL <= 0 {
		errs = append(errs, errors.New("JWT_TTL must be positive"))
	}

	if c.OTelSampleRatio < 0 || c.OTelSampleRatio > 1 {
		errs = append(errs, errors.New("OTEL_SAMPLE_RATIO must be between 0 and 1"))
	}

	return errors.Join(errs...)
}

// IsLocal is true for dev and test environments, where an unset JWT secret
// falls back to a fixed development value.
func (c Config) IsLocal() bool {
	return c.Env == "dev" || c.Env == "test"
}

// SigningSecret returns the JWT secret, or a development fallback locally.
func (c Config) SigningSecret() string {
	if c.JWTSecret == "" && c.IsLocal() {
		return "todohub-dev-secret"
	}
	return c.JWTSecret
}

func buildDBURL() string {
	host := getEnv("DB_HOST", "127.0.0.1")
	port := getEnv("DB_PORT", "5432")
	user := getEnv("DB_USER", "todohub")
	pass := getEnv("DB_PASSWORD", "todohub")
	name := getEnv("DB_NAME", "todohub")
	ssl := getEnv("DB_SSLMODE", "disable")

	return "postgres://" + user + ":" + pass + "@" + host + ":" + port + "/" + name + "?sslmode=" + ssl
}

// WithTimeout bounds one store round trip. A nil parent means Background.
func WithTimeout(parent context.Context, duration time.Duration) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	return context.WithTimeout(parent, duration)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}

	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}

	num, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}

	return num
}

func getEnvFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}

	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}

	return f
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}

	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}

	return d
}

func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))

	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}

	return out
}
