// Package config provides application configuration loaded from environment
// variables with defaults and validation. It centralizes settings such as the
// runtime environment, server timeouts, logging, persistence connectivity,
// failure recording bounds, alerting, and observability.
package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"
)

// Runtime environments understood by the error boundaries.
const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
	EnvTest        = "test"
)

// Supported persistence drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// CORSConfig defines Cross-Origin Resource Sharing settings.
type CORSConfig struct {
	AllowedOrigins []string
}

// SecurityConfig defines security-related settings such as HSTS.
type SecurityConfig struct {
	EnableHSTS bool
	HSTSMaxAge time.Duration
}

// DatabaseConfig defines how the persistence layer is reached.
type DatabaseConfig struct {
	Driver                 string        // DB_DRIVER: sqlite|postgres
	URL                    string        // DATABASE_URL: file path (sqlite) or DSN (postgres)
	ConnectTimeout         time.Duration // DB_CONNECT_TIMEOUT
	SocketTimeout          time.Duration // DB_SOCKET_TIMEOUT, per-operation deadline
	ServerSelectionTimeout time.Duration // DB_SERVER_SELECTION_TIMEOUT, startup ping deadline
}

// AlertConfig defines the optional Kafka sink for critical failure records.
type AlertConfig struct {
	Brokers []string // ALERT_KAFKA_BROKERS (empty disables alerts)
	Topic   string   // ALERT_KAFKA_TOPIC
}

// Enabled reports whether at least one broker is configured.
func (a AlertConfig) Enabled() bool { return len(a.Brokers) > 0 }

// OTELConfig defines OpenTelemetry observability settings.
type OTELConfig struct {
	Enabled     bool    // OTEL_ENABLED
	Endpoint    string  // OTEL_EXPORTER_OTLP_ENDPOINT (e.g. "otel:4317")
	Insecure    bool    // OTEL_EXPORTER_OTLP_INSECURE (true if no TLS)
	ServiceName string  // OTEL_SERVICE_NAME
	SampleRatio float64 // OTEL_TRACES_SAMPLER_ARG in [0..1]
}

// Config holds all configuration values for the application.
type Config struct {
	// Runtime environment: development|production|test
	Env string

	// Server
	Port              string        // just the number
	ReadTimeout       time.Duration // e.g. 15s
	ReadHeaderTimeout time.Duration // e.g. 10s
	WriteTimeout      time.Duration // e.g. 20s
	IdleTimeout       time.Duration // e.g. 60s
	MaxHeaderBytes    int           // bytes
	MaxBodyBytes      int64         // request body cap
	GinMode           string        // debug|release|test
	ShutdownGrace     time.Duration // bound on graceful shutdown

	// Logging / Docs
	LogLevel       string // debug|info|warn|error|fatal|panic
	LogPretty      bool   // pretty console logs in dev
	SwaggerEnabled bool   // enable Swagger UI route
	APIBasePath    string // base path for API routes

	// Persistence
	Database DatabaseConfig

	// Failure recording
	RecordTimeout time.Duration // bound on one failure persistence attempt

	// Web protection
	CORS     CORSConfig
	Security SecurityConfig

	// Alerting
	Alert AlertConfig

	// Observability
	OTEL OTELConfig
}

// IsDevelopment reports whether verbose error responses are enabled.
func (c Config) IsDevelopment() bool { return c.Env == EnvDevelopment }

// MustLoad loads the configuration and panics if validation fails.
func MustLoad() Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// Load reads configuration from environment variables,
// applies defaults, normalizes values, and validates the result.
func Load() (Config, error) {
	cfg := Config{
		Env: strings.ToLower(strings.TrimSpace(getenv("APP_ENV", EnvProduction))),

		// Server
		Port:              getenv("PORT", "8080"),
		ReadTimeout:       getdur("READ_TIMEOUT", 15*time.Second),
		ReadHeaderTimeout: getdur("READ_HEADER_TIMEOUT", 10*time.Second),
		WriteTimeout:      getdur("WRITE_TIMEOUT", 20*time.Second),
		IdleTimeout:       getdur("IDLE_TIMEOUT", 60*time.Second),
		MaxHeaderBytes:    getint("MAX_HEADER_BYTES", 1<<20),
		MaxBodyBytes:      int64(getint("MAX_BODY_BYTES", 10<<20)),
		GinMode:           strings.ToLower(getenv("GIN_MODE", "release")),
		ShutdownGrace:     getdur("SHUTDOWN_GRACE", 30*time.Second),

		// Logging / Docs
		LogLevel:       strings.ToLower(getenv("LOG_LEVEL", "info")),
		LogPretty:      getbool("LOG_PRETTY", false),
		SwaggerEnabled: getbool("SWAGGER_ENABLED", false),
		APIBasePath:    normalizeBasePath(getenv("API_BASE_PATH", "/api")),

		// Persistence
		Database: DatabaseConfig{
			Driver:                 strings.ToLower(getenv("DB_DRIVER", DriverSQLite)),
			URL:                    getenv("DATABASE_URL", "app.db"),
			ConnectTimeout:         getdur("DB_CONNECT_TIMEOUT", 30*time.Second),
			SocketTimeout:          getdur("DB_SOCKET_TIMEOUT", 45*time.Second),
			ServerSelectionTimeout: getdur("DB_SERVER_SELECTION_TIMEOUT", 5*time.Second),
		},

		RecordTimeout: getdur("FAILURE_RECORD_TIMEOUT", 5*time.Second),

		// Web protection
		CORS: CORSConfig{
			AllowedOrigins: splitCSV(getenv("CORS_ALLOWED_ORIGINS", "")),
		},
		Security: SecurityConfig{
			EnableHSTS: getbool("ENABLE_HSTS", false),
			HSTSMaxAge: getdur("HSTS_MAX_AGE", 180*24*time.Hour),
		},

		Alert: AlertConfig{
			Brokers: splitCSV(getenv("ALERT_KAFKA_BROKERS", "")),
			Topic:   getenv("ALERT_KAFKA_TOPIC", "failure-alerts"),
		},

		// Observability (OpenTelemetry)
		OTEL: OTELConfig{
			Enabled:     getbool("OTEL_ENABLED", false),
			Endpoint:    getenv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
			Insecure:    getbool("OTEL_EXPORTER_OTLP_INSECURE", true),
			ServiceName: getenv("OTEL_SERVICE_NAME", "go-failurelog-api"),
			SampleRatio: getfloat("OTEL_TRACES_SAMPLER_ARG", 1.0),
		},
	}

	// --- normalization ---
	if cfg.LogLevel == "warning" {
		cfg.LogLevel = "warn"
	}
	switch cfg.GinMode {
	case "debug", "release", "test":
	default:
		cfg.GinMode = "release"
	}
	switch cfg.Env {
	case "dev":
		cfg.Env = EnvDevelopment
	case "prod":
		cfg.Env = EnvProduction
	}
	if cfg.Database.Driver == "postgresql" || cfg.Database.Driver == "pg" {
		cfg.Database.Driver = DriverPostgres
	}

	// --- validation ---
	switch cfg.Env {
	case EnvDevelopment, EnvProduction, EnvTest:
	default:
		return cfg, errors.New("APP_ENV must be one of: development, production, test")
	}
	switch cfg.LogLevel {
	case "debug", "info", "warn", "error", "fatal", "panic":
	default:
		return cfg, errors.New("LOG_LEVEL must be one of: debug, info, warn, error, fatal, panic")
	}
	if strings.TrimSpace(cfg.Port) == "" {
		return cfg, errors.New("PORT must not be empty")
	}
	if cfg.ReadTimeout <= 0 || cfg.ReadHeaderTimeout <= 0 || cfg.WriteTimeout <= 0 || cfg.IdleTimeout <= 0 {
		return cfg, errors.New("timeouts must be positive durations")
	}
	if cfg.MaxHeaderBytes <= 0 {
		return cfg, errors.New("MAX_HEADER_BYTES must be > 0")
	}
	if cfg.MaxBodyBytes <= 0 {
		return cfg, errors.New("MAX_BODY_BYTES must be > 0")
	}
	if cfg.ShutdownGrace <= 0 {
		return cfg, errors.New("SHUTDOWN_GRACE must be > 0")
	}
	switch cfg.Database.Driver {
	case DriverSQLite, DriverPostgres:
	default:
		return cfg, errors.New("DB_DRIVER must be one of: sqlite, postgres")
	}
	if strings.TrimSpace(cfg.Database.URL) == "" {
		return cfg, errors.New("DATABASE_URL must not be empty")
	}
	if cfg.Database.ConnectTimeout <= 0 || cfg.Database.SocketTimeout <= 0 || cfg.Database.ServerSelectionTimeout <= 0 {
		return cfg, errors.New("database timeouts must be positive durations")
	}
	if cfg.RecordTimeout <= 0 {
		return cfg, errors.New("FAILURE_RECORD_TIMEOUT must be > 0")
	}
	if cfg.Security.HSTSMaxAge < 0 {
		return cfg, errors.New("HSTS_MAX_AGE must be >= 0")
	}
	if cfg.Alert.Enabled() && strings.TrimSpace(cfg.Alert.Topic) == "" {
		return cfg, errors.New("ALERT_KAFKA_TOPIC must not be empty when brokers are set")
	}
	if cfg.OTEL.SampleRatio < 0 || cfg.OTEL.SampleRatio > 1 {
		return cfg, errors.New("OTEL_TRACES_SAMPLER_ARG must be in [0,1]")
	}

	return cfg, nil
}

// ---- helpers (no external deps) ----

func getenv(k, def string) string {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		return v
	}
	return def
}

func getfloat(k string, def float64) float64 {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func getint(k string, def int) int {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func getbool(k string, def bool) bool {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "true", "yes", "y", "on":
			return true
		case "0", "false", "no", "n", "off":
			return false
		}
	}
	return def
}

func getdur(k string, def time.Duration) time.Duration {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func splitCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		t := strings.TrimSpace(p)
		if t != "" {
			out = append(out, t)
		}
	}
	return out
}

// normalizeBasePath ensures leading '/' and strips trailing '/' (except root).
func normalizeBasePath(p string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return "/"
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	if len(p) > 1 && strings.HasSuffix(p, "/") {
		p = strings.TrimRight(p, "/")
	}
	return p
}
