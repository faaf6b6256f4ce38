// Package config provides application configuration loaded from environment
// variables with defaults and validation. It centralizes application settings
// such as server timeouts, logging, the appointment storage backend, booking
// rules, backups, rate limiting, and observability.
package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"
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

// OTELConfig defines OpenTelemetry observability settings.
type OTELConfig struct {
	Enabled     bool    // OTEL_ENABLED
	Endpoint    string  // OTEL_EXPORTER_OTLP_ENDPOINT (e.g. "otel:4317")
	Insecure    bool    // OTEL_EXPORTER_OTLP_INSECURE (true if no TLS)
	ServiceName string  // OTEL_SERVICE_NAME (e.g. "go-repair-scheduler")
	SampleRatio float64 // OTEL_TRACES_SAMPLER_ARG in [0..1]
}

// StorageConfig selects and locates the blob store holding the appointment
// collection.
type StorageConfig struct {
	Backend     string // STORAGE_BACKEND: sqlite|postgres|bolt|file|memory
	Key         string // STORAGE_KEY
	DBPath      string // DB_PATH (sqlite)
	DatabaseURL string // DATABASE_URL (postgres)
	BoltPath    string // BOLT_PATH
	Dir         string // STORAGE_DIR (file)
	StrictReads bool   // STRICT_READS: list fails instead of serving an empty collection
}

// BookingConfig holds the appointment form rules and id strategy.
type BookingConfig struct {
	IDStrategy     string // ID_STRATEGY: timestamp|snowflake|uuid
	SnowflakeNode  int64  // SNOWFLAKE_NODE in [0,1023]
	RequireFuture  bool   // REQUIRE_FUTURE
	MinClientName  int    // MIN_CLIENT_NAME_LEN (runes)
	TimeZone       string // TIME_ZONE (IANA name; empty = local)
	DefaultPageLen int    // PAGE_SIZE default for list endpoints
}

// BackupConfig schedules JSON snapshots of the collection.
type BackupConfig struct {
	Cron string // BACKUP_CRON (empty disables)
	Dir  string // BACKUP_DIR
	Keep int    // BACKUP_KEEP (newest N kept)
}

// Config holds all configuration values for the application.
type Config struct {
	// Server
	Port              string        // just the number
	ReadTimeout       time.Duration // e.g. 15s
	ReadHeaderTimeout time.Duration // e.g. 10s
	WriteTimeout      time.Duration // e.g. 20s
	IdleTimeout       time.Duration // e.g. 60s
	MaxHeaderBytes    int           // bytes
	GinMode           string        // debug|release|test

	// Logging / Docs
	LogLevel       string // debug|info|warn|error|fatal|panic
	LogPretty      bool   // pretty console logs in dev
	LogFile        string // optional rotating log file
	LogMaxSizeMB   int    // rotate after this many megabytes
	LogMaxBackups  int    // rotated files kept
	SwaggerEnabled bool   // enable Swagger UI route
	APIBasePath    string // base path for API routes

	// App
	Storage StorageConfig
	Booking BookingConfig
	Backup  BackupConfig

	// Rate limiting
	RateRPS   float64 // tokens per second (>= 0)
	RateBurst int     // bucket size (>= 1)

	// Web protection
	CORS     CORSConfig
	Security SecurityConfig

	// Idempotency
	IdempotencyTTL time.Duration // how long a given Idempotency-Key is valid

	// Observability
	OTEL OTELConfig
}

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
		// Server
		Port:              getenv("PORT", "8080"),
		ReadTimeout:       getdur("READ_TIMEOUT", 15*time.Second),
		ReadHeaderTimeout: getdur("READ_HEADER_TIMEOUT", 10*time.Second),
		WriteTimeout:      getdur("WRITE_TIMEOUT", 20*time.Second),
		IdleTimeout:       getdur("IDLE_TIMEOUT", 60*time.Second),
		MaxHeaderBytes:    getint("MAX_HEADER_BYTES", 1<<20),
		GinMode:           strings.ToLower(getenv("GIN_MODE", "release")),

		// Logging / Docs
		LogLevel:       strings.ToLower(getenv("LOG_LEVEL", "info")),
		LogPretty:      getbool("LOG_PRETTY", false),
		LogFile:        getenv("LOG_FILE", ""),
		LogMaxSizeMB:   getint("LOG_MAX_SIZE_MB", 100),
		LogMaxBackups:  getint("LOG_MAX_BACKUPS", 3),
		SwaggerEnabled: getbool("SWAGGER_ENABLED", false),
		APIBasePath:    normalizeBasePath(getenv("API_BASE_PATH", "/api/v1")),

		// App
		Storage: StorageConfig{
			Backend:     strings.ToLower(getenv("STORAGE_BACKEND", "sqlite")),
			Key:         getenv("STORAGE_KEY", "@appointments"),
			DBPath:      getenv("DB_PATH", "app.db"),
			DatabaseURL: getenv("DATABASE_URL", ""),
			BoltPath:    getenv("BOLT_PATH", "appointments.bolt"),
			Dir:         getenv("STORAGE_DIR", "data"),
			StrictReads: getbool("STRICT_READS", false),
		},
		Booking: BookingConfig{
			IDStrategy:     strings.ToLower(getenv("ID_STRATEGY", "timestamp")),
			SnowflakeNode:  int64(getint("SNOWFLAKE_NODE", 1)),
			RequireFuture:  getbool("REQUIRE_FUTURE", true),
			MinClientName:  getint("MIN_CLIENT_NAME_LEN", 3),
			TimeZone:       getenv("TIME_ZONE", ""),
			DefaultPageLen: getint("PAGE_SIZE", 50),
		},
		Backup: BackupConfig{
			Cron: strings.TrimSpace(getenv("BACKUP_CRON", "")),
			Dir:  getenv("BACKUP_DIR", "backups"),
			Keep: getint("BACKUP_KEEP", 7),
		},

		// Rate limiting
		RateRPS:   getfloat("RATE_RPS", 5.0),
		RateBurst: getint("RATE_BURST", 10),

		// Web protection
		CORS: CORSConfig{
			AllowedOrigins: splitCSV(getenv("CORS_ALLOWED_ORIGINS", "")),
		},
		Security: SecurityConfig{
			EnableHSTS: getbool("ENABLE_HSTS", false),
			HSTSMaxAge: getdur("HSTS_MAX_AGE", 180*24*time.Hour),
		},

		// Idempotency
		IdempotencyTTL: getdur("IDEMPOTENCY_TTL", 24*time.Hour),

		// Observability (OpenTelemetry)
		OTEL: OTELConfig{
			Enabled:     getbool("OTEL_ENABLED", false),
			Endpoint:    getenv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
			Insecure:    getbool("OTEL_EXPORTER_OTLP_INSECURE", true),
			ServiceName: getenv("OTEL_SERVICE_NAME", "go-repair-scheduler"),
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

	// --- validation ---
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
	if cfg.LogMaxSizeMB <= 0 || cfg.LogMaxBackups < 0 {
		return cfg, errors.New("LOG_MAX_SIZE_MB must be > 0 and LOG_MAX_BACKUPS >= 0")
	}
	switch cfg.Storage.Backend {
	case "sqlite":
		if strings.TrimSpace(cfg.Storage.DBPath) == "" {
			return cfg, errors.New("DB_PATH must not be empty")
		}
	case "postgres":
		if strings.TrimSpace(cfg.Storage.DatabaseURL) == "" {
			return cfg, errors.New("DATABASE_URL is required when STORAGE_BACKEND=postgres")
		}
	case "bolt":
		if strings.TrimSpace(cfg.Storage.BoltPath) == "" {
			return cfg, errors.New("BOLT_PATH must not be empty")
		}
	case "file":
		if strings.TrimSpace(cfg.Storage.Dir) == "" {
			return cfg, errors.New("STORAGE_DIR must not be empty")
		}
	case "memory":
	default:
		return cfg, errors.New("STORAGE_BACKEND must be one of: sqlite, postgres, bolt, file, memory")
	}
	if strings.TrimSpace(cfg.Storage.Key) == "" {
		return cfg, errors.New("STORAGE_KEY must not be empty")
	}
	switch cfg.Booking.IDStrategy {
	case "timestamp", "uuid":
	case "snowflake":
		if cfg.Booking.SnowflakeNode < 0 || cfg.Booking.SnowflakeNode > 1023 {
			return cfg, errors.New("SNOWFLAKE_NODE must be in [0,1023]")
		}
	default:
		return cfg, errors.New("ID_STRATEGY must be one of: timestamp, snowflake, uuid")
	}
	if cfg.Booking.MinClientName < 0 {
		return cfg, errors.New("MIN_CLIENT_NAME_LEN must be >= 0")
	}
	if cfg.Booking.TimeZone != "" {
		if _, err := time.LoadLocation(cfg.Booking.TimeZone); err != nil {
			return cfg, errors.New("TIME_ZONE must be a valid IANA time zone")
		}
	}
	if cfg.Booking.DefaultPageLen < 1 {
		return cfg, errors.New("PAGE_SIZE must be >= 1")
	}
	if cfg.Backup.Cron != "" && strings.TrimSpace(cfg.Backup.Dir) == "" {
		return cfg, errors.New("BACKUP_DIR must not be empty when BACKUP_CRON is set")
	}
	if cfg.Backup.Keep < 1 {
		return cfg, errors.New("BACKUP_KEEP must be >= 1")
	}
	if cfg.RateRPS < 0 {
		return cfg, errors.New("RATE_RPS must be >= 0")
	}
	if cfg.RateBurst < 1 {
		return cfg, errors.New("RATE_BURST must be >= 1")
	}
	if cfg.Security.HSTSMaxAge < 0 {
		return cfg, errors.New("HSTS_MAX_AGE must be >= 0")
	}
	if cfg.IdempotencyTTL <= 0 {
		return cfg, errors.New("IDEMPOTENCY_TTL must be > 0")
	}
	if cfg.OTEL.SampleRatio < 0 || cfg.OTEL.SampleRatio > 1 {
		return cfg, errors.New("OTEL_TRACES_SAMPLER_ARG must be in [0,1]")
	}
	// if cfg.APIBasePath == "" || cfg.APIBasePath[0] != '/' {
	// 	return cfg, errors.New("API_BASE_PATH must start with '/'")
	// }

	return cfg, nil
}

// Location returns the configured booking time zone, or time.Local.
func (b BookingConfig) Location() *time.Location {
	if b.TimeZone == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(b.TimeZone)
	if err != nil {
		return time.Local
	}
	return loc
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
