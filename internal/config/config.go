package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Env      string
	HTTPPort string
	LogLevel string

	DatabaseURL string

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	// CacheOpTimeout caps every Redis call on the auth path; a hung cache
	// must surface as a fast ServiceUnavailable, not a stalled login.
	CacheOpTimeout time.Duration

	JWTIssuer   string
	JWTAudience string
	JWTSecret   string
	JWTTTL      time.Duration

	LockoutMaxAttempts int
	LockoutWindow      time.Duration
	ReauthTTL          time.Duration

	PasswordHistoryLimit int
	PasswordMinAge       time.Duration

	BootstrapAdminEmail    string
	BootstrapAdminPassword string
	CORSAllowedOrigins     []string
	AuthRateLimitPerMin int
	APIRateLimitPerMin  int

	ReadinessProbeTimeout  time.Duration
	ServerStartGracePeriod time.Duration

	OTELServiceName           string
	OTELEnvironment           string
	OTELExporterOTLPEndpoint  string
	OTELExporterOTLPInsecure  bool
	OTELMetricsExportInterval time.Duration
	OTELTraceSamplingRatio    float64
	OTELMetricsEnabled        bool
	OTELTracingEnabled        bool
}

func Load() (*Config, error) {
	env := getEnv("APP_ENV", "development")

	cfg := &Config{
		Env:                      env,
		HTTPPort:                 getEnv("HTTP_PORT", "8080"),
		LogLevel:                 strings.ToLower(getEnv("LOG_LEVEL", "info")),
		DatabaseURL:              os.Getenv("DATABASE_URL"),
		RedisAddr:                getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:            os.Getenv("REDIS_PASSWORD"),
		RedisDB:                  getEnvInt("REDIS_DB", 0),
		JWTIssuer:                getEnv("JWT_ISSUER", "enrollment-auth-service"),
		JWTAudience:              getEnv("JWT_AUDIENCE", "enrollment-services"),
		JWTSecret:                os.Getenv("JWT_SECRET"),
		LockoutMaxAttempts:       getEnvInt("LOCKOUT_MAX_ATTEMPTS", 5),
		PasswordHistoryLimit:     getEnvInt("PASSWORD_HISTORY_LIMIT", 5),
		BootstrapAdminEmail:      strings.TrimSpace(os.Getenv("BOOTSTRAP_ADMIN_EMAIL")),
		BootstrapAdminPassword:   os.Getenv("BOOTSTRAP_ADMIN_PASSWORD"),
		CORSAllowedOrigins:       splitCSV(getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000")),
		AuthRateLimitPerMin:      getEnvInt("AUTH_RATE_LIMIT_PER_MIN", 30),
		APIRateLimitPerMin:       getEnvInt("API_RATE_LIMIT_PER_MIN", 120),
		OTELServiceName:          getEnv("OTEL_SERVICE_NAME", "enrollment-auth-service"),
		OTELEnvironment:          getEnv("OTEL_ENVIRONMENT", env),
		OTELExporterOTLPEndpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
		OTELExporterOTLPInsecure: getEnvBool("OTEL_EXPORTER_OTLP_INSECURE", true),
		OTELTraceSamplingRatio:   getEnvFloat("OTEL_TRACE_SAMPLING_RATIO", 1.0),
		OTELMetricsEnabled:       getEnvBool("OTEL_METRICS_ENABLED", false),
		OTELTracingEnabled:       getEnvBool("OTEL_TRACING_ENABLED", false),
	}

	var err error
	if cfg.JWTTTL, err = parseDurationEnv("JWT_TTL", "24h"); err != nil {
		return nil, err
	}
	if cfg.LockoutWindow, err = parseDurationEnv("LOCKOUT_WINDOW", "15m"); err != nil {
		return nil, err
	}
	if cfg.ReauthTTL, err = parseDurationEnv("REAUTH_TTL", "5m"); err != nil {
		return nil, err
	}
	if cfg.PasswordMinAge, err = parseDurationEnv("PASSWORD_MIN_AGE", "24h"); err != nil {
		return nil, err
	}
	if cfg.CacheOpTimeout, err = parseDurationEnv("CACHE_OP_TIMEOUT", "2s"); err != nil {
		return nil, err
	}
	if cfg.OTELMetricsExportInterval, err = parseDurationEnv("OTEL_METRICS_EXPORT_INTERVAL", "10s"); err != nil {
		return nil, err
	}
	if cfg.ReadinessProbeTimeout, err = parseDurationEnv("READINESS_PROBE_TIMEOUT", "2s"); err != nil {
		return nil, err
	}
	if cfg.ServerStartGracePeriod, err = parseDurationEnv("SERVER_START_GRACE_PERIOD", "0s"); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	var errs []string
	if c.DatabaseURL == "" {
		errs = append(errs, "DATABASE_URL is required")
	}
	if len(c.JWTSecret) < 32 {
		errs = append(errs, "JWT_SECRET must be at least 32 chars")
	}
	if c.RedisAddr == "" {
		errs = append(errs, "REDIS_ADDR is required")
	}
	if c.JWTTTL <= 0 || c.JWTTTL > 7*24*time.Hour {
		errs = append(errs, "JWT_TTL must be between 1s and 168h")
	}
	if c.LockoutMaxAttempts <= 0 {
		errs = append(errs, "LOCKOUT_MAX_ATTEMPTS must be > 0")
	}
	if c.LockoutWindow <= 0 {
		errs = append(errs, "LOCKOUT_WINDOW must be > 0")
	}
	if c.ReauthTTL <= 0 || c.ReauthTTL > time.Hour {
		errs = append(errs, "REAUTH_TTL must be between 1s and 1h")
	}
	if c.PasswordHistoryLimit <= 0 {
		errs = append(errs, "PASSWORD_HISTORY_LIMIT must be > 0")
	}
	if c.PasswordMinAge < 0 {
		errs = append(errs, "PASSWORD_MIN_AGE must be >= 0")
	}
	if c.CacheOpTimeout <= 0 || c.CacheOpTimeout > 30*time.Second {
		errs = append(errs, "CACHE_OP_TIMEOUT must be between 1ms and 30s")
	}
	if c.AuthRateLimitPerMin <= 0 {
		errs = append(errs, "AUTH_RATE_LIMIT_PER_MIN must be > 0")
	}
	if c.APIRateLimitPerMin <= 0 {
		errs = append(errs, "API_RATE_LIMIT_PER_MIN must be > 0")
	}
	if c.BootstrapAdminEmail != "" && c.BootstrapAdminPassword == "" {
		errs = append(errs, "BOOTSTRAP_ADMIN_PASSWORD is required when BOOTSTRAP_ADMIN_EMAIL is set")
	}
	if (c.OTELMetricsEnabled || c.OTELTracingEnabled) && c.OTELExporterOTLPEndpoint == "" {
		errs = append(errs, "OTEL_EXPORTER_OTLP_ENDPOINT is required when OTel is enabled")
	}
	if c.OTELTraceSamplingRatio < 0 || c.OTELTraceSamplingRatio > 1 {
		errs = append(errs, "OTEL_TRACE_SAMPLING_RATIO must be between 0 and 1")
	}
	if !isValidLogLevel(c.LogLevel) {
		errs = append(errs, "LOG_LEVEL must be one of debug, info, warn, error")
	}
	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

func isValidLogLevel(v string) bool {
	switch v {
	case "debug", "info", "warn", "error":
		return true
	default:
		return false
	}
}

func parseDurationEnv(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(getEnv(key, def))
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	return d, nil
}

func getEnv(key, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}

func getEnvBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func getEnvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func getEnvFloat(key string, def float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return def
	}
	return f
}

func splitCSV(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		trim := strings.TrimSpace(p)
		if trim != "" {
			out = append(out, trim)
		}
	}
	return out
}
