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
	AppName  string
	AppURL   string

	DatabaseURL string

	AuthTokenTTL                  time.Duration
	AuthTokenRevokePriorOnReissue bool
	AuthBcryptCost                int
	AuthMXCheckEnabled            bool
	AuthMXLookupTimeout           time.Duration
	AuthRateLimitPerMin           int
	AuthForgotRateLimitPerMin     int
	APIRateLimitPerMin            int
	AuthAbuseFreeAttempts         int
	AuthAbuseBaseDelay            time.Duration
	AuthAbuseMultiplier           float64
	AuthAbuseMaxDelay             time.Duration
	AuthAbuseResetWindow          time.Duration
	AuthAbuseProtectionEnabled    bool

	SessionSecret   string
	SessionIssuer   string
	SessionAudience string
	SessionTTL      time.Duration

	CookieDomain       string
	CookieSecure       bool
	CookieSameSite     string
	CORSAllowedOrigins []string

	RateLimitRedisEnabled bool
	RedisAddr             string
	RedisPassword         string
	RedisDB               int
	RateLimitRedisPrefix  string

	SMTPHost        string
	SMTPPort        int
	SMTPUsername    string
	SMTPPassword    string
	SMTPFrom        string
	SMTPImplicitTLS bool

	NotifyMaxInFlight int
	NotifySendTimeout time.Duration

	GeoLookupEnabled bool
	GeoLookupBaseURL string
	GeoLookupTimeout time.Duration
	GeoCacheTTL      time.Duration

	ReadinessProbeTimeout        time.Duration
	ServerStartGracePeriod       time.Duration
	ShutdownTimeout              time.Duration
	ShutdownHTTPDrainTimeout     time.Duration
	ShutdownObservabilityTimeout time.Duration

	OTELServiceName           string
	OTELEnvironment           string
	OTELExporterOTLPEndpoint  string
	OTELExporterOTLPInsecure  bool
	OTELMetricsExportInterval time.Duration
	OTELTraceSamplingRatio    float64
	OTELMetricsEnabled        bool
	OTELTracingEnabled        bool
	OTELLogsEnabled           bool
	OTELLogLevel              string
}

func Load() (*Config, error) {
	env := getEnv("APP_ENV", "development")
	cfg := &Config{
		Env:         env,
		HTTPPort:    getEnv("HTTP_PORT", "8080"),
		AppName:     getEnv("APP_NAME", "Account Onboarding"),
		AppURL:      strings.TrimRight(getEnv("APP_URL", "http://localhost:3000"), "/"),
		DatabaseURL: os.Getenv("DATABASE_URL"),

		AuthTokenRevokePriorOnReissue: getEnvBool("AUTH_TOKEN_REVOKE_PRIOR_ON_REISSUE", true),
		AuthBcryptCost:                getEnvInt("AUTH_BCRYPT_COST", 12),
		AuthMXCheckEnabled:            getEnvBool("AUTH_MX_CHECK_ENABLED", true),
		AuthRateLimitPerMin:           getEnvInt("AUTH_RATE_LIMIT_PER_MIN", 30),
		AuthForgotRateLimitPerMin:     getEnvInt("AUTH_FORGOT_RATE_LIMIT_PER_MIN", 5),
		APIRateLimitPerMin:            getEnvInt("API_RATE_LIMIT_PER_MIN", 120),
		AuthAbuseFreeAttempts:         getEnvInt("AUTH_ABUSE_FREE_ATTEMPTS", 5),
		AuthAbuseMultiplier:           getEnvFloat("AUTH_ABUSE_MULTIPLIER", 2),
		AuthAbuseProtectionEnabled:    getEnvBool("AUTH_ABUSE_PROTECTION_ENABLED", true),

		SessionSecret:   os.Getenv("SESSION_SECRET"),
		SessionIssuer:   getEnv("SESSION_ISSUER", "account-onboarding-service"),
		SessionAudience: getEnv("SESSION_AUDIENCE", "account-onboarding-web"),

		CookieDomain:       os.Getenv("COOKIE_DOMAIN"),
		CookieSecure:       getEnvBool("COOKIE_SECURE", true),
		CookieSameSite:     strings.ToLower(getEnv("COOKIE_SAMESITE", "lax")),
		CORSAllowedOrigins: splitCSV(getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000")),

		RateLimitRedisEnabled: getEnvBool("RATE_LIMIT_REDIS_ENABLED", false),
		RedisAddr:             getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:         os.Getenv("REDIS_PASSWORD"),
		RedisDB:               getEnvInt("REDIS_DB", 0),
		RateLimitRedisPrefix:  getEnv("RATE_LIMIT_REDIS_PREFIX", "rl"),

		SMTPHost:        os.Getenv("SMTP_HOST"),
		SMTPPort:        getEnvInt("SMTP_PORT", 587),
		SMTPUsername:    os.Getenv("SMTP_USERNAME"),
		SMTPPassword:    os.Getenv("SMTP_PASSWORD"),
		SMTPFrom:        getEnv("SMTP_FROM", "no-reply@localhost"),
		SMTPImplicitTLS: getEnvBool("SMTP_IMPLICIT_TLS", false),

		NotifyMaxInFlight: getEnvInt("NOTIFY_MAX_IN_FLIGHT", 16),

		GeoLookupEnabled: getEnvBool("GEO_LOOKUP_ENABLED", true),
		GeoLookupBaseURL: strings.TrimRight(getEnv("GEO_LOOKUP_BASE_URL", "https://ipapi.co"), "/"),

		OTELServiceName:          getEnv("OTEL_SERVICE_NAME", "account-onboarding-service"),
		OTELEnvironment:          getEnv("OTEL_ENVIRONMENT", env),
		OTELExporterOTLPEndpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
		OTELExporterOTLPInsecure: getEnvBool("OTEL_EXPORTER_OTLP_INSECURE", true),
		OTELTraceSamplingRatio:   getEnvFloat("OTEL_TRACE_SAMPLING_RATIO", 1.0),
		OTELMetricsEnabled:       getEnvBool("OTEL_METRICS_ENABLED", true),
		OTELTracingEnabled:       getEnvBool("OTEL_TRACING_ENABLED", true),
		OTELLogsEnabled:          getEnvBool("OTEL_LOGS_ENABLED", true),
		OTELLogLevel:             strings.ToLower(getEnv("OTEL_LOG_LEVEL", "info")),
	}

	durations := []struct {
		key string
		def string
		dst *time.Duration
	}{
		{"AUTH_TOKEN_TTL", "1h", &cfg.AuthTokenTTL},
		{"AUTH_MX_LOOKUP_TIMEOUT", "3s", &cfg.AuthMXLookupTimeout},
		{"AUTH_ABUSE_BASE_DELAY", "2s", &cfg.AuthAbuseBaseDelay},
		{"AUTH_ABUSE_MAX_DELAY", "5m", &cfg.AuthAbuseMaxDelay},
		{"AUTH_ABUSE_RESET_WINDOW", "30m", &cfg.AuthAbuseResetWindow},
		{"SESSION_TTL", "720h", &cfg.SessionTTL},
		{"NOTIFY_SEND_TIMEOUT", "10s", &cfg.NotifySendTimeout},
		{"GEO_LOOKUP_TIMEOUT", "3s", &cfg.GeoLookupTimeout},
		{"GEO_CACHE_TTL", "24h", &cfg.GeoCacheTTL},
		{"READINESS_PROBE_TIMEOUT", "1s", &cfg.ReadinessProbeTimeout},
		{"SERVER_START_GRACE_PERIOD", "0s", &cfg.ServerStartGracePeriod},
		{"SHUTDOWN_TIMEOUT", "20s", &cfg.ShutdownTimeout},
		{"SHUTDOWN_HTTP_DRAIN_TIMEOUT", "10s", &cfg.ShutdownHTTPDrainTimeout},
		{"SHUTDOWN_OBSERVABILITY_TIMEOUT", "8s", &cfg.ShutdownObservabilityTimeout},
		{"OTEL_METRICS_EXPORT_INTERVAL", "10s", &cfg.OTELMetricsExportInterval},
	}
	for _, d := range durations {
		v, err := time.ParseDuration(getEnv(d.key, d.def))
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", d.key, err)
		}
		*d.dst = v
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
	if len(c.SessionSecret) < 32 {
		errs = append(errs, "SESSION_SECRET must be at least 32 chars")
	}
	if c.SessionTTL <= 0 || c.SessionTTL > 90*24*time.Hour {
		errs = append(errs, "SESSION_TTL must be between 1s and 90d")
	}
	// Emails promise a one hour link lifetime.
	if c.AuthTokenTTL != time.Hour {
		errs = append(errs, "AUTH_TOKEN_TTL must be 1h")
	}
	if c.AuthBcryptCost < 4 || c.AuthBcryptCost > 31 {
		errs = append(errs, "AUTH_BCRYPT_COST must be between 4 and 31")
	}
	if c.AuthMXCheckEnabled && c.AuthMXLookupTimeout <= 0 {
		errs = append(errs, "AUTH_MX_LOOKUP_TIMEOUT must be > 0")
	}
	if c.AppURL == "" {
		errs = append(errs, "APP_URL is required")
	}
	if c.AuthRateLimitPerMin <= 0 {
		errs = append(errs, "AUTH_RATE_LIMIT_PER_MIN must be > 0")
	}
	if c.AuthForgotRateLimitPerMin <= 0 {
		errs = append(errs, "AUTH_FORGOT_RATE_LIMIT_PER_MIN must be > 0")
	}
	if c.APIRateLimitPerMin <= 0 {
		errs = append(errs, "API_RATE_LIMIT_PER_MIN must be > 0")
	}
	if c.AuthAbuseProtectionEnabled {
		if c.AuthAbuseFreeAttempts < 0 {
			errs = append(errs, "AUTH_ABUSE_FREE_ATTEMPTS must be >= 0")
		}
		if c.AuthAbuseMultiplier < 1 {
			errs = append(errs, "AUTH_ABUSE_MULTIPLIER must be >= 1")
		}
		if c.AuthAbuseBaseDelay <= 0 || c.AuthAbuseMaxDelay < c.AuthAbuseBaseDelay {
			errs = append(errs, "AUTH_ABUSE_MAX_DELAY must be >= AUTH_ABUSE_BASE_DELAY > 0")
		}
		if c.AuthAbuseResetWindow <= 0 {
			errs = append(errs, "AUTH_ABUSE_RESET_WINDOW must be > 0")
		}
	}
	if c.RateLimitRedisEnabled && c.RedisAddr == "" {
		errs = append(errs, "REDIS_ADDR is required when RATE_LIMIT_REDIS_ENABLED=true")
	}
	if c.SMTPHost != "" && (c.SMTPPort <= 0 || c.SMTPPort > 65535) {
		errs = append(errs, "SMTP_PORT must be a valid port")
	}
	if c.NotifyMaxInFlight <= 0 {
		errs = append(errs, "NOTIFY_MAX_IN_FLIGHT must be > 0")
	}
	if c.NotifySendTimeout <= 0 {
		errs = append(errs, "NOTIFY_SEND_TIMEOUT must be > 0")
	}
	if c.GeoLookupEnabled && (c.GeoLookupBaseURL == "" || c.GeoLookupTimeout <= 0) {
		errs = append(errs, "GEO_LOOKUP_BASE_URL and GEO_LOOKUP_TIMEOUT are required when GEO_LOOKUP_ENABLED=true")
	}
	if c.ReadinessProbeTimeout <= 0 {
		errs = append(errs, "READINESS_PROBE_TIMEOUT must be > 0")
	}
	if c.ServerStartGracePeriod < 0 {
		errs = append(errs, "SERVER_START_GRACE_PERIOD must be >= 0")
	}
	if c.ShutdownTimeout <= 0 || c.ShutdownHTTPDrainTimeout <= 0 || c.ShutdownObservabilityTimeout <= 0 {
		errs = append(errs, "shutdown timeouts must be > 0")
	}
	if c.ShutdownHTTPDrainTimeout+c.ShutdownObservabilityTimeout > c.ShutdownTimeout {
		errs = append(errs, "SHUTDOWN_HTTP_DRAIN_TIMEOUT + SHUTDOWN_OBSERVABILITY_TIMEOUT must fit in SHUTDOWN_TIMEOUT")
	}
	if (c.OTELMetricsEnabled || c.OTELTracingEnabled || c.OTELLogsEnabled) && c.OTELExporterOTLPEndpoint == "" {
		errs = append(errs, "OTEL_EXPORTER_OTLP_ENDPOINT is required when OTel is enabled")
	}
	if c.OTELTraceSamplingRatio < 0 || c.OTELTraceSamplingRatio > 1 {
		errs = append(errs, "OTEL_TRACE_SAMPLING_RATIO must be between 0 and 1")
	}
	if c.OTELMetricsExportInterval <= 0 {
		errs = append(errs, "OTEL_METRICS_EXPORT_INTERVAL must be > 0")
	}
	if !isValidLogLevel(c.OTELLogLevel) {
		errs = append(errs, "OTEL_LOG_LEVEL must be one of debug, info, warn, error")
	}
	if c.IsProduction() {
		errs = append(errs, c.validateProduction()...)
	}
	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

func (c *Config) validateProduction() []string {
	var errs []string
	if !c.CookieSecure {
		errs = append(errs, "COOKIE_SECURE must be true in production")
	}
	if c.CookieSameSite == "none" && !c.CookieSecure {
		errs = append(errs, "COOKIE_SAMESITE=none requires COOKIE_SECURE=true")
	}
	if c.AuthBcryptCost < 12 {
		errs = append(errs, "AUTH_BCRYPT_COST must be >= 12 in production")
	}
	if !c.AuthMXCheckEnabled {
		errs = append(errs, "AUTH_MX_CHECK_ENABLED must be true in production")
	}
	if c.SMTPHost == "" {
		errs = append(errs, "SMTP_HOST is required in production")
	}
	if !strings.HasPrefix(c.AppURL, "https://") {
		errs = append(errs, "APP_URL must use https in production")
	}
	return errs
}

func (c *Config) IsProduction() bool {
	switch strings.ToLower(strings.TrimSpace(c.Env)) {
	case "production", "prod":
		return true
	default:
		return false
	}
}

func isValidLogLevel(v string) bool {
	switch strings.ToLower(v) {
	case "debug", "info", "warn", "error":
		return true
	default:
		return false
	}
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
