package di

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/google/wire"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/sandeepkv93/account-onboarding-service/internal/app"
	"github.com/sandeepkv93/account-onboarding-service/internal/config"
	"github.com/sandeepkv93/account-onboarding-service/internal/database"
	"github.com/sandeepkv93/account-onboarding-service/internal/health"
	"github.com/sandeepkv93/account-onboarding-service/internal/http/handler"
	"github.com/sandeepkv93/account-onboarding-service/internal/http/middleware"
	"github.com/sandeepkv93/account-onboarding-service/internal/http/router"
	"github.com/sandeepkv93/account-onboarding-service/internal/notify"
	"github.com/sandeepkv93/account-onboarding-service/internal/observability"
	"github.com/sandeepkv93/account-onboarding-service/internal/repository"
	"github.com/sandeepkv93/account-onboarding-service/internal/security"
	"github.com/sandeepkv93/account-onboarding-service/internal/service"
)

var ConfigSet = wire.NewSet(config.Load)

var ObservabilitySet = wire.NewSet(
	provideObservabilityRuntime,
	provideAppLogger,
)

var RuntimeInfraSet = wire.NewSet(
	provideRuntimeDB,
	provideRedisClient,
	provideMailer,
	provideReadinessProbeRunner,
)

var RepositorySet = wire.NewSet(
	repository.NewAccountRepository,
	repository.NewCredentialTokenRepository,
	repository.NewLoginRecordRepository,
	repository.NewTransactor,
)

var SecuritySet = wire.NewSet(
	providePasswordHasher,
	provideJWTManager,
	provideCookieManager,
)

var NotifySet = wire.NewSet(
	provideDispatcher,
	provideTemplates,
	wire.Bind(new(notify.Sender), new(*notify.Dispatcher)),
)

var ServiceSet = wire.NewSet(
	service.NewAccountRegistry,
	provideCredentialTokenService,
	provideEmailDomainValidator,
	provideGeoLocator,
	service.NewDeviceResolver,
	provideAuthAbuseGuard,
	provideSessionIssuer,
	provideRegistrationService,
	provideBootstrapService,
	provideSignInService,
	wire.Bind(new(service.RegistrationServiceInterface), new(*service.RegistrationService)),
	wire.Bind(new(service.BootstrapServiceInterface), new(*service.BootstrapService)),
	wire.Bind(new(service.SignInServiceInterface), new(*service.SignInService)),
)

var HTTPSet = wire.NewSet(
	handler.NewRegistrationHandler,
	handler.NewPasswordHandler,
	handler.NewAuthHandler,
	provideGlobalRateLimiter,
	provideAuthRateLimiter,
	provideForgotRateLimiter,
	provideRouterDependencies,
	router.NewRouter,
	provideHTTPServer,
)

var AppSet = wire.NewSet(app.New)

func provideObservabilityRuntime(cfg *config.Config) (*observability.Runtime, error) {
	bootstrapLogger := observability.NewBootstrapLogger(cfg)
	return observability.InitRuntime(context.Background(), cfg, bootstrapLogger)
}

func provideAppLogger(cfg *config.Config, runtime *observability.Runtime) *slog.Logger {
	return observability.InitLogger(cfg, runtime.LoggerProvider)
}

// provideRuntimeDB opens the database and applies the schema. Seeding is left
// to cmd/seed so production never receives demo accounts.
func provideRuntimeDB(cfg *config.Config) (*gorm.DB, error) {
	db, err := database.Open(cfg)
	if err != nil {
		return nil, err
	}
	if err := database.Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

func provideRedisClient(cfg *config.Config) redis.UniversalClient {
	if !cfg.RateLimitRedisEnabled {
		return nil
	}
	return redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
}

// provideMailer sends through SMTP when SMTP_HOST is set and logs messages
// otherwise.
func provideMailer(cfg *config.Config, logger *slog.Logger) (notify.Mailer, error) {
	if cfg.SMTPHost == "" {
		return notify.NewLogMailer(logger), nil
	}
	mailer, err := notify.NewSMTPMailer(notify.SMTPConfig{
		Host:        cfg.SMTPHost,
		Port:        cfg.SMTPPort,
		Username:    cfg.SMTPUsername,
		Password:    cfg.SMTPPassword,
		From:        cfg.SMTPFrom,
		ImplicitTLS: cfg.SMTPImplicitTLS,
		DialTimeout: cfg.NotifySendTimeout,
	})
	if err != nil {
		return nil, err
	}
	return mailer, nil
}

func provideDispatcher(cfg *config.Config, mailer notify.Mailer, logger *slog.Logger) *notify.Dispatcher {
	return notify.NewDispatcher(mailer, logger, int64(cfg.NotifyMaxInFlight), cfg.NotifySendTimeout)
}

func provideTemplates(cfg *config.Config) (*notify.Templates, error) {
	return notify.NewTemplates(cfg.AppName)
}

func providePasswordHasher(cfg *config.Config) (*security.PasswordHasher, error) {
	return security.NewPasswordHasher(cfg.AuthBcryptCost)
}

func provideJWTManager(cfg *config.Config) *security.JWTManager {
	return security.NewJWTManager(cfg.SessionIssuer, cfg.SessionAudience, cfg.SessionSecret, cfg.SessionTTL)
}

func provideCookieManager(cfg *config.Config) *security.CookieManager {
	return security.NewCookieManager(cfg.CookieDomain, cfg.CookieSecure, cfg.CookieSameSite)
}

func provideCredentialTokenService(cfg *config.Config, repo repository.CredentialTokenRepository, tx repository.Transactor) *service.CredentialTokenService {
	return service.NewCredentialTokenService(repo, tx, cfg.AuthTokenTTL, cfg.AuthTokenRevokePriorOnReissue)
}

func provideEmailDomainValidator(cfg *config.Config, logger *slog.Logger) service.EmailDomainValidator {
	if !cfg.AuthMXCheckEnabled {
		return service.NewNoopEmailDomainValidator()
	}
	return service.NewMXDomainValidator(net.DefaultResolver, cfg.AuthMXLookupTimeout, logger)
}

func provideGeoLocator(cfg *config.Config, redisClient redis.UniversalClient, logger *slog.Logger) service.GeoLocator {
	if !cfg.GeoLookupEnabled {
		return service.NewNoopGeoLocator()
	}
	var cache service.GeoCacheStore = service.NewInMemoryGeoCacheStore()
	if cfg.RateLimitRedisEnabled && redisClient != nil {
		cache = service.NewRedisGeoCacheStore(redisClient, cfg.RateLimitRedisPrefix+":geo")
	}
	return service.NewHTTPGeoLocator(service.HTTPGeoLocatorConfig{
		BaseURL:  cfg.GeoLookupBaseURL,
		Timeout:  cfg.GeoLookupTimeout,
		CacheTTL: cfg.GeoCacheTTL,
	}, cache, logger)
}

func provideAuthAbuseGuard(cfg *config.Config, redisClient redis.UniversalClient) service.AuthAbuseGuard {
	if !cfg.AuthAbuseProtectionEnabled {
		return service.NewNoopAuthAbuseGuard()
	}
	policy := service.AuthAbusePolicy{
		FreeAttempts: cfg.AuthAbuseFreeAttempts,
		BaseDelay:    cfg.AuthAbuseBaseDelay,
		Multiplier:   cfg.AuthAbuseMultiplier,
		MaxDelay:     cfg.AuthAbuseMaxDelay,
		ResetWindow:  cfg.AuthAbuseResetWindow,
	}
	if cfg.RateLimitRedisEnabled && redisClient != nil {
		return service.NewRedisAuthAbuseGuard(redisClient, cfg.RateLimitRedisPrefix+":abuse", policy)
	}
	return service.NewInMemoryAuthAbuseGuard(policy)
}

func provideSessionIssuer(registry *service.AccountRegistry, hasher *security.PasswordHasher, jwt *security.JWTManager) service.SessionIssuer {
	return service.NewJWTSessionIssuer(registry, hasher, jwt)
}

func provideRegistrationService(
	cfg *config.Config,
	registry *service.AccountRegistry,
	tokens *service.CredentialTokenService,
	domains service.EmailDomainValidator,
	sender notify.Sender,
	templates *notify.Templates,
	guard service.AuthAbuseGuard,
	logger *slog.Logger,
) *service.RegistrationService {
	return service.NewRegistrationService(registry, tokens, domains, sender, templates, guard, cfg.AppURL, logger)
}

func provideBootstrapService(
	registry *service.AccountRegistry,
	tokens *service.CredentialTokenService,
	tx repository.Transactor,
	hasher *security.PasswordHasher,
	devices *service.DeviceResolver,
	sender notify.Sender,
	templates *notify.Templates,
	guard service.AuthAbuseGuard,
	logger *slog.Logger,
) *service.BootstrapService {
	return service.NewBootstrapService(registry, tokens, tx, hasher, devices, sender, templates, guard, logger)
}

func provideSignInService(
	registry *service.AccountRegistry,
	records repository.LoginRecordRepository,
	hasher *security.PasswordHasher,
	issuer service.SessionIssuer,
	jwt *security.JWTManager,
	devices *service.DeviceResolver,
	sender notify.Sender,
	templates *notify.Templates,
	guard service.AuthAbuseGuard,
	logger *slog.Logger,
) *service.SignInService {
	return service.NewSignInService(registry, records, hasher, issuer, jwt, devices, sender, templates, guard, logger)
}

// provideGlobalRateLimiter keys signed-in callers by account so a shared NAT
// does not exhaust their quota.
func provideGlobalRateLimiter(cfg *config.Config, redisClient redis.UniversalClient, jwt *security.JWTManager) router.GlobalRateLimiterFunc {
	return rateLimitMiddleware(cfg, redisClient, "api", cfg.APIRateLimitPerMin, middleware.FailOpen, middleware.SessionOrIPKeyFunc(jwt))
}

func provideAuthRateLimiter(cfg *config.Config, redisClient redis.UniversalClient) router.AuthRateLimiterFunc {
	return rateLimitMiddleware(cfg, redisClient, "auth", cfg.AuthRateLimitPerMin, middleware.FailClosed, middleware.IPKeyFunc)
}

func provideForgotRateLimiter(cfg *config.Config, redisClient redis.UniversalClient) router.ForgotRateLimiterFunc {
	return rateLimitMiddleware(cfg, redisClient, "forgot", cfg.AuthForgotRateLimitPerMin, middleware.FailClosed, middleware.IPKeyFunc)
}

func rateLimitMiddleware(
	cfg *config.Config,
	redisClient redis.UniversalClient,
	scope string,
	limit int,
	mode middleware.FailureMode,
	keyFunc middleware.KeyFunc,
) func(http.Handler) http.Handler {
	var limiter middleware.Limiter
	if cfg.RateLimitRedisEnabled && redisClient != nil {
		limiter = middleware.NewRedisFixedWindowLimiter(redisClient, cfg.RateLimitRedisPrefix+":"+scope)
	} else {
		limiter = middleware.NewLocalFixedWindowLimiter()
	}
	return middleware.NewDistributedRateLimiterWithKey(limiter, limit, time.Minute, mode, scope, keyFunc).Middleware()
}

func provideRouterDependencies(
	registrationHandler *handler.RegistrationHandler,
	passwordHandler *handler.PasswordHandler,
	authHandler *handler.AuthHandler,
	globalRateLimiter router.GlobalRateLimiterFunc,
	authRateLimiter router.AuthRateLimiterFunc,
	forgotRateLimiter router.ForgotRateLimiterFunc,
	readiness *health.ProbeRunner,
	logger *slog.Logger,
	cfg *config.Config,
) router.Dependencies {
	return router.Dependencies{
		RegistrationHandler:        registrationHandler,
		PasswordHandler:            passwordHandler,
		AuthHandler:                authHandler,
		Logger:                     logger,
		CORSOrigins:                cfg.CORSAllowedOrigins,
		AuthRateLimitRPM:           cfg.AuthRateLimitPerMin,
		PasswordForgotRateLimitRPM: cfg.AuthForgotRateLimitPerMin,
		APIRateLimitRPM:            cfg.APIRateLimitPerMin,
		GlobalRateLimiter:          globalRateLimiter,
		AuthRateLimiter:            authRateLimiter,
		ForgotRateLimiter:          forgotRateLimiter,
		Readiness:                  readiness,
		EnableOTelHTTP:             cfg.OTELMetricsEnabled || cfg.OTELTracingEnabled,
	}
}

func provideHTTPServer(cfg *config.Config, h http.Handler) *http.Server {
	return &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           h,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
	}
}

func provideReadinessProbeRunner(cfg *config.Config, db *gorm.DB, redisClient redis.UniversalClient, mailer notify.Mailer) *health.ProbeRunner {
	checkers := []health.Checker{health.NewDBChecker(db)}
	if cfg.RateLimitRedisEnabled {
		checkers = append(checkers, health.NewRedisChecker(redisClient))
	}
	if pinger, ok := mailer.(health.Pinger); ok {
		checkers = append(checkers, health.NewSMTPChecker(pinger))
	}
	return health.NewProbeRunner(cfg.ReadinessProbeTimeout, cfg.ServerStartGracePeriod, checkers...)
}
