package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/sandeepkv93/account-onboarding-service/internal/domain"
	"github.com/sandeepkv93/account-onboarding-service/internal/notify"
	"github.com/sandeepkv93/account-onboarding-service/internal/repository"
	"github.com/sandeepkv93/account-onboarding-service/internal/security"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const testSessionSecret = "0123456789abcdef0123456789abcdef"

type captureSender struct {
	mu   sync.Mutex
	msgs []notify.Message
}

func (s *captureSender) Dispatch(_ context.Context, msg notify.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.msgs = append(s.msgs, msg)
}

func (s *captureSender) messages() []notify.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]notify.Message(nil), s.msgs...)
}

func (s *captureSender) last(t *testing.T) notify.Message {
	t.Helper()
	msgs := s.messages()
	if len(msgs) == 0 {
		t.Fatal("expected a dispatched message")
	}
	return msgs[len(msgs)-1]
}

// rawTokenFrom extracts the raw token from a set-password link in msg.
func rawTokenFrom(t *testing.T, msg notify.Message) string {
	t.Helper()
	_, rest, ok := strings.Cut(msg.HTML, "/set-password/")
	if !ok {
		t.Fatalf("no set-password link in %q", msg.HTML)
	}
	end := strings.IndexFunc(rest, func(r rune) bool {
		return !strings.ContainsRune("0123456789abcdef", r)
	})
	if end < 0 {
		end = len(rest)
	}
	return rest[:end]
}

type stubGeoLocator struct {
	loc   *domain.Location
	calls int
}

func (g *stubGeoLocator) Locate(context.Context, string) *domain.Location {
	g.calls++
	return g.loc
}

type onboardingFixture struct {
	db           *gorm.DB
	accounts     repository.AccountRepository
	tokenRepo    repository.CredentialTokenRepository
	records      repository.LoginRecordRepository
	registry     *AccountRegistry
	tokens       *CredentialTokenService
	hasher       *security.PasswordHasher
	jwt          *security.JWTManager
	sender       *captureSender
	mx           *stubMXResolver
	geo          *stubGeoLocator
	guard        *InMemoryAuthAbuseGuard
	registration *RegistrationService
	bootstrap    *BootstrapService
	signin       *SignInService
}

func newServiceDBForTest(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:svc_%s?mode=memory&cache=shared&_foreign_keys=on", name)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	if err := db.AutoMigrate(&domain.Account{}, &domain.CredentialToken{}, &domain.LoginRecord{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func newOnboardingFixture(t *testing.T) *onboardingFixture {
	t.Helper()
	db := newServiceDBForTest(t)
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	f := &onboardingFixture{
		db:        db,
		accounts:  repository.NewAccountRepository(db),
		tokenRepo: repository.NewCredentialTokenRepository(db),
		records:   repository.NewLoginRecordRepository(db),
		sender:    &captureSender{},
		mx: &stubMXResolver{records: map[string][]*net.MX{
			"x.com":       {{Host: "mx.x.com.", Pref: 10}},
			"example.com": {{Host: "mx.example.com.", Pref: 10}},
		}},
		geo: &stubGeoLocator{},
		guard: NewInMemoryAuthAbuseGuard(AuthAbusePolicy{
			FreeAttempts: 5,
			BaseDelay:    time.Second,
			Multiplier:   2,
			MaxDelay:     time.Minute,
			ResetWindow:  time.Hour,
		}),
	}
	tx := repository.NewTransactor(db)
	f.registry = NewAccountRegistry(f.accounts)
	f.tokens = NewCredentialTokenService(f.tokenRepo, tx, time.Hour, false)

	hasher, err := security.NewPasswordHasher(bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hasher: %v", err)
	}
	f.hasher = hasher
	f.jwt = security.NewJWTManager("test-issuer", "test-aud", testSessionSecret, time.Hour)

	templates, err := notify.NewTemplates("Test App")
	if err != nil {
		t.Fatalf("templates: %v", err)
	}
	devices := NewDeviceResolver(f.geo)
	domains := NewMXDomainValidator(f.mx, time.Second, log)

	f.registration = NewRegistrationService(f.registry, f.tokens, domains, f.sender, templates, f.guard, "https://app.test/", log)
	f.bootstrap = NewBootstrapService(f.registry, f.tokens, tx, hasher, devices, f.sender, templates, f.guard, log)
	f.signin = NewSignInService(
		f.registry,
		f.records,
		hasher,
		NewJWTSessionIssuer(f.registry, hasher, f.jwt),
		f.jwt,
		devices,
		f.sender,
		templates,
		f.guard,
		log,
	)
	return f
}

func (f *onboardingFixture) mustRegister(t *testing.T, email, phone string) (*domain.Account, string) {
	t.Helper()
	account, err := f.registration.Register(t.Context(), NewAccount{
		Kind:  domain.AccountKindIndividual,
		Name:  "Asha",
		Email: email,
		Phone: phone,
	})
	if err != nil {
		t.Fatalf("register %s: %v", email, err)
	}
	return account, rawTokenFrom(t, f.sender.last(t))
}

// mustActivate registers an account and completes set-password.
func (f *onboardingFixture) mustActivate(t *testing.T, email, phone, password string) *domain.Account {
	t.Helper()
	account, raw := f.mustRegister(t, email, phone)
	if _, err := f.bootstrap.SetPassword(t.Context(), SetPasswordInput{Token: raw, Password: password}); err != nil {
		t.Fatalf("set password: %v", err)
	}
	return account
}

func (f *onboardingFixture) loadAccount(t *testing.T, id string) *domain.Account {
	t.Helper()
	a, err := f.accounts.FindByID(t.Context(), id)
	if err != nil {
		t.Fatalf("load account %s: %v", id, err)
	}
	return a
}

func (f *onboardingFixture) countTokens(t *testing.T, accountID string) (total, unused int64) {
	t.Helper()
	if err := f.db.Model(&domain.CredentialToken{}).Where("account_id = ?", accountID).Count(&total).Error; err != nil {
		t.Fatalf("count tokens: %v", err)
	}
	if err := f.db.Model(&domain.CredentialToken{}).Where("account_id = ? AND used = ?", accountID, false).Count(&unused).Error; err != nil {
		t.Fatalf("count unused tokens: %v", err)
	}
	return total, unused
}

func (f *onboardingFixture) countLoginRecords(t *testing.T, accountID string) int64 {
	t.Helper()
	var n int64
	if err := f.db.Model(&domain.LoginRecord{}).Where("account_id = ?", accountID).Count(&n).Error; err != nil {
		t.Fatalf("count login records: %v", err)
	}
	return n
}
