package router

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/sandeepkv93/account-onboarding-service/internal/domain"
	"github.com/sandeepkv93/account-onboarding-service/internal/health"
	"github.com/sandeepkv93/account-onboarding-service/internal/http/handler"
	"github.com/sandeepkv93/account-onboarding-service/internal/notify"
	"github.com/sandeepkv93/account-onboarding-service/internal/repository"
	"github.com/sandeepkv93/account-onboarding-service/internal/security"
	"github.com/sandeepkv93/account-onboarding-service/internal/service"
)

type captureMailer struct {
	mu   sync.Mutex
	sent []notify.Message
}

func (m *captureMailer) Send(_ context.Context, msg notify.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, msg)
	return nil
}

func (m *captureMailer) messages() []notify.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]notify.Message(nil), m.sent...)
}

type mxTable map[string][]*net.MX

func (t mxTable) LookupMX(_ context.Context, name string) ([]*net.MX, error) {
	return t[name], nil
}

type stack struct {
	t          *testing.T
	db         *gorm.DB
	mailer     *captureMailer
	dispatcher *notify.Dispatcher
	handler    http.Handler
}

func newStack(t *testing.T) *stack {
	t.Helper()
	dsn := "file:router_" + strings.ReplaceAll(t.Name(), "/", "_") + "?mode=memory&cache=shared&_foreign_keys=on"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent), TranslateError: true})
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

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	mailer := &captureMailer{}
	dispatcher := notify.NewDispatcher(mailer, log, 8, time.Second)
	templates, err := notify.NewTemplates("Test App")
	if err != nil {
		t.Fatalf("templates: %v", err)
	}
	hasher, err := security.NewPasswordHasher(bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hasher: %v", err)
	}
	jwtMgr := security.NewJWTManager("test", "test", "0123456789abcdef0123456789abcdef", time.Hour)
	guard := service.NewInMemoryAuthAbuseGuard(service.AuthAbusePolicy{
		FreeAttempts: 20, BaseDelay: time.Second, Multiplier: 2, MaxDelay: time.Minute, ResetWindow: time.Hour,
	})

	tx := repository.NewTransactor(db)
	registry := service.NewAccountRegistry(repository.NewAccountRepository(db))
	tokens := service.NewCredentialTokenService(repository.NewCredentialTokenRepository(db), tx, time.Hour, false)
	devices := service.NewDeviceResolver(service.NewNoopGeoLocator())
	domains := service.NewMXDomainValidator(mxTable{"x.com": {{Host: "mx.x.com.", Pref: 10}}}, time.Second, log)
	records := repository.NewLoginRecordRepository(db)

	registration := service.NewRegistrationService(registry, tokens, domains, dispatcher, templates, guard, "https://app.test", log)
	bootstrap := service.NewBootstrapService(registry, tokens, tx, hasher, devices, dispatcher, templates, guard, log)
	signin := service.NewSignInService(registry, records, hasher, service.NewJWTSessionIssuer(registry, hasher, jwtMgr), jwtMgr, devices, dispatcher, templates, guard, log)

	h := NewRouter(Dependencies{
		RegistrationHandler:        handler.NewRegistrationHandler(registration, log),
		PasswordHandler:            handler.NewPasswordHandler(bootstrap, log),
		AuthHandler:                handler.NewAuthHandler(signin, security.NewCookieManager("", false, "lax"), log),
		Logger:                     log,
		AuthRateLimitRPM:           1000,
		PasswordForgotRateLimitRPM: 1000,
		APIRateLimitRPM:            1000,
		Readiness:                  health.NewProbeRunner(time.Second, 0, health.NewDBChecker(db)),
	})
	return &stack{t: t, db: db, mailer: mailer, dispatcher: dispatcher, handler: h}
}

func (s *stack) do(method, path string, body any, cookies ...*http.Cookie) (*httptest.ResponseRecorder, map[string]any) {
	s.t.Helper()
	return s.doWithHeaders(method, path, body, nil, cookies...)
}

func (s *stack) doWithHeaders(method, path string, body any, headers map[string]string, cookies ...*http.Cookie) (*httptest.ResponseRecorder, map[string]any) {
	s.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			s.t.Fatalf("encode: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X) Version/17.0 Mobile Safari/604.1")
	req.RemoteAddr = "203.0.113.50:5555"
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rr := httptest.NewRecorder()
	s.handler.ServeHTTP(rr, req)
	s.dispatcher.Wait()

	var out map[string]any
	if rr.Body.Len() > 0 {
		if err := json.Unmarshal(rr.Body.Bytes(), &out); err != nil {
			s.t.Fatalf("decode %s %s: %v (%s)", method, path, err, rr.Body.String())
		}
	}
	return rr, out
}

func (s *stack) expect(rr *httptest.ResponseRecorder, status int) {
	s.t.Helper()
	if rr.Code != status {
		s.t.Fatalf("status=%d want %d body=%s", rr.Code, status, rr.Body.String())
	}
}

func (s *stack) lastLinkToken() string {
	s.t.Helper()
	msgs := s.mailer.messages()
	if len(msgs) == 0 {
		s.t.Fatal("no mail captured")
	}
	_, rest, ok := strings.Cut(msgs[len(msgs)-1].HTML, "https://app.test/set-password/")
	if !ok {
		s.t.Fatalf("no set-password link in last mail")
	}
	return rest[:64]
}

func sessionCookie(rr *httptest.ResponseRecorder) *http.Cookie {
	for _, c := range rr.Result().Cookies() {
		if c.Name == security.SessionCookieName {
			return c
		}
	}
	return nil
}

func TestBootstrapScenario(t *testing.T) {
	s := newStack(t)

	rr, body := s.do(http.MethodPost, "/api/register", map[string]any{
		"kind": "INDIVIDUAL", "name": "Asha", "email": "a@x.com", "phone": "5551234567",
	})
	s.expect(rr, http.StatusOK)
	user, _ := body["user"].(map[string]any)
	accountID, _ := user["id"].(string)
	if !strings.HasPrefix(accountID, "IND") {
		t.Fatalf("unexpected account id %q", accountID)
	}
	if msgs := s.mailer.messages(); len(msgs) != 1 || msgs[0].Subject != notify.SubjectRegistration || msgs[0].To != "a@x.com" {
		t.Fatalf("expected one registration email, got %+v", msgs)
	}
	var tokens []domain.CredentialToken
	if err := s.db.Where("account_id = ?", accountID).Find(&tokens).Error; err != nil || len(tokens) != 1 {
		t.Fatalf("expected one token, got %d err=%v", len(tokens), err)
	}
	if tokens[0].Used || time.Until(tokens[0].ExpiresAt) < 59*time.Minute {
		t.Fatalf("unexpected token state %+v", tokens[0])
	}
	raw := s.lastLinkToken()

	rr, body = s.do(http.MethodPost, "/api/set-password/verify", map[string]any{"token": strings.Repeat("0", 64)})
	s.expect(rr, http.StatusBadRequest)
	if body["valid"] != false {
		t.Fatalf("expected valid=false, got %v", body)
	}
	rr, body = s.do(http.MethodPost, "/api/set-password/verify", map[string]any{"token": raw})
	s.expect(rr, http.StatusOK)
	if body["valid"] != true {
		t.Fatalf("expected valid=true, got %v", body)
	}

	rr, _ = s.do(http.MethodPost, "/api/set-password", map[string]any{"token": raw, "password": "Abcd123!"})
	s.expect(rr, http.StatusOK)
	var account domain.Account
	if err := s.db.First(&account, "id = ?", accountID).Error; err != nil {
		t.Fatalf("load account: %v", err)
	}
	if !account.HasPassword() || !account.EmailVerified {
		t.Fatalf("expected verified account with password, got %+v", account)
	}
	hashBefore := *account.PasswordHash
	if msgs := s.mailer.messages(); msgs[len(msgs)-1].Subject != notify.SubjectPasswordChanged {
		t.Fatalf("expected password changed email, got %q", msgs[len(msgs)-1].Subject)
	}

	rr, body = s.do(http.MethodPost, "/api/set-password", map[string]any{"token": raw, "password": "Zyxw987!"})
	s.expect(rr, http.StatusBadRequest)
	if body["error"] != "Invalid or expired token" {
		t.Fatalf("expected generic token error, got %v", body)
	}
	if err := s.db.First(&account, "id = ?", accountID).Error; err != nil || *account.PasswordHash != hashBefore {
		t.Fatal("replayed token must not change the account")
	}
}

func TestRegistrationConflicts(t *testing.T) {
	s := newStack(t)
	rr, _ := s.do(http.MethodPost, "/api/register", map[string]any{
		"kind": "INDIVIDUAL", "name": "Asha", "email": "a@x.com", "phone": "5551234567",
	})
	s.expect(rr, http.StatusOK)

	rr, body := s.do(http.MethodPost, "/api/register", map[string]any{
		"kind": "INDIVIDUAL", "name": "Other", "email": "b@x.com", "phone": "5551234567",
	})
	s.expect(rr, http.StatusConflict)
	if body["code"] != "PHONE_IN_USE" {
		t.Fatalf("expected PHONE_IN_USE, got %v", body)
	}

	rr, body = s.do(http.MethodPost, "/api/register", map[string]any{
		"kind": "INDIVIDUAL", "name": "Asha", "email": "A@X.com", "phone": "5550000000",
	})
	s.expect(rr, http.StatusOK)
	if body["code"] != "EMAIL_UNVERIFIED" {
		t.Fatalf("expected EMAIL_UNVERIFIED, got %v", body)
	}
	var n int64
	s.db.Model(&domain.Account{}).Count(&n)
	if n != 1 {
		t.Fatalf("expected a single account, got %d", n)
	}

	rr, body = s.do(http.MethodPost, "/api/register", map[string]any{
		"kind": "INDIVIDUAL", "name": "C", "email": "c@nomx.test", "phone": "5550000001",
	})
	s.expect(rr, http.StatusBadRequest)
	if body["error"] != "Email domain appears invalid or has no MX records" {
		t.Fatalf("expected MX rejection, got %v", body)
	}
}

func TestSignInSessionAndSignOut(t *testing.T) {
	s := newStack(t)
	rr, body := s.do(http.MethodPost, "/api/register", map[string]any{
		"kind": "INDIVIDUAL", "name": "Asha", "email": "a@x.com", "phone": "5551234567",
	})
	s.expect(rr, http.StatusOK)

	rr, body = s.do(http.MethodPost, "/api/signin", map[string]any{"identifier": "5551234567", "password": "Abcd123!"})
	s.expect(rr, http.StatusOK)
	if body["code"] != "EMAIL_UNVERIFIED" || body["email"] != "a@x.com" {
		t.Fatalf("expected unverified gate, got %v", body)
	}

	rr, _ = s.do(http.MethodPost, "/api/set-password", map[string]any{"token": s.lastLinkToken(), "password": "Abcd123!"})
	s.expect(rr, http.StatusOK)

	rr, body = s.do(http.MethodPost, "/api/signin", map[string]any{"identifier": "a@x.com", "password": "wrong-Pass1!"})
	s.expect(rr, http.StatusUnauthorized)
	if body["message"] != "Invalid credentials" {
		t.Fatalf("expected generic credential error, got %v", body)
	}

	rr, body = s.do(http.MethodPost, "/api/signin", map[string]any{
		"identifier": "a@x.com",
		"password":   "Abcd123!",
		"deviceInfo": map[string]any{"deviceName": "Desktop", "browserName": "Firefox"},
	})
	s.expect(rr, http.StatusOK)
	recordID, _ := body["loginRecordId"].(string)
	if body["success"] != true || recordID == "" || body["loginToken"] == "" {
		t.Fatalf("unexpected sign-in body %v", body)
	}
	cookie := sessionCookie(rr)
	if cookie == nil {
		t.Fatal("expected session cookie")
	}
	var record domain.LoginRecord
	if err := s.db.First(&record, "id = ?", recordID).Error; err != nil {
		t.Fatalf("load login record: %v", err)
	}
	if record.LoggedOutAt != nil || time.Since(record.LoggedInAt) > time.Minute || record.IP == nil || *record.IP != "203.0.113.50" {
		t.Fatalf("unexpected login record %+v", record)
	}
	if msgs := s.mailer.messages(); msgs[len(msgs)-1].Subject != notify.SubjectLoginAlert {
		t.Fatalf("expected login alert, got %q", msgs[len(msgs)-1].Subject)
	}

	rr, body = s.do(http.MethodGet, "/api/session", nil, cookie)
	s.expect(rr, http.StatusOK)
	user, _ := body["user"].(map[string]any)
	if user["loginRecordId"] != recordID || user["email"] != "a@x.com" {
		t.Fatalf("unexpected session user %v", body)
	}

	rr, _ = s.do(http.MethodPost, "/api/signout", nil, cookie)
	s.expect(rr, http.StatusOK)
	if err := s.db.First(&record, "id = ?", recordID).Error; err != nil || record.LoggedOutAt == nil {
		t.Fatalf("expected logged out record, got %+v err=%v", record, err)
	}

	rr, body = s.do(http.MethodGet, "/api/session", nil, cookie)
	s.expect(rr, http.StatusOK)
	if body["success"] != true || body["user"] != nil {
		t.Fatalf("expected null user after sign-out, got %v", body)
	}
}

func TestSuspendedAccountCreatesNoLoginRecord(t *testing.T) {
	s := newStack(t)
	rr, body := s.do(http.MethodPost, "/api/register", map[string]any{
		"kind": "BUSINESS", "name": "Acme", "email": "ops@x.com", "phone": "5559990000", "taxId": "TAX-1",
	})
	s.expect(rr, http.StatusOK)
	user, _ := body["user"].(map[string]any)
	accountID, _ := user["id"].(string)

	rr, _ = s.do(http.MethodPost, "/api/set-password", map[string]any{"token": s.lastLinkToken(), "password": "Abcd123!"})
	s.expect(rr, http.StatusOK)
	if err := s.db.Model(&domain.Account{}).Where("id = ?", accountID).Update("suspended", true).Error; err != nil {
		t.Fatalf("suspend: %v", err)
	}

	rr, body = s.do(http.MethodPost, "/api/signin", map[string]any{"identifier": "ops@x.com", "password": "Abcd123!"})
	s.expect(rr, http.StatusForbidden)
	if body["message"] != "Your account has been suspended" {
		t.Fatalf("unexpected body %v", body)
	}
	if sessionCookie(rr) != nil {
		t.Fatal("no session may be issued for a suspended account")
	}
	var n int64
	s.db.Model(&domain.LoginRecord{}).Where("account_id = ?", accountID).Count(&n)
	if n != 0 {
		t.Fatalf("expected no login records, got %d", n)
	}
}

func TestRegisteredEmailIsUsableForSignInAndReset(t *testing.T) {
	s := newStack(t)

	rr, body := s.do(http.MethodPost, "/api/register", map[string]any{
		"kind": "INDIVIDUAL", "name": "Liam", "email": "o'brien@x.com", "phone": "5552223333",
	})
	s.expect(rr, http.StatusBadRequest)
	if body["error"] != "Invalid registration details" {
		t.Fatalf("expected registration to reject an unclassifiable email, got %v", body)
	}
	var n int64
	s.db.Model(&domain.Account{}).Count(&n)
	if n != 0 {
		t.Fatalf("rejected registration must not create an account, got %d", n)
	}

	email := "Liam.OBrien+work@x.com"
	rr, _ = s.do(http.MethodPost, "/api/register", map[string]any{
		"kind": "INDIVIDUAL", "name": "Liam", "email": email, "phone": "5552223333",
	})
	s.expect(rr, http.StatusOK)
	rr, _ = s.do(http.MethodPost, "/api/set-password", map[string]any{"token": s.lastLinkToken(), "password": "Abcd123!"})
	s.expect(rr, http.StatusOK)

	rr, body = s.do(http.MethodPost, "/api/signin", map[string]any{"identifier": email, "password": "Abcd123!"})
	s.expect(rr, http.StatusOK)
	if body["success"] != true {
		t.Fatalf("expected sign-in by registered email, got %v", body)
	}

	before := len(s.mailer.messages())
	rr, _ = s.do(http.MethodPost, "/api/forgot-password", map[string]any{"identifier": email})
	s.expect(rr, http.StatusOK)
	msgs := s.mailer.messages()
	if len(msgs) != before+1 || msgs[len(msgs)-1].Subject != notify.SubjectPasswordReset {
		t.Fatalf("expected a reset email for the registered address, got %+v", msgs)
	}
}

func TestSetPasswordThrottleIgnoresRotatedForwardedFor(t *testing.T) {
	s := newStack(t)

	throttled := false
	for i := 0; i < 30 && !throttled; i++ {
		rr, body := s.doWithHeaders(http.MethodPost, "/api/set-password",
			map[string]any{"token": fmt.Sprintf("%064d", i), "password": "Abcd123!"},
			map[string]string{"X-Real-Ip": "198.51.100.60", "X-Forwarded-For": fmt.Sprintf("192.0.2.%d", i+1)},
		)
		switch rr.Code {
		case http.StatusTooManyRequests:
			throttled = true
			if rr.Header().Get("Retry-After") == "" {
				t.Fatal("expected Retry-After on throttled set-password")
			}
		case http.StatusBadRequest:
			if body["code"] != "INVALID_TOKEN" {
				t.Fatalf("unexpected body %v", body)
			}
		default:
			t.Fatalf("unexpected status %d body=%v", rr.Code, body)
		}
	}
	if !throttled {
		t.Fatal("expected the proxy-resolved peer to be throttled despite rotated X-Forwarded-For")
	}
}

func TestForgotPasswordAndResendStayGeneric(t *testing.T) {
	s := newStack(t)
	for _, tc := range []struct {
		path string
		body map[string]any
	}{
		{"/api/forgot-password", map[string]any{"identifier": "ghost@x.com"}},
		{"/api/forgot-password", map[string]any{"identifier": "5550001234"}},
		{"/api/register/resend", map[string]any{"email": "ghost@x.com"}},
	} {
		rr, body := s.do(http.MethodPost, tc.path, tc.body)
		s.expect(rr, http.StatusOK)
		if body["ok"] != true {
			t.Fatalf("%s: expected ok, got %v", tc.path, body)
		}
	}
	if n := len(s.mailer.messages()); n != 0 {
		t.Fatalf("unknown identifiers must not send mail, got %d", n)
	}

	rr, body := s.do(http.MethodPost, "/api/forgot-password", map[string]any{"identifier": "not-an-id"})
	s.expect(rr, http.StatusBadRequest)
	if body["error"] != "Please provide a valid email or phone" {
		t.Fatalf("unexpected body %v", body)
	}
}

func TestHealthEndpoints(t *testing.T) {
	s := newStack(t)
	rr, body := s.do(http.MethodGet, "/health/live", nil)
	s.expect(rr, http.StatusOK)
	if body["status"] != "ok" {
		t.Fatalf("unexpected live body %v", body)
	}
	rr, body = s.do(http.MethodGet, "/health/ready", nil)
	s.expect(rr, http.StatusOK)
	if body["status"] != "ready" {
		t.Fatalf("unexpected ready body %v", body)
	}
	if rr.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Fatal("expected security headers on every route")
	}
}
