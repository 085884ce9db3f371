package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/sandeepkv93/account-onboarding-service/internal/domain"
	"github.com/sandeepkv93/account-onboarding-service/internal/notify"
	"github.com/sandeepkv93/account-onboarding-service/internal/observability"
	"github.com/sandeepkv93/account-onboarding-service/internal/repository"

	"github.com/google/uuid"
	"github.com/segmentio/ksuid"
)

type SignInInput struct {
	Identifier string
	Password   string
	Device     *domain.DeviceInfo
	Meta       RequestMeta
}

type SignInResult struct {
	Account       *domain.Account
	LoginRecordID string
	LoginToken    string
	Session       *IssuedSession
}

// SessionUser is the view of an established session returned to clients.
type SessionUser struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	Phone         string `json:"phone"`
	Name          string `json:"name"`
	LoginToken    string `json:"loginToken"`
	LoginRecordID string `json:"loginRecordId"`
}

type SignInService struct {
	registry  *AccountRegistry
	records   repository.LoginRecordRepository
	hasher    passwordHasher
	issuer    SessionIssuer
	codec     SessionCodec
	devices   *DeviceResolver
	sender    notify.Sender
	templates *notify.Templates
	guard     AuthAbuseGuard
	logger    *slog.Logger
	now       func() time.Time
	newToken  func() string
}

func NewSignInService(
	registry *AccountRegistry,
	records repository.LoginRecordRepository,
	hasher passwordHasher,
	issuer SessionIssuer,
	codec SessionCodec,
	devices *DeviceResolver,
	sender notify.Sender,
	templates *notify.Templates,
	guard AuthAbuseGuard,
	logger *slog.Logger,
) *SignInService {
	if devices == nil {
		devices = NewDeviceResolver(nil)
	}
	if guard == nil {
		guard = NewNoopAuthAbuseGuard()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &SignInService{
		registry:  registry,
		records:   records,
		hasher:    hasher,
		issuer:    issuer,
		codec:     codec,
		devices:   devices,
		sender:    sender,
		templates: templates,
		guard:     guard,
		logger:    logger,
		now:       time.Now,
		newToken:  func() string { return ksuid.New().String() },
	}
}

// SignIn evaluates the account gates in order, writes a LoginRecord and asks
// the session layer for a session bound to it.
//
// Gates: unknown account, unverified email, suspended, terminated, no
// password, password mismatch.
func (s *SignInService) SignIn(ctx context.Context, in SignInInput) (*SignInResult, error) {
	identifier := strings.TrimSpace(in.Identifier)
	if identifier == "" || in.Password == "" {
		observability.RecordSignInAttempt(ctx, "unknown", "missing_fields")
		return nil, ErrMissingFields
	}
	idKind, _, classifyErr := ClassifyIdentifier(identifier)
	idLabel := string(idKind)
	if classifyErr != nil {
		idLabel = "invalid"
	}
	if err := enforceCooldown(ctx, s.guard, s.logger, AuthAbuseScopeLogin, identifier, in.Meta.ThrottleIP()); err != nil {
		observability.RecordSignInAttempt(ctx, idLabel, "throttled")
		return nil, err
	}

	account, _, err := s.registry.FindByIdentifier(ctx, identifier)
	if err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) || errors.Is(err, ErrInvalidIdentifier) {
			s.rejectCredentials(ctx, identifier, in.Meta.ThrottleIP(), idLabel, "unknown_account")
			return nil, ErrInvalidCredentials
		}
		observability.RecordSignInAttempt(ctx, idLabel, "error")
		return nil, fmt.Errorf("lookup account: %w", err)
	}

	if account.Email != "" && !account.IsEmailVerified() {
		observability.RecordSignInAttempt(ctx, idLabel, "email_unverified")
		return nil, &UnverifiedEmailError{Email: account.Email}
	}
	if account.IsSuspended() {
		observability.RecordSignInAttempt(ctx, idLabel, "suspended")
		return nil, ErrAccountSuspended
	}
	if account.IsTerminated() {
		observability.RecordSignInAttempt(ctx, idLabel, "terminated")
		return nil, ErrAccountTerminated
	}
	if !account.HasPassword() {
		observability.RecordSignInAttempt(ctx, idLabel, "password_not_set")
		return nil, ErrPasswordNotSet
	}
	if err := s.hasher.Compare(*account.PasswordHash, in.Password); err != nil {
		s.rejectCredentials(ctx, identifier, in.Meta.ThrottleIP(), idLabel, "bad_password")
		return nil, ErrInvalidCredentials
	}

	device := s.devices.Resolve(ctx, in.Device, in.Meta)
	record := &domain.LoginRecord{
		ID:         uuid.NewString(),
		AccountID:  account.ID,
		Location:   device.Location,
		UserAgent:  device.UserAgent,
		LoginToken: s.newToken(),
		LoggedInAt: s.now().UTC(),
	}
	if device.IP != "" {
		ip := device.IP
		record.IP = &ip
	}
	if err := s.records.Create(ctx, record); err != nil {
		observability.RecordSignInAttempt(ctx, idLabel, "error")
		return nil, fmt.Errorf("create login record: %w", err)
	}

	session, err := s.issuer.IssueSession(ctx, SessionRequest{
		Identifier:    identifier,
		Password:      in.Password,
		LoginToken:    record.LoginToken,
		LoginRecordID: record.ID,
	})
	if err != nil {
		s.logger.WarnContext(ctx, "session issuance rejected", "component", "signin", "account_id", account.ID, "login_record_id", record.ID, "error", err.Error())
		if delErr := s.records.Delete(ctx, record.ID); delErr != nil {
			s.logger.ErrorContext(ctx, "login record compensation failed", "component", "signin", "login_record_id", record.ID, "error", delErr.Error())
		}
		observability.RecordSessionEvent(ctx, "issue", "rejected")
		observability.RecordSignInAttempt(ctx, idLabel, "session_rejected")
		return nil, ErrSessionRejected
	}
	observability.RecordSessionEvent(ctx, "issue", "success")
	observability.RecordSignInAttempt(ctx, idLabel, "success")
	resetAbuseGuard(ctx, s.guard, s.logger, AuthAbuseScopeLogin, identifier, in.Meta.ThrottleIP())

	s.notifyLogin(ctx, account, record.LoggedInAt, device)
	return &SignInResult{
		Account:       account,
		LoginRecordID: record.ID,
		LoginToken:    record.LoginToken,
		Session:       session,
	}, nil
}

// SignOut stamps logged_out_at on the LoginRecord bound to the session.
// Failures are logged and swallowed.
func (s *SignInService) SignOut(ctx context.Context, sessionToken string) {
	claims, err := s.codec.Parse(sessionToken)
	if err != nil {
		observability.RecordSessionEvent(ctx, "signout", "no_session")
		return
	}
	if claims.LoginRecordID == "" {
		observability.RecordSessionEvent(ctx, "signout", "unbound")
		return
	}
	if err := s.records.MarkLoggedOut(ctx, claims.LoginRecordID, s.now().UTC()); err != nil {
		s.logger.WarnContext(ctx, "mark logged out failed", "component", "signin", "login_record_id", claims.LoginRecordID, "error", err.Error())
		observability.RecordSessionEvent(ctx, "signout", "error")
		return
	}
	observability.RecordSessionEvent(ctx, "signout", "success")
}

// CurrentSession resolves a session token to its user. A missing, invalid or
// logged-out session yields nil without error.
func (s *SignInService) CurrentSession(ctx context.Context, sessionToken string) (*SessionUser, error) {
	if strings.TrimSpace(sessionToken) == "" {
		return nil, nil
	}
	claims, err := s.codec.Parse(sessionToken)
	if err != nil {
		observability.RecordSessionEvent(ctx, "lookup", "invalid")
		return nil, nil
	}
	if claims.LoginRecordID != "" {
		record, err := s.records.FindByID(ctx, claims.LoginRecordID)
		if err != nil {
			if errors.Is(err, repository.ErrLoginRecordNotFound) {
				observability.RecordSessionEvent(ctx, "lookup", "revoked")
				return nil, nil
			}
			observability.RecordSessionEvent(ctx, "lookup", "error")
			return nil, fmt.Errorf("load login record: %w", err)
		}
		if !record.Active() {
			observability.RecordSessionEvent(ctx, "lookup", "logged_out")
			return nil, nil
		}
	}
	observability.RecordSessionEvent(ctx, "lookup", "active")
	return &SessionUser{
		ID:            claims.Subject,
		Email:         claims.Email,
		Phone:         claims.Phone,
		Name:          claims.Name,
		LoginToken:    claims.LoginToken,
		LoginRecordID: claims.LoginRecordID,
	}, nil
}

func (s *SignInService) rejectCredentials(ctx context.Context, identifier, ip, idLabel, outcome string) {
	registerAbuseFailure(ctx, s.guard, s.logger, AuthAbuseScopeLogin, identifier, ip)
	observability.RecordSignInAttempt(ctx, idLabel, outcome)
}

func (s *SignInService) notifyLogin(ctx context.Context, account *domain.Account, when time.Time, device *domain.DeviceInfo) {
	html, err := s.templates.LoginAlert(account.Email, when, device)
	if err != nil {
		s.logger.ErrorContext(ctx, "render login alert failed", "component", "signin", "account_id", account.ID, "error", err.Error())
		observability.RecordNotification(ctx, string(notify.KindLoginAlert), "render_error")
		return
	}
	s.sender.Dispatch(ctx, notify.Message{
		Kind:    notify.KindLoginAlert,
		To:      account.Email,
		Subject: notify.SubjectLoginAlert,
		HTML:    html,
	})
}
