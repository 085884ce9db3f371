package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sandeepkv93/account-onboarding-service/internal/domain"
	"github.com/sandeepkv93/account-onboarding-service/internal/notify"
	"github.com/sandeepkv93/account-onboarding-service/internal/observability"
	"github.com/sandeepkv93/account-onboarding-service/internal/repository"
)

type RegistrationService struct {
	registry  *AccountRegistry
	tokens    *CredentialTokenService
	domains   EmailDomainValidator
	sender    notify.Sender
	templates *notify.Templates
	guard     AuthAbuseGuard
	appURL    string
	logger    *slog.Logger
}

func NewRegistrationService(
	registry *AccountRegistry,
	tokens *CredentialTokenService,
	domains EmailDomainValidator,
	sender notify.Sender,
	templates *notify.Templates,
	guard AuthAbuseGuard,
	appURL string,
	logger *slog.Logger,
) *RegistrationService {
	if domains == nil {
		domains = NewNoopEmailDomainValidator()
	}
	if guard == nil {
		guard = NewNoopAuthAbuseGuard()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &RegistrationService{
		registry:  registry,
		tokens:    tokens,
		domains:   domains,
		sender:    sender,
		templates: templates,
		guard:     guard,
		appURL:    strings.TrimRight(appURL, "/"),
		logger:    logger,
	}
}

// Register creates an unverified account and mails a set-password link.
// Phone uniqueness is checked before email. An existing unverified email
// yields ErrEmailUnverified and no new account.
func (s *RegistrationService) Register(ctx context.Context, in NewAccount) (*domain.Account, error) {
	in = in.normalized()
	kind := strings.ToLower(string(in.Kind))
	if err := in.validate(); err != nil {
		observability.RecordRegistrationEvent(ctx, kind, "invalid")
		return nil, err
	}

	if err := s.checkAvailable(ctx, in.Email, in.Phone); err != nil {
		observability.RecordRegistrationEvent(ctx, kind, registrationOutcome(err))
		return nil, err
	}

	if err := s.domains.Validate(ctx, in.Email); err != nil {
		observability.RecordRegistrationEvent(ctx, kind, "mx_rejected")
		return nil, err
	}

	account, err := s.registry.Create(ctx, in)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateAccount) {
			// Lost the race against a concurrent registration.
			if conflict := s.checkAvailable(ctx, in.Email, in.Phone); conflict != nil {
				err = conflict
			}
		}
		observability.RecordRegistrationEvent(ctx, kind, registrationOutcome(err))
		return nil, err
	}

	raw, _, err := s.tokens.Issue(ctx, account.ID)
	if err != nil {
		observability.RecordRegistrationEvent(ctx, kind, "error")
		return nil, err
	}
	s.sendSetPasswordLink(ctx, notify.KindRegistration, notify.SubjectRegistration, account, raw)
	observability.RecordRegistrationEvent(ctx, kind, "created")
	s.logger.InfoContext(ctx, "account registered", "component", "registration", "account_id", account.ID, "kind", string(account.Kind))
	return account, nil
}

// Resend issues a fresh token for an existing account. Unknown emails succeed
// silently.
func (s *RegistrationService) Resend(ctx context.Context, email string, meta RequestMeta) error {
	email = normalizeEmail(email)
	if email == "" {
		return fmt.Errorf("%w: email", ErrMissingFields)
	}
	if err := enforceCooldown(ctx, s.guard, s.logger, AuthAbuseScopeResend, email, meta.ThrottleIP()); err != nil {
		return err
	}
	registerAbuseFailure(ctx, s.guard, s.logger, AuthAbuseScopeResend, email, meta.ThrottleIP())

	account, err := s.registry.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			observability.RecordRegistrationEvent(ctx, "resend", "unknown")
			return nil
		}
		return fmt.Errorf("lookup account for resend: %w", err)
	}
	raw, _, err := s.tokens.Issue(ctx, account.ID)
	if err != nil {
		return err
	}
	s.sendSetPasswordLink(ctx, notify.KindResend, notify.SubjectResend, account, raw)
	observability.RecordRegistrationEvent(ctx, "resend", "sent")
	return nil
}

// ForgotPassword mails a set-password link to the account matching
// identifier. Unknown identifiers succeed silently; malformed ones fail with
// ErrInvalidIdentifier.
func (s *RegistrationService) ForgotPassword(ctx context.Context, identifier string, meta RequestMeta) error {
	if strings.TrimSpace(identifier) == "" {
		return fmt.Errorf("%w: identifier", ErrMissingFields)
	}
	_, value, err := ClassifyIdentifier(identifier)
	if err != nil {
		return err
	}
	if err := enforceCooldown(ctx, s.guard, s.logger, AuthAbuseScopeForgot, value, meta.ThrottleIP()); err != nil {
		return err
	}
	registerAbuseFailure(ctx, s.guard, s.logger, AuthAbuseScopeForgot, value, meta.ThrottleIP())

	account, _, err := s.registry.FindByIdentifier(ctx, value)
	if err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			observability.RecordRegistrationEvent(ctx, "forgot", "unknown")
			return nil
		}
		return fmt.Errorf("lookup account for password reset: %w", err)
	}
	raw, _, err := s.tokens.Issue(ctx, account.ID)
	if err != nil {
		return err
	}
	s.sendSetPasswordLink(ctx, notify.KindPasswordReset, notify.SubjectPasswordReset, account, raw)
	observability.RecordRegistrationEvent(ctx, "forgot", "sent")
	return nil
}

func (s *RegistrationService) checkAvailable(ctx context.Context, email, phone string) error {
	if _, err := s.registry.FindByPhone(ctx, phone); err == nil {
		return ErrPhoneInUse
	} else if !errors.Is(err, repository.ErrAccountNotFound) {
		return fmt.Errorf("check phone: %w", err)
	}
	existing, err := s.registry.FindByEmail(ctx, email)
	if err == nil {
		if existing.IsEmailVerified() {
			return ErrEmailExists
		}
		return ErrEmailUnverified
	}
	if !errors.Is(err, repository.ErrAccountNotFound) {
		return fmt.Errorf("check email: %w", err)
	}
	return nil
}

func (s *RegistrationService) sendSetPasswordLink(ctx context.Context, kind notify.Kind, subject string, account *domain.Account, raw string) {
	html, err := s.templates.SetPasswordLink(account.Name, s.SetPasswordURL(raw))
	if err != nil {
		s.logger.ErrorContext(ctx, "render set-password email failed", "component", "registration", "account_id", account.ID, "error", err.Error())
		observability.RecordNotification(ctx, string(kind), "render_error")
		return
	}
	s.sender.Dispatch(ctx, notify.Message{Kind: kind, To: account.Email, Subject: subject, HTML: html})
}

// SetPasswordURL builds the link embedded in bootstrap emails.
func (s *RegistrationService) SetPasswordURL(raw string) string {
	return s.appURL + "/set-password/" + raw
}

func registrationOutcome(err error) string {
	switch {
	case errors.Is(err, ErrPhoneInUse):
		return "phone_in_use"
	case errors.Is(err, ErrEmailExists):
		return "email_exists"
	case errors.Is(err, ErrEmailUnverified):
		return "email_unverified"
	case errors.Is(err, ErrMissingFields), errors.Is(err, ErrInvalidAccountKind):
		return "invalid"
	default:
		return "error"
	}
}
