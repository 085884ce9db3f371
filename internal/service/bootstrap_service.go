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
	"github.com/sandeepkv93/account-onboarding-service/internal/security"
)

type passwordHasher interface {
	Hash(password string) (string, error)
	Compare(hash, password string) error
}

type SetPasswordInput struct {
	Token    string
	Password string
	Device   *domain.DeviceInfo
	Meta     RequestMeta
}

// BootstrapService moves an account from registered to password set by
// redeeming a bootstrap token.
type BootstrapService struct {
	registry  *AccountRegistry
	tokens    *CredentialTokenService
	tx        repository.Transactor
	hasher    passwordHasher
	devices   *DeviceResolver
	sender    notify.Sender
	templates *notify.Templates
	guard     AuthAbuseGuard
	logger    *slog.Logger
}

func NewBootstrapService(
	registry *AccountRegistry,
	tokens *CredentialTokenService,
	tx repository.Transactor,
	hasher passwordHasher,
	devices *DeviceResolver,
	sender notify.Sender,
	templates *notify.Templates,
	guard AuthAbuseGuard,
	logger *slog.Logger,
) *BootstrapService {
	if devices == nil {
		devices = NewDeviceResolver(nil)
	}
	if guard == nil {
		guard = NewNoopAuthAbuseGuard()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &BootstrapService{
		registry:  registry,
		tokens:    tokens,
		tx:        tx,
		hasher:    hasher,
		devices:   devices,
		sender:    sender,
		templates: templates,
		guard:     guard,
		logger:    logger,
	}
}

// Verify reports whether raw is currently redeemable. It never mutates.
func (s *BootstrapService) Verify(ctx context.Context, raw string) error {
	if strings.TrimSpace(raw) == "" {
		observability.RecordBootstrapEvent(ctx, "verify", "missing")
		return fmt.Errorf("%w: token", ErrMissingFields)
	}
	if _, err := s.tokens.Validate(ctx, raw); err != nil {
		observability.RecordBootstrapEvent(ctx, "verify", "invalid")
		return err
	}
	observability.RecordBootstrapEvent(ctx, "verify", "valid")
	return nil
}

// SetPassword redeems the token, stores the password hash and returns the
// account id. Token consumption and the account update commit together; the
// confirmation email is best effort. Throttling is keyed on the token hash
// and the peer address, never on client supplied forwarding headers.
func (s *BootstrapService) SetPassword(ctx context.Context, in SetPasswordInput) (string, error) {
	if strings.TrimSpace(in.Token) == "" || in.Password == "" {
		observability.RecordBootstrapEvent(ctx, "set_password", "missing")
		return "", ErrMissingFields
	}
	identity, peer := security.HashToken(strings.TrimSpace(in.Token)), in.Meta.ThrottleIP()
	if err := enforceCooldown(ctx, s.guard, s.logger, AuthAbuseScopeSetPassword, identity, peer); err != nil {
		observability.RecordBootstrapEvent(ctx, "set_password", "throttled")
		return "", err
	}

	token, err := s.tokens.Validate(ctx, in.Token)
	if err != nil {
		if errors.Is(err, ErrInvalidToken) {
			registerAbuseFailure(ctx, s.guard, s.logger, AuthAbuseScopeSetPassword, identity, peer)
		}
		observability.RecordBootstrapEvent(ctx, "set_password", "invalid_token")
		return "", err
	}
	if err := validatePassword(in.Password); err != nil {
		observability.RecordBootstrapEvent(ctx, "set_password", "weak_password")
		return "", err
	}
	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		observability.RecordBootstrapEvent(ctx, "set_password", "error")
		return "", fmt.Errorf("hash password: %w", err)
	}

	err = s.tx.InTx(ctx, func(ctx context.Context) error {
		if err := s.tokens.Consume(ctx, token.ID); err != nil {
			return err
		}
		if err := s.registry.MarkVerifiedWithPassword(ctx, token.AccountID, hash); err != nil {
			return fmt.Errorf("mark account verified: %w", err)
		}
		_, err := s.tokens.RevokeOutstanding(ctx, token.AccountID)
		return err
	})
	if err != nil {
		if errors.Is(err, ErrInvalidToken) {
			observability.RecordBootstrapEvent(ctx, "set_password", "invalid_token")
		} else {
			observability.RecordBootstrapEvent(ctx, "set_password", "error")
		}
		return "", err
	}
	observability.RecordBootstrapEvent(ctx, "set_password", "success")
	resetAbuseGuard(ctx, s.guard, s.logger, AuthAbuseScopeSetPassword, identity, peer)
	s.logger.InfoContext(ctx, "account password set", "component", "bootstrap", "account_id", token.AccountID)

	s.notifyPasswordChanged(ctx, token.AccountID, in)
	return token.AccountID, nil
}

func (s *BootstrapService) notifyPasswordChanged(ctx context.Context, accountID string, in SetPasswordInput) {
	account, err := s.registry.FindByID(ctx, accountID)
	if err != nil {
		s.logger.WarnContext(ctx, "password changed email skipped", "component", "bootstrap", "account_id", accountID, "error", err.Error())
		return
	}
	device := s.devices.Resolve(ctx, in.Device, in.Meta)
	html, err := s.templates.PasswordChanged(account.Email, device)
	if err != nil {
		s.logger.ErrorContext(ctx, "render password changed email failed", "component", "bootstrap", "account_id", accountID, "error", err.Error())
		observability.RecordNotification(ctx, string(notify.KindPasswordChanged), "render_error")
		return
	}
	s.sender.Dispatch(ctx, notify.Message{
		Kind:    notify.KindPasswordChanged,
		To:      account.Email,
		Subject: notify.SubjectPasswordChanged,
		HTML:    html,
	})
}
