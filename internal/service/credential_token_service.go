package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sandeepkv93/account-onboarding-service/internal/domain"
	"github.com/sandeepkv93/account-onboarding-service/internal/observability"
	"github.com/sandeepkv93/account-onboarding-service/internal/repository"
	"github.com/sandeepkv93/account-onboarding-service/internal/security"
)

const (
	// 256 bits of entropy; the raw token is its hex form.
	rawTokenBytes = 32

	DefaultCredentialTokenTTL = time.Hour
)

// CredentialTokenService issues and redeems single-use bootstrap tokens.
// Only SHA-256 digests are stored; raw tokens exist in memory and in the
// emailed link.
type CredentialTokenService struct {
	repo        repository.CredentialTokenRepository
	tx          repository.Transactor
	ttl         time.Duration
	revokePrior bool
	now         func() time.Time
}

func NewCredentialTokenService(repo repository.CredentialTokenRepository, tx repository.Transactor, ttl time.Duration, revokePrior bool) *CredentialTokenService {
	if ttl <= 0 {
		ttl = DefaultCredentialTokenTTL
	}
	return &CredentialTokenService{repo: repo, tx: tx, ttl: ttl, revokePrior: revokePrior, now: time.Now}
}

// Issue stores a fresh token for accountID and returns the raw value.
func (s *CredentialTokenService) Issue(ctx context.Context, accountID string) (string, time.Time, error) {
	raw, err := security.NewRandomString(rawTokenBytes)
	if err != nil {
		observability.RecordCredentialTokenEvent(ctx, "issue", "error")
		return "", time.Time{}, fmt.Errorf("generate credential token: %w", err)
	}
	now := s.now().UTC()
	token := &domain.CredentialToken{
		AccountID: accountID,
		TokenHash: security.HashToken(raw),
		ExpiresAt: now.Add(s.ttl),
	}
	err = s.tx.InTx(ctx, func(ctx context.Context) error {
		if s.revokePrior {
			revoked, err := s.repo.InvalidateActiveByAccount(ctx, accountID, now)
			if err != nil {
				return fmt.Errorf("revoke outstanding tokens: %w", err)
			}
			if revoked > 0 {
				observability.RecordCredentialTokenEvent(ctx, "revoke", "success")
			}
		}
		return s.repo.Create(ctx, token)
	})
	if err != nil {
		observability.RecordCredentialTokenEvent(ctx, "issue", "error")
		return "", time.Time{}, fmt.Errorf("store credential token: %w", err)
	}
	observability.RecordCredentialTokenEvent(ctx, "issue", "success")
	return raw, token.ExpiresAt, nil
}

// Validate resolves a raw token to its unused, unexpired row. Missing,
// expired and used tokens all yield ErrInvalidToken.
func (s *CredentialTokenService) Validate(ctx context.Context, raw string) (*domain.CredentialToken, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		observability.RecordCredentialTokenEvent(ctx, "validate", "invalid")
		return nil, ErrInvalidToken
	}
	token, err := s.repo.FindActiveByHash(ctx, security.HashToken(raw), s.now().UTC())
	if err != nil {
		if errors.Is(err, repository.ErrCredentialTokenNotFound) {
			observability.RecordCredentialTokenEvent(ctx, "validate", "invalid")
			return nil, ErrInvalidToken
		}
		observability.RecordCredentialTokenEvent(ctx, "validate", "error")
		return nil, fmt.Errorf("lookup credential token: %w", err)
	}
	observability.RecordCredentialTokenEvent(ctx, "validate", "valid")
	return token, nil
}

// Consume marks the token used. It joins a transaction carried by ctx, and
// returns ErrInvalidToken to every caller but the first.
func (s *CredentialTokenService) Consume(ctx context.Context, tokenID uint) error {
	if err := s.repo.Consume(ctx, tokenID, s.now().UTC()); err != nil {
		if errors.Is(err, repository.ErrCredentialTokenNotFound) {
			observability.RecordCredentialTokenEvent(ctx, "consume", "conflict")
			return ErrInvalidToken
		}
		observability.RecordCredentialTokenEvent(ctx, "consume", "error")
		return fmt.Errorf("consume credential token: %w", err)
	}
	observability.RecordCredentialTokenEvent(ctx, "consume", "success")
	return nil
}

func (s *CredentialTokenService) RevokeOutstanding(ctx context.Context, accountID string) (int64, error) {
	n, err := s.repo.InvalidateActiveByAccount(ctx, accountID, s.now().UTC())
	if err != nil {
		return 0, fmt.Errorf("revoke outstanding tokens: %w", err)
	}
	return n, nil
}
