package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sandeepkv93/account-onboarding-service/internal/repository"
	"github.com/sandeepkv93/account-onboarding-service/internal/security"
)

// SessionRequest carries the verified credentials plus the audit linkage the
// session claims must embed.
type SessionRequest struct {
	Identifier    string
	Password      string
	LoginToken    string
	LoginRecordID string
}

type IssuedSession struct {
	Token     string
	ExpiresAt time.Time
	AccountID string
}

type SessionIssuer interface {
	IssueSession(ctx context.Context, req SessionRequest) (*IssuedSession, error)
}

// SessionCodec signs and parses session tokens.
type SessionCodec interface {
	Sign(subject security.SessionSubject) (string, time.Time, error)
	Parse(token string) (*security.Claims, error)
}

type passwordComparer interface {
	Compare(hash, password string) error
}

// JWTSessionIssuer re-authenticates the credentials before signing, so a
// caller cannot mint a session for an account it did not verify.
type JWTSessionIssuer struct {
	registry *AccountRegistry
	hasher   passwordComparer
	codec    SessionCodec
}

func NewJWTSessionIssuer(registry *AccountRegistry, hasher *security.PasswordHasher, codec *security.JWTManager) *JWTSessionIssuer {
	return &JWTSessionIssuer{registry: registry, hasher: hasher, codec: codec}
}

func (s *JWTSessionIssuer) IssueSession(ctx context.Context, req SessionRequest) (*IssuedSession, error) {
	account, _, err := s.registry.FindByIdentifier(ctx, req.Identifier)
	if err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) || errors.Is(err, ErrInvalidIdentifier) {
			return nil, ErrSessionRejected
		}
		return nil, fmt.Errorf("load account for session: %w", err)
	}
	if !account.IsEmailVerified() || account.IsSuspended() || account.IsTerminated() || !account.HasPassword() {
		return nil, ErrSessionRejected
	}
	if err := s.hasher.Compare(*account.PasswordHash, req.Password); err != nil {
		return nil, ErrSessionRejected
	}
	token, exp, err := s.codec.Sign(security.SessionSubject{
		AccountID:     account.ID,
		Email:         account.Email,
		Phone:         account.Phone,
		Name:          account.Name,
		LoginToken:    req.LoginToken,
		LoginRecordID: req.LoginRecordID,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSessionRejected, err)
	}
	return &IssuedSession{Token: token, ExpiresAt: exp, AccountID: account.ID}, nil
}
