package repository

import (
	"context"
	"errors"
	"time"

	"github.com/sandeepkv93/account-onboarding-service/internal/domain"
	"gorm.io/gorm"
)

var ErrCredentialTokenNotFound = errors.New("credential token not found")

type CredentialTokenRepository interface {
	Create(ctx context.Context, token *domain.CredentialToken) error
	FindActiveByHash(ctx context.Context, hash string, now time.Time) (*domain.CredentialToken, error)
	Consume(ctx context.Context, tokenID uint, now time.Time) error
	InvalidateActiveByAccount(ctx context.Context, accountID string, now time.Time) (int64, error)
}

type GormCredentialTokenRepository struct {
	db *gorm.DB
}

func NewCredentialTokenRepository(db *gorm.DB) CredentialTokenRepository {
	return &GormCredentialTokenRepository{db: db}
}

func (r *GormCredentialTokenRepository) Create(ctx context.Context, token *domain.CredentialToken) error {
	return conn(ctx, r.db).Create(token).Error
}

func (r *GormCredentialTokenRepository) FindActiveByHash(ctx context.Context, hash string, now time.Time) (*domain.CredentialToken, error) {
	var token domain.CredentialToken
	err := conn(ctx, r.db).
		Where("token_hash = ? AND used = ? AND expires_at > ?", hash, false, now).
		First(&token).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCredentialTokenNotFound
		}
		return nil, err
	}
	return &token, nil
}

// Consume flips used=false to used=true for an unexpired token. Exactly one
// of several concurrent callers observes a nil error.
func (r *GormCredentialTokenRepository) Consume(ctx context.Context, tokenID uint, now time.Time) error {
	res := conn(ctx, r.db).Model(&domain.CredentialToken{}).
		Where("id = ? AND used = ? AND expires_at > ?", tokenID, false, now).
		Updates(map[string]any{"used": true, "used_at": now, "updated_at": now})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrCredentialTokenNotFound
	}
	return nil
}

func (r *GormCredentialTokenRepository) InvalidateActiveByAccount(ctx context.Context, accountID string, now time.Time) (int64, error) {
	res := conn(ctx, r.db).Model(&domain.CredentialToken{}).
		Where("account_id = ? AND used = ? AND expires_at > ?", accountID, false, now).
		Updates(map[string]any{"used": true, "used_at": now, "updated_at": now})
	return res.RowsAffected, res.Error
}
