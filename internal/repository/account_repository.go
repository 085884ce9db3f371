package repository

import (
	"context"
	"errors"
	"time"

	"github.com/sandeepkv93/account-onboarding-service/internal/domain"
	"gorm.io/gorm"
)

var (
	ErrAccountNotFound  = errors.New("account not found")
	ErrDuplicateAccount = errors.New("account with this id, email or phone already exists")
)

type AccountRepository interface {
	FindByID(ctx context.Context, id string) (*domain.Account, error)
	FindByEmail(ctx context.Context, email string) (*domain.Account, error)
	FindByPhone(ctx context.Context, phone string) (*domain.Account, error)
	ExistsByID(ctx context.Context, id string) (bool, error)
	Create(ctx context.Context, account *domain.Account) error
	MarkVerifiedWithPassword(ctx context.Context, id, passwordHash string, now time.Time) error
}

type GormAccountRepository struct {
	db *gorm.DB
}

func NewAccountRepository(db *gorm.DB) AccountRepository {
	return &GormAccountRepository{db: db}
}

func (r *GormAccountRepository) FindByID(ctx context.Context, id string) (*domain.Account, error) {
	return r.first(ctx, "id = ?", id)
}

func (r *GormAccountRepository) FindByEmail(ctx context.Context, email string) (*domain.Account, error) {
	return r.first(ctx, "email = ?", email)
}

func (r *GormAccountRepository) FindByPhone(ctx context.Context, phone string) (*domain.Account, error) {
	return r.first(ctx, "phone = ?", phone)
}

func (r *GormAccountRepository) first(ctx context.Context, query string, arg any) (*domain.Account, error) {
	var a domain.Account
	err := conn(ctx, r.db).Where(query, arg).First(&a).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}
	return &a, nil
}

func (r *GormAccountRepository) ExistsByID(ctx context.Context, id string) (bool, error) {
	var n int64
	if err := conn(ctx, r.db).Model(&domain.Account{}).Where("id = ?", id).Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *GormAccountRepository) Create(ctx context.Context, account *domain.Account) error {
	err := conn(ctx, r.db).Create(account).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrDuplicateAccount
	}
	return err
}

func (r *GormAccountRepository) MarkVerifiedWithPassword(ctx context.Context, id, passwordHash string, now time.Time) error {
	res := conn(ctx, r.db).Model(&domain.Account{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"password_hash":     passwordHash,
			"email_verified":    true,
			"email_verified_at": now,
			"updated_at":        now,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrAccountNotFound
	}
	return nil
}
