package repository

import (
	"context"
	"errors"
	"time"

	"github.com/sandeepkv93/account-onboarding-service/internal/domain"
	"gorm.io/gorm"
)

var ErrLoginRecordNotFound = errors.New("login record not found")

type LoginRecordRepository interface {
	Create(ctx context.Context, record *domain.LoginRecord) error
	FindByID(ctx context.Context, id string) (*domain.LoginRecord, error)
	MarkLoggedOut(ctx context.Context, id string, now time.Time) error
	Delete(ctx context.Context, id string) error
}

type GormLoginRecordRepository struct {
	db *gorm.DB
}

func NewLoginRecordRepository(db *gorm.DB) LoginRecordRepository {
	return &GormLoginRecordRepository{db: db}
}

func (r *GormLoginRecordRepository) Create(ctx context.Context, record *domain.LoginRecord) error {
	return conn(ctx, r.db).Create(record).Error
}

func (r *GormLoginRecordRepository) FindByID(ctx context.Context, id string) (*domain.LoginRecord, error) {
	var rec domain.LoginRecord
	err := conn(ctx, r.db).Where("id = ?", id).First(&rec).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrLoginRecordNotFound
		}
		return nil, err
	}
	return &rec, nil
}

// MarkLoggedOut stamps logged_out_at once. now is clamped to logged_in_at so
// the stored interval is never negative under clock skew.
func (r *GormLoginRecordRepository) MarkLoggedOut(ctx context.Context, id string, now time.Time) error {
	db := conn(ctx, r.db)
	rec, err := r.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if rec.LoggedOutAt != nil {
		return nil
	}
	if now.Before(rec.LoggedInAt) {
		now = rec.LoggedInAt
	}
	res := db.Model(&domain.LoginRecord{}).
		Where("id = ? AND logged_out_at IS NULL", id).
		Update("logged_out_at", now)
	return res.Error
}

func (r *GormLoginRecordRepository) Delete(ctx context.Context, id string) error {
	res := conn(ctx, r.db).Where("id = ?", id).Delete(&domain.LoginRecord{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrLoginRecordNotFound
	}
	return nil
}
