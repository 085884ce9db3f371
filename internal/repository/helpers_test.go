package repository

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/sandeepkv93/account-onboarding-service/internal/domain"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newRepositoryDBForTest(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=on", name)
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

func seedAccount(t *testing.T, repo AccountRepository, id, email, phone string) *domain.Account {
	t.Helper()
	a := &domain.Account{ID: id, Kind: domain.AccountKindIndividual, Name: "Test", Email: email, Phone: phone}
	if err := repo.Create(t.Context(), a); err != nil {
		t.Fatalf("create account %s: %v", id, err)
	}
	return a
}

var fixedNow = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
