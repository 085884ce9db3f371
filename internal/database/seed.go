package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/sandeepkv93/account-onboarding-service/internal/domain"
	"github.com/sandeepkv93/account-onboarding-service/internal/observability"
)

// DemoPassword is the password of the seeded verified account.
const DemoPassword = "Demo1234!"

type SeedAccount struct {
	Account         domain.Account
	SetDemoPassword bool
}

// DemoAccounts returns the fixed demo dataset: a verified individual with a
// known password, an unverified business and a suspended individual.
func DemoAccounts() []SeedAccount {
	businessName := "Demo Traders"
	taxID := "29ABCDE1234F1Z5"
	return []SeedAccount{
		{
			Account: domain.Account{
				ID: "IND200000001", Kind: domain.AccountKindIndividual, Name: "Demo Individual",
				Email: "demo.individual@example.com", Phone: "9000000001", EmailVerified: true,
			},
			SetDemoPassword: true,
		},
		{
			Account: domain.Account{
				ID: "BSN200000002", Kind: domain.AccountKindBusiness, Name: "Demo Owner",
				Email: "demo.business@example.com", Phone: "9000000002",
				BusinessName: &businessName, TaxID: &taxID,
			},
		},
		{
			Account: domain.Account{
				ID: "IND200000003", Kind: domain.AccountKindIndividual, Name: "Demo Suspended",
				Email: "demo.suspended@example.com", Phone: "9000000003", EmailVerified: true,
				Suspended: true, SuspendedCount: 1,
			},
			SetDemoPassword: true,
		},
	}
}

type SeedReport struct {
	Created  []string `json:"created"`
	Existing []string `json:"existing"`
	Noop     bool     `json:"noop"`
}

// Seed inserts the demo accounts that are not present yet. hash receives the
// demo password. With dryRun set nothing is written.
func Seed(db *gorm.DB, hash func(string) (string, error), dryRun bool) (*SeedReport, error) {
	start := time.Now()
	ctx := context.Background()
	defer func() {
		observability.RecordDatabaseStartupDuration(ctx, "seed", time.Since(start))
	}()

	var passwordHash string
	report := &SeedReport{}
	if dryRun && !db.Migrator().HasTable(&domain.Account{}) {
		for _, seed := range DemoAccounts() {
			report.Created = append(report.Created, seed.Account.ID)
		}
		return report, nil
	}
	for _, seed := range DemoAccounts() {
		var existing domain.Account
		err := db.Where("email = ? OR phone = ?", seed.Account.Email, seed.Account.Phone).First(&existing).Error
		if err == nil {
			report.Existing = append(report.Existing, seed.Account.ID)
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			observability.RecordDatabaseStartupEvent(ctx, "seed", "error")
			return nil, err
		}
		report.Created = append(report.Created, seed.Account.ID)
		if dryRun {
			continue
		}

		account := seed.Account
		if seed.SetDemoPassword {
			if passwordHash == "" {
				if passwordHash, err = hash(DemoPassword); err != nil {
					return nil, fmt.Errorf("hash demo password: %w", err)
				}
			}
			h := passwordHash
			now := time.Now().UTC()
			account.PasswordHash = &h
			account.EmailVerifiedAt = &now
		}
		if err := db.Create(&account).Error; err != nil {
			observability.RecordDatabaseStartupEvent(ctx, "seed", "error")
			return nil, fmt.Errorf("create %s: %w", account.ID, err)
		}
	}
	report.Noop = len(report.Created) == 0
	observability.RecordDatabaseStartupEvent(ctx, "seed", "success")
	return report, nil
}
