package database

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/sandeepkv93/account-onboarding-service/internal/domain"
	"github.com/sandeepkv93/account-onboarding-service/internal/observability"
)

// Models lists every table owned by the service, in dependency order.
func Models() []any {
	return []any{
		&domain.Account{},
		&domain.CredentialToken{},
		&domain.LoginRecord{},
	}
}

func Migrate(db *gorm.DB) error {
	start := time.Now()
	err := db.AutoMigrate(Models()...)
	ctx := context.Background()
	observability.RecordDatabaseStartupDuration(ctx, "migrate", time.Since(start))
	if err != nil {
		observability.RecordDatabaseStartupEvent(ctx, "migrate", "error")
		return err
	}
	observability.RecordDatabaseStartupEvent(ctx, "migrate", "success")
	return nil
}

type TableStatus struct {
	Table   string   `json:"table"`
	Exists  bool     `json:"exists"`
	Missing []string `json:"missing_columns,omitempty"`
}

// Status reports which tables and columns AutoMigrate would still create.
func Status(db *gorm.DB) ([]TableStatus, error) {
	migrator := db.Migrator()
	out := make([]TableStatus, 0, len(Models()))
	for _, model := range Models() {
		stmt := &gorm.Statement{DB: db}
		if err := stmt.Parse(model); err != nil {
			return nil, err
		}
		st := TableStatus{Table: stmt.Schema.Table, Exists: migrator.HasTable(model)}
		if st.Exists {
			for _, field := range stmt.Schema.Fields {
				if field.DBName == "" {
					continue
				}
				if !migrator.HasColumn(model, field.DBName) {
					st.Missing = append(st.Missing, field.DBName)
				}
			}
		}
		out = append(out, st)
	}
	return out, nil
}
