package seed

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/sandeepkv93/account-onboarding-service/internal/config"
	"github.com/sandeepkv93/account-onboarding-service/internal/database"
	"github.com/sandeepkv93/account-onboarding-service/internal/security"
	"github.com/sandeepkv93/account-onboarding-service/internal/tools/common"
	"github.com/sandeepkv93/account-onboarding-service/internal/tools/ui"
)

type options struct {
	envFile string
	timeout time.Duration
	migrate bool
	ci      bool
}

func NewRootCommand() *cobra.Command {
	opts := &options{}
	cmd := &cobra.Command{Use: "seed", Short: "Demo account seed tooling"}
	cmd.PersistentFlags().StringVar(&opts.envFile, "env-file", ".env", "path to env file")
	cmd.PersistentFlags().DurationVar(&opts.timeout, "timeout", 30*time.Second, "operation timeout")
	cmd.PersistentFlags().BoolVar(&opts.migrate, "migrate", true, "apply schema migrations before seeding")
	cmd.PersistentFlags().BoolVar(&opts.ci, "ci", false, "non-interactive machine-readable output")
	cmd.AddCommand(newSeedCommand(opts, "apply", "Insert demo accounts that are missing", false))
	cmd.AddCommand(newSeedCommand(opts, "dry-run", "Show which demo accounts would be inserted", true))
	return cmd
}

func newSeedCommand(opts *options, name, short string, dryRun bool) *cobra.Command {
	return &cobra.Command{
		Use:   name,
		Short: short,
		RunE: func(cmd *cobra.Command, args []string) error {
			title := "seed " + name
			start := time.Now()
			details, err := run(opts, title, func(ctx context.Context) ([]string, error) {
				cfg, db, err := loadConfigDB(opts.envFile)
				if err != nil {
					return nil, err
				}
				sqlDB, err := db.DB()
				if err != nil {
					return nil, err
				}
				defer func() { _ = sqlDB.Close() }()
				if opts.migrate && !dryRun {
					if err := database.Migrate(db); err != nil {
						return nil, err
					}
				}
				hasher, err := security.NewPasswordHasher(cfg.AuthBcryptCost)
				if err != nil {
					return nil, err
				}
				report, err := database.Seed(db, hasher.Hash, dryRun)
				if err != nil {
					return nil, err
				}
				return describeReport(report, dryRun), nil
			})
			common.RecordRun("seed", name, time.Since(start), err)
			if opts.ci {
				common.PrintCIResult(err == nil, title, details, time.Since(start), err)
			}
			if err != nil {
				os.Exit(3)
			}
			return nil
		},
	}
}

func describeReport(report *database.SeedReport, dryRun bool) []string {
	verb := "created"
	if dryRun {
		verb = "would create"
	}
	details := make([]string, 0, len(report.Created)+len(report.Existing)+1)
	for _, id := range report.Created {
		details = append(details, fmt.Sprintf("%s: %s", verb, id))
	}
	for _, id := range report.Existing {
		details = append(details, "already present: "+id)
	}
	if len(report.Created) > 0 {
		details = append(details, "verified demo accounts sign in with password "+database.DemoPassword)
	}
	if report.Noop {
		details = append(details, "nothing to do")
	}
	return details
}

func run(opts *options, title string, fn func(context.Context) ([]string, error)) ([]string, error) {
	if opts.ci {
		ctx, cancel := context.WithTimeout(context.Background(), opts.timeout)
		defer cancel()
		return fn(ctx)
	}
	return ui.Run(title, opts.timeout, fn)
}

func loadConfigDB(envFile string) (*config.Config, *gorm.DB, error) {
	if err := common.LoadEnvFile(envFile); err != nil {
		return nil, nil, err
	}
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	db, err := database.Open(cfg)
	if err != nil {
		return nil, nil, err
	}
	return cfg, db, nil
}
