package migrate

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/sandeepkv93/account-onboarding-service/internal/config"
	"github.com/sandeepkv93/account-onboarding-service/internal/database"
	"github.com/sandeepkv93/account-onboarding-service/internal/tools/common"
	"github.com/sandeepkv93/account-onboarding-service/internal/tools/ui"
)

type options struct {
	envFile string
	timeout time.Duration
	ci      bool
}

func NewRootCommand() *cobra.Command {
	opts := &options{}
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Account schema migration tooling",
	}
	cmd.PersistentFlags().StringVar(&opts.envFile, "env-file", ".env", "path to env file")
	cmd.PersistentFlags().DurationVar(&opts.timeout, "timeout", 30*time.Second, "operation timeout")
	cmd.PersistentFlags().BoolVar(&opts.ci, "ci", false, "non-interactive machine-readable output")

	cmd.AddCommand(
		newCommand(opts, "up", "Apply schema migrations", migrateUp),
		newCommand(opts, "status", "Report tables and columns still to be created", migrateStatus),
		newCommand(opts, "plan", "Show what up would change without writing", migratePlan),
	)
	return cmd
}

type action func(ctx context.Context, cfg *config.Config, db *gorm.DB) ([]string, error)

func newCommand(opts *options, name, short string, fn action) *cobra.Command {
	return &cobra.Command{
		Use:   name,
		Short: short,
		RunE: func(cmd *cobra.Command, args []string) error {
			title := "migrate " + name
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
				if err := sqlDB.PingContext(ctx); err != nil {
					return nil, fmt.Errorf("db ping: %w", err)
				}
				return fn(ctx, cfg, db)
			})
			common.RecordRun("migrate", name, time.Since(start), err)
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

func migrateUp(_ context.Context, cfg *config.Config, db *gorm.DB) ([]string, error) {
	if err := database.Migrate(db); err != nil {
		return nil, err
	}
	return []string{"schema migration applied", "service: " + cfg.OTELServiceName}, nil
}

func migrateStatus(_ context.Context, _ *config.Config, db *gorm.DB) ([]string, error) {
	statuses, err := database.Status(db)
	if err != nil {
		return nil, err
	}
	return describeStatus(statuses, false), nil
}

func migratePlan(_ context.Context, _ *config.Config, db *gorm.DB) ([]string, error) {
	statuses, err := database.Status(db)
	if err != nil {
		return nil, err
	}
	details := describeStatus(statuses, true)
	return append(details, "no mutation executed in plan mode"), nil
}

func describeStatus(statuses []database.TableStatus, plan bool) []string {
	details := make([]string, 0, len(statuses))
	for _, st := range statuses {
		switch {
		case !st.Exists && plan:
			details = append(details, "would create table "+st.Table)
		case !st.Exists:
			details = append(details, st.Table+": missing")
		case len(st.Missing) > 0 && plan:
			details = append(details, fmt.Sprintf("would add columns to %s: %s", st.Table, strings.Join(st.Missing, ", ")))
		case len(st.Missing) > 0:
			details = append(details, fmt.Sprintf("%s: missing columns %s", st.Table, strings.Join(st.Missing, ", ")))
		default:
			details = append(details, st.Table+": up to date")
		}
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
