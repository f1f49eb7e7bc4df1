package seed

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/KrizTahimic/CSSECDV-Case-Study-OnlineEnrollmentSystem-sub000/internal/config"
	"github.com/KrizTahimic/CSSECDV-Case-Study-OnlineEnrollmentSystem-sub000/internal/database"
	"github.com/KrizTahimic/CSSECDV-Case-Study-OnlineEnrollmentSystem-sub000/internal/tools/common"
)

type options struct {
	envFile       string
	adminEmail    string
	adminPassword string
	withSamples   bool
}

func NewCommand() *cobra.Command {
	opts := &options{}
	cmd := &cobra.Command{Use: "seed", Short: "Bootstrap account tooling"}
	cmd.PersistentFlags().StringVar(&opts.envFile, "env-file", ".env", "path to env file")
	cmd.PersistentFlags().StringVar(&opts.adminEmail, "admin-email", "", "override bootstrap admin email")
	cmd.PersistentFlags().StringVar(&opts.adminPassword, "admin-password", "", "override bootstrap admin password")
	cmd.PersistentFlags().BoolVar(&opts.withSamples, "with-samples", false, "also create sample student/faculty accounts (non-production only)")
	cmd.AddCommand(newApplyCommand(opts), newDryRunCommand(opts))
	return cmd
}

func resolveBootstrap(cfg *config.Config, opts *options) (string, string) {
	email, password := cfg.BootstrapAdminEmail, cfg.BootstrapAdminPassword
	if opts.adminEmail != "" {
		email = opts.adminEmail
	}
	if opts.adminPassword != "" {
		password = opts.adminPassword
	}
	return email, password
}

func newApplyCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "apply",
		Short: "Create the bootstrap admin account",
		RunE: func(cmd *cobra.Command, args []string) error {
			details, err := func() ([]string, error) {
				cfg, db, err := loadConfigDB(opts.envFile)
				if err != nil {
					return nil, err
				}
				email, password := resolveBootstrap(cfg, opts)
				report, err := database.Seed(db, email, password)
				if err != nil {
					return nil, err
				}
				details := []string{fmt.Sprintf("created %d user(s)", report.CreatedUsers)}
				if !report.Noop {
					details = append(details, "bootstrap admin: "+email)
				}
				if opts.withSamples {
					sampleReport, err := database.SeedSampleAccounts(db, cfg.Env)
					if err != nil {
						return nil, err
					}
					details = append(details, fmt.Sprintf("created %d sample account(s)", sampleReport.CreatedUsers))
				}
				if report.Noop && !opts.withSamples {
					return []string{"nothing to do"}, nil
				}
				return details, nil
			}()
			common.PrintResult("seed apply", details, err)
			if err != nil {
				os.Exit(3)
			}
			return nil
		},
	}
}

func newDryRunCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "dry-run",
		Short: "Show what seeding would do",
		RunE: func(cmd *cobra.Command, args []string) error {
			details, err := func() ([]string, error) {
				cfg, _, err := loadConfigDB(opts.envFile)
				if err != nil {
					return nil, err
				}
				email, _ := resolveBootstrap(cfg, opts)
				var details []string
				if email == "" {
					details = append(details, "no bootstrap admin configured")
				} else {
					details = append(details, "would create admin account if absent: "+email)
				}
				if opts.withSamples {
					details = append(details, "would create sample student/faculty accounts if absent")
				}
				return append(details, "no mutation executed in dry-run mode"), nil
			}()
			common.PrintResult("seed dry-run", details, err)
			if err != nil {
				os.Exit(3)
			}
			return nil
		},
	}
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
