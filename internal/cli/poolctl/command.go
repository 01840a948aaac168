// Package poolctl is the operator CLI for the credential pool. It edits the
// stored snapshot directly and refuses to run while the service owns it.
package poolctl

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"wifi-voucher/internal/config"
	"wifi-voucher/internal/domain/model"
	pg "wifi-voucher/internal/infra/db/postgres"
	"wifi-voucher/internal/infra/logging"
	"wifi-voucher/internal/pool"
	"wifi-voucher/internal/usecase"
)

// session is an open pool with the credential operations bound to it.
type session struct {
	credentials usecase.CredentialUseCase
	close       func()
}

type options struct {
	configPath string
	dev        bool

	openState func(ctx context.Context, o *options) (*session, error)
	migrate   func(ctx context.Context, o *options) error
}

// NewCommand builds the poolctl root command backed by Postgres.
func NewCommand() *cobra.Command {
	return newRootCommand(&options{openState: openPostgres, migrate: migratePostgres})
}

func newRootCommand(o *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "poolctl",
		Short:         "Manage the wifi credential pool",
		Long:          `poolctl imports, releases and removes wifi login credentials and reports pool stock.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVarP(&o.configPath, "config", "c", "config.yaml", "Path to config file")
	cmd.PersistentFlags().BoolVar(&o.dev, "dev", false, "Development mode (console logs)")

	cmd.AddCommand(
		newImportCommand(o),
		newReleaseCommand(o),
		newRemoveCommand(o),
		newStatsCommand(o),
		newMigrateCommand(o),
	)
	return cmd
}

func newImportCommand(o *options) *cobra.Command {
	var location, planType, file string
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Bulk import credentials",
		Long:  `Read "<username> <password>" lines from a file (or - for stdin) and add them to one pool. Existing logins are skipped.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			pt, err := model.ParsePlanType(planType)
			if err != nil {
				return fmt.Errorf("unknown plan type %q", planType)
			}
			text, err := readInput(cmd.InOrStdin(), file)
			if err != nil {
				return err
			}
			return withSession(cmd, o, func(ctx context.Context, s *session) error {
				n, err := s.credentials.Import(ctx, location, pt, text)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "inserted %d credentials into %s/%s\n", n, location, pt)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&location, "location", "l", "", "Location id (required)")
	cmd.Flags().StringVarP(&planType, "plan-type", "t", "", "Plan type: 3-hour, daily, weekly, monthly (required)")
	cmd.Flags().StringVarP(&file, "file", "f", "-", "Input file, - for stdin")
	_ = cmd.MarkFlagRequired("location")
	_ = cmd.MarkFlagRequired("plan-type")
	return cmd
}

func newReleaseCommand(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "release <credential-id>",
		Short: "Return a used credential to the pool",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, o, func(ctx context.Context, s *session) error {
				if err := s.credentials.Release(ctx, args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "released %s\n", args[0])
				return nil
			})
		},
	}
}

func newRemoveCommand(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <credential-id>",
		Short: "Delete a credential in any state",
		Long:  `Delete a credential. A purchase that was sold this login keeps its own copy.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, o, func(ctx context.Context, s *session) error {
				if err := s.credentials.Remove(ctx, args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "removed %s\n", args[0])
				return nil
			})
		},
	}
}

func newStatsCommand(o *options) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show available and used counts per pool",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, o, func(ctx context.Context, s *session) error {
				stats, err := s.credentials.Stats(ctx)
				if err != nil {
					return err
				}
				return printStats(cmd.OutOrStdout(), stats, asJSON)
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON instead of a table")
	return cmd
}

func newMigrateCommand(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := o.migrate(cmd.Context(), o); err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
			return nil
		},
	}
}

func withSession(cmd *cobra.Command, o *options, fn func(ctx context.Context, s *session) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	s, err := o.openState(ctx, o)
	if err != nil {
		return err
	}
	defer s.close()
	return fn(ctx, s)
}

func readInput(stdin io.Reader, file string) (string, error) {
	var (
		b   []byte
		err error
	)
	if file == "" || file == "-" {
		b, err = io.ReadAll(stdin)
	} else {
		b, err = os.ReadFile(file)
	}
	if err != nil {
		return "", fmt.Errorf("read input: %w", err)
	}
	return string(b), nil
}

func printStats(w io.Writer, stats []pool.PoolStat, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(stats)
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "LOCATION\tPLAN\tAVAILABLE\tUSED")
	for _, s := range stats {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\n", s.LocationID, s.PlanType, s.Available, s.Used)
	}
	return tw.Flush()
}

// ---- Postgres wiring ----

func loadConfig(o *options) (*config.Config, error) {
	cfg, err := config.Load(o.configPath, o.dev)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

func openPostgres(ctx context.Context, o *options) (*session, error) {
	cfg, err := loadConfig(o)
	if err != nil {
		return nil, err
	}
	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	secrets, err := pg.CipherFromKey(cfg.Security.EncryptionKey)
	if err != nil {
		return nil, err
	}

	dbPool, err := pg.Connect(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}
	owner, err := pg.AcquireInstanceLock(ctx, dbPool)
	if err != nil {
		dbPool.Close()
		if errors.Is(err, pg.ErrSnapshotBusy) {
			return nil, errors.New("the service is running and owns the pool; use the admin API instead")
		}
		return nil, err
	}

	gateway := pg.NewSnapshotGateway(dbPool, secrets)
	store, ledger, err := usecase.LoadState(ctx, gateway)
	if err != nil {
		_ = owner.Release(ctx)
		dbPool.Close()
		return nil, err
	}
	writer := usecase.NewSnapshotWriter(gateway, store, ledger)
	return &session{
		credentials: usecase.NewCredentialUseCase(store, pg.NewLocationRepo(dbPool), writer, logger),
		close: func() {
			_ = owner.Release(context.Background())
			dbPool.Close()
		},
	}, nil
}

func migratePostgres(ctx context.Context, o *options) error {
	cfg, err := loadConfig(o)
	if err != nil {
		return err
	}
	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	dbPool, err := pg.Connect(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer dbPool.Close()
	return pg.Migrate(ctx, dbPool, logger)
}
