package system

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/rodrigoprogmaster-prog/clinica/config"
	"github.com/rodrigoprogmaster-prog/clinica/internal/domain"
	"github.com/rodrigoprogmaster-prog/clinica/internal/service/audit"
	"github.com/rodrigoprogmaster-prog/clinica/internal/service/backup"
	"github.com/rodrigoprogmaster-prog/clinica/internal/state"
	"github.com/rodrigoprogmaster-prog/clinica/internal/store"
	"github.com/rodrigoprogmaster-prog/clinica/pkg/database"
	"github.com/rodrigoprogmaster-prog/clinica/pkg/logs"
)

func NewBackupCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Export or restore a full JSON backup",
	}

	cmd.AddCommand(newBackupExportCommand())
	cmd.AddCommand(newBackupRestoreCommand())

	return cmd
}

func newBackupExportCommand() *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write every table to a backup file",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := commandContext(cmd)
			svc, cleanup, err := openBackup(ctx, cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			f, err := os.Create(out)
			if err != nil {
				return fmt.Errorf("create %s: %w", out, err)
			}
			defer f.Close()

			enc := json.NewEncoder(f)
			enc.SetIndent("", "  ")
			if err := enc.Encode(svc.Export(ctx)); err != nil {
				return fmt.Errorf("write backup: %w", err)
			}

			fmt.Printf("Backup written to %s\n", out)
			return nil
		},
	}

	cmd.Flags().StringVar(&out, "out", "backup.json", "Output file")

	return cmd
}

func newBackupRestoreCommand() *cobra.Command {
	var in string

	cmd := &cobra.Command{
		Use:   "restore",
		Short: "Replace every table with the contents of a backup file",
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(in)
			if err != nil {
				return fmt.Errorf("open %s: %w", in, err)
			}
			defer f.Close()

			doc, err := backup.Decode(f)
			if err != nil {
				return err
			}

			ctx := commandContext(cmd)
			svc, cleanup, err := openBackup(ctx, cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			report, err := svc.Restore(ctx, doc)
			if err != nil {
				return err
			}

			for table, n := range report.Saved {
				fmt.Printf("%-22s %d\n", table, n)
			}
			if report.Failed > 0 {
				for _, e := range report.Errors {
					fmt.Fprintln(os.Stderr, e)
				}
				return fmt.Errorf("%d rows were not saved", report.Failed)
			}
			fmt.Println("Restore completed successfully.")
			return nil
		},
	}

	cmd.Flags().StringVar(&in, "in", "backup.json", "Backup file to restore")
	_ = cmd.MarkFlagRequired("in")

	return cmd
}

// openBackup builds a backup service over a freshly loaded store. Archives
// are not available from the CLI.
func openBackup(ctx context.Context, cmd *cobra.Command) (backup.Service, func(), error) {
	cfg, err := readConfig(cmd)
	if err != nil {
		return nil, nil, err
	}
	log := logs.New(cfg)
	slog.SetDefault(log)

	pool, err := database.NewPoolFromCentral(ctx, cfg.Database)
	if err != nil {
		return nil, nil, err
	}

	st, err := newStore(cfg, pool, log)
	if err != nil {
		pool.Close()
		return nil, nil, err
	}
	if err := st.Load(ctx); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("load current data: %w", err)
	}

	clock := domain.NewClock(cfg.Clinic.Location())
	svc := backup.New(st, audit.New(st, clock, log), nil, clock, log)
	return svc, pool.Close, nil
}

func newStore(cfg *config.Config, q store.Querier, log *slog.Logger) (*state.Store, error) {
	sealer, err := state.SealerFromKey(cfg.Clinic.EncryptionKey)
	if err != nil {
		return nil, err
	}
	return state.New(state.FromGateways(store.NewGateways(q, log), sealer), log), nil
}
