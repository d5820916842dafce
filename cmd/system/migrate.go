package system

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/rodrigoprogmaster-prog/clinica/pkg/database"
	"github.com/rodrigoprogmaster-prog/clinica/pkg/logs"
)

func NewMigrateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := readConfig(cmd)
			if err != nil {
				return err
			}
			slog.SetDefault(logs.New(cfg))

			timeout := time.Duration(cfg.Server.TimeoutSeconds) * time.Second
			if timeout <= 0 {
				timeout = time.Minute
			}
			ctx, cancel := context.WithTimeout(commandContext(cmd), timeout)
			defer cancel()

			fmt.Println("Running migrations.")
			if err := database.Migrate(ctx, database.FromCentralConfig(cfg.Database)); err != nil {
				return fmt.Errorf("failed to run migrations: %w", err)
			}

			fmt.Println("Migrations executed successfully.")
			return nil
		},
	}

	return cmd
}
