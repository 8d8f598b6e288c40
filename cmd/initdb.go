package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/example/fieldbook/internal/config"
	"github.com/example/fieldbook/internal/db"
	"github.com/example/fieldbook/internal/migrate"
	"github.com/spf13/cobra"
)

func newInitDBCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init-db",
		Short: "Initialize the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx := context.Background()
			d, err := db.Open(ctx, cfg.DatabaseURL)
			if err != nil {
				return err
			}
			defer d.Close()

			if err := migrate.Up(ctx, d); err != nil {
				return err
			}
			fmt.Fprintln(os.Stdout, "Database initialized.")
			return nil
		},
	}
}
