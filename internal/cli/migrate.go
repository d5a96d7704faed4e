package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"depot-backend/internal/database"
	"depot-backend/migrations"
)

var migrateStatusOnly bool

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending database migrations",
	RunE:  runMigrate,
}

func init() {
	rootCmd.AddCommand(migrateCmd)
	migrateCmd.Flags().BoolVar(&migrateStatusOnly, "status", false, "List pending migrations without applying them")
}

func runMigrate(cmd *cobra.Command, args []string) error {
	_, pool, log, err := connect(cmd.Context())
	if err != nil {
		return err
	}
	defer pool.Close()

	migrator := database.NewMigrator(pool, migrations.FS, log)
	if migrateStatusOnly {
		pending, err := migrator.Pending(cmd.Context())
		if err != nil {
			return err
		}
		if len(pending) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "Schema is up to date")
			return nil
		}
		for _, name := range pending {
			fmt.Fprintf(cmd.OutOrStdout(), "pending  %s\n", name)
		}
		return nil
	}

	applied, err := migrator.RunMigrations(cmd.Context())
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Applied %d migration(s)\n", applied)
	return nil
}
