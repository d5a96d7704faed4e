package cli

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/spf13/cobra"

	"depot-backend/internal/db"
)

// transactional tables, children first
var resetTables = []string{
	"breakages",
	"loadout_items",
	"loadouts",
	"inventory_receivable_items",
	"inventory_receivables",
	"empties_log_details",
	"empties_log",
	"warehouse_order_items",
	"warehouse_orders",
	"sales",
	"orders",
	"request_logs",
}

var resetConfirm bool

var resetDBCmd = &cobra.Command{
	Use:   "reset-db",
	Short: "Wipe orders, crate history and stock movements (development only)",
	Long: `Clears every transactional table and zeroes customer crate balances.
Users, customers, customer types and the product catalogue are kept.

Refuses to run unless server.env is "development" and --yes is given.`,
	RunE: runResetDB,
}

func init() {
	rootCmd.AddCommand(resetDBCmd)
	resetDBCmd.Flags().BoolVar(&resetConfirm, "yes", false, "Confirm the wipe")
}

func runResetDB(cmd *cobra.Command, args []string) error {
	if !resetConfirm {
		return errors.New("refusing to reset without --yes")
	}

	cfg, pool, _, err := connect(cmd.Context())
	if err != nil {
		return err
	}
	defer pool.Close()
	if !cfg.IsDevelopment() {
		return fmt.Errorf("refusing to reset a %q database", cfg.Server.Env)
	}

	out := cmd.OutOrStdout()
	err = db.WithTx(cmd.Context(), pool, func(tx pgx.Tx) error {
		for _, table := range resetTables {
			if _, err := tx.Exec(cmd.Context(), "TRUNCATE TABLE "+table+" RESTART IDENTITY CASCADE"); err != nil {
				return fmt.Errorf("failed to truncate %s: %w", table, err)
			}
			fmt.Fprintf(out, "  cleared %s\n", table)
		}
		if _, err := tx.Exec(cmd.Context(), "UPDATE customers SET crate_balance = 0, updated_at = NOW()"); err != nil {
			return fmt.Errorf("failed to reset crate balances: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	fmt.Fprintln(out, "Database reset complete")
	return nil
}
