package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"depot-backend/internal/cache"
	"depot-backend/internal/importer"
	"depot-backend/internal/repositories"
)

var (
	importFile   string
	importDryRun bool
)

var importProductsCmd = &cobra.Command{
	Use:   "import-products",
	Short: "Create or update products from a CSV file",
	Long: `Reads a CSV with a header row. Recognised columns:

  sku, name, wholesale_price, retail_price, returnable, stock, reorder_level

sku and name are required. Rows are matched on sku: new skus are created
with the given stock, existing ones have their details updated while their
stock is left alone. Every bad row is reported with its line number and
the command exits non-zero if any row failed.`,
	RunE: runImportProducts,
}

func init() {
	rootCmd.AddCommand(importProductsCmd)
	importProductsCmd.Flags().StringVarP(&importFile, "file", "f", "", "CSV file to import")
	importProductsCmd.Flags().BoolVar(&importDryRun, "dry-run", false, "Validate the file without writing anything")
	importProductsCmd.MarkFlagRequired("file")
}

func runImportProducts(cmd *cobra.Command, args []string) error {
	f, err := os.Open(importFile)
	if err != nil {
		return err
	}
	defer f.Close()

	var store importer.ProductUpserter
	if !importDryRun {
		cfg, pool, _, err := connect(cmd.Context())
		if err != nil {
			return err
		}
		defer pool.Close()
		store = repositories.NewProductRepository(pool)

		// the server caches the catalogue; drop it once the import lands
		if err := cache.Init(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB); err == nil {
			defer cache.Close()
			defer cache.InvalidateProductCaches(cmd.Context())
		}
	}

	res, err := importer.Import(cmd.Context(), store, f, importDryRun)
	if err != nil {
		return err
	}
	return report(cmd, res)
}

func report(cmd *cobra.Command, res *importer.Result) error {
	out := cmd.OutOrStdout()
	for _, e := range res.Errors {
		fmt.Fprintln(out, e.Error())
	}
	if importDryRun {
		fmt.Fprintf(out, "Dry run: %d row(s) valid, %d failed\n", res.Created, res.Failed)
	} else {
		fmt.Fprintf(out, "Created %d, updated %d, failed %d\n", res.Created, res.Updated, res.Failed)
	}
	if res.Failed > 0 {
		return fmt.Errorf("%d row(s) failed", res.Failed)
	}
	return nil
}
