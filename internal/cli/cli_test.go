package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		importFile, importDryRun = "", false
	})
	err := rootCmd.Execute()
	return out.String(), err
}

func writeCSV(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "products.csv")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestImportDryRunValidFile(t *testing.T) {
	path := writeCSV(t, "sku,name,wholesale_price,retail_price,returnable\nclub-625,Club Beer 625ml,10.00,11.50,yes\nMALTA-330,Malta,5,6,no\n")

	out, err := runCLI(t, "import-products", "--file", path, "--dry-run")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !strings.Contains(out, "Dry run: 2 row(s) valid, 0 failed") {
		t.Fatalf("unexpected output: %q", out)
	}
}

func TestImportDryRunReportsBadRows(t *testing.T) {
	path := writeCSV(t, "sku,name,wholesale_price,retail_price\nCLUB-625,Club,10,11\n,Missing sku,1,2\n")

	out, err := runCLI(t, "import-products", "--file", path, "--dry-run")
	if err == nil {
		t.Fatal("expected error for failed rows")
	}
	if !strings.Contains(out, "line 3") {
		t.Fatalf("expected line number in output, got %q", out)
	}
	if !strings.Contains(out, "1 row(s) valid, 1 failed") {
		t.Fatalf("unexpected summary: %q", out)
	}
}

func TestImportRequiresFile(t *testing.T) {
	if _, err := runCLI(t, "import-products", "--dry-run"); err == nil {
		t.Fatal("expected error without --file")
	}
}

func TestCreateAdminRejectsShortPassword(t *testing.T) {
	t.Cleanup(func() { adminEmail, adminPassword = "", "" })
	_, err := runCLI(t, "create-admin", "--email", "boss@depot.test", "--password", "short")
	if err == nil || !strings.Contains(err.Error(), "at least 8") {
		t.Fatalf("expected short password error, got %v", err)
	}
}

func TestResetRequiresConfirmation(t *testing.T) {
	_, err := runCLI(t, "reset-db")
	if err == nil || !strings.Contains(err.Error(), "--yes") {
		t.Fatalf("expected confirmation error, got %v", err)
	}
}
