// Package importer loads the product catalogue from a CSV export.
package importer

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"depot-backend/internal/models"
)

// Columns a products file may carry. sku and name are required, the rest default.
const (
	ColSKU            = "sku"
	ColName           = "name"
	ColWholesalePrice = "wholesale_price"
	ColRetailPrice    = "retail_price"
	ColReturnable     = "returnable"
	ColStock          = "stock"
	ColReorderLevel   = "reorder_level"
)

var required = []string{ColSKU, ColName}

// ProductUpserter is satisfied by *repositories.ProductRepository
type ProductUpserter interface {
	Upsert(ctx context.Context, p *models.Product) (created bool, err error)
}

// Row is one parsed data line
type Row struct {
	Line    int
	Product models.Product
}

// RowError ties a problem to its line in the file (header is line 1)
type RowError struct {
	Line int
	Err  error
}

func (e RowError) Error() string {
	return fmt.Sprintf("line %d: %v", e.Line, e.Err)
}

type Result struct {
	Created int
	Updated int
	Failed  int
	Errors  []RowError
}

// Parse reads the whole file. A bad header is fatal; bad rows are collected
// and parsing continues.
func Parse(r io.Reader) ([]Row, []RowError, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil, errors.New("file is empty")
		}
		return nil, nil, fmt.Errorf("read header: %w", err)
	}

	index := make(map[string]int, len(header))
	for i, h := range header {
		index[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))] = i
	}
	for _, col := range required {
		if _, ok := index[col]; !ok {
			return nil, nil, fmt.Errorf("missing required column %q", col)
		}
	}

	var rows []Row
	var rowErrs []RowError
	seen := make(map[string]int)
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var pe *csv.ParseError
			if !errors.As(err, &pe) {
				return rows, rowErrs, err
			}
			rowErrs = append(rowErrs, RowError{Line: pe.StartLine, Err: pe.Err})
			continue
		}
		line, _ := reader.FieldPos(0)
		if blank(record) {
			continue
		}

		p, err := parseRecord(record, index)
		if err != nil {
			rowErrs = append(rowErrs, RowError{Line: line, Err: err})
			continue
		}
		if first, dup := seen[p.SKU]; dup {
			rowErrs = append(rowErrs, RowError{Line: line, Err: fmt.Errorf("sku %s already appears on line %d", p.SKU, first)})
			continue
		}
		seen[p.SKU] = line
		rows = append(rows, Row{Line: line, Product: p})
	}
	return rows, rowErrs, nil
}

// Import parses r and upserts every good row by SKU. With dryRun nothing is written.
func Import(ctx context.Context, store ProductUpserter, r io.Reader, dryRun bool) (*Result, error) {
	rows, rowErrs, err := Parse(r)
	if err != nil {
		return nil, err
	}

	res := &Result{Errors: rowErrs, Failed: len(rowErrs)}
	for _, row := range rows {
		if dryRun {
			res.Created++
			continue
		}
		p := row.Product
		created, err := store.Upsert(ctx, &p)
		if err != nil {
			res.Failed++
			res.Errors = append(res.Errors, RowError{Line: row.Line, Err: err})
			continue
		}
		if created {
			res.Created++
		} else {
			res.Updated++
		}
	}
	return res, nil
}

func parseRecord(record []string, index map[string]int) (models.Product, error) {
	get := func(col string) string {
		i, ok := index[col]
		if !ok || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	p := models.Product{
		SKU:  strings.ToUpper(get(ColSKU)),
		Name: get(ColName),
	}
	if p.SKU == "" {
		return p, errors.New("sku is required")
	}
	if p.Name == "" {
		return p, errors.New("name is required")
	}

	var err error
	if p.WholesalePrice, err = price(get(ColWholesalePrice), ColWholesalePrice); err != nil {
		return p, err
	}
	if p.RetailPrice, err = price(get(ColRetailPrice), ColRetailPrice); err != nil {
		return p, err
	}
	if p.IsReturnable, err = boolean(get(ColReturnable)); err != nil {
		return p, err
	}
	if p.StockQuantity, err = count(get(ColStock), ColStock); err != nil {
		return p, err
	}
	if p.ReorderLevel, err = count(get(ColReorderLevel), ColReorderLevel); err != nil {
		return p, err
	}
	return p, nil
}

func price(v, col string) (decimal.Decimal, error) {
	if v == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(v)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%s %q is not a number", col, v)
	}
	if d.IsNegative() {
		return decimal.Zero, fmt.Errorf("%s cannot be negative", col)
	}
	return d.Round(2), nil
}

func count(v, col string) (int, error) {
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s %q is not a whole number", col, v)
	}
	if n < 0 {
		return 0, fmt.Errorf("%s cannot be negative", col)
	}
	return n, nil
}

func boolean(v string) (bool, error) {
	switch strings.ToLower(v) {
	case "", "0", "no", "n", "false":
		return false, nil
	case "1", "yes", "y", "true":
		return true, nil
	}
	return false, fmt.Errorf("returnable %q must be yes or no", v)
}

func blank(record []string) bool {
	for _, f := range record {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}
