package helpers

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/hashicorp/go-multierror"

	"github.com/vantage-org/vantage/engine"
	"github.com/vantage-org/vantage/schema"
)

// ============================================================================
// WAREHOUSE LOADING — Files on disk into an in-memory warehouse
// ============================================================================
// The engine itself never does I/O; these helpers turn a directory of entity
// files into a Warehouse. One file per entity type: payments.json holds the
// "payment" table. JSON rows load as-is; CSV rows get scalar coercion so
// amounts aggregate as numbers. Tables load independently — a partially
// loaded warehouse is a normal operating mode, so per-table failures are
// collected rather than aborting the rest.
// ============================================================================

// LoadWarehouseDir loads every .json and .csv file in dir as one table each.
// The returned error aggregates per-table failures; the warehouse still
// contains every table that loaded cleanly.
func LoadWarehouseDir(dir string, cat *schema.Catalog) (*engine.Warehouse, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read warehouse dir %s: %w", dir, err)
	}

	w := engine.NewWarehouse(cat)
	var errs *multierror.Error

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		path := filepath.Join(dir, name)
		table := strings.TrimSuffix(name, filepath.Ext(name))

		switch filepath.Ext(name) {
		case ".json":
			rows, err := LoadJSONTable(path)
			if err != nil {
				errs = multierror.Append(errs, err)
				continue
			}
			w.SetTable(table, rows)
		case ".csv":
			rows, err := LoadCSVTable(path)
			if err != nil {
				errs = multierror.Append(errs, err)
				continue
			}
			w.SetTable(table, rows)
		}
	}

	return w, errs.ErrorOrNil()
}

// LoadJSONTable reads one entity table from a JSON array of row objects.
func LoadJSONTable(path string) ([]engine.Row, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read table %s: %w", path, err)
	}

	var rows []engine.Row
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("parse table %s: %w", path, err)
	}
	return rows, nil
}

// LoadCSVTable reads one entity table from CSV, a row object per line with
// scalars coerced: numbers become float64, true/false become booleans, empty
// cells become nil.
func LoadCSVTable(path string) ([]engine.Row, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open table %s: %w", path, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	headers, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read CSV headers of %s: %w", path, err)
	}
	for i, h := range headers {
		headers[i] = strings.TrimSpace(h)
	}

	var rows []engine.Row
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read CSV row of %s: %w", path, err)
		}

		row := make(engine.Row, len(headers))
		for i, cell := range record {
			if i >= len(headers) {
				break
			}
			row[headers[i]] = coerceScalar(cell)
		}
		rows = append(rows, row)
	}

	return rows, nil
}

func coerceScalar(cell string) any {
	cell = strings.TrimSpace(cell)
	switch {
	case cell == "":
		return nil
	case strings.EqualFold(cell, "true"):
		return true
	case strings.EqualFold(cell, "false"):
		return false
	}
	if f, err := strconv.ParseFloat(cell, 64); err == nil {
		return f
	}
	return cell
}
