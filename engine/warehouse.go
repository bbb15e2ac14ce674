package engine

import (
	"sort"
	"strings"
	"sync/atomic"

	"github.com/vantage-org/vantage/schema"
)

// ============================================================================
// WAREHOUSE — Canonically named in-memory tables with versions
// ============================================================================
// Callers may request "customer" while the store was loaded as "customers";
// the canonical-name map is built once from the catalog rather than guessed
// per lookup. Each table carries a version, bumped on every SetTable, which
// keys the relationship index cache. Tables may be partially loaded — a
// missing table is data absence, not an error.
// ============================================================================

var warehouseSeq atomic.Int64

// Warehouse maps canonical entity-type names to row slices.
type Warehouse struct {
	id        int64
	canonical map[string]string
	tables    map[string][]Row
	versions  map[string]int
}

// NewWarehouse creates an empty warehouse whose canonical-name map is seeded
// from the catalog (singular object names plus their declared plurals).
func NewWarehouse(cat *schema.Catalog) *Warehouse {
	w := &Warehouse{
		id:        warehouseSeq.Add(1),
		canonical: make(map[string]string),
		tables:    make(map[string][]Row),
		versions:  make(map[string]int),
	}
	if cat != nil {
		for name := range cat.Objects {
			w.canonical[name] = name
			w.canonical[cat.PluralOf(name)] = name
		}
	}
	return w
}

// SetTable installs (or replaces) a table and bumps its version. Names not
// known to the catalog register themselves plus a naive plural alias.
func (w *Warehouse) SetTable(name string, rows []Row) {
	object := w.canonicalName(name)
	if object == "" {
		object = strings.TrimSuffix(name, "s")
		if object == "" {
			object = name
		}
		w.canonical[object] = object
		w.canonical[object+"s"] = object
		w.canonical[name] = object
	}
	w.tables[object] = rows
	w.versions[object]++
}

// Table returns the rows for an entity type, accepting either the canonical
// or the plural name. Missing tables return nil.
func (w *Warehouse) Table(name string) []Row {
	object := w.canonicalName(name)
	if object == "" {
		return nil
	}
	return w.tables[object]
}

// Version returns the current version of a table; 0 means never loaded.
func (w *Warehouse) Version(name string) int {
	object := w.canonicalName(name)
	if object == "" {
		return 0
	}
	return w.versions[object]
}

// Objects returns the canonical names of all loaded tables, sorted.
func (w *Warehouse) Objects() []string {
	names := make([]string, 0, len(w.tables))
	for name := range w.tables {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Tables returns the underlying canonical-name -> rows mapping. Read-only.
func (w *Warehouse) Tables() map[string][]Row {
	return w.tables
}

func (w *Warehouse) canonicalName(name string) string {
	if object, ok := w.canonical[name]; ok {
		return object
	}
	return ""
}

// restricted derives a warehouse sharing this one's canonical map, with some
// tables replaced. The derived warehouse has its own identity so cached
// indexes never collide with the parent's.
func (w *Warehouse) restricted(overrides map[string][]Row) *Warehouse {
	d := &Warehouse{
		id:        warehouseSeq.Add(1),
		canonical: w.canonical,
		tables:    make(map[string][]Row, len(w.tables)),
		versions:  make(map[string]int, len(w.versions)),
	}
	for name, rows := range w.tables {
		d.tables[name] = rows
		d.versions[name] = w.versions[name]
	}
	for name, rows := range overrides {
		object := d.canonicalName(name)
		if object == "" {
			object = name
		}
		d.tables[object] = rows
		d.versions[object]++
	}
	return d
}
