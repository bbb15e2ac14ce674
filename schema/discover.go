package schema

import (
	"sort"
	"strings"
	"time"
)

// ============================================================================
// DISCOVERY — Infer a catalog from an already-loaded warehouse
// ============================================================================
// Used when no catalog file is supplied. Heuristics only: column names and
// sampled values decide field types, units, timestamp priority, and likely
// foreign-key relationships ("customer_id" on payment -> customer.id). A
// hand-written catalog always wins over discovery.
// ============================================================================

// enum detection: a string column qualifies when its distinct values are few
// and clearly repeated.
const (
	enumMaxCardinality = 12
	discoverSampleSize = 500
)

// Discover infers a Catalog from warehouse tables (entity type -> rows).
func Discover(name string, tables map[string][]map[string]any) *Catalog {
	cat := &Catalog{
		Name:    name,
		Objects: make(map[string]Object, len(tables)),
	}

	objectNames := make([]string, 0, len(tables))
	for table := range tables {
		objectNames = append(objectNames, table)
	}
	sort.Strings(objectNames)

	for _, object := range objectNames {
		cat.Objects[object] = discoverObject(object, tables[object])
	}

	// Foreign keys: a "<object>_id" column whose stem names another object.
	for _, source := range objectNames {
		for _, f := range cat.Objects[source].Fields {
			stem, ok := strings.CutSuffix(f.Name, "_id")
			if !ok || stem == "" {
				continue
			}
			if _, exists := cat.Objects[stem]; exists {
				cat.Relationships = append(cat.Relationships, Relationship{
					Source:      source,
					SourceField: f.Name,
					Target:      stem,
					TargetField: "id",
				})
			}
		}
	}

	return cat
}

func discoverObject(name string, rows []map[string]any) Object {
	if len(rows) > discoverSampleSize {
		rows = rows[:discoverSampleSize]
	}

	// Stable column order across map-keyed rows
	colSeen := make(map[string]bool)
	var cols []string
	for _, row := range rows {
		for k := range row {
			if !colSeen[k] {
				colSeen[k] = true
				cols = append(cols, k)
			}
		}
	}
	sort.Strings(cols)

	obj := Object{Label: toDisplayName(name)}

	for _, col := range cols {
		field := analyzeField(col, rows)
		obj.Fields = append(obj.Fields, field)
		if field.Type == TypeTimestamp {
			obj.TimestampFields = append(obj.TimestampFields, col)
		}
	}

	// Order the timestamp priority by the shared default list first, then
	// whatever else was discovered.
	obj.TimestampFields = orderTimestampFields(obj.TimestampFields)

	return obj
}

func analyzeField(name string, rows []map[string]any) Field {
	if name == "id" || strings.HasSuffix(name, "_id") {
		return Field{Name: name, Type: TypeID}
	}

	var (
		numbers, bools, dates, strs int
		nonNull                     int
		distinct                    = make(map[string]bool)
	)

	for _, row := range rows {
		v, ok := row[name]
		if !ok || v == nil {
			continue
		}
		nonNull++
		switch tv := v.(type) {
		case bool:
			bools++
		case float64, float32, int, int64, int32:
			numbers++
		case string:
			if isDateString(tv) {
				dates++
			} else {
				strs++
				distinct[tv] = true
			}
		}
	}

	switch {
	case nonNull == 0:
		return Field{Name: name, Type: TypeString}
	case dates > 0 && dates >= strs:
		return Field{Name: name, Type: TypeTimestamp}
	case bools > 0 && bools >= numbers && bools >= strs:
		return Field{Name: name, Type: TypeBoolean}
	case numbers > 0 && numbers >= strs:
		return Field{Name: name, Type: TypeNumber, Unit: inferUnit(name)}
	}

	if len(distinct) > 0 && len(distinct) <= enumMaxCardinality && len(distinct) < nonNull {
		values := make([]string, 0, len(distinct))
		for v := range distinct {
			values = append(values, v)
		}
		sort.Strings(values)
		return Field{Name: name, Type: TypeEnum, Enum: values}
	}

	return Field{Name: name, Type: TypeString}
}

// inferUnit guesses a unit tag for a numeric column from its name.
func inferUnit(name string) string {
	lower := strings.ToLower(name)
	switch {
	case strings.Contains(lower, "amount"),
		strings.Contains(lower, "price"),
		strings.Contains(lower, "balance"),
		strings.Contains(lower, "total"),
		strings.Contains(lower, "revenue"),
		strings.Contains(lower, "fee"):
		return "currency"
	case strings.Contains(lower, "quantity"),
		strings.Contains(lower, "count"),
		strings.Contains(lower, "seats"),
		strings.Contains(lower, "units"):
		return "count"
	case strings.Contains(lower, "rate"),
		strings.Contains(lower, "percent"),
		strings.Contains(lower, "ratio"):
		return "rate"
	}
	return ""
}

var dateFormats = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"2006/01/02",
}

func isDateString(s string) bool {
	if len(s) < 8 || len(s) > 35 {
		return false
	}
	for _, f := range dateFormats {
		if _, err := time.Parse(f, s); err == nil {
			return true
		}
	}
	return false
}

func orderTimestampFields(found []string) []string {
	if len(found) <= 1 {
		return found
	}
	rank := func(name string) int {
		for i, pref := range defaultTimestampFields {
			if name == pref {
				return i
			}
		}
		return len(defaultTimestampFields)
	}
	sort.SliceStable(found, func(i, j int) bool { return rank(found[i]) < rank(found[j]) })
	return found
}

func toDisplayName(s string) string {
	parts := strings.FieldsFunc(s, func(r rune) bool { return r == '_' || r == '-' })
	for i, p := range parts {
		if len(p) > 0 {
			parts[i] = strings.ToUpper(p[:1]) + p[1:]
		}
	}
	return strings.Join(parts, " ")
}
