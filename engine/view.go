package engine

import (
	"fmt"
	"time"
)

// ============================================================================
// ROW VIEW BUILDER — Projects warehouse rows into the engine's uniform shape
// ============================================================================

// BuildRowViews emits one RowView per warehouse row of each selected object.
// Display holds only the selected fields that belong to that object, keyed
// "object.field". TS comes from the object's timestamp priority list; rows
// with no usable timestamp get a nil TS and are excluded from date-bounded
// operations. A row without an id breaks pk-based selection and caching
// downstream, so it is an error rather than a degraded view.
func (e *Engine) BuildRowViews(w *Warehouse, selectedObjects []string, selectedFields []FieldRef) ([]RowView, error) {
	var views []RowView

	for _, object := range selectedObjects {
		fields := fieldsForObject(selectedFields, object)
		priority := e.catalog.TimestampPriority(object)

		for i, row := range w.Table(object) {
			id, ok := row["id"]
			if !ok || id == nil {
				return nil, fmt.Errorf("row %d of %q has no id", i, object)
			}

			display := make(map[string]any, len(fields))
			for _, f := range fields {
				display[f.Qualified()] = row[f.Field]
			}

			views = append(views, RowView{
				Display: display,
				PK:      PrimaryKey{Object: object, ID: stringify(id)},
				TS:      rowTimestamp(row, priority),
				row:     row,
			})
		}
	}

	return views, nil
}

func fieldsForObject(fields []FieldRef, object string) []FieldRef {
	var own []FieldRef
	for _, f := range fields {
		if f.Object == object {
			own = append(own, f)
		}
	}
	return own
}

func rowTimestamp(row Row, priority []string) *time.Time {
	for _, field := range priority {
		v, ok := row[field]
		if !ok || v == nil {
			continue
		}
		if t, ok := toTime(v); ok {
			return &t
		}
	}
	return nil
}
