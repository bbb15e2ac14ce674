package engine

import (
	"go.uber.org/zap"
)

// ============================================================================
// GROUPING ENGINE — One series per distinct value of a categorical field
// ============================================================================
// For each selected value, the warehouse is restricted: every object the
// formula depends on that can reach the grouping field keeps only the rows
// whose resolved field value stringifies to that value. Objects that cannot
// reach the field keep their full tables, so unrelated joins stay intact.
// The restricted warehouse then re-runs the same aggregation pipeline.
// Results follow selected-value order.
// ============================================================================

// GroupBy computes one series per value of field, restricted per value.
func (e *Engine) GroupBy(w *Warehouse, req ReportRequest, buckets []Bucket, field FieldRef, values []string) ([]GroupResult, error) {
	dependents := e.dependentObjects(req, field)

	e.log.Debug("grouping report",
		zap.String("field", field.Qualified()),
		zap.Int("values", len(values)),
		zap.Strings("restricted", dependents))

	results := make([]GroupResult, 0, len(values))
	for _, value := range values {
		restricted := e.restrictWarehouse(w, dependents, field, value)

		eval, _, note, err := e.computeFormula(restricted, req, buckets)
		if err != nil {
			return nil, err
		}
		eval.Note = joinNotes(note, eval.Note)
		results = append(results, GroupResult{Value: value, Result: eval})
	}

	return results, nil
}

// dependentObjects lists the objects whose tables must be restricted for a
// grouping: the formula's aggregation objects plus every block source and
// filter object that can reach the grouping field through the graph.
func (e *Engine) dependentObjects(req ReportRequest, field FieldRef) []string {
	candidates := append([]string{}, req.Objects...)
	for _, b := range req.Formula.Blocks {
		candidates = append(candidates, b.Source.Object)
		for _, c := range b.Filters {
			candidates = append(candidates, c.Field.Object)
		}
	}
	for _, c := range req.Filters {
		candidates = append(candidates, c.Field.Object)
	}

	seen := make(map[string]bool)
	var out []string
	for _, object := range candidates {
		if seen[object] {
			continue
		}
		seen[object] = true
		if object == field.Object || e.Reachable(object, field.Object) {
			out = append(out, object)
		}
	}
	return out
}

// restrictWarehouse derives a warehouse where each dependent object's rows
// are narrowed to those resolving field to value.
func (e *Engine) restrictWarehouse(w *Warehouse, dependents []string, field FieldRef, value string) *Warehouse {
	overrides := make(map[string][]Row, len(dependents))

	for _, object := range dependents {
		rows := w.Table(object)
		kept := make([]Row, 0, len(rows))

		resolved := e.ResolveBatch(w, rows, object, field)
		for i, row := range rows {
			if resolved[i] == nil {
				continue
			}
			if stringify(resolved[i]) == value {
				kept = append(kept, row)
			}
		}
		overrides[object] = kept
	}

	return w.restricted(overrides)
}
