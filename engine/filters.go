package engine

import (
	"fmt"
	"strings"
	"time"
)

// ============================================================================
// FILTER ENGINE — AND-composed predicates over row views
// ============================================================================
// Each condition resolves its target field from the row view's display map,
// or through the relationship resolver when the field lives on another
// object. Unsupported operator/value shapes are rejected, not ignored; a row
// value that is simply absent fails the condition (absence is not an error).
// ============================================================================

// ApplyFilters returns the views satisfying every condition, in input order.
func (e *Engine) ApplyFilters(w *Warehouse, views []RowView, conds []FilterCondition) ([]RowView, error) {
	if len(conds) == 0 {
		return views, nil
	}

	out := make([]RowView, 0, len(views))
	for _, view := range views {
		pass := true
		for _, cond := range conds {
			ok, err := e.matches(w, view, cond)
			if err != nil {
				return nil, err
			}
			if !ok {
				pass = false
				break
			}
		}
		if pass {
			out = append(out, view)
		}
	}
	return out, nil
}

// AllowSet converts views into a primary-key allow-set of "object:id"
// strings for O(1) membership tests downstream.
func AllowSet(views []RowView) map[string]struct{} {
	set := make(map[string]struct{}, len(views))
	for _, v := range views {
		set[v.PK.String()] = struct{}{}
	}
	return set
}

func (e *Engine) matches(w *Warehouse, view RowView, cond FilterCondition) (bool, error) {
	value := e.fieldValue(w, view, cond.Field)
	return evalCondition(cond, value)
}

// fieldValue reads a field for a view: display map first, then the row
// itself, then the relationship graph.
func (e *Engine) fieldValue(w *Warehouse, view RowView, field FieldRef) any {
	if v, ok := view.Display[field.Qualified()]; ok {
		return v
	}
	if field.Object == view.PK.Object {
		return view.row[field.Field]
	}
	return e.Resolve(w, view.row, view.PK.Object, field)
}

func evalCondition(cond FilterCondition, value any) (bool, error) {
	switch cond.Operator {
	case OpEquals:
		if value == nil {
			return false, nil
		}
		return scalarEqual(value, cond.Value), nil

	case OpNotEquals:
		if value == nil {
			return true, nil
		}
		return !scalarEqual(value, cond.Value), nil

	case OpIn:
		list, ok := asSlice(cond.Value)
		if !ok {
			return false, fmt.Errorf("filter %s: %q requires a list value, got %T",
				cond.Field.Qualified(), cond.Operator, cond.Value)
		}
		if value == nil {
			return false, nil
		}
		for _, candidate := range list {
			if scalarEqual(value, candidate) {
				return true, nil
			}
		}
		return false, nil

	case OpBetween:
		bounds, ok := asSlice(cond.Value)
		if !ok || len(bounds) != 2 {
			return false, fmt.Errorf("filter %s: %q requires a 2-element value, got %v",
				cond.Field.Qualified(), cond.Operator, cond.Value)
		}
		if value == nil {
			return false, nil
		}
		lo, okLo := compareScalar(value, bounds[0])
		hi, okHi := compareScalar(value, bounds[1])
		if !okLo || !okHi {
			return false, fmt.Errorf("filter %s: %q bounds are not comparable with %v",
				cond.Field.Qualified(), cond.Operator, value)
		}
		return lo >= 0 && hi <= 0, nil

	case OpGreaterThan:
		if value == nil {
			return false, nil
		}
		c, ok := compareScalar(value, cond.Value)
		if !ok {
			return false, fmt.Errorf("filter %s: %q needs comparable values, got %T and %T",
				cond.Field.Qualified(), cond.Operator, value, cond.Value)
		}
		return c > 0, nil

	case OpLessThan:
		if value == nil {
			return false, nil
		}
		c, ok := compareScalar(value, cond.Value)
		if !ok {
			return false, fmt.Errorf("filter %s: %q needs comparable values, got %T and %T",
				cond.Field.Qualified(), cond.Operator, value, cond.Value)
		}
		return c < 0, nil

	case OpContains:
		needle, ok := cond.Value.(string)
		if !ok {
			return false, fmt.Errorf("filter %s: %q requires a string value, got %T",
				cond.Field.Qualified(), cond.Operator, cond.Value)
		}
		if value == nil {
			return false, nil
		}
		return strings.Contains(strings.ToLower(stringify(value)), strings.ToLower(needle)), nil

	case OpIsTrue, OpIsFalse:
		b, ok := asBool(value)
		if !ok {
			return false, nil
		}
		return b == (cond.Operator == OpIsTrue), nil

	default:
		return false, fmt.Errorf("filter %s: unsupported operator %q", cond.Field.Qualified(), cond.Operator)
	}
}

// scalarEqual compares numerically when both sides are numeric, otherwise by
// case-insensitive string form.
func scalarEqual(a, b any) bool {
	if fa, ok := toFloatStrict(a); ok {
		if fb, ok := toFloatStrict(b); ok {
			return fa == fb
		}
	}
	return strings.EqualFold(stringify(a), stringify(b))
}

// compareScalar orders two scalars: timestamps when both parse as times,
// numbers when both are numeric, otherwise not comparable.
func compareScalar(a, b any) (int, bool) {
	if ta, ok := toTimeStrict(a); ok {
		if tb, ok := toTimeStrict(b); ok {
			switch {
			case ta.Before(tb):
				return -1, true
			case ta.After(tb):
				return 1, true
			default:
				return 0, true
			}
		}
	}
	fa, okA := toFloat(a)
	fb, okB := toFloat(b)
	if !okA || !okB {
		return 0, false
	}
	switch {
	case fa < fb:
		return -1, true
	case fa > fb:
		return 1, true
	default:
		return 0, true
	}
}

// toFloatStrict is toFloat minus the string fallback, so "usd" == "usd" does not
// route through numeric comparison and "100" the string still equals 100.
func toFloatStrict(v any) (float64, bool) {
	if _, isStr := v.(string); isStr {
		return 0, false
	}
	if _, isBool := v.(bool); isBool {
		return 0, false
	}
	return toFloat(v)
}

// toTimeStrict only accepts string or time values, so plain numbers keep
// ordering numerically instead of as unix seconds.
func toTimeStrict(v any) (time.Time, bool) {
	switch tv := v.(type) {
	case string:
		return toTime(tv)
	case time.Time:
		return tv.UTC(), true
	default:
		return time.Time{}, false
	}
}

func asSlice(v any) ([]any, bool) {
	switch tv := v.(type) {
	case []any:
		return tv, true
	case []string:
		out := make([]any, len(tv))
		for i, s := range tv {
			out[i] = s
		}
		return out, true
	case []float64:
		out := make([]any, len(tv))
		for i, f := range tv {
			out[i] = f
		}
		return out, true
	case []int:
		out := make([]any, len(tv))
		for i, n := range tv {
			out[i] = n
		}
		return out, true
	default:
		return nil, false
	}
}

func asBool(v any) (bool, bool) {
	switch tv := v.(type) {
	case bool:
		return tv, true
	case string:
		if strings.EqualFold(tv, "true") {
			return true, true
		}
		if strings.EqualFold(tv, "false") {
			return false, true
		}
		return false, false
	default:
		return false, false
	}
}
