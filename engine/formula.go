package engine

import (
	"fmt"
)

// ============================================================================
// FORMULA EVALUATOR — Combines block series with arithmetic + unit algebra
// ============================================================================

// Evaluate combines computed block results per the formula. A single block
// passes through unchanged. With a calculation, each bucket combines the two
// operand values; a zero denominator yields 0 for that bucket (never NaN or
// Inf) and is reported through the diagnostic note.
func (e *Engine) Evaluate(f Formula, buckets []Bucket, results map[string]BlockResult) (EvalResult, error) {
	if f.Calculation == nil {
		if len(f.Blocks) == 0 {
			return EvalResult{}, fmt.Errorf("formula has no blocks")
		}
		br, ok := results[f.Blocks[0].ID]
		if !ok {
			return EvalResult{}, fmt.Errorf("no result for block %q", f.Blocks[0].ID)
		}
		unit := br.Unit
		if f.OutputUnit != "" {
			unit = f.OutputUnit
		}
		return EvalResult{Series: br.Series, Value: br.Value, Unit: unit}, nil
	}

	calc := f.Calculation
	left, ok := results[calc.LeftOperand]
	if !ok {
		return EvalResult{}, fmt.Errorf("calculation references unknown block %q", calc.LeftOperand)
	}
	right, ok := results[calc.RightOperand]
	if !ok {
		return EvalResult{}, fmt.Errorf("calculation references unknown block %q", calc.RightOperand)
	}

	unit, err := resultUnit(calc, left.Unit, right.Unit)
	if err != nil {
		return EvalResult{}, err
	}
	if f.OutputUnit != "" {
		unit = f.OutputUnit
	}

	series := make(Series, len(buckets))
	zeroDenoms := 0
	for i, b := range buckets {
		var lv, rv float64
		if i < len(left.Series) {
			lv = left.Series[i].Value
		}
		if i < len(right.Series) {
			rv = right.Series[i].Value
		}
		v, divZero := combine(calc.Operator, lv, rv)
		if divZero {
			zeroDenoms++
		}
		series[i] = SeriesPoint{Date: b.Label, Value: v}
	}

	headline, headlineZero := combine(calc.Operator, left.Value, right.Value)

	note := ""
	if zeroDenoms > 0 || headlineZero {
		note = fmt.Sprintf("division by zero in %d of %d buckets resolved to 0", zeroDenoms, len(buckets))
	}

	return EvalResult{Series: series, Value: headline, Unit: unit, Note: note}, nil
}

// combine applies a calculation operator to two values. The second return
// reports a zero-denominator division, which resolves to 0.
func combine(op CalcOperator, l, r float64) (float64, bool) {
	switch op {
	case CalcAdd:
		return l + r, false
	case CalcSubtract:
		return l - r, false
	case CalcMultiply:
		return l * r, false
	case CalcDivide:
		if r == 0 {
			return 0, true
		}
		return l / r, false
	default:
		return 0, false
	}
}

// resultUnit applies the unit-type rules: add/subtract demand matching units;
// multiply/divide derive the result unit, deferring to an explicit
// resultUnitType and rejecting combinations that are ambiguous (currency ÷
// count could be a per-unit currency or a normalized rate) or undefined.
func resultUnit(calc *Calculation, l, r UnitType) (UnitType, error) {
	switch calc.Operator {
	case CalcAdd, CalcSubtract:
		if l != r {
			return "", fmt.Errorf("cannot %s %s and %s: unit types must match", calc.Operator, l, r)
		}
		return l, nil

	case CalcMultiply, CalcDivide:
		if calc.ResultUnitType != "" {
			return calc.ResultUnitType, nil
		}
		candidates := deriveUnits(calc.Operator, l, r)
		switch len(candidates) {
		case 1:
			return candidates[0], nil
		case 0:
			return "", fmt.Errorf("no defined unit type for %s %s %s", l, calc.Operator, r)
		default:
			return "", fmt.Errorf("%s %s %s is ambiguous (%v): set resultUnitType explicitly",
				l, calc.Operator, r, candidates)
		}

	default:
		return "", fmt.Errorf("unknown calculation operator %q", calc.Operator)
	}
}

// deriveUnits lists the valid result unit types of a multiply/divide.
func deriveUnits(op CalcOperator, l, r UnitType) []UnitType {
	if op == CalcMultiply {
		switch {
		case l == UnitCount && r == UnitCount:
			return []UnitType{UnitCount}
		case l == UnitCount:
			return []UnitType{r}
		case r == UnitCount:
			return []UnitType{l}
		case l == UnitRate:
			return []UnitType{r}
		case r == UnitRate:
			return []UnitType{l}
		default:
			return nil
		}
	}

	// divide
	switch {
	case l == r:
		return []UnitType{UnitRate}
	case r == UnitRate:
		return []UnitType{l}
	case r == UnitCount:
		// e.g. currency / count: average order value (currency) or a
		// normalized per-unit rate — caller intent decides.
		return []UnitType{l, UnitRate}
	case l == UnitCount:
		return []UnitType{UnitRate}
	default:
		return nil
	}
}
