package engine

import (
	"fmt"
)

// ============================================================================
// VALIDATION — Structured checks on formulas and requests
// ============================================================================
// Configuration errors are never thrown mid-computation: callers validate a
// formula up front and decide whether to block save or show the reasons
// inline. Each issue carries a path into the configuration and a
// human-readable reason.
// ============================================================================

// ValidationIssue is one configuration problem.
type ValidationIssue struct {
	Path   string `json:"path"`
	Reason string `json:"reason"`
}

// ValidationResult is the outcome of validating a configuration.
type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Issues []ValidationIssue `json:"issues,omitempty"`
}

func (r *ValidationResult) add(path, format string, args ...any) {
	r.Issues = append(r.Issues, ValidationIssue{Path: path, Reason: fmt.Sprintf(format, args...)})
}

var validOps = map[AggregateOp]bool{
	AggSum: true, AggCount: true, AggAvg: true,
	AggMin: true, AggMax: true, AggDistinctCount: true,
}

var validTemporals = map[TemporalType]bool{
	TemporalSumOverPeriod: true, TemporalLatest: true, TemporalFirst: true,
}

var validCalcOps = map[CalcOperator]bool{
	CalcAdd: true, CalcSubtract: true, CalcMultiply: true, CalcDivide: true,
}

// ValidateFormula checks a formula's internal consistency: block identity,
// operator names, filter value shapes, calculation operand references and
// unit-type compatibility.
func (e *Engine) ValidateFormula(f Formula) ValidationResult {
	var res ValidationResult

	if len(f.Blocks) == 0 {
		res.add("blocks", "formula needs at least one block")
	}

	seen := make(map[string]bool)
	for i, b := range f.Blocks {
		path := fmt.Sprintf("blocks[%d]", i)
		if b.ID == "" {
			res.add(path+".id", "block id is required")
		} else if seen[b.ID] {
			res.add(path+".id", "duplicate block id %q", b.ID)
		}
		seen[b.ID] = true

		if !validOps[b.Op] {
			res.add(path+".op", "unknown aggregation op %q", b.Op)
		}
		if !validTemporals[b.Type] {
			res.add(path+".type", "unknown temporal type %q", b.Type)
		}
		if b.Source.Object == "" || b.Source.Field == "" {
			res.add(path+".source", "source must name an object and a field")
		} else if e.catalog != nil {
			if _, ok := e.catalog.Object(b.Source.Object); !ok {
				res.add(path+".source", "unknown object %q", b.Source.Object)
			} else if _, ok := e.catalog.Field(b.Source.Object, b.Source.Field); !ok {
				res.add(path+".source", "object %q has no field %q", b.Source.Object, b.Source.Field)
			}
		}

		for j, cond := range b.Filters {
			validateCondition(&res, fmt.Sprintf("%s.filters[%d]", path, j), cond)
		}
	}

	if f.Calculation != nil {
		validateCalculation(&res, e, f)
	}

	res.Valid = len(res.Issues) == 0
	return res
}

func validateCalculation(res *ValidationResult, e *Engine, f Formula) {
	calc := f.Calculation

	if len(f.Blocks) < 2 {
		res.add("calculation", "a calculation requires at least two blocks")
	}
	if !validCalcOps[calc.Operator] {
		res.add("calculation.operator", "unknown operator %q", calc.Operator)
	}

	left, leftOK := f.Block(calc.LeftOperand)
	if !leftOK {
		res.add("calculation.leftOperand", "references non-existent block id %q", calc.LeftOperand)
	}
	right, rightOK := f.Block(calc.RightOperand)
	if !rightOK {
		res.add("calculation.rightOperand", "references non-existent block id %q", calc.RightOperand)
	}

	if leftOK && rightOK && validCalcOps[calc.Operator] {
		if _, err := resultUnit(calc, e.blockUnit(left), e.blockUnit(right)); err != nil {
			res.add("calculation", "%v", err)
		}
	}
}

// validateCondition checks that a filter's value shape matches its operator.
func validateCondition(res *ValidationResult, path string, cond FilterCondition) {
	if cond.Field.Object == "" || cond.Field.Field == "" {
		res.add(path+".field", "filter field must name an object and a field")
	}

	switch cond.Operator {
	case OpEquals, OpNotEquals:
		if cond.Value == nil {
			res.add(path+".value", "%q requires a value", cond.Operator)
		}
	case OpIn:
		if _, ok := asSlice(cond.Value); !ok {
			res.add(path+".value", "%q requires a list value", cond.Operator)
		}
	case OpBetween:
		list, ok := asSlice(cond.Value)
		if !ok || len(list) != 2 {
			res.add(path+".value", "%q requires a 2-element value", cond.Operator)
		}
	case OpGreaterThan, OpLessThan:
		if cond.Value == nil {
			res.add(path+".value", "%q requires a value", cond.Operator)
		}
	case OpContains:
		if _, ok := cond.Value.(string); !ok {
			res.add(path+".value", "%q requires a string value", cond.Operator)
		}
	case OpIsTrue, OpIsFalse:
		if cond.Value != nil {
			res.add(path+".value", "%q takes no value", cond.Operator)
		}
	default:
		res.add(path+".operator", "unknown operator %q", cond.Operator)
	}
}

// ValidateRequest validates a full report request.
func (e *Engine) ValidateRequest(req ReportRequest) ValidationResult {
	res := e.ValidateFormula(req.Formula)

	switch req.Granularity {
	case GranDay, GranWeek, GranMonth, GranQuarter, GranYear:
	default:
		res.add("granularity", "unknown granularity %q", req.Granularity)
	}

	if req.End.Before(req.Start) {
		res.add("range", "end precedes start")
	}

	if req.Compare != "" {
		switch req.Compare {
		case ComparePeriodStart, ComparePreviousPeriod, ComparePreviousYear:
		default:
			res.add("compare", "unknown comparison mode %q", req.Compare)
		}
	}

	for i, cond := range req.Filters {
		validateCondition(&res, fmt.Sprintf("filters[%d]", i), cond)
	}

	res.Valid = len(res.Issues) == 0
	return res
}
