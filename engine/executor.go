package engine

import (
	"fmt"
	"time"

	"go.uber.org/zap"
)

// ============================================================================
// EXECUTOR — Full report pipeline
// ============================================================================
// RunReport(warehouse, request):
//   1. Validate the request (configuration errors come back as one error).
//   2. Build the bucket sequence for the range and granularity.
//   3. Narrow the working set: report filters + user selection -> pk allow-set.
//   4. Aggregate each metric block into a per-bucket series.
//   5. Evaluate the formula (arithmetic + unit algebra).
//   6. Optionally compute the comparison series and grouped breakdowns.
//
// Pure computation; the engine never loads data and never calls out.
// ============================================================================

// GroupBySpec asks for one series per selected value of a categorical field.
type GroupBySpec struct {
	Field  FieldRef `json:"field"`
	Values []string `json:"values"`
}

// ReportRequest is the serializable input of one report computation.
type ReportRequest struct {
	Title   string  `json:"title,omitempty"`
	Formula Formula `json:"formula"`

	Start       time.Time   `json:"start"`
	End         time.Time   `json:"end"`
	Granularity Granularity `json:"granularity"`

	// Objects optionally overrides which objects' rows drive aggregation;
	// empty means each block aggregates its source object's rows.
	Objects []string `json:"objects,omitempty"`

	// Filters narrow the working set before any block runs; Selection
	// restricts it further to explicitly chosen rows.
	Filters   []FilterCondition `json:"filters,omitempty"`
	Selection []PrimaryKey      `json:"selection,omitempty"`

	Compare ComparisonMode `json:"compare,omitempty"`
	GroupBy *GroupBySpec   `json:"groupBy,omitempty"`
}

// ReportResult is the serializable outcome: the headline series plus the
// per-block results and any comparison or grouped series.
type ReportResult struct {
	Title      string                 `json:"title,omitempty"`
	Series     Series                 `json:"series"`
	Value      float64                `json:"value"`
	Unit       UnitType               `json:"unitType"`
	Note       string                 `json:"note,omitempty"`
	Buckets    []Bucket               `json:"buckets"`
	Blocks     map[string]BlockResult `json:"blocks"`
	Comparison *Comparison            `json:"comparison,omitempty"`
	Groups     []GroupResult          `json:"groups,omitempty"`
}

// RunReport computes a full report. Configuration problems surface as an
// error before any computation; data absence never does.
func (e *Engine) RunReport(w *Warehouse, req ReportRequest) (*ReportResult, error) {
	if v := e.ValidateRequest(req); !v.Valid {
		return nil, fmt.Errorf("invalid report request: %s", v.Issues[0].Reason)
	}

	buckets, err := Buckets(req.Start, req.End, req.Granularity)
	if err != nil {
		return nil, err
	}

	e.log.Debug("running report",
		zap.String("title", req.Title),
		zap.Int("blocks", len(req.Formula.Blocks)),
		zap.Int("buckets", len(buckets)),
		zap.String("granularity", string(req.Granularity)))

	eval, blocks, note, err := e.computeFormula(w, req, buckets)
	if err != nil {
		return nil, err
	}

	result := &ReportResult{
		Title:   req.Title,
		Series:  eval.Series,
		Value:   eval.Value,
		Unit:    eval.Unit,
		Note:    joinNotes(note, eval.Note),
		Buckets: buckets,
		Blocks:  blocks,
	}

	if req.Compare != "" {
		cmp, err := e.Compare(w, req, buckets, eval)
		if err != nil {
			return nil, err
		}
		result.Comparison = cmp
	}

	if req.GroupBy != nil {
		groups, err := e.GroupBy(w, req, buckets, req.GroupBy.Field, req.GroupBy.Values)
		if err != nil {
			return nil, err
		}
		result.Groups = groups
	}

	return result, nil
}

// computeFormula runs filters, per-block aggregation and formula evaluation
// against one warehouse and bucket sequence. It is re-invoked with shifted
// buckets by the comparison engine and with restricted warehouses by the
// grouping engine.
func (e *Engine) computeFormula(w *Warehouse, req ReportRequest, buckets []Bucket) (EvalResult, map[string]BlockResult, string, error) {
	include, note, err := e.workingSet(w, req)
	if err != nil {
		return EvalResult{}, nil, "", err
	}

	blocks := make(map[string]BlockResult, len(req.Formula.Blocks))
	for _, block := range req.Formula.Blocks {
		objects := req.Objects
		if len(objects) == 0 {
			objects = []string{block.Source.Object}
		}

		views, err := e.BuildRowViews(w, objects, blockFields(block, req.Filters))
		if err != nil {
			return EvalResult{}, nil, "", err
		}

		br, err := e.Aggregate(w, block, views, buckets, include)
		if err != nil {
			return EvalResult{}, nil, "", err
		}
		blocks[block.ID] = br
	}

	eval, err := e.Evaluate(req.Formula, buckets, blocks)
	if err != nil {
		return EvalResult{}, nil, "", err
	}

	return eval, blocks, note, nil
}

// workingSet builds the pk allow-set from report-level filters and the user
// selection. A nil set means no restriction.
func (e *Engine) workingSet(w *Warehouse, req ReportRequest) (map[string]struct{}, string, error) {
	var include map[string]struct{}

	if len(req.Filters) > 0 {
		objects := req.Objects
		if len(objects) == 0 {
			objects = blockObjects(req.Formula)
		}
		views, err := e.BuildRowViews(w, objects, filterFields(req.Filters))
		if err != nil {
			return nil, "", err
		}
		kept, err := e.ApplyFilters(w, views, req.Filters)
		if err != nil {
			return nil, "", err
		}
		include = AllowSet(kept)
	}

	if len(req.Selection) > 0 {
		selected := make(map[string]struct{}, len(req.Selection))
		for _, pk := range req.Selection {
			key := pk.String()
			if include == nil {
				selected[key] = struct{}{}
			} else if _, ok := include[key]; ok {
				selected[key] = struct{}{}
			}
		}
		include = selected
	}

	if include != nil && len(include) == 0 {
		return include, "No data in selection", nil
	}
	return include, "", nil
}

// blockFields lists the display fields a block's views need: its source plus
// any filter fields, so the filter engine reads the display map directly.
func blockFields(block MetricBlock, reportFilters []FilterCondition) []FieldRef {
	fields := []FieldRef{block.Source}
	for _, c := range block.Filters {
		fields = append(fields, c.Field)
	}
	for _, c := range reportFilters {
		fields = append(fields, c.Field)
	}
	return fields
}

func filterFields(conds []FilterCondition) []FieldRef {
	fields := make([]FieldRef, len(conds))
	for i, c := range conds {
		fields[i] = c.Field
	}
	return fields
}

// blockObjects returns the distinct source objects of a formula's blocks.
func blockObjects(f Formula) []string {
	seen := make(map[string]bool)
	var objects []string
	for _, b := range f.Blocks {
		if !seen[b.Source.Object] {
			seen[b.Source.Object] = true
			objects = append(objects, b.Source.Object)
		}
	}
	return objects
}

func joinNotes(a, b string) string {
	switch {
	case a == "":
		return b
	case b == "":
		return a
	default:
		return a + "; " + b
	}
}
