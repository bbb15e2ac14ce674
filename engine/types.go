package engine

import "time"

// ============================================================================
// ENGINE TYPES — Metric formulas over a normalized in-memory warehouse
// ============================================================================
// Everything here is plain and JSON-serializable so report configurations can
// be persisted and replayed against a refreshed warehouse. The engine never
// mutates rows; RowView carries a private reference to its source row only so
// filters and aggregation can resolve related-object fields.
// ============================================================================

// Row is one warehouse record: field name -> scalar (string, number, boolean
// or nil). Rows are externally generated and never mutated by the engine.
type Row map[string]any

// FieldRef names a field on an object, e.g. {payment amount}.
type FieldRef struct {
	Object string `json:"object"`
	Field  string `json:"field"`
}

// Qualified returns the "object.field" form used as a display key.
func (f FieldRef) Qualified() string { return f.Object + "." + f.Field }

// PrimaryKey identifies one warehouse row.
type PrimaryKey struct {
	Object string `json:"object"`
	ID     string `json:"id"`
}

// String returns the "object:id" form used in allow-sets.
func (pk PrimaryKey) String() string { return pk.Object + ":" + pk.ID }

// RowView is a warehouse row projected into the engine's uniform shape:
// a qualified-key display map, a primary key, and a canonical timestamp.
// Views are rebuilt on every engine invocation and never persisted.
type RowView struct {
	Display map[string]any `json:"display"`
	PK      PrimaryKey     `json:"pk"`
	TS      *time.Time     `json:"ts"`

	row Row // source row, for related-field resolution
}

// ============================================================================
// FILTERS
// ============================================================================

// FilterOperator is a row-level predicate kind.
type FilterOperator string

const (
	OpEquals      FilterOperator = "equals"
	OpNotEquals   FilterOperator = "not_equals"
	OpIn          FilterOperator = "in"
	OpBetween     FilterOperator = "between"
	OpGreaterThan FilterOperator = "greater_than"
	OpLessThan    FilterOperator = "less_than"
	OpContains    FilterOperator = "contains"
	OpIsTrue      FilterOperator = "is_true"
	OpIsFalse     FilterOperator = "is_false"
)

// FilterCondition is one predicate against a (possibly related) field.
// Value shape must match the operator: "between" takes a 2-element slice,
// "in" a slice, "is_true"/"is_false" no value at all.
type FilterCondition struct {
	Field    FieldRef       `json:"field"`
	Operator FilterOperator `json:"operator"`
	Value    any            `json:"value,omitempty"`
}

// ============================================================================
// METRIC FORMULAS
// ============================================================================

// AggregateOp is the per-bucket reduction applied to qualifying rows.
type AggregateOp string

const (
	AggSum           AggregateOp = "sum"
	AggCount         AggregateOp = "count"
	AggAvg           AggregateOp = "avg"
	AggMin           AggregateOp = "min"
	AggMax           AggregateOp = "max"
	AggDistinctCount AggregateOp = "distinct_count"
)

// TemporalType distinguishes flow metrics (summed within each bucket) from
// stock metrics (state as of each bucket's end).
type TemporalType string

const (
	TemporalSumOverPeriod TemporalType = "sum_over_period"
	TemporalLatest        TemporalType = "latest"
	TemporalFirst         TemporalType = "first"
)

// MetricBlock is one aggregation: an op over a source field with a temporal
// type and optional row filters. ID must be unique within a Formula.
type MetricBlock struct {
	ID      string            `json:"id"`
	Name    string            `json:"name,omitempty"`
	Source  FieldRef          `json:"source"`
	Op      AggregateOp       `json:"op"`
	Type    TemporalType      `json:"type"`
	Filters []FilterCondition `json:"filters,omitempty"`
}

// CalcOperator combines two block series arithmetically.
type CalcOperator string

const (
	CalcAdd      CalcOperator = "add"
	CalcSubtract CalcOperator = "subtract"
	CalcMultiply CalcOperator = "multiply"
	CalcDivide   CalcOperator = "divide"
)

// Calculation combines two blocks of a Formula. Both operands must reference
// existing block ids.
type Calculation struct {
	Operator       CalcOperator `json:"operator"`
	LeftOperand    string       `json:"leftOperand"`
	RightOperand   string       `json:"rightOperand"`
	ResultUnitType UnitType     `json:"resultUnitType,omitempty"`
}

// Formula is one or more metric blocks, optionally combined by a calculation.
type Formula struct {
	Blocks      []MetricBlock `json:"blocks"`
	Calculation *Calculation  `json:"calculation,omitempty"`
	OutputUnit  UnitType      `json:"outputUnit,omitempty"`
}

// Block returns the block with the given id.
func (f Formula) Block(id string) (MetricBlock, bool) {
	for _, b := range f.Blocks {
		if b.ID == id {
			return b, true
		}
	}
	return MetricBlock{}, false
}

// ============================================================================
// UNITS
// ============================================================================

// UnitType classifies what a series measures, for formula algebra.
type UnitType string

const (
	UnitCount    UnitType = "count"
	UnitCurrency UnitType = "currency"
	UnitVolume   UnitType = "volume"
	UnitRate     UnitType = "rate"
)

// ============================================================================
// TIME
// ============================================================================

// Granularity is the bucket width of a series.
type Granularity string

const (
	GranDay     Granularity = "day"
	GranWeek    Granularity = "week"
	GranMonth   Granularity = "month"
	GranQuarter Granularity = "quarter"
	GranYear    Granularity = "year"
)

// Bucket is a half-open time interval [Start, End) with a stable label.
type Bucket struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
	Label string    `json:"label"`
}

// ============================================================================
// RESULTS
// ============================================================================

// SeriesPoint is one bucket's value.
type SeriesPoint struct {
	Date  string  `json:"date"`
	Value float64 `json:"value"`
}

// Series is one point per bucket, gap-free: buckets with no contributing rows
// report 0, not a missing point.
type Series []SeriesPoint

// Total sums all points.
func (s Series) Total() float64 {
	var t float64
	for _, p := range s {
		t += p.Value
	}
	return t
}

// BlockResult is one block's series, headline value and unit.
type BlockResult struct {
	Series Series   `json:"series"`
	Value  float64  `json:"value"`
	Unit   UnitType `json:"unitType"`
}

// EvalResult is a formula's combined series, headline value and unit.
// Note carries non-fatal diagnostics (e.g. division-by-zero buckets).
type EvalResult struct {
	Series Series   `json:"series"`
	Value  float64  `json:"value"`
	Unit   UnitType `json:"unitType"`
	Note   string   `json:"note,omitempty"`
}

// ComparisonMode selects how the comparison series is derived.
type ComparisonMode string

const (
	ComparePeriodStart    ComparisonMode = "period_start"
	ComparePreviousPeriod ComparisonMode = "previous_period"
	ComparePreviousYear   ComparisonMode = "previous_year"
)

// Comparison is a comparison series plus its baseline headline value.
type Comparison struct {
	Mode     ComparisonMode `json:"mode"`
	Series   Series         `json:"series"`
	Baseline float64        `json:"baseline"`
	Note     string         `json:"note,omitempty"`
}

// GroupResult is one grouped breakdown series, in selected-value order.
type GroupResult struct {
	Value  string     `json:"value"`
	Result EvalResult `json:"result"`
}
