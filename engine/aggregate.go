package engine

import (
	"sort"
)

// ============================================================================
// AGGREGATOR — One numeric value per bucket for one metric block
// ============================================================================
// Flow metrics (sum_over_period) reduce the rows whose timestamp falls inside
// each bucket. Stock metrics (latest/first) reduce, per bucket, each entity's
// newest/oldest row at or before the bucket's end — no lookahead: rows after
// a bucket's end can never affect that bucket. Buckets with no qualifying
// rows yield 0, including avg, to keep series numeric.
// ============================================================================

// rowValue is a view with its source value pre-resolved once.
type rowValue struct {
	view RowView
	raw  any
	num  float64
	ok   bool // raw coerces to a number
}

// Aggregate computes a block's series over the given buckets. Views are first
// narrowed by the block's filters and, when supplied, by the pk allow-set.
func (e *Engine) Aggregate(w *Warehouse, block MetricBlock, views []RowView, buckets []Bucket, include map[string]struct{}) (BlockResult, error) {
	qualified, err := e.ApplyFilters(w, views, block.Filters)
	if err != nil {
		return BlockResult{}, err
	}

	if include != nil {
		kept := qualified[:0:0]
		for _, v := range qualified {
			if _, ok := include[v.PK.String()]; ok {
				kept = append(kept, v)
			}
		}
		qualified = kept
	}

	values := e.resolveValues(w, block, qualified)

	var series Series
	var headline float64

	switch block.Type {
	case TemporalLatest, TemporalFirst:
		series = e.stockSeries(block, values, buckets)
		headline = 0
		if len(series) > 0 {
			if block.Type == TemporalFirst {
				headline = series[0].Value
			} else {
				headline = series[len(series)-1].Value
			}
		}
	default:
		series = e.flowSeries(block, values, buckets)
		headline = headlineOverRange(block.Op, values, buckets)
	}

	return BlockResult{
		Series: series,
		Value:  headline,
		Unit:   e.blockUnit(block),
	}, nil
}

// resolveValues extracts each view's source value once, resolving through the
// relationship graph when the source field lives on another object.
func (e *Engine) resolveValues(w *Warehouse, block MetricBlock, views []RowView) []rowValue {
	out := make([]rowValue, len(views))
	for i, v := range views {
		var raw any
		if block.Source.Object == v.PK.Object {
			raw = v.row[block.Source.Field]
		} else {
			raw = e.Resolve(w, v.row, v.PK.Object, block.Source)
		}
		num, ok := toFloatStrict(raw)
		out[i] = rowValue{view: v, raw: raw, num: num, ok: ok}
	}
	return out
}

// flowSeries buckets rows by timestamp and reduces each bucket.
func (e *Engine) flowSeries(block MetricBlock, values []rowValue, buckets []Bucket) Series {
	series := make(Series, len(buckets))
	for i, b := range buckets {
		var inBucket []rowValue
		for _, rv := range values {
			ts := rv.view.TS
			if ts == nil || ts.Before(b.Start) || !ts.Before(b.End) {
				continue
			}
			inBucket = append(inBucket, rv)
		}
		series[i] = SeriesPoint{Date: b.Label, Value: reduce(block.Op, inBucket)}
	}
	return series
}

// stockSeries computes, per bucket, the reduction over each entity's
// latest (or first) row with ts before the bucket's end.
func (e *Engine) stockSeries(block MetricBlock, values []rowValue, buckets []Bucket) Series {
	dated := make([]rowValue, 0, len(values))
	for _, rv := range values {
		if rv.view.TS != nil {
			dated = append(dated, rv)
		}
	}
	sort.SliceStable(dated, func(i, j int) bool {
		return dated[i].view.TS.Before(*dated[j].view.TS)
	})

	chosen := make(map[string]rowValue)
	series := make(Series, len(buckets))
	next := 0

	for i, b := range buckets {
		for next < len(dated) && dated[next].view.TS.Before(b.End) {
			pk := dated[next].view.PK.String()
			if block.Type == TemporalFirst {
				if _, seen := chosen[pk]; !seen {
					chosen[pk] = dated[next]
				}
			} else {
				chosen[pk] = dated[next]
			}
			next++
		}

		snapshot := make([]rowValue, 0, len(chosen))
		for _, rv := range chosen {
			snapshot = append(snapshot, rv)
		}
		series[i] = SeriesPoint{Date: b.Label, Value: reduce(block.Op, snapshot)}
	}

	return series
}

// reduce applies an aggregation op to a row set. Empty sets yield 0.
func reduce(op AggregateOp, rows []rowValue) float64 {
	switch op {
	case AggCount:
		n := 0
		for _, rv := range rows {
			if rv.raw != nil {
				n++
			}
		}
		return float64(n)

	case AggDistinctCount:
		seen := make(map[string]struct{})
		for _, rv := range rows {
			if rv.raw != nil {
				seen[stringify(rv.raw)] = struct{}{}
			}
		}
		return float64(len(seen))

	case AggAvg:
		var sum float64
		n := 0
		for _, rv := range rows {
			if rv.ok {
				sum += rv.num
				n++
			}
		}
		if n == 0 {
			return 0
		}
		return sum / float64(n)

	case AggMin:
		var m float64
		found := false
		for _, rv := range rows {
			if rv.ok && (!found || rv.num < m) {
				m = rv.num
				found = true
			}
		}
		return m

	case AggMax:
		var m float64
		found := false
		for _, rv := range rows {
			if rv.ok && (!found || rv.num > m) {
				m = rv.num
				found = true
			}
		}
		return m

	default: // AggSum
		var sum float64
		for _, rv := range rows {
			if rv.ok {
				sum += rv.num
			}
		}
		return sum
	}
}

// headlineOverRange reduces all rows inside the whole bucketed range in one
// pass: sums and counts equal the series total, avg becomes count-weighted,
// distinct_count deduplicates across the range rather than per bucket.
func headlineOverRange(op AggregateOp, values []rowValue, buckets []Bucket) float64 {
	if len(buckets) == 0 {
		return 0
	}
	start, end := buckets[0].Start, buckets[len(buckets)-1].End

	inRange := make([]rowValue, 0, len(values))
	for _, rv := range values {
		ts := rv.view.TS
		if ts == nil || ts.Before(start) || !ts.Before(end) {
			continue
		}
		inRange = append(inRange, rv)
	}
	return reduce(op, inRange)
}

// blockUnit infers a block's unit type: counting ops are counts, everything
// else takes the source field's declared unit from the catalog.
func (e *Engine) blockUnit(block MetricBlock) UnitType {
	if block.Op == AggCount || block.Op == AggDistinctCount {
		return UnitCount
	}
	switch e.catalog.FieldUnit(block.Source.Object, block.Source.Field) {
	case string(UnitCurrency):
		return UnitCurrency
	case string(UnitVolume):
		return UnitVolume
	case string(UnitRate):
		return UnitRate
	case string(UnitCount):
		return UnitCount
	default:
		return UnitCount
	}
}
