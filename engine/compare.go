package engine

// ============================================================================
// COMPARISON ENGINE — Shifted-range re-computation
// ============================================================================
// previous_period shifts every bucket back by the bucket count of the current
// range (whole periods, not calendar days), previous_year by exactly one
// calendar year. Both re-run the same formula and filters over the shifted
// buckets. period_start never re-queries: it is a flat baseline at the
// current series' first point; delta rendering is the caller's concern.
// ============================================================================

// Compare derives the comparison series for a report. current is the already
// computed primary result, used by period_start.
func (e *Engine) Compare(w *Warehouse, req ReportRequest, buckets []Bucket, current EvalResult) (*Comparison, error) {
	switch req.Compare {
	case ComparePeriodStart:
		var baseline float64
		if len(current.Series) > 0 {
			baseline = current.Series[0].Value
		}
		series := make(Series, len(current.Series))
		for i, p := range current.Series {
			series[i] = SeriesPoint{Date: p.Date, Value: baseline}
		}
		return &Comparison{Mode: req.Compare, Series: series, Baseline: baseline}, nil

	case ComparePreviousPeriod:
		shifted := shiftBuckets(buckets, -len(buckets), req.Granularity)
		return e.compareOver(w, req, shifted)

	case ComparePreviousYear:
		shifted := make([]Bucket, len(buckets))
		for i, b := range buckets {
			start := b.Start.AddDate(-1, 0, 0)
			shifted[i] = Bucket{
				Start: start,
				End:   b.End.AddDate(-1, 0, 0),
				Label: bucketLabel(start, req.Granularity),
			}
		}
		return e.compareOver(w, req, shifted)

	default:
		return nil, nil
	}
}

// compareOver re-invokes the aggregation pipeline over shifted buckets with
// the same formula, filters and selection as the primary computation.
func (e *Engine) compareOver(w *Warehouse, req ReportRequest, shifted []Bucket) (*Comparison, error) {
	eval, _, note, err := e.computeFormula(w, req, shifted)
	if err != nil {
		return nil, err
	}
	return &Comparison{
		Mode:     req.Compare,
		Series:   eval.Series,
		Baseline: eval.Value,
		Note:     joinNotes(note, eval.Note),
	}, nil
}

// shiftBuckets moves every bucket by n whole granularity units, relabeling
// from the shifted starts. Bucket count is preserved by construction.
func shiftBuckets(buckets []Bucket, n int, g Granularity) []Bucket {
	out := make([]Bucket, len(buckets))
	for i, b := range buckets {
		start := advance(b.Start, n, g)
		out[i] = Bucket{Start: start, End: advance(b.End, n, g), Label: bucketLabel(start, g)}
	}
	return out
}
