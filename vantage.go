// Package vantage provides a metric aggregation engine over a normalized,
// Stripe-like relational dataset held entirely in memory.
//
// Usage:
//
//	import "github.com/vantage-org/vantage/engine"
//
//	eng := engine.New(catalog, engine.WithLogger(logger))
//	result, err := eng.RunReport(warehouse, engine.ReportRequest{
//	    Formula:     formula,
//	    Start:       start,
//	    End:         end,
//	    Granularity: engine.GranMonth,
//	})
//
// The engine takes a serializable ReportRequest (hand-written, persisted, or
// produced by the translator package) and a warehouse of plain rows, and
// returns per-bucket series, headline values, comparisons and grouped
// breakdowns. All computation is local and pure; only the translator package
// calls an external service.
package vantage
