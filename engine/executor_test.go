package engine

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRunReport(t *testing.T) {
	e, w := testEngine()

	res, err := e.RunReport(w, ReportRequest{
		Title:       "Payment volume",
		Formula:     Formula{Blocks: []MetricBlock{sumPaymentsBlock()}},
		Start:       day("2025-01-01"),
		End:         day("2025-02-28"),
		Granularity: GranMonth,
	})
	require.NoError(t, err)

	require.Equal(t, "Payment volume", res.Title)
	require.Equal(t, Series{
		{Date: "2025-01", Value: 100},
		{Date: "2025-02", Value: 500},
	}, res.Series)
	require.Equal(t, 600.0, res.Value)
	require.Equal(t, UnitCurrency, res.Unit)
	require.Len(t, res.Buckets, 2)
	require.Contains(t, res.Blocks, "b1")
}

func TestRunReportInvalidRequest(t *testing.T) {
	e, w := testEngine()

	_, err := e.RunReport(w, ReportRequest{
		Formula:     Formula{},
		Start:       day("2025-01-01"),
		End:         day("2025-02-28"),
		Granularity: GranMonth,
	})
	require.Error(t, err)
	require.Contains(t, err.Error(), "invalid report request")
}

func TestRunReportWithReportFilters(t *testing.T) {
	e, w := testEngine()

	res, err := e.RunReport(w, ReportRequest{
		Formula:     Formula{Blocks: []MetricBlock{sumPaymentsBlock()}},
		Start:       day("2025-01-01"),
		End:         day("2025-02-28"),
		Granularity: GranMonth,
		Filters: []FilterCondition{
			{Field: FieldRef{Object: "customer", Field: "delinquent"}, Operator: OpIsFalse},
		},
	})
	require.NoError(t, err)
	require.Equal(t, 300.0, res.Value) // only cus_1's payments survive
}

func TestRunReportSelection(t *testing.T) {
	e, w := testEngine()

	res, err := e.RunReport(w, ReportRequest{
		Formula:     Formula{Blocks: []MetricBlock{sumPaymentsBlock()}},
		Start:       day("2025-01-01"),
		End:         day("2025-02-28"),
		Granularity: GranMonth,
		Selection:   []PrimaryKey{{Object: "payment", ID: "pay_1"}, {Object: "payment", ID: "pay_3"}},
	})
	require.NoError(t, err)
	require.Equal(t, 400.0, res.Value)
}

func TestRunReportEmptySelectionNote(t *testing.T) {
	e, w := testEngine()

	res, err := e.RunReport(w, ReportRequest{
		Formula:     Formula{Blocks: []MetricBlock{sumPaymentsBlock()}},
		Start:       day("2025-01-01"),
		End:         day("2025-02-28"),
		Granularity: GranMonth,
		Filters: []FilterCondition{
			{Field: FieldRef{Object: "payment", Field: "status"}, Operator: OpEquals, Value: "disputed"},
		},
		Selection: []PrimaryKey{{Object: "payment", ID: "pay_1"}},
	})
	require.NoError(t, err)
	require.Equal(t, "No data in selection", res.Note)
	require.Equal(t, 0.0, res.Value)
	require.Equal(t, Series{
		{Date: "2025-01", Value: 0},
		{Date: "2025-02", Value: 0},
	}, res.Series)
}

func TestRunReportCalculation(t *testing.T) {
	e, w := testEngine()

	count := MetricBlock{
		ID:     "b2",
		Source: FieldRef{Object: "payment", Field: "id"},
		Op:     AggCount,
		Type:   TemporalSumOverPeriod,
	}
	res, err := e.RunReport(w, ReportRequest{
		Formula: Formula{
			Blocks: []MetricBlock{sumPaymentsBlock(), count},
			Calculation: &Calculation{
				Operator: CalcDivide, LeftOperand: "b1", RightOperand: "b2",
				ResultUnitType: UnitCurrency,
			},
		},
		Start:       day("2025-01-01"),
		End:         day("2025-02-28"),
		Granularity: GranMonth,
	})
	require.NoError(t, err)

	// Average payment value per bucket.
	require.Equal(t, Series{
		{Date: "2025-01", Value: 100},
		{Date: "2025-02", Value: 250},
	}, res.Series)
	require.Equal(t, 200.0, res.Value)
	require.Equal(t, UnitCurrency, res.Unit)
	require.Len(t, res.Blocks, 2)
}

func TestRunReportWithComparisonAndGroups(t *testing.T) {
	e, w := testEngine()

	res, err := e.RunReport(w, ReportRequest{
		Formula:     Formula{Blocks: []MetricBlock{sumPaymentsBlock()}},
		Start:       day("2025-01-01"),
		End:         day("2025-02-28"),
		Granularity: GranMonth,
		Compare:     ComparePeriodStart,
		GroupBy: &GroupBySpec{
			Field:  FieldRef{Object: "customer", Field: "country"},
			Values: []string{"us", "de"},
		},
	})
	require.NoError(t, err)

	require.NotNil(t, res.Comparison)
	require.Equal(t, 100.0, res.Comparison.Baseline)

	require.Len(t, res.Groups, 2)
	require.Equal(t, "us", res.Groups[0].Value)
	require.Equal(t, 300.0, res.Groups[0].Result.Value)
	require.Equal(t, "de", res.Groups[1].Value)
	require.Equal(t, 300.0, res.Groups[1].Result.Value)
}

func TestRunReportWithoutCatalog(t *testing.T) {
	e := New(nil)
	w := NewWarehouse(nil)
	w.SetTable("payments", []Row{
		{"id": "pay_1", "amount": 100.0, "created": "2025-01-05"},
		{"id": "pay_2", "amount": 200.0, "created": "2025-02-10"},
	})

	// No schema: timestamp priority and unit inference fall back to defaults.
	res, err := e.RunReport(w, ReportRequest{
		Formula:     Formula{Blocks: []MetricBlock{sumPaymentsBlock()}},
		Start:       day("2025-01-01"),
		End:         day("2025-02-28"),
		Granularity: GranMonth,
	})
	require.NoError(t, err)
	require.Equal(t, Series{
		{Date: "2025-01", Value: 100},
		{Date: "2025-02", Value: 200},
	}, res.Series)
	require.Equal(t, UnitCount, res.Unit)
}

func TestRunReportIsIdempotent(t *testing.T) {
	e, w := testEngine()
	req := ReportRequest{
		Formula:     Formula{Blocks: []MetricBlock{sumPaymentsBlock()}},
		Start:       day("2025-01-01"),
		End:         day("2025-02-28"),
		Granularity: GranMonth,
		Compare:     ComparePreviousPeriod,
	}

	first, err := e.RunReport(w, req)
	require.NoError(t, err)
	second, err := e.RunReport(w, req)
	require.NoError(t, err)
	require.Equal(t, first, second)
}
