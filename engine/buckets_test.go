package engine

import (
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestBucketsMonth(t *testing.T) {
	buckets, err := Buckets(day("2025-01-01"), day("2025-02-28"), GranMonth)
	require.NoError(t, err)
	require.Len(t, buckets, 2)
	require.Equal(t, "2025-01", buckets[0].Label)
	require.Equal(t, "2025-02", buckets[1].Label)
	require.Equal(t, day("2025-01-01"), buckets[0].Start)
	require.Equal(t, day("2025-02-01"), buckets[0].End)
	require.Equal(t, day("2025-03-01"), buckets[1].End)
}

func TestBucketsContiguous(t *testing.T) {
	start, end := day("2024-11-17"), day("2025-03-09")

	for _, g := range []Granularity{GranDay, GranWeek, GranMonth, GranQuarter, GranYear} {
		buckets, err := Buckets(start, end, g)
		require.NoError(t, err, g)
		require.NotEmpty(t, buckets, g)

		// Half-open, contiguous, covering the range.
		require.False(t, buckets[0].Start.After(start), g)
		require.True(t, buckets[len(buckets)-1].End.After(end), g)
		for i := 1; i < len(buckets); i++ {
			require.Equal(t, buckets[i-1].End, buckets[i].Start, g)
		}

		// Labels sort lexicographically in chronological order.
		labels := make([]string, len(buckets))
		for i, b := range buckets {
			labels[i] = b.Label
		}
		require.True(t, sort.StringsAreSorted(labels), "%s labels: %v", g, labels)
	}
}

func TestBucketsWeekSnapsToMonday(t *testing.T) {
	// 2025-01-09 is a Thursday; its week starts Monday 2025-01-06.
	buckets, err := Buckets(day("2025-01-09"), day("2025-01-09"), GranWeek)
	require.NoError(t, err)
	require.Len(t, buckets, 1)
	require.Equal(t, day("2025-01-06"), buckets[0].Start)
	require.Equal(t, time.Monday, buckets[0].Start.Weekday())
	require.Equal(t, "2025-01-06", buckets[0].Label)
}

func TestBucketsQuarter(t *testing.T) {
	buckets, err := Buckets(day("2025-02-14"), day("2025-08-01"), GranQuarter)
	require.NoError(t, err)
	require.Len(t, buckets, 3)
	require.Equal(t, "2025-Q1", buckets[0].Label)
	require.Equal(t, day("2025-01-01"), buckets[0].Start)
	require.Equal(t, "2025-Q3", buckets[2].Label)
	require.Equal(t, day("2025-10-01"), buckets[2].End)
}

func TestBucketsRejectsInvertedRange(t *testing.T) {
	_, err := Buckets(day("2025-02-01"), day("2025-01-01"), GranDay)
	require.Error(t, err)
}

func TestBucketsRejectsUnknownGranularity(t *testing.T) {
	_, err := Buckets(day("2025-01-01"), day("2025-02-01"), Granularity("fortnight"))
	require.Error(t, err)
}
