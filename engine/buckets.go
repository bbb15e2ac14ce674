package engine

import (
	"fmt"
	"time"
)

// ============================================================================
// TIME BUCKETER — Contiguous labeled buckets over a date range
// ============================================================================
// Buckets are half-open [Start, End), snapped to calendar boundaries (weeks
// start on Monday), contiguous, and cover the requested range; the final
// bucket may extend past the range end by less than one granularity unit.
// Labels are stable and sort lexicographically in chronological order.
// ============================================================================

// Buckets partitions [start, end] into labeled buckets at a granularity.
func Buckets(start, end time.Time, g Granularity) ([]Bucket, error) {
	if end.Before(start) {
		return nil, fmt.Errorf("bucket range end %s before start %s", end.Format("2006-01-02"), start.Format("2006-01-02"))
	}

	cur, err := snap(start.UTC(), g)
	if err != nil {
		return nil, err
	}
	end = end.UTC()

	var buckets []Bucket
	for !cur.After(end) {
		next := advance(cur, 1, g)
		if !next.After(cur) {
			return nil, fmt.Errorf("bucket sequence not monotonic at %s", cur)
		}
		buckets = append(buckets, Bucket{Start: cur, End: next, Label: bucketLabel(cur, g)})
		cur = next
	}

	return buckets, nil
}

// snap truncates a time down to the start of its granularity period.
func snap(t time.Time, g Granularity) (time.Time, error) {
	year, month, day := t.Date()
	switch g {
	case GranDay:
		return time.Date(year, month, day, 0, 0, 0, 0, time.UTC), nil
	case GranWeek:
		midnight := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
		return midnight.AddDate(0, 0, -daysSinceMonday(midnight)), nil
	case GranMonth:
		return time.Date(year, month, 1, 0, 0, 0, 0, time.UTC), nil
	case GranQuarter:
		return time.Date(year, month-(month-1)%3, 1, 0, 0, 0, 0, time.UTC), nil
	case GranYear:
		return time.Date(year, 1, 1, 0, 0, 0, 0, time.UTC), nil
	default:
		return time.Time{}, fmt.Errorf("unknown granularity %q", g)
	}
}

// advance moves a period-aligned time forward (or back, negative n) by whole
// granularity units.
func advance(t time.Time, n int, g Granularity) time.Time {
	switch g {
	case GranDay:
		return t.AddDate(0, 0, n)
	case GranWeek:
		return t.AddDate(0, 0, 7*n)
	case GranMonth:
		return t.AddDate(0, n, 0)
	case GranQuarter:
		return t.AddDate(0, 3*n, 0)
	case GranYear:
		return t.AddDate(n, 0, 0)
	default:
		return t
	}
}

func bucketLabel(start time.Time, g Granularity) string {
	switch g {
	case GranDay, GranWeek:
		return start.Format("2006-01-02")
	case GranMonth:
		return start.Format("2006-01")
	case GranQuarter:
		return fmt.Sprintf("%d-Q%d", start.Year(), (int(start.Month())-1)/3+1)
	case GranYear:
		return start.Format("2006")
	default:
		return start.Format("2006-01-02")
	}
}

func daysSinceMonday(t time.Time) int {
	// time.Weekday has Sunday = 0.
	return (int(t.Weekday()) + 6) % 7
}
