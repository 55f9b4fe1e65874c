// Package aggregate sums time-block durations over periods. Blocks that
// straddle a period edge contribute only the part inside the period.
package aggregate

import (
	"time"

	"github.com/loopystack/Portal/internal/domain"
	"github.com/loopystack/Portal/internal/period"
)

// Clipped returns the portion of [start, end) that lies inside r, or zero.
func Clipped(start, end time.Time, r period.Range) time.Duration {
	if !end.After(r.Start) || !start.Before(r.End) {
		return 0
	}
	if start.Before(r.Start) {
		start = r.Start
	}
	if end.After(r.End) {
		end = r.End
	}
	return end.Sub(start)
}

// ClippedSum sums the clipped durations of blocks over r.
func ClippedSum(blocks []domain.TimeBlock, r period.Range) time.Duration {
	var total time.Duration
	for _, b := range blocks {
		total += Clipped(b.Start, b.End, r)
	}
	return total
}

// Total sums the full, unclipped durations of blocks.
func Total(blocks []domain.TimeBlock) time.Duration {
	var total time.Duration
	for _, b := range blocks {
		total += b.Duration()
	}
	return total
}

// FilterLabel keeps blocks carrying label.
func FilterLabel(blocks []domain.TimeBlock, label domain.Label) []domain.TimeBlock {
	var out []domain.TimeBlock
	for _, b := range blocks {
		if b.Label == label {
			out = append(out, b)
		}
	}
	return out
}

// FilterRange keeps blocks intersecting r.
func FilterRange(blocks []domain.TimeBlock, r period.Range) []domain.TimeBlock {
	var out []domain.TimeBlock
	for _, b := range blocks {
		if b.Overlaps(r.Start, r.End) {
			out = append(out, b)
		}
	}
	return out
}

// Summary holds per-period totals for one set of blocks.
type Summary struct {
	Today time.Duration
	Week  time.Duration
	Month time.Duration
	Total time.Duration
}

// Summarize computes the clipped today/week/month sums and the unclipped
// total of blocks.
func Summarize(blocks []domain.TimeBlock, periods period.Set) Summary {
	return Summary{
		Today: ClippedSum(blocks, periods.Today),
		Week:  ClippedSum(blocks, periods.Week),
		Month: ClippedSum(blocks, periods.Month),
		Total: Total(blocks),
	}
}

// GroupByUser buckets blocks by owner, preserving order within each bucket.
func GroupByUser(blocks []domain.TimeBlock) map[string][]domain.TimeBlock {
	out := make(map[string][]domain.TimeBlock)
	for _, b := range blocks {
		out[b.UserID] = append(out[b.UserID], b)
	}
	return out
}
