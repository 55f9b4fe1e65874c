// Package ranking joins per-user aggregates against the member roster.
// Every roster member appears exactly once, with zero aggregates when they
// have no activity.
package ranking

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/loopystack/Portal/internal/aggregate"
	"github.com/loopystack/Portal/internal/domain"
	"github.com/loopystack/Portal/internal/period"
)

// WorkRow is one member's work-hour aggregates.
type WorkRow struct {
	Member  domain.Member
	Daily   time.Duration
	Weekly  time.Duration
	Monthly time.Duration
	Total   time.Duration
}

// WorkHours ranks members by total Work duration. blocks may contain any
// label and any user; only Work blocks of roster members are counted.
// Ties keep roster order.
func WorkHours(members []domain.Member, blocks []domain.TimeBlock, periods period.Set) []WorkRow {
	byUser := aggregate.GroupByUser(aggregate.FilterLabel(blocks, domain.LabelWork))
	rows := make([]WorkRow, 0, len(members))
	for _, m := range members {
		s := aggregate.Summarize(byUser[m.ID], periods)
		rows = append(rows, WorkRow{
			Member:  m,
			Daily:   s.Today,
			Weekly:  s.Week,
			Monthly: s.Month,
			Total:   s.Total,
		})
	}
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].Total > rows[j].Total
	})
	return rows
}

// RevenueRow is one member's revenue aggregates for a target month.
type RevenueRow struct {
	Member   domain.Member
	Monthly  decimal.Decimal
	Total    decimal.Decimal
	Expected *decimal.Decimal
}

// Revenue ranks members by total revenue. Monthly sums entries dated in
// year/month; expected maps user id to that month's target.
func Revenue(members []domain.Member, entries []domain.RevenueEntry, expected map[string]decimal.Decimal, year int, month time.Month) []RevenueRow {
	type sums struct{ monthly, total decimal.Decimal }
	byUser := make(map[string]*sums, len(members))
	for _, e := range entries {
		s, ok := byUser[e.UserID]
		if !ok {
			s = &sums{}
			byUser[e.UserID] = s
		}
		s.total = s.total.Add(e.Amount)
		if e.InMonth(year, month) {
			s.monthly = s.monthly.Add(e.Amount)
		}
	}

	rows := make([]RevenueRow, 0, len(members))
	for _, m := range members {
		row := RevenueRow{Member: m, Monthly: decimal.Zero, Total: decimal.Zero}
		if s, ok := byUser[m.ID]; ok {
			row.Monthly = s.monthly
			row.Total = s.total
		}
		if amt, ok := expected[m.ID]; ok {
			a := amt
			row.Expected = &a
		}
		rows = append(rows, row)
	}
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].Total.GreaterThan(rows[j].Total)
	})
	return rows
}

// Hours converts d to hours rounded to two decimals.
func Hours(d time.Duration) decimal.Decimal {
	return decimal.NewFromInt(int64(d)).Div(decimal.NewFromInt(int64(time.Hour))).Round(2)
}

// Money rounds an amount to two decimals for output.
func Money(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}
