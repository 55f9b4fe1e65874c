package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/loopystack/Portal/internal/ranking"
)

type workRankingRowDTO struct {
	Rank         int         `json:"rank"`
	UserID       string      `json:"user_id"`
	DisplayName  string      `json:"display_name"`
	DailyHours   json.Number `json:"daily_hours"`
	WeeklyHours  json.Number `json:"weekly_hours"`
	MonthlyHours json.Number `json:"monthly_hours"`
	TotalHours   json.Number `json:"total_hours"`
}

type revenueRankingRowDTO struct {
	Rank        int          `json:"rank"`
	UserID      string       `json:"user_id"`
	DisplayName string       `json:"display_name"`
	Monthly     json.Number  `json:"monthly"`
	Total       json.Number  `json:"total"`
	Expected    *json.Number `json:"expected"`
}

// WorkHoursRanking ranks every member by total Work hours. Daily, weekly and
// monthly columns are clipped to the periods containing ?at= (default now).
func (a *App) WorkHoursRanking(w http.ResponseWriter, r *http.Request) {
	ref := a.Calendar.Now()
	if v := r.URL.Query().Get("at"); v != "" {
		t, err := parseInstant("at", v)
		if err != nil {
			a.fail(w, r, err)
			return
		}
		ref = t
	}
	rows, set, err := a.rankings().WorkHours(r.Context(), ref)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	items := make([]workRankingRowDTO, 0, len(rows))
	for i, row := range rows {
		items = append(items, workRankingRowDTO{
			Rank:         i + 1,
			UserID:       row.Member.ID,
			DisplayName:  row.Member.DisplayName,
			DailyHours:   number(ranking.Hours(row.Daily)),
			WeeklyHours:  number(ranking.Hours(row.Weekly)),
			MonthlyHours: number(ranking.Hours(row.Monthly)),
			TotalHours:   number(ranking.Hours(row.Total)),
		})
	}
	a.json(w, http.StatusOK, map[string]any{
		"periods": map[string]rangeDTO{
			"today": toRangeDTO(set.Today),
			"week":  toRangeDTO(set.Week),
			"month": toRangeDTO(set.Month),
		},
		"items": items,
	})
}

func (a *App) RevenueRanking(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	year, month, err := a.yearMonth(q.Get("year"), q.Get("month"))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	rows, err := a.rankings().RevenueFor(r.Context(), year, month)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	items := make([]revenueRankingRowDTO, 0, len(rows))
	for i, row := range rows {
		item := revenueRankingRowDTO{
			Rank:        i + 1,
			UserID:      row.Member.ID,
			DisplayName: row.Member.DisplayName,
			Monthly:     number(ranking.Money(row.Monthly)),
			Total:       number(ranking.Money(row.Total)),
		}
		if row.Expected != nil {
			n := number(ranking.Money(*row.Expected))
			item.Expected = &n
		}
		items = append(items, item)
	}
	a.json(w, http.StatusOK, map[string]any{
		"year":  year,
		"month": int(month),
		"items": items,
	})
}

func (a *App) rankings() *ranking.Service {
	return &ranking.Service{
		Users:      a.Users,
		TimeBlocks: a.TimeBlocks,
		Revenue:    a.Revenue,
		Calendar:   a.Calendar,
	}
}
