package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/loopystack/Portal/internal/domain"
	"github.com/loopystack/Portal/internal/ranking"
)

type revenueEntryDTO struct {
	ID        string      `json:"id"`
	UserID    string      `json:"user_id"`
	Date      string      `json:"date"`
	Amount    json.Number `json:"amount"`
	Note      string      `json:"note"`
	CreatedAt time.Time   `json:"created_at"`
}

func toRevenueEntryDTO(e domain.RevenueEntry) revenueEntryDTO {
	return revenueEntryDTO{
		ID:        e.ID,
		UserID:    e.UserID,
		Date:      e.Date.Format(domain.DateLayout),
		Amount:    number(ranking.Money(e.Amount)),
		Note:      e.Note,
		CreatedAt: e.CreatedAt,
	}
}

type createRevenueRequest struct {
	UserID string              `json:"user_id"`
	Date   string              `json:"date"`
	Amount decimal.NullDecimal `json:"amount"`
	Note   string              `json:"note"`
}

type expectedRevenueRequest struct {
	UserID string              `json:"user_id"`
	Year   int                 `json:"year"`
	Month  int                 `json:"month"`
	Amount decimal.NullDecimal `json:"amount"`
}

type expectedRevenueDTO struct {
	UserID string       `json:"user_id"`
	Year   int          `json:"year"`
	Month  int          `json:"month"`
	Amount *json.Number `json:"amount"`
}

func (a *App) ListRevenue(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	userID, err := a.subject(r, q.Get("user_id"))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	year, month := a.Calendar.YearMonth(a.Calendar.Now())
	from := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 1, -1)
	if v := q.Get("from"); v != "" {
		if from, err = domain.ParseDate(v); err != nil {
			a.fail(w, r, err)
			return
		}
	}
	if v := q.Get("to"); v != "" {
		if to, err = domain.ParseDate(v); err != nil {
			a.fail(w, r, err)
			return
		}
	}
	if to.Before(from) {
		a.fail(w, r, fmt.Errorf("%w: to must not be before from", domain.ErrValidation))
		return
	}
	entries, err := a.Revenue.List(r.Context(), userID, from, to)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	items := make([]revenueEntryDTO, 0, len(entries))
	sum := decimal.Zero
	for _, e := range entries {
		items = append(items, toRevenueEntryDTO(e))
		sum = sum.Add(e.Amount)
	}
	a.json(w, http.StatusOK, map[string]any{
		"items": items,
		"total": number(ranking.Money(sum)),
	})
}

func (a *App) CreateRevenue(w http.ResponseWriter, r *http.Request) {
	var req createRevenueRequest
	if err := a.decode(r, &req); err != nil {
		a.fail(w, r, err)
		return
	}
	userID, err := a.subject(r, req.UserID)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	if !req.Amount.Valid {
		a.fail(w, r, fmt.Errorf("%w: amount is required", domain.ErrValidation))
		return
	}
	date := a.Calendar.Now().In(a.Calendar.Location())
	day := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)
	if strings.TrimSpace(req.Date) != "" {
		if day, err = domain.ParseDate(strings.TrimSpace(req.Date)); err != nil {
			a.fail(w, r, err)
			return
		}
	}
	entry, err := a.Revenue.Create(r.Context(), &domain.RevenueEntry{
		UserID: userID,
		Date:   day,
		Amount: req.Amount.Decimal,
		Note:   strings.TrimSpace(req.Note),
	})
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusCreated, toRevenueEntryDTO(*entry))
}

// DeleteRevenue removes an entry owned by the caller, or any entry for admins.
func (a *App) DeleteRevenue(w http.ResponseWriter, r *http.Request) {
	p, err := a.principal(r)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	id := chi.URLParam(r, "id")
	if err := validID(id); err != nil {
		a.fail(w, r, err)
		return
	}
	entry, err := a.Revenue.GetByID(r.Context(), id)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	if entry.UserID != p.UserID && !p.IsAdmin() {
		a.fail(w, r, domain.ErrNotFound)
		return
	}
	if err := a.Revenue.Delete(r.Context(), id); err != nil {
		a.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *App) GetExpectedRevenue(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	userID, err := a.subject(r, q.Get("user_id"))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	year, month, err := a.yearMonth(q.Get("year"), q.Get("month"))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	amount, err := a.Revenue.GetExpected(r.Context(), userID, year, month)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	out := expectedRevenueDTO{UserID: userID, Year: year, Month: int(month)}
	if amount != nil {
		n := number(ranking.Money(*amount))
		out.Amount = &n
	}
	a.json(w, http.StatusOK, out)
}

func (a *App) PutExpectedRevenue(w http.ResponseWriter, r *http.Request) {
	var req expectedRevenueRequest
	if err := a.decode(r, &req); err != nil {
		a.fail(w, r, err)
		return
	}
	userID, err := a.subject(r, req.UserID)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	if !req.Amount.Valid {
		a.fail(w, r, fmt.Errorf("%w: amount is required", domain.ErrValidation))
		return
	}
	saved, err := a.Revenue.UpsertExpected(r.Context(), &domain.ExpectedRevenue{
		UserID: userID,
		Year:   req.Year,
		Month:  time.Month(req.Month),
		Amount: req.Amount.Decimal,
	})
	if err != nil {
		a.fail(w, r, err)
		return
	}
	n := number(ranking.Money(saved.Amount))
	a.json(w, http.StatusOK, expectedRevenueDTO{
		UserID: saved.UserID,
		Year:   saved.Year,
		Month:  int(saved.Month),
		Amount: &n,
	})
}

// yearMonth parses ?year=&month=, defaulting each to the current business
// month.
func (a *App) yearMonth(yearParam, monthParam string) (int, time.Month, error) {
	year, month := a.Calendar.YearMonth(a.Calendar.Now())
	if yearParam != "" {
		y, err := strconv.Atoi(yearParam)
		if err != nil {
			return 0, 0, fmt.Errorf("%w: year must be a number", domain.ErrValidation)
		}
		year = y
	}
	if monthParam != "" {
		m, err := strconv.Atoi(monthParam)
		if err != nil || m < 1 || m > 12 {
			return 0, 0, fmt.Errorf("%w: month must be 1..12", domain.ErrValidation)
		}
		month = time.Month(m)
	}
	return year, month, nil
}
