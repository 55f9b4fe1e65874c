package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/loopystack/Portal/internal/domain"
	"github.com/loopystack/Portal/internal/middleware"
	"github.com/loopystack/Portal/internal/period"
)

// App carries the dependencies shared by every handler.
type App struct {
	Logger     zerolog.Logger
	Users      domain.UserRepository
	TimeBlocks domain.TimeBlockRepository
	Revenue    domain.RevenueRepository
	Calendar   *period.Calculator
}

func NewApp(logger zerolog.Logger, users domain.UserRepository, blocks domain.TimeBlockRepository, revenue domain.RevenueRepository, periods *period.Calculator) *App {
	return &App{
		Logger:     logger,
		Users:      users,
		TimeBlocks: blocks,
		Revenue:    revenue,
		Calendar:   periods,
	}
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) error(w http.ResponseWriter, code int, errCode, message string) {
	a.json(w, code, map[string]any{
		"error": map[string]string{"code": errCode, "message": message},
	})
}

// fail maps a domain error onto an HTTP status.
func (a *App) fail(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, domain.ErrValidation):
		a.error(w, http.StatusBadRequest, "bad_request", err.Error())
	case errors.Is(err, domain.ErrUnauthorized):
		a.error(w, http.StatusUnauthorized, "unauthorized", "unauthorized")
	case errors.Is(err, domain.ErrForbidden):
		a.error(w, http.StatusForbidden, "forbidden", "forbidden")
	case errors.Is(err, domain.ErrNotFound):
		a.error(w, http.StatusNotFound, "not_found", "not found")
	case errors.Is(err, domain.ErrConflict):
		a.error(w, http.StatusConflict, "conflict", err.Error())
	default:
		a.Logger.Error().Err(err).
			Str("path", r.URL.Path).
			Str("request_id", middleware.RequestIDFromContext(r.Context())).
			Msg("request failed")
		a.error(w, http.StatusInternalServerError, "internal", "internal error")
	}
}

func (a *App) decode(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("%w: invalid payload", domain.ErrValidation)
	}
	return nil
}

func (a *App) principal(r *http.Request) (middleware.Principal, error) {
	p, ok := middleware.PrincipalFromContext(r.Context())
	if !ok {
		return middleware.Principal{}, domain.ErrUnauthorized
	}
	return p, nil
}

// subject resolves the user a request acts on. An empty userID means the
// caller; only admins may name another user.
func (a *App) subject(r *http.Request, userID string) (string, error) {
	p, err := a.principal(r)
	if err != nil {
		return "", err
	}
	userID = strings.TrimSpace(userID)
	if userID == "" || userID == p.UserID {
		return p.UserID, nil
	}
	if !p.IsAdmin() {
		return "", domain.ErrForbidden
	}
	if _, err := uuid.Parse(userID); err != nil {
		return "", domain.ErrNotFound
	}
	return userID, nil
}

func (a *App) requireAdmin(r *http.Request) error {
	p, err := a.principal(r)
	if err != nil {
		return err
	}
	if !p.IsAdmin() {
		return domain.ErrForbidden
	}
	return nil
}

func parseInstant(name, value string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %s must be RFC3339", domain.ErrValidation, name)
	}
	return t.UTC(), nil
}

func validID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return domain.ErrNotFound
	}
	return nil
}

// number renders an amount as a JSON number without float rounding.
func number(d decimal.Decimal) json.Number {
	return json.Number(d.String())
}

type rangeDTO struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

func toRangeDTO(r period.Range) rangeDTO {
	return rangeDTO{Start: r.Start, End: r.End}
}
