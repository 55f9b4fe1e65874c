package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/loopystack/Portal/internal/aggregate"
	"github.com/loopystack/Portal/internal/domain"
	"github.com/loopystack/Portal/internal/ranking"
)

type timeBlockDTO struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	Start       time.Time `json:"start"`
	End         time.Time `json:"end"`
	Label       string    `json:"label"`
	Note        string    `json:"note"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func toTimeBlockDTO(b domain.TimeBlock) timeBlockDTO {
	return timeBlockDTO{
		ID:          b.ID,
		UserID:      b.UserID,
		Start:       b.Start.UTC(),
		End:         b.End.UTC(),
		Label:       string(b.Label),
		Note:        b.Note,
		Description: domain.PackDescription(b.Label, b.Note),
		CreatedAt:   b.CreatedAt,
		UpdatedAt:   b.UpdatedAt,
	}
}

// timeBlockRequest accepts split label/note or the packed description.
type timeBlockRequest struct {
	Start       *time.Time `json:"start"`
	End         *time.Time `json:"end"`
	Label       *string    `json:"label"`
	Note        *string    `json:"note"`
	Description *string    `json:"description"`
}

// labelAndNote returns nil pointers for fields the request left out.
func (req timeBlockRequest) labelAndNote() (*domain.Label, *string, error) {
	if req.Description != nil && req.Label == nil && req.Note == nil {
		l, note := domain.UnpackDescription(*req.Description)
		return &l, &note, nil
	}
	var label *domain.Label
	if req.Label != nil {
		l, err := domain.ParseLabel(*req.Label)
		if err != nil {
			return nil, nil, err
		}
		label = &l
	}
	return label, req.Note, nil
}

func (a *App) ListTimeBlocks(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	userID, err := a.subject(r, q.Get("user_id"))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	rng := a.Calendar.Current().Month
	from, to := rng.Start, rng.End
	if v := q.Get("from"); v != "" {
		if from, err = parseInstant("from", v); err != nil {
			a.fail(w, r, err)
			return
		}
	}
	if v := q.Get("to"); v != "" {
		if to, err = parseInstant("to", v); err != nil {
			a.fail(w, r, err)
			return
		}
	}
	if !to.After(from) {
		a.fail(w, r, fmt.Errorf("%w: to must be after from", domain.ErrValidation))
		return
	}
	blocks, err := a.TimeBlocks.List(r.Context(), userID, from, to)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	items := make([]timeBlockDTO, 0, len(blocks))
	for _, b := range blocks {
		items = append(items, toTimeBlockDTO(b))
	}
	a.json(w, http.StatusOK, map[string]any{"items": items})
}

func (a *App) CreateTimeBlock(w http.ResponseWriter, r *http.Request) {
	p, err := a.principal(r)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	var req timeBlockRequest
	if err := a.decode(r, &req); err != nil {
		a.fail(w, r, err)
		return
	}
	if req.Start == nil || req.End == nil {
		a.fail(w, r, fmt.Errorf("%w: start and end are required", domain.ErrValidation))
		return
	}
	label, note, err := req.labelAndNote()
	if err != nil {
		a.fail(w, r, err)
		return
	}
	block := domain.TimeBlock{
		UserID: p.UserID,
		Start:  req.Start.UTC(),
		End:    req.End.UTC(),
		Label:  domain.LabelWork,
	}
	if label != nil {
		block.Label = *label
	}
	if note != nil {
		block.Note = *note
	}
	created, err := a.TimeBlocks.Create(r.Context(), &block)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusCreated, toTimeBlockDTO(*created))
}

func (a *App) UpdateTimeBlock(w http.ResponseWriter, r *http.Request) {
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
	var req timeBlockRequest
	if err := a.decode(r, &req); err != nil {
		a.fail(w, r, err)
		return
	}
	label, note, err := req.labelAndNote()
	if err != nil {
		a.fail(w, r, err)
		return
	}
	patch := domain.TimeBlockPatch{Start: req.Start, End: req.End, Label: label, Note: note}
	if patch.Empty() {
		a.fail(w, r, fmt.Errorf("%w: nothing to update", domain.ErrValidation))
		return
	}
	updated, err := a.TimeBlocks.Update(r.Context(), p.UserID, id, patch)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, toTimeBlockDTO(*updated))
}

func (a *App) DeleteTimeBlock(w http.ResponseWriter, r *http.Request) {
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
	if err := a.TimeBlocks.Delete(r.Context(), p.UserID, id); err != nil {
		a.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type summaryDTO struct {
	UserID string   `json:"user_id"`
	Label  string   `json:"label"`
	Hours  hoursDTO `json:"hours"`
}

type hoursDTO struct {
	Today json.Number `json:"today"`
	Week  json.Number `json:"week"`
	Month json.Number `json:"month"`
	Total json.Number `json:"total"`
}

// TimeBlockSummary reports clipped today/week/month hours and the unclipped
// total for one user and label (default Work).
func (a *App) TimeBlockSummary(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	userID, err := a.subject(r, q.Get("user_id"))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	label, err := domain.ParseLabel(q.Get("label"))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	blocks, err := a.TimeBlocks.ListByLabel(r.Context(), label)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	s := aggregate.Summarize(aggregate.GroupByUser(blocks)[userID], a.Calendar.Current())
	a.json(w, http.StatusOK, summaryDTO{
		UserID: userID,
		Label:  string(label),
		Hours: hoursDTO{
			Today: number(ranking.Hours(s.Today)),
			Week:  number(ranking.Hours(s.Week)),
			Month: number(ranking.Hours(s.Month)),
			Total: number(ranking.Hours(s.Total)),
		},
	})
}
