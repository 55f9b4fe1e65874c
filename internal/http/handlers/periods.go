package handlers

import (
	"net/http"
	"time"
)

type periodsDTO struct {
	Timezone string   `json:"timezone"`
	At       string   `json:"at"`
	Today    rangeDTO `json:"today"`
	Week     rangeDTO `json:"week"`
	Month    rangeDTO `json:"month"`
}

// Periods returns the today/week/month boundaries containing ?at= (default
// now) in the business timezone.
func (a *App) Periods(w http.ResponseWriter, r *http.Request) {
	ref := a.Calendar.Now()
	if v := r.URL.Query().Get("at"); v != "" {
		t, err := parseInstant("at", v)
		if err != nil {
			a.fail(w, r, err)
			return
		}
		ref = t
	}
	set := a.Calendar.At(ref)
	a.json(w, http.StatusOK, periodsDTO{
		Timezone: a.Calendar.Location().String(),
		At:       ref.In(a.Calendar.Location()).Format(time.RFC3339),
		Today:    toRangeDTO(set.Today),
		Week:     toRangeDTO(set.Week),
		Month:    toRangeDTO(set.Month),
	})
}
