package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"

	"github.com/loopystack/Portal/internal/domain"
)

func TestFailMapsDomainErrors(t *testing.T) {
	app := &App{Logger: zerolog.Nop()}
	tests := []struct {
		err      error
		wantCode int
		wantBody string
	}{
		{fmt.Errorf("%w: end must be after start", domain.ErrValidation), http.StatusBadRequest, "bad_request"},
		{domain.ErrUnauthorized, http.StatusUnauthorized, "unauthorized"},
		{domain.ErrForbidden, http.StatusForbidden, "forbidden"},
		{fmt.Errorf("load block: %w", domain.ErrNotFound), http.StatusNotFound, "not_found"},
		{fmt.Errorf("%w: overlaps an existing block", domain.ErrConflict), http.StatusConflict, "conflict"},
		{errors.New("connection reset"), http.StatusInternalServerError, "internal"},
	}
	for _, tc := range tests {
		t.Run(tc.wantBody, func(t *testing.T) {
			rr := httptest.NewRecorder()
			app.fail(rr, httptest.NewRequest(http.MethodGet, "/", nil), tc.err)
			if rr.Code != tc.wantCode {
				t.Fatalf("status = %d, want %d", rr.Code, tc.wantCode)
			}
			var payload struct {
				Error struct {
					Code    string `json:"code"`
					Message string `json:"message"`
				} `json:"error"`
			}
			if err := json.NewDecoder(rr.Body).Decode(&payload); err != nil {
				t.Fatalf("decode response: %v", err)
			}
			if payload.Error.Code != tc.wantBody {
				t.Fatalf("error code = %q, want %q", payload.Error.Code, tc.wantBody)
			}
		})
	}
}

func TestTimeBlockRequestLabelAndNote(t *testing.T) {
	str := func(s string) *string { return &s }
	tests := []struct {
		name      string
		req       timeBlockRequest
		wantLabel *domain.Label
		wantNote  *string
		wantErr   bool
	}{
		{"nothing", timeBlockRequest{}, nil, nil, false},
		{"split fields", timeBlockRequest{Label: str("sleep"), Note: str("nap")}, labelPtr(domain.LabelSleep), str("nap"), false},
		{"packed description", timeBlockRequest{Description: str("Idle\n\nwaiting on review")}, labelPtr(domain.LabelIdle), str("waiting on review"), false},
		{"packed label only", timeBlockRequest{Description: str("Absent")}, labelPtr(domain.LabelAbsent), str(""), false},
		{"unrecognised description", timeBlockRequest{Description: str("standup")}, labelPtr(domain.LabelWork), str("standup"), false},
		{"split wins over description", timeBlockRequest{Label: str("Work"), Description: str("Sleep")}, labelPtr(domain.LabelWork), nil, false},
		{"unknown label", timeBlockRequest{Label: str("holiday")}, nil, nil, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			label, note, err := tc.req.labelAndNote()
			if tc.wantErr {
				if !errors.Is(err, domain.ErrValidation) {
					t.Fatalf("error = %v, want ErrValidation", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if (label == nil) != (tc.wantLabel == nil) || (label != nil && *label != *tc.wantLabel) {
				t.Fatalf("label = %v, want %v", label, tc.wantLabel)
			}
			if (note == nil) != (tc.wantNote == nil) || (note != nil && *note != *tc.wantNote) {
				t.Fatalf("note = %v, want %v", note, tc.wantNote)
			}
		})
	}
}

func labelPtr(l domain.Label) *domain.Label { return &l }
