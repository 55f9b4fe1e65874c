package domain

import (
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Label categorises a time block.
type Label string

const (
	LabelWork   Label = "Work"
	LabelSleep  Label = "Sleep"
	LabelIdle   Label = "Idle"
	LabelAbsent Label = "Absent"
)

// Labels lists every recognised label in display order.
var Labels = []Label{LabelWork, LabelSleep, LabelIdle, LabelAbsent}

// ParseLabel normalises s ("work", "WORK", " Work ") into a Label.
// An empty string yields LabelWork.
func ParseLabel(s string) (Label, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return LabelWork, nil
	}
	l := Label(cases.Title(language.Und).String(s))
	if !l.Valid() {
		return "", fmt.Errorf("%w: unknown label %q", ErrValidation, s)
	}
	return l, nil
}

// Valid reports whether l is one of the recognised labels.
func (l Label) Valid() bool {
	for _, known := range Labels {
		if l == known {
			return true
		}
	}
	return false
}

const descriptionSeparator = "\n\n"

// UnpackDescription splits the legacy packed "Label\n\nNote" text. When the
// first line is not a recognised label the whole text is the note and the
// label falls back to Work.
func UnpackDescription(text string) (Label, string) {
	first, rest, _ := strings.Cut(text, "\n")
	if l := Label(strings.TrimSpace(first)); l.Valid() {
		return l, strings.TrimPrefix(rest, "\n")
	}
	return LabelWork, text
}

// PackDescription is the inverse of UnpackDescription.
func PackDescription(l Label, note string) string {
	if note == "" {
		return string(l)
	}
	return string(l) + descriptionSeparator + note
}

// TimeBlock is a half-open interval [Start, End) owned by one user.
type TimeBlock struct {
	ID        string
	UserID    string
	Start     time.Time
	End       time.Time
	Label     Label
	Note      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Validate checks the block's own invariants.
func (b TimeBlock) Validate() error {
	if b.Start.IsZero() || b.End.IsZero() {
		return fmt.Errorf("%w: start and end are required", ErrValidation)
	}
	if !b.End.After(b.Start) {
		return fmt.Errorf("%w: end must be after start", ErrValidation)
	}
	if !b.Label.Valid() {
		return fmt.Errorf("%w: unknown label %q", ErrValidation, b.Label)
	}
	return nil
}

// Duration returns the unclipped length of the block.
func (b TimeBlock) Duration() time.Duration {
	return b.End.Sub(b.Start)
}

// Overlaps reports whether [start, end) intersects the block. Touching
// endpoints do not count.
func (b TimeBlock) Overlaps(start, end time.Time) bool {
	return b.Start.Before(end) && b.End.After(start)
}

// TimeBlockPatch carries the optional fields of an in-place update.
type TimeBlockPatch struct {
	Start *time.Time
	End   *time.Time
	Label *Label
	Note  *string
}

// Empty reports whether the patch changes nothing.
func (p TimeBlockPatch) Empty() bool {
	return p.Start == nil && p.End == nil && p.Label == nil && p.Note == nil
}

// Apply returns a copy of b with the patch applied.
func (p TimeBlockPatch) Apply(b TimeBlock) TimeBlock {
	if p.Start != nil {
		b.Start = p.Start.UTC()
	}
	if p.End != nil {
		b.End = p.End.UTC()
	}
	if p.Label != nil {
		b.Label = *p.Label
	}
	if p.Note != nil {
		b.Note = *p.Note
	}
	return b
}
