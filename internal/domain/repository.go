package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// UserRepository defines access methods for users.
type UserRepository interface {
	Create(ctx context.Context, user *User) (*User, error)
	GetByID(ctx context.Context, id string) (*User, error)
	SetRole(ctx context.Context, id string, role UserRole) (*User, error)
	List(ctx context.Context) ([]User, error)
	// ListMembers returns member-role users in roster order.
	ListMembers(ctx context.Context) ([]Member, error)
}

// TimeBlockRepository persists time blocks and enforces the per-user
// no-overlap invariant. Create and Update must run the overlap check and the
// write atomically with respect to other writers for the same user.
type TimeBlockRepository interface {
	// CheckOverlap reports whether any block of userID other than excludeID
	// intersects [start, end).
	CheckOverlap(ctx context.Context, userID string, start, end time.Time, excludeID string) (bool, error)
	// List returns userID's blocks intersecting [from, to) ordered by start.
	List(ctx context.Context, userID string, from, to time.Time) ([]TimeBlock, error)
	// ListByLabel returns every block carrying label, across all users.
	ListByLabel(ctx context.Context, label Label) ([]TimeBlock, error)
	Create(ctx context.Context, block *TimeBlock) (*TimeBlock, error)
	// Update applies patch to the block id owned by userID.
	Update(ctx context.Context, userID, id string, patch TimeBlockPatch) (*TimeBlock, error)
	Delete(ctx context.Context, userID, id string) error
}

// RevenueRepository persists revenue entries and monthly targets.
type RevenueRepository interface {
	Create(ctx context.Context, entry *RevenueEntry) (*RevenueEntry, error)
	GetByID(ctx context.Context, id string) (*RevenueEntry, error)
	Delete(ctx context.Context, id string) error
	// List returns userID's entries with from <= date <= to.
	List(ctx context.Context, userID string, from, to time.Time) ([]RevenueEntry, error)
	ListAll(ctx context.Context) ([]RevenueEntry, error)
	UpsertExpected(ctx context.Context, expected *ExpectedRevenue) (*ExpectedRevenue, error)
	// GetExpected returns nil without error when no target is set.
	GetExpected(ctx context.Context, userID string, year int, month time.Month) (*decimal.Decimal, error)
	ListExpected(ctx context.Context, year int, month time.Month) (map[string]decimal.Decimal, error)
}
