package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/loopystack/Portal/internal/domain"
	"github.com/loopystack/Portal/internal/infra"
	"github.com/loopystack/Portal/internal/sqlinline"
)

// RevenueRepositoryPG implements domain.RevenueRepository using PostgreSQL.
// Amounts travel as text so no precision is lost between numeric and decimal.
type RevenueRepositoryPG struct {
	db infra.SQLExecutor
}

// NewRevenueRepository creates a new revenue repository.
func NewRevenueRepository(db infra.SQLExecutor) *RevenueRepositoryPG {
	return &RevenueRepositoryPG{db: db}
}

// Create inserts a revenue entry.
func (r *RevenueRepositoryPG) Create(ctx context.Context, entry *domain.RevenueEntry) (*domain.RevenueEntry, error) {
	row := r.db.QueryRow(ctx, sqlinline.QInsertRevenueEntry,
		entry.UserID,
		entry.Date.Format(domain.DateLayout),
		entry.Amount.String(),
		entry.Note,
	)
	e, err := scanRevenueEntry(row)
	return e, translate(err)
}

// GetByID fetches one entry.
func (r *RevenueRepositoryPG) GetByID(ctx context.Context, id string) (*domain.RevenueEntry, error) {
	e, err := scanRevenueEntry(r.db.QueryRow(ctx, sqlinline.QSelectRevenueEntry, id))
	return e, translate(err)
}

// Delete removes one entry.
func (r *RevenueRepositoryPG) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, sqlinline.QDeleteRevenueEntry, id)
	if err != nil {
		return translate(err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// List returns userID's entries dated within [from, to] inclusive.
func (r *RevenueRepositoryPG) List(ctx context.Context, userID string, from, to time.Time) ([]domain.RevenueEntry, error) {
	rows, err := r.db.Query(ctx, sqlinline.QListRevenueEntries, userID, from.Format(domain.DateLayout), to.Format(domain.DateLayout))
	if err != nil {
		return nil, translate(err)
	}
	return collectRevenueEntries(rows)
}

// ListAll returns every entry.
func (r *RevenueRepositoryPG) ListAll(ctx context.Context) ([]domain.RevenueEntry, error) {
	rows, err := r.db.Query(ctx, sqlinline.QListAllRevenueEntries)
	if err != nil {
		return nil, translate(err)
	}
	return collectRevenueEntries(rows)
}

// UpsertExpected writes the monthly target. The (user_id, year, month) key
// makes concurrent upserts idempotent.
func (r *RevenueRepositoryPG) UpsertExpected(ctx context.Context, expected *domain.ExpectedRevenue) (*domain.ExpectedRevenue, error) {
	if err := expected.Validate(); err != nil {
		return nil, err
	}
	row := r.db.QueryRow(ctx, sqlinline.QUpsertExpectedRevenue,
		expected.UserID,
		expected.Year,
		int(expected.Month),
		expected.Amount.String(),
	)
	var out domain.ExpectedRevenue
	var month int
	var amount string
	if err := row.Scan(&out.UserID, &out.Year, &month, &amount, &out.UpdatedAt); err != nil {
		return nil, translate(err)
	}
	out.Month = time.Month(month)
	parsed, err := decimal.NewFromString(amount)
	if err != nil {
		return nil, fmt.Errorf("parse expected amount: %w", err)
	}
	out.Amount = parsed
	return &out, nil
}

// GetExpected returns the target for userID in year/month, or nil.
func (r *RevenueRepositoryPG) GetExpected(ctx context.Context, userID string, year int, month time.Month) (*decimal.Decimal, error) {
	var amount string
	err := r.db.QueryRow(ctx, sqlinline.QSelectExpectedRevenue, userID, year, int(month)).Scan(&amount)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, translate(err)
	}
	d, err := decimal.NewFromString(amount)
	if err != nil {
		return nil, fmt.Errorf("parse expected amount: %w", err)
	}
	return &d, nil
}

// ListExpected returns every user's target for year/month.
func (r *RevenueRepositoryPG) ListExpected(ctx context.Context, year int, month time.Month) (map[string]decimal.Decimal, error) {
	rows, err := r.db.Query(ctx, sqlinline.QListExpectedRevenue, year, int(month))
	if err != nil {
		return nil, translate(err)
	}
	defer rows.Close()

	out := make(map[string]decimal.Decimal)
	for rows.Next() {
		var userID, amount string
		if err := rows.Scan(&userID, &amount); err != nil {
			return nil, err
		}
		d, err := decimal.NewFromString(amount)
		if err != nil {
			return nil, fmt.Errorf("parse expected amount: %w", err)
		}
		out[userID] = d
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func scanRevenueEntry(row pgx.Row) (*domain.RevenueEntry, error) {
	var e domain.RevenueEntry
	var date, amount string
	if err := row.Scan(&e.ID, &e.UserID, &date, &amount, &e.Note, &e.CreatedAt); err != nil {
		return nil, err
	}
	d, err := domain.ParseDate(date)
	if err != nil {
		return nil, err
	}
	a, err := decimal.NewFromString(amount)
	if err != nil {
		return nil, fmt.Errorf("parse amount: %w", err)
	}
	e.Date = d
	e.Amount = a
	return &e, nil
}

func collectRevenueEntries(rows pgx.Rows) ([]domain.RevenueEntry, error) {
	defer rows.Close()
	var entries []domain.RevenueEntry
	for rows.Next() {
		e, err := scanRevenueEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}

var _ domain.RevenueRepository = (*RevenueRepositoryPG)(nil)
