package repo

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/loopystack/Portal/internal/domain"
	"github.com/loopystack/Portal/internal/infra"
	"github.com/loopystack/Portal/internal/sqlinline"
)

// TimeBlockRepositoryPG implements domain.TimeBlockRepository using PostgreSQL.
//
// Writes take a per-user advisory lock inside their transaction before the
// overlap check, so two writers for the same user cannot both pass the check
// against a stale snapshot. The time_blocks_no_overlap exclusion constraint
// rejects anything that slips past.
type TimeBlockRepositoryPG struct {
	db infra.TxRunner
}

// NewTimeBlockRepository constructs the repository.
func NewTimeBlockRepository(db infra.TxRunner) *TimeBlockRepositoryPG {
	return &TimeBlockRepositoryPG{db: db}
}

var writeTx = pgx.TxOptions{IsoLevel: pgx.ReadCommitted}

// CheckOverlap reports whether [start, end) intersects another block of userID.
func (r *TimeBlockRepositoryPG) CheckOverlap(ctx context.Context, userID string, start, end time.Time, excludeID string) (bool, error) {
	overlap, err := checkOverlap(ctx, r.db, userID, start, end, excludeID)
	return overlap, translate(err)
}

func checkOverlap(ctx context.Context, q infra.SQLExecutor, userID string, start, end time.Time, excludeID string) (bool, error) {
	var exists bool
	if err := q.QueryRow(ctx, sqlinline.QCheckTimeBlockOverlap, userID, start.UTC(), end.UTC(), excludeID).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

// List returns blocks of userID intersecting [from, to).
func (r *TimeBlockRepositoryPG) List(ctx context.Context, userID string, from, to time.Time) ([]domain.TimeBlock, error) {
	rows, err := r.db.Query(ctx, sqlinline.QListTimeBlocks, userID, from.UTC(), to.UTC())
	if err != nil {
		return nil, translate(err)
	}
	return collectTimeBlocks(rows)
}

// ListByLabel returns every block with label across all users.
func (r *TimeBlockRepositoryPG) ListByLabel(ctx context.Context, label domain.Label) ([]domain.TimeBlock, error) {
	rows, err := r.db.Query(ctx, sqlinline.QListTimeBlocksByLabel, string(label))
	if err != nil {
		return nil, translate(err)
	}
	return collectTimeBlocks(rows)
}

// Create inserts block after verifying it does not overlap the owner's other blocks.
func (r *TimeBlockRepositoryPG) Create(ctx context.Context, block *domain.TimeBlock) (*domain.TimeBlock, error) {
	if err := block.Validate(); err != nil {
		return nil, err
	}
	var created *domain.TimeBlock
	err := r.db.InTx(ctx, writeTx, func(q infra.SQLExecutor) error {
		if _, err := q.Exec(ctx, sqlinline.QLockUserTimeBlocks, block.UserID); err != nil {
			return err
		}
		overlap, err := checkOverlap(ctx, q, block.UserID, block.Start, block.End, "")
		if err != nil {
			return err
		}
		if overlap {
			return fmt.Errorf("%w: block overlaps an existing block", domain.ErrConflict)
		}
		row := q.QueryRow(ctx, sqlinline.QInsertTimeBlock,
			block.UserID,
			block.Start.UTC(),
			block.End.UTC(),
			string(block.Label),
			block.Note,
		)
		created, err = scanTimeBlock(row)
		return err
	})
	if err != nil {
		return nil, translate(err)
	}
	return created, nil
}

// Update moves, resizes or relabels the block id owned by userID.
func (r *TimeBlockRepositoryPG) Update(ctx context.Context, userID, id string, patch domain.TimeBlockPatch) (*domain.TimeBlock, error) {
	var updated *domain.TimeBlock
	err := r.db.InTx(ctx, writeTx, func(q infra.SQLExecutor) error {
		if _, err := q.Exec(ctx, sqlinline.QLockUserTimeBlocks, userID); err != nil {
			return err
		}
		current, err := scanTimeBlock(q.QueryRow(ctx, sqlinline.QSelectTimeBlockForUpdate, id, userID))
		if err != nil {
			return err
		}
		next := patch.Apply(*current)
		if err := next.Validate(); err != nil {
			return err
		}
		overlap, err := checkOverlap(ctx, q, userID, next.Start, next.End, id)
		if err != nil {
			return err
		}
		if overlap {
			return fmt.Errorf("%w: block overlaps an existing block", domain.ErrConflict)
		}
		updated, err = scanTimeBlock(q.QueryRow(ctx, sqlinline.QUpdateTimeBlock,
			id,
			userID,
			next.Start.UTC(),
			next.End.UTC(),
			string(next.Label),
			next.Note,
		))
		return err
	})
	if err != nil {
		return nil, translate(err)
	}
	return updated, nil
}

// Delete removes the block id owned by userID.
func (r *TimeBlockRepositoryPG) Delete(ctx context.Context, userID, id string) error {
	tag, err := r.db.Exec(ctx, sqlinline.QDeleteTimeBlock, id, userID)
	if err != nil {
		return translate(err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func scanTimeBlock(row pgx.Row) (*domain.TimeBlock, error) {
	var b domain.TimeBlock
	var label string
	if err := row.Scan(&b.ID, &b.UserID, &b.Start, &b.End, &label, &b.Note, &b.CreatedAt, &b.UpdatedAt); err != nil {
		return nil, err
	}
	b.Label = domain.Label(label)
	b.Start = b.Start.UTC()
	b.End = b.End.UTC()
	return &b, nil
}

func collectTimeBlocks(rows pgx.Rows) ([]domain.TimeBlock, error) {
	defer rows.Close()
	var blocks []domain.TimeBlock
	for rows.Next() {
		b, err := scanTimeBlock(rows)
		if err != nil {
			return nil, err
		}
		blocks = append(blocks, *b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return blocks, nil
}

var _ domain.TimeBlockRepository = (*TimeBlockRepositoryPG)(nil)
