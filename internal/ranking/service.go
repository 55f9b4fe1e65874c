package ranking

import (
	"context"
	"fmt"
	"time"

	"github.com/loopystack/Portal/internal/domain"
	"github.com/loopystack/Portal/internal/period"
)

// Service loads the roster and activity needed to assemble rankings.
type Service struct {
	Users      domain.UserRepository
	TimeBlocks domain.TimeBlockRepository
	Revenue    domain.RevenueRepository
	Calendar   *period.Calculator
}

// WorkHours ranks members by Work hours with periods anchored at ref.
func (s *Service) WorkHours(ctx context.Context, ref time.Time) ([]WorkRow, period.Set, error) {
	members, err := s.Users.ListMembers(ctx)
	if err != nil {
		return nil, period.Set{}, fmt.Errorf("list members: %w", err)
	}
	blocks, err := s.TimeBlocks.ListByLabel(ctx, domain.LabelWork)
	if err != nil {
		return nil, period.Set{}, fmt.Errorf("list work blocks: %w", err)
	}
	set := s.Calendar.At(ref)
	return WorkHours(members, blocks, set), set, nil
}

// RevenueFor ranks members by total revenue with the monthly column for
// year/month.
func (s *Service) RevenueFor(ctx context.Context, year int, month time.Month) ([]RevenueRow, error) {
	members, err := s.Users.ListMembers(ctx)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	entries, err := s.Revenue.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list revenue: %w", err)
	}
	expected, err := s.Revenue.ListExpected(ctx, year, month)
	if err != nil {
		return nil, fmt.Errorf("list expected revenue: %w", err)
	}
	return Revenue(members, entries, expected, year, month), nil
}
