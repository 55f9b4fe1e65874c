// Package memstore is an in-process implementation of the domain
// repositories. Time-block writers for the same user are serialised by a
// per-user mutex so the overlap check and the write happen as one step.
package memstore

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/loopystack/Portal/internal/domain"
)

// Store holds all portal data in memory.
type Store struct {
	mu        sync.RWMutex
	users     map[string]domain.User
	userOrder []string
	blocks    map[string]domain.TimeBlock
	revenue   map[string]domain.RevenueEntry
	expected  map[expectedKey]domain.ExpectedRevenue

	locksMu sync.Mutex
	locks   map[string]*sync.Mutex

	now func() time.Time
}

type expectedKey struct {
	userID string
	year   int
	month  time.Month
}

// New returns an empty store.
func New() *Store {
	return &Store{
		users:    map[string]domain.User{},
		blocks:   map[string]domain.TimeBlock{},
		revenue:  map[string]domain.RevenueEntry{},
		expected: map[expectedKey]domain.ExpectedRevenue{},
		locks:    map[string]*sync.Mutex{},
		now:      time.Now,
	}
}

// Users exposes the store as a domain.UserRepository.
func (s *Store) Users() *UserRepo { return &UserRepo{s: s} }

// TimeBlocks exposes the store as a domain.TimeBlockRepository.
func (s *Store) TimeBlocks() *TimeBlockRepo { return &TimeBlockRepo{s: s} }

// Revenue exposes the store as a domain.RevenueRepository.
func (s *Store) Revenue() *RevenueRepo { return &RevenueRepo{s: s} }

func (s *Store) userLock(userID string) *sync.Mutex {
	s.locksMu.Lock()
	defer s.locksMu.Unlock()
	l, ok := s.locks[userID]
	if !ok {
		l = &sync.Mutex{}
		s.locks[userID] = l
	}
	return l
}

// UserRepo implements domain.UserRepository.
type UserRepo struct{ s *Store }

func (r *UserRepo) Create(_ context.Context, user *domain.User) (*domain.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	email := strings.ToLower(strings.TrimSpace(user.Email))
	for _, u := range r.s.users {
		if strings.EqualFold(u.Email, email) {
			return nil, fmt.Errorf("%w: email already registered", domain.ErrConflict)
		}
	}
	u := *user
	u.ID = uuid.NewString()
	u.Email = email
	u.CreatedAt = r.s.now().UTC()
	u.UpdatedAt = u.CreatedAt
	r.s.users[u.ID] = u
	r.s.userOrder = append(r.s.userOrder, u.ID)
	return &u, nil
}

func (r *UserRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	u, ok := r.s.users[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &u, nil
}

func (r *UserRepo) SetRole(_ context.Context, id string, role domain.UserRole) (*domain.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	u.Role = role
	u.UpdatedAt = r.s.now().UTC()
	r.s.users[id] = u
	return &u, nil
}

func (r *UserRepo) List(_ context.Context) ([]domain.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]domain.User, 0, len(r.s.userOrder))
	for _, id := range r.s.userOrder {
		out = append(out, r.s.users[id])
	}
	return out, nil
}

func (r *UserRepo) ListMembers(ctx context.Context) ([]domain.Member, error) {
	users, _ := r.List(ctx)
	var out []domain.Member
	for _, u := range users {
		if u.Role == domain.UserRoleMember {
			out = append(out, domain.Member{ID: u.ID, DisplayName: u.DisplayName, Email: u.Email})
		}
	}
	return out, nil
}

// TimeBlockRepo implements domain.TimeBlockRepository.
type TimeBlockRepo struct{ s *Store }

func (r *TimeBlockRepo) CheckOverlap(_ context.Context, userID string, start, end time.Time, excludeID string) (bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return r.s.overlapsLocked(userID, start, end, excludeID), nil
}

func (s *Store) overlapsLocked(userID string, start, end time.Time, excludeID string) bool {
	for id, b := range s.blocks {
		if b.UserID != userID || id == excludeID {
			continue
		}
		if b.Overlaps(start, end) {
			return true
		}
	}
	return false
}

func (r *TimeBlockRepo) List(_ context.Context, userID string, from, to time.Time) ([]domain.TimeBlock, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []domain.TimeBlock
	for _, b := range r.s.blocks {
		if b.UserID == userID && b.Overlaps(from, to) {
			out = append(out, b)
		}
	}
	sortBlocks(out)
	return out, nil
}

func (r *TimeBlockRepo) ListByLabel(_ context.Context, label domain.Label) ([]domain.TimeBlock, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []domain.TimeBlock
	for _, b := range r.s.blocks {
		if b.Label == label {
			out = append(out, b)
		}
	}
	sortBlocks(out)
	return out, nil
}

func (r *TimeBlockRepo) Create(_ context.Context, block *domain.TimeBlock) (*domain.TimeBlock, error) {
	if err := block.Validate(); err != nil {
		return nil, err
	}
	l := r.s.userLock(block.UserID)
	l.Lock()
	defer l.Unlock()

	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.users[block.UserID]; !ok {
		return nil, fmt.Errorf("%w: referenced user", domain.ErrNotFound)
	}
	if r.s.overlapsLocked(block.UserID, block.Start, block.End, "") {
		return nil, fmt.Errorf("%w: block overlaps an existing block", domain.ErrConflict)
	}
	b := *block
	b.ID = uuid.NewString()
	b.Start = b.Start.UTC()
	b.End = b.End.UTC()
	b.CreatedAt = r.s.now().UTC()
	b.UpdatedAt = b.CreatedAt
	r.s.blocks[b.ID] = b
	return &b, nil
}

func (r *TimeBlockRepo) Update(_ context.Context, userID, id string, patch domain.TimeBlockPatch) (*domain.TimeBlock, error) {
	l := r.s.userLock(userID)
	l.Lock()
	defer l.Unlock()

	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	current, ok := r.s.blocks[id]
	if !ok || current.UserID != userID {
		return nil, domain.ErrNotFound
	}
	next := patch.Apply(current)
	if err := next.Validate(); err != nil {
		return nil, err
	}
	if r.s.overlapsLocked(userID, next.Start, next.End, id) {
		return nil, fmt.Errorf("%w: block overlaps an existing block", domain.ErrConflict)
	}
	next.UpdatedAt = r.s.now().UTC()
	r.s.blocks[id] = next
	return &next, nil
}

func (r *TimeBlockRepo) Delete(_ context.Context, userID, id string) error {
	l := r.s.userLock(userID)
	l.Lock()
	defer l.Unlock()

	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	b, ok := r.s.blocks[id]
	if !ok || b.UserID != userID {
		return domain.ErrNotFound
	}
	delete(r.s.blocks, id)
	return nil
}

func sortBlocks(blocks []domain.TimeBlock) {
	sort.Slice(blocks, func(i, j int) bool {
		if blocks[i].UserID != blocks[j].UserID {
			return blocks[i].UserID < blocks[j].UserID
		}
		return blocks[i].Start.Before(blocks[j].Start)
	})
}

// RevenueRepo implements domain.RevenueRepository.
type RevenueRepo struct{ s *Store }

func (r *RevenueRepo) Create(_ context.Context, entry *domain.RevenueEntry) (*domain.RevenueEntry, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.users[entry.UserID]; !ok {
		return nil, fmt.Errorf("%w: referenced user", domain.ErrNotFound)
	}
	e := *entry
	e.ID = uuid.NewString()
	e.Amount = e.Amount.Round(2)
	e.CreatedAt = r.s.now().UTC()
	r.s.revenue[e.ID] = e
	return &e, nil
}

func (r *RevenueRepo) GetByID(_ context.Context, id string) (*domain.RevenueEntry, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	e, ok := r.s.revenue[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &e, nil
}

func (r *RevenueRepo) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.revenue[id]; !ok {
		return domain.ErrNotFound
	}
	delete(r.s.revenue, id)
	return nil
}

func (r *RevenueRepo) List(_ context.Context, userID string, from, to time.Time) ([]domain.RevenueEntry, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []domain.RevenueEntry
	for _, e := range r.s.revenue {
		if e.UserID == userID && !e.Date.Before(from) && !e.Date.After(to) {
			out = append(out, e)
		}
	}
	sortEntries(out)
	return out, nil
}

func (r *RevenueRepo) ListAll(_ context.Context) ([]domain.RevenueEntry, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]domain.RevenueEntry, 0, len(r.s.revenue))
	for _, e := range r.s.revenue {
		out = append(out, e)
	}
	sortEntries(out)
	return out, nil
}

func (r *RevenueRepo) UpsertExpected(_ context.Context, expected *domain.ExpectedRevenue) (*domain.ExpectedRevenue, error) {
	if err := expected.Validate(); err != nil {
		return nil, err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.users[expected.UserID]; !ok {
		return nil, fmt.Errorf("%w: referenced user", domain.ErrNotFound)
	}
	e := *expected
	e.Amount = e.Amount.Round(2)
	e.UpdatedAt = r.s.now().UTC()
	r.s.expected[expectedKey{e.UserID, e.Year, e.Month}] = e
	return &e, nil
}

func (r *RevenueRepo) GetExpected(_ context.Context, userID string, year int, month time.Month) (*decimal.Decimal, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	e, ok := r.s.expected[expectedKey{userID, year, month}]
	if !ok {
		return nil, nil
	}
	amt := e.Amount
	return &amt, nil
}

func (r *RevenueRepo) ListExpected(_ context.Context, year int, month time.Month) (map[string]decimal.Decimal, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make(map[string]decimal.Decimal)
	for k, e := range r.s.expected {
		if k.year == year && k.month == month {
			out[k.userID] = e.Amount
		}
	}
	return out, nil
}

func sortEntries(entries []domain.RevenueEntry) {
	sort.Slice(entries, func(i, j int) bool {
		if !entries[i].Date.Equal(entries[j].Date) {
			return entries[i].Date.Before(entries[j].Date)
		}
		return entries[i].CreatedAt.Before(entries[j].CreatedAt)
	})
}

var (
	_ domain.UserRepository      = (*UserRepo)(nil)
	_ domain.TimeBlockRepository = (*TimeBlockRepo)(nil)
	_ domain.RevenueRepository   = (*RevenueRepo)(nil)
)
