package repo

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/loopystack/Portal/internal/domain"
	"github.com/loopystack/Portal/internal/infra"
	"github.com/loopystack/Portal/internal/sqlinline"
)

// UserRepositoryPG implements domain.UserRepository backed by PostgreSQL.
type UserRepositoryPG struct {
	db infra.SQLExecutor
}

// NewUserRepository creates a new UserRepositoryPG.
func NewUserRepository(db infra.SQLExecutor) *UserRepositoryPG {
	return &UserRepositoryPG{db: db}
}

// Create inserts a user; a duplicate email is a conflict.
func (r *UserRepositoryPG) Create(ctx context.Context, user *domain.User) (*domain.User, error) {
	row := r.db.QueryRow(ctx, sqlinline.QInsertUser, user.Email, user.DisplayName, string(user.Role))
	u, err := scanUser(row)
	return u, translate(err)
}

// GetByID fetches a user by UUID.
func (r *UserRepositoryPG) GetByID(ctx context.Context, id string) (*domain.User, error) {
	u, err := scanUser(r.db.QueryRow(ctx, sqlinline.QSelectUserByID, id))
	return u, translate(err)
}

// SetRole changes a user's role.
func (r *UserRepositoryPG) SetRole(ctx context.Context, id string, role domain.UserRole) (*domain.User, error) {
	u, err := scanUser(r.db.QueryRow(ctx, sqlinline.QUpdateUserRole, id, string(role)))
	return u, translate(err)
}

// List returns all users in creation order.
func (r *UserRepositoryPG) List(ctx context.Context) ([]domain.User, error) {
	rows, err := r.db.Query(ctx, sqlinline.QListUsers)
	if err != nil {
		return nil, translate(err)
	}
	defer rows.Close()

	var users []domain.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *u)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return users, nil
}

// ListMembers returns the member roster in creation order.
func (r *UserRepositoryPG) ListMembers(ctx context.Context) ([]domain.Member, error) {
	rows, err := r.db.Query(ctx, sqlinline.QListMembers)
	if err != nil {
		return nil, translate(err)
	}
	defer rows.Close()

	var members []domain.Member
	for rows.Next() {
		var m domain.Member
		if err := rows.Scan(&m.ID, &m.DisplayName, &m.Email); err != nil {
			return nil, err
		}
		members = append(members, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return members, nil
}

func scanUser(row pgx.Row) (*domain.User, error) {
	var u domain.User
	var role string
	if err := row.Scan(&u.ID, &u.Email, &u.DisplayName, &role, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, err
	}
	u.Role = domain.UserRole(role)
	return &u, nil
}

var _ domain.UserRepository = (*UserRepositoryPG)(nil)
