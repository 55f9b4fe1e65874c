package handlers

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/loopystack/Portal/internal/domain"
)

type userDTO struct {
	ID          string    `json:"id"`
	Email       string    `json:"email"`
	DisplayName string    `json:"display_name"`
	Role        string    `json:"role"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func toUserDTO(u domain.User) userDTO {
	return userDTO{
		ID:          u.ID,
		Email:       u.Email,
		DisplayName: u.DisplayName,
		Role:        string(u.Role),
		CreatedAt:   u.CreatedAt,
		UpdatedAt:   u.UpdatedAt,
	}
}

type createUserRequest struct {
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
	Role        string `json:"role"`
}

func (a *App) Me(w http.ResponseWriter, r *http.Request) {
	p, err := a.principal(r)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	u, err := a.Users.GetByID(r.Context(), p.UserID)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, toUserDTO(*u))
}

func (a *App) ListUsers(w http.ResponseWriter, r *http.Request) {
	if err := a.requireAdmin(r); err != nil {
		a.fail(w, r, err)
		return
	}
	users, err := a.Users.List(r.Context())
	if err != nil {
		a.fail(w, r, err)
		return
	}
	items := make([]userDTO, 0, len(users))
	for _, u := range users {
		items = append(items, toUserDTO(u))
	}
	a.json(w, http.StatusOK, map[string]any{"items": items})
}

func (a *App) CreateUser(w http.ResponseWriter, r *http.Request) {
	if err := a.requireAdmin(r); err != nil {
		a.fail(w, r, err)
		return
	}
	var req createUserRequest
	if err := a.decode(r, &req); err != nil {
		a.fail(w, r, err)
		return
	}
	email := strings.TrimSpace(req.Email)
	if !strings.Contains(email, "@") {
		a.fail(w, r, fmt.Errorf("%w: email is invalid", domain.ErrValidation))
		return
	}
	role := domain.UserRoleMember
	if req.Role != "" {
		parsed, err := domain.ParseUserRole(req.Role)
		if err != nil {
			a.fail(w, r, err)
			return
		}
		role = parsed
	}
	name := strings.TrimSpace(req.DisplayName)
	if name == "" {
		name, _, _ = strings.Cut(email, "@")
	}
	u, err := a.Users.Create(r.Context(), &domain.User{Email: email, DisplayName: name, Role: role})
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.Logger.Info().Str("user_id", u.ID).Str("role", string(u.Role)).Msg("user created")
	a.json(w, http.StatusCreated, toUserDTO(*u))
}
