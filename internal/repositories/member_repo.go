package repositories

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/campus-assoc/backend/internal/models"
)

type UserRepo struct {
	pool *pgxpool.Pool
}

func NewUserRepo(pool *pgxpool.Pool) *UserRepo {
	return &UserRepo{pool: pool}
}

func (r *UserRepo) GetByID(ctx context.Context, s Attacher, id string) (*models.User, error) {
	return getOne[models.User](ctx, r.pool, s, "id = $1", id)
}

// GetByLogin finds an account by user name or e-mail address.
func (r *UserRepo) GetByLogin(ctx context.Context, s Attacher, login string) (*models.User, error) {
	return getOne[models.User](ctx, r.pool, s, "lower(username) = lower($1) OR lower(email) = lower($1)", login)
}

func (r *UserRepo) Exists(ctx context.Context, username, email string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS(SELECT 1 FROM users WHERE lower(username) = lower($1) OR lower(email) = lower($2))
	`, username, email).Scan(&exists)
	return exists, err
}

func (r *UserRepo) List(ctx context.Context, limit, offset int) ([]*models.User, error) {
	limit, offset = pageArgs(limit, offset)
	return getMany[models.User](ctx, r.pool, nil, "ORDER BY last_name, first_name, username LIMIT $1 OFFSET $2", limit, offset)
}

// Attendances returns every attendance row recorded for a user.
func (r *UserRepo) Attendances(ctx context.Context, s Attacher, userID string) ([]*models.Attendance, error) {
	return getMany[models.Attendance](ctx, r.pool, s, "WHERE user_id = $1 ORDER BY event_id, date", userID)
}

// RoleNames returns the names of the roles granted to a user.
func (r *UserRepo) RoleNames(ctx context.Context, userID string) ([]string, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT r.name FROM roles r
		JOIN user_roles ur ON ur.role_id = r.id
		WHERE ur.user_id = $1
		ORDER BY r.name
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			return nil, err
		}
		names = append(names, n)
	}
	return names, rows.Err()
}

type RoleRepo struct {
	pool *pgxpool.Pool
}

func NewRoleRepo(pool *pgxpool.Pool) *RoleRepo {
	return &RoleRepo{pool: pool}
}

func (r *RoleRepo) GetByID(ctx context.Context, s Attacher, id int64) (*models.Role, error) {
	return getOne[models.Role](ctx, r.pool, s, "id = $1", id)
}

func (r *RoleRepo) GetByName(ctx context.Context, s Attacher, name string) (*models.Role, error) {
	return getOne[models.Role](ctx, r.pool, s, "name = $1", name)
}

func (r *RoleRepo) List(ctx context.Context) ([]*models.Role, error) {
	return getMany[models.Role](ctx, r.pool, nil, "ORDER BY name")
}

func (r *RoleRepo) GetGrant(ctx context.Context, s Attacher, userID string, roleID int64) (*models.UserRole, error) {
	return getOne[models.UserRole](ctx, r.pool, s, "user_id = $1 AND role_id = $2", userID, roleID)
}

func (r *RoleRepo) GrantsOf(ctx context.Context, s Attacher, userID string) ([]*models.UserRole, error) {
	return getMany[models.UserRole](ctx, r.pool, s, "WHERE user_id = $1 ORDER BY role_id", userID)
}
