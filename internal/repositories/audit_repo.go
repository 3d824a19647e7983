package repositories

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/campus-assoc/backend/internal/models"
)

// AuditRepo reads audit records. Records are only ever written through a unit of
// work.
type AuditRepo struct {
	pool *pgxpool.Pool
}

func NewAuditRepo(pool *pgxpool.Pool) *AuditRepo {
	return &AuditRepo{pool: pool}
}

func (r *AuditRepo) GetByEntity(ctx context.Context, entityType string, entityID int64, limit, offset int) ([]*models.AuditLog, error) {
	limit, offset = pageArgs(limit, offset)
	return getMany[models.AuditLog](ctx, r.pool, nil,
		`WHERE entity_type = $1 AND entity_id = $2 ORDER BY "timestamp" DESC, id DESC LIMIT $3 OFFSET $4`,
		entityType, entityID, limit, offset)
}

type AuditFilter struct {
	EntityType   *string
	ActorID      *string
	CriticalOnly bool
	Limit        int
	Offset       int
}

func (r *AuditRepo) List(ctx context.Context, f AuditFilter) ([]*models.AuditLog, error) {
	args := []any{}
	argIdx := 1
	where := []string{}

	if f.EntityType != nil {
		where = append(where, fmt.Sprintf("entity_type = $%d", argIdx))
		args = append(args, *f.EntityType)
		argIdx++
	}
	if f.ActorID != nil {
		where = append(where, fmt.Sprintf("actor_id = $%d", argIdx))
		args = append(args, *f.ActorID)
		argIdx++
	}
	if f.CriticalOnly {
		where = append(where, "is_critical")
	}

	tail := ""
	if len(where) > 0 {
		tail = "WHERE " + strings.Join(where, " AND ") + " "
	}
	limit, offset := pageArgs(f.Limit, f.Offset)
	tail += fmt.Sprintf(`ORDER BY "timestamp" DESC, id DESC LIMIT $%d OFFSET $%d`, argIdx, argIdx+1)
	args = append(args, limit, offset)

	return getMany[models.AuditLog](ctx, r.pool, nil, tail, args...)
}
