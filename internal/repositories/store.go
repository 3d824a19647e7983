package repositories

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/campus-assoc/backend/internal/tracking"
)

var (
	ErrNotFound = errors.New("not found")
	// ErrStaleRow is returned when an update or delete matched no row.
	ErrStaleRow = errors.New("row was changed or removed concurrently")
)

// Attacher receives rows loaded for a unit of work. A nil Attacher means the
// caller only reads.
type Attacher interface {
	Attach(e tracking.Entity) tracking.Entity
}

// entityPtr constrains T so that *T is a tracked entity.
type entityPtr[T any] interface {
	*T
	tracking.Entity
}

func selectFrom[T any, PT entityPtr[T]]() string {
	var zero T
	e := PT(&zero)
	cols := tracking.Columns(e)
	quoted := make([]string, len(cols))
	for i, c := range cols {
		quoted[i] = pgx.Identifier{c}.Sanitize()
	}
	return fmt.Sprintf("SELECT %s FROM %s", strings.Join(quoted, ", "), pgx.Identifier{e.TableName()}.Sanitize())
}

func getOne[T any, PT entityPtr[T]](ctx context.Context, pool *pgxpool.Pool, s Attacher, where string, args ...any) (PT, error) {
	rows, err := pool.Query(ctx, selectFrom[T, PT]()+" WHERE "+where, args...)
	if err != nil {
		return nil, err
	}
	v, err := pgx.CollectOneRow(rows, pgx.RowToAddrOfStructByName[T])
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return attach(s, PT(v)), nil
}

func getMany[T any, PT entityPtr[T]](ctx context.Context, pool *pgxpool.Pool, s Attacher, tail string, args ...any) ([]PT, error) {
	rows, err := pool.Query(ctx, selectFrom[T, PT]()+" "+tail, args...)
	if err != nil {
		return nil, err
	}
	list, err := pgx.CollectRows(rows, pgx.RowToAddrOfStructByName[T])
	if err != nil {
		return nil, err
	}
	out := make([]PT, len(list))
	for i, v := range list {
		out[i] = attach(s, PT(v))
	}
	return out, nil
}

// attach hands the row to the session, which may return an instance it already
// tracks for the same key.
func attach[PT tracking.Entity](s Attacher, v PT) PT {
	if s == nil {
		return v
	}
	if tracked, ok := s.Attach(v).(PT); ok {
		return tracked
	}
	return v
}

func pageArgs(limit, offset int) (int, int) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
