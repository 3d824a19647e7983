package repositories

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/campus-assoc/backend/internal/tracking"
)

const keyColumn = "id"

// Writer applies the pending entries of a tracking session inside one database
// transaction.
type Writer struct {
	pool *pgxpool.Pool
	log  *zap.Logger
}

func NewWriter(pool *pgxpool.Pool, log *zap.Logger) *Writer {
	return &Writer{pool: pool, log: log}
}

// Apply rolls the transaction back on any error or panic.
func (w *Writer) Apply(ctx context.Context, entries []*tracking.Entry) error {
	err := pgx.BeginFunc(ctx, w.pool, func(tx pgx.Tx) error {
		for _, e := range entries {
			if err := applyEntry(ctx, tx, e); err != nil {
				return fmt.Errorf("%s %s: %w", strings.ToLower(e.State.String()), e.Entity.TableName(), err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	w.log.Debug("changes applied", zap.Int("rows", len(entries)))
	return nil
}

func applyEntry(ctx context.Context, tx pgx.Tx, e *tracking.Entry) error {
	switch e.State {
	case tracking.Added:
		return insertRow(ctx, tx, e.Entity)
	case tracking.Modified:
		return updateRow(ctx, tx, e)
	case tracking.Deleted:
		return deleteRow(ctx, tx, e.Entity)
	}
	return nil
}

func insertRow(ctx context.Context, tx pgx.Tx, ent tracking.Entity) error {
	cols := tracking.Columns(ent)
	vals := tracking.Values(ent)
	gen, generated := ent.(tracking.Generated)

	names := make([]string, 0, len(cols))
	args := make([]any, 0, len(cols))
	for i, c := range cols {
		if generated && c == keyColumn {
			continue
		}
		names = append(names, pgx.Identifier{c}.Sanitize())
		args = append(args, vals[i])
	}

	sql := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		pgx.Identifier{ent.TableName()}.Sanitize(), strings.Join(names, ", "), placeholders(1, len(args)))

	if !generated {
		_, err := tx.Exec(ctx, sql, args...)
		return err
	}

	var id int64
	if err := tx.QueryRow(ctx, sql+" RETURNING id", args...).Scan(&id); err != nil {
		return err
	}
	gen.SetID(id)
	return nil
}

func updateRow(ctx context.Context, tx pgx.Tx, e *tracking.Entry) error {
	var (
		sets []string
		args []any
	)
	for _, p := range e.Properties() {
		if !p.IsModified || p.Name == keyColumn {
			continue
		}
		args = append(args, p.Current)
		sets = append(sets, fmt.Sprintf("%s = $%d", pgx.Identifier{p.Name}.Sanitize(), len(args)))
	}
	if len(sets) == 0 {
		return nil
	}
	args = append(args, e.Entity.PrimaryKey())

	sql := fmt.Sprintf("UPDATE %s SET %s WHERE id = $%d",
		pgx.Identifier{e.Entity.TableName()}.Sanitize(), strings.Join(sets, ", "), len(args))
	return expectOneRow(tx.Exec(ctx, sql, args...))
}

// deleteRow removes a row by key. Join rows have no key column and are matched
// on every column.
func deleteRow(ctx context.Context, tx pgx.Tx, ent tracking.Entity) error {
	table := pgx.Identifier{ent.TableName()}.Sanitize()
	if tracking.KindOf(ent) != tracking.KindRelationship {
		return expectOneRow(tx.Exec(ctx, fmt.Sprintf("DELETE FROM %s WHERE id = $1", table), ent.PrimaryKey()))
	}

	cols := tracking.Columns(ent)
	conds := make([]string, len(cols))
	for i, c := range cols {
		conds[i] = fmt.Sprintf("%s = $%d", pgx.Identifier{c}.Sanitize(), i+1)
	}
	sql := fmt.Sprintf("DELETE FROM %s WHERE %s", table, strings.Join(conds, " AND "))
	return expectOneRow(tx.Exec(ctx, sql, tracking.Values(ent)...))
}

func expectOneRow(tag pgconn.CommandTag, err error) error {
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrStaleRow
	}
	return nil
}

func placeholders(from, n int) string {
	ps := make([]string, n)
	for i := range ps {
		ps[i] = fmt.Sprintf("$%d", from+i)
	}
	return strings.Join(ps, ", ")
}
