package repositories

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/campus-assoc/backend/internal/models"
)

type EventRepo struct {
	pool *pgxpool.Pool
}

func NewEventRepo(pool *pgxpool.Pool) *EventRepo {
	return &EventRepo{pool: pool}
}

func (r *EventRepo) GetByID(ctx context.Context, s Attacher, id int64) (*models.Event, error) {
	return getOne[models.Event](ctx, r.pool, s, "id = $1", id)
}

// ListUpcoming returns events starting at or after from, soonest first.
func (r *EventRepo) ListUpcoming(ctx context.Context, from time.Time, limit, offset int) ([]*models.Event, error) {
	limit, offset = pageArgs(limit, offset)
	return getMany[models.Event](ctx, r.pool, nil, "WHERE starts_at >= $1 ORDER BY starts_at LIMIT $2 OFFSET $3", from, limit, offset)
}

func (r *EventRepo) GetSong(ctx context.Context, s Attacher, id int64) (*models.Song, error) {
	return getOne[models.Song](ctx, r.pool, s, "id = $1", id)
}

func (r *EventRepo) ListSongs(ctx context.Context, limit, offset int) ([]*models.Song, error) {
	limit, offset = pageArgs(limit, offset)
	return getMany[models.Song](ctx, r.pool, nil, "ORDER BY title LIMIT $1 OFFSET $2", limit, offset)
}

func (r *EventRepo) GetRepertoireItem(ctx context.Context, s Attacher, id int64) (*models.RepertoireItem, error) {
	return getOne[models.RepertoireItem](ctx, r.pool, s, "id = $1", id)
}

func (r *EventRepo) Repertoire(ctx context.Context, s Attacher, eventID int64) ([]*models.RepertoireItem, error) {
	return getMany[models.RepertoireItem](ctx, r.pool, s, "WHERE event_id = $1 ORDER BY position", eventID)
}

// RepertoireOfSong returns every programme entry that uses the song.
func (r *EventRepo) RepertoireOfSong(ctx context.Context, s Attacher, songID int64) ([]*models.RepertoireItem, error) {
	return getMany[models.RepertoireItem](ctx, r.pool, s, "WHERE song_id = $1 ORDER BY event_id, position", songID)
}

func (r *EventRepo) GetAttendance(ctx context.Context, s Attacher, eventID int64, userID string, date time.Time) (*models.Attendance, error) {
	return getOne[models.Attendance](ctx, r.pool, s, "event_id = $1 AND user_id = $2 AND date = $3", eventID, userID, date)
}

func (r *EventRepo) Attendances(ctx context.Context, s Attacher, eventID int64) ([]*models.Attendance, error) {
	return getMany[models.Attendance](ctx, r.pool, s, "WHERE event_id = $1 ORDER BY date, user_id", eventID)
}
