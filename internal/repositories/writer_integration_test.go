//go:build integration

package repositories

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"go.uber.org/zap"

	"github.com/campus-assoc/backend/internal/audit"
	"github.com/campus-assoc/backend/internal/db"
	"github.com/campus-assoc/backend/internal/models"
	"github.com/campus-assoc/backend/internal/tracking"
)

func newTestPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("assoc"),
		tcpostgres.WithUsername("assoc"),
		tcpostgres.WithPassword("assoc"),
		tcpostgres.BasicWaitStrategies(),
	)
	testcontainers.CleanupContainer(t, container)
	require.NoError(t, err, "start postgres container")

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	pool, err := db.NewPostgresPool(ctx, dsn, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	require.NoError(t, db.RunMigrations(ctx, pool, "../../migrations", zap.NewNop()))
	return pool
}

func TestWriterRoundTripWithAudit(t *testing.T) {
	pool := newTestPool(t)
	ctx := audit.WithPrincipal(context.Background(), audit.Principal{ID: "u-admin", Name: "admin"})

	users := NewUserRepo(pool)
	roles := NewRoleRepo(pool)
	events := NewEventRepo(pool)
	audits := NewAuditRepo(pool)

	s := tracking.NewSession(NewWriter(pool, zap.NewNop()))
	uow := audit.NewUnitOfWork(s)

	member := &models.User{ID: "u-1", UserName: "jdoe", Email: "jdoe@example.org", FirstName: "Jane", LastName: "Doe", IsActive: true, CreatedAt: time.Now().UTC()}
	role := &models.Role{Name: models.RoleTreasurer}
	ev := &models.Event{Name: "Spring Concert", StartsAt: time.Now().UTC().Add(48 * time.Hour), Tags: strPtr(`["concert"]`)}
	require.NoError(t, s.Add(member))
	require.NoError(t, s.Add(role))
	require.NoError(t, s.Add(ev))

	_, err := uow.SaveChanges(ctx)
	require.NoError(t, err)
	require.NotZero(t, ev.ID)
	require.NotZero(t, role.ID)

	require.NoError(t, s.Add(&models.UserRole{UserID: member.ID, RoleID: role.ID}))
	ev.Location = strPtr("Main Hall")
	_, err = uow.SaveChanges(ctx)
	require.NoError(t, err)

	names, err := users.RoleNames(ctx, member.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{models.RoleTreasurer}, names)

	loaded, err := events.GetByID(ctx, nil, ev.ID)
	require.NoError(t, err)
	assert.Equal(t, "Main Hall", *loaded.Location)
	require.NotNil(t, loaded.CreatedBy)
	assert.Equal(t, "u-admin", *loaded.CreatedBy)

	history, err := audits.GetByEntity(ctx, "Event", ev.ID, 10, 0)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, models.AuditModified, history[0].Action)
	assert.JSONEq(t, `{"location":{"old":null,"new":"Main Hall"}}`, *history[0].Changes)
	assert.Equal(t, models.AuditCreated, history[1].Action)

	critical, err := audits.List(ctx, AuditFilter{CriticalOnly: true})
	require.NoError(t, err)
	var actions []string
	for _, r := range critical {
		actions = append(actions, r.Entity+":"+r.Action)
	}
	assert.Contains(t, actions, "UserRole:"+models.AuditRoleAdded)
	assert.Contains(t, actions, "User:"+models.AuditCreated)

	grant, err := roles.GetGrant(ctx, s, member.ID, role.ID)
	require.NoError(t, err)
	require.NoError(t, s.Remove(grant))
	_, err = uow.SaveChanges(ctx)
	require.NoError(t, err)

	names, err = users.RoleNames(ctx, member.ID)
	require.NoError(t, err)
	assert.Empty(t, names)
}

func TestGetOneMapsNoRowsToNotFound(t *testing.T) {
	pool := newTestPool(t)
	_, err := NewEventRepo(pool).GetByID(context.Background(), nil, 4242)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateOfMissingRowIsStale(t *testing.T) {
	pool := newTestPool(t)
	s := tracking.NewSession(NewWriter(pool, zap.NewNop()))
	song := &models.Song{Base: models.Base{ID: 999}, Title: "Ghost"}
	s.Attach(song)
	song.Title = "Still a ghost"

	_, err := s.Commit(context.Background())
	assert.ErrorIs(t, err, ErrStaleRow)
}

func TestApplyRollsBackOnFailure(t *testing.T) {
	pool := newTestPool(t)
	ctx := context.Background()
	s := tracking.NewSession(NewWriter(pool, zap.NewNop()))

	require.NoError(t, s.Add(&models.Song{Title: "Fresh", Base: models.Base{CreatedAt: time.Now().UTC(), UpdatedAt: time.Now().UTC()}}))
	ghost := &models.Song{Base: models.Base{ID: 999}, Title: "Ghost"}
	s.Attach(ghost)
	ghost.Title = "Still a ghost"

	_, err := s.Commit(ctx)
	require.ErrorIs(t, err, ErrStaleRow)

	songs, err := NewEventRepo(pool).ListSongs(ctx, 10, 0)
	require.NoError(t, err)
	assert.Empty(t, songs)
	assert.Zero(t, pool.Stat().AcquiredConns())
}

// explodingRow panics while its insert statement is built.
type explodingRow struct {
	ID int64 `db:"id"`
}

func (r *explodingRow) EntityType() string { return "Exploding" }
func (r *explodingRow) TableName() string  { panic("no table") }
func (r *explodingRow) PrimaryKey() any    { return r.ID }

func TestApplyRollsBackOnPanic(t *testing.T) {
	pool := newTestPool(t)
	ctx := context.Background()
	w := NewWriter(pool, zap.NewNop())

	now := time.Now().UTC()
	entries := []*tracking.Entry{
		{Entity: &models.Song{Title: "Fresh", Base: models.Base{CreatedAt: now, UpdatedAt: now}}, State: tracking.Added},
		{Entity: &explodingRow{ID: 1}, State: tracking.Added},
	}
	assert.Panics(t, func() { _ = w.Apply(ctx, entries) })

	songs, err := NewEventRepo(pool).ListSongs(ctx, 10, 0)
	require.NoError(t, err)
	assert.Empty(t, songs)
	assert.Zero(t, pool.Stat().AcquiredConns())
}

func strPtr(s string) *string { return &s }
