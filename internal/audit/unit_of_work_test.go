package audit

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campus-assoc/backend/internal/events"
	"github.com/campus-assoc/backend/internal/models"
	"github.com/campus-assoc/backend/internal/tracking"
)

// fakeWriter stands in for the database. failOn makes the n-th Apply call (1-based)
// return err; panicOn makes it panic.
type fakeWriter struct {
	applyCalls int
	written    [][]tracking.Entity
	nextID     int64
	failOn     int
	panicOn    int
	err        error
}

func (w *fakeWriter) Apply(_ context.Context, entries []*tracking.Entry) error {
	w.applyCalls++
	if w.applyCalls == w.panicOn {
		panic("connection reset")
	}
	if w.applyCalls == w.failOn {
		return w.err
	}
	batch := make([]tracking.Entity, 0, len(entries))
	for _, e := range entries {
		if g, ok := e.Entity.(tracking.Generated); ok && e.State == tracking.Added {
			w.nextID++
			g.SetID(w.nextID)
		}
		batch = append(batch, e.Entity)
	}
	w.written = append(w.written, batch)
	return nil
}

// auditRows returns the audit records written in all Apply calls.
func (w *fakeWriter) auditRows() []*models.AuditLog {
	var out []*models.AuditLog
	for _, batch := range w.written {
		for _, e := range batch {
			if r, ok := e.(*models.AuditLog); ok {
				out = append(out, r)
			}
		}
	}
	return out
}

type capturePublisher struct {
	events []events.Event
}

func (p *capturePublisher) Publish(_ context.Context, _ string, e events.Event) error {
	p.events = append(p.events, e)
	return nil
}

var fixedNow = time.Date(2025, 10, 1, 8, 30, 0, 0, time.UTC)

func newTestUnit(w *fakeWriter, opts ...Option) (*UnitOfWork, *tracking.Session) {
	s := tracking.NewSession(w)
	opts = append([]Option{WithClock(func() time.Time { return fixedNow })}, opts...)
	return NewUnitOfWork(s, opts...), s
}

func decodePayload(t *testing.T, rec *models.AuditLog) map[string]any {
	t.Helper()
	require.NotNil(t, rec.Changes)
	var m map[string]any
	require.NoError(t, json.Unmarshal([]byte(*rec.Changes), &m))
	return m
}

func TestModifiedTitleProducesSingleDelta(t *testing.T) {
	w := &fakeWriter{}
	u, s := newTestUnit(w)
	song := &models.Song{Base: models.Base{ID: 4}, Title: "Old", Composer: strPtr("Bach")}
	s.Attach(song)

	song.Title = "New"
	n, err := u.SaveChanges(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	rows := w.auditRows()
	require.Len(t, rows, 1)
	rec := rows[0]
	assert.Equal(t, "Song", rec.Entity)
	assert.Equal(t, models.AuditModified, rec.Action)
	require.NotNil(t, rec.EntityID)
	assert.Equal(t, int64(4), *rec.EntityID)
	assert.False(t, rec.IsCritical)
	assert.Equal(t, fixedNow, rec.Timestamp)
	assert.Equal(t, "New", *rec.DisplayName)
	assert.JSONEq(t, `{"title":{"old":"Old","new":"New"}}`, *rec.Changes)
}

func TestNullToEmptyJSONArrayIsNotAChange(t *testing.T) {
	w := &fakeWriter{}
	u, s := newTestUnit(w)
	ev := &models.Event{Base: models.Base{ID: 1}, Name: "Rehearsal"}
	s.Attach(ev)

	ev.Tags = strPtr("[]")
	_, err := u.SaveChanges(context.Background())
	require.NoError(t, err)
	assert.Empty(t, w.auditRows())
}

func TestDeletedRecordLogsNonNullValues(t *testing.T) {
	w := &fakeWriter{}
	u, s := newTestUnit(w)
	song := &models.Song{Base: models.Base{ID: 9}, Title: "X", SheetMusicPDF: []byte("%PDF-1.7")}
	s.Attach(song)
	require.NoError(t, s.Remove(song))

	_, err := u.SaveChanges(context.Background())
	require.NoError(t, err)

	rows := w.auditRows()
	require.Len(t, rows, 1)
	assert.Equal(t, models.AuditDeleted, rows[0].Action)
	assert.True(t, rows[0].IsCritical)
	assert.JSONEq(t, `{"title":"X"}`, *rows[0].Changes)
}

func TestRoleGrantProducesSingleRoleRecord(t *testing.T) {
	w := &fakeWriter{}
	u, s := newTestUnit(w)
	s.Attach(&models.User{ID: "u-1", FirstName: "Jane", LastName: "Doe"})
	s.Attach(&models.Role{Base: models.Base{ID: 3}, Name: "Treasurer"})

	require.NoError(t, s.Add(&models.UserRole{UserID: "u-1", RoleID: 3}))
	_, err := u.SaveChanges(context.Background())
	require.NoError(t, err)

	rows := w.auditRows()
	require.Len(t, rows, 1)
	rec := rows[0]
	assert.Equal(t, models.AuditRoleAdded, rec.Action)
	assert.Equal(t, "UserRole", rec.Entity)
	assert.Nil(t, rec.EntityID)
	assert.True(t, rec.IsCritical)
	require.NotNil(t, rec.Changes)
	assert.Contains(t, *rec.Changes, "Jane Doe")
	assert.Contains(t, *rec.Changes, "Treasurer")
}

func TestRoleRevocationWithoutCachedLabelsUsesIDs(t *testing.T) {
	w := &fakeWriter{}
	u, s := newTestUnit(w)
	ur := &models.UserRole{UserID: "u-2", RoleID: 5}
	s.Attach(ur)
	require.NoError(t, s.Remove(ur))

	_, err := u.SaveChanges(context.Background())
	require.NoError(t, err)

	rows := w.auditRows()
	require.Len(t, rows, 1)
	assert.Equal(t, models.AuditRoleRemoved, rows[0].Action)
	var desc string
	require.NoError(t, json.Unmarshal([]byte(*rows[0].Changes), &desc))
	assert.Equal(t, "User: u-2, Role: 5", desc)
}

func TestGuardResetsAfterAuditFailure(t *testing.T) {
	w := &fakeWriter{failOn: 2, err: errors.New("disk full")}
	metrics := NewMetrics(prometheus.NewRegistry())
	u, s := newTestUnit(w, WithMetrics(metrics))

	ev := &models.Event{Name: "Concert"}
	require.NoError(t, s.Add(ev))

	_, err := u.SaveChanges(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
	assert.False(t, u.AuditingDisabled())
	assert.NotZero(t, ev.ID, "primary write stays committed")
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.WriteFailures))

	for _, e := range s.Entries() {
		_, isAudit := e.Entity.(*models.AuditLog)
		assert.False(t, isAudit, "failed audit rows must not stay pending")
	}

	ev.Name = "Gala Concert"
	_, err = u.SaveChanges(context.Background())
	require.NoError(t, err)

	rows := w.auditRows()
	require.Len(t, rows, 1)
	assert.Equal(t, models.AuditModified, rows[0].Action)
	assert.Equal(t, "Gala Concert", *rows[0].DisplayName)
}

func TestGuardResetsAfterPanic(t *testing.T) {
	w := &fakeWriter{panicOn: 2}
	u, s := newTestUnit(w)
	require.NoError(t, s.Add(&models.Song{Title: "Panic"}))

	assert.Panics(t, func() { _, _ = u.SaveChanges(context.Background()) })
	assert.False(t, u.AuditingDisabled())
}

func TestPrimaryFailureProducesNoAudit(t *testing.T) {
	w := &fakeWriter{failOn: 1, err: errors.New("constraint violation")}
	u, s := newTestUnit(w)
	require.NoError(t, s.Add(&models.Song{Title: "Dup"}))

	_, err := u.SaveChanges(context.Background())
	require.Error(t, err)
	assert.Equal(t, 1, w.applyCalls)
	assert.Empty(t, w.auditRows())
}

func TestCancelledContextProducesNoAudit(t *testing.T) {
	w := &fakeWriter{}
	u, s := newTestUnit(w)
	require.NoError(t, s.Add(&models.Song{Title: "Late"}))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := u.SaveChanges(ctx)
	require.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, w.applyCalls)
}

func TestAuditWriteIsSingleCycle(t *testing.T) {
	for _, n := range []int{1, 3, 10} {
		w := &fakeWriter{}
		u, s := newTestUnit(w)
		for i := 0; i < n; i++ {
			require.NoError(t, s.Add(&models.Song{Title: "Song"}))
		}
		_, err := u.SaveChanges(context.Background())
		require.NoError(t, err)

		assert.Equal(t, 2, w.applyCalls, "one primary and one audit commit")
		assert.Len(t, w.auditRows(), n)
		require.Len(t, w.written, 2)
		for _, e := range w.written[1] {
			_, ok := e.(*models.AuditLog)
			assert.True(t, ok)
		}
	}
}

func TestNothingPendingWritesNothing(t *testing.T) {
	w := &fakeWriter{}
	u, s := newTestUnit(w)
	s.Attach(&models.Song{Base: models.Base{ID: 1}, Title: "Same"})

	n, err := u.SaveChanges(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Zero(t, w.applyCalls)
}

func TestCreatedRecordGetsGeneratedIDAndStamps(t *testing.T) {
	w := &fakeWriter{}
	u, s := newTestUnit(w)
	ctx := WithPrincipal(context.Background(), Principal{ID: "admin-1", Name: "admin"})

	fy := &models.FiscalYear{
		Name:     "2025/26",
		StartsOn: time.Date(2025, 10, 1, 0, 0, 0, 0, time.UTC),
		EndsOn:   time.Date(2026, 9, 30, 0, 0, 0, 0, time.UTC),
	}
	require.NoError(t, s.Add(fy))
	_, err := u.SaveChanges(ctx)
	require.NoError(t, err)

	assert.Equal(t, fixedNow, fy.CreatedAt)
	require.NotNil(t, fy.CreatedBy)
	assert.Equal(t, "admin-1", *fy.CreatedBy)

	rows := w.auditRows()
	require.Len(t, rows, 1)
	rec := rows[0]
	assert.Equal(t, models.AuditCreated, rec.Action)
	require.NotNil(t, rec.EntityID)
	assert.Equal(t, fy.ID, *rec.EntityID)
	assert.True(t, rec.IsCritical)
	assert.Equal(t, "admin-1", *rec.ActorID)
	assert.Equal(t, "admin", *rec.ActorName)

	payload := decodePayload(t, rec)
	assert.Equal(t, "2025/26", payload["name"])
	assert.NotContains(t, payload, "created_at")
	assert.NotContains(t, payload, "id")
}

func TestFallbackActorUsedOutsideRequest(t *testing.T) {
	w := &fakeWriter{}
	u, s := newTestUnit(w)
	u.Actor().Set("new-user", "newbie")
	require.NoError(t, s.Add(&models.User{ID: "new-user", UserName: "newbie", Email: "n@example.org"}))

	_, err := u.SaveChanges(context.Background())
	require.NoError(t, err)

	rows := w.auditRows()
	require.Len(t, rows, 1)
	assert.Equal(t, "new-user", *rows[0].ActorID)
	assert.Equal(t, "newbie", *rows[0].ActorName)
}

func TestAuditWithoutAnyActor(t *testing.T) {
	w := &fakeWriter{}
	u, s := newTestUnit(w)
	require.NoError(t, s.Add(&models.Song{Title: "Anon"}))

	_, err := u.SaveChanges(context.Background())
	require.NoError(t, err)
	rows := w.auditRows()
	require.Len(t, rows, 1)
	assert.Nil(t, rows[0].ActorID)
	assert.Nil(t, rows[0].ActorName)
}

func TestUserChangeCarriesTargetAndCriticalFields(t *testing.T) {
	w := &fakeWriter{}
	u, s := newTestUnit(w)
	user := &models.User{ID: "u-7", UserName: "alto", Email: "old@example.org", FirstName: "Ann", PasswordHash: strPtr("h1")}
	s.Attach(user)

	user.Email = "new@example.org"
	user.PasswordHash = strPtr("h2")
	user.FirstName = "Anna"
	_, err := u.SaveChanges(context.Background())
	require.NoError(t, err)

	rows := w.auditRows()
	require.Len(t, rows, 1)
	rec := rows[0]
	assert.Nil(t, rec.EntityID, "opaque ids live in the payload")
	assert.True(t, rec.IsCritical)

	payload := decodePayload(t, rec)
	assert.Equal(t, "Anna", payload[keyTargetUser])
	assert.ElementsMatch(t, []any{"email", "password_hash"}, payload[keyCriticalFieldsModified])
	assert.Equal(t, map[string]any{"old": "***", "new": "***"}, payload["password_hash"])
	assert.NotContains(t, *rec.Changes, "h1")
	assert.NotContains(t, *rec.Changes, "h2")
}

func TestBinaryChangesNeverLogBytes(t *testing.T) {
	w := &fakeWriter{}
	u, s := newTestUnit(w)
	secret := strings.Repeat("Z", 2048)
	user := &models.User{ID: "u-8", UserName: "pic"}
	s.Attach(user)

	user.ProfilePicture = []byte(secret)
	_, err := u.SaveChanges(context.Background())
	require.NoError(t, err)

	rows := w.auditRows()
	require.Len(t, rows, 1)
	assert.NotContains(t, *rows[0].Changes, "ZZZZ")
	payload := decodePayload(t, rows[0])
	assert.Equal(t, map[string]any{"old": nil, "new": "Picture uploaded: 2 KB"}, payload["profile_picture"])
}

func TestCreatedBinaryIsDescribed(t *testing.T) {
	w := &fakeWriter{}
	u, s := newTestUnit(w, WithLargeBinaryBytes(10))
	require.NoError(t, s.Add(&models.Transaction{
		FiscalYearID: 1,
		AmountCents:  -1250,
		Description:  "Rosin",
		Category:     strPtr("   "),
		ReceiptFile:  make([]byte, 3*1024*1024),
	}))

	_, err := u.SaveChanges(context.Background())
	require.NoError(t, err)

	payload := decodePayload(t, w.auditRows()[0])
	assert.Equal(t, "File uploaded: 3 MB", payload["receipt_file"])
	assert.Equal(t, "Rosin", payload["description"])
	assert.NotContains(t, payload, "category")
}

func TestCriticalRecordsArePublished(t *testing.T) {
	w := &fakeWriter{}
	pub := &capturePublisher{}
	u, s := newTestUnit(w, WithPublisher(pub, "test:audit"))

	report := &models.Report{Title: "Budget"}
	require.NoError(t, s.Add(report))
	require.NoError(t, s.Add(&models.Song{Title: "Not critical"}))
	_, err := u.SaveChanges(context.Background())
	require.NoError(t, err)

	require.Len(t, pub.events, 1)
	assert.Equal(t, events.EventAuditCritical, pub.events[0].Type)
	assert.Equal(t, "Report", pub.events[0].Payload["entity_type"])
}

func TestModifiedRepertoireUsesCachedLabels(t *testing.T) {
	w := &fakeWriter{}
	u, s := newTestUnit(w)
	s.Attach(&models.Event{Base: models.Base{ID: 1}, Name: "Winter Gala"})
	s.Attach(&models.Song{Base: models.Base{ID: 2}, Title: "Nimrod"})
	item := &models.RepertoireItem{Base: models.Base{ID: 3}, EventID: 1, SongID: 2, Position: 1}
	s.Attach(item)

	item.Position = 2
	_, err := u.SaveChanges(context.Background())
	require.NoError(t, err)

	rows := w.auditRows()
	require.Len(t, rows, 1)
	assert.Equal(t, "Winter Gala - Nimrod", *rows[0].DisplayName)
	assert.Equal(t, 2, w.applyCalls)
}
