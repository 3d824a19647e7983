package services

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/campus-assoc/backend/internal/audit"
	"github.com/campus-assoc/backend/internal/events"
	"github.com/campus-assoc/backend/internal/models"
	"github.com/campus-assoc/backend/internal/tracking"
)

type memWriter struct {
	nextID  int64
	applied []tracking.Entity
}

func (w *memWriter) Apply(_ context.Context, entries []*tracking.Entry) error {
	for _, e := range entries {
		if g, ok := e.Entity.(tracking.Generated); ok && e.State == tracking.Added {
			w.nextID++
			g.SetID(w.nextID)
		}
		w.applied = append(w.applied, e.Entity)
	}
	return nil
}

type streamRecorder struct {
	stream string
	events []events.Event
}

func (r *streamRecorder) Publish(_ context.Context, stream string, e events.Event) error {
	r.stream = stream
	r.events = append(r.events, e)
	return nil
}

func TestUnitsBeginWiresAuditing(t *testing.T) {
	w := &memWriter{}
	pub := &streamRecorder{}
	metrics := audit.NewMetrics(prometheus.NewRegistry())
	units := NewUnits(w, zap.NewNop(),
		WithAuditPublisher(pub, "events:test"),
		WithAuditMetrics(metrics),
	)

	u := units.Begin()
	defer u.Close()
	require.NoError(t, u.Add(&models.FiscalYear{Name: "2025"}))

	ctx := audit.WithPrincipal(context.Background(), audit.Principal{ID: "u-1", Name: "treasurer"})
	require.NoError(t, u.Save(ctx))

	var logs []*models.AuditLog
	for _, e := range w.applied {
		if l, ok := e.(*models.AuditLog); ok {
			logs = append(logs, l)
		}
	}
	require.Len(t, logs, 1)
	assert.Equal(t, "FiscalYear", logs[0].Entity)
	assert.Equal(t, "treasurer", *logs[0].ActorName)

	assert.Equal(t, "events:test", pub.stream)
	require.Len(t, pub.events, 1)
	assert.Equal(t, events.EventAuditCritical, pub.events[0].Type)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.CriticalRecords))
}

func TestApplyEventInput(t *testing.T) {
	start := time.Date(2025, 12, 20, 19, 0, 0, 0, time.UTC)
	end := start.Add(-time.Hour)
	name := "  Winter Gala "
	loc := "   "

	ev := &models.Event{}
	err := applyEventInput(ev, EventInput{Name: &name, Location: &loc, StartsAt: &start, Tags: []string{"gala"}})
	require.NoError(t, err)
	assert.Equal(t, "Winter Gala", ev.Name)
	assert.Nil(t, ev.Location)
	assert.Equal(t, `["gala"]`, *ev.Tags)

	desc := "<p>Dress code: <b>black</b></p>"
	require.NoError(t, applyEventInput(ev, EventInput{Description: &desc}))
	assert.Equal(t, "Dress code: black", *ev.Description)

	err = applyEventInput(ev, EventInput{EndsAt: &end})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestApplySongInput(t *testing.T) {
	song := &models.Song{Title: "Old", Composer: strPtr("Bach")}
	empty := ""
	title := "Air"
	applySongInput(song, SongInput{Title: &title, Composer: &empty})
	assert.Equal(t, "Air", song.Title)
	assert.Nil(t, song.Composer)
}

func TestHelpers(t *testing.T) {
	assert.Nil(t, trimmedOrNil(" \t"))
	assert.Equal(t, "x", *trimmedOrNil(" x "))
	assert.Nil(t, nilIfEmpty([]byte{}))
	assert.Equal(t, []byte{1}, nilIfEmpty([]byte{1}))
}

func strPtr(s string) *string { return &s }

func TestRemoveAllAuditsDependentRowsBeforeParent(t *testing.T) {
	w := &memWriter{}
	u := NewUnits(w, zap.NewNop()).Begin()
	defer u.Close()

	items := []*models.RepertoireItem{
		{Base: models.Base{ID: 11}, EventID: 1, SongID: 5, Position: 1},
		{Base: models.Base{ID: 12}, EventID: 2, SongID: 5, Position: 3},
	}
	for _, it := range items {
		u.Attach(it)
	}
	song := &models.Song{Base: models.Base{ID: 5}, Title: "Nimrod"}
	u.Attach(song)
	u.Attach(&models.Event{Base: models.Base{ID: 1}, Name: "Winter Gala"})

	require.NoError(t, removeAll(u, items...))
	require.NoError(t, u.Remove(song))
	require.NoError(t, u.Save(context.Background()))

	require.GreaterOrEqual(t, len(w.applied), 3)
	assert.Same(t, items[0], w.applied[0])
	assert.Same(t, items[1], w.applied[1])
	assert.Same(t, song, w.applied[2])

	var deleted []*models.AuditLog
	for _, e := range w.applied {
		if l, ok := e.(*models.AuditLog); ok && l.Action == models.AuditDeleted {
			deleted = append(deleted, l)
		}
	}
	require.Len(t, deleted, 3)
	assert.Equal(t, "RepertoireItem", deleted[0].Entity)
	assert.Equal(t, "Winter Gala - Nimrod", *deleted[0].DisplayName)
	assert.Equal(t, "Nimrod", *deleted[1].DisplayName)
	assert.Equal(t, "Song", deleted[2].Entity)
	for _, l := range deleted {
		assert.True(t, l.IsCritical)
	}
}
