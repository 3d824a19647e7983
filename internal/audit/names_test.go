package audit

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campus-assoc/backend/internal/models"
	"github.com/campus-assoc/backend/internal/tracking"
)

type failingCache struct{}

func (failingCache) Local(string, any) (tracking.Entity, error) {
	return nil, errors.New("store unavailable")
}

func newCache(entities ...tracking.Entity) *tracking.Session {
	s := tracking.NewSession(&fakeWriter{})
	for _, e := range entities {
		s.Attach(e)
	}
	return s
}

func TestResolveScalarNames(t *testing.T) {
	r := NewNameResolver(newCache())

	tests := []struct {
		entity tracking.Entity
		want   *string
	}{
		{&models.Event{Name: "Spring Concert"}, strPtr("Spring Concert")},
		{&models.Song{Title: "Ode"}, strPtr("Ode")},
		{&models.Report{Title: "Annual report"}, strPtr("Annual report")},
		{&models.FiscalYear{Name: "2025/26"}, strPtr("2025/26")},
		{&models.Transaction{Description: "Sheet music"}, strPtr("Sheet music")},
		{&models.Role{Name: "Treasurer"}, strPtr("Treasurer")},
		{&models.User{FirstName: "Jane", LastName: "Doe", UserName: "jdoe"}, strPtr("Jane Doe")},
		{&models.User{UserName: "jdoe"}, strPtr("jdoe")},
		{&models.Event{}, nil},
		{&models.AuditLog{}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.entity.EntityType(), func(t *testing.T) {
			assert.Equal(t, tt.want, r.Resolve(tt.entity))
		})
	}
}

func TestResolveRepertoireFromCache(t *testing.T) {
	event := &models.Event{Base: models.Base{ID: 1}, Name: "Gala"}
	song := &models.Song{Base: models.Base{ID: 2}, Title: "Bolero"}
	item := &models.RepertoireItem{EventID: 1, SongID: 2}

	got := NewNameResolver(newCache(event, song)).Resolve(item)
	require.NotNil(t, got)
	assert.Equal(t, "Gala - Bolero", *got)

	got = NewNameResolver(newCache(event)).Resolve(item)
	require.NotNil(t, got)
	assert.Equal(t, "Gala", *got)

	got = NewNameResolver(newCache(song)).Resolve(item)
	require.NotNil(t, got)
	assert.Equal(t, "Bolero", *got)

	assert.Nil(t, NewNameResolver(newCache()).Resolve(item))
}

func TestResolveAttendanceFromCache(t *testing.T) {
	user := &models.User{ID: "u1", FirstName: "Ada", LastName: "Lovelace"}
	a := &models.Attendance{UserID: "u1", Date: time.Date(2025, 5, 4, 19, 0, 0, 0, time.UTC)}

	got := NewNameResolver(newCache(user)).Resolve(a)
	require.NotNil(t, got)
	assert.Equal(t, "Ada Lovelace - 2025-05-04", *got)

	got = NewNameResolver(newCache()).Resolve(a)
	require.NotNil(t, got)
	assert.Equal(t, "2025-05-04", *got)
}

func TestResolveSwallowsCacheErrors(t *testing.T) {
	r := NewNameResolver(failingCache{})
	assert.Nil(t, r.Resolve(&models.RepertoireItem{EventID: 1, SongID: 2}))
	assert.Nil(t, r.Resolve(&models.Attendance{UserID: "u1"}))
	assert.Equal(t, "u1", r.UserLabel("u1"))
	assert.Equal(t, "3", r.RoleLabel(3))
}

func TestResolveNeverQueriesStore(t *testing.T) {
	w := &fakeWriter{}
	s := tracking.NewSession(w)
	NewNameResolver(s).Resolve(&models.RepertoireItem{EventID: 1, SongID: 2})
	assert.Zero(t, w.applyCalls)
}
