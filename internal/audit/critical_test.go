package audit

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/campus-assoc/backend/internal/tracking"
)

func TestIsCriticalForDeletions(t *testing.T) {
	for _, entityType := range []string{"Event", "Song", "Attendance", "Unknown", "User"} {
		assert.True(t, IsCritical(entityType, tracking.Deleted), entityType)
	}
}

func TestIsCriticalForAllowlist(t *testing.T) {
	states := []tracking.State{tracking.Added, tracking.Modified, tracking.Deleted}
	for entityType := range criticalEntities {
		for _, st := range states {
			assert.True(t, IsCritical(entityType, st), "%s %s", entityType, st)
		}
	}
}

func TestIsCriticalOrdinaryChanges(t *testing.T) {
	assert.False(t, IsCritical("Event", tracking.Modified))
	assert.False(t, IsCritical("Song", tracking.Added))
	assert.False(t, IsCritical("Unknown", tracking.Modified))
}

func TestCriticalFieldsModified(t *testing.T) {
	deltas := []FieldDelta{
		{Name: "first_name"},
		{Name: "email"},
		{Name: "password_hash"},
	}
	assert.Equal(t, []string{"email", "password_hash"}, CriticalFieldsModified("User", deltas))
	assert.Nil(t, CriticalFieldsModified("Event", deltas))
	assert.Nil(t, CriticalFieldsModified("User", []FieldDelta{{Name: "first_name"}}))
}
