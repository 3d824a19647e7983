package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campus-assoc/backend/internal/tracking"
)

var _ tracking.Generated = (*AuditLog)(nil)

func TestAuditLogMapsEntityColumn(t *testing.T) {
	rec := &AuditLog{Entity: "Song", Action: AuditDeleted}

	assert.Equal(t, "AuditLog", rec.EntityType())
	assert.Contains(t, tracking.Columns(rec), "entity_type")
	assert.Contains(t, tracking.Values(rec), "Song")

	raw, err := json.Marshal(rec)
	require.NoError(t, err)
	var doc map[string]any
	require.NoError(t, json.Unmarshal(raw, &doc))
	assert.Equal(t, "Song", doc["entity_type"])
}
