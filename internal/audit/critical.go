package audit

import "github.com/campus-assoc/backend/internal/tracking"

// criticalEntities are governance records whose every change is critical.
var criticalEntities = map[string]bool{
	"UserRole":   true,
	"Report":     true,
	"User":       true,
	"FiscalYear": true,
}

// criticalFields lists, per entity type, columns that make any modification
// critical on their own. Only accounts have such overrides.
var criticalFields = map[string]map[string]bool{
	"User": {
		"password_hash": true,
		"email":         true,
		"username":      true,
		"phone_number":  true,
	},
}

// IsCritical flags deletions and changes to governance records.
func IsCritical(entityType string, state tracking.State) bool {
	return state == tracking.Deleted || criticalEntities[entityType]
}

// CriticalFieldsModified returns the critical columns among the deltas of a
// modification, in delta order.
func CriticalFieldsModified(entityType string, deltas []FieldDelta) []string {
	fields, ok := criticalFields[entityType]
	if !ok {
		return nil
	}
	var out []string
	for _, d := range deltas {
		if fields[d.Name] {
			out = append(out, d.Name)
		}
	}
	return out
}
