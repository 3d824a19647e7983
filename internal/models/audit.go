package models

import "time"

const (
	AuditCreated     = "Created"
	AuditModified    = "Modified"
	AuditDeleted     = "Deleted"
	AuditRoleAdded   = "Role Added"
	AuditRoleRemoved = "Role Removed"
)

// AuditLog is an immutable record of one change. Entity is the type name of the
// changed row; Changes holds the JSON payload.
type AuditLog struct {
	ID          int64     `db:"id" json:"id"`
	Entity      string    `db:"entity_type" json:"entity_type"`
	EntityID    *int64    `db:"entity_id" json:"entity_id,omitempty"`
	Action      string    `db:"action" json:"action"`
	ActorID     *string   `db:"actor_id" json:"actor_id,omitempty"`
	ActorName   *string   `db:"actor_name" json:"actor_name,omitempty"`
	Timestamp   time.Time `db:"timestamp" json:"timestamp"`
	Changes     *string   `db:"changes" json:"changes,omitempty"`
	IsCritical  bool      `db:"is_critical" json:"is_critical"`
	DisplayName *string   `db:"display_name" json:"display_name,omitempty"`
}

func (a *AuditLog) EntityType() string { return "AuditLog" }
func (a *AuditLog) TableName() string  { return "audit_logs" }
func (a *AuditLog) PrimaryKey() any    { return a.ID }
func (a *AuditLog) SetID(id int64)     { a.ID = id }
