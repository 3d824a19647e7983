package events

import "context"

// Event types
const (
	EventAuditCritical = "audit_critical"
	EventRoleChanged   = "role_changed"
)

// DefaultAuditStream is the channel critical audit records are published on.
const DefaultAuditStream = "events:audit"

type Event struct {
	Type    string         `json:"type"`
	Payload map[string]any `json:"payload"`
}

type Publisher interface {
	Publish(ctx context.Context, stream string, event Event) error
}

type Subscriber interface {
	Subscribe(ctx context.Context, stream string, handler func(Event)) error
}
