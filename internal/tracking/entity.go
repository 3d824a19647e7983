// Package tracking is the change-tracking layer between repositories and the
// database: it keeps the rows loaded during one unit of work, snapshots their
// columns and reports what is pending when the unit of work commits.
package tracking

import (
	"context"
	"errors"
	"time"
)

var (
	ErrNotTracked    = errors.New("tracking: entity is not tracked")
	ErrSessionClosed = errors.New("tracking: session closed")
)

// Entity is a persisted row.
type Entity interface {
	EntityType() string
	TableName() string
	PrimaryKey() any
}

// Generated is implemented by rows whose integer key is assigned by the database.
type Generated interface {
	Entity
	SetID(id int64)
}

// Audited is implemented by numeric-identity rows that carry creation and
// modification bookkeeping columns.
type Audited interface {
	Generated
	Stamp(created bool, at time.Time, by *string)
}

// Relationship is a join row with no identity of its own; every column is part of
// the key.
type Relationship interface {
	Entity
	Endpoints() (left, right any)
}

// Writer persists pending entries. Apply must be atomic: either every entry is
// written or none is.
type Writer interface {
	Apply(ctx context.Context, entries []*Entry) error
}

type Kind int

const (
	KindNumeric Kind = iota
	KindOpaque
	KindRelationship
)

func (k Kind) String() string {
	switch k {
	case KindNumeric:
		return "numeric"
	case KindOpaque:
		return "opaque"
	case KindRelationship:
		return "relationship"
	}
	return "unknown"
}

// KindOf classifies an entity by the capabilities it implements.
func KindOf(e Entity) Kind {
	switch e.(type) {
	case Relationship:
		return KindRelationship
	case Audited:
		return KindNumeric
	default:
		return KindOpaque
	}
}

type State int

const (
	Unchanged State = iota
	Added
	Modified
	Deleted
)

func (s State) String() string {
	switch s {
	case Unchanged:
		return "Unchanged"
	case Added:
		return "Created"
	case Modified:
		return "Modified"
	case Deleted:
		return "Deleted"
	}
	return "Unknown"
}
