package tracking

import (
	"context"
	"fmt"
)

// Property is one column of a tracked entry.
type Property struct {
	Name       string
	Original   any
	Current    any
	IsModified bool
}

// Entry is an entity tracked by a Session together with its pending state.
type Entry struct {
	Entity Entity
	State  State

	original []any // snapshot taken at attach or last commit
}

func (e *Entry) Kind() Kind {
	return KindOf(e.Entity)
}

// Properties pairs the snapshot with the current column values.
func (e *Entry) Properties() []Property {
	names := Columns(e.Entity)
	current := Values(e.Entity)
	props := make([]Property, len(names))
	for i, name := range names {
		p := Property{Name: name, Current: current[i]}
		if e.original != nil {
			p.Original = e.original[i]
		}
		switch e.State {
		case Modified:
			p.IsModified = !sameValue(p.Original, p.Current)
		case Added:
			p.IsModified = p.Current != nil
		}
		props[i] = p
	}
	return props
}

func (e *Entry) detectChanges() {
	if e.State != Unchanged && e.State != Modified {
		return
	}
	current := Values(e.Entity)
	e.State = Unchanged
	for i := range current {
		if !sameValue(e.original[i], current[i]) {
			e.State = Modified
			return
		}
	}
}

// Session tracks the entities of one unit of work. It is not safe for
// concurrent use; every request gets its own.
type Session struct {
	writer  Writer
	entries []*Entry
	byRef   map[Entity]*Entry
	closed  bool
}

func NewSession(w Writer) *Session {
	return &Session{writer: w, byRef: make(map[Entity]*Entry)}
}

// Attach starts tracking an entity loaded from the store. When a row with the same
// type and key is already tracked the existing instance is returned instead.
func (s *Session) Attach(e Entity) Entity {
	if entry, ok := s.byRef[e]; ok {
		return entry.Entity
	}
	if existing := s.find(e.EntityType(), e.PrimaryKey()); existing != nil {
		return existing.Entity
	}
	s.track(e, Unchanged)
	return e
}

// Add schedules a new entity for insertion.
func (s *Session) Add(e Entity) error {
	if s.closed {
		return ErrSessionClosed
	}
	if entry, ok := s.byRef[e]; ok {
		if entry.State == Deleted {
			entry.State = Modified
		}
		return nil
	}
	s.track(e, Added)
	return nil
}

// Remove schedules a tracked entity for deletion. Removing an entity that was
// added in this session simply forgets it.
func (s *Session) Remove(e Entity) error {
	if s.closed {
		return ErrSessionClosed
	}
	entry, ok := s.byRef[e]
	if !ok {
		return fmt.Errorf("%w: %s %v", ErrNotTracked, e.EntityType(), e.PrimaryKey())
	}
	if entry.State == Added {
		s.Detach(e)
		return nil
	}
	entry.State = Deleted
	return nil
}

// Detach stops tracking an entity without touching the store.
func (s *Session) Detach(e Entity) {
	if _, ok := s.byRef[e]; !ok {
		return
	}
	delete(s.byRef, e)
	for i, entry := range s.entries {
		if entry.Entity == e {
			s.entries = append(s.entries[:i], s.entries[i+1:]...)
			return
		}
	}
}

// Entries returns every tracked entry after refreshing modification state.
func (s *Session) Entries() []*Entry {
	out := make([]*Entry, len(s.entries))
	for i, entry := range s.entries {
		entry.detectChanges()
		out[i] = entry
	}
	return out
}

// Local looks an entity up among the rows already loaded in this session. It never
// reaches the store; a nil entity means the row is not cached.
func (s *Session) Local(entityType string, key any) (Entity, error) {
	if s.closed {
		return nil, ErrSessionClosed
	}
	if entry := s.find(entityType, key); entry != nil {
		return entry.Entity, nil
	}
	return nil, nil
}

// Commit writes every pending entry through the Writer and accepts the changes.
// It returns the number of rows written.
func (s *Session) Commit(ctx context.Context) (int, error) {
	if s.closed {
		return 0, ErrSessionClosed
	}
	var pending []*Entry
	for _, entry := range s.Entries() {
		if entry.State != Unchanged {
			pending = append(pending, entry)
		}
	}
	if len(pending) == 0 {
		return 0, nil
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if err := s.writer.Apply(ctx, pending); err != nil {
		return 0, err
	}
	for _, entry := range pending {
		if entry.State == Deleted {
			s.Detach(entry.Entity)
			continue
		}
		entry.original = Values(entry.Entity)
		entry.State = Unchanged
	}
	return len(pending), nil
}

// Close drops all tracked state; the session cannot be used afterwards.
func (s *Session) Close() {
	s.closed = true
	s.entries = nil
	s.byRef = nil
}

func (s *Session) track(e Entity, state State) {
	entry := &Entry{Entity: e, State: state}
	if state == Unchanged {
		entry.original = Values(e)
	}
	s.entries = append(s.entries, entry)
	s.byRef[e] = entry
}

func (s *Session) find(entityType string, key any) *Entry {
	if isZeroKey(key) {
		return nil
	}
	for _, entry := range s.entries {
		if entry.Entity.EntityType() == entityType && keysEqual(entry.Entity.PrimaryKey(), key) {
			return entry
		}
	}
	return nil
}

func isZeroKey(key any) bool {
	switch k := key.(type) {
	case nil:
		return true
	case int64:
		return k == 0
	case int:
		return k == 0
	case string:
		return k == ""
	}
	return false
}

// keysEqual compares keys tolerating int vs int64 callers.
func keysEqual(a, b any) bool {
	if ai, ok := toInt64(a); ok {
		bi, ok := toInt64(b)
		return ok && ai == bi
	}
	return a == b
}

func toInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int64:
		return n, true
	case int:
		return int64(n), true
	case int32:
		return int64(n), true
	}
	return 0, false
}
