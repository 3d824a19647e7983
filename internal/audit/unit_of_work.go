// Package audit records every write made through a unit of work as immutable
// audit log rows: field-level diffs, criticality, a display label and the actor.
package audit

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/campus-assoc/backend/internal/events"
	"github.com/campus-assoc/backend/internal/models"
	"github.com/campus-assoc/backend/internal/tracking"
)

const userEntityType = "User"

// Tracker is the change-tracking view of a unit of work.
type Tracker interface {
	Cache
	Entries() []*tracking.Entry
	Add(e tracking.Entity) error
	Detach(e tracking.Entity)
	Commit(ctx context.Context) (int, error)
}

// UnitOfWork wraps a Tracker so that every commit also writes audit records.
//
// A UnitOfWork belongs to a single request or job and must not be shared between
// goroutines: the auditing switch is plain instance state.
type UnitOfWork struct {
	tracker   Tracker
	actor     ActorContext
	names     *NameResolver
	differ    *Differ
	metrics   *Metrics
	publisher events.Publisher
	stream    string
	log       *zap.Logger
	now       func() time.Time

	auditingDisabled bool
}

type Option func(*UnitOfWork)

func WithLogger(log *zap.Logger) Option {
	return func(u *UnitOfWork) { u.log = log }
}

func WithMetrics(m *Metrics) Option {
	return func(u *UnitOfWork) { u.metrics = m }
}

// WithPublisher forwards critical records to stream after they are persisted.
func WithPublisher(p events.Publisher, stream string) Option {
	return func(u *UnitOfWork) {
		u.publisher = p
		u.stream = stream
	}
}

func WithLargeBinaryBytes(n int) Option {
	return func(u *UnitOfWork) { u.differ.LargeBinaryBytes = n }
}

func WithClock(now func() time.Time) Option {
	return func(u *UnitOfWork) { u.now = now }
}

func NewUnitOfWork(t Tracker, opts ...Option) *UnitOfWork {
	u := &UnitOfWork{
		tracker: t,
		names:   NewNameResolver(t),
		differ:  NewDiffer(DefaultLargeBinaryBytes, nil),
		stream:  events.DefaultAuditStream,
		log:     zap.NewNop(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(u)
	}
	u.differ.Log = u.log
	if u.differ.LargeBinaryBytes <= 0 {
		u.differ.LargeBinaryBytes = DefaultLargeBinaryBytes
	}
	return u
}

// Actor is the fallback identity used when ctx carries no authenticated principal.
func (u *UnitOfWork) Actor() *ActorContext {
	return &u.actor
}

// AuditingDisabled reports whether the unit of work is inside its own audit pass.
func (u *UnitOfWork) AuditingDisabled() bool {
	return u.auditingDisabled
}

type draft struct {
	record *models.AuditLog
	source tracking.Entity // row whose generated id is filled in after commit
}

// SaveChanges commits all pending changes and then writes one audit record per
// changed row in a second commit. An error from the audit pass is returned but
// the first commit is not undone.
func (u *UnitOfWork) SaveChanges(ctx context.Context) (int, error) {
	if u.auditingDisabled {
		return u.tracker.Commit(ctx)
	}

	actorID, actorName := ResolveActor(ctx, &u.actor)
	entries := u.tracker.Entries()
	u.stamp(entries, actorID)

	drafts, err := u.collect(entries, actorID, actorName)
	if err != nil {
		return 0, err
	}

	n, err := u.tracker.Commit(ctx)
	if err != nil {
		return n, err
	}
	if len(drafts) == 0 {
		return n, nil
	}

	if err := u.emit(ctx, drafts); err != nil {
		u.metrics.failed()
		u.log.Error("audit write failed", zap.Int("records", len(drafts)), zap.Error(err))
		return n, fmt.Errorf("audit: write %d records: %w", len(drafts), err)
	}
	return n, nil
}

func (u *UnitOfWork) stamp(entries []*tracking.Entry, actorID *string) {
	now := u.now().UTC()
	for _, e := range entries {
		a, ok := e.Entity.(tracking.Audited)
		if !ok {
			continue
		}
		switch e.State {
		case tracking.Added:
			a.Stamp(true, now, actorID)
		case tracking.Modified:
			a.Stamp(false, now, actorID)
		}
	}
}

func (u *UnitOfWork) collect(entries []*tracking.Entry, actorID, actorName *string) ([]draft, error) {
	var drafts []draft
	for _, e := range entries {
		if e.State == tracking.Unchanged {
			continue
		}
		if e.Kind() == tracking.KindRelationship {
			rec, err := u.relationshipRecord(e)
			if err != nil {
				return nil, err
			}
			if rec != nil {
				rec.ActorID, rec.ActorName = actorID, actorName
				drafts = append(drafts, draft{record: rec})
			}
			continue
		}

		deltas := u.differ.Diff(e)
		if e.State == tracking.Modified && len(deltas) == 0 {
			continue
		}

		entityType := e.Entity.EntityType()
		rec := &models.AuditLog{
			Entity:      entityType,
			Action:      e.State.String(),
			ActorID:     actorID,
			ActorName:   actorName,
			IsCritical:  IsCritical(entityType, e.State),
			DisplayName: u.names.Resolve(e.Entity),
		}

		var extra []payloadField
		if entityType == userEntityType {
			label := u.names.UserLabel(fmt.Sprint(e.Entity.PrimaryKey()))
			if rec.DisplayName != nil {
				label = *rec.DisplayName
			}
			extra = append(extra, payloadField{key: keyTargetUser, value: label})
		}
		if e.State == tracking.Modified {
			if fields := CriticalFieldsModified(entityType, deltas); len(fields) > 0 {
				rec.IsCritical = true
				extra = append(extra, payloadField{key: keyCriticalFieldsModified, value: fields})
			}
		}

		payload, err := buildPayload(e.State, deltas, extra)
		if err != nil {
			return nil, fmt.Errorf("audit: encode %s changes: %w", entityType, err)
		}
		rec.Changes = payload

		d := draft{record: rec}
		if e.Kind() == tracking.KindNumeric {
			d.source = e.Entity
		}
		drafts = append(drafts, d)
	}
	return drafts, nil
}

// relationshipRecord turns a role grant or revocation into a record. Other join
// rows are not audited.
func (u *UnitOfWork) relationshipRecord(e *tracking.Entry) (*models.AuditLog, error) {
	ur, ok := e.Entity.(*models.UserRole)
	if !ok {
		return nil, nil
	}
	var action string
	switch e.State {
	case tracking.Added:
		action = models.AuditRoleAdded
	case tracking.Deleted:
		action = models.AuditRoleRemoved
	default:
		return nil, nil
	}

	user := u.names.UserLabel(ur.UserID)
	role := u.names.RoleLabel(ur.RoleID)
	payload, err := encodeString(fmt.Sprintf("User: %s, Role: %s", user, role))
	if err != nil {
		return nil, err
	}
	return &models.AuditLog{
		Entity:      ur.EntityType(),
		Action:      action,
		Changes:     payload,
		IsCritical:  true,
		DisplayName: &user,
	}, nil
}

// emit persists the drafts with auditing switched off so the audit rows are not
// audited themselves. The switch is restored even if the commit fails or panics.
func (u *UnitOfWork) emit(ctx context.Context, drafts []draft) error {
	u.auditingDisabled = true
	defer func() { u.auditingDisabled = false }()

	now := u.now().UTC()
	records := make([]*models.AuditLog, 0, len(drafts))
	defer func() {
		for _, r := range records {
			u.tracker.Detach(r)
		}
	}()

	for _, d := range drafts {
		rec := d.record
		rec.Timestamp = now
		if d.source != nil {
			if id, ok := d.source.PrimaryKey().(int64); ok && id != 0 {
				rec.EntityID = &id
			}
		}
		if err := u.tracker.Add(rec); err != nil {
			return err
		}
		records = append(records, rec)
	}

	if _, err := u.SaveChanges(ctx); err != nil {
		return err
	}

	u.metrics.recorded(records)
	u.publish(ctx, records)
	return nil
}

func (u *UnitOfWork) publish(ctx context.Context, records []*models.AuditLog) {
	if u.publisher == nil {
		return
	}
	for _, r := range records {
		if !r.IsCritical {
			continue
		}
		typ := events.EventAuditCritical
		if r.Entity == "UserRole" {
			typ = events.EventRoleChanged
		}
		payload := map[string]any{
			"audit_id":    r.ID,
			"entity_type": r.Entity,
			"action":      r.Action,
			"timestamp":   r.Timestamp,
		}
		if r.EntityID != nil {
			payload["entity_id"] = *r.EntityID
		}
		if r.DisplayName != nil {
			payload["display_name"] = *r.DisplayName
		}
		if r.ActorName != nil {
			payload["actor_name"] = *r.ActorName
		}
		if err := u.publisher.Publish(ctx, u.stream, events.Event{Type: typ, Payload: payload}); err != nil {
			u.log.Warn("publish audit event failed", zap.Int64("audit_id", r.ID), zap.Error(err))
		}
	}
}
