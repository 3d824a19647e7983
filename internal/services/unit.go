package services

import (
	"context"

	"go.uber.org/zap"

	"github.com/campus-assoc/backend/internal/audit"
	"github.com/campus-assoc/backend/internal/events"
	"github.com/campus-assoc/backend/internal/tracking"
)

// Units opens audited units of work. Every service write goes through one.
type Units struct {
	writer           tracking.Writer
	metrics          *audit.Metrics
	publisher        events.Publisher
	stream           string
	largeBinaryBytes int
	log              *zap.Logger
}

type UnitsOption func(*Units)

// WithAuditPublisher forwards critical audit records to stream.
func WithAuditPublisher(p events.Publisher, stream string) UnitsOption {
	return func(u *Units) {
		u.publisher = p
		u.stream = stream
	}
}

func WithAuditMetrics(m *audit.Metrics) UnitsOption {
	return func(u *Units) { u.metrics = m }
}

func WithLargeBinaryBytes(n int) UnitsOption {
	return func(u *Units) { u.largeBinaryBytes = n }
}

func NewUnits(w tracking.Writer, log *zap.Logger, opts ...UnitsOption) *Units {
	u := &Units{writer: w, stream: events.DefaultAuditStream, log: log}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

// Unit is one session plus the audited unit of work wrapping it.
type Unit struct {
	*tracking.Session
	Work *audit.UnitOfWork
}

func (us *Units) Begin() *Unit {
	s := tracking.NewSession(us.writer)
	opts := []audit.Option{
		audit.WithLogger(us.log),
		audit.WithMetrics(us.metrics),
		audit.WithLargeBinaryBytes(us.largeBinaryBytes),
	}
	if us.publisher != nil {
		opts = append(opts, audit.WithPublisher(us.publisher, us.stream))
	}
	return &Unit{Session: s, Work: audit.NewUnitOfWork(s, opts...)}
}

// removeAll schedules tracked rows for deletion in order.
func removeAll[E tracking.Entity](u *Unit, rows ...E) error {
	for _, r := range rows {
		if err := u.Remove(r); err != nil {
			return err
		}
	}
	return nil
}

func (u *Unit) Save(ctx context.Context) error {
	_, err := u.Work.SaveChanges(ctx)
	return err
}
