package audit

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/campus-assoc/backend/internal/models"
)

// Metrics holds the Prometheus counters of the audit pipeline. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	RecordsWritten  *prometheus.CounterVec
	CriticalRecords prometheus.Counter
	WriteFailures   prometheus.Counter
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		RecordsWritten: f.NewCounterVec(prometheus.CounterOpts{
			Name: "assoc_audit_records_written_total",
			Help: "Audit records persisted, by action",
		}, []string{"action"}),
		CriticalRecords: f.NewCounter(prometheus.CounterOpts{
			Name: "assoc_audit_critical_records_total",
			Help: "Audit records flagged as critical",
		}),
		WriteFailures: f.NewCounter(prometheus.CounterOpts{
			Name: "assoc_audit_write_failures_total",
			Help: "Audit write passes that failed after the primary write committed",
		}),
	}
}

func (m *Metrics) recorded(records []*models.AuditLog) {
	if m == nil {
		return
	}
	for _, r := range records {
		m.RecordsWritten.WithLabelValues(r.Action).Inc()
		if r.IsCritical {
			m.CriticalRecords.Inc()
		}
	}
}

func (m *Metrics) failed() {
	if m == nil {
		return
	}
	m.WriteFailures.Inc()
}
