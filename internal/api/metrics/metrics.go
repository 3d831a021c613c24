// Package metrics defines and registers all custom Prometheus metrics for the
// driveway paving API. It is the single source of truth for metric names,
// labels, and help strings.
//
// Metrics are registered with the default Prometheus registry on package
// initialisation via promauto and exposed by the /metrics route.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "paving"

// ── Workflow metrics ──────────────────────────────────────────────────────────

// WorkflowTransitionsTotal counts committed state changes.
// Labels:
//   - entity: "quote", "order" or "bill"
//   - status: the status the entity moved to (e.g. "agreed")
var WorkflowTransitionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "workflow_transitions_total",
		Help:      "Total number of committed quote, order and bill state changes.",
	},
	[]string{"entity", "status"},
)

// WorkflowErrorsTotal counts workflow operations that failed.
// Labels:
//   - operation: engine operation name (e.g. "pay_bill")
//   - reason: "validation", "forbidden", "not_found", "conflict" or "internal"
var WorkflowErrorsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "workflow_errors_total",
		Help:      "Total number of workflow operations that failed, by reason.",
	},
	[]string{"operation", "reason"},
)

// QuotesSubmittedTotal counts quote submissions.
// Label:
//   - result: "created" or "replayed" (idempotency key hit)
var QuotesSubmittedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "quotes_submitted_total",
		Help:      "Total number of quote submissions, by result.",
	},
	[]string{"result"},
)

// AttachmentsStoredTotal counts photos written to the attachment store.
var AttachmentsStoredTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "attachments_stored_total",
		Help:      "Total number of quote attachments written to the attachment store.",
	},
)

// AttachmentsOrphanedTotal counts blobs that could not be removed after a
// failed quote submission.
var AttachmentsOrphanedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "attachments_orphaned_total",
		Help:      "Total number of stored attachments left behind by a failed submission.",
	},
)

// ── Audit metrics ─────────────────────────────────────────────────────────────

// AuditEventsRecordedTotal counts audit writes.
// Label:
//   - result: "ok", "error" or "dropped" (queue full)
var AuditEventsRecordedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "audit_events_total",
		Help:      "Total number of workflow audit events, by result.",
	},
	[]string{"result"},
)

// AuditQueueDepth tracks the current number of events waiting in each worker channel.
// Label:
//   - worker_id: numeric worker index (e.g. "0", "1", …)
var AuditQueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "audit_queue_depth",
		Help:      "Current number of events pending in each audit dispatcher worker channel.",
	},
	[]string{"worker_id"},
)

// AuditRecordDuration measures how long a single audit write takes.
var AuditRecordDuration = promauto.NewHistogram(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "audit_record_duration_seconds",
		Help:      "Duration of a workflow audit write from dequeue to persistence.",
		Buckets:   prometheus.DefBuckets,
	},
)

// ── Auth metrics ──────────────────────────────────────────────────────────────

// LoginAttemptsTotal counts login attempts.
// Label:
//   - result: "success" or "failure"
var LoginAttemptsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "login_attempts_total",
		Help:      "Total number of login attempts, by result.",
	},
	[]string{"result"},
)
