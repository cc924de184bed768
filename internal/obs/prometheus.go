package obs

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"main/internal/schema"
)

// PromSink exports stage events and signing operations as Prometheus
// metrics. Labels carry only stage, outcome and reason codes; payload
// contents never reach the registry.
type PromSink struct {
	stageTotal   *prometheus.CounterVec
	rejectTotal  *prometheus.CounterVec
	stageLatency *prometheus.HistogramVec
	signTotal    *prometheus.CounterVec
	signLatency  *prometheus.HistogramVec
}

var _ Sink = (*PromSink)(nil)

// NewPromSink registers the collectors on the default registerer.
func NewPromSink() *PromSink {
	return &PromSink{
		stageTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "exec_stage_total",
				Help: "Submission pipeline stage events by outcome",
			},
			[]string{"stage", "outcome"},
		),
		rejectTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "exec_reject_total",
				Help: "Pre-trade rejections by reason",
			},
			[]string{"reason"},
		),
		stageLatency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "exec_stage_duration_seconds",
				Help:    "Stage latency in seconds",
				Buckets: prometheus.ExponentialBuckets(1e-6, 4, 12),
			},
			[]string{"stage"},
		),
		signTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "signing_ops_total",
				Help: "Signing service operations by outcome",
			},
			[]string{"op", "outcome"},
		),
		signLatency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "signing_op_duration_seconds",
				Help:    "Signing operation latency in seconds",
				Buckets: prometheus.ExponentialBuckets(1e-7, 4, 10),
			},
			[]string{"op"},
		),
	}
}

// Emit records one stage event.
func (p *PromSink) Emit(event schema.StageEvent) {
	if p == nil {
		return
	}
	stage := event.Stage.String()
	p.stageTotal.WithLabelValues(stage, event.Outcome.String()).Inc()
	if event.Reason != schema.RejectReasonNone {
		p.rejectTotal.WithLabelValues(event.Reason.String()).Inc()
	}
	if event.LatencyNs > 0 {
		p.stageLatency.WithLabelValues(stage).Observe(time.Duration(event.LatencyNs).Seconds())
	}
}

// ObserveSignOp records one signing operation.
func (p *PromSink) ObserveSignOp(op SignOp, outcome schema.Outcome, d time.Duration) {
	if p == nil {
		return
	}
	p.signTotal.WithLabelValues(signOpLabel(op), outcome.String()).Inc()
	p.signLatency.WithLabelValues(signOpLabel(op)).Observe(d.Seconds())
}

func signOpLabel(op SignOp) string {
	switch op {
	case SignOpKeygen:
		return "keygen"
	case SignOpSign:
		return "sign"
	case SignOpVerify:
		return "verify"
	default:
		return "unknown"
	}
}
