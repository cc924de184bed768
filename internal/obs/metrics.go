package obs

import (
	"sync/atomic"
	"time"

	"main/internal/schema"
)

const (
	maxStage   = int(schema.StageAcknowledged)
	maxOutcome = int(schema.OutcomeError)
	maxReason  = int(schema.RejectReasonBadSignature)
)

// SignOp identifies a signing service operation.
type SignOp uint16

const (
	SignOpKeygen SignOp = iota
	SignOpSign
	SignOpVerify
	signOpCount
)

// Metrics collects lightweight counters and latency stats. All updates are
// atomic; it is safe to share one instance across the whole process.
type Metrics struct {
	stageCounts  [maxStage + 1][maxOutcome + 1]uint64
	reasonCounts [maxReason + 1]uint64
	signCounts   [signOpCount][maxOutcome + 1]uint64
	retryCount   uint64

	preTradeLatency LatencyStats
	submitLatency   LatencyStats
	signLatency     [signOpCount]LatencyStats
}

// LatencyStats aggregates duration samples in nanoseconds.
type LatencyStats struct {
	count uint64
	sum   uint64
	min   uint64
	max   uint64
}

// LatencySnapshot is a point-in-time view of latency stats.
type LatencySnapshot struct {
	Count uint64
	Min   time.Duration
	Max   time.Duration
	Avg   time.Duration
}

// Snapshot captures the current metrics values.
type Snapshot struct {
	StageCounts     map[schema.Stage]map[schema.Outcome]uint64
	ReasonCounts    map[schema.RejectReason]uint64
	Retries         uint64
	PreTradeLatency LatencySnapshot
	SubmitLatency   LatencySnapshot
}

// NewMetrics allocates a metrics container.
func NewMetrics() *Metrics {
	return &Metrics{}
}

var _ Sink = (*Metrics)(nil)

// Emit counts one stage event and tracks its latency.
func (m *Metrics) Emit(event schema.StageEvent) {
	if m == nil {
		return
	}
	stage := int(event.Stage)
	outcome := int(event.Outcome)
	if stage >= 0 && stage < len(m.stageCounts) && outcome >= 0 && outcome < len(m.stageCounts[stage]) {
		atomic.AddUint64(&m.stageCounts[stage][outcome], 1)
	}
	if reason := int(event.Reason); reason > 0 && reason < len(m.reasonCounts) {
		atomic.AddUint64(&m.reasonCounts[reason], 1)
	}
	if event.LatencyNs > 0 {
		switch event.Stage {
		case schema.StageChecked:
			m.preTradeLatency.Observe(time.Duration(event.LatencyNs))
		case schema.StageAcknowledged:
			m.submitLatency.Observe(time.Duration(event.LatencyNs))
		}
	}
}

// ObserveSignOp counts one signing operation with its latency.
func (m *Metrics) ObserveSignOp(op SignOp, outcome schema.Outcome, d time.Duration) {
	if m == nil || int(op) >= int(signOpCount) {
		return
	}
	if idx := int(outcome); idx >= 0 && idx < len(m.signCounts[op]) {
		atomic.AddUint64(&m.signCounts[op][idx], 1)
	}
	m.signLatency[op].Observe(d)
}

// IncRetry records one submission retry attempt.
func (m *Metrics) IncRetry() {
	if m == nil {
		return
	}
	atomic.AddUint64(&m.retryCount, 1)
}

// Snapshot returns a copy of the current metrics values.
func (m *Metrics) Snapshot() Snapshot {
	if m == nil {
		return Snapshot{}
	}
	stageCounts := make(map[schema.Stage]map[schema.Outcome]uint64)
	for i := range m.stageCounts {
		for j := range m.stageCounts[i] {
			if v := atomic.LoadUint64(&m.stageCounts[i][j]); v > 0 {
				stage := schema.Stage(i)
				if stageCounts[stage] == nil {
					stageCounts[stage] = make(map[schema.Outcome]uint64)
				}
				stageCounts[stage][schema.Outcome(j)] = v
			}
		}
	}
	reasonCounts := make(map[schema.RejectReason]uint64)
	for i := range m.reasonCounts {
		if v := atomic.LoadUint64(&m.reasonCounts[i]); v > 0 {
			reasonCounts[schema.RejectReason(i)] = v
		}
	}
	return Snapshot{
		StageCounts:     stageCounts,
		ReasonCounts:    reasonCounts,
		Retries:         atomic.LoadUint64(&m.retryCount),
		PreTradeLatency: m.preTradeLatency.Snapshot(),
		SubmitLatency:   m.submitLatency.Snapshot(),
	}
}

// Observe records a duration sample.
func (l *LatencyStats) Observe(d time.Duration) {
	if d < 0 {
		return
	}
	nanos := uint64(d)
	atomic.AddUint64(&l.count, 1)
	atomic.AddUint64(&l.sum, nanos)

	for {
		min := atomic.LoadUint64(&l.min)
		if min != 0 && nanos >= min {
			break
		}
		if atomic.CompareAndSwapUint64(&l.min, min, nanos) {
			break
		}
	}

	for {
		max := atomic.LoadUint64(&l.max)
		if nanos <= max {
			break
		}
		if atomic.CompareAndSwapUint64(&l.max, max, nanos) {
			break
		}
	}
}

// Snapshot returns the aggregated latency stats.
func (l *LatencyStats) Snapshot() LatencySnapshot {
	count := atomic.LoadUint64(&l.count)
	if count == 0 {
		return LatencySnapshot{}
	}
	sum := atomic.LoadUint64(&l.sum)
	min := atomic.LoadUint64(&l.min)
	max := atomic.LoadUint64(&l.max)
	return LatencySnapshot{
		Count: count,
		Min:   time.Duration(min),
		Max:   time.Duration(max),
		Avg:   time.Duration(sum / count),
	}
}
