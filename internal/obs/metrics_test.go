package obs

import (
	"sync"
	"testing"
	"time"

	"main/internal/schema"
)

func TestMetricsCountsStageEvents(t *testing.T) {
	m := NewMetrics()

	m.Emit(schema.NewStageEvent(schema.StageReceived, schema.OutcomePass, 1, 0))
	m.Emit(schema.NewStageEvent(schema.StageReceived, schema.OutcomePass, 2, 0))

	reject := schema.NewStageEvent(schema.StageChecked, schema.OutcomeReject, 2, 0)
	reject.Reason = schema.RejectReasonEmptyPayload
	m.Emit(reject)

	snap := m.Snapshot()
	if got := snap.StageCounts[schema.StageReceived][schema.OutcomePass]; got != 2 {
		t.Fatalf("received count = %d, want 2", got)
	}
	if got := snap.StageCounts[schema.StageChecked][schema.OutcomeReject]; got != 1 {
		t.Fatalf("checked reject count = %d, want 1", got)
	}
	if got := snap.ReasonCounts[schema.RejectReasonEmptyPayload]; got != 1 {
		t.Fatalf("reason count = %d, want 1", got)
	}
}

func TestMetricsLatencyTracking(t *testing.T) {
	m := NewMetrics()

	for _, latency := range []time.Duration{time.Millisecond, 3 * time.Millisecond, 2 * time.Millisecond} {
		event := schema.NewStageEvent(schema.StageAcknowledged, schema.OutcomeAccept, 1, 1)
		event.LatencyNs = latency.Nanoseconds()
		m.Emit(event)
	}

	lat := m.Snapshot().SubmitLatency
	if lat.Count != 3 {
		t.Fatalf("latency count = %d, want 3", lat.Count)
	}
	if lat.Min != time.Millisecond || lat.Max != 3*time.Millisecond {
		t.Fatalf("min/max = %v/%v", lat.Min, lat.Max)
	}
	if lat.Avg != 2*time.Millisecond {
		t.Fatalf("avg = %v, want 2ms", lat.Avg)
	}
}

func TestMetricsSignOps(t *testing.T) {
	m := NewMetrics()

	m.ObserveSignOp(SignOpKeygen, schema.OutcomePass, time.Microsecond)
	m.ObserveSignOp(SignOpVerify, schema.OutcomeReject, time.Microsecond)
	m.IncRetry()
	m.IncRetry()

	if got := m.Snapshot().Retries; got != 2 {
		t.Fatalf("retries = %d, want 2", got)
	}
}

func TestMetricsConcurrentEmit(t *testing.T) {
	m := NewMetrics()

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 1000 {
				m.Emit(schema.NewStageEvent(schema.StageSubmitted, schema.OutcomePass, 1, 1))
			}
		}()
	}
	wg.Wait()

	if got := m.Snapshot().StageCounts[schema.StageSubmitted][schema.OutcomePass]; got != 8000 {
		t.Fatalf("concurrent count = %d, want 8000", got)
	}
}

func TestMetricsNilSafe(t *testing.T) {
	var m *Metrics
	m.Emit(schema.NewStageEvent(schema.StageReceived, schema.OutcomePass, 1, 0))
	m.IncRetry()
	m.ObserveSignOp(SignOpSign, schema.OutcomePass, time.Millisecond)
	if snap := m.Snapshot(); snap.Retries != 0 {
		t.Fatal("nil metrics should snapshot empty")
	}
}

func TestFanout(t *testing.T) {
	first := NewMetrics()
	second := NewMetrics()
	fanout := Fanout{first, nil, second}

	fanout.Emit(schema.NewStageEvent(schema.StageReceived, schema.OutcomePass, 1, 0))

	if first.Snapshot().StageCounts[schema.StageReceived][schema.OutcomePass] != 1 {
		t.Fatal("first sink missed the event")
	}
	if second.Snapshot().StageCounts[schema.StageReceived][schema.OutcomePass] != 1 {
		t.Fatal("second sink missed the event")
	}
}

func TestTraceGeneratorUnique(t *testing.T) {
	gen := NewTraceGenerator(100)

	seen := make(map[uint64]bool)
	var mu sync.Mutex
	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 100 {
				id := gen.Next()
				mu.Lock()
				if seen[id] {
					t.Errorf("duplicate trace id %d", id)
				}
				seen[id] = true
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
}
