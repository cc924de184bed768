package schema

// SchemaVersion is the current wire schema version.
const SchemaVersion uint16 = 1

// Stage identifies a step in the submission pipeline.
type Stage uint16

const (
	StageUnknown Stage = iota
	StageReceived
	StageChecked
	StageSubmitted
	StageAcknowledged
)

// String returns the telemetry label for the stage.
func (s Stage) String() string {
	switch s {
	case StageReceived:
		return "received"
	case StageChecked:
		return "checked"
	case StageSubmitted:
		return "submitted"
	case StageAcknowledged:
		return "acknowledged"
	default:
		return "unknown"
	}
}

// Outcome is the coarse result attached to a stage event.
type Outcome uint16

const (
	OutcomeUnknown Outcome = iota
	OutcomePass
	OutcomeReject
	OutcomeAccept
	OutcomeTimeout
	OutcomeCancel
	OutcomeError
)

// String returns the telemetry label for the outcome.
func (o Outcome) String() string {
	switch o {
	case OutcomePass:
		return "pass"
	case OutcomeReject:
		return "reject"
	case OutcomeAccept:
		return "accept"
	case OutcomeTimeout:
		return "timeout"
	case OutcomeCancel:
		return "cancel"
	case OutcomeError:
		return "error"
	default:
		return "unknown"
	}
}

// StageEvent is the telemetry record emitted once per pipeline stage.
// It never carries payload bytes or key material.
type StageEvent struct {
	Stage     Stage
	Version   uint16
	Outcome   Outcome
	Reason    RejectReason
	TraceID   uint64
	OrderID   uint64
	LatencyNs int64
}

// NewStageEvent builds a stage event with the current schema version.
func NewStageEvent(stage Stage, outcome Outcome, traceID, orderID uint64) StageEvent {
	return StageEvent{
		Stage:   stage,
		Version: SchemaVersion,
		Outcome: outcome,
		TraceID: traceID,
		OrderID: orderID,
	}
}
