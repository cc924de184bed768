package obs

import "main/internal/schema"

// Sink receives stage events, fire and forget. Implementations must not
// block the submission path.
type Sink interface {
	Emit(event schema.StageEvent)
}

// Fanout forwards each event to every sink.
type Fanout []Sink

// Emit sends the event to all sinks.
func (f Fanout) Emit(event schema.StageEvent) {
	for _, sink := range f {
		if sink != nil {
			sink.Emit(event)
		}
	}
}
