package export

import "log"

// EventKind classifies resolution diagnostics.
type EventKind string

const (
	EventAmbiguousCollection EventKind = "ambiguous-collection"
	EventMissingMode         EventKind = "missing-mode"
	EventCycle               EventKind = "cycle"
	EventDanglingAlias       EventKind = "dangling-alias"
	EventBadHex              EventKind = "bad-hex"
	EventUnrecognized        EventKind = "unrecognized-value"
	EventDropped             EventKind = "variable-dropped"
)

// Event is one diagnostic emitted while an export runs. Per-variable
// failures are events, not errors: the variable is dropped and the run
// continues.
type Event struct {
	Kind     EventKind
	Variable string
	ModeID   string
	Detail   string
}

// Sink receives resolution diagnostics. A nil Sink silences them, which
// keeps the engine a pure function of its inputs in tests.
type Sink interface {
	Emit(Event)
}

// LogSink writes events to the standard logger.
type LogSink struct{}

// Emit implements Sink.
func (LogSink) Emit(e Event) {
	if e.Variable != "" {
		log.Printf("[export] %s: %s (mode=%s) %s", e.Kind, e.Variable, e.ModeID, e.Detail)
		return
	}
	log.Printf("[export] %s: %s", e.Kind, e.Detail)
}

func emit(sink Sink, e Event) {
	if sink != nil {
		sink.Emit(e)
	}
}
