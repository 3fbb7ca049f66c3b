package app

import "log"

// Recorder collects transfer outcome counters tagged by the participants and,
// for failures, the reason. Implementations must be side-effect free with
// respect to the saga: recording never influences the transfer result.
type Recorder interface {
	RecordSuccess(fromParty, toParty string)
	RecordFailure(fromParty, toParty, reason string)
}

// LogRecorder emits outcome counters as structured log lines. It is the
// default recorder; a metrics backend can replace it without touching the
// saga.
type LogRecorder struct{}

func (LogRecorder) RecordSuccess(fromParty, toParty string) {
	log.Printf("level=info component=metrics metric=transfer_total outcome=success from=%s to=%s", fromParty, toParty)
}

func (LogRecorder) RecordFailure(fromParty, toParty, reason string) {
	log.Printf("level=info component=metrics metric=transfer_total outcome=failure reason=%s from=%s to=%s", reason, fromParty, toParty)
}

// NoopRecorder discards all measurements.
type NoopRecorder struct{}

func (NoopRecorder) RecordSuccess(string, string)         {}
func (NoopRecorder) RecordFailure(string, string, string) {}
