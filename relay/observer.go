package relay

import "github.com/next-trace/scg-user-event-relay/contract/event"

// Outcome is the terminal result of one Publish call.
type Outcome string

const (
	OutcomePublished           Outcome = "published"
	OutcomeSunk                Outcome = "sunk"
	OutcomeSerializationFailed Outcome = "serialization_failed"
	OutcomeCancelled           Outcome = "cancelled"
)

// Observer receives pipeline counters. Implementations must be safe for concurrent use.
type Observer interface {
	EventReceived(source event.SourceKind)
	EventDropped(source event.SourceKind)
	AttemptFinished(ok bool)
	PublishFinished(outcome Outcome)
}

type nopObserver struct{}

func (nopObserver) EventReceived(event.SourceKind) {}
func (nopObserver) EventDropped(event.SourceKind)  {}
func (nopObserver) AttemptFinished(bool)           {}
func (nopObserver) PublishFinished(Outcome)        {}
