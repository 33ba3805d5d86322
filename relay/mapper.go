package relay

import (
	"github.com/guregu/null/v6"

	"github.com/next-trace/scg-user-event-relay/contract/event"
)

// Map builds the outbound message for an event Classify accepted with op.
// It performs no I/O and returns the same Message for the same inputs.
func Map(raw event.RawEvent, op event.Operation) event.Message {
	switch e := raw.(type) {
	case *event.UserEvent:
		if e == nil {
			return event.Message{}
		}

		msg := event.Message{
			SourceKind: event.SourceUserEvent,
			Operation:  op,
			SubjectID:  e.UserID,
		}

		if op == event.OperationUpdate {
			msg.UpdatedFields = updatedFields(e.Details)
		}

		return msg
	case *event.AdminEvent:
		if e == nil {
			return event.Message{}
		}

		return event.Message{
			SourceKind: event.SourceAdminEvent,
			Operation:  op,
			SubjectID:  e.ResourceID,
		}
	default:
		return event.Message{}
	}
}

func updatedFields(details map[string]string) *event.UpdatedFields {
	return &event.UpdatedFields{
		FirstName: detail(details, event.DetailUpdatedFirstName),
		LastName:  detail(details, event.DetailUpdatedLastName),
		Email:     detail(details, event.DetailUpdatedEmail),
	}
}

// detail is null when the key is missing; a present empty value stays "".
func detail(details map[string]string, key string) null.String {
	v, ok := details[key]

	return null.NewString(v, ok)
}
