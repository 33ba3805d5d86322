package relay

import "github.com/next-trace/scg-user-event-relay/contract/event"

var userOperations = map[event.EventType]event.Operation{
	event.TypeRegister:      event.OperationCreate,
	event.TypeUpdateProfile: event.OperationUpdate,
	event.TypeUpdateEmail:   event.OperationUpdate,
	event.TypeDeleteAccount: event.OperationDelete,
}

var adminOperations = map[event.OperationType]event.Operation{
	event.OpCreate: event.OperationCreate,
	event.OpUpdate: event.OperationUpdate,
	event.OpDelete: event.OperationDelete,
}

// Classify reports whether raw is relayed and which canonical operation it represents.
// Nil events and tags outside the lookup tables are out of scope, which is not an error.
func Classify(raw event.RawEvent) (event.Operation, bool) {
	switch e := raw.(type) {
	case *event.UserEvent:
		if e == nil {
			return "", false
		}

		op, ok := userOperations[e.Type]

		return op, ok
	case *event.AdminEvent:
		if e == nil || e.ResourceType != event.ResourceUser {
			return "", false
		}

		op, ok := adminOperations[e.OperationType]

		return op, ok
	default:
		return "", false
	}
}
