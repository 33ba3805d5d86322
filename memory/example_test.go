package memory_test

import (
	"context"
	"fmt"

	"github.com/next-trace/scg-user-event-relay/contract/event"
	"github.com/next-trace/scg-user-event-relay/memory"
)

func Example() {
	ctx := context.Background()
	d, ad := memory.New(nil)

	d.OnUserEvent(ctx, &event.UserEvent{Type: event.TypeRegister, UserID: "u-1"})
	d.OnUserEvent(ctx, &event.UserEvent{Type: event.TypeLogin, UserID: "u-1"})
	d.OnUserEvent(ctx, &event.UserEvent{
		Type:    event.TypeUpdateProfile,
		UserID:  "u-1",
		Details: map[string]string{event.DetailUpdatedLastName: "Doe"},
	})
	d.OnAdminEvent(ctx, &event.AdminEvent{
		OperationType: event.OpDelete,
		ResourceType:  event.ResourceUser,
		ResourceID:    "u-1",
	}, false)

	for _, r := range ad.Records() {
		fmt.Println(r.Subject, string(r.Data))
	}

	// Output:
	// USER_EVENT.u-1 {"sourceKind":"USER_EVENT","operation":"CREATE","subjectId":"u-1"}
	// USER_EVENT.u-1 {"sourceKind":"USER_EVENT","operation":"UPDATE","subjectId":"u-1","updatedFields":{"firstName":null,"lastName":"Doe","email":null}}
	// USER_EVENT.u-1 {"sourceKind":"ADMIN_EVENT","operation":"DELETE","subjectId":"u-1"}
}
