package relay_test

import (
	"encoding/json"
	"testing"

	"github.com/guregu/null/v6"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/next-trace/scg-user-event-relay/contract/event"
	"github.com/next-trace/scg-user-event-relay/relay"
)

func TestMap_RegisterHasNoUpdatedFields(t *testing.T) {
	msg := relay.Map(&event.UserEvent{Type: event.TypeRegister, UserID: "u1"}, event.OperationCreate)

	assert.Equal(t, event.Message{
		SourceKind: event.SourceUserEvent,
		Operation:  event.OperationCreate,
		SubjectID:  "u1",
	}, msg)
}

func TestMap_DeleteIgnoresDetails(t *testing.T) {
	raw := &event.UserEvent{
		Type:    event.TypeDeleteAccount,
		UserID:  "u2",
		Details: map[string]string{event.DetailUpdatedEmail: "x@y.z"},
	}

	msg := relay.Map(raw, event.OperationDelete)
	assert.Nil(t, msg.UpdatedFields)
}

func TestMap_UpdateWithOnlyEmail(t *testing.T) {
	raw := &event.UserEvent{
		Type:    event.TypeUpdateEmail,
		UserID:  "u3",
		Details: map[string]string{event.DetailUpdatedEmail: "new@example.com", "previous_email": "old@example.com"},
	}

	msg := relay.Map(raw, event.OperationUpdate)
	require.NotNil(t, msg.UpdatedFields)
	assert.Equal(t, event.UpdatedFields{Email: null.StringFrom("new@example.com")}, *msg.UpdatedFields)

	b, err := json.Marshal(msg)
	require.NoError(t, err)
	assert.JSONEq(t,
		`{"sourceKind":"USER_EVENT","operation":"UPDATE","subjectId":"u3",
		  "updatedFields":{"firstName":null,"lastName":null,"email":"new@example.com"}}`,
		string(b))
}

func TestMap_UpdateKeepsEmptyStringsDistinct(t *testing.T) {
	raw := &event.UserEvent{
		Type:   event.TypeUpdateProfile,
		UserID: "u4",
		Details: map[string]string{
			event.DetailUpdatedFirstName: "",
			event.DetailUpdatedLastName:  "Lovelace",
		},
	}

	msg := relay.Map(raw, event.OperationUpdate)
	require.NotNil(t, msg.UpdatedFields)
	assert.True(t, msg.UpdatedFields.FirstName.Valid)
	assert.Equal(t, "", msg.UpdatedFields.FirstName.String)
	assert.Equal(t, null.StringFrom("Lovelace"), msg.UpdatedFields.LastName)
	assert.False(t, msg.UpdatedFields.Email.Valid)
}

func TestMap_UpdateWithNilDetails(t *testing.T) {
	msg := relay.Map(&event.UserEvent{Type: event.TypeUpdateProfile, UserID: "u5"}, event.OperationUpdate)

	require.NotNil(t, msg.UpdatedFields)
	assert.Equal(t, event.UpdatedFields{}, *msg.UpdatedFields)
}

func TestMap_AdminNeverHasUpdatedFields(t *testing.T) {
	for _, op := range []event.Operation{event.OperationCreate, event.OperationUpdate, event.OperationDelete} {
		raw := &event.AdminEvent{
			OperationType: event.OperationType(op),
			ResourceType:  event.ResourceUser,
			ResourceID:    "r9",
			Details:       map[string]string{event.DetailUpdatedEmail: "ignored@example.com"},
		}

		msg := relay.Map(raw, op)
		assert.Equal(t, event.SourceAdminEvent, msg.SourceKind)
		assert.Equal(t, op, msg.Operation)
		assert.Equal(t, "r9", msg.SubjectID)
		assert.Nil(t, msg.UpdatedFields)
	}
}

func TestMap_IsDeterministic(t *testing.T) {
	raw := &event.UserEvent{
		Type:   event.TypeUpdateProfile,
		UserID: "u6",
		Details: map[string]string{
			event.DetailUpdatedFirstName: "Ada",
			event.DetailUpdatedLastName:  "Lovelace",
			event.DetailUpdatedEmail:     "ada@example.com",
		},
	}

	first, err := json.Marshal(relay.Map(raw, event.OperationUpdate))
	require.NoError(t, err)

	for range 20 {
		again, err := json.Marshal(relay.Map(raw, event.OperationUpdate))
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}
