package event

import (
	"log/slog"
	"time"
)

// EventType tags a self-service event emitted by the identity provider.
type EventType string

// Self-service event types. Only the first four are relayed; the rest are listed
// because the provider emits them on the same callback.
const (
	TypeRegister       EventType = "REGISTER"
	TypeUpdateProfile  EventType = "UPDATE_PROFILE"
	TypeUpdateEmail    EventType = "UPDATE_EMAIL"
	TypeDeleteAccount  EventType = "DELETE_ACCOUNT"
	TypeLogin          EventType = "LOGIN"
	TypeLoginError     EventType = "LOGIN_ERROR"
	TypeLogout         EventType = "LOGOUT"
	TypeUpdatePassword EventType = "UPDATE_PASSWORD"
	TypeVerifyEmail    EventType = "VERIFY_EMAIL"
	TypeCodeToToken    EventType = "CODE_TO_TOKEN"
)

// OperationType tags an administrative operation.
type OperationType string

const (
	OpCreate OperationType = "CREATE"
	OpUpdate OperationType = "UPDATE"
	OpDelete OperationType = "DELETE"
	OpAction OperationType = "ACTION"
)

// ResourceType tags the resource an administrative operation acted upon.
type ResourceType string

const (
	ResourceUser            ResourceType = "USER"
	ResourceClient          ResourceType = "CLIENT"
	ResourceRealm           ResourceType = "REALM"
	ResourceGroup           ResourceType = "GROUP"
	ResourceRealmRole       ResourceType = "REALM_ROLE"
	ResourceGroupMembership ResourceType = "GROUP_MEMBERSHIP"
)

// Detail keys the provider sets on profile and email updates.
const (
	DetailUpdatedFirstName = "updated_first_name"
	DetailUpdatedLastName  = "updated_last_name"
	DetailUpdatedEmail     = "updated_email"
)

// RawEvent is either a *UserEvent or an *AdminEvent. The set is closed: no other
// package can add a variant.
type RawEvent interface {
	slog.LogValuer
	rawEvent()
}

// UserEvent is a self-service event. Only Type, UserID and Details take part in
// routing; the remaining fields are carried for logging.
type UserEvent struct {
	Type      EventType         `json:"type"`
	UserID    string            `json:"userId"`
	Details   map[string]string `json:"details,omitempty"`
	RealmID   string            `json:"realmId,omitempty"`
	ClientID  string            `json:"clientId,omitempty"`
	IPAddress string            `json:"ipAddress,omitempty"`
	SessionID string            `json:"sessionId,omitempty"`
	Time      int64             `json:"time,omitempty"` // unix millis
	Error     string            `json:"error,omitempty"`
}

// AuthDetails identifies the administrator behind an AdminEvent.
type AuthDetails struct {
	RealmID   string `json:"realmId,omitempty"`
	ClientID  string `json:"clientId,omitempty"`
	UserID    string `json:"userId,omitempty"`
	IPAddress string `json:"ipAddress,omitempty"`
}

// AdminEvent is an administrative operation on a managed resource.
type AdminEvent struct {
	OperationType OperationType     `json:"operationType"`
	ResourceType  ResourceType      `json:"resourceType"`
	ResourceID    string            `json:"resourceId"`
	ResourcePath  string            `json:"resourcePath,omitempty"`
	RealmID       string            `json:"realmId,omitempty"`
	AuthDetails   AuthDetails       `json:"authDetails"`
	Details       map[string]string `json:"details,omitempty"`
	Time          int64             `json:"time,omitempty"` // unix millis
	Error         string            `json:"error,omitempty"`
}

func (*UserEvent) rawEvent()  {}
func (*AdminEvent) rawEvent() {}

// LogValue renders the event for structured logs.
func (e *UserEvent) LogValue() slog.Value {
	if e == nil {
		return slog.StringValue("<nil>")
	}

	attrs := []slog.Attr{
		slog.String("type", string(e.Type)),
		slog.String("user_id", e.UserID),
		slog.String("realm_id", e.RealmID),
		slog.String("client_id", e.ClientID),
		slog.String("ip_address", e.IPAddress),
		slog.Time("time", millis(e.Time)),
	}

	if e.Error != "" {
		attrs = append(attrs, slog.String("error", e.Error))
	}

	if len(e.Details) > 0 {
		attrs = append(attrs, slog.Any("details", e.Details))
	}

	return slog.GroupValue(attrs...)
}

// LogValue renders the event for structured logs.
func (e *AdminEvent) LogValue() slog.Value {
	if e == nil {
		return slog.StringValue("<nil>")
	}

	attrs := []slog.Attr{
		slog.String("operation_type", string(e.OperationType)),
		slog.String("resource_type", string(e.ResourceType)),
		slog.String("resource_id", e.ResourceID),
		slog.String("resource_path", e.ResourcePath),
		slog.String("realm_id", e.RealmID),
		slog.String("admin_user_id", e.AuthDetails.UserID),
		slog.String("admin_client_id", e.AuthDetails.ClientID),
		slog.Time("time", millis(e.Time)),
	}

	if e.Error != "" {
		attrs = append(attrs, slog.String("error", e.Error))
	}

	return slog.GroupValue(attrs...)
}

func millis(ms int64) time.Time {
	if ms == 0 {
		return time.Time{}
	}

	return time.UnixMilli(ms).UTC()
}
