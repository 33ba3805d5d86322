package event

import "github.com/guregu/null/v6"

// SourceKind says which provider callback produced a Message.
type SourceKind string

const (
	SourceUserEvent  SourceKind = "USER_EVENT"
	SourceAdminEvent SourceKind = "ADMIN_EVENT"
)

// Operation is the canonical lifecycle operation carried by every Message.
type Operation string

const (
	OperationCreate Operation = "CREATE"
	OperationUpdate Operation = "UPDATE"
	OperationDelete Operation = "DELETE"
)

// UpdatedFields lists the profile fields changed by a self-service update.
// An invalid field was not present on the raw event; it encodes as JSON null,
// which is distinct from an empty string.
type UpdatedFields struct {
	FirstName null.String `json:"firstName"`
	LastName  null.String `json:"lastName"`
	Email     null.String `json:"email"`
}

// Message is the wire-stable record published to the stream.
// UpdatedFields is set only for USER_EVENT updates and is omitted otherwise.
type Message struct {
	SourceKind    SourceKind     `json:"sourceKind"`
	Operation     Operation      `json:"operation"`
	SubjectID     string         `json:"subjectId"`
	UpdatedFields *UpdatedFields `json:"updatedFields,omitempty"`
}
