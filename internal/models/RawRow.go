package models

// Well-known export file names. Anything else is treated as a generic audit log.
const (
	SourceUsers         = "users.json"
	SourceConversations = "conversations.json"
	SourceProjects      = "projects.json"
)

// Event names that promote rows from generic audit logs into typed kinds.
const (
	EventConversationCreated = "conversation_created"
	EventProjectCreated      = "project_created"
	EventFileUploaded        = "file_uploaded"
)

// RawRow is one loosely-typed row handed over by the ingestion layer.
// Fields holds whatever the source file carried (nested objects decode to
// map[string]any, arrays to []any).
type RawRow struct {
	Source  string         `json:"source"`
	Ordinal int            `json:"ordinal"`
	Fields  map[string]any `json:"fields"`
}

// Event returns the row's event tag, if any.
func (r RawRow) Event() string {
	if r.Fields == nil {
		return ""
	}
	if v, ok := r.Fields["event"].(string); ok {
		return v
	}
	return ""
}

// SourceRow is the tagged union of row shapes: UserRosterRow, ConversationRow,
// ProjectRow and OtherRow. The unexported method keeps the set closed.
type SourceRow interface {
	Kind() SourceKind
	Row() RawRow
	sourceRow()
}

type UserRosterRow struct{ RawRow }
type ConversationRow struct{ RawRow }
type ProjectRow struct{ RawRow }
type OtherRow struct{ RawRow }

func (r UserRosterRow) Kind() SourceKind   { return KindUserRoster }
func (r ConversationRow) Kind() SourceKind { return KindConversation }
func (r ProjectRow) Kind() SourceKind      { return KindProject }
func (r OtherRow) Kind() SourceKind        { return KindOther }

func (r UserRosterRow) Row() RawRow   { return r.RawRow }
func (r ConversationRow) Row() RawRow { return r.RawRow }
func (r ProjectRow) Row() RawRow      { return r.RawRow }
func (r OtherRow) Row() RawRow        { return r.RawRow }

func (UserRosterRow) sourceRow()   {}
func (ConversationRow) sourceRow() {}
func (ProjectRow) sourceRow()      {}
func (OtherRow) sourceRow()        {}

// Classify maps a raw row onto its shape. The file name wins; event tags
// only promote rows coming from generic logs.
func Classify(row RawRow) SourceRow {
	switch {
	case row.Source == SourceUsers:
		return UserRosterRow{row}
	case row.Source == SourceConversations || row.Event() == EventConversationCreated:
		return ConversationRow{row}
	case row.Source == SourceProjects || row.Event() == EventProjectCreated:
		return ProjectRow{row}
	default:
		return OtherRow{row}
	}
}
