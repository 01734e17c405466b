package models

import (
	"fmt"
	"time"
)

type SourceKind uint8

const (
	KindOther SourceKind = iota
	KindUserRoster
	KindConversation
	KindProject
)

var sourceKindNames = [...]string{
	KindOther:        "other",
	KindUserRoster:   "user_roster",
	KindConversation: "conversation",
	KindProject:      "project",
}

func (k SourceKind) String() string {
	if int(k) < len(sourceKindNames) {
		return sourceKindNames[k]
	}
	return "unknown"
}

func (k SourceKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *SourceKind) UnmarshalText(text []byte) error {
	for i, name := range sourceKindNames {
		if name == string(text) {
			*k = SourceKind(i)
			return nil
		}
	}
	return fmt.Errorf("unknown source kind %q", text)
}

// Resolution tells whether a record was bound to a user profile or only
// carries a synthesized identity.
type Resolution uint8

const (
	Unresolved Resolution = iota
	Bound
	Synthetic
)

func (r Resolution) String() string {
	switch r {
	case Bound:
		return "bound"
	case Synthetic:
		return "synthetic"
	default:
		return "unresolved"
	}
}

func (r Resolution) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

func (r *Resolution) UnmarshalText(text []byte) error {
	switch string(text) {
	case "bound":
		*r = Bound
	case "synthetic":
		*r = Synthetic
	case "unresolved", "":
		*r = Unresolved
	default:
		return fmt.Errorf("unknown resolution %q", text)
	}
	return nil
}

// Payload carries display-only fields. Never used for identity or counting.
type Payload struct {
	Source   string `json:"source"`
	Filename string `json:"filename,omitempty"`
	Ordinal  int    `json:"ordinal"`
	RecordID string `json:"record_id,omitempty"`
}

// ActivityRecord is the canonical form of one row, whatever file it came from.
type ActivityRecord struct {
	Kind              SourceKind `json:"kind"`
	Timestamp         time.Time  `json:"timestamp"`
	DateKey           string     `json:"date"`
	TimestampFallback bool       `json:"timestamp_fallback,omitempty"`

	RawUUID  string `json:"raw_uuid,omitempty"`
	RawEmail string `json:"raw_email,omitempty"`
	RawName  string `json:"raw_name,omitempty"`
	Phone    string `json:"phone,omitempty"`
	Event    string `json:"event,omitempty"`

	// conversation rows
	ProjectRef string `json:"project_ref,omitempty"`

	// project rows
	ProjectID     string `json:"project_id,omitempty"`
	ProjectName   string `json:"project_name,omitempty"`
	CreatorName   string `json:"creator_name,omitempty"`
	DocumentCount int    `json:"document_count,omitempty"`
	IsPrivate     bool   `json:"is_private,omitempty"`

	MetadataMalformed bool `json:"metadata_malformed,omitempty"`
	ServiceAccount    bool `json:"service_account,omitempty"`

	Payload Payload `json:"payload"`

	Identity   IdentityKey `json:"identity"`
	Resolution Resolution  `json:"resolution"`
}

func (r *ActivityRecord) IsFileUpload() bool {
	return r.Kind == KindOther && r.Event == EventFileUploaded
}

// InWindow reports whether the record happened at or after cutoff.
func (r *ActivityRecord) InWindow(cutoff time.Time) bool {
	return !r.Timestamp.Before(cutoff)
}
