package models

import "time"

const UnknownUserName = "Unknown User"

// UserProfile is one distinct person. Counters only ever grow during a pass.
type UserProfile struct {
	Key              IdentityKey `json:"key"`
	UUID             string      `json:"uuid,omitempty"`
	Email            string      `json:"email,omitempty"`
	DisplayName      string      `json:"name"`
	Phone            string      `json:"phone,omitempty"`
	IsServiceAccount bool        `json:"is_service_account"`
	FromRoster       bool        `json:"from_roster"`
	TotalActions     int         `json:"total_actions"`
	Conversations    int         `json:"conversations"`
	Projects         int         `json:"projects"`
	Files            int         `json:"files"`
	LastSeen         *time.Time  `json:"last_seen,omitempty"`
}

// Record counts one bound activity record against the profile.
func (p *UserProfile) Record(rec *ActivityRecord) {
	p.TotalActions++
	switch {
	case rec.Kind == KindConversation:
		p.Conversations++
	case rec.Kind == KindProject:
		p.Projects++
	case rec.IsFileUpload():
		p.Files++
	}
	if p.LastSeen == nil || rec.Timestamp.After(*p.LastSeen) {
		ts := rec.Timestamp
		p.LastSeen = &ts
	}
}

func (p *UserProfile) Clone() *UserProfile {
	c := *p
	if p.LastSeen != nil {
		ts := *p.LastSeen
		c.LastSeen = &ts
	}
	return &c
}
