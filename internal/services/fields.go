package services

import (
	"auditstat/internal/models"
	"strings"

	"github.com/spf13/cast"
)

// fieldPath addresses a value inside a raw row; each element descends one
// nested object.
type fieldPath []string

func path(keys ...string) fieldPath { return keys }

func (p fieldPath) lookup(fields map[string]any) (any, bool) {
	var cur any = fields
	for _, key := range p {
		obj, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		cur, ok = obj[key]
		if !ok || cur == nil {
			return nil, false
		}
	}
	return cur, true
}

// chain is an ordered fallback list: the first path holding a usable value wins.
type chain []fieldPath

func (c chain) String(fields map[string]any) string {
	for _, p := range c {
		v, ok := p.lookup(fields)
		if !ok {
			continue
		}
		s, err := cast.ToStringE(v)
		if err != nil {
			continue
		}
		if s = strings.TrimSpace(s); s != "" {
			return s
		}
	}
	return ""
}

var (
	timestampChain = chain{path("created_at"), path("timestamp"), path("date")}

	rosterUUIDChain       = chain{path("uuid")}
	conversationUUIDChain = chain{path("user_uuid"), path("account", "uuid")}
	projectUUIDChain      = chain{path("user_uuid"), path("creator", "uuid")}
	otherUUIDChain        = chain{path("user_uuid")}

	rosterEmailChain       = chain{path("email_address"), path("email")}
	conversationEmailChain = chain{path("email_address"), path("email"), path("account", "email_address"), path("account", "email")}
	projectEmailChain      = chain{path("email_address"), path("email"), path("creator", "email_address"), path("creator", "email")}
	otherEmailChain        = chain{path("email_address"), path("email")}
	nestedEmailChain       = chain{path("actor", "email_address"), path("actor", "email"), path("user", "email_address"), path("user", "email")}

	rosterNameChain       = chain{path("full_name"), path("name"), path("userName")}
	conversationNameChain = chain{path("full_name"), path("userName"), path("account", "full_name"), path("account", "name")}
	projectNameUserChain  = chain{path("full_name"), path("userName"), path("creator", "full_name"), path("creator", "name")}
	otherNameChain        = chain{path("full_name"), path("userName"), path("name")}
	nestedNameChain       = chain{path("actor", "name"), path("actor", "full_name"), path("user", "name"), path("user", "full_name")}

	// actor metadata lookups, as gjson paths
	actorEmailPaths = []string{"metadata.email_address", "email"}
	actorNamePaths  = []string{"name", "full_name"}

	phoneChain       = chain{path("verified_phone_number"), path("phone")}
	recordIDChain    = chain{path("uuid"), path("id")}
	projectRefChain  = chain{path("project_uuid"), path("project_id")}
	projectIDChain   = chain{path("uuid"), path("id")}
	projectNameChain = chain{path("name"), path("title"), path("project_name"), path("filename")}
	creatorNameChain = chain{path("creator", "full_name"), path("creator", "name"), path("creator_name")}
	filenameChain    = chain{path("filename"), path("file_name")}
)

// identityChains groups the direct uuid, email and name lists of one row shape.
type identityChains struct {
	uuid  chain
	email chain
	name  chain
}

var chainsByKind = map[models.SourceKind]identityChains{
	models.KindUserRoster:   {uuid: rosterUUIDChain, email: rosterEmailChain, name: rosterNameChain},
	models.KindConversation: {uuid: conversationUUIDChain, email: conversationEmailChain, name: conversationNameChain},
	models.KindProject:      {uuid: projectUUIDChain, email: projectEmailChain, name: projectNameUserChain},
	models.KindOther:        {uuid: otherUUIDChain, email: otherEmailChain, name: otherNameChain},
}

// emailLocalPart derives a display name from an address.
func emailLocalPart(email string) string {
	local, _, _ := strings.Cut(email, "@")
	return local
}
