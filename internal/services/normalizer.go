package services

import (
	"auditstat/internal/models"
	"auditstat/internal/structures"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"github.com/spf13/cast"
	"github.com/tidwall/gjson"
)

const UnnamedProject = "Unnamed Project"

// epoch values above this are taken as milliseconds
const millisThreshold = 1e12

// Normalizer turns loosely-typed rows into ActivityRecords. It is pure: the
// same row and the same reference time always give the same record.
type Normalizer struct {
	loc          *time.Location
	now          time.Time
	serviceLabel string
	serviceEmail string
	serviceName  string
}

func NewNormalizer(conf *structures.Config, now time.Time) *Normalizer {
	return &Normalizer{
		loc:          conf.Location(),
		now:          now,
		serviceLabel: strings.TrimSpace(conf.Engine.ServiceLabel),
		serviceEmail: models.NormalizeEmail(conf.Engine.ServiceEmail),
		serviceName:  conf.Engine.ServiceName,
	}
}

// Normalize returns nil for rows that carry nothing worth keeping: roster
// entries with neither uuid nor email.
func (n *Normalizer) Normalize(row models.RawRow) *models.ActivityRecord {
	fields := row.Fields
	if fields == nil {
		fields = map[string]any{}
	}

	shaped := models.Classify(row)
	rec := &models.ActivityRecord{
		Kind:  shaped.Kind(),
		Event: row.Event(),
		Payload: models.Payload{
			Source:   row.Source,
			Filename: filenameChain.String(fields),
			Ordinal:  row.Ordinal,
			RecordID: recordIDChain.String(fields),
		},
	}

	rec.Timestamp, rec.TimestampFallback = n.timestamp(fields)
	rec.DateKey = rec.Timestamp.In(n.loc).Format(models.DateLayout)

	chains := chainsByKind[rec.Kind]
	rec.RawUUID = chains.uuid.String(fields)
	n.contact(rec, fields, chains)

	switch shaped.(type) {
	case models.UserRosterRow:
		if rec.RawUUID == "" && rec.RawEmail == "" {
			return nil
		}
		rec.Phone = phoneChain.String(fields)
	case models.ConversationRow:
		rec.ProjectRef = projectRefChain.String(fields)
	case models.ProjectRow:
		n.project(rec, fields)
	}

	n.applyServiceAccount(rec)
	return rec
}

func (n *Normalizer) timestamp(fields map[string]any) (time.Time, bool) {
	for _, p := range timestampChain {
		v, ok := p.lookup(fields)
		if !ok {
			continue
		}
		if ts, ok := n.parseTime(v); ok {
			return ts, false
		}
	}
	return n.now, true
}

func (n *Normalizer) parseTime(v any) (time.Time, bool) {
	switch x := v.(type) {
	case string:
		if strings.TrimSpace(x) == "" {
			return time.Time{}, false
		}
	case float64, float32, int, int32, int64, uint32, uint64, json.Number:
		epoch, err := cast.ToInt64E(x)
		if err != nil || epoch <= 0 {
			return time.Time{}, false
		}
		if epoch > millisThreshold {
			return time.UnixMilli(epoch).In(n.loc), true
		}
		return time.Unix(epoch, 0).In(n.loc), true
	}

	ts, err := cast.ToTimeInDefaultLocationE(v, n.loc)
	if err != nil || ts.IsZero() {
		return time.Time{}, false
	}
	return ts, true
}

// contact fills email and name through three tiers: the row's direct
// fields, then its actor metadata blob, then nested actor/user objects.
func (n *Normalizer) contact(rec *models.ActivityRecord, fields map[string]any, chains identityChains) {
	email := validEmail(chains.email.String(fields))
	name := chains.name.String(fields)

	meta, present, malformed := actorMetadata(fields["actor_info"])
	rec.MetadataMalformed = malformed
	if present {
		if email == "" {
			email = validEmail(firstGJSON(meta, actorEmailPaths))
		}
		if name == "" {
			name = firstGJSON(meta, actorNamePaths)
		}
	}

	if email == "" {
		email = validEmail(nestedEmailChain.String(fields))
	}
	if name == "" {
		name = nestedNameChain.String(fields)
	}
	if name == "" && email != "" {
		name = emailLocalPart(email)
	}

	rec.RawEmail = email
	rec.RawName = name
}

func (n *Normalizer) project(rec *models.ActivityRecord, fields map[string]any) {
	rec.ProjectID = projectIDChain.String(fields)
	rec.ProjectName = projectNameChain.String(fields)
	if rec.ProjectName == "" {
		rec.ProjectName = UnnamedProject
	}
	rec.CreatorName = creatorNameChain.String(fields)
	if rec.CreatorName == "" {
		rec.CreatorName = rec.RawName
	}
	rec.DocumentCount = documentCount(fields)
	rec.IsPrivate = cast.ToBool(fields["is_private"])
}

// applyServiceAccount collapses every spelling of the reconciliation
// service onto the one configured system identity.
func (n *Normalizer) applyServiceAccount(rec *models.ActivityRecord) {
	isService := (n.serviceLabel != "" && rec.RawName == n.serviceLabel) ||
		(n.serviceEmail != "" && models.NormalizeEmail(rec.RawEmail) == n.serviceEmail)
	if !isService {
		return
	}
	rec.ServiceAccount = true
	rec.RawEmail = n.serviceEmail
	rec.RawName = n.serviceName
	if rec.Kind == models.KindProject {
		rec.CreatorName = n.serviceName
	}
}

// actorMetadata reads the actor_info blob. Exports carry it either as an
// object or as a string with single-quoted keys.
func actorMetadata(v any) (meta gjson.Result, present bool, malformed bool) {
	switch x := v.(type) {
	case nil:
		return gjson.Result{}, false, false
	case map[string]any:
		raw, err := json.Marshal(x)
		if err != nil {
			return gjson.Result{}, false, true
		}
		return gjson.ParseBytes(raw), true, false
	case string:
		s := strings.TrimSpace(x)
		if s == "" {
			return gjson.Result{}, false, false
		}
		s = strings.ReplaceAll(s, "'", `"`)
		if !gjson.Valid(s) {
			return gjson.Result{}, false, true
		}
		res := gjson.Parse(s)
		if !res.IsObject() {
			return gjson.Result{}, false, true
		}
		return res, true, false
	default:
		return gjson.Result{}, false, true
	}
}

func firstGJSON(meta gjson.Result, paths []string) string {
	for _, p := range paths {
		if r := meta.Get(p); r.Exists() {
			if s := strings.TrimSpace(r.String()); s != "" {
				return s
			}
		}
	}
	return ""
}

func validEmail(s string) string {
	if !strings.Contains(s, "@") {
		return ""
	}
	return s
}

func documentCount(fields map[string]any) int {
	if n := cast.ToInt(fields["document_count"]); n > 0 {
		return n
	}
	for _, key := range []string{"docs", "documents"} {
		if arr, ok := fields[key].([]any); ok && len(arr) > 0 {
			return len(arr)
		}
	}
	return 0
}
