package services

import (
	"auditstat/internal/models"
	"auditstat/internal/structures"
	"fmt"
	"sort"

	"github.com/google/uuid"
)

// synthetic nonces are name-based so a rerun over the same rows gives the same keys
var syntheticNamespace = uuid.NewSHA1(uuid.NameSpaceOID, []byte("auditstat/synthetic"))

type ResolveStats struct {
	Bound     int
	Synthetic int
	Service   int
}

// IdentityResolver owns the identity table of one pass. It is not safe for
// concurrent use; a run builds one, fills it, and hands the profiles over.
type IdentityResolver struct {
	serviceEmail string
	serviceName  string

	profiles []*models.UserProfile
	byKey    map[models.IdentityKey]*models.UserProfile
	byUUID   map[string]*models.UserProfile
	byEmail  map[string]*models.UserProfile

	stats ResolveStats
}

func NewIdentityResolver(conf *structures.Config) *IdentityResolver {
	return &IdentityResolver{
		serviceEmail: models.NormalizeEmail(conf.Engine.ServiceEmail),
		serviceName:  conf.Engine.ServiceName,
		byKey:        make(map[models.IdentityKey]*models.UserProfile),
		byUUID:       make(map[string]*models.UserProfile),
		byEmail:      make(map[string]*models.UserProfile),
	}
}

// Seed registers roster records. Non-roster records are ignored. A person
// listed twice (same uuid or same email) ends up as one profile.
func (r *IdentityResolver) Seed(records []*models.ActivityRecord) {
	for _, rec := range records {
		if rec == nil || rec.Kind != models.KindUserRoster {
			continue
		}
		r.seedOne(rec)
	}
}

func (r *IdentityResolver) seedOne(rec *models.ActivityRecord) {
	uid := normalizeUUID(rec.RawUUID)
	email := models.NormalizeEmail(rec.RawEmail)

	var p *models.UserProfile
	if uid != "" {
		p = r.byUUID[uid]
	}
	if p == nil && email != "" {
		p = r.byEmail[email]
	}
	if p == nil {
		key := models.EmailKey(email)
		if uid != "" {
			key = models.UUIDKey(uid)
		}
		p = r.create(key)
	}

	p.FromRoster = true
	if p.UUID == "" && uid != "" {
		p.UUID = uid
		r.byUUID[uid] = p
	}
	if p.Email == "" && email != "" {
		p.Email = email
		r.byEmail[email] = p
	}
	if p.DisplayName == "" {
		p.DisplayName = rec.RawName
	}
	if p.Phone == "" {
		p.Phone = rec.Phone
	}
	if rec.ServiceAccount {
		p.IsServiceAccount = true
	}

	rec.Identity = p.Key
	rec.Resolution = models.Bound
}

// Resolve binds one non-roster record, in strict order: service account,
// roster uuid, known email, new email, synthetic.
func (r *IdentityResolver) Resolve(rec *models.ActivityRecord) {
	if rec == nil || rec.Kind == models.KindUserRoster {
		return
	}

	if rec.ServiceAccount {
		r.stats.Service++
		r.bind(rec, r.serviceProfile())
		return
	}

	uid := normalizeUUID(rec.RawUUID)
	if uid != "" {
		if p, ok := r.byUUID[uid]; ok {
			r.bind(rec, p)
			return
		}
	}

	email := models.NormalizeEmail(rec.RawEmail)
	if email != "" {
		p, ok := r.byEmail[email]
		if !ok {
			p = r.create(models.EmailKey(email))
			p.Email = email
			p.DisplayName = rec.RawName
			r.byEmail[email] = p
		}
		// later rows carrying only this uuid reach the same person
		if uid != "" {
			r.byUUID[uid] = p
		}
		r.bind(rec, p)
		return
	}

	rec.Identity = syntheticKey(rec)
	rec.Resolution = models.Synthetic
	r.stats.Synthetic++
}

func (r *IdentityResolver) bind(rec *models.ActivityRecord, p *models.UserProfile) {
	p.Record(rec)
	if p.DisplayName == "" {
		p.DisplayName = rec.RawName
	}
	rec.Identity = p.Key
	rec.Resolution = models.Bound
	r.stats.Bound++
}

func (r *IdentityResolver) serviceProfile() *models.UserProfile {
	if p, ok := r.byEmail[r.serviceEmail]; ok {
		p.IsServiceAccount = true
		return p
	}
	p := r.create(models.EmailKey(r.serviceEmail))
	p.Email = r.serviceEmail
	p.DisplayName = r.serviceName
	p.IsServiceAccount = true
	r.byEmail[r.serviceEmail] = p
	return p
}

func (r *IdentityResolver) create(key models.IdentityKey) *models.UserProfile {
	p := &models.UserProfile{Key: key}
	r.byKey[key] = p
	r.profiles = append(r.profiles, p)
	return p
}

// Profile looks up a profile by key.
func (r *IdentityResolver) Profile(key models.IdentityKey) (*models.UserProfile, bool) {
	p, ok := r.byKey[key]
	return p, ok
}

// Profiles returns every profile, fallback names applied, ordered by key.
func (r *IdentityResolver) Profiles() []*models.UserProfile {
	out := make([]*models.UserProfile, 0, len(r.profiles))
	for _, p := range r.profiles {
		c := p.Clone()
		if c.DisplayName == "" {
			c.DisplayName = displayFallback(c)
		}
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Key.String() < out[j].Key.String()
	})
	return out
}

func (r *IdentityResolver) Stats() ResolveStats {
	return r.stats
}

func displayFallback(p *models.UserProfile) string {
	if p.Email != "" {
		return emailLocalPart(p.Email)
	}
	return models.UnknownUserName
}

// normalizeUUID canonicalizes well-formed uuids and lowercases anything else.
func normalizeUUID(raw string) string {
	if raw == "" {
		return ""
	}
	if parsed, err := uuid.Parse(raw); err == nil {
		return parsed.String()
	}
	return models.UUIDKey(raw).Value()
}

// syntheticKey names an unresolved record. An unknown uuid keys the same
// identity in every source; filename and nonce fragments carry the kind.
func syntheticKey(rec *models.ActivityRecord) models.IdentityKey {
	if uid := normalizeUUID(rec.RawUUID); uid != "" {
		return models.SyntheticKey("uuid-" + uid)
	}
	fragment := rec.Payload.Filename
	if fragment == "" {
		name := fmt.Sprintf("%s|%d|%s|%s", rec.Payload.Source, rec.Payload.Ordinal, rec.Payload.RecordID, rec.Timestamp.UTC().Format("20060102T150405.000000000"))
		fragment = uuid.NewSHA1(syntheticNamespace, []byte(name)).String()
	}
	return models.SyntheticKey(rec.Kind.String() + "-" + fragment)
}
