package services

import (
	"auditstat/internal/models"
	"auditstat/internal/structures"
	"auditstat/internal/testutil"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2024, 3, 20, 12, 0, 0, 0, time.UTC)

func testConfig() *structures.Config {
	return &structures.Config{
		Engine: structures.EngineConfig{
			Timezone:     "UTC",
			ServiceLabel: "SECO Reconciliation service",
			ServiceEmail: "service-account@system.internal",
			ServiceName:  "System Service Account",
			ShortWindow:  7 * 24 * time.Hour,
			LongWindow:   30 * 24 * time.Hour,
		},
	}
}

func normalize(t *testing.T, source string, fields map[string]any) *models.ActivityRecord {
	t.Helper()
	return NewNormalizer(testConfig(), testNow).Normalize(testutil.Row(source, 0, fields))
}

func TestNormalize_TimestampChain(t *testing.T) {
	rec := normalize(t, models.SourceConversations, map[string]any{
		"timestamp":  "2024-03-01T08:00:00Z",
		"created_at": "2024-03-02T09:30:00Z",
	})
	require.NotNil(t, rec)
	assert.True(t, rec.Timestamp.Equal(time.Date(2024, 3, 2, 9, 30, 0, 0, time.UTC)))
	assert.Equal(t, "2024-03-02", rec.DateKey)
	assert.False(t, rec.TimestampFallback)
}

func TestNormalize_UnparseableCreatedAtFallsThrough(t *testing.T) {
	rec := normalize(t, models.SourceConversations, map[string]any{
		"created_at": "yesterday-ish",
		"date":       "2024-02-10",
	})
	require.NotNil(t, rec)
	assert.Equal(t, "2024-02-10", rec.DateKey)
	assert.False(t, rec.TimestampFallback)
}

func TestNormalize_MissingTimestampUsesNow(t *testing.T) {
	rec := normalize(t, models.SourceConversations, map[string]any{"email": "a@x.com"})
	require.NotNil(t, rec)
	assert.True(t, rec.Timestamp.Equal(testNow))
	assert.True(t, rec.TimestampFallback)
	assert.Equal(t, "2024-03-20", rec.DateKey)
}

func TestNormalize_EpochTimestamps(t *testing.T) {
	secs := normalize(t, "audit.json", map[string]any{"timestamp": float64(1709280000)})
	millis := normalize(t, "audit.json", map[string]any{"timestamp": float64(1709280000000)})

	assert.Equal(t, "2024-03-01", secs.DateKey)
	assert.True(t, secs.Timestamp.Equal(millis.Timestamp))
}

func TestNormalize_DateKeyUsesConfiguredZone(t *testing.T) {
	conf := testConfig()
	conf.Engine.Timezone = "America/New_York"
	rec := NewNormalizer(conf, testNow).Normalize(testutil.Row(models.SourceConversations, 0, map[string]any{
		"created_at": "2024-03-02T03:00:00Z",
	}))
	assert.Equal(t, "2024-03-01", rec.DateKey)
}

func TestNormalize_Classification(t *testing.T) {
	cases := []struct {
		source string
		event  string
		kind   models.SourceKind
	}{
		{models.SourceUsers, "", models.KindUserRoster},
		{models.SourceConversations, "", models.KindConversation},
		{models.SourceProjects, "", models.KindProject},
		{"audit.json", models.EventConversationCreated, models.KindConversation},
		{"audit.json", models.EventProjectCreated, models.KindProject},
		{"audit.json", models.EventFileUploaded, models.KindOther},
		{models.SourceUsers, models.EventConversationCreated, models.KindUserRoster},
	}
	for _, c := range cases {
		rec := normalize(t, c.source, map[string]any{"event": c.event, "uuid": "u1"})
		require.NotNil(t, rec, c.source)
		assert.Equal(t, c.kind, rec.Kind, "%s/%s", c.source, c.event)
	}
}

func TestNormalize_ConversationUUIDChain(t *testing.T) {
	rec := normalize(t, models.SourceConversations, map[string]any{
		"uuid":    "conv-1",
		"name":    "Quarterly planning",
		"account": map[string]any{"uuid": "u-42"},
	})
	assert.Equal(t, "u-42", rec.RawUUID)
	assert.Equal(t, "conv-1", rec.Payload.RecordID)
	assert.Empty(t, rec.RawName, "conversation titles are not user names")

	rec = normalize(t, models.SourceConversations, map[string]any{
		"user_uuid": "u-1",
		"account":   map[string]any{"uuid": "u-42"},
	})
	assert.Equal(t, "u-1", rec.RawUUID)
}

func TestNormalize_ActorInfoSingleQuotedString(t *testing.T) {
	rec := normalize(t, "audit.json", map[string]any{
		"actor_info": "{'name': 'Bob', 'metadata': {'email_address': 'bob@x.com'}}",
	})
	assert.Equal(t, "bob@x.com", rec.RawEmail)
	assert.Equal(t, "Bob", rec.RawName)
	assert.False(t, rec.MetadataMalformed)
}

func TestNormalize_ActorInfoObject(t *testing.T) {
	rec := normalize(t, "audit.json", map[string]any{
		"actor_info": map[string]any{
			"full_name": "Carol",
			"metadata":  map[string]any{"email_address": "carol@x.com"},
		},
	})
	assert.Equal(t, "carol@x.com", rec.RawEmail)
	assert.Equal(t, "Carol", rec.RawName)
}

func TestNormalize_MalformedActorInfoKeepsDirectFields(t *testing.T) {
	rec := normalize(t, "audit.json", map[string]any{
		"email":      "dan@x.com",
		"actor_info": "{not json at all",
	})
	assert.True(t, rec.MetadataMalformed)
	assert.Equal(t, "dan@x.com", rec.RawEmail)
	assert.Equal(t, "dan", rec.RawName)
}

func TestNormalize_DirectFieldsBeatActorInfo(t *testing.T) {
	rec := normalize(t, "audit.json", map[string]any{
		"email_address": "direct@x.com",
		"actor_info":    map[string]any{"metadata": map[string]any{"email_address": "meta@x.com"}},
		"actor":         map[string]any{"email": "nested@x.com"},
	})
	assert.Equal(t, "direct@x.com", rec.RawEmail)
}

func TestNormalize_NestedActorTier(t *testing.T) {
	rec := normalize(t, "audit.json", map[string]any{
		"user": map[string]any{"email": "erin@x.com", "name": "Erin"},
	})
	assert.Equal(t, "erin@x.com", rec.RawEmail)
	assert.Equal(t, "Erin", rec.RawName)
}

func TestNormalize_IgnoresValuesWithoutAt(t *testing.T) {
	rec := normalize(t, "audit.json", map[string]any{"email": "not-an-address"})
	assert.Empty(t, rec.RawEmail)
}

func TestNormalize_ServiceLabelRemap(t *testing.T) {
	rec := normalize(t, models.SourceConversations, map[string]any{
		"full_name": "SECO Reconciliation service",
		"email":     "robot-17@corp.example",
	})
	assert.True(t, rec.ServiceAccount)
	assert.Equal(t, "service-account@system.internal", rec.RawEmail)
	assert.Equal(t, "System Service Account", rec.RawName)
}

func TestNormalize_ServiceEmailIsServiceAccount(t *testing.T) {
	rec := normalize(t, models.SourceConversations, map[string]any{"email": "Service-Account@System.Internal"})
	assert.True(t, rec.ServiceAccount)
}

func TestNormalize_ProjectFields(t *testing.T) {
	rec := normalize(t, models.SourceProjects, map[string]any{
		"uuid":       "p-1",
		"title":      "Roadmap",
		"docs":       []any{map[string]any{}, map[string]any{}, map[string]any{}},
		"is_private": "true",
		"creator":    map[string]any{"uuid": "u-1", "full_name": "Ann"},
	})
	require.NotNil(t, rec)
	assert.Equal(t, "p-1", rec.ProjectID)
	assert.Equal(t, "Roadmap", rec.ProjectName)
	assert.Equal(t, 3, rec.DocumentCount)
	assert.True(t, rec.IsPrivate)
	assert.Equal(t, "u-1", rec.RawUUID)
	assert.Equal(t, "Ann", rec.CreatorName)
}

func TestNormalize_ProjectDocumentCountChain(t *testing.T) {
	rec := normalize(t, models.SourceProjects, map[string]any{"document_count": "5", "docs": []any{1}})
	assert.Equal(t, 5, rec.DocumentCount)

	rec = normalize(t, models.SourceProjects, map[string]any{"document_count": 0, "documents": []any{1, 2}})
	assert.Equal(t, 2, rec.DocumentCount)

	rec = normalize(t, models.SourceProjects, map[string]any{})
	assert.Equal(t, 0, rec.DocumentCount)
	assert.Equal(t, UnnamedProject, rec.ProjectName)
}

func TestNormalize_ConversationProjectRef(t *testing.T) {
	rec := normalize(t, models.SourceConversations, map[string]any{"project_id": "p-9"})
	assert.Equal(t, "p-9", rec.ProjectRef)

	rec = normalize(t, models.SourceConversations, map[string]any{"project_uuid": "p-1", "project_id": "p-9"})
	assert.Equal(t, "p-1", rec.ProjectRef)
}

func TestNormalize_RosterWithoutIdentityIsDropped(t *testing.T) {
	assert.Nil(t, normalize(t, models.SourceUsers, map[string]any{"full_name": "Nobody"}))
	assert.Nil(t, normalize(t, models.SourceUsers, nil))
}

func TestNormalize_RosterPhone(t *testing.T) {
	rec := normalize(t, models.SourceUsers, map[string]any{
		"uuid":                  "u1",
		"email_address":         "a@x.com",
		"full_name":             "Ann",
		"verified_phone_number": "+100",
	})
	assert.Equal(t, "+100", rec.Phone)
	assert.Equal(t, "Ann", rec.RawName)
}

func TestNormalize_IsPure(t *testing.T) {
	fields := map[string]any{"email": "a@x.com", "actor_info": "{'name': 'A'}"}
	a := normalize(t, "audit.json", fields)
	b := normalize(t, "audit.json", fields)
	assert.Equal(t, a, b)
}
