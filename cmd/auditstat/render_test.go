package main

import (
	"auditstat/internal/models"
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPeriodFromFlags(t *testing.T) {
	p, err := periodFromFlags("2024-03-11", "")
	require.NoError(t, err)
	assert.Equal(t, models.DayPeriod("2024-03-11"), p)

	p, err = periodFromFlags("", "2024-03-10")
	require.NoError(t, err)
	assert.Equal(t, models.WeekPeriod("2024-03-10"), p)

	_, err = periodFromFlags("", "")
	assert.Error(t, err)
	_, err = periodFromFlags("2024-03-11", "2024-03-10")
	assert.Error(t, err)
	_, err = periodFromFlags("11.03.2024", "")
	assert.ErrorIs(t, err, models.ErrInvalidPeriod)
}

func TestRenderReport(t *testing.T) {
	m := &models.Metrics{
		Digest:     "00000000deadbeef",
		ComputedAt: time.Date(2024, 3, 20, 12, 0, 0, 0, time.UTC),
		Windows: models.Windows{
			Users:         models.WindowCounts{Last7Days: 1, Last30Days: 2, AllTime: 2},
			Conversations: models.WindowCounts{Last7Days: 3, Last30Days: 4, AllTime: 4},
		},
		Weekly:         []models.WeeklyBucket{{WeekNumber: 11, WeekRange: "3/10-3/16", ActiveUsers: 2, DaysWithActivity: 1, Conversations: 4}},
		HasProjectData: true,
		Projects:       []models.ProjectSummary{{ID: "p1", Name: "Onboarding", CreatorName: "Ann", DocumentCount: 2}},
		UserConversations: []models.UserConversationSummary{
			{Name: "Ann", Conversations: 3, Conversations7d: 3, Conversations30: 3},
		},
		Diagnostics: models.Diagnostics{SyntheticRecords: 1},
	}

	var buf bytes.Buffer
	require.NoError(t, renderReport(&buf, m))
	out := buf.String()
	assert.Contains(t, out, "00000000deadbeef")
	assert.Contains(t, out, "3/10-3/16")
	assert.Contains(t, out, "Onboarding")
	assert.Contains(t, out, "Conversations per user")
	assert.Contains(t, out, "1 unresolved identities")
}

func TestRenderParticipants(t *testing.T) {
	var buf bytes.Buffer
	err := renderParticipants(&buf, models.DayPeriod("2024-03-11"), []models.Participant{
		{Key: models.UUIDKey("u1"), UserName: "Ann", ConversationCount: 2},
		{Key: models.UUIDKey("u2"), UserName: "Bob", ConversationCount: 1},
	})
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "Ann")
	// footers are upper-cased by the table style
	assert.Contains(t, strings.ToLower(buf.String()), "2 users")
}

func TestRenderUsers_MarksServiceAccount(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, renderUsers(&buf, []*models.UserProfile{
		{DisplayName: "System Service Account", IsServiceAccount: true},
		{DisplayName: "Ann", Email: "a@x.com"},
	}))
	assert.Contains(t, buf.String(), "System Service Account (service)")
	assert.Contains(t, buf.String(), "a@x.com")
}
