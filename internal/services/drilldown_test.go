package services

import (
	"auditstat/internal/models"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func drillSnapshot() *models.Metrics {
	ann := models.UUIDKey("u1")
	ben := models.EmailKey("b@x.com")
	ghost := models.SyntheticKey("conversation-ghost")
	conv := func(key models.IdentityKey, date string) models.ActivityRecord {
		return models.ActivityRecord{Kind: models.KindConversation, DateKey: date, Identity: key}
	}
	return &models.Metrics{
		Users: []*models.UserProfile{
			{Key: ann, DisplayName: "Ann"},
			{Key: ben, DisplayName: "Ben"},
		},
		Conversations: []models.ActivityRecord{
			conv(ann, "2024-03-11"),
			conv(ben, "2024-03-11"),
			conv(ben, "2024-03-12"),
			conv(ghost, "2024-03-12"),
			conv(ann, "2024-03-18"),
		},
		WeekToDays: map[string][]string{
			"2024-03-10": {"2024-03-11", "2024-03-12"},
			"2024-03-17": {"2024-03-18"},
		},
	}
}

func TestDrillDown_Day(t *testing.T) {
	out, err := DrillDown(drillSnapshot(), models.DayPeriod("2024-03-11"))
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, "Ann", out[0].UserName)
	assert.Equal(t, "Ben", out[1].UserName)
}

func TestDrillDown_WeekUsesWeekToDays(t *testing.T) {
	out, err := DrillDown(drillSnapshot(), models.WeekPeriod("2024-03-10"))
	require.NoError(t, err)
	require.Len(t, out, 3)
	assert.Equal(t, models.Participant{Key: models.EmailKey("b@x.com"), UserName: "Ben", ConversationCount: 2}, out[0])
	assert.Equal(t, "Ann", out[1].UserName)
	assert.Equal(t, models.UnknownUserName, out[2].UserName)
}

func TestDrillDown_NamesFromSnapshotProfiles(t *testing.T) {
	m := drillSnapshot()
	m.Users = append(m.Users, &models.UserProfile{Key: models.SyntheticKey("conversation-ghost")})
	m.Users[0].DisplayName = "Ann Lee"

	out, err := DrillDown(m, models.DayPeriod("2024-03-12"))
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, "Ben", out[0].UserName)
	assert.Equal(t, models.UnknownUserName, out[1].UserName, "a profile without a name renders as unknown")

	out, err = DrillDown(m, models.DayPeriod("2024-03-18"))
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "Ann Lee", out[0].UserName)
}

func TestDrillDown_EmptyDayIsNotAnError(t *testing.T) {
	out, err := DrillDown(drillSnapshot(), models.DayPeriod("2024-03-13"))
	require.NoError(t, err)
	assert.NotNil(t, out)
	assert.Empty(t, out)

	out, err = DrillDown(drillSnapshot(), models.WeekPeriod("2020-01-05"))
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestDrillDown_InvalidPeriod(t *testing.T) {
	_, err := DrillDown(drillSnapshot(), models.Period{Kind: "month", Date: "2024-03-01"})
	assert.True(t, errors.Is(err, models.ErrInvalidPeriod))

	_, err = DrillDown(drillSnapshot(), models.DayPeriod("11/03/2024"))
	assert.True(t, errors.Is(err, models.ErrInvalidPeriod))
}
