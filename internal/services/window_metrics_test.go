package services

import (
	"auditstat/internal/models"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type profileMap map[models.IdentityKey]*models.UserProfile

func (m profileMap) Profile(key models.IdentityKey) (*models.UserProfile, bool) {
	p, ok := m[key]
	return p, ok
}

func TestNewCutoffs(t *testing.T) {
	c := NewCutoffs(testNow, 7*24*time.Hour, 30*24*time.Hour)
	assert.True(t, c.Now.Equal(testNow))
	assert.True(t, c.SevenDaysAgo.Equal(testNow.AddDate(0, 0, -7)))
	assert.True(t, c.ThirtyAgo.Equal(testNow.AddDate(0, 0, -30)))
}

func TestCalculate_Windows(t *testing.T) {
	ann := models.UUIDKey("u1")
	ben := models.EmailKey("b@x.com")
	cut := NewCutoffs(testNow, 7*24*time.Hour, 30*24*time.Hour)

	atCutoff := bound(models.KindConversation, ben, cut.SevenDaysAgo)
	atCutoff.ProjectRef = "p1"
	recent := bound(models.KindConversation, ann, testNow.Add(-time.Hour))
	recent.ProjectRef = "p1"
	mid := bound(models.KindConversation, ann, testNow.AddDate(0, 0, -20))
	old := bound(models.KindConversation, ann, testNow.AddDate(0, 0, -90))
	old.ProjectRef = "p2"

	p1 := bound(models.KindProject, ann, testNow.AddDate(0, 0, -40))
	p1.ProjectID, p1.ProjectName, p1.DocumentCount = "p1", "Roadmap", 3
	p2 := bound(models.KindProject, ben, testNow.AddDate(0, 0, -2))
	p2.ProjectID, p2.ProjectName, p2.DocumentCount = "p2", "Budget", 2

	svc := bound(models.KindConversation, models.EmailKey("service-account@system.internal"), testNow)
	svc.ServiceAccount = true

	profiles := profileMap{
		ann: {Key: ann, DisplayName: "Ann"},
		ben: {Key: ben, DisplayName: "Ben"},
	}

	res := NewWindowCalculator(models.NewIdentityIndex(), cut).Calculate(
		[]*models.ActivityRecord{atCutoff, recent, mid, old, p1, p2, svc}, profiles)

	assert.Equal(t, models.WindowCounts{Last7Days: 3, Last30Days: 4, AllTime: 5}, res.Windows.Conversations)
	assert.Equal(t, models.WindowCounts{Last7Days: 1, Last30Days: 1, AllTime: 2}, res.Windows.Projects)
	assert.Equal(t, models.WindowCounts{Last7Days: 2, Last30Days: 2, AllTime: 2}, res.Windows.Users)
	assert.Equal(t, models.Totals{Users: 2, Conversations: 5, Projects: 2, Documents: 5}, res.Totals)

	require.Len(t, res.Projects, 2)
	// newest first
	assert.Equal(t, "p2", res.Projects[0].ID)
	assert.Equal(t, 1, res.Projects[0].Conversations)
	assert.Equal(t, 0, res.Projects[0].Conversations30)
	assert.Equal(t, "p1", res.Projects[1].ID)
	assert.Equal(t, 2, res.Projects[1].Conversations)
	assert.Equal(t, 2, res.Projects[1].Conversations7d)
	assert.Equal(t, "Ann", res.Projects[1].CreatorName)
	assert.Equal(t, models.WindowCounts{Last7Days: 1, Last30Days: 1, AllTime: 2}, res.Windows.ProjectsWithConversation)

	require.Len(t, res.UserConversations, 2)
	assert.Equal(t, models.UserConversationSummary{Key: ann, Name: "Ann", Conversations: 3, Conversations7d: 1, Conversations30: 2}, res.UserConversations[0])
	assert.Equal(t, "Ben", res.UserConversations[1].Name)
}

func TestCalculate_SyntheticCountsInTotalsNotBreakdown(t *testing.T) {
	cut := NewCutoffs(testNow, 7*24*time.Hour, 30*24*time.Hour)
	ghost := bound(models.KindConversation, models.SyntheticKey("conversation-x"), testNow)
	ghost.Resolution = models.Synthetic

	res := NewWindowCalculator(models.NewIdentityIndex(), cut).Calculate([]*models.ActivityRecord{ghost}, profileMap{})

	assert.Equal(t, 1, res.Totals.Conversations)
	assert.Equal(t, 1, res.Totals.Users)
	assert.Empty(t, res.UserConversations)
}

func TestCalculate_ProjectWithoutIDHasNoConversations(t *testing.T) {
	cut := NewCutoffs(testNow, 7*24*time.Hour, 30*24*time.Hour)
	conv := bound(models.KindConversation, models.UUIDKey("u1"), testNow)
	proj := bound(models.KindProject, models.UUIDKey("u1"), testNow)
	proj.ProjectName = UnnamedProject

	res := NewWindowCalculator(models.NewIdentityIndex(), cut).Calculate([]*models.ActivityRecord{conv, proj}, nil)

	require.Len(t, res.Projects, 1)
	assert.Equal(t, 0, res.Projects[0].Conversations)
	assert.Equal(t, models.UnknownUserName, res.Projects[0].CreatorName)
}
