package services

import (
	"auditstat/internal/models"
	"sort"
	"time"
)

// ProfileLookup resolves identity keys to profiles.
type ProfileLookup interface {
	Profile(key models.IdentityKey) (*models.UserProfile, bool)
}

type WindowResult struct {
	Totals            models.Totals
	Windows           models.Windows
	Projects          []models.ProjectSummary
	UserConversations []models.UserConversationSummary
}

// NewCutoffs captures both window starts once for a run.
func NewCutoffs(now time.Time, short, long time.Duration) models.Cutoffs {
	return models.Cutoffs{
		Now:          now,
		SevenDaysAgo: now.Add(-short),
		ThirtyAgo:    now.Add(-long),
	}
}

type WindowCalculator struct {
	index   *models.IdentityIndex
	cutoffs models.Cutoffs
}

func NewWindowCalculator(index *models.IdentityIndex, cutoffs models.Cutoffs) *WindowCalculator {
	return &WindowCalculator{index: index, cutoffs: cutoffs}
}

type windowCounter struct {
	all, short, long int
}

func (c *windowCounter) add(rec *models.ActivityRecord, cut models.Cutoffs) {
	c.all++
	if rec.InWindow(cut.SevenDaysAgo) {
		c.short++
	}
	if rec.InWindow(cut.ThirtyAgo) {
		c.long++
	}
}

func (c windowCounter) counts() models.WindowCounts {
	return models.WindowCounts{Last7Days: c.short, Last30Days: c.long, AllTime: c.all}
}

func (w *WindowCalculator) Calculate(records []*models.ActivityRecord, profiles ProfileLookup) *WindowResult {
	usersAll := models.NewIdentitySet()
	usersShort := models.NewIdentitySet()
	usersLong := models.NewIdentitySet()

	var conversations, projects windowCounter
	var documents int
	var projectRecs []*models.ActivityRecord

	byProject := make(map[string]*windowCounter)
	byUser := make(map[models.IdentityKey]*windowCounter)
	var userOrder []models.IdentityKey

	for _, rec := range records {
		if rec == nil || rec.Kind == models.KindUserRoster {
			continue
		}
		if countsAsUser(rec) {
			id := w.index.Intern(rec.Identity)
			usersAll.Add(id)
			if rec.InWindow(w.cutoffs.SevenDaysAgo) {
				usersShort.Add(id)
			}
			if rec.InWindow(w.cutoffs.ThirtyAgo) {
				usersLong.Add(id)
			}
		}

		switch rec.Kind {
		case models.KindConversation:
			conversations.add(rec, w.cutoffs)
			if rec.ProjectRef != "" {
				c, ok := byProject[rec.ProjectRef]
				if !ok {
					c = &windowCounter{}
					byProject[rec.ProjectRef] = c
				}
				c.add(rec, w.cutoffs)
			}
			if rec.Resolution == models.Bound && !rec.ServiceAccount {
				c, ok := byUser[rec.Identity]
				if !ok {
					c = &windowCounter{}
					byUser[rec.Identity] = c
					userOrder = append(userOrder, rec.Identity)
				}
				c.add(rec, w.cutoffs)
			}
		case models.KindProject:
			projects.add(rec, w.cutoffs)
			documents += rec.DocumentCount
			projectRecs = append(projectRecs, rec)
		}
	}

	res := &WindowResult{
		Totals: models.Totals{
			Users:         usersAll.Len(),
			Conversations: conversations.all,
			Projects:      projects.all,
			Documents:     documents,
		},
		Windows: models.Windows{
			Users:         models.WindowCounts{Last7Days: usersShort.Len(), Last30Days: usersLong.Len(), AllTime: usersAll.Len()},
			Conversations: conversations.counts(),
			Projects:      projects.counts(),
		},
		Projects:          make([]models.ProjectSummary, 0, len(projectRecs)),
		UserConversations: make([]models.UserConversationSummary, 0, len(userOrder)),
	}

	var withConv windowCounter
	for _, rec := range projectRecs {
		summary := models.ProjectSummary{
			ID:            rec.ProjectID,
			Name:          rec.ProjectName,
			CreatorKey:    rec.Identity,
			CreatorName:   rec.CreatorName,
			DocumentCount: rec.DocumentCount,
			IsPrivate:     rec.IsPrivate,
			CreatedAt:     rec.Timestamp,
		}
		if summary.CreatorName == "" {
			summary.CreatorName = profileName(profiles, rec.Identity)
		}
		if c, ok := byProject[rec.ProjectID]; ok && rec.ProjectID != "" {
			summary.Conversations = c.all
			summary.Conversations7d = c.short
			summary.Conversations30 = c.long
		}
		if summary.Conversations > 0 {
			withConv.all++
		}
		if summary.Conversations7d > 0 {
			withConv.short++
		}
		if summary.Conversations30 > 0 {
			withConv.long++
		}
		res.Projects = append(res.Projects, summary)
	}
	res.Windows.ProjectsWithConversation = withConv.counts()

	sort.SliceStable(res.Projects, func(i, j int) bool {
		a, b := res.Projects[i], res.Projects[j]
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.ID < b.ID
	})

	for _, key := range userOrder {
		c := byUser[key]
		res.UserConversations = append(res.UserConversations, models.UserConversationSummary{
			Key:             key,
			Name:            profileName(profiles, key),
			Conversations:   c.all,
			Conversations7d: c.short,
			Conversations30: c.long,
		})
	}
	sort.SliceStable(res.UserConversations, func(i, j int) bool {
		a, b := res.UserConversations[i], res.UserConversations[j]
		if a.Conversations != b.Conversations {
			return a.Conversations > b.Conversations
		}
		if a.Name != b.Name {
			return a.Name < b.Name
		}
		return a.Key.String() < b.Key.String()
	})

	return res
}

func profileName(profiles ProfileLookup, key models.IdentityKey) string {
	if profiles == nil {
		return models.UnknownUserName
	}
	p, ok := profiles.Profile(key)
	if !ok {
		return models.UnknownUserName
	}
	if p.DisplayName != "" {
		return p.DisplayName
	}
	return displayFallback(p)
}
