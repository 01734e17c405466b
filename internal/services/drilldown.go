package services

import (
	"auditstat/internal/models"
	"sort"
)

// DrillDown lists who created conversations in the selected day or week.
// A week is expanded through the snapshot's week→days map.
func DrillDown(m *models.Metrics, period models.Period) ([]models.Participant, error) {
	if err := period.Validate(); err != nil {
		return nil, err
	}
	if m == nil {
		return []models.Participant{}, nil
	}

	days := map[string]struct{}{}
	switch period.Kind {
	case models.PeriodDay:
		days[period.Date] = struct{}{}
	case models.PeriodWeek:
		for _, d := range m.WeekToDays[period.Date] {
			days[d] = struct{}{}
		}
	}

	counts := make(map[models.IdentityKey]int)
	for i := range m.Conversations {
		rec := &m.Conversations[i]
		if _, ok := days[rec.DateKey]; !ok {
			continue
		}
		counts[rec.Identity]++
	}

	out := make([]models.Participant, 0, len(counts))
	for key, n := range counts {
		name := models.UnknownUserName
		if p, ok := m.Profile(key); ok && p.DisplayName != "" {
			name = p.DisplayName
		}
		out = append(out, models.Participant{Key: key, UserName: name, ConversationCount: n})
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.ConversationCount != b.ConversationCount {
			return a.ConversationCount > b.ConversationCount
		}
		if a.UserName != b.UserName {
			return a.UserName < b.UserName
		}
		return a.Key.String() < b.Key.String()
	})
	return out, nil
}
