package services

import (
	"auditstat/internal/models"
	"fmt"
	"sort"
	"time"
)

// Aggregation is the bucketed view of one pass.
type Aggregation struct {
	Daily  []models.DailyBucket
	Weekly []models.WeeklyBucket

	DailyUsers          []models.SeriesPoint
	WeeklyUsers         []models.SeriesPoint
	DailyConversations  []models.SeriesPoint
	WeeklyConversations []models.SeriesPoint
	DailyProjects       []models.SeriesPoint

	DayToWeek  map[string]string
	WeekToDays map[string][]string
}

type dayAcc struct {
	users         *models.IdentitySet
	conversations int
	projects      int
}

type Aggregator struct {
	index *models.IdentityIndex
}

// NewAggregator shares the identity index with the window calculator so
// both intern keys to the same ids.
func NewAggregator(index *models.IdentityIndex) *Aggregator {
	return &Aggregator{index: index}
}

// Aggregate expects resolved records. Roster records are skipped.
func (a *Aggregator) Aggregate(records []*models.ActivityRecord) *Aggregation {
	days := make(map[string]*dayAcc)
	for _, rec := range records {
		if rec == nil || rec.Kind == models.KindUserRoster {
			continue
		}
		acc, ok := days[rec.DateKey]
		if !ok {
			acc = &dayAcc{users: models.NewIdentitySet()}
			days[rec.DateKey] = acc
		}
		if countsAsUser(rec) {
			acc.users.Add(a.index.Intern(rec.Identity))
		}
		switch rec.Kind {
		case models.KindConversation:
			acc.conversations++
		case models.KindProject:
			acc.projects++
		}
	}

	dates := make([]string, 0, len(days))
	for d := range days {
		dates = append(dates, d)
	}
	sort.Strings(dates)

	out := &Aggregation{
		Daily:               make([]models.DailyBucket, 0, len(dates)),
		DailyUsers:          make([]models.SeriesPoint, 0, len(dates)),
		DailyConversations:  make([]models.SeriesPoint, 0, len(dates)),
		DailyProjects:       make([]models.SeriesPoint, 0, len(dates)),
		DayToWeek:           make(map[string]string, len(dates)),
		WeekToDays:          make(map[string][]string),
		Weekly:              []models.WeeklyBucket{},
		WeeklyUsers:         []models.SeriesPoint{},
		WeeklyConversations: []models.SeriesPoint{},
	}

	type weekAcc struct {
		users         *models.IdentitySet
		conversations int
	}
	weeks := make(map[string]*weekAcc)
	var weekOrder []string

	for _, date := range dates {
		acc := days[date]
		out.Daily = append(out.Daily, models.DailyBucket{
			Date:          date,
			ActiveUsers:   acc.users.Len(),
			Conversations: acc.conversations,
			Projects:      acc.projects,
		})
		out.DailyUsers = append(out.DailyUsers, models.SeriesPoint{Date: date, Value: acc.users.Len()})
		out.DailyConversations = append(out.DailyConversations, models.SeriesPoint{Date: date, Value: acc.conversations})
		out.DailyProjects = append(out.DailyProjects, models.SeriesPoint{Date: date, Value: acc.projects})

		start, err := WeekStart(date)
		if err != nil {
			continue
		}
		out.DayToWeek[date] = start
		out.WeekToDays[start] = append(out.WeekToDays[start], date)

		w, ok := weeks[start]
		if !ok {
			w = &weekAcc{users: models.NewIdentitySet()}
			weeks[start] = w
			weekOrder = append(weekOrder, start)
		}
		w.users.Union(acc.users)
		w.conversations += acc.conversations
	}

	// dates were sorted, so weekOrder already is
	for _, start := range weekOrder {
		w := weeks[start]
		info := weekInfo(start)
		out.Weekly = append(out.Weekly, models.WeeklyBucket{
			WeekStart:        start,
			WeekEnd:          info.end,
			WeekNumber:       info.number,
			WeekRange:        info.label,
			ActiveUsers:      w.users.Len(),
			DaysWithActivity: len(out.WeekToDays[start]),
			Conversations:    w.conversations,
			UserKeys:         w.users.Keys(a.index),
		})
		out.WeeklyUsers = append(out.WeeklyUsers, models.SeriesPoint{
			Date: start, WeekNumber: info.number, WeekRange: info.label, Value: w.users.Len(),
		})
		out.WeeklyConversations = append(out.WeeklyConversations, models.SeriesPoint{
			Date: start, WeekNumber: info.number, WeekRange: info.label, Value: w.conversations,
		})
	}

	return out
}

// countsAsUser reports whether a record feeds unique-user sets: any
// resolved non-roster record that is not the service account.
func countsAsUser(rec *models.ActivityRecord) bool {
	return rec.Kind != models.KindUserRoster && !rec.ServiceAccount && !rec.Identity.IsZero()
}

// WeekStart returns the Sunday on or before the given calendar day.
func WeekStart(date string) (string, error) {
	d, err := time.Parse(models.DateLayout, date)
	if err != nil {
		return "", fmt.Errorf("parse date %q: %w", date, err)
	}
	return d.AddDate(0, 0, -int(d.Weekday())).Format(models.DateLayout), nil
}

type week struct {
	end    string
	number int
	label  string
}

func weekInfo(start string) week {
	d, err := time.Parse(models.DateLayout, start)
	if err != nil {
		return week{}
	}
	end := d.AddDate(0, 0, 6)
	return week{
		end:    end.Format(models.DateLayout),
		number: WeekNumber(d),
		label:  fmt.Sprintf("%d/%d-%d/%d", int(d.Month()), d.Day(), int(end.Month()), end.Day()),
	}
}

// WeekNumber is ceil((dayOfYear0 + jan1Weekday + 1) / 7). No cross-year
// adjustment: a week starting late in December keeps that year's number.
func WeekNumber(d time.Time) int {
	jan1 := time.Date(d.Year(), time.January, 1, 0, 0, 0, 0, time.UTC)
	dayOfYear0 := d.YearDay() - 1
	return (dayOfYear0 + int(jan1.Weekday()) + 1 + 6) / 7
}
