package models

import "time"

// DateLayout is the calendar-day key format used by every bucket.
const DateLayout = "2006-01-02"

type DailyBucket struct {
	Date          string `json:"date"`
	ActiveUsers   int    `json:"active_users"`
	Conversations int    `json:"conversations"`
	Projects      int    `json:"projects"`
}

type WeeklyBucket struct {
	WeekStart        string        `json:"week_start"`
	WeekEnd          string        `json:"week_end"`
	WeekNumber       int           `json:"week_number"`
	WeekRange        string        `json:"week_range"`
	ActiveUsers      int           `json:"active_users"`
	DaysWithActivity int           `json:"days_with_activity"`
	Conversations    int           `json:"conversations"`
	UserKeys         []IdentityKey `json:"user_keys"`
}

// SeriesPoint is one chart point of a daily or weekly series.
type SeriesPoint struct {
	Date       string `json:"date"`
	WeekNumber int    `json:"week_number,omitempty"`
	WeekRange  string `json:"week_range,omitempty"`
	Value      int    `json:"value"`
}

type ProjectSummary struct {
	ID              string      `json:"id"`
	Name            string      `json:"name"`
	CreatorKey      IdentityKey `json:"creator_key"`
	CreatorName     string      `json:"creator_name"`
	DocumentCount   int         `json:"document_count"`
	IsPrivate       bool        `json:"is_private"`
	CreatedAt       time.Time   `json:"created_at"`
	Conversations   int         `json:"conversations"`
	Conversations7d int         `json:"conversations_7d"`
	Conversations30 int         `json:"conversations_30d"`
}

// UserConversationSummary is the per-user conversation breakdown of real users.
type UserConversationSummary struct {
	Key             IdentityKey `json:"key"`
	Name            string      `json:"name"`
	Conversations   int         `json:"conversations"`
	Conversations7d int         `json:"conversations_7d"`
	Conversations30 int         `json:"conversations_30d"`
}

type Totals struct {
	Users         int `json:"users"`
	Conversations int `json:"conversations"`
	Projects      int `json:"projects"`
	Documents     int `json:"documents"`
}

// WindowCounts is one scalar measured over the short window, the long window
// and all time.
type WindowCounts struct {
	Last7Days  int `json:"last_7_days"`
	Last30Days int `json:"last_30_days"`
	AllTime    int `json:"all_time"`
}

type Windows struct {
	Users                    WindowCounts `json:"users"`
	Conversations            WindowCounts `json:"conversations"`
	Projects                 WindowCounts `json:"projects"`
	ProjectsWithConversation WindowCounts `json:"projects_with_conversations"`
}

type Cutoffs struct {
	Now          time.Time `json:"now"`
	SevenDaysAgo time.Time `json:"seven_days_ago"`
	ThirtyAgo    time.Time `json:"thirty_days_ago"`
}

// Diagnostics counts locally recovered problems of one run.
type Diagnostics struct {
	RowsIn             int `json:"rows_in"`
	RowsDropped        int `json:"rows_dropped"`
	TimestampFallbacks int `json:"timestamp_fallbacks"`
	MalformedMetadata  int `json:"malformed_metadata"`
	SyntheticRecords   int `json:"synthetic_records"`
	ServiceRecords     int `json:"service_records"`
}

// Metrics is the immutable snapshot of one full computation. Consumers must
// treat every field as read-only; a new run publishes a new value.
type Metrics struct {
	Digest     string    `json:"digest"`
	ComputedAt time.Time `json:"computed_at"`
	Cutoffs    Cutoffs   `json:"cutoffs"`

	Users     []*UserProfile `json:"users"`
	RealUsers []*UserProfile `json:"real_users"`

	Daily  []DailyBucket  `json:"daily"`
	Weekly []WeeklyBucket `json:"weekly"`

	DailyUsers          []SeriesPoint `json:"daily_users"`
	WeeklyUsers         []SeriesPoint `json:"weekly_users"`
	DailyConversations  []SeriesPoint `json:"daily_conversations"`
	WeeklyConversations []SeriesPoint `json:"weekly_conversations"`
	DailyProjects       []SeriesPoint `json:"daily_projects"`

	Totals            Totals                    `json:"totals"`
	Windows           Windows                   `json:"windows"`
	Projects          []ProjectSummary          `json:"projects"`
	UserConversations []UserConversationSummary `json:"user_conversations"`

	DayToWeek  map[string]string   `json:"day_to_week"`
	WeekToDays map[string][]string `json:"week_to_days"`

	HasConversationData bool `json:"has_conversation_data"`
	HasProjectData      bool `json:"has_project_data"`
	HasUserData         bool `json:"has_user_data"`

	// Conversations is the resolved conversation set the drill-down reads.
	Conversations []ActivityRecord `json:"conversations"`

	Diagnostics Diagnostics `json:"diagnostics"`
}

// Profile looks a user up by identity key.
func (m *Metrics) Profile(key IdentityKey) (*UserProfile, bool) {
	for _, p := range m.Users {
		if p.Key == key {
			return p, true
		}
	}
	return nil, false
}
