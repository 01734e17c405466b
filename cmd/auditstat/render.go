package main

import (
	"auditstat/internal/models"
	"fmt"
	"io"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

const projectsShown = 10

func newTable(title string) table.Writer {
	tw := table.NewWriter()
	if title != "" {
		tw.SetTitle(title)
	}
	tw.SetStyle(table.StyleLight)
	return tw
}

func write(w io.Writer, tw table.Writer) error {
	_, err := fmt.Fprintln(w, tw.Render())
	return err
}

func renderReport(w io.Writer, m *models.Metrics) error {
	fmt.Fprintf(w, "Snapshot %s computed at %s\n", m.Digest, m.ComputedAt.Format(time.RFC3339))

	totals := newTable("Totals")
	totals.AppendHeader(table.Row{"Metric", "Last 7 days", "Last 30 days", "All time"})
	for _, r := range []struct {
		name string
		c    models.WindowCounts
	}{
		{"Active users", m.Windows.Users},
		{"Conversations", m.Windows.Conversations},
		{"Projects", m.Windows.Projects},
		{"Projects with conversations", m.Windows.ProjectsWithConversation},
	} {
		totals.AppendRow(table.Row{r.name, r.c.Last7Days, r.c.Last30Days, r.c.AllTime})
	}
	totals.AppendFooter(table.Row{"Documents", "", "", m.Totals.Documents})
	if err := write(w, totals); err != nil {
		return err
	}

	if len(m.Weekly) > 0 {
		weekly := newTable("Weekly activity")
		weekly.AppendHeader(table.Row{"Week", "Range", "Active users", "Days active", "Conversations"})
		for _, b := range m.Weekly {
			weekly.AppendRow(table.Row{fmt.Sprintf("W%d", b.WeekNumber), b.WeekRange, b.ActiveUsers, b.DaysWithActivity, b.Conversations})
		}
		if err := write(w, weekly); err != nil {
			return err
		}
	}

	if m.HasProjectData {
		projects := newTable("Recent projects")
		projects.AppendHeader(table.Row{"Project", "Creator", "Docs", "Conversations", "Private", "Created"})
		for i, p := range m.Projects {
			if i == projectsShown {
				projects.AppendFooter(table.Row{fmt.Sprintf("+%d more", len(m.Projects)-projectsShown)})
				break
			}
			projects.AppendRow(table.Row{p.Name, p.CreatorName, p.DocumentCount, p.Conversations, p.IsPrivate, p.CreatedAt.Format(models.DateLayout)})
		}
		if err := write(w, projects); err != nil {
			return err
		}
	}

	if len(m.UserConversations) > 0 {
		uc := newTable("Conversations per user")
		uc.AppendHeader(table.Row{"User", "7d", "30d", "All time"})
		for _, u := range m.UserConversations {
			uc.AppendRow(table.Row{u.Name, u.Conversations7d, u.Conversations30, u.Conversations})
		}
		if err := write(w, uc); err != nil {
			return err
		}
	}

	d := m.Diagnostics
	if d.RowsDropped+d.TimestampFallbacks+d.MalformedMetadata+d.SyntheticRecords > 0 {
		fmt.Fprintf(w, "Recovered: %d dropped rows, %d timestamp fallbacks, %d malformed metadata, %d unresolved identities\n",
			d.RowsDropped, d.TimestampFallbacks, d.MalformedMetadata, d.SyntheticRecords)
	}
	return nil
}

func renderParticipants(w io.Writer, period models.Period, participants []models.Participant) error {
	tw := newTable(fmt.Sprintf("Conversations on %s %s", period.Kind, period.Date))
	tw.AppendHeader(table.Row{"User", "Conversations"})
	total := 0
	for _, p := range participants {
		tw.AppendRow(table.Row{p.UserName, p.ConversationCount})
		total += p.ConversationCount
	}
	tw.AppendFooter(table.Row{fmt.Sprintf("%d users", len(participants)), total})
	tw.SetColumnConfigs([]table.ColumnConfig{{Number: 2, Align: text.AlignRight}})
	return write(w, tw)
}

func renderUsers(w io.Writer, users []*models.UserProfile) error {
	tw := newTable("Users")
	tw.AppendHeader(table.Row{"Name", "Email", "Conversations", "Projects", "Files", "Last seen"})
	for _, u := range users {
		lastSeen := "-"
		if u.LastSeen != nil {
			lastSeen = u.LastSeen.Format(time.DateTime)
		}
		name := u.DisplayName
		if u.IsServiceAccount {
			name += " (service)"
		}
		tw.AppendRow(table.Row{name, u.Email, u.Conversations, u.Projects, u.Files, lastSeen})
	}
	return write(w, tw)
}
