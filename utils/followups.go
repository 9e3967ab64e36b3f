package utils

import (
	"sort"
	"time"

	"leadpilot/models"
)

// FollowUpItem is a flattened view of one conversation reminder, denormalized
// with its parent lead for display.
type FollowUpItem struct {
	ID                  string                  `json:"id"`
	LeadID              string                  `json:"leadId"`
	LeadName            string                  `json:"leadName"`
	ConversationID      string                  `json:"conversationId"`
	ConversationType    models.ConversationType `json:"conversationType"`
	ConversationSummary string                  `json:"conversationSummary"`
	FollowUpDate        time.Time               `json:"followUpDate"`
}

// CategorizedFollowUps buckets upcoming reminders by day distance from today.
type CategorizedFollowUps struct {
	Today    []FollowUpItem `json:"today"`
	Tomorrow []FollowUpItem `json:"tomorrow"`
	Later    []FollowUpItem `json:"later"`
}

// DashboardStats are the aggregate counters shown on the dashboard.
type DashboardStats struct {
	TotalLeads     int           `json:"totalLeads"`
	ConvertedLeads int           `json:"convertedLeads"`
	LostLeads      int           `json:"lostLeads"`
	ConversionRate float64       `json:"conversionRate"`
	LeadsByStatus  []StatusCount `json:"leadsByStatusData"`
}

// StatusCount is one bar of the leads-by-status breakdown.
type StatusCount struct {
	Name  models.LeadStatus `json:"name"`
	Count int               `json:"count"`
}

// BuildFollowUpList flattens all conversations with a reminder across all
// leads, keeps only reminders due today or later (day granularity, time of
// day ignored) and sorts them ascending by date. Comparison happens in now's
// location.
func BuildFollowUpList(leads []models.Lead, now time.Time) []FollowUpItem {
	today := startOfDay(now, now.Location())

	items := []FollowUpItem{}
	for _, lead := range leads {
		for _, convo := range lead.Conversations {
			if convo.FollowUpReminderDate == nil {
				continue
			}
			day := startOfDay(*convo.FollowUpReminderDate, now.Location())
			if day.Before(today) {
				continue
			}
			items = append(items, newFollowUpItem(lead, convo, day))
		}
	}

	sort.SliceStable(items, func(i, j int) bool {
		return items[i].FollowUpDate.Before(items[j].FollowUpDate)
	})
	return items
}

// CategorizeFollowUps splits an already filtered and sorted follow-up list
// into Today / Tomorrow / Later buckets.
func CategorizeFollowUps(items []FollowUpItem, now time.Time) CategorizedFollowUps {
	today := startOfDay(now, now.Location())
	tomorrow := today.AddDate(0, 0, 1)

	categorized := CategorizedFollowUps{
		Today:    []FollowUpItem{},
		Tomorrow: []FollowUpItem{},
		Later:    []FollowUpItem{},
	}
	for _, item := range items {
		switch {
		case item.FollowUpDate.Equal(today):
			categorized.Today = append(categorized.Today, item)
		case item.FollowUpDate.Equal(tomorrow):
			categorized.Tomorrow = append(categorized.Tomorrow, item)
		default:
			categorized.Later = append(categorized.Later, item)
		}
	}
	return categorized
}

// GroupFollowUpsByDay keys every reminder (past ones included) by its
// calendar day in yyyy-mm-dd form, for the calendar view.
func GroupFollowUpsByDay(leads []models.Lead, loc *time.Location) map[string][]FollowUpItem {
	grouped := map[string][]FollowUpItem{}
	for _, lead := range leads {
		for _, convo := range lead.Conversations {
			if convo.FollowUpReminderDate == nil {
				continue
			}
			day := startOfDay(*convo.FollowUpReminderDate, loc)
			key := day.Format("2006-01-02")
			grouped[key] = append(grouped[key], newFollowUpItem(lead, convo, day))
		}
	}
	return grouped
}

// ComputeDashboardStats derives the dashboard counters from the full lead
// list. ConversionRate is 0 when there are no leads.
func ComputeDashboardStats(leads []models.Lead) DashboardStats {
	stats := DashboardStats{
		TotalLeads:    len(leads),
		LeadsByStatus: make([]StatusCount, 0, len(models.LeadStatuses)),
	}

	countByStatus := map[models.LeadStatus]int{}
	for _, lead := range leads {
		countByStatus[lead.Status]++
	}
	stats.ConvertedLeads = countByStatus[models.StatusConverted]
	stats.LostLeads = countByStatus[models.StatusLost]
	if stats.TotalLeads > 0 {
		stats.ConversionRate = float64(stats.ConvertedLeads) / float64(stats.TotalLeads) * 100
	}

	for _, status := range models.LeadStatuses {
		stats.LeadsByStatus = append(stats.LeadsByStatus, StatusCount{
			Name:  status,
			Count: countByStatus[status],
		})
	}
	return stats
}

func newFollowUpItem(lead models.Lead, convo models.Conversation, day time.Time) FollowUpItem {
	return FollowUpItem{
		ID:                  lead.ID.Hex() + "-" + convo.ID,
		LeadID:              lead.ID.Hex(),
		LeadName:            lead.Name,
		ConversationID:      convo.ID,
		ConversationType:    convo.Type,
		ConversationSummary: convo.Summary,
		FollowUpDate:        day,
	}
}

func startOfDay(t time.Time, loc *time.Location) time.Time {
	local := t.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
}
