package analysis

import (
	"sort"
	"strings"
	"time"

	"cleantrack/backend/internal/config"
	"cleantrack/backend/internal/filter"
	"cleantrack/backend/internal/models"
)

type StatusCount struct {
	Status models.Status `json:"status"`
	Label  string        `json:"label"`
	Count  int           `json:"count"`
}

type MonthlyTrend struct {
	Month     string `json:"month"`
	Label     string `json:"label"`
	Submitted int    `json:"submitted"`
	Resolved  int    `json:"resolved"`
}

type LocationCount struct {
	Location string `json:"location"`
	Count    int    `json:"count"`
}

type OfficialStats struct {
	Total          int                `json:"total"`
	ByStatus       []StatusCount      `json:"byStatus"`
	ResolutionRate float64            `json:"resolutionRate"`
	Trend          []MonthlyTrend     `json:"trend"`
	TopLocations   []LocationCount    `json:"topLocations"`
	Recent         []models.Complaint `json:"recent"`
}

type CitizenStats struct {
	Total    int                `json:"total"`
	ByStatus []StatusCount      `json:"byStatus"`
	Recent   []models.Complaint `json:"recent"`
	Rewards  Rewards            `json:"rewards"`
}

func countByStatus(complaints []models.Complaint) []StatusCount {
	counts := make(map[models.Status]int, len(models.AllStatuses))
	for _, c := range complaints {
		counts[c.Status]++
	}
	out := make([]StatusCount, 0, len(models.AllStatuses))
	for _, st := range models.AllStatuses {
		out = append(out, StatusCount{Status: st, Label: st.Label(), Count: counts[st]})
	}
	return out
}

func recent(complaints []models.Complaint, now time.Time) []models.Complaint {
	sorted := filter.Apply(complaints, filter.Criteria{Sort: filter.Newest, Now: now})
	if len(sorted) > config.RecentComplaintLimit {
		sorted = sorted[:config.RecentComplaintLimit]
	}
	return sorted
}

// resolvedAt is the time of the note that last moved c to resolved.
func resolvedAt(c models.Complaint) (time.Time, bool) {
	if c.Status != models.StatusResolved {
		return time.Time{}, false
	}
	for i := len(c.Notes) - 1; i >= 0; i-- {
		if c.Notes[i].ResultingStatus == models.StatusResolved {
			return c.Notes[i].Timestamp, true
		}
	}
	return c.UpdatedAt, !c.UpdatedAt.IsZero()
}

// MonthlyTrends counts submissions and resolutions for the last months
// months, oldest first, in now's location.
func MonthlyTrends(complaints []models.Complaint, now time.Time, months int) []MonthlyTrend {
	loc := now.Location()
	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, loc).AddDate(0, -(months - 1), 0)

	out := make([]MonthlyTrend, months)
	index := make(map[string]int, months)
	for i := range out {
		m := first.AddDate(0, i, 0)
		key := m.Format("2006-01")
		out[i] = MonthlyTrend{Month: key, Label: m.Format("Jan")}
		index[key] = i
	}

	for _, c := range complaints {
		if i, ok := index[c.SubmittedAt.In(loc).Format("2006-01")]; ok {
			out[i].Submitted++
		}
		if at, ok := resolvedAt(c); ok {
			if i, ok := index[at.In(loc).Format("2006-01")]; ok {
				out[i].Resolved++
			}
		}
	}
	return out
}

// TopLocations returns the most reported locations. Locations are compared
// case-insensitively; the first spelling seen is reported.
func TopLocations(complaints []models.Complaint, limit int) []LocationCount {
	counts := make(map[string]*LocationCount)
	var order []string
	for _, c := range complaints {
		key := strings.ToLower(strings.TrimSpace(c.Location))
		if key == "" {
			continue
		}
		lc, ok := counts[key]
		if !ok {
			lc = &LocationCount{Location: strings.TrimSpace(c.Location)}
			counts[key] = lc
			order = append(order, key)
		}
		lc.Count++
	}

	out := make([]LocationCount, 0, len(order))
	for _, key := range order {
		out = append(out, *counts[key])
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Count > out[j].Count })
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

func OfficialDashboard(complaints []models.Complaint, now time.Time) OfficialStats {
	byStatus := countByStatus(complaints)
	resolved := 0
	for _, sc := range byStatus {
		if sc.Status == models.StatusResolved {
			resolved = sc.Count
		}
	}
	return OfficialStats{
		Total:          len(complaints),
		ByStatus:       byStatus,
		ResolutionRate: rate(resolved, len(complaints)),
		Trend:          MonthlyTrends(complaints, now, config.TrendMonths),
		TopLocations:   TopLocations(complaints, config.TopLocationsLimit),
		Recent:         recent(complaints, now),
	}
}

// CitizenDashboard summarizes the complaints reported by userID.
func CitizenDashboard(userID string, all []models.Complaint, board []LeaderboardEntry, now time.Time) CitizenStats {
	own := filter.Apply(all, filter.Criteria{ReporterID: userID, Now: now})
	return CitizenStats{
		Total:    len(own),
		ByStatus: countByStatus(own),
		Recent:   recent(own, now),
		Rewards:  RewardsFor(userID, own, board),
	}
}
