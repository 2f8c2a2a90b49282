// Package analysis derives rewards, the leaderboard and dashboard statistics
// from complaint history. Nothing here is persisted; every value is
// recomputed from the complaint list on each read.
package analysis

import (
	"cleantrack/backend/internal/config"
	"cleantrack/backend/internal/models"
)

// GetWeight returns the points a single complaint earns its reporter:
// a fixed amount for submitting it plus a bonus once it is resolved.
func GetWeight(c models.Complaint) int {
	points := config.PointsPerSubmission
	if c.Status == models.StatusResolved {
		points += config.PointsPerResolved
	}
	return points
}

// ReporterTotals aggregates the complaints of one reporter.
type ReporterTotals struct {
	UserID    string
	Name      string
	Submitted int
	Resolved  int
	Points    int
}

// Totals groups complaints by reporter.
func Totals(complaints []models.Complaint) map[string]*ReporterTotals {
	out := make(map[string]*ReporterTotals)
	for _, c := range complaints {
		t, ok := out[c.ReportedByID]
		if !ok {
			t = &ReporterTotals{UserID: c.ReportedByID, Name: c.ReporterName}
			out[c.ReportedByID] = t
		}
		t.Submitted++
		if c.Status == models.StatusResolved {
			t.Resolved++
		}
		t.Points += GetWeight(c)
	}
	return out
}

func rate(part, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(part) / float64(total)
}
