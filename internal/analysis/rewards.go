package analysis

import (
	"sort"

	"cleantrack/backend/internal/config"
	"cleantrack/backend/internal/models"
)

const (
	LevelStandard = "Standard"
	LevelBronze   = "Bronze"
	LevelSilver   = "Silver"
	LevelGold     = "Gold"
)

var levels = []struct {
	name string
	min  int
}{
	{LevelStandard, 0},
	{LevelBronze, config.BronzeThreshold},
	{LevelSilver, config.SilverThreshold},
	{LevelGold, config.GoldThreshold},
}

// LevelFor returns the level reached with points, the next level and the
// points it requires. next is empty at the top level.
func LevelFor(points int) (level, next string, nextAt int) {
	for i := len(levels) - 1; i >= 0; i-- {
		if points >= levels[i].min {
			if i+1 < len(levels) {
				return levels[i].name, levels[i+1].name, levels[i+1].min
			}
			return levels[i].name, "", 0
		}
	}
	return LevelStandard, levels[1].name, levels[1].min
}

type Badge struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Earned      bool   `json:"earned"`
}

type LeaderboardEntry struct {
	Rank      int    `json:"rank"`
	UserID    string `json:"userId"`
	Name      string `json:"name"`
	Points    int    `json:"points"`
	Level     string `json:"level"`
	Submitted int    `json:"submitted"`
	Resolved  int    `json:"resolved"`
}

type Rewards struct {
	UserID         string  `json:"userId"`
	Points         int     `json:"points"`
	Level          string  `json:"level"`
	NextLevel      string  `json:"nextLevel,omitempty"`
	NextLevelAt    int     `json:"nextLevelAt,omitempty"`
	PointsToNext   int     `json:"pointsToNext"`
	Progress       float64 `json:"progress"`
	Submitted      int     `json:"submitted"`
	Resolved       int     `json:"resolved"`
	ResolutionRate float64 `json:"resolutionRate"`
	Rank           int     `json:"rank"`
	Badges         []Badge `json:"badges"`
}

// Leaderboard ranks every citizen by points. Ties are broken by resolved
// count, then by name, so the order is deterministic. Reporters missing from
// citizens still appear under the name recorded on their complaints.
func Leaderboard(citizens []models.User, complaints []models.Complaint) []LeaderboardEntry {
	totals := Totals(complaints)
	for _, u := range citizens {
		if u.Role != models.RoleCitizen {
			continue
		}
		if t, ok := totals[u.ID]; ok {
			t.Name = u.Name
			continue
		}
		totals[u.ID] = &ReporterTotals{UserID: u.ID, Name: u.Name}
	}

	out := make([]LeaderboardEntry, 0, len(totals))
	for _, t := range totals {
		level, _, _ := LevelFor(t.Points)
		out = append(out, LeaderboardEntry{
			UserID:    t.UserID,
			Name:      t.Name,
			Points:    t.Points,
			Level:     level,
			Submitted: t.Submitted,
			Resolved:  t.Resolved,
		})
	}

	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Points != b.Points {
			return a.Points > b.Points
		}
		if a.Resolved != b.Resolved {
			return a.Resolved > b.Resolved
		}
		if a.Name != b.Name {
			return a.Name < b.Name
		}
		return a.UserID < b.UserID
	})
	for i := range out {
		out[i].Rank = i + 1
	}
	return out
}

// RewardsFor computes the rewards summary of one citizen. board must be the
// Leaderboard over the same complaints.
func RewardsFor(userID string, complaints []models.Complaint, board []LeaderboardEntry) Rewards {
	r := Rewards{UserID: userID}
	for _, c := range complaints {
		if c.ReportedByID != userID {
			continue
		}
		r.Submitted++
		if c.Status == models.StatusResolved {
			r.Resolved++
		}
		r.Points += GetWeight(c)
	}
	for _, e := range board {
		if e.UserID == userID {
			r.Rank = e.Rank
			break
		}
	}

	r.Level, r.NextLevel, r.NextLevelAt = LevelFor(r.Points)
	if r.NextLevel != "" {
		r.PointsToNext = r.NextLevelAt - r.Points
		r.Progress = rate(r.Points, r.NextLevelAt)
	} else {
		r.Progress = 1
	}
	r.ResolutionRate = rate(r.Resolved, r.Submitted)

	champion := r.Rank > 0 && r.Rank <= config.CommunityChampionRank && r.Points > 0
	r.Badges = []Badge{
		{Name: "First Report", Description: "Submit your first complaint", Earned: r.Submitted >= config.FirstReportThreshold},
		{Name: "Consistent Reporter", Description: "Submit 5 valid complaints", Earned: r.Submitted >= config.ConsistentReporterThreshold},
		{Name: "Neighborhood Watchdog", Description: "Submit 10 valid complaints", Earned: r.Submitted >= config.NeighborhoodWatchdogThreshold},
		{Name: "Community Champion", Description: "Reach the top 5 on the leaderboard", Earned: champion},
	}
	return r
}
