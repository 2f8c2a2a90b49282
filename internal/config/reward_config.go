package config

import "time"

const (
	// Points
	PointsPerSubmission = 20
	PointsPerResolved   = 70

	// Levels
	BronzeThreshold = 500
	SilverThreshold = 800
	GoldThreshold   = 1000

	// Badges
	FirstReportThreshold          = 1
	ConsistentReporterThreshold   = 5
	NeighborhoodWatchdogThreshold = 10
	CommunityChampionRank         = 5

	// Dashboards
	TrendMonths          = 6
	TopLocationsLimit    = 5
	RecentComplaintLimit = 5
	LeaderboardLimit     = 10
)

// Uploads
const (
	DefaultMaxUploadMB = 10
	UploadRetention    = 24 * time.Hour
)

var AllowedImageTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}
