// Package filter derives the ordered subset of complaints a view shows.
// Everything here is a pure function of the input list and the criteria.
package filter

import (
	"net/url"
	"sort"
	"strings"
	"time"

	"cleantrack/backend/internal/apperr"
	"cleantrack/backend/internal/models"
)

const All = "all"

// DateRange limits complaints by submission time using calendar boundaries.
type DateRange string

const (
	AnyDate   DateRange = ""
	Today     DateRange = "today"
	ThisWeek  DateRange = "this-week"
	ThisMonth DateRange = "this-month"
)

type SortKey string

const (
	Unsorted   SortKey = ""
	Newest     SortKey = "newest"
	Oldest     SortKey = "oldest"
	ByPriority SortKey = "priority"
)

// Criteria is the filter state of a list view. Zero values disable a filter.
type Criteria struct {
	Query string
	// Status is empty, "all" or one canonical status.
	Status     string
	DateRange  DateRange
	Category   string
	ReporterID string
	Sort       SortKey
	// Now anchors the date ranges; time.Now is used when zero.
	Now time.Time
}

// Apply returns the complaints matching every active filter. The input
// slice is never modified; the result keeps input order unless Sort is set.
func Apply(complaints []models.Complaint, c Criteria) []models.Complaint {
	now := c.Now
	if now.IsZero() {
		now = time.Now()
	}
	from, to := c.DateRange.bounds(now)
	query := strings.ToLower(strings.TrimSpace(c.Query))

	out := make([]models.Complaint, 0, len(complaints))
	for _, cp := range complaints {
		if c.Status != "" && c.Status != All && string(cp.Status) != c.Status {
			continue
		}
		if c.Category != "" && !strings.EqualFold(c.Category, All) && !strings.EqualFold(cp.Category, c.Category) {
			continue
		}
		if c.ReporterID != "" && cp.ReportedByID != c.ReporterID {
			continue
		}
		if !from.IsZero() && (cp.SubmittedAt.Before(from) || !cp.SubmittedAt.Before(to)) {
			continue
		}
		if query != "" && !matchesQuery(cp, query) {
			continue
		}
		out = append(out, cp)
	}

	sortComplaints(out, c.Sort)
	return out
}

// matchesQuery is a case-insensitive substring match over the searchable fields.
func matchesQuery(c models.Complaint, q string) bool {
	for _, field := range []string{c.Title, c.Description, c.Location, c.ReporterName} {
		if strings.Contains(strings.ToLower(field), q) {
			return true
		}
	}
	return false
}

func sortComplaints(list []models.Complaint, key SortKey) {
	switch key {
	case Newest:
		sort.SliceStable(list, func(i, j int) bool { return list[i].SubmittedAt.After(list[j].SubmittedAt) })
	case Oldest:
		sort.SliceStable(list, func(i, j int) bool { return list[i].SubmittedAt.Before(list[j].SubmittedAt) })
	case ByPriority:
		sort.SliceStable(list, func(i, j int) bool { return list[i].Priority.Rank() > list[j].Priority.Rank() })
	}
}

// bounds returns the half-open interval [from, to) of the range, or zero
// times for AnyDate. Weeks start on Monday.
func (r DateRange) bounds(now time.Time) (time.Time, time.Time) {
	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	switch r {
	case Today:
		return day, day.AddDate(0, 0, 1)
	case ThisWeek:
		offset := (int(day.Weekday()) + 6) % 7
		start := day.AddDate(0, 0, -offset)
		return start, start.AddDate(0, 0, 7)
	case ThisMonth:
		start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
		return start, start.AddDate(0, 1, 0)
	}
	return time.Time{}, time.Time{}
}

// ParseCriteria reads q, status, date, category and sort query parameters.
func ParseCriteria(v url.Values) (Criteria, error) {
	c := Criteria{
		Query:    v.Get("q"),
		Category: strings.ToLower(strings.TrimSpace(v.Get("category"))),
	}

	if raw := strings.TrimSpace(v.Get("status")); raw != "" && !strings.EqualFold(raw, All) {
		st, ok := models.ParseStatus(raw)
		if !ok {
			return Criteria{}, apperr.Validation("status", "unknown status "+raw)
		}
		c.Status = string(st)
	}

	switch r := DateRange(strings.ToLower(strings.TrimSpace(v.Get("date")))); r {
	case AnyDate, DateRange(All):
	case Today, ThisWeek, ThisMonth:
		c.DateRange = r
	default:
		return Criteria{}, apperr.Validation("date", "must be one of all, today, this-week, this-month")
	}

	switch s := SortKey(strings.ToLower(strings.TrimSpace(v.Get("sort")))); s {
	case Unsorted, Newest, Oldest, ByPriority:
		c.Sort = s
	default:
		return Criteria{}, apperr.Validation("sort", "must be one of newest, oldest, priority")
	}

	return c, nil
}
