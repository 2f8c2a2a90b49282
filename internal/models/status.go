package models

import "strings"

// Status is the lifecycle state of a complaint.
type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in-progress"
	StatusResolved   Status = "resolved"
	StatusRejected   Status = "rejected"
)

// AllStatuses lists the canonical statuses in display order.
var AllStatuses = []Status{StatusPending, StatusInProgress, StatusResolved, StatusRejected}

// ParseStatus maps the spellings used across the old views
// ("inProgress", "in_progress", "In Progress") onto the canonical set.
func ParseStatus(s string) (Status, bool) {
	key := strings.ToLower(strings.TrimSpace(s))
	key = strings.NewReplacer("_", "-", " ", "-").Replace(key)
	switch key {
	case "pending":
		return StatusPending, true
	case "in-progress", "inprogress":
		return StatusInProgress, true
	case "resolved":
		return StatusResolved, true
	case "rejected":
		return StatusRejected, true
	}
	return "", false
}

// Label is the human readable name of the status.
func (s Status) Label() string {
	switch s {
	case StatusPending:
		return "Pending"
	case StatusInProgress:
		return "In Progress"
	case StatusResolved:
		return "Resolved"
	case StatusRejected:
		return "Rejected"
	}
	return string(s)
}

// Priority is an optional urgency attribute of a complaint.
type Priority string

const (
	PriorityNone   Priority = ""
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

func ParsePriority(s string) (Priority, bool) {
	switch Priority(strings.ToLower(strings.TrimSpace(s))) {
	case PriorityNone:
		return PriorityNone, true
	case PriorityLow:
		return PriorityLow, true
	case PriorityMedium:
		return PriorityMedium, true
	case PriorityHigh:
		return PriorityHigh, true
	}
	return "", false
}

// Rank orders priorities; unset sorts after low.
func (p Priority) Rank() int {
	switch p {
	case PriorityHigh:
		return 3
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 1
	}
	return 0
}
