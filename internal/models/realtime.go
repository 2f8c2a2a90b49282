package models

import "time"

// EventType names what happened to a complaint.
type EventType string

const (
	EventComplaintSubmitted EventType = "complaint_submitted"
	EventStatusUpdated      EventType = "status_updated"
)

// Event is pushed to live feed subscribers and notifiers.
type Event struct {
	Type        EventType `json:"type"`
	ComplaintID string    `json:"complaintId"`
	Title       string    `json:"title"`
	ReporterID  string    `json:"reporterId"`
	Status      Status    `json:"status"`
	Note        *Note     `json:"note,omitempty"`
	At          time.Time `json:"at"`
}

// NewEvent builds an event snapshot of the complaint.
func NewEvent(t EventType, c *Complaint, at time.Time) Event {
	return Event{
		Type:        t,
		ComplaintID: c.ID,
		Title:       c.Title,
		ReporterID:  c.ReportedByID,
		Status:      c.Status,
		Note:        c.LatestNote(),
		At:          at,
	}
}
