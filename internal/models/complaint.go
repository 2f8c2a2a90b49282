package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

// DefaultCategory is used when a submission does not name one.
const DefaultCategory = "general"

// KnownCategories are the categories offered by the submission form.
// Complaints may carry others.
var KnownCategories = []string{
	DefaultCategory, "garbage", "lighting", "roads", "graffiti", "vegetation", "parks", "water",
}

// IsKnownCategory reports whether category is one of KnownCategories.
func IsKnownCategory(category string) bool {
	for _, k := range KnownCategories {
		if k == category {
			return true
		}
	}
	return false
}

// Complaint is a citizen report of a cleanliness or infrastructure issue.
// It is only ever changed by appending notes; Status mirrors the last note.
type Complaint struct {
	ID          string `gorm:"primaryKey" json:"id"`
	Title       string `gorm:"size:255;not null" json:"title"`
	Description string `gorm:"type:text;not null" json:"description"`
	// Location is free text or a "lat, lng" pair.
	Location  string   `gorm:"type:text;not null" json:"location"`
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
	Category  string   `gorm:"size:50;not null;index" json:"category"`
	// Images keeps the upload references in submission order.
	Images       pq.StringArray `gorm:"type:text[]" json:"images"`
	Status       Status         `gorm:"size:20;not null;index" json:"status"`
	Priority     Priority       `gorm:"size:10" json:"priority,omitempty"`
	SubmittedAt  time.Time      `gorm:"not null;index" json:"submittedAt"`
	ReportedByID string         `gorm:"not null;index" json:"reportedBy"`
	ReporterName string         `gorm:"size:255" json:"reporterName"`
	// Version increases with every appended note.
	Version   int       `gorm:"not null;default:0" json:"version"`
	UpdatedAt time.Time `json:"updatedAt"`
	Notes     []Note    `gorm:"foreignKey:ComplaintID;references:ID" json:"notes"`
}

func (c *Complaint) BeforeCreate(tx *gorm.DB) (err error) {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	return
}

// CurrentStatus derives the status from the audit trail.
func (c *Complaint) CurrentStatus() Status {
	if len(c.Notes) == 0 {
		return StatusPending
	}
	return c.Notes[len(c.Notes)-1].ResultingStatus
}

// ApplyNote appends n to the audit trail and moves the complaint to the
// status the trail ends in. Timestamps strictly increase along the trail at
// microsecond resolution, so n is moved just past the latest note when it
// was stamped earlier. The stored note is returned.
func (c *Complaint) ApplyNote(n Note) Note {
	if last := c.LatestNote(); last != nil && !n.Timestamp.Truncate(time.Microsecond).After(last.Timestamp) {
		n.Timestamp = last.Timestamp.Add(time.Microsecond)
	}
	n.ComplaintID = c.ID
	c.Notes = append(c.Notes, n)
	c.Status = c.CurrentStatus()
	c.Version++
	c.UpdatedAt = n.Timestamp
	return n
}

// LatestNote returns the most recent note, or nil if there is none.
func (c *Complaint) LatestNote() *Note {
	if len(c.Notes) == 0 {
		return nil
	}
	return &c.Notes[len(c.Notes)-1]
}

// Clone returns a copy that shares no slices with c.
func (c *Complaint) Clone() *Complaint {
	out := *c
	if c.Images != nil {
		out.Images = append(pq.StringArray(nil), c.Images...)
	}
	if c.Notes != nil {
		out.Notes = append([]Note(nil), c.Notes...)
	}
	if c.Latitude != nil {
		lat := *c.Latitude
		out.Latitude = &lat
	}
	if c.Longitude != nil {
		lng := *c.Longitude
		out.Longitude = &lng
	}
	return &out
}

// Draft is the citizen-provided part of a new complaint.
type Draft struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Location    string   `json:"location"`
	Category    string   `json:"category"`
	Priority    string   `json:"priority"`
	Images      []string `json:"images"`
}
