package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Note is an append-only audit entry recording one status transition.
type Note struct {
	ID              string    `gorm:"primaryKey" json:"id"`
	ComplaintID     string    `gorm:"not null;index:idx_note_complaint_ts,priority:1" json:"complaintId"`
	Text            string    `gorm:"type:text;not null" json:"text"`
	Timestamp       time.Time `gorm:"not null;index:idx_note_complaint_ts,priority:2" json:"timestamp"`
	AuthorID        string    `gorm:"index" json:"authorId"`
	AuthorName      string    `gorm:"size:255" json:"authorName"`
	ResultingStatus Status    `gorm:"size:20;not null" json:"resultingStatus"`
}

func (n *Note) BeforeCreate(tx *gorm.DB) (err error) {
	if n.ID == "" {
		n.ID = uuid.New().String()
	}
	return
}
