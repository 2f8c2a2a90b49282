package complaint

import (
	"strings"
	"time"

	"cleantrack/backend/internal/apperr"
	"cleantrack/backend/internal/models"
)

func validStatus(s models.Status) bool {
	for _, known := range models.AllStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// NewStatusNote checks the transition preconditions and builds its audit note.
func NewStatusNote(status models.Status, text string, actor *models.Identity, now time.Time) (models.Note, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return models.Note{}, apperr.Validation("note", "a note explaining the update is required")
	}
	if !actor.IsOfficial() {
		return models.Note{}, apperr.Forbidden("only officials can update complaint status")
	}
	if !validStatus(status) {
		return models.Note{}, apperr.Validation("status", "unknown status "+string(status))
	}

	return models.Note{
		Text:            text,
		Timestamp:       now,
		AuthorID:        actor.ID,
		AuthorName:      actor.Name,
		ResultingStatus: status,
	}, nil
}

// NewComplaint validates a citizen draft and builds the pending complaint.
func NewComplaint(d models.Draft, actor *models.Identity, now time.Time) (*models.Complaint, error) {
	if !actor.IsCitizen() {
		return nil, apperr.Forbidden("only citizens can submit complaints")
	}

	title := strings.TrimSpace(d.Title)
	description := strings.TrimSpace(d.Description)
	switch {
	case title == "":
		return nil, apperr.Validation("title", "is required")
	case description == "":
		return nil, apperr.Validation("description", "is required")
	case strings.TrimSpace(d.Location) == "":
		return nil, apperr.Validation("location", "is required")
	}

	images := make([]string, 0, len(d.Images))
	for _, ref := range d.Images {
		if ref = strings.TrimSpace(ref); ref != "" {
			images = append(images, ref)
		}
	}
	if len(images) == 0 {
		return nil, apperr.Validation("images", "at least one image is required")
	}

	priority, ok := models.ParsePriority(d.Priority)
	if !ok {
		return nil, apperr.Validation("priority", "must be low, medium or high")
	}

	category := strings.ToLower(strings.TrimSpace(d.Category))
	if category == "" {
		category = models.DefaultCategory
	}

	loc := models.ParseLocation(d.Location)
	return &models.Complaint{
		Title:        title,
		Description:  description,
		Location:     loc.Text,
		Latitude:     loc.Latitude,
		Longitude:    loc.Longitude,
		Category:     category,
		Images:       images,
		Status:       models.StatusPending,
		Priority:     priority,
		SubmittedAt:  now,
		UpdatedAt:    now,
		ReportedByID: actor.ID,
		ReporterName: actor.Name,
		Notes:        []models.Note{},
	}, nil
}
