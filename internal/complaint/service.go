// Package complaint implements the complaint lifecycle: citizen submission,
// official status updates with an append-only note trail, and the events
// both produce.
package complaint

import (
	"context"
	"errors"
	"log"
	"time"

	"cleantrack/backend/internal/apperr"
	"cleantrack/backend/internal/filter"
	"cleantrack/backend/internal/media"
	"cleantrack/backend/internal/models"
	"cleantrack/backend/internal/storage"
)

// Publisher receives lifecycle events once the change is stored.
type Publisher interface {
	Publish(ctx context.Context, ev models.Event) error
}

// MultiPublisher fans an event out to several publishers. A failing
// publisher does not stop the others.
type MultiPublisher []Publisher

func (m MultiPublisher) Publish(ctx context.Context, ev models.Event) error {
	var errs []error
	for _, p := range m {
		if p == nil {
			continue
		}
		if err := p.Publish(ctx, ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Uploads holds the images drafts reference. Files belong to their uploader.
type Uploads interface {
	CheckOwned(ctx context.Context, refs []string, ownerID string) error
	Release(ctx context.Context, name, ownerID string) error
}

// Service handles the business logic for complaints.
type Service struct {
	Complaints storage.ComplaintRepository
	Guard      storage.InFlightGuard
	Publisher  Publisher
	// Uploads is optional; without it image references are not checked.
	Uploads Uploads
	// AllowRejected enables the "rejected" status for this deployment.
	AllowRejected bool
	Now           func() time.Time
}

// NewService creates a new complaint service with an in-process guard.
func NewService(repo storage.ComplaintRepository, pub Publisher) *Service {
	return &Service{
		Complaints:    repo,
		Guard:         storage.NewMemoryGuard(),
		Publisher:     pub,
		AllowRejected: true,
		Now:           time.Now,
	}
}

func (s *Service) now() time.Time {
	if s.Now == nil {
		return time.Now()
	}
	return s.Now()
}

// acquire takes the in-flight lock; the returned release is always safe to call.
func (s *Service) acquire(ctx context.Context, key string) (func(), error) {
	if s.Guard == nil {
		return func() {}, nil
	}
	return s.Guard.Acquire(ctx, key)
}

// SubmitComplaint validates the draft and stores it as a pending complaint.
// A second submission by the same citizen while one is in flight is rejected.
func (s *Service) SubmitComplaint(ctx context.Context, draft models.Draft, actor *models.Identity) (*models.Complaint, error) {
	c, err := NewComplaint(draft, actor, s.now())
	if err != nil {
		recordError("submit", err)
		return nil, err
	}

	release, err := s.acquire(ctx, "submit:"+actor.ID)
	if err != nil {
		recordError("submit", err)
		return nil, err
	}
	defer release()

	if s.Uploads != nil {
		if err := s.Uploads.CheckOwned(ctx, c.Images, actor.ID); err != nil {
			recordError("submit", err)
			return nil, err
		}
	}

	created, err := s.Complaints.Create(ctx, c)
	if err != nil {
		err = mapStorageError("save complaint", "", err)
		recordError("submit", err)
		return nil, err
	}

	complaintsSubmittedTotal.WithLabelValues(metricCategory(created.Category)).Inc()
	log.Printf("INFO: Complaint %s submitted by %s.", created.ID, actor.ID)
	s.publish(ctx, models.NewEvent(models.EventComplaintSubmitted, created, created.SubmittedAt))
	return created, nil
}

// ReleaseUpload deletes an upload of the actor that no complaint uses. It
// holds the same in-flight key as SubmitComplaint, so a file cannot be
// released while the actor's submission attaching it is being stored.
func (s *Service) ReleaseUpload(ctx context.Context, name string, actor *models.Identity) error {
	if actor == nil {
		return apperr.Forbidden("login required to release uploads")
	}
	if s.Uploads == nil {
		return apperr.NotFound("upload", name)
	}

	release, err := s.acquire(ctx, "submit:"+actor.ID)
	if err != nil {
		return err
	}
	defer release()

	all, err := s.Complaints.List(ctx)
	if err != nil {
		return mapStorageError("load complaints", "", err)
	}
	if media.Referenced(all)[name] {
		return &apperr.ConflictError{Message: "image is attached to a complaint"}
	}
	return s.Uploads.Release(ctx, name, actor.ID)
}

// ApplyStatusUpdate appends a note moving the complaint to rawStatus. When
// expectedVersion is positive the update only applies to that version;
// otherwise the last write wins.
func (s *Service) ApplyStatusUpdate(ctx context.Context, id, rawStatus, text string, actor *models.Identity, expectedVersion int) (*models.Complaint, error) {
	status, ok := models.ParseStatus(rawStatus)
	if !ok {
		status = models.Status(rawStatus)
	}
	note, err := NewStatusNote(status, text, actor, s.now())
	if err == nil {
		err = s.checkEnabled(status)
	}
	if err != nil {
		recordError("update_status", err)
		return nil, err
	}

	release, err := s.acquire(ctx, "status:"+actor.ID+":"+id)
	if err != nil {
		recordError("update_status", err)
		return nil, err
	}
	defer release()

	updated, err := s.Complaints.AppendNote(ctx, id, note, expectedVersion)
	if err != nil {
		err = mapStorageError("update complaint", id, err)
		recordError("update_status", err)
		return nil, err
	}

	statusUpdatesTotal.WithLabelValues(string(status)).Inc()
	log.Printf("INFO: Complaint %s moved to %s by %s.", id, status, actor.ID)
	s.publish(ctx, models.NewEvent(models.EventStatusUpdated, updated, updated.UpdatedAt))
	return updated, nil
}

func (s *Service) checkEnabled(status models.Status) error {
	if status == models.StatusRejected && !s.AllowRejected {
		return apperr.Validation("status", "rejected is not enabled")
	}
	return nil
}

// Statuses lists the statuses officials may choose from.
func (s *Service) Statuses() []models.Status {
	out := make([]models.Status, 0, len(models.AllStatuses))
	for _, st := range models.AllStatuses {
		if st == models.StatusRejected && !s.AllowRejected {
			continue
		}
		out = append(out, st)
	}
	return out
}

func (s *Service) Get(ctx context.Context, id string) (*models.Complaint, error) {
	c, err := s.Complaints.Get(ctx, id)
	if err != nil {
		return nil, mapStorageError("load complaint", id, err)
	}
	return c, nil
}

// GetFor returns the complaint if actor may see it: officials see all,
// citizens only their own. Other complaints are reported as not found.
func (s *Service) GetFor(ctx context.Context, id string, actor *models.Identity) (*models.Complaint, error) {
	c, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if actor.IsOfficial() || (actor != nil && c.ReportedByID == actor.ID) {
		return c, nil
	}
	return nil, apperr.NotFound("complaint", id)
}

// List loads every complaint and applies the criteria.
func (s *Service) List(ctx context.Context, c filter.Criteria) ([]models.Complaint, error) {
	all, err := s.Complaints.List(ctx)
	if err != nil {
		return nil, mapStorageError("load complaints", "", err)
	}
	if c.Now.IsZero() {
		c.Now = s.now()
	}
	return filter.Apply(all, c), nil
}

func (s *Service) publish(ctx context.Context, ev models.Event) {
	if s.Publisher == nil {
		return
	}
	if err := s.Publisher.Publish(ctx, ev); err != nil {
		log.Printf("WARNING: Failed to publish %s for complaint %s: %v", ev.Type, ev.ComplaintID, err)
	}
}

// mapStorageError translates repository errors into the error taxonomy.
// Anything unrecognized is treated as a transient backend failure.
func mapStorageError(op, id string, err error) error {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return apperr.NotFound("complaint", id)
	case errors.Is(err, storage.ErrVersionConflict):
		return &apperr.ConflictError{Message: "complaint was updated by someone else, reload and try again"}
	case errors.Is(err, context.Canceled):
		return err
	}
	return apperr.Transient(op, err)
}
