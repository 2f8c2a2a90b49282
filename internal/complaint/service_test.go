package complaint_test

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"cleantrack/backend/internal/apperr"
	"cleantrack/backend/internal/complaint"
	"cleantrack/backend/internal/filter"
	"cleantrack/backend/internal/media"
	"cleantrack/backend/internal/models"
	"cleantrack/backend/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, ev models.Event) error {
	return m.Called(ctx, ev).Error(0)
}

type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) List(ctx context.Context) ([]models.Complaint, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Complaint), args.Error(1)
}

func (m *MockRepository) Get(ctx context.Context, id string) (*models.Complaint, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Complaint), args.Error(1)
}

func (m *MockRepository) Create(ctx context.Context, c *models.Complaint) (*models.Complaint, error) {
	args := m.Called(ctx, c)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Complaint), args.Error(1)
}

func (m *MockRepository) AppendNote(ctx context.Context, id string, note models.Note, expectedVersion int) (*models.Complaint, error) {
	args := m.Called(ctx, id, note, expectedVersion)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Complaint), args.Error(1)
}

func newService(t *testing.T) (*complaint.Service, *storage.MemoryStore, *MockPublisher) {
	t.Helper()
	repo := storage.NewMemoryStore()
	pub := new(MockPublisher)
	svc := complaint.NewService(repo, pub)
	svc.Now = func() time.Time { return now }
	return svc, repo, pub
}

func TestService_SubmitAndUpdate(t *testing.T) {
	ctx := context.Background()
	svc, _, pub := newService(t)
	pub.On("Publish", ctx, mock.MatchedBy(func(ev models.Event) bool {
		return ev.Type == models.EventComplaintSubmitted && ev.Status == models.StatusPending
	})).Return(nil).Once()
	pub.On("Publish", ctx, mock.MatchedBy(func(ev models.Event) bool {
		return ev.Type == models.EventStatusUpdated && ev.Status == models.StatusInProgress && ev.Note != nil
	})).Return(nil).Once()

	created, err := svc.SubmitComplaint(ctx, potholeDraft(), citizen)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, created.Status)
	assert.Empty(t, created.Notes)

	updated, err := svc.ApplyStatusUpdate(ctx, created.ID, "inProgress", "Crew dispatched", official, 0)
	require.NoError(t, err)
	assert.Equal(t, models.StatusInProgress, updated.Status)
	require.Len(t, updated.Notes, 1)
	assert.Equal(t, "Crew dispatched", updated.Notes[0].Text)
	assert.Equal(t, 1, updated.Version)

	pub.AssertExpectations(t)
}

func TestService_UpdateStatusFailuresLeaveComplaintUnmodified(t *testing.T) {
	ctx := context.Background()
	svc, repo, pub := newService(t)
	pub.On("Publish", mock.Anything, mock.Anything).Return(nil)

	created, err := svc.SubmitComplaint(ctx, potholeDraft(), citizen)
	require.NoError(t, err)

	_, err = svc.ApplyStatusUpdate(ctx, created.ID, "resolved", " ", official, 0)
	assert.Equal(t, 400, apperr.HTTPStatus(err))

	_, err = svc.ApplyStatusUpdate(ctx, created.ID, "resolved", "done", citizen, 0)
	assert.Equal(t, 403, apperr.HTTPStatus(err))

	_, err = svc.ApplyStatusUpdate(ctx, created.ID, "closed", "done", official, 0)
	assert.Equal(t, 400, apperr.HTTPStatus(err))

	got, err := repo.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Notes)
	assert.Equal(t, models.StatusPending, got.Status)
}

func TestService_UpdateStatusNotFound(t *testing.T) {
	svc, _, _ := newService(t)

	_, err := svc.ApplyStatusUpdate(context.Background(), "missing", "resolved", "done", official, 0)

	var nf *apperr.NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "missing", nf.ID)
}

func TestService_ExpectedVersion(t *testing.T) {
	ctx := context.Background()
	svc, _, pub := newService(t)
	pub.On("Publish", mock.Anything, mock.Anything).Return(nil)
	created, err := svc.SubmitComplaint(ctx, potholeDraft(), citizen)
	require.NoError(t, err)

	_, err = svc.ApplyStatusUpdate(ctx, created.ID, "in-progress", "first", official, 0)
	require.NoError(t, err)

	_, err = svc.ApplyStatusUpdate(ctx, created.ID, "in-progress", "second", official, 0)
	assert.NoError(t, err, "version 0 skips the check")

	_, err = svc.ApplyStatusUpdate(ctx, created.ID, "resolved", "stale view", official, 1)
	var conflict *apperr.ConflictError
	assert.ErrorAs(t, err, &conflict)

	updated, err := svc.ApplyStatusUpdate(ctx, created.ID, "resolved", "fresh view", official, 2)
	require.NoError(t, err)
	assert.Equal(t, 3, updated.Version)
	assert.Len(t, updated.Notes, 3)
}

func TestService_RejectedCanBeDisabled(t *testing.T) {
	ctx := context.Background()
	svc, _, pub := newService(t)
	pub.On("Publish", mock.Anything, mock.Anything).Return(nil)
	svc.AllowRejected = false
	created, err := svc.SubmitComplaint(ctx, potholeDraft(), citizen)
	require.NoError(t, err)

	_, err = svc.ApplyStatusUpdate(ctx, created.ID, "rejected", "spam", official, 0)

	var verr *apperr.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "status", verr.Field)
	assert.NotContains(t, svc.Statuses(), models.StatusRejected)
}

func TestService_DuplicateSubmissionRejected(t *testing.T) {
	ctx := context.Background()
	svc, _, pub := newService(t)
	pub.On("Publish", mock.Anything, mock.Anything).Return(nil)

	release, err := svc.Guard.Acquire(ctx, "submit:"+citizen.ID)
	require.NoError(t, err)

	_, err = svc.SubmitComplaint(ctx, potholeDraft(), citizen)
	var inFlight *apperr.InFlightError
	require.ErrorAs(t, err, &inFlight)

	release()
	_, err = svc.SubmitComplaint(ctx, potholeDraft(), citizen)
	assert.NoError(t, err)

	_, err = svc.SubmitComplaint(ctx, potholeDraft(), citizen)
	assert.NoError(t, err, "the guard is released after each submission")
}

func TestService_TransientErrorsReleaseGuard(t *testing.T) {
	ctx := context.Background()
	repo := new(MockRepository)
	repo.On("Create", ctx, mock.Anything).Return(nil, errors.New("connection reset"))
	svc := complaint.NewService(repo, nil)

	for i := 0; i < 2; i++ {
		_, err := svc.SubmitComplaint(ctx, potholeDraft(), citizen)
		var te *apperr.TransientError
		require.ErrorAs(t, err, &te, "attempt %d", i)
		assert.Equal(t, 503, apperr.HTTPStatus(err))
	}
	repo.AssertNumberOfCalls(t, "Create", 2)
}

func TestService_PublishFailureDoesNotFailUpdate(t *testing.T) {
	ctx := context.Background()
	svc, _, pub := newService(t)
	pub.On("Publish", mock.Anything, mock.Anything).Return(errors.New("redis down"))

	created, err := svc.SubmitComplaint(ctx, potholeDraft(), citizen)
	require.NoError(t, err)
	_, err = svc.ApplyStatusUpdate(ctx, created.ID, "resolved", "done", official, 0)
	assert.NoError(t, err)
}

func TestService_GetForAndList(t *testing.T) {
	ctx := context.Background()
	svc, _, pub := newService(t)
	pub.On("Publish", mock.Anything, mock.Anything).Return(nil)
	created, err := svc.SubmitComplaint(ctx, potholeDraft(), citizen)
	require.NoError(t, err)

	_, err = svc.GetFor(ctx, created.ID, citizen)
	assert.NoError(t, err)
	_, err = svc.GetFor(ctx, created.ID, official)
	assert.NoError(t, err)
	_, err = svc.GetFor(ctx, created.ID, &models.Identity{ID: "someone-else", Role: models.RoleCitizen})
	assert.Equal(t, 404, apperr.HTTPStatus(err))

	list, err := svc.List(ctx, filter.Criteria{Query: "pothole", Status: string(models.StatusResolved)})
	require.NoError(t, err)
	assert.Empty(t, list)

	list, err = svc.List(ctx, filter.Criteria{Query: "POTHOLE"})
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestMultiPublisher(t *testing.T) {
	ctx := context.Background()
	ev := models.Event{Type: models.EventStatusUpdated, ComplaintID: "c1"}
	failing := new(MockPublisher)
	failing.On("Publish", ctx, ev).Return(errors.New("down"))
	ok := new(MockPublisher)
	ok.On("Publish", ctx, ev).Return(nil)

	err := complaint.MultiPublisher{failing, nil, ok}.Publish(ctx, ev)

	assert.Error(t, err)
	ok.AssertCalled(t, "Publish", ctx, ev)
}

var pngHeader = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 0x0d, 'I', 'H', 'D', 'R'}

func withUploads(t *testing.T, svc *complaint.Service) *media.Store {
	t.Helper()
	uploads, err := media.NewStore(t.TempDir(), 1, nil)
	require.NoError(t, err)
	svc.Uploads = uploads
	return uploads
}

func TestService_SubmitRequiresOwnUploads(t *testing.T) {
	ctx := context.Background()
	svc, _, pub := newService(t)
	pub.On("Publish", mock.Anything, mock.Anything).Return(nil)
	uploads := withUploads(t, svc)
	name, err := uploads.Save(ctx, bytes.NewReader(pngHeader), "image/png", "someone-else")
	require.NoError(t, err)

	d := potholeDraft()
	d.Images = []string{media.URL(name)}
	_, err = svc.SubmitComplaint(ctx, d, citizen)
	assert.Equal(t, 400, apperr.HTTPStatus(err))

	own, err := uploads.Save(ctx, bytes.NewReader(pngHeader), "image/png", citizen.ID)
	require.NoError(t, err)
	d.Images = []string{media.URL(own)}
	_, err = svc.SubmitComplaint(ctx, d, citizen)
	assert.NoError(t, err)
}

func TestService_ReleaseUpload(t *testing.T) {
	ctx := context.Background()
	svc, _, pub := newService(t)
	pub.On("Publish", mock.Anything, mock.Anything).Return(nil)
	uploads := withUploads(t, svc)

	attached, err := uploads.Save(ctx, bytes.NewReader(pngHeader), "image/png", citizen.ID)
	require.NoError(t, err)
	d := potholeDraft()
	d.Images = []string{media.URL(attached)}
	_, err = svc.SubmitComplaint(ctx, d, citizen)
	require.NoError(t, err)
	assert.Equal(t, 409, apperr.HTTPStatus(svc.ReleaseUpload(ctx, attached, citizen)))

	loose, err := uploads.Save(ctx, bytes.NewReader(pngHeader), "image/png", citizen.ID)
	require.NoError(t, err)
	assert.Equal(t, 404, apperr.HTTPStatus(svc.ReleaseUpload(ctx, loose, official)))
	assert.Equal(t, 403, apperr.HTTPStatus(svc.ReleaseUpload(ctx, loose, nil)))

	require.NoError(t, svc.ReleaseUpload(ctx, loose, citizen))
	assert.False(t, uploads.Exists(loose))
}

func TestService_ReleaseUploadWaitsForSubmission(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newService(t)
	uploads := withUploads(t, svc)
	name, err := uploads.Save(ctx, bytes.NewReader(pngHeader), "image/png", citizen.ID)
	require.NoError(t, err)

	release, err := svc.Guard.Acquire(ctx, "submit:"+citizen.ID)
	require.NoError(t, err)
	defer release()

	err = svc.ReleaseUpload(ctx, name, citizen)

	var inFlight *apperr.InFlightError
	assert.ErrorAs(t, err, &inFlight)
	assert.True(t, uploads.Exists(name))
}
