package media_test

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"cleantrack/backend/internal/apperr"
	"cleantrack/backend/internal/media"
	"cleantrack/backend/internal/models"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pngHeader = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 0x0d, 'I', 'H', 'D', 'R'}

func newStore(t *testing.T) *media.Store {
	t.Helper()
	s, err := media.NewStore(t.TempDir(), 1, nil)
	require.NoError(t, err)
	return s
}

func TestSave_AcceptsImage(t *testing.T) {
	s := newStore(t)

	name, err := s.Save(context.Background(), bytes.NewReader(pngHeader), "image/png", "u1")

	require.NoError(t, err)
	assert.Equal(t, ".png", filepath.Ext(name))
	assert.True(t, s.Exists(name))
	data, err := os.ReadFile(filepath.Join(s.Dir, name))
	require.NoError(t, err)
	assert.Equal(t, pngHeader, data)
}

func TestSave_Rejects(t *testing.T) {
	s := newStore(t)
	tooBig := append(append([]byte{}, pngHeader...), make([]byte, 1<<20)...)

	tests := []struct {
		name     string
		data     []byte
		declared string
	}{
		{"empty", nil, "image/png"},
		{"not an image", []byte("just some text"), "text/plain"},
		{"declared type mismatch", pngHeader, "image/jpeg"},
		{"too large", tooBig, "image/png"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.Save(context.Background(), bytes.NewReader(tt.data), tt.declared, "u1")

			var verr *apperr.ValidationError
			assert.ErrorAs(t, err, &verr)
		})
	}

	entries, err := os.ReadDir(s.Dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestRelease(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	name, err := s.Save(ctx, bytes.NewReader(pngHeader), "", "u1")
	require.NoError(t, err)

	assert.NoError(t, s.Release(ctx, name, "u1"))
	assert.False(t, s.Exists(name))
	assert.Equal(t, 404, apperr.HTTPStatus(s.Release(ctx, name, "u1")), "released files are gone")
	assert.Equal(t, 400, apperr.HTTPStatus(s.Release(ctx, "../etc/passwd", "u1")))
}

func TestRelease_OnlyByUploader(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	name, err := s.Save(ctx, bytes.NewReader(pngHeader), "image/png", "u1")
	require.NoError(t, err)

	err = s.Release(ctx, name, "u3")

	var nf *apperr.NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.True(t, s.Exists(name))
	owned, err := s.OwnedBy(ctx, name, "u1")
	require.NoError(t, err)
	assert.True(t, owned)
}

func TestCheckOwned(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	name, err := s.Save(ctx, bytes.NewReader(pngHeader), "image/png", "u1")
	require.NoError(t, err)

	assert.NoError(t, s.CheckOwned(ctx, []string{media.URL(name)}, "u1"))

	for _, tt := range []struct {
		ref   string
		owner string
	}{
		{media.URL(name), "u3"},
		{media.URL("missing.png"), "u1"},
		{"/placeholder.svg", "u1"},
	} {
		err := s.CheckOwned(ctx, []string{tt.ref}, tt.owner)
		var verr *apperr.ValidationError
		assert.ErrorAs(t, err, &verr, tt.ref)
	}
}

func TestSave_OwnerStoreDown(t *testing.T) {
	s, err := media.NewStore(t.TempDir(), 1, failingOwners{})
	require.NoError(t, err)

	_, err = s.Save(context.Background(), bytes.NewReader(pngHeader), "image/png", "u1")

	assert.Equal(t, 503, apperr.HTTPStatus(err))
	entries, err := os.ReadDir(s.Dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

type failingOwners struct{}

func (failingOwners) Get(ctx context.Context, key string) (string, bool, error) {
	return "", false, errors.New("redis down")
}

func (failingOwners) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	return errors.New("redis down")
}

func (failingOwners) Delete(ctx context.Context, key string) error {
	return errors.New("redis down")
}

func TestNameFromURL(t *testing.T) {
	name, ok := media.NameFromURL(media.URL("abc.png"))
	assert.True(t, ok)
	assert.Equal(t, "abc.png", name)

	_, ok = media.NameFromURL("/placeholder.svg")
	assert.False(t, ok)
}

func TestSweep_KeepsReferencedAndRecent(t *testing.T) {
	s := newStore(t)
	old := time.Now().Add(-48 * time.Hour)

	var names []string
	for i := 0; i < 3; i++ {
		name, err := s.Save(context.Background(), bytes.NewReader(pngHeader), "image/png", "u1")
		require.NoError(t, err)
		names = append(names, name)
	}
	require.NoError(t, os.Chtimes(filepath.Join(s.Dir, names[0]), old, old))
	require.NoError(t, os.Chtimes(filepath.Join(s.Dir, names[1]), old, old))

	keep := media.Referenced([]models.Complaint{{Images: pq.StringArray{media.URL(names[1]), "/placeholder.svg"}}})

	removed, err := s.Sweep(time.Now().Add(-24*time.Hour), keep)

	require.NoError(t, err)
	assert.Equal(t, 1, removed)
	assert.False(t, s.Exists(names[0]), "old and unreferenced")
	assert.True(t, s.Exists(names[1]), "referenced by a complaint")
	assert.True(t, s.Exists(names[2]), "still within retention")
}
