// Package media stores complaint photos on the local filesystem.
package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"cleantrack/backend/internal/apperr"
	"cleantrack/backend/internal/config"
	"cleantrack/backend/internal/models"
	"cleantrack/backend/internal/storage"

	"github.com/google/uuid"
)

// URLPrefix is the public path uploads are served under.
const URLPrefix = "/uploads/"

// OwnerStore records who uploaded a file. Sessions use the same KV.
type OwnerStore interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// Store keeps uploaded images in Dir until they are released or swept.
// Only the uploader may attach or release a file.
type Store struct {
	Dir      string
	MaxBytes int64
	Owners   OwnerStore
}

func ownerKey(name string) string {
	return "upload:" + name
}

// NewStore prepares dir. Owners defaults to an in-process KV.
func NewStore(dir string, maxMB int64, owners OwnerStore) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload dir: %w", err)
	}
	if maxMB <= 0 {
		maxMB = config.DefaultMaxUploadMB
	}
	if owners == nil {
		owners = storage.NewMemoryKV()
	}
	return &Store{Dir: dir, MaxBytes: maxMB << 20, Owners: owners}, nil
}

// Save writes the image for ownerID and returns its generated file name. A
// declared content type other than application/octet-stream must match the
// sniffed one.
func (s *Store) Save(ctx context.Context, r io.Reader, declaredType, ownerID string) (string, error) {
	head := make([]byte, 512)
	n, err := io.ReadFull(r, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return "", err
	}
	head = head[:n]
	if n == 0 {
		return "", apperr.Validation("image", "file is empty")
	}

	sniffed := http.DetectContentType(head)
	ext, ok := config.AllowedImageTypes[sniffed]
	if !ok {
		return "", apperr.Validation("image", "unsupported image type "+sniffed)
	}
	if declaredType != "" && declaredType != "application/octet-stream" && !strings.HasPrefix(declaredType, sniffed) {
		return "", apperr.Validation("image", "content type does not match file contents")
	}

	name := uuid.New().String() + ext
	f, err := os.Create(filepath.Join(s.Dir, name))
	if err != nil {
		return "", err
	}

	limited := io.LimitReader(io.MultiReader(bytes.NewReader(head), r), s.MaxBytes+1)
	written, err := io.Copy(f, limited)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err == nil && written > s.MaxBytes {
		err = apperr.Validation("image", fmt.Sprintf("file exceeds %d MB", s.MaxBytes>>20))
	}
	if err == nil {
		if serr := s.Owners.Set(ctx, ownerKey(name), ownerID, config.UploadRetention); serr != nil {
			err = apperr.Transient("record upload", serr)
		}
	}
	if err != nil {
		os.Remove(filepath.Join(s.Dir, name))
		return "", err
	}
	return name, nil
}

// URL returns the public reference for a stored file.
func URL(name string) string {
	return URLPrefix + name
}

// NameFromURL extracts the stored file name from an image reference.
// References outside URLPrefix return false.
func NameFromURL(ref string) (string, bool) {
	if !strings.HasPrefix(ref, URLPrefix) {
		return "", false
	}
	name := path.Base(ref)
	return name, validName(name)
}

func validName(name string) bool {
	return name != "" && name != "." && name != ".." && !strings.ContainsAny(name, `/\`)
}

func (s *Store) Exists(name string) bool {
	if !validName(name) {
		return false
	}
	_, err := os.Stat(filepath.Join(s.Dir, name))
	return err == nil
}

// OwnedBy reports whether the stored file was uploaded by ownerID.
func (s *Store) OwnedBy(ctx context.Context, name, ownerID string) (bool, error) {
	if !validName(name) {
		return false, nil
	}
	owner, ok, err := s.Owners.Get(ctx, ownerKey(name))
	if err != nil {
		return false, apperr.Transient("load upload", err)
	}
	return ok && owner == ownerID && s.Exists(name), nil
}

// CheckOwned makes sure every reference points at a file ownerID uploaded.
func (s *Store) CheckOwned(ctx context.Context, refs []string, ownerID string) error {
	for _, ref := range refs {
		name, ok := NameFromURL(ref)
		if !ok {
			return apperr.Validation("images", "unknown image "+ref)
		}
		owned, err := s.OwnedBy(ctx, name, ownerID)
		if err != nil {
			return err
		}
		if !owned {
			return apperr.Validation("images", "unknown image "+ref)
		}
	}
	return nil
}

// Release removes an upload of ownerID. Files of other users are reported
// as missing.
func (s *Store) Release(ctx context.Context, name, ownerID string) error {
	if !validName(name) {
		return apperr.Validation("name", "invalid file name")
	}
	owner, ok, err := s.Owners.Get(ctx, ownerKey(name))
	if err != nil {
		return apperr.Transient("load upload", err)
	}
	if !ok || owner != ownerID {
		return apperr.NotFound("upload", name)
	}

	err = os.Remove(filepath.Join(s.Dir, name))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	if err := s.Owners.Delete(ctx, ownerKey(name)); err != nil {
		log.Printf("WARNING: Failed to forget owner of upload %s: %v", name, err)
	}
	return nil
}

// Sweep removes files modified before cutoff that are not in keep.
// It returns the number of removed files.
func (s *Store) Sweep(cutoff time.Time, keep map[string]bool) (int, error) {
	entries, err := os.ReadDir(s.Dir)
	if err != nil {
		return 0, err
	}

	removed := 0
	for _, e := range entries {
		if e.IsDir() || keep[e.Name()] {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		if info.ModTime().Before(cutoff) {
			if err := os.Remove(filepath.Join(s.Dir, e.Name())); err == nil {
				removed++
			}
		}
	}
	return removed, nil
}

// ComplaintLister lists every stored complaint.
type ComplaintLister interface {
	List(ctx context.Context) ([]models.Complaint, error)
}

// Referenced collects the file names used by stored complaints.
func Referenced(complaints []models.Complaint) map[string]bool {
	keep := make(map[string]bool)
	for _, c := range complaints {
		for _, ref := range c.Images {
			if name, ok := NameFromURL(ref); ok {
				keep[name] = true
			}
		}
	}
	return keep
}

// RunSweeper periodically removes uploads that no complaint references
// and that are older than retention.
func (s *Store) RunSweeper(ctx context.Context, complaints ComplaintLister, interval, retention time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			all, err := complaints.List(ctx)
			if err != nil {
				log.Printf("ERROR: Upload sweep skipped: %v", err)
				continue
			}
			n, err := s.Sweep(now.Add(-retention), Referenced(all))
			if err != nil {
				log.Printf("ERROR: Upload sweep failed: %v", err)
				continue
			}
			if n > 0 {
				log.Printf("INFO: Upload sweep removed %d abandoned files", n)
			}
		}
	}
}
