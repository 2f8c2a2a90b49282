package storage

import (
	"context"
	"sort"
	"sync"
	"time"

	"cleantrack/backend/internal/models"
)

// MemoryStore is an in-process Storage used for demos, the admin CLI's dry
// runs and tests. Returned values are copies; callers can't mutate the store.
type MemoryStore struct {
	mu         sync.RWMutex
	complaints []*models.Complaint
	byID       map[string]*models.Complaint
	users      map[string]*models.User
	now        func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byID:  make(map[string]*models.Complaint),
		users: make(map[string]*models.User),
		now:   time.Now,
	}
}

func (m *MemoryStore) List(ctx context.Context) ([]models.Complaint, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]models.Complaint, 0, len(m.complaints))
	for _, c := range m.complaints {
		out = append(out, *c.Clone())
	}
	return out, nil
}

func (m *MemoryStore) Get(ctx context.Context, id string) (*models.Complaint, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	c, ok := m.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	return c.Clone(), nil
}

func (m *MemoryStore) Create(ctx context.Context, complaint *models.Complaint) (*models.Complaint, error) {
	stored := complaint.Clone()
	if err := stored.BeforeCreate(nil); err != nil {
		return nil, err
	}
	stored.Notes = []models.Note{}
	if stored.UpdatedAt.IsZero() {
		stored.UpdatedAt = stored.SubmittedAt
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.byID[stored.ID]; exists {
		return nil, ErrDuplicateID
	}
	m.complaints = append(m.complaints, stored)
	m.byID[stored.ID] = stored
	return stored.Clone(), nil
}

func (m *MemoryStore) AppendNote(ctx context.Context, id string, note models.Note, expectedVersion int) (*models.Complaint, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	if expectedVersion > 0 && c.Version != expectedVersion {
		return nil, ErrVersionConflict
	}

	if err := note.BeforeCreate(nil); err != nil {
		return nil, err
	}
	c.ApplyNote(note)
	return c.Clone(), nil
}

func (m *MemoryStore) CreateUser(ctx context.Context, user *models.User) error {
	if err := user.BeforeCreate(nil); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == user.Email {
			return ErrDuplicateEmail
		}
	}
	now := m.now()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now
	cp := *user
	m.users[user.ID] = &cp
	return nil
}

func (m *MemoryStore) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	u, ok := m.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *MemoryStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	email = models.NormalizeEmail(email)

	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, u := range m.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (m *MemoryStore) UpdateUser(ctx context.Context, user *models.User) error {
	user.Email = models.NormalizeEmail(user.Email)

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[user.ID]; !ok {
		return ErrNotFound
	}
	for id, u := range m.users {
		if id != user.ID && u.Email == user.Email {
			return ErrDuplicateEmail
		}
	}
	user.UpdatedAt = m.now()
	cp := *user
	m.users[user.ID] = &cp
	return nil
}

func (m *MemoryStore) ListUsers(ctx context.Context, role models.Role) ([]models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]models.User, 0, len(m.users))
	for _, u := range m.users {
		if role == "" || u.Role == role {
			out = append(out, *u)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].Email < out[j].Email
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}
