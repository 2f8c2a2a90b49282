package storage

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"cleantrack/backend/internal/models"

	"github.com/redis/go-redis/v9"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

var (
	ErrNotFound        = errors.New("record not found")
	ErrVersionConflict = errors.New("complaint was modified by someone else")
	ErrDuplicateEmail  = errors.New("email already registered")
	ErrDuplicateID     = errors.New("duplicate id")
)

// ComplaintRepository is the source of complaint records. The lifecycle
// model only depends on this contract.
type ComplaintRepository interface {
	List(ctx context.Context) ([]models.Complaint, error)
	Get(ctx context.Context, id string) (*models.Complaint, error)
	Create(ctx context.Context, complaint *models.Complaint) (*models.Complaint, error)
	// AppendNote adds the note and moves the complaint to note.ResultingStatus.
	// expectedVersion <= 0 skips the version check.
	AppendNote(ctx context.Context, id string, note models.Note, expectedVersion int) (*models.Complaint, error)
}

type UserRepository interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	UpdateUser(ctx context.Context, user *models.User) error
	ListUsers(ctx context.Context, role models.Role) ([]models.User, error)
}

type Storage interface {
	ComplaintRepository
	UserRepository
}

// Service is the PostgreSQL-backed Storage. Redis is optional and only used
// by the helpers in redis.go.
type Service struct {
	DB    *gorm.DB
	Redis *redis.Client
}

// NewStorageService Constructor
func NewStorageService(db *gorm.DB, rdb *redis.Client) *Service {
	return &Service{
		DB:    db,
		Redis: rdb,
	}
}

// Connect opens the PostgreSQL database. logLevel is one of silent, error,
// warn or info.
func Connect(dsn, logLevel string) (*gorm.DB, error) {
	level := logger.Warn
	switch strings.ToLower(logLevel) {
	case "silent":
		level = logger.Silent
	case "error":
		level = logger.Error
	case "info":
		level = logger.Info
	}
	return gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(level),
	})
}

// Migrate creates or updates the tables used by the service.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Complaint{},
		&models.Note{},
	)
}

func orderedNotes(db *gorm.DB) *gorm.DB {
	return db.Order("timestamp asc")
}

// List returns every complaint in submission order with its notes.
func (s *Service) List(ctx context.Context) ([]models.Complaint, error) {
	var complaints []models.Complaint
	err := s.DB.WithContext(ctx).
		Preload("Notes", orderedNotes).
		Order("submitted_at asc").
		Find(&complaints).Error
	if err != nil {
		log.Printf("ERROR: Failed to list complaints: %v", err)
		return nil, err
	}
	return complaints, nil
}

func (s *Service) Get(ctx context.Context, id string) (*models.Complaint, error) {
	var complaint models.Complaint
	err := s.DB.WithContext(ctx).
		Preload("Notes", orderedNotes).
		Where("id = ?", id).
		First(&complaint).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		log.Printf("ERROR: Failed to get complaint %s: %v", id, err)
		return nil, err
	}
	return &complaint, nil
}

func (s *Service) Create(ctx context.Context, complaint *models.Complaint) (*models.Complaint, error) {
	complaint.Notes = nil
	if err := s.DB.WithContext(ctx).Create(complaint).Error; err != nil {
		log.Printf("ERROR: Failed to save complaint %q: %v", complaint.Title, err)
		return nil, err
	}
	complaint.Notes = []models.Note{}
	return complaint, nil
}

// AppendNote writes the note and the new status in one transaction. The row
// is locked so concurrent officials are serialized; the last one wins unless
// an expected version is given. The note is applied after the lock is held,
// so its timestamp follows every note already stored.
func (s *Service) AppendNote(ctx context.Context, id string, note models.Note, expectedVersion int) (*models.Complaint, error) {
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var complaint models.Complaint
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", id).
			First(&complaint).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		if expectedVersion > 0 && complaint.Version != expectedVersion {
			return ErrVersionConflict
		}

		// only the latest note matters for ordering
		if err := tx.Where("complaint_id = ?", id).
			Order("timestamp desc").
			Limit(1).
			Find(&complaint.Notes).Error; err != nil {
			return err
		}

		stored := complaint.ApplyNote(note)
		if err := tx.Create(&stored).Error; err != nil {
			return err
		}

		return tx.Model(&models.Complaint{}).
			Where("id = ?", id).
			Updates(map[string]interface{}{
				"status":     complaint.Status,
				"version":    complaint.Version,
				"updated_at": complaint.UpdatedAt,
			}).Error
	})
	if err != nil {
		if !errors.Is(err, ErrNotFound) && !errors.Is(err, ErrVersionConflict) {
			log.Printf("ERROR: Failed to append note to complaint %s: %v", id, err)
		}
		return nil, err
	}
	return s.Get(ctx, id)
}

func (s *Service) CreateUser(ctx context.Context, user *models.User) error {
	var count int64
	email := models.NormalizeEmail(user.Email)
	if err := s.DB.WithContext(ctx).Model(&models.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return ErrDuplicateEmail
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now()
	}
	if err := s.DB.WithContext(ctx).Create(user).Error; err != nil {
		log.Printf("ERROR: Failed to create user %s: %v", email, err)
		return err
	}
	log.Printf("INFO: New %s account %s created.", user.Role, user.ID)
	return nil
}

func (s *Service) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	err := s.DB.WithContext(ctx).Where("id = ?", id).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *Service) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := s.DB.WithContext(ctx).Where("email = ?", models.NormalizeEmail(email)).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// UpdateUser saves profile changes. Changing the email to one that already
// belongs to another account fails with ErrDuplicateEmail.
func (s *Service) UpdateUser(ctx context.Context, user *models.User) error {
	user.Email = models.NormalizeEmail(user.Email)
	var count int64
	err := s.DB.WithContext(ctx).Model(&models.User{}).
		Where("email = ? AND id <> ?", user.Email, user.ID).
		Count(&count).Error
	if err != nil {
		return err
	}
	if count > 0 {
		return ErrDuplicateEmail
	}
	result := s.DB.WithContext(ctx).Save(user)
	if result.Error != nil {
		log.Printf("ERROR: Failed to update user %s: %v", user.ID, result.Error)
		return result.Error
	}
	return nil
}

// ListUsers returns users with the given role, or all users when role is empty.
func (s *Service) ListUsers(ctx context.Context, role models.Role) ([]models.User, error) {
	var users []models.User
	q := s.DB.WithContext(ctx).Order("created_at asc")
	if role != "" {
		q = q.Where("role = ?", role)
	}
	if err := q.Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}
