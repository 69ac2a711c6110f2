package schedule

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

// ErrNotFound is returned when a schedule does not exist.
var ErrNotFound = errors.New("schedule not found")

// StoreInterface is the persistence boundary for scheduled meetings.
type StoreInterface interface {
	Create(ctx context.Context, m *ScheduledMeeting) error
	GetByID(ctx context.Context, id uuid.UUID) (*ScheduledMeeting, error)
	ListByUser(ctx context.Context, userID string) ([]*ScheduledMeeting, error)
	ListActive(ctx context.Context) ([]*ScheduledMeeting, error)
	FindByCalendarEvent(ctx context.Context, userID, eventID string) (*ScheduledMeeting, error)
	Save(ctx context.Context, m *ScheduledMeeting) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// Store persists scheduled meetings using GORM.
type Store struct {
	db *gorm.DB
}

// NewStore opens the database and migrates the schedule table.
func NewStore(databaseURL string) (*Store, error) {
	db, err := gorm.Open(mysql.Open(databaseURL), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.AutoMigrate(&ScheduledMeeting{}); err != nil {
		return nil, fmt.Errorf("failed to migrate tables: %w", err)
	}

	return &Store{db: db}, nil
}

// Create inserts a new scheduled meeting.
func (s *Store) Create(ctx context.Context, m *ScheduledMeeting) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}

	result := s.db.WithContext(ctx).Create(m)
	if result.Error != nil {
		return fmt.Errorf("failed to create schedule: %w", result.Error)
	}
	return nil
}

// GetByID retrieves a schedule by id.
func (s *Store) GetByID(ctx context.Context, id uuid.UUID) (*ScheduledMeeting, error) {
	var m ScheduledMeeting
	result := s.db.WithContext(ctx).First(&m, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get schedule: %w", result.Error)
	}
	return &m, nil
}

// ListByUser retrieves all schedules owned by a user, soonest first.
func (s *Store) ListByUser(ctx context.Context, userID string) ([]*ScheduledMeeting, error) {
	var meetings []*ScheduledMeeting
	result := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("next_trigger_at").
		Find(&meetings)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to list schedules: %w", result.Error)
	}
	return meetings, nil
}

// ListActive retrieves all active schedules, for reloading the scheduler at
// startup.
func (s *Store) ListActive(ctx context.Context) ([]*ScheduledMeeting, error) {
	var meetings []*ScheduledMeeting
	result := s.db.WithContext(ctx).Where("is_active = ?", true).Find(&meetings)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to list active schedules: %w", result.Error)
	}
	return meetings, nil
}

// FindByCalendarEvent looks up a user's schedule for a calendar event id.
func (s *Store) FindByCalendarEvent(ctx context.Context, userID, eventID string) (*ScheduledMeeting, error) {
	var m ScheduledMeeting
	result := s.db.WithContext(ctx).
		First(&m, "user_id = ? AND calendar_event_id = ?", userID, eventID)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to find schedule: %w", result.Error)
	}
	return &m, nil
}

// Save persists changes to an existing schedule.
func (s *Store) Save(ctx context.Context, m *ScheduledMeeting) error {
	result := s.db.WithContext(ctx).Save(m)
	if result.Error != nil {
		return fmt.Errorf("failed to save schedule: %w", result.Error)
	}
	return nil
}

// Delete removes a schedule.
func (s *Store) Delete(ctx context.Context, id uuid.UUID) error {
	result := s.db.WithContext(ctx).Delete(&ScheduledMeeting{}, "id = ?", id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete schedule: %w", result.Error)
	}
	return nil
}
