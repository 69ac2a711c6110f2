package schedule

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// InMemoryStore is a StoreInterface implementation for tests and
// database-less development setups.
type InMemoryStore struct {
	mutex    sync.RWMutex
	meetings map[uuid.UUID]*ScheduledMeeting
}

// NewInMemoryStore creates an empty in-memory schedule store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		meetings: make(map[uuid.UUID]*ScheduledMeeting),
	}
}

func (s *InMemoryStore) Create(_ context.Context, m *ScheduledMeeting) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	clone := *m
	s.meetings[m.ID] = &clone
	return nil
}

func (s *InMemoryStore) GetByID(_ context.Context, id uuid.UUID) (*ScheduledMeeting, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	m, ok := s.meetings[id]
	if !ok {
		return nil, ErrNotFound
	}
	clone := *m
	return &clone, nil
}

func (s *InMemoryStore) ListByUser(_ context.Context, userID string) ([]*ScheduledMeeting, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	var meetings []*ScheduledMeeting
	for _, m := range s.meetings {
		if m.UserID == userID {
			clone := *m
			meetings = append(meetings, &clone)
		}
	}
	return meetings, nil
}

func (s *InMemoryStore) ListActive(_ context.Context) ([]*ScheduledMeeting, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	var meetings []*ScheduledMeeting
	for _, m := range s.meetings {
		if m.IsActive {
			clone := *m
			meetings = append(meetings, &clone)
		}
	}
	return meetings, nil
}

func (s *InMemoryStore) FindByCalendarEvent(_ context.Context, userID, eventID string) (*ScheduledMeeting, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	for _, m := range s.meetings {
		if m.UserID == userID && m.CalendarEventID != nil && *m.CalendarEventID == eventID {
			clone := *m
			return &clone, nil
		}
	}
	return nil, ErrNotFound
}

func (s *InMemoryStore) Save(_ context.Context, m *ScheduledMeeting) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if _, ok := s.meetings[m.ID]; !ok {
		return ErrNotFound
	}
	clone := *m
	s.meetings[m.ID] = &clone
	return nil
}

func (s *InMemoryStore) Delete(_ context.Context, id uuid.UUID) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	delete(s.meetings, id)
	return nil
}
