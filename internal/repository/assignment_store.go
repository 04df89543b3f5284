package repository

import (
	"sync"

	"github.com/noah-isme/timetable-core/internal/models"
)

// AssignmentStore keeps resolved assignments in memory keyed by course id.
// Reads return deep copies so projections never observe concurrent writes.
type AssignmentStore struct {
	mu      sync.RWMutex
	order   []string
	items   map[string]models.Assignment
	version uint64
}

// NewAssignmentStore constructs an empty store.
func NewAssignmentStore() *AssignmentStore {
	return &AssignmentStore{items: make(map[string]models.Assignment)}
}

// Upsert inserts or replaces by CourseID. A replacement keeps its original position.
func (s *AssignmentStore) Upsert(assignment models.Assignment) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.items[assignment.CourseID]; !exists {
		s.order = append(s.order, assignment.CourseID)
	}
	s.items[assignment.CourseID] = assignment.Clone()
	s.version++
}

// Remove deletes the assignment for courseID. Absent ids are ignored.
func (s *AssignmentStore) Remove(courseID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.items[courseID]; !exists {
		return
	}
	delete(s.items, courseID)
	for i, id := range s.order {
		if id == courseID {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	s.version++
}

// Get returns a copy of the assignment for courseID.
func (s *AssignmentStore) Get(courseID string) (models.Assignment, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	item, ok := s.items[courseID]
	if !ok {
		return models.Assignment{}, false
	}
	return item.Clone(), true
}

// All returns an isolated snapshot in insertion order.
func (s *AssignmentStore) All() []models.Assignment {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Assignment, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.items[id].Clone())
	}
	return out
}

// AllWithVersion returns the snapshot together with the version it was taken at.
func (s *AssignmentStore) AllWithVersion() ([]models.Assignment, uint64) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Assignment, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.items[id].Clone())
	}
	return out, s.version
}

// ByResource filters the snapshot to assignments occupying the given resource.
func (s *AssignmentStore) ByResource(kind models.ResourceKind, id string) []models.Assignment {
	if id == "" {
		return nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.Assignment
	for _, courseID := range s.order {
		item := s.items[courseID]
		if item.Touches(kind, id) {
			out = append(out, item.Clone())
		}
	}
	return out
}

// Reset atomically replaces the whole content, preserving the given order.
func (s *AssignmentStore) Reset(assignments []models.Assignment) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = make(map[string]models.Assignment, len(assignments))
	s.order = s.order[:0]
	for _, item := range assignments {
		if _, exists := s.items[item.CourseID]; !exists {
			s.order = append(s.order, item.CourseID)
		}
		s.items[item.CourseID] = item.Clone()
	}
	s.version++
}

// Len returns the number of stored assignments.
func (s *AssignmentStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// Version increases on every mutation.
func (s *AssignmentStore) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}
