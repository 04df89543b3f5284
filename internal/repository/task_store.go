package repository

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/noah-isme/timetable-core/internal/models"
)

// TaskStore is an in-memory registry of scheduling tasks.
type TaskStore struct {
	mu      sync.RWMutex
	items   map[string]models.SchedulingTask
	version uint64
}

// NewTaskStore constructs an empty registry.
func NewTaskStore() *TaskStore {
	return &TaskStore{items: make(map[string]models.SchedulingTask)}
}

// Create stores a new task, assigning id and timestamps when missing.
func (s *TaskStore) Create(task *models.SchedulingTask) {
	if task.ID == "" {
		task.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if task.CreatedAt.IsZero() {
		task.CreatedAt = now
	}
	task.UpdatedAt = now
	if task.Status == "" {
		task.Status = models.SchedulingTaskStatusPending
	}

	s.mu.Lock()
	s.items[task.ID] = task.Clone()
	s.version++
	s.mu.Unlock()
}

// FindByID returns a copy of the task.
func (s *TaskStore) FindByID(id string) (models.SchedulingTask, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	task, ok := s.items[id]
	if !ok {
		return models.SchedulingTask{}, false
	}
	return task.Clone(), true
}

// Update replaces an existing task. It reports false when the id is unknown.
func (s *TaskStore) Update(task *models.SchedulingTask) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[task.ID]; !ok {
		return false
	}
	task.UpdatedAt = time.Now().UTC()
	s.items[task.ID] = task.Clone()
	s.version++
	return true
}

// Version increases on every create or update.
func (s *TaskStore) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

// List returns tasks ordered by creation time, optionally filtered by status.
func (s *TaskStore) List(status models.SchedulingTaskStatus) []models.SchedulingTask {
	out, _ := s.ListWithVersion(status)
	return out
}

// ListWithVersion is List plus the registry version the snapshot was taken at.
func (s *TaskStore) ListWithVersion(status models.SchedulingTaskStatus) ([]models.SchedulingTask, uint64) {
	s.mu.RLock()
	out := make([]models.SchedulingTask, 0, len(s.items))
	for _, task := range s.items {
		if status != "" && task.Status != status {
			continue
		}
		out = append(out, task.Clone())
	}
	version := s.version
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, version
}
