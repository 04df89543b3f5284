package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/timetable-core/internal/models"
	"github.com/noah-isme/timetable-core/pkg/jobs"
)

const unknownCategory = "unknown"

type versionedAssignmentReader interface {
	AllWithVersion() ([]models.Assignment, uint64)
	Version() uint64
}

type versionedTaskLister interface {
	ListWithVersion(status models.SchedulingTaskStatus) ([]models.SchedulingTask, uint64)
	Version() uint64
}

// StatisticsConfig tunes the aggregator.
type StatisticsConfig struct {
	// TotalSlotsPerClassroom is the denominator of utilization ratios.
	TotalSlotsPerClassroom int
	CacheTTL               time.Duration
}

// StatisticsService computes utilization and distribution figures over the assignment store.
// Building and course-type categories come from injected lookups; the aggregator owns no CRUD data.
type StatisticsService struct {
	store     versionedAssignmentReader
	tasks     versionedTaskLister
	conflicts *ConflictService
	cache     *CacheService
	metrics   *MetricsService
	logger    *zap.Logger
	cfg       StatisticsConfig
	// epoch keeps cache keys of different processes apart; store versions restart at zero.
	epoch string

	mu            sync.RWMutex
	buildings     models.ResourceLookup
	courseTypes   models.ResourceLookup
	lookupVersion uint64
}

// NewStatisticsService constructs the aggregator.
func NewStatisticsService(store versionedAssignmentReader, tasks versionedTaskLister, conflicts *ConflictService, cache *CacheService, metrics *MetricsService, logger *zap.Logger, cfg StatisticsConfig) *StatisticsService {
	if cfg.TotalSlotsPerClassroom <= 0 {
		cfg.TotalSlotsPerClassroom = models.Weekdays * models.PeriodGroups
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StatisticsService{
		store:     store,
		tasks:     tasks,
		conflicts: conflicts,
		cache:     cache,
		metrics:   metrics,
		logger:    logger,
		cfg:       cfg,
		epoch:     uuid.NewString()[:8],
	}
}

// SetLookups replaces the classroom->building and course->type mappings.
func (s *StatisticsService) SetLookups(buildings, courseTypes models.ResourceLookup) {
	s.mu.Lock()
	s.buildings = buildings
	s.courseTypes = courseTypes
	s.lookupVersion++
	s.mu.Unlock()
}

// Compute returns the aggregate for the current store state. The boolean reports a cache hit.
func (s *StatisticsService) Compute(ctx context.Context) (*models.ScheduleStatistics, bool, error) {
	s.mu.RLock()
	buildings, courseTypes, lookupVersion := s.buildings, s.courseTypes, s.lookupVersion
	s.mu.RUnlock()

	cacheKey := statisticsCacheKey(s.epoch, s.store.Version(), s.taskVersion(), lookupVersion)
	if s.cache != nil {
		var cached models.ScheduleStatistics
		hit, err := s.cache.Get(ctx, cacheKey, &cached)
		if err != nil {
			s.logger.Warn("statistics cache read failed", zap.Error(err))
		} else if hit {
			return &cached, true, nil
		}
	}

	start := time.Now()
	assignments, storeVersion := s.store.AllWithVersion()
	var (
		tasks       []models.SchedulingTask
		taskVersion uint64
	)
	if s.tasks != nil {
		tasks, taskVersion = s.tasks.ListWithVersion("")
	}
	stats := s.aggregate(assignments, tasks, buildings, courseTypes)
	stats.StoreVersion = storeVersion
	if s.metrics != nil {
		s.metrics.ObserveAggregation("statistics", time.Since(start))
	}

	// The snapshot may be newer than the lookup key; store it under its own versions.
	cacheKey = statisticsCacheKey(s.epoch, storeVersion, taskVersion, lookupVersion)
	if s.cache != nil {
		if err := s.cache.Set(ctx, cacheKey, stats, s.cfg.CacheTTL); err != nil {
			s.logger.Warn("cache statistics", zap.Error(err))
		}
	}
	return stats, false, nil
}

// RefreshHandler returns a queue handler that recomputes and caches the aggregate.
func (s *StatisticsService) RefreshHandler() jobs.Handler {
	return func(ctx context.Context, job jobs.Job) error {
		if job.Type != JobTypeStatisticsRefresh {
			return fmt.Errorf("unsupported job type %q", job.Type)
		}
		stats, hit, err := s.Compute(ctx)
		if err != nil {
			return err
		}
		s.logger.Debug("statistics refreshed",
			zap.String("job_id", job.ID),
			zap.Uint64("store_version", stats.StoreVersion),
			zap.Bool("cache_hit", hit),
		)
		return nil
	}
}

func (s *StatisticsService) taskVersion() uint64 {
	if s.tasks == nil {
		return 0
	}
	return s.tasks.Version()
}

func (s *StatisticsService) aggregate(assignments []models.Assignment, tasks []models.SchedulingTask, buildings, courseTypes models.ResourceLookup) *models.ScheduleStatistics {
	total := s.cfg.TotalSlotsPerClassroom
	utilization := ClassroomUtilization(assignments, total)

	stats := &models.ScheduleStatistics{
		TotalAssignments:            len(assignments),
		ClassroomUtilization:        utilization,
		AverageClassroomUtilization: AverageUtilization(utilization),
		DayDistribution:             DayDistribution(assignments),
		PeriodDistribution:          PeriodDistribution(assignments),
		HalfDayDistribution:         HalfDayDistribution(assignments),
		BuildingUtilization:         BuildingUtilization(assignments, buildings, total),
		CourseTypeDistribution:      CourseTypeDistribution(assignments, courseTypes),
		GeneratedAt:                 time.Now().UTC(),
	}
	stats.TotalCourses, stats.TotalTeachers, stats.TotalClassrooms = distinctTotals(assignments)
	if s.conflicts != nil {
		stats.ConflictRate = s.conflicts.DetectAll(assignments).Rate
	}
	stats.Tasks = TaskCompletionSummary(tasks)
	return stats
}

// ClassroomUtilization returns distinct occupied slots over totalSlots per classroom, clamped to [0,1].
func ClassroomUtilization(assignments []models.Assignment, totalSlots int) map[string]float64 {
	occupied := make(map[string]map[models.TimeSlot]struct{})
	for _, item := range assignments {
		if item.ClassroomID == "" {
			continue
		}
		slots, ok := occupied[item.ClassroomID]
		if !ok {
			slots = make(map[models.TimeSlot]struct{})
			occupied[item.ClassroomID] = slots
		}
		slots[item.Slot] = struct{}{}
	}

	out := make(map[string]float64, len(occupied))
	for classroomID, slots := range occupied {
		out[classroomID] = ratio(len(slots), totalSlots)
	}
	return out
}

// AverageUtilization is the mean of the per-classroom ratios.
func AverageUtilization(utilization map[string]float64) float64 {
	if len(utilization) == 0 {
		return 0
	}
	var sum float64
	for _, v := range utilization {
		sum += v
	}
	return sum / float64(len(utilization))
}

// DayDistribution counts assignments per weekday, Monday through Friday.
func DayDistribution(assignments []models.Assignment) [models.Weekdays]int {
	var out [models.Weekdays]int
	for _, item := range assignments {
		if day := item.Slot.DayOfWeek; day >= 1 && day <= models.Weekdays {
			out[day-1]++
		}
	}
	return out
}

// PeriodDistribution counts assignments per starting period group.
func PeriodDistribution(assignments []models.Assignment) [models.PeriodGroups]int {
	var out [models.PeriodGroups]int
	for _, item := range assignments {
		if p := item.Slot.StartPeriod; p >= 0 && p <= models.MaxPeriodIndex {
			out[p]++
		}
	}
	return out
}

// HalfDayDistribution splits weekday assignments into morning (periods 1-4) and afternoon.
func HalfDayDistribution(assignments []models.Assignment) []models.HalfDayCount {
	out := make([]models.HalfDayCount, models.Weekdays)
	for i := range out {
		out[i].Day = models.DayLabel(i + 1)
	}
	for _, item := range assignments {
		day, start := item.Slot.DayOfWeek, item.Slot.StartPeriod
		if day < 1 || day > models.Weekdays || start < 0 || start > models.MaxPeriodIndex {
			continue
		}
		if start <= 1 {
			out[day-1].Morning++
		} else {
			out[day-1].Afternoon++
		}
	}
	return out
}

// BuildingUtilization groups classrooms by building and relates occupied slots to building capacity.
func BuildingUtilization(assignments []models.Assignment, buildings models.ResourceLookup, totalSlots int) map[string]models.BuildingUsage {
	type occupancy struct {
		assignments int
		classrooms  map[string]struct{}
		slots       map[string]struct{}
	}
	acc := make(map[string]*occupancy)
	for _, item := range assignments {
		if item.ClassroomID == "" {
			continue
		}
		building := categoryOf(buildings, item.ClassroomID)
		entry, ok := acc[building]
		if !ok {
			entry = &occupancy{classrooms: make(map[string]struct{}), slots: make(map[string]struct{})}
			acc[building] = entry
		}
		entry.assignments++
		entry.classrooms[item.ClassroomID] = struct{}{}
		entry.slots[item.ClassroomID+"@"+item.Slot.String()] = struct{}{}
	}

	out := make(map[string]models.BuildingUsage, len(acc))
	for building, entry := range acc {
		out[building] = models.BuildingUsage{
			Assignments: entry.assignments,
			Classrooms:  len(entry.classrooms),
			Ratio:       ratio(len(entry.slots), len(entry.classrooms)*totalSlots),
		}
	}
	return out
}

// CourseTypeDistribution counts assignments per course category.
func CourseTypeDistribution(assignments []models.Assignment, courseTypes models.ResourceLookup) map[string]int {
	out := make(map[string]int)
	for _, item := range assignments {
		out[categoryOf(courseTypes, item.CourseID)]++
	}
	return out
}

// TaskCompletionSummary counts tasks per lifecycle status.
func TaskCompletionSummary(tasks []models.SchedulingTask) models.TaskCompletion {
	out := models.TaskCompletion{Total: len(tasks)}
	for _, task := range tasks {
		switch task.Status {
		case models.SchedulingTaskStatusPending:
			out.Pending++
		case models.SchedulingTaskStatusScheduled:
			out.Scheduled++
		case models.SchedulingTaskStatusCompleted:
			out.Completed++
		}
	}
	if out.Total > 0 {
		out.Rate = float64(out.Scheduled+out.Completed) / float64(out.Total)
	}
	return out
}

func distinctTotals(assignments []models.Assignment) (courses, teachers, classrooms int) {
	courseSet := make(map[string]struct{})
	teacherSet := make(map[string]struct{})
	roomSet := make(map[string]struct{})
	for _, item := range assignments {
		courseSet[item.CourseID] = struct{}{}
		if item.TeacherID != "" {
			teacherSet[item.TeacherID] = struct{}{}
		}
		if item.ClassroomID != "" {
			roomSet[item.ClassroomID] = struct{}{}
		}
	}
	return len(courseSet), len(teacherSet), len(roomSet)
}

func categoryOf(lookup models.ResourceLookup, id string) string {
	if lookup == nil {
		return unknownCategory
	}
	if v, ok := lookup.Lookup(id); ok && v != "" {
		return v
	}
	return unknownCategory
}

func ratio(part, whole int) float64 {
	if whole <= 0 || part <= 0 {
		return 0
	}
	r := float64(part) / float64(whole)
	if r > 1 {
		return 1
	}
	return r
}

func statisticsCacheKey(epoch string, storeVersion, taskVersion, lookupVersion uint64) string {
	return fmt.Sprintf("%s:%s:v%d:t%d:l%d", statisticsCachePrefix, epoch, storeVersion, taskVersion, lookupVersion)
}
