package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/timetable-core/internal/models"
	"github.com/noah-isme/timetable-core/internal/repository"
	"github.com/noah-isme/timetable-core/pkg/jobs"
)

func statisticsFixture(t *testing.T) []models.Assignment {
	return []models.Assignment{
		{CourseID: "C1", ClassroomID: "R1", TeacherID: "T1", Slot: mustSlot(t, "1:1-2")},
		{CourseID: "C2", ClassroomID: "R1", TeacherID: "T2", Slot: mustSlot(t, "1:3-4")},
		{CourseID: "C3", ClassroomID: "R2", TeacherID: "T1", Slot: mustSlot(t, "2:5-6")},
		{CourseID: "C4", ClassroomID: "R2", Slot: mustSlot(t, "6:1-2")},
		{CourseID: "C5", ClassroomID: "R3", TeacherID: "T3", Slot: mustSlot(t, "3:5-6")},
	}
}

type statisticsHarness struct {
	svc   *StatisticsService
	store *repository.AssignmentStore
	tasks *repository.TaskStore
	repo  *stubCacheRepo
}

func newStatisticsHarness(t *testing.T, cacheEnabled bool) statisticsHarness {
	t.Helper()
	store := repository.NewAssignmentStore()
	store.Reset(statisticsFixture(t))
	tasks := repository.NewTaskStore()
	repo := &stubCacheRepo{}
	cache := NewCacheService(repo, nil, time.Minute, zap.NewNop(), cacheEnabled)
	svc := NewStatisticsService(store, tasks, NewConflictService(store, zap.NewNop()), cache, NewMetricsService(), zap.NewNop(), StatisticsConfig{
		TotalSlotsPerClassroom: 10,
	})
	return statisticsHarness{svc: svc, store: store, tasks: tasks, repo: repo}
}

func TestStatisticsServiceAggregates(t *testing.T) {
	h := newStatisticsHarness(t, false)
	h.tasks.Create(&models.SchedulingTask{ID: "t1"})
	h.tasks.Create(&models.SchedulingTask{ID: "t2", Status: models.SchedulingTaskStatusCompleted})
	h.svc.SetLookups(
		models.StaticLookup{"R1": "North", "R2": "North"},
		models.StaticLookup{"C1": "core", "C2": "core", "C3": "elective"},
	)

	stats, hit, err := h.svc.Compute(context.Background())
	require.NoError(t, err)
	assert.False(t, hit)

	assert.Equal(t, 5, stats.TotalAssignments)
	assert.Equal(t, 5, stats.TotalCourses)
	assert.Equal(t, 3, stats.TotalTeachers)
	assert.Equal(t, 3, stats.TotalClassrooms)

	assert.InDelta(t, 0.2, stats.ClassroomUtilization["R1"], 1e-9)
	assert.InDelta(t, 0.2, stats.ClassroomUtilization["R2"], 1e-9)
	assert.InDelta(t, 0.1, stats.ClassroomUtilization["R3"], 1e-9)
	assert.InDelta(t, 0.5/3, stats.AverageClassroomUtilization, 1e-9)

	assert.Equal(t, [models.Weekdays]int{2, 1, 1, 0, 0}, stats.DayDistribution)
	assert.Equal(t, [models.PeriodGroups]int{2, 1, 2, 0, 0}, stats.PeriodDistribution)
	require.Len(t, stats.HalfDayDistribution, models.Weekdays)
	assert.Equal(t, models.HalfDayCount{Day: "Monday", Morning: 2}, stats.HalfDayDistribution[0])
	assert.Equal(t, models.HalfDayCount{Day: "Tuesday", Afternoon: 1}, stats.HalfDayDistribution[1])

	north := stats.BuildingUtilization["North"]
	assert.Equal(t, 4, north.Assignments)
	assert.Equal(t, 2, north.Classrooms)
	assert.InDelta(t, 0.2, north.Ratio, 1e-9)
	assert.InDelta(t, 0.1, stats.BuildingUtilization[unknownCategory].Ratio, 1e-9)

	assert.Equal(t, map[string]int{"core": 2, "elective": 1, unknownCategory: 2}, stats.CourseTypeDistribution)
	assert.Zero(t, stats.ConflictRate)
	assert.Equal(t, 2, stats.Tasks.Total)
	assert.InDelta(t, 0.5, stats.Tasks.Rate, 1e-9)
	assert.Equal(t, h.store.Version(), stats.StoreVersion)
}

func TestStatisticsServiceEmptyStore(t *testing.T) {
	h := newStatisticsHarness(t, false)
	h.store.Reset(nil)

	stats, _, err := h.svc.Compute(context.Background())
	require.NoError(t, err)
	assert.Zero(t, stats.TotalAssignments)
	assert.Zero(t, stats.AverageClassroomUtilization)
	assert.Empty(t, stats.ClassroomUtilization)
	assert.Zero(t, stats.ConflictRate)
}

func TestStatisticsServiceUtilizationIsClamped(t *testing.T) {
	var items []models.Assignment
	for day := 1; day <= 5; day++ {
		for p := 0; p <= models.MaxPeriodIndex; p++ {
			items = append(items, models.Assignment{CourseID: "C", ClassroomID: "R1", Slot: models.TimeSlot{DayOfWeek: day, StartPeriod: p, EndPeriod: p}})
		}
	}
	util := ClassroomUtilization(items, 10)
	assert.Equal(t, 1.0, util["R1"])
}

func TestStatisticsServiceCachesPerVersion(t *testing.T) {
	h := newStatisticsHarness(t, true)
	ctx := context.Background()

	_, hit, err := h.svc.Compute(ctx)
	require.NoError(t, err)
	assert.False(t, hit)

	cached, hit, err := h.svc.Compute(ctx)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, 5, cached.TotalAssignments)

	h.store.Upsert(models.Assignment{CourseID: "C6", ClassroomID: "R4", Slot: mustSlot(t, "4:1-2")})
	fresh, hit, err := h.svc.Compute(ctx)
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, 6, fresh.TotalAssignments)

	h.svc.SetLookups(models.StaticLookup{"R4": "South"}, nil)
	withLookups, hit, err := h.svc.Compute(ctx)
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, 1, withLookups.BuildingUtilization["South"].Assignments)
}

func TestStatisticsServiceTaskTransitionsBustCache(t *testing.T) {
	h := newStatisticsHarness(t, true)
	ctx := context.Background()

	stats, _, err := h.svc.Compute(ctx)
	require.NoError(t, err)
	assert.Zero(t, stats.Tasks.Total)

	task := &models.SchedulingTask{ID: "t1"}
	h.tasks.Create(task)
	stats, hit, err := h.svc.Compute(ctx)
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, 1, stats.Tasks.Pending)

	task.Status = models.SchedulingTaskStatusCompleted
	require.True(t, h.tasks.Update(task))
	stats, hit, err = h.svc.Compute(ctx)
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, 1, stats.Tasks.Completed)
	assert.Zero(t, stats.Tasks.Pending)

	_, hit, err = h.svc.Compute(ctx)
	require.NoError(t, err)
	assert.True(t, hit)
}

func TestStatisticsServiceCacheReadFailureFallsBack(t *testing.T) {
	h := newStatisticsHarness(t, true)
	h.repo.getErr = errors.New("redis timeout")

	stats, hit, err := h.svc.Compute(context.Background())
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, 5, stats.TotalAssignments)
}

func TestStatisticsServiceRefreshHandler(t *testing.T) {
	h := newStatisticsHarness(t, true)
	handler := h.svc.RefreshHandler()

	err := handler(context.Background(), jobs.Job{ID: "1", Type: "unknown"})
	assert.Error(t, err)

	require.NoError(t, handler(context.Background(), jobs.Job{ID: "2", Type: JobTypeStatisticsRefresh}))
	assert.Equal(t, 1, h.repo.len())

	_, hit, err := h.svc.Compute(context.Background())
	require.NoError(t, err)
	assert.True(t, hit)
}

func TestTaskCompletionSummary(t *testing.T) {
	summary := TaskCompletionSummary([]models.SchedulingTask{
		{Status: models.SchedulingTaskStatusPending},
		{Status: models.SchedulingTaskStatusScheduled},
		{Status: models.SchedulingTaskStatusCompleted},
		{Status: models.SchedulingTaskStatusCompleted},
	})
	assert.Equal(t, 4, summary.Total)
	assert.Equal(t, 1, summary.Pending)
	assert.Equal(t, 2, summary.Completed)
	assert.InDelta(t, 0.75, summary.Rate, 1e-9)

	assert.Zero(t, TaskCompletionSummary(nil).Rate)
}
