package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/timetable-core/internal/dto"
	"github.com/noah-isme/timetable-core/internal/models"
	appErrors "github.com/noah-isme/timetable-core/pkg/errors"
	"github.com/noah-isme/timetable-core/pkg/jobs"
)

// JobTypeStatisticsRefresh identifies background statistics warm-ups.
const JobTypeStatisticsRefresh = "statistics.refresh"

type assignmentStore interface {
	Upsert(assignment models.Assignment)
	Remove(courseID string)
	Get(courseID string) (models.Assignment, bool)
	All() []models.Assignment
	ByResource(kind models.ResourceKind, id string) []models.Assignment
	Reset(assignments []models.Assignment)
	Len() int
	Version() uint64
}

type taskRegistry interface {
	Create(task *models.SchedulingTask)
	FindByID(id string) (models.SchedulingTask, bool)
	Update(task *models.SchedulingTask) bool
	List(status models.SchedulingTaskStatus) []models.SchedulingTask
}

// AssignmentPersistence is the durable collaborator behind the in-memory store.
type AssignmentPersistence interface {
	ListRaw(ctx context.Context) ([]models.RawAssignment, error)
	Save(ctx context.Context, assignment models.Assignment) error
	Delete(ctx context.Context, courseID string) error
}

type jobEnqueuer interface {
	Enqueue(job jobs.Job) error
}

// SchedulingConfig carries the term shape and the missing-id policy.
type SchedulingConfig struct {
	TermWeeks int
	// StrictResources rejects commits that lack a teacher or class section id.
	StrictResources bool
}

// SchedulingService is the entry point for ingestion, placement, projection and statistics.
type SchedulingService struct {
	store       assignmentStore
	tasks       taskRegistry
	conflicts   *ConflictService
	views       *ViewService
	stats       *StatisticsService
	cache       *CacheService
	persistence AssignmentPersistence
	refresher   jobEnqueuer
	validator   *validator.Validate
	metrics     *MetricsService
	logger      *zap.Logger
	cfg         SchedulingConfig
	locks       *keyedMutex
}

// NewSchedulingService wires the facade. persistence and refresher may be nil.
func NewSchedulingService(
	store assignmentStore,
	tasks taskRegistry,
	conflicts *ConflictService,
	views *ViewService,
	stats *StatisticsService,
	cache *CacheService,
	persistence AssignmentPersistence,
	refresher jobEnqueuer,
	validate *validator.Validate,
	metrics *MetricsService,
	logger *zap.Logger,
	cfg SchedulingConfig,
) *SchedulingService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.TermWeeks <= 0 {
		cfg.TermWeeks = 20
	}
	return &SchedulingService{
		store:       store,
		tasks:       tasks,
		conflicts:   conflicts,
		views:       views,
		stats:       stats,
		cache:       cache,
		persistence: persistence,
		refresher:   refresher,
		validator:   validate,
		metrics:     metrics,
		logger:      logger,
		cfg:         cfg,
		locks:       newKeyedMutex(),
	}
}

// LoadAssignments decodes raw records and replaces the store content with the valid ones.
// Malformed records are reported per index and skipped; the load itself never fails.
func (s *SchedulingService) LoadAssignments(ctx context.Context, raw []models.RawAssignment) models.IngestionReport {
	report := models.IngestionReport{Outcomes: make([]models.IngestionOutcome, 0, len(raw))}
	loaded := make([]models.Assignment, 0, len(raw))

	for i, record := range raw {
		outcome := models.IngestionOutcome{Index: i, CourseID: record.CourseID}
		assignment, err := s.decodeRaw(record)
		if err != nil {
			outcome.Err = err
			outcome.Error = err.Error()
			report.Skipped++
			s.logger.Warn("skip malformed assignment",
				zap.Int("index", i),
				zap.String("course_id", record.CourseID),
				zap.String("slot", record.SlotText),
				zap.Error(err),
			)
		} else {
			outcome.Assignment = &assignment
			loaded = append(loaded, assignment)
			report.Loaded++
		}
		report.Outcomes = append(report.Outcomes, outcome)
	}

	s.store.Reset(loaded)
	s.metrics.RecordIngestion(report.Loaded, report.Skipped)
	s.metrics.SetAssignments(s.store.Len())
	s.logger.Info("assignments loaded", zap.Int("loaded", report.Loaded), zap.Int("skipped", report.Skipped))
	if err := s.cache.InvalidateStatistics(ctx); err != nil {
		s.logger.Warn("invalidate statistics cache", zap.Error(err))
	}
	s.scheduleRefresh("load")
	return report
}

// Load pulls raw records from the persistence collaborator and ingests them.
func (s *SchedulingService) Load(ctx context.Context) (*models.IngestionReport, error) {
	if s.persistence == nil {
		return nil, appErrors.Clone(appErrors.ErrStorage, "assignment persistence not configured")
	}
	start := time.Now()
	raw, err := s.persistence.ListRaw(ctx)
	s.metrics.ObserveStorage("list", time.Since(start))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to load assignments")
	}
	report := s.LoadAssignments(ctx, raw)
	return &report, nil
}

// ListAssignments returns the filtered snapshot and the unpaged total.
func (s *SchedulingService) ListAssignments(ctx context.Context, query dto.ListAssignmentsQuery) ([]models.Assignment, *models.Pagination, error) {
	if err := s.validator.Struct(query); err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid query parameters")
	}
	items := FilterAssignments(s.store.All(), query.Filter)
	pagination := &models.Pagination{Page: query.Page, PageSize: query.PageSize, TotalCount: len(items)}
	if query.Page == 0 || query.PageSize == 0 {
		return items, pagination, nil
	}
	from := (query.Page - 1) * query.PageSize
	if from >= len(items) {
		return []models.Assignment{}, pagination, nil
	}
	to := from + query.PageSize
	if to > len(items) {
		to = len(items)
	}
	return items[from:to], pagination, nil
}

// GetView projects the current snapshot into the requested mode.
func (s *SchedulingService) GetView(ctx context.Context, mode models.ViewMode, opts models.ViewOptions) (*models.ScheduleView, error) {
	start := time.Now()
	view, err := s.views.Build(s.store.All(), mode, opts)
	if err != nil {
		return nil, err
	}
	s.metrics.ObserveAggregation("view_"+string(mode), time.Since(start))
	return view, nil
}

// GetStatistics returns the aggregate for the current store state. The boolean reports a cache hit.
func (s *SchedulingService) GetStatistics(ctx context.Context) (*models.ScheduleStatistics, bool, error) {
	return s.stats.Compute(ctx)
}

// SetLookups replaces the building and course-type mappings used by statistics.
func (s *SchedulingService) SetLookups(ctx context.Context, req dto.LookupsRequest) {
	s.stats.SetLookups(models.StaticLookup(req.Buildings), models.StaticLookup(req.CourseTypes))
	s.scheduleRefresh("lookups")
}

// ConflictReport scans the whole store for overlapping pairs.
func (s *SchedulingService) ConflictReport(ctx context.Context) models.ConflictReport {
	start := time.Now()
	report := s.conflicts.Report()
	s.metrics.ObserveAggregation("conflict_report", time.Since(start))
	return report
}

// ProposeAssignment checks a candidate without storing it.
func (s *SchedulingService) ProposeAssignment(ctx context.Context, req dto.AssignmentRequest) (*models.ProposalResult, error) {
	candidate, err := s.buildCandidate(req)
	if err != nil {
		return nil, err
	}
	result := s.conflicts.Detect(candidate)
	s.metrics.RecordConflicts(result.Conflicts)
	return &result, nil
}

// CommitAssignment stores the candidate. Conflicts are advisory and returned alongside;
// errors are limited to validation, the strict missing-id policy and storage failures.
func (s *SchedulingService) CommitAssignment(ctx context.Context, req dto.AssignmentRequest) (*dto.CommitAssignmentResponse, error) {
	candidate, err := s.buildCandidate(req)
	if err != nil {
		return nil, err
	}
	return s.commit(ctx, candidate)
}

// RemoveAssignment deletes an assignment. Removing an unknown course id is not an error.
func (s *SchedulingService) RemoveAssignment(ctx context.Context, courseID string) error {
	courseID = strings.TrimSpace(courseID)
	if courseID == "" {
		return appErrors.Clone(appErrors.ErrValidation, "course id is required")
	}
	unlock := s.locks.Lock(courseID)
	defer unlock()
	return s.remove(ctx, courseID)
}

// CreateTask registers a pending placement intent.
func (s *SchedulingService) CreateTask(ctx context.Context, req dto.CreateTaskRequest) (*models.SchedulingTask, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid task payload")
	}
	task := models.SchedulingTask{
		CourseID:        strings.TrimSpace(req.CourseID),
		CourseName:      strings.TrimSpace(req.CourseName),
		TeacherID:       strings.TrimSpace(req.TeacherID),
		ClassSectionIDs: normalizeIDs(req.ClassSectionIDs),
	}
	s.tasks.Create(&task)
	s.logger.Info("scheduling task created", zap.String("task_id", task.ID), zap.String("course_id", task.CourseID))
	return &task, nil
}

// ListTasks returns tasks optionally filtered by status.
func (s *SchedulingService) ListTasks(ctx context.Context, status string) ([]models.SchedulingTask, error) {
	filter := models.SchedulingTaskStatus(strings.ToUpper(strings.TrimSpace(status)))
	switch filter {
	case "", models.SchedulingTaskStatusPending, models.SchedulingTaskStatusScheduled, models.SchedulingTaskStatusCompleted:
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "status must be one of PENDING, SCHEDULED, COMPLETED")
	}
	return s.tasks.List(filter), nil
}

// ScheduleTask places a pending task and marks it scheduled.
func (s *SchedulingService) ScheduleTask(ctx context.Context, id string, req dto.ScheduleTaskRequest) (*dto.ScheduleTaskResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid placement payload")
	}
	unlock := s.locks.Lock(taskLockKey(id))
	defer unlock()

	task, err := s.taskIn(id, models.SchedulingTaskStatusPending)
	if err != nil {
		return nil, err
	}
	candidate, err := s.buildCandidate(dto.AssignmentRequest{
		CourseID:        task.CourseID,
		CourseName:      task.CourseName,
		ClassroomID:     req.ClassroomID,
		ClassroomName:   req.ClassroomName,
		Slot:            req.Slot,
		TeacherID:       task.TeacherID,
		ClassSectionIDs: task.ClassSectionIDs,
		Weeks:           req.Weeks,
	})
	if err != nil {
		return nil, err
	}
	result, err := s.commit(ctx, candidate)
	if err != nil {
		return nil, err
	}

	task.Status = models.SchedulingTaskStatusScheduled
	task.AssignmentCourseID = candidate.CourseID
	if !s.tasks.Update(&task) {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "scheduling task not found")
	}
	return &dto.ScheduleTaskResponse{Task: task, Result: *result}, nil
}

// RerunTask removes the task's assignment and returns it to pending.
func (s *SchedulingService) RerunTask(ctx context.Context, id string) (*models.SchedulingTask, error) {
	unlock := s.locks.Lock(taskLockKey(id))
	defer unlock()

	task, err := s.taskIn(id, models.SchedulingTaskStatusScheduled)
	if err != nil {
		return nil, err
	}
	if task.AssignmentCourseID != "" {
		release := s.locks.Lock(task.AssignmentCourseID)
		err := s.remove(ctx, task.AssignmentCourseID)
		release()
		if err != nil {
			return nil, err
		}
	}
	task.Status = models.SchedulingTaskStatusPending
	task.AssignmentCourseID = ""
	if !s.tasks.Update(&task) {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "scheduling task not found")
	}
	s.logger.Info("scheduling task rerun", zap.String("task_id", task.ID))
	return &task, nil
}

// CompleteTask marks a scheduled task as completed. Completed tasks are terminal.
func (s *SchedulingService) CompleteTask(ctx context.Context, id string) (*models.SchedulingTask, error) {
	unlock := s.locks.Lock(taskLockKey(id))
	defer unlock()

	task, err := s.taskIn(id, models.SchedulingTaskStatusScheduled)
	if err != nil {
		return nil, err
	}
	task.Status = models.SchedulingTaskStatusCompleted
	if !s.tasks.Update(&task) {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "scheduling task not found")
	}
	s.scheduleRefresh("task_completed")
	return &task, nil
}

func (s *SchedulingService) commit(ctx context.Context, candidate models.Assignment) (*dto.CommitAssignmentResponse, error) {
	if s.cfg.StrictResources && (candidate.TeacherID == "" || len(candidate.ClassSectionIDs) == 0) {
		return nil, appErrors.Clone(appErrors.ErrUnknownResource, fmt.Sprintf("course %s requires teacher and class section ids", candidate.CourseID))
	}

	unlock := s.locks.Lock(candidate.CourseID)
	defer unlock()

	result := s.conflicts.Detect(candidate)
	if s.persistence != nil {
		start := time.Now()
		err := s.persistence.Save(ctx, candidate)
		s.metrics.ObserveStorage("save", time.Since(start))
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to save assignment")
		}
	}
	s.store.Upsert(candidate)

	s.metrics.RecordConflicts(result.Conflicts)
	s.metrics.SetAssignments(s.store.Len())
	for _, skipped := range result.SkippedAxes {
		s.logger.Warn("assignment committed without axis check",
			zap.String("course_id", candidate.CourseID),
			zap.String("axis", string(skipped.Axis)),
		)
	}
	if result.HasConflicts() {
		s.logger.Info("assignment committed with conflicts",
			zap.String("course_id", candidate.CourseID),
			zap.Int("conflicts", len(result.Conflicts)),
		)
	}
	s.scheduleRefresh("commit")

	return &dto.CommitAssignmentResponse{
		Assignment:  candidate.Clone(),
		Conflicts:   result.Conflicts,
		SkippedAxes: result.SkippedAxes,
	}, nil
}

// remove expects the caller to hold the course lock.
func (s *SchedulingService) remove(ctx context.Context, courseID string) error {
	if s.persistence != nil {
		start := time.Now()
		err := s.persistence.Delete(ctx, courseID)
		s.metrics.ObserveStorage("delete", time.Since(start))
		if err != nil {
			return appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to delete assignment")
		}
	}
	s.store.Remove(courseID)
	s.metrics.SetAssignments(s.store.Len())
	s.scheduleRefresh("remove")
	return nil
}

func (s *SchedulingService) taskIn(id string, want models.SchedulingTaskStatus) (models.SchedulingTask, error) {
	task, ok := s.tasks.FindByID(id)
	if !ok {
		return models.SchedulingTask{}, appErrors.Clone(appErrors.ErrNotFound, "scheduling task not found")
	}
	if task.Status != want {
		return models.SchedulingTask{}, appErrors.Clone(appErrors.ErrInvalidTransition,
			fmt.Sprintf("task is %s, expected %s", task.Status, want))
	}
	return task, nil
}

func (s *SchedulingService) buildCandidate(req dto.AssignmentRequest) (models.Assignment, error) {
	if err := s.validator.Struct(req); err != nil {
		return models.Assignment{}, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid assignment payload")
	}
	slot, err := models.ParseTimeSlot(req.Slot)
	if err != nil {
		return models.Assignment{}, appErrors.Wrap(err, appErrors.ErrMalformedSlot.Code, appErrors.ErrMalformedSlot.Status, err.Error())
	}
	if !slot.InGrid() {
		return models.Assignment{}, appErrors.Clone(appErrors.ErrMalformedSlot,
			fmt.Sprintf("slot %s lies outside the %d period groups of a teaching day", slot, models.PeriodGroups))
	}
	weeks, err := models.ParseWeeks(req.Weeks, s.cfg.TermWeeks)
	if err != nil {
		return models.Assignment{}, err
	}
	return models.Assignment{
		CourseID:        strings.TrimSpace(req.CourseID),
		CourseName:      strings.TrimSpace(req.CourseName),
		ClassroomID:     strings.TrimSpace(req.ClassroomID),
		ClassroomName:   strings.TrimSpace(req.ClassroomName),
		Slot:            slot,
		TeacherID:       strings.TrimSpace(req.TeacherID),
		ClassSectionIDs: normalizeIDs(req.ClassSectionIDs),
		Weeks:           weeks,
	}, nil
}

func (s *SchedulingService) decodeRaw(record models.RawAssignment) (models.Assignment, error) {
	courseID := strings.TrimSpace(record.CourseID)
	if courseID == "" {
		return models.Assignment{}, appErrors.Clone(appErrors.ErrValidation, "course id is required")
	}
	slot, err := models.ParseTimeSlot(record.SlotText)
	if err != nil {
		return models.Assignment{}, err
	}
	weeks, err := models.ParseWeeks(record.WeeksText, s.cfg.TermWeeks)
	if err != nil {
		return models.Assignment{}, err
	}
	return models.Assignment{
		CourseID:        courseID,
		CourseName:      strings.TrimSpace(record.CourseName),
		ClassroomID:     strings.TrimSpace(record.ClassroomID),
		ClassroomName:   strings.TrimSpace(record.ClassroomName),
		Slot:            slot,
		TeacherID:       strings.TrimSpace(record.TeacherID),
		ClassSectionIDs: normalizeIDs(strings.Split(record.ClassSectionIDs, ",")),
		Weeks:           weeks,
	}, nil
}

func (s *SchedulingService) scheduleRefresh(reason string) {
	if s.refresher == nil {
		return
	}
	job := jobs.Job{ID: uuid.NewString(), Type: JobTypeStatisticsRefresh, Payload: reason}
	if err := s.refresher.Enqueue(job); err != nil {
		s.logger.Warn("enqueue statistics refresh", zap.String("reason", reason), zap.Error(err))
	}
}

func normalizeIDs(ids []string) []string {
	var out []string
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func taskLockKey(id string) string {
	return "task:" + id
}

// keyedMutex serializes work per key and drops idle entries.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*refMutex
}

type refMutex struct {
	sync.Mutex
	refs int
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[string]*refMutex)}
}

// Lock blocks until key is free and returns the matching unlock func.
func (k *keyedMutex) Lock(key string) func() {
	k.mu.Lock()
	m, ok := k.locks[key]
	if !ok {
		m = &refMutex{}
		k.locks[key] = m
	}
	m.refs++
	k.mu.Unlock()

	m.Lock()
	return func() {
		m.Unlock()
		k.mu.Lock()
		m.refs--
		if m.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}
