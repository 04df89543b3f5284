package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/timetable-core/internal/dto"
	"github.com/noah-isme/timetable-core/internal/models"
	appErrors "github.com/noah-isme/timetable-core/pkg/errors"
)

type taskLifecycleMock struct {
	created     dto.CreateTaskRequest
	status      string
	scheduledID string
	scheduleReq dto.ScheduleTaskRequest
	transition  error
}

func (m *taskLifecycleMock) CreateTask(ctx context.Context, req dto.CreateTaskRequest) (*models.SchedulingTask, error) {
	m.created = req
	return &models.SchedulingTask{ID: "task-1", CourseID: req.CourseID, Status: models.SchedulingTaskStatusPending}, nil
}

func (m *taskLifecycleMock) ListTasks(ctx context.Context, status string) ([]models.SchedulingTask, error) {
	m.status = status
	return []models.SchedulingTask{}, nil
}

func (m *taskLifecycleMock) ScheduleTask(ctx context.Context, id string, req dto.ScheduleTaskRequest) (*dto.ScheduleTaskResponse, error) {
	m.scheduledID = id
	m.scheduleReq = req
	return &dto.ScheduleTaskResponse{Task: models.SchedulingTask{ID: id, Status: models.SchedulingTaskStatusScheduled}}, nil
}

func (m *taskLifecycleMock) RerunTask(ctx context.Context, id string) (*models.SchedulingTask, error) {
	if m.transition != nil {
		return nil, m.transition
	}
	return &models.SchedulingTask{ID: id, Status: models.SchedulingTaskStatusPending}, nil
}

func (m *taskLifecycleMock) CompleteTask(ctx context.Context, id string) (*models.SchedulingTask, error) {
	if m.transition != nil {
		return nil, m.transition
	}
	return &models.SchedulingTask{ID: id, Status: models.SchedulingTaskStatusCompleted}, nil
}

func TestTaskHandlerCreate(t *testing.T) {
	mockSvc := &taskLifecycleMock{}
	handler := &TaskHandler{service: mockSvc}
	c, w := newTestContext(http.MethodPost, "/tasks", []byte(`{"course_id":"CS101","course_name":"Intro","teacher_id":"T1"}`))

	handler.Create(c)

	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "T1", mockSvc.created.TeacherID)
}

func TestTaskHandlerList(t *testing.T) {
	mockSvc := &taskLifecycleMock{}
	handler := &TaskHandler{service: mockSvc}
	c, w := newTestContext(http.MethodGet, "/tasks?status=pending", nil)

	handler.List(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "pending", mockSvc.status)
}

func TestTaskHandlerSchedule(t *testing.T) {
	mockSvc := &taskLifecycleMock{}
	handler := &TaskHandler{service: mockSvc}
	c, w := newTestContext(http.MethodPost, "/tasks/task-1/schedule", []byte(`{"classroom_id":"A101","slot":"2:1-2","weeks":"1-4"}`))
	c.Params = gin.Params{{Key: "id", Value: "task-1"}}

	handler.Schedule(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "task-1", mockSvc.scheduledID)
	assert.Equal(t, "1-4", mockSvc.scheduleReq.Weeks)
}

func TestTaskHandlerInvalidTransition(t *testing.T) {
	mockSvc := &taskLifecycleMock{transition: appErrors.Clone(appErrors.ErrInvalidTransition, "task is COMPLETED, expected SCHEDULED")}
	handler := &TaskHandler{service: mockSvc}

	c, w := newTestContext(http.MethodPost, "/tasks/task-1/rerun", nil)
	c.Params = gin.Params{{Key: "id", Value: "task-1"}}
	handler.Rerun(c)
	require.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, appErrors.ErrInvalidTransition.Code, decodeEnvelope(t, w).Error.Code)

	c, w = newTestContext(http.MethodPost, "/tasks/task-1/complete", nil)
	c.Params = gin.Params{{Key: "id", Value: "task-1"}}
	handler.Complete(c)
	require.Equal(t, http.StatusConflict, w.Code)
}
