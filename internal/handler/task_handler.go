package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/timetable-core/internal/dto"
	"github.com/noah-isme/timetable-core/internal/models"
	"github.com/noah-isme/timetable-core/internal/service"
	appErrors "github.com/noah-isme/timetable-core/pkg/errors"
	"github.com/noah-isme/timetable-core/pkg/response"
)

type taskLifecycle interface {
	CreateTask(ctx context.Context, req dto.CreateTaskRequest) (*models.SchedulingTask, error)
	ListTasks(ctx context.Context, status string) ([]models.SchedulingTask, error)
	ScheduleTask(ctx context.Context, id string, req dto.ScheduleTaskRequest) (*dto.ScheduleTaskResponse, error)
	RerunTask(ctx context.Context, id string) (*models.SchedulingTask, error)
	CompleteTask(ctx context.Context, id string) (*models.SchedulingTask, error)
}

// TaskHandler exposes scheduling task lifecycle endpoints.
type TaskHandler struct {
	service taskLifecycle
}

// NewTaskHandler constructs the handler.
func NewTaskHandler(svc *service.SchedulingService) *TaskHandler {
	return &TaskHandler{service: svc}
}

// List godoc
// @Summary List scheduling tasks
// @Tags Tasks
// @Produce json
// @Param status query string false "PENDING, SCHEDULED or COMPLETED"
// @Success 200 {object} response.Envelope
// @Router /tasks [get]
func (h *TaskHandler) List(c *gin.Context) {
	tasks, err := h.service.ListTasks(c.Request.Context(), c.Query("status"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, tasks, nil)
}

// Create godoc
// @Summary Register a scheduling task
// @Tags Tasks
// @Accept json
// @Produce json
// @Param payload body dto.CreateTaskRequest true "Task"
// @Success 201 {object} response.Envelope
// @Router /tasks [post]
func (h *TaskHandler) Create(c *gin.Context) {
	var req dto.CreateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid task payload"))
		return
	}
	task, err := h.service.CreateTask(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, task)
}

// Schedule godoc
// @Summary Place a pending task
// @Tags Tasks
// @Accept json
// @Produce json
// @Param id path string true "Task ID"
// @Param payload body dto.ScheduleTaskRequest true "Placement"
// @Success 200 {object} response.Envelope
// @Router /tasks/{id}/schedule [post]
func (h *TaskHandler) Schedule(c *gin.Context) {
	var req dto.ScheduleTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid placement payload"))
		return
	}
	result, err := h.service.ScheduleTask(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Rerun godoc
// @Summary Remove a scheduled task's assignment and return it to pending
// @Tags Tasks
// @Produce json
// @Param id path string true "Task ID"
// @Success 200 {object} response.Envelope
// @Router /tasks/{id}/rerun [post]
func (h *TaskHandler) Rerun(c *gin.Context) {
	task, err := h.service.RerunTask(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, task, nil)
}

// Complete godoc
// @Summary Mark a scheduled task as completed
// @Tags Tasks
// @Produce json
// @Param id path string true "Task ID"
// @Success 200 {object} response.Envelope
// @Router /tasks/{id}/complete [post]
func (h *TaskHandler) Complete(c *gin.Context) {
	task, err := h.service.CompleteTask(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, task, nil)
}
