package dto

import "github.com/noah-isme/timetable-core/internal/models"

// AssignmentRequest describes a manual placement. Slot uses the "<day>:<start>-<end>" text form.
type AssignmentRequest struct {
	CourseID        string   `json:"course_id" validate:"required"`
	CourseName      string   `json:"course_name" validate:"required"`
	ClassroomID     string   `json:"classroom_id" validate:"required"`
	ClassroomName   string   `json:"classroom_name"`
	Slot            string   `json:"slot" validate:"required"`
	TeacherID       string   `json:"teacher_id"`
	ClassSectionIDs []string `json:"class_section_ids" validate:"omitempty,dive,required"`
	Weeks           string   `json:"weeks"`
}

// LoadAssignmentsRequest carries raw records for bulk ingestion.
type LoadAssignmentsRequest struct {
	Records []models.RawAssignment `json:"records" validate:"required,min=1"`
}

// CommitAssignmentResponse returns the stored assignment with its advisory conflicts.
type CommitAssignmentResponse struct {
	Assignment  models.Assignment               `json:"assignment"`
	Conflicts   []models.Conflict               `json:"conflicts"`
	SkippedAxes []models.UnknownResourceWarning `json:"skipped_axes,omitempty"`
}

// CreateTaskRequest registers a placement intent.
type CreateTaskRequest struct {
	CourseID        string   `json:"course_id" validate:"required"`
	CourseName      string   `json:"course_name" validate:"required"`
	TeacherID       string   `json:"teacher_id"`
	ClassSectionIDs []string `json:"class_section_ids" validate:"omitempty,dive,required"`
}

// ScheduleTaskRequest places a pending task into a classroom and slot.
type ScheduleTaskRequest struct {
	ClassroomID   string `json:"classroom_id" validate:"required"`
	ClassroomName string `json:"classroom_name"`
	Slot          string `json:"slot" validate:"required"`
	Weeks         string `json:"weeks"`
}

// ScheduleTaskResponse returns the updated task and the placement outcome.
type ScheduleTaskResponse struct {
	Task   models.SchedulingTask    `json:"task"`
	Result CommitAssignmentResponse `json:"result"`
}

// LookupsRequest replaces the categorical mappings used by statistics.
type LookupsRequest struct {
	Buildings   map[string]string `json:"buildings"`
	CourseTypes map[string]string `json:"course_types"`
}

// ListAssignmentsQuery filters and pages the assignment snapshot.
type ListAssignmentsQuery struct {
	Filter   string `form:"q"`
	Page     int    `form:"page" validate:"omitempty,min=1"`
	PageSize int    `form:"page_size" validate:"omitempty,min=1,max=500"`
}
