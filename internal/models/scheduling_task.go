package models

import "time"

// SchedulingTaskStatus represents lifecycle phases for an administrative placement intent.
type SchedulingTaskStatus string

const (
	SchedulingTaskStatusPending   SchedulingTaskStatus = "PENDING"
	SchedulingTaskStatusScheduled SchedulingTaskStatus = "SCHEDULED"
	SchedulingTaskStatusCompleted SchedulingTaskStatus = "COMPLETED"
)

// SchedulingTask asks for a course to be placed for a teacher and set of class sections.
type SchedulingTask struct {
	ID              string               `json:"id"`
	CourseID        string               `json:"course_id"`
	CourseName      string               `json:"course_name"`
	TeacherID       string               `json:"teacher_id,omitempty"`
	ClassSectionIDs []string             `json:"class_section_ids,omitempty"`
	Status          SchedulingTaskStatus `json:"status"`
	// AssignmentCourseID is a lookup key into the assignment store, never an owned value.
	AssignmentCourseID string    `json:"assignment_course_id,omitempty"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// Clone returns a copy detached from the registry.
func (t SchedulingTask) Clone() SchedulingTask {
	out := t
	if t.ClassSectionIDs != nil {
		out.ClassSectionIDs = append([]string(nil), t.ClassSectionIDs...)
	}
	return out
}
