package models

import "fmt"

// Conflict describes an existing assignment that overlaps a candidate on one axis.
type Conflict struct {
	Axis             ResourceKind `json:"axis"`
	ResourceID       string       `json:"resource_id"`
	CourseID         string       `json:"course_id"`
	ExistingCourseID string       `json:"existing_course_id"`
	ExistingCourse   string       `json:"existing_course_name"`
	ExistingRoom     string       `json:"existing_classroom_name"`
	ExistingSlot     string       `json:"existing_slot"`
	Message          string       `json:"message"`
}

// NewConflict builds the human readable record for an overlap.
func NewConflict(axis ResourceKind, resourceID string, candidate, existing Assignment) Conflict {
	return Conflict{
		Axis:             axis,
		ResourceID:       resourceID,
		CourseID:         candidate.CourseID,
		ExistingCourseID: existing.CourseID,
		ExistingCourse:   existing.CourseName,
		ExistingRoom:     existing.ClassroomName,
		ExistingSlot:     existing.Slot.String(),
		Message: fmt.Sprintf("%s %s already used by %s (%s) at %s %s",
			axisNoun(axis), resourceID, existing.CourseName, existing.CourseID,
			DayLabel(existing.Slot.DayOfWeek), existing.Slot.String()),
	}
}

// UnknownResourceWarning notes an axis skipped because the candidate lacks its id.
type UnknownResourceWarning struct {
	Axis     ResourceKind `json:"axis"`
	CourseID string       `json:"course_id"`
	Message  string       `json:"message"`
}

// ProposalResult is the advisory outcome of checking a candidate.
type ProposalResult struct {
	Conflicts   []Conflict               `json:"conflicts"`
	SkippedAxes []UnknownResourceWarning `json:"skipped_axes,omitempty"`
}

// HasConflicts reports whether any axis overlapped.
func (r ProposalResult) HasConflicts() bool {
	return len(r.Conflicts) > 0
}

// ConflictReport lists every overlapping pair found in a store scan.
type ConflictReport struct {
	Total   int        `json:"total"`
	Flagged []string   `json:"flagged_course_ids"`
	Pairs   []Conflict `json:"pairs"`
	Rate    float64    `json:"rate"`
}

func axisNoun(axis ResourceKind) string {
	switch axis {
	case ResourceClassroom:
		return "classroom"
	case ResourceTeacher:
		return "teacher"
	case ResourceClassSection:
		return "class section"
	default:
		return "resource"
	}
}
