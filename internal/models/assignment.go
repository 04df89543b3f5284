package models

import "time"

// ResourceKind names one of the three axes an assignment occupies.
type ResourceKind string

const (
	ResourceClassroom    ResourceKind = "CLASSROOM"
	ResourceTeacher      ResourceKind = "TEACHER"
	ResourceClassSection ResourceKind = "CLASS_SECTION"
)

// ResourceKinds lists every axis in detection order.
var ResourceKinds = []ResourceKind{ResourceClassroom, ResourceTeacher, ResourceClassSection}

// Assignment binds a course to a classroom and a recurring time slot.
type Assignment struct {
	CourseID        string   `json:"course_id"`
	CourseName      string   `json:"course_name"`
	ClassroomID     string   `json:"classroom_id"`
	ClassroomName   string   `json:"classroom_name"`
	Slot            TimeSlot `json:"slot"`
	TeacherID       string   `json:"teacher_id,omitempty"`
	ClassSectionIDs []string `json:"class_section_ids,omitempty"`
	// Weeks lists the active term weeks; empty means every week.
	Weeks []int `json:"weeks,omitempty"`
}

// Clone returns a deep copy so snapshots never share slices with the store.
func (a Assignment) Clone() Assignment {
	out := a
	if a.ClassSectionIDs != nil {
		out.ClassSectionIDs = append([]string(nil), a.ClassSectionIDs...)
	}
	if a.Weeks != nil {
		out.Weeks = append([]int(nil), a.Weeks...)
	}
	return out
}

// Touches reports whether the assignment occupies the given resource.
func (a Assignment) Touches(kind ResourceKind, id string) bool {
	if id == "" {
		return false
	}
	switch kind {
	case ResourceClassroom:
		return a.ClassroomID == id
	case ResourceTeacher:
		return a.TeacherID == id
	case ResourceClassSection:
		for _, section := range a.ClassSectionIDs {
			if section == id {
				return true
			}
		}
	}
	return false
}

// ActiveInWeek reports whether the assignment meets during the given term week.
func (a Assignment) ActiveInWeek(week int) bool {
	if len(a.Weeks) == 0 {
		return true
	}
	for _, w := range a.Weeks {
		if w == week {
			return true
		}
	}
	return false
}

// RawAssignment is an undecoded record delivered by the persistence collaborator.
type RawAssignment struct {
	CourseID        string    `db:"course_id" json:"course_id"`
	CourseName      string    `db:"course_name" json:"course_name"`
	ClassroomID     string    `db:"classroom_id" json:"classroom_id"`
	ClassroomName   string    `db:"classroom_name" json:"classroom_name"`
	SlotText        string    `db:"slot" json:"slot"`
	WeeksText       string    `db:"weeks" json:"weeks"`
	TeacherID       string    `db:"teacher_id" json:"teacher_id"`
	ClassSectionIDs string    `db:"class_section_ids" json:"class_section_ids"`
	UpdatedAt       time.Time `db:"updated_at" json:"updated_at"`
}

// IngestionOutcome is the per-record result of decoding a raw assignment.
type IngestionOutcome struct {
	Index      int         `json:"index"`
	CourseID   string      `json:"course_id"`
	Assignment *Assignment `json:"assignment,omitempty"`
	Err        error       `json:"-"`
	Error      string      `json:"error,omitempty"`
}

// OK reports whether the record decoded successfully.
func (o IngestionOutcome) OK() bool {
	return o.Err == nil && o.Assignment != nil
}

// IngestionReport summarises a bulk load.
type IngestionReport struct {
	Loaded   int                `json:"loaded"`
	Skipped  int                `json:"skipped"`
	Outcomes []IngestionOutcome `json:"outcomes,omitempty"`
}
