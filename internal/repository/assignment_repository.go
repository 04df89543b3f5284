package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/timetable-core/internal/models"
)

// AssignmentRepository persists committed assignments in PostgreSQL.
type AssignmentRepository struct {
	db *sqlx.DB
}

// NewAssignmentRepository creates a new assignment repository.
func NewAssignmentRepository(db *sqlx.DB) *AssignmentRepository {
	return &AssignmentRepository{db: db}
}

// ListRaw returns undecoded assignment rows ordered by insertion time.
func (r *AssignmentRepository) ListRaw(ctx context.Context) ([]models.RawAssignment, error) {
	const query = `SELECT course_id, course_name, classroom_id, classroom_name, slot, weeks, teacher_id, class_section_ids, updated_at FROM assignments ORDER BY created_at ASC, course_id ASC`
	var rows []models.RawAssignment
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("list assignments: %w", err)
	}
	return rows, nil
}

// Save inserts or replaces the assignment keyed by course id.
func (r *AssignmentRepository) Save(ctx context.Context, assignment models.Assignment) error {
	row := toRawAssignment(assignment)
	row.UpdatedAt = time.Now().UTC()

	const query = `INSERT INTO assignments (course_id, course_name, classroom_id, classroom_name, slot, weeks, teacher_id, class_section_ids, created_at, updated_at)
VALUES (:course_id, :course_name, :classroom_id, :classroom_name, :slot, :weeks, :teacher_id, :class_section_ids, :updated_at, :updated_at)
ON CONFLICT (course_id) DO UPDATE SET course_name = EXCLUDED.course_name, classroom_id = EXCLUDED.classroom_id, classroom_name = EXCLUDED.classroom_name, slot = EXCLUDED.slot, weeks = EXCLUDED.weeks, teacher_id = EXCLUDED.teacher_id, class_section_ids = EXCLUDED.class_section_ids, updated_at = EXCLUDED.updated_at`
	if _, err := r.db.NamedExecContext(ctx, query, row); err != nil {
		return fmt.Errorf("save assignment: %w", err)
	}
	return nil
}

// Delete removes an assignment by course id.
func (r *AssignmentRepository) Delete(ctx context.Context, courseID string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM assignments WHERE course_id = $1`, courseID); err != nil {
		return fmt.Errorf("delete assignment: %w", err)
	}
	return nil
}

func toRawAssignment(a models.Assignment) models.RawAssignment {
	return models.RawAssignment{
		CourseID:        a.CourseID,
		CourseName:      a.CourseName,
		ClassroomID:     a.ClassroomID,
		ClassroomName:   a.ClassroomName,
		SlotText:        a.Slot.String(),
		WeeksText:       models.FormatWeeks(a.Weeks),
		TeacherID:       a.TeacherID,
		ClassSectionIDs: strings.Join(a.ClassSectionIDs, ","),
	}
}
