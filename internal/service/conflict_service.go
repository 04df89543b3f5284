package service

import (
	"sort"

	"go.uber.org/zap"

	"github.com/noah-isme/timetable-core/internal/models"
)

type assignmentReader interface {
	All() []models.Assignment
	ByResource(kind models.ResourceKind, id string) []models.Assignment
}

// ConflictService reports overlapping bookings across the classroom, teacher and class-section axes.
// It never mutates the store and never fails; acceptance of a conflicting candidate is the caller's decision.
type ConflictService struct {
	store  assignmentReader
	logger *zap.Logger
}

// NewConflictService constructs the detector over the given store.
func NewConflictService(store assignmentReader, logger *zap.Logger) *ConflictService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ConflictService{store: store, logger: logger}
}

// Detect checks a candidate against the stored assignments.
// The candidate's own prior record, matched by CourseID, is excluded from every scope.
func (s *ConflictService) Detect(candidate models.Assignment) models.ProposalResult {
	result := models.ProposalResult{Conflicts: []models.Conflict{}}

	for _, kind := range models.ResourceKinds {
		ids := resourceIDs(candidate, kind)
		if len(ids) == 0 {
			result.SkippedAxes = append(result.SkippedAxes, models.UnknownResourceWarning{
				Axis:     kind,
				CourseID: candidate.CourseID,
				Message:  string(kind) + " id missing; axis not checked",
			})
			s.logger.Debug("conflict axis skipped", zap.String("axis", string(kind)), zap.String("course_id", candidate.CourseID))
			continue
		}

		for _, id := range ids {
			for _, existing := range s.store.ByResource(kind, id) {
				if existing.CourseID == candidate.CourseID {
					continue
				}
				if candidate.Slot.Overlaps(existing.Slot) {
					result.Conflicts = append(result.Conflicts, models.NewConflict(kind, id, candidate, existing))
				}
			}
		}
	}
	return result
}

// DetectAll scans a snapshot once, pairwise within each resource scope, and returns every overlap.
func (s *ConflictService) DetectAll(assignments []models.Assignment) models.ConflictReport {
	type scopeKey struct {
		kind models.ResourceKind
		id   string
	}

	var keys []scopeKey
	scopes := make(map[scopeKey][]int)
	for i, item := range assignments {
		for _, kind := range models.ResourceKinds {
			for _, id := range resourceIDs(item, kind) {
				key := scopeKey{kind: kind, id: id}
				if _, seen := scopes[key]; !seen {
					keys = append(keys, key)
				}
				scopes[key] = append(scopes[key], i)
			}
		}
	}

	flagged := make(map[int]struct{})
	report := models.ConflictReport{Total: len(assignments), Pairs: []models.Conflict{}, Flagged: []string{}}
	for _, key := range keys {
		members := scopes[key]
		for x := 0; x < len(members); x++ {
			existing := assignments[members[x]]
			for y := x + 1; y < len(members); y++ {
				candidate := assignments[members[y]]
				if candidate.CourseID == existing.CourseID || !candidate.Slot.Overlaps(existing.Slot) {
					continue
				}
				flagged[members[x]] = struct{}{}
				flagged[members[y]] = struct{}{}
				report.Pairs = append(report.Pairs, models.NewConflict(key.kind, key.id, candidate, existing))
			}
		}
	}

	indexes := make([]int, 0, len(flagged))
	for idx := range flagged {
		indexes = append(indexes, idx)
	}
	sort.Ints(indexes)
	for _, idx := range indexes {
		report.Flagged = append(report.Flagged, assignments[idx].CourseID)
	}
	if report.Total > 0 {
		report.Rate = float64(len(indexes)) / float64(report.Total)
	}
	return report
}

// Report runs DetectAll over the current store snapshot.
func (s *ConflictService) Report() models.ConflictReport {
	return s.DetectAll(s.store.All())
}

func resourceIDs(a models.Assignment, kind models.ResourceKind) []string {
	switch kind {
	case models.ResourceClassroom:
		if a.ClassroomID != "" {
			return []string{a.ClassroomID}
		}
	case models.ResourceTeacher:
		if a.TeacherID != "" {
			return []string{a.TeacherID}
		}
	case models.ResourceClassSection:
		var ids []string
		seen := make(map[string]struct{}, len(a.ClassSectionIDs))
		for _, id := range a.ClassSectionIDs {
			if id == "" {
				continue
			}
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
			ids = append(ids, id)
		}
		return ids
	}
	return nil
}
