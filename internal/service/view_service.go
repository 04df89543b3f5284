package service

import (
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/noah-isme/timetable-core/internal/models"
	appErrors "github.com/noah-isme/timetable-core/pkg/errors"
)

var (
	defaultDayRange    = models.Range{From: 1, To: models.Weekdays}
	defaultPeriodRange = models.Range{From: 0, To: models.MaxPeriodIndex}
)

// ViewService projects assignment snapshots into calendar-shaped structures.
type ViewService struct {
	termWeeks int
	logger    *zap.Logger
}

// NewViewService constructs a projector; termWeeks bounds the month window.
func NewViewService(termWeeks int, logger *zap.Logger) *ViewService {
	if termWeeks <= 0 || termWeeks > models.MaxTermWeeks {
		termWeeks = 20
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ViewService{termWeeks: termWeeks, logger: logger}
}

// Build dispatches to the projection named by mode.
func (s *ViewService) Build(assignments []models.Assignment, mode models.ViewMode, opts models.ViewOptions) (*models.ScheduleView, error) {
	view := &models.ScheduleView{Mode: mode, Filter: opts.Filter}
	switch mode {
	case models.ViewModeWeek:
		days, periods := defaultDayRange, defaultPeriodRange
		if opts.Days != nil {
			days = *opts.Days
		}
		if opts.Periods != nil {
			periods = *opts.Periods
		}
		if days.From < 1 || days.To > 7 || days.From > days.To {
			return nil, appErrors.Clone(appErrors.ErrValidation, "day range must lie within 1-7")
		}
		if periods.From < 0 || periods.To > models.MaxPeriodIndex || periods.From > periods.To {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("period range must lie within 1-%d", models.PeriodGroups))
		}
		view.Week = s.WeekGrid(assignments, days, periods, opts.Filter)
	case models.ViewModeMonth:
		weeks := opts.Weeks
		if len(weeks) == 0 {
			weeks = models.Range{From: 1, To: s.termWeeks}.Values()
		}
		for _, w := range weeks {
			if w < 1 || w > s.termWeeks {
				return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("weeks must lie within 1-%d", s.termWeeks))
			}
		}
		view.Month = s.MonthGroups(assignments, weeks, opts.Filter)
	case models.ViewModeSemester:
		view.Semester = s.SemesterGroups(assignments, opts.Filter)
	case models.ViewModeOverview:
		view.Overview = s.Overview(assignments, opts.Filter)
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "view mode must be one of week, month, semester, overview")
	}
	return view, nil
}

// WeekGrid places each in-range assignment at [day][startPeriod]. Collisions are last-write-wins.
func (s *ViewService) WeekGrid(assignments []models.Assignment, days, periods models.Range, filter string) *models.WeekGrid {
	dayValues := days.Values()
	periodValues := periods.Values()
	grid := &models.WeekGrid{
		Days:         dayValues,
		Periods:      periodValues,
		PeriodLabels: make([]string, len(periodValues)),
		Cells:        make([][]*models.Assignment, len(dayValues)),
	}
	for i, p := range periodValues {
		grid.PeriodLabels[i] = models.PeriodLabel(p)
	}
	for i := range grid.Cells {
		grid.Cells[i] = make([]*models.Assignment, len(periodValues))
	}

	omitted := 0
	for _, item := range FilterAssignments(assignments, filter) {
		if !days.Contains(item.Slot.DayOfWeek) || !periods.Contains(item.Slot.StartPeriod) {
			omitted++
			continue
		}
		placed := item.Clone()
		grid.Cells[item.Slot.DayOfWeek-days.From][item.Slot.StartPeriod-periods.From] = &placed
	}
	if omitted > 0 {
		s.logger.Debug("week grid omitted out-of-range assignments", zap.Int("count", omitted))
	}
	return grid
}

// MonthGroups buckets assignments by the supplied week numbers and weekday.
func (s *ViewService) MonthGroups(assignments []models.Assignment, weeksInMonth []int, filter string) *models.MonthView {
	weeks := uniqueSorted(weeksInMonth)
	view := &models.MonthView{Weeks: weeks, Groups: make(map[int]map[int][]models.Assignment, len(weeks))}
	filtered := FilterAssignments(assignments, filter)
	for _, week := range weeks {
		byDay := make(map[int][]models.Assignment)
		for _, item := range filtered {
			if !item.ActiveInWeek(week) {
				continue
			}
			byDay[item.Slot.DayOfWeek] = append(byDay[item.Slot.DayOfWeek], item.Clone())
		}
		for day := range byDay {
			sortBySlot(byDay[day])
		}
		view.Groups[week] = byDay
	}
	return view
}

// SemesterGroups lists the distinct meeting slots of each course name.
func (s *ViewService) SemesterGroups(assignments []models.Assignment, filter string) models.SemesterView {
	view := make(models.SemesterView)
	seen := make(map[string]map[models.TimeSlot]struct{})
	for _, item := range FilterAssignments(assignments, filter) {
		slots, ok := seen[item.CourseName]
		if !ok {
			slots = make(map[models.TimeSlot]struct{})
			seen[item.CourseName] = slots
		}
		if _, dup := slots[item.Slot]; dup {
			continue
		}
		slots[item.Slot] = struct{}{}
		view[item.CourseName] = append(view[item.CourseName], item.Clone())
	}
	for name := range view {
		sortBySlot(view[name])
	}
	return view
}

// Overview returns the filtered list ordered by slot with per-day totals.
func (s *ViewService) Overview(assignments []models.Assignment, filter string) *models.OverviewView {
	filtered := FilterAssignments(assignments, filter)
	sortBySlot(filtered)
	view := &models.OverviewView{Total: len(filtered), Assignments: filtered}
	for _, item := range filtered {
		if item.Slot.DayOfWeek >= 1 && item.Slot.DayOfWeek <= 7 {
			view.ByDay[item.Slot.DayOfWeek-1]++
		}
	}
	return view
}

// FilterAssignments keeps assignments whose course name, classroom name or course id
// contains filter, case-insensitively. The result never aliases the input slices.
func FilterAssignments(assignments []models.Assignment, filter string) []models.Assignment {
	needle := strings.ToLower(strings.TrimSpace(filter))
	out := make([]models.Assignment, 0, len(assignments))
	for _, item := range assignments {
		if needle == "" ||
			strings.Contains(strings.ToLower(item.CourseName), needle) ||
			strings.Contains(strings.ToLower(item.ClassroomName), needle) ||
			strings.Contains(strings.ToLower(item.CourseID), needle) {
			out = append(out, item.Clone())
		}
	}
	return out
}

func sortBySlot(items []models.Assignment) {
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].Slot != items[j].Slot {
			return items[i].Slot.Less(items[j].Slot)
		}
		return items[i].CourseID < items[j].CourseID
	})
}

func uniqueSorted(values []int) []int {
	seen := make(map[int]struct{}, len(values))
	out := make([]int, 0, len(values))
	for _, v := range values {
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	sort.Ints(out)
	return out
}
