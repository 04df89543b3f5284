package models

// ViewMode selects a projection of the assignment store.
type ViewMode string

const (
	ViewModeWeek     ViewMode = "week"
	ViewModeMonth    ViewMode = "month"
	ViewModeSemester ViewMode = "semester"
	ViewModeOverview ViewMode = "overview"
)

// Valid reports whether the mode is one of the supported projections.
func (m ViewMode) Valid() bool {
	switch m {
	case ViewModeWeek, ViewModeMonth, ViewModeSemester, ViewModeOverview:
		return true
	}
	return false
}

// WeekGrid is a days x periods matrix; nil cells are free.
type WeekGrid struct {
	Days         []int           `json:"days"`
	Periods      []int           `json:"periods"`
	PeriodLabels []string        `json:"period_labels"`
	Cells        [][]*Assignment `json:"cells"`
}

// At returns the assignment placed at the given weekday and period, if any.
func (g *WeekGrid) At(day, period int) *Assignment {
	if g == nil || len(g.Days) == 0 || len(g.Periods) == 0 {
		return nil
	}
	row := day - g.Days[0]
	col := period - g.Periods[0]
	if row < 0 || row >= len(g.Cells) || col < 0 || col >= len(g.Cells[row]) {
		return nil
	}
	return g.Cells[row][col]
}

// MonthView groups assignments per active week and weekday.
type MonthView struct {
	Weeks  []int                        `json:"weeks"`
	Groups map[int]map[int][]Assignment `json:"groups"`
}

// SemesterView groups every distinct meeting of a course across the term.
type SemesterView map[string][]Assignment

// OverviewView is a flat, ordered listing with per-day totals.
type OverviewView struct {
	Total       int          `json:"total"`
	ByDay       [7]int       `json:"by_day"`
	Assignments []Assignment `json:"assignments"`
}

// Range is an inclusive integer interval.
type Range struct {
	From int `json:"from"`
	To   int `json:"to"`
}

// Contains reports whether v lies within the range.
func (r Range) Contains(v int) bool {
	return v >= r.From && v <= r.To
}

// Values expands the range into its members.
func (r Range) Values() []int {
	if r.To < r.From {
		return nil
	}
	out := make([]int, 0, r.To-r.From+1)
	for v := r.From; v <= r.To; v++ {
		out = append(out, v)
	}
	return out
}

// ViewOptions carries optional projection parameters.
type ViewOptions struct {
	Filter  string
	Days    *Range
	Periods *Range
	Weeks   []int
}

// ScheduleView is the envelope returned by the view endpoint; exactly one projection is set.
type ScheduleView struct {
	Mode     ViewMode      `json:"mode"`
	Filter   string        `json:"filter,omitempty"`
	Week     *WeekGrid     `json:"week,omitempty"`
	Month    *MonthView    `json:"month,omitempty"`
	Semester SemesterView  `json:"semester,omitempty"`
	Overview *OverviewView `json:"overview,omitempty"`
}
