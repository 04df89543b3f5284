package models

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	appErrors "github.com/noah-isme/timetable-core/pkg/errors"
)

const (
	// MaxPeriodIndex is the last zero-based period group of a teaching day.
	MaxPeriodIndex = 4
	// PeriodGroups is the number of canonical period groups per day.
	PeriodGroups = MaxPeriodIndex + 1
	// Weekdays counts Monday through Friday.
	Weekdays = 5
	// MaxTermWeeks caps any week number a request may name.
	MaxTermWeeks = 52
)

var periodLabels = [PeriodGroups]string{
	"periods 1-2",
	"periods 3-4",
	"periods 5-6",
	"periods 7-8",
	"periods 9-10",
}

var dayLabels = [7]string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}

// TimeSlot is a recurring weekday and inclusive zero-based period range.
type TimeSlot struct {
	DayOfWeek   int `json:"day_of_week"`
	StartPeriod int `json:"start_period"`
	EndPeriod   int `json:"end_period"`
}

// MalformedSlotError reports slot text that does not follow the day:start-end grammar.
type MalformedSlotError struct {
	Input  string
	Reason string
}

// Error implements the error interface.
func (e *MalformedSlotError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("malformed slot %q: %s", e.Input, e.Reason)
}

// Unwrap exposes the typed sentinel so callers can use errors.Is.
func (e *MalformedSlotError) Unwrap() error {
	return appErrors.ErrMalformedSlot
}

// ParseTimeSlot decodes "<day>:<start>-<end>" where periods are 1-based.
func ParseTimeSlot(text string) (TimeSlot, error) {
	raw := strings.TrimSpace(text)
	dayPart, rangePart, ok := strings.Cut(raw, ":")
	if !ok {
		return TimeSlot{}, &MalformedSlotError{Input: text, Reason: "expected day:start-end"}
	}
	startPart, endPart, ok := strings.Cut(rangePart, "-")
	if !ok {
		return TimeSlot{}, &MalformedSlotError{Input: text, Reason: "expected start-end period range"}
	}

	if len(dayPart) == 0 || !isDigits(dayPart) {
		return TimeSlot{}, &MalformedSlotError{Input: text, Reason: "day is not numeric"}
	}
	day, err := strconv.Atoi(dayPart)
	if err != nil || len(dayPart) != 1 || day < 1 || day > 7 {
		return TimeSlot{}, &MalformedSlotError{Input: text, Reason: "day must be between 1 and 7"}
	}

	start, ok := parsePeriod(startPart)
	if !ok {
		return TimeSlot{}, &MalformedSlotError{Input: text, Reason: "start period is not a number between 1 and 99"}
	}
	end, ok := parsePeriod(endPart)
	if !ok {
		return TimeSlot{}, &MalformedSlotError{Input: text, Reason: "end period is not a number between 1 and 99"}
	}
	if start > end {
		return TimeSlot{}, &MalformedSlotError{Input: text, Reason: "start period after end period"}
	}

	return TimeSlot{DayOfWeek: day, StartPeriod: start - 1, EndPeriod: end - 1}, nil
}

// FormatTimeSlot is the inverse of ParseTimeSlot.
func FormatTimeSlot(slot TimeSlot) string {
	return fmt.Sprintf("%d:%d-%d", slot.DayOfWeek, slot.StartPeriod+1, slot.EndPeriod+1)
}

// String renders the canonical slot text.
func (s TimeSlot) String() string {
	return FormatTimeSlot(s)
}

// InGrid reports whether the slot lies on the canonical week grid.
func (s TimeSlot) InGrid() bool {
	return s.DayOfWeek >= 1 && s.DayOfWeek <= 7 &&
		s.StartPeriod >= 0 && s.StartPeriod <= s.EndPeriod && s.EndPeriod <= MaxPeriodIndex
}

// Overlaps applies the closed-interval intersection test on the same weekday.
func (s TimeSlot) Overlaps(other TimeSlot) bool {
	return s.DayOfWeek == other.DayOfWeek &&
		s.StartPeriod <= other.EndPeriod &&
		other.StartPeriod <= s.EndPeriod
}

// Less orders slots by day, then start, then end period.
func (s TimeSlot) Less(other TimeSlot) bool {
	if s.DayOfWeek != other.DayOfWeek {
		return s.DayOfWeek < other.DayOfWeek
	}
	if s.StartPeriod != other.StartPeriod {
		return s.StartPeriod < other.StartPeriod
	}
	return s.EndPeriod < other.EndPeriod
}

// PeriodLabel maps a zero-based period group to its display label.
// Historical rows carry placeholder periods, so unknown indexes get a generic label.
func PeriodLabel(period int) string {
	if period < 0 || period > MaxPeriodIndex {
		return fmt.Sprintf("period %d", period+1)
	}
	return periodLabels[period]
}

// DayLabel maps 1..7 to an English weekday name.
func DayLabel(day int) string {
	if day < 1 || day > 7 {
		return fmt.Sprintf("day %d", day)
	}
	return dayLabels[day-1]
}

// ParseWeeks parses week lists such as "1,2,3" or "1-8,10". maxWeek outside 1-MaxTermWeeks means MaxTermWeeks.
func ParseWeeks(text string, maxWeek int) ([]int, error) {
	if maxWeek <= 0 || maxWeek > MaxTermWeeks {
		maxWeek = MaxTermWeeks
	}
	raw := strings.TrimSpace(text)
	if raw == "" {
		return nil, nil
	}

	seen := make(map[int]struct{})
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		lo, hi := part, part
		if a, b, ok := strings.Cut(part, "-"); ok {
			lo, hi = strings.TrimSpace(a), strings.TrimSpace(b)
		}
		from, errFrom := strconv.Atoi(lo)
		to, errTo := strconv.Atoi(hi)
		if errFrom != nil || errTo != nil || from < 1 || from > to {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("invalid week range %q", part))
		}
		if to > maxWeek {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("week %d exceeds term length %d", to, maxWeek))
		}
		for w := from; w <= to; w++ {
			seen[w] = struct{}{}
		}
	}

	weeks := make([]int, 0, len(seen))
	for w := range seen {
		weeks = append(weeks, w)
	}
	sort.Ints(weeks)
	return weeks, nil
}

// FormatWeeks renders a week list as comma separated numbers.
func FormatWeeks(weeks []int) string {
	parts := make([]string, len(weeks))
	for i, w := range weeks {
		parts[i] = strconv.Itoa(w)
	}
	return strings.Join(parts, ",")
}

func parsePeriod(raw string) (int, bool) {
	if len(raw) == 0 || len(raw) > 2 || raw[0] == '0' || !isDigits(raw) {
		return 0, false
	}
	n, err := strconv.Atoi(raw)
	return n, err == nil
}

func isDigits(raw string) bool {
	for _, r := range raw {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
