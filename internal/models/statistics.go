package models

import "time"

// BuildingUsage aggregates occupancy for the classrooms of one building.
type BuildingUsage struct {
	Assignments int     `json:"assignments"`
	Classrooms  int     `json:"classrooms"`
	Ratio       float64 `json:"ratio"`
}

// HalfDayCount splits a weekday's assignments into morning and afternoon.
type HalfDayCount struct {
	Day       string `json:"day"`
	Morning   int    `json:"morning"`
	Afternoon int    `json:"afternoon"`
}

// TaskCompletion summarises scheduling task progress.
type TaskCompletion struct {
	Total     int     `json:"total"`
	Pending   int     `json:"pending"`
	Scheduled int     `json:"scheduled"`
	Completed int     `json:"completed"`
	Rate      float64 `json:"rate"`
}

// ScheduleStatistics is the aggregate served to analytical dashboards.
type ScheduleStatistics struct {
	TotalAssignments            int                      `json:"total_assignments"`
	TotalCourses                int                      `json:"total_courses"`
	TotalTeachers               int                      `json:"total_teachers"`
	TotalClassrooms             int                      `json:"total_classrooms"`
	ClassroomUtilization        map[string]float64       `json:"classroom_utilization"`
	AverageClassroomUtilization float64                  `json:"average_classroom_utilization"`
	DayDistribution             [Weekdays]int            `json:"day_distribution"`
	PeriodDistribution          [PeriodGroups]int        `json:"period_distribution"`
	HalfDayDistribution         []HalfDayCount           `json:"half_day_distribution"`
	BuildingUtilization         map[string]BuildingUsage `json:"building_utilization"`
	CourseTypeDistribution      map[string]int           `json:"course_type_distribution"`
	ConflictRate                float64                  `json:"conflict_rate"`
	Tasks                       TaskCompletion           `json:"tasks"`
	StoreVersion                uint64                   `json:"store_version"`
	GeneratedAt                 time.Time                `json:"generated_at"`
}

// ResourceLookup maps a resource id (classroom, course) to a category such as a building or course type.
type ResourceLookup interface {
	Lookup(id string) (string, bool)
}

// StaticLookup is a map-backed ResourceLookup.
type StaticLookup map[string]string

// Lookup implements ResourceLookup.
func (l StaticLookup) Lookup(id string) (string, bool) {
	v, ok := l[id]
	return v, ok
}

// ServiceMetricsSnapshot represents system level counters captured from instrumentation.
type ServiceMetricsSnapshot struct {
	CacheHitRatio            float64   `json:"cache_hit_ratio"`
	CacheHits                uint64    `json:"cache_hits"`
	CacheMisses              uint64    `json:"cache_misses"`
	RequestsTotal            uint64    `json:"requests_total"`
	AverageRequestDurationMs float64   `json:"average_request_duration_ms"`
	StorageOpsCount          uint64    `json:"storage_ops_count"`
	AverageStorageOpMs       float64   `json:"average_storage_op_ms"`
	IngestionSkipped         uint64    `json:"ingestion_skipped"`
	Goroutines               int       `json:"goroutines"`
	GeneratedAt              time.Time `json:"generated_at"`
}
