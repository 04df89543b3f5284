package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/timetable-core/internal/models"
	"github.com/noah-isme/timetable-core/internal/repository"
	"github.com/noah-isme/timetable-core/internal/service"
)

func newTestRouter(t *testing.T) (*gin.Engine, *service.MetricsService) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	logr := zap.NewNop()
	metrics := service.NewMetricsService()
	store := repository.NewAssignmentStore()
	tasks := repository.NewTaskStore()
	cache := service.NewCacheService(nil, metrics, 0, logr, false)
	conflicts := service.NewConflictService(store, logr)
	views := service.NewViewService(20, logr)
	stats := service.NewStatisticsService(store, tasks, conflicts, cache, metrics, logr, service.StatisticsConfig{})
	scheduling := service.NewSchedulingService(store, tasks, conflicts, views, stats, cache, nil, nil, nil, metrics, logr, service.SchedulingConfig{})

	router := NewRouter(RouterOptions{
		APIPrefix:      "/api/v1",
		AllowedOrigins: []string{"https://timetable.example.com"},
		Logger:         logr,
		Metrics:        metrics,
		Scheduling:     NewSchedulingHandler(scheduling),
		Tasks:          NewTaskHandler(scheduling),
		Observability:  NewMetricsHandler(metrics, store),
	})
	return router, metrics
}

func serve(router *gin.Engine, method, target, body string) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != "" {
		reader = bytes.NewReader([]byte(body))
	} else {
		reader = bytes.NewReader(nil)
	}
	req, _ := http.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestRouterAssignmentFlow(t *testing.T) {
	router, metrics := newTestRouter(t)

	w := serve(router, http.MethodPost, "/api/v1/assignments", `{"course_id":"CS101","course_name":"Intro","classroom_id":"A101","slot":"1:1-2"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	w = serve(router, http.MethodPost, "/api/v1/assignments/propose", `{"course_id":"CS102","course_name":"Data","classroom_id":"A101","slot":"1:2-3"}`)
	require.Equal(t, http.StatusOK, w.Code)
	var proposal struct {
		Data models.ProposalResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &proposal))
	require.Len(t, proposal.Data.Conflicts, 1)
	assert.Equal(t, models.ResourceClassroom, proposal.Data.Conflicts[0].Axis)

	w = serve(router, http.MethodPost, "/api/v1/assignments", `{"course_id":"CS103","course_name":"Bad","classroom_id":"A101","slot":"9:1-2"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "MALFORMED_SLOT")

	w = serve(router, http.MethodGet, "/api/v1/views/week", "")
	require.Equal(t, http.StatusOK, w.Code)

	w = serve(router, http.MethodGet, "/api/v1/views/week?periods=1-200000", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = serve(router, http.MethodGet, "/api/v1/views/month?weeks=1-30", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = serve(router, http.MethodGet, "/api/v1/statistics", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"cache_hit":false`)

	w = serve(router, http.MethodDelete, "/api/v1/assignments/CS101", "")
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = serve(router, http.MethodGet, "/api/v1/assignments", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"total_count":0`)

	assert.GreaterOrEqual(t, metrics.Snapshot().RequestsTotal, uint64(7))
}

func TestRouterLoadWithoutDatabase(t *testing.T) {
	router, _ := newTestRouter(t)

	w := serve(router, http.MethodPost, "/api/v1/assignments/load", "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "STORAGE_ERROR")

	w = serve(router, http.MethodPost, "/api/v1/assignments/load", `{"records":[{"course_id":"A","slot":"1:1-2"},{"course_id":"B","slot":"8:1-2"}]}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"loaded":1`)
	assert.Contains(t, w.Body.String(), `"skipped":1`)
}

func TestRouterTaskFlow(t *testing.T) {
	router, _ := newTestRouter(t)

	w := serve(router, http.MethodPost, "/api/v1/tasks", `{"course_id":"CS101","course_name":"Intro","teacher_id":"T1"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	var created struct {
		Data models.SchedulingTask `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	require.NotEmpty(t, created.Data.ID)

	w = serve(router, http.MethodPost, "/api/v1/tasks/"+created.Data.ID+"/complete", "")
	assert.Equal(t, http.StatusConflict, w.Code)

	w = serve(router, http.MethodPost, "/api/v1/tasks/"+created.Data.ID+"/schedule", `{"classroom_id":"A101","slot":"2:1-2"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"SCHEDULED"`)

	w = serve(router, http.MethodGet, "/api/v1/tasks?status=scheduled", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), created.Data.ID)
}

func TestRouterSystemEndpoints(t *testing.T) {
	router, _ := newTestRouter(t)

	w := serve(router, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"ok"`)

	w = serve(router, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.Contains(w.Body.String(), "timetable_assignments") || strings.Contains(w.Body.String(), "# HELP"))

	w = serve(router, http.MethodGet, "/metrics/summary", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "goroutines")

	w = serve(router, http.MethodGet, "/docs/index.html", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRouterCORSPreflight(t *testing.T) {
	router, _ := newTestRouter(t)

	req, _ := http.NewRequest(http.MethodOptions, "/api/v1/assignments", nil)
	req.Header.Set("Origin", "https://timetable.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "https://timetable.example.com", w.Header().Get("Access-Control-Allow-Origin"))
}
