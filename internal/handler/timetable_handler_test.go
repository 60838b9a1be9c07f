package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-timetable/internal/dto"
	"github.com/noah-isme/sma-timetable/internal/middleware"
	"github.com/noah-isme/sma-timetable/internal/models"
	"github.com/noah-isme/sma-timetable/internal/scheduler"
	"github.com/noah-isme/sma-timetable/internal/service"
	appErrors "github.com/noah-isme/sma-timetable/pkg/errors"
)

type timetableServiceMock struct {
	programID string
	captured  dto.GenerateTimetableRequest
	hit       bool
	err       error
}

func (m *timetableServiceMock) Generate(ctx context.Context, programID string, req dto.GenerateTimetableRequest) (*dto.GenerateTimetableResponse, error) {
	m.programID = programID
	m.captured = req
	if m.err != nil {
		return nil, m.err
	}
	return &dto.GenerateTimetableResponse{RunID: "run-1", ProgramID: programID, Status: scheduler.StatusComplete}, nil
}

func (m *timetableServiceMock) GetTimetable(ctx context.Context, programID string) (*dto.TimetableResponse, bool, error) {
	if m.err != nil {
		return nil, false, m.err
	}
	return &dto.TimetableResponse{ProgramID: programID}, m.hit, nil
}

func (m *timetableServiceMock) ListConflicts(ctx context.Context, programID string) ([]models.TimetableConflict, error) {
	return []models.TimetableConflict{{Kind: "ROOM_CAPACITY", Message: "no room fits"}}, nil
}

type exporterMock struct {
	query dto.TimetableExportQuery
}

func (m *exporterMock) ExportTimetable(ctx context.Context, programID string, query dto.TimetableExportQuery) (*service.ExportResult, error) {
	m.query = query
	if query.Format == "xlsx" {
		return nil, appErrors.ErrUnsupportedFormat
	}
	return &service.ExportResult{Filename: "timetable_CS_list.csv", ContentType: "text/csv", Body: []byte("Day,Start\n")}, nil
}

func newTimetableRouter(svc *timetableServiceMock, exporter *exporterMock) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewTimetableHandler(svc, exporter)
	router := gin.New()
	router.Use(middleware.WithResponseMeta())
	router.POST("/programs/:id/timetable/generate", h.Generate)
	router.GET("/programs/:id/timetable", h.Get)
	router.GET("/programs/:id/timetable/conflicts", h.Conflicts)
	router.GET("/programs/:id/timetable/export", h.Export)
	return router
}

func TestTimetableHandlerGenerate(t *testing.T) {
	svc := &timetableServiceMock{}
	router := newTimetableRouter(svc, &exporterMock{})

	body := []byte(`{"dryRun":true,"year":2,"settings":{"allowWeekends":true}}`)
	req := httptest.NewRequest(http.MethodPost, "/programs/p1/timetable/generate", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "p1", svc.programID)
	assert.True(t, svc.captured.DryRun)
	require.NotNil(t, svc.captured.Year)
	assert.Equal(t, 2, *svc.captured.Year)
	require.NotNil(t, svc.captured.Settings.AllowWeekends)
	assert.True(t, *svc.captured.Settings.AllowWeekends)
}

func TestTimetableHandlerGenerateEmptyBody(t *testing.T) {
	svc := &timetableServiceMock{}
	router := newTimetableRouter(svc, &exporterMock{})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/programs/p1/timetable/generate", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.False(t, svc.captured.DryRun)
}

func TestTimetableHandlerGenerateErrors(t *testing.T) {
	svc := &timetableServiceMock{}
	router := newTimetableRouter(svc, &exporterMock{})

	req := httptest.NewRequest(http.MethodPost, "/programs/p1/timetable/generate", bytes.NewReader([]byte(`{"dryRun":`)))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	svc.err = appErrors.ErrSchedulerDisabled
	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/programs/p1/timetable/generate", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestTimetableHandlerGetReportsCacheHit(t *testing.T) {
	router := newTimetableRouter(&timetableServiceMock{hit: true}, &exporterMock{})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/programs/p1/timetable", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "HIT", w.Header().Get(middleware.CacheHeader))

	var envelope struct {
		Data dto.TimetableResponse `json:"data"`
		Meta map[string]interface{} `json:"meta"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	assert.Equal(t, "p1", envelope.Data.ProgramID)
	assert.Equal(t, true, envelope.Meta["cache_hit"])
}

func TestTimetableHandlerConflicts(t *testing.T) {
	router := newTimetableRouter(&timetableServiceMock{}, &exporterMock{})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/programs/p1/timetable/conflicts", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "ROOM_CAPACITY")
}

func TestTimetableHandlerExport(t *testing.T) {
	exporter := &exporterMock{}
	router := newTimetableRouter(&timetableServiceMock{}, exporter)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/programs/p1/timetable/export?format=csv&layout=grid", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "grid", exporter.query.Layout)
	assert.Equal(t, "text/csv", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "timetable_CS_list.csv")

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/programs/p1/timetable/export?format=xlsx", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
