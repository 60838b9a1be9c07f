package handler

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-timetable/internal/dto"
	"github.com/noah-isme/sma-timetable/internal/middleware"
	"github.com/noah-isme/sma-timetable/internal/models"
	"github.com/noah-isme/sma-timetable/internal/service"
	appErrors "github.com/noah-isme/sma-timetable/pkg/errors"
	"github.com/noah-isme/sma-timetable/pkg/response"
)

type timetableGenerator interface {
	Generate(ctx context.Context, programID string, req dto.GenerateTimetableRequest) (*dto.GenerateTimetableResponse, error)
	GetTimetable(ctx context.Context, programID string) (*dto.TimetableResponse, bool, error)
	ListConflicts(ctx context.Context, programID string) ([]models.TimetableConflict, error)
}

type timetableExporter interface {
	ExportTimetable(ctx context.Context, programID string, query dto.TimetableExportQuery) (*service.ExportResult, error)
}

// TimetableHandler exposes generation, listing and export of program timetables.
type TimetableHandler struct {
	service  timetableGenerator
	exporter timetableExporter
}

// NewTimetableHandler constructs the handler.
func NewTimetableHandler(svc timetableGenerator, exporter timetableExporter) *TimetableHandler {
	return &TimetableHandler{service: svc, exporter: exporter}
}

// Generate godoc
// @Summary Generate a program timetable
// @Description Runs the allocator synchronously. Unless dryRun is set, a complete run replaces the stored timetable.
// @Tags Timetable
// @Accept json
// @Produce json
// @Param id path string true "Program ID"
// @Param payload body dto.GenerateTimetableRequest false "Generate payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 503 {object} response.Envelope
// @Router /programs/{id}/timetable/generate [post]
func (h *TimetableHandler) Generate(c *gin.Context) {
	req, ok := bindGenerateRequest(c)
	if !ok {
		return
	}
	result, err := h.service.Generate(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Get godoc
// @Summary Get the stored timetable of a program
// @Tags Timetable
// @Produce json
// @Param id path string true "Program ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /programs/{id}/timetable [get]
func (h *TimetableHandler) Get(c *gin.Context) {
	result, hit, err := h.service.GetTimetable(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, hit)
	response.JSON(c, http.StatusOK, result, nil, middleware.ExtractMeta(c))
}

// Conflicts godoc
// @Summary List conflicts from the last persisted run
// @Tags Timetable
// @Produce json
// @Param id path string true "Program ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /programs/{id}/timetable/conflicts [get]
func (h *TimetableHandler) Conflicts(c *gin.Context) {
	conflicts, err := h.service.ListConflicts(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, conflicts, nil)
}

// Export godoc
// @Summary Download the stored timetable
// @Tags Timetable
// @Produce text/csv
// @Produce application/pdf
// @Param id path string true "Program ID"
// @Param format query string false "csv or pdf"
// @Param layout query string false "list or grid"
// @Success 200 {file} file
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /programs/{id}/timetable/export [get]
func (h *TimetableHandler) Export(c *gin.Context) {
	var query dto.TimetableExportQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid export query"))
		return
	}
	result, err := h.exporter.ExportTimetable(c.Request.Context(), c.Param("id"), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, result.Filename, result.ContentType, result.Body)
}

// bindGenerateRequest accepts an empty body as a request with defaults.
func bindGenerateRequest(c *gin.Context) (dto.GenerateTimetableRequest, bool) {
	var req dto.GenerateTimetableRequest
	if c.Request.Body == nil || c.Request.ContentLength == 0 {
		return req, true
	}
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid generate payload"))
		return req, false
	}
	return req, true
}
