package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-timetable/internal/dto"
	"github.com/noah-isme/sma-timetable/internal/models"
	"github.com/noah-isme/sma-timetable/pkg/response"
)

type allocationRunner interface {
	Start(ctx context.Context, programID string, req dto.GenerateTimetableRequest, requestedBy string) (*dto.StartRunResponse, error)
	Get(ctx context.Context, runID string) (*models.AllocationRun, error)
	Cancel(ctx context.Context, runID string) (*models.AllocationRun, error)
}

// AllocationRunHandler exposes asynchronous allocation runs.
type AllocationRunHandler struct {
	service allocationRunner
}

// NewAllocationRunHandler constructs the handler.
func NewAllocationRunHandler(svc allocationRunner) *AllocationRunHandler {
	return &AllocationRunHandler{service: svc}
}

// Start godoc
// @Summary Queue an allocation run
// @Tags Timetable
// @Accept json
// @Produce json
// @Param id path string true "Program ID"
// @Param payload body dto.GenerateTimetableRequest false "Generate payload"
// @Success 202 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 503 {object} response.Envelope
// @Router /programs/{id}/timetable/runs [post]
func (h *AllocationRunHandler) Start(c *gin.Context) {
	req, ok := bindGenerateRequest(c)
	if !ok {
		return
	}
	result, err := h.service.Start(c.Request.Context(), c.Param("id"), req, requesterID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Accepted(c, result)
}

// Get godoc
// @Summary Get allocation run progress
// @Tags Timetable
// @Produce json
// @Param runId path string true "Run ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /timetable/runs/{runId} [get]
func (h *AllocationRunHandler) Get(c *gin.Context) {
	run, err := h.service.Get(c.Request.Context(), c.Param("runId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, run, nil)
}

// Cancel godoc
// @Summary Cancel an allocation run
// @Description Queued runs are cancelled immediately; running runs stop before their next course.
// @Tags Timetable
// @Produce json
// @Param runId path string true "Run ID"
// @Success 202 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /timetable/runs/{runId}/cancel [post]
func (h *AllocationRunHandler) Cancel(c *gin.Context) {
	run, err := h.service.Cancel(c.Request.Context(), c.Param("runId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Accepted(c, run)
}
