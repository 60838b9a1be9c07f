package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-timetable/internal/dto"
	appErrors "github.com/noah-isme/sma-timetable/pkg/errors"
	"github.com/noah-isme/sma-timetable/pkg/response"
)

type schedulerSettingsManager interface {
	Get(ctx context.Context, programID string) (*dto.SchedulerSettingsResponse, error)
	Put(ctx context.Context, programID string, payload dto.SchedulerSettingsPayload, updatedBy string) (*dto.SchedulerSettingsResponse, error)
}

// SettingsHandler exposes per-program scheduler settings.
type SettingsHandler struct {
	service schedulerSettingsManager
}

// NewSettingsHandler constructs the handler.
func NewSettingsHandler(svc schedulerSettingsManager) *SettingsHandler {
	return &SettingsHandler{service: svc}
}

// Get godoc
// @Summary Get effective scheduler settings
// @Tags Scheduler Settings
// @Produce json
// @Param id path string true "Program ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /programs/{id}/scheduler-settings [get]
func (h *SettingsHandler) Get(c *gin.Context) {
	result, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Put godoc
// @Summary Update scheduler settings
// @Description Omitted fields keep their current value.
// @Tags Scheduler Settings
// @Accept json
// @Produce json
// @Param id path string true "Program ID"
// @Param payload body dto.SchedulerSettingsPayload true "Settings payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /programs/{id}/scheduler-settings [put]
func (h *SettingsHandler) Put(c *gin.Context) {
	var payload dto.SchedulerSettingsPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid settings payload"))
		return
	}
	result, err := h.service.Put(c.Request.Context(), c.Param("id"), payload, requesterID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}
