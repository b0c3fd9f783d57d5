package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/classpulse-api/internal/models"
	appErrors "github.com/noah-isme/classpulse-api/pkg/errors"
	"github.com/noah-isme/classpulse-api/pkg/response"
)

type settingsService interface {
	Global(ctx context.Context) (*models.EffectiveRiskSettings, error)
	Effective(ctx context.Context, classID string) (*models.EffectiveRiskSettings, error)
	UpdateGlobal(ctx context.Context, settings models.RiskSettings) (*models.EffectiveRiskSettings, error)
	UpdateClass(ctx context.Context, classID string, settings models.RiskSettings) (*models.EffectiveRiskSettings, error)
	DeleteClass(ctx context.Context, classID string) error
}

// SettingsHandler exposes risk settings endpoints.
type SettingsHandler struct {
	settings settingsService
}

// NewSettingsHandler constructs SettingsHandler.
func NewSettingsHandler(settings settingsService) *SettingsHandler {
	return &SettingsHandler{settings: settings}
}

// GetGlobal godoc
// @Summary Get global risk settings
// @Tags Settings
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /settings [get]
func (h *SettingsHandler) GetGlobal(c *gin.Context) {
	settings, err := h.settings.Global(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, settings, nil)
}

// UpdateGlobal godoc
// @Summary Replace global risk settings
// @Tags Settings
// @Accept json
// @Produce json
// @Param payload body models.RiskSettings true "Risk settings"
// @Success 200 {object} response.Envelope
// @Router /settings [put]
func (h *SettingsHandler) UpdateGlobal(c *gin.Context) {
	var req models.RiskSettings
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	settings, err := h.settings.UpdateGlobal(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, settings, nil)
}

// GetClass godoc
// @Summary Get the effective risk settings of a class
// @Tags Settings
// @Produce json
// @Param id path string true "Class ID"
// @Success 200 {object} response.Envelope
// @Router /classes/{id}/settings [get]
func (h *SettingsHandler) GetClass(c *gin.Context) {
	settings, err := h.settings.Effective(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, settings, nil)
}

// UpdateClass godoc
// @Summary Override risk settings for a class
// @Tags Settings
// @Accept json
// @Produce json
// @Param id path string true "Class ID"
// @Param payload body models.RiskSettings true "Risk settings"
// @Success 200 {object} response.Envelope
// @Router /classes/{id}/settings [put]
func (h *SettingsHandler) UpdateClass(c *gin.Context) {
	var req models.RiskSettings
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	settings, err := h.settings.UpdateClass(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, settings, nil)
}

// DeleteClass godoc
// @Summary Remove a class override
// @Tags Settings
// @Param id path string true "Class ID"
// @Success 204
// @Router /classes/{id}/settings [delete]
func (h *SettingsHandler) DeleteClass(c *gin.Context) {
	if err := h.settings.DeleteClass(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
