package api

import (
	"alcyxob/coach-tracker/internal/service"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// ComplianceHandler serves compliance scores for coaches and clients.
type ComplianceHandler struct {
	complianceService service.ComplianceService
}

func NewComplianceHandler(complianceService service.ComplianceService) *ComplianceHandler {
	return &ComplianceHandler{complianceService: complianceService}
}

// CoachOverview godoc
// @Summary Trailing-window compliance across all of the coach's clients
// @Description Clients with nothing scheduled are listed as excluded and do not count towards the overall score.
// @Tags Compliance
// @Produce json
// @Success 200 {object} service.CoachOverview
// @Router /coach/compliance [get]
func (h *ComplianceHandler) CoachOverview(c *gin.Context) {
	id, ok := mustIdentity(c)
	if !ok {
		return
	}
	overview, err := h.complianceService.CoachOverview(c.Request.Context(), id.UserID)
	if err != nil {
		respondWithServiceError(c, err, "Failed to compute compliance.")
		return
	}
	c.JSON(http.StatusOK, overview)
}

// ClientReport godoc
// @Summary Compliance report for one client with a weekly history
// @Tags Compliance
// @Produce json
// @Param clientId path string true "Client ID"
// @Param weeks query int false "Weeks of history (default 4, max 26)"
// @Success 200 {object} service.ClientReport
// @Failure 400 {object} gin.H "Invalid weeks"
// @Failure 403 {object} gin.H "Client not managed by coach"
// @Router /coach/clients/{clientId}/compliance [get]
func (h *ComplianceHandler) ClientReport(c *gin.Context) {
	id, ok := mustIdentity(c)
	if !ok {
		return
	}
	clientID, ok := objectIDParam(c, "clientId")
	if !ok {
		return
	}
	weeks := service.DefaultHistoryWeeks
	if raw := c.Query("weeks"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > service.MaxHistoryWeeks {
			abortWithError(c, http.StatusBadRequest, "Invalid weeks parameter.")
			return
		}
		weeks = n
	}

	report, err := h.complianceService.ClientReport(c.Request.Context(), id.UserID, clientID, weeks)
	if err != nil {
		respondWithServiceError(c, err, "Failed to compute compliance.")
		return
	}
	c.JSON(http.StatusOK, report)
}

func (h *ComplianceHandler) OwnReport(c *gin.Context) {
	id, ok := mustIdentity(c)
	if !ok {
		return
	}
	report, err := h.complianceService.OwnReport(c.Request.Context(), id.UserID)
	if err != nil {
		respondWithServiceError(c, err, "Failed to compute compliance.")
		return
	}
	c.JSON(http.StatusOK, report)
}
