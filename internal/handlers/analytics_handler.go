package handlers

import (
	"net/http"

	"github.com/athul-jose00/Smart-Quiz-Portal-sub000/internal/services"
	"github.com/athul-jose00/Smart-Quiz-Portal-sub000/internal/utils"
	"github.com/gin-gonic/gin"
)

type AnalyticsHandler struct {
	BaseHandler
	analyticsService services.AnalyticsService
}

func NewAnalyticsHandler(analyticsService services.AnalyticsService, logger utils.Logger) *AnalyticsHandler {
	return &AnalyticsHandler{
		BaseHandler:      NewBaseHandler(logger),
		analyticsService: analyticsService,
	}
}

// GetQuizAnalytics returns the full statistics block for one quiz
// @Summary Quiz analytics
// @Tags analytics
// @Produce json
// @Param id path uint true "Quiz ID"
// @Success 200 {object} services.QuizAnalyticsResponse
// @Failure 403 {object} ErrorResponse
// @Router /quizzes/{id}/analytics [get]
func (h *AnalyticsHandler) GetQuizAnalytics(c *gin.Context) {
	quizID := h.parseIDParam(c, "id")
	if quizID == 0 {
		return
	}

	userID, ok := h.getUserID(c)
	if !ok {
		return
	}

	analytics, err := h.analyticsService.GetQuizAnalytics(c.Request.Context(), quizID, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, analytics)
}

// GetPortalOverview returns the admin dashboard aggregations
func (h *AnalyticsHandler) GetPortalOverview(c *gin.Context) {
	userID, ok := h.getUserID(c)
	if !ok {
		return
	}

	overview, err := h.analyticsService.GetPortalOverview(c.Request.Context(), userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, overview)
}
