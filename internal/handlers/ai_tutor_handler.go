package handlers

import (
	"net/http"

	"github.com/athul-jose00/Smart-Quiz-Portal-sub000/internal/services"
	"github.com/athul-jose00/Smart-Quiz-Portal-sub000/internal/utils"
	"github.com/athul-jose00/Smart-Quiz-Portal-sub000/internal/validator"
	"github.com/gin-gonic/gin"
)

type AITutorHandler struct {
	BaseHandler
	aiTutorService services.AITutorService
	validator      *validator.Validator
}

func NewAITutorHandler(aiTutorService services.AITutorService, validator *validator.Validator, logger utils.Logger) *AITutorHandler {
	return &AITutorHandler{
		BaseHandler:    NewBaseHandler(logger),
		aiTutorService: aiTutorService,
		validator:      validator,
	}
}

// ExplainQuestion explains why the student's recorded answer was right
// or wrong
func (h *AITutorHandler) ExplainQuestion(c *gin.Context) {
	h.LogRequest(c, "AI explain question")

	var req services.ExplainQuestionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	userID, ok := h.getUserID(c)
	if !ok {
		return
	}

	answer, err := h.aiTutorService.ExplainQuestion(c.Request.Context(), req, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, answer)
}

// AskQuestion answers a free-form follow-up about a quiz question
func (h *AITutorHandler) AskQuestion(c *gin.Context) {
	h.LogRequest(c, "AI follow-up question")

	var req services.AskQuestionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	userID, ok := h.getUserID(c)
	if !ok {
		return
	}

	answer, err := h.aiTutorService.AskQuestion(c.Request.Context(), req, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, answer)
}

// StudyTips suggests how to master the topic behind a question
func (h *AITutorHandler) StudyTips(c *gin.Context) {
	var req services.StudyTipsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	userID, ok := h.getUserID(c)
	if !ok {
		return
	}

	answer, err := h.aiTutorService.StudyTips(c.Request.Context(), req, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, answer)
}

// PerformanceSummary narrates one graded attempt
func (h *AITutorHandler) PerformanceSummary(c *gin.Context) {
	var req services.PerformanceSummaryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	userID, ok := h.getUserID(c)
	if !ok {
		return
	}

	answer, err := h.aiTutorService.PerformanceSummary(c.Request.Context(), req, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, answer)
}
