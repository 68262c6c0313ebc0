package handlers

import (
	"net/http"
	"strconv"

	"github.com/athul-jose00/Smart-Quiz-Portal-sub000/internal/services"
	"github.com/athul-jose00/Smart-Quiz-Portal-sub000/internal/utils"
	"github.com/athul-jose00/Smart-Quiz-Portal-sub000/internal/validator"
	"github.com/gin-gonic/gin"
)

type AttemptHandler struct {
	BaseHandler
	attemptService services.AttemptService
	gradingService services.GradingService
	validator      *validator.Validator
}

func NewAttemptHandler(attemptService services.AttemptService, gradingService services.GradingService, validator *validator.Validator, logger utils.Logger) *AttemptHandler {
	return &AttemptHandler{
		BaseHandler:    NewBaseHandler(logger),
		attemptService: attemptService,
		gradingService: gradingService,
		validator:      validator,
	}
}

// StartAttempt returns the randomized attempt view for a quiz
// @Summary Start quiz attempt
// @Tags attempts
// @Produce json
// @Param id path uint true "Quiz ID"
// @Success 200 {object} services.StartAttemptResponse
// @Failure 403 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /quizzes/{id}/attempt [get]
func (h *AttemptHandler) StartAttempt(c *gin.Context) {
	quizID := h.parseIDParam(c, "id")
	if quizID == 0 {
		return
	}

	h.LogRequest(c, "Starting quiz attempt", "quiz_id", quizID)

	userID, ok := h.getUserID(c)
	if !ok {
		return
	}

	attempt, err := h.attemptService.Start(c.Request.Context(), quizID, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, attempt)
}

// SubmitAttempt grades the student's selections and records the attempt
// @Summary Submit quiz attempt
// @Tags attempts
// @Accept json
// @Produce json
// @Param id path uint true "Quiz ID"
// @Param attempt body services.SubmitAttemptRequest true "Selected options"
// @Success 201 {object} services.GradeResponse
// @Failure 400 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /quizzes/{id}/attempt [post]
func (h *AttemptHandler) SubmitAttempt(c *gin.Context) {
	quizID := h.parseIDParam(c, "id")
	if quizID == 0 {
		return
	}

	h.LogRequest(c, "Submitting quiz attempt", "quiz_id", quizID)

	var req services.SubmitAttemptRequest
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

	grade, err := h.gradingService.SubmitAttempt(c.Request.Context(), quizID, userID, req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, grade)
}

// GetResult returns the review page data for one completed attempt
func (h *AttemptHandler) GetResult(c *gin.Context) {
	quizID := h.parseIDParam(c, "id")
	if quizID == 0 {
		return
	}
	attemptNumber := h.parseIntParam(c, "attempt")
	if attemptNumber == 0 {
		return
	}

	userID, ok := h.getUserID(c)
	if !ok {
		return
	}

	result, err := h.attemptService.GetResult(c.Request.Context(), quizID, attemptNumber, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// ListResults returns the student's attempt history across quizzes
func (h *AttemptHandler) ListResults(c *gin.Context) {
	userID, ok := h.getUserID(c)
	if !ok {
		return
	}

	limit, offset := h.parsePagination(c)
	results, err := h.attemptService.ListResults(c.Request.Context(), userID, limit, offset)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, results)
}

// GetPerformanceTrend returns the student's recent percentages for charting
func (h *AttemptHandler) GetPerformanceTrend(c *gin.Context) {
	userID, ok := h.getUserID(c)
	if !ok {
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))
	trend, err := h.attemptService.GetPerformanceTrend(c.Request.Context(), userID, limit)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Data: trend})
}
