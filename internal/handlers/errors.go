package handlers

import (
	"errors"
	"net/http"

	"github.com/athul-jose00/Smart-Quiz-Portal-sub000/internal/services"
	"github.com/gin-gonic/gin"
)

// handleServiceError maps service-layer errors onto HTTP responses.
// Typed errors are matched first, then the sentinel taxonomy.
func (h *BaseHandler) handleServiceError(c *gin.Context, err error) {
	var validationErrors services.ValidationErrors
	if errors.As(err, &validationErrors) {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Validation failed",
			Details: validationErrors,
		})
		return
	}

	var businessRuleError *services.BusinessRuleError
	if errors.As(err, &businessRuleError) {
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Message: businessRuleError.Message,
			Details: map[string]interface{}{
				"rule":    businessRuleError.Rule,
				"context": businessRuleError.Context,
			},
		})
		return
	}

	var permissionError *services.PermissionError
	if errors.As(err, &permissionError) {
		c.JSON(http.StatusForbidden, ErrorResponse{
			Message: "Access denied",
			Details: map[string]interface{}{
				"resource": permissionError.Resource,
				"action":   permissionError.Action,
				"reason":   permissionError.Reason,
			},
		})
		return
	}

	switch {
	// Class errors
	case errors.Is(err, services.ErrClassNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{
			Message: "Class not found",
		})
	case errors.Is(err, services.ErrInvalidClassCode):
		c.JSON(http.StatusNotFound, ErrorResponse{
			Message: "No class found for that code",
		})
	case errors.Is(err, services.ErrAlreadyEnrolled):
		c.JSON(http.StatusConflict, ErrorResponse{
			Message: "Already enrolled in this class",
		})
	case errors.Is(err, services.ErrNotEnrolled):
		c.JSON(http.StatusForbidden, ErrorResponse{
			Message: "Not enrolled in this class",
		})

	// Quiz and question errors
	case errors.Is(err, services.ErrQuizNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{
			Message: "Quiz not found",
		})
	case errors.Is(err, services.ErrQuizNotReady):
		c.JSON(http.StatusConflict, ErrorResponse{
			Message: "No questions available for this quiz",
		})
	case errors.Is(err, services.ErrQuestionNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{
			Message: "Question not found",
		})
	case errors.Is(err, services.ErrOptionNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{
			Message: "Option not found",
		})
	case errors.Is(err, services.ErrInvalidOption):
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Selected option does not belong to the question",
		})
	case errors.Is(err, services.ErrInvalidQuestion):
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Question does not belong to the quiz",
		})

	// Draft wizard errors
	case errors.Is(err, services.ErrDraftNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{
			Message: "Quiz draft not found",
		})
	case errors.Is(err, services.ErrDraftCompleted):
		c.JSON(http.StatusConflict, ErrorResponse{
			Message: "Quiz draft is no longer active",
		})
	case errors.Is(err, services.ErrDraftNotReady):
		c.JSON(http.StatusConflict, ErrorResponse{
			Message: "Quiz draft does not have all questions yet",
			Details: err.Error(),
		})

	// Attempt errors
	case errors.Is(err, services.ErrResultNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{
			Message: "Result not found",
		})
	case errors.Is(err, services.ErrAttemptConflict):
		c.JSON(http.StatusConflict, ErrorResponse{
			Message: "Could not record the attempt, please retry",
		})

	// AI tutor errors
	case errors.Is(err, services.ErrAIUnavailable):
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{
			Message: "AI tutor is currently unavailable",
		})

	// Generic errors
	case errors.Is(err, services.ErrValidationFailed):
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Validation failed",
			Details: err.Error(),
		})
	case errors.Is(err, services.ErrUnauthorized):
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Message: "Unauthorized access",
		})
	case errors.Is(err, services.ErrForbidden), errors.Is(err, services.ErrInsufficientPermissions):
		c.JSON(http.StatusForbidden, ErrorResponse{
			Message: "Forbidden - insufficient permissions",
		})
	case errors.Is(err, services.ErrNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{
			Message: "Resource not found",
		})
	case errors.Is(err, services.ErrConflict):
		c.JSON(http.StatusConflict, ErrorResponse{
			Message: "Conflict with current state",
		})
	case errors.Is(err, services.ErrBadRequest):
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Bad request",
		})
	default:
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Message: "Internal server error",
		})
	}
}
