package handlers

import (
	"net/http"

	"github.com/athul-jose00/Smart-Quiz-Portal-sub000/internal/services"
	"github.com/athul-jose00/Smart-Quiz-Portal-sub000/internal/utils"
	"github.com/athul-jose00/Smart-Quiz-Portal-sub000/internal/validator"
	"github.com/gin-gonic/gin"
)

type ClassHandler struct {
	BaseHandler
	classService services.ClassService
	validator    *validator.Validator
}

func NewClassHandler(classService services.ClassService, validator *validator.Validator, logger utils.Logger) *ClassHandler {
	return &ClassHandler{
		BaseHandler:  NewBaseHandler(logger),
		classService: classService,
		validator:    validator,
	}
}

// CreateClass creates a new class with a generated join code
// @Summary Create class
// @Tags classes
// @Accept json
// @Produce json
// @Param class body services.CreateClassRequest true "Class data"
// @Success 201 {object} services.ClassResponse
// @Failure 400 {object} ErrorResponse
// @Router /classes [post]
func (h *ClassHandler) CreateClass(c *gin.Context) {
	h.LogRequest(c, "Creating class")

	var req services.CreateClassRequest
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

	class, err := h.classService.Create(c.Request.Context(), req, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, class)
}

// GetClass returns one class the caller teaches or attends
func (h *ClassHandler) GetClass(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	userID, ok := h.getUserID(c)
	if !ok {
		return
	}

	class, err := h.classService.GetByID(c.Request.Context(), id, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, class)
}

// ListClasses returns the classes the teacher owns
func (h *ClassHandler) ListClasses(c *gin.Context) {
	userID, ok := h.getUserID(c)
	if !ok {
		return
	}

	limit, offset := h.parsePagination(c)
	classes, err := h.classService.ListByTeacher(c.Request.Context(), userID, limit, offset)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, classes)
}

// DeleteClass removes a class and everything under it
func (h *ClassHandler) DeleteClass(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	h.LogRequest(c, "Deleting class", "class_id", id)

	userID, ok := h.getUserID(c)
	if !ok {
		return
	}

	if err := h.classService.Delete(c.Request.Context(), id, userID); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Message: "Class deleted"})
}

// JoinClass enrolls the student via a join code
// @Summary Join class by code
// @Tags classes
// @Router /classes/join [post]
func (h *ClassHandler) JoinClass(c *gin.Context) {
	h.LogRequest(c, "Joining class")

	var req services.JoinClassRequest
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

	class, err := h.classService.Join(c.Request.Context(), req, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, class)
}

// ListEnrolledClasses returns the student's classes
func (h *ClassHandler) ListEnrolledClasses(c *gin.Context) {
	userID, ok := h.getUserID(c)
	if !ok {
		return
	}

	classes, err := h.classService.ListEnrolled(c.Request.Context(), userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, classes)
}

// ListClassStudents returns the roster, owning teacher only
func (h *ClassHandler) ListClassStudents(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	userID, ok := h.getUserID(c)
	if !ok {
		return
	}

	students, err := h.classService.ListStudents(c.Request.Context(), id, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Data: students})
}
