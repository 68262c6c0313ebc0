package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/athul-jose00/Smart-Quiz-Portal-sub000/internal/config"
	"github.com/athul-jose00/Smart-Quiz-Portal-sub000/internal/models"
	"github.com/athul-jose00/Smart-Quiz-Portal-sub000/internal/repositories"
	"github.com/athul-jose00/Smart-Quiz-Portal-sub000/internal/services"
	"github.com/athul-jose00/Smart-Quiz-Portal-sub000/internal/utils"
	"github.com/athul-jose00/Smart-Quiz-Portal-sub000/internal/validator"
)

type HandlerManager struct {
	classHandler     *ClassHandler
	quizHandler      *QuizHandler
	questionHandler  *QuestionHandler
	attemptHandler   *AttemptHandler
	analyticsHandler *AnalyticsHandler
	aiTutorHandler   *AITutorHandler
	userHandler      *UserHandler
	authMiddleware   *CasdoorAuthMiddleware
}

func NewHandlerManager(
	serviceManager services.ServiceManager,
	validator *validator.Validator,
	logger utils.Logger,
	casdoorConfig config.CasdoorConfig,
	userRepo repositories.UserRepository,
) *HandlerManager {
	authMiddleware := NewCasdoorAuthMiddleware(casdoorConfig, userRepo)

	return &HandlerManager{
		classHandler:     NewClassHandler(serviceManager.Class(), validator, logger),
		quizHandler:      NewQuizHandler(serviceManager.Quiz(), serviceManager.Export(), validator, logger),
		questionHandler:  NewQuestionHandler(serviceManager.Question(), validator, logger),
		attemptHandler:   NewAttemptHandler(serviceManager.Attempt(), serviceManager.Grading(), validator, logger),
		analyticsHandler: NewAnalyticsHandler(serviceManager.Analytics(), logger),
		aiTutorHandler:   NewAITutorHandler(serviceManager.AITutor(), validator, logger),
		userHandler:      NewUserHandler(userRepo, logger),
		authMiddleware:   authMiddleware,
	}
}

// SetupRoutes sets up all API routes
func (hm *HandlerManager) SetupRoutes(router *gin.Engine) {
	// API v1 routes with authentication
	v1 := router.Group("/api/v1")
	v1.Use(hm.authMiddleware.AuthMiddleware()) // Apply authentication to all API routes
	{
		teacherOnly := hm.authMiddleware.RequireRoleMiddleware(models.RoleTeacher, models.RoleAdmin)
		studentOnly := hm.authMiddleware.RequireRoleMiddleware(models.RoleStudent)

		// Class routes
		classes := v1.Group("/classes")
		{
			// Create/manage classes - Teachers and Admins only
			classes.POST("", teacherOnly, hm.classHandler.CreateClass)
			classes.GET("", teacherOnly, hm.classHandler.ListClasses)
			classes.DELETE("/:id", teacherOnly, hm.classHandler.DeleteClass)
			classes.GET("/:id/students", teacherOnly, hm.classHandler.ListClassStudents)

			// Enrollment - Students only
			classes.POST("/join", studentOnly, hm.classHandler.JoinClass)
			classes.GET("/enrolled", studentOnly, hm.classHandler.ListEnrolledClasses)

			// View a class - owner or enrolled student (checked in the service)
			classes.GET("/:id", hm.classHandler.GetClass)
			classes.GET("/:id/quizzes", hm.quizHandler.ListQuizzesByClass)
		}

		// Quiz routes
		quizzes := v1.Group("/quizzes")
		{
			// Create/modify quizzes - Teachers and Admins only
			quizzes.POST("", teacherOnly, hm.quizHandler.CreateQuiz)
			quizzes.PUT("/:id", teacherOnly, hm.quizHandler.UpdateQuiz)
			quizzes.DELETE("/:id", teacherOnly, hm.quizHandler.DeleteQuiz)

			// View quizzes - access is enforced per role in the service
			quizzes.GET("/:id", hm.quizHandler.GetQuiz)
			quizzes.GET("/:id/questions", teacherOnly, hm.quizHandler.GetQuizWithQuestions)

			// Taking a quiz - Students only
			quizzes.GET("/:id/attempt", studentOnly, hm.attemptHandler.StartAttempt)
			quizzes.POST("/:id/attempt", studentOnly, hm.attemptHandler.SubmitAttempt)
			quizzes.GET("/:id/results/:attempt", studentOnly, hm.attemptHandler.GetResult)

			// Creator analytics and export - Teachers and Admins only
			quizzes.GET("/:id/analytics", teacherOnly, hm.analyticsHandler.GetQuizAnalytics)
			quizzes.GET("/:id/export", teacherOnly, hm.quizHandler.ExportQuizResults)
		}

		// Quiz draft wizard routes - Teachers and Admins only
		drafts := v1.Group("/quiz-drafts")
		drafts.Use(teacherOnly)
		{
			drafts.POST("", hm.quizHandler.StartDraft)
			drafts.GET("/:id", hm.quizHandler.GetDraft)
			drafts.POST("/:id/questions", hm.quizHandler.AddDraftQuestion)
			drafts.POST("/:id/back", hm.quizHandler.StepBackDraft)
			drafts.POST("/:id/finish", hm.quizHandler.FinishDraft)
			drafts.DELETE("/:id", hm.quizHandler.AbandonDraft)
		}

		// Question routes - Teachers and Admins only
		questions := v1.Group("/questions")
		questions.Use(teacherOnly)
		{
			questions.GET("/:id", hm.questionHandler.GetQuestion)
			questions.PUT("/:id", hm.questionHandler.UpdateQuestion)
			questions.DELETE("/:id", hm.questionHandler.DeleteQuestion)
		}

		// Student result routes
		results := v1.Group("/results")
		results.Use(studentOnly)
		{
			results.GET("", hm.attemptHandler.ListResults)
			results.GET("/trend", hm.attemptHandler.GetPerformanceTrend)
		}

		// AI tutor routes - Students only
		ai := v1.Group("/ai")
		ai.Use(studentOnly)
		{
			ai.POST("/explain", hm.aiTutorHandler.ExplainQuestion)
			ai.POST("/ask", hm.aiTutorHandler.AskQuestion)
			ai.POST("/study-tips", hm.aiTutorHandler.StudyTips)
			ai.POST("/performance-summary", hm.aiTutorHandler.PerformanceSummary)
		}

		// Portal-wide analytics - Admins only
		analytics := v1.Group("/analytics")
		analytics.Use(hm.authMiddleware.RequireRoleMiddleware(models.RoleAdmin))
		{
			analytics.GET("/overview", hm.analyticsHandler.GetPortalOverview)
		}

		// User routes
		users := v1.Group("/users")
		{
			users.GET("", hm.userHandler.ListUsers)
			users.GET("/:id", hm.userHandler.GetUser)
		}
	}

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "healthy",
			"service": "quiz-portal",
		})
	})
}
