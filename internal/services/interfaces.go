package services

import (
	"context"
	"time"

	"github.com/athul-jose00/Smart-Quiz-Portal-sub000/internal/models"
	"github.com/xuri/excelize/v2"
)

// ===== CLASS DTOs =====

type CreateClassRequest struct {
	Name string `json:"name" validate:"required,portal_title"`
}

type JoinClassRequest struct {
	ClassCode string `json:"class_code" validate:"required,class_code"`
}

type ClassResponse struct {
	*models.Class
	TeacherName string `json:"teacher_name,omitempty"`
	CanManage   bool   `json:"can_manage"`
}

type ClassListResponse struct {
	Classes []*ClassResponse `json:"classes"`
	Total   int64            `json:"total"`
}

// ===== QUIZ DTOs =====

type CreateQuizRequest struct {
	Title     string `json:"title" validate:"required,portal_title"`
	TimeLimit int    `json:"time_limit" validate:"required,quiz_time_limit"`
	ClassID   uint   `json:"class_id" validate:"required"`
}

type UpdateQuizRequest struct {
	Title     *string `json:"title" validate:"omitempty,portal_title"`
	TimeLimit *int    `json:"time_limit" validate:"omitempty,quiz_time_limit"`
}

type QuizResponse struct {
	*models.Quiz
	CanEdit bool `json:"can_edit"`
	CanTake bool `json:"can_take"`
}

type QuizListResponse struct {
	Quizzes []*QuizResponse `json:"quizzes"`
	Total   int64           `json:"total"`
}

// ===== DRAFT WIZARD DTOs =====

type StartDraftRequest struct {
	ClassID       uint   `json:"class_id" validate:"required"`
	Title         string `json:"title" validate:"required,portal_title"`
	TimeLimit     int    `json:"time_limit" validate:"required,quiz_time_limit"`
	QuestionCount int    `json:"question_count" validate:"required,question_count"`
}

type DraftQuestionRequest struct {
	QuestionText string               `json:"question_text" validate:"required,min=1,max=2000"`
	Points       int                  `json:"points" validate:"required,points_range"`
	Options      []DraftOptionRequest `json:"options" validate:"required,min=2,max=6,dive"`
}

type DraftOptionRequest struct {
	OptionText string `json:"option_text" validate:"required,min=1,max=500"`
	IsCorrect  bool   `json:"is_correct"`
}

type DraftResponse struct {
	*models.QuizDraft
	Questions []models.DraftQuestion `json:"questions"`
	Completed bool                   `json:"completed"`
}

// ===== QUESTION DTOs =====

type UpdateQuestionRequest struct {
	QuestionText *string              `json:"question_text" validate:"omitempty,min=1,max=2000"`
	Points       *int                 `json:"points" validate:"omitempty,points_range"`
	Options      []DraftOptionRequest `json:"options" validate:"omitempty,min=2,max=6,dive"`
}

// ===== ATTEMPT DTOs =====

// AttemptOptionView is what the student's browser sees: no is_correct
type AttemptOptionView struct {
	OptionID   uint   `json:"option_id"`
	OptionText string `json:"option_text"`
}

type AttemptQuestionView struct {
	QuestionID   uint                `json:"question_id"`
	QuestionText string              `json:"question_text"`
	Points       int                 `json:"points"`
	Options      []AttemptOptionView `json:"options"`
}

type StartAttemptResponse struct {
	QuizID        uint                  `json:"quiz_id"`
	Title         string                `json:"title"`
	TimeLimit     int                   `json:"time_limit"` // minutes
	AttemptNumber int                   `json:"attempt_number"`
	TotalPoints   int                   `json:"total_points"`
	Questions     []AttemptQuestionView `json:"questions"`
}

type SubmitAnswerRequest struct {
	QuestionID       uint  `json:"question_id" validate:"required"`
	SelectedOptionID *uint `json:"selected_option_id"`
}

type SubmitAttemptRequest struct {
	Answers []SubmitAnswerRequest `json:"answers" validate:"dive"`
}

type GradeResponse struct {
	QuizID        uint      `json:"quiz_id"`
	AttemptNumber int       `json:"attempt_number"`
	TotalScore    int       `json:"total_score"`
	TotalPossible int       `json:"total_possible"`
	Percentage    float64   `json:"percentage"`
	Grade         string    `json:"grade"`
	CorrectCount  int       `json:"correct_count"`
	QuestionCount int       `json:"question_count"`
	CompletedAt   time.Time `json:"completed_at"`
}

// ResponseReview is one question of a completed attempt as shown on the
// review page. Correctness reflects the current option flags.
type ResponseReview struct {
	QuestionID     uint    `json:"question_id"`
	QuestionText   string  `json:"question_text"`
	Points         int     `json:"points"`
	Answered       bool    `json:"answered"`
	SelectedOption *uint   `json:"selected_option_id,omitempty"`
	SelectedText   *string `json:"selected_text,omitempty"`
	CorrectOption  *uint   `json:"correct_option_id,omitempty"`
	CorrectText    string  `json:"correct_text,omitempty"`
	IsCorrect      bool    `json:"is_correct"`
	PointsEarned   int     `json:"points_earned"`
}

type AttemptSummary struct {
	AttemptNumber int       `json:"attempt_number"`
	Percentage    float64   `json:"percentage"`
	CompletedAt   time.Time `json:"completed_at"`
}

type ResultDetailResponse struct {
	QuizID        uint             `json:"quiz_id"`
	QuizTitle     string           `json:"quiz_title"`
	AttemptNumber int              `json:"attempt_number"`
	TotalScore    int              `json:"total_score"`
	TotalPossible int              `json:"total_possible"`
	Percentage    float64          `json:"percentage"`
	Grade         string           `json:"grade"`
	ClassAverage  float64          `json:"class_average"`
	CompletedAt   time.Time        `json:"completed_at"`
	Responses     []ResponseReview `json:"responses"`
	AllAttempts   []AttemptSummary `json:"all_attempts"`
}

type ResultListItem struct {
	QuizID         uint      `json:"quiz_id"`
	QuizTitle      string    `json:"quiz_title"`
	ClassName      string    `json:"class_name,omitempty"`
	AttemptNumber  int       `json:"attempt_number"`
	TotalScore     int       `json:"total_score"`
	Percentage     float64   `json:"percentage"`
	TotalQuestions int       `json:"total_questions"`
	CompletedAt    time.Time `json:"completed_at"`
}

type ResultListResponse struct {
	Results []ResultListItem `json:"results"`
	Total   int64            `json:"total"`
}

type TrendPoint struct {
	QuizTitle     string    `json:"quiz_title"`
	AttemptNumber int       `json:"attempt_number"`
	Percentage    float64   `json:"percentage"`
	CompletedAt   time.Time `json:"completed_at"`
}

// ===== ANALYTICS DTOs =====

type GradeDistribution struct {
	A int `json:"a"`
	B int `json:"b"`
	C int `json:"c"`
	D int `json:"d"`
	F int `json:"f"`
}

type HistogramBucket struct {
	Label string `json:"label"` // "0-9%", ..., "90-100%"
	Count int    `json:"count"`
}

type QuizAnalyticsResponse struct {
	QuizID            uint              `json:"quiz_id"`
	Title             string            `json:"title"`
	Participants      int               `json:"participants"` // attempt rows, not distinct students
	TotalPossible     int               `json:"total_possible"`
	AverageScore      float64           `json:"average_score"`
	MedianScore       float64           `json:"median_score"`
	MinScore          int               `json:"min_score"`
	MaxScore          int               `json:"max_score"`
	StdDevScore       float64           `json:"std_dev_score"`
	GradeDistribution GradeDistribution `json:"grade_distribution"`
	Histogram         []HistogramBucket `json:"histogram"`
	ParticipationRate *float64          `json:"participation_rate,omitempty"` // nil when no enrolled students
	EnrolledStudents  int64             `json:"enrolled_students"`
}

type QuizDifficultyItem struct {
	QuizID       uint    `json:"quiz_id"`
	Title        string  `json:"title"`
	TimeLimit    int     `json:"time_limit"`
	Attempts     int64   `json:"attempts"`
	AverageScore float64 `json:"average_score"`
	Difficulty   string  `json:"difficulty"` // Easy / Medium / Hard
}

type PortalOverviewResponse struct {
	ActiveStudents   int64                `json:"active_students"`
	TotalSubmissions int64                `json:"total_submissions"`
	OverallAvgScore  float64              `json:"overall_avg_score"`
	HighestScore     int                  `json:"highest_score"`
	LowestScore      int                  `json:"lowest_score"`
	ClassPerformance []ClassPerformance   `json:"class_performance"`
	TopStudents      []TopStudent         `json:"top_students"`
	QuizDifficulty   []QuizDifficultyItem `json:"quiz_difficulty"`
	RecentActivity   []RecentActivity     `json:"recent_activity"`
}

type ClassPerformance struct {
	ClassID      uint    `json:"class_id"`
	ClassName    string  `json:"class_name"`
	StudentCount int64   `json:"student_count"`
	Submissions  int64   `json:"submissions"`
	AverageScore float64 `json:"average_score"`
	MaxScore     int     `json:"max_score"`
}

type TopStudent struct {
	UserID       string  `json:"user_id"`
	Name         string  `json:"name"`
	Email        string  `json:"email"`
	QuizCount    int64   `json:"quiz_count"`
	AverageScore float64 `json:"average_score"`
	BestScore    int     `json:"best_score"`
}

type RecentActivity struct {
	StudentName string    `json:"student_name"`
	QuizTitle   string    `json:"quiz_title"`
	ClassName   string    `json:"class_name,omitempty"`
	Score       int       `json:"score"`
	CompletedAt time.Time `json:"completed_at"`
}

// ===== AI TUTOR DTOs =====

type ExplainQuestionRequest struct {
	QuestionID    uint `json:"question_id" validate:"required"`
	QuizID        uint `json:"quiz_id" validate:"required"`
	AttemptNumber int  `json:"attempt_number" validate:"required,min=1"`
}

type AskQuestionRequest struct {
	QuestionID   uint   `json:"question_id" validate:"required"`
	UserQuestion string `json:"user_question" validate:"required,min=1,max=1000"`
}

type StudyTipsRequest struct {
	QuestionID uint `json:"question_id" validate:"required"`
}

type PerformanceSummaryRequest struct {
	QuizID        uint `json:"quiz_id" validate:"required"`
	AttemptNumber int  `json:"attempt_number" validate:"required,min=1"`
}

type AIResponse struct {
	Answer    string    `json:"answer"`
	Generated time.Time `json:"generated"`
}

// ===== SERVICE INTERFACES =====

type ClassService interface {
	Create(ctx context.Context, req CreateClassRequest, teacherID string) (*ClassResponse, error)
	GetByID(ctx context.Context, id uint, userID string) (*ClassResponse, error)
	ListByTeacher(ctx context.Context, teacherID string, limit, offset int) (*ClassListResponse, error)
	Delete(ctx context.Context, id uint, teacherID string) error

	// Student side
	Join(ctx context.Context, req JoinClassRequest, studentID string) (*ClassResponse, error)
	ListEnrolled(ctx context.Context, studentID string) (*ClassListResponse, error)
	ListStudents(ctx context.Context, classID uint, requesterID string) ([]*models.User, error)
}

type QuizService interface {
	Create(ctx context.Context, req CreateQuizRequest, teacherID string) (*QuizResponse, error)
	GetByID(ctx context.Context, id uint, userID string) (*QuizResponse, error)
	GetWithQuestions(ctx context.Context, id uint, teacherID string) (*models.Quiz, error)
	ListByClass(ctx context.Context, classID uint, userID string, limit, offset int) (*QuizListResponse, error)
	Update(ctx context.Context, id uint, req UpdateQuizRequest, teacherID string) (*QuizResponse, error)
	Delete(ctx context.Context, id uint, teacherID string) error

	// Draft wizard
	StartDraft(ctx context.Context, req StartDraftRequest, teacherID string) (*DraftResponse, error)
	GetDraft(ctx context.Context, draftID uint, teacherID string) (*DraftResponse, error)
	AddDraftQuestion(ctx context.Context, draftID uint, req DraftQuestionRequest, teacherID string) (*DraftResponse, error)
	StepBack(ctx context.Context, draftID uint, teacherID string) (*DraftResponse, error)
	FinishDraft(ctx context.Context, draftID uint, teacherID string) (*QuizResponse, error)
	AbandonDraft(ctx context.Context, draftID uint, teacherID string) error
}

type QuestionService interface {
	GetByID(ctx context.Context, id uint, teacherID string) (*models.Question, error)
	Update(ctx context.Context, id uint, req UpdateQuestionRequest, teacherID string) (*models.Question, error)
	Delete(ctx context.Context, id uint, teacherID string) error
}

// AttemptService covers the read side of the attempt lifecycle: the
// randomized attempt view and result review pages. The write side is
// GradingService.
type AttemptService interface {
	Start(ctx context.Context, quizID uint, studentID string) (*StartAttemptResponse, error)
	GetResult(ctx context.Context, quizID uint, attemptNumber int, studentID string) (*ResultDetailResponse, error)
	ListResults(ctx context.Context, studentID string, limit, offset int) (*ResultListResponse, error)
	GetPerformanceTrend(ctx context.Context, studentID string, limit int) ([]TrendPoint, error)
}

type GradingService interface {
	SubmitAttempt(ctx context.Context, quizID uint, studentID string, req SubmitAttemptRequest) (*GradeResponse, error)
}

type AnalyticsService interface {
	GetQuizAnalytics(ctx context.Context, quizID uint, requesterID string) (*QuizAnalyticsResponse, error)
	GetPortalOverview(ctx context.Context, requesterID string) (*PortalOverviewResponse, error)
}

type ExportService interface {
	ExportQuizResults(ctx context.Context, quizID uint, requesterID string) (*excelize.File, string, error)
}

type AITutorService interface {
	ExplainQuestion(ctx context.Context, req ExplainQuestionRequest, studentID string) (*AIResponse, error)
	AskQuestion(ctx context.Context, req AskQuestionRequest, studentID string) (*AIResponse, error)
	StudyTips(ctx context.Context, req StudyTipsRequest, studentID string) (*AIResponse, error)
	PerformanceSummary(ctx context.Context, req PerformanceSummaryRequest, studentID string) (*AIResponse, error)
}

// ServiceManager manages all service instances and lifecycle
type ServiceManager interface {
	Class() ClassService
	Quiz() QuizService
	Question() QuestionService
	Attempt() AttemptService
	Grading() GradingService
	Analytics() AnalyticsService
	Export() ExportService
	AITutor() AITutorService

	// Lifecycle
	Initialize(ctx context.Context) error
	HealthCheck(ctx context.Context) error
	Shutdown(ctx context.Context) error
}
