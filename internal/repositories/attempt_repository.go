package repositories

import (
	"context"

	"github.com/athul-jose00/Smart-Quiz-Portal-sub000/internal/models"
	"gorm.io/gorm"
)

// ResultRepository interface for attempt result rows. Results are
// write-once: no Update method exists on purpose.
type ResultRepository interface {
	Create(ctx context.Context, tx *gorm.DB, result *models.Result) error
	GetByAttempt(ctx context.Context, tx *gorm.DB, userID string, quizID uint, attemptNumber int) (*models.Result, error)
	Delete(ctx context.Context, tx *gorm.DB, id uint) error

	// Attempt sequencing: COALESCE(MAX(attempt_number), 0) over results
	// for this student+quiz.
	GetMaxAttemptNumber(ctx context.Context, tx *gorm.DB, userID string, quizID uint) (int, error)

	// Query operations
	ListByUser(ctx context.Context, tx *gorm.DB, userID string, filters ResultFilters) ([]*models.Result, int64, error)
	ListByUserAndQuiz(ctx context.Context, tx *gorm.DB, userID string, quizID uint) ([]*models.Result, error)
	ListByQuiz(ctx context.Context, tx *gorm.DB, quizID uint) ([]*models.Result, error)
	CountByQuiz(ctx context.Context, tx *gorm.DB, quizID uint) (int64, error)

	// Trend series: latest N results for one student across quizzes
	GetRecentByUser(ctx context.Context, tx *gorm.DB, userID string, limit int) ([]TrendRow, error)

	// Export projection joined with user directory fields
	GetScoreRows(ctx context.Context, tx *gorm.DB, quizID uint) ([]QuizScoreRow, error)
}

// ResponseRepository interface for per-question answer rows
type ResponseRepository interface {
	CreateBatch(ctx context.Context, tx *gorm.DB, responses []*models.Response) error

	// Loads the attempt's responses with question and selected option;
	// correctness is recomputed at read time against current options.
	GetByAttempt(ctx context.Context, tx *gorm.DB, userID string, quizID uint, attemptNumber int) ([]*models.Response, error)
	CountByAttempt(ctx context.Context, tx *gorm.DB, userID string, quizID uint, attemptNumber int) (int64, error)
}
