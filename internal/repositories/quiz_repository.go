package repositories

import (
	"context"

	"github.com/athul-jose00/Smart-Quiz-Portal-sub000/internal/models"
	"gorm.io/gorm"
)

// QuizRepository interface for quiz-specific operations
type QuizRepository interface {
	// Basic CRUD operations
	Create(ctx context.Context, tx *gorm.DB, quiz *models.Quiz) error
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Quiz, error)
	GetByIDWithQuestions(ctx context.Context, tx *gorm.DB, id uint) (*models.Quiz, error) // Preloads questions and options
	Update(ctx context.Context, tx *gorm.DB, quiz *models.Quiz) error
	Delete(ctx context.Context, tx *gorm.DB, id uint) error // Cascades to questions, options, results, responses

	// Query operations
	GetByClass(ctx context.Context, tx *gorm.DB, classID uint, filters QuizFilters) ([]*models.Quiz, int64, error)
	GetByCreator(ctx context.Context, tx *gorm.DB, creatorID string, filters QuizFilters) ([]*models.Quiz, int64, error)

	// Aggregates recomputed on read; total possible points is never stored
	GetTotalPoints(ctx context.Context, tx *gorm.DB, quizID uint) (int, error)
	CountQuestions(ctx context.Context, tx *gorm.DB, quizID uint) (int64, error)

	// Validation and checks
	IsOwnedBy(ctx context.Context, tx *gorm.DB, quizID uint, teacherID string) (bool, error)
}

// QuizDraftRepository interface for the create-quiz wizard state
type QuizDraftRepository interface {
	Create(ctx context.Context, tx *gorm.DB, draft *models.QuizDraft) error
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.QuizDraft, error)
	Update(ctx context.Context, tx *gorm.DB, draft *models.QuizDraft) error
	Delete(ctx context.Context, tx *gorm.DB, id uint) error

	// Query operations
	GetActiveByTeacher(ctx context.Context, tx *gorm.DB, teacherID string) ([]*models.QuizDraft, error)
}
