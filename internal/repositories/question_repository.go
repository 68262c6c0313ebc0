package repositories

import (
	"context"

	"github.com/athul-jose00/Smart-Quiz-Portal-sub000/internal/models"
	"gorm.io/gorm"
)

// QuestionRepository interface for question and option operations
type QuestionRepository interface {
	// Basic CRUD operations
	Create(ctx context.Context, tx *gorm.DB, question *models.Question) error
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Question, error)
	GetByIDWithOptions(ctx context.Context, tx *gorm.DB, id uint) (*models.Question, error)
	Update(ctx context.Context, tx *gorm.DB, question *models.Question) error
	Delete(ctx context.Context, tx *gorm.DB, id uint) error

	// Bulk operations
	CreateBatch(ctx context.Context, tx *gorm.DB, questions []*models.Question) error

	// Quiz-scoped queries; options are always loaded with their question
	GetByQuiz(ctx context.Context, tx *gorm.DB, quizID uint) ([]*models.Question, error)

	// Option operations
	CreateOptions(ctx context.Context, tx *gorm.DB, options []*models.Option) error
	ReplaceOptions(ctx context.Context, tx *gorm.DB, questionID uint, options []*models.Option) error
	GetOptionByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Option, error)
}
