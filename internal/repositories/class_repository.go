package repositories

import (
	"context"

	"github.com/athul-jose00/Smart-Quiz-Portal-sub000/internal/models"
	"gorm.io/gorm"
)

// ClassRepository interface for class-specific operations
type ClassRepository interface {
	// Basic CRUD operations
	Create(ctx context.Context, tx *gorm.DB, class *models.Class) error
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Class, error)
	GetByCode(ctx context.Context, tx *gorm.DB, code string) (*models.Class, error)
	Update(ctx context.Context, tx *gorm.DB, class *models.Class) error
	Delete(ctx context.Context, tx *gorm.DB, id uint) error

	// Query operations
	GetByTeacher(ctx context.Context, tx *gorm.DB, teacherID string, filters ClassFilters) ([]*models.Class, int64, error)

	// Validation and checks
	ExistsByCode(ctx context.Context, tx *gorm.DB, code string) (bool, error)
	IsOwnedBy(ctx context.Context, tx *gorm.DB, classID uint, teacherID string) (bool, error)
}

// EnrollmentRepository interface for class membership operations
type EnrollmentRepository interface {
	Create(ctx context.Context, tx *gorm.DB, enrollment *models.Enrollment) error
	Delete(ctx context.Context, tx *gorm.DB, userID string, classID uint) error

	// Query operations
	GetClassesByUser(ctx context.Context, tx *gorm.DB, userID string) ([]*models.Class, error)
	GetStudentsByClass(ctx context.Context, tx *gorm.DB, classID uint) ([]*models.User, error)
	CountByClass(ctx context.Context, tx *gorm.DB, classID uint) (int64, error)

	// Validation and checks
	IsEnrolled(ctx context.Context, tx *gorm.DB, userID string, classID uint) (bool, error)
	IsEnrolledInQuizClass(ctx context.Context, tx *gorm.DB, userID string, quizID uint) (bool, error)
}
