package postgres

import (
	"context"
	"fmt"

	"github.com/athul-jose00/Smart-Quiz-Portal-sub000/internal/cache"
	"github.com/athul-jose00/Smart-Quiz-Portal-sub000/internal/models"
	"github.com/athul-jose00/Smart-Quiz-Portal-sub000/internal/repositories"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type ClassPostgreSQL struct {
	db           *gorm.DB
	helpers      *SharedHelpers
	cacheManager *cache.CacheManager
}

func NewClassPostgreSQL(db *gorm.DB, redisClient *redis.Client) repositories.ClassRepository {
	return &ClassPostgreSQL{
		db:           db,
		helpers:      NewSharedHelpers(db),
		cacheManager: cache.NewCacheManager(redisClient),
	}
}

func (c *ClassPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return c.db
}

func (c *ClassPostgreSQL) Create(ctx context.Context, tx *gorm.DB, class *models.Class) error {
	db := c.getDB(tx)
	return db.WithContext(ctx).Create(class).Error
}

func (c *ClassPostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Class, error) {
	db := c.getDB(tx)
	cacheKey := fmt.Sprintf("class:%d", id)
	var class models.Class

	err := c.cacheManager.Fast.CacheOrExecute(ctx, cacheKey, &class, cache.FastCacheConfig.TTL, func() (interface{}, error) {
		var dbClass models.Class
		if err := db.WithContext(ctx).First(&dbClass, id).Error; err != nil {
			return nil, err
		}
		return &dbClass, nil
	})

	return &class, err
}

func (c *ClassPostgreSQL) GetByCode(ctx context.Context, tx *gorm.DB, code string) (*models.Class, error) {
	db := c.getDB(tx)
	var class models.Class
	if err := db.WithContext(ctx).
		Preload("Teacher").
		Where("class_code = ?", code).
		First(&class).Error; err != nil {
		return nil, err
	}
	return &class, nil
}

func (c *ClassPostgreSQL) Update(ctx context.Context, tx *gorm.DB, class *models.Class) error {
	db := c.getDB(tx)
	if err := db.WithContext(ctx).Save(class).Error; err != nil {
		return err
	}
	cache.SafeDelete(ctx, c.cacheManager.Fast, fmt.Sprintf("class:%d", class.ID))
	return nil
}

func (c *ClassPostgreSQL) Delete(ctx context.Context, tx *gorm.DB, id uint) error {
	db := c.getDB(tx)
	if err := db.WithContext(ctx).Delete(&models.Class{}, id).Error; err != nil {
		return err
	}
	cache.SafeDelete(ctx, c.cacheManager.Fast, fmt.Sprintf("class:%d", id))
	return nil
}

func (c *ClassPostgreSQL) GetByTeacher(ctx context.Context, tx *gorm.DB, teacherID string, filters repositories.ClassFilters) ([]*models.Class, int64, error) {
	db := c.getDB(tx)
	var classes []*models.Class
	var total int64

	query := db.WithContext(ctx).Model(&models.Class{}).Where("teacher_id = ?", teacherID)
	if filters.Query != "" {
		query = query.Where("name ILIKE ?", "%"+filters.Query+"%")
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = c.helpers.ApplyPaginationAndSort(query, "created_at", "desc", filters.Limit, filters.Offset)
	if err := query.Find(&classes).Error; err != nil {
		return nil, 0, err
	}

	return classes, total, nil
}

func (c *ClassPostgreSQL) ExistsByCode(ctx context.Context, tx *gorm.DB, code string) (bool, error) {
	db := c.getDB(tx)
	var count int64
	err := db.WithContext(ctx).
		Model(&models.Class{}).
		Where("class_code = ?", code).
		Count(&count).Error
	return count > 0, err
}

func (c *ClassPostgreSQL) IsOwnedBy(ctx context.Context, tx *gorm.DB, classID uint, teacherID string) (bool, error) {
	db := c.getDB(tx)
	var count int64
	err := db.WithContext(ctx).
		Model(&models.Class{}).
		Where("id = ? AND teacher_id = ?", classID, teacherID).
		Count(&count).Error
	return count > 0, err
}

type EnrollmentPostgreSQL struct {
	db *gorm.DB
}

func NewEnrollmentPostgreSQL(db *gorm.DB) repositories.EnrollmentRepository {
	return &EnrollmentPostgreSQL{db: db}
}

func (e *EnrollmentPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return e.db
}

func (e *EnrollmentPostgreSQL) Create(ctx context.Context, tx *gorm.DB, enrollment *models.Enrollment) error {
	db := e.getDB(tx)
	return db.WithContext(ctx).Create(enrollment).Error
}

func (e *EnrollmentPostgreSQL) Delete(ctx context.Context, tx *gorm.DB, userID string, classID uint) error {
	db := e.getDB(tx)
	return db.WithContext(ctx).
		Where("user_id = ? AND class_id = ?", userID, classID).
		Delete(&models.Enrollment{}).Error
}

func (e *EnrollmentPostgreSQL) GetClassesByUser(ctx context.Context, tx *gorm.DB, userID string) ([]*models.Class, error) {
	db := e.getDB(tx)
	var classes []*models.Class
	err := db.WithContext(ctx).
		Joins("JOIN enrollments ON enrollments.class_id = classes.id").
		Where("enrollments.user_id = ?", userID).
		Preload("Teacher").
		Order("classes.name").
		Find(&classes).Error
	return classes, err
}

func (e *EnrollmentPostgreSQL) GetStudentsByClass(ctx context.Context, tx *gorm.DB, classID uint) ([]*models.User, error) {
	db := e.getDB(tx)
	var users []*models.User
	err := db.WithContext(ctx).
		Model(&models.User{}).
		Joins("JOIN enrollments ON enrollments.user_id = users.id").
		Where("enrollments.class_id = ?", classID).
		Order("users.name").
		Find(&users).Error
	return users, err
}

func (e *EnrollmentPostgreSQL) CountByClass(ctx context.Context, tx *gorm.DB, classID uint) (int64, error) {
	db := e.getDB(tx)
	var count int64
	err := db.WithContext(ctx).
		Model(&models.Enrollment{}).
		Where("class_id = ?", classID).
		Count(&count).Error
	return count, err
}

func (e *EnrollmentPostgreSQL) IsEnrolled(ctx context.Context, tx *gorm.DB, userID string, classID uint) (bool, error) {
	db := e.getDB(tx)
	var count int64
	err := db.WithContext(ctx).
		Model(&models.Enrollment{}).
		Where("user_id = ? AND class_id = ?", userID, classID).
		Count(&count).Error
	return count > 0, err
}

// IsEnrolledInQuizClass answers the enrollment check for attempt and
// result endpoints: is the student a member of the class owning this quiz.
func (e *EnrollmentPostgreSQL) IsEnrolledInQuizClass(ctx context.Context, tx *gorm.DB, userID string, quizID uint) (bool, error) {
	db := e.getDB(tx)
	var count int64
	err := db.WithContext(ctx).
		Model(&models.Enrollment{}).
		Joins("JOIN quizzes ON quizzes.class_id = enrollments.class_id").
		Where("enrollments.user_id = ? AND quizzes.id = ?", userID, quizID).
		Count(&count).Error
	return count > 0, err
}
