package postgres

import (
	"context"

	"github.com/athul-jose00/Smart-Quiz-Portal-sub000/internal/cache"
	"github.com/athul-jose00/Smart-Quiz-Portal-sub000/internal/models"
	"github.com/athul-jose00/Smart-Quiz-Portal-sub000/internal/repositories"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type ResultPostgreSQL struct {
	db           *gorm.DB
	helpers      *SharedHelpers
	cacheManager *cache.CacheManager
}

func NewResultPostgreSQL(db *gorm.DB, redisClient *redis.Client) repositories.ResultRepository {
	return &ResultPostgreSQL{
		db:           db,
		helpers:      NewSharedHelpers(db),
		cacheManager: cache.NewCacheManager(redisClient),
	}
}

func (r *ResultPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

func (r *ResultPostgreSQL) Create(ctx context.Context, tx *gorm.DB, result *models.Result) error {
	db := r.getDB(tx)
	return db.WithContext(ctx).Create(result).Error
}

func (r *ResultPostgreSQL) GetByAttempt(ctx context.Context, tx *gorm.DB, userID string, quizID uint, attemptNumber int) (*models.Result, error) {
	db := r.getDB(tx)
	var result models.Result
	if err := db.WithContext(ctx).
		Preload("Quiz").
		Where("user_id = ? AND quiz_id = ? AND attempt_number = ?", userID, quizID, attemptNumber).
		First(&result).Error; err != nil {
		return nil, err
	}
	return &result, nil
}

func (r *ResultPostgreSQL) Delete(ctx context.Context, tx *gorm.DB, id uint) error {
	db := r.getDB(tx)
	return db.WithContext(ctx).Delete(&models.Result{}, id).Error
}

// GetMaxAttemptNumber backs the attempt sequencer. Returns 0 when the
// student has no prior results for the quiz.
func (r *ResultPostgreSQL) GetMaxAttemptNumber(ctx context.Context, tx *gorm.DB, userID string, quizID uint) (int, error) {
	db := r.getDB(tx)
	var max int64
	err := db.WithContext(ctx).
		Model(&models.Result{}).
		Where("user_id = ? AND quiz_id = ?", userID, quizID).
		Select("COALESCE(MAX(attempt_number), 0)").
		Row().Scan(&max)
	return int(max), err
}

func (r *ResultPostgreSQL) ListByUser(ctx context.Context, tx *gorm.DB, userID string, filters repositories.ResultFilters) ([]*models.Result, int64, error) {
	db := r.getDB(tx)
	var results []*models.Result
	var total int64

	filters.UserID = &userID
	query := db.WithContext(ctx).Model(&models.Result{})
	query = r.helpers.ApplyResultFilters(query, filters)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	sortBy := filters.SortBy
	if sortBy == "" {
		sortBy = "completed_at"
	}
	query = r.helpers.ApplyPaginationAndSort(query, sortBy, filters.SortOrder, filters.Limit, filters.Offset)

	if err := query.Preload("Quiz").Preload("Quiz.Class").Find(&results).Error; err != nil {
		return nil, 0, err
	}

	return results, total, nil
}

func (r *ResultPostgreSQL) ListByUserAndQuiz(ctx context.Context, tx *gorm.DB, userID string, quizID uint) ([]*models.Result, error) {
	db := r.getDB(tx)
	var results []*models.Result
	err := db.WithContext(ctx).
		Where("user_id = ? AND quiz_id = ?", userID, quizID).
		Order("attempt_number DESC").
		Find(&results).Error
	return results, err
}

func (r *ResultPostgreSQL) ListByQuiz(ctx context.Context, tx *gorm.DB, quizID uint) ([]*models.Result, error) {
	db := r.getDB(tx)
	var results []*models.Result
	err := db.WithContext(ctx).
		Where("quiz_id = ?", quizID).
		Order("completed_at").
		Find(&results).Error
	return results, err
}

func (r *ResultPostgreSQL) CountByQuiz(ctx context.Context, tx *gorm.DB, quizID uint) (int64, error) {
	db := r.getDB(tx)
	var count int64
	err := db.WithContext(ctx).
		Model(&models.Result{}).
		Where("quiz_id = ?", quizID).
		Count(&count).Error
	return count, err
}

func (r *ResultPostgreSQL) GetRecentByUser(ctx context.Context, tx *gorm.DB, userID string, limit int) ([]repositories.TrendRow, error) {
	db := r.getDB(tx)
	var rows []repositories.TrendRow
	err := db.WithContext(ctx).
		Model(&models.Result{}).
		Select("results.quiz_id, quizzes.title AS quiz_title, results.attempt_number, results.percentage, results.completed_at").
		Joins("JOIN quizzes ON quizzes.id = results.quiz_id").
		Where("results.user_id = ?", userID).
		Order("results.completed_at DESC").
		Limit(limit).
		Scan(&rows).Error
	return rows, err
}

func (r *ResultPostgreSQL) GetScoreRows(ctx context.Context, tx *gorm.DB, quizID uint) ([]repositories.QuizScoreRow, error) {
	db := r.getDB(tx)
	var rows []repositories.QuizScoreRow
	err := db.WithContext(ctx).
		Model(&models.Result{}).
		Select("results.user_id, users.name AS student_name, users.email AS student_email, results.attempt_number, results.total_score, results.percentage, results.completed_at").
		Joins("JOIN users ON users.id = results.user_id").
		Where("results.quiz_id = ?", quizID).
		Order("users.name, results.attempt_number").
		Scan(&rows).Error
	return rows, err
}

type ResponsePostgreSQL struct {
	db *gorm.DB
}

func NewResponsePostgreSQL(db *gorm.DB) repositories.ResponseRepository {
	return &ResponsePostgreSQL{db: db}
}

func (r *ResponsePostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

func (r *ResponsePostgreSQL) CreateBatch(ctx context.Context, tx *gorm.DB, responses []*models.Response) error {
	if len(responses) == 0 {
		return nil
	}
	db := r.getDB(tx)
	return db.WithContext(ctx).Create(&responses).Error
}

// GetByAttempt loads the attempt's responses joined with the current
// question and option rows. Correctness shown on review pages is
// whatever options.is_correct says now, not at submission time.
func (r *ResponsePostgreSQL) GetByAttempt(ctx context.Context, tx *gorm.DB, userID string, quizID uint, attemptNumber int) ([]*models.Response, error) {
	db := r.getDB(tx)
	var responses []*models.Response
	err := db.WithContext(ctx).
		Where("user_id = ? AND quiz_id = ? AND attempt_number = ?", userID, quizID, attemptNumber).
		Preload("Question").
		Preload("Question.Options", func(db *gorm.DB) *gorm.DB {
			return db.Order("options.id")
		}).
		Preload("SelectedOption").
		Order("question_id").
		Find(&responses).Error
	return responses, err
}

func (r *ResponsePostgreSQL) CountByAttempt(ctx context.Context, tx *gorm.DB, userID string, quizID uint, attemptNumber int) (int64, error) {
	db := r.getDB(tx)
	var count int64
	err := db.WithContext(ctx).
		Model(&models.Response{}).
		Where("user_id = ? AND quiz_id = ? AND attempt_number = ?", userID, quizID, attemptNumber).
		Count(&count).Error
	return count, err
}
