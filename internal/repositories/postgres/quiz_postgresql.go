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

type QuizPostgreSQL struct {
	db           *gorm.DB
	helpers      *SharedHelpers
	cacheManager *cache.CacheManager
}

func NewQuizPostgreSQL(db *gorm.DB, redisClient *redis.Client) repositories.QuizRepository {
	return &QuizPostgreSQL{
		db:           db,
		helpers:      NewSharedHelpers(db),
		cacheManager: cache.NewCacheManager(redisClient),
	}
}

func (q *QuizPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return q.db
}

func (q *QuizPostgreSQL) Create(ctx context.Context, tx *gorm.DB, quiz *models.Quiz) error {
	db := q.getDB(tx)
	return db.WithContext(ctx).Create(quiz).Error
}

func (q *QuizPostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Quiz, error) {
	db := q.getDB(tx)
	cacheKey := fmt.Sprintf("id:%d", id)
	var quiz models.Quiz

	err := q.cacheManager.Quiz.CacheOrExecute(ctx, cacheKey, &quiz, cache.QuizCacheConfig.TTL, func() (interface{}, error) {
		var dbQuiz models.Quiz
		if err := db.WithContext(ctx).First(&dbQuiz, id).Error; err != nil {
			return nil, err
		}
		return &dbQuiz, nil
	})

	return &quiz, err
}

// GetByIDWithQuestions loads the full quiz tree the randomizer and the
// grading engine work from. Never cached: options carry is_correct and
// teachers may edit questions at any time.
func (q *QuizPostgreSQL) GetByIDWithQuestions(ctx context.Context, tx *gorm.DB, id uint) (*models.Quiz, error) {
	db := q.getDB(tx)
	var quiz models.Quiz
	if err := db.WithContext(ctx).
		Preload("Questions", func(db *gorm.DB) *gorm.DB {
			return db.Order("questions.id")
		}).
		Preload("Questions.Options", func(db *gorm.DB) *gorm.DB {
			return db.Order("options.id")
		}).
		First(&quiz, id).Error; err != nil {
		return nil, err
	}
	return &quiz, nil
}

func (q *QuizPostgreSQL) Update(ctx context.Context, tx *gorm.DB, quiz *models.Quiz) error {
	db := q.getDB(tx)
	if err := db.WithContext(ctx).Save(quiz).Error; err != nil {
		return err
	}
	cache.InvalidateQuizCache(ctx, q.cacheManager, quiz.ID, quiz.CreatedBy)
	return nil
}

func (q *QuizPostgreSQL) Delete(ctx context.Context, tx *gorm.DB, id uint) error {
	db := q.getDB(tx)

	// Cascade: responses and results first, then options, questions, quiz
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("quiz_id = ?", id).Delete(&models.Response{}).Error; err != nil {
			return err
		}
		if err := tx.Where("quiz_id = ?", id).Delete(&models.Result{}).Error; err != nil {
			return err
		}
		if err := tx.Where("question_id IN (?)",
			tx.Session(&gorm.Session{NewDB: true}).Model(&models.Question{}).Select("id").Where("quiz_id = ?", id),
		).Delete(&models.Option{}).Error; err != nil {
			return err
		}
		if err := tx.Where("quiz_id = ?", id).Delete(&models.Question{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Quiz{}, id).Error
	})
	if err != nil {
		return err
	}

	cache.InvalidateQuizCache(ctx, q.cacheManager, id, "")
	return nil
}

func (q *QuizPostgreSQL) GetByClass(ctx context.Context, tx *gorm.DB, classID uint, filters repositories.QuizFilters) ([]*models.Quiz, int64, error) {
	filters.ClassID = &classID
	return q.list(ctx, tx, filters)
}

func (q *QuizPostgreSQL) GetByCreator(ctx context.Context, tx *gorm.DB, creatorID string, filters repositories.QuizFilters) ([]*models.Quiz, int64, error) {
	filters.CreatedBy = &creatorID
	return q.list(ctx, tx, filters)
}

func (q *QuizPostgreSQL) list(ctx context.Context, tx *gorm.DB, filters repositories.QuizFilters) ([]*models.Quiz, int64, error) {
	db := q.getDB(tx)
	var quizzes []*models.Quiz
	var total int64

	// apply filter first
	query := db.WithContext(ctx).Model(&models.Quiz{})
	query = q.helpers.ApplyQuizFilters(query, filters)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	// then apply pagination and sorting
	query = q.helpers.ApplyPaginationAndSort(query, filters.SortBy, filters.SortOrder, filters.Limit, filters.Offset)

	if err := query.Preload("Class").Find(&quizzes).Error; err != nil {
		return nil, 0, err
	}

	return quizzes, total, nil
}

func (q *QuizPostgreSQL) GetTotalPoints(ctx context.Context, tx *gorm.DB, quizID uint) (int, error) {
	db := q.getDB(tx)
	var total int64
	err := db.WithContext(ctx).
		Model(&models.Question{}).
		Where("quiz_id = ?", quizID).
		Select("COALESCE(SUM(points), 0)").
		Row().Scan(&total)
	return int(total), err
}

func (q *QuizPostgreSQL) CountQuestions(ctx context.Context, tx *gorm.DB, quizID uint) (int64, error) {
	db := q.getDB(tx)
	var count int64
	err := db.WithContext(ctx).
		Model(&models.Question{}).
		Where("quiz_id = ?", quizID).
		Count(&count).Error
	return count, err
}

func (q *QuizPostgreSQL) IsOwnedBy(ctx context.Context, tx *gorm.DB, quizID uint, teacherID string) (bool, error) {
	db := q.getDB(tx)
	var count int64
	err := db.WithContext(ctx).
		Model(&models.Quiz{}).
		Where("id = ? AND created_by = ?", quizID, teacherID).
		Count(&count).Error
	return count > 0, err
}

type QuizDraftPostgreSQL struct {
	db *gorm.DB
}

func NewQuizDraftPostgreSQL(db *gorm.DB) repositories.QuizDraftRepository {
	return &QuizDraftPostgreSQL{db: db}
}

func (d *QuizDraftPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return d.db
}

func (d *QuizDraftPostgreSQL) Create(ctx context.Context, tx *gorm.DB, draft *models.QuizDraft) error {
	db := d.getDB(tx)
	return db.WithContext(ctx).Create(draft).Error
}

func (d *QuizDraftPostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.QuizDraft, error) {
	db := d.getDB(tx)
	var draft models.QuizDraft
	if err := db.WithContext(ctx).First(&draft, id).Error; err != nil {
		return nil, err
	}
	return &draft, nil
}

func (d *QuizDraftPostgreSQL) Update(ctx context.Context, tx *gorm.DB, draft *models.QuizDraft) error {
	db := d.getDB(tx)
	return db.WithContext(ctx).Save(draft).Error
}

func (d *QuizDraftPostgreSQL) Delete(ctx context.Context, tx *gorm.DB, id uint) error {
	db := d.getDB(tx)
	return db.WithContext(ctx).Delete(&models.QuizDraft{}, id).Error
}

func (d *QuizDraftPostgreSQL) GetActiveByTeacher(ctx context.Context, tx *gorm.DB, teacherID string) ([]*models.QuizDraft, error) {
	db := d.getDB(tx)
	var drafts []*models.QuizDraft
	err := db.WithContext(ctx).
		Where("teacher_id = ? AND status = ?", teacherID, models.DraftActive).
		Order("updated_at DESC").
		Find(&drafts).Error
	return drafts, err
}
