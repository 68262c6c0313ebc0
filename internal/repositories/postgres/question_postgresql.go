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

type QuestionPostgreSQL struct {
	db           *gorm.DB
	cacheManager *cache.CacheManager
}

func NewQuestionPostgreSQL(db *gorm.DB, redisClient *redis.Client) repositories.QuestionRepository {
	return &QuestionPostgreSQL{
		db:           db,
		cacheManager: cache.NewCacheManager(redisClient),
	}
}

func (q *QuestionPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return q.db
}

func (q *QuestionPostgreSQL) Create(ctx context.Context, tx *gorm.DB, question *models.Question) error {
	db := q.getDB(tx)
	return db.WithContext(ctx).Create(question).Error
}

func (q *QuestionPostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Question, error) {
	db := q.getDB(tx)
	var question models.Question
	if err := db.WithContext(ctx).First(&question, id).Error; err != nil {
		return nil, err
	}
	return &question, nil
}

func (q *QuestionPostgreSQL) GetByIDWithOptions(ctx context.Context, tx *gorm.DB, id uint) (*models.Question, error) {
	db := q.getDB(tx)
	var question models.Question
	if err := db.WithContext(ctx).
		Preload("Options", func(db *gorm.DB) *gorm.DB {
			return db.Order("options.id")
		}).
		First(&question, id).Error; err != nil {
		return nil, err
	}
	return &question, nil
}

func (q *QuestionPostgreSQL) Update(ctx context.Context, tx *gorm.DB, question *models.Question) error {
	db := q.getDB(tx)
	if err := db.WithContext(ctx).Save(question).Error; err != nil {
		return err
	}
	cache.InvalidateQuestionCache(ctx, q.cacheManager, question.ID, "")
	return nil
}

func (q *QuestionPostgreSQL) Delete(ctx context.Context, tx *gorm.DB, id uint) error {
	db := q.getDB(tx)
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("question_id = ?", id).Delete(&models.Response{}).Error; err != nil {
			return err
		}
		if err := tx.Where("question_id = ?", id).Delete(&models.Option{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Question{}, id).Error
	})
	if err != nil {
		return err
	}
	cache.InvalidateQuestionCache(ctx, q.cacheManager, id, "")
	return nil
}

func (q *QuestionPostgreSQL) CreateBatch(ctx context.Context, tx *gorm.DB, questions []*models.Question) error {
	if len(questions) == 0 {
		return nil
	}
	db := q.getDB(tx)
	return db.WithContext(ctx).Create(&questions).Error
}

// GetByQuiz loads questions in stable storage order. Shuffling for
// presentation happens in the service layer, never here.
func (q *QuestionPostgreSQL) GetByQuiz(ctx context.Context, tx *gorm.DB, quizID uint) ([]*models.Question, error) {
	db := q.getDB(tx)
	var questions []*models.Question
	err := db.WithContext(ctx).
		Where("quiz_id = ?", quizID).
		Preload("Options", func(db *gorm.DB) *gorm.DB {
			return db.Order("options.id")
		}).
		Order("questions.id").
		Find(&questions).Error
	return questions, err
}

func (q *QuestionPostgreSQL) CreateOptions(ctx context.Context, tx *gorm.DB, options []*models.Option) error {
	if len(options) == 0 {
		return nil
	}
	db := q.getDB(tx)
	return db.WithContext(ctx).Create(&options).Error
}

// ReplaceOptions swaps a question's option set atomically. Responses
// referencing the old options keep their IDs; historical review pages
// resolve them with a LEFT JOIN and show them as orphaned.
func (q *QuestionPostgreSQL) ReplaceOptions(ctx context.Context, tx *gorm.DB, questionID uint, options []*models.Option) error {
	db := q.getDB(tx)
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("question_id = ?", questionID).Delete(&models.Option{}).Error; err != nil {
			return err
		}
		for _, opt := range options {
			opt.QuestionID = questionID
		}
		if len(options) == 0 {
			return nil
		}
		return tx.Create(&options).Error
	})
	if err != nil {
		return err
	}
	cache.SafeDelete(ctx, q.cacheManager.Question, fmt.Sprintf("id:%d", questionID))
	return nil
}

func (q *QuestionPostgreSQL) GetOptionByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Option, error) {
	db := q.getDB(tx)
	var option models.Option
	if err := db.WithContext(ctx).First(&option, id).Error; err != nil {
		return nil, err
	}
	return &option, nil
}
