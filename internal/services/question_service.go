package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/athul-jose00/Smart-Quiz-Portal-sub000/internal/cache"
	"github.com/athul-jose00/Smart-Quiz-Portal-sub000/internal/models"
	"github.com/athul-jose00/Smart-Quiz-Portal-sub000/internal/repositories"
	"github.com/athul-jose00/Smart-Quiz-Portal-sub000/internal/validator"
	"gorm.io/gorm"
)

type questionService struct {
	db           *gorm.DB
	repo         repositories.Repository
	logger       *slog.Logger
	validator    *validator.Validator
	cacheManager *cache.CacheManager
}

func NewQuestionService(db *gorm.DB, repo repositories.Repository, logger *slog.Logger, validator *validator.Validator, cacheManager *cache.CacheManager) QuestionService {
	return &questionService{
		db:           db,
		repo:         repo,
		logger:       logger,
		validator:    validator,
		cacheManager: cacheManager,
	}
}

func (s *questionService) GetByID(ctx context.Context, id uint, teacherID string) (*models.Question, error) {
	question, err := s.getOwnedQuestion(ctx, id, teacherID, "view")
	if err != nil {
		return nil, err
	}
	return question, nil
}

// Update edits a question in place. Replacing the option set rewrites
// all option rows, which orphans historical responses pointing at the
// old rows; review pages treat those as unanswered.
func (s *questionService) Update(ctx context.Context, id uint, req UpdateQuestionRequest, teacherID string) (*models.Question, error) {
	if validationErrors := s.validator.Validate(req); len(validationErrors) > 0 {
		return nil, toValidationErrors(validationErrors)
	}
	if req.Options != nil {
		if err := requireOneCorrect(req.Options); err != nil {
			return nil, err
		}
	}

	question, err := s.getOwnedQuestion(ctx, id, teacherID, "update")
	if err != nil {
		return nil, err
	}

	if req.QuestionText != nil {
		question.QuestionText = *req.QuestionText
	}
	if req.Points != nil {
		question.Points = *req.Points
	}

	err = s.repo.WithTransaction(ctx, func(txRepo repositories.Repository) error {
		if err := txRepo.Question().Update(ctx, nil, question); err != nil {
			return fmt.Errorf("failed to update question: %w", err)
		}
		if req.Options == nil {
			return nil
		}

		options := make([]*models.Option, 0, len(req.Options))
		for _, opt := range req.Options {
			options = append(options, &models.Option{
				QuestionID: question.ID,
				OptionText: opt.OptionText,
				IsCorrect:  opt.IsCorrect,
			})
		}
		return txRepo.Question().ReplaceOptions(ctx, nil, question.ID, options)
	})
	if err != nil {
		return nil, err
	}

	if s.cacheManager != nil {
		cache.InvalidateQuestionCache(ctx, s.cacheManager, id, teacherID)
	}

	s.logger.Info("Question updated",
		"question_id", id,
		"teacher_id", teacherID,
		"options_replaced", req.Options != nil)

	return s.repo.Question().GetByIDWithOptions(ctx, nil, id)
}

func (s *questionService) Delete(ctx context.Context, id uint, teacherID string) error {
	if _, err := s.getOwnedQuestion(ctx, id, teacherID, "delete"); err != nil {
		return err
	}

	if err := s.repo.Question().Delete(ctx, nil, id); err != nil {
		return fmt.Errorf("failed to delete question: %w", err)
	}

	if s.cacheManager != nil {
		cache.InvalidateQuestionCache(ctx, s.cacheManager, id, teacherID)
	}

	s.logger.Info("Question deleted", "question_id", id, "teacher_id", teacherID)
	return nil
}

func (s *questionService) getOwnedQuestion(ctx context.Context, id uint, teacherID, action string) (*models.Question, error) {
	question, err := s.repo.Question().GetByIDWithOptions(ctx, nil, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrQuestionNotFound
		}
		return nil, fmt.Errorf("failed to get question: %w", err)
	}

	owned, err := s.repo.Quiz().IsOwnedBy(ctx, nil, question.QuizID, teacherID)
	if err != nil {
		return nil, fmt.Errorf("failed to check quiz ownership: %w", err)
	}
	if !owned {
		return nil, NewPermissionError(teacherID, id, "question", action, "only the quiz creator can manage questions")
	}
	return question, nil
}
