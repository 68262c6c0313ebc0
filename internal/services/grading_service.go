package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/athul-jose00/Smart-Quiz-Portal-sub000/internal/cache"
	"github.com/athul-jose00/Smart-Quiz-Portal-sub000/internal/events"
	"github.com/athul-jose00/Smart-Quiz-Portal-sub000/internal/models"
	"github.com/athul-jose00/Smart-Quiz-Portal-sub000/internal/repositories"
	"github.com/athul-jose00/Smart-Quiz-Portal-sub000/internal/validator"
	"gorm.io/gorm"
)

// attemptAllocationRetries bounds the retry loop when two submissions of
// the same quiz by the same student race for the next attempt number.
const attemptAllocationRetries = 3

type gradingService struct {
	db           *gorm.DB
	repo         repositories.Repository
	logger       *slog.Logger
	validator    *validator.Validator
	publisher    events.EventPublisher
	cacheManager *cache.CacheManager
}

func NewGradingService(db *gorm.DB, repo repositories.Repository, logger *slog.Logger, validator *validator.Validator, publisher events.EventPublisher, cacheManager *cache.CacheManager) GradingService {
	return &gradingService{
		db:           db,
		repo:         repo,
		logger:       logger,
		validator:    validator,
		publisher:    publisher,
		cacheManager: cacheManager,
	}
}

// SubmitAttempt grades a student's submission server-side and records it as
// a new attempt. The submitted answers are only option selections; every
// correctness decision is made here against the stored option flags.
func (s *gradingService) SubmitAttempt(ctx context.Context, quizID uint, studentID string, req SubmitAttemptRequest) (*GradeResponse, error) {
	s.logger.Info("Grading attempt submission",
		"quiz_id", quizID,
		"student_id", studentID,
		"answer_count", len(req.Answers))

	if validationErrors := s.validator.Validate(req); len(validationErrors) > 0 {
		return nil, toValidationErrors(validationErrors)
	}

	quiz, err := s.repo.Quiz().GetByIDWithQuestions(ctx, nil, quizID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrQuizNotFound
		}
		return nil, fmt.Errorf("failed to get quiz: %w", err)
	}

	enrolled, err := s.repo.Enrollment().IsEnrolled(ctx, nil, studentID, quiz.ClassID)
	if err != nil {
		return nil, fmt.Errorf("failed to check enrollment: %w", err)
	}
	if !enrolled {
		return nil, NewPermissionError(studentID, quizID, "quiz", "submit", "not enrolled in this class")
	}

	if len(quiz.Questions) == 0 {
		return nil, ErrQuizNotReady
	}

	// Index submitted selections by question. Duplicate answers for the
	// same question keep the last one, matching form re-submission.
	selections := make(map[uint]*uint, len(req.Answers))
	for _, ans := range req.Answers {
		selections[ans.QuestionID] = ans.SelectedOptionID
	}

	grade, err := s.gradeAndPersist(ctx, quiz, studentID, selections)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Attempt graded",
		"quiz_id", quizID,
		"student_id", studentID,
		"attempt_number", grade.AttemptNumber,
		"score", grade.TotalScore,
		"percentage", grade.Percentage)

	s.publishGraded(ctx, quiz, studentID, grade)
	s.invalidateStatsCaches(ctx, quiz)

	return grade, nil
}

// gradeAndPersist scores the selections and writes the Result plus one
// Response per question in a single transaction. The attempt number is
// allocated inside the transaction and the whole write is retried when
// a concurrent submission claims the same number first.
func (s *gradingService) gradeAndPersist(ctx context.Context, quiz *models.Quiz, studentID string, selections map[uint]*uint) (*GradeResponse, error) {
	var lastErr error

	for i := 0; i < attemptAllocationRetries; i++ {
		grade, err := s.tryGradeAndPersist(ctx, quiz, studentID, selections)
		if err == nil {
			return grade, nil
		}
		if !repositories.IsDuplicateKeyError(err) {
			return nil, err
		}
		lastErr = err
		s.logger.Warn("Attempt number collision, retrying",
			"quiz_id", quiz.ID,
			"student_id", studentID,
			"retry", i+1)
	}

	return nil, fmt.Errorf("%w: %v", ErrAttemptConflict, lastErr)
}

func (s *gradingService) tryGradeAndPersist(ctx context.Context, quiz *models.Quiz, studentID string, selections map[uint]*uint) (*GradeResponse, error) {
	var grade *GradeResponse

	err := s.repo.WithTransaction(ctx, func(txRepo repositories.Repository) error {
		maxAttempt, err := txRepo.Result().GetMaxAttemptNumber(ctx, nil, studentID, quiz.ID)
		if err != nil {
			return fmt.Errorf("failed to get max attempt number: %w", err)
		}
		attemptNumber := maxAttempt + 1

		totalScore := 0
		totalPossible := 0
		correctCount := 0
		responses := make([]*models.Response, 0, len(quiz.Questions))

		// Every question gets a response row, answered or not. Grading
		// iterates the quiz's questions, never the submitted answers, so
		// stray question IDs in the request are simply ignored.
		for i := range quiz.Questions {
			question := &quiz.Questions[i]
			totalPossible += question.Points

			selected, answered := selections[question.ID]
			if answered && selected != nil {
				if !optionBelongsTo(question, *selected) {
					return fmt.Errorf("%w: option %d does not belong to question %d", ErrInvalidOption, *selected, question.ID)
				}
			} else {
				selected = nil
			}

			if selected != nil {
				if correct := question.CorrectOption(); correct != nil && correct.ID == *selected {
					totalScore += question.Points
					correctCount++
				}
			}

			responses = append(responses, &models.Response{
				UserID:           studentID,
				QuizID:           quiz.ID,
				QuestionID:       question.ID,
				AttemptNumber:    attemptNumber,
				SelectedOptionID: selected,
			})
		}

		percentage := 0.0
		if totalPossible > 0 {
			percentage = roundFloat(float64(totalScore)/float64(totalPossible)*100, 2)
		}

		completedAt := time.Now()
		result := &models.Result{
			UserID:        studentID,
			QuizID:        quiz.ID,
			AttemptNumber: attemptNumber,
			TotalScore:    totalScore,
			Percentage:    percentage,
			CompletedAt:   completedAt,
		}

		// The unique index on (user, quiz, attempt_number) is what turns
		// a concurrent allocation into a duplicate-key error here.
		if err := txRepo.Result().Create(ctx, nil, result); err != nil {
			return err
		}
		if err := txRepo.Response().CreateBatch(ctx, nil, responses); err != nil {
			return fmt.Errorf("failed to save responses: %w", err)
		}

		grade = &GradeResponse{
			QuizID:        quiz.ID,
			AttemptNumber: attemptNumber,
			TotalScore:    totalScore,
			TotalPossible: totalPossible,
			Percentage:    percentage,
			Grade:         gradeLetter(percentage),
			CorrectCount:  correctCount,
			QuestionCount: len(quiz.Questions),
			CompletedAt:   completedAt,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return grade, nil
}

func (s *gradingService) publishGraded(ctx context.Context, quiz *models.Quiz, studentID string, grade *GradeResponse) {
	if s.publisher == nil {
		return
	}
	err := s.publisher.Publish(ctx, events.EventAttemptGraded, map[string]interface{}{
		"quiz_id":        quiz.ID,
		"class_id":       quiz.ClassID,
		"student_id":     studentID,
		"attempt_number": grade.AttemptNumber,
		"total_score":    grade.TotalScore,
		"percentage":     grade.Percentage,
		"completed_at":   grade.CompletedAt,
	})
	if err != nil {
		// Grading already committed; a lost event must not fail the request
		s.logger.Error("Failed to publish graded event",
			"quiz_id", quiz.ID,
			"student_id", studentID,
			"error", err)
	}
}

func (s *gradingService) invalidateStatsCaches(ctx context.Context, quiz *models.Quiz) {
	if s.cacheManager == nil {
		return
	}
	cache.SafeInvalidatePattern(ctx, s.cacheManager.Stats, fmt.Sprintf("quiz:%d:*", quiz.ID))
	cache.SafeDelete(ctx, s.cacheManager.Stats, "portal_overview")
}

func optionBelongsTo(question *models.Question, optionID uint) bool {
	for i := range question.Options {
		if question.Options[i].ID == optionID {
			return true
		}
	}
	return false
}
