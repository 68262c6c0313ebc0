package services

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"

	"github.com/athul-jose00/Smart-Quiz-Portal-sub000/internal/models"
	"github.com/athul-jose00/Smart-Quiz-Portal-sub000/internal/repositories"
	"github.com/athul-jose00/Smart-Quiz-Portal-sub000/internal/validator"
	"gorm.io/gorm"
)

const defaultTrendLimit = 10

type attemptService struct {
	db        *gorm.DB
	repo      repositories.Repository
	logger    *slog.Logger
	validator *validator.Validator
}

func NewAttemptService(db *gorm.DB, repo repositories.Repository, logger *slog.Logger, validator *validator.Validator) AttemptService {
	return &attemptService{
		db:        db,
		repo:      repo,
		logger:    logger,
		validator: validator,
	}
}

// ===== ATTEMPT START =====

// Start builds the randomized attempt view for a student. Question and
// option order is shuffled fresh on every call, so retaking a quiz never
// replays the previous ordering. Correct-answer flags are stripped.
func (s *attemptService) Start(ctx context.Context, quizID uint, studentID string) (*StartAttemptResponse, error) {
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
		return nil, NewPermissionError(studentID, quizID, "quiz", "attempt", "not enrolled in this class")
	}

	if len(quiz.Questions) == 0 {
		return nil, ErrQuizNotReady
	}

	maxAttempt, err := s.repo.Result().GetMaxAttemptNumber(ctx, nil, studentID, quizID)
	if err != nil {
		return nil, fmt.Errorf("failed to get attempt number: %w", err)
	}

	totalPoints := 0
	questions := make([]AttemptQuestionView, 0, len(quiz.Questions))
	for i := range quiz.Questions {
		question := &quiz.Questions[i]
		if len(question.Options) == 0 {
			return nil, ErrQuizNotReady
		}
		totalPoints += question.Points

		options := make([]AttemptOptionView, 0, len(question.Options))
		for j := range question.Options {
			options = append(options, AttemptOptionView{
				OptionID:   question.Options[j].ID,
				OptionText: question.Options[j].OptionText,
			})
		}
		rand.Shuffle(len(options), func(a, b int) {
			options[a], options[b] = options[b], options[a]
		})

		questions = append(questions, AttemptQuestionView{
			QuestionID:   question.ID,
			QuestionText: question.QuestionText,
			Points:       question.Points,
			Options:      options,
		})
	}
	rand.Shuffle(len(questions), func(a, b int) {
		questions[a], questions[b] = questions[b], questions[a]
	})

	s.logger.Info("Attempt started",
		"quiz_id", quizID,
		"student_id", studentID,
		"attempt_number", maxAttempt+1)

	return &StartAttemptResponse{
		QuizID:        quiz.ID,
		Title:         quiz.Title,
		TimeLimit:     quiz.TimeLimit,
		AttemptNumber: maxAttempt + 1,
		TotalPoints:   totalPoints,
		Questions:     questions,
	}, nil
}

// ===== RESULT REVIEW =====

// GetResult assembles the review page for one completed attempt. The
// per-question verdicts are recomputed against the current option flags,
// so a teacher's later correction is reflected on old reviews.
func (s *attemptService) GetResult(ctx context.Context, quizID uint, attemptNumber int, studentID string) (*ResultDetailResponse, error) {
	result, err := s.repo.Result().GetByAttempt(ctx, nil, studentID, quizID, attemptNumber)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrResultNotFound
		}
		return nil, fmt.Errorf("failed to get result: %w", err)
	}

	responses, err := s.repo.Response().GetByAttempt(ctx, nil, studentID, quizID, attemptNumber)
	if err != nil {
		return nil, fmt.Errorf("failed to get responses: %w", err)
	}

	totalPossible := 0
	reviews := make([]ResponseReview, 0, len(responses))
	for _, resp := range responses {
		reviews = append(reviews, buildResponseReview(resp))
		totalPossible += resp.Question.Points
	}

	classAverage, err := s.classAverage(ctx, quizID)
	if err != nil {
		return nil, err
	}

	attempts, err := s.repo.Result().ListByUserAndQuiz(ctx, nil, studentID, quizID)
	if err != nil {
		return nil, fmt.Errorf("failed to list attempts: %w", err)
	}
	summaries := make([]AttemptSummary, 0, len(attempts))
	for _, a := range attempts {
		summaries = append(summaries, AttemptSummary{
			AttemptNumber: a.AttemptNumber,
			Percentage:    a.Percentage,
			CompletedAt:   a.CompletedAt,
		})
	}

	return &ResultDetailResponse{
		QuizID:        quizID,
		QuizTitle:     result.Quiz.Title,
		AttemptNumber: attemptNumber,
		TotalScore:    result.TotalScore,
		TotalPossible: totalPossible,
		Percentage:    result.Percentage,
		Grade:         gradeLetter(result.Percentage),
		ClassAverage:  classAverage,
		CompletedAt:   result.CompletedAt,
		Responses:     reviews,
		AllAttempts:   summaries,
	}, nil
}

func (s *attemptService) ListResults(ctx context.Context, studentID string, limit, offset int) (*ResultListResponse, error) {
	results, total, err := s.repo.Result().ListByUser(ctx, nil, studentID, repositories.ResultFilters{
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list results: %w", err)
	}

	// Question counts are recomputed, not stored; memoize per quiz to
	// avoid one count query per attempt row.
	questionCounts := make(map[uint]int64)
	items := make([]ResultListItem, 0, len(results))
	for _, result := range results {
		count, ok := questionCounts[result.QuizID]
		if !ok {
			count, err = s.repo.Quiz().CountQuestions(ctx, nil, result.QuizID)
			if err != nil {
				return nil, fmt.Errorf("failed to count questions: %w", err)
			}
			questionCounts[result.QuizID] = count
		}

		items = append(items, ResultListItem{
			QuizID:         result.QuizID,
			QuizTitle:      result.Quiz.Title,
			ClassName:      result.Quiz.Class.Name,
			AttemptNumber:  result.AttemptNumber,
			TotalScore:     result.TotalScore,
			Percentage:     result.Percentage,
			TotalQuestions: int(count),
			CompletedAt:    result.CompletedAt,
		})
	}

	return &ResultListResponse{Results: items, Total: total}, nil
}

// GetPerformanceTrend returns the student's latest attempts ordered
// oldest to newest, ready for a line chart.
func (s *attemptService) GetPerformanceTrend(ctx context.Context, studentID string, limit int) ([]TrendPoint, error) {
	if limit <= 0 {
		limit = defaultTrendLimit
	}

	rows, err := s.repo.Result().GetRecentByUser(ctx, nil, studentID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get trend: %w", err)
	}

	// Repository returns newest first; the chart wants oldest first.
	points := make([]TrendPoint, 0, len(rows))
	for i := len(rows) - 1; i >= 0; i-- {
		points = append(points, TrendPoint{
			QuizTitle:     rows[i].QuizTitle,
			AttemptNumber: rows[i].AttemptNumber,
			Percentage:    rows[i].Percentage,
			CompletedAt:   rows[i].CompletedAt,
		})
	}
	return points, nil
}

// ===== HELPERS =====

func (s *attemptService) classAverage(ctx context.Context, quizID uint) (float64, error) {
	results, err := s.repo.Result().ListByQuiz(ctx, nil, quizID)
	if err != nil {
		return 0, fmt.Errorf("failed to load quiz results: %w", err)
	}
	if len(results) == 0 {
		return 0, nil
	}
	sum := 0.0
	for _, r := range results {
		sum += r.Percentage
	}
	return roundFloat(sum/float64(len(results)), 2), nil
}

func buildResponseReview(resp *models.Response) ResponseReview {
	review := ResponseReview{
		QuestionID:   resp.QuestionID,
		QuestionText: resp.Question.QuestionText,
		Points:       resp.Question.Points,
		Answered:     resp.Answered(),
	}

	correct := resp.Question.CorrectOption()
	if correct != nil {
		review.CorrectOption = &correct.ID
		review.CorrectText = correct.OptionText
	}

	if resp.Answered() {
		review.SelectedOption = resp.SelectedOptionID
		if resp.SelectedOption != nil {
			review.SelectedText = &resp.SelectedOption.OptionText
		}
		if correct != nil && correct.ID == *resp.SelectedOptionID {
			review.IsCorrect = true
			review.PointsEarned = resp.Question.Points
		}
	}
	return review
}
