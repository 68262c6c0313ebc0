package services

import (
	"context"
	"testing"
	"time"

	"github.com/athul-jose00/Smart-Quiz-Portal-sub000/internal/models"
	"github.com/athul-jose00/Smart-Quiz-Portal-sub000/internal/repositories"
	"github.com/athul-jose00/Smart-Quiz-Portal-sub000/internal/validator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newAttemptService(repo *mockRepository) AttemptService {
	return NewAttemptService(nil, repo, testLogger(), validator.New())
}

func TestStart_BuildsStudentView(t *testing.T) {
	quiz := testQuiz(3, 5)
	repo := &mockRepository{
		quiz: &stubQuizRepo{
			getByIDWithQuestions: func(id uint) (*models.Quiz, error) { return quiz, nil },
		},
		enrollment: &stubEnrollmentRepo{
			isEnrolled: func(userID string, classID uint) (bool, error) { return true, nil },
		},
		result: &stubResultRepo{
			getMaxAttemptNumber: func(userID string, quizID uint) (int, error) { return 2, nil },
		},
	}

	view, err := newAttemptService(repo).Start(context.Background(), quiz.ID, "student-1")
	require.NoError(t, err)

	assert.Equal(t, quiz.ID, view.QuizID)
	assert.Equal(t, quiz.Title, view.Title)
	assert.Equal(t, quiz.TimeLimit, view.TimeLimit)
	assert.Equal(t, 3, view.AttemptNumber)
	assert.Equal(t, 15, view.TotalPoints)
	require.Len(t, view.Questions, 3)

	// Shuffling must permute, never drop or duplicate.
	seenQuestions := make(map[uint]bool)
	for _, q := range view.Questions {
		seenQuestions[q.QuestionID] = true
		require.Len(t, q.Options, 4)

		seenOptions := make(map[uint]bool)
		for _, o := range q.Options {
			seenOptions[o.OptionID] = true
			assert.NotEmpty(t, o.OptionText)
		}
		for j := uint(1); j <= 4; j++ {
			assert.True(t, seenOptions[q.QuestionID*10+j])
		}
	}
	for i := uint(1); i <= 3; i++ {
		assert.True(t, seenQuestions[i])
	}
}

func TestStart_RequiresEnrollment(t *testing.T) {
	quiz := testQuiz(1, 5)
	repo := &mockRepository{
		quiz: &stubQuizRepo{
			getByIDWithQuestions: func(id uint) (*models.Quiz, error) { return quiz, nil },
		},
		enrollment: &stubEnrollmentRepo{
			isEnrolled: func(userID string, classID uint) (bool, error) { return false, nil },
		},
	}

	_, err := newAttemptService(repo).Start(context.Background(), quiz.ID, "stranger")
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestStart_QuizWithoutQuestions(t *testing.T) {
	quiz := testQuiz(0, 5)
	repo := &mockRepository{
		quiz: &stubQuizRepo{
			getByIDWithQuestions: func(id uint) (*models.Quiz, error) { return quiz, nil },
		},
		enrollment: &stubEnrollmentRepo{
			isEnrolled: func(userID string, classID uint) (bool, error) { return true, nil },
		},
	}

	_, err := newAttemptService(repo).Start(context.Background(), quiz.ID, "student-1")
	assert.ErrorIs(t, err, ErrQuizNotReady)
}

func TestStart_QuestionWithoutOptions(t *testing.T) {
	quiz := testQuiz(2, 5)
	quiz.Questions[1].Options = nil
	repo := &mockRepository{
		quiz: &stubQuizRepo{
			getByIDWithQuestions: func(id uint) (*models.Quiz, error) { return quiz, nil },
		},
		enrollment: &stubEnrollmentRepo{
			isEnrolled: func(userID string, classID uint) (bool, error) { return true, nil },
		},
		result: &stubResultRepo{
			getMaxAttemptNumber: func(userID string, quizID uint) (int, error) { return 0, nil },
		},
	}

	_, err := newAttemptService(repo).Start(context.Background(), quiz.ID, "student-1")
	assert.ErrorIs(t, err, ErrQuizNotReady)
}

// Answers reference option IDs, so the shuffled presentation a student
// saw must have no effect on the grade the submission earns.
func TestStartThenSubmit_ShuffleDoesNotAffectGrade(t *testing.T) {
	quiz := testQuiz(4, 5)
	f := newGradingFixture(t, quiz, 0)

	startRepo := &mockRepository{
		quiz: &stubQuizRepo{
			getByIDWithQuestions: func(id uint) (*models.Quiz, error) { return quiz, nil },
		},
		enrollment: &stubEnrollmentRepo{
			isEnrolled: func(userID string, classID uint) (bool, error) { return true, nil },
		},
		result: &stubResultRepo{
			getMaxAttemptNumber: func(userID string, quizID uint) (int, error) { return 0, nil },
		},
	}

	view, err := newAttemptService(startRepo).Start(context.Background(), quiz.ID, "student-1")
	require.NoError(t, err)
	require.Len(t, view.Questions, 4)

	// Answer in presented order: every question correct except whichever
	// one happened to land last.
	missed := view.Questions[len(view.Questions)-1].QuestionID
	req := SubmitAttemptRequest{}
	for _, q := range view.Questions {
		selected := correctOptionID(q.QuestionID)
		if q.QuestionID == missed {
			selected = wrongOptionID(q.QuestionID)
		}
		req.Answers = append(req.Answers, SubmitAnswerRequest{
			QuestionID:       q.QuestionID,
			SelectedOptionID: selected,
		})
	}

	grade, err := f.service.SubmitAttempt(context.Background(), quiz.ID, "student-1", req)
	require.NoError(t, err)

	// 3 of 4 correct no matter which position each question occupied.
	assert.Equal(t, 15, grade.TotalScore)
	assert.Equal(t, 75.0, grade.Percentage)
	assert.Equal(t, 3, grade.CorrectCount)
	assert.Equal(t, 4, grade.QuestionCount)
}

func TestGetResult_RecomputesVerdicts(t *testing.T) {
	quiz := testQuiz(2, 10)
	completed := time.Date(2026, 3, 10, 9, 30, 0, 0, time.UTC)

	result := &models.Result{
		UserID:        "student-1",
		QuizID:        quiz.ID,
		AttemptNumber: 2,
		TotalScore:    10,
		Percentage:    50.0,
		CompletedAt:   completed,
		Quiz:          *quiz,
	}

	selected := correctOptionID(1)
	responses := []*models.Response{
		{
			QuestionID:       1,
			AttemptNumber:    2,
			SelectedOptionID: selected,
			Question:         quiz.Questions[0],
			SelectedOption:   &quiz.Questions[0].Options[0],
		},
		{
			QuestionID:    2,
			AttemptNumber: 2,
			Question:      quiz.Questions[1],
		},
	}

	repo := &mockRepository{
		result: &stubResultRepo{
			getByAttempt: func(userID string, quizID uint, attemptNumber int) (*models.Result, error) {
				return result, nil
			},
			listByQuiz: func(quizID uint) ([]*models.Result, error) {
				return []*models.Result{
					{Percentage: 50.0},
					{Percentage: 80.0},
				}, nil
			},
			listByUserAndQuiz: func(userID string, quizID uint) ([]*models.Result, error) {
				return []*models.Result{
					{AttemptNumber: 1, Percentage: 30.0},
					{AttemptNumber: 2, Percentage: 50.0},
				}, nil
			},
		},
		response: &stubResponseRepo{
			getByAttempt: func(userID string, quizID uint, attemptNumber int) ([]*models.Response, error) {
				return responses, nil
			},
		},
	}

	detail, err := newAttemptService(repo).GetResult(context.Background(), quiz.ID, 2, "student-1")
	require.NoError(t, err)

	assert.Equal(t, 2, detail.AttemptNumber)
	assert.Equal(t, 10, detail.TotalScore)
	assert.Equal(t, 20, detail.TotalPossible)
	assert.Equal(t, "F", detail.Grade)
	assert.Equal(t, 65.0, detail.ClassAverage)
	require.Len(t, detail.Responses, 2)
	require.Len(t, detail.AllAttempts, 2)

	answered := detail.Responses[0]
	assert.True(t, answered.Answered)
	assert.True(t, answered.IsCorrect)
	assert.Equal(t, 10, answered.PointsEarned)
	require.NotNil(t, answered.CorrectOption)
	assert.Equal(t, *correctOptionID(1), *answered.CorrectOption)

	skipped := detail.Responses[1]
	assert.False(t, skipped.Answered)
	assert.False(t, skipped.IsCorrect)
	assert.Zero(t, skipped.PointsEarned)
	assert.Nil(t, skipped.SelectedOption)
}

func TestGetResult_NotFound(t *testing.T) {
	repo := &mockRepository{
		result: &stubResultRepo{
			getByAttempt: func(userID string, quizID uint, attemptNumber int) (*models.Result, error) {
				return nil, gorm.ErrRecordNotFound
			},
		},
	}

	_, err := newAttemptService(repo).GetResult(context.Background(), 1, 7, "student-1")
	assert.ErrorIs(t, err, ErrResultNotFound)
}

func TestListResults_MemoizesQuestionCounts(t *testing.T) {
	countCalls := 0
	quiz := models.Quiz{ID: 1, Title: "Algebra", Class: models.Class{Name: "Math 7B"}}
	results := []*models.Result{
		{QuizID: 1, AttemptNumber: 1, TotalScore: 4, Percentage: 40, Quiz: quiz},
		{QuizID: 1, AttemptNumber: 2, TotalScore: 8, Percentage: 80, Quiz: quiz},
	}

	repo := &mockRepository{
		quiz: &stubQuizRepo{
			countQuestions: func(quizID uint) (int64, error) {
				countCalls++
				return 10, nil
			},
		},
		result: &stubResultRepo{
			listByUser: func(userID string, filters repositories.ResultFilters) ([]*models.Result, int64, error) {
				return results, int64(len(results)), nil
			},
		},
	}

	list, err := newAttemptService(repo).ListResults(context.Background(), "student-1", 20, 0)
	require.NoError(t, err)

	assert.Equal(t, int64(2), list.Total)
	require.Len(t, list.Results, 2)
	assert.Equal(t, "Algebra", list.Results[0].QuizTitle)
	assert.Equal(t, "Math 7B", list.Results[0].ClassName)
	assert.Equal(t, 10, list.Results[0].TotalQuestions)
	assert.Equal(t, 1, countCalls)
}

func TestGetPerformanceTrend_OldestFirst(t *testing.T) {
	var gotLimit int
	repo := &mockRepository{
		result: &stubResultRepo{
			getRecentByUser: func(userID string, limit int) ([]repositories.TrendRow, error) {
				gotLimit = limit
				return []repositories.TrendRow{
					{QuizTitle: "newest", AttemptNumber: 3, Percentage: 90},
					{QuizTitle: "middle", AttemptNumber: 2, Percentage: 70},
					{QuizTitle: "oldest", AttemptNumber: 1, Percentage: 50},
				}, nil
			},
		},
	}

	points, err := newAttemptService(repo).GetPerformanceTrend(context.Background(), "student-1", 0)
	require.NoError(t, err)

	assert.Equal(t, defaultTrendLimit, gotLimit)
	require.Len(t, points, 3)
	assert.Equal(t, "oldest", points[0].QuizTitle)
	assert.Equal(t, "newest", points[2].QuizTitle)
}
