package services

import (
	"context"
	"errors"
	"testing"

	"github.com/athul-jose00/Smart-Quiz-Portal-sub000/internal/events"
	"github.com/athul-jose00/Smart-Quiz-Portal-sub000/internal/models"
	"github.com/athul-jose00/Smart-Quiz-Portal-sub000/internal/validator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type gradingFixture struct {
	service   GradingService
	publisher *events.MockEventPublisher
	results   []*models.Result
	responses []*models.Response
}

func newGradingFixture(t *testing.T, quiz *models.Quiz, priorAttempts int) *gradingFixture {
	t.Helper()

	f := &gradingFixture{
		publisher: events.NewMockEventPublisher(testLogger()),
	}

	repo := &mockRepository{
		quiz: &stubQuizRepo{
			getByIDWithQuestions: func(id uint) (*models.Quiz, error) {
				if id != quiz.ID {
					return nil, gorm.ErrRecordNotFound
				}
				return quiz, nil
			},
		},
		enrollment: &stubEnrollmentRepo{
			isEnrolled: func(userID string, classID uint) (bool, error) {
				return userID == "student-1", nil
			},
		},
		result: &stubResultRepo{
			getMaxAttemptNumber: func(userID string, quizID uint) (int, error) {
				return priorAttempts + len(f.results), nil
			},
			create: func(result *models.Result) error {
				f.results = append(f.results, result)
				return nil
			},
		},
		response: &stubResponseRepo{
			createBatch: func(responses []*models.Response) error {
				f.responses = responses
				return nil
			},
		},
	}

	f.service = NewGradingService(nil, repo, testLogger(), validator.New(), f.publisher, nil)
	return f
}

func TestSubmitAttempt_AllCorrect(t *testing.T) {
	quiz := testQuiz(4, 5)
	f := newGradingFixture(t, quiz, 0)

	req := SubmitAttemptRequest{}
	for i := 1; i <= 4; i++ {
		req.Answers = append(req.Answers, SubmitAnswerRequest{
			QuestionID:       uint(i),
			SelectedOptionID: correctOptionID(uint(i)),
		})
	}

	grade, err := f.service.SubmitAttempt(context.Background(), quiz.ID, "student-1", req)
	require.NoError(t, err)

	assert.Equal(t, 1, grade.AttemptNumber)
	assert.Equal(t, 20, grade.TotalScore)
	assert.Equal(t, 20, grade.TotalPossible)
	assert.Equal(t, 100.0, grade.Percentage)
	assert.Equal(t, "A", grade.Grade)
	assert.Equal(t, 4, grade.CorrectCount)
	assert.Equal(t, 4, grade.QuestionCount)

	published := f.publisher.GetPublishedEvents()
	require.Len(t, published, 1)
	assert.Equal(t, events.EventAttemptGraded, published[0].Type)
}

func TestSubmitAttempt_PartialAndUnanswered(t *testing.T) {
	quiz := testQuiz(3, 10)
	f := newGradingFixture(t, quiz, 0)

	// Answer question 1 correctly, question 2 wrong, leave 3 unanswered.
	req := SubmitAttemptRequest{Answers: []SubmitAnswerRequest{
		{QuestionID: 1, SelectedOptionID: correctOptionID(1)},
		{QuestionID: 2, SelectedOptionID: wrongOptionID(2)},
	}}

	grade, err := f.service.SubmitAttempt(context.Background(), quiz.ID, "student-1", req)
	require.NoError(t, err)

	assert.Equal(t, 10, grade.TotalScore)
	assert.Equal(t, 30, grade.TotalPossible)
	assert.Equal(t, 33.33, grade.Percentage)
	assert.Equal(t, "F", grade.Grade)
	assert.Equal(t, 1, grade.CorrectCount)

	// One response row exists per quiz question, unanswered included.
	require.Len(t, f.responses, 3)
	byQuestion := make(map[uint]*models.Response, len(f.responses))
	for _, r := range f.responses {
		byQuestion[r.QuestionID] = r
	}
	assert.NotNil(t, byQuestion[1].SelectedOptionID)
	assert.NotNil(t, byQuestion[2].SelectedOptionID)
	assert.Nil(t, byQuestion[3].SelectedOptionID)
}

func TestSubmitAttempt_StrayQuestionIgnored(t *testing.T) {
	quiz := testQuiz(2, 5)
	f := newGradingFixture(t, quiz, 0)

	strayOption := uint(999)
	req := SubmitAttemptRequest{Answers: []SubmitAnswerRequest{
		{QuestionID: 1, SelectedOptionID: correctOptionID(1)},
		{QuestionID: 42, SelectedOptionID: &strayOption},
	}}

	grade, err := f.service.SubmitAttempt(context.Background(), quiz.ID, "student-1", req)
	require.NoError(t, err)

	assert.Equal(t, 5, grade.TotalScore)
	assert.Len(t, f.responses, 2)
	for _, r := range f.responses {
		assert.NotEqual(t, uint(42), r.QuestionID)
	}
}

func TestSubmitAttempt_DuplicateAnswerKeepsLast(t *testing.T) {
	quiz := testQuiz(1, 5)
	f := newGradingFixture(t, quiz, 0)

	req := SubmitAttemptRequest{Answers: []SubmitAnswerRequest{
		{QuestionID: 1, SelectedOptionID: wrongOptionID(1)},
		{QuestionID: 1, SelectedOptionID: correctOptionID(1)},
	}}

	grade, err := f.service.SubmitAttempt(context.Background(), quiz.ID, "student-1", req)
	require.NoError(t, err)
	assert.Equal(t, 5, grade.TotalScore)
}

func TestSubmitAttempt_InvalidOption(t *testing.T) {
	quiz := testQuiz(2, 5)
	f := newGradingFixture(t, quiz, 0)

	// Option 21 belongs to question 2, not question 1.
	req := SubmitAttemptRequest{Answers: []SubmitAnswerRequest{
		{QuestionID: 1, SelectedOptionID: correctOptionID(2)},
	}}

	_, err := f.service.SubmitAttempt(context.Background(), quiz.ID, "student-1", req)
	assert.ErrorIs(t, err, ErrInvalidOption)
	assert.Empty(t, f.results)
}

func TestSubmitAttempt_NotEnrolled(t *testing.T) {
	quiz := testQuiz(1, 5)
	f := newGradingFixture(t, quiz, 0)

	_, err := f.service.SubmitAttempt(context.Background(), quiz.ID, "stranger", SubmitAttemptRequest{})
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestSubmitAttempt_NoQuestions(t *testing.T) {
	quiz := testQuiz(0, 5)
	f := newGradingFixture(t, quiz, 0)

	_, err := f.service.SubmitAttempt(context.Background(), quiz.ID, "student-1", SubmitAttemptRequest{})
	assert.ErrorIs(t, err, ErrQuizNotReady)
}

func TestSubmitAttempt_QuizNotFound(t *testing.T) {
	quiz := testQuiz(1, 5)
	f := newGradingFixture(t, quiz, 0)

	_, err := f.service.SubmitAttempt(context.Background(), 999, "student-1", SubmitAttemptRequest{})
	assert.ErrorIs(t, err, ErrQuizNotFound)
}

func TestSubmitAttempt_NumbersSequentially(t *testing.T) {
	quiz := testQuiz(1, 5)
	f := newGradingFixture(t, quiz, 2)

	req := SubmitAttemptRequest{Answers: []SubmitAnswerRequest{
		{QuestionID: 1, SelectedOptionID: correctOptionID(1)},
	}}

	grade, err := f.service.SubmitAttempt(context.Background(), quiz.ID, "student-1", req)
	require.NoError(t, err)
	assert.Equal(t, 3, grade.AttemptNumber)

	grade, err = f.service.SubmitAttempt(context.Background(), quiz.ID, "student-1", req)
	require.NoError(t, err)
	assert.Equal(t, 4, grade.AttemptNumber)
}

func TestSubmitAttempt_RetriesOnAttemptCollision(t *testing.T) {
	quiz := testQuiz(1, 5)
	f := newGradingFixture(t, quiz, 0)

	// First create hits the unique index as if a concurrent submission
	// claimed the number; the retry must succeed with the next number.
	collisions := 1
	resultRepo := &stubResultRepo{
		getMaxAttemptNumber: func(userID string, quizID uint) (int, error) {
			return len(f.results), nil
		},
		create: func(result *models.Result) error {
			if collisions > 0 {
				collisions--
				return gorm.ErrDuplicatedKey
			}
			f.results = append(f.results, result)
			return nil
		},
	}
	repo := &mockRepository{
		quiz: &stubQuizRepo{
			getByIDWithQuestions: func(id uint) (*models.Quiz, error) { return quiz, nil },
		},
		enrollment: &stubEnrollmentRepo{
			isEnrolled: func(userID string, classID uint) (bool, error) { return true, nil },
		},
		result: resultRepo,
		response: &stubResponseRepo{
			createBatch: func(responses []*models.Response) error { return nil },
		},
	}
	service := NewGradingService(nil, repo, testLogger(), validator.New(), nil, nil)

	grade, err := service.SubmitAttempt(context.Background(), quiz.ID, "student-1", SubmitAttemptRequest{})
	require.NoError(t, err)
	assert.Equal(t, 1, grade.AttemptNumber)
	assert.Len(t, f.results, 1)
}

func TestSubmitAttempt_CollisionRetriesExhausted(t *testing.T) {
	quiz := testQuiz(1, 5)

	repo := &mockRepository{
		quiz: &stubQuizRepo{
			getByIDWithQuestions: func(id uint) (*models.Quiz, error) { return quiz, nil },
		},
		enrollment: &stubEnrollmentRepo{
			isEnrolled: func(userID string, classID uint) (bool, error) { return true, nil },
		},
		result: &stubResultRepo{
			getMaxAttemptNumber: func(userID string, quizID uint) (int, error) { return 0, nil },
			create: func(result *models.Result) error {
				return gorm.ErrDuplicatedKey
			},
		},
	}
	service := NewGradingService(nil, repo, testLogger(), validator.New(), nil, nil)

	_, err := service.SubmitAttempt(context.Background(), quiz.ID, "student-1", SubmitAttemptRequest{})
	assert.ErrorIs(t, err, ErrAttemptConflict)
}

func TestSubmitAttempt_PersistErrorNotRetried(t *testing.T) {
	quiz := testQuiz(1, 5)
	boom := errors.New("connection reset")

	calls := 0
	repo := &mockRepository{
		quiz: &stubQuizRepo{
			getByIDWithQuestions: func(id uint) (*models.Quiz, error) { return quiz, nil },
		},
		enrollment: &stubEnrollmentRepo{
			isEnrolled: func(userID string, classID uint) (bool, error) { return true, nil },
		},
		result: &stubResultRepo{
			getMaxAttemptNumber: func(userID string, quizID uint) (int, error) { return 0, nil },
			create: func(result *models.Result) error {
				calls++
				return boom
			},
		},
	}
	service := NewGradingService(nil, repo, testLogger(), validator.New(), nil, nil)

	_, err := service.SubmitAttempt(context.Background(), quiz.ID, "student-1", SubmitAttemptRequest{})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, calls)
}

func TestSubmitAttempt_RoundsPercentage(t *testing.T) {
	quiz := testQuiz(3, 1)
	f := newGradingFixture(t, quiz, 0)

	req := SubmitAttemptRequest{Answers: []SubmitAnswerRequest{
		{QuestionID: 1, SelectedOptionID: correctOptionID(1)},
		{QuestionID: 2, SelectedOptionID: correctOptionID(2)},
	}}

	grade, err := f.service.SubmitAttempt(context.Background(), quiz.ID, "student-1", req)
	require.NoError(t, err)
	assert.Equal(t, 66.67, grade.Percentage)
	assert.Equal(t, "D", grade.Grade)
}
