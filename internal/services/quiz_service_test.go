package services

import (
	"context"
	"testing"

	"github.com/athul-jose00/Smart-Quiz-Portal-sub000/internal/events"
	"github.com/athul-jose00/Smart-Quiz-Portal-sub000/internal/models"
	"github.com/athul-jose00/Smart-Quiz-Portal-sub000/internal/validator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// wizardFixture wires a quiz service against an in-memory draft store so
// the whole wizard flow can run start to finish.
type wizardFixture struct {
	service   QuizService
	publisher *events.MockEventPublisher
	drafts    map[uint]*models.QuizDraft
	quizzes   []*models.Quiz
	questions []*models.Question
	options   []*models.Option
}

func newWizardFixture(t *testing.T) *wizardFixture {
	t.Helper()

	f := &wizardFixture{
		publisher: events.NewMockEventPublisher(testLogger()),
		drafts:    make(map[uint]*models.QuizDraft),
	}

	var nextDraftID uint
	repo := &mockRepository{
		class: &stubClassRepo{
			isOwnedBy: func(classID uint, teacherID string) (bool, error) {
				return teacherID == "teacher-1", nil
			},
		},
		quizDraft: &stubDraftRepo{
			create: func(draft *models.QuizDraft) error {
				nextDraftID++
				draft.ID = nextDraftID
				f.drafts[draft.ID] = draft
				return nil
			},
			getByID: func(id uint) (*models.QuizDraft, error) {
				draft, ok := f.drafts[id]
				if !ok {
					return nil, gorm.ErrRecordNotFound
				}
				return draft, nil
			},
			update: func(draft *models.QuizDraft) error {
				f.drafts[draft.ID] = draft
				return nil
			},
		},
		quiz: &stubQuizRepo{
			create: func(quiz *models.Quiz) error {
				quiz.ID = uint(len(f.quizzes) + 1)
				f.quizzes = append(f.quizzes, quiz)
				return nil
			},
		},
		question: &stubQuestionRepo{
			create: func(question *models.Question) error {
				question.ID = uint(len(f.questions) + 1)
				f.questions = append(f.questions, question)
				return nil
			},
			createOptions: func(options []*models.Option) error {
				f.options = append(f.options, options...)
				return nil
			},
		},
	}

	f.service = NewQuizService(nil, repo, testLogger(), validator.New(), f.publisher, nil)
	return f
}

func draftQuestion(correctIdx int) DraftQuestionRequest {
	req := DraftQuestionRequest{
		QuestionText: "What does chlorophyll absorb?",
		Points:       5,
	}
	for i := 0; i < 4; i++ {
		req.Options = append(req.Options, DraftOptionRequest{
			OptionText: "option",
			IsCorrect:  i == correctIdx,
		})
	}
	return req
}

func TestDraftWizard_FullFlow(t *testing.T) {
	f := newWizardFixture(t)
	ctx := context.Background()

	draft, err := f.service.StartDraft(ctx, StartDraftRequest{
		ClassID:       7,
		Title:         "Photosynthesis",
		TimeLimit:     20,
		QuestionCount: 2,
	}, "teacher-1")
	require.NoError(t, err)
	assert.Equal(t, 1, draft.CurrentQuestion)
	assert.Empty(t, draft.Questions)
	assert.False(t, draft.Completed)

	draft, err = f.service.AddDraftQuestion(ctx, draft.ID, draftQuestion(0), "teacher-1")
	require.NoError(t, err)
	assert.Equal(t, 2, draft.CurrentQuestion)
	assert.Len(t, draft.Questions, 1)

	draft, err = f.service.AddDraftQuestion(ctx, draft.ID, draftQuestion(1), "teacher-1")
	require.NoError(t, err)
	assert.Equal(t, 2, draft.CurrentQuestion) // stays at the last step
	assert.Len(t, draft.Questions, 2)
	assert.True(t, draft.Completed)

	quiz, err := f.service.FinishDraft(ctx, draft.ID, "teacher-1")
	require.NoError(t, err)
	assert.Equal(t, "Photosynthesis", quiz.Title)
	assert.True(t, quiz.CanEdit)

	require.Len(t, f.quizzes, 1)
	assert.Len(t, f.questions, 2)
	assert.Len(t, f.options, 8)
	assert.Equal(t, models.DraftCompleted, f.drafts[draft.ID].Status)

	published := f.publisher.GetPublishedEvents()
	require.Len(t, published, 1)
	assert.Equal(t, events.EventQuizPublished, published[0].Type)
}

func TestDraftWizard_StepBackOverwrites(t *testing.T) {
	f := newWizardFixture(t)
	ctx := context.Background()

	draft, err := f.service.StartDraft(ctx, StartDraftRequest{
		ClassID:       7,
		Title:         "Cells",
		TimeLimit:     15,
		QuestionCount: 3,
	}, "teacher-1")
	require.NoError(t, err)

	first := draftQuestion(0)
	first.QuestionText = "original wording"
	_, err = f.service.AddDraftQuestion(ctx, draft.ID, first, "teacher-1")
	require.NoError(t, err)

	draft, err = f.service.StepBack(ctx, draft.ID, "teacher-1")
	require.NoError(t, err)
	assert.Equal(t, 1, draft.CurrentQuestion)

	revised := draftQuestion(2)
	revised.QuestionText = "revised wording"
	draft, err = f.service.AddDraftQuestion(ctx, draft.ID, revised, "teacher-1")
	require.NoError(t, err)

	// Re-submitting step 1 replaces the question instead of appending.
	require.Len(t, draft.Questions, 1)
	assert.Equal(t, "revised wording", draft.Questions[0].QuestionText)
	assert.Equal(t, 2, draft.CurrentQuestion)
}

func TestDraftWizard_StepBackAtFirstQuestion(t *testing.T) {
	f := newWizardFixture(t)
	ctx := context.Background()

	draft, err := f.service.StartDraft(ctx, StartDraftRequest{
		ClassID:       7,
		Title:         "Cells",
		TimeLimit:     15,
		QuestionCount: 2,
	}, "teacher-1")
	require.NoError(t, err)

	draft, err = f.service.StepBack(ctx, draft.ID, "teacher-1")
	require.NoError(t, err)
	assert.Equal(t, 1, draft.CurrentQuestion)
}

func TestDraftWizard_FinishRequiresAllQuestions(t *testing.T) {
	f := newWizardFixture(t)
	ctx := context.Background()

	draft, err := f.service.StartDraft(ctx, StartDraftRequest{
		ClassID:       7,
		Title:         "Incomplete",
		TimeLimit:     10,
		QuestionCount: 3,
	}, "teacher-1")
	require.NoError(t, err)

	_, err = f.service.AddDraftQuestion(ctx, draft.ID, draftQuestion(0), "teacher-1")
	require.NoError(t, err)

	_, err = f.service.FinishDraft(ctx, draft.ID, "teacher-1")
	assert.ErrorIs(t, err, ErrDraftNotReady)
	assert.Empty(t, f.quizzes)
}

func TestDraftWizard_ExactlyOneCorrectOption(t *testing.T) {
	f := newWizardFixture(t)
	ctx := context.Background()

	draft, err := f.service.StartDraft(ctx, StartDraftRequest{
		ClassID:       7,
		Title:         "Options",
		TimeLimit:     10,
		QuestionCount: 1,
	}, "teacher-1")
	require.NoError(t, err)

	none := draftQuestion(-1)
	_, err = f.service.AddDraftQuestion(ctx, draft.ID, none, "teacher-1")
	var verrs ValidationErrors
	require.ErrorAs(t, err, &verrs)
	assert.Equal(t, "one_correct", verrs[0].Rule)

	two := draftQuestion(0)
	two.Options[1].IsCorrect = true
	_, err = f.service.AddDraftQuestion(ctx, draft.ID, two, "teacher-1")
	require.ErrorAs(t, err, &verrs)
}

func TestDraftWizard_CompletedDraftIsFrozen(t *testing.T) {
	f := newWizardFixture(t)
	ctx := context.Background()

	draft, err := f.service.StartDraft(ctx, StartDraftRequest{
		ClassID:       7,
		Title:         "Frozen",
		TimeLimit:     10,
		QuestionCount: 1,
	}, "teacher-1")
	require.NoError(t, err)

	_, err = f.service.AddDraftQuestion(ctx, draft.ID, draftQuestion(0), "teacher-1")
	require.NoError(t, err)
	_, err = f.service.FinishDraft(ctx, draft.ID, "teacher-1")
	require.NoError(t, err)

	_, err = f.service.AddDraftQuestion(ctx, draft.ID, draftQuestion(0), "teacher-1")
	assert.ErrorIs(t, err, ErrDraftCompleted)
	_, err = f.service.FinishDraft(ctx, draft.ID, "teacher-1")
	assert.ErrorIs(t, err, ErrDraftCompleted)
}

func TestDraftWizard_PrivateToAuthor(t *testing.T) {
	f := newWizardFixture(t)
	ctx := context.Background()

	draft, err := f.service.StartDraft(ctx, StartDraftRequest{
		ClassID:       7,
		Title:         "Private",
		TimeLimit:     10,
		QuestionCount: 1,
	}, "teacher-1")
	require.NoError(t, err)

	_, err = f.service.GetDraft(ctx, draft.ID, "teacher-2")
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestAbandonDraft(t *testing.T) {
	f := newWizardFixture(t)
	ctx := context.Background()

	draft, err := f.service.StartDraft(ctx, StartDraftRequest{
		ClassID:       7,
		Title:         "Abandoned",
		TimeLimit:     10,
		QuestionCount: 2,
	}, "teacher-1")
	require.NoError(t, err)

	require.NoError(t, f.service.AbandonDraft(ctx, draft.ID, "teacher-1"))
	assert.Equal(t, models.DraftAbandoned, f.drafts[draft.ID].Status)

	_, err = f.service.AddDraftQuestion(ctx, draft.ID, draftQuestion(0), "teacher-1")
	assert.ErrorIs(t, err, ErrDraftCompleted)
}
