package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/athul-jose00/Smart-Quiz-Portal-sub000/internal/cache"
	"github.com/athul-jose00/Smart-Quiz-Portal-sub000/internal/events"
	"github.com/athul-jose00/Smart-Quiz-Portal-sub000/internal/models"
	"github.com/athul-jose00/Smart-Quiz-Portal-sub000/internal/repositories"
	"github.com/athul-jose00/Smart-Quiz-Portal-sub000/internal/validator"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type quizService struct {
	db           *gorm.DB
	repo         repositories.Repository
	logger       *slog.Logger
	validator    *validator.Validator
	publisher    events.EventPublisher
	cacheManager *cache.CacheManager
}

func NewQuizService(db *gorm.DB, repo repositories.Repository, logger *slog.Logger, validator *validator.Validator, publisher events.EventPublisher, cacheManager *cache.CacheManager) QuizService {
	return &quizService{
		db:           db,
		repo:         repo,
		logger:       logger,
		validator:    validator,
		publisher:    publisher,
		cacheManager: cacheManager,
	}
}

// ===== QUIZ CRUD =====

func (s *quizService) Create(ctx context.Context, req CreateQuizRequest, teacherID string) (*QuizResponse, error) {
	if validationErrors := s.validator.Validate(req); len(validationErrors) > 0 {
		return nil, toValidationErrors(validationErrors)
	}

	if err := s.requireClassOwnership(ctx, req.ClassID, teacherID, "create_quiz"); err != nil {
		return nil, err
	}

	quiz := &models.Quiz{
		Title:     req.Title,
		TimeLimit: req.TimeLimit,
		ClassID:   req.ClassID,
		CreatedBy: teacherID,
	}
	if err := s.repo.Quiz().Create(ctx, nil, quiz); err != nil {
		return nil, fmt.Errorf("failed to create quiz: %w", err)
	}

	s.logger.Info("Quiz created", "quiz_id", quiz.ID, "class_id", req.ClassID, "teacher_id", teacherID)
	return &QuizResponse{Quiz: quiz, CanEdit: true}, nil
}

func (s *quizService) GetByID(ctx context.Context, id uint, userID string) (*QuizResponse, error) {
	quiz, err := s.repo.Quiz().GetByID(ctx, nil, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrQuizNotFound
		}
		return nil, fmt.Errorf("failed to get quiz: %w", err)
	}

	isOwner := quiz.CreatedBy == userID
	if !isOwner {
		enrolled, err := s.repo.Enrollment().IsEnrolled(ctx, nil, userID, quiz.ClassID)
		if err != nil {
			return nil, fmt.Errorf("failed to check enrollment: %w", err)
		}
		if !enrolled {
			return nil, NewPermissionError(userID, id, "quiz", "view", "not a member of this class")
		}
	}

	if err := s.attachQuizCounts(ctx, quiz); err != nil {
		return nil, err
	}

	return &QuizResponse{Quiz: quiz, CanEdit: isOwner, CanTake: !isOwner}, nil
}

// GetWithQuestions returns the full quiz including correct-answer flags.
// Teacher-only: students get their view through AttemptService.Start.
func (s *quizService) GetWithQuestions(ctx context.Context, id uint, teacherID string) (*models.Quiz, error) {
	quiz, err := s.repo.Quiz().GetByIDWithQuestions(ctx, nil, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrQuizNotFound
		}
		return nil, fmt.Errorf("failed to get quiz: %w", err)
	}
	if quiz.CreatedBy != teacherID {
		return nil, NewPermissionError(teacherID, id, "quiz", "view_answers", "only the quiz creator can see answer keys")
	}
	return quiz, nil
}

func (s *quizService) ListByClass(ctx context.Context, classID uint, userID string, limit, offset int) (*QuizListResponse, error) {
	class, err := s.repo.Class().GetByID(ctx, nil, classID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrClassNotFound
		}
		return nil, fmt.Errorf("failed to get class: %w", err)
	}

	isOwner := class.TeacherID == userID
	if !isOwner {
		enrolled, err := s.repo.Enrollment().IsEnrolled(ctx, nil, userID, classID)
		if err != nil {
			return nil, fmt.Errorf("failed to check enrollment: %w", err)
		}
		if !enrolled {
			return nil, NewPermissionError(userID, classID, "class", "list_quizzes", "not a member of this class")
		}
	}

	quizzes, total, err := s.repo.Quiz().GetByClass(ctx, nil, classID, repositories.QuizFilters{
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list quizzes: %w", err)
	}

	items := make([]*QuizResponse, 0, len(quizzes))
	for _, quiz := range quizzes {
		if err := s.attachQuizCounts(ctx, quiz); err != nil {
			return nil, err
		}
		items = append(items, &QuizResponse{Quiz: quiz, CanEdit: isOwner, CanTake: !isOwner})
	}

	return &QuizListResponse{Quizzes: items, Total: total}, nil
}

func (s *quizService) Update(ctx context.Context, id uint, req UpdateQuizRequest, teacherID string) (*QuizResponse, error) {
	if validationErrors := s.validator.Validate(req); len(validationErrors) > 0 {
		return nil, toValidationErrors(validationErrors)
	}

	quiz, err := s.repo.Quiz().GetByID(ctx, nil, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrQuizNotFound
		}
		return nil, fmt.Errorf("failed to get quiz: %w", err)
	}
	if quiz.CreatedBy != teacherID {
		return nil, NewPermissionError(teacherID, id, "quiz", "update", "only the quiz creator can edit it")
	}

	if req.Title != nil {
		quiz.Title = *req.Title
	}
	if req.TimeLimit != nil {
		quiz.TimeLimit = *req.TimeLimit
	}
	if err := s.repo.Quiz().Update(ctx, nil, quiz); err != nil {
		return nil, fmt.Errorf("failed to update quiz: %w", err)
	}

	if s.cacheManager != nil {
		cache.InvalidateQuizCache(ctx, s.cacheManager, id, teacherID)
	}
	return &QuizResponse{Quiz: quiz, CanEdit: true}, nil
}

func (s *quizService) Delete(ctx context.Context, id uint, teacherID string) error {
	quiz, err := s.repo.Quiz().GetByID(ctx, nil, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrQuizNotFound
		}
		return fmt.Errorf("failed to get quiz: %w", err)
	}
	if quiz.CreatedBy != teacherID {
		return NewPermissionError(teacherID, id, "quiz", "delete", "only the quiz creator can delete it")
	}

	// Cascades through questions, options, results and responses
	if err := s.repo.Quiz().Delete(ctx, nil, id); err != nil {
		return fmt.Errorf("failed to delete quiz: %w", err)
	}

	if s.cacheManager != nil {
		cache.InvalidateQuizCache(ctx, s.cacheManager, id, teacherID)
	}
	s.publishQuizEvent(ctx, events.EventQuizDeleted, quiz)

	s.logger.Info("Quiz deleted", "quiz_id", id, "teacher_id", teacherID)
	return nil
}

// ===== DRAFT WIZARD =====

// StartDraft opens a new wizard flow. The draft row carries all wizard
// state, so the flow survives page reloads and parallel tabs.
func (s *quizService) StartDraft(ctx context.Context, req StartDraftRequest, teacherID string) (*DraftResponse, error) {
	if validationErrors := s.validator.Validate(req); len(validationErrors) > 0 {
		return nil, toValidationErrors(validationErrors)
	}

	if err := s.requireClassOwnership(ctx, req.ClassID, teacherID, "create_quiz"); err != nil {
		return nil, err
	}

	draft := &models.QuizDraft{
		TeacherID:       teacherID,
		ClassID:         req.ClassID,
		Title:           req.Title,
		TimeLimit:       req.TimeLimit,
		QuestionCount:   req.QuestionCount,
		CurrentQuestion: 1,
		Status:          models.DraftActive,
		Questions:       datatypes.JSON([]byte("[]")),
	}
	if err := s.repo.QuizDraft().Create(ctx, nil, draft); err != nil {
		return nil, fmt.Errorf("failed to create draft: %w", err)
	}

	s.logger.Info("Quiz draft started",
		"draft_id", draft.ID,
		"teacher_id", teacherID,
		"question_count", req.QuestionCount)

	return s.draftResponse(draft)
}

func (s *quizService) GetDraft(ctx context.Context, draftID uint, teacherID string) (*DraftResponse, error) {
	draft, err := s.getOwnedDraft(ctx, draftID, teacherID)
	if err != nil {
		return nil, err
	}
	return s.draftResponse(draft)
}

// AddDraftQuestion appends the current step's question and advances the
// wizard. Submitting the step for an already-passed position overwrites
// that question, which is what re-posting a wizard form should do.
func (s *quizService) AddDraftQuestion(ctx context.Context, draftID uint, req DraftQuestionRequest, teacherID string) (*DraftResponse, error) {
	if validationErrors := s.validator.Validate(req); len(validationErrors) > 0 {
		return nil, toValidationErrors(validationErrors)
	}
	if err := requireOneCorrect(req.Options); err != nil {
		return nil, err
	}

	draft, err := s.getOwnedDraft(ctx, draftID, teacherID)
	if err != nil {
		return nil, err
	}
	if draft.Status != models.DraftActive {
		return nil, ErrDraftCompleted
	}

	questions, err := decodeDraftQuestions(draft)
	if err != nil {
		return nil, err
	}

	question := models.DraftQuestion{
		QuestionText: req.QuestionText,
		Points:       req.Points,
		Options:      make([]models.DraftOption, 0, len(req.Options)),
	}
	for _, opt := range req.Options {
		question.Options = append(question.Options, models.DraftOption{
			OptionText: opt.OptionText,
			IsCorrect:  opt.IsCorrect,
		})
	}

	idx := draft.CurrentQuestion - 1
	if idx < len(questions) {
		questions[idx] = question
	} else {
		questions = append(questions, question)
	}
	if draft.CurrentQuestion < draft.QuestionCount {
		draft.CurrentQuestion++
	}

	if err := encodeDraftQuestions(draft, questions); err != nil {
		return nil, err
	}
	if err := s.repo.QuizDraft().Update(ctx, nil, draft); err != nil {
		return nil, fmt.Errorf("failed to update draft: %w", err)
	}

	return s.draftResponse(draft)
}

// StepBack moves the wizard one question backward without discarding the
// already-entered answer for that step.
func (s *quizService) StepBack(ctx context.Context, draftID uint, teacherID string) (*DraftResponse, error) {
	draft, err := s.getOwnedDraft(ctx, draftID, teacherID)
	if err != nil {
		return nil, err
	}
	if draft.Status != models.DraftActive {
		return nil, ErrDraftCompleted
	}

	if draft.CurrentQuestion > 1 {
		draft.CurrentQuestion--
		if err := s.repo.QuizDraft().Update(ctx, nil, draft); err != nil {
			return nil, fmt.Errorf("failed to update draft: %w", err)
		}
	}
	return s.draftResponse(draft)
}

// FinishDraft materializes the draft into real quiz, question and option
// rows in one transaction, then marks the draft completed.
func (s *quizService) FinishDraft(ctx context.Context, draftID uint, teacherID string) (*QuizResponse, error) {
	draft, err := s.getOwnedDraft(ctx, draftID, teacherID)
	if err != nil {
		return nil, err
	}
	if draft.Status != models.DraftActive {
		return nil, ErrDraftCompleted
	}

	questions, err := decodeDraftQuestions(draft)
	if err != nil {
		return nil, err
	}
	if len(questions) < draft.QuestionCount {
		return nil, fmt.Errorf("%w: %d of %d questions written", ErrDraftNotReady, len(questions), draft.QuestionCount)
	}

	var quiz *models.Quiz
	err = s.repo.WithTransaction(ctx, func(txRepo repositories.Repository) error {
		quiz = &models.Quiz{
			Title:     draft.Title,
			TimeLimit: draft.TimeLimit,
			ClassID:   draft.ClassID,
			CreatedBy: teacherID,
		}
		if err := txRepo.Quiz().Create(ctx, nil, quiz); err != nil {
			return fmt.Errorf("failed to create quiz: %w", err)
		}

		for _, dq := range questions {
			question := &models.Question{
				QuizID:       quiz.ID,
				QuestionText: dq.QuestionText,
				Points:       dq.Points,
			}
			if err := txRepo.Question().Create(ctx, nil, question); err != nil {
				return fmt.Errorf("failed to create question: %w", err)
			}

			options := make([]*models.Option, 0, len(dq.Options))
			for _, do := range dq.Options {
				options = append(options, &models.Option{
					QuestionID: question.ID,
					OptionText: do.OptionText,
					IsCorrect:  do.IsCorrect,
				})
			}
			if err := txRepo.Question().CreateOptions(ctx, nil, options); err != nil {
				return fmt.Errorf("failed to create options: %w", err)
			}
		}

		draft.Status = models.DraftCompleted
		return txRepo.QuizDraft().Update(ctx, nil, draft)
	})
	if err != nil {
		return nil, err
	}

	s.publishQuizEvent(ctx, events.EventQuizPublished, quiz)
	s.logger.Info("Quiz draft finished",
		"draft_id", draftID,
		"quiz_id", quiz.ID,
		"questions", len(questions))

	return &QuizResponse{Quiz: quiz, CanEdit: true}, nil
}

func (s *quizService) AbandonDraft(ctx context.Context, draftID uint, teacherID string) error {
	draft, err := s.getOwnedDraft(ctx, draftID, teacherID)
	if err != nil {
		return err
	}
	if draft.Status != models.DraftActive {
		return ErrDraftCompleted
	}

	draft.Status = models.DraftAbandoned
	if err := s.repo.QuizDraft().Update(ctx, nil, draft); err != nil {
		return fmt.Errorf("failed to abandon draft: %w", err)
	}
	return nil
}

// ===== HELPERS =====

func (s *quizService) requireClassOwnership(ctx context.Context, classID uint, teacherID, action string) error {
	owned, err := s.repo.Class().IsOwnedBy(ctx, nil, classID, teacherID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrClassNotFound
		}
		return fmt.Errorf("failed to check class ownership: %w", err)
	}
	if !owned {
		return NewPermissionError(teacherID, classID, "class", action, "only the owning teacher can do this")
	}
	return nil
}

func (s *quizService) getOwnedDraft(ctx context.Context, draftID uint, teacherID string) (*models.QuizDraft, error) {
	draft, err := s.repo.QuizDraft().GetByID(ctx, nil, draftID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrDraftNotFound
		}
		return nil, fmt.Errorf("failed to get draft: %w", err)
	}
	if draft.TeacherID != teacherID {
		return nil, NewPermissionError(teacherID, draftID, "quiz_draft", "access", "drafts are private to their author")
	}
	return draft, nil
}

func (s *quizService) draftResponse(draft *models.QuizDraft) (*DraftResponse, error) {
	questions, err := decodeDraftQuestions(draft)
	if err != nil {
		return nil, err
	}
	return &DraftResponse{
		QuizDraft: draft,
		Questions: questions,
		Completed: len(questions) >= draft.QuestionCount,
	}, nil
}

func (s *quizService) attachQuizCounts(ctx context.Context, quiz *models.Quiz) error {
	questionCount, err := s.repo.Quiz().CountQuestions(ctx, nil, quiz.ID)
	if err != nil {
		return fmt.Errorf("failed to count questions: %w", err)
	}
	totalPoints, err := s.repo.Quiz().GetTotalPoints(ctx, nil, quiz.ID)
	if err != nil {
		return fmt.Errorf("failed to sum points: %w", err)
	}
	attemptCount, err := s.repo.Result().CountByQuiz(ctx, nil, quiz.ID)
	if err != nil {
		return fmt.Errorf("failed to count attempts: %w", err)
	}
	quiz.QuestionCount = int(questionCount)
	quiz.TotalPoints = totalPoints
	quiz.AttemptCount = int(attemptCount)
	return nil
}

func (s *quizService) publishQuizEvent(ctx context.Context, eventType string, quiz *models.Quiz) {
	if s.publisher == nil {
		return
	}
	err := s.publisher.Publish(ctx, eventType, map[string]interface{}{
		"quiz_id":  quiz.ID,
		"class_id": quiz.ClassID,
		"title":    quiz.Title,
	})
	if err != nil {
		s.logger.Error("Failed to publish quiz event", "event", eventType, "quiz_id", quiz.ID, "error", err)
	}
}

func requireOneCorrect(options []DraftOptionRequest) error {
	correct := 0
	for _, opt := range options {
		if opt.IsCorrect {
			correct++
		}
	}
	if correct != 1 {
		return ValidationErrors{{
			Field:   "options",
			Message: "exactly one option must be marked correct",
			Value:   correct,
			Rule:    "one_correct",
		}}
	}
	return nil
}

func decodeDraftQuestions(draft *models.QuizDraft) ([]models.DraftQuestion, error) {
	questions := make([]models.DraftQuestion, 0, draft.QuestionCount)
	if len(draft.Questions) == 0 {
		return questions, nil
	}
	if err := json.Unmarshal(draft.Questions, &questions); err != nil {
		return nil, fmt.Errorf("failed to decode draft questions: %w", err)
	}
	return questions, nil
}

func encodeDraftQuestions(draft *models.QuizDraft, questions []models.DraftQuestion) error {
	data, err := json.Marshal(questions)
	if err != nil {
		return fmt.Errorf("failed to encode draft questions: %w", err)
	}
	draft.Questions = datatypes.JSON(data)
	return nil
}
