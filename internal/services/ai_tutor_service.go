package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/athul-jose00/Smart-Quiz-Portal-sub000/internal/models"
	"github.com/athul-jose00/Smart-Quiz-Portal-sub000/internal/repositories"
	"github.com/athul-jose00/Smart-Quiz-Portal-sub000/internal/validator"
	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

const geminiModel = "gemini-1.5-flash"

type aiTutorService struct {
	repo      repositories.Repository
	logger    *slog.Logger
	validator *validator.Validator
	client    *genai.Client
	model     *genai.GenerativeModel
}

// NewAITutorService builds the tutor backed by Gemini. With an empty
// API key the service stays up but every call returns ErrAIUnavailable,
// so the rest of the portal never depends on the key being present.
func NewAITutorService(repo repositories.Repository, logger *slog.Logger, validator *validator.Validator, apiKey string) (AITutorService, error) {
	svc := &aiTutorService{
		repo:      repo,
		logger:    logger,
		validator: validator,
	}

	if apiKey == "" {
		logger.Warn("GEMINI_API_KEY is not set, AI tutor is disabled")
		return svc, nil
	}

	client, err := genai.NewClient(context.Background(), option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	svc.client = client
	svc.model = client.GenerativeModel(geminiModel)
	return svc, nil
}

// ===== TUTOR OPERATIONS =====

// ExplainQuestion explains why the student's recorded answer for one
// attempt was right or wrong.
func (s *aiTutorService) ExplainQuestion(ctx context.Context, req ExplainQuestionRequest, studentID string) (*AIResponse, error) {
	if validationErrors := s.validator.Validate(req); len(validationErrors) > 0 {
		return nil, toValidationErrors(validationErrors)
	}

	question, response, err := s.loadAttemptQuestion(ctx, req.QuizID, req.QuestionID, req.AttemptNumber, studentID)
	if err != nil {
		return nil, err
	}

	var sb strings.Builder
	sb.WriteString("You are a friendly tutor helping a student review a quiz question.\n\n")
	writeQuestionContext(&sb, question)
	if response.Answered() && response.SelectedOption != nil {
		fmt.Fprintf(&sb, "The student chose: %s\n", response.SelectedOption.OptionText)
	} else {
		sb.WriteString("The student left this question unanswered.\n")
	}
	sb.WriteString("\nExplain in 2-3 short paragraphs why the correct answer is right")
	sb.WriteString(" and, if the student's choice differs, why that choice is wrong.")
	sb.WriteString(" Use plain language suitable for a classroom.")

	return s.generate(ctx, sb.String())
}

// AskQuestion answers a free-form follow-up about a question the
// student has already seen.
func (s *aiTutorService) AskQuestion(ctx context.Context, req AskQuestionRequest, studentID string) (*AIResponse, error) {
	if validationErrors := s.validator.Validate(req); len(validationErrors) > 0 {
		return nil, toValidationErrors(validationErrors)
	}

	question, err := s.loadAccessibleQuestion(ctx, req.QuestionID, studentID)
	if err != nil {
		return nil, err
	}

	var sb strings.Builder
	sb.WriteString("You are a tutor answering a student's follow-up question about a quiz item.\n\n")
	writeQuestionContext(&sb, question)
	fmt.Fprintf(&sb, "\nStudent's question: %s\n\n", req.UserQuestion)
	sb.WriteString("Answer concisely and stay on the topic of this quiz question.")

	return s.generate(ctx, sb.String())
}

func (s *aiTutorService) StudyTips(ctx context.Context, req StudyTipsRequest, studentID string) (*AIResponse, error) {
	if validationErrors := s.validator.Validate(req); len(validationErrors) > 0 {
		return nil, toValidationErrors(validationErrors)
	}

	question, err := s.loadAccessibleQuestion(ctx, req.QuestionID, studentID)
	if err != nil {
		return nil, err
	}

	var sb strings.Builder
	sb.WriteString("You are a study coach.\n\n")
	fmt.Fprintf(&sb, "A student struggled with this quiz question: %s\n\n", question.QuestionText)
	sb.WriteString("Give 3-5 practical study tips for mastering the underlying topic.")
	sb.WriteString(" Format as a short bulleted list.")

	return s.generate(ctx, sb.String())
}

// PerformanceSummary narrates one graded attempt in encouraging terms.
func (s *aiTutorService) PerformanceSummary(ctx context.Context, req PerformanceSummaryRequest, studentID string) (*AIResponse, error) {
	if validationErrors := s.validator.Validate(req); len(validationErrors) > 0 {
		return nil, toValidationErrors(validationErrors)
	}

	result, err := s.repo.Result().GetByAttempt(ctx, nil, studentID, req.QuizID, req.AttemptNumber)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrResultNotFound
		}
		return nil, fmt.Errorf("failed to get result: %w", err)
	}

	responses, err := s.repo.Response().GetByAttempt(ctx, nil, studentID, req.QuizID, req.AttemptNumber)
	if err != nil {
		return nil, fmt.Errorf("failed to get responses: %w", err)
	}

	correct := 0
	for _, resp := range responses {
		review := buildResponseReview(resp)
		if review.IsCorrect {
			correct++
		}
	}

	var sb strings.Builder
	sb.WriteString("You are an encouraging tutor summarizing a student's quiz attempt.\n\n")
	fmt.Fprintf(&sb, "Quiz: %s\n", result.Quiz.Title)
	fmt.Fprintf(&sb, "Score: %d points (%.2f%%), %d of %d questions correct, attempt %d.\n\n",
		result.TotalScore, result.Percentage, correct, len(responses), result.AttemptNumber)
	sb.WriteString("Write a short, encouraging summary (under 120 words):")
	sb.WriteString(" acknowledge what went well, then name what to focus on next.")

	return s.generate(ctx, sb.String())
}

func (s *aiTutorService) Close() error {
	if s.client != nil {
		return s.client.Close()
	}
	return nil
}

// ===== HELPERS =====

func (s *aiTutorService) generate(ctx context.Context, prompt string) (*AIResponse, error) {
	if s.model == nil {
		return nil, ErrAIUnavailable
	}

	resp, err := s.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		s.logger.Error("Gemini request failed", "error", err)
		return nil, fmt.Errorf("%w: %v", ErrAIUnavailable, err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		s.logger.Warn("Gemini returned an empty response")
		return nil, ErrAIUnavailable
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			sb.WriteString(string(text))
		}
	}

	return &AIResponse{
		Answer:    sb.String(),
		Generated: time.Now(),
	}, nil
}

// loadAttemptQuestion fetches the question plus the student's recorded
// response for the given attempt, enforcing that the attempt is theirs.
func (s *aiTutorService) loadAttemptQuestion(ctx context.Context, quizID, questionID uint, attemptNumber int, studentID string) (*models.Question, *models.Response, error) {
	responses, err := s.repo.Response().GetByAttempt(ctx, nil, studentID, quizID, attemptNumber)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get responses: %w", err)
	}
	if len(responses) == 0 {
		return nil, nil, ErrResultNotFound
	}

	for _, resp := range responses {
		if resp.QuestionID == questionID {
			return &resp.Question, resp, nil
		}
	}
	return nil, nil, ErrQuestionNotFound
}

// loadAccessibleQuestion fetches a question the student may discuss:
// they must be enrolled in the owning quiz's class.
func (s *aiTutorService) loadAccessibleQuestion(ctx context.Context, questionID uint, studentID string) (*models.Question, error) {
	question, err := s.repo.Question().GetByIDWithOptions(ctx, nil, questionID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrQuestionNotFound
		}
		return nil, fmt.Errorf("failed to get question: %w", err)
	}

	enrolled, err := s.repo.Enrollment().IsEnrolledInQuizClass(ctx, nil, studentID, question.QuizID)
	if err != nil {
		return nil, fmt.Errorf("failed to check enrollment: %w", err)
	}
	if !enrolled {
		return nil, NewPermissionError(studentID, questionID, "question", "tutor", "not enrolled in this class")
	}
	return question, nil
}

func writeQuestionContext(sb *strings.Builder, question *models.Question) {
	fmt.Fprintf(sb, "Question: %s\n", question.QuestionText)
	sb.WriteString("Options:\n")
	for _, opt := range question.Options {
		marker := ""
		if opt.IsCorrect {
			marker = " (correct answer)"
		}
		fmt.Fprintf(sb, "- %s%s\n", opt.OptionText, marker)
	}
}
