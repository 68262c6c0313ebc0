package services

import (
	"context"
	"io"
	"log/slog"

	"github.com/athul-jose00/Smart-Quiz-Portal-sub000/internal/models"
	"github.com/athul-jose00/Smart-Quiz-Portal-sub000/internal/repositories"
	"gorm.io/gorm"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// mockRepository aggregates stub sub-repositories. WithTransaction runs
// the callback against the same stubs, which is enough for services that
// only need transactional grouping, not rollback behavior.
type mockRepository struct {
	class      repositories.ClassRepository
	enrollment repositories.EnrollmentRepository
	quiz       repositories.QuizRepository
	question   repositories.QuestionRepository
	quizDraft  repositories.QuizDraftRepository
	result     repositories.ResultRepository
	response   repositories.ResponseRepository
	user       repositories.UserRepository
	analytics  repositories.AnalyticsRepository
}

func (m *mockRepository) Class() repositories.ClassRepository           { return m.class }
func (m *mockRepository) Enrollment() repositories.EnrollmentRepository { return m.enrollment }
func (m *mockRepository) Quiz() repositories.QuizRepository             { return m.quiz }
func (m *mockRepository) Question() repositories.QuestionRepository     { return m.question }
func (m *mockRepository) QuizDraft() repositories.QuizDraftRepository   { return m.quizDraft }
func (m *mockRepository) Result() repositories.ResultRepository         { return m.result }
func (m *mockRepository) Response() repositories.ResponseRepository     { return m.response }
func (m *mockRepository) User() repositories.UserRepository             { return m.user }
func (m *mockRepository) Analytics() repositories.AnalyticsRepository   { return m.analytics }

func (m *mockRepository) WithTransaction(ctx context.Context, fn func(repositories.Repository) error) error {
	return fn(m)
}

func (m *mockRepository) Ping(ctx context.Context) error { return nil }
func (m *mockRepository) Close() error                   { return nil }

// Stub sub-repositories embed the interface so only the methods a test
// exercises need a func field; calling anything else panics loudly.

type stubClassRepo struct {
	repositories.ClassRepository
	create       func(class *models.Class) error
	getByID      func(id uint) (*models.Class, error)
	getByCode    func(code string) (*models.Class, error)
	existsByCode func(code string) (bool, error)
	isOwnedBy    func(classID uint, teacherID string) (bool, error)
}

func (s *stubClassRepo) Create(ctx context.Context, tx *gorm.DB, class *models.Class) error {
	return s.create(class)
}
func (s *stubClassRepo) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Class, error) {
	return s.getByID(id)
}
func (s *stubClassRepo) GetByCode(ctx context.Context, tx *gorm.DB, code string) (*models.Class, error) {
	return s.getByCode(code)
}
func (s *stubClassRepo) ExistsByCode(ctx context.Context, tx *gorm.DB, code string) (bool, error) {
	return s.existsByCode(code)
}
func (s *stubClassRepo) IsOwnedBy(ctx context.Context, tx *gorm.DB, classID uint, teacherID string) (bool, error) {
	return s.isOwnedBy(classID, teacherID)
}

type stubEnrollmentRepo struct {
	repositories.EnrollmentRepository
	create       func(enrollment *models.Enrollment) error
	isEnrolled   func(userID string, classID uint) (bool, error)
	countByClass func(classID uint) (int64, error)
}

func (s *stubEnrollmentRepo) Create(ctx context.Context, tx *gorm.DB, enrollment *models.Enrollment) error {
	return s.create(enrollment)
}
func (s *stubEnrollmentRepo) IsEnrolled(ctx context.Context, tx *gorm.DB, userID string, classID uint) (bool, error) {
	return s.isEnrolled(userID, classID)
}
func (s *stubEnrollmentRepo) CountByClass(ctx context.Context, tx *gorm.DB, classID uint) (int64, error) {
	return s.countByClass(classID)
}

type stubQuizRepo struct {
	repositories.QuizRepository
	create               func(quiz *models.Quiz) error
	getByID              func(id uint) (*models.Quiz, error)
	getByIDWithQuestions func(id uint) (*models.Quiz, error)
	getTotalPoints       func(quizID uint) (int, error)
	countQuestions       func(quizID uint) (int64, error)
}

func (s *stubQuizRepo) Create(ctx context.Context, tx *gorm.DB, quiz *models.Quiz) error {
	return s.create(quiz)
}
func (s *stubQuizRepo) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Quiz, error) {
	return s.getByID(id)
}
func (s *stubQuizRepo) GetByIDWithQuestions(ctx context.Context, tx *gorm.DB, id uint) (*models.Quiz, error) {
	return s.getByIDWithQuestions(id)
}
func (s *stubQuizRepo) GetTotalPoints(ctx context.Context, tx *gorm.DB, quizID uint) (int, error) {
	return s.getTotalPoints(quizID)
}
func (s *stubQuizRepo) CountQuestions(ctx context.Context, tx *gorm.DB, quizID uint) (int64, error) {
	return s.countQuestions(quizID)
}

type stubQuestionRepo struct {
	repositories.QuestionRepository
	create        func(question *models.Question) error
	createOptions func(options []*models.Option) error
}

func (s *stubQuestionRepo) Create(ctx context.Context, tx *gorm.DB, question *models.Question) error {
	return s.create(question)
}
func (s *stubQuestionRepo) CreateOptions(ctx context.Context, tx *gorm.DB, options []*models.Option) error {
	return s.createOptions(options)
}

type stubDraftRepo struct {
	repositories.QuizDraftRepository
	create  func(draft *models.QuizDraft) error
	getByID func(id uint) (*models.QuizDraft, error)
	update  func(draft *models.QuizDraft) error
}

func (s *stubDraftRepo) Create(ctx context.Context, tx *gorm.DB, draft *models.QuizDraft) error {
	return s.create(draft)
}
func (s *stubDraftRepo) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.QuizDraft, error) {
	return s.getByID(id)
}
func (s *stubDraftRepo) Update(ctx context.Context, tx *gorm.DB, draft *models.QuizDraft) error {
	return s.update(draft)
}

type stubResultRepo struct {
	repositories.ResultRepository
	create              func(result *models.Result) error
	getByAttempt        func(userID string, quizID uint, attemptNumber int) (*models.Result, error)
	getMaxAttemptNumber func(userID string, quizID uint) (int, error)
	listByUser          func(userID string, filters repositories.ResultFilters) ([]*models.Result, int64, error)
	listByUserAndQuiz   func(userID string, quizID uint) ([]*models.Result, error)
	listByQuiz          func(quizID uint) ([]*models.Result, error)
	getRecentByUser     func(userID string, limit int) ([]repositories.TrendRow, error)
}

func (s *stubResultRepo) Create(ctx context.Context, tx *gorm.DB, result *models.Result) error {
	return s.create(result)
}
func (s *stubResultRepo) GetByAttempt(ctx context.Context, tx *gorm.DB, userID string, quizID uint, attemptNumber int) (*models.Result, error) {
	return s.getByAttempt(userID, quizID, attemptNumber)
}
func (s *stubResultRepo) GetMaxAttemptNumber(ctx context.Context, tx *gorm.DB, userID string, quizID uint) (int, error) {
	return s.getMaxAttemptNumber(userID, quizID)
}
func (s *stubResultRepo) ListByUser(ctx context.Context, tx *gorm.DB, userID string, filters repositories.ResultFilters) ([]*models.Result, int64, error) {
	return s.listByUser(userID, filters)
}
func (s *stubResultRepo) ListByUserAndQuiz(ctx context.Context, tx *gorm.DB, userID string, quizID uint) ([]*models.Result, error) {
	return s.listByUserAndQuiz(userID, quizID)
}
func (s *stubResultRepo) ListByQuiz(ctx context.Context, tx *gorm.DB, quizID uint) ([]*models.Result, error) {
	return s.listByQuiz(quizID)
}
func (s *stubResultRepo) GetRecentByUser(ctx context.Context, tx *gorm.DB, userID string, limit int) ([]repositories.TrendRow, error) {
	return s.getRecentByUser(userID, limit)
}

type stubResponseRepo struct {
	repositories.ResponseRepository
	createBatch  func(responses []*models.Response) error
	getByAttempt func(userID string, quizID uint, attemptNumber int) ([]*models.Response, error)
}

func (s *stubResponseRepo) CreateBatch(ctx context.Context, tx *gorm.DB, responses []*models.Response) error {
	return s.createBatch(responses)
}
func (s *stubResponseRepo) GetByAttempt(ctx context.Context, tx *gorm.DB, userID string, quizID uint, attemptNumber int) ([]*models.Response, error) {
	return s.getByAttempt(userID, quizID, attemptNumber)
}

type stubUserRepo struct {
	repositories.UserRepository
	hasRole func(id string, role models.UserRole) (bool, error)
}

func (s *stubUserRepo) HasRole(ctx context.Context, id string, role models.UserRole) (bool, error) {
	return s.hasRole(id, role)
}

type stubAnalyticsRepo struct {
	repositories.AnalyticsRepository
	getPortalOverview   func() (*repositories.PortalOverviewStats, error)
	getClassPerformance func() ([]repositories.ClassPerformanceRow, error)
	getTopStudents      func(limit int) ([]repositories.TopStudentRow, error)
	getQuizDifficulty   func() ([]repositories.QuizDifficultyRow, error)
	getRecentActivity   func(limit int) ([]repositories.RecentActivityRow, error)
}

func (s *stubAnalyticsRepo) GetPortalOverview(ctx context.Context, tx *gorm.DB) (*repositories.PortalOverviewStats, error) {
	return s.getPortalOverview()
}
func (s *stubAnalyticsRepo) GetClassPerformance(ctx context.Context, tx *gorm.DB) ([]repositories.ClassPerformanceRow, error) {
	return s.getClassPerformance()
}
func (s *stubAnalyticsRepo) GetTopStudents(ctx context.Context, tx *gorm.DB, limit int) ([]repositories.TopStudentRow, error) {
	return s.getTopStudents(limit)
}
func (s *stubAnalyticsRepo) GetQuizDifficulty(ctx context.Context, tx *gorm.DB) ([]repositories.QuizDifficultyRow, error) {
	return s.getQuizDifficulty()
}
func (s *stubAnalyticsRepo) GetRecentActivity(ctx context.Context, tx *gorm.DB, limit int) ([]repositories.RecentActivityRow, error) {
	return s.getRecentActivity(limit)
}

// testQuiz builds a quiz with sequential IDs: question i (1-based) has
// options (i*10+1 .. i*10+4) with the first option the correct one.
func testQuiz(questionCount, pointsEach int) *models.Quiz {
	quiz := &models.Quiz{
		ID:        1,
		Title:     "Photosynthesis basics",
		ClassID:   7,
		TimeLimit: 20,
		CreatedBy: "teacher-1",
	}
	for i := 1; i <= questionCount; i++ {
		question := models.Question{
			ID:           uint(i),
			QuizID:       quiz.ID,
			QuestionText: "question",
			Points:       pointsEach,
		}
		for j := 1; j <= 4; j++ {
			question.Options = append(question.Options, models.Option{
				ID:         uint(i*10 + j),
				QuestionID: question.ID,
				OptionText: "option",
				IsCorrect:  j == 1,
			})
		}
		quiz.Questions = append(quiz.Questions, question)
	}
	return quiz
}

func correctOptionID(questionID uint) *uint {
	id := questionID*10 + 1
	return &id
}

func wrongOptionID(questionID uint) *uint {
	id := questionID*10 + 2
	return &id
}
