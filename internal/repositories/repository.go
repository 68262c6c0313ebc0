package repositories

import "context"

// Repository aggregates all entity repositories behind one interface
type Repository interface {
	// Class domain
	Class() ClassRepository
	Enrollment() EnrollmentRepository

	// Quiz domain
	Quiz() QuizRepository
	Question() QuestionRepository
	QuizDraft() QuizDraftRepository

	// Attempt domain
	Result() ResultRepository
	Response() ResponseRepository

	// User domain (read-only, directory lives in Casdoor)
	User() UserRepository

	// Analytics domain
	Analytics() AnalyticsRepository

	// Transaction support
	WithTransaction(ctx context.Context, fn func(Repository) error) error

	// Health check
	Ping(ctx context.Context) error

	// Close connections
	Close() error
}

// RepositoryManager interface for managing repository lifecycle
type RepositoryManager interface {
	// Initialize repositories with database connections
	Initialize() error

	// Get repository instance
	GetRepository() Repository

	// Health check for all repositories
	HealthCheck(ctx context.Context) error

	// Graceful shutdown
	Shutdown(ctx context.Context) error
}
