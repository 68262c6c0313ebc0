package repositories

import (
	"context"

	"gorm.io/gorm"
)

// AnalyticsRepository interface for portal-wide analytics reads.
// Per-quiz statistics are computed in the service from raw result rows
// (see ResultRepository.ListByQuiz); this interface covers the
// admin/teacher overview aggregations that stay in SQL.
type AnalyticsRepository interface {
	// Overview stats
	GetPortalOverview(ctx context.Context, tx *gorm.DB) (*PortalOverviewStats, error)

	// Performance by class (classes with at least one submission)
	GetClassPerformance(ctx context.Context, tx *gorm.DB) ([]ClassPerformanceRow, error)

	// Top performing students
	GetTopStudents(ctx context.Context, tx *gorm.DB, limit int) ([]TopStudentRow, error)

	// Quiz difficulty analysis (avg score per quiz, hardest first)
	GetQuizDifficulty(ctx context.Context, tx *gorm.DB) ([]QuizDifficultyRow, error)

	// Recent activity feed
	GetRecentActivity(ctx context.Context, tx *gorm.DB, limit int) ([]RecentActivityRow, error)
}
