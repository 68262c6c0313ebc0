package postgres

import (
	"context"
	"fmt"

	"github.com/athul-jose00/Smart-Quiz-Portal-sub000/internal/repositories"
	"gorm.io/gorm"
)

type analyticsRepository struct {
	db *gorm.DB
}

func NewAnalyticsRepository(db *gorm.DB) repositories.AnalyticsRepository {
	return &analyticsRepository{db: db}
}

func (r *analyticsRepository) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

func (r *analyticsRepository) GetPortalOverview(ctx context.Context, tx *gorm.DB) (*repositories.PortalOverviewStats, error) {
	db := r.getDB(tx)
	var stats repositories.PortalOverviewStats

	row := db.WithContext(ctx).Raw(`
		SELECT
			COUNT(DISTINCT r.user_id)          AS active_students,
			COUNT(r.id)                        AS total_submissions,
			COALESCE(AVG(r.total_score), 0)    AS overall_avg_score,
			COALESCE(MAX(r.total_score), 0)    AS highest_score,
			COALESCE(MIN(r.total_score), 0)    AS lowest_score
		FROM results r`).Row()

	if err := row.Scan(&stats.ActiveStudents, &stats.TotalSubmissions,
		&stats.OverallAvgScore, &stats.HighestScore, &stats.LowestScore); err != nil {
		return nil, fmt.Errorf("failed to get portal overview: %w", err)
	}

	return &stats, nil
}

func (r *analyticsRepository) GetClassPerformance(ctx context.Context, tx *gorm.DB) ([]repositories.ClassPerformanceRow, error) {
	db := r.getDB(tx)
	var rows []repositories.ClassPerformanceRow

	err := db.WithContext(ctx).Raw(`
		SELECT
			c.id                        AS class_id,
			c.name                      AS class_name,
			COUNT(DISTINCT r.user_id)   AS student_count,
			COUNT(r.id)                 AS submissions,
			COALESCE(AVG(r.total_score), 0) AS average_score,
			COALESCE(MAX(r.total_score), 0) AS max_score
		FROM classes c
		LEFT JOIN quizzes q ON q.class_id = c.id
		LEFT JOIN results r ON r.quiz_id = q.id
		WHERE c.deleted_at IS NULL
		GROUP BY c.id, c.name
		HAVING COUNT(r.id) > 0
		ORDER BY average_score DESC`).Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get class performance: %w", err)
	}

	return rows, nil
}

func (r *analyticsRepository) GetTopStudents(ctx context.Context, tx *gorm.DB, limit int) ([]repositories.TopStudentRow, error) {
	db := r.getDB(tx)
	if limit <= 0 {
		limit = 10
	}

	var rows []repositories.TopStudentRow
	err := db.WithContext(ctx).Raw(`
		SELECT
			u.id       AS user_id,
			u.name     AS name,
			u.email    AS email,
			COUNT(r.id)                 AS quiz_count,
			COALESCE(AVG(r.total_score), 0) AS average_score,
			COALESCE(MAX(r.total_score), 0) AS best_score
		FROM users u
		JOIN results r ON r.user_id = u.id
		WHERE u.role = 'student'
		GROUP BY u.id, u.name, u.email
		HAVING COUNT(r.id) >= 1
		ORDER BY average_score DESC, quiz_count DESC
		LIMIT ?`, limit).Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get top students: %w", err)
	}

	return rows, nil
}

// GetQuizDifficulty returns average scores per quiz ordered hardest
// first. The difficulty label is derived in the service layer.
func (r *analyticsRepository) GetQuizDifficulty(ctx context.Context, tx *gorm.DB) ([]repositories.QuizDifficultyRow, error) {
	db := r.getDB(tx)
	var rows []repositories.QuizDifficultyRow

	err := db.WithContext(ctx).Raw(`
		SELECT
			q.id         AS quiz_id,
			q.title      AS title,
			q.time_limit AS time_limit,
			COUNT(r.id)  AS attempts,
			COALESCE(AVG(r.total_score), 0) AS average_score
		FROM quizzes q
		LEFT JOIN results r ON r.quiz_id = q.id
		WHERE q.deleted_at IS NULL
		GROUP BY q.id, q.title, q.time_limit
		HAVING COUNT(r.id) > 0
		ORDER BY average_score ASC`).Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get quiz difficulty: %w", err)
	}

	return rows, nil
}

func (r *analyticsRepository) GetRecentActivity(ctx context.Context, tx *gorm.DB, limit int) ([]repositories.RecentActivityRow, error) {
	db := r.getDB(tx)
	if limit <= 0 {
		limit = 15
	}

	var rows []repositories.RecentActivityRow
	err := db.WithContext(ctx).Raw(`
		SELECT
			u.name        AS student_name,
			q.title       AS quiz_title,
			COALESCE(c.name, '') AS class_name,
			r.total_score AS score,
			r.completed_at
		FROM results r
		JOIN users u   ON u.id = r.user_id
		JOIN quizzes q ON q.id = r.quiz_id
		LEFT JOIN classes c ON c.id = q.class_id
		ORDER BY r.completed_at DESC
		LIMIT ?`, limit).Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get recent activity: %w", err)
	}

	return rows, nil
}
