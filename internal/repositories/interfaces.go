package repositories

import (
	"time"
)

// ===== SHARED FILTER STRUCTS =====

type QuizFilters struct {
	ClassID   *uint      `json:"class_id"`
	CreatedBy *string    `json:"created_by"`
	DateFrom  *time.Time `json:"date_from"`
	DateTo    *time.Time `json:"date_to"`
	Limit     int        `json:"limit"`
	Offset    int        `json:"offset"`
	SortBy    string     `json:"sort_by"`    // "created_at", "title"
	SortOrder string     `json:"sort_order"` // "asc", "desc"
}

type ResultFilters struct {
	UserID   *string    `json:"user_id"`
	QuizID   *uint      `json:"quiz_id"`
	DateFrom *time.Time `json:"date_from"`
	DateTo   *time.Time `json:"date_to"`
	Limit    int        `json:"limit"`
	Offset   int        `json:"offset"`
	SortBy   string     `json:"sort_by"`    // "completed_at", "percentage", "attempt_number"
	SortOrder string    `json:"sort_order"` // "asc", "desc"
}

type ClassFilters struct {
	TeacherID *string `json:"teacher_id"`
	Query     string  `json:"query"`
	Limit     int     `json:"limit"`
	Offset    int     `json:"offset"`
}

// UserFilters defines filters for user queries
type UserFilters struct {
	Query  string // Search query for name or email
	Limit  int    // Page size
	Offset int    // Offset for pagination
}

// ===== SHARED STATISTICS STRUCTS =====

// QuizScoreRow is one result row projected for analytics, joined with
// the student's directory fields for export.
type QuizScoreRow struct {
	UserID        string    `json:"user_id"`
	StudentName   string    `json:"student_name"`
	StudentEmail  string    `json:"student_email"`
	AttemptNumber int       `json:"attempt_number"`
	TotalScore    int       `json:"total_score"`
	Percentage    float64   `json:"percentage"`
	CompletedAt   time.Time `json:"completed_at"`
}

type ClassPerformanceRow struct {
	ClassID      uint    `json:"class_id"`
	ClassName    string  `json:"class_name"`
	StudentCount int64   `json:"student_count"`
	Submissions  int64   `json:"submissions"`
	AverageScore float64 `json:"average_score"`
	MaxScore     int     `json:"max_score"`
}

type TopStudentRow struct {
	UserID       string  `json:"user_id"`
	Name         string  `json:"name"`
	Email        string  `json:"email"`
	QuizCount    int64   `json:"quiz_count"`
	AverageScore float64 `json:"average_score"`
	BestScore    int     `json:"best_score"`
}

type QuizDifficultyRow struct {
	QuizID       uint    `json:"quiz_id"`
	Title        string  `json:"title"`
	TimeLimit    int     `json:"time_limit"`
	Attempts     int64   `json:"attempts"`
	AverageScore float64 `json:"average_score"`
}

type RecentActivityRow struct {
	StudentName string    `json:"student_name"`
	QuizTitle   string    `json:"quiz_title"`
	ClassName   string    `json:"class_name"`
	Score       int       `json:"score"`
	CompletedAt time.Time `json:"completed_at"`
}

type PortalOverviewStats struct {
	ActiveStudents   int64   `json:"active_students"`
	TotalSubmissions int64   `json:"total_submissions"`
	OverallAvgScore  float64 `json:"overall_avg_score"`
	HighestScore     int     `json:"highest_score"`
	LowestScore      int     `json:"lowest_score"`
}

type TrendRow struct {
	QuizID        uint      `json:"quiz_id"`
	QuizTitle     string    `json:"quiz_title"`
	AttemptNumber int       `json:"attempt_number"`
	Percentage    float64   `json:"percentage"`
	CompletedAt   time.Time `json:"completed_at"`
}
