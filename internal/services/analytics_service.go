package services

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"

	"github.com/athul-jose00/Smart-Quiz-Portal-sub000/internal/cache"
	"github.com/athul-jose00/Smart-Quiz-Portal-sub000/internal/models"
	"github.com/athul-jose00/Smart-Quiz-Portal-sub000/internal/repositories"
	"gorm.io/gorm"
)

const (
	topStudentsLimit    = 10
	recentActivityLimit = 15
	histogramBuckets    = 10

	difficultyEasyFloor   = 80.0
	difficultyMediumFloor = 60.0
)

type analyticsService struct {
	db           *gorm.DB
	repo         repositories.Repository
	logger       *slog.Logger
	cacheManager *cache.CacheManager
}

func NewAnalyticsService(db *gorm.DB, repo repositories.Repository, logger *slog.Logger, cacheManager *cache.CacheManager) AnalyticsService {
	return &analyticsService{
		db:           db,
		repo:         repo,
		logger:       logger,
		cacheManager: cacheManager,
	}
}

// ===== PER-QUIZ ANALYTICS =====

// GetQuizAnalytics computes every statistic from the raw result rows.
// Result sets are class-sized, so a full scan is cheaper than keeping
// aggregates consistent; the computed response is cached until the next
// graded attempt.
func (s *analyticsService) GetQuizAnalytics(ctx context.Context, quizID uint, requesterID string) (*QuizAnalyticsResponse, error) {
	quiz, err := s.repo.Quiz().GetByID(ctx, nil, quizID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrQuizNotFound
		}
		return nil, fmt.Errorf("failed to get quiz: %w", err)
	}
	if quiz.CreatedBy != requesterID {
		return nil, NewPermissionError(requesterID, quizID, "quiz", "analytics", "only the quiz creator can view analytics")
	}

	// Cached per quiz; a new graded attempt deletes the key
	if s.cacheManager != nil {
		var resp QuizAnalyticsResponse
		cacheKey := fmt.Sprintf("quiz:%d:analytics", quizID)
		err := s.cacheManager.Stats.CacheOrExecute(ctx, cacheKey, &resp, cache.StatsCacheConfig.TTL, func() (interface{}, error) {
			return s.computeQuizAnalytics(ctx, quiz)
		})
		if err != nil {
			return nil, err
		}
		return &resp, nil
	}
	return s.computeQuizAnalytics(ctx, quiz)
}

func (s *analyticsService) computeQuizAnalytics(ctx context.Context, quiz *models.Quiz) (*QuizAnalyticsResponse, error) {
	results, err := s.repo.Result().ListByQuiz(ctx, nil, quiz.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load results: %w", err)
	}

	totalPossible, err := s.repo.Quiz().GetTotalPoints(ctx, nil, quiz.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to sum points: %w", err)
	}

	enrolled, err := s.repo.Enrollment().CountByClass(ctx, nil, quiz.ClassID)
	if err != nil {
		return nil, fmt.Errorf("failed to count enrolled students: %w", err)
	}

	resp := &QuizAnalyticsResponse{
		QuizID:           quiz.ID,
		Title:            quiz.Title,
		Participants:     len(results), // attempt rows, deliberately not distinct students
		TotalPossible:    totalPossible,
		Histogram:        emptyHistogram(),
		EnrolledStudents: enrolled,
	}

	if len(results) > 0 {
		scores := make([]float64, 0, len(results))
		for _, r := range results {
			scores = append(scores, float64(r.TotalScore))
			bucketGrade(&resp.GradeDistribution, r.Percentage)
			resp.Histogram[histogramBucket(r.Percentage)].Count++
		}
		resp.AverageScore = roundFloat(mean(scores), 2)
		resp.MedianScore = roundFloat(median(scores), 2)
		resp.MinScore = int(minOf(scores))
		resp.MaxScore = int(maxOf(scores))
		resp.StdDevScore = roundFloat(sampleStdDev(scores), 2)
	}

	// Participation is undefined without enrolled students, not zero
	if enrolled > 0 {
		rate := roundFloat(float64(len(results))/float64(enrolled)*100, 1)
		resp.ParticipationRate = &rate
	}

	return resp, nil
}

// ===== PORTAL OVERVIEW =====

func (s *analyticsService) GetPortalOverview(ctx context.Context, requesterID string) (*PortalOverviewResponse, error) {
	isAdmin, err := s.repo.User().HasRole(ctx, requesterID, models.RoleAdmin)
	if err != nil {
		return nil, fmt.Errorf("failed to check role: %w", err)
	}
	if !isAdmin {
		return nil, NewPermissionError(requesterID, 0, "portal", "overview", "admin only")
	}

	if s.cacheManager != nil {
		var resp PortalOverviewResponse
		err := s.cacheManager.Stats.CacheOrExecute(ctx, "portal_overview", &resp, cache.StatsCacheConfig.TTL, func() (interface{}, error) {
			return s.computePortalOverview(ctx)
		})
		if err != nil {
			return nil, err
		}
		return &resp, nil
	}
	return s.computePortalOverview(ctx)
}

func (s *analyticsService) computePortalOverview(ctx context.Context) (*PortalOverviewResponse, error) {
	overview, err := s.repo.Analytics().GetPortalOverview(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to load overview: %w", err)
	}
	classRows, err := s.repo.Analytics().GetClassPerformance(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to load class performance: %w", err)
	}
	topRows, err := s.repo.Analytics().GetTopStudents(ctx, nil, topStudentsLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to load top students: %w", err)
	}
	difficultyRows, err := s.repo.Analytics().GetQuizDifficulty(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to load quiz difficulty: %w", err)
	}
	activityRows, err := s.repo.Analytics().GetRecentActivity(ctx, nil, recentActivityLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to load recent activity: %w", err)
	}

	resp := &PortalOverviewResponse{
		ActiveStudents:   overview.ActiveStudents,
		TotalSubmissions: overview.TotalSubmissions,
		OverallAvgScore:  roundFloat(overview.OverallAvgScore, 2),
		HighestScore:     overview.HighestScore,
		LowestScore:      overview.LowestScore,
		ClassPerformance: make([]ClassPerformance, 0, len(classRows)),
		TopStudents:      make([]TopStudent, 0, len(topRows)),
		QuizDifficulty:   make([]QuizDifficultyItem, 0, len(difficultyRows)),
		RecentActivity:   make([]RecentActivity, 0, len(activityRows)),
	}

	for _, row := range classRows {
		resp.ClassPerformance = append(resp.ClassPerformance, ClassPerformance{
			ClassID:      row.ClassID,
			ClassName:    row.ClassName,
			StudentCount: row.StudentCount,
			Submissions:  row.Submissions,
			AverageScore: roundFloat(row.AverageScore, 2),
			MaxScore:     row.MaxScore,
		})
	}
	for _, row := range topRows {
		resp.TopStudents = append(resp.TopStudents, TopStudent{
			UserID:       row.UserID,
			Name:         row.Name,
			Email:        row.Email,
			QuizCount:    row.QuizCount,
			AverageScore: roundFloat(row.AverageScore, 2),
			BestScore:    row.BestScore,
		})
	}
	for _, row := range difficultyRows {
		resp.QuizDifficulty = append(resp.QuizDifficulty, QuizDifficultyItem{
			QuizID:       row.QuizID,
			Title:        row.Title,
			TimeLimit:    row.TimeLimit,
			Attempts:     row.Attempts,
			AverageScore: roundFloat(row.AverageScore, 2),
			Difficulty:   difficultyLabel(row.AverageScore),
		})
	}
	for _, row := range activityRows {
		resp.RecentActivity = append(resp.RecentActivity, RecentActivity{
			StudentName: row.StudentName,
			QuizTitle:   row.QuizTitle,
			ClassName:   row.ClassName,
			Score:       row.Score,
			CompletedAt: row.CompletedAt,
		})
	}

	return resp, nil
}

// ===== STATISTICS HELPERS =====

func mean(values []float64) float64 {
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// median averages the two middle values for even-length input.
func median(values []float64) float64 {
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

// sampleStdDev uses the n-1 denominator; a single value has no spread.
func sampleStdDev(values []float64) float64 {
	n := len(values)
	if n <= 1 {
		return 0
	}
	m := mean(values)
	sum := 0.0
	for _, v := range values {
		sum += (v - m) * (v - m)
	}
	return math.Sqrt(sum / float64(n-1))
}

func minOf(values []float64) float64 {
	m := values[0]
	for _, v := range values[1:] {
		if v < m {
			m = v
		}
	}
	return m
}

func maxOf(values []float64) float64 {
	m := values[0]
	for _, v := range values[1:] {
		if v > m {
			m = v
		}
	}
	return m
}

func bucketGrade(dist *GradeDistribution, percentage float64) {
	switch gradeLetter(percentage) {
	case "A":
		dist.A++
	case "B":
		dist.B++
	case "C":
		dist.C++
	case "D":
		dist.D++
	default:
		dist.F++
	}
}

// histogramBucket maps a percentage to one of 10 fixed-width buckets.
// Exactly 100 folds into the last bucket instead of an 11th.
func histogramBucket(percentage float64) int {
	bucket := int(percentage / 10)
	if bucket >= histogramBuckets {
		bucket = histogramBuckets - 1
	}
	if bucket < 0 {
		bucket = 0
	}
	return bucket
}

func emptyHistogram() []HistogramBucket {
	buckets := make([]HistogramBucket, histogramBuckets)
	for i := range buckets {
		lo := i * 10
		hi := lo + 9
		if i == histogramBuckets-1 {
			hi = 100
		}
		buckets[i].Label = fmt.Sprintf("%d-%d%%", lo, hi)
	}
	return buckets
}

func difficultyLabel(avgScore float64) string {
	switch {
	case avgScore >= difficultyEasyFloor:
		return "Easy"
	case avgScore >= difficultyMediumFloor:
		return "Medium"
	default:
		return "Hard"
	}
}
