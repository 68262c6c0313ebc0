package services

import (
	"context"
	"testing"

	"github.com/athul-jose00/Smart-Quiz-Portal-sub000/internal/models"
	"github.com/athul-jose00/Smart-Quiz-Portal-sub000/internal/repositories"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAnalyticsFixture(quiz *models.Quiz, results []*models.Result, enrolled int64) AnalyticsService {
	repo := &mockRepository{
		quiz: &stubQuizRepo{
			getByID:        func(id uint) (*models.Quiz, error) { return quiz, nil },
			getTotalPoints: func(quizID uint) (int, error) { return 100, nil },
		},
		result: &stubResultRepo{
			listByQuiz: func(quizID uint) ([]*models.Result, error) { return results, nil },
		},
		enrollment: &stubEnrollmentRepo{
			countByClass: func(classID uint) (int64, error) { return enrolled, nil },
		},
	}
	return NewAnalyticsService(nil, repo, testLogger(), nil)
}

func TestGetQuizAnalytics(t *testing.T) {
	quiz := testQuiz(0, 0)
	results := []*models.Result{
		{TotalScore: 92, Percentage: 92.0},
		{TotalScore: 85, Percentage: 85.0},
		{TotalScore: 71, Percentage: 71.0},
		{TotalScore: 55, Percentage: 55.0},
	}

	resp, err := newAnalyticsFixture(quiz, results, 10).GetQuizAnalytics(context.Background(), quiz.ID, "teacher-1")
	require.NoError(t, err)

	assert.Equal(t, 4, resp.Participants)
	assert.Equal(t, 100, resp.TotalPossible)
	assert.Equal(t, 75.75, resp.AverageScore)
	assert.Equal(t, 78.0, resp.MedianScore)
	assert.Equal(t, 55, resp.MinScore)
	assert.Equal(t, 92, resp.MaxScore)
	assert.Equal(t, 16.36, resp.StdDevScore)

	assert.Equal(t, 1, resp.GradeDistribution.A)
	assert.Equal(t, 1, resp.GradeDistribution.B)
	assert.Equal(t, 1, resp.GradeDistribution.C)
	assert.Equal(t, 0, resp.GradeDistribution.D)
	assert.Equal(t, 1, resp.GradeDistribution.F)

	require.NotNil(t, resp.ParticipationRate)
	assert.Equal(t, 40.0, *resp.ParticipationRate)
	assert.Equal(t, int64(10), resp.EnrolledStudents)

	require.Len(t, resp.Histogram, 10)
	assert.Equal(t, "0-9%", resp.Histogram[0].Label)
	assert.Equal(t, "90-100%", resp.Histogram[9].Label)
	assert.Equal(t, 1, resp.Histogram[9].Count) // 92%
	assert.Equal(t, 1, resp.Histogram[8].Count) // 85%
	assert.Equal(t, 1, resp.Histogram[7].Count) // 71%
	assert.Equal(t, 1, resp.Histogram[5].Count) // 55%
}

func TestGetQuizAnalytics_PerfectScoreInLastBucket(t *testing.T) {
	quiz := testQuiz(0, 0)
	results := []*models.Result{{TotalScore: 100, Percentage: 100.0}}

	resp, err := newAnalyticsFixture(quiz, results, 1).GetQuizAnalytics(context.Background(), quiz.ID, "teacher-1")
	require.NoError(t, err)

	assert.Equal(t, 1, resp.Histogram[9].Count)
	assert.Equal(t, 0.0, resp.StdDevScore) // one value has no spread
}

func TestGetQuizAnalytics_NoResults(t *testing.T) {
	quiz := testQuiz(0, 0)

	resp, err := newAnalyticsFixture(quiz, nil, 0).GetQuizAnalytics(context.Background(), quiz.ID, "teacher-1")
	require.NoError(t, err)

	assert.Zero(t, resp.Participants)
	assert.Zero(t, resp.AverageScore)
	assert.Nil(t, resp.ParticipationRate) // undefined without enrollment
	require.Len(t, resp.Histogram, 10)
	for _, bucket := range resp.Histogram {
		assert.Zero(t, bucket.Count)
	}
}

func TestGetQuizAnalytics_CreatorOnly(t *testing.T) {
	quiz := testQuiz(0, 0)

	_, err := newAnalyticsFixture(quiz, nil, 0).GetQuizAnalytics(context.Background(), quiz.ID, "teacher-2")
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestGetPortalOverview(t *testing.T) {
	repo := &mockRepository{
		user: &stubUserRepo{
			hasRole: func(id string, role models.UserRole) (bool, error) {
				return id == "admin-1" && role == models.RoleAdmin, nil
			},
		},
		analytics: &stubAnalyticsRepo{
			getPortalOverview: func() (*repositories.PortalOverviewStats, error) {
				return &repositories.PortalOverviewStats{
					ActiveStudents:   120,
					TotalSubmissions: 900,
					OverallAvgScore:  71.236,
					HighestScore:     100,
					LowestScore:      12,
				}, nil
			},
			getClassPerformance: func() ([]repositories.ClassPerformanceRow, error) {
				return []repositories.ClassPerformanceRow{
					{ClassID: 1, ClassName: "Math 7B", StudentCount: 30, Submissions: 210, AverageScore: 74.5, MaxScore: 98},
				}, nil
			},
			getTopStudents: func(limit int) ([]repositories.TopStudentRow, error) {
				assert.Equal(t, topStudentsLimit, limit)
				return []repositories.TopStudentRow{
					{UserID: "student-9", Name: "Priya", AverageScore: 96.125, BestScore: 100},
				}, nil
			},
			getQuizDifficulty: func() ([]repositories.QuizDifficultyRow, error) {
				return []repositories.QuizDifficultyRow{
					{QuizID: 1, Title: "Fractions", AverageScore: 48.0},
					{QuizID: 2, Title: "Decimals", AverageScore: 65.0},
					{QuizID: 3, Title: "Shapes", AverageScore: 91.0},
				}, nil
			},
			getRecentActivity: func(limit int) ([]repositories.RecentActivityRow, error) {
				assert.Equal(t, recentActivityLimit, limit)
				return []repositories.RecentActivityRow{
					{StudentName: "Priya", QuizTitle: "Shapes", Score: 95},
				}, nil
			},
		},
	}
	service := NewAnalyticsService(nil, repo, testLogger(), nil)

	resp, err := service.GetPortalOverview(context.Background(), "admin-1")
	require.NoError(t, err)

	assert.Equal(t, int64(120), resp.ActiveStudents)
	assert.Equal(t, 71.24, resp.OverallAvgScore)
	require.Len(t, resp.QuizDifficulty, 3)
	assert.Equal(t, "Hard", resp.QuizDifficulty[0].Difficulty)
	assert.Equal(t, "Medium", resp.QuizDifficulty[1].Difficulty)
	assert.Equal(t, "Easy", resp.QuizDifficulty[2].Difficulty)
	require.Len(t, resp.TopStudents, 1)
	assert.Equal(t, 96.13, resp.TopStudents[0].AverageScore)
	require.Len(t, resp.RecentActivity, 1)

	_, err = service.GetPortalOverview(context.Background(), "teacher-1")
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestStatisticsHelpers(t *testing.T) {
	assert.Equal(t, 3.0, median([]float64{1, 3, 5}))
	assert.Equal(t, 2.5, median([]float64{1, 2, 3, 4}))
	assert.Equal(t, 2.0, mean([]float64{1, 2, 3}))
	assert.Zero(t, sampleStdDev([]float64{42}))
	assert.InDelta(t, 1.0, sampleStdDev([]float64{1, 2, 3}), 0.0001)

	assert.Equal(t, 0, histogramBucket(0))
	assert.Equal(t, 0, histogramBucket(9.99))
	assert.Equal(t, 1, histogramBucket(10))
	assert.Equal(t, 9, histogramBucket(99.5))
	assert.Equal(t, 9, histogramBucket(100))
}

func TestDifficultyLabel(t *testing.T) {
	assert.Equal(t, "Easy", difficultyLabel(80))
	assert.Equal(t, "Medium", difficultyLabel(79.99))
	assert.Equal(t, "Medium", difficultyLabel(60))
	assert.Equal(t, "Hard", difficultyLabel(59.99))
}
