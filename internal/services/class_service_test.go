package services

import (
	"context"
	"strings"
	"testing"

	"github.com/athul-jose00/Smart-Quiz-Portal-sub000/internal/events"
	"github.com/athul-jose00/Smart-Quiz-Portal-sub000/internal/models"
	"github.com/athul-jose00/Smart-Quiz-Portal-sub000/internal/repositories"
	"github.com/athul-jose00/Smart-Quiz-Portal-sub000/internal/validator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newClassService(repo *mockRepository) ClassService {
	return NewClassService(nil, repo, testLogger(), validator.New(), nil)
}

func TestRandomClassCode(t *testing.T) {
	for i := 0; i < 200; i++ {
		code := randomClassCode()
		require.Len(t, code, models.ClassCodeLength)
		for _, c := range code {
			assert.True(t, strings.ContainsRune(models.ClassCodeAlphabet, c),
				"code %q contains %q outside the join-code alphabet", code, c)
		}
	}
}

func TestCreateClass(t *testing.T) {
	var created *models.Class
	repo := &mockRepository{
		class: &stubClassRepo{
			existsByCode: func(code string) (bool, error) { return false, nil },
			create: func(class *models.Class) error {
				class.ID = 11
				created = class
				return nil
			},
		},
	}

	resp, err := newClassService(repo).Create(context.Background(), CreateClassRequest{Name: "Biology 9A"}, "teacher-1")
	require.NoError(t, err)

	assert.Equal(t, uint(11), resp.ID)
	assert.True(t, resp.CanManage)
	require.NotNil(t, created)
	assert.Equal(t, "teacher-1", created.TeacherID)
	assert.Len(t, created.ClassCode, models.ClassCodeLength)
}

func TestCreateClass_EmptyName(t *testing.T) {
	repo := &mockRepository{}

	_, err := newClassService(repo).Create(context.Background(), CreateClassRequest{Name: "  "}, "teacher-1")

	var verrs ValidationErrors
	require.ErrorAs(t, err, &verrs)
}

func TestCreateClass_RetriesCollidingCodes(t *testing.T) {
	checks := 0
	repo := &mockRepository{
		class: &stubClassRepo{
			existsByCode: func(code string) (bool, error) {
				checks++
				return checks < 3, nil // first two codes taken
			},
			create: func(class *models.Class) error { return nil },
		},
	}

	_, err := newClassService(repo).Create(context.Background(), CreateClassRequest{Name: "Chemistry"}, "teacher-1")
	require.NoError(t, err)
	assert.Equal(t, 3, checks)
}

func TestCreateClass_CodeSpaceExhausted(t *testing.T) {
	repo := &mockRepository{
		class: &stubClassRepo{
			existsByCode: func(code string) (bool, error) { return true, nil },
		},
	}

	_, err := newClassService(repo).Create(context.Background(), CreateClassRequest{Name: "History"}, "teacher-1")

	var ruleErr *BusinessRuleError
	require.ErrorAs(t, err, &ruleErr)
	assert.Equal(t, "class_code_exhausted", ruleErr.Rule)
}

func TestJoinClass(t *testing.T) {
	class := &models.Class{ID: 5, Name: "Physics", ClassCode: "ABC234", TeacherID: "teacher-1"}
	var enrollment *models.Enrollment

	repo := &mockRepository{
		class: &stubClassRepo{
			getByCode: func(code string) (*models.Class, error) {
				if code != "ABC234" {
					return nil, gorm.ErrRecordNotFound
				}
				return class, nil
			},
		},
		enrollment: &stubEnrollmentRepo{
			isEnrolled: func(userID string, classID uint) (bool, error) { return false, nil },
			create: func(e *models.Enrollment) error {
				enrollment = e
				return nil
			},
		},
	}

	resp, err := newClassService(repo).Join(context.Background(), JoinClassRequest{ClassCode: "ABC234"}, "student-1")
	require.NoError(t, err)

	assert.Equal(t, uint(5), resp.ID)
	assert.False(t, resp.CanManage)
	require.NotNil(t, enrollment)
	assert.Equal(t, "student-1", enrollment.UserID)
	assert.Equal(t, uint(5), enrollment.ClassID)
}

func TestJoinClass_PublishesEnrolledEvent(t *testing.T) {
	class := &models.Class{ID: 5, Name: "Physics", ClassCode: "ABC234", TeacherID: "teacher-1"}
	repo := &mockRepository{
		class: &stubClassRepo{
			getByCode: func(code string) (*models.Class, error) { return class, nil },
		},
		enrollment: &stubEnrollmentRepo{
			isEnrolled: func(userID string, classID uint) (bool, error) { return false, nil },
			create:     func(e *models.Enrollment) error { return nil },
		},
	}
	publisher := events.NewMockEventPublisher(testLogger())
	service := NewClassService(nil, repo, testLogger(), validator.New(), publisher)

	_, err := service.Join(context.Background(), JoinClassRequest{ClassCode: "ABC234"}, "student-1")
	require.NoError(t, err)

	published := publisher.GetPublishedEvents()
	require.Len(t, published, 1)
	assert.Equal(t, events.EventClassEnrolled, published[0].Type)
	data, ok := published[0].Data.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, uint(5), data["class_id"])
	assert.Equal(t, "student-1", data["student_id"])
}

func TestJoinClass_UnknownCode(t *testing.T) {
	repo := &mockRepository{
		class: &stubClassRepo{
			getByCode: func(code string) (*models.Class, error) { return nil, gorm.ErrRecordNotFound },
		},
	}

	_, err := newClassService(repo).Join(context.Background(), JoinClassRequest{ClassCode: "ZZZZ99"}, "student-1")
	assert.ErrorIs(t, err, ErrInvalidClassCode)
}

func TestJoinClass_AlreadyEnrolled(t *testing.T) {
	class := &models.Class{ID: 5, ClassCode: "ABC234"}
	repo := &mockRepository{
		class: &stubClassRepo{
			getByCode: func(code string) (*models.Class, error) { return class, nil },
		},
		enrollment: &stubEnrollmentRepo{
			isEnrolled: func(userID string, classID uint) (bool, error) { return true, nil },
		},
	}

	_, err := newClassService(repo).Join(context.Background(), JoinClassRequest{ClassCode: "ABC234"}, "student-1")
	assert.ErrorIs(t, err, ErrAlreadyEnrolled)
}

func TestJoinClass_ConcurrentDoubleJoin(t *testing.T) {
	class := &models.Class{ID: 5, ClassCode: "ABC234"}
	repo := &mockRepository{
		class: &stubClassRepo{
			getByCode: func(code string) (*models.Class, error) { return class, nil },
		},
		enrollment: &stubEnrollmentRepo{
			isEnrolled: func(userID string, classID uint) (bool, error) { return false, nil },
			create:     func(e *models.Enrollment) error { return gorm.ErrDuplicatedKey },
		},
	}

	_, err := newClassService(repo).Join(context.Background(), JoinClassRequest{ClassCode: "ABC234"}, "student-1")
	assert.ErrorIs(t, err, ErrAlreadyEnrolled)
}

func TestJoinClass_RejectsMalformedCode(t *testing.T) {
	repo := &mockRepository{}

	// O and 0 are excluded from the alphabet.
	_, err := newClassService(repo).Join(context.Background(), JoinClassRequest{ClassCode: "ABC0O1"}, "student-1")

	var verrs ValidationErrors
	require.ErrorAs(t, err, &verrs)
}

func TestGetClassByID_MemberAccess(t *testing.T) {
	class := &models.Class{ID: 3, Name: "Geometry", TeacherID: "teacher-1", Teacher: models.User{Name: "Ms. Finch"}}
	repo := &mockRepository{
		class: &stubClassRepo{
			getByID: func(id uint) (*models.Class, error) { return class, nil },
		},
		enrollment: &stubEnrollmentRepo{
			isEnrolled:   func(userID string, classID uint) (bool, error) { return userID == "student-1", nil },
			countByClass: func(classID uint) (int64, error) { return 24, nil },
		},
		quiz: &countingQuizRepo{total: 4},
	}

	svc := newClassService(repo)

	resp, err := svc.GetByID(context.Background(), 3, "teacher-1")
	require.NoError(t, err)
	assert.True(t, resp.CanManage)
	assert.Equal(t, 24, resp.StudentCount)
	assert.Equal(t, 4, resp.QuizCount)

	resp, err = svc.GetByID(context.Background(), 3, "student-1")
	require.NoError(t, err)
	assert.False(t, resp.CanManage)
	assert.Equal(t, "Ms. Finch", resp.TeacherName)

	_, err = svc.GetByID(context.Background(), 3, "stranger")
	assert.ErrorIs(t, err, ErrForbidden)
}

// countingQuizRepo only answers GetByClass, for the count attached to
// class responses.
type countingQuizRepo struct {
	repositories.QuizRepository
	total int64
}

func (c *countingQuizRepo) GetByClass(ctx context.Context, tx *gorm.DB, classID uint, filters repositories.QuizFilters) ([]*models.Quiz, int64, error) {
	return nil, c.total, nil
}
