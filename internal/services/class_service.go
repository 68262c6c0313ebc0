package services

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"

	"github.com/athul-jose00/Smart-Quiz-Portal-sub000/internal/events"
	"github.com/athul-jose00/Smart-Quiz-Portal-sub000/internal/models"
	"github.com/athul-jose00/Smart-Quiz-Portal-sub000/internal/repositories"
	"github.com/athul-jose00/Smart-Quiz-Portal-sub000/internal/validator"
	"gorm.io/gorm"
)

// classCodeRetries bounds code regeneration when a freshly generated
// join code collides with an existing class.
const classCodeRetries = 5

type classService struct {
	db        *gorm.DB
	repo      repositories.Repository
	logger    *slog.Logger
	validator *validator.Validator
	publisher events.EventPublisher
}

func NewClassService(db *gorm.DB, repo repositories.Repository, logger *slog.Logger, validator *validator.Validator, publisher events.EventPublisher) ClassService {
	return &classService{
		db:        db,
		repo:      repo,
		logger:    logger,
		validator: validator,
		publisher: publisher,
	}
}

// ===== TEACHER SIDE =====

func (s *classService) Create(ctx context.Context, req CreateClassRequest, teacherID string) (*ClassResponse, error) {
	if validationErrors := s.validator.Validate(req); len(validationErrors) > 0 {
		return nil, toValidationErrors(validationErrors)
	}

	code, err := s.generateUniqueCode(ctx)
	if err != nil {
		return nil, err
	}

	class := &models.Class{
		Name:      req.Name,
		ClassCode: code,
		TeacherID: teacherID,
	}
	if err := s.repo.Class().Create(ctx, nil, class); err != nil {
		return nil, fmt.Errorf("failed to create class: %w", err)
	}

	s.logger.Info("Class created",
		"class_id", class.ID,
		"teacher_id", teacherID,
		"class_code", code)

	return &ClassResponse{Class: class, CanManage: true}, nil
}

func (s *classService) GetByID(ctx context.Context, id uint, userID string) (*ClassResponse, error) {
	class, err := s.repo.Class().GetByID(ctx, nil, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrClassNotFound
		}
		return nil, fmt.Errorf("failed to get class: %w", err)
	}

	isOwner := class.TeacherID == userID
	if !isOwner {
		enrolled, err := s.repo.Enrollment().IsEnrolled(ctx, nil, userID, id)
		if err != nil {
			return nil, fmt.Errorf("failed to check enrollment: %w", err)
		}
		if !enrolled {
			return nil, NewPermissionError(userID, id, "class", "view", "not a member of this class")
		}
	}

	if err := s.attachCounts(ctx, class); err != nil {
		return nil, err
	}

	return &ClassResponse{
		Class:       class,
		TeacherName: class.Teacher.Name,
		CanManage:   isOwner,
	}, nil
}

func (s *classService) ListByTeacher(ctx context.Context, teacherID string, limit, offset int) (*ClassListResponse, error) {
	classes, total, err := s.repo.Class().GetByTeacher(ctx, nil, teacherID, repositories.ClassFilters{
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list classes: %w", err)
	}

	items := make([]*ClassResponse, 0, len(classes))
	for _, class := range classes {
		if err := s.attachCounts(ctx, class); err != nil {
			return nil, err
		}
		items = append(items, &ClassResponse{Class: class, CanManage: true})
	}

	return &ClassListResponse{Classes: items, Total: total}, nil
}

func (s *classService) Delete(ctx context.Context, id uint, teacherID string) error {
	owned, err := s.repo.Class().IsOwnedBy(ctx, nil, id, teacherID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrClassNotFound
		}
		return fmt.Errorf("failed to check ownership: %w", err)
	}
	if !owned {
		return NewPermissionError(teacherID, id, "class", "delete", "only the owning teacher can delete a class")
	}

	if err := s.repo.Class().Delete(ctx, nil, id); err != nil {
		return fmt.Errorf("failed to delete class: %w", err)
	}

	s.logger.Info("Class deleted", "class_id", id, "teacher_id", teacherID)
	return nil
}

// ===== STUDENT SIDE =====

// Join enrolls a student by join code. The code lookup is deliberately
// the only way students discover classes.
func (s *classService) Join(ctx context.Context, req JoinClassRequest, studentID string) (*ClassResponse, error) {
	if validationErrors := s.validator.Validate(req); len(validationErrors) > 0 {
		return nil, toValidationErrors(validationErrors)
	}

	class, err := s.repo.Class().GetByCode(ctx, nil, req.ClassCode)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrInvalidClassCode
		}
		return nil, fmt.Errorf("failed to look up class code: %w", err)
	}

	enrolled, err := s.repo.Enrollment().IsEnrolled(ctx, nil, studentID, class.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to check enrollment: %w", err)
	}
	if enrolled {
		return nil, ErrAlreadyEnrolled
	}

	enrollment := &models.Enrollment{
		UserID:  studentID,
		ClassID: class.ID,
	}
	if err := s.repo.Enrollment().Create(ctx, nil, enrollment); err != nil {
		// The unique index catches a concurrent double-join
		if repositories.IsDuplicateKeyError(err) {
			return nil, ErrAlreadyEnrolled
		}
		return nil, fmt.Errorf("failed to enroll: %w", err)
	}

	s.logger.Info("Student joined class",
		"class_id", class.ID,
		"student_id", studentID)

	s.publishEnrolled(ctx, class, studentID)

	return &ClassResponse{Class: class, TeacherName: class.Teacher.Name}, nil
}

func (s *classService) publishEnrolled(ctx context.Context, class *models.Class, studentID string) {
	if s.publisher == nil {
		return
	}
	err := s.publisher.Publish(ctx, events.EventClassEnrolled, map[string]interface{}{
		"class_id":   class.ID,
		"class_code": class.ClassCode,
		"teacher_id": class.TeacherID,
		"student_id": studentID,
	})
	if err != nil {
		// Enrollment already committed; a lost event must not fail the request
		s.logger.Error("Failed to publish enrolled event",
			"class_id", class.ID,
			"student_id", studentID,
			"error", err)
	}
}

func (s *classService) ListEnrolled(ctx context.Context, studentID string) (*ClassListResponse, error) {
	classes, err := s.repo.Enrollment().GetClassesByUser(ctx, nil, studentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list enrolled classes: %w", err)
	}

	items := make([]*ClassResponse, 0, len(classes))
	for _, class := range classes {
		if err := s.attachCounts(ctx, class); err != nil {
			return nil, err
		}
		items = append(items, &ClassResponse{Class: class, TeacherName: class.Teacher.Name})
	}

	return &ClassListResponse{Classes: items, Total: int64(len(items))}, nil
}

func (s *classService) ListStudents(ctx context.Context, classID uint, requesterID string) ([]*models.User, error) {
	class, err := s.repo.Class().GetByID(ctx, nil, classID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrClassNotFound
		}
		return nil, fmt.Errorf("failed to get class: %w", err)
	}
	if class.TeacherID != requesterID {
		return nil, NewPermissionError(requesterID, classID, "class", "list_students", "only the owning teacher can view the roster")
	}

	return s.repo.Enrollment().GetStudentsByClass(ctx, nil, classID)
}

// ===== HELPERS =====

// generateUniqueCode draws codes from an alphabet without 0/O/1/I until
// one is free. Collisions are rare at 32^6 codes but handled anyway.
func (s *classService) generateUniqueCode(ctx context.Context) (string, error) {
	for i := 0; i < classCodeRetries; i++ {
		code := randomClassCode()
		exists, err := s.repo.Class().ExistsByCode(ctx, nil, code)
		if err != nil {
			return "", fmt.Errorf("failed to check class code: %w", err)
		}
		if !exists {
			return code, nil
		}
	}
	return "", NewBusinessRuleError("class_code_exhausted", "could not generate a unique class code", nil)
}

func randomClassCode() string {
	code := make([]byte, models.ClassCodeLength)
	for i := range code {
		code[i] = models.ClassCodeAlphabet[rand.Intn(len(models.ClassCodeAlphabet))]
	}
	return string(code)
}

func (s *classService) attachCounts(ctx context.Context, class *models.Class) error {
	studentCount, err := s.repo.Enrollment().CountByClass(ctx, nil, class.ID)
	if err != nil {
		return fmt.Errorf("failed to count students: %w", err)
	}
	_, quizTotal, err := s.repo.Quiz().GetByClass(ctx, nil, class.ID, repositories.QuizFilters{Limit: 1})
	if err != nil {
		return fmt.Errorf("failed to count quizzes: %w", err)
	}
	class.StudentCount = int(studentCount)
	class.QuizCount = int(quizTotal)
	return nil
}
