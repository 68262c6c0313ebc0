package models

import (
	"time"

	"gorm.io/gorm"
)

// ClassCodeAlphabet excludes characters easy to misread on a projector
// (no I, O, 0, 1).
const (
	ClassCodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	ClassCodeLength   = 6
)

type Class struct {
	ID        uint   `json:"id" gorm:"primaryKey"`
	Name      string `json:"name" gorm:"not null;size:100" validate:"required,min=1,max=100"`
	ClassCode string `json:"class_code" gorm:"uniqueIndex;not null;size:12"`
	TeacherID string `json:"teacher_id" gorm:"not null;index;size:255"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`

	// Relations
	Teacher     User         `json:"teacher,omitempty" gorm:"foreignKey:TeacherID"`
	Quizzes     []Quiz       `json:"quizzes,omitempty" gorm:"foreignKey:ClassID"`
	Enrollments []Enrollment `json:"enrollments,omitempty" gorm:"foreignKey:ClassID"`

	// Computed fields (not stored)
	StudentCount int `json:"student_count" gorm:"-"`
	QuizCount    int `json:"quiz_count" gorm:"-"`
}

func (Class) TableName() string {
	return "classes"
}

type Enrollment struct {
	ID      uint   `json:"id" gorm:"primaryKey"`
	UserID  string `json:"user_id" gorm:"not null;size:255;uniqueIndex:idx_enrollment_user_class"`
	ClassID uint   `json:"class_id" gorm:"not null;uniqueIndex:idx_enrollment_user_class;index"`

	CreatedAt time.Time `json:"created_at"`

	// Relations
	User  User  `json:"user,omitempty" gorm:"foreignKey:UserID"`
	Class Class `json:"class,omitempty" gorm:"foreignKey:ClassID;constraint:OnDelete:CASCADE"`
}

func (Enrollment) TableName() string {
	return "enrollments"
}
