package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Quiz struct {
	ID        uint   `json:"id" gorm:"primaryKey"`
	Title     string `json:"title" gorm:"not null;size:200;index" validate:"required,min=1,max=200"`
	TimeLimit int    `json:"time_limit" gorm:"not null" validate:"required,min=1,max=300"` // minutes
	ClassID   uint   `json:"class_id" gorm:"not null;index"`
	CreatedBy string `json:"created_by" gorm:"not null;index;size:255"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`

	// Relations
	Class     Class      `json:"class,omitempty" gorm:"foreignKey:ClassID;constraint:OnDelete:CASCADE"`
	Creator   User       `json:"creator,omitempty" gorm:"foreignKey:CreatedBy"`
	Questions []Question `json:"questions,omitempty" gorm:"foreignKey:QuizID"`

	// Computed fields (not stored)
	QuestionCount int `json:"question_count" gorm:"-"`
	TotalPoints   int `json:"total_points" gorm:"-"`
	AttemptCount  int `json:"attempt_count" gorm:"-"`
}

func (Quiz) TableName() string {
	return "quizzes"
}

type Question struct {
	ID           uint   `json:"id" gorm:"primaryKey"`
	QuizID       uint   `json:"quiz_id" gorm:"not null;index"`
	QuestionText string `json:"question_text" gorm:"type:text;not null" validate:"required,min=1"`
	Points       int    `json:"points" gorm:"not null;default:1" validate:"required,min=1,max=100"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	Quiz    Quiz     `json:"quiz,omitempty" gorm:"foreignKey:QuizID;constraint:OnDelete:CASCADE"`
	Options []Option `json:"options,omitempty" gorm:"foreignKey:QuestionID"`
}

func (Question) TableName() string {
	return "questions"
}

// CorrectOption returns the option flagged correct, or nil when the
// question has none. Grading assumes exactly one.
func (q *Question) CorrectOption() *Option {
	for i := range q.Options {
		if q.Options[i].IsCorrect {
			return &q.Options[i]
		}
	}
	return nil
}

type Option struct {
	ID         uint   `json:"id" gorm:"primaryKey"`
	QuestionID uint   `json:"question_id" gorm:"not null;index"`
	OptionText string `json:"option_text" gorm:"type:text;not null" validate:"required,min=1"`
	IsCorrect  bool   `json:"is_correct" gorm:"not null;default:false"`

	// Relations
	Question Question `json:"question,omitempty" gorm:"foreignKey:QuestionID;constraint:OnDelete:CASCADE"`
}

func (Option) TableName() string {
	return "options"
}

type QuizDraftStatus string

const (
	DraftActive    QuizDraftStatus = "active"
	DraftCompleted QuizDraftStatus = "completed"
	DraftAbandoned QuizDraftStatus = "abandoned"
)

// QuizDraft is the server-side state of the multi-step quiz creation
// wizard. Each draft is an independent row, so a teacher building two
// quizzes in two tabs cannot corrupt either flow.
type QuizDraft struct {
	ID              uint            `json:"id" gorm:"primaryKey"`
	TeacherID       string          `json:"teacher_id" gorm:"not null;index;size:255"`
	ClassID         uint            `json:"class_id" gorm:"not null;index"`
	Title           string          `json:"title" gorm:"not null;size:200" validate:"required,min=1,max=200"`
	TimeLimit       int             `json:"time_limit" gorm:"not null" validate:"required,min=1,max=300"`
	QuestionCount   int             `json:"question_count" gorm:"not null" validate:"required,min=1,max=50"`
	CurrentQuestion int             `json:"current_question" gorm:"not null;default:1"`
	Status          QuizDraftStatus `json:"status" gorm:"not null;default:active;index"`

	// Questions authored so far, kept as a JSONB document until the
	// final step materializes real Question/Option rows.
	Questions datatypes.JSON `json:"questions" gorm:"type:jsonb"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	Teacher User  `json:"teacher,omitempty" gorm:"foreignKey:TeacherID"`
	Class   Class `json:"class,omitempty" gorm:"foreignKey:ClassID"`
}

func (QuizDraft) TableName() string {
	return "quiz_drafts"
}

// DraftQuestion is the JSONB shape stored in QuizDraft.Questions.
type DraftQuestion struct {
	QuestionText string        `json:"question_text" validate:"required,min=1"`
	Points       int           `json:"points" validate:"required,min=1,max=100"`
	Options      []DraftOption `json:"options" validate:"required,min=2,max=6,dive"`
}

type DraftOption struct {
	OptionText string `json:"option_text" validate:"required,min=1"`
	IsCorrect  bool   `json:"is_correct"`
}
