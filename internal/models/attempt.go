package models

import (
	"time"
)

// Result is the aggregate summary for one attempt. Rows are write-once:
// created inside the grading transaction and never updated afterward.
// The composite unique index backs retry-on-conflict attempt numbering.
type Result struct {
	ID            uint    `json:"id" gorm:"primaryKey"`
	UserID        string  `json:"user_id" gorm:"not null;size:255;uniqueIndex:idx_result_attempt"`
	QuizID        uint    `json:"quiz_id" gorm:"not null;uniqueIndex:idx_result_attempt;index"`
	AttemptNumber int     `json:"attempt_number" gorm:"not null;default:1;uniqueIndex:idx_result_attempt"`
	TotalScore    int     `json:"total_score" gorm:"not null"`
	Percentage    float64 `json:"percentage" gorm:"not null;type:decimal(5,2)"`

	CompletedAt time.Time `json:"completed_at" gorm:"not null;index"`

	// Relations
	User User `json:"user,omitempty" gorm:"foreignKey:UserID"`
	Quiz Quiz `json:"quiz,omitempty" gorm:"foreignKey:QuizID;constraint:OnDelete:CASCADE"`
}

func (Result) TableName() string {
	return "results"
}

// Response records the selection for one question within one attempt.
// SelectedOptionID is nil when the question was left unanswered; a row
// exists for every question in the quiz regardless.
type Response struct {
	ID               uint   `json:"id" gorm:"primaryKey"`
	UserID           string `json:"user_id" gorm:"not null;size:255;index:idx_response_attempt"`
	QuizID           uint   `json:"quiz_id" gorm:"not null;index:idx_response_attempt"`
	QuestionID       uint   `json:"question_id" gorm:"not null;index"`
	AttemptNumber    int    `json:"attempt_number" gorm:"not null;default:1;index:idx_response_attempt"`
	SelectedOptionID *uint  `json:"selected_option_id"`

	CreatedAt time.Time `json:"created_at"`

	// Relations
	Question       Question `json:"question,omitempty" gorm:"foreignKey:QuestionID;constraint:OnDelete:CASCADE"`
	SelectedOption *Option  `json:"selected_option,omitempty" gorm:"foreignKey:SelectedOptionID"`
}

func (Response) TableName() string {
	return "responses"
}

// Answered reports whether the student actually picked an option.
func (r *Response) Answered() bool {
	return r.SelectedOptionID != nil
}
