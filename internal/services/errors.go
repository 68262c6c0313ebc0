package services

import (
	"errors"
	"fmt"
	"strings"
)

// ===== SENTINEL ERRORS =====

var (
	// Generic
	ErrNotFound         = errors.New("resource not found")
	ErrUnauthorized     = errors.New("unauthorized")
	ErrForbidden        = errors.New("forbidden")
	ErrConflict         = errors.New("conflict")
	ErrBadRequest       = errors.New("bad request")
	ErrValidationFailed = errors.New("validation failed")

	// User domain
	ErrUserNotFound            = errors.New("user not found")
	ErrInsufficientPermissions = errors.New("insufficient permissions")

	// Class domain
	ErrClassNotFound     = errors.New("class not found")
	ErrInvalidClassCode  = errors.New("invalid class code")
	ErrAlreadyEnrolled   = errors.New("already enrolled in class")
	ErrNotEnrolled       = errors.New("not enrolled in class")
	ErrClassAccessDenied = errors.New("class access denied")

	// Quiz domain
	ErrQuizNotFound     = errors.New("quiz not found")
	ErrQuizAccessDenied = errors.New("quiz access denied")
	ErrQuestionNotFound = errors.New("question not found")
	ErrOptionNotFound   = errors.New("option not found")

	// Draft wizard
	ErrDraftNotFound  = errors.New("quiz draft not found")
	ErrDraftCompleted = errors.New("quiz draft already completed")
	ErrDraftNotReady  = errors.New("quiz draft has unanswered steps")

	// Attempt domain
	ErrQuizNotReady    = errors.New("no questions available")
	ErrResultNotFound  = errors.New("result not found")
	ErrAttemptConflict = errors.New("attempt number conflict")
	ErrInvalidOption   = errors.New("selected option does not belong to question")
	ErrInvalidQuestion = errors.New("question does not belong to quiz")

	// AI tutor
	ErrAIUnavailable = errors.New("ai tutor unavailable")
)

// ===== TYPED ERRORS =====

// ValidationError represents a single field validation failure
type ValidationError struct {
	Field   string      `json:"field"`
	Message string      `json:"message"`
	Value   interface{} `json:"value,omitempty"`
	Rule    string      `json:"rule,omitempty"`
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationErrors aggregates field validation failures
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return "validation failed"
	}
	msgs := make([]string, len(e))
	for i, v := range e {
		msgs[i] = v.Error()
	}
	return strings.Join(msgs, "; ")
}

func (e ValidationErrors) Is(target error) bool {
	return target == ErrValidationFailed
}

// PermissionError carries the denied resource and action for logging
// and the handler's 403 payload
type PermissionError struct {
	UserID     string `json:"user_id"`
	ResourceID uint   `json:"resource_id"`
	Resource   string `json:"resource"`
	Action     string `json:"action"`
	Reason     string `json:"reason"`
}

func (e *PermissionError) Error() string {
	return fmt.Sprintf("permission denied: user %s cannot %s %s %d: %s",
		e.UserID, e.Action, e.Resource, e.ResourceID, e.Reason)
}

func (e *PermissionError) Is(target error) bool {
	return target == ErrForbidden
}

func NewPermissionError(userID string, resourceID uint, resource, action, reason string) *PermissionError {
	return &PermissionError{
		UserID:     userID,
		ResourceID: resourceID,
		Resource:   resource,
		Action:     action,
		Reason:     reason,
	}
}

// BusinessRuleError represents a domain rule violation (422)
type BusinessRuleError struct {
	Rule    string                 `json:"rule"`
	Message string                 `json:"message"`
	Context map[string]interface{} `json:"context,omitempty"`
}

func (e *BusinessRuleError) Error() string {
	return fmt.Sprintf("business rule %s violated: %s", e.Rule, e.Message)
}

func NewBusinessRuleError(rule, message string, context map[string]interface{}) *BusinessRuleError {
	return &BusinessRuleError{
		Rule:    rule,
		Message: message,
		Context: context,
	}
}
