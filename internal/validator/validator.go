package validator

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

// FieldError represents a single field validation failure
type FieldError struct {
	Field   string      `json:"field"`
	Message string      `json:"message"`
	Value   interface{} `json:"value,omitempty"`
	Rule    string      `json:"rule,omitempty"`
}

func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

var classCodePattern = regexp.MustCompile(`^[A-HJ-NP-Z2-9]{6}$`)

// Validator wraps go-playground/validator with portal-specific rules
type Validator struct {
	validate *validator.Validate
}

// New creates a validator with all custom rules registered
func New() *Validator {
	validate := validator.New()

	v := &Validator{validate: validate}
	v.registerBusinessRules()

	return v
}

// Validate validates a struct and returns field errors, nil when valid
func (v *Validator) Validate(s interface{}) []FieldError {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrors []FieldError
	for _, fe := range err.(validator.ValidationErrors) {
		fieldErrors = append(fieldErrors, FieldError{
			Field:   fe.Field(),
			Message: v.getErrorMessage(fe),
			Value:   fe.Value(),
			Rule:    fe.Tag(),
		})
	}
	return fieldErrors
}

// registerBusinessRules registers custom rule validators
func (v *Validator) registerBusinessRules() {
	// Quiz time limit in minutes (1-300)
	v.validate.RegisterValidation("quiz_time_limit", func(fl validator.FieldLevel) bool {
		limit := fl.Field().Int()
		return limit >= 1 && limit <= 300
	})

	// Question points (1-100)
	v.validate.RegisterValidation("points_range", func(fl validator.FieldLevel) bool {
		points := fl.Field().Int()
		return points >= 1 && points <= 100
	})

	// Quiz / class title (1-200 characters after trimming)
	v.validate.RegisterValidation("portal_title", func(fl validator.FieldLevel) bool {
		title := strings.TrimSpace(fl.Field().String())
		return len(title) >= 1 && len(title) <= 200
	})

	// Class join code (6 chars, restricted alphabet)
	v.validate.RegisterValidation("class_code", func(fl validator.FieldLevel) bool {
		code := strings.ToUpper(strings.TrimSpace(fl.Field().String()))
		return classCodePattern.MatchString(code)
	})

	// Number of wizard questions (1-50)
	v.validate.RegisterValidation("question_count", func(fl validator.FieldLevel) bool {
		count := fl.Field().Int()
		return count >= 1 && count <= 50
	})

	// Option set: exactly one correct answer
	v.validate.RegisterStructValidation(validateOptionSet, OptionSetRequest{})
}

// OptionSetRequest is validated as a whole so the one-correct-answer
// rule can see every option at once.
type OptionSetRequest struct {
	Options []OptionRequest `json:"options" validate:"required,min=2,max=6,dive"`
}

type OptionRequest struct {
	OptionText string `json:"option_text" validate:"required,min=1,max=500"`
	IsCorrect  bool   `json:"is_correct"`
}

func validateOptionSet(sl validator.StructLevel) {
	req := sl.Current().Interface().(OptionSetRequest)

	correct := 0
	for _, opt := range req.Options {
		if opt.IsCorrect {
			correct++
		}
	}
	if correct != 1 {
		sl.ReportError(req.Options, "Options", "options", "one_correct_option", "")
	}
}

// getErrorMessage maps rule tags to human-readable messages
func (v *Validator) getErrorMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "this field is required"
	case "min":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "email":
		return "must be a valid email address"
	case "quiz_time_limit":
		return "time limit must be between 1 and 300 minutes"
	case "points_range":
		return "points must be between 1 and 100"
	case "portal_title":
		return "title must be between 1 and 200 characters"
	case "class_code":
		return "class code must be 6 characters (letters and digits, no I/O/0/1)"
	case "question_count":
		return "question count must be between 1 and 50"
	case "one_correct_option":
		return "exactly one option must be marked correct"
	default:
		return fmt.Sprintf("failed validation rule %s", fe.Tag())
	}
}
