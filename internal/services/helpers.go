package services

import (
	"math"

	"github.com/athul-jose00/Smart-Quiz-Portal-sub000/internal/validator"
)

// toValidationErrors converts validator field errors into the service
// error type handlers know how to render.
func toValidationErrors(fieldErrors []validator.FieldError) ValidationErrors {
	errs := make(ValidationErrors, 0, len(fieldErrors))
	for _, fe := range fieldErrors {
		errs = append(errs, ValidationError{
			Field:   fe.Field,
			Message: fe.Message,
			Value:   fe.Value,
			Rule:    fe.Rule,
		})
	}
	return errs
}

func roundFloat(val float64, precision int) float64 {
	ratio := math.Pow(10, float64(precision))
	return math.Round(val*ratio) / ratio
}

// gradeLetter maps a percentage to the portal's letter scale.
func gradeLetter(percentage float64) string {
	switch {
	case percentage >= 90:
		return "A"
	case percentage >= 80:
		return "B"
	case percentage >= 70:
		return "C"
	case percentage >= 60:
		return "D"
	default:
		return "F"
	}
}
