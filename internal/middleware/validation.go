package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// FieldError reports one failed validation rule on one request field.
type FieldError struct {
	Field  string `json:"field"`
	Rule   string `json:"rule"`
	Detail string `json:"detail"`
}

type errorResponse struct {
	Message string       `json:"message"`
	Fields  []FieldError `json:"fields,omitempty"`
}

// ValidateRequest runs struct-tag validation and maps each failure to a
// caller-facing field error. Returns nil when the request is valid.
func ValidateRequest(obj any) []FieldError {
	err := validate.Struct(obj)
	if err == nil {
		return nil
	}

	failures := err.(validator.ValidationErrors)
	fieldErrors := make([]FieldError, 0, len(failures))
	for _, failure := range failures {
		fieldErrors = append(fieldErrors, FieldError{
			Field:  failure.Field(),
			Rule:   failure.Tag(),
			Detail: ruleDetail(failure),
		})
	}
	return fieldErrors
}

func ruleDetail(failure validator.FieldError) string {
	switch failure.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "len":
		return "must be exactly " + failure.Param() + " characters"
	case "numeric":
		return "must contain only digits"
	case "datetime":
		return "must use the " + failure.Param() + " date format"
	case "min":
		return "must be at least " + failure.Param() + " characters"
	case "max":
		return "must be at most " + failure.Param() + " characters"
	case "gt":
		return "must be greater than " + failure.Param()
	default:
		return "is invalid"
	}
}

func RespondWithValidationError(c *gin.Context, fieldErrors []FieldError) {
	c.JSON(http.StatusBadRequest, errorResponse{
		Message: "Request validation failed",
		Fields:  fieldErrors,
	})
}

func RespondWithError(c *gin.Context, code int, message string) {
	c.JSON(code, errorResponse{Message: message})
}
