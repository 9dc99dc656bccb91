// Package validation provides input validation utilities
package validation

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"

	"jobtracker/internal/models"

	"github.com/go-playground/validator/v10"
)

var (
	once     sync.Once
	validate *validator.Validate

	usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_.-]+$`)
)

// Validator returns the shared validator with the domain tags registered.
func Validator() *validator.Validate {
	once.Do(func() {
		validate = validator.New()
		_ = validate.RegisterValidation("job_status", oneOf(models.JobStatuses))
		_ = validate.RegisterValidation("sentiment", oneOf(models.Sentiments))
		_ = validate.RegisterValidation("document_type", oneOf(models.DocumentTypes))
	})
	return validate
}

func oneOf(values []string) validator.Func {
	return func(fl validator.FieldLevel) bool {
		return models.Contains(values, fl.Field().String())
	}
}

// Struct validates v and converts the first failure into a validation AppError.
func Struct(v any) error {
	err := Validator().Struct(v)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		return models.NewValidationError(describe(fieldErrs[0]))
	}
	return models.NewValidationError(err.Error())
}

func describe(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "max":
		return fmt.Sprintf("%s must not exceed %s characters", field, fe.Param())
	case "email":
		return fmt.Sprintf("%s must be a valid email address", field)
	case "url":
		return fmt.Sprintf("%s must be a valid URL", field)
	case "datetime":
		return fmt.Sprintf("%s must be a date formatted YYYY-MM-DD", field)
	case "job_status":
		return fmt.Sprintf("%s must be one of: %s", field, strings.Join(models.JobStatuses, ", "))
	case "sentiment":
		return fmt.Sprintf("%s must be one of: %s", field, strings.Join(models.Sentiments, ", "))
	case "document_type":
		return fmt.Sprintf("%s must be one of: %s", field, strings.Join(models.DocumentTypes, ", "))
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}

// ValidateUsername checks if a username meets requirements
func ValidateUsername(username string) error {
	if len(username) < 3 {
		return fmt.Errorf("username must be at least 3 characters long")
	}
	if len(username) > 50 {
		return fmt.Errorf("username must not exceed 50 characters")
	}
	if !usernamePattern.MatchString(username) {
		return fmt.Errorf("username can only contain letters, numbers, dots, underscores, and hyphens")
	}
	return nil
}

// ValidatePassword checks if a password meets the minimum requirements
func ValidatePassword(password string) error {
	if len(password) < 8 {
		return fmt.Errorf("password must be at least 8 characters long")
	}
	if len(password) > 72 {
		// bcrypt ignores everything past 72 bytes.
		return fmt.Errorf("password must not exceed 72 characters")
	}
	return nil
}
