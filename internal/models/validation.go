package models

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

const maxNameLength = 40

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// ValidationError represents a validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateName checks if a profile name is valid
func ValidateName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ValidationError{Field: "name", Message: "name is required"}
	}
	if utf8.RuneCountInString(name) > maxNameLength {
		return ValidationError{Field: "name", Message: fmt.Sprintf("name must be at most %d characters", maxNameLength)}
	}
	return nil
}

// ValidateTask checks the text of a study task
func ValidateTask(task string) error {
	if strings.TrimSpace(task) == "" {
		return ValidationError{Field: "task", Message: "task is required"}
	}
	return nil
}

// ValidateEmail checks a report recipient address
func ValidateEmail(email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return ValidationError{Field: "to", Message: "recipient is required"}
	}
	if !emailRegex.MatchString(email) {
		return ValidationError{Field: "to", Message: "invalid email format"}
	}
	return nil
}
