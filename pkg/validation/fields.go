package validation

import (
	"fmt"
	"net/http"

	"github.com/taskwall/taskwall/pkg/apperr"
)

const (
	usernameMinLen = 5
	usernameMaxLen = 35
	passwordMinLen = 8
	passwordMaxLen = 255
	boardNameMax   = 35
	taskTitleMax   = 50
)

func minLength(field string, n int) *apperr.Error {
	return &apperr.Error{
		Field:  field,
		Msg:    fmt.Sprintf("Ensure this field has at least %d characters.", n),
		Code:   apperr.CodeMinLength,
		Status: http.StatusBadRequest,
	}
}

func maxLength(field, msg string) *apperr.Error {
	return &apperr.Error{
		Field:  field,
		Msg:    msg,
		Code:   apperr.CodeMaxLength,
		Status: http.StatusBadRequest,
	}
}

// Username validates a username field for registration and login.
func Username(value string) error {
	if value == "" {
		return apperr.Blank("username", "Username cannot be empty.")
	}
	if len(value) < usernameMinLen {
		return minLength("username", usernameMinLen)
	}
	if len(value) > usernameMaxLen {
		return maxLength("username", "Username cannot be longer than 35 characters.")
	}
	return nil
}

// Password validates a password field.
func Password(value string) error {
	if value == "" {
		return apperr.Blank("password", "Password cannot be empty.")
	}
	if len(value) < passwordMinLen {
		return minLength("password", passwordMinLen)
	}
	if len(value) > passwordMaxLen {
		return maxLength("password", "Password cannot be longer than 255 characters.")
	}
	return nil
}

// PasswordConfirmation validates the registration confirmation field.
func PasswordConfirmation(password, confirmation string) error {
	if confirmation == "" {
		return apperr.Blank("password_confirmation", "Password confirmation cannot be empty.")
	}
	if confirmation != password {
		return &apperr.Error{
			Field:  "password_confirmation",
			Msg:    "Confirmation must match the password.",
			Code:   apperr.CodeNoMatch,
			Status: http.StatusBadRequest,
		}
	}
	return nil
}

// BoardName validates a board name.
func BoardName(value string) error {
	if value == "" {
		return apperr.Blank("name", "Board name cannot be empty.")
	}
	if len(value) > boardNameMax {
		return maxLength("name", "Ensure this field has no more than 35 characters.")
	}
	return nil
}

// TaskTitle validates a task title.
func TaskTitle(value string) error {
	if value == "" {
		return apperr.Blank("title", "Title cannot be empty.")
	}
	if len(value) > taskTitleMax {
		return maxLength("title", "Title cannot be longer than 50 characters.")
	}
	return nil
}

// SubtaskTitle validates a subtask title. The field key varies with context
// (creation nests under "subtask", task patch under "subtasks").
func SubtaskTitle(field, value string) error {
	if value == "" {
		return apperr.Blank(field, "Subtask title cannot be empty.")
	}
	if len(value) > taskTitleMax {
		return maxLength(field, "Subtask titles cannot be longer than 50 characters.")
	}
	return nil
}

// IsActive validates the board-membership toggle flag, which must be present
// and a JSON boolean.
func IsActive(value interface{}) (bool, error) {
	if value == nil || value == "" {
		return false, apperr.Blank("is_active", "Is Active cannot be empty.")
	}
	b, ok := value.(bool)
	if !ok {
		return false, apperr.Invalid("is_active", "Is Active must be a boolean.")
	}
	return b, nil
}
