package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/taskwall/taskwall/pkg/apperr"
)

func TestUsername(t *testing.T) {
	assert.NoError(t, Username("someuser"))

	requireFieldError(t, Username(""),
		"username", "Username cannot be empty.", apperr.CodeBlank, 400)
	requireFieldError(t, Username("abcd"),
		"username", "Ensure this field has at least 5 characters.", apperr.CodeMinLength, 400)
	requireFieldError(t, Username(strings.Repeat("u", 36)),
		"username", "Username cannot be longer than 35 characters.", apperr.CodeMaxLength, 400)
	assert.NoError(t, Username(strings.Repeat("u", 35)))
}

func TestPassword(t *testing.T) {
	assert.NoError(t, Password("password123"))

	requireFieldError(t, Password(""),
		"password", "Password cannot be empty.", apperr.CodeBlank, 400)
	requireFieldError(t, Password("short12"),
		"password", "Ensure this field has at least 8 characters.", apperr.CodeMinLength, 400)
	requireFieldError(t, Password(strings.Repeat("p", 256)),
		"password", "Password cannot be longer than 255 characters.", apperr.CodeMaxLength, 400)
}

func TestPasswordConfirmation(t *testing.T) {
	assert.NoError(t, PasswordConfirmation("password123", "password123"))

	requireFieldError(t, PasswordConfirmation("password123", ""),
		"password_confirmation", "Password confirmation cannot be empty.", apperr.CodeBlank, 400)
	requireFieldError(t, PasswordConfirmation("password123", "password124"),
		"password_confirmation", "Confirmation must match the password.", apperr.CodeNoMatch, 400)
}

func TestBoardName(t *testing.T) {
	assert.NoError(t, BoardName("Sprint Board"))

	requireFieldError(t, BoardName(""),
		"name", "Board name cannot be empty.", apperr.CodeBlank, 400)
	requireFieldError(t, BoardName(strings.Repeat("b", 36)),
		"name", "Ensure this field has no more than 35 characters.", apperr.CodeMaxLength, 400)
}

func TestTaskTitle(t *testing.T) {
	assert.NoError(t, TaskTitle("Do the thing"))

	requireFieldError(t, TaskTitle(""),
		"title", "Title cannot be empty.", apperr.CodeBlank, 400)
	requireFieldError(t, TaskTitle(strings.Repeat("t", 51)),
		"title", "Title cannot be longer than 50 characters.", apperr.CodeMaxLength, 400)
	assert.NoError(t, TaskTitle(strings.Repeat("t", 50)))
}

func TestSubtaskTitle(t *testing.T) {
	assert.NoError(t, SubtaskTitle("subtask.title", "Do part of the thing"))

	// The field key follows the caller's context.
	requireFieldError(t, SubtaskTitle("subtask.title", ""),
		"subtask.title", "Subtask title cannot be empty.", apperr.CodeBlank, 400)
	requireFieldError(t, SubtaskTitle("subtasks.title", strings.Repeat("s", 51)),
		"subtasks.title", "Subtask titles cannot be longer than 50 characters.", apperr.CodeMaxLength, 400)
}

func TestIsActive(t *testing.T) {
	active, err := IsActive(true)
	assert.NoError(t, err)
	assert.True(t, active)

	active, err = IsActive(false)
	assert.NoError(t, err)
	assert.False(t, active)

	_, err = IsActive(nil)
	requireFieldError(t, err, "is_active", "Is Active cannot be empty.", apperr.CodeBlank, 400)

	_, err = IsActive("")
	requireFieldError(t, err, "is_active", "Is Active cannot be empty.", apperr.CodeBlank, 400)

	_, err = IsActive("yes")
	requireFieldError(t, err, "is_active", "Is Active must be a boolean.", apperr.CodeInvalid, 400)
}
