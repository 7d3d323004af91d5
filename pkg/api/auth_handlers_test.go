package api

import (
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterFoundsTeam(t *testing.T) {
	s := newTestServer(t)

	admin := register(t, s, "adminuser", "")
	assert.True(t, admin.IsAdmin)
	assert.NotZero(t, admin.TeamID)
	assert.NotEmpty(t, admin.Token)
}

func TestRegisterWithInviteJoinsTeam(t *testing.T) {
	s := newTestServer(t)

	admin := register(t, s, "adminuser", "")
	code := inviteCode(t, s, admin)

	member := register(t, s, "memberuser", code)
	assert.False(t, member.IsAdmin)
	assert.Equal(t, admin.TeamID, member.TeamID)
}

func TestRegisterValidation(t *testing.T) {
	s := newTestServer(t)
	register(t, s, "adminuser", "")

	tests := []struct {
		name  string
		body  map[string]interface{}
		field string
		msg   string
		code  string
	}{
		{
			name: "blank username",
			body: map[string]interface{}{
				"username": "", "password": "password123",
				"password_confirmation": "password123",
			},
			field: "username", msg: "Username cannot be empty.", code: "blank",
		},
		{
			name: "short username",
			body: map[string]interface{}{
				"username": "abcd", "password": "password123",
				"password_confirmation": "password123",
			},
			field: "username", msg: "Ensure this field has at least 5 characters.", code: "min_length",
		},
		{
			name: "short password",
			body: map[string]interface{}{
				"username": "newcomer", "password": "short12",
				"password_confirmation": "short12",
			},
			field: "password", msg: "Ensure this field has at least 8 characters.", code: "min_length",
		},
		{
			name: "mismatched confirmation",
			body: map[string]interface{}{
				"username": "newcomer", "password": "password123",
				"password_confirmation": "password124",
			},
			field: "password_confirmation", msg: "Confirmation must match the password.", code: "no_match",
		},
		{
			name: "duplicate username",
			body: map[string]interface{}{
				"username": "adminuser", "password": "password123",
				"password_confirmation": "password123",
			},
			field: "username", msg: "User with this username already exists.", code: "unique",
		},
		{
			name: "malformed invite code",
			body: map[string]interface{}{
				"username": "newcomer", "password": "password123",
				"password_confirmation": "password123", "invite_code": "not-a-uuid",
			},
			field: "invite_code", msg: "Invalid invite code.", code: "invalid",
		},
		{
			name: "unknown invite code",
			body: map[string]interface{}{
				"username": "newcomer", "password": "password123",
				"password_confirmation": "password123", "invite_code": uuid.NewString(),
			},
			field: "invite_code", msg: "Team not found.", code: "invalid",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, s, http.MethodPost, "/register", nil, tt.body)
			require.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
			msg, code := fieldError(t, rec, tt.field)
			assert.Equal(t, tt.msg, msg)
			assert.Equal(t, tt.code, code)
		})
	}
}

func TestLogin(t *testing.T) {
	s := newTestServer(t)
	register(t, s, "adminuser", "")

	rec := do(t, s, http.MethodPost, "/login", nil, map[string]interface{}{
		"username": "adminuser", "password": "password123",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decodeBody(t, rec)
	assert.Equal(t, "Login successful.", body["msg"])
	assert.NotEmpty(t, body["token"])
	assert.Equal(t, true, body["isAdmin"])

	rec = do(t, s, http.MethodPost, "/login", nil, map[string]interface{}{
		"username": "ghostuser", "password": "password123",
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	msg, code := fieldError(t, rec, "username")
	assert.Equal(t, "Invalid username.", msg)
	assert.Equal(t, "invalid", code)

	rec = do(t, s, http.MethodPost, "/login", nil, map[string]interface{}{
		"username": "adminuser", "password": "password124",
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	msg, code = fieldError(t, rec, "password")
	assert.Equal(t, "Invalid password.", msg)
	assert.Equal(t, "invalid", code)
}

func TestVerifyToken(t *testing.T) {
	s := newTestServer(t)
	admin := register(t, s, "adminuser", "")

	rec := do(t, s, http.MethodPost, "/verify-token", nil, map[string]interface{}{
		"username": admin.Username, "token": admin.Token,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decodeBody(t, rec)
	assert.Equal(t, "Token verification success.", body["msg"])
	assert.Equal(t, admin.Username, body["username"])

	tests := []struct {
		name string
		body map[string]interface{}
	}{
		{"wrong token", map[string]interface{}{"username": admin.Username, "token": "garbage"}},
		{"unknown user", map[string]interface{}{"username": "ghostuser", "token": admin.Token}},
		{"empty body", map[string]interface{}{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, s, http.MethodPost, "/verify-token", nil, tt.body)
			require.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, "Token verification failure.", decodeBody(t, rec)["msg"])
		})
	}
}

func TestProtectedEndpointsRequireCredentials(t *testing.T) {
	s := newTestServer(t)
	admin := register(t, s, "adminuser", "")

	// No headers at all.
	rec := do(t, s, http.MethodGet, teamURL(admin.TeamID), nil, nil)
	require.Equal(t, http.StatusForbidden, rec.Code)
	msg, code := fieldError(t, rec, "auth")
	assert.Equal(t, "Authentication failure.", msg)
	assert.Equal(t, "not_authenticated", code)

	// A stale token fails the same way.
	bad := &credentials{Username: admin.Username, Token: "stale-token"}
	rec = do(t, s, http.MethodGet, teamURL(admin.TeamID), bad, nil)
	require.Equal(t, http.StatusForbidden, rec.Code)
	_, code = fieldError(t, rec, "auth")
	assert.Equal(t, "not_authenticated", code)
}
