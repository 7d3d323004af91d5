package api

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListUsers(t *testing.T) {
	s := newTestServer(t)
	admin := register(t, s, "adminuser", "")
	member := register(t, s, "memberuser", inviteCode(t, s, admin))

	rec := do(t, s, http.MethodGet, "/users?team_id="+itoa(admin.TeamID), member, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	users := decodeList(t, rec)
	require.Len(t, users, 2)

	// Without a board_id the membership flag stays null.
	for _, raw := range users {
		entry := raw.(map[string]interface{})
		assert.Nil(t, entry["isActive"])
	}
}

func TestListUsersWithBoard(t *testing.T) {
	s := newTestServer(t)
	admin := register(t, s, "adminuser", "")
	register(t, s, "memberuser", inviteCode(t, s, admin))

	rec := do(t, s, http.MethodGet, "/boards?team_id="+itoa(admin.TeamID), admin, nil)
	boardID := itoa(int64(decodeList(t, rec)[0].(map[string]interface{})["id"].(float64)))

	rec = do(t, s, http.MethodGet,
		"/users?team_id="+itoa(admin.TeamID)+"&board_id="+boardID, admin, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	active := map[string]bool{}
	for _, raw := range decodeList(t, rec) {
		entry := raw.(map[string]interface{})
		active[entry["username"].(string)] = entry["isActive"].(bool)
	}
	// The admin was attached at provisioning; the member was not.
	assert.True(t, active["adminuser"])
	assert.False(t, active["memberuser"])
}

func TestListUsersCrossTeamMasked(t *testing.T) {
	s := newTestServer(t)
	admin := register(t, s, "adminuser", "")
	outsider := register(t, s, "outsideradmin", "")

	rec := do(t, s, http.MethodGet, "/users?team_id="+itoa(admin.TeamID), outsider, nil)
	require.Equal(t, http.StatusForbidden, rec.Code)
	_, code := fieldError(t, rec, "auth")
	assert.Equal(t, "not_authenticated", code)
}

func TestToggleBoardMembershipValidation(t *testing.T) {
	s := newTestServer(t)
	admin := register(t, s, "adminuser", "")
	member := register(t, s, "memberuser", inviteCode(t, s, admin))

	rec := do(t, s, http.MethodGet, "/boards?team_id="+itoa(admin.TeamID), admin, nil)
	boardID := int64(decodeList(t, rec)[0].(map[string]interface{})["id"].(float64))

	// Members cannot toggle.
	rec = do(t, s, http.MethodPost, "/users", member, map[string]interface{}{
		"username": member.Username, "board_id": boardID, "is_active": true,
	})
	require.Equal(t, http.StatusForbidden, rec.Code)
	_, code := fieldError(t, rec, "auth")
	assert.Equal(t, "not_authorized", code)

	rec = do(t, s, http.MethodPost, "/users", admin, map[string]interface{}{
		"username": "ghostuser", "board_id": boardID, "is_active": true,
	})
	require.Equal(t, http.StatusNotFound, rec.Code)
	msg, _ := fieldError(t, rec, "username")
	assert.Equal(t, "User not found.", msg)

	rec = do(t, s, http.MethodPost, "/users", admin, map[string]interface{}{
		"username": member.Username, "board_id": boardID,
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	msg, code = fieldError(t, rec, "is_active")
	assert.Equal(t, "Is Active cannot be empty.", msg)
	assert.Equal(t, "blank", code)

	rec = do(t, s, http.MethodPost, "/users", admin, map[string]interface{}{
		"username": member.Username, "board_id": boardID, "is_active": "yes",
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	msg, code = fieldError(t, rec, "is_active")
	assert.Equal(t, "Is Active must be a boolean.", msg)
	assert.Equal(t, "invalid", code)
}

func TestDeleteUser(t *testing.T) {
	s := newTestServer(t)
	admin := register(t, s, "adminuser", "")
	member := register(t, s, "memberuser", inviteCode(t, s, admin))

	// Team leaders are not deletable.
	rec := do(t, s, http.MethodDelete, "/users?username="+admin.Username, admin, nil)
	require.Equal(t, http.StatusForbidden, rec.Code)
	msg, code := fieldError(t, rec, "username")
	assert.Equal(t, "Team leaders cannot be deleted from their teams.", msg)
	assert.Equal(t, "forbidden", code)

	rec = do(t, s, http.MethodDelete, "/users?username="+member.Username, admin, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "Member has been deleted successfully.", decodeBody(t, rec)["msg"])

	// The deleted member's credentials stop working immediately.
	rec = do(t, s, http.MethodGet, "/users?team_id="+itoa(member.TeamID), member, nil)
	require.Equal(t, http.StatusForbidden, rec.Code)
	_, code = fieldError(t, rec, "auth")
	assert.Equal(t, "not_authenticated", code)
}
