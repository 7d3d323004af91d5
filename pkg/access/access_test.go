package access

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/taskwall/taskwall/pkg/apperr"
	"github.com/taskwall/taskwall/pkg/models"
)

func TestAllowed(t *testing.T) {
	tests := []struct {
		name    string
		op      Operation
		tier    Tier
		allowed bool
	}{
		{"member can list boards", OpBoardList, TierMember, true},
		{"member cannot create boards", OpBoardCreate, TierMember, false},
		{"admin can create boards", OpBoardCreate, TierAdmin, true},
		{"member cannot read a board", OpBoardRead, TierMember, false},
		{"board member can read a board", OpBoardRead, TierBoardMember, true},
		{"admin can read a board", OpBoardRead, TierAdmin, true},
		{"member cannot patch a task", OpTaskPatch, TierMember, false},
		{"assignee can patch a task", OpTaskPatch, TierAssignee, true},
		{"assignee cannot delete a task", OpTaskDelete, TierAssignee, false},
		{"member cannot read the team", OpTeamRead, TierMember, false},
		{"admin can read the team", OpTeamRead, TierAdmin, true},
		{"assignee can patch a subtask", OpSubtaskPatch, TierAssignee, true},
		{"anonymous can do nothing", OpBoardList, TierAnonymous, false},
		{"unknown operation denied", Operation("bogus"), TierAdmin, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.allowed, Allowed(tt.op, tt.tier))
		})
	}
}

func TestTierOrdering(t *testing.T) {
	assert.True(t, TierAdmin > TierAssignee)
	assert.True(t, TierAssignee > TierBoardMember)
	assert.True(t, TierBoardMember > TierMember)
	assert.True(t, TierMember > TierAnonymous)
}

func TestTierString(t *testing.T) {
	assert.Equal(t, "admin", TierAdmin.String())
	assert.Equal(t, "assignee", TierAssignee.String())
	assert.Equal(t, "board_member", TierBoardMember.String())
	assert.Equal(t, "member", TierMember.String())
	assert.Equal(t, "anonymous", TierAnonymous.String())
}

func TestCheckTeam(t *testing.T) {
	assert.NoError(t, CheckTeam(1, 1))

	err := CheckTeam(1, 2)
	assert.Error(t, err)

	// Cross-team access masquerades as an authentication failure, never an
	// authorization one.
	fieldErr, ok := err.(*apperr.Error)
	assert.True(t, ok)
	assert.Equal(t, apperr.CodeNotAuthenticated, fieldErr.Code)
	assert.Equal(t, 403, fieldErr.Status)
}

func TestIsAssignee(t *testing.T) {
	alice := "aliceuser"
	user := &models.User{Username: "aliceuser"}
	other := &models.User{Username: "bobuser"}

	assert.False(t, IsAssignee(user, &models.Task{}))
	assert.True(t, IsAssignee(user, &models.Task{Assignee: &alice}))
	assert.False(t, IsAssignee(other, &models.Task{Assignee: &alice}))
}

func TestTaskTier(t *testing.T) {
	alice := "aliceuser"
	task := &models.Task{Assignee: &alice}

	admin := &models.User{Username: "adminuser", IsAdmin: true}
	assignee := &models.User{Username: "aliceuser"}
	member := &models.User{Username: "bobuser"}

	assert.Equal(t, TierAdmin, TaskTier(admin, task))
	assert.Equal(t, TierAssignee, TaskTier(assignee, task))
	assert.Equal(t, TierMember, TaskTier(member, task))

	// An admin who is also the assignee still ranks as admin.
	adminAssignee := &models.User{Username: "aliceuser", IsAdmin: true}
	assert.Equal(t, TierAdmin, TaskTier(adminAssignee, task))
}
