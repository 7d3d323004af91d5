package access

import (
	"context"

	"github.com/taskwall/taskwall/pkg/apperr"
	"github.com/taskwall/taskwall/pkg/models"
	"github.com/taskwall/taskwall/pkg/storage"
)

// CheckTeam compares an entity's owning team to the caller's team. A
// mismatch is always the generic authentication failure, never a 404 or an
// authorization failure, so the existence of foreign-team resources is never
// leaked.
func CheckTeam(entityTeamID, callerTeamID int64) error {
	if entityTeamID != callerTeamID {
		return apperr.NotAuthenticated()
	}
	return nil
}

// ColumnTeamID resolves a column's owning team through its board.
func ColumnTeamID(ctx context.Context, s storage.Store, column *models.Column) (int64, error) {
	board, err := s.GetBoard(ctx, column.BoardID)
	if err != nil {
		return 0, err
	}
	return board.TeamID, nil
}

// TaskTeamID resolves a task's owning team through column and board.
func TaskTeamID(ctx context.Context, s storage.Store, task *models.Task) (int64, error) {
	column, err := s.GetColumn(ctx, task.ColumnID)
	if err != nil {
		return 0, err
	}
	return ColumnTeamID(ctx, s, column)
}

// SubtaskTeamID resolves a subtask's owning team through the full chain.
func SubtaskTeamID(ctx context.Context, s storage.Store, subtask *models.Subtask) (int64, error) {
	task, err := s.GetTask(ctx, subtask.TaskID)
	if err != nil {
		return 0, err
	}
	return TaskTeamID(ctx, s, task)
}

// IsAssignee reports whether the user is the task's current assignee.
func IsAssignee(user *models.User, task *models.Task) bool {
	return task.Assignee != nil && *task.Assignee == user.Username
}

// TaskTier computes the caller's tier relative to a task: admin, the task's
// assignee, or a plain member.
func TaskTier(user *models.User, task *models.Task) Tier {
	switch {
	case user.IsAdmin:
		return TierAdmin
	case IsAssignee(user, task):
		return TierAssignee
	default:
		return TierMember
	}
}

// BoardTier computes the caller's tier relative to a board.
func BoardTier(ctx context.Context, s storage.Store, user *models.User, board *models.Board) (Tier, error) {
	if user.IsAdmin {
		return TierAdmin, nil
	}
	member, err := s.IsBoardMember(ctx, board.ID, user.Username)
	if err != nil {
		return TierAnonymous, err
	}
	if member {
		return TierBoardMember, nil
	}
	return TierMember, nil
}
