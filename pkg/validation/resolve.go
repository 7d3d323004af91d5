// Package validation implements the resource resolvers and field validators
// whose messages, codes, and statuses are the API's observable contract.
//
// Every resolver applies the same three-stage check, short-circuiting at the
// first failure: blank identifier (400, code "blank"), non-numeric identifier
// (400, code "invalid"), no matching row (404, code "not_found"). Data-store
// failures pass through untagged and surface as 500s.
package validation

import (
	"context"
	"errors"
	"strconv"

	"github.com/taskwall/taskwall/pkg/apperr"
	"github.com/taskwall/taskwall/pkg/models"
	"github.com/taskwall/taskwall/pkg/storage"
)

func parseID(field, label, raw string) (int64, error) {
	if raw == "" {
		return 0, apperr.Blank(field, label+" ID cannot be empty.")
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, apperr.Invalid(field, label+" ID must be a number.")
	}
	return id, nil
}

func mapNotFound(err error, field, label string) error {
	if errors.Is(err, storage.ErrNotFound) {
		return apperr.NotFound(field, label+" not found.")
	}
	return err
}

// ResolveTeam validates a raw team id and loads the team.
func ResolveTeam(ctx context.Context, s storage.Store, raw string) (*models.Team, error) {
	id, err := parseID("team_id", "Team", raw)
	if err != nil {
		return nil, err
	}
	team, err := s.GetTeam(ctx, id)
	if err != nil {
		return nil, mapNotFound(err, "team_id", "Team")
	}
	return team, nil
}

// ResolveBoard validates a raw board id and loads the board.
func ResolveBoard(ctx context.Context, s storage.Store, raw string) (*models.Board, error) {
	id, err := parseID("board_id", "Board", raw)
	if err != nil {
		return nil, err
	}
	board, err := s.GetBoard(ctx, id)
	if err != nil {
		return nil, mapNotFound(err, "board_id", "Board")
	}
	return board, nil
}

// ResolveColumn validates a raw column id and loads the column.
func ResolveColumn(ctx context.Context, s storage.Store, raw string) (*models.Column, error) {
	id, err := parseID("column_id", "Column", raw)
	if err != nil {
		return nil, err
	}
	column, err := s.GetColumn(ctx, id)
	if err != nil {
		return nil, mapNotFound(err, "column_id", "Column")
	}
	return column, nil
}

// ResolveTask validates a raw task id and loads the task.
func ResolveTask(ctx context.Context, s storage.Store, raw string) (*models.Task, error) {
	id, err := parseID("task_id", "Task", raw)
	if err != nil {
		return nil, err
	}
	task, err := s.GetTask(ctx, id)
	if err != nil {
		return nil, mapNotFound(err, "task_id", "Task")
	}
	return task, nil
}

// ResolveSubtask validates a raw subtask id and loads the subtask. Unlike
// its four siblings the upstream resolver skipped the numeric stage; all
// five are uniform here.
func ResolveSubtask(ctx context.Context, s storage.Store, raw string) (*models.Subtask, error) {
	id, err := parseID("subtask_id", "Subtask", raw)
	if err != nil {
		return nil, err
	}
	subtask, err := s.GetSubtask(ctx, id)
	if err != nil {
		return nil, mapNotFound(err, "subtask_id", "Subtask")
	}
	return subtask, nil
}

// ResolveUsername validates a raw username and loads the user. Usernames are
// natural keys, so there is no numeric stage.
func ResolveUsername(ctx context.Context, s storage.Store, raw string) (*models.User, error) {
	if raw == "" {
		return nil, apperr.Blank("username", "Username cannot be empty.")
	}
	user, err := s.GetUser(ctx, raw)
	if err != nil {
		return nil, mapNotFound(err, "username", "User")
	}
	return user, nil
}
