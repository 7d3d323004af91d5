// Package provision creates dependent resources as a unit and maintains the
// ordering invariants of the resource tree: a new board always owns exactly
// four columns, a new task enters at the head of its column with every
// sibling shifted down, and bulk column patches validate every item before
// any write.
package provision

import (
	"context"
	"fmt"
	"sync"

	"github.com/taskwall/taskwall/pkg/access"
	"github.com/taskwall/taskwall/pkg/apperr"
	"github.com/taskwall/taskwall/pkg/models"
	"github.com/taskwall/taskwall/pkg/observability"
	"github.com/taskwall/taskwall/pkg/storage"
	"github.com/taskwall/taskwall/pkg/validation"
)

// DefaultColumnCount is the number of columns provisioned with every board.
const DefaultColumnCount = 4

// DefaultBoardName is the name of the board auto-provisioned for an admin
// whose team has none.
const DefaultBoardName = "New Board"

// Engine provisions aggregates and serializes order-mutating operations
// per column. Two concurrent task insertions into the same column would
// otherwise race on the shift-then-insert sequence.
type Engine struct {
	store storage.Store
	log   *observability.Logger

	mu      sync.Mutex
	colLock map[int64]*columnLock
}

// columnLock is a reference-counted mutex entry. The last holder to release
// removes it from the map, so deleted columns do not pin mutexes forever.
type columnLock struct {
	sync.Mutex
	refs int
}

// NewEngine creates a provisioning engine.
func NewEngine(store storage.Store, log *observability.Logger) *Engine {
	return &Engine{
		store:   store,
		log:     log,
		colLock: make(map[int64]*columnLock),
	}
}

func (e *Engine) lockColumn(id int64) func() {
	e.mu.Lock()
	l, ok := e.colLock[id]
	if !ok {
		l = &columnLock{}
		e.colLock[id] = l
	}
	l.refs++
	e.mu.Unlock()

	l.Lock()
	return func() {
		l.Unlock()
		e.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(e.colLock, id)
		}
		e.mu.Unlock()
	}
}

// CreateBoard validates the name, persists the board, attaches the team's
// admin as a board member, and creates the four default columns. The whole
// aggregate commits or rolls back as one transaction.
func (e *Engine) CreateBoard(ctx context.Context, teamID int64, name string) (*models.Board, error) {
	if err := validation.BoardName(name); err != nil {
		return nil, err
	}

	board := &models.Board{TeamID: teamID, Name: name}
	err := e.store.RunInTx(ctx, func(tx storage.Store) error {
		if err := tx.CreateBoard(ctx, board); err != nil {
			return err
		}

		admin, err := tx.GetTeamAdmin(ctx, teamID)
		if err != nil {
			return fmt.Errorf("team %d has no admin: %w", teamID, err)
		}
		if err := tx.AddBoardMember(ctx, board.ID, admin.Username); err != nil {
			return err
		}

		for order := 0; order < DefaultColumnCount; order++ {
			column := &models.Column{BoardID: board.ID, Order: order}
			if err := tx.CreateColumn(ctx, column); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.log.WithField("board_id", board.ID).WithField("team_id", teamID).
		Info("provisioned board with default columns")
	return board, nil
}

// EnsureColumns returns a board's columns, provisioning the four defaults if
// none exist. Reads that land here are mutations; the provisioning is
// explicit and logged rather than hidden in the query path.
func (e *Engine) EnsureColumns(ctx context.Context, boardID int64) ([]models.Column, error) {
	columns, err := e.store.ListBoardColumns(ctx, boardID)
	if err != nil {
		return nil, err
	}
	if len(columns) > 0 {
		return columns, nil
	}

	columns = make([]models.Column, 0, DefaultColumnCount)
	err = e.store.RunInTx(ctx, func(tx storage.Store) error {
		for order := 0; order < DefaultColumnCount; order++ {
			column := models.Column{BoardID: boardID, Order: order}
			if err := tx.CreateColumn(ctx, &column); err != nil {
				return err
			}
			columns = append(columns, column)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.log.WithField("board_id", boardID).Info("provisioned default columns on read")
	return columns, nil
}

// InsertTask inserts a task at the head of a column: every existing sibling
// shifts down by one and the new task takes order 0. Subtasks are created in
// the same transaction, so an invalid subtask rolls the task back.
func (e *Engine) InsertTask(ctx context.Context, columnID int64, title, description string, subtaskTitles []string) (*models.Task, error) {
	if err := validation.TaskTitle(title); err != nil {
		return nil, err
	}
	for _, st := range subtaskTitles {
		if err := validation.SubtaskTitle("subtask.title", st); err != nil {
			return nil, err
		}
	}

	unlock := e.lockColumn(columnID)
	defer unlock()

	task := &models.Task{ColumnID: columnID, Title: title, Description: description, Order: 0}
	err := e.store.RunInTx(ctx, func(tx storage.Store) error {
		if err := tx.ShiftColumnTasks(ctx, columnID, 1); err != nil {
			return err
		}
		if err := tx.CreateTask(ctx, task); err != nil {
			return err
		}
		for i, st := range subtaskTitles {
			subtask := &models.Subtask{TaskID: task.ID, Title: st, Order: i}
			if err := tx.CreateSubtask(ctx, subtask); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return task, nil
}

// SubtaskItem is one replacement subtask in a task patch.
type SubtaskItem struct {
	Title string `json:"title"`
	Order int    `json:"order"`
	Done  bool   `json:"done"`
}

// ReplaceSubtasks deletes every existing subtask of the task and recreates
// the set from the payload. This is replacement, not a merge: nothing of the
// previous set survives.
func (e *Engine) ReplaceSubtasks(ctx context.Context, taskID int64, items []SubtaskItem) error {
	for _, item := range items {
		if err := validation.SubtaskTitle("subtasks.title", item.Title); err != nil {
			return err
		}
	}

	return e.store.RunInTx(ctx, func(tx storage.Store) error {
		if err := tx.DeleteTaskSubtasks(ctx, taskID); err != nil {
			return err
		}
		for _, item := range items {
			subtask := &models.Subtask{
				TaskID: taskID,
				Title:  item.Title,
				Order:  item.Order,
				Done:   item.Done,
			}
			if err := tx.CreateSubtask(ctx, subtask); err != nil {
				return err
			}
		}
		return nil
	})
}

// TaskPatch is one item of a bulk column patch. RawID is required; the
// remaining fields apply only when set.
type TaskPatch struct {
	RawID       string
	Title       *string
	Description *string
	Order       *int
	Assignee    *string
}

// BulkPatchColumn applies a set of task patches targeting one column.
// Every item is validated and authorized before anything is written: each
// task must belong to the caller's team, and the caller must be an admin,
// or the task's current assignee, or the task must currently live in a
// different column than the target. Once validation passes the patches
// apply sequentially; beyond the ordering there is no all-or-nothing
// guarantee.
func (e *Engine) BulkPatchColumn(ctx context.Context, caller *models.User, column *models.Column, patches []TaskPatch) error {
	tasks := make([]*models.Task, len(patches))
	for i, patch := range patches {
		if patch.RawID == "" {
			return apperr.Blank("task.id", "Task ID cannot be empty.")
		}
		task, err := validation.ResolveTask(ctx, e.store, patch.RawID)
		if err != nil {
			return err
		}

		// A task id belonging to another team reads as an authentication
		// failure, like any other foreign reference.
		teamID, err := access.TaskTeamID(ctx, e.store, task)
		if err != nil {
			return err
		}
		if err := access.CheckTeam(teamID, caller.TeamID); err != nil {
			return err
		}

		if !caller.IsAdmin && !access.IsAssignee(caller, task) && task.ColumnID == column.ID {
			return apperr.NotAuthorized()
		}

		if patch.Title != nil {
			if err := validation.TaskTitle(*patch.Title); err != nil {
				return err
			}
		}
		if patch.Assignee != nil && *patch.Assignee != "" {
			// Foreign usernames read the same as unknown ones.
			assignee, err := e.store.GetUser(ctx, *patch.Assignee)
			if err != nil || assignee.TeamID != caller.TeamID {
				return &apperr.Error{
					Field:  "user",
					Msg:    "User does not exist.",
					Code:   apperr.CodeDoesNotExist,
					Status: 400,
				}
			}
		}
		tasks[i] = task
	}

	unlock := e.lockColumn(column.ID)
	defer unlock()

	for i, patch := range patches {
		task := tasks[i]
		task.ColumnID = column.ID
		if patch.Title != nil {
			task.Title = *patch.Title
		}
		if patch.Description != nil {
			task.Description = *patch.Description
		}
		if patch.Order != nil {
			task.Order = *patch.Order
		}
		if patch.Assignee != nil {
			if *patch.Assignee == "" {
				task.Assignee = nil
			} else {
				assignee := *patch.Assignee
				task.Assignee = &assignee
			}
		}
		if err := e.store.UpdateTask(ctx, task); err != nil {
			return err
		}
	}
	return nil
}
