package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/taskwall/taskwall/pkg/access"
	"github.com/taskwall/taskwall/pkg/apperr"
	"github.com/taskwall/taskwall/pkg/httputil"
	"github.com/taskwall/taskwall/pkg/provision"
	"github.com/taskwall/taskwall/pkg/validation"
)

type taskSummary struct {
	ID          int64  `json:"id"`
	Order       int    `json:"order"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

// listTasks handles GET /tasks, listing one column's tasks in display order.
func (s *Server) listTasks(w http.ResponseWriter, r *http.Request) {
	user, ok := s.authenticate(w, r)
	if !ok {
		return
	}

	ctx := r.Context()
	column, err := validation.ResolveColumn(ctx, s.store, httputil.QueryParam(r, "column_id"))
	if err != nil {
		httputil.WriteError(w, s.log, err)
		return
	}
	teamID, err := access.ColumnTeamID(ctx, s.store, column)
	if err != nil {
		httputil.WriteError(w, s.log, err)
		return
	}
	if err := access.CheckTeam(teamID, user.TeamID); err != nil {
		httputil.WriteError(w, s.log, err)
		return
	}

	tasks, err := s.store.ListColumnTasks(ctx, column.ID)
	if err != nil {
		httputil.WriteError(w, s.log, err)
		return
	}

	out := make([]taskSummary, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, taskSummary{
			ID: t.ID, Order: t.Order, Title: t.Title, Description: t.Description,
		})
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]interface{}{"tasks": out})
}

// createTask handles POST /tasks. The engine shifts the column's tasks down
// and inserts at the head; subtasks join the same transaction.
func (s *Server) createTask(w http.ResponseWriter, r *http.Request) {
	user, ok := s.authenticate(w, r)
	if !ok {
		return
	}
	if !s.authorize(w, r, user.Username) {
		return
	}

	var req struct {
		Column      interface{} `json:"column"`
		Title       string      `json:"title"`
		Description string      `json:"description"`
		Subtasks    []string    `json:"subtasks"`
	}
	if err := httputil.ParseJSON(r, &req); err != nil {
		httputil.WriteFieldError(w, apperr.Invalid("data", "Invalid request body."))
		return
	}

	ctx := r.Context()
	column, err := validation.ResolveColumn(ctx, s.store, rawParam(req.Column))
	if err != nil {
		httputil.WriteError(w, s.log, err)
		return
	}
	teamID, err := access.ColumnTeamID(ctx, s.store, column)
	if err != nil {
		httputil.WriteError(w, s.log, err)
		return
	}
	if err := access.CheckTeam(teamID, user.TeamID); err != nil {
		httputil.WriteError(w, s.log, err)
		return
	}

	task, err := s.engine.InsertTask(ctx, column.ID, req.Title, req.Description, req.Subtasks)
	if err != nil {
		httputil.WriteError(w, s.log, err)
		return
	}
	s.refreshGauges(ctx)

	httputil.WriteJSON(w, http.StatusCreated, map[string]interface{}{
		"msg":     "Task creation successful.",
		"task_id": task.ID,
	})
}

// rawBlank reports whether a present JSON field carries no value: an empty
// string or an explicit null.
func rawBlank(raw json.RawMessage) bool {
	s := strings.TrimSpace(string(raw))
	return s == `""` || s == "null"
}

// patchTask handles PATCH /tasks. Admins and the task's current assignee may
// patch; fields apply only when present in the body, and a subtasks field
// replaces the task's whole subtask set.
func (s *Server) patchTask(w http.ResponseWriter, r *http.Request) {
	user, ok := s.authenticate(w, r)
	if !ok {
		return
	}

	ctx := r.Context()
	task, err := validation.ResolveTask(ctx, s.store, httputil.QueryParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, s.log, err)
		return
	}
	teamID, err := access.TaskTeamID(ctx, s.store, task)
	if err != nil {
		httputil.WriteError(w, s.log, err)
		return
	}
	if err := access.CheckTeam(teamID, user.TeamID); err != nil {
		httputil.WriteError(w, s.log, err)
		return
	}
	if !access.Allowed(access.OpTaskPatch, access.TaskTier(user, task)) {
		s.countAuthFailure("authorization")
		httputil.WriteError(w, s.log, apperr.NotAuthorized())
		return
	}

	var fields map[string]json.RawMessage
	if err := httputil.ParseJSON(r, &fields); err != nil {
		httputil.WriteFieldError(w, apperr.Invalid("data", "Invalid request body."))
		return
	}

	if raw, present := fields["title"]; present {
		if rawBlank(raw) {
			httputil.WriteFieldError(w, apperr.Blank("title", "Task title cannot be empty."))
			return
		}
		var title string
		if err := json.Unmarshal(raw, &title); err != nil {
			httputil.WriteFieldError(w, apperr.Invalid("title", "Task title must be a string."))
			return
		}
		if err := validation.TaskTitle(title); err != nil {
			httputil.WriteError(w, s.log, err)
			return
		}
		task.Title = title
	}

	if raw, present := fields["description"]; present && !rawBlank(raw) {
		var description string
		if err := json.Unmarshal(raw, &description); err != nil {
			httputil.WriteFieldError(w, apperr.Invalid("description", "Task description must be a string."))
			return
		}
		task.Description = description
	}

	if raw, present := fields["order"]; present {
		if rawBlank(raw) {
			httputil.WriteFieldError(w, apperr.Blank("order", "Task order cannot be empty."))
			return
		}
		var order int
		if err := json.Unmarshal(raw, &order); err != nil {
			httputil.WriteFieldError(w, apperr.Invalid("order", "Task order must be a number."))
			return
		}
		task.Order = order
	}

	if raw, present := fields["column"]; present {
		var rawColumn interface{}
		if err := json.Unmarshal(raw, &rawColumn); err != nil {
			httputil.WriteFieldError(w, apperr.Invalid("column_id", "Column ID must be a number."))
			return
		}
		column, err := validation.ResolveColumn(ctx, s.store, rawParam(rawColumn))
		if err != nil {
			httputil.WriteError(w, s.log, err)
			return
		}
		columnTeamID, err := access.ColumnTeamID(ctx, s.store, column)
		if err != nil {
			httputil.WriteError(w, s.log, err)
			return
		}
		if err := access.CheckTeam(columnTeamID, user.TeamID); err != nil {
			httputil.WriteError(w, s.log, err)
			return
		}
		task.ColumnID = column.ID
	}

	if raw, present := fields["user"]; present {
		var assignee string
		if !rawBlank(raw) {
			if err := json.Unmarshal(raw, &assignee); err != nil {
				httputil.WriteFieldError(w, apperr.Invalid("user", "User must be a string."))
				return
			}
		}
		if assignee == "" {
			task.Assignee = nil
		} else {
			// Foreign usernames read the same as unknown ones.
			target, err := s.store.GetUser(ctx, assignee)
			if err != nil || target.TeamID != user.TeamID {
				httputil.WriteFieldError(w, &apperr.Error{
					Field:  "user",
					Msg:    "User does not exist.",
					Code:   apperr.CodeDoesNotExist,
					Status: http.StatusBadRequest,
				})
				return
			}
			task.Assignee = &assignee
		}
	}

	var subtasks []provision.SubtaskItem
	replaceSubtasks := false
	if raw, present := fields["subtasks"]; present && !rawBlank(raw) {
		if err := json.Unmarshal(raw, &subtasks); err != nil {
			httputil.WriteFieldError(w, apperr.Invalid("subtasks", "Subtasks must be a list."))
			return
		}
		replaceSubtasks = true
	}

	if err := s.store.UpdateTask(ctx, task); err != nil {
		httputil.WriteError(w, s.log, err)
		return
	}
	if replaceSubtasks {
		if err := s.engine.ReplaceSubtasks(ctx, task.ID, subtasks); err != nil {
			httputil.WriteError(w, s.log, err)
			return
		}
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"msg": "Task update successful.",
		"id":  task.ID,
	})
}

// deleteTask handles DELETE /tasks. Subtasks cascade in the schema.
func (s *Server) deleteTask(w http.ResponseWriter, r *http.Request) {
	user, ok := s.authenticate(w, r)
	if !ok {
		return
	}
	if !s.authorize(w, r, user.Username) {
		return
	}

	ctx := r.Context()
	rawID := httputil.QueryParam(r, "id")
	task, err := validation.ResolveTask(ctx, s.store, rawID)
	if err != nil {
		httputil.WriteError(w, s.log, err)
		return
	}
	teamID, err := access.TaskTeamID(ctx, s.store, task)
	if err != nil {
		httputil.WriteError(w, s.log, err)
		return
	}
	if err := access.CheckTeam(teamID, user.TeamID); err != nil {
		httputil.WriteError(w, s.log, err)
		return
	}

	if err := s.store.DeleteTask(ctx, task.ID); err != nil {
		httputil.WriteError(w, s.log, err)
		return
	}
	s.refreshGauges(ctx)

	// The id echoes back as the raw request string.
	httputil.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"msg": "Task deleted successfully.",
		"id":  rawID,
	})
}
