package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/taskwall/taskwall/pkg/access"
	"github.com/taskwall/taskwall/pkg/apperr"
	"github.com/taskwall/taskwall/pkg/httputil"
	"github.com/taskwall/taskwall/pkg/validation"
)

type subtaskSummary struct {
	ID    int64  `json:"id"`
	Order int    `json:"order"`
	Title string `json:"title"`
	Done  bool   `json:"done"`
}

// listSubtasks handles GET /subtasks, listing one task's subtasks in display
// order.
func (s *Server) listSubtasks(w http.ResponseWriter, r *http.Request) {
	user, ok := s.authenticate(w, r)
	if !ok {
		return
	}

	ctx := r.Context()
	task, err := validation.ResolveTask(ctx, s.store, httputil.QueryParam(r, "task_id"))
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

	subtasks, err := s.store.ListTaskSubtasks(ctx, task.ID)
	if err != nil {
		httputil.WriteError(w, s.log, err)
		return
	}

	out := make([]subtaskSummary, 0, len(subtasks))
	for _, st := range subtasks {
		out = append(out, subtaskSummary{
			ID: st.ID, Order: st.Order, Title: st.Title, Done: st.Done,
		})
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]interface{}{"subtasks": out})
}

// patchSubtask handles PATCH /subtasks. Admins and the parent task's current
// assignee may patch; fields apply only when present in the body.
func (s *Server) patchSubtask(w http.ResponseWriter, r *http.Request) {
	user, ok := s.authenticate(w, r)
	if !ok {
		return
	}

	ctx := r.Context()
	subtask, err := validation.ResolveSubtask(ctx, s.store, httputil.QueryParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, s.log, err)
		return
	}
	task, err := s.store.GetTask(ctx, subtask.TaskID)
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
	if !access.Allowed(access.OpSubtaskPatch, access.TaskTier(user, task)) {
		s.countAuthFailure("authorization")
		httputil.WriteError(w, s.log, apperr.NotAuthorized())
		return
	}

	var fields map[string]json.RawMessage
	if err := httputil.ParseJSON(r, &fields); err != nil {
		// A missing body counts as empty data, not malformed JSON.
		if errors.Is(err, io.EOF) {
			httputil.WriteFieldError(w, apperr.Blank("data", "Data cannot be empty."))
			return
		}
		httputil.WriteFieldError(w, apperr.Invalid("data", "Invalid request body."))
		return
	}
	if len(fields) == 0 {
		httputil.WriteFieldError(w, apperr.Blank("data", "Data cannot be empty."))
		return
	}

	if raw, present := fields["title"]; present {
		if rawBlank(raw) {
			httputil.WriteFieldError(w, apperr.Blank("title", "Title cannot be empty."))
			return
		}
		var title string
		if err := json.Unmarshal(raw, &title); err != nil {
			httputil.WriteFieldError(w, apperr.Invalid("title", "Title must be a string."))
			return
		}
		if err := validation.SubtaskTitle("title", title); err != nil {
			httputil.WriteError(w, s.log, err)
			return
		}
		subtask.Title = title
	}

	if raw, present := fields["done"]; present {
		if rawBlank(raw) {
			httputil.WriteFieldError(w, apperr.Blank("done", "Done cannot be empty."))
			return
		}
		var done bool
		if err := json.Unmarshal(raw, &done); err != nil {
			httputil.WriteFieldError(w, apperr.Invalid("done", "Done must be a boolean."))
			return
		}
		subtask.Done = done
	}

	if raw, present := fields["order"]; present {
		if rawBlank(raw) {
			httputil.WriteFieldError(w, apperr.Blank("order", "Order cannot be empty."))
			return
		}
		var order int
		if err := json.Unmarshal(raw, &order); err != nil {
			httputil.WriteFieldError(w, apperr.Invalid("order", "Order must be a number."))
			return
		}
		subtask.Order = order
	}

	if err := s.store.UpdateSubtask(ctx, subtask); err != nil {
		httputil.WriteError(w, s.log, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"msg": "Subtask update successful.",
		"id":  subtask.ID,
	})
}
