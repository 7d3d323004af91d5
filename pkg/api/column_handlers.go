package api

import (
	"encoding/json"
	"net/http"

	"github.com/taskwall/taskwall/pkg/access"
	"github.com/taskwall/taskwall/pkg/apperr"
	"github.com/taskwall/taskwall/pkg/httputil"
	"github.com/taskwall/taskwall/pkg/provision"
	"github.com/taskwall/taskwall/pkg/validation"
)

type columnSummary struct {
	ID    int64 `json:"id"`
	Order int   `json:"order"`
}

// listColumns handles GET /columns. A board with no columns gets its four
// defaults provisioned on the spot.
func (s *Server) listColumns(w http.ResponseWriter, r *http.Request) {
	user, ok := s.authenticate(w, r)
	if !ok {
		return
	}

	ctx := r.Context()
	board, err := validation.ResolveBoard(ctx, s.store, httputil.QueryParam(r, "board_id"))
	if err != nil {
		httputil.WriteError(w, s.log, err)
		return
	}
	if err := access.CheckTeam(board.TeamID, user.TeamID); err != nil {
		httputil.WriteError(w, s.log, err)
		return
	}

	columns, err := s.engine.EnsureColumns(ctx, board.ID)
	if err != nil {
		httputil.WriteError(w, s.log, err)
		return
	}

	out := make([]columnSummary, 0, len(columns))
	for _, c := range columns {
		out = append(out, columnSummary{ID: c.ID, Order: c.Order})
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]interface{}{"columns": out})
}

type columnPatchItem struct {
	ID          *json.Number `json:"id"`
	Title       *string      `json:"title"`
	Description *string      `json:"description"`
	Order       *int         `json:"order"`
	User        *string      `json:"user"`
}

// patchColumn handles PATCH /columns: a bulk patch moving or editing a set of
// tasks under one target column. The engine validates and authorizes every
// item before applying any of them.
func (s *Server) patchColumn(w http.ResponseWriter, r *http.Request) {
	user, ok := s.authenticate(w, r)
	if !ok {
		return
	}

	ctx := r.Context()
	column, err := validation.ResolveColumn(ctx, s.store, httputil.QueryParam(r, "id"))
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

	var items []columnPatchItem
	if err := httputil.ParseJSON(r, &items); err != nil {
		httputil.WriteFieldError(w, apperr.Invalid("data", "Invalid request body."))
		return
	}

	patches := make([]provision.TaskPatch, 0, len(items))
	for _, item := range items {
		patch := provision.TaskPatch{
			Title:       item.Title,
			Description: item.Description,
			Order:       item.Order,
			Assignee:    item.User,
		}
		if item.ID != nil {
			patch.RawID = item.ID.String()
		}
		patches = append(patches, patch)
	}

	if err := s.engine.BulkPatchColumn(ctx, user, column, patches); err != nil {
		httputil.WriteError(w, s.log, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"msg": "Column and all its tasks updated successfully.",
		"id":  column.ID,
	})
}
