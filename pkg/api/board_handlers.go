package api

import (
	"net/http"

	"github.com/taskwall/taskwall/pkg/access"
	"github.com/taskwall/taskwall/pkg/apperr"
	"github.com/taskwall/taskwall/pkg/httputil"
	"github.com/taskwall/taskwall/pkg/models"
	"github.com/taskwall/taskwall/pkg/provision"
	"github.com/taskwall/taskwall/pkg/validation"
)

type boardSummary struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type subtaskDTO struct {
	ID    int64  `json:"id"`
	Title string `json:"title"`
	Order int    `json:"order"`
	Done  bool   `json:"done"`
}

type taskDTO struct {
	ID          int64        `json:"id"`
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Order       int          `json:"order"`
	User        string       `json:"user"`
	Subtasks    []subtaskDTO `json:"subtasks"`
}

type columnDTO struct {
	ID    int64     `json:"id"`
	Order int       `json:"order"`
	Tasks []taskDTO `json:"tasks"`
}

// getBoards handles GET /boards. With an id it returns the full nested board;
// with a team_id it lists the boards visible to the caller, auto-provisioning
// a default board for an admin whose team has none; with neither it lists the
// caller's team boards.
func (s *Server) getBoards(w http.ResponseWriter, r *http.Request) {
	user, ok := s.authenticate(w, r)
	if !ok {
		return
	}
	ctx := r.Context()

	if httputil.HasQueryParam(r, "id") {
		board, err := validation.ResolveBoard(ctx, s.store, httputil.QueryParam(r, "id"))
		if err != nil {
			httputil.WriteError(w, s.log, err)
			return
		}
		if err := access.CheckTeam(board.TeamID, user.TeamID); err != nil {
			httputil.WriteError(w, s.log, err)
			return
		}

		tier, err := access.BoardTier(ctx, s.store, user, board)
		if err != nil {
			httputil.WriteError(w, s.log, err)
			return
		}
		if !access.Allowed(access.OpBoardRead, tier) {
			s.countAuthFailure("authorization")
			httputil.WriteError(w, s.log, apperr.NotAuthorized())
			return
		}

		nested, err := s.nestedBoard(r, board)
		if err != nil {
			httputil.WriteError(w, s.log, err)
			return
		}
		httputil.WriteJSON(w, http.StatusOK, nested)
		return
	}

	if httputil.HasQueryParam(r, "team_id") {
		team, err := validation.ResolveTeam(ctx, s.store, httputil.QueryParam(r, "team_id"))
		if err != nil {
			httputil.WriteError(w, s.log, err)
			return
		}
		if err := access.CheckTeam(team.ID, user.TeamID); err != nil {
			httputil.WriteError(w, s.log, err)
			return
		}

		var boards []models.Board
		if user.IsAdmin {
			boards, err = s.store.ListTeamBoards(ctx, team.ID)
		} else {
			boards, err = s.store.ListMemberBoards(ctx, team.ID, user.Username)
		}
		if err != nil {
			httputil.WriteError(w, s.log, err)
			return
		}

		if len(boards) == 0 {
			if !user.IsAdmin {
				httputil.WriteJSON(w, http.StatusOK, []boardSummary{})
				return
			}

			board, err := s.engine.CreateBoard(ctx, team.ID, provision.DefaultBoardName)
			if err != nil {
				httputil.WriteError(w, s.log, err)
				return
			}
			s.refreshGauges(ctx)
			httputil.WriteJSON(w, http.StatusCreated,
				[]boardSummary{{ID: board.ID, Name: board.Name}})
			return
		}

		httputil.WriteJSON(w, http.StatusOK, summarizeBoards(boards))
		return
	}

	// No selector: the caller sees their own team's boards.
	boards, err := s.store.ListTeamBoards(ctx, user.TeamID)
	if err != nil {
		httputil.WriteError(w, s.log, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, summarizeBoards(boards))
}

func summarizeBoards(boards []models.Board) []boardSummary {
	out := make([]boardSummary, 0, len(boards))
	for _, b := range boards {
		out = append(out, boardSummary{ID: b.ID, Name: b.Name})
	}
	return out
}

// nestedBoard assembles the board's full column/task/subtask tree.
func (s *Server) nestedBoard(r *http.Request, board *models.Board) (map[string]interface{}, error) {
	ctx := r.Context()
	columns, err := s.store.ListBoardColumns(ctx, board.ID)
	if err != nil {
		return nil, err
	}

	columnDTOs := make([]columnDTO, 0, len(columns))
	for _, column := range columns {
		tasks, err := s.store.ListColumnTasks(ctx, column.ID)
		if err != nil {
			return nil, err
		}

		taskDTOs := make([]taskDTO, 0, len(tasks))
		for _, task := range tasks {
			subtasks, err := s.store.ListTaskSubtasks(ctx, task.ID)
			if err != nil {
				return nil, err
			}

			subtaskDTOs := make([]subtaskDTO, 0, len(subtasks))
			for _, st := range subtasks {
				subtaskDTOs = append(subtaskDTOs, subtaskDTO{
					ID: st.ID, Title: st.Title, Order: st.Order, Done: st.Done,
				})
			}

			assignee := ""
			if task.Assignee != nil {
				assignee = *task.Assignee
			}
			taskDTOs = append(taskDTOs, taskDTO{
				ID:          task.ID,
				Title:       task.Title,
				Description: task.Description,
				Order:       task.Order,
				User:        assignee,
				Subtasks:    subtaskDTOs,
			})
		}

		columnDTOs = append(columnDTOs, columnDTO{
			ID: column.ID, Order: column.Order, Tasks: taskDTOs,
		})
	}

	return map[string]interface{}{"id": board.ID, "columns": columnDTOs}, nil
}

// createBoard handles POST /boards. The engine provisions the board, its
// admin membership, and the four default columns as one transaction.
func (s *Server) createBoard(w http.ResponseWriter, r *http.Request) {
	user, ok := s.authenticate(w, r)
	if !ok {
		return
	}
	if !s.authorize(w, r, user.Username) {
		return
	}

	var req struct {
		TeamID interface{} `json:"team_id"`
		Name   string      `json:"name"`
	}
	if err := httputil.ParseJSON(r, &req); err != nil {
		httputil.WriteFieldError(w, apperr.Invalid("data", "Invalid request body."))
		return
	}

	ctx := r.Context()
	team, err := validation.ResolveTeam(ctx, s.store, rawParam(req.TeamID))
	if err != nil {
		httputil.WriteError(w, s.log, err)
		return
	}
	if err := access.CheckTeam(team.ID, user.TeamID); err != nil {
		httputil.WriteError(w, s.log, err)
		return
	}

	board, err := s.engine.CreateBoard(ctx, team.ID, req.Name)
	if err != nil {
		httputil.WriteError(w, s.log, err)
		return
	}
	s.refreshGauges(ctx)

	httputil.WriteJSON(w, http.StatusCreated, map[string]interface{}{
		"msg": "Board creation successful.",
		"id":  board.ID,
	})
}

// deleteBoard handles DELETE /boards. The schema cascades the delete through
// columns, tasks, and subtasks.
func (s *Server) deleteBoard(w http.ResponseWriter, r *http.Request) {
	user, ok := s.authenticate(w, r)
	if !ok {
		return
	}
	if !s.authorize(w, r, user.Username) {
		return
	}

	ctx := r.Context()
	rawID := httputil.QueryParam(r, "id")
	board, err := validation.ResolveBoard(ctx, s.store, rawID)
	if err != nil {
		httputil.WriteError(w, s.log, err)
		return
	}
	if err := access.CheckTeam(board.TeamID, user.TeamID); err != nil {
		httputil.WriteError(w, s.log, err)
		return
	}

	if err := s.store.DeleteBoard(ctx, board.ID); err != nil {
		httputil.WriteError(w, s.log, err)
		return
	}
	s.refreshGauges(ctx)

	// The id echoes back as the raw request string.
	httputil.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"msg": "Board deleted successfully.",
		"id":  rawID,
	})
}

// patchBoard handles PATCH /boards, renaming a board.
func (s *Server) patchBoard(w http.ResponseWriter, r *http.Request) {
	user, ok := s.authenticate(w, r)
	if !ok {
		return
	}
	if !s.authorize(w, r, user.Username) {
		return
	}

	ctx := r.Context()
	board, err := validation.ResolveBoard(ctx, s.store, httputil.QueryParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, s.log, err)
		return
	}
	if err := access.CheckTeam(board.TeamID, user.TeamID); err != nil {
		httputil.WriteError(w, s.log, err)
		return
	}

	var req struct {
		Name string `json:"name"`
	}
	if err := httputil.ParseJSON(r, &req); err != nil {
		httputil.WriteFieldError(w, apperr.Invalid("data", "Invalid request body."))
		return
	}
	if err := validation.BoardName(req.Name); err != nil {
		httputil.WriteError(w, s.log, err)
		return
	}

	if err := s.store.UpdateBoardName(ctx, board.ID, req.Name); err != nil {
		httputil.WriteError(w, s.log, err)
		return
	}

	// "successfuly" matches the message clients already key on.
	httputil.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"msg": "Board updated successfuly.",
		"id":  board.ID,
	})
}
