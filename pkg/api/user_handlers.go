package api

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/taskwall/taskwall/pkg/access"
	"github.com/taskwall/taskwall/pkg/apperr"
	"github.com/taskwall/taskwall/pkg/httputil"
	"github.com/taskwall/taskwall/pkg/validation"
)

type memberResponse struct {
	Username string `json:"username"`
	IsActive *bool  `json:"isActive"`
	IsAdmin  bool   `json:"isAdmin"`
}

// listUsers handles GET /users. With a board_id the isActive flag reports
// board membership; without one it stays null.
func (s *Server) listUsers(w http.ResponseWriter, r *http.Request) {
	user, ok := s.authenticate(w, r)
	if !ok {
		return
	}

	ctx := r.Context()
	team, err := validation.ResolveTeam(ctx, s.store, httputil.QueryParam(r, "team_id"))
	if err != nil {
		httputil.WriteError(w, s.log, err)
		return
	}
	if err := access.CheckTeam(team.ID, user.TeamID); err != nil {
		httputil.WriteError(w, s.log, err)
		return
	}

	members, err := s.store.ListTeamMembers(ctx, team.ID)
	if err != nil {
		httputil.WriteError(w, s.log, err)
		return
	}

	var boardMembers map[string]bool
	if httputil.HasQueryParam(r, "board_id") {
		board, err := validation.ResolveBoard(ctx, s.store, httputil.QueryParam(r, "board_id"))
		if err != nil {
			httputil.WriteError(w, s.log, err)
			return
		}
		if err := access.CheckTeam(board.TeamID, user.TeamID); err != nil {
			httputil.WriteError(w, s.log, err)
			return
		}

		usernames, err := s.store.ListBoardMembers(ctx, board.ID)
		if err != nil {
			httputil.WriteError(w, s.log, err)
			return
		}
		boardMembers = make(map[string]bool, len(usernames))
		for _, name := range usernames {
			boardMembers[name] = true
		}
	}

	resp := make([]memberResponse, 0, len(members))
	for _, m := range members {
		entry := memberResponse{Username: m.Username, IsAdmin: m.IsAdmin}
		if boardMembers != nil {
			active := boardMembers[m.Username]
			entry.IsActive = &active
		}
		resp = append(resp, entry)
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

// rawParam renders a loosely-typed JSON body value as the raw string the
// resolvers validate. Clients send ids as numbers or strings.
func rawParam(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return fmt.Sprintf("%v", t)
	}
}

// toggleBoardMembership handles POST /users: an admin grants or revokes a
// member's access to one board.
func (s *Server) toggleBoardMembership(w http.ResponseWriter, r *http.Request) {
	caller, ok := s.authenticate(w, r)
	if !ok {
		return
	}
	if !s.authorize(w, r, caller.Username) {
		return
	}

	var req struct {
		Username string      `json:"username"`
		BoardID  interface{} `json:"board_id"`
		IsActive interface{} `json:"is_active"`
	}
	if err := httputil.ParseJSON(r, &req); err != nil {
		httputil.WriteFieldError(w, apperr.Invalid("data", "Invalid request body."))
		return
	}

	ctx := r.Context()
	target, err := validation.ResolveUsername(ctx, s.store, req.Username)
	if err != nil {
		httputil.WriteError(w, s.log, err)
		return
	}
	if err := access.CheckTeam(target.TeamID, caller.TeamID); err != nil {
		httputil.WriteError(w, s.log, err)
		return
	}

	board, err := validation.ResolveBoard(ctx, s.store, rawParam(req.BoardID))
	if err != nil {
		httputil.WriteError(w, s.log, err)
		return
	}
	if err := access.CheckTeam(board.TeamID, caller.TeamID); err != nil {
		httputil.WriteError(w, s.log, err)
		return
	}

	isActive, err := validation.IsActive(req.IsActive)
	if err != nil {
		httputil.WriteError(w, s.log, err)
		return
	}

	if isActive {
		err = s.store.AddBoardMember(ctx, board.ID, target.Username)
	} else {
		err = s.store.RemoveBoardMember(ctx, board.ID, target.Username)
	}
	if err != nil {
		httputil.WriteError(w, s.log, err)
		return
	}

	httputil.WriteMsg(w, http.StatusOK,
		fmt.Sprintf("%s is removed from %s.", target.Username, board.Name))
}

// deleteUser handles DELETE /users. Team leaders are not deletable; a team
// must keep its admin.
func (s *Server) deleteUser(w http.ResponseWriter, r *http.Request) {
	caller, ok := s.authenticate(w, r)
	if !ok {
		return
	}
	if !s.authorize(w, r, caller.Username) {
		return
	}

	ctx := r.Context()
	target, err := validation.ResolveUsername(ctx, s.store, httputil.QueryParam(r, "username"))
	if err != nil {
		httputil.WriteError(w, s.log, err)
		return
	}
	if err := access.CheckTeam(target.TeamID, caller.TeamID); err != nil {
		httputil.WriteError(w, s.log, err)
		return
	}

	if target.IsAdmin {
		httputil.WriteFieldError(w, &apperr.Error{
			Field:  "username",
			Msg:    "Team leaders cannot be deleted from their teams.",
			Code:   apperr.CodeForbidden,
			Status: http.StatusForbidden,
		})
		return
	}

	if err := s.store.DeleteUser(ctx, target.Username); err != nil {
		httputil.WriteError(w, s.log, err)
		return
	}
	s.authn.Invalidate(target.Username)

	httputil.WriteMsg(w, http.StatusOK, "Member has been deleted successfully.")
}
