package api

import (
	"net/http"

	"github.com/taskwall/taskwall/pkg/access"
	"github.com/taskwall/taskwall/pkg/httputil"
	"github.com/taskwall/taskwall/pkg/validation"
)

// getTeam handles GET /teams. Admin-only: the response carries the invite
// code, which is the team's enrollment secret.
func (s *Server) getTeam(w http.ResponseWriter, r *http.Request) {
	user, ok := s.authenticate(w, r)
	if !ok {
		return
	}
	if !s.authorize(w, r, user.Username) {
		return
	}

	team, err := validation.ResolveTeam(r.Context(), s.store, httputil.QueryParam(r, "team_id"))
	if err != nil {
		httputil.WriteError(w, s.log, err)
		return
	}
	if err := access.CheckTeam(team.ID, user.TeamID); err != nil {
		httputil.WriteError(w, s.log, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"id":         team.ID,
		"inviteCode": team.InviteCode,
	})
}
