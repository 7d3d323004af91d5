package api

import (
	"net/http"

	"github.com/taskwall/taskwall/pkg/httputil"
	"github.com/taskwall/taskwall/pkg/models"
)

// authenticate resolves the caller from the credential headers, writing the
// generic authentication failure when they don't check out.
func (s *Server) authenticate(w http.ResponseWriter, r *http.Request) (*models.User, bool) {
	username, token := httputil.AuthHeaders(r)
	user, err := s.authn.Authenticate(r.Context(), username, token)
	if err != nil {
		s.countAuthFailure("authentication")
		httputil.WriteError(w, s.log, err)
		return nil, false
	}
	return user, true
}

// authorize requires admin privilege for the already-authenticated caller.
func (s *Server) authorize(w http.ResponseWriter, r *http.Request, username string) bool {
	if err := s.authn.Authorize(r.Context(), username); err != nil {
		s.countAuthFailure("authorization")
		httputil.WriteError(w, s.log, err)
		return false
	}
	return true
}

func (s *Server) countAuthFailure(kind string) {
	if s.metrics != nil {
		s.metrics.AuthFailuresTotal.WithLabelValues(kind).Inc()
	}
}
