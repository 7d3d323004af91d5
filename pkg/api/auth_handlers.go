package api

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/taskwall/taskwall/pkg/apperr"
	"github.com/taskwall/taskwall/pkg/httputil"
	"github.com/taskwall/taskwall/pkg/models"
	"github.com/taskwall/taskwall/pkg/storage"
	"github.com/taskwall/taskwall/pkg/validation"
)

type credentialResponse struct {
	Msg      string `json:"msg"`
	Username string `json:"username"`
	Token    string `json:"token"`
	TeamID   int64  `json:"teamId"`
	IsAdmin  bool   `json:"isAdmin"`
}

// register handles POST /register. Without an invite code the caller founds
// a new team and becomes its admin; with one they join the owning team as a
// plain member. The team and user commit together.
func (s *Server) register(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username             string `json:"username"`
		Password             string `json:"password"`
		PasswordConfirmation string `json:"password_confirmation"`
		InviteCode           string `json:"invite_code"`
	}
	if err := httputil.ParseJSON(r, &req); err != nil {
		httputil.WriteFieldError(w, apperr.Invalid("data", "Invalid request body."))
		return
	}
	// The invite code may also arrive as a query parameter, which wins.
	if code := httputil.QueryParam(r, "invite_code"); code != "" {
		req.InviteCode = code
	}

	if err := validation.Username(req.Username); err != nil {
		httputil.WriteError(w, s.log, err)
		return
	}
	if err := validation.Password(req.Password); err != nil {
		httputil.WriteError(w, s.log, err)
		return
	}
	if err := validation.PasswordConfirmation(req.Password, req.PasswordConfirmation); err != nil {
		httputil.WriteError(w, s.log, err)
		return
	}

	ctx := r.Context()
	if _, err := s.store.GetUser(ctx, req.Username); err == nil {
		httputil.WriteFieldError(w, &apperr.Error{
			Field:  "username",
			Msg:    "User with this username already exists.",
			Code:   apperr.CodeUnique,
			Status: http.StatusBadRequest,
		})
		return
	}

	isAdmin := req.InviteCode == ""
	var team *models.Team
	if !isAdmin {
		if _, err := uuid.Parse(req.InviteCode); err != nil {
			httputil.WriteFieldError(w, apperr.Invalid("invite_code", "Invalid invite code."))
			return
		}
		var err error
		team, err = s.store.GetTeamByInviteCode(ctx, req.InviteCode)
		if err != nil {
			httputil.WriteFieldError(w, apperr.Invalid("invite_code", "Team not found."))
			return
		}
	}

	hash, err := s.codec.HashPassword(req.Password)
	if err != nil {
		httputil.WriteError(w, s.log, err)
		return
	}

	user := &models.User{Username: req.Username, PasswordHash: hash, IsAdmin: isAdmin}
	err = s.store.RunInTx(ctx, func(tx storage.Store) error {
		if team == nil {
			created, err := tx.CreateTeam(ctx)
			if err != nil {
				return err
			}
			team = created
		}
		user.TeamID = team.ID
		return tx.CreateUser(ctx, user)
	})
	if err != nil {
		httputil.WriteError(w, s.log, err)
		return
	}

	token, err := s.codec.Issue(user.Username, user.PasswordHash)
	if err != nil {
		httputil.WriteError(w, s.log, err)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, credentialResponse{
		Msg:      "Registration successful.",
		Username: user.Username,
		Token:    token,
		TeamID:   user.TeamID,
		IsAdmin:  user.IsAdmin,
	})
}

// login handles POST /login. Wrong usernames and wrong passwords stay
// distinguishable here, unlike token authentication: login is rate-limited
// by bcrypt cost and the original behaved the same way.
func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := httputil.ParseJSON(r, &req); err != nil {
		httputil.WriteFieldError(w, apperr.Invalid("data", "Invalid request body."))
		return
	}

	if err := validation.Username(req.Username); err != nil {
		httputil.WriteError(w, s.log, err)
		return
	}
	if err := validation.Password(req.Password); err != nil {
		httputil.WriteError(w, s.log, err)
		return
	}

	user, err := s.store.GetUser(r.Context(), req.Username)
	if err != nil {
		httputil.WriteFieldError(w, apperr.Invalid("username", "Invalid username."))
		return
	}
	if !s.codec.CheckPassword(user.PasswordHash, req.Password) {
		httputil.WriteFieldError(w, apperr.Invalid("password", "Invalid password."))
		return
	}

	token, err := s.codec.Issue(user.Username, user.PasswordHash)
	if err != nil {
		httputil.WriteError(w, s.log, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, credentialResponse{
		Msg:      "Login successful.",
		Username: user.Username,
		Token:    token,
		TeamID:   user.TeamID,
		IsAdmin:  user.IsAdmin,
	})
}

// verifyToken handles POST /verify-token, letting clients validate a stored
// token without a protected call. Any failure collapses to one message.
func (s *Server) verifyToken(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Token    string `json:"token"`
	}
	if err := httputil.ParseJSON(r, &req); err != nil {
		httputil.WriteMsg(w, http.StatusBadRequest, "Token verification failure.")
		return
	}

	user, err := s.store.GetUser(r.Context(), req.Username)
	if err != nil || !s.codec.Verify(user.Username, user.PasswordHash, req.Token) {
		httputil.WriteMsg(w, http.StatusBadRequest, "Token verification failure.")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"msg":      "Token verification success.",
		"username": user.Username,
		"teamId":   user.TeamID,
		"isAdmin":  user.IsAdmin,
	})
}
