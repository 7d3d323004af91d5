// Package api exposes the task board over HTTP. Every protected endpoint
// runs the same pipeline: authenticate the AUTH_USER/AUTH_TOKEN headers,
// optionally require admin privilege, resolve the referenced resources,
// check ownership against the caller's team, and only then touch domain
// data.
package api

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/taskwall/taskwall/pkg/auth"
	"github.com/taskwall/taskwall/pkg/httputil"
	"github.com/taskwall/taskwall/pkg/observability"
	"github.com/taskwall/taskwall/pkg/provision"
	"github.com/taskwall/taskwall/pkg/storage"
)

// Server is the HTTP API server.
type Server struct {
	router  *mux.Router
	store   storage.Store
	codec   *auth.TokenCodec
	authn   *auth.Authenticator
	engine  *provision.Engine
	log     *observability.Logger
	metrics *observability.Metrics
}

// NewServer wires the handlers and middleware. metrics may be nil to
// disable instrumentation.
func NewServer(
	store storage.Store,
	codec *auth.TokenCodec,
	authn *auth.Authenticator,
	engine *provision.Engine,
	log *observability.Logger,
	metrics *observability.Metrics,
) *Server {
	s := &Server{
		store:   store,
		codec:   codec,
		authn:   authn,
		engine:  engine,
		log:     log,
		metrics: metrics,
	}

	r := mux.NewRouter()
	r.Use(httputil.RecoveryMiddleware(log))
	r.Use(httputil.LoggingMiddleware(log))
	if metrics != nil {
		r.Use(httputil.MetricsMiddleware(metrics))
	}

	r.HandleFunc("/register", s.register).Methods("POST")
	r.HandleFunc("/login", s.login).Methods("POST")
	r.HandleFunc("/verify-token", s.verifyToken).Methods("POST")

	r.HandleFunc("/teams", s.getTeam).Methods("GET")

	r.HandleFunc("/users", s.listUsers).Methods("GET")
	r.HandleFunc("/users", s.toggleBoardMembership).Methods("POST")
	r.HandleFunc("/users", s.deleteUser).Methods("DELETE")

	r.HandleFunc("/boards", s.getBoards).Methods("GET")
	r.HandleFunc("/boards", s.createBoard).Methods("POST")
	r.HandleFunc("/boards", s.deleteBoard).Methods("DELETE")
	r.HandleFunc("/boards", s.patchBoard).Methods("PATCH")

	r.HandleFunc("/columns", s.listColumns).Methods("GET")
	r.HandleFunc("/columns", s.patchColumn).Methods("PATCH")

	r.HandleFunc("/tasks", s.listTasks).Methods("GET")
	r.HandleFunc("/tasks", s.createTask).Methods("POST")
	r.HandleFunc("/tasks", s.patchTask).Methods("PATCH")
	r.HandleFunc("/tasks", s.deleteTask).Methods("DELETE")

	r.HandleFunc("/subtasks", s.listSubtasks).Methods("GET")
	r.HandleFunc("/subtasks", s.patchSubtask).Methods("PATCH")

	r.HandleFunc("/healthz", s.health).Methods("GET")

	s.router = r
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// refreshGauges recomputes the business gauges after board or task
// mutations. Best effort; failures only log.
func (s *Server) refreshGauges(ctx context.Context) {
	if s.metrics == nil {
		return
	}
	if boards, err := s.store.CountBoards(ctx); err == nil {
		s.metrics.BoardsTotal.Set(float64(boards))
	}
	if tasks, err := s.store.CountTasks(ctx); err == nil {
		s.metrics.TasksTotal.Set(float64(tasks))
	}
}
