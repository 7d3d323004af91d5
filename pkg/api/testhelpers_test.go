package api

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/taskwall/taskwall/pkg/auth"
	"github.com/taskwall/taskwall/pkg/observability"
	"github.com/taskwall/taskwall/pkg/provision"
	"github.com/taskwall/taskwall/pkg/storage"
)

// credentials carries one test identity through a flow.
type credentials struct {
	Username string
	Token    string
	TeamID   int64
	IsAdmin  bool
}

func newTestServer(t *testing.T) *Server {
	t.Helper()

	db, err := sql.Open("sqlite3", "file::memory:?_foreign_keys=on")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, storage.Migrate(context.Background(), db, "sqlite3"))
	store := storage.NewSQLStore(db, "sqlite3")

	log := observability.NewLogger(observability.ErrorLevel, io.Discard)
	codec := auth.NewTokenCodec(bcrypt.MinCost)
	authn := auth.NewAuthenticator(store, codec)
	engine := provision.NewEngine(store, log)

	return NewServer(store, codec, authn, engine, log, nil)
}

// do issues a request against the server. creds may be nil for the public
// endpoints; body is JSON-encoded when non-nil.
func do(t *testing.T, s *Server, method, target string, creds *credentials, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(encoded)
	}

	req := httptest.NewRequest(method, target, reader)
	if creds != nil {
		req.Header.Set("Auth-User", creds.Username)
		req.Header.Set("Auth-Token", creds.Token)
	}

	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func decodeList(t *testing.T, rec *httptest.ResponseRecorder) []interface{} {
	t.Helper()
	var body []interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

// fieldError extracts {"<field>": {"string": ..., "code": ...}} from a
// response body.
func fieldError(t *testing.T, rec *httptest.ResponseRecorder, field string) (msg, code string) {
	t.Helper()
	body := decodeBody(t, rec)
	detail, ok := body[field].(map[string]interface{})
	require.True(t, ok, "no field error %q in %s", field, rec.Body.String())
	msg, _ = detail["string"].(string)
	code, _ = detail["code"].(string)
	return msg, code
}

// register creates a user through the public endpoint and returns its
// credentials. An empty invite founds a new team with this user as admin.
func register(t *testing.T, s *Server, username, invite string) *credentials {
	t.Helper()

	rec := do(t, s, http.MethodPost, "/register", nil, map[string]interface{}{
		"username":              username,
		"password":              "password123",
		"password_confirmation": "password123",
		"invite_code":           invite,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	body := decodeBody(t, rec)
	return &credentials{
		Username: body["username"].(string),
		Token:    body["token"].(string),
		TeamID:   int64(body["teamId"].(float64)),
		IsAdmin:  body["isAdmin"].(bool),
	}
}

// inviteCode fetches the caller's team invite code; the caller must be admin.
func inviteCode(t *testing.T, s *Server, admin *credentials) string {
	t.Helper()

	rec := do(t, s, http.MethodGet, teamURL(admin.TeamID), admin, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	return decodeBody(t, rec)["inviteCode"].(string)
}

func teamURL(teamID int64) string {
	return "/teams?team_id=" + strconv.FormatInt(teamID, 10)
}

func itoa(n int64) string {
	return strconv.FormatInt(n, 10)
}
