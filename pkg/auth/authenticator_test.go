package auth

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/taskwall/taskwall/pkg/apperr"
	"github.com/taskwall/taskwall/pkg/models"
	"github.com/taskwall/taskwall/pkg/storage"
)

func newTestStore(t *testing.T) storage.Store {
	t.Helper()

	db, err := sql.Open("sqlite3", "file::memory:?_foreign_keys=on")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, storage.Migrate(context.Background(), db, "sqlite3"))
	return storage.NewSQLStore(db, "sqlite3")
}

func seedUser(t *testing.T, store storage.Store, codec *TokenCodec, username string, isAdmin bool) (*models.User, string) {
	t.Helper()
	ctx := context.Background()

	team, err := store.CreateTeam(ctx)
	require.NoError(t, err)

	hash, err := codec.HashPassword("password123")
	require.NoError(t, err)

	user := &models.User{Username: username, PasswordHash: hash, IsAdmin: isAdmin, TeamID: team.ID}
	require.NoError(t, store.CreateUser(ctx, user))

	token, err := codec.Issue(username, hash)
	require.NoError(t, err)
	return user, token
}

func TestAuthenticate(t *testing.T) {
	store := newTestStore(t)
	codec := NewTokenCodec(bcrypt.MinCost)
	authn := NewAuthenticator(store, codec)
	ctx := context.Background()

	user, token := seedUser(t, store, codec, "someuser", false)

	got, err := authn.Authenticate(ctx, "someuser", token)
	require.NoError(t, err)
	assert.Equal(t, user.Username, got.Username)
	assert.Equal(t, user.TeamID, got.TeamID)

	tests := []struct {
		name     string
		username string
		token    string
	}{
		{"empty username", "", token},
		{"empty token", "someuser", ""},
		{"unknown user", "ghostuser", token},
		{"wrong token", "someuser", "not-a-token"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := authn.Authenticate(ctx, tt.username, tt.token)
			require.Error(t, err)

			// Every failure mode collapses into the same generic response.
			fieldErr, ok := err.(*apperr.Error)
			require.True(t, ok)
			assert.Equal(t, apperr.CodeNotAuthenticated, fieldErr.Code)
			assert.Equal(t, "Authentication failure.", fieldErr.Msg)
		})
	}
}

func TestAuthorize(t *testing.T) {
	store := newTestStore(t)
	codec := NewTokenCodec(bcrypt.MinCost)
	authn := NewAuthenticator(store, codec)
	ctx := context.Background()

	seedUser(t, store, codec, "adminuser", true)
	seedUser(t, store, codec, "memberuser", false)

	assert.NoError(t, authn.Authorize(ctx, "adminuser"))

	err := authn.Authorize(ctx, "memberuser")
	require.Error(t, err)
	fieldErr, ok := err.(*apperr.Error)
	require.True(t, ok)
	assert.Equal(t, apperr.CodeNotAuthorized, fieldErr.Code)

	err = authn.Authorize(ctx, "ghostuser")
	require.Error(t, err)
}

func TestInvalidateDropsCachedIdentity(t *testing.T) {
	store := newTestStore(t)
	codec := NewTokenCodec(bcrypt.MinCost)
	authn := NewAuthenticator(store, codec)
	ctx := context.Background()

	_, token := seedUser(t, store, codec, "someuser", false)

	// Prime the cache.
	_, err := authn.Authenticate(ctx, "someuser", token)
	require.NoError(t, err)

	require.NoError(t, store.DeleteUser(ctx, "someuser"))

	// Still cached, so the deleted user authenticates until invalidation.
	_, err = authn.Authenticate(ctx, "someuser", token)
	require.NoError(t, err)

	authn.Invalidate("someuser")
	_, err = authn.Authenticate(ctx, "someuser", token)
	require.Error(t, err)
}
