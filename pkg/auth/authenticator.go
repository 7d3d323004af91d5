package auth

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/taskwall/taskwall/pkg/apperr"
	"github.com/taskwall/taskwall/pkg/models"
	"github.com/taskwall/taskwall/pkg/storage"
)

const (
	identityCacheSize = 512
	identityCacheTTL  = 30 * time.Second
)

// Authenticator resolves (username, token) pairs to identities. Lookups go
// through a short-TTL cache; every user mutation must call Invalidate so a
// password change cuts off outstanding tokens within one request.
type Authenticator struct {
	store storage.Store
	codec *TokenCodec
	cache *expirable.LRU[string, *models.User]
}

// NewAuthenticator creates an authenticator over the given store and codec.
func NewAuthenticator(store storage.Store, codec *TokenCodec) *Authenticator {
	return &Authenticator{
		store: store,
		codec: codec,
		cache: expirable.NewLRU[string, *models.User](identityCacheSize, nil, identityCacheTTL),
	}
}

// Authenticate resolves the caller's identity. Unknown users, empty or
// malformed credentials, and wrong tokens all return the same generic
// authentication failure; nothing distinguishes "no such user" from "bad
// token".
func (a *Authenticator) Authenticate(ctx context.Context, username, token string) (*models.User, error) {
	if username == "" || token == "" {
		return nil, apperr.NotAuthenticated()
	}

	user, err := a.lookup(ctx, username)
	if err != nil {
		return nil, apperr.NotAuthenticated()
	}

	if !a.codec.Verify(user.Username, user.PasswordHash, token) {
		return nil, apperr.NotAuthenticated()
	}
	return user, nil
}

// Authorize re-resolves the user and requires admin privilege. It trusts
// that the username was already authenticated.
func (a *Authenticator) Authorize(ctx context.Context, username string) error {
	user, err := a.lookup(ctx, username)
	if err != nil || !user.IsAdmin {
		return apperr.NotAuthorized()
	}
	return nil
}

// Invalidate drops a user from the identity cache. Called after any user
// mutation (registration, deletion, membership changes).
func (a *Authenticator) Invalidate(username string) {
	a.cache.Remove(username)
}

func (a *Authenticator) lookup(ctx context.Context, username string) (*models.User, error) {
	if user, ok := a.cache.Get(username); ok {
		return user, nil
	}

	user, err := a.store.GetUser(ctx, username)
	if err != nil {
		return nil, err
	}
	a.cache.Add(username, user)
	return user, nil
}
