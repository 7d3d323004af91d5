// Package auth implements the stateless credential scheme: a bearer token
// derived from the user's password hash (TokenCodec), the authenticator that
// resolves AUTH_USER/AUTH_TOKEN header pairs to identities, and the admin
// authorizer. There is no session store and no revocation list; tokens stay
// valid until the underlying password hash changes.
package auth
