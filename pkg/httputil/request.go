package httputil

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// Authentication headers carried on every protected call. AUTH_USER and
// AUTH_TOKEN in WSGI naming are the Auth-User and Auth-Token wire headers.
const (
	HeaderAuthUser  = "Auth-User"
	HeaderAuthToken = "Auth-Token"
)

// AuthHeaders extracts the credential headers.
func AuthHeaders(r *http.Request) (username, token string) {
	return r.Header.Get(HeaderAuthUser), r.Header.Get(HeaderAuthToken)
}

// ParseJSON decodes the request body into dest.
func ParseJSON(r *http.Request, dest interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(dest); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}
	return nil
}

// QueryParam returns a query string parameter.
func QueryParam(r *http.Request, key string) string {
	return r.URL.Query().Get(key)
}

// HasQueryParam reports whether the parameter is present at all, even blank.
func HasQueryParam(r *http.Request, key string) bool {
	return r.URL.Query().Has(key)
}
