// Package apperr defines the tagged field errors that make up the API's
// observable error contract. Every validation, authentication, and
// authorization failure is an *Error carrying the offending field name, a
// human-readable message, a machine code, and the HTTP status to respond
// with. Infrastructure failures stay plain errors and surface as 500s.
package apperr

import (
	"fmt"
	"net/http"
)

// Machine codes used across the API.
const (
	CodeBlank            = "blank"
	CodeInvalid          = "invalid"
	CodeNotFound         = "not_found"
	CodeNotAuthenticated = "not_authenticated"
	CodeNotAuthorized    = "not_authorized"
	CodeForbidden        = "forbidden"
	CodeNoMatch          = "no_match"
	CodeUnique           = "unique"
	CodeMinLength        = "min_length"
	CodeMaxLength        = "max_length"
	CodeDoesNotExist     = "does_not_exist"
)

// Detail is the wire form of a single field error.
type Detail struct {
	String string `json:"string"`
	Code   string `json:"code"`
}

// Error is a field-tagged API error.
type Error struct {
	Field  string
	Msg    string
	Code   string
	Status int
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s (%s)", e.Field, e.Msg, e.Code)
}

// Detail returns the wire representation of the error.
func (e *Error) Detail() Detail {
	return Detail{String: e.Msg, Code: e.Code}
}

// Body returns the full response body for the error.
func (e *Error) Body() map[string]Detail {
	return map[string]Detail{e.Field: e.Detail()}
}

// Blank reports a missing required field or identifier.
func Blank(field, msg string) *Error {
	return &Error{Field: field, Msg: msg, Code: CodeBlank, Status: http.StatusBadRequest}
}

// Invalid reports a field with the wrong shape.
func Invalid(field, msg string) *Error {
	return &Error{Field: field, Msg: msg, Code: CodeInvalid, Status: http.StatusBadRequest}
}

// NotFound reports a well-formed identifier with no matching row.
func NotFound(field, msg string) *Error {
	return &Error{Field: field, Msg: msg, Code: CodeNotFound, Status: http.StatusNotFound}
}

// NotAuthenticated returns the generic authentication failure. Bad
// credentials, unknown users, and cross-team access all collapse into this
// one response so that neither usernames nor foreign resources can be
// enumerated.
func NotAuthenticated() *Error {
	return &Error{
		Field:  "auth",
		Msg:    "Authentication failure.",
		Code:   CodeNotAuthenticated,
		Status: http.StatusForbidden,
	}
}

// NotAuthorized returns the authorization failure for callers that are
// authenticated but lack the required privilege tier.
func NotAuthorized() *Error {
	return &Error{
		Field:  "auth",
		Msg:    "Authorization failure.",
		Code:   CodeNotAuthorized,
		Status: http.StatusForbidden,
	}
}
