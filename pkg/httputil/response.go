// Package httputil provides HTTP helpers for the field-error wire contract
// and JSON responses, plus the logging, metrics, and recovery middleware.
package httputil

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/taskwall/taskwall/pkg/apperr"
	"github.com/taskwall/taskwall/pkg/observability"
)

// WriteJSON writes a JSON response with the given status code.
func WriteJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// WriteFieldError writes a tagged field error in the stable wire shape
// {"<field>": {"string": "...", "code": "..."}}.
func WriteFieldError(w http.ResponseWriter, e *apperr.Error) {
	WriteJSON(w, e.Status, e.Body())
}

// WriteError writes err as a field error when it is one, and as a generic
// 500 otherwise. Infrastructure failures never leak detail to the caller.
func WriteError(w http.ResponseWriter, log *observability.Logger, err error) {
	var fieldErr *apperr.Error
	if errors.As(err, &fieldErr) {
		WriteFieldError(w, fieldErr)
		return
	}

	log.WithError(err).Error("request failed")
	WriteJSON(w, http.StatusInternalServerError, map[string]string{
		"error": "internal server error",
	})
}

// WriteMsg writes a bare {"msg": ...} body.
func WriteMsg(w http.ResponseWriter, status int, msg string) {
	WriteJSON(w, status, map[string]string{"msg": msg})
}
