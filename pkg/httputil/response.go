// Package httputil provides HTTP response helpers, the single error
// translation path for the request pipeline, and JSON request
// decoding with validation.
package httputil

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/ccoapp/cco-api/pkg/apperr"
	"github.com/ccoapp/cco-api/pkg/observability"
)

// ErrorEnvelope is the sole shape of every non-2xx response body. ErrCode
// is null when no machine code applies.
type ErrorEnvelope struct {
	Error   string       `json:"error"`
	ErrCode *apperr.Code `json:"errCode"`
}

// setCORSHeaders applies the permissive cross-origin headers carried on
// every response. The API is consumed from browser contexts outside this
// service's origin.
func setCORSHeaders(h http.Header) {
	h.Set("Access-Control-Allow-Origin", "*")
	h.Set("Access-Control-Allow-Credentials", "true")
	h.Set("Access-Control-Allow-Methods", "*")
	h.Set("Access-Control-Allow-Headers", "*")
}

// WriteJSON writes a JSON response with the given status code
func WriteJSON(w http.ResponseWriter, status int, data interface{}) error {
	setCORSHeaders(w.Header())
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(data)
}

// WriteSuccess writes a successful response (200 OK) with JSON data
func WriteSuccess(w http.ResponseWriter, data interface{}) error {
	return WriteJSON(w, http.StatusOK, data)
}

// WriteCreated writes a successful creation response (201 Created) with JSON data
func WriteCreated(w http.ResponseWriter, data interface{}) error {
	return WriteJSON(w, http.StatusCreated, data)
}

// WriteNoContent writes a successful response with no content (204 No Content)
func WriteNoContent(w http.ResponseWriter) {
	setCORSHeaders(w.Header())
	w.WriteHeader(http.StatusNoContent)
}

// WriteError translates any failure raised anywhere in request processing
// into the uniform error envelope. Dispatch order, first match wins:
//
//  1. *apperr.Error: its fixed status and {error, errCode}.
//  2. *ValidationError: 400 with the comma-joined field details.
//  3. anything else: 500 "Internal Server Error". Internal error text is
//     logged, never sent to the client.
//
// Every outcome is logged at error level with the request URL. This is
// the only place in the pipeline that logs failures, so each failure
// produces exactly one log line.
func WriteError(w http.ResponseWriter, r *http.Request, log *observability.Logger, err error) {
	var appErr *apperr.Error
	if errors.As(err, &appErr) {
		log.Errorf("%d error occurred while processing request '%s': %s",
			appErr.Status(), r.URL.String(), appErr.Message)
		writeEnvelope(w, appErr.Status(), appErr.Message, appErr.Code)
		return
	}

	var valErr *ValidationError
	if errors.As(err, &valErr) {
		detail := valErr.Error()
		log.Errorf("Validation error occurred while processing request '%s': %s",
			r.URL.String(), detail)
		writeEnvelope(w, http.StatusBadRequest, detail, "")
		return
	}

	log.WithError(err).Errorf("Unexpected error occurred while processing request '%s'",
		r.URL.String())
	writeEnvelope(w, http.StatusInternalServerError, "Internal Server Error", "")
}

func writeEnvelope(w http.ResponseWriter, status int, message string, code apperr.Code) {
	env := ErrorEnvelope{Error: message}
	if code != "" {
		env.ErrCode = &code
	}
	WriteJSON(w, status, env)
}
