package httputil

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ccoapp/cco-api/pkg/apperr"
	"github.com/ccoapp/cco-api/pkg/observability"
)

func testLogger() *observability.Logger {
	return observability.NewLogger(observability.ErrorLevel, io.Discard)
}

func TestWriteJSONSetsCORSHeaders(t *testing.T) {
	rec := httptest.NewRecorder()
	require.NoError(t, WriteJSON(rec, http.StatusOK, map[string]string{"hello": "world"}))

	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Methods"))
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Headers"))
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
}

func TestWriteErrorAppError(t *testing.T) {
	tests := []struct {
		name       string
		err        *apperr.Error
		wantStatus int
		wantBody   string
	}{
		{
			name:       "bad request with code",
			err:        apperr.NewBadRequest("An account with this email already exists.").WithCode(apperr.CodeEmailAlreadyExists),
			wantStatus: http.StatusBadRequest,
			wantBody:   `{"error":"An account with this email already exists.","errCode":"EMAIL_ALREADY_EXISTS"}`,
		},
		{
			name:       "unauthorized without code",
			err:        apperr.NewUnauthorized("Missing Authorization token"),
			wantStatus: http.StatusUnauthorized,
			wantBody:   `{"error":"Missing Authorization token","errCode":null}`,
		},
		{
			name:       "forbidden",
			err:        apperr.NewForbidden("This endpoint is only accessible to super admins."),
			wantStatus: http.StatusForbidden,
			wantBody:   `{"error":"This endpoint is only accessible to super admins.","errCode":null}`,
		},
		{
			name:       "not found",
			err:        apperr.NewNotFound("Unable to find valid authorized user."),
			wantStatus: http.StatusNotFound,
			wantBody:   `{"error":"Unable to find valid authorized user.","errCode":null}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			WriteError(rec, httptest.NewRequest("GET", "/test", nil), testLogger(), tt.err)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.JSONEq(t, tt.wantBody, rec.Body.String())
			assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
		})
	}
}

func TestWriteErrorWrappedAppError(t *testing.T) {
	// Classification survives fmt.Errorf wrapping on the way up the stack.
	wrapped := fmt.Errorf("handling request: %w", apperr.NewNotFound("Unable to find valid user profile."))

	rec := httptest.NewRecorder()
	WriteError(rec, httptest.NewRequest("GET", "/test", nil), testLogger(), wrapped)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"error":"Unable to find valid user profile.","errCode":null}`, rec.Body.String())
}

func TestWriteErrorValidation(t *testing.T) {
	valErr := &ValidationError{Fields: []FieldError{
		{Field: "email", Reason: "is required"},
		{Field: "displayName", Reason: "must have at most 100 items or characters"},
	}}

	rec := httptest.NewRecorder()
	WriteError(rec, httptest.NewRequest("POST", "/test", nil), testLogger(), valErr)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t,
		`{"error":"email: is required, displayName: must have at most 100 items or characters","errCode":null}`,
		rec.Body.String())
}

func TestWriteErrorMasksUnexpectedErrors(t *testing.T) {
	// Internal details must never reach the client.
	rec := httptest.NewRecorder()
	WriteError(rec, httptest.NewRequest("GET", "/test", nil), testLogger(),
		errors.New("pq: connection refused at 10.0.0.5:5432"))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"Internal Server Error","errCode":null}`, rec.Body.String())
	assert.NotContains(t, rec.Body.String(), "10.0.0.5")
}

func TestErrorEnvelopeShape(t *testing.T) {
	// Both fields are always present; errCode is the JSON null when unset.
	var env ErrorEnvelope
	env.Error = "boom"

	data, err := json.Marshal(env)
	require.NoError(t, err)
	assert.JSONEq(t, `{"error":"boom","errCode":null}`, string(data))
}

func TestWriteNoContent(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteNoContent(rec)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Empty(t, rec.Body.String())
}
