package response

import (
	"encoding/json/v2"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainerrors "github.com/paperdeckapp/paperdeck-server/internal/errors"
)

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) Envelope {
	t.Helper()

	var env Envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return env
}

func TestJSON_Success(t *testing.T) {
	rec := httptest.NewRecorder()

	JSON(rec, http.StatusOK, map[string]string{"name": "attention"}, nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json; charset=utf-8", rec.Header().Get("Content-Type"))

	env := decodeEnvelope(t, rec)
	assert.Equal(t, EnvelopeVersion, env.V)
	assert.True(t, env.Success)
	assert.Nil(t, env.Error)
}

func TestJSON_ErrorStatusSetsSuccessFalse(t *testing.T) {
	rec := httptest.NewRecorder()

	JSON(rec, http.StatusBadRequest, nil, nil)

	env := decodeEnvelope(t, rec)
	assert.False(t, env.Success)
}

func TestSuccess(t *testing.T) {
	rec := httptest.NewRecorder()

	Success(rec, []int{1, 2, 3}, nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	env := decodeEnvelope(t, rec)
	assert.True(t, env.Success)
	assert.NotNil(t, env.Data)
}

func TestNoContent(t *testing.T) {
	rec := httptest.NewRecorder()

	NoContent(rec)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, rec.Body.String())
}

func TestError(t *testing.T) {
	rec := httptest.NewRecorder()

	Error(rec, http.StatusConflict, "CONFLICT", "already exists", nil)

	assert.Equal(t, http.StatusConflict, rec.Code)
	env := decodeEnvelope(t, rec)
	assert.Equal(t, EnvelopeVersion, env.V)
	assert.False(t, env.Success)
	require.NotNil(t, env.Error)
	assert.Equal(t, "CONFLICT", env.Error.Code)
	assert.Equal(t, "already exists", env.Error.Message)
}

func TestErrorHelpers(t *testing.T) {
	tests := []struct {
		name       string
		write      func(w http.ResponseWriter)
		wantStatus int
		wantCode   string
	}{
		{"bad request", func(w http.ResponseWriter) { BadRequest(w, "nope", nil) }, http.StatusBadRequest, "VALIDATION"},
		{"unauthorized", func(w http.ResponseWriter) { Unauthorized(w, "nope", nil) }, http.StatusUnauthorized, "UNAUTHORIZED"},
		{"forbidden", func(w http.ResponseWriter) { Forbidden(w, "nope", nil) }, http.StatusForbidden, "FORBIDDEN"},
		{"not found", func(w http.ResponseWriter) { NotFound(w, "nope", nil) }, http.StatusNotFound, "NOT_FOUND"},
		{"too many requests", func(w http.ResponseWriter) { TooManyRequests(w, "nope", nil) }, http.StatusTooManyRequests, "TRANSPORT"},
		{"internal", func(w http.ResponseWriter) { InternalError(w, "nope", nil) }, http.StatusInternalServerError, "INTERNAL"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			tt.write(rec)

			assert.Equal(t, tt.wantStatus, rec.Code)
			env := decodeEnvelope(t, rec)
			require.NotNil(t, env.Error)
			assert.Equal(t, tt.wantCode, env.Error.Code)
		})
	}
}

func TestHandleError_DomainError(t *testing.T) {
	rec := httptest.NewRecorder()

	HandleError(rec, domainerrors.Conflict("paper already on list"), nil)

	assert.Equal(t, http.StatusConflict, rec.Code)
	env := decodeEnvelope(t, rec)
	require.NotNil(t, env.Error)
	assert.Equal(t, "CONFLICT", env.Error.Code)
	assert.Equal(t, "paper already on list", env.Error.Message)
}

func TestHandleError_UnknownErrorIs500(t *testing.T) {
	rec := httptest.NewRecorder()

	HandleError(rec, assert.AnError, nil)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	env := decodeEnvelope(t, rec)
	require.NotNil(t, env.Error)
	assert.Equal(t, "INTERNAL", env.Error.Code)
}
