package resp

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ncobase/passport/ecode"
)

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestSuccessEnvelope(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/things/1", nil)

	Success(rec, req, "Thing retrieved", map[string]any{"id": 1})

	assert.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "Thing retrieved", body["message"])
	assert.Equal(t, "/things/1", body["path"])
	assert.NotEmpty(t, body["timestamp"])
	assert.NotNil(t, body["data"])
}

func TestSuccessDefaultMessage(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/things", nil)

	Success(rec, req)

	body := decode(t, rec)
	assert.Equal(t, "Operation completed successfully", body["message"])
	_, present := body["data"]
	assert.False(t, present)
}

func TestFailStatusFromCode(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/things", nil)

	Fail(rec, req, &Exception{Code: ecode.AccessDenied})

	assert.Equal(t, http.StatusForbidden, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "Access denied", body["message"])
}

func TestErrorTranslatesTaggedErrors(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/users/9", nil)

	Error(rec, req, ecode.NotFound("User", "9"))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "User not found: 9", body["message"])
}

func TestErrorHidesUnknownCauses(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/things", nil)

	Error(rec, req, errors.New("pq: connection refused"))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "An unexpected error occurred", body["message"])
	assert.NotContains(t, rec.Body.String(), "connection refused")

	props := body["properties"].(map[string]any)
	assert.NotEmpty(t, props["correlationId"])
}

func TestErrorKeepsFieldDetails(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/users", nil)

	Error(rec, req, ecode.Validation([]ecode.FieldError{
		{Field: "email", Code: "EMAIL", Message: "email must be a valid email address"},
	}))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	body := decode(t, rec)
	errs := body["errors"].([]any)
	require.Len(t, errs, 1)
	assert.Equal(t, "email", errs[0].(map[string]any)["field"])
}
