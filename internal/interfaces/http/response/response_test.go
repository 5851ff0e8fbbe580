package response

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainerrors "device-license.backend/internal/domain/errors"
)

func newContext(body string) (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")
	return c, w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func TestSuccess(t *testing.T) {
	c, w := newContext("")

	Success(c, http.StatusOK, gin.H{"ok": true})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"ok":true`)
}

func TestError_AppError(t *testing.T) {
	c, w := newContext("")

	Error(c, domainerrors.NotFound("missing"))
	assert.Equal(t, http.StatusNotFound, w.Code)
	body := decode(t, w)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, domainerrors.CodeNotFound, body["code"])
	assert.Equal(t, "missing", body["message"])
	assert.NotContains(t, body, "fields")
}

func TestError_WrappedAppError(t *testing.T) {
	c, w := newContext("")

	Error(c, errors.Join(errors.New("context"), domainerrors.Forbidden("nope")))
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestError_GenericError(t *testing.T) {
	c, w := newContext("")

	Error(c, errors.New("boom"))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	body := decode(t, w)
	assert.Equal(t, domainerrors.CodeInternalError, body["code"])
	assert.NotContains(t, w.Body.String(), "boom")
}

func TestErrorWithError(t *testing.T) {
	c, w := newContext("")

	ErrorWithError(c, http.StatusBadRequest, "ERR_X", "bad")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), `"code":"ERR_X"`)
}

type bindTarget struct {
	BiosUUID string `json:"bios_uuid" binding:"required"`
	Version  string `json:"software_version" binding:"required,max=3"`
	Count    int    `json:"count"`
}

func TestBindError_FieldDetail(t *testing.T) {
	c, w := newContext(`{"software_version":"toolong"}`)

	var in bindTarget
	err := c.ShouldBindJSON(&in)
	require.Error(t, err)
	BindError(c, err)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	body := decode(t, w)
	assert.Equal(t, domainerrors.CodeValidation, body["code"])
	fields, ok := body["fields"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "required", fields["bios_uuid"])
	assert.Equal(t, "max:3", fields["software_version"])
}

func TestBindError_TypeMismatch(t *testing.T) {
	c, w := newContext(`{"bios_uuid":"x","software_version":"1","count":"three"}`)

	var in bindTarget
	BindError(c, c.ShouldBindJSON(&in))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	body := decode(t, w)
	fields := body["fields"].(map[string]interface{})
	assert.Equal(t, "type:int", fields["count"])
}

func TestBindError_EmptyBody(t *testing.T) {
	c, w := newContext("")

	var in bindTarget
	BindError(c, c.ShouldBindJSON(&in))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, domainerrors.CodeInvalidInput, decode(t, w)["code"])
}

func TestAbortWithError(t *testing.T) {
	c, w := newContext("")

	AbortWithError(c, domainerrors.Unauthorized("token required"))
	assert.True(t, c.IsAborted())
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
