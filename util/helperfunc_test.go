package util

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func callHelper(t *testing.T, fn func(*gin.Context, APIErrorParams), params APIErrorParams) (int, map[string]interface{}) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	fn(c, params)

	var body map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON body: %v", err)
	}
	return w.Code, body
}

func TestErrorHelperStatusCodes(t *testing.T) {
	tests := []struct {
		fn   func(*gin.Context, APIErrorParams)
		want int
	}{
		{CallUserError, http.StatusBadRequest},
		{CallErrorNotFound, http.StatusNotFound},
		{CallUserNotAuthorized, http.StatusUnauthorized},
		{CallPermissionDenied, http.StatusForbidden},
		{CallServerError, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		code, body := callHelper(t, tt.fn, APIErrorParams{Msg: "boom"})
		assert.Equal(t, tt.want, code)
		assert.Equal(t, "boom", body["message"])
	}
}

func TestErrorDetailHiddenOutsideDevelopment(t *testing.T) {
	t.Setenv("APPENV", "production")

	_, body := callHelper(t, CallUserError, APIErrorParams{
		Msg: "Invalid input",
		Err: errors.New("column users.email does not exist"),
	})
	assert.Equal(t, "Invalid input", body["message"])
	_, leaked := body["error"]
	assert.False(t, leaked)
}

func TestErrorDetailShownInDevelopment(t *testing.T) {
	t.Setenv("APPENV", "development")

	_, body := callHelper(t, CallUserError, APIErrorParams{
		Msg: "Invalid input",
		Err: errors.New("missing field"),
	})
	assert.Equal(t, "Invalid input", body["message"])
	assert.Equal(t, "missing field", body["error"])
}
