package util

import (
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
)

// APIErrorParams carries the user-facing message and the underlying error
// for an error response. The error detail is only echoed to the client in
// the development environment; otherwise the message alone is returned.
type APIErrorParams struct {
	Msg string
	Err error
}

func errorBody(params APIErrorParams) gin.H {
	body := gin.H{"message": params.Msg}
	if os.Getenv("APPENV") == "development" && params.Err != nil {
		body["error"] = params.Err.Error()
	}
	return body
}

// CallUserError returns a 400 response for malformed or invalid input.
func CallUserError(c *gin.Context, params APIErrorParams) {
	c.JSON(http.StatusBadRequest, errorBody(params))
}

// CallErrorNotFound returns a 404 response for a missing entity.
func CallErrorNotFound(c *gin.Context, params APIErrorParams) {
	c.JSON(http.StatusNotFound, errorBody(params))
}

// CallUserNotAuthorized returns a 401 response for missing or invalid credentials.
func CallUserNotAuthorized(c *gin.Context, params APIErrorParams) {
	c.JSON(http.StatusUnauthorized, errorBody(params))
}

// CallPermissionDenied returns a 403 response for an authenticated caller
// whose role or ownership does not permit the operation.
func CallPermissionDenied(c *gin.Context, params APIErrorParams) {
	c.JSON(http.StatusForbidden, errorBody(params))
}

// CallServerError returns a generic 500 response. The underlying error is
// logged server-side by the caller, never exposed outside development.
func CallServerError(c *gin.Context, params APIErrorParams) {
	c.JSON(http.StatusInternalServerError, errorBody(params))
}
