package validator

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"tritonthenix/api"
)

// RequireAdmin aborts unless the authenticated session has admin privileges.
func RequireAdmin(c *gin.Context) {
	sess, ok := FromContext(c)
	if !ok {
		api.WriteError(c, api.NewError(api.CodeUnauthenticated, "sign in required"))
		return
	}
	if !sess.IsAdmin {
		api.WriteError(c, api.NewError(api.CodePermissionDenied, "admin privileges required"))
	}
}

// RequestErrorHandler renders OpenAPI request validation failures in the
// shared error shape. The validator reports failed security requirements as
// 400; they are answered with 401 instead.
func RequestErrorHandler(c *gin.Context, message string, statusCode int) {
	if strings.Contains(message, "SecurityRequirementsError") || strings.Contains(message, "security requirements failed") {
		statusCode = http.StatusUnauthorized
		message = "sign in required"
	}
	api.WriteError(c, &api.Error{
		Code:       api.CodeForStatus(statusCode),
		Message:    message,
		HTTPStatus: statusCode,
	})
}
