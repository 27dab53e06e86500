package validator

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/getkin/kin-openapi/openapi3filter"
	"github.com/gin-gonic/gin"
	middleware "github.com/oapi-codegen/gin-middleware"

	"tritonthenix/services/session"
)

const (
	SecurityScheme = "bearerAuth"

	sessionKey = "session"
	tokenKey   = "session_token"
)

var (
	ErrNoAuthHeader      = errors.New("Authorization header is missing")
	ErrInvalidAuthHeader = errors.New("Authorization header is malformed")
)

// GetTokenFromRequest extracts the session token from an
// Authorization: Bearer <token> header.
func GetTokenFromRequest(req *http.Request) (string, error) {
	authHdr := req.Header.Get("Authorization")
	if authHdr == "" {
		return "", ErrNoAuthHeader
	}
	prefix := "Bearer "
	if !strings.HasPrefix(authHdr, prefix) {
		return "", ErrInvalidAuthHeader
	}
	token := strings.TrimSpace(strings.TrimPrefix(authHdr, prefix))
	if token == "" {
		return "", ErrInvalidAuthHeader
	}
	return token, nil
}

// NewAuthenticator resolves the bearer token of every operation that
// declares the bearerAuth scheme and stores the session on the gin context.
func NewAuthenticator(sessions session.Service) openapi3filter.AuthenticationFunc {
	return func(ctx context.Context, input *openapi3filter.AuthenticationInput) error {
		if input.SecuritySchemeName != SecurityScheme {
			return fmt.Errorf("security scheme %s != '%s'", input.SecuritySchemeName, SecurityScheme)
		}
		token, err := GetTokenFromRequest(input.RequestValidationInput.Request)
		if err != nil {
			return fmt.Errorf("getting token: %w", err)
		}
		sess, err := sessions.Resolve(ctx, token)
		if err != nil {
			return fmt.Errorf("resolving session: %w", err)
		}
		c := middleware.GetGinContext(ctx)
		if c == nil {
			return errors.New("missing gin context")
		}
		c.Set(sessionKey, sess)
		c.Set(tokenKey, token)
		return nil
	}
}

// FromContext returns the session attached by the authenticator.
func FromContext(c *gin.Context) (*session.Session, bool) {
	v, ok := c.Get(sessionKey)
	if !ok {
		return nil, false
	}
	sess, ok := v.(*session.Session)
	return sess, ok && sess != nil
}

// TokenFromContext returns the raw bearer token of the current session.
func TokenFromContext(c *gin.Context) (string, bool) {
	v, ok := c.Get(tokenKey)
	if !ok {
		return "", false
	}
	token, ok := v.(string)
	return token, ok
}
