package middleware

import (
	"net/http"
	"strings"

	"github.com/bazaarbd/bazaar-backend-go/models"
	"github.com/bazaarbd/bazaar-backend-go/utils"
	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"
)

const (
	// PrincipalKey holds the models.Principal of an authenticated request.
	PrincipalKey = "principal"
	// UserIDKey holds the caller's primitive.ObjectID.
	UserIDKey = "userID"
)

type TokenValidator interface {
	ValidateJWT(token string) (*utils.Claims, error)
}

func unauthorized(c echo.Context, message string) error {
	return c.JSON(http.StatusUnauthorized, map[string]interface{}{"success": false, "message": message})
}

// AuthMiddleware requires a valid bearer token and stores the caller's
// principal on the context.
func AuthMiddleware(tokens TokenValidator) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				return unauthorized(c, "Authentication required")
			}

			tokenParts := strings.Split(authHeader, " ")
			if len(tokenParts) != 2 || tokenParts[0] != "Bearer" {
				return unauthorized(c, "Invalid authorization header format")
			}

			claims, err := tokens.ValidateJWT(tokenParts[1])
			if err != nil {
				log.WithError(err).Debug("rejected bearer token")
				return unauthorized(c, "Invalid or expired token")
			}
			principal, err := claims.Principal()
			if err != nil {
				return unauthorized(c, "Invalid or expired token")
			}

			c.Set(PrincipalKey, principal)
			c.Set(UserIDKey, principal.ID)
			return next(c)
		}
	}
}

// AdminOnly rejects callers without the admin role. It must run after
// AuthMiddleware.
func AdminOnly(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		principal, _ := c.Get(PrincipalKey).(models.Principal)
		if !principal.Authenticated() {
			return unauthorized(c, "Authentication required")
		}
		if !principal.IsAdmin() {
			return c.JSON(http.StatusForbidden, map[string]interface{}{"success": false, "message": "Admin access required"})
		}
		return next(c)
	}
}
