package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/hakancineli/smmmm/pkg/jwtutil"
	"github.com/hakancineli/smmmm/pkg/logger"
)

// RequireKind creates a middleware that validates the bearer access
// token and requires its subject kind to match. The claims are stored in
// the context under "subject"; tenant handlers scope every query by the
// claims' subject id and never trust a client-supplied tenant id.
func RequireKind(jwtUtil *jwtutil.JWTUtil, kind string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			log := logger.FromContext(c)

			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				log.Warn("Missing authorization header")
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authorization required", "code": "unauthorized"})
			}

			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || parts[0] != "Bearer" {
				log.Warn("Invalid authorization header format")
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid authorization header format", "code": "unauthorized"})
			}

			claims, err := jwtUtil.VerifyAccess(parts[1])
			if err != nil {
				log.Warn("Invalid or expired token", zap.Error(err))
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid or expired token", "code": "unauthorized"})
			}

			if claims.Kind != kind {
				log.Warn("Token kind mismatch",
					zap.String("required", kind),
					zap.String("got", claims.Kind))
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token", "code": "unauthorized"})
			}

			c.Set("subject", claims)
			return next(c)
		}
	}
}

// Subject retrieves the verified claims placed by RequireKind
func Subject(c echo.Context) (*jwtutil.Claims, bool) {
	claims, ok := c.Get("subject").(*jwtutil.Claims)
	return claims, ok
}
