package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
)

const ownerIDKey = "ownerID"

// Authenticator resolves a bearer token to the owner id it was issued for.
type Authenticator interface {
	Authenticate(token string) (string, error)
}

// RequireOwner rejects requests without a valid bearer token and stores the
// owner id on the context.
func RequireOwner(auth Authenticator) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			// Anything that is not a bearer token is passed on and fails verification.
			token := strings.TrimSpace(strings.TrimPrefix(c.Request().Header.Get(echo.HeaderAuthorization), "Bearer "))
			if token == "" {
				return c.JSON(http.StatusUnauthorized, ErrorResponse{Message: "No token, authorization denied"})
			}
			ownerID, err := auth.Authenticate(token)
			if err != nil {
				return c.JSON(http.StatusUnauthorized, ErrorResponse{Message: "Token is not valid"})
			}
			c.Set(ownerIDKey, ownerID)
			return next(c)
		}
	}
}

// OwnerID returns the owner resolved by RequireOwner.
func OwnerID(c echo.Context) string {
	id, _ := c.Get(ownerIDKey).(string)
	return id
}

func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:  true,
		LogURI:     true,
		LogStatus:  true,
		LogLatency: true,
		LogError:   true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			ev := log.Info()
			if v.Status >= http.StatusInternalServerError {
				ev = log.Error()
			}
			ev.Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("owner_id", OwnerID(c)).
				Err(v.Error).
				Msg("request")
			return nil
		},
	})
}
