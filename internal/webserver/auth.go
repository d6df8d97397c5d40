package webserver

import (
	"net/http"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/spf13/cast"
)

// Bearer token claims issued by the external identity provider:
// uid (subject id), usr (username), lvl (operator level).

func tokenClaims(c echo.Context) jwt.MapClaims {
	token, ok := c.Get("user").(*jwt.Token)
	if !ok {
		return jwt.MapClaims{}
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return jwt.MapClaims{}
	}
	return claims
}

// OprID returns the authenticated subject id.
func OprID(c echo.Context) string {
	return cast.ToString(tokenClaims(c)["uid"])
}

// OprName returns the authenticated username.
func OprName(c echo.Context) string {
	return cast.ToString(tokenClaims(c)["usr"])
}

// OprLevel returns the operator level claim.
func OprLevel(c echo.Context) string {
	return cast.ToString(tokenClaims(c)["lvl"])
}

// superRequired guards moderator-only routes.
func superRequired(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if OprLevel(c) != "super" {
			return c.JSON(http.StatusForbidden, map[string]interface{}{
				"code":    "FORBIDDEN",
				"message": "Moderator privileges required",
			})
		}
		return next(c)
	}
}
