package session

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

const contextKey = "session"

// Middleware restores the session for every request before any handler runs.
func Middleware(b Backend) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			st := New(b.Bind(c))
			st.Restore(c.Request().Context())
			c.Set(contextKey, st)
			return next(c)
		}
	}
}

func FromContext(c echo.Context) *State {
	st, _ := c.Get(contextKey).(*State)
	return st
}

// RequireSession redirects to the landing page when no session is active.
// Nothing from the protected handler is written in that case.
func RequireSession(landing string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if FromContext(c).Current() == nil {
				return c.Redirect(http.StatusFound, landing)
			}
			return next(c)
		}
	}
}
