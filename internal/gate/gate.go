// Package gate is the institutional gate of the public QR pages: a marker
// cookie that unlocks private documents and maintenance creation. The marker
// carries no claims and is checked only for presence.
package gate

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/enfoque_qr/internal/session"
)

const (
	CookieName = "institucion_session"
	// TokenCookie holds the bearer token from the gate login, used only to
	// authenticate backend calls made for the QR pages.
	TokenCookie = "institucion_token"
	TTL         = 24 * time.Hour
)

type Gate struct {
	Secure bool
}

func IsOpen(r *http.Request) bool {
	ck, err := r.Cookie(CookieName)
	return err == nil && ck.Value != ""
}

// Token returns the gate's bearer token, or "" when the gate is closed.
func Token(r *http.Request) string {
	if !IsOpen(r) {
		return ""
	}
	ck, err := r.Cookie(TokenCookie)
	if err != nil {
		return ""
	}
	return ck.Value
}

func (g Gate) Open(c echo.Context, token string) {
	exp := time.Now().Add(TTL)
	c.SetCookie(session.CreateCookie(CookieName, "ok", "/", exp, g.Secure))
	if token != "" {
		c.SetCookie(session.CreateCookie(TokenCookie, token, "/", exp, g.Secure))
	}
}

func (g Gate) Close(c echo.Context) {
	c.SetCookie(session.DeleteCookie(CookieName, "/", g.Secure))
	c.SetCookie(session.DeleteCookie(TokenCookie, "/", g.Secure))
}
