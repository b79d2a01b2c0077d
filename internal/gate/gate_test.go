package gate

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func cookieByName(cookies []*http.Cookie, name string) *http.Cookie {
	for _, ck := range cookies {
		if ck.Name == name {
			return ck
		}
	}
	return nil
}

func TestGate_OpenSetsDayLongMarker(t *testing.T) {
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodPost, "/qr/t1/login", nil), rec)

	Gate{}.Open(c, "a.b.c")

	cookies := rec.Result().Cookies()
	marker := cookieByName(cookies, CookieName)
	require.NotNil(t, marker)
	assert.Equal(t, "ok", marker.Value)
	assert.Equal(t, "/", marker.Path)
	assert.WithinDuration(t, time.Now().Add(24*time.Hour), marker.Expires, time.Minute)

	req := httptest.NewRequest(http.MethodGet, "/qr/t1", nil)
	for _, ck := range cookies {
		req.AddCookie(ck)
	}
	assert.True(t, IsOpen(req))
	assert.Equal(t, "a.b.c", Token(req))
}

func TestGate_OpenWithoutToken(t *testing.T) {
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodPost, "/qr/t1/login", nil), rec)

	Gate{}.Open(c, "")

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, CookieName, cookies[0].Name)
}

func TestGate_CloseDeletesCookies(t *testing.T) {
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodPost, "/qr/t1/logout", nil), rec)

	Gate{}.Close(c)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 2)
	for _, ck := range cookies {
		assert.Equal(t, -1, ck.MaxAge)
	}
	assert.NotNil(t, cookieByName(cookies, CookieName))
	assert.NotNil(t, cookieByName(cookies, TokenCookie))
}

func TestIsOpen_PresenceOnly(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/qr/t1", nil)
	assert.False(t, IsOpen(req))

	req.AddCookie(&http.Cookie{Name: CookieName, Value: "anything"})
	assert.True(t, IsOpen(req))
	assert.Empty(t, Token(req))
}

func TestToken_IgnoredWhenGateClosed(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/qr/t1", nil)
	req.AddCookie(&http.Cookie{Name: TokenCookie, Value: "a.b.c"})
	assert.Empty(t, Token(req))
}
