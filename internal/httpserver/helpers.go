package httpserver

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/enfoque_qr/internal/backend"
	"github.com/Skotchmaster/enfoque_qr/internal/gate"
	"github.com/Skotchmaster/enfoque_qr/internal/session"
)

// adminContext forwards the console session's bearer token to the backend.
func adminContext(c echo.Context) context.Context {
	ctx := c.Request().Context()
	if s := session.FromContext(c).Current(); s != nil {
		return backend.WithToken(ctx, s.Token)
	}
	return ctx
}

// qrContext prefers the console session and falls back to the gate login.
func qrContext(c echo.Context) context.Context {
	ctx := c.Request().Context()
	if s := session.FromContext(c).Current(); s != nil {
		return backend.WithToken(ctx, s.Token)
	}
	return backend.WithToken(ctx, gate.Token(c.Request()))
}

func currentSession(c echo.Context) *session.Session {
	return session.FromContext(c).Current()
}

// upstreamStatus maps a backend failure onto the status the console answers with.
func upstreamStatus(err error) int {
	switch s := backend.StatusOf(err); {
	case errors.Is(err, backend.ErrNotFound):
		return http.StatusNotFound
	case s >= 400 && s < 500:
		return s
	default:
		return http.StatusBadGateway
	}
}

func formInt(c echo.Context, name string, def int) int {
	v, err := strconv.Atoi(c.FormValue(name))
	if err != nil {
		return def
	}
	return v
}

func queryFloat(c echo.Context, name string) float64 {
	v, err := strconv.ParseFloat(c.QueryParam(name), 64)
	if err != nil {
		return 0
	}
	return v
}

// stream copies a backend download to the client.
func stream(c echo.Context, dl *backend.Download) error {
	defer dl.Body.Close()
	h := c.Response().Header()
	if dl.ContentDisposition != "" {
		h.Set(echo.HeaderContentDisposition, dl.ContentDisposition)
	}
	if dl.ContentLength > 0 {
		h.Set(echo.HeaderContentLength, strconv.FormatInt(dl.ContentLength, 10))
	}
	ct := dl.ContentType
	if ct == "" {
		ct = echo.MIMEOctetStream
	}
	c.Response().Header().Set(echo.HeaderContentType, ct)
	c.Response().WriteHeader(http.StatusOK)
	_, err := io.Copy(c.Response(), dl.Body)
	return err
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
