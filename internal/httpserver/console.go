package httpserver

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/enfoque_qr/internal/backend"
	"github.com/Skotchmaster/enfoque_qr/internal/events"
	"github.com/Skotchmaster/enfoque_qr/internal/search"
	"github.com/Skotchmaster/enfoque_qr/internal/session"
	"github.com/Skotchmaster/enfoque_qr/pkg/logging"
)

// ConsoleHTTP serves the landing page and the authenticated admin console.
type ConsoleHTTP struct {
	API    *backend.Client
	Events events.Publisher
	Search *search.Service
}

type loginForm struct {
	Email string
}

func (h *ConsoleHTTP) Landing(c echo.Context) error {
	if currentSession(c) != nil {
		return redirect(c, "/admin/home")
	}
	return render(c, http.StatusOK, "landing", "Enfoque QR - Landing", loginForm{}, "")
}

func (h *ConsoleHTTP) Login(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "console_login")

	form := loginForm{Email: strings.TrimSpace(c.FormValue("email"))}
	password := c.FormValue("password")
	if form.Email == "" || password == "" {
		return render(c, http.StatusBadRequest, "landing", "Enfoque QR - Landing", form, "Por favor completa todos los campos obligatorios")
	}

	res, err := h.API.Login(ctx, form.Email, password)
	if err != nil {
		code := http.StatusUnauthorized
		if !backend.IsUnauthorized(err) {
			code = upstreamStatus(err)
		}
		l.Warn("login_failed", "status", code, "error", err)
		return render(c, code, "landing", "Enfoque QR - Landing", form, backend.MessageOf(err, "Error de autenticación"))
	}

	// A token without the expected claims leaves no session; the guard
	// then sends the browser back to the landing page.
	if session.FromContext(c).Login(ctx, res.AccessToken) {
		l.Info("login_successful")
	}
	return redirect(c, "/admin/home")
}

func (h *ConsoleHTTP) Logout(c echo.Context) error {
	session.FromContext(c).Logout(c.Request().Context())
	logging.FromContext(c.Request().Context()).Info("successful_logout")
	return redirect(c, "/")
}

func (h *ConsoleHTTP) Home(c echo.Context) error {
	return render(c, http.StatusOK, "admin_home", "Panel de administración", nil, "")
}

func (h *ConsoleHTTP) emit(c echo.Context, eventType, resourceID string, data map[string]any) {
	ev := events.New(eventType, resourceID)
	if s := currentSession(c); s != nil {
		ev.ActorID = s.UserID
		ev.InstitutionID = s.InstitutionID
	}
	ev.Data = data
	events.Emit(c.Request().Context(), h.Events, ev)
}
