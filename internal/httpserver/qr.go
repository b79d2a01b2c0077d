package httpserver

import (
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/enfoque_qr/internal/backend"
	"github.com/Skotchmaster/enfoque_qr/internal/events"
	"github.com/Skotchmaster/enfoque_qr/internal/gate"
	"github.com/Skotchmaster/enfoque_qr/internal/maintenance"
	"github.com/Skotchmaster/enfoque_qr/internal/qrview"
	"github.com/Skotchmaster/enfoque_qr/internal/upload"
	"github.com/Skotchmaster/enfoque_qr/pkg/logging"
)

// QRHTTP serves the public pages a scanned label opens.
type QRHTTP struct {
	API       *backend.Client
	Resolver  *qrview.Resolver
	Submitter *maintenance.Submitter
	Gate      gate.Gate
	Events    events.Publisher
}

type qrPage struct {
	View *qrview.View
}

func qrPath(token string) string {
	return "/qr/" + url.PathEscape(token)
}

func (h *QRHTTP) Show(c echo.Context) error {
	ctx := qrContext(c)
	token := c.Param("token")

	// the gate is read once per request
	v, err := h.Resolver.Resolve(ctx, token, gate.IsOpen(c.Request()))
	if err != nil {
		logging.FromContext(ctx).Warn("qr_resolve_failed", "handler", "qr_show", "status", 404, "error", err)
		return renderError(c, http.StatusNotFound, "QR no encontrado")
	}
	title := "Equipo"
	if v.Equipment != nil && v.Equipment.Name != "" {
		title = v.Equipment.Name
	}
	return render(c, http.StatusOK, "qr", title, qrPage{View: v}, "")
}

func (h *QRHTTP) Image(c echo.Context) error {
	ctx := qrContext(c)
	dl, err := h.API.QRImage(ctx, c.Param("token"))
	if err != nil {
		logging.FromContext(ctx).Warn("qr_image_failed", "handler", "qr_image", "status", backend.StatusOf(err), "error", err)
		return echo.NewHTTPError(upstreamStatus(err), "QR no encontrado")
	}
	return stream(c, dl)
}

type gateLogin struct {
	Token    string
	Username string
}

func (h *QRHTTP) LoginForm(c echo.Context) error {
	return render(c, http.StatusOK, "qr_login", "Acceso institucional", gateLogin{Token: c.Param("token")}, "")
}

// Login opens the gate after the backend accepts the credentials.
func (h *QRHTTP) Login(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "qr_login")
	token := c.Param("token")

	form := gateLogin{Token: token, Username: strings.TrimSpace(c.FormValue("username"))}
	password := c.FormValue("password")
	if form.Username == "" || password == "" {
		return render(c, http.StatusBadRequest, "qr_login", "Acceso institucional", form, "Usuario o clave incorrectos")
	}

	res, err := h.API.Login(ctx, form.Username, password)
	if err != nil {
		code := http.StatusUnauthorized
		if !backend.IsUnauthorized(err) {
			code = upstreamStatus(err)
		}
		l.Warn("gate_login_failed", "status", code, "error", err)
		return render(c, code, "qr_login", "Acceso institucional", form, backend.MessageOf(err, "Usuario o clave incorrectos"))
	}

	h.Gate.Open(c, res.AccessToken)
	l.Info("gate_opened", "token", token)
	return redirect(c, qrPath(token))
}

func (h *QRHTTP) Logout(c echo.Context) error {
	h.Gate.Close(c)
	return redirect(c, qrPath(c.Param("token")))
}

type maintenancePage struct {
	Token     string
	Equipment *backend.Equipment
	Form      maintenance.Form
	Statuses  []string
}

// equipmentFor validates the token before a maintenance can be registered.
func (h *QRHTTP) equipmentFor(c echo.Context, token string) (*backend.Equipment, string) {
	ctx := qrContext(c)
	eq, err := h.API.EquipmentByQR(ctx, token)
	if err != nil && !errors.Is(err, backend.ErrNotFound) {
		logging.FromContext(ctx).Warn("equipment_by_qr_failed", "handler", "maintenance_form", "error", err)
		return nil, "Error al validar el token"
	}
	if err != nil || eq == nil || eq.ID == "" {
		return nil, "Equipo no encontrado o token inválido"
	}
	return eq, ""
}

func (h *QRHTTP) NewMaintenance(c echo.Context) error {
	token := c.Param("token")
	if !gate.IsOpen(c.Request()) {
		return redirect(c, qrPath(token)+"/login")
	}
	eq, msg := h.equipmentFor(c, token)
	if eq == nil {
		return renderError(c, http.StatusNotFound, msg)
	}
	return render(c, http.StatusOK, "maintenance_form", "Nueva Mantención", maintenancePage{
		Token:     token,
		Equipment: eq,
		Statuses:  backend.MaintenanceStatuses,
	}, "")
}

func (h *QRHTTP) CreateMaintenance(c echo.Context) error {
	ctx := qrContext(c)
	l := logging.FromContext(ctx).With("handler", "maintenance_create")
	token := c.Param("token")

	if !gate.IsOpen(c.Request()) {
		return redirect(c, qrPath(token)+"/login")
	}
	eq, msg := h.equipmentFor(c, token)
	if eq == nil {
		return renderError(c, http.StatusNotFound, msg)
	}

	page := maintenancePage{
		Token:     token,
		Equipment: eq,
		Statuses:  backend.MaintenanceStatuses,
		Form: maintenance.Form{
			Description: c.FormValue("description"),
			PerformedAt: c.FormValue("performedAt"),
			Technician:  c.FormValue("technician"),
			Status:      c.FormValue("status"),
		},
	}

	var photos, docs []upload.File
	if mf, err := c.MultipartForm(); err == nil {
		if photos, err = upload.FromMultipartAll(mf.File["photos"]); err != nil {
			l.Warn("photos_read_failed", "status", 400, "error", err)
			return render(c, http.StatusBadRequest, "maintenance_form", "Nueva Mantención", page, "Error al leer las fotos")
		}
		if docs, err = upload.FromMultipartAll(mf.File["documents"]); err != nil {
			l.Warn("documents_read_failed", "status", 400, "error", err)
			return render(c, http.StatusBadRequest, "maintenance_form", "Nueva Mantención", page, "Error al leer los documentos")
		}
	}

	userID := ""
	if s := currentSession(c); s != nil {
		userID = s.UserID
	}

	m, err := h.Submitter.Submit(ctx, maintenance.Submission{
		EquipmentID: eq.ID.String(),
		UserID:      userID,
		Form:        page.Form,
		Photos:      photos,
		Documents:   docs,
	})
	if m != nil {
		ev := events.New(events.MaintenanceCreated, m.ID.String())
		ev.ActorID = userID
		ev.Data = map[string]any{
			"equipment_id": eq.ID.String(),
			"photos":       len(photos),
			"documents":    len(docs),
			"complete":     err == nil,
		}
		events.Emit(ctx, h.Events, ev)
	}
	if err != nil {
		code := http.StatusBadRequest
		var stepErr *maintenance.StepError
		if errors.As(err, &stepErr) {
			code = upstreamStatus(stepErr.Err)
		}
		return render(c, code, "maintenance_form", "Nueva Mantención", page, maintenance.Message(err))
	}
	return redirect(c, qrPath(token)+"?ok=registrada")
}

type maintenanceDetail struct {
	Token string
	View  *qrview.MaintenanceView
}

func (h *QRHTTP) ShowMaintenance(c echo.Context) error {
	ctx := qrContext(c)
	v, err := h.Resolver.ResolveMaintenance(ctx, c.Param("id"))
	if err != nil {
		logging.FromContext(ctx).Warn("maintenance_resolve_failed", "handler", "maintenance_detail", "status", 404, "error", err)
		return renderError(c, http.StatusNotFound, "No se encontró la mantención")
	}
	return render(c, http.StatusOK, "maintenance_detail", "Detalle de mantención", maintenanceDetail{Token: c.Param("token"), View: v}, "")
}

func (h *QRHTTP) DownloadDocument(c echo.Context) error {
	ctx := qrContext(c)
	dl, err := h.API.DownloadDocument(ctx, c.Param("id"))
	if err != nil {
		logging.FromContext(ctx).Warn("document_download_failed", "handler", "document_download", "status", backend.StatusOf(err), "error", err)
		return echo.NewHTTPError(upstreamStatus(err), "Documento no disponible")
	}
	return stream(c, dl)
}

func (h *QRHTTP) DownloadMaintenanceDocument(c echo.Context) error {
	ctx := qrContext(c)
	dl, err := h.API.DownloadMaintenanceDocument(ctx, c.Param("id"))
	if err != nil {
		logging.FromContext(ctx).Warn("document_download_failed", "handler", "maintenance_document_download", "status", backend.StatusOf(err), "error", err)
		return echo.NewHTTPError(upstreamStatus(err), "Documento no disponible")
	}
	return stream(c, dl)
}
