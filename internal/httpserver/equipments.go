package httpserver

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/enfoque_qr/internal/backend"
	"github.com/Skotchmaster/enfoque_qr/internal/events"
	"github.com/Skotchmaster/enfoque_qr/internal/search"
	"github.com/Skotchmaster/enfoque_qr/internal/upload"
	"github.com/Skotchmaster/enfoque_qr/pkg/logging"
)

type equipmentList struct {
	Query   string
	Items   []backend.Equipment
	PrevURL string
	NextURL string
}

type equipmentForm struct {
	ID        string
	Form      backend.EquipmentUpdate
	Statuses  []string
	Documents []backend.Document
}

func (h *ConsoleHTTP) ListEquipments(c echo.Context) error {
	return h.renderEquipments(c, http.StatusOK, "")
}

func (h *ConsoleHTTP) renderEquipments(c echo.Context, code int, errMsg string) error {
	ctx := adminContext(c)
	l := logging.FromContext(ctx).With("handler", "equipments_list")

	q := strings.TrimSpace(c.QueryParam("q"))
	all, err := h.API.ListEquipments(ctx)
	if err != nil {
		l.Warn("equipments_list_failed", "status", backend.StatusOf(err), "error", err)
		if errMsg == "" {
			errMsg = "Error al cargar los equipos"
		}
		return render(c, upstreamStatus(err), "equipos", "Equipos", equipmentList{Query: q}, errMsg)
	}

	institutionID := ""
	if s := currentSession(c); s != nil {
		institutionID = s.InstitutionID
	}
	found := h.Search.Find(ctx, institutionID, q, all)

	page, _ := strconv.Atoi(c.QueryParam("page"))
	size, _ := strconv.Atoi(c.QueryParam("size"))
	offset, limit := search.Calculate(page, size)
	if page < 1 {
		page = 1
	}

	data := equipmentList{Query: q}
	if offset < len(found) {
		end := min(offset+limit, len(found))
		data.Items = found[offset:end]
		if end < len(found) {
			data.NextURL = pageURL(q, page+1, limit)
		}
	}
	if page > 1 {
		data.PrevURL = pageURL(q, page-1, limit)
	}
	return render(c, code, "equipos", "Equipos", data, errMsg)
}

func pageURL(q string, page, size int) string {
	v := url.Values{}
	if q != "" {
		v.Set("q", q)
	}
	v.Set("page", strconv.Itoa(page))
	v.Set("size", strconv.Itoa(size))
	return "/admin/equipos?" + v.Encode()
}

func (h *ConsoleHTTP) NewEquipment(c echo.Context) error {
	return render(c, http.StatusOK, "equipo_form", "Nuevo equipo", equipmentForm{
		Form:     backend.EquipmentUpdate{Status: backend.EquipmentActive},
		Statuses: backend.EquipmentStatuses,
	}, "")
}

func (h *ConsoleHTTP) CreateEquipment(c echo.Context) error {
	ctx := adminContext(c)
	l := logging.FromContext(ctx).With("handler", "equipments_create")

	form := equipmentForm{
		Form: backend.EquipmentUpdate{
			Name:         strings.TrimSpace(c.FormValue("name")),
			SerialNumber: strings.TrimSpace(c.FormValue("serialNumber")),
			Status:       c.FormValue("status"),
		},
		Statuses: backend.EquipmentStatuses,
	}
	fail := func(code int, msg string) error {
		return render(c, code, "equipo_form", "Nuevo equipo", form, msg)
	}

	if form.Form.Name == "" || form.Form.SerialNumber == "" {
		return fail(http.StatusBadRequest, "Nombre y número de serie son obligatorios")
	}
	s := currentSession(c)

	in := backend.NewEquipment{
		Name:          form.Form.Name,
		SerialNumber:  form.Form.SerialNumber,
		Status:        form.Form.Status,
		InstitutionID: s.InstitutionID,
	}
	if fh, err := c.FormFile("equipmentPhoto"); err == nil && fh.Filename != "" {
		photo, err := upload.FromMultipart(fh)
		if err != nil {
			l.Warn("equipment_photo_read_failed", "status", 400, "error", err)
			return fail(http.StatusBadRequest, "No se pudo leer la foto")
		}
		// equipment photos are stored as uploaded; only maintenance photos are compressed
		in.Photo = &photo
	}

	eq, err := h.API.CreateEquipment(ctx, in)
	if err != nil {
		l.Warn("equipment_create_failed", "status", backend.StatusOf(err), "error", err)
		return fail(upstreamStatus(err), backend.MessageOf(err, "Error al crear equipo"))
	}

	h.Search.Upsert(ctx, s.InstitutionID, *eq)
	h.emit(c, events.EquipmentCreated, eq.ID.String(), map[string]any{"name": eq.Name, "serial_number": eq.SerialNumber})
	l.Info("equipment_created", "equipment_id", eq.ID)
	return redirect(c, "/admin/equipos")
}

func (h *ConsoleHTTP) EditEquipment(c echo.Context) error {
	ctx := adminContext(c)
	l := logging.FromContext(ctx).With("handler", "equipments_edit")
	id := c.Param("id")

	eq, err := h.API.GetEquipment(ctx, id)
	if err != nil {
		l.Warn("equipment_get_failed", "status", backend.StatusOf(err), "error", err)
		return renderError(c, upstreamStatus(err), "No se pudo cargar el equipo")
	}
	docs, err := h.API.ListEquipmentDocuments(ctx, id)
	if err != nil {
		l.Warn("documents_list_failed", "status", backend.StatusOf(err), "error", err)
	}

	return render(c, http.StatusOK, "equipo_form", "Editar equipo", equipmentForm{
		ID: id,
		Form: backend.EquipmentUpdate{
			Name:         eq.Name,
			SerialNumber: eq.SerialNumber,
			Description:  eq.Description,
			Status:       eq.Status,
		},
		Statuses:  backend.EquipmentStatuses,
		Documents: docs,
	}, "")
}

func (h *ConsoleHTTP) UpdateEquipment(c echo.Context) error {
	ctx := adminContext(c)
	l := logging.FromContext(ctx).With("handler", "equipments_update")
	id := c.Param("id")

	form := equipmentForm{
		ID: id,
		Form: backend.EquipmentUpdate{
			Name:         strings.TrimSpace(c.FormValue("name")),
			SerialNumber: strings.TrimSpace(c.FormValue("serialNumber")),
			Description:  c.FormValue("description"),
			Status:       c.FormValue("status"),
		},
		Statuses: backend.EquipmentStatuses,
	}
	if form.Form.Name == "" || form.Form.SerialNumber == "" {
		return render(c, http.StatusBadRequest, "equipo_form", "Editar equipo", form, "Nombre y número de serie son obligatorios")
	}

	if _, err := h.API.UpdateEquipment(ctx, id, form.Form); err != nil {
		l.Warn("equipment_update_failed", "status", backend.StatusOf(err), "error", err)
		return render(c, upstreamStatus(err), "equipo_form", "Editar equipo", form, "Error al actualizar equipo")
	}

	h.Search.Upsert(ctx, currentSession(c).InstitutionID, backend.Equipment{
		ID:           backend.ID(id),
		Name:         form.Form.Name,
		SerialNumber: form.Form.SerialNumber,
		Description:  form.Form.Description,
		Status:       form.Form.Status,
	})
	h.emit(c, events.EquipmentUpdated, id, map[string]any{"status": form.Form.Status})
	return redirect(c, "/admin/equipos")
}

func (h *ConsoleHTTP) DeleteEquipment(c echo.Context) error {
	ctx := adminContext(c)
	l := logging.FromContext(ctx).With("handler", "equipments_delete")
	id := c.Param("id")

	if err := h.API.DeleteEquipment(ctx, id); err != nil {
		l.Warn("equipment_delete_failed", "status", backend.StatusOf(err), "error", err)
		return h.renderEquipments(c, upstreamStatus(err), "Error al eliminar equipo")
	}

	h.Search.Remove(ctx, id)
	h.emit(c, events.EquipmentDeleted, id, nil)
	return redirect(c, "/admin/equipos")
}

type equipmentLabels struct {
	Equipment backend.Equipment
	QRs       []backend.QR
}

func (h *ConsoleHTTP) EquipmentQRs(c echo.Context) error {
	ctx := adminContext(c)
	l := logging.FromContext(ctx).With("handler", "equipments_qrs")
	id := c.Param("id")

	eq, err := h.API.GetEquipment(ctx, id)
	if err != nil {
		l.Warn("equipment_get_failed", "status", backend.StatusOf(err), "error", err)
		return renderError(c, upstreamStatus(err), "No se pudo cargar el equipo")
	}
	qrs, err := h.API.ListEquipmentQRs(ctx, id)
	if err != nil {
		l.Warn("equipment_qrs_failed", "status", backend.StatusOf(err), "error", err)
		return render(c, upstreamStatus(err), "equipo_qrs", "Etiquetas QR", equipmentLabels{Equipment: *eq}, "Error al cargar los códigos QR")
	}
	return render(c, http.StatusOK, "equipo_qrs", "Etiquetas QR", equipmentLabels{Equipment: *eq, QRs: qrs}, "")
}
