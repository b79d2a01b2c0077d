package httpserver

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/enfoque_qr/internal/backend"
	"github.com/Skotchmaster/enfoque_qr/internal/events"
	"github.com/Skotchmaster/enfoque_qr/internal/upload"
	"github.com/Skotchmaster/enfoque_qr/pkg/logging"
)

type documentForm struct {
	EquipmentID string
	Name        string
	Type        string
	Equipments  []backend.Equipment
}

func (h *ConsoleHTTP) NewDocument(c echo.Context) error {
	return h.renderDocumentForm(c, http.StatusOK, documentForm{EquipmentID: c.QueryParam("equipmentId")}, "")
}

func (h *ConsoleHTTP) renderDocumentForm(c echo.Context, code int, form documentForm, errMsg string) error {
	ctx := adminContext(c)
	eqs, err := h.API.ListEquipments(ctx)
	if err != nil {
		logging.FromContext(ctx).Warn("equipments_list_failed", "handler", "documents_new", "status", backend.StatusOf(err), "error", err)
		if errMsg == "" {
			errMsg = "Error al cargar los equipos"
		}
	}
	form.Equipments = eqs
	return render(c, code, "doc_form", "Nuevo documento", form, errMsg)
}

func (h *ConsoleHTTP) UploadDocument(c echo.Context) error {
	ctx := adminContext(c)
	l := logging.FromContext(ctx).With("handler", "documents_upload")

	form := documentForm{
		EquipmentID: c.FormValue("equipmentId"),
		Name:        strings.TrimSpace(c.FormValue("name")),
		Type:        strings.TrimSpace(c.FormValue("type")),
	}
	fail := func(code int, msg string) error {
		return h.renderDocumentForm(c, code, form, msg)
	}

	fh, err := c.FormFile("file")
	if err != nil || fh.Filename == "" {
		return fail(http.StatusBadRequest, "Debes seleccionar un archivo")
	}
	if form.EquipmentID == "" {
		return fail(http.StatusBadRequest, "Debes seleccionar un equipo")
	}
	s := currentSession(c)
	if s == nil || s.InstitutionID == "" {
		return fail(http.StatusBadRequest, "No se pudo obtener la institución del usuario")
	}
	file, err := upload.FromMultipart(fh)
	if err != nil {
		l.Warn("document_read_failed", "status", 400, "error", err)
		return fail(http.StatusBadRequest, "Error al cargar documento")
	}
	if form.Name == "" {
		form.Name = file.Name
	}

	doc, err := h.API.UploadEquipmentDocument(ctx, form.EquipmentID, backend.NewDocument{
		Name:          form.Name,
		Type:          form.Type,
		UserID:        s.UserID,
		InstitutionID: s.InstitutionID,
		File:          file,
	})
	if err != nil {
		l.Warn("document_upload_failed", "status", backend.StatusOf(err), "error", err)
		return fail(upstreamStatus(err), "Error al cargar documento")
	}

	h.emit(c, events.DocumentUploaded, doc.ID.String(), map[string]any{
		"equipment_id": form.EquipmentID,
		"name":         form.Name,
		"size":         file.Size(),
	})
	return redirect(c, "/admin/equipos?ok=documento")
}

func (h *ConsoleHTTP) DeleteDocument(c echo.Context) error {
	ctx := adminContext(c)
	l := logging.FromContext(ctx).With("handler", "documents_delete")
	id := c.Param("id")
	back := "/admin/equipos"
	if eqID := c.FormValue("equipmentId"); eqID != "" {
		back = "/admin/equipos/" + url.PathEscape(eqID) + "/editar"
	}

	if err := h.API.DeleteDocument(ctx, id); err != nil {
		l.Warn("document_delete_failed", "status", backend.StatusOf(err), "error", err)
		return renderError(c, upstreamStatus(err), backend.MessageOf(err, "Error al eliminar el documento"))
	}

	h.emit(c, events.DocumentDeleted, id, nil)
	return redirect(c, back+"?ok=eliminado")
}
