package httpserver

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/enfoque_qr/internal/backend"
	"github.com/Skotchmaster/enfoque_qr/internal/events"
	"github.com/Skotchmaster/enfoque_qr/internal/menu"
	"github.com/Skotchmaster/enfoque_qr/pkg/logging"
)

const minPasswordLen = 6

type userRow struct {
	User      backend.User
	Open      bool
	Placement menu.Placement
	ToggleURL string
}

type userList struct {
	Rows []userRow
}

type userFields struct {
	Email    string
	FullName string
	Phone    string
	Role     string
	Status   int
}

type userForm struct {
	ID    string
	Form  userFields
	Roles []string
}

// ListUsers renders the users table. The open actions menu travels in the
// query: menu is the open row id, bottom and vh the trigger's bottom edge and
// the viewport height measured by the browser.
func (h *ConsoleHTTP) ListUsers(c echo.Context) error {
	var actions menu.List
	if id := c.QueryParam("menu"); id != "" {
		actions.Toggle(id, queryFloat(c, "bottom"), queryFloat(c, "vh"))
	}
	return h.renderUsers(c, http.StatusOK, "", &actions)
}

func (h *ConsoleHTTP) renderUsers(c echo.Context, code int, errMsg string, actions *menu.List) error {
	ctx := adminContext(c)
	l := logging.FromContext(ctx).With("handler", "users_list")

	users, err := h.API.ListUsers(ctx)
	if err != nil {
		l.Warn("users_list_failed", "status", backend.StatusOf(err), "error", err)
		if errMsg == "" {
			errMsg = backend.MessageOf(err, "Error al cargar los usuarios")
		}
		return render(c, upstreamStatus(err), "usuarios", "Usuarios", userList{}, errMsg)
	}

	open, placement := actions.Open()
	if open != "" && !listsUser(users, open) {
		// the row is gone, usually deleted from another tab
		actions.OutsideClick()
	}

	rows := make([]userRow, 0, len(users))
	for _, u := range users {
		id := u.ID.String()
		row := userRow{User: u, ToggleURL: "/admin/usuarios?menu=" + url.QueryEscape(id)}
		if actions.IsOpen(id) {
			row.Open = true
			row.Placement = placement
			row.ToggleURL = "/admin/usuarios"
		}
		rows = append(rows, row)
	}
	return render(c, code, "usuarios", "Usuarios", userList{Rows: rows}, errMsg)
}

func listsUser(users []backend.User, id string) bool {
	for _, u := range users {
		if u.ID.String() == id {
			return true
		}
	}
	return false
}

func (h *ConsoleHTTP) NewUser(c echo.Context) error {
	return render(c, http.StatusOK, "usuario_form", "Nuevo usuario", userForm{
		Form:  userFields{Role: "user", Status: backend.UserActive},
		Roles: backend.UserRoles,
	}, "")
}

func readUserFields(c echo.Context) userFields {
	return userFields{
		Email:    strings.TrimSpace(c.FormValue("email")),
		FullName: strings.TrimSpace(c.FormValue("fullName")),
		Phone:    strings.TrimSpace(c.FormValue("phone")),
		Role:     c.FormValue("role"),
		Status:   formInt(c, "status", backend.UserActive),
	}
}

// validatePassword checks a new password. required is false when editing.
func validatePassword(password, confirm string, required bool) string {
	if password == "" && !required {
		return ""
	}
	if password != confirm {
		return "Las contraseñas no coinciden"
	}
	if len(password) < minPasswordLen {
		return "La contraseña debe tener al menos 6 caracteres"
	}
	return ""
}

func phonePtr(p string) *string {
	if p == "" {
		return nil
	}
	return &p
}

func (h *ConsoleHTTP) CreateUser(c echo.Context) error {
	ctx := adminContext(c)
	l := logging.FromContext(ctx).With("handler", "users_create")

	form := userForm{Form: readUserFields(c), Roles: backend.UserRoles}
	if form.Form.Role == "" {
		form.Form.Role = "user"
	}
	password := c.FormValue("password")
	fail := func(code int, msg string) error {
		return render(c, code, "usuario_form", "Nuevo usuario", form, msg)
	}

	if form.Form.Email == "" || password == "" || form.Form.FullName == "" {
		return fail(http.StatusBadRequest, "Por favor completa todos los campos obligatorios")
	}
	if msg := validatePassword(password, c.FormValue("confirmPassword"), true); msg != "" {
		return fail(http.StatusBadRequest, msg)
	}

	u, err := h.API.CreateUser(ctx, backend.NewUser{
		Email:    form.Form.Email,
		Password: password,
		FullName: form.Form.FullName,
		Phone:    phonePtr(form.Form.Phone),
		Role:     form.Form.Role,
	})
	if err != nil {
		l.Warn("user_create_failed", "status", backend.StatusOf(err), "error", err)
		return fail(upstreamStatus(err), backend.MessageOf(err, "Error al crear usuario"))
	}

	h.emit(c, events.UserCreated, u.ID.String(), map[string]any{"role": form.Form.Role})
	return redirect(c, "/admin/usuarios")
}

func (h *ConsoleHTTP) EditUser(c echo.Context) error {
	ctx := adminContext(c)
	l := logging.FromContext(ctx).With("handler", "users_edit")
	id := c.Param("id")

	u, err := h.API.GetUser(ctx, id)
	if err != nil {
		l.Warn("user_get_failed", "status", backend.StatusOf(err), "error", err)
		return renderError(c, upstreamStatus(err), "Error al cargar el usuario")
	}

	role := u.Role
	if role == "" {
		role = "user"
	}
	return render(c, http.StatusOK, "usuario_form", "Editar usuario", userForm{
		ID: id,
		Form: userFields{
			Email:    u.Email,
			FullName: u.FullName,
			Phone:    derefString(u.Phone),
			Role:     role,
			Status:   u.Status,
		},
		Roles: backend.UserRoles,
	}, "")
}

func (h *ConsoleHTTP) UpdateUser(c echo.Context) error {
	ctx := adminContext(c)
	l := logging.FromContext(ctx).With("handler", "users_update")
	id := c.Param("id")

	form := userForm{ID: id, Form: readUserFields(c), Roles: backend.UserRoles}
	password := c.FormValue("password")
	fail := func(code int, msg string) error {
		return render(c, code, "usuario_form", "Editar usuario", form, msg)
	}

	if form.Form.Email == "" || form.Form.FullName == "" {
		return fail(http.StatusBadRequest, "Por favor completa todos los campos obligatorios")
	}
	if msg := validatePassword(password, c.FormValue("confirmPassword"), false); msg != "" {
		return fail(http.StatusBadRequest, msg)
	}

	_, err := h.API.UpdateUser(ctx, id, backend.UserUpdate{
		Email:    form.Form.Email,
		FullName: form.Form.FullName,
		Phone:    phonePtr(form.Form.Phone),
		Role:     form.Form.Role,
		Status:   form.Form.Status,
		Password: password,
	})
	if err != nil {
		l.Warn("user_update_failed", "status", backend.StatusOf(err), "error", err)
		return fail(upstreamStatus(err), backend.MessageOf(err, "Error al actualizar el usuario"))
	}

	h.emit(c, events.UserUpdated, id, map[string]any{"role": form.Form.Role, "status": form.Form.Status})
	return redirect(c, "/admin/usuarios")
}

// DeleteUser is the delete action of a row menu. The redirect drops the menu
// query, so the menu is closed once the action has run.
func (h *ConsoleHTTP) DeleteUser(c echo.Context) error {
	ctx := adminContext(c)
	l := logging.FromContext(ctx).With("handler", "users_delete")
	id := c.Param("id")

	// the delete button lives inside the row's open menu
	var actions menu.List
	actions.Toggle(id, 0, 0)
	err := actions.Invoke(id, func() error { return h.API.DeleteUser(ctx, id) })
	if err != nil {
		l.Warn("user_delete_failed", "status", backend.StatusOf(err), "error", err)
		return h.renderUsers(c, upstreamStatus(err), backend.MessageOf(err, "Error al eliminar el usuario"), &actions)
	}

	h.emit(c, events.UserDeleted, id, nil)
	return redirect(c, "/admin/usuarios")
}
