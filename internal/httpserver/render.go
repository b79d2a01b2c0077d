package httpserver

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/enfoque_qr/internal/session"
	"github.com/Skotchmaster/enfoque_qr/pkg/middleware/csrf"
)

//go:embed templates/*.html
var templateFS embed.FS

const layoutFile = "templates/layout.html"

// Page is what every template receives.
type Page struct {
	Title   string
	CSRF    string
	Session *session.Session
	Path    string
	Error   string
	Success string
	Data    any
}

// Renderer parses each page together with the shared layout.
type Renderer struct {
	pages map[string]*template.Template
}

// NewRenderer takes the resolver for stored file paths, normally the backend
// client's PublicURL.
func NewRenderer(publicURL func(string) string) (*Renderer, error) {
	funcs := template.FuncMap{
		"date":        formatDate,
		"publicURL":   publicURL,
		"deref":       derefString,
		"statusClass": statusClass,
	}

	files, err := fs.Glob(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("glob templates: %w", err)
	}
	r := &Renderer{pages: make(map[string]*template.Template, len(files))}
	for _, f := range files {
		if f == layoutFile {
			continue
		}
		name := strings.TrimSuffix(path.Base(f), ".html")
		t, err := template.New(name).Funcs(funcs).ParseFS(templateFS, layoutFile, f)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", f, err)
		}
		r.pages[name] = t
	}
	return r, nil
}

func (r *Renderer) Render(w io.Writer, name string, data any, _ echo.Context) error {
	t, ok := r.pages[name]
	if !ok {
		return fmt.Errorf("template %q not found", name)
	}
	return t.ExecuteTemplate(w, "layout", data)
}

// render writes a full page. Handlers pass a non-empty errMsg to show a
// page-local error above the content.
func render(c echo.Context, code int, name, title string, data any, errMsg string) error {
	return c.Render(code, name, Page{
		Title:   title,
		CSRF:    csrf.Token(c),
		Session: session.FromContext(c).Current(),
		Path:    c.Request().URL.Path,
		Error:   errMsg,
		Success: flash(c),
		Data:    data,
	})
}

func renderError(c echo.Context, code int, msg string) error {
	return render(c, code, "error", "Enfoque QR", nil, msg)
}

var flashes = map[string]string{
	"registrada": "Mantención registrada correctamente",
	"documento":  "Documento cargado correctamente",
	"guardado":   "Cambios guardados correctamente",
	"eliminado":  "Eliminado correctamente",
}

func flash(c echo.Context) string {
	return flashes[c.QueryParam("ok")]
}

func formatDate(v string) string {
	if v == "" {
		return "-"
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, v); err == nil {
			return t.Format("02/01/2006")
		}
	}
	return v
}

func statusClass(status string) string {
	switch status {
	case "activo", "completada":
		return "ok"
	case "inactivo", "incompleta":
		return "off"
	default:
		return "warn"
	}
}

func redirect(c echo.Context, to string) error {
	return c.Redirect(http.StatusSeeOther, to)
}
