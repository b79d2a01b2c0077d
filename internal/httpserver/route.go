package httpserver

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"

	"github.com/Skotchmaster/enfoque_qr/internal/session"
	"github.com/Skotchmaster/enfoque_qr/pkg/logging"
	"github.com/Skotchmaster/enfoque_qr/pkg/metrics"
	"github.com/Skotchmaster/enfoque_qr/pkg/middleware/csrf"
)

// maxBody covers two 20MB upload groups plus form overhead.
const maxBody = "45M"

type Deps struct {
	Console  *ConsoleHTTP
	QR       *QRHTTP
	Sessions session.Backend
	CSRF     csrf.Config
	Renderer *Renderer

	LoginRate  float64
	LoginBurst int

	// Ready is consulted by /health/ready; nil means always ready.
	Ready func(context.Context) error
}

func Register(e *echo.Echo, d *Deps) {
	e.Renderer = d.Renderer

	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error {
		if d.Ready != nil {
			if err := d.Ready(c.Request().Context()); err != nil {
				logging.FromContext(c.Request().Context()).Warn("not_ready", "error", err)
				return c.NoContent(http.StatusServiceUnavailable)
			}
		}
		return c.NoContent(http.StatusOK)
	})
	e.GET("/metrics", echo.WrapHandler(metrics.Handler()))

	app := e.Group("",
		echomw.BodyLimit(maxBody),
		session.Middleware(d.Sessions),
		csrf.Middleware(d.CSRF),
	)
	limit := loginLimiter(d.LoginRate, d.LoginBurst)

	app.GET("/", d.Console.Landing)
	app.POST("/login", d.Console.Login, limit)
	app.POST("/logout", d.Console.Logout)

	admin := app.Group("/admin", session.RequireSession("/"))
	admin.GET("/home", d.Console.Home)

	admin.GET("/equipos", d.Console.ListEquipments)
	admin.GET("/equipos/nuevo", d.Console.NewEquipment)
	admin.POST("/equipos", d.Console.CreateEquipment)
	admin.GET("/equipos/:id/editar", d.Console.EditEquipment)
	admin.POST("/equipos/:id", d.Console.UpdateEquipment)
	admin.POST("/equipos/:id/eliminar", d.Console.DeleteEquipment)
	admin.GET("/equipos/:id/qrs", d.Console.EquipmentQRs)

	admin.GET("/usuarios", d.Console.ListUsers)
	admin.GET("/usuarios/nuevo", d.Console.NewUser)
	admin.POST("/usuarios", d.Console.CreateUser)
	admin.GET("/usuarios/:id/editar", d.Console.EditUser)
	admin.POST("/usuarios/:id", d.Console.UpdateUser)
	admin.POST("/usuarios/:id/eliminar", d.Console.DeleteUser)

	admin.GET("/docs/nuevo", d.Console.NewDocument)
	admin.POST("/docs", d.Console.UploadDocument)
	admin.POST("/docs/:id/eliminar", d.Console.DeleteDocument)

	qr := app.Group("/qr/:token")
	qr.GET("", d.QR.Show)
	qr.GET("/image", d.QR.Image)
	qr.GET("/login", d.QR.LoginForm)
	qr.POST("/login", d.QR.Login, limit)
	qr.POST("/logout", d.QR.Logout)
	qr.GET("/maintenances/nuevo", d.QR.NewMaintenance)
	qr.POST("/maintenances/nuevo", d.QR.CreateMaintenance)
	qr.GET("/maintenances/:id", d.QR.ShowMaintenance)

	app.GET("/documents/:id/download", d.QR.DownloadDocument)
	app.GET("/maintenances/documents/:id/download", d.QR.DownloadMaintenanceDocument)
}

// loginLimiter throttles credential posts per client IP.
func loginLimiter(r float64, burst int) echo.MiddlewareFunc {
	if r <= 0 {
		return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}
	store := echomw.NewRateLimiterMemoryStoreWithConfig(echomw.RateLimiterMemoryStoreConfig{
		Rate:  rate.Limit(r),
		Burst: burst,
	})
	return echomw.RateLimiterWithConfig(echomw.RateLimiterConfig{
		Store: store,
		DenyHandler: func(c echo.Context, _ string, _ error) error {
			logging.FromContext(c.Request().Context()).Warn("login_rate_limited", "path", c.Path(), "ip", c.RealIP())
			return renderError(c, http.StatusTooManyRequests, "Demasiados intentos, espera un momento")
		},
	})
}
