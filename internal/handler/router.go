package handler

import (
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
)

// NewRouter registers the API under both / and /api.
func NewRouter(h *TaskHandler, auth Authenticator, log zerolog.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(requestLogger(log))
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	owner := RequireOwner(auth)
	for _, prefix := range []string{"", "/api"} {
		g := e.Group(prefix)
		g.GET("/health", h.HealthHandler)

		g.GET("/tasks", h.ListHandler, owner)
		g.POST("/tasks", h.CreateHandler, owner)
		g.GET("/tasks/export", h.ExportHandler, owner)
		g.GET("/tasks/:id", h.GetHandler, owner)
		g.PUT("/tasks/:id", h.UpdateHandler, owner)
		g.DELETE("/tasks/:id", h.DeleteHandler, owner)

		g.GET("/categories", h.CategoriesHandler, owner)
		g.GET("/reminders", h.RemindersHandler, owner)
	}

	return e
}
