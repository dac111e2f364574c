package routes

import (
	"github.com/LavaJover/shvark-price-service/internal/delivery/http/handlers"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func RegisterCorrectionRoutes(app *fiber.App, h *handlers.CorrectionHandler) {
	api := app.Group("/api")
	api.Post("/corrections", h.Create)
	api.Post("/corrections/:id/revoke", h.Revoke)
	api.Get("/corrections/scope/:scopeType/:scopeId", h.SearchScope)
	api.Get("/corrections/:id", h.Get)
	api.Get("/corrections", h.List)
}

func RegisterRecomputeRoutes(app *fiber.App, h *handlers.RecomputeHandler) {
	api := app.Group("/api")
	api.Post("/recompute", h.Trigger)
	api.Get("/recompute/jobs/:id", h.GetJob)
	api.Get("/recompute/jobs", h.ListJobs)
	api.Get("/recompute/status", h.Status)
}

func RegisterVisiblePriceRoutes(app *fiber.App, h *handlers.VisiblePriceHandler) {
	api := app.Group("/api")
	api.Get("/visible-prices", h.List)
}

func RegisterSystemRoutes(app *fiber.App) {
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))
}
