package adminRoutes

import (
	adminController "advisory/controllers/admin"
	"advisory/middleware"
	"advisory/models"

	"github.com/gofiber/fiber/v2"
)

func SetupAdminRoutes(app *fiber.App, h *adminController.Handler) {
	adminGroup := app.Group("/admin", middleware.JWTMiddleware, middleware.RequireRole(models.RoleAdmin))

	adminGroup.Get("/users", h.ListUsers)
	adminGroup.Get("/payments", h.ListPayments)
}
