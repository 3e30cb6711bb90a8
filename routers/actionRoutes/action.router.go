package actionRoutes

import (
	actionController "advisory/controllers/action"

	"github.com/gofiber/fiber/v2"
)

// SetupActionRoutes mounts the action-multiplexed endpoint at /api and at
// the root path.
func SetupActionRoutes(app *fiber.App, d *actionController.Dispatcher) {
	app.Post("/api", d.Handle)
	app.Post("/", d.Handle)
}
