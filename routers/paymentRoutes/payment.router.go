package paymentRoutes

import (
	paymentController "advisory/controllers/payment"
	paymentValidator "advisory/validators/payment"

	"github.com/gofiber/fiber/v2"
)

func SetupPaymentRoutes(app *fiber.App, h *paymentController.Handler) {
	paymentGroup := app.Group("/payment")

	paymentGroup.Post("/initiate", paymentValidator.Initiate(), h.InitiatePayment)
	paymentGroup.Post("/verify", paymentValidator.Verify(), h.VerifyPayment)
}
