package authRoutes

import (
	authController "advisory/controllers/auth"
	"advisory/middleware"
	authValidator "advisory/validators/auth"

	"github.com/gofiber/fiber/v2"
)

func SetupAuthRoutes(app *fiber.App, h *authController.Handler) {
	authGroup := app.Group("/auth")

	authGroup.Post("/register", authValidator.Register(), h.Register)
	authGroup.Post("/login", authValidator.Login(), h.Login)
	authGroup.Post("/send/otp", authValidator.SendOTP(), h.SendOTP)
	authGroup.Post("/verify/otp", authValidator.VerifyOTP(), h.VerifyOTP)
	authGroup.Post("/forgot/password", authValidator.ForgotPassword(), h.ForgotPassword)
	authGroup.Post("/reset/password", authValidator.ResetPassword(), h.ResetPassword)
	authGroup.Get("/me", middleware.JWTMiddleware, h.Me)
}
