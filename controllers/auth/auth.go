package authController

import (
	"advisory/middleware"
	"advisory/services"
	authValidator "advisory/validators/auth"

	"github.com/gofiber/fiber/v2"
)

type Handler struct {
	registration *services.RegistrationService
	verification *services.VerificationService
	auth         *services.AuthService
}

func NewHandler(reg *services.RegistrationService, ver *services.VerificationService, auth *services.AuthService) *Handler {
	return &Handler{registration: reg, verification: ver, auth: auth}
}

func deliveryFields(d *services.OTPDelivery) fiber.Map {
	return fiber.Map{
		"expiresAt": d.ExpiresAt,
		"delivered": d.Delivered(),
		"channel":   d.Channel,
	}
}

func (h *Handler) Register(c *fiber.Ctx) error {
	reqData := c.Locals(authValidator.RegisterKey).(*authValidator.RegisterRequest)

	res, err := h.registration.Register(c.UserContext(), services.RegisterInput{
		Name:             reqData.Name,
		Email:            reqData.Email,
		Password:         reqData.Password,
		Phone:            reqData.Phone,
		PlanType:         reqData.PlanType,
		SubscriptionType: reqData.SubscriptionType,
	})
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}

	data := deliveryFields(&res.OTP)
	data["user"] = res.User
	message := "Registration successful! Please verify your email with the OTP we sent."
	if !res.OTP.Delivered() {
		data["warning"] = "We could not send the verification email. Please use resend OTP."
		message = "Registration successful, but the verification email could not be sent. Please use resend OTP."
	}
	return middleware.JsonResponse(c, fiber.StatusCreated, true, message, data)
}

// SendOTP sends a verification code to the email or phone in the request.
func (h *Handler) SendOTP(c *fiber.Ctx) error {
	reqData := c.Locals(authValidator.SendOTPKey).(*authValidator.SendOTPRequest)
	return h.sendOTP(c, reqData.Identity())
}

// SendEmailOTP only honours the email field.
func (h *Handler) SendEmailOTP(c *fiber.Ctx) error {
	reqData := c.Locals(authValidator.SendOTPKey).(*authValidator.SendOTPRequest)
	if reqData.Email == "" {
		return middleware.ValidationErrorResponse(c, map[string]string{"email": "email is required!"})
	}
	return h.sendOTP(c, reqData.Email)
}

// SendPhoneOTP only honours the phone field.
func (h *Handler) SendPhoneOTP(c *fiber.Ctx) error {
	reqData := c.Locals(authValidator.SendOTPKey).(*authValidator.SendOTPRequest)
	if reqData.Phone == "" {
		return middleware.ValidationErrorResponse(c, map[string]string{"phone": "phone is required!"})
	}
	return h.sendOTP(c, reqData.Phone)
}

func (h *Handler) sendOTP(c *fiber.Ctx, identity string) error {
	d, err := h.verification.SendOTP(c.UserContext(), identity)
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}
	if !d.Delivered() {
		return middleware.JsonResponse(c, fiber.StatusOK, true, "OTP generated, but delivery failed. Please try again shortly.", deliveryFields(d))
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "OTP sent successfully!", deliveryFields(d))
}

func (h *Handler) VerifyOTP(c *fiber.Ctx) error {
	reqData := c.Locals(authValidator.VerifyOTPKey).(*authValidator.VerifyOTPRequest)

	res, err := h.verification.Verify(c.UserContext(), reqData.Identity(), reqData.OTP)
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}

	data := fiber.Map{"verified": true, "channel": res.Channel}
	if res.User != nil {
		data["user"] = res.User
	}
	if res.Warning != "" {
		data["warning"] = res.Warning
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "OTP verified successfully!", data)
}

func (h *Handler) Login(c *fiber.Ctx) error {
	reqData := c.Locals(authValidator.LoginKey).(*authValidator.LoginRequest)

	res, err := h.auth.Login(c.UserContext(), services.LoginInput{
		Email:     reqData.Email,
		Password:  reqData.Password,
		IPAddress: c.IP(),
		Device:    c.Get(fiber.HeaderUserAgent),
	})
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Login successful.", fiber.Map{
		"user":  res.User,
		"token": res.Token,
	})
}

func (h *Handler) ForgotPassword(c *fiber.Ctx) error {
	reqData := c.Locals(authValidator.ForgotPasswordKey).(*authValidator.ForgotPasswordRequest)

	d, err := h.verification.RequestPasswordReset(c.UserContext(), reqData.Email)
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Password reset OTP sent to your email.", deliveryFields(d))
}

func (h *Handler) ResetPassword(c *fiber.Ctx) error {
	reqData := c.Locals(authValidator.ResetPasswordKey).(*authValidator.ResetPasswordRequest)

	if err := h.verification.ResetPassword(c.UserContext(), reqData.Email, reqData.OTP, reqData.NewPassword); err != nil {
		return middleware.ErrorResponse(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Password reset successfully.", nil)
}

// Me returns the logged in user's profile.
func (h *Handler) Me(c *fiber.Ctx) error {
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}
	user, err := h.auth.Me(c.UserContext(), userID)
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "User profile fetched.", fiber.Map{"user": user})
}
