package middleware

import (
	"advisory/services"
	"errors"
	"log"
	"math"
	"strconv"

	"github.com/gofiber/fiber/v2"
)

// ErrorResponse maps a workflow error to its HTTP status and message.
// Anything unrecognised is treated as a storage failure and hidden from the
// caller.
func ErrorResponse(c *fiber.Ctx, err error) error {
	var verr *services.ValidationError
	if errors.As(err, &verr) {
		return ValidationErrorResponse(c, verr.Fields)
	}

	var rl *services.RateLimitError
	if errors.As(err, &rl) {
		c.Set(fiber.HeaderRetryAfter, strconv.Itoa(int(math.Ceil(rl.RetryAfter.Seconds()))))
		return JsonResponse(c, fiber.StatusTooManyRequests, false, "Please wait before requesting another code!", fiber.Map{
			"retryAfter": int(math.Ceil(rl.RetryAfter.Seconds())),
		})
	}

	switch {
	case errors.Is(err, services.ErrInvalidInput):
		return JsonResponse(c, fiber.StatusBadRequest, false, err.Error(), nil)
	case errors.Is(err, services.ErrAlreadyExists):
		return JsonResponse(c, fiber.StatusConflict, false, "Email is already registered!", nil)
	case errors.Is(err, services.ErrNoCode):
		return JsonResponse(c, fiber.StatusNotFound, false, "No OTP found. Please request a new one!", nil)
	case errors.Is(err, services.ErrNotFound):
		return JsonResponse(c, fiber.StatusNotFound, false, "Record not found!", nil)
	case errors.Is(err, services.ErrExpired):
		return JsonResponse(c, fiber.StatusGone, false, "OTP has expired. Please request a new one!", fiber.Map{"expired": true})
	case errors.Is(err, services.ErrInvalidCode):
		return JsonResponse(c, fiber.StatusUnauthorized, false, "Invalid OTP!", nil)
	case errors.Is(err, services.ErrInvalidCredentials):
		return JsonResponse(c, fiber.StatusUnauthorized, false, "Invalid credentials!", nil)
	case errors.Is(err, services.ErrNotVerified):
		return JsonResponse(c, fiber.StatusForbidden, false, "Email not verified!", nil)
	case errors.Is(err, services.ErrAccountBlocked):
		return JsonResponse(c, fiber.StatusForbidden, false, "Your account is temporarily blocked. Try again later.", nil)
	case errors.Is(err, services.ErrInvalidSignature):
		return JsonResponse(c, fiber.StatusBadRequest, false, "Payment verification failed!", nil)
	}

	log.Printf("Error handling %s %s: %v", c.Method(), c.Path(), err)
	return JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to process your request!", nil)
}
