package actionController

import (
	authController "advisory/controllers/auth"
	paymentController "advisory/controllers/payment"
	"advisory/middleware"
	"advisory/validators"
	authValidator "advisory/validators/auth"
	paymentValidator "advisory/validators/payment"
	"encoding/json"
	"strings"

	"github.com/gofiber/fiber/v2"
)

type route struct {
	load   func(c *fiber.Ctx) (bool, error)
	handle fiber.Handler
}

// Dispatcher serves the single endpoint the web client posts to, picking the
// workflow from the action field.
type Dispatcher struct {
	routes map[string]route
}

func NewDispatcher(auth *authController.Handler, payment *paymentController.Handler) *Dispatcher {
	return &Dispatcher{routes: map[string]route{
		"register": {
			load: func(c *fiber.Ctx) (bool, error) {
				return validators.Load[authValidator.RegisterRequest](c, authValidator.RegisterKey)
			},
			handle: auth.Register,
		},
		"sendEmailOTP": {
			load: func(c *fiber.Ctx) (bool, error) {
				return validators.Load[authValidator.SendOTPRequest](c, authValidator.SendOTPKey)
			},
			handle: auth.SendEmailOTP,
		},
		"sendPhoneOTP": {
			load: func(c *fiber.Ctx) (bool, error) {
				return validators.Load[authValidator.SendOTPRequest](c, authValidator.SendOTPKey)
			},
			handle: auth.SendPhoneOTP,
		},
		"verifyOTP": {
			load: func(c *fiber.Ctx) (bool, error) {
				return validators.Load[authValidator.VerifyOTPRequest](c, authValidator.VerifyOTPKey)
			},
			handle: auth.VerifyOTP,
		},
		"login": {
			load: func(c *fiber.Ctx) (bool, error) {
				return validators.Load[authValidator.LoginRequest](c, authValidator.LoginKey)
			},
			handle: auth.Login,
		},
		"forgotPassword": {
			load: func(c *fiber.Ctx) (bool, error) {
				return validators.Load[authValidator.ForgotPasswordRequest](c, authValidator.ForgotPasswordKey)
			},
			handle: auth.ForgotPassword,
		},
		"resetPassword": {
			load: func(c *fiber.Ctx) (bool, error) {
				return validators.Load[authValidator.ResetPasswordRequest](c, authValidator.ResetPasswordKey)
			},
			handle: auth.ResetPassword,
		},
		"initiatePayment": {
			load: func(c *fiber.Ctx) (bool, error) {
				return validators.Load[paymentValidator.InitiateRequest](c, paymentValidator.InitiateKey)
			},
			handle: payment.InitiatePayment,
		},
		"verifyPayment": {
			load: func(c *fiber.Ctx) (bool, error) {
				return validators.Load[paymentValidator.VerifyRequest](c, paymentValidator.VerifyKey)
			},
			handle: payment.VerifyPayment,
		},
	}}
}

// actionOf reads the action from the query string, the JSON body or the
// form body, in that order.
func actionOf(c *fiber.Ctx) string {
	if action := c.Query("action"); action != "" {
		return action
	}
	if strings.HasPrefix(c.Get(fiber.HeaderContentType), fiber.MIMEApplicationJSON) {
		var body struct {
			Action string `json:"action"`
		}
		if err := json.Unmarshal(c.Body(), &body); err == nil {
			return body.Action
		}
		return ""
	}
	return c.FormValue("action")
}

func (d *Dispatcher) Handle(c *fiber.Ctx) error {
	action := strings.TrimSpace(actionOf(c))
	if action == "" {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Missing action!", nil)
	}

	r, ok := d.routes[action]
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Unknown action: "+action, nil)
	}
	if ok, err := r.load(c); !ok {
		return err
	}
	return r.handle(c)
}
