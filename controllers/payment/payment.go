package paymentController

import (
	"advisory/middleware"
	"advisory/services"
	paymentValidator "advisory/validators/payment"

	"github.com/gofiber/fiber/v2"
)

type Handler struct {
	subscriptions *services.SubscriptionService
	keyID         string // public gateway key for the checkout widget
}

func NewHandler(subs *services.SubscriptionService, keyID string) *Handler {
	return &Handler{subscriptions: subs, keyID: keyID}
}

func (h *Handler) InitiatePayment(c *fiber.Ctx) error {
	reqData := c.Locals(paymentValidator.InitiateKey).(*paymentValidator.InitiateRequest)

	payment, err := h.subscriptions.Initiate(c.UserContext(), services.InitiateInput{
		Email:            reqData.Email,
		Amount:           reqData.Amount,
		PlanType:         reqData.PlanType,
		SubscriptionType: reqData.SubscriptionType,
	})
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Order created.", fiber.Map{
		"orderId":          payment.OrderID,
		"amount":           payment.Amount,
		"currency":         payment.Currency,
		"planType":         payment.PlanType,
		"subscriptionType": payment.SubscriptionType,
		"gateway":          payment.Gateway,
		"keyId":            h.keyID,
	})
}

func (h *Handler) VerifyPayment(c *fiber.Ctx) error {
	reqData := c.Locals(paymentValidator.VerifyKey).(*paymentValidator.VerifyRequest)

	res, err := h.subscriptions.Confirm(c.UserContext(), reqData.OrderID, reqData.PaymentID, reqData.Signature)
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}

	message := "Payment verified. Subscription activated!"
	if res.AlreadyConfirmed {
		message = "Payment already verified."
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, message, fiber.Map{
		"email":            res.User.Email,
		"planType":         res.User.PlanType,
		"subscriptionType": res.User.SubscriptionType,
		"expiryDate":       res.User.SubscriptionExpiry,
		"orderId":          res.Payment.OrderID,
	})
}
