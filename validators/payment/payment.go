package paymentValidator

import (
	"advisory/models"
	"advisory/validators"
	"strings"

	"github.com/gofiber/fiber/v2"
)

const (
	InitiateKey = "validatedInitiatePayment"
	VerifyKey   = "validatedVerifyPayment"
)

type InitiateRequest struct {
	Email            string  `json:"email" form:"email" query:"email" validate:"required,basic_email"`
	Amount           float64 `json:"amount" form:"amount" query:"amount" validate:"gt=0"`
	PlanType         string  `json:"planType" form:"planType" query:"planType" validate:"required_without=SubscriptionType"`
	SubscriptionType string  `json:"subscriptionType" form:"subscriptionType" query:"subscriptionType" validate:"omitempty,subscription"`
}

func (r *InitiateRequest) Normalize() {
	r.Email = models.NormalizeEmail(r.Email)
	r.PlanType = strings.TrimSpace(r.PlanType)
	r.SubscriptionType = strings.ToLower(strings.TrimSpace(r.SubscriptionType))
}

// VerifyRequest accepts both our field names and the ones Razorpay's
// checkout handler returns.
type VerifyRequest struct {
	OrderID   string `json:"orderId" form:"orderId" query:"orderId" validate:"required"`
	PaymentID string `json:"paymentId" form:"paymentId" query:"paymentId" validate:"required"`
	Signature string `json:"signature" form:"signature" query:"signature"`

	RazorpayOrderID   string `json:"razorpay_order_id" form:"razorpay_order_id" query:"razorpay_order_id"`
	RazorpayPaymentID string `json:"razorpay_payment_id" form:"razorpay_payment_id" query:"razorpay_payment_id"`
	RazorpaySignature string `json:"razorpay_signature" form:"razorpay_signature" query:"razorpay_signature"`
}

func (r *VerifyRequest) Normalize() {
	if r.OrderID == "" {
		r.OrderID = r.RazorpayOrderID
	}
	if r.PaymentID == "" {
		r.PaymentID = r.RazorpayPaymentID
	}
	if r.Signature == "" {
		r.Signature = r.RazorpaySignature
	}
	r.OrderID = strings.TrimSpace(r.OrderID)
	r.PaymentID = strings.TrimSpace(r.PaymentID)
}

// Initiate validator middleware
func Initiate() fiber.Handler { return validators.Handler[InitiateRequest](InitiateKey) }

// Verify validator middleware
func Verify() fiber.Handler { return validators.Handler[VerifyRequest](VerifyKey) }
