package utils

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
)

// Order is what a gateway hands back when a payment is initiated.
type Order struct {
	ID       string
	Amount   float64
	Currency string
	Raw      []byte
}

// PaymentGateway creates orders and checks the signature a checkout
// callback carries.
type PaymentGateway interface {
	Name() string
	CreateOrder(ctx context.Context, amount float64, currency, receipt string) (*Order, error)
	VerifySignature(orderID, paymentID, signature string) bool
}

// RazorpayGateway talks to the Razorpay Orders API.
type RazorpayGateway struct {
	client *resty.Client
	secret string
}

func NewRazorpayGateway(baseURL, keyID, keySecret string) *RazorpayGateway {
	client := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetBasicAuth(keyID, keySecret).
		SetTimeout(15*time.Second).
		SetHeader("Content-Type", "application/json")
	return &RazorpayGateway{client: client, secret: keySecret}
}

func (g *RazorpayGateway) Name() string { return "razorpay" }

type razorpayOrder struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Status   string `json:"status"`
}

type razorpayError struct {
	Error struct {
		Code        string `json:"code"`
		Description string `json:"description"`
	} `json:"error"`
}

func (g *RazorpayGateway) CreateOrder(ctx context.Context, amount float64, currency, receipt string) (*Order, error) {
	var (
		order  razorpayOrder
		apiErr razorpayError
	)
	resp, err := g.client.R().
		SetContext(ctx).
		SetBody(map[string]interface{}{
			"amount":   int64(math.Round(amount * 100)), // paise
			"currency": currency,
			"receipt":  receipt,
		}).
		SetResult(&order).
		SetError(&apiErr).
		Post("/orders")
	if err != nil {
		return nil, fmt.Errorf("razorpay create order: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("razorpay create order: %s: %s", resp.Status(), apiErr.Error.Description)
	}
	if order.ID == "" {
		return nil, errors.New("razorpay create order: empty order id")
	}
	return &Order{ID: order.ID, Amount: float64(order.Amount) / 100, Currency: order.Currency, Raw: resp.Body()}, nil
}

// VerifySignature checks hex(HMAC-SHA256(orderID|paymentID, secret)).
func (g *RazorpayGateway) VerifySignature(orderID, paymentID, signature string) bool {
	return hmac.Equal([]byte(SignPayment(orderID, paymentID, g.secret)), []byte(signature))
}

// SignPayment computes the checkout signature for an order and payment.
func SignPayment(orderID, paymentID, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(orderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

// OfflineGateway mints local order ids and trusts confirmations delivered
// out of band. Used when no gateway credentials are configured.
type OfflineGateway struct{}

func (OfflineGateway) Name() string { return "offline" }

func (OfflineGateway) CreateOrder(_ context.Context, amount float64, currency, _ string) (*Order, error) {
	return &Order{
		ID:       "order_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:14],
		Amount:   amount,
		Currency: currency,
	}, nil
}

func (OfflineGateway) VerifySignature(string, string, string) bool { return true }
