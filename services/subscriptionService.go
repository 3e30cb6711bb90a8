package services

import (
	"advisory/events"
	"advisory/models"
	"advisory/notifier"
	"advisory/store"
	"advisory/utils"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"
)

// LifetimeExpiry is the expiry stored for lifetime plans.
var LifetimeExpiry = time.Date(2099, time.December, 31, 0, 0, 0, 0, time.UTC)

// ComputeExpiry returns when a subscription of the given type bought at
// from runs out. Renewals always start from the purchase time.
func ComputeExpiry(subscriptionType string, from time.Time) (time.Time, error) {
	switch subscriptionType {
	case models.SubscriptionMonthly:
		return from.AddDate(0, 1, 0), nil
	case models.SubscriptionYearly:
		return from.AddDate(1, 0, 0), nil
	case models.SubscriptionTrial:
		return from.AddDate(0, 0, 7), nil
	case models.SubscriptionLifetime:
		return LifetimeExpiry, nil
	}
	return time.Time{}, fmt.Errorf("%w: unknown subscription type %q", ErrInvalidInput, subscriptionType)
}

// InitiateInput starts a purchase.
type InitiateInput struct {
	Email            string
	Amount           float64
	PlanType         string
	SubscriptionType string
}

// ConfirmResult is the state after a payment confirmation.
type ConfirmResult struct {
	Payment          *models.Payment
	User             *models.User
	AlreadyConfirmed bool
}

type SubscriptionService struct {
	store    *store.Store
	gateway  utils.PaymentGateway
	notifier *notifier.Notifier
	events   events.Publisher
	currency string
	now      func() time.Time
}

func NewSubscriptionService(s *store.Store, gateway utils.PaymentGateway, n *notifier.Notifier, pub events.Publisher) *SubscriptionService {
	if gateway == nil {
		gateway = utils.OfflineGateway{}
	}
	if pub == nil {
		pub = events.Noop{}
	}
	return &SubscriptionService{store: s, gateway: gateway, notifier: n, events: pub, currency: "INR", now: time.Now}
}

// resolveType picks the subscription type from subscriptionType, or from
// planType when it names one.
func resolveType(planType, subscriptionType string) (string, error) {
	if st := strings.ToLower(strings.TrimSpace(subscriptionType)); st != "" {
		if !models.IsSubscriptionType(st) {
			return "", invalid("subscriptionType", "subscriptionType must be one of monthly, yearly, trial, lifetime!")
		}
		return st, nil
	}
	if pt := strings.ToLower(strings.TrimSpace(planType)); models.IsSubscriptionType(pt) {
		return pt, nil
	}
	return "", invalid("subscriptionType", "subscriptionType is required when planType does not name one!")
}

// Initiate creates a gateway order and a pending payment for a registered user.
func (s *SubscriptionService) Initiate(ctx context.Context, in InitiateInput) (*models.Payment, error) {
	email := models.NormalizeEmail(in.Email)
	if !utils.IsValidEmail(email) {
		return nil, invalid("email", "email must be a valid email address!")
	}
	if in.Amount <= 0 {
		return nil, invalid("amount", "amount must be greater than 0!")
	}
	subscriptionType, err := resolveType(in.PlanType, in.SubscriptionType)
	if err != nil {
		return nil, err
	}
	planType := strings.TrimSpace(in.PlanType)
	if planType == "" {
		planType = subscriptionType
	}

	user, err := s.store.GetUser(ctx, email)
	if err != nil {
		return nil, err
	}

	order, err := s.gateway.CreateOrder(ctx, in.Amount, s.currency, fmt.Sprintf("rcpt_%d_%d", user.ID, s.now().Unix()))
	if err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}

	payment := &models.Payment{
		OrderID:          order.ID,
		UserID:           user.ID,
		Email:            user.Email,
		Amount:           in.Amount,
		Currency:         order.Currency,
		PlanType:         planType,
		SubscriptionType: subscriptionType,
		Status:           models.PaymentPending,
		Gateway:          s.gateway.Name(),
		GatewayResponse:  order.Raw,
	}
	if err := s.store.CreatePayment(ctx, payment); err != nil {
		return nil, err
	}
	log.Printf("[SUBSCRIPTION] order %s created for %s: %.2f %s %s", order.ID, utils.MaskIdentity(email), in.Amount, payment.Currency, subscriptionType)
	return payment, nil
}

var errSkip = errors.New("skip write")

// Confirm settles a payment reported by the gateway. A payment that is
// already successful is returned unchanged, so repeated callbacks never
// extend the subscription twice. A bad signature marks the payment failed.
func (s *SubscriptionService) Confirm(ctx context.Context, orderID, paymentID, signature string) (*ConfirmResult, error) {
	orderID = strings.TrimSpace(orderID)
	paymentID = strings.TrimSpace(paymentID)
	if orderID == "" {
		return nil, invalid("orderId", "orderId is required!")
	}
	if paymentID == "" {
		return nil, invalid("paymentId", "paymentId is required!")
	}

	current, err := s.store.GetPayment(ctx, orderID)
	if err != nil {
		return nil, err
	}

	result := &ConfirmResult{}
	badSignature := false
	keys := []string{store.PaymentKey(orderID), store.UserKey(current.Email)}
	err = s.store.Transaction(ctx, keys, func(tx *store.Store) error {
		payment, err := tx.UpdatePayment(ctx, orderID, func(p *models.Payment) error {
			if p.Status == models.PaymentSuccess {
				result.AlreadyConfirmed = true
				result.Payment = p
				return errSkip
			}
			p.TransactionID = paymentID
			p.Signature = signature
			p.GatewayResponse = gatewayPayload(p.GatewayResponse, paymentID)
			if !s.gateway.VerifySignature(orderID, paymentID, signature) {
				badSignature = true
				p.Status = models.PaymentFailed
				return nil
			}
			p.Status = models.PaymentSuccess
			return nil
		})
		switch {
		case errors.Is(err, errSkip):
			result.User, err = tx.GetUser(ctx, result.Payment.Email)
			return err
		case err != nil:
			return err
		case badSignature:
			result.Payment = payment
			return nil
		}
		result.Payment = payment

		start := s.now().UTC()
		expiry, err := ComputeExpiry(payment.SubscriptionType, start)
		if err != nil {
			return err
		}
		result.User, err = tx.UpdateUser(ctx, payment.Email, func(u *models.User) error {
			u.PlanType = payment.PlanType
			u.SubscriptionType = payment.SubscriptionType
			u.SubscriptionStart = &start
			u.SubscriptionExpiry = &expiry
			u.ReminderSent = false
			return nil
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	if badSignature {
		log.Printf("[SUBSCRIPTION] signature mismatch for order %s", orderID)
		return nil, ErrInvalidSignature
	}
	if result.AlreadyConfirmed {
		log.Printf("[SUBSCRIPTION] order %s already confirmed", orderID)
		return result, nil
	}

	user := result.User
	log.Printf("[SUBSCRIPTION] %s plan active for %s until %s", user.SubscriptionType, utils.MaskIdentity(user.Email), user.SubscriptionExpiry.Format("2006-01-02"))

	publish(ctx, s.events, events.Event{
		Type:   events.SubscriptionActivated,
		UserID: user.ID,
		Email:  user.Email,
		Data: map[string]interface{}{
			"orderId":          orderID,
			"planType":         user.PlanType,
			"subscriptionType": user.SubscriptionType,
			"expiry":           user.SubscriptionExpiry,
			"amount":           result.Payment.Amount,
		},
	})

	subject, body := notifier.SubscriptionEmail(user.Name, user.PlanType, user.SubscriptionType, *user.SubscriptionExpiry)
	if err := s.notifier.SendEmail(ctx, user.Email, subject, body); err != nil {
		log.Printf("[NOTIFIER] subscription email to %s failed: %v", utils.MaskIdentity(user.Email), err)
	}
	return result, nil
}

// gatewayPayload keeps the raw order alongside the confirmation fields.
func gatewayPayload(raw []byte, paymentID string) []byte {
	doc := map[string]interface{}{}
	if len(raw) > 0 {
		_ = json.Unmarshal(raw, &doc)
	}
	doc["payment_id"] = paymentID
	out, err := json.Marshal(doc)
	if err != nil {
		return raw
	}
	return out
}
