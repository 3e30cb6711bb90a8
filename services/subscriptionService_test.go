package services

import (
	"advisory/events"
	"advisory/models"
	"advisory/utils"
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// signedGateway creates sequential orders and checks real HMAC signatures.
type signedGateway struct {
	secret string
	n      int
}

func (g *signedGateway) Name() string { return "signed" }

func (g *signedGateway) CreateOrder(_ context.Context, amount float64, currency, _ string) (*utils.Order, error) {
	g.n++
	return &utils.Order{ID: fmt.Sprintf("order_test%d", g.n), Amount: amount, Currency: currency}, nil
}

func (g *signedGateway) VerifySignature(orderID, paymentID, signature string) bool {
	return utils.SignPayment(orderID, paymentID, g.secret) == signature
}

func TestComputeExpiry(t *testing.T) {
	from := time.Date(2026, time.January, 31, 10, 0, 0, 0, time.UTC)

	cases := map[string]time.Time{
		models.SubscriptionMonthly:  from.AddDate(0, 1, 0),
		models.SubscriptionYearly:   time.Date(2027, time.January, 31, 10, 0, 0, 0, time.UTC),
		models.SubscriptionTrial:    time.Date(2026, time.February, 7, 10, 0, 0, 0, time.UTC),
		models.SubscriptionLifetime: LifetimeExpiry,
	}
	for typ, want := range cases {
		got, err := ComputeExpiry(typ, from)
		require.NoError(t, err, typ)
		assert.Equal(t, want, got, typ)
	}

	_, err := ComputeExpiry("weekly", from)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestSubscription_MonthlyScenario(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.register(t, "alice@x.com")

	payment, err := f.subs.Initiate(ctx, InitiateInput{Email: "alice@x.com", Amount: 999, PlanType: "monthly"})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(payment.OrderID, "order_"))
	assert.Equal(t, models.PaymentPending, payment.Status)
	assert.Equal(t, models.SubscriptionMonthly, payment.SubscriptionType)
	assert.Equal(t, "offline", payment.Gateway)

	res, err := f.subs.Confirm(ctx, payment.OrderID, "pay_any", "")
	require.NoError(t, err)
	assert.False(t, res.AlreadyConfirmed)
	assert.Equal(t, models.PaymentSuccess, res.Payment.Status)
	assert.Equal(t, "pay_any", res.Payment.TransactionID)

	user, err := f.store.GetUser(ctx, "alice@x.com")
	require.NoError(t, err)
	assert.Equal(t, models.SubscriptionMonthly, user.SubscriptionType)
	require.NotNil(t, user.SubscriptionExpiry)
	days := user.SubscriptionExpiry.Sub(f.clock.Now()).Hours() / 24
	assert.InDelta(t, 30, days, 2)
	assert.True(t, user.HasActiveSubscription(f.clock.Now()))

	assert.Equal(t, []string{events.UserRegistered, events.SubscriptionActivated}, f.events.Types())
	assert.Contains(t, f.email.subjects("alice@x.com"), "Subscription Confirmed: monthly")
}

func TestSubscription_ConfirmIsIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.register(t, "alice@x.com")

	payment, err := f.subs.Initiate(ctx, InitiateInput{Email: "alice@x.com", Amount: 999, SubscriptionType: "monthly"})
	require.NoError(t, err)
	first, err := f.subs.Confirm(ctx, payment.OrderID, "pay_1", "")
	require.NoError(t, err)

	f.clock.Advance(5 * 24 * time.Hour)
	second, err := f.subs.Confirm(ctx, payment.OrderID, "pay_1", "")
	require.NoError(t, err)
	assert.True(t, second.AlreadyConfirmed)
	assert.Equal(t, first.User.SubscriptionExpiry.Unix(), second.User.SubscriptionExpiry.Unix())

	user, err := f.store.GetUser(ctx, "alice@x.com")
	require.NoError(t, err)
	assert.Equal(t, first.User.SubscriptionExpiry.Unix(), user.SubscriptionExpiry.Unix())
	assert.Len(t, f.events.Types(), 2)
}

func TestSubscription_RenewalStartsFromNow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.register(t, "alice@x.com")

	p1, err := f.subs.Initiate(ctx, InitiateInput{Email: "alice@x.com", Amount: 999, PlanType: "monthly"})
	require.NoError(t, err)
	_, err = f.subs.Confirm(ctx, p1.OrderID, "pay_1", "")
	require.NoError(t, err)

	f.clock.Advance(10 * 24 * time.Hour)
	p2, err := f.subs.Initiate(ctx, InitiateInput{Email: "alice@x.com", Amount: 9999, PlanType: "Gold", SubscriptionType: "yearly"})
	require.NoError(t, err)
	res, err := f.subs.Confirm(ctx, p2.OrderID, "pay_2", "")
	require.NoError(t, err)

	assert.Equal(t, f.clock.Now().AddDate(1, 0, 0).Unix(), res.User.SubscriptionExpiry.Unix())
	assert.Equal(t, "Gold", res.User.PlanType)
	assert.Equal(t, models.SubscriptionYearly, res.User.SubscriptionType)
}

func TestSubscription_Lifetime(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.register(t, "alice@x.com")

	p, err := f.subs.Initiate(ctx, InitiateInput{Email: "alice@x.com", Amount: 49999, PlanType: "lifetime"})
	require.NoError(t, err)
	res, err := f.subs.Confirm(ctx, p.OrderID, "pay_1", "")
	require.NoError(t, err)
	assert.Equal(t, LifetimeExpiry.Unix(), res.User.SubscriptionExpiry.Unix())
}

func TestSubscription_InitiateErrors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.register(t, "alice@x.com")

	_, err := f.subs.Initiate(ctx, InitiateInput{Email: "nobody@x.com", Amount: 999, PlanType: "monthly"})
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = f.subs.Initiate(ctx, InitiateInput{Email: "alice@x.com", Amount: 0, PlanType: "monthly"})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = f.subs.Initiate(ctx, InitiateInput{Email: "alice@x.com", Amount: 999, PlanType: "Gold"})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = f.subs.Initiate(ctx, InitiateInput{Email: "alice@x.com", Amount: 999, SubscriptionType: "weekly"})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestSubscription_ConfirmErrors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.subs.Confirm(ctx, "order_missing", "pay_1", "")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = f.subs.Confirm(ctx, "", "pay_1", "")
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = f.subs.Confirm(ctx, "order_missing", "", "")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestSubscription_BadSignatureFailsPayment(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.register(t, "alice@x.com")
	gw := &signedGateway{secret: "shh"}
	f.subs.gateway = gw

	p, err := f.subs.Initiate(ctx, InitiateInput{Email: "alice@x.com", Amount: 999, PlanType: "monthly"})
	require.NoError(t, err)

	_, err = f.subs.Confirm(ctx, p.OrderID, "pay_1", "forged")
	assert.ErrorIs(t, err, ErrInvalidSignature)

	stored, err := f.store.GetPayment(ctx, p.OrderID)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentFailed, stored.Status)
	user, err := f.store.GetUser(ctx, "alice@x.com")
	require.NoError(t, err)
	assert.Nil(t, user.SubscriptionExpiry)

	// a correctly signed retry still settles the order
	res, err := f.subs.Confirm(ctx, p.OrderID, "pay_1", utils.SignPayment(p.OrderID, "pay_1", "shh"))
	require.NoError(t, err)
	assert.Equal(t, models.PaymentSuccess, res.Payment.Status)
	assert.NotNil(t, res.User.SubscriptionExpiry)
}
