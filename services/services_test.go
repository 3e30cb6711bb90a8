package services

import (
	"advisory/events"
	"advisory/models"
	"advisory/notifier"
	"advisory/store"
	"advisory/testutil"
	"advisory/utils"
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

// captureChannel records every message and fails on demand.
type captureChannel struct {
	name string
	mu   sync.Mutex
	fail bool
	msgs []notifier.Message
}

func (c *captureChannel) Name() string { return c.name }

func (c *captureChannel) Send(_ context.Context, msg notifier.Message) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.msgs = append(c.msgs, msg)
	if c.fail {
		return errors.New("provider down")
	}
	return nil
}

func (c *captureChannel) setFail(fail bool) {
	c.mu.Lock()
	c.fail = fail
	c.mu.Unlock()
}

// lastCode returns the most recent code sent to the recipient.
func (c *captureChannel) lastCode(to string) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := len(c.msgs) - 1; i >= 0; i-- {
		if c.msgs[i].To == to && c.msgs[i].Code != "" {
			return c.msgs[i].Code
		}
	}
	return ""
}

func (c *captureChannel) subjects(to string) []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []string
	for _, m := range c.msgs {
		if m.To == to {
			out = append(out, m.Subject)
		}
	}
	return out
}

type fixture struct {
	store  *store.Store
	clock  *fakeClock
	email  *captureChannel
	sms    *captureChannel
	events *events.Recorder

	otps *OTPService
	reg  *RegistrationService
	ver  *VerificationService
	subs *SubscriptionService
	auth *AuthService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		store:  store.New(testutil.NewTestDB(t)),
		clock:  &fakeClock{t: time.Date(2026, time.March, 10, 9, 0, 0, 0, time.UTC)},
		email:  &captureChannel{name: "email"},
		sms:    &captureChannel{name: "sms"},
		events: &events.Recorder{},
	}
	n := notifier.New(notifier.NewChain(time.Second, f.email), notifier.NewChain(time.Second, f.sms))

	f.otps = NewOTPService(f.store, utils.NewMemoryLimiter(f.clock.Now), 10*time.Minute, 30*time.Second)
	f.otps.now = f.clock.Now
	f.reg = NewRegistrationService(f.store, f.otps, n, f.events, bcrypt.MinCost)
	f.ver = NewVerificationService(f.store, f.otps, n, f.events, bcrypt.MinCost, false)
	f.subs = NewSubscriptionService(f.store, utils.OfflineGateway{}, n, f.events)
	f.subs.now = f.clock.Now
	f.auth = NewAuthService(f.store, func(u *models.User) (string, error) {
		return fmt.Sprintf("token-%d", u.ID), nil
	})
	f.auth.now = f.clock.Now
	return f
}

func (f *fixture) register(t *testing.T, email string) *RegisterResult {
	t.Helper()
	res, err := f.reg.Register(context.Background(), RegisterInput{
		Name:     "Alice",
		Email:    email,
		Password: "secret123",
		Phone:    "+919876543210",
	})
	require.NoError(t, err)
	return res
}

func (f *fixture) markVerified(t *testing.T, email string) {
	t.Helper()
	_, err := f.store.UpdateUser(context.Background(), email, func(u *models.User) error {
		u.EmailVerified = true
		return nil
	})
	require.NoError(t, err)
}

// sequence returns a code generator that hands out codes in order.
func sequence(codes ...string) func() (string, error) {
	var mu sync.Mutex
	i := 0
	return func() (string, error) {
		mu.Lock()
		defer mu.Unlock()
		code := codes[i%len(codes)]
		i++
		return code, nil
	}
}
