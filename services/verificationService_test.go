package services

import (
	"advisory/events"
	"advisory/models"
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var errStorageDown = errors.New("storage down")

// failUserWrites makes every update of the users table fail while the
// returned flag is set.
func failUserWrites(t *testing.T, f *fixture) *atomic.Bool {
	t.Helper()
	var failing atomic.Bool
	err := f.store.DB().Callback().Update().Before("gorm:update").Register("test:fail_users", func(db *gorm.DB) {
		if failing.Load() && db.Statement.Schema != nil && db.Statement.Schema.Table == "users" {
			_ = db.AddError(errStorageDown)
		}
	})
	require.NoError(t, err)
	return &failing
}

func TestVerify_RegisterSendVerifyScenario(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.register(t, "alice@x.com")

	f.clock.Advance(31 * time.Second)
	sent, err := f.ver.SendOTP(ctx, "alice@x.com")
	require.NoError(t, err)
	assert.True(t, sent.Delivered())
	assert.WithinDuration(t, f.clock.Now().Add(10*time.Minute), sent.ExpiresAt, time.Second)

	out, err := f.ver.Verify(ctx, "alice@x.com", f.email.lastCode("alice@x.com"))
	require.NoError(t, err)
	require.NotNil(t, out.User)
	assert.Empty(t, out.Warning)
	assert.True(t, out.User.EmailVerified)
	assert.False(t, out.User.PhoneVerified)

	stored, err := f.store.GetUser(ctx, "alice@x.com")
	require.NoError(t, err)
	assert.True(t, stored.EmailVerified)

	assert.Equal(t, []string{events.UserRegistered, events.UserVerified}, f.events.Types())
	assert.Contains(t, f.email.subjects("alice@x.com"), "Welcome to Classia Capital")
}

func TestVerify_ResendWithinCooldown(t *testing.T) {
	f := newFixture(t)
	f.register(t, "alice@x.com")

	_, err := f.ver.SendOTP(context.Background(), "alice@x.com")
	assert.ErrorIs(t, err, ErrRateLimited)
}

func TestVerify_EmailMarksPhoneWhenEnabled(t *testing.T) {
	f := newFixture(t)
	f.ver.emailMarksPhone = true
	f.register(t, "alice@x.com")

	out, err := f.ver.Verify(context.Background(), "alice@x.com", f.email.lastCode("alice@x.com"))
	require.NoError(t, err)
	assert.True(t, out.User.EmailVerified)
	assert.True(t, out.User.PhoneVerified)
}

func TestVerify_WrongThenRightCode(t *testing.T) {
	f := newFixture(t)
	f.otps.generate = sequence("123456")
	f.register(t, "alice@x.com")

	_, err := f.ver.Verify(context.Background(), "alice@x.com", "123457")
	assert.ErrorIs(t, err, ErrInvalidCode)

	out, err := f.ver.Verify(context.Background(), "alice@x.com", "123456")
	require.NoError(t, err)
	assert.True(t, out.User.EmailVerified)
}

func TestVerify_ExpiredCode(t *testing.T) {
	f := newFixture(t)
	f.register(t, "alice@x.com")
	code := f.email.lastCode("alice@x.com")

	f.clock.Advance(11 * time.Minute)
	_, err := f.ver.Verify(context.Background(), "alice@x.com", code)
	assert.ErrorIs(t, err, ErrExpired)

	user, err := f.store.GetUser(context.Background(), "alice@x.com")
	require.NoError(t, err)
	assert.False(t, user.EmailVerified)
}

func TestVerify_NoCodeIssued(t *testing.T) {
	f := newFixture(t)

	_, err := f.ver.Verify(context.Background(), "nobody@x.com", "123456")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = f.ver.Verify(context.Background(), "nobody@x.com", " ")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestVerify_WithoutAccountIsASoftWarning(t *testing.T) {
	f := newFixture(t)

	_, err := f.ver.SendOTP(context.Background(), "bob@x.com")
	require.NoError(t, err)

	out, err := f.ver.Verify(context.Background(), "bob@x.com", f.email.lastCode("bob@x.com"))
	require.NoError(t, err)
	assert.Nil(t, out.User)
	assert.NotEmpty(t, out.Warning)
	assert.Empty(t, f.events.Types())
}

func TestVerify_PhoneChannel(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.register(t, "alice@x.com")

	sent, err := f.ver.SendOTP(ctx, "+91 98765 43210")
	require.NoError(t, err)
	assert.Equal(t, models.ChannelPhone, sent.Channel)
	assert.Equal(t, "sms", sent.Report.Channel)

	out, err := f.ver.Verify(ctx, "+919876543210", f.sms.lastCode("+919876543210"))
	require.NoError(t, err)
	require.NotNil(t, out.User)
	assert.Equal(t, "alice@x.com", out.User.Email)
	assert.True(t, out.User.PhoneVerified)
	assert.False(t, out.User.EmailVerified)
}

func TestPasswordReset(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.register(t, "alice@x.com")
	f.markVerified(t, "alice@x.com")

	_, err := f.ver.RequestPasswordReset(ctx, "nobody@x.com")
	assert.ErrorIs(t, err, ErrNotFound)

	sent, err := f.ver.RequestPasswordReset(ctx, "alice@x.com")
	require.NoError(t, err)
	assert.True(t, sent.Delivered())
	code := f.email.lastCode("alice@x.com")

	assert.ErrorIs(t, f.ver.ResetPassword(ctx, "alice@x.com", code, "short"), ErrInvalidInput)
	assert.ErrorIs(t, f.ver.ResetPassword(ctx, "alice@x.com", "000000x", "newsecret1"), ErrInvalidCode)
	require.NoError(t, f.ver.ResetPassword(ctx, "alice@x.com", code, "newsecret1"))

	_, err = f.auth.Login(ctx, LoginInput{Email: "alice@x.com", Password: "secret123"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	res, err := f.auth.Login(ctx, LoginInput{Email: "alice@x.com", Password: "newsecret1"})
	require.NoError(t, err)
	assert.NotEmpty(t, res.Token)

	// the code was single use
	assert.ErrorIs(t, f.ver.ResetPassword(ctx, "alice@x.com", code, "another12"), ErrNotFound)
}

func TestVerify_FailedAccountUpdateKeepsCodeLive(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.otps.generate = sequence("246810")
	f.register(t, "alice@x.com")
	failing := failUserWrites(t, f)

	failing.Store(true)
	_, err := f.ver.Verify(ctx, "alice@x.com", "246810")
	assert.ErrorIs(t, err, errStorageDown)

	live, err := f.store.LiveOTP(ctx, "alice@x.com", models.PurposeVerification)
	require.NoError(t, err)
	assert.False(t, live.Consumed)

	stored, err := f.store.GetUser(ctx, "alice@x.com")
	require.NoError(t, err)
	assert.False(t, stored.EmailVerified)

	failing.Store(false)
	out, err := f.ver.Verify(ctx, "alice@x.com", "246810")
	require.NoError(t, err)
	assert.True(t, out.User.EmailVerified)
}

func TestResetPassword_FailedAccountUpdateKeepsCodeLive(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.register(t, "alice@x.com")
	f.markVerified(t, "alice@x.com")
	failing := failUserWrites(t, f)

	_, err := f.ver.RequestPasswordReset(ctx, "alice@x.com")
	require.NoError(t, err)
	code := f.email.lastCode("alice@x.com")

	failing.Store(true)
	assert.ErrorIs(t, f.ver.ResetPassword(ctx, "alice@x.com", code, "newsecret1"), errStorageDown)

	failing.Store(false)
	require.NoError(t, f.ver.ResetPassword(ctx, "alice@x.com", code, "newsecret1"))
	_, err = f.auth.Login(ctx, LoginInput{Email: "alice@x.com", Password: "newsecret1"})
	assert.NoError(t, err)
}
