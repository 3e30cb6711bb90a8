package services

import (
	"advisory/events"
	"advisory/models"
	"advisory/notifier"
	"advisory/store"
	"advisory/utils"
	"context"
	"errors"
	"log"
	"strings"
)

// VerifyResult reports what a successful code check changed. User is nil
// when no account matches the identity; Warning then says so.
type VerifyResult struct {
	Identity string       `json:"identity"`
	Channel  string       `json:"channel"`
	User     *models.User `json:"user,omitempty"`
	Warning  string       `json:"warning,omitempty"`
}

type VerificationService struct {
	store            *store.Store
	otps             *OTPService
	notifier         *notifier.Notifier
	events           events.Publisher
	bcryptCost       int
	emailMarksPhone  bool
	minPasswordChars int
}

func NewVerificationService(s *store.Store, otps *OTPService, n *notifier.Notifier, pub events.Publisher, bcryptCost int, emailMarksPhone bool) *VerificationService {
	if pub == nil {
		pub = events.Noop{}
	}
	return &VerificationService{
		store:            s,
		otps:             otps,
		notifier:         n,
		events:           pub,
		bcryptCost:       bcryptCost,
		emailMarksPhone:  emailMarksPhone,
		minPasswordChars: 8,
	}
}

// SendOTP issues a verification code for an email or phone and sends it.
// It does not require an account to exist.
func (v *VerificationService) SendOTP(ctx context.Context, identity string) (*OTPDelivery, error) {
	return v.send(ctx, identity, models.PurposeVerification)
}

func (v *VerificationService) send(ctx context.Context, identity, purpose string) (*OTPDelivery, error) {
	otp, err := v.otps.Issue(ctx, identity, purpose)
	if err != nil {
		return nil, err
	}
	d := &OTPDelivery{Identity: otp.Identity, Channel: otp.Channel, ExpiresAt: otp.ExpiresAt}
	d.Report, d.Err = v.notifier.SendOTP(ctx, otp.Identity, otp.Channel, otp.Code, v.otps.TTL())
	if d.Err != nil {
		log.Printf("[OTP] %s code for %s not delivered: %v", purpose, utils.MaskIdentity(otp.Identity), d.Err)
	}
	return d, nil
}

// Verify checks a verification code and marks the matching account.
func (v *VerificationService) Verify(ctx context.Context, identity, code string) (*VerifyResult, error) {
	if strings.TrimSpace(code) == "" {
		return nil, invalid("otp", "otp is required!")
	}
	identity, channel, err := ParseIdentity(identity)
	if err != nil {
		return nil, err
	}

	out := &VerifyResult{Identity: identity, Channel: channel}
	email := identity
	if channel == models.ChannelPhone {
		user, err := v.userByPhone(ctx, identity)
		if err != nil && !errors.Is(err, ErrNotFound) {
			return nil, err
		}
		if user != nil {
			email = user.Email
		} else {
			email = ""
		}
	}

	// the code is consumed only if the account update commits with it
	keys := []string{otpKey(identity, models.PurposeVerification)}
	if email != "" {
		keys = append(keys, store.UserKey(email))
	}
	var (
		result      CheckResult
		wasVerified bool
		user        *models.User
	)
	err = v.store.Transaction(ctx, keys, func(tx *store.Store) error {
		var err error
		result, err = v.otps.check(ctx, tx, identity, models.PurposeVerification, code)
		if err != nil || result != Valid || email == "" {
			return err
		}
		user, err = tx.UpdateUser(ctx, email, func(u *models.User) error {
			if channel == models.ChannelEmail {
				wasVerified = u.EmailVerified
				u.EmailVerified = true
				if v.emailMarksPhone {
					u.PhoneVerified = true
				}
			} else {
				wasVerified = u.PhoneVerified
				u.PhoneVerified = true
			}
			return nil
		})
		if errors.Is(err, store.ErrNotFound) {
			return nil
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	if result != Valid {
		return nil, result.Err()
	}

	if user == nil {
		out.Warning = "Code verified, but no account is registered for this " + channel + "."
		log.Printf("[OTP] verified %s without a matching account", utils.MaskIdentity(identity))
		return out, nil
	}
	out.User = user

	publish(ctx, v.events, events.Event{
		Type:   events.UserVerified,
		UserID: user.ID,
		Email:  user.Email,
		Data:   map[string]interface{}{"channel": channel},
	})

	if channel == models.ChannelEmail && !wasVerified {
		subject, body := notifier.WelcomeEmail(user.Name)
		if err := v.notifier.SendEmail(ctx, user.Email, subject, body); err != nil {
			log.Printf("[NOTIFIER] welcome email to %s failed: %v", utils.MaskIdentity(user.Email), err)
		}
	}
	return out, nil
}

// userByPhone scans for the account holding phone. The oldest match wins.
func (v *VerificationService) userByPhone(ctx context.Context, phone string) (*models.User, error) {
	users, err := v.store.FindUsers(ctx, func(u *models.User) bool {
		return utils.NormalizePhone(u.Phone) == phone
	})
	if err != nil {
		return nil, err
	}
	if len(users) == 0 {
		return nil, ErrNotFound
	}
	return &users[0], nil
}

// RequestPasswordReset sends a password reset code to a registered email.
func (v *VerificationService) RequestPasswordReset(ctx context.Context, email string) (*OTPDelivery, error) {
	email = models.NormalizeEmail(email)
	if !utils.IsValidEmail(email) {
		return nil, invalid("email", "email must be a valid email address!")
	}
	if _, err := v.store.GetUser(ctx, email); err != nil {
		return nil, err
	}
	return v.send(ctx, email, models.PurposePasswordReset)
}

// ResetPassword replaces the password after a valid reset code. It also
// clears any login block, since the user just proved control of the email.
func (v *VerificationService) ResetPassword(ctx context.Context, email, code, newPassword string) error {
	email = models.NormalizeEmail(email)
	if !utils.IsValidEmail(email) {
		return invalid("email", "email must be a valid email address!")
	}
	if len(newPassword) < v.minPasswordChars {
		return invalid("password", "password must be at least 8 characters long!")
	}
	if _, err := v.store.GetUser(ctx, email); err != nil {
		return err
	}

	hash, err := hashPassword(newPassword, v.bcryptCost)
	if err != nil {
		return err
	}

	var result CheckResult
	keys := []string{otpKey(email, models.PurposePasswordReset), store.UserKey(email)}
	err = v.store.Transaction(ctx, keys, func(tx *store.Store) error {
		var err error
		result, err = v.otps.check(ctx, tx, email, models.PurposePasswordReset, code)
		if err != nil || result != Valid {
			return err
		}
		_, err = tx.UpdateUser(ctx, email, func(u *models.User) error {
			u.Password = hash
			u.FailedLoginAttempts = 0
			u.LastFailedLogin = nil
			u.BlockedUntil = nil
			return nil
		})
		return err
	})
	if err != nil {
		return err
	}
	if result != Valid {
		return result.Err()
	}
	log.Printf("[AUTH] password reset for %s", utils.MaskIdentity(email))
	return nil
}
