package services

import (
	"advisory/models"
	"advisory/store"
	"advisory/utils"
	"context"
	"crypto/subtle"
	"errors"
	"log"
	"strings"
	"time"
)

// CheckResult is the outcome of comparing a submitted code.
type CheckResult int

const (
	Valid CheckResult = iota
	Invalid
	Expired
	NotFound
)

func (r CheckResult) String() string {
	switch r {
	case Valid:
		return "valid"
	case Invalid:
		return "invalid"
	case Expired:
		return "expired"
	default:
		return "not_found"
	}
}

// Err maps a non-valid result to its sentinel error.
func (r CheckResult) Err() error {
	switch r {
	case Valid:
		return nil
	case Invalid:
		return ErrInvalidCode
	case Expired:
		return ErrExpired
	default:
		return ErrNoCode
	}
}

// ParseIdentity normalizes an email address or phone number and reports
// which channel it belongs to.
func ParseIdentity(raw string) (identity, channel string, err error) {
	raw = strings.TrimSpace(raw)
	if strings.Contains(raw, "@") {
		email := models.NormalizeEmail(raw)
		if !utils.IsValidEmail(email) {
			return "", "", invalid("email", "email must be a valid email address!")
		}
		return email, models.ChannelEmail, nil
	}
	phone := utils.NormalizePhone(raw)
	if !utils.IsValidPhone(phone) {
		return "", "", invalid("identity", "identity must be an email address or mobile number!")
	}
	return phone, models.ChannelPhone, nil
}

// OTPService issues and checks one-time codes. At most one live code exists
// per identity and purpose.
type OTPService struct {
	store    *store.Store
	limiter  utils.Limiter
	ttl      time.Duration
	cooldown time.Duration
	generate func() (string, error)
	now      func() time.Time
}

func NewOTPService(s *store.Store, limiter utils.Limiter, ttl, cooldown time.Duration) *OTPService {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &OTPService{
		store:    s,
		limiter:  limiter,
		ttl:      ttl,
		cooldown: cooldown,
		generate: utils.GenerateOTP,
		now:      time.Now,
	}
}

func (o *OTPService) TTL() time.Duration { return o.ttl }

func otpKey(identity, purpose string) string { return "otp:" + purpose + ":" + identity }

// reserve consults the limiter. Limiter failures let the request through.
func (o *OTPService) reserve(ctx context.Context, identity, purpose string) error {
	if o.limiter == nil || o.cooldown <= 0 {
		return nil
	}
	ok, wait, err := o.limiter.Allow(ctx, purpose+":"+identity, o.cooldown)
	if err != nil {
		log.Printf("[OTP] limiter unavailable for %s: %v", utils.MaskIdentity(identity), err)
		return nil
	}
	if !ok {
		return &RateLimitError{RetryAfter: wait}
	}
	return nil
}

// Issue creates a fresh code for identity, replacing any live one.
func (o *OTPService) Issue(ctx context.Context, identity, purpose string) (*models.OTP, error) {
	identity, channel, err := ParseIdentity(identity)
	if err != nil {
		return nil, err
	}
	if err := o.reserve(ctx, identity, purpose); err != nil {
		return nil, err
	}
	return o.issue(ctx, o.store, identity, channel, purpose)
}

// issue stores a new code through s, which may be a transaction.
func (o *OTPService) issue(ctx context.Context, s *store.Store, identity, channel, purpose string) (*models.OTP, error) {
	code, err := o.generate()
	if err != nil {
		return nil, err
	}
	issuedAt := o.now().UTC()
	otp := &models.OTP{
		Identity:  identity,
		Purpose:   purpose,
		Channel:   channel,
		Code:      code,
		IssuedAt:  issuedAt,
		ExpiresAt: issuedAt.Add(o.ttl),
	}

	err = s.Transaction(ctx, []string{otpKey(identity, purpose)}, func(tx *store.Store) error {
		return tx.ReplaceOTP(ctx, otp)
	})
	if err != nil {
		return nil, err
	}
	log.Printf("[OTP] issued %s code for %s, expires %s", purpose, utils.MaskIdentity(identity), otp.ExpiresAt.Format(time.RFC3339))
	return otp, nil
}

// Check compares code with the live code for identity. An expired code is
// deleted and a valid one is consumed, so each code passes at most once.
func (o *OTPService) Check(ctx context.Context, identity, purpose, code string) (CheckResult, error) {
	identity, _, err := ParseIdentity(identity)
	if err != nil {
		return NotFound, err
	}

	result := NotFound
	err = o.store.Transaction(ctx, []string{otpKey(identity, purpose)}, func(tx *store.Store) error {
		result, err = o.check(ctx, tx, identity, purpose, code)
		return err
	})
	if err != nil {
		return NotFound, err
	}
	return result, nil
}

// check runs the comparison through tx, which must hold the identity's OTP
// key. A Valid result consumes the code inside tx, so a caller that rolls
// back leaves it live.
func (o *OTPService) check(ctx context.Context, tx *store.Store, identity, purpose, code string) (CheckResult, error) {
	code = strings.TrimSpace(code)
	result, err := o.compare(ctx, tx, identity, purpose, code)
	if err != nil {
		return NotFound, err
	}
	log.Printf("[OTP] %s check for %s: %s", purpose, utils.MaskIdentity(identity), result)
	return result, nil
}

func (o *OTPService) compare(ctx context.Context, tx *store.Store, identity, purpose, code string) (CheckResult, error) {
	otp, err := tx.LiveOTP(ctx, identity, purpose)
	if errors.Is(err, store.ErrNotFound) {
		return NotFound, nil
	}
	if err != nil {
		return NotFound, err
	}

	t := o.now().UTC()
	if otp.Expired(t) {
		return Expired, tx.DeleteOTP(ctx, otp.ID)
	}
	if subtle.ConstantTimeCompare([]byte(otp.Code), []byte(code)) != 1 {
		return Invalid, nil
	}
	if err := tx.ConsumeOTP(ctx, otp.ID, t); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return NotFound, nil
		}
		return NotFound, err
	}
	return Valid, nil
}
