package services

import (
	"advisory/events"
	"advisory/models"
	"advisory/notifier"
	"advisory/store"
	"advisory/utils"
	"context"
	"log"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// OTPDelivery describes a code that was stored and the attempt to send it.
// The code stays valid when delivery fails.
type OTPDelivery struct {
	Identity  string          `json:"identity"`
	Channel   string          `json:"channel"`
	ExpiresAt time.Time       `json:"expiresAt"`
	Report    notifier.Report `json:"delivery"`
	Err       error           `json:"-"`
}

func (d *OTPDelivery) Delivered() bool { return d.Err == nil && d.Report.Delivered }

// RegisterInput is what a new member submits.
type RegisterInput struct {
	Name             string
	Email            string
	Password         string
	Phone            string
	PlanType         string
	SubscriptionType string
}

// RegisterResult holds the stored account and the verification code delivery.
type RegisterResult struct {
	User *models.User
	OTP  OTPDelivery
}

type RegistrationService struct {
	store      *store.Store
	otps       *OTPService
	notifier   *notifier.Notifier
	events     events.Publisher
	bcryptCost int
}

func NewRegistrationService(s *store.Store, otps *OTPService, n *notifier.Notifier, pub events.Publisher, bcryptCost int) *RegistrationService {
	if pub == nil {
		pub = events.Noop{}
	}
	return &RegistrationService{store: s, otps: otps, notifier: n, events: pub, bcryptCost: bcryptCost}
}

func (in *RegisterInput) normalize() error {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = models.NormalizeEmail(in.Email)
	in.Phone = utils.NormalizePhone(in.Phone)
	in.PlanType = strings.TrimSpace(in.PlanType)
	in.SubscriptionType = strings.ToLower(strings.TrimSpace(in.SubscriptionType))

	fields := map[string]string{}
	if in.Name == "" {
		fields["name"] = "name is required!"
	}
	if in.Email == "" {
		fields["email"] = "email is required!"
	} else if !utils.IsValidEmail(in.Email) {
		fields["email"] = "email must be a valid email address!"
	}
	if strings.TrimSpace(in.Password) == "" {
		fields["password"] = "password is required!"
	}
	if in.Phone == "" {
		fields["phone"] = "phone is required!"
	}
	if in.SubscriptionType != "" && !models.IsSubscriptionType(in.SubscriptionType) {
		fields["subscriptionType"] = "subscriptionType must be one of monthly, yearly, trial, lifetime!"
	}
	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

// Register creates the account and its first verification code in one
// transaction, then tries to send the code. A failed send leaves both in
// place; the caller reports it as a warning and the user can ask again.
func (r *RegistrationService) Register(ctx context.Context, in RegisterInput) (*RegisterResult, error) {
	if err := in.normalize(); err != nil {
		return nil, err
	}

	if _, err := r.store.GetUser(ctx, in.Email); err == nil {
		return nil, ErrAlreadyExists
	}

	hash, err := hashPassword(in.Password, r.bcryptCost)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Name:             in.Name,
		Email:            in.Email,
		Password:         hash,
		Phone:            in.Phone,
		PlanType:         in.PlanType,
		SubscriptionType: in.SubscriptionType,
		Role:             models.RoleUser,
	}

	// start the resend cooldown with this code; registration itself is never limited
	_ = r.otps.reserve(ctx, in.Email, models.PurposeVerification)

	var otp *models.OTP
	keys := []string{store.UserKey(in.Email), otpKey(in.Email, models.PurposeVerification)}
	err = r.store.Transaction(ctx, keys, func(tx *store.Store) error {
		if err := tx.PutUser(ctx, user); err != nil {
			return err
		}
		issued, err := r.otps.issue(ctx, tx, in.Email, models.ChannelEmail, models.PurposeVerification)
		if err != nil {
			return err
		}
		otp = issued
		return nil
	})
	if err != nil {
		return nil, err
	}
	log.Printf("[REGISTER] account created for %s (id %d)", utils.MaskIdentity(user.Email), user.ID)

	result := &RegisterResult{User: user, OTP: OTPDelivery{
		Identity:  otp.Identity,
		Channel:   otp.Channel,
		ExpiresAt: otp.ExpiresAt,
	}}
	result.OTP.Report, result.OTP.Err = r.notifier.SendOTP(ctx, otp.Identity, otp.Channel, otp.Code, r.otps.TTL())
	if result.OTP.Err != nil {
		log.Printf("[REGISTER] verification code for %s not delivered: %v", utils.MaskIdentity(user.Email), result.OTP.Err)
	}

	publish(ctx, r.events, events.Event{
		Type:   events.UserRegistered,
		UserID: user.ID,
		Email:  user.Email,
		Data: map[string]interface{}{
			"planType":         user.PlanType,
			"subscriptionType": user.SubscriptionType,
		},
	})
	return result, nil
}

func hashPassword(password string, cost int) (string, error) {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func publish(ctx context.Context, pub events.Publisher, event events.Event) {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}
	if err := pub.Publish(ctx, event); err != nil {
		log.Printf("[EVENTS] publish %s failed: %v", event.Type, err)
	}
}
