package services

import (
	"advisory/models"
	"advisory/store"
	"advisory/utils"
	"context"
	"errors"
	"log"
	"time"

	"golang.org/x/crypto/bcrypt"
)

const (
	maxFailedLogins   = 3
	loginBlockFor     = 1 * time.Minute
	failedLoginWindow = 15 * time.Minute
)

// TokenIssuer signs an access token for a user.
type TokenIssuer func(user *models.User) (string, error)

type LoginInput struct {
	Email     string
	Password  string
	IPAddress string
	Device    string
}

type LoginResult struct {
	User  *models.User `json:"user"`
	Token string       `json:"token"`
}

type AuthService struct {
	store  *store.Store
	tokens TokenIssuer
	now    func() time.Time
}

func NewAuthService(s *store.Store, tokens TokenIssuer) *AuthService {
	return &AuthService{store: s, tokens: tokens, now: time.Now}
}

// Login checks the password and issues a token. Three wrong passwords in a
// row block the account for a minute; the counter resets after 15 minutes
// without failures.
func (a *AuthService) Login(ctx context.Context, in LoginInput) (*LoginResult, error) {
	email := models.NormalizeEmail(in.Email)
	if email == "" || in.Password == "" {
		return nil, &ValidationError{Fields: map[string]string{
			"email":    "email and password are required!",
			"password": "email and password are required!",
		}}
	}

	now := a.now().UTC()
	var outcome error
	user, err := a.store.UpdateUser(ctx, email, func(u *models.User) error {
		if u.BlockedUntil != nil && u.BlockedUntil.After(now) {
			outcome = ErrAccountBlocked
			return errSkip
		}
		if u.LastFailedLogin != nil && now.Sub(*u.LastFailedLogin) > failedLoginWindow {
			u.FailedLoginAttempts = 0
			u.LastFailedLogin = nil
		}

		if err := bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(in.Password)); err != nil {
			u.FailedLoginAttempts++
			u.LastFailedLogin = &now
			outcome = ErrInvalidCredentials
			if u.FailedLoginAttempts >= maxFailedLogins {
				until := now.Add(loginBlockFor)
				u.BlockedUntil = &until
				u.FailedLoginAttempts = 0
				outcome = ErrAccountBlocked
			}
			return nil
		}

		u.FailedLoginAttempts = 0
		u.LastFailedLogin = nil
		u.BlockedUntil = nil
		if !u.EmailVerified {
			outcome = ErrNotVerified
			return nil
		}
		u.LastLogin = &now
		return nil
	})
	switch {
	case errors.Is(err, store.ErrNotFound):
		return nil, ErrInvalidCredentials
	case errors.Is(err, errSkip):
		log.Printf("[AUTH] blocked login attempt for %s", utils.MaskIdentity(email))
		a.track(ctx, user, email, in, models.LoginBlocked, now)
		return nil, outcome
	case err != nil:
		return nil, err
	case outcome != nil:
		log.Printf("[AUTH] login rejected for %s: %v", utils.MaskIdentity(email), outcome)
		a.track(ctx, user, email, in, loginOutcome(outcome), now)
		return nil, outcome
	}
	a.track(ctx, user, email, in, models.LoginSucceeded, now)

	token, err := a.tokens(user)
	if err != nil {
		return nil, err
	}
	return &LoginResult{User: user, Token: token}, nil
}

func loginOutcome(err error) string {
	switch {
	case errors.Is(err, ErrAccountBlocked):
		return models.LoginBlocked
	case errors.Is(err, ErrNotVerified):
		return models.LoginUnverified
	}
	return models.LoginBadPassword
}

// track stores the attempt. Failures here never fail the login.
func (a *AuthService) track(ctx context.Context, user *models.User, email string, in LoginInput, outcome string, at time.Time) {
	entry := &models.LoginTracking{
		Email:     email,
		IPAddress: in.IPAddress,
		Device:    in.Device,
		Outcome:   outcome,
		Timestamp: at,
	}
	if user != nil {
		entry.UserID = user.ID
	}
	if err := a.store.RecordLogin(ctx, entry); err != nil {
		log.Printf("[AUTH] failed to record login for %s: %v", utils.MaskIdentity(email), err)
	}
}

// Me returns the account behind an authenticated user id.
func (a *AuthService) Me(ctx context.Context, userID uint) (*models.User, error) {
	return a.store.GetUserByID(ctx, userID)
}
