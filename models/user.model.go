package models

import (
	"strings"
	"time"

	"gorm.io/gorm"
)

// Roles
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// Subscription types
const (
	SubscriptionMonthly  = "monthly"
	SubscriptionYearly   = "yearly"
	SubscriptionTrial    = "trial"
	SubscriptionLifetime = "lifetime"
)

// IsSubscriptionType reports whether s names a known subscription type.
func IsSubscriptionType(s string) bool {
	switch s {
	case SubscriptionMonthly, SubscriptionYearly, SubscriptionTrial, SubscriptionLifetime:
		return true
	}
	return false
}

type User struct {
	gorm.Model
	Name               string     `gorm:"default:''" json:"name"`
	Email              string     `gorm:"uniqueIndex;size:191;not null" json:"email"` // stored lower-cased
	Password           string     `gorm:"not null" json:"-"`                          // bcrypt hash
	Phone              string     `gorm:"size:20;index;default:''" json:"phone"`
	EmailVerified      bool       `gorm:"default:false" json:"emailVerified"`
	PhoneVerified      bool       `gorm:"default:false" json:"phoneVerified"`
	PlanType           string     `gorm:"size:50;default:''" json:"planType"`
	SubscriptionType   string     `gorm:"size:20;default:''" json:"subscriptionType"` // monthly, yearly, trial, lifetime
	SubscriptionStart  *time.Time `json:"subscriptionStart"`
	SubscriptionExpiry *time.Time `gorm:"index" json:"subscriptionExpiry"`
	ReminderSent       bool       `gorm:"default:false" json:"-"` // expiry reminder for the current period
	Role               string     `gorm:"size:10;default:'user'" json:"role"`

	FailedLoginAttempts int        `gorm:"default:0" json:"-"`
	LastFailedLogin     *time.Time `json:"-"`
	BlockedUntil        *time.Time `json:"-"`
	LastLogin           *time.Time `json:"lastLogin"`
}

// HasActiveSubscription reports whether the plan is still paid for at t.
func (u *User) HasActiveSubscription(t time.Time) bool {
	return u.SubscriptionExpiry != nil && u.SubscriptionExpiry.After(t)
}

// NormalizeEmail lower-cases and trims an email so lookups are case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
