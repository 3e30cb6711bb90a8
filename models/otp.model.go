package models

import (
	"time"

	"gorm.io/gorm"
)

// OTP channels
const (
	ChannelEmail = "email"
	ChannelPhone = "phone"
)

// OTP purposes
const (
	PurposeVerification  = "verification"
	PurposePasswordReset = "password_reset"
)

type OTP struct {
	gorm.Model
	Identity   string     `gorm:"size:191;index:idx_otp_identity_purpose;not null" json:"identity"` // email or phone
	Purpose    string     `gorm:"size:30;index:idx_otp_identity_purpose;not null" json:"purpose"`
	Channel    string     `gorm:"size:10;not null" json:"channel"`
	Code       string     `gorm:"size:6;not null" json:"-"`
	IssuedAt   time.Time  `gorm:"not null" json:"issuedAt"`
	ExpiresAt  time.Time  `gorm:"not null;index" json:"expiresAt"`
	Consumed   bool       `gorm:"default:false" json:"consumed"`
	ConsumedAt *time.Time `json:"consumedAt,omitempty"`
}

// Expired reports whether the code is past its validity window at t.
func (o *OTP) Expired(t time.Time) bool {
	return !t.Before(o.ExpiresAt)
}
