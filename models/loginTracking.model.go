package models

import (
	"time"

	"gorm.io/gorm"
)

// Login outcomes
const (
	LoginSucceeded   = "success"
	LoginBadPassword = "invalid_credentials"
	LoginBlocked     = "blocked"
	LoginUnverified  = "not_verified"
)

// LoginTracking is one login attempt against a known account.
type LoginTracking struct {
	gorm.Model
	UserID    uint      `gorm:"index" json:"userId"`
	Email     string    `gorm:"size:191;index" json:"email"`
	IPAddress string    `gorm:"size:64" json:"ipAddress"`
	Device    string    `gorm:"size:255" json:"device"`
	Outcome   string    `gorm:"size:30;default:'success'" json:"outcome"`
	Timestamp time.Time `json:"timestamp"`
}
