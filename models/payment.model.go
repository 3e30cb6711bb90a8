package models

import (
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// PaymentStatus defines the status of a payment
type PaymentStatus string

const (
	PaymentPending PaymentStatus = "pending"
	PaymentSuccess PaymentStatus = "success"
	PaymentFailed  PaymentStatus = "failed"
)

// Payment tracks a subscription purchase from order creation to gateway confirmation
type Payment struct {
	gorm.Model
	OrderID          string         `gorm:"size:100;uniqueIndex;not null" json:"orderId"`
	UserID           uint           `gorm:"not null;index" json:"userId"`
	Email            string         `gorm:"size:191;index;not null" json:"email"`
	Amount           float64        `gorm:"not null" json:"amount"`
	Currency         string         `gorm:"size:10;default:'INR'" json:"currency"`
	PlanType         string         `gorm:"size:50" json:"planType"`
	SubscriptionType string         `gorm:"size:20;not null" json:"subscriptionType"`
	Status           PaymentStatus  `gorm:"type:varchar(20);default:'pending'" json:"status"`
	Gateway          string         `gorm:"size:50" json:"gateway"`              // razorpay, offline
	TransactionID    string         `gorm:"size:100;index" json:"transactionId"` // payment id from gateway
	Signature        string         `gorm:"size:255" json:"-"`
	GatewayResponse  datatypes.JSON `json:"gatewayResponse,omitempty"`
}

func (Payment) TableName() string {
	return "payments"
}
