package authValidator

import (
	"advisory/models"
	"advisory/utils"
	"advisory/validators"
	"strings"

	"github.com/gofiber/fiber/v2"
)

// Locals keys of the validated requests
const (
	RegisterKey       = "validatedRegister"
	SendOTPKey        = "validatedSendOTP"
	VerifyOTPKey      = "validatedVerifyOTP"
	LoginKey          = "validatedLogin"
	ForgotPasswordKey = "validatedForgotPassword"
	ResetPasswordKey  = "validatedResetPassword"
)

type RegisterRequest struct {
	Name             string `json:"name" form:"name" query:"name" validate:"required,notblank"`
	Email            string `json:"email" form:"email" query:"email" validate:"required,basic_email"`
	Password         string `json:"password" form:"password" query:"password" validate:"required,notblank"`
	Phone            string `json:"phone" form:"phone" query:"phone" validate:"required,phone"`
	PlanType         string `json:"planType" form:"planType" query:"planType"`
	SubscriptionType string `json:"subscriptionType" form:"subscriptionType" query:"subscriptionType" validate:"omitempty,subscription"`
}

func (r *RegisterRequest) Normalize() {
	r.Email = models.NormalizeEmail(r.Email)
	r.Phone = utils.NormalizePhone(r.Phone)
	r.SubscriptionType = strings.ToLower(strings.TrimSpace(r.SubscriptionType))
}

// SendOTPRequest names the email or the phone to send a code to.
type SendOTPRequest struct {
	Email string `json:"email" form:"email" query:"email" validate:"required_without=Phone,omitempty,basic_email"`
	Phone string `json:"phone" form:"phone" query:"phone" validate:"omitempty,phone"`
}

func (r *SendOTPRequest) Normalize() {
	r.Email = models.NormalizeEmail(r.Email)
	r.Phone = utils.NormalizePhone(r.Phone)
}

// Identity prefers the email when both are present.
func (r *SendOTPRequest) Identity() string {
	if r.Email != "" {
		return r.Email
	}
	return r.Phone
}

type VerifyOTPRequest struct {
	Email string `json:"email" form:"email" query:"email" validate:"required_without=Phone,omitempty,basic_email"`
	Phone string `json:"phone" form:"phone" query:"phone" validate:"omitempty,phone"`
	OTP   string `json:"otp" form:"otp" query:"otp" validate:"required,len=6,numeric"`
}

func (r *VerifyOTPRequest) Normalize() {
	r.Email = models.NormalizeEmail(r.Email)
	r.Phone = utils.NormalizePhone(r.Phone)
	r.OTP = strings.TrimSpace(r.OTP)
}

func (r *VerifyOTPRequest) Identity() string {
	if r.Email != "" {
		return r.Email
	}
	return r.Phone
}

type LoginRequest struct {
	Email    string `json:"email" form:"email" query:"email" validate:"required,basic_email"`
	Password string `json:"password" form:"password" query:"password" validate:"required"`
}

func (r *LoginRequest) Normalize() { r.Email = models.NormalizeEmail(r.Email) }

type ForgotPasswordRequest struct {
	Email string `json:"email" form:"email" query:"email" validate:"required,basic_email"`
}

func (r *ForgotPasswordRequest) Normalize() { r.Email = models.NormalizeEmail(r.Email) }

type ResetPasswordRequest struct {
	Email       string `json:"email" form:"email" query:"email" validate:"required,basic_email"`
	OTP         string `json:"otp" form:"otp" query:"otp" validate:"required,len=6,numeric"`
	NewPassword string `json:"newPassword" form:"newPassword" query:"newPassword" validate:"required,min=8"`
}

func (r *ResetPasswordRequest) Normalize() {
	r.Email = models.NormalizeEmail(r.Email)
	r.OTP = strings.TrimSpace(r.OTP)
}

// Register validator middleware
func Register() fiber.Handler { return validators.Handler[RegisterRequest](RegisterKey) }

// SendOTP validator middleware
func SendOTP() fiber.Handler { return validators.Handler[SendOTPRequest](SendOTPKey) }

// VerifyOTP validator middleware
func VerifyOTP() fiber.Handler { return validators.Handler[VerifyOTPRequest](VerifyOTPKey) }

// Login validator middleware
func Login() fiber.Handler { return validators.Handler[LoginRequest](LoginKey) }

// ForgotPassword validator middleware
func ForgotPassword() fiber.Handler {
	return validators.Handler[ForgotPasswordRequest](ForgotPasswordKey)
}

// ResetPassword validator middleware
func ResetPassword() fiber.Handler {
	return validators.Handler[ResetPasswordRequest](ResetPasswordKey)
}
