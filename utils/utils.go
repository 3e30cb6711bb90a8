package utils

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"regexp"
	"strings"
)

var (
	emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
	phonePattern = regexp.MustCompile(`^\+?\d{10,15}$`)
	otpMax       = big.NewInt(1000000)
)

// GenerateOTP returns a uniformly random 6-digit code. Leading zeros are
// kept, so every value from 000000 to 999999 can appear.
func GenerateOTP() (string, error) {
	n, err := rand.Int(rand.Reader, otpMax)
	if err != nil {
		return "", fmt.Errorf("generate otp: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

// IsValidEmail checks the basic local@domain.tld shape.
func IsValidEmail(email string) bool {
	return emailPattern.MatchString(email)
}

// IsValidPhone accepts 10 to 15 digits with an optional leading plus.
func IsValidPhone(phone string) bool {
	return phonePattern.MatchString(phone)
}

// NormalizePhone strips spaces and dashes.
func NormalizePhone(phone string) string {
	return strings.NewReplacer(" ", "", "-", "").Replace(strings.TrimSpace(phone))
}

// MaskIdentity hides most of an email or phone for log lines.
func MaskIdentity(identity string) string {
	if at := strings.IndexByte(identity, '@'); at > 0 {
		return identity[:1] + "***" + identity[at:]
	}
	if len(identity) > 4 {
		return strings.Repeat("*", len(identity)-4) + identity[len(identity)-4:]
	}
	return "****"
}
