package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateOTP(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 200; i++ {
		code, err := GenerateOTP()
		require.NoError(t, err)
		require.Len(t, code, 6)
		for _, r := range code {
			require.True(t, r >= '0' && r <= '9', code)
		}
		seen[code] = true
	}
	assert.Greater(t, len(seen), 190)
}

func TestIsValidEmail(t *testing.T) {
	for _, ok := range []string{"alice@x.com", "a.b+c@sub.domain.in"} {
		assert.True(t, IsValidEmail(ok), ok)
	}
	for _, bad := range []string{"", "alice", "alice@x", "@x.com", "alice@x.c"} {
		assert.False(t, IsValidEmail(bad), bad)
	}
}

func TestPhoneHelpers(t *testing.T) {
	assert.Equal(t, "9876543210", NormalizePhone(" 98765-43210 "))
	assert.True(t, IsValidPhone("9876543210"))
	assert.True(t, IsValidPhone("+919876543210"))
	assert.False(t, IsValidPhone("12345"))
}

func TestMaskIdentity(t *testing.T) {
	assert.Equal(t, "a***@x.com", MaskIdentity("alice@x.com"))
	assert.Equal(t, "******3210", MaskIdentity("9876543210"))
	assert.Equal(t, "****", MaskIdentity("12"))
}
