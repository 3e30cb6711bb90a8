package utils

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryLimiter(t *testing.T) {
	ctx := context.Background()
	clock := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)
	l := NewMemoryLimiter(func() time.Time { return clock })

	ok, _, err := l.Allow(ctx, "a@x.com", 30*time.Second)
	require.NoError(t, err)
	assert.True(t, ok)

	clock = clock.Add(10 * time.Second)
	ok, wait, err := l.Allow(ctx, "a@x.com", 30*time.Second)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 20*time.Second, wait)

	ok, _, _ = l.Allow(ctx, "b@x.com", 30*time.Second)
	assert.True(t, ok)

	clock = clock.Add(20 * time.Second)
	ok, _, _ = l.Allow(ctx, "a@x.com", 30*time.Second)
	assert.True(t, ok)
}

func TestNewRedisClient_EmptyAddr(t *testing.T) {
	assert.Nil(t, NewRedisClient("", "", 0, false))
}

func TestRedisLimiter_KeyHasSingleSeparator(t *testing.T) {
	assert.Equal(t, "advisory:otp:verification:a@x.com", NewRedisLimiter(nil, "advisory:otp").key("verification:a@x.com"))
	assert.Equal(t, "advisory:otp:verification:a@x.com", NewRedisLimiter(nil, "advisory:otp:").key("verification:a@x.com"))
}
