package security

import (
	"context"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRateLimiter(limit int) (*RateLimiter, redismock.ClientMock) {
	db, mock := redismock.NewClientMock()
	return NewRateLimiter(db, limit, time.Minute), mock
}

func TestRateLimiter_AllowUnderLimit(t *testing.T) {
	limiter, mock := setupTestRateLimiter(30)
	defer mock.ClearExpect()

	mock.ExpectIncr("scanlimit:user:u1").SetVal(1)
	mock.ExpectExpire("scanlimit:user:u1", time.Minute).SetVal(true)

	allowed, err := limiter.allow(context.Background(), "scanlimit:user:u1")
	require.NoError(t, err)

	assert.True(t, allowed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRateLimiter_WindowOnlySetOnFirstHit(t *testing.T) {
	limiter, mock := setupTestRateLimiter(30)
	defer mock.ClearExpect()

	mock.ExpectIncr("scanlimit:user:u1").SetVal(2)

	allowed, err := limiter.allow(context.Background(), "scanlimit:user:u1")
	require.NoError(t, err)

	assert.True(t, allowed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRateLimiter_DenyOverLimit(t *testing.T) {
	limiter, mock := setupTestRateLimiter(30)
	defer mock.ClearExpect()

	mock.ExpectIncr("scanlimit:user:u1").SetVal(31)

	allowed, err := limiter.allow(context.Background(), "scanlimit:user:u1")
	require.NoError(t, err)

	assert.False(t, allowed)
}

func TestRateLimiter_RedisErrorSurfaces(t *testing.T) {
	limiter, mock := setupTestRateLimiter(30)
	defer mock.ClearExpect()

	mock.ExpectIncr("scanlimit:user:u1").SetErr(assert.AnError)

	_, err := limiter.allow(context.Background(), "scanlimit:user:u1")
	assert.Error(t, err)
}

func TestIsSuspiciousUserAgent(t *testing.T) {
	assert.True(t, isSuspiciousUserAgent("Googlebot/2.1"))
	assert.True(t, isSuspiciousUserAgent("my-Scraper v1"))
	assert.False(t, isSuspiciousUserAgent("Mozilla/5.0 (iPhone; CPU iPhone OS 17_0)"))
	assert.False(t, isSuspiciousUserAgent(""))
}
