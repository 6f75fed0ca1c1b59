package utils

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Circuit Breaker Tests

func TestCircuitBreaker_NewCircuitBreaker(t *testing.T) {
	cb := NewCircuitBreaker("test")

	assert.Equal(t, "test", cb.Name())
	assert.Equal(t, uint32(10), cb.minRequests)
	assert.Equal(t, 60*time.Second, cb.interval)
	assert.Equal(t, 30*time.Second, cb.timeout)
	assert.Equal(t, 0.5, cb.failureRatio)
	assert.Equal(t, StateClosed, cb.CurrentState())
}

func TestCircuitBreaker_ExecuteSuccess(t *testing.T) {
	cb := NewCircuitBreaker("test")
	ctx := context.Background()

	result, err := cb.Execute(ctx, func() (any, error) {
		return "success", nil
	})

	assert.NoError(t, err)
	assert.Equal(t, "success", result)
	assert.Equal(t, StateClosed, cb.CurrentState())
	assert.Equal(t, uint32(1), cb.counts.Requests)
	assert.Equal(t, uint32(1), cb.counts.TotalSuccesses)
}

func TestCircuitBreaker_ExecuteFailure(t *testing.T) {
	cb := NewCircuitBreaker("test")
	ctx := context.Background()

	expectedError := errors.New("redis down")
	result, err := cb.Execute(ctx, func() (any, error) {
		return nil, expectedError
	})

	assert.Equal(t, expectedError, err)
	assert.Nil(t, result)
	assert.Equal(t, uint32(1), cb.counts.TotalFailures)
	assert.Equal(t, StateClosed, cb.CurrentState())
}

func TestCircuitBreaker_OpensAfterFailureRatio(t *testing.T) {
	cb := NewCircuitBreaker("test")
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		cb.Execute(ctx, func() (any, error) {
			return nil, errors.New("redis down")
		})
	}

	assert.Equal(t, StateOpen, cb.CurrentState())

	_, err := cb.Execute(ctx, func() (any, error) {
		t.Fatal("request must not reach the dependency while open")
		return nil, nil
	})
	assert.ErrorIs(t, err, ErrBreakerOpen)
}

func TestCircuitBreaker_StaysClosedUnderMinRequests(t *testing.T) {
	cb := NewCircuitBreaker("test")
	ctx := context.Background()

	// Failures below the minimum sample size must not trip the breaker.
	for i := 0; i < 5; i++ {
		cb.Execute(ctx, func() (any, error) {
			return nil, errors.New("redis down")
		})
	}

	assert.Equal(t, StateClosed, cb.CurrentState())
}

func TestCircuitBreaker_SuccessesKeepItClosed(t *testing.T) {
	cb := NewCircuitBreaker("test")
	ctx := context.Background()

	for i := 0; i < 20; i++ {
		_, err := cb.Execute(ctx, func() (any, error) {
			return nil, nil
		})
		require.NoError(t, err)
	}

	assert.Equal(t, StateClosed, cb.CurrentState())
}

func TestCircuitBreaker_HalfOpenRecovery(t *testing.T) {
	cb := NewCircuitBreaker("test")
	cb.timeout = 10 * time.Millisecond
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		cb.Execute(ctx, func() (any, error) {
			return nil, errors.New("redis down")
		})
	}
	require.Equal(t, StateOpen, cb.CurrentState())

	time.Sleep(20 * time.Millisecond)

	// First probe after the timeout goes through half-open and closes on success.
	_, err := cb.Execute(ctx, func() (any, error) {
		return nil, nil
	})
	assert.NoError(t, err)
	assert.Equal(t, StateClosed, cb.CurrentState())
}

func TestCircuitBreaker_HalfOpenFailureReopens(t *testing.T) {
	cb := NewCircuitBreaker("test")
	cb.timeout = 10 * time.Millisecond
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		cb.Execute(ctx, func() (any, error) {
			return nil, errors.New("redis down")
		})
	}
	require.Equal(t, StateOpen, cb.CurrentState())

	time.Sleep(20 * time.Millisecond)

	cb.Execute(ctx, func() (any, error) {
		return nil, errors.New("still down")
	})
	assert.Equal(t, StateOpen, cb.CurrentState())
}

// Random code tests

func TestGenerateCode_Length(t *testing.T) {
	code, err := GenerateCode(8)
	require.NoError(t, err)

	assert.Len(t, code, 16) // hex doubles the byte count
}

func TestGenerateCode_UppercaseHex(t *testing.T) {
	code, err := GenerateCode(16)
	require.NoError(t, err)

	for _, c := range code {
		valid := (c >= '0' && c <= '9') || (c >= 'A' && c <= 'F')
		assert.True(t, valid, "unexpected character %q", c)
	}
}

func TestGenerateCode_Unique(t *testing.T) {
	a, err := GenerateCode(16)
	require.NoError(t, err)
	b, err := GenerateCode(16)
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
}
