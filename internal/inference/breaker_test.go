package inference

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubGateway struct {
	err   error
	calls int
}

func (s *stubGateway) Generate(context.Context, Request) (map[string]any, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return map[string]any{"ok": true}, nil
}

func TestCircuitBreaker_OpensAfterThreshold(t *testing.T) {
	cb := NewCircuitBreaker(3, time.Minute)

	cb.RecordFailure()
	cb.RecordFailure()
	assert.True(t, cb.CanProceed(), "below threshold the breaker stays closed")

	cb.RecordFailure()
	assert.False(t, cb.CanProceed())

	isOpen, failures, total := cb.GetStatus()
	assert.True(t, isOpen)
	assert.Equal(t, 3, failures)
	assert.Equal(t, 3, total)
}

func TestCircuitBreaker_SuccessResetsConsecutiveCount(t *testing.T) {
	cb := NewCircuitBreaker(3, time.Minute)

	cb.RecordFailure()
	cb.RecordFailure()
	cb.RecordSuccess()
	cb.RecordFailure()
	cb.RecordFailure()

	assert.True(t, cb.CanProceed(), "success in between keeps the streak below threshold")
}

func TestCircuitBreaker_HalfOpenAfterReset(t *testing.T) {
	cb := NewCircuitBreaker(1, 10*time.Millisecond)

	cb.RecordFailure()
	assert.False(t, cb.CanProceed())

	time.Sleep(20 * time.Millisecond)
	assert.True(t, cb.CanProceed(), "breaker half-opens after the reset timeout")
}

func TestBreakerGateway_FailsFastWhenOpen(t *testing.T) {
	stub := &stubGateway{err: errors.New("backend down")}
	bg := NewBreakerGateway(stub, NewCircuitBreaker(2, time.Minute))

	_, err := bg.Generate(context.Background(), Request{Prompt: "x"})
	require.Error(t, err)
	_, err = bg.Generate(context.Background(), Request{Prompt: "x"})
	require.Error(t, err)

	_, err = bg.Generate(context.Background(), Request{Prompt: "x"})
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.Equal(t, 2, stub.calls, "open breaker must not reach the backend")
}

func TestBreakerGateway_PassesThroughSuccess(t *testing.T) {
	stub := &stubGateway{}
	bg := NewBreakerGateway(stub, NewCircuitBreaker(2, time.Minute))

	result, err := bg.Generate(context.Background(), Request{Prompt: "x"})
	require.NoError(t, err)
	assert.Equal(t, true, result["ok"])
}
