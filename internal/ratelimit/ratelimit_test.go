package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSimpleRateLimiterFirstWaitIsImmediate(t *testing.T) {
	r := NewFixed(time.Hour)

	start := time.Now()
	require.NoError(t, r.Wait(context.Background()))
	assert.Less(t, time.Since(start), time.Second)
}

func TestSimpleRateLimiterEnforcesDelay(t *testing.T) {
	r := NewFixed(50 * time.Millisecond)

	require.NoError(t, r.Wait(context.Background()))
	start := time.Now()
	require.NoError(t, r.Wait(context.Background()))
	assert.GreaterOrEqual(t, time.Since(start), 40*time.Millisecond)
}

func TestSimpleRateLimiterDelayRunsFromDone(t *testing.T) {
	r := NewFixed(50 * time.Millisecond)

	require.NoError(t, r.Wait(context.Background()))
	time.Sleep(80 * time.Millisecond)
	r.Done()

	start := time.Now()
	require.NoError(t, r.Wait(context.Background()))
	assert.GreaterOrEqual(t, time.Since(start), 40*time.Millisecond)
}

func TestSimpleRateLimiterCancel(t *testing.T) {
	r := NewFixed(time.Hour)
	require.NoError(t, r.Wait(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, r.Wait(ctx), context.DeadlineExceeded)
}

func TestSetDelay(t *testing.T) {
	r := NewSimpleRateLimiter(time.Second, 2*time.Second)
	r.SetDelay(5*time.Second, time.Second)

	minDelay, maxDelay := r.Delays()
	assert.Equal(t, 5*time.Second, minDelay)
	assert.Equal(t, 5*time.Second, maxDelay)
}

func TestJitterStaysInBounds(t *testing.T) {
	r := NewSimpleRateLimiter(time.Second, 2*time.Second)
	for i := 0; i < 100; i++ {
		d := r.delay()
		assert.GreaterOrEqual(t, d, time.Second)
		assert.Less(t, d, 2*time.Second)
	}
}

func TestAdaptiveRateLimiter(t *testing.T) {
	a := NewAdaptiveRateLimiter(time.Second, 2*time.Second)

	a.RecordError()
	minDelay, _ := a.Delays()
	assert.Equal(t, time.Second, minDelay)

	a.RecordError()
	minDelay, maxDelay := a.Delays()
	assert.Equal(t, 2*time.Second, minDelay)
	assert.Equal(t, 4*time.Second, maxDelay)

	for i := 0; i < 20; i++ {
		a.RecordError()
	}
	_, maxDelay = a.Delays()
	assert.Equal(t, 20*time.Second, maxDelay)

	for i := 0; i < 30; i++ {
		a.RecordSuccess()
	}
	minDelay, maxDelay = a.Delays()
	assert.Equal(t, time.Second, minDelay)
	assert.Equal(t, 2*time.Second, maxDelay)
}
