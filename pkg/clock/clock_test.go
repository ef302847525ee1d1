package clock

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var epoch = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

func TestAutoFakeAdvancesOnSleep(t *testing.T) {
	c := NewAutoFake(epoch)
	require.NoError(t, c.Sleep(context.Background(), 90*time.Second))
	assert.Equal(t, epoch.Add(90*time.Second), c.Now())
}

func TestFakeSleepWakesOnAdvance(t *testing.T) {
	c := NewFake(epoch)
	done := make(chan error, 1)
	go func() { done <- c.Sleep(context.Background(), time.Minute) }()

	require.Eventually(t, func() bool { return c.Waiters() == 1 }, time.Second, time.Millisecond)

	c.Advance(30 * time.Second)
	select {
	case <-done:
		t.Fatal("sleeper woke before its deadline")
	case <-time.After(10 * time.Millisecond):
	}

	c.Advance(30 * time.Second)
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("sleeper did not wake")
	}
	assert.Equal(t, 0, c.Waiters())
}

func TestFakeSleepCancelled(t *testing.T) {
	c := NewFake(epoch)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- c.Sleep(ctx, time.Hour) }()

	require.Eventually(t, func() bool { return c.Waiters() == 1 }, time.Second, time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("cancelled sleeper did not return")
	}
	assert.Equal(t, 0, c.Waiters())
}

func TestRealSleepCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := Real{}.Sleep(ctx, time.Hour)
	assert.ErrorIs(t, err, context.Canceled)
}
