package llm

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/driftwatch/driftwatch/internal/resilience"
)

// flakyClient fails a set number of times before succeeding.
type flakyClient struct {
	failures int
	calls    int
}

func (f *flakyClient) Complete(ctx context.Context, prompt string) (string, error) {
	f.calls++
	if f.calls <= f.failures {
		return "", errors.New("transient failure")
	}
	return "reply", nil
}

func (f *flakyClient) HealthCheck(ctx context.Context) error { return nil }
func (f *flakyClient) Close() error                          { return nil }

func TestResilientClient_RetriesThenSucceeds(t *testing.T) {
	inner := &flakyClient{failures: 1}
	client := NewResilientClient(ResilientClientConfig{
		Client:        inner,
		MaxFailures:   5,
		Timeout:       time.Second,
		RetryAttempts: 3,
		RetryDelay:    time.Millisecond,
	})

	reply, err := client.Complete(context.Background(), "prompt")
	require.NoError(t, err)
	assert.Equal(t, "reply", reply)
	assert.Equal(t, 2, inner.calls)
	assert.Equal(t, resilience.StateClosed, client.CircuitState())
}

func TestResilientClient_ExhaustsRetries(t *testing.T) {
	inner := &flakyClient{failures: 10}
	client := NewResilientClient(ResilientClientConfig{
		Client:        inner,
		MaxFailures:   5,
		Timeout:       time.Second,
		RetryAttempts: 3,
		RetryDelay:    time.Millisecond,
	})

	_, err := client.Complete(context.Background(), "prompt")
	assert.Error(t, err)
	assert.Equal(t, 3, inner.calls)
}

func TestResilientClient_CircuitOpensAfterRepeatedFailure(t *testing.T) {
	inner := &flakyClient{failures: 100}
	client := NewResilientClient(ResilientClientConfig{
		Client:        inner,
		MaxFailures:   2,
		Timeout:       time.Minute,
		RetryAttempts: 1,
		RetryDelay:    time.Millisecond,
	})

	ctx := context.Background()
	for i := 0; i < 2; i++ {
		_, err := client.Complete(ctx, "prompt")
		assert.Error(t, err)
	}
	assert.Equal(t, resilience.StateOpen, client.CircuitState())

	// While open, the inner client is never called.
	callsBefore := inner.calls
	_, err := client.Complete(ctx, "prompt")
	assert.ErrorIs(t, err, resilience.ErrCircuitOpen)
	assert.Equal(t, callsBefore, inner.calls)

	// Reset closes the circuit again.
	client.ResetCircuit()
	assert.Equal(t, resilience.StateClosed, client.CircuitState())
}

func TestResilientClient_NotifiesWhenCircuitOpens(t *testing.T) {
	transitions := make(chan resilience.State, 4)

	inner := &flakyClient{failures: 100}
	client := NewResilientClient(ResilientClientConfig{
		Client:        inner,
		MaxFailures:   2,
		Timeout:       time.Minute,
		RetryAttempts: 1,
		RetryDelay:    time.Millisecond,
		OnStateChange: func(name string, from, to resilience.State) {
			transitions <- to
		},
	})

	ctx := context.Background()
	for i := 0; i < 2; i++ {
		client.Complete(ctx, "prompt")
	}

	select {
	case to := <-transitions:
		assert.Equal(t, resilience.StateOpen, to)
	case <-time.After(time.Second):
		t.Fatal("state change callback never fired")
	}
}

func TestResilientClient_ContextCancelStopsRetries(t *testing.T) {
	inner := &flakyClient{failures: 100}
	client := NewResilientClient(ResilientClientConfig{
		Client:        inner,
		MaxFailures:   50,
		Timeout:       time.Second,
		RetryAttempts: 10,
		RetryDelay:    time.Hour,
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := client.Complete(ctx, "prompt")
		done <- err
	}()

	time.Sleep(10 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("Complete did not return after context cancel")
	}
}
