package breaker_test

import (
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"github.com/bookvault/inventory-service/pkg/breaker"
)

func TestCircuitBreaker_OpensOnFailures(t *testing.T) {
	t.Parallel()
	cb := breaker.New(4, time.Minute, 0.5, 1)

	failing := func() error { return errors.New("upstream down") }

	require.Error(t, cb.Call(failing))
	require.Error(t, cb.Call(failing))

	// half the window failed, the breaker is open now
	called := false
	err := cb.Call(func() error {
		called = true
		return nil
	})
	require.ErrorIs(t, err, breaker.ErrOpen)
	require.False(t, called)
}

func TestCircuitBreaker_RecoversAfterTimeout(t *testing.T) {
	t.Parallel()
	cb := breaker.New(4, 20*time.Millisecond, 0.5, 1)

	failing := func() error { return errors.New("upstream down") }
	ok := func() error { return nil }

	require.Error(t, cb.Call(failing))
	require.Error(t, cb.Call(failing))
	require.ErrorIs(t, cb.Call(ok), breaker.ErrOpen)

	time.Sleep(30 * time.Millisecond)

	// half-open: successful probes close it again
	require.NoError(t, cb.Call(ok))
	require.NoError(t, cb.Call(ok))
	require.NoError(t, cb.Call(ok))
}

func TestCircuitBreaker_ReopensOnHalfOpenFailure(t *testing.T) {
	t.Parallel()
	cb := breaker.New(4, 20*time.Millisecond, 0.5, 1)

	failing := func() error { return errors.New("upstream down") }

	require.Error(t, cb.Call(failing))
	require.Error(t, cb.Call(failing))
	require.ErrorIs(t, cb.Call(failing), breaker.ErrOpen)

	time.Sleep(30 * time.Millisecond)

	require.Error(t, cb.Call(failing))
	require.ErrorIs(t, cb.Call(failing), breaker.ErrOpen)
}

func TestCircuitBreaker_Reset(t *testing.T) {
	t.Parallel()
	cb := breaker.New(4, time.Minute, 0.5, 1)

	failing := func() error { return errors.New("upstream down") }

	require.Error(t, cb.Call(failing))
	require.Error(t, cb.Call(failing))
	require.ErrorIs(t, cb.Call(failing), breaker.ErrOpen)

	cb.Reset()
	require.NoError(t, cb.Call(func() error { return nil }))
}
