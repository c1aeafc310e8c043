package retrier

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

func TestDo_SucceedsAfterRetries(t *testing.T) {
	r := New(WithInitialInterval(time.Millisecond), WithMaxRetries(3))

	var attempts int
	err := r.Do(context.Background(), func(ctx context.Context) error {
		attempts++
		if attempts < 3 {
			return errors.New("transient")
		}
		return nil
	})

	require.NoError(t, err)
	require.Equal(t, 3, attempts)
}

func TestDo_ExhaustsBudget(t *testing.T) {
	r := New(WithInitialInterval(time.Millisecond), WithMaxRetries(2))

	var attempts int
	err := r.Do(context.Background(), func(ctx context.Context) error {
		attempts++
		return errors.New("permanent")
	})

	require.Error(t, err)
	require.Equal(t, 3, attempts, "one initial attempt plus two retries")
}

func TestDo_ContextCancellation(t *testing.T) {
	r := New(WithInitialInterval(time.Hour), WithMaxRetries(5))

	ctx, cancel := context.WithCancel(context.Background())

	errCh := make(chan error, 1)
	go func() {
		errCh <- r.Do(ctx, func(ctx context.Context) error {
			return errors.New("always fails")
		})
	}()

	cancel()

	select {
	case err := <-errCh:
		require.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("retrier did not observe cancellation")
	}
}

func TestDoWithData(t *testing.T) {
	r := New(WithInitialInterval(time.Millisecond), WithMaxRetries(2))

	var attempts int
	value, err := DoWithData(r, context.Background(), func(ctx context.Context) (int, error) {
		attempts++
		if attempts < 2 {
			return 0, errors.New("transient")
		}
		return 42, nil
	})

	require.NoError(t, err)
	require.Equal(t, 42, value)
}
