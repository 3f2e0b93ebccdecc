package dispatch

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/epicenter/internal/event"
)

func TestResult_IsSuccess(t *testing.T) {
	tests := []struct {
		name     string
		result   Result
		expected bool
	}{
		{"success", Result{Success: true}, true},
		{"error", Result{Success: false, Error: errors.New("error")}, false},
		{"panic", Result{Success: false, Panicked: true}, false},
		{"skipped", Result{Success: false, Skipped: true}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.result.IsSuccess())
		})
	}
}

func TestResult_IsError(t *testing.T) {
	tests := []struct {
		name     string
		result   Result
		expected bool
	}{
		{"success", Result{Success: true}, false},
		{"error", Result{Success: false, Error: errors.New("error")}, true},
		{"panic", Result{Success: false, Panicked: true, Error: errors.New("panic")}, false},
		{"skipped", Result{Success: false, Skipped: true, Error: context.Canceled}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.result.IsError())
		})
	}
}

func TestExecutor_Execute_Success(t *testing.T) {
	executor := NewExecutor()

	var received any
	ev := &orderShipped{OrderID: 7}
	entry := testEntry(func(ctx context.Context, e any) error {
		received = e
		return nil
	})

	result := executor.Execute(context.Background(), entry, ev)

	require.True(t, result.IsSuccess(), "result: %+v", result)
	assert.Same(t, ev, received)
	assert.NotZero(t, result.Duration)
}

func TestExecutor_Execute_Error(t *testing.T) {
	executor := NewExecutor()
	expectedErr := errors.New("listener error")

	entry := testEntry(func(ctx context.Context, e any) error {
		return expectedErr
	})

	result := executor.Execute(context.Background(), entry, &orderShipped{})

	assert.False(t, result.IsSuccess())
	assert.True(t, result.IsError())
	assert.Equal(t, expectedErr, result.Error)
}

func TestExecutor_Execute_Panic(t *testing.T) {
	var panicHandlerCalled bool
	var capturedPanicValue any

	executor := NewExecutor(
		WithExecutorPanicHandler(func(ev any, panicValue any, stack []byte) {
			panicHandlerCalled = true
			capturedPanicValue = panicValue
		}),
	)

	entry := testEntry(func(ctx context.Context, e any) error {
		panic("test panic")
	})

	result := executor.Execute(context.Background(), entry, &orderShipped{})

	assert.False(t, result.IsSuccess())
	assert.True(t, result.IsPanic())
	assert.Equal(t, "test panic", result.PanicValue)
	assert.NotEmpty(t, result.PanicStack)
	assert.True(t, panicHandlerCalled)
	assert.Equal(t, "test panic", capturedPanicValue)

	var perr *event.PanicError
	require.ErrorAs(t, result.Error, &perr)
	assert.Equal(t, "test-listener", perr.RegistrationID)
	assert.Equal(t, "dispatch.orderShipped", perr.Event)
	assert.ErrorIs(t, result.Error, event.ErrListenerPanic)
}

func TestExecutor_Execute_PanicHandlerPanics(t *testing.T) {
	executor := NewExecutor(
		WithExecutorPanicHandler(func(ev any, panicValue any, stack []byte) {
			panic("handler panic")
		}),
	)

	entry := testEntry(func(ctx context.Context, e any) error {
		panic("listener panic")
	})

	result := executor.Execute(context.Background(), entry, &orderShipped{})
	assert.True(t, result.IsPanic())
}

func TestExecutor_Execute_ContextCancelled(t *testing.T) {
	executor := NewExecutor()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	entry := testEntry(func(ctx context.Context, e any) error {
		t.Error("listener should not be called")
		return nil
	})

	result := executor.Execute(ctx, entry, &orderShipped{})

	assert.False(t, result.IsSuccess())
	assert.True(t, result.Skipped)
	assert.ErrorIs(t, result.Error, context.Canceled)
}

func TestExecutor_ExecuteWithTimeout(t *testing.T) {
	executor := NewExecutor()

	entry := testEntry(func(ctx context.Context, e any) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(5 * time.Second):
			return nil
		}
	})

	result := executor.ExecuteWithTimeout(context.Background(), entry, &orderShipped{}, 50*time.Millisecond)

	assert.False(t, result.IsSuccess())
	assert.ErrorIs(t, result.Error, context.DeadlineExceeded)
}

func TestExecutor_ExecuteWithTimeout_Zero(t *testing.T) {
	executor := NewExecutor()

	entry := testEntry(func(ctx context.Context, e any) error {
		_, hasDeadline := ctx.Deadline()
		assert.False(t, hasDeadline)
		return nil
	})

	result := executor.ExecuteWithTimeout(context.Background(), entry, &orderShipped{}, 0)
	assert.True(t, result.IsSuccess())
}
