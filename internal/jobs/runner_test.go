package jobs

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockLogger struct{}

func (m *mockLogger) Debug(ctx context.Context, msg string, fields ...map[string]interface{}) {}
func (m *mockLogger) Info(ctx context.Context, msg string, fields ...map[string]interface{})  {}
func (m *mockLogger) Warn(ctx context.Context, msg string, fields ...map[string]interface{})  {}
func (m *mockLogger) Error(ctx context.Context, err error, msg string, fields ...map[string]interface{}) {
}

func TestSchedule_ValidatesArguments(t *testing.T) {
	r := NewRunner(&mockLogger{})
	handler := func(ctx context.Context) error { return nil }

	assert.ErrorIs(t, r.Schedule(context.Background(), "", time.Second, handler), ErrEmptyName)
	assert.ErrorIs(t, r.Schedule(context.Background(), "job", time.Second, nil), ErrNilHandler)
	assert.Error(t, r.Schedule(context.Background(), "job", 0, handler))
}

func TestSchedule_RejectsDuplicateName(t *testing.T) {
	r := NewRunner(&mockLogger{})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	handler := func(ctx context.Context) error { return nil }
	require.NoError(t, r.Schedule(ctx, "job", time.Second, handler))
	assert.ErrorIs(t, r.Schedule(ctx, "job", time.Second, handler), ErrJobExists)
}

func TestSchedule_RunsUntilCancelled(t *testing.T) {
	r := NewRunner(&mockLogger{})
	ctx, cancel := context.WithCancel(context.Background())

	var runs atomic.Int64
	require.NoError(t, r.Schedule(ctx, "counter", 5*time.Millisecond, func(ctx context.Context) error {
		runs.Add(1)
		return nil
	}))

	deadline := time.Now().Add(2 * time.Second)
	for runs.Load() < 3 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	cancel()
	r.Wait()

	assert.GreaterOrEqual(t, runs.Load(), int64(3))
}

func TestSchedule_HandlerErrorDoesNotStopSchedule(t *testing.T) {
	r := NewRunner(&mockLogger{})
	ctx, cancel := context.WithCancel(context.Background())

	var runs atomic.Int64
	require.NoError(t, r.Schedule(ctx, "flaky", 5*time.Millisecond, func(ctx context.Context) error {
		runs.Add(1)
		return errors.New("transient")
	}))

	deadline := time.Now().Add(2 * time.Second)
	for runs.Load() < 2 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	cancel()
	r.Wait()

	assert.GreaterOrEqual(t, runs.Load(), int64(2))
}

func TestSchedule_NameFreesUpAfterStop(t *testing.T) {
	r := NewRunner(&mockLogger{})
	ctx, cancel := context.WithCancel(context.Background())

	handler := func(ctx context.Context) error { return nil }
	require.NoError(t, r.Schedule(ctx, "job", time.Second, handler))
	cancel()
	r.Wait()

	ctx2, cancel2 := context.WithCancel(context.Background())
	defer cancel2()
	assert.NoError(t, r.Schedule(ctx2, "job", time.Second, handler))
}
