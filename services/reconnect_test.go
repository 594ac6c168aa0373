package services

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestCalculateBackoff(t *testing.T) {
	cfg := DefaultReconnectConfig()

	cases := []struct {
		attempt int
		want    time.Duration
	}{
		{0, 500 * time.Millisecond},
		{1, 500 * time.Millisecond},
		{2, time.Second},
		{3, 2 * time.Second},
		{7, 30 * time.Second},
		{50, 30 * time.Second},
	}
	for _, c := range cases {
		if got := calculateBackoff(c.attempt, cfg); got != c.want {
			t.Fatalf("attempt %d: expected %v, got %v", c.attempt, c.want, got)
		}
	}
}

func TestRunWithReconnectGivesUp(t *testing.T) {
	cfg := ReconnectConfig{RetryDelay: time.Millisecond, MaxRetryDelay: 2 * time.Millisecond, MaxRetries: 3}
	errDial := errors.New("dial failed")

	calls := 0
	err := RunWithReconnect(context.Background(), nil, cfg, nil, func(ctx context.Context) (bool, error) {
		calls++
		return false, errDial
	})
	if !errors.Is(err, errDial) {
		t.Fatalf("expected wrapped dial error, got %v", err)
	}
	if calls != 4 {
		t.Fatalf("expected 4 sessions, got %d", calls)
	}
}

func TestRunWithReconnectResetsAfterConnect(t *testing.T) {
	cfg := ReconnectConfig{RetryDelay: time.Millisecond, MaxRetryDelay: 2 * time.Millisecond, MaxRetries: 2}

	// 실패-실패-연결-실패-실패 순서면 한도에 걸리지 않아야 함
	script := []bool{false, false, true, false, false}
	calls := 0
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	err := RunWithReconnect(ctx, nil, cfg, nil, func(ctx context.Context) (bool, error) {
		if calls == len(script) {
			cancel()
			return false, nil
		}
		connected := script[calls]
		calls++
		return connected, ErrStreamEnded
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected cancellation, got %v", err)
	}
	if calls != len(script) {
		t.Fatalf("expected %d sessions, got %d", len(script), calls)
	}
}
