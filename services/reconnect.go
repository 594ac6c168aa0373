package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// ReconnectConfig - 지수 백오프 재연결 설정
type ReconnectConfig struct {
	RetryDelay    time.Duration // 첫 재시도 지연
	MaxRetryDelay time.Duration // 지연 상한
	MaxRetries    int           // 연속 실패 허용 횟수 (0 = 무제한)
}

// DefaultReconnectConfig - 500ms부터 두 배씩, 최대 30초
func DefaultReconnectConfig() ReconnectConfig {
	return ReconnectConfig{
		RetryDelay:    500 * time.Millisecond,
		MaxRetryDelay: 30 * time.Second,
	}
}

// SessionFunc runs one connection session until it ends. connected reports
// whether the session got as far as an established connection, which resets
// the backoff.
type SessionFunc func(ctx context.Context) (connected bool, err error)

// RunWithReconnect keeps running session until ctx is cancelled or
// MaxRetries consecutive sessions fail without connecting.
//
// delay = RetryDelay * 2^(attempt-1), capped at MaxRetryDelay
func RunWithReconnect(ctx context.Context, logger *slog.Logger, cfg ReconnectConfig, metrics *PipelineMetrics, session SessionFunc) error {
	if logger == nil {
		logger = slog.Default()
	}

	attempt := 0
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		connected, err := session(ctx)
		if ctx.Err() != nil {
			logger.Info("스트림 종료: 컨텍스트 취소")
			return ctx.Err()
		}

		if connected {
			attempt = 0
		}
		attempt++

		if cfg.MaxRetries > 0 && attempt > cfg.MaxRetries {
			return fmt.Errorf("재연결 한도 초과 (%d회): %w", cfg.MaxRetries, err)
		}

		delay := calculateBackoff(attempt, cfg)
		logger.Warn("스트림 연결 끊김, 재연결 대기",
			"error", err,
			"attempt", attempt,
			"delay", delay,
		)
		metrics.reconnecting()

		timer := time.NewTimer(delay)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		}
	}
}

func calculateBackoff(attempt int, cfg ReconnectConfig) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	delay := cfg.RetryDelay
	for i := 1; i < attempt; i++ {
		delay *= 2
		if delay >= cfg.MaxRetryDelay {
			return cfg.MaxRetryDelay
		}
	}
	if delay > cfg.MaxRetryDelay {
		delay = cfg.MaxRetryDelay
	}
	return delay
}
