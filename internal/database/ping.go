package database

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

const (
	// initialPingBackoff は接続確認リトライの初回遅延。
	initialPingBackoff = 500 * time.Millisecond
	// maxPingBackoff は接続確認リトライの最大遅延。
	maxPingBackoff = 8 * time.Second
)

// Pinger は接続確認ができるDB接続。*sql.DBが実装する。
type Pinger interface {
	PingContext(ctx context.Context) error
}

// PingBackoff は連続失敗回数に基づいて指数バックオフ遅延を計算する。
// 初回500ms、2倍ずつ増加、最大8秒。
func PingBackoff(failures int) time.Duration {
	delay := initialPingBackoff
	for i := 0; i < failures; i++ {
		delay *= 2
		if delay > maxPingBackoff {
			return maxPingBackoff
		}
	}
	return delay
}

// PingWithRetry はDBが応答するまで最大attempts回接続確認を繰り返す。
// コンテナ起動直後のようにDBの準備が遅れる場合に使う。
func PingWithRetry(ctx context.Context, db Pinger, attempts int) error {
	return pingWithRetry(ctx, db, attempts, PingBackoff)
}

func pingWithRetry(ctx context.Context, db Pinger, attempts int, backoff func(int) time.Duration) error {
	if attempts < 1 {
		attempts = 1
	}

	var err error
	for i := 0; i < attempts; i++ {
		if err = db.PingContext(ctx); err == nil {
			return nil
		}
		if i == attempts-1 {
			break
		}

		delay := backoff(i)
		slog.Warn("database is not ready, retrying",
			slog.Int("attempt", i+1),
			slog.Duration("retry_in", delay),
			slog.String("error", err.Error()),
		)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return fmt.Errorf("database ping canceled: %w", ctx.Err())
		case <-timer.C:
		}
	}
	return fmt.Errorf("database ping failed after %d attempts: %w", attempts, err)
}
