// Package cleanup は期限切れセッションの自動削除ジョブを提供する。
// Redisストアはキーの有効期限で消えるため、SQLストアのみが対象となる。
package cleanup

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hitoshi/templeotrunks/internal/repository"
)

// CleanupJob は期限切れセッションの削除ジョブ。
// 冪等な削除処理で、cleanupサブコマンドから単発で、またはserve中に定期的に実行する。
type CleanupJob struct {
	sessions  repository.ExpiredSessionDeleter
	logger    *slog.Logger
	now       func() time.Time
	Retention time.Duration // 有効期限切れ後も保持する期間（デフォルト: 0）
}

// NewCleanupJob は新しいCleanupJobを生成する。
func NewCleanupJob(sessions repository.ExpiredSessionDeleter, logger *slog.Logger) *CleanupJob {
	return &CleanupJob{
		sessions: sessions,
		logger:   logger,
		now:      time.Now,
	}
}

// Run は有効期限からRetentionを過ぎたセッションを削除し、削除件数を返す。
// 削除対象がない場合でもエラーにならない。
func (j *CleanupJob) Run(ctx context.Context) (int64, error) {
	start := j.now()
	before := start.Add(-j.Retention)

	deleted, err := j.sessions.DeleteExpired(ctx, before)
	if err != nil {
		j.logger.Error("セッションクリーンアップジョブの実行に失敗しました",
			slog.String("error", err.Error()),
			slog.Duration("retention", j.Retention),
		)
		return 0, fmt.Errorf("セッションクリーンアップの実行に失敗: %w", err)
	}

	j.logger.Info("セッションクリーンアップジョブが完了しました",
		slog.Int64("deleted_count", deleted),
		slog.Duration("retention", j.Retention),
		slog.Float64("duration_ms", float64(time.Since(start).Milliseconds())),
	)
	return deleted, nil
}

// Start はintervalごとにRunを繰り返す。起動直後にも1回実行する。
// ctxがキャンセルされると戻る。個々の失敗はログに残して継続する。
func (j *CleanupJob) Start(ctx context.Context, interval time.Duration) {
	j.Run(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			j.Run(ctx)
		}
	}
}
