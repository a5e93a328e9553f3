// Package schedule は記事集約の定期実行スケジューラを提供する。
package schedule

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/hitoshi/newshub/internal/aggregator"
)

// AggregatorService は集約パイプラインの実行インターフェース。
type AggregatorService interface {
	// AggregateAll は全ソースから記事を集約し、実行統計を返す。
	AggregateAll(ctx context.Context) *aggregator.Stats
}

// Scheduler は記事集約ジョブの定期実行を行う。
// 前回の実行が完了していない場合、そのティックでの実行はスキップされる
// （同一プロセス内で集約が重複実行されることはない）。
type Scheduler struct {
	pipeline AggregatorService
	logger   *slog.Logger

	mu sync.Mutex
}

// NewScheduler はSchedulerの新しいインスタンスを生成する。
func NewScheduler(pipeline AggregatorService, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		pipeline: pipeline,
		logger:   logger,
	}
}

// Start は指定間隔のティッカーでスケジューラを起動する。
// コンテキストがキャンセルされるまで実行を継続する。
func (s *Scheduler) Start(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.logger.Info("集約スケジューラを開始しました",
		slog.Duration("interval", interval),
	)

	// 起動直後に1回実行
	s.RunOnce(ctx)

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("集約スケジューラを停止しました")
			return
		case <-ticker.C:
			s.RunOnce(ctx)
		}
	}
}

// RunOnce は集約を1回実行する。前回の実行が進行中の場合はスキップし、
// falseを返す。
func (s *Scheduler) RunOnce(ctx context.Context) bool {
	if !s.mu.TryLock() {
		s.logger.Warn("前回の集約が進行中のため、今回の実行をスキップします")
		return false
	}
	defer s.mu.Unlock()

	start := time.Now()
	stats := s.pipeline.AggregateAll(ctx)
	duration := time.Since(start)

	s.logger.Info("集約サイクルが完了しました",
		slog.Int("total", stats.Total),
		slog.Int("new", stats.New),
		slog.Int("updated", stats.Updated),
		slog.Int("skipped", stats.Skipped),
		slog.Int("failed_sources", stats.FailedSources),
		slog.Float64("duration_ms", float64(duration.Milliseconds())),
	)

	return true
}
