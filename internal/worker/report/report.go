// Package report は集約状況の日次統計レポートジョブを提供する。
package report

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// ArticleCounter は統計レポートに必要な集計インターフェース。
// repository.ArticleRepositoryの部分集合として定義する。
type ArticleCounter interface {
	// Count は記事の総件数を返す。
	Count(ctx context.Context) (int64, error)
	// CountCreatedSince は指定日時以降に取り込まれた記事数を返す。
	CountCreatedSince(ctx context.Context, since time.Time) (int64, error)
	// DistinctSources は現在格納されているソース名の一覧を返す。
	DistinctSources(ctx context.Context) ([]string, error)
}

// ReportJob は記事ストアの統計を集計してログに出力する日次ジョブ。
// 出力は運用ログとしてのみ使用され、永続化はしない。
type ReportJob struct {
	counter ArticleCounter
	logger  *slog.Logger
}

// NewReportJob は新しいReportJobを生成する。
func NewReportJob(counter ArticleCounter, logger *slog.Logger) *ReportJob {
	return &ReportJob{
		counter: counter,
		logger:  logger,
	}
}

// Run は統計を集計してログに出力する。
// 集計対象: 記事総数、当日取り込み数（created_at基準）、ソース数。
func (j *ReportJob) Run(ctx context.Context) error {
	total, err := j.counter.Count(ctx)
	if err != nil {
		return fmt.Errorf("記事総数の集計に失敗: %w", err)
	}

	now := time.Now()
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	todayCount, err := j.counter.CountCreatedSince(ctx, midnight)
	if err != nil {
		return fmt.Errorf("当日取り込み数の集計に失敗: %w", err)
	}

	sources, err := j.counter.DistinctSources(ctx)
	if err != nil {
		return fmt.Errorf("ソース一覧の集計に失敗: %w", err)
	}

	j.logger.Info("日次統計レポート",
		slog.Int64("total_articles", total),
		slog.Int64("today_articles", todayCount),
		slog.Int("source_count", len(sources)),
		slog.Any("sources", sources),
	)

	return nil
}
