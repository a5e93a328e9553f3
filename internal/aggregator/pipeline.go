package aggregator

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hitoshi/newshub/internal/model"
	"github.com/hitoshi/newshub/internal/repository"
	"github.com/hitoshi/newshub/internal/source"
)

// TextSanitizer は記事テキストのサニタイズのインターフェース。
type TextSanitizer interface {
	Sanitize(raw string) string
}

// MetricsRecorder は集約メトリクス記録のインターフェース。
type MetricsRecorder interface {
	RecordSourceSuccess(source string)
	RecordSourceFailure(source string)
	RecordFetchLatency(source string, duration time.Duration)
	RecordArticlesNew(source string, count int)
	RecordArticlesUpdated(source string, count int)
	RecordArticlesSkipped(source string, count int)
}

// Pipeline は全ソースからの記事取得・正規化・サニタイズ・UPSERTを実行する。
// 1ソースの失敗が他ソースの処理を妨げないよう、失敗はソース境界で隔離される。
type Pipeline struct {
	sources     []source.Source
	articleRepo repository.ArticleRepository
	sanitizer   TextSanitizer
	metrics     MetricsRecorder
	logger      *slog.Logger
}

// NewPipeline はPipelineの新しいインスタンスを生成する。
// sourcesの順序がそのまま集約の実行順・統計の並び順になる。
func NewPipeline(
	sources []source.Source,
	articleRepo repository.ArticleRepository,
	sanitizer TextSanitizer,
	metrics MetricsRecorder,
	logger *slog.Logger,
) *Pipeline {
	return &Pipeline{
		sources:     sources,
		articleRepo: articleRepo,
		sanitizer:   sanitizer,
		metrics:     metrics,
		logger:      logger,
	}
}

// AvailableSources は登録されているソース名の一覧を登録順で返す。
func (p *Pipeline) AvailableSources() []string {
	names := make([]string, 0, len(p.sources))
	for _, src := range p.sources {
		names = append(names, src.Name())
	}
	return names
}

// AggregateAll は全ソースから記事を集約する。
// ソース単位のフェッチ失敗はFailedSourcesに計上して次のソースへ進み、
// レコード単位の検証・保存失敗はSkippedに計上して次のレコードへ進む。
// 戻り値のStatsは部分的に失敗した場合も常に返される。
func (p *Pipeline) AggregateAll(ctx context.Context) *Stats {
	stats := &Stats{Sources: []SourceStats{}}

	for _, src := range p.sources {
		sourceStats := p.aggregateSource(ctx, src, stats)
		stats.Sources = append(stats.Sources, sourceStats)
	}

	// 全体のスキップ数はソース別内訳の合計
	stats.Skipped = 0
	for _, s := range stats.Sources {
		stats.Skipped += s.Skipped
	}

	return stats
}

// aggregateSource は1ソース分の集約を実行し、statsの全体カウンタを更新する。
func (p *Pipeline) aggregateSource(ctx context.Context, src source.Source, stats *Stats) SourceStats {
	name := src.Name()
	sourceStats := SourceStats{Name: name}

	p.logger.Info("ソースの集約を開始します", slog.String("source", name))

	start := time.Now()
	records, err := src.Fetch(ctx, source.FetchParams{})
	p.metrics.RecordFetchLatency(name, time.Since(start))

	if err != nil {
		stats.FailedSources++
		sourceStats.Err = err.Error()
		p.metrics.RecordSourceFailure(name)
		p.logger.Error("ソースの集約に失敗しました",
			slog.String("source", name),
			slog.String("error", err.Error()),
		)
		return sourceStats
	}

	for _, raw := range records {
		normalized := src.Normalize(raw)
		if normalized == nil || normalized.Title == "" {
			sourceStats.Skipped++
			continue
		}

		p.sanitize(normalized)
		if normalized.Title == "" {
			sourceStats.Skipped++
			continue
		}

		_, created, err := p.articleRepo.Upsert(ctx, normalized)
		if err != nil {
			sourceStats.Skipped++
			p.logger.Warn("記事の保存に失敗しました",
				slog.String("source", name),
				slog.String("title", normalized.Title),
				slog.String("error", err.Error()),
			)
			continue
		}

		if created {
			sourceStats.New++
			stats.New++
		} else {
			sourceStats.Updated++
			stats.Updated++
		}
		sourceStats.Articles++
		stats.Total++
	}

	p.metrics.RecordSourceSuccess(name)
	p.metrics.RecordArticlesNew(name, sourceStats.New)
	p.metrics.RecordArticlesUpdated(name, sourceStats.Updated)
	p.metrics.RecordArticlesSkipped(name, sourceStats.Skipped)

	p.logger.Info("ソースの集約が完了しました",
		slog.String("source", name),
		slog.Int("articles", sourceStats.Articles),
		slog.Int("new", sourceStats.New),
		slog.Int("updated", sourceStats.Updated),
		slog.Int("skipped", sourceStats.Skipped),
	)

	return sourceStats
}

// sanitize は正規化済み記事のテキストフィールドをサニタイズする。
func (p *Pipeline) sanitize(n *model.NormalizedArticle) {
	n.Title = p.sanitizer.Sanitize(n.Title)
	n.Content = p.sanitizer.Sanitize(n.Content)
	n.Author = p.sanitizer.Sanitize(n.Author)
}

// AggregateFrom は指定した単一ソースから記事を集約する（管理用操作）。
// 未登録のソース名にはSOURCE_NOT_FOUNDエラーを返す。
// AggregateAllと異なりレコード単位の保存失敗は隔離せず、即座にエラーを返す。
func (p *Pipeline) AggregateFrom(ctx context.Context, sourceName string) (*SourceRunStats, error) {
	for _, src := range p.sources {
		if src.Name() != sourceName {
			continue
		}

		records, err := src.Fetch(ctx, source.FetchParams{})
		if err != nil {
			return nil, fmt.Errorf("ソース %s の集約に失敗しました: %w", sourceName, err)
		}

		stats := &SourceRunStats{Source: sourceName, Fetched: len(records)}
		for _, raw := range records {
			normalized := src.Normalize(raw)
			if normalized == nil {
				continue
			}
			p.sanitize(normalized)
			if _, _, err := p.articleRepo.Upsert(ctx, normalized); err != nil {
				return nil, fmt.Errorf("ソース %s の記事保存に失敗しました: %w", sourceName, err)
			}
			stats.Saved++
		}
		return stats, nil
	}

	return nil, model.NewSourceNotFoundError(sourceName)
}
