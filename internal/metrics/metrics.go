// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsCollector はメトリクス収集のインターフェース。
// 集約パイプラインやワーカーから利用する。
type MetricsCollector interface {
	RecordSourceSuccess(source string)
	RecordSourceFailure(source string)
	RecordFetchLatency(source string, duration time.Duration)
	RecordArticlesNew(source string, count int)
	RecordArticlesUpdated(source string, count int)
	RecordArticlesSkipped(source string, count int)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	sourceSuccess   *prometheus.CounterVec
	sourceFail      *prometheus.CounterVec
	fetchLatency    *prometheus.HistogramVec
	articlesNew     *prometheus.CounterVec
	articlesUpdated *prometheus.CounterVec
	articlesSkipped *prometheus.CounterVec
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		sourceSuccess: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "newshub_source_success_total",
			Help: "ソース集約成功の合計数",
		}, []string{"source"}),
		sourceFail: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "newshub_source_fail_total",
			Help: "ソース集約失敗の合計数",
		}, []string{"source"}),
		fetchLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "newshub_fetch_latency_seconds",
			Help:    "プロバイダAPIフェッチのレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}, []string{"source"}),
		articlesNew: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "newshub_articles_new_total",
			Help: "新規挿入された記事の合計数",
		}, []string{"source"}),
		articlesUpdated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "newshub_articles_updated_total",
			Help: "更新された記事の合計数",
		}, []string{"source"}),
		articlesSkipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "newshub_articles_skipped_total",
			Help: "検証失敗等でスキップされた記事の合計数",
		}, []string{"source"}),
	}

	reg.MustRegister(
		c.sourceSuccess,
		c.sourceFail,
		c.fetchLatency,
		c.articlesNew,
		c.articlesUpdated,
		c.articlesSkipped,
	)

	return c
}

// RecordSourceSuccess はソース集約の成功を記録する。
func (c *Collector) RecordSourceSuccess(source string) {
	c.sourceSuccess.WithLabelValues(source).Inc()
}

// RecordSourceFailure はソース集約の失敗を記録する。
func (c *Collector) RecordSourceFailure(source string) {
	c.sourceFail.WithLabelValues(source).Inc()
}

// RecordFetchLatency はプロバイダAPIフェッチのレイテンシを記録する。
func (c *Collector) RecordFetchLatency(source string, duration time.Duration) {
	c.fetchLatency.WithLabelValues(source).Observe(duration.Seconds())
}

// RecordArticlesNew は新規挿入された記事数を記録する。
func (c *Collector) RecordArticlesNew(source string, count int) {
	c.articlesNew.WithLabelValues(source).Add(float64(count))
}

// RecordArticlesUpdated は更新された記事数を記録する。
func (c *Collector) RecordArticlesUpdated(source string, count int) {
	c.articlesUpdated.WithLabelValues(source).Add(float64(count))
}

// RecordArticlesSkipped はスキップされた記事数を記録する。
func (c *Collector) RecordArticlesSkipped(source string, count int) {
	c.articlesSkipped.WithLabelValues(source).Add(float64(count))
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

var _ MetricsCollector = (*Collector)(nil)
