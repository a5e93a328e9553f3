// Package app はアプリケーションの起動とワイヤリングを提供する。
package app

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/hitoshi/newshub/internal/aggregator"
	"github.com/hitoshi/newshub/internal/article"
	"github.com/hitoshi/newshub/internal/config"
	"github.com/hitoshi/newshub/internal/database"
	"github.com/hitoshi/newshub/internal/handler"
	"github.com/hitoshi/newshub/internal/logger"
	"github.com/hitoshi/newshub/internal/metrics"
	"github.com/hitoshi/newshub/internal/middleware"
	"github.com/hitoshi/newshub/internal/preference"
	"github.com/hitoshi/newshub/internal/repository"
	"github.com/hitoshi/newshub/internal/security"
	"github.com/hitoshi/newshub/internal/source"
	"github.com/hitoshi/newshub/internal/worker/cleanup"
	"github.com/hitoshi/newshub/internal/worker/report"
	"github.com/hitoshi/newshub/internal/worker/schedule"
)

// Init はアプリケーションの初期化を行う。
// 環境変数からConfigを読み込み、JSON構造化ログをセットアップする。
// writerが指定された場合はログ出力先としてそのwriterを使用する。
func Init(w io.Writer) (*config.Config, error) {
	// 1. ログの初期化（設定読み込み前にログを使えるようにする）
	logger.SetupDefault(w)

	// 2. 環境変数から設定を読み込む
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	return cfg, nil
}

// Run はアプリケーションのメインエントリーポイント。
// コマンドライン引数からサブコマンドを解析し、対応するモードで起動する。
// argsにはos.Args[1:]を渡す。
func Run(w io.Writer, args []string) error {
	cmd := ParseCommand(args)

	// healthcheck は軽量サブコマンドのため、フル初期化をスキップする
	if cmd == CommandHealthcheck {
		port := os.Getenv("SERVER_PORT")
		if port == "" {
			port = "8080"
		}
		return runHealthcheck(port)
	}

	cfg, err := Init(w)
	if err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}

	slog.Info("starting application",
		slog.String("command", string(cmd)),
		slog.String("port", cfg.ServerPort),
	)

	switch cmd {
	case CommandServe:
		return runServe(cfg)
	case CommandWorker:
		return runWorker(cfg)
	case CommandAggregate:
		sourceName := ""
		if len(args) > 1 {
			sourceName = args[1]
		}
		return runAggregate(cfg, sourceName)
	case CommandMigrate:
		return runMigrate(cfg)
	default:
		return runServe(cfg)
	}
}

// openDatabase はDB接続を開いて疎通確認する。
func openDatabase(cfg *config.Config) (*sql.DB, error) {
	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return db, nil
}

// buildPipeline は集約パイプラインと依存関係をワイヤリングする。
func buildPipeline(cfg *config.Config, db *sql.DB, collector *metrics.Collector) *aggregator.Pipeline {
	articleRepo := repository.NewPostgresArticleRepo(db)

	ssrfGuard := security.NewSSRFGuard()
	sanitizer := security.NewTextSanitizer()

	client := source.NewClient(
		ssrfGuard, slog.Default(),
		cfg.FetchTimeout, cfg.FetchMaxRetries, cfg.FetchRetryDelay,
	)

	sources := []source.Source{
		source.NewNewsAPISource(client, cfg.NewsAPIKey),
		source.NewGuardianSource(client, cfg.GuardianAPIKey),
		source.NewBBCSource(client, cfg.NewsAPIKey),
	}

	return aggregator.NewPipeline(sources, articleRepo, sanitizer, collector, slog.Default())
}

// runServe はAPIサーバーモードで起動する。
// DB接続を開き、全依存関係をワイヤリングし、HTTPサーバーを起動する。
// SIGINTまたはSIGTERMシグナルを受信するとグレースフルシャットダウンを行う。
func runServe(cfg *config.Config) error {
	// 1. DB接続
	db, err := openDatabase(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	slog.Info("database connection established")

	// 2. リポジトリの初期化
	articleRepo := repository.NewPostgresArticleRepo(db)
	prefRepo := repository.NewPostgresPreferenceRepo(db)
	sessionRepo := repository.NewPostgresSessionRepo(db)

	// 3. サービスの初期化
	articleService := article.NewService(articleRepo, prefRepo)
	prefService := preference.NewService(prefRepo)

	// 4. メトリクスレジストリの初期化
	registry := prometheus.NewRegistry()
	metrics.NewCollector(registry)

	// 5. レート制限の初期化
	rateLimiter := middleware.NewRateLimiter(
		middleware.NewRateLimiterConfig(cfg.RateLimitGeneral),
	)
	defer rateLimiter.Stop()

	// 6. ルーターの構築
	router := handler.NewRouter(&handler.RouterDeps{
		HealthChecker:     db,
		SessionFinder:     sessionRepo,
		CORSAllowedOrigin: cfg.CORSAllowedOrigin,
		RateLimiter:       rateLimiter,
		Logger:            slog.Default(),

		ArticleService:    articleService,
		PreferenceService: prefService,

		MetricsHandler: metrics.Handler(registry),
	})

	// 7. HTTPサーバーの起動
	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// グレースフルシャットダウンのためのシグナルハンドリング
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("API server starting",
			slog.String("addr", server.Addr),
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server listen error", slog.String("error", err.Error()))
		}
	}()

	<-stop
	slog.Info("shutting down API server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	slog.Info("API server stopped gracefully")
	return nil
}

// runWorker はワーカーモードで起動する。
// 集約スケジューラ、クリーンアップジョブ、日次レポートジョブを起動する。
// SIGINTまたはSIGTERMシグナルを受信するとシャットダウンする。
func runWorker(cfg *config.Config) error {
	// 1. DB接続
	db, err := openDatabase(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	slog.Info("database connection established (worker)")

	// 2. 集約パイプラインの初期化
	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(registry)
	pipeline := buildPipeline(cfg, db, collector)

	// 3. ジョブの初期化
	scheduler := schedule.NewScheduler(pipeline, slog.Default())

	cleanupJob := cleanup.NewCleanupJob(db, slog.Default())
	cleanupJob.RetentionDays = cfg.RetentionDays

	articleRepo := repository.NewPostgresArticleRepo(db)
	reportJob := report.NewReportJob(articleRepo, slog.Default())

	// グレースフルシャットダウンのためのシグナルハンドリング
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-stop
		slog.Info("shutting down worker...")
		cancel()
	}()

	slog.Info("worker starting",
		slog.Duration("aggregate_interval", cfg.AggregateInterval),
		slog.Duration("cleanup_interval", cfg.CleanupInterval),
		slog.Int("retention_days", cfg.RetentionDays),
	)

	// クリーンアップジョブを日次でバックグラウンド実行
	go runPeriodic(ctx, cfg.CleanupInterval, func() {
		if err := cleanupJob.Run(ctx); err != nil {
			slog.Error("cleanup job failed", slog.String("error", err.Error()))
		}
	})

	// 日次レポートジョブをバックグラウンド実行
	go runPeriodic(ctx, cfg.ReportInterval, func() {
		if err := reportJob.Run(ctx); err != nil {
			slog.Error("report job failed", slog.String("error", err.Error()))
		}
	})

	// 集約スケジューラをメインgoroutineで実行（ブロッキング）
	scheduler.Start(ctx, cfg.AggregateInterval)

	slog.Info("worker stopped gracefully")
	return nil
}

// runPeriodic は起動直後に1回、以降は指定間隔でfnを実行する。
func runPeriodic(ctx context.Context, interval time.Duration, fn func()) {
	fn()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			fn()
		}
	}
}

// runAggregate は集約を1回だけ実行して終了する（手動実行用）。
// sourceNameが空の場合は全ソース、指定された場合はそのソースのみを集約する。
func runAggregate(cfg *config.Config, sourceName string) error {
	db, err := openDatabase(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(registry)
	pipeline := buildPipeline(cfg, db, collector)

	ctx := context.Background()

	if sourceName != "" {
		stats, err := pipeline.AggregateFrom(ctx, sourceName)
		if err != nil {
			return fmt.Errorf("aggregation failed: %w", err)
		}
		slog.Info("単一ソースの集約が完了しました",
			slog.String("source", stats.Source),
			slog.Int("fetched", stats.Fetched),
			slog.Int("saved", stats.Saved),
		)
		return nil
	}

	stats := pipeline.AggregateAll(ctx)
	statsJSON, _ := json.Marshal(stats)
	slog.Info("全ソースの集約が完了しました",
		slog.String("stats", string(statsJSON)),
	)

	if stats.FailedSources > 0 {
		return fmt.Errorf("aggregation completed with %d failed sources", stats.FailedSources)
	}
	return nil
}

// runMigrate はデータベースマイグレーションを実行する。
// すべての未適用マイグレーションを順番に適用する。
func runMigrate(cfg *config.Config) error {
	slog.Info("running database migrations",
		slog.String("database_url", maskDatabaseURL(cfg.DatabaseURL)),
	)

	if err := database.RunMigrations(cfg.DatabaseURL); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	slog.Info("database migrations completed successfully")
	return nil
}

// runHealthcheck はヘルスチェックを実行する。
// distroless環境でのDockerヘルスチェック用サブコマンド。
// /health エンドポイントにHTTPリクエストを送り、結果を返す。
func runHealthcheck(port string) error {
	url := fmt.Sprintf("http://localhost:%s/health", port)
	client := &http.Client{Timeout: 5 * time.Second}

	resp, err := client.Get(url)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}

	return nil
}

// maskDatabaseURL はデータベースURLの認証情報をマスクする。
func maskDatabaseURL(url string) string {
	if len(url) > 20 {
		return url[:12] + "***@..."
	}
	return "***"
}
