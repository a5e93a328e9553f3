package source

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// SafeClientFactory はSSRF防止機能付きHTTPクライアントの生成インターフェース。
type SafeClientFactory interface {
	NewSafeClient(timeout time.Duration) *http.Client
}

// Client はプロバイダAPI共通のHTTPクライアント。
// SSRF防止付きクライアントでJSONレスポンスを取得し、
// 一時的な失敗に対して固定遅延でリトライする。
type Client struct {
	guard      SafeClientFactory
	logger     *slog.Logger
	timeout    time.Duration
	maxRetries int
	retryDelay time.Duration
}

// NewClient はClientの新しいインスタンスを生成する。
func NewClient(
	guard SafeClientFactory,
	logger *slog.Logger,
	timeout time.Duration,
	maxRetries int,
	retryDelay time.Duration,
) *Client {
	return &Client{
		guard:      guard,
		logger:     logger,
		timeout:    timeout,
		maxRetries: maxRetries,
		retryDelay: retryDelay,
	}
}

// GetJSON は指定URLにGETリクエストを送信し、レスポンスボディをvにデコードする。
// 接続エラーおよび非2xxレスポンスはmaxRetries回まで再試行する。
// URLにはAPIキーが含まれるため、ログにはURLを出力しない。
func (c *Client) GetJSON(ctx context.Context, rawURL string, v interface{}) error {
	httpClient := c.guard.NewSafeClient(c.timeout)

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			c.logger.Warn("プロバイダAPIへのリクエストを再試行します",
				slog.Int("attempt", attempt),
				slog.String("error", lastErr.Error()),
			)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(c.retryDelay):
			}
		}

		body, err := c.get(ctx, httpClient, rawURL)
		if err != nil {
			lastErr = err
			continue
		}

		if err := json.Unmarshal(body, v); err != nil {
			// レスポンス形式エラーは再試行しても解消しない
			return fmt.Errorf("レスポンスのデコードに失敗しました: %w", err)
		}
		return nil
	}

	return fmt.Errorf("プロバイダAPIへのリクエストが%d回失敗しました: %w", c.maxRetries+1, lastErr)
}

// get は1回分のGETリクエストを実行してボディを返す。
func (c *Client) get(ctx context.Context, httpClient *http.Client, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("リクエスト作成に失敗しました: %w", err)
	}

	req.Header.Set("User-Agent", "NewsHub/1.0")
	req.Header.Set("Accept", "application/json")

	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTPリクエストに失敗しました: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("レスポンスボディの読み取りに失敗しました: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	return body, nil
}
