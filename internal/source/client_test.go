package source

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

// stubGuard はテスト用のSafeClientFactory。
// ループバックアドレスへの接続を許可するため、素のhttp.Clientを返す。
type stubGuard struct{}

func (stubGuard) NewSafeClient(timeout time.Duration) *http.Client {
	return &http.Client{Timeout: timeout}
}

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func TestClient_GetJSON_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status": "ok", "articles": [{"title": "a"}]}`))
	}))
	defer server.Close()

	client := NewClient(stubGuard{}, newTestLogger(), 5*time.Second, 3, time.Millisecond)

	var resp newsAPIResponse
	if err := client.GetJSON(context.Background(), server.URL, &resp); err != nil {
		t.Fatalf("GetJSON() error = %v", err)
	}

	if resp.Status != "ok" {
		t.Errorf("Status = %q", resp.Status)
	}
	if len(resp.Articles) != 1 {
		t.Errorf("len(Articles) = %d, want 1", len(resp.Articles))
	}
}

func TestClient_GetJSON_RetriesOnServerError(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// 最初の2回は500、3回目で成功
		if atomic.AddInt32(&calls, 1) <= 2 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte(`{"status": "ok"}`))
	}))
	defer server.Close()

	client := NewClient(stubGuard{}, newTestLogger(), 5*time.Second, 3, time.Millisecond)

	var resp newsAPIResponse
	if err := client.GetJSON(context.Background(), server.URL, &resp); err != nil {
		t.Fatalf("GetJSON() error = %v, リトライで成功するべき", err)
	}

	if got := atomic.LoadInt32(&calls); got != 3 {
		t.Errorf("リクエスト回数 = %d, want 3", got)
	}
}

func TestClient_GetJSON_ExhaustsRetries_ReturnsError(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := NewClient(stubGuard{}, newTestLogger(), 5*time.Second, 2, time.Millisecond)

	var resp newsAPIResponse
	err := client.GetJSON(context.Background(), server.URL, &resp)
	if err == nil {
		t.Fatal("GetJSON() error = nil, リトライ上限超過でエラーになるべき")
	}
	if !strings.Contains(err.Error(), "unexpected status 502") {
		t.Errorf("error = %v", err)
	}

	// 初回 + リトライ2回 = 3回
	if got := atomic.LoadInt32(&calls); got != 3 {
		t.Errorf("リクエスト回数 = %d, want 3", got)
	}
}

func TestClient_GetJSON_MalformedBody_NoRetry(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.Write([]byte(`{not valid json`))
	}))
	defer server.Close()

	client := NewClient(stubGuard{}, newTestLogger(), 5*time.Second, 3, time.Millisecond)

	var resp newsAPIResponse
	if err := client.GetJSON(context.Background(), server.URL, &resp); err == nil {
		t.Fatal("GetJSON() error = nil, 不正なボディはエラーになるべき")
	}

	// デコード失敗は再試行しない
	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Errorf("リクエスト回数 = %d, want 1", got)
	}
}

func TestClient_GetJSON_ContextCancelled_StopsRetrying(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	client := NewClient(stubGuard{}, newTestLogger(), 5*time.Second, 5, time.Hour)

	var resp newsAPIResponse
	err := client.GetJSON(ctx, server.URL, &resp)
	if err == nil {
		t.Fatal("GetJSON() error = nil, キャンセル済みコンテキストはエラーになるべき")
	}
}
