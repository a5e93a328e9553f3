package cleanup

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
)

// mockExecutor はテスト用のExecutorモック。実行されたクエリと引数を記録する。
type mockExecutor struct {
	query string
	args  []interface{}
	rows  int64
	err   error
}

func (m *mockExecutor) ExecContext(_ context.Context, query string, args ...interface{}) (sql.Result, error) {
	m.query = query
	m.args = args
	if m.err != nil {
		return nil, m.err
	}
	return stubResult{rows: m.rows}, nil
}

// stubResult はテスト用のsql.Result実装。
type stubResult struct {
	rows int64
}

func (r stubResult) LastInsertId() (int64, error) { return 0, nil }
func (r stubResult) RowsAffected() (int64, error) { return r.rows, nil }

func testLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func TestCleanupJob_Run_DeletesByRetentionInterval(t *testing.T) {
	executor := &mockExecutor{rows: 12}
	job := NewCleanupJob(executor, testLogger())

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if !strings.Contains(executor.query, "DELETE FROM articles") {
		t.Errorf("query = %q", executor.query)
	}
	if !strings.Contains(executor.query, "published_at < now() - $1::interval") {
		t.Errorf("query = %q, published_at基準で削除するべき", executor.query)
	}

	// デフォルトの保持日数は30日
	if len(executor.args) != 1 || executor.args[0] != "30 days" {
		t.Errorf("args = %v, want [30 days]", executor.args)
	}
}

func TestCleanupJob_Run_CustomRetentionDays(t *testing.T) {
	executor := &mockExecutor{}
	job := NewCleanupJob(executor, testLogger())
	job.RetentionDays = 7

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if len(executor.args) != 1 || executor.args[0] != "7 days" {
		t.Errorf("args = %v, want [7 days]", executor.args)
	}
}

func TestCleanupJob_Run_NothingToDelete_NoError(t *testing.T) {
	executor := &mockExecutor{rows: 0}
	job := NewCleanupJob(executor, testLogger())

	if err := job.Run(context.Background()); err != nil {
		t.Errorf("Run() error = %v, 削除対象なしはエラーにならないべき", err)
	}
}

func TestCleanupJob_Run_ExecFailurePropagates(t *testing.T) {
	executor := &mockExecutor{err: errors.New("deadlock detected")}
	job := NewCleanupJob(executor, testLogger())

	if err := job.Run(context.Background()); err == nil {
		t.Error("Run() error = nil, 実行失敗は伝播するべき")
	}
}
