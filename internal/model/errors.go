// Package model はドメインモデルを定義する。
package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string              // エラーコード
	Message  string              // エラーメッセージ
	Category string              // カテゴリ: auth, validation, aggregation, system
	Action   string              // ユーザー向け対処方法
	Errors   map[string][]string // フィールド単位のバリデーションエラー（422時のみ）
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeArticleNotFound  = "ARTICLE_NOT_FOUND"
	ErrCodeSourceNotFound   = "SOURCE_NOT_FOUND"
	ErrCodeValidationFailed = "VALIDATION_FAILED"
	ErrCodeInvalidRequest   = "INVALID_REQUEST"
	ErrCodeUnauthorized     = "UNAUTHORIZED"
)

// NewArticleNotFoundError は記事未検出エラーを生成する。
func NewArticleNotFoundError(articleID int64) *APIError {
	return &APIError{
		Code:     ErrCodeArticleNotFound,
		Message:  fmt.Sprintf("指定された記事が見つかりません: %d", articleID),
		Category: "aggregation",
		Action:   "記事IDを確認してください。",
	}
}

// NewSourceNotFoundError は未知のソース名が指定された場合のエラーを生成する。
// 単一ソース実行（aggregateFrom）で使用する。
func NewSourceNotFoundError(name string) *APIError {
	return &APIError{
		Code:     ErrCodeSourceNotFound,
		Message:  fmt.Sprintf("指定されたソースが見つかりません: %s", name),
		Category: "validation",
		Action:   "設定済みのソース名（NewsAPI, The Guardian, BBC News）を指定してください。",
	}
}

// NewValidationError はフィールド単位のメッセージを持つバリデーションエラーを生成する。
func NewValidationError(errors map[string][]string) *APIError {
	return &APIError{
		Code:     ErrCodeValidationFailed,
		Message:  "リクエストのバリデーションに失敗しました。",
		Category: "validation",
		Action:   "各フィールドのエラーメッセージを確認してください。",
		Errors:   errors,
	}
}

// NewInvalidRequestError はリクエストボディの解析失敗エラーを生成する。
func NewInvalidRequestError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidRequest,
		Message:  "リクエストボディの解析に失敗しました。",
		Category: "validation",
		Action:   "正しいJSON形式でリクエストしてください。",
	}
}

// NewUnauthorizedError は未認証エラーを生成する。
func NewUnauthorizedError() *APIError {
	return &APIError{
		Code:     ErrCodeUnauthorized,
		Message:  "認証が必要です。",
		Category: "auth",
		Action:   "ログインしてください。",
	}
}
