// Package source は外部ニュースプロバイダへのアダプタを提供する。
// 各アダプタはプロバイダ固有のAPI呼び出しとレスポンス形式を隠蔽し、
// 集約パイプラインには統一されたNormalizedArticleを渡す。
package source

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"strings"
	"time"

	"github.com/hitoshi/newshub/internal/model"
)

// FetchParams はプロバイダAPIへのフェッチパラメータを表す。
// ゼロ値のフィールドにはアダプタごとのデフォルトが適用される。
type FetchParams struct {
	// Query は検索クエリ。対応しないプロバイダでは無視される。
	Query string
	// From はこの日時以降の記事を要求する。ゼロ値なら7日前。
	From time.Time
	// Section はセクション絞り込み。対応しないプロバイダでは無視される。
	Section string
}

// defaultLookback はFromが未指定の場合の遡り期間。
const defaultLookback = 7 * 24 * time.Hour

// Source はニュースプロバイダアダプタのインターフェース。
type Source interface {
	// Name はプロバイダの表示名を返す。記事のsourceフィールドと一致する。
	Name() string

	// Fetch はプロバイダAPIから生の記事レコードを取得する。
	// HTTPエラーやレスポンス形式エラーの場合はエラーを返す。
	Fetch(ctx context.Context, params FetchParams) ([]json.RawMessage, error)

	// Normalize は生レコードを共通スキーマに正規化する。
	// 必須フィールドの欠落等で取り込み対象外と判定したレコードにはnilを返す。
	Normalize(raw json.RawMessage) *model.NormalizedArticle
}

// urlHash はURLのMD5ハッシュ（16進小文字）を返す。
// ネイティブIDを持たないプロバイダのsource_id生成に使用する。
// 暗号用途ではなく識別子生成のみに用いる。
func urlHash(rawURL string) string {
	sum := md5.Sum([]byte(rawURL))
	return hex.EncodeToString(sum[:])
}

// parsePublishedAt は公開日時文字列をパースする。
// パースできない場合はゼロ値とfalseを返す。
func parsePublishedAt(value string) (time.Time, bool) {
	if value == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// categoryRule はタイトルキーワードによるカテゴリ推定の1ルール。
// ルールは定義順に評価され、最初に一致したカテゴリが採用される。
type categoryRule struct {
	category string
	keywords []string
}

// matchCategory はタイトル（小文字化済み）をルール表と照合する。
// どのルールにも一致しない場合はfallbackを返す。
func matchCategory(lowerTitle string, rules []categoryRule, fallback string) string {
	for _, rule := range rules {
		for _, keyword := range rule.keywords {
			if strings.Contains(lowerTitle, keyword) {
				return rule.category
			}
		}
	}
	return fallback
}
