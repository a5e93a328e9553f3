// Package aggregator はニュースプロバイダからの記事集約パイプラインを提供する。
package aggregator

// SourceStats は1ソース分の集約結果を表す。
type SourceStats struct {
	Name     string `json:"name"`
	Articles int    `json:"articles"`
	New      int    `json:"new"`
	Updated  int    `json:"updated"`
	Skipped  int    `json:"skipped"`
	// Err はソース単位の失敗理由。成功時は空文字列。
	Err string `json:"error,omitempty"`
}

// Stats は全ソース集約の実行結果を表す。
type Stats struct {
	// Total は保存（新規または更新）された記事の合計数。
	Total int `json:"total"`
	// New は新規挿入された記事数。
	New int `json:"new"`
	// Updated は既存記事が更新された数。
	Updated int `json:"updated"`
	// FailedSources はフェッチに失敗したソース数。
	FailedSources int `json:"failed"`
	// Skipped は検証失敗または保存失敗でスキップされた記事数。
	// 各ソースのSkippedの合計と常に一致する。
	Skipped int `json:"skipped"`
	// Sources はソース別の内訳。ソースの登録順に並ぶ。
	Sources []SourceStats `json:"sources"`
}

// SourceRunStats は単一ソース集約（管理用操作）の実行結果を表す。
type SourceRunStats struct {
	Source  string `json:"source"`
	Fetched int    `json:"fetched"`
	Saved   int    `json:"saved"`
}
