// Package model はドメインモデルを定義する。
package model

import "time"

// Article は集約済みの記事を表す。
// Aggregation Pipelineのみが作成・更新し、API層からは読み取り専用。
type Article struct {
	ID          int64
	Title       string
	Content     string
	Author      string
	Source      string
	SourceID    string // {プロバイダプレフィックス}_{ネイティブID または URLハッシュ}
	Category    string
	PublishedAt time.Time
	URL         string
	ImageURL    string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// NormalizedArticle はソースアダプタが正規化した未保存の記事データを表す。
// パイプラインがUPSERT時にArticleへ変換する。
type NormalizedArticle struct {
	Title       string
	Content     string
	Author      string
	Source      string
	SourceID    string
	Category    string
	PublishedAt time.Time
	URL         string
	ImageURL    string
}

// SortField は記事一覧のソート対象フィールドを表す。
type SortField string

const (
	// SortByPublishedAt は公開日時ソート（デフォルト）。
	SortByPublishedAt SortField = "published_at"
	// SortByTitle はタイトルソート。
	SortByTitle SortField = "title"
	// SortBySource はソース名ソート。
	SortBySource SortField = "source"
	// SortByCreatedAt は取り込み日時ソート。
	SortByCreatedAt SortField = "created_at"
)

// IsValidSortField はソートフィールドが許可リストに含まれるかを返す。
// 許可リスト外の値はpublished_at降順にフォールバックする。
func IsValidSortField(field string) bool {
	switch SortField(field) {
	case SortByPublishedAt, SortByTitle, SortBySource, SortByCreatedAt:
		return true
	}
	return false
}

// ListCriteria は記事一覧の検索・フィルタ・ソート・ページネーション条件を表す。
// 空文字・空スライスのフィールドは「フィルタなし」を意味する。
type ListCriteria struct {
	Search     string     // タイトルまたは本文に対する部分一致（大文字小文字を区別しない）
	DateFrom   *time.Time // published_at >= DateFrom
	Category   string
	Source     string
	Author     string
	Sources    []string // フィールド内OR、フィールド間AND
	Categories []string
	Authors    []string
	SortBy     string
	SortOrder  string // "asc" または "desc"（デフォルト: desc）
	Page       int
	PerPage    int
}

// FilterOptions は記事一覧で選択可能なフィルタ値の集合を表す。
type FilterOptions struct {
	Sources    []string `json:"sources"`
	Categories []string `json:"categories"`
	Authors    []string `json:"authors"`
}
