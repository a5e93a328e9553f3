package source

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/hitoshi/newshub/internal/model"
)

// bbcBaseURL はBBC記事の取得に使用するエンドポイント。
// BBCは公開APIを提供していないため、NewsAPIのトップヘッドライン経由で取得する。
const bbcBaseURL = "https://newsapi.org/v2/top-headlines"

// BBCSource はBBC News記事のアダプタ。
type BBCSource struct {
	client *Client
	apiKey string
}

// NewBBCSource はBBCSourceの新しいインスタンスを生成する。
// apiKeyにはNewsAPIのキーを渡す。
func NewBBCSource(client *Client, apiKey string) *BBCSource {
	return &BBCSource{client: client, apiKey: apiKey}
}

// Name はプロバイダの表示名を返す。
func (s *BBCSource) Name() string {
	return "BBC News"
}

// Fetch はBBC Newsのトップヘッドラインを最大50件取得する。
// このエンドポイントは期間・クエリ指定に対応しないため、paramsは使用しない。
func (s *BBCSource) Fetch(ctx context.Context, params FetchParams) ([]json.RawMessage, error) {
	values := url.Values{}
	values.Set("apiKey", s.apiKey)
	values.Set("sources", "bbc-news")
	values.Set("pageSize", "50")

	var resp newsAPIResponse
	if err := s.client.GetJSON(ctx, bbcBaseURL+"?"+values.Encode(), &resp); err != nil {
		return nil, fmt.Errorf("BBC Newsからの取得に失敗しました: %w", err)
	}

	return resp.Articles, nil
}

// Normalize は生レコードを共通スキーマに正規化する。
// タイトルまたはURLが空のレコード、および削除済みプレースホルダのレコードにはnilを返す。
func (s *BBCSource) Normalize(raw json.RawMessage) *model.NormalizedArticle {
	var a newsAPIArticle
	if err := json.Unmarshal(raw, &a); err != nil {
		return nil
	}

	if a.Title == "" || a.URL == "" {
		return nil
	}
	if strings.Contains(a.Title, "[Removed]") {
		return nil
	}

	publishedAt, ok := parsePublishedAt(a.PublishedAt)
	if !ok {
		return nil
	}

	content := a.Content
	if content == "" {
		content = a.Description
	}

	author := a.Author
	if author == "" {
		author = "BBC News"
	}

	return &model.NormalizedArticle{
		Title:       a.Title,
		Content:     content,
		Author:      author,
		Source:      s.Name(),
		SourceID:    "bbc_" + urlHash(a.URL),
		Category:    bbcCategory(a.Title),
		PublishedAt: publishedAt,
		URL:         a.URL,
		ImageURL:    a.URLToImage,
	}
}

// bbcCategoryRules はタイトルキーワードによるカテゴリ推定のルール表。
// 英国メディア向けのキーワード（cricket, nhs等）を含む。
var bbcCategoryRules = []categoryRule{
	{"technology", []string{"tech", "ai", "cyber", "digital", "internet"}},
	{"business", []string{"business", "economy", "market", "trade", "finance"}},
	{"sports", []string{"sport", "football", "cricket", "tennis", "rugby"}},
	{"entertainment", []string{"film", "tv", "music", "celebrity", "arts"}},
	{"science", []string{"science", "space", "climate", "research"}},
	{"health", []string{"health", "nhs", "medical", "hospital"}},
}

// bbcCategory はタイトルからカテゴリを推定する。
func bbcCategory(title string) string {
	return matchCategory(strings.ToLower(title), bbcCategoryRules, "general")
}

// compile-time interface check
var _ Source = (*BBCSource)(nil)
