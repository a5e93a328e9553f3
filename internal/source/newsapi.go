package source

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/hitoshi/newshub/internal/model"
)

// newsAPIBaseURL はNewsAPIの検索エンドポイント。
const newsAPIBaseURL = "https://newsapi.org/v2/everything"

// newsAPIDefaultQuery はクエリ未指定時のデフォルト検索語。
const newsAPIDefaultQuery = "technology OR business OR sports"

// NewsAPISource はNewsAPI (newsapi.org) のアダプタ。
type NewsAPISource struct {
	client *Client
	apiKey string
}

// NewNewsAPISource はNewsAPISourceの新しいインスタンスを生成する。
func NewNewsAPISource(client *Client, apiKey string) *NewsAPISource {
	return &NewsAPISource{client: client, apiKey: apiKey}
}

// Name はプロバイダの表示名を返す。
func (s *NewsAPISource) Name() string {
	return "NewsAPI"
}

// newsAPIResponse はNewsAPIのレスポンス形式。
type newsAPIResponse struct {
	Status   string            `json:"status"`
	Articles []json.RawMessage `json:"articles"`
}

// Fetch は直近7日分の記事を公開日時降順で最大100件取得する。
func (s *NewsAPISource) Fetch(ctx context.Context, params FetchParams) ([]json.RawMessage, error) {
	query := params.Query
	if query == "" {
		query = newsAPIDefaultQuery
	}
	from := params.From
	if from.IsZero() {
		from = time.Now().Add(-defaultLookback)
	}

	values := url.Values{}
	values.Set("apiKey", s.apiKey)
	values.Set("language", "en")
	values.Set("sortBy", "publishedAt")
	values.Set("pageSize", "100")
	values.Set("q", query)
	values.Set("from", from.Format(time.RFC3339))

	var resp newsAPIResponse
	if err := s.client.GetJSON(ctx, newsAPIBaseURL+"?"+values.Encode(), &resp); err != nil {
		return nil, fmt.Errorf("NewsAPIからの取得に失敗しました: %w", err)
	}

	return resp.Articles, nil
}

// newsAPIArticle はNewsAPIの記事レコード形式。
type newsAPIArticle struct {
	Source struct {
		Name string `json:"name"`
	} `json:"source"`
	Author      string `json:"author"`
	Title       string `json:"title"`
	Description string `json:"description"`
	URL         string `json:"url"`
	URLToImage  string `json:"urlToImage"`
	PublishedAt string `json:"publishedAt"`
	Content     string `json:"content"`
}

// Normalize は生レコードを共通スキーマに正規化する。
// タイトルまたはURLが空のレコード、および削除済みプレースホルダ
// （タイトルに "[Removed]" を含む）のレコードにはnilを返す。
func (s *NewsAPISource) Normalize(raw json.RawMessage) *model.NormalizedArticle {
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
		author = "Unknown"
	}

	return &model.NormalizedArticle{
		Title:       cleanText(a.Title),
		Content:     cleanText(content),
		Author:      cleanText(author),
		Source:      s.Name(),
		SourceID:    "newsapi_" + urlHash(a.URL),
		Category:    newsAPICategory(a.Title),
		PublishedAt: publishedAt,
		URL:         a.URL,
		ImageURL:    a.URLToImage,
	}
}

// NewsAPIのタイトル・本文に付く末尾の装飾を除去するためのパターン。
var (
	// "... - 1234 chars" 形式の文字数表記
	charCountSuffixPattern = regexp.MustCompile(`(?i)\s*-\s*\d+\s*chars?$`)
	// "... - CNN" 形式の媒体名表記
	outletSuffixPattern = regexp.MustCompile(`(?i)\s*-\s*[A-Z\s]+$`)
)

// cleanText はNewsAPI系レコードの末尾装飾を除去して前後の空白を取り除く。
func cleanText(text string) string {
	if text == "" {
		return ""
	}
	text = charCountSuffixPattern.ReplaceAllString(text, "")
	text = outletSuffixPattern.ReplaceAllString(text, "")
	return strings.TrimSpace(text)
}

// newsAPICategoryRules はタイトルキーワードによるカテゴリ推定のルール表。
var newsAPICategoryRules = []categoryRule{
	{"technology", []string{"tech", "ai", "software", "computer", "digital"}},
	{"business", []string{"business", "economy", "finance", "market", "stock"}},
	{"sports", []string{"sport", "football", "basketball", "soccer", "nfl"}},
	{"entertainment", []string{"entertainment", "movie", "music", "celebrity", "hollywood"}},
	{"health", []string{"health", "medical", "medicine", "disease", "covid"}},
	{"science", []string{"science", "research", "study", "space", "nasa"}},
}

// newsAPICategory はタイトルからカテゴリを推定する。
func newsAPICategory(title string) string {
	return matchCategory(strings.ToLower(title), newsAPICategoryRules, "general")
}

// compile-time interface check
var _ Source = (*NewsAPISource)(nil)
