package source

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/hitoshi/newshub/internal/model"
)

// guardianBaseURL はThe Guardian Content APIの検索エンドポイント。
const guardianBaseURL = "https://content.guardianapis.com/search"

// GuardianSource はThe Guardian Content APIのアダプタ。
type GuardianSource struct {
	client *Client
	apiKey string
}

// NewGuardianSource はGuardianSourceの新しいインスタンスを生成する。
func NewGuardianSource(client *Client, apiKey string) *GuardianSource {
	return &GuardianSource{client: client, apiKey: apiKey}
}

// Name はプロバイダの表示名を返す。
func (s *GuardianSource) Name() string {
	return "The Guardian"
}

// guardianResponse はGuardian APIのレスポンス形式。
// 記事配列は二重にネストされたresponse.resultsにある。
type guardianResponse struct {
	Response struct {
		Results []json.RawMessage `json:"results"`
	} `json:"response"`
}

// Fetch は直近7日分の記事を新着順で最大50件取得する。
// params.Sectionが指定されている場合はセクションで絞り込む。
func (s *GuardianSource) Fetch(ctx context.Context, params FetchParams) ([]json.RawMessage, error) {
	from := params.From
	if from.IsZero() {
		from = time.Now().Add(-defaultLookback)
	}

	values := url.Values{}
	values.Set("api-key", s.apiKey)
	values.Set("show-fields", "all")
	values.Set("page-size", "50")
	values.Set("order-by", "newest")
	values.Set("from-date", from.Format("2006-01-02"))
	if params.Section != "" {
		values.Set("section", params.Section)
	}

	var resp guardianResponse
	if err := s.client.GetJSON(ctx, guardianBaseURL+"?"+values.Encode(), &resp); err != nil {
		return nil, fmt.Errorf("The Guardianからの取得に失敗しました: %w", err)
	}

	return resp.Response.Results, nil
}

// guardianArticle はGuardian APIの記事レコード形式。
type guardianArticle struct {
	ID                 string `json:"id"`
	SectionName        string `json:"sectionName"`
	WebPublicationDate string `json:"webPublicationDate"`
	WebTitle           string `json:"webTitle"`
	WebURL             string `json:"webUrl"`
	Fields             struct {
		BodyText   string `json:"bodyText"`
		TrailText  string `json:"trailText"`
		Standfirst string `json:"standfirst"`
		Byline     string `json:"byline"`
		Thumbnail  string `json:"thumbnail"`
	} `json:"fields"`
}

// Normalize は生レコードを共通スキーマに正規化する。
// タイトルまたはURLが空のレコードにはnilを返す。
// source_idにはプロバイダのネイティブIDを優先し、なければURLハッシュを使用する。
func (s *GuardianSource) Normalize(raw json.RawMessage) *model.NormalizedArticle {
	var a guardianArticle
	if err := json.Unmarshal(raw, &a); err != nil {
		return nil
	}

	if a.WebTitle == "" || a.WebURL == "" {
		return nil
	}

	publishedAt, ok := parsePublishedAt(a.WebPublicationDate)
	if !ok {
		return nil
	}

	// 本文はフルテキスト > 抜粋 > 導入文の優先順
	content := a.Fields.BodyText
	if content == "" {
		content = a.Fields.TrailText
	}
	if content == "" {
		content = a.Fields.Standfirst
	}

	author := a.Fields.Byline
	if author == "" {
		author = "The Guardian"
	}

	nativeID := a.ID
	if nativeID == "" {
		nativeID = urlHash(a.WebURL)
	}

	section := a.SectionName
	if section == "" {
		section = "general"
	}

	return &model.NormalizedArticle{
		Title:       a.WebTitle,
		Content:     content,
		Author:      author,
		Source:      s.Name(),
		SourceID:    "guardian_" + nativeID,
		Category:    guardianCategory(section),
		PublishedAt: publishedAt,
		URL:         a.WebURL,
		ImageURL:    a.Fields.Thumbnail,
	}
}

// guardianCategoryMap はGuardianのセクション名を共通カテゴリに対応付ける。
var guardianCategoryMap = map[string]string{
	"Technology":  "technology",
	"Business":    "business",
	"Sport":       "sports",
	"Football":    "sports",
	"Culture":     "entertainment",
	"Film":        "entertainment",
	"Music":       "entertainment",
	"Science":     "science",
	"Environment": "science",
	"World news":  "world",
	"UK news":     "world",
}

// guardianCategory はセクション名を共通カテゴリに変換する。
// 対応表にないセクションは小文字化してそのまま使用する。
func guardianCategory(section string) string {
	if category, ok := guardianCategoryMap[section]; ok {
		return category
	}
	return strings.ToLower(section)
}

// compile-time interface check
var _ Source = (*GuardianSource)(nil)
