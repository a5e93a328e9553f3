package source

import (
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"testing"
	"time"
)

func TestNewsAPISource_Normalize_ValidRecord(t *testing.T) {
	src := NewNewsAPISource(nil, "test-key")

	raw := json.RawMessage(`{
		"source": {"name": "TechCrunch"},
		"author": "Jane Doe",
		"title": "AI startup raises funding",
		"description": "A short description",
		"url": "https://example.com/article",
		"urlToImage": "https://example.com/image.jpg",
		"publishedAt": "2026-08-20T10:30:00Z",
		"content": "Full content body"
	}`)

	got := src.Normalize(raw)
	if got == nil {
		t.Fatal("Normalize() = nil, 有効なレコードが正規化されるべき")
	}

	if got.Title != "AI startup raises funding" {
		t.Errorf("Title = %q", got.Title)
	}
	if got.Content != "Full content body" {
		t.Errorf("Content = %q", got.Content)
	}
	if got.Author != "Jane Doe" {
		t.Errorf("Author = %q", got.Author)
	}
	if got.Source != "NewsAPI" {
		t.Errorf("Source = %q", got.Source)
	}

	sum := md5.Sum([]byte("https://example.com/article"))
	wantID := "newsapi_" + hex.EncodeToString(sum[:])
	if got.SourceID != wantID {
		t.Errorf("SourceID = %q, want %q", got.SourceID, wantID)
	}

	wantTime := time.Date(2026, 8, 20, 10, 30, 0, 0, time.UTC)
	if !got.PublishedAt.Equal(wantTime) {
		t.Errorf("PublishedAt = %v, want %v", got.PublishedAt, wantTime)
	}
	if got.ImageURL != "https://example.com/image.jpg" {
		t.Errorf("ImageURL = %q", got.ImageURL)
	}
	// タイトルに "ai" を含むためtechnologyに分類される
	if got.Category != "technology" {
		t.Errorf("Category = %q, want technology", got.Category)
	}
}

func TestNewsAPISource_Normalize_MissingTitleOrURL_ReturnsNil(t *testing.T) {
	src := NewNewsAPISource(nil, "test-key")

	cases := []struct {
		name string
		raw  string
	}{
		{"タイトルなし", `{"url": "https://example.com/a", "publishedAt": "2026-08-20T10:30:00Z"}`},
		{"URLなし", `{"title": "Some title", "publishedAt": "2026-08-20T10:30:00Z"}`},
		{"両方なし", `{"publishedAt": "2026-08-20T10:30:00Z"}`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := src.Normalize(json.RawMessage(tc.raw)); got != nil {
				t.Errorf("Normalize() = %+v, want nil", got)
			}
		})
	}
}

func TestNewsAPISource_Normalize_RemovedMarker_ReturnsNil(t *testing.T) {
	src := NewNewsAPISource(nil, "test-key")

	raw := json.RawMessage(`{
		"title": "[Removed]",
		"url": "https://example.com/removed",
		"publishedAt": "2026-08-20T10:30:00Z"
	}`)

	if got := src.Normalize(raw); got != nil {
		t.Errorf("Normalize() = %+v, 削除済みプレースホルダはnilになるべき", got)
	}
}

func TestNewsAPISource_Normalize_ContentFallsBackToDescription(t *testing.T) {
	src := NewNewsAPISource(nil, "test-key")

	raw := json.RawMessage(`{
		"title": "Economy update",
		"description": "Description text",
		"url": "https://example.com/b",
		"publishedAt": "2026-08-20T10:30:00Z"
	}`)

	got := src.Normalize(raw)
	if got == nil {
		t.Fatal("Normalize() = nil")
	}
	if got.Content != "Description text" {
		t.Errorf("Content = %q, want %q", got.Content, "Description text")
	}
}

func TestNewsAPISource_Normalize_EmptyAuthor_DefaultsToUnknown(t *testing.T) {
	src := NewNewsAPISource(nil, "test-key")

	raw := json.RawMessage(`{
		"title": "Quarterly report",
		"url": "https://example.com/c",
		"publishedAt": "2026-08-20T10:30:00Z"
	}`)

	got := src.Normalize(raw)
	if got == nil {
		t.Fatal("Normalize() = nil")
	}
	if got.Author != "Unknown" {
		t.Errorf("Author = %q, want Unknown", got.Author)
	}
}

func TestNewsAPISource_Normalize_InvalidPublishedAt_ReturnsNil(t *testing.T) {
	src := NewNewsAPISource(nil, "test-key")

	raw := json.RawMessage(`{
		"title": "Broken date",
		"url": "https://example.com/d",
		"publishedAt": "not-a-date"
	}`)

	if got := src.Normalize(raw); got != nil {
		t.Errorf("Normalize() = %+v, want nil", got)
	}
}

func TestCleanText_RemovesSuffixes(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"文字数表記の除去", "Article body text - 1234 chars", "Article body text"},
		{"媒体名表記の除去", "Breaking news today - CNN", "Breaking news today"},
		{"装飾なしはそのまま", "Plain title without suffix", "Plain title without suffix"},
		{"空文字列", "", ""},
		{"前後の空白除去", "  padded  ", "padded"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := cleanText(tc.in); got != tc.want {
				t.Errorf("cleanText(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestNewsAPICategory_KeywordTable(t *testing.T) {
	cases := []struct {
		title string
		want  string
	}{
		{"New software released", "technology"},
		{"Stock market hits record", "business"},
		{"NFL season preview", "sports"},
		{"Hollywood celebrity interview", "entertainment"},
		{"Covid cases rising", "health"},
		{"NASA launches new probe", "science"},
		{"Local weather forecast", "general"},
	}

	for _, tc := range cases {
		if got := newsAPICategory(tc.title); got != tc.want {
			t.Errorf("newsAPICategory(%q) = %q, want %q", tc.title, got, tc.want)
		}
	}
}

func TestNewsAPICategory_RuleOrderIsStable(t *testing.T) {
	// "tech" と "market" の両方に一致する場合、先に定義されたtechnologyが優先される
	if got := newsAPICategory("Tech market analysis"); got != "technology" {
		t.Errorf("newsAPICategory() = %q, want technology", got)
	}
}
