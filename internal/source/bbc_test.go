package source

import (
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"testing"
)

func TestBBCSource_Normalize_ValidRecord(t *testing.T) {
	src := NewBBCSource(nil, "test-key")

	raw := json.RawMessage(`{
		"author": "BBC Sport",
		"title": "Cricket world cup final preview",
		"description": "Preview of the final",
		"url": "https://www.bbc.co.uk/news/sport-12345",
		"urlToImage": "https://ichef.bbci.co.uk/image.jpg",
		"publishedAt": "2026-08-21T07:00:00Z",
		"content": "Match preview content"
	}`)

	got := src.Normalize(raw)
	if got == nil {
		t.Fatal("Normalize() = nil, 有効なレコードが正規化されるべき")
	}

	if got.Source != "BBC News" {
		t.Errorf("Source = %q", got.Source)
	}

	sum := md5.Sum([]byte("https://www.bbc.co.uk/news/sport-12345"))
	wantID := "bbc_" + hex.EncodeToString(sum[:])
	if got.SourceID != wantID {
		t.Errorf("SourceID = %q, want %q", got.SourceID, wantID)
	}

	// "cricket" を含むためsportsに分類される
	if got.Category != "sports" {
		t.Errorf("Category = %q, want sports", got.Category)
	}
	if got.Content != "Match preview content" {
		t.Errorf("Content = %q", got.Content)
	}
}

func TestBBCSource_Normalize_RemovedMarker_ReturnsNil(t *testing.T) {
	src := NewBBCSource(nil, "test-key")

	raw := json.RawMessage(`{
		"title": "[Removed]",
		"url": "https://example.com/removed",
		"publishedAt": "2026-08-21T07:00:00Z"
	}`)

	if got := src.Normalize(raw); got != nil {
		t.Errorf("Normalize() = %+v, want nil", got)
	}
}

func TestBBCSource_Normalize_EmptyAuthor_DefaultsToBBCNews(t *testing.T) {
	src := NewBBCSource(nil, "test-key")

	raw := json.RawMessage(`{
		"title": "Headline without author",
		"url": "https://www.bbc.co.uk/news/uk-9999",
		"publishedAt": "2026-08-21T07:00:00Z"
	}`)

	got := src.Normalize(raw)
	if got == nil {
		t.Fatal("Normalize() = nil")
	}
	if got.Author != "BBC News" {
		t.Errorf("Author = %q, want BBC News", got.Author)
	}
}

func TestBBCCategory_KeywordTable(t *testing.T) {
	cases := []struct {
		title string
		want  string
	}{
		{"Cyber attack hits banks", "technology"},
		{"Trade talks resume", "business"},
		{"Rugby six nations recap", "sports"},
		{"New film premieres in London", "entertainment"},
		{"Climate report published", "science"},
		{"NHS doctors strike over pay", "health"},
		{"Royal visit announced", "general"},
	}

	for _, tc := range cases {
		if got := bbcCategory(tc.title); got != tc.want {
			t.Errorf("bbcCategory(%q) = %q, want %q", tc.title, got, tc.want)
		}
	}
}
