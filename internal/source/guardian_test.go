package source

import (
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"testing"
)

func TestGuardianSource_Normalize_ValidRecord(t *testing.T) {
	src := NewGuardianSource(nil, "test-key")

	raw := json.RawMessage(`{
		"id": "technology/2026/aug/20/some-article",
		"sectionName": "Technology",
		"webPublicationDate": "2026-08-20T09:00:00Z",
		"webTitle": "Chip makers announce new fabs",
		"webUrl": "https://www.theguardian.com/technology/2026/aug/20/some-article",
		"fields": {
			"bodyText": "Full body text",
			"trailText": "Trail text",
			"byline": "John Smith",
			"thumbnail": "https://media.guim.co.uk/thumb.jpg"
		}
	}`)

	got := src.Normalize(raw)
	if got == nil {
		t.Fatal("Normalize() = nil, 有効なレコードが正規化されるべき")
	}

	if got.Title != "Chip makers announce new fabs" {
		t.Errorf("Title = %q", got.Title)
	}
	if got.Content != "Full body text" {
		t.Errorf("Content = %q, bodyTextが優先されるべき", got.Content)
	}
	if got.Author != "John Smith" {
		t.Errorf("Author = %q", got.Author)
	}
	if got.Source != "The Guardian" {
		t.Errorf("Source = %q", got.Source)
	}
	if got.SourceID != "guardian_technology/2026/aug/20/some-article" {
		t.Errorf("SourceID = %q, ネイティブIDが使用されるべき", got.SourceID)
	}
	if got.Category != "technology" {
		t.Errorf("Category = %q", got.Category)
	}
	if got.ImageURL != "https://media.guim.co.uk/thumb.jpg" {
		t.Errorf("ImageURL = %q", got.ImageURL)
	}
}

func TestGuardianSource_Normalize_MissingTitleOrURL_ReturnsNil(t *testing.T) {
	src := NewGuardianSource(nil, "test-key")

	cases := []struct {
		name string
		raw  string
	}{
		{"タイトルなし", `{"webUrl": "https://example.com/a", "webPublicationDate": "2026-08-20T09:00:00Z"}`},
		{"URLなし", `{"webTitle": "Some title", "webPublicationDate": "2026-08-20T09:00:00Z"}`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := src.Normalize(json.RawMessage(tc.raw)); got != nil {
				t.Errorf("Normalize() = %+v, want nil", got)
			}
		})
	}
}

func TestGuardianSource_Normalize_ContentPriority(t *testing.T) {
	src := NewGuardianSource(nil, "test-key")

	// bodyTextがない場合はtrailText、それもなければstandfirst
	raw := json.RawMessage(`{
		"webTitle": "Title",
		"webUrl": "https://example.com/b",
		"webPublicationDate": "2026-08-20T09:00:00Z",
		"fields": {"trailText": "Trail", "standfirst": "Standfirst"}
	}`)

	got := src.Normalize(raw)
	if got == nil {
		t.Fatal("Normalize() = nil")
	}
	if got.Content != "Trail" {
		t.Errorf("Content = %q, want Trail", got.Content)
	}

	raw = json.RawMessage(`{
		"webTitle": "Title",
		"webUrl": "https://example.com/c",
		"webPublicationDate": "2026-08-20T09:00:00Z",
		"fields": {"standfirst": "Standfirst"}
	}`)

	got = src.Normalize(raw)
	if got == nil {
		t.Fatal("Normalize() = nil")
	}
	if got.Content != "Standfirst" {
		t.Errorf("Content = %q, want Standfirst", got.Content)
	}
}

func TestGuardianSource_Normalize_MissingByline_DefaultsToGuardian(t *testing.T) {
	src := NewGuardianSource(nil, "test-key")

	raw := json.RawMessage(`{
		"webTitle": "Title",
		"webUrl": "https://example.com/d",
		"webPublicationDate": "2026-08-20T09:00:00Z"
	}`)

	got := src.Normalize(raw)
	if got == nil {
		t.Fatal("Normalize() = nil")
	}
	if got.Author != "The Guardian" {
		t.Errorf("Author = %q, want The Guardian", got.Author)
	}
}

func TestGuardianSource_Normalize_MissingID_UsesURLHash(t *testing.T) {
	src := NewGuardianSource(nil, "test-key")

	raw := json.RawMessage(`{
		"webTitle": "Title",
		"webUrl": "https://example.com/e",
		"webPublicationDate": "2026-08-20T09:00:00Z"
	}`)

	got := src.Normalize(raw)
	if got == nil {
		t.Fatal("Normalize() = nil")
	}

	sum := md5.Sum([]byte("https://example.com/e"))
	wantID := "guardian_" + hex.EncodeToString(sum[:])
	if got.SourceID != wantID {
		t.Errorf("SourceID = %q, want %q", got.SourceID, wantID)
	}
}

func TestGuardianCategory_SectionMapping(t *testing.T) {
	cases := []struct {
		section string
		want    string
	}{
		{"Technology", "technology"},
		{"Business", "business"},
		{"Sport", "sports"},
		{"Football", "sports"},
		{"Culture", "entertainment"},
		{"Film", "entertainment"},
		{"Music", "entertainment"},
		{"Science", "science"},
		{"Environment", "science"},
		{"World news", "world"},
		{"UK news", "world"},
		// 対応表にないセクションは小文字化
		{"Politics", "politics"},
	}

	for _, tc := range cases {
		if got := guardianCategory(tc.section); got != tc.want {
			t.Errorf("guardianCategory(%q) = %q, want %q", tc.section, got, tc.want)
		}
	}
}
