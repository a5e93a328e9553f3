package security

import "testing"

func TestTextSanitizer_Sanitize_StripsHTMLTags(t *testing.T) {
	sanitizer := NewTextSanitizer()

	cases := []struct {
		name string
		in   string
		want string
	}{
		{"タグの除去", "<p>Breaking <b>news</b> today</p>", "Breaking news today"},
		{"スクリプトの除去", `<script>alert("x")</script>Safe text`, "Safe text"},
		{"リンクはテキストのみ残す", `Read <a href="https://example.com">more</a> here`, "Read more here"},
		{"タグなしはそのまま", "Plain text article", "Plain text article"},
		{"空文字列", "", ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := sanitizer.Sanitize(tc.in); got != tc.want {
				t.Errorf("Sanitize(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestTextSanitizer_Sanitize_DecodesEntities(t *testing.T) {
	sanitizer := NewTextSanitizer()

	if got := sanitizer.Sanitize("Fish &amp; Chips"); got != "Fish & Chips" {
		t.Errorf("Sanitize() = %q, want %q", got, "Fish & Chips")
	}
	if got := sanitizer.Sanitize("It&#39;s official"); got != "It's official" {
		t.Errorf("Sanitize() = %q, want %q", got, "It's official")
	}
}

func TestTextSanitizer_Sanitize_CollapsesWhitespace(t *testing.T) {
	sanitizer := NewTextSanitizer()

	if got := sanitizer.Sanitize("  too   many\n\tspaces  "); got != "too many spaces" {
		t.Errorf("Sanitize() = %q, want %q", got, "too many spaces")
	}
}

func TestTextSanitizer_Sanitize_Idempotent(t *testing.T) {
	sanitizer := NewTextSanitizer()

	once := sanitizer.Sanitize("<div>Some   <em>rich</em> text &amp; more</div>")
	twice := sanitizer.Sanitize(once)
	if once != twice {
		t.Errorf("1回目 = %q, 2回目 = %q, 冪等であるべき", once, twice)
	}
}
