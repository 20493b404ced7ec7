package service

import (
	"strings"
	"testing"
)

func TestSlugify(t *testing.T) {
	cases := []struct {
		title string
		want  string
	}{
		{"Hello World", "hello-world"},
		{"  Spaces  Around  ", "spaces-around"},
		{"Go 并发模式", "go-并发模式"},
		{"C++ & Rust!", "c-rust"},
		{"--dashes--", "dashes"},
	}
	for _, c := range cases {
		if got := slugify(c.title); got != c.want {
			t.Fatalf("slugify(%q) = %q, want %q", c.title, got, c.want)
		}
	}
}

func TestSlugifyEmptyFallsBackToRandom(t *testing.T) {
	got := slugify("!!!")
	if got == "" {
		t.Fatalf("expected random fallback, got empty")
	}
	if len(got) != 8 {
		t.Fatalf("expected 8-char short id, got %q", got)
	}
}

func TestUniqueSuffix(t *testing.T) {
	got := uniqueSuffix("hello")
	if !strings.HasPrefix(got, "hello-") {
		t.Fatalf("expected prefixed slug, got %q", got)
	}
	if len(got) != len("hello-")+8 {
		t.Fatalf("unexpected suffix length: %q", got)
	}
}

func TestDeriveSummary(t *testing.T) {
	got := deriveSummary("<p>你好，<b>世界</b></p>")
	if got != "你好， 世界" {
		t.Fatalf("unexpected summary: %q", got)
	}

	long := strings.Repeat("字", 200)
	got = deriveSummary(long)
	if len([]rune(got)) != 153 {
		t.Fatalf("expected 150 runes + ellipsis, got %d", len([]rune(got)))
	}
	if !strings.HasSuffix(got, "...") {
		t.Fatalf("expected ellipsis suffix, got %q", got)
	}
}
