package article

import (
	"errors"
	"testing"
)

func TestDedupe_KeepsFirstOccurrence(t *testing.T) {
	links := []Link{
		NewLink("a", "https://a.example/1", SourceWeb),
		NewLink("b", "https://b.example/1", SourceWeb),
		NewLink("a again", "https://a.example/1", SourceFeed),
		NewLink("empty", "", SourceWeb),
	}

	got := Dedupe(links)

	if len(got) != 2 {
		t.Fatalf("expected 2 links, got %d", len(got))
	}
	if got[0].Text() != "a" || got[0].Source() != SourceWeb {
		t.Errorf("expected first occurrence to win, got %q from %q", got[0].Text(), got[0].Source())
	}
	if got[1].URL() != "https://b.example/1" {
		t.Errorf("unexpected second link %q", got[1].URL())
	}
}

func TestWithout(t *testing.T) {
	links := []Link{
		NewLink("", "https://a.example", SourceWeb),
		NewLink("", "https://b.example", SourceWeb),
	}
	got := Without(links, "https://a.example")
	if len(got) != 1 || got[0].URL() != "https://b.example" {
		t.Fatalf("unexpected links: %v", got)
	}
}

func TestLink_Host(t *testing.T) {
	l := NewLink("  Some   title \n", "https://News.Example.com/path?q=1", SourceWeb)
	if l.Host() != "news.example.com" {
		t.Errorf("expected lowercased host, got %q", l.Host())
	}
	if l.Text() != "Some title" {
		t.Errorf("expected collapsed text, got %q", l.Text())
	}
}

func TestQuery_IsURL(t *testing.T) {
	tests := []struct {
		raw  string
		want bool
	}{
		{"https://example.com/story", true},
		{"  http://example.com  ", true},
		{"example.com", false},
		{"the sky is blue", false},
		{"ftp://example.com/file", false},
		{"https://example.com/a b", false},
	}
	for _, tt := range tests {
		if got := NewQuery(tt.raw).IsURL(); got != tt.want {
			t.Errorf("IsURL(%q) = %v, want %v", tt.raw, got, tt.want)
		}
	}
}

func TestResult_SuccessAndFailure(t *testing.T) {
	ok := Succeeded("  body text  ", NewMetadata(WithTitle("t")))
	if !ok.OK() || !ok.HasContent() || ok.Body() != "body text" {
		t.Fatalf("unexpected success result: ok=%v body=%q", ok.OK(), ok.Body())
	}
	if ok.Reason() != "" {
		t.Errorf("expected empty reason, got %q", ok.Reason())
	}

	empty := Succeeded("", Metadata{})
	if !empty.OK() || empty.HasContent() {
		t.Errorf("empty body should be OK without content")
	}

	reason := errors.New("timeout")
	failed := Failed(reason)
	if failed.OK() || failed.HasContent() {
		t.Errorf("failed result reported success")
	}
	if !errors.Is(failed.Err(), reason) || failed.Reason() != "timeout" {
		t.Errorf("unexpected failure reason %q", failed.Reason())
	}

	if !errors.Is(Failed(nil).Err(), ErrNoContent) {
		t.Errorf("nil reason should default to ErrNoContent")
	}
}

func TestMetadata_Headline(t *testing.T) {
	m := NewMetadata(WithTitle("Page title"), WithHeadings([]string{"", "Main story"}))
	if m.Headline() != "Main story" {
		t.Errorf("expected first non-empty h1, got %q", m.Headline())
	}
	if NewMetadata(WithTitle("Only title")).Headline() != "Only title" {
		t.Errorf("expected title fallback")
	}

	h := []string{"x"}
	m = NewMetadata(WithAuthors(h))
	h[0] = "changed"
	if m.Authors()[0] != "x" {
		t.Errorf("metadata should not share the caller's slice")
	}
}
