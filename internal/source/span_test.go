package source_test

import (
	"testing"

	"cinder/internal/source"
)

func TestSpanValid(t *testing.T) {
	if source.Invalid().Valid() {
		t.Error("Invalid() span must not be valid")
	}
	s := source.Span{File: 1, Start: 4, End: 9}
	if !s.Valid() {
		t.Error("span with a file must be valid")
	}
	if s.Len() != 5 {
		t.Errorf("expected len 5, got %d", s.Len())
	}
	if s.Empty() {
		t.Error("non-zero span reported empty")
	}
}

func TestSpanCover(t *testing.T) {
	a := source.Span{File: 1, Start: 10, End: 20}
	b := source.Span{File: 1, Start: 5, End: 15}
	c := a.Cover(b)
	if c.Start != 5 || c.End != 20 {
		t.Errorf("expected 5-20, got %d-%d", c.Start, c.End)
	}

	// Different files are not comparable.
	d := a.Cover(source.Span{File: 2, Start: 0, End: 100})
	if d != a {
		t.Errorf("cover across files should be a no-op, got %v", d)
	}
}

func TestSpanString(t *testing.T) {
	if got := source.Invalid().String(); got != "<invalid>" {
		t.Errorf("expected <invalid>, got %q", got)
	}
	if got := (source.Span{File: 3, Start: 1, End: 2}).String(); got != "3:1-2" {
		t.Errorf("unexpected span string %q", got)
	}
}
