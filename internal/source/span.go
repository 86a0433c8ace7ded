package source

import "fmt"

// FileID identifies a source file in the host frontend's file table.
// The zero value is reserved: spans with File == NoFileID are invalid and
// mark compiler-synthesized code rather than user-authored code.
type FileID uint32

// NoFileID is the reserved invalid file identifier.
const NoFileID FileID = 0

// Span is a half-open byte range [Start, End) inside a source file.
type Span struct {
	File  FileID
	Start uint32
	End   uint32
}

// Invalid returns a span that refers to no source location. Downstream
// diagnostics use it to tell synthesized code apart from user code.
func Invalid() Span {
	return Span{}
}

// Valid reports whether the span points at a real source location.
func (s Span) Valid() bool {
	return s.File != NoFileID
}

// Empty reports whether the span covers zero bytes.
func (s Span) Empty() bool {
	return s.Start == s.End
}

// Len returns the number of bytes covered by the span.
func (s Span) Len() uint32 {
	return s.End - s.Start
}

func (s Span) String() string {
	if !s.Valid() {
		return "<invalid>"
	}
	return fmt.Sprintf("%d:%d-%d", s.File, s.Start, s.End)
}

// Cover extends the span to include other. Spans from different files are
// not comparable; the receiver is returned unchanged in that case.
func (s Span) Cover(other Span) Span {
	if s.File != other.File {
		return s
	}
	if other.Start < s.Start {
		s.Start = other.Start
	}
	if other.End > s.End {
		s.End = other.End
	}
	return s
}
