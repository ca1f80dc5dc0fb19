package syntax

import "sort"

// ByteOffset is a byte position in source text.
type ByteOffset uint32

// Span represents a range in source text.
type Span struct {
	Start ByteOffset // inclusive
	End   ByteOffset // exclusive
}

// NewSpan creates a new span.
func NewSpan(start, end ByteOffset) Span {
	return Span{Start: start, End: end}
}

// Len returns the length of the span in bytes.
func (s Span) Len() ByteOffset {
	return s.End - s.Start
}

// IsEmpty returns true if the span is empty.
func (s Span) IsEmpty() bool {
	return s.Start == s.End
}

// Cover returns the smallest span containing both s and other.
func (s Span) Cover(other Span) Span {
	return Span{Start: min(s.Start, other.Start), End: max(s.End, other.End)}
}

// Text returns the slice of src covered by the span.
func (s Span) Text(src string) string {
	if int(s.End) > len(src) || s.Start > s.End {
		return ""
	}
	return src[s.Start:s.End]
}

// LineTable maps byte offsets to 1-based line and column numbers.
// Entry i holds the byte offset where line i+1 begins.
type LineTable []int

// BuildLineTable scans src once and records the start of every line.
func BuildLineTable(src string) LineTable {
	lt := LineTable{0}
	for i := 0; i < len(src); i++ {
		if src[i] == '\n' {
			lt = append(lt, i+1)
		}
	}
	return lt
}

// Position returns the 1-based line and column of offset.
func (lt LineTable) Position(offset ByteOffset) (line, col int) {
	if len(lt) == 0 {
		return 1, int(offset) + 1
	}
	i := sort.Search(len(lt), func(i int) bool { return lt[i] > int(offset) }) - 1
	if i < 0 {
		i = 0
	}
	return i + 1, int(offset) - lt[i] + 1
}
