package source

// Location is a position in analyzer-native coordinates: 1-based line and
// 1-based column, columns counted in Unicode scalar values. The zero value
// means "no position".
type Location struct {
	Line   int
	Column int
}

// IsZero reports whether the location carries no position.
func (l Location) IsZero() bool {
	return l.Line == 0
}

// Span is a half-open [Start, End) range in native coordinates. A zero
// Start means the producing error carried no range.
type Span struct {
	Start Location
	End   Location
}

// IsZero reports whether the span carries no range.
func (s Span) IsZero() bool {
	return s.Start.IsZero()
}
