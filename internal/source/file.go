package source

// File is an immutable snapshot of one document's text together with a
// precomputed line index. LineIdx holds the byte offset of every '\n' in
// Content, so line i (0-based) spans (LineIdx[i-1]+1, LineIdx[i]).
type File struct {
	Name    string
	Content []byte
	LineIdx []uint32
}

// NewFile builds a File and its line index from text.
func NewFile(name, text string) *File {
	content := []byte(text)
	var idx []uint32
	for i := range content {
		if content[i] == '\n' {
			idx = append(idx, uint32(i))
		}
	}
	return &File{Name: name, Content: content, LineIdx: idx}
}

// LineCount returns the number of lines, counting a trailing partial line.
func (f *File) LineCount() int {
	return len(f.LineIdx) + 1
}

// LineBounds returns the byte range [start, end) of the 0-based line,
// excluding the terminating newline. Out-of-range lines collapse to an
// empty range at the end of the content.
func (f *File) LineBounds(line int) (uint32, uint32) {
	contentLen := uint32(len(f.Content))
	if line < 0 || line >= f.LineCount() {
		return contentLen, contentLen
	}
	var start uint32
	if line > 0 {
		start = f.LineIdx[line-1] + 1
	}
	end := contentLen
	if line < len(f.LineIdx) {
		end = f.LineIdx[line]
	}
	if start > end {
		start = end
	}
	return start, end
}

// Line returns the text of the 0-based line without its newline.
func (f *File) Line(line int) string {
	start, end := f.LineBounds(line)
	return string(f.Content[start:end])
}
