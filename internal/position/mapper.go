// Package position converts between the analyzer's native 1-based
// line/column coordinates and zero-based LSP positions with UTF-16
// code-unit columns.
package position

import (
	"unicode/utf8"

	"fortio.org/safecast"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"risorls/internal/source"
)

const maxUint32 = ^uint32(0)

func safeUint32(n int) uint32 {
	if n < 0 {
		return 0
	}
	v, err := safecast.Conv[uint32](n)
	if err != nil {
		return maxUint32
	}
	return v
}

// ToProtocol converts a native span to a protocol range. Native columns
// count Unicode scalar values; protocol characters count UTF-16 code
// units, so the column is re-derived by scanning the source line rather
// than by arithmetic. A zero span maps to a zero-length range at document
// start.
func ToProtocol(file *source.File, span source.Span) protocol.Range {
	if file == nil || span.IsZero() {
		return protocol.Range{}
	}
	start := toProtocolPosition(file, span.Start)
	end := start
	if !span.End.IsZero() {
		end = toProtocolPosition(file, span.End)
	}
	if end.Line < start.Line || (end.Line == start.Line && end.Character < start.Character) {
		end = start
	}
	return protocol.Range{Start: start, End: end}
}

func toProtocolPosition(file *source.File, loc source.Location) protocol.Position {
	line := loc.Line - 1
	if line < 0 {
		line = 0
	}
	if line >= file.LineCount() {
		line = file.LineCount() - 1
	}
	lineStart, lineEnd := file.LineBounds(line)

	runes := loc.Column - 1
	if runes < 0 {
		runes = 0
	}
	units := 0
	off := lineStart
	for off < lineEnd && runes > 0 {
		r, size := utf8.DecodeRune(file.Content[off:lineEnd])
		if r > 0xFFFF {
			units += 2
		} else {
			units++
		}
		off += safeUint32(size)
		runes--
	}
	return protocol.Position{
		Line:      protocol.UInteger(safeUint32(line)),
		Character: protocol.UInteger(safeUint32(units)),
	}
}

// ToNative converts a protocol position to a native 1-based location,
// scanning the line's UTF-16 code units to recover the rune column.
// Positions past the end of a line clamp to the line's last column.
func ToNative(file *source.File, pos protocol.Position) source.Location {
	if file == nil {
		return source.Location{Line: 1, Column: 1}
	}
	line := int(pos.Line)
	if line >= file.LineCount() {
		line = file.LineCount() - 1
	}
	lineStart, lineEnd := file.LineBounds(line)

	target := int(pos.Character)
	units := 0
	runes := 0
	off := lineStart
	for off < lineEnd && units < target {
		r, size := utf8.DecodeRune(file.Content[off:lineEnd])
		need := 1
		if r > 0xFFFF {
			need = 2
		}
		if units+need > target {
			break
		}
		units += need
		runes++
		off += safeUint32(size)
	}
	return source.Location{Line: line + 1, Column: runes + 1}
}

// Offset returns the byte offset of a protocol position within the file,
// clamped to the line's content. Used when applying ranged content
// changes.
func Offset(file *source.File, pos protocol.Position) int {
	if file == nil {
		return 0
	}
	line := int(pos.Line)
	if line >= file.LineCount() {
		return len(file.Content)
	}
	lineStart, lineEnd := file.LineBounds(line)

	target := int(pos.Character)
	units := 0
	off := lineStart
	for off < lineEnd && units < target {
		r, size := utf8.DecodeRune(file.Content[off:lineEnd])
		need := 1
		if r > 0xFFFF {
			need = 2
		}
		if units+need > target {
			break
		}
		units += need
		off += safeUint32(size)
	}
	return int(off)
}
