package server

import (
	protocol "github.com/tliron/glsp/protocol_3_16"

	"risorls/internal/position"
	"risorls/internal/source"
)

// applyContentChanges folds a didChange event list into the new document
// text. The server advertises full sync, but well-behaved incremental
// clients still exist, so ranged events are applied against the current
// text too. Reports false when no usable event was present.
func applyContentChanges(text string, changes []any) (string, bool) {
	applied := false
	for _, change := range changes {
		switch c := change.(type) {
		case protocol.TextDocumentContentChangeEventWhole:
			text = c.Text
			applied = true
		case *protocol.TextDocumentContentChangeEventWhole:
			text = c.Text
			applied = true
		case protocol.TextDocumentContentChangeEvent:
			text = applyRangedChange(text, c.Range, c.Text)
			applied = true
		case *protocol.TextDocumentContentChangeEvent:
			text = applyRangedChange(text, c.Range, c.Text)
			applied = true
		}
	}
	return text, applied
}

func applyRangedChange(text string, rng *protocol.Range, replacement string) string {
	if rng == nil {
		return replacement
	}
	file := source.NewFile("", text)
	start := position.Offset(file, rng.Start)
	end := position.Offset(file, rng.End)
	if end < start {
		end = start
	}
	return text[:start] + replacement + text[end:]
}
