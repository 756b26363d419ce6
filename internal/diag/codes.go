package diag

import "fmt"

// Code identifies a diagnostic kind with a stable numeric value.
type Code uint16

const (
	UnknownCode Code = 0

	// Syntax (parse stage)
	SynParse Code = 1001

	// Semantic (compile stage)
	SemCompile   Code = 2001
	SemUndefined Code = 2002

	// Internal
	IntFailure Code = 9001
)

// String returns the stable identifier used in editor and report output.
func (c Code) String() string {
	return fmt.Sprintf("RLS%04d", uint16(c))
}
