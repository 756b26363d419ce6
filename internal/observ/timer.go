// Package observ collects coarse phase timings for the check command.
package observ

import (
	"fmt"
	"strings"
	"time"
)

// Phase is one completed timed stretch of the check pipeline.
type Phase struct {
	Name string
	Dur  time.Duration
	Note string
}

// Timer records the scan and analyze phases of a batch run. It is used
// from a single goroutine; the pipeline times whole phases, not
// individual files.
type Timer struct {
	phases []Phase
}

func NewTimer() *Timer { return &Timer{} }

// Phase starts a named phase and returns the function that ends it. The
// note is free-form context for the summary line, e.g. a file count.
func (t *Timer) Phase(name string) func(note string) {
	start := time.Now()
	return func(note string) {
		t.phases = append(t.phases, Phase{Name: name, Dur: time.Since(start), Note: note})
	}
}

// Phases returns the completed phases in the order they finished.
func (t *Timer) Phases() []Phase { return t.phases }

// Summary renders the phases and their total as a human-readable block
// for stderr.
func (t *Timer) Summary() string {
	var b strings.Builder
	b.WriteString("timings:\n")
	var total time.Duration
	for _, p := range t.phases {
		total += p.Dur
		fmt.Fprintf(&b, "  %-10s %7.2f ms", p.Name, millis(p.Dur))
		if p.Note != "" {
			b.WriteString("  // " + p.Note)
		}
		b.WriteByte('\n')
	}
	fmt.Fprintf(&b, "  %-10s %7.2f ms\n", "total", millis(total))
	return b.String()
}

func millis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
