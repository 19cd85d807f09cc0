// Package diag collects per-file diagnostic messages.
//
// Field-level parse and write issues are non-fatal: the engine records them
// here and keeps going, and batch callers surface the buffer per file.
package diag

import (
	"fmt"
	"strings"
)

// Buffer accumulates human-readable diagnostic lines for one operation.
// The zero value is ready to use. A Buffer is not safe for concurrent use;
// each file gets its own.
type Buffer struct {
	lines []string
}

// Addf appends a formatted diagnostic line.
func (b *Buffer) Addf(format string, args ...any) {
	b.lines = append(b.lines, fmt.Sprintf(format, args...))
}

// Add appends a diagnostic line.
func (b *Buffer) Add(line string) {
	b.lines = append(b.lines, line)
}

// Lines returns the accumulated lines in order.
func (b *Buffer) Lines() []string {
	return b.lines
}

// Empty reports whether nothing was recorded.
func (b *Buffer) Empty() bool {
	return len(b.lines) == 0
}

// String joins the lines with newlines.
func (b *Buffer) String() string {
	return strings.Join(b.lines, "\n")
}
