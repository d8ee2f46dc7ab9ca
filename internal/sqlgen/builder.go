package sqlgen

import (
	"fmt"
	"strings"
)

// SQLBuilder builds multi-line SQL or comment reports with indentation
// management. Used where the output shape depends on many conditionals and
// a single format string would be unreadable.
type SQLBuilder struct {
	lines     []string
	indent    int
	indentStr string
}

// NewBuilder creates a new SQLBuilder with 4-space indentation.
func NewBuilder() *SQLBuilder {
	return &SQLBuilder{indentStr: "    "}
}

// Line adds a line at the current indentation level.
func (b *SQLBuilder) Line(format string, args ...any) *SQLBuilder {
	line := fmt.Sprintf(format, args...)
	if b.indent > 0 && line != "" {
		line = strings.Repeat(b.indentStr, b.indent) + line
	}
	b.lines = append(b.lines, line)
	return b
}

// LineIf adds a line only if the condition is true.
func (b *SQLBuilder) LineIf(cond bool, format string, args ...any) *SQLBuilder {
	if cond {
		return b.Line(format, args...)
	}
	return b
}

// Blank adds an empty line.
func (b *SQLBuilder) Blank() *SQLBuilder {
	b.lines = append(b.lines, "")
	return b
}

// Indent increases the indentation level.
func (b *SQLBuilder) Indent() *SQLBuilder {
	b.indent++
	return b
}

// Dedent decreases the indentation level.
func (b *SQLBuilder) Dedent() *SQLBuilder {
	if b.indent > 0 {
		b.indent--
	}
	return b
}

// Empty returns true if no lines have been added.
func (b *SQLBuilder) Empty() bool {
	return len(b.lines) == 0
}

// String returns the built text as a single string.
func (b *SQLBuilder) String() string {
	return strings.Join(b.lines, "\n")
}

// Joiner accumulates clauses and joins them with a separator,
// automatically filtering out empty strings.
type Joiner struct {
	sep   string
	parts []string
}

// NewJoiner creates a Joiner with the given separator.
func NewJoiner(sep string) *Joiner {
	return &Joiner{sep: sep}
}

// Add adds a part to the joiner if it's non-empty.
func (j *Joiner) Add(parts ...string) *Joiner {
	for _, p := range parts {
		if p != "" {
			j.parts = append(j.parts, p)
		}
	}
	return j
}

// AddIf adds a part only if the condition is true.
func (j *Joiner) AddIf(cond bool, part string) *Joiner {
	if cond && part != "" {
		j.parts = append(j.parts, part)
	}
	return j
}

// Empty returns true if no parts have been added.
func (j *Joiner) Empty() bool {
	return len(j.parts) == 0
}

// String joins all non-empty parts with the separator.
func (j *Joiner) String() string {
	return strings.Join(j.parts, j.sep)
}

// Count returns the number of parts.
func (j *Joiner) Count() int {
	return len(j.parts)
}
