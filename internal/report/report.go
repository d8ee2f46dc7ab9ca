// Package report defines the progress-reporting port the generation pipeline
// emits to. The interface is injected everywhere instead of a process-wide
// logger so the core stays testable and quiet runs cost nothing.
package report

import (
	"fmt"
	"io"

	"github.com/fatih/color"
)

// Reporter receives structured progress events from a generation run.
type Reporter interface {
	// Infof reports neutral progress.
	Infof(format string, args ...any)
	// Successf reports a completed step.
	Successf(format string, args ...any)
	// Warnf reports a recoverable problem; the run continues.
	Warnf(format string, args ...any)
	// Errorf reports a failure for one unit of work.
	Errorf(format string, args ...any)
	// Detectedf reports a detection outcome (pattern, suggestion, recommendation).
	Detectedf(format string, args ...any)
}

// Console writes colored, symbol-prefixed lines to a terminal.
type Console struct {
	Out   io.Writer
	Quiet bool // suppress everything except warnings and errors

	green  *color.Color
	yellow *color.Color
	red    *color.Color
	cyan   *color.Color
}

// NewConsole creates a Console reporter writing to out.
func NewConsole(out io.Writer, quiet bool) *Console {
	return &Console{
		Out:    out,
		Quiet:  quiet,
		green:  color.New(color.FgGreen),
		yellow: color.New(color.FgYellow),
		red:    color.New(color.FgRed, color.Bold),
		cyan:   color.New(color.FgCyan),
	}
}

func (c *Console) Infof(format string, args ...any) {
	if c.Quiet {
		return
	}
	fmt.Fprintf(c.Out, format+"\n", args...)
}

func (c *Console) Successf(format string, args ...any) {
	if c.Quiet {
		return
	}
	c.green.Fprint(c.Out, "✓ ")
	fmt.Fprintf(c.Out, format+"\n", args...)
}

func (c *Console) Warnf(format string, args ...any) {
	c.yellow.Fprint(c.Out, "⚠ ")
	fmt.Fprintf(c.Out, format+"\n", args...)
}

func (c *Console) Errorf(format string, args ...any) {
	c.red.Fprint(c.Out, "✗ ")
	fmt.Fprintf(c.Out, format+"\n", args...)
}

func (c *Console) Detectedf(format string, args ...any) {
	if c.Quiet {
		return
	}
	c.cyan.Fprint(c.Out, "→ ")
	fmt.Fprintf(c.Out, format+"\n", args...)
}

// Silent drops every event. Used in tests and as a safe zero-dependency
// default when no reporter is injected.
type Silent struct{}

func (Silent) Infof(string, ...any)     {}
func (Silent) Successf(string, ...any)  {}
func (Silent) Warnf(string, ...any)     {}
func (Silent) Errorf(string, ...any)    {}
func (Silent) Detectedf(string, ...any) {}
