// Package sqlgen renders pgrestify artifacts as SQL text. Every renderer
// produces schema.Fragment values: one named database object per fragment,
// with a leading descriptive comment directly above a statement that starts
// at the beginning of the line. The merge engine relies on that shape to
// locate and replace objects inside existing files.
package sqlgen

import (
	"fmt"
	"strings"
	"time"
)

// sqlf formats SQL with automatic dedenting and blank line removal.
// The SQL shape is visible in the format string.
func sqlf(format string, args ...any) string {
	s := fmt.Sprintf(format, args...)
	lines := strings.Split(s, "\n")

	// Find minimum indentation (ignoring empty lines)
	minIndent := 1000
	for _, line := range lines {
		trimmed := strings.TrimLeft(line, " \t")
		if trimmed == "" {
			continue
		}
		indent := len(line) - len(trimmed)
		if indent < minIndent {
			minIndent = indent
		}
	}

	// Remove common indent and empty lines
	var result []string
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		if len(line) >= minIndent {
			result = append(result, line[minIndent:])
		} else {
			result = append(result, strings.TrimLeft(line, " \t"))
		}
	}

	return strings.Join(result, "\n")
}

// optf returns formatted string if condition is true, empty string otherwise.
// Useful for optional SQL clauses.
func optf(cond bool, format string, args ...any) string {
	if !cond {
		return ""
	}
	return fmt.Sprintf(format, args...)
}

// Header renders the provenance comment placed at the top of newly created
// artifact files. Merge runs into an existing file never rewrite it, which
// keeps repeated runs byte-identical. The trailing blank line separates the
// header from the first fragment's comment.
func Header(command string, now time.Time) string {
	return fmt.Sprintf("-- Generated by pgrestify. Safe to edit: renamed objects are left alone.\n-- Command: %s\n-- Date: %s\n\n", command, now.Format("2006-01-02"))
}
