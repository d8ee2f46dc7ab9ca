package merge

import (
	"regexp"
	"strings"
)

// Declarative markers for the object kinds that carry identity. Statements
// are matched at the start of a line only: generated function bodies indent
// their statements, which keeps body text from matching.
var (
	policyMarker  = regexp.MustCompile(`(?im)^CREATE\s+POLICY\s+("(?:[^"]|"")+"|[A-Za-z_][A-Za-z0-9_$]*)`)
	indexMarker   = regexp.MustCompile(`(?im)^CREATE\s+(?:UNIQUE\s+)?INDEX\s+(?:CONCURRENTLY\s+)?(?:IF\s+NOT\s+EXISTS\s+)?("(?:[^"]|"")+"|[A-Za-z_][A-Za-z0-9_$]*)`)
	triggerMarker = regexp.MustCompile(`(?im)^CREATE\s+(?:OR\s+REPLACE\s+)?TRIGGER\s+("(?:[^"]|"")+"|[A-Za-z_][A-Za-z0-9_$]*)`)
	funcMarker    = regexp.MustCompile(`(?im)^CREATE\s+(?:OR\s+REPLACE\s+)?FUNCTION\s+(?:(?:"(?:[^"]|"")+"|[A-Za-z_][A-Za-z0-9_$]*)\.)?("(?:[^"]|"")+"|[A-Za-z_][A-Za-z0-9_$]*)\s*\(`)
	viewMarker    = regexp.MustCompile(`(?im)^CREATE\s+(?:OR\s+REPLACE\s+)?(?:MATERIALIZED\s+)?VIEW\s+(?:(?:"(?:[^"]|"")+"|[A-Za-z_][A-Za-z0-9_$]*)\.)?("(?:[^"]|"")+"|[A-Za-z_][A-Za-z0-9_$]*)`)
	roleMarker    = regexp.MustCompile(`(?im)^CREATE\s+ROLE\s+("(?:[^"]|"")+"|[A-Za-z_][A-Za-z0-9_$]*)`)
	rlsMarker     = regexp.MustCompile(`(?im)^ALTER\s+TABLE\s+(?:ONLY\s+)?("(?:[^"]|"")+"|[A-Za-z_][A-Za-z0-9_$]*)\s+ENABLE\s+ROW\s+LEVEL\s+SECURITY`)

	sqlStatement = regexp.MustCompile(`(?i)\b(CREATE|ALTER|GRANT|REVOKE|DROP)\s`)
)

// block is one identified object inside an existing file: its identity key
// and the byte span [start, end) covering the leading comment run, the
// statement, and everything up to the next block or end of file.
type block struct {
	key   string
	start int
	end   int
}

// findBlocks locates every identifiable object in text, in file order.
func findBlocks(text string) []block {
	type hit struct {
		key string
		off int
	}
	var hits []hit

	add := func(re *regexp.Regexp, keyFn func(name string) string) {
		for _, m := range re.FindAllStringSubmatchIndex(text, -1) {
			name := unquoteIdent(text[m[2]:m[3]])
			hits = append(hits, hit{key: keyFn(name), off: m[0]})
		}
	}
	same := func(name string) string { return name }

	add(policyMarker, same)
	add(indexMarker, same)
	add(triggerMarker, same)
	add(funcMarker, same)
	add(viewMarker, same)
	add(roleMarker, same)
	add(rlsMarker, func(table string) string { return table + "_enable_rls" })

	if len(hits) == 0 {
		return nil
	}

	// File order; the regexes never overlap because each anchors at a line
	// start with a distinct leading keyword.
	for i := 1; i < len(hits); i++ {
		for j := i; j > 0 && hits[j].off < hits[j-1].off; j-- {
			hits[j], hits[j-1] = hits[j-1], hits[j]
		}
	}

	blocks := make([]block, len(hits))
	for i, h := range hits {
		blocks[i] = block{key: h.key, start: commentRunStart(text, h.off)}
	}
	for i := range blocks {
		if i+1 < len(blocks) {
			blocks[i].end = blocks[i+1].start
		} else {
			blocks[i].end = len(text)
		}
	}
	return blocks
}

// commentRunStart walks backwards from the statement at off over the
// contiguous run of comment lines directly above it. A blank line ends the
// run, which keeps file headers out of the first block.
func commentRunStart(text string, off int) int {
	start := off
	for start > 0 {
		if text[start-1] != '\n' {
			break
		}
		prev := strings.LastIndexByte(text[:start-1], '\n') + 1
		line := strings.TrimSpace(text[prev : start-1])
		if line == "" || !strings.HasPrefix(line, "--") {
			break
		}
		start = prev
	}
	return start
}

// ExtractIdentityKeys returns every identity key found in text, in file
// order. Duplicate keys are preserved so callers can detect files that
// violate the uniqueness invariant.
func ExtractIdentityKeys(text string) []string {
	blocks := findBlocks(text)
	if len(blocks) == 0 {
		return nil
	}
	keys := make([]string, len(blocks))
	for i, b := range blocks {
		keys[i] = b.key
	}
	return keys
}

// looksLikeSQL reports whether text contains DDL-ish statements. Used to
// distinguish "no identifiable objects because the file has none" from "the
// file has statements we cannot identify", which forces degraded appends.
func looksLikeSQL(text string) bool {
	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "--") {
			continue
		}
		if sqlStatement.MatchString(trimmed) {
			return true
		}
	}
	return false
}

// unquoteIdent strips surrounding double quotes and collapses doubled quotes.
func unquoteIdent(s string) string {
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		return strings.ReplaceAll(s[1:len(s)-1], `""`, `"`)
	}
	return s
}
