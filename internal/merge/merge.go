// Package merge combines newly generated SQL artifacts with the current
// content of an artifact file without ever duplicating a named database
// object. It is a pure string transformation: reading the previous file and
// writing the result are the caller's job.
package merge

import (
	"strings"

	"github.com/webcodedsoft/pgrestify-sub004/internal/schema"
)

// Mode selects the artifact-write strategy.
type Mode int

const (
	// ModeMerge unions new objects into the existing file. Same-named
	// objects are replaced by their new definition.
	ModeMerge Mode = iota
	// ModeReplace discards the existing file content entirely, including
	// hand-written objects. An explicit user choice.
	ModeReplace
)

func (m Mode) String() string {
	if m == ModeReplace {
		return "replace"
	}
	return "merge"
}

// Result is the outcome of one merge: the complete file text plus the counts
// the report state emits. Degraded marks an existing file that carried SQL
// statements we could not identify; the new artifact was appended opaquely
// and the file may now contain duplicate objects.
type Result struct {
	Text     string
	Added    int
	Replaced int
	Degraded bool
}

// Merge produces the final content for an artifact file.
//
// With ModeReplace, or when the existing text is empty, the result is the
// rendered artifact prefixed by header (pass "" for none). Otherwise every
// object in the existing text that shares an identity key with the new
// artifact is removed, block by block, and the new artifact is appended.
// Text before the first identified object (file headers, hand-written
// commentary) is preserved untouched, which keeps repeated merge runs
// byte-identical.
func Merge(existing string, artifact schema.GeneratedArtifact, mode Mode, header string) Result {
	newKeys := artifact.IdentityKeys()

	if mode == ModeReplace || strings.TrimSpace(existing) == "" {
		return Result{
			Text:  header + artifact.Render(),
			Added: len(newKeys),
		}
	}

	blocks := findBlocks(existing)
	if len(blocks) == 0 {
		if looksLikeSQL(existing) {
			// Statements we cannot identify: append opaquely rather than
			// risk destroying hand-written objects.
			return Result{
				Text:     appendTo(existing, artifact),
				Added:    len(newKeys),
				Degraded: true,
			}
		}
		// Comment-only or blank file: the artifact becomes its content,
		// after whatever prose was there.
		return Result{
			Text:  appendTo(existing, artifact),
			Added: len(newKeys),
		}
	}

	inNew := make(map[string]bool, len(newKeys))
	for _, k := range newKeys {
		inNew[k] = true
	}

	var (
		kept     strings.Builder
		replaced = map[string]bool{}
	)
	kept.WriteString(existing[:blocks[0].start])
	for _, b := range blocks {
		if inNew[b.key] {
			replaced[b.key] = true
			continue
		}
		kept.WriteString(existing[b.start:b.end])
	}

	added := 0
	for _, k := range newKeys {
		if !replaced[k] {
			added++
		}
	}

	return Result{
		Text:     appendTo(kept.String(), artifact),
		Added:    added,
		Replaced: len(replaced),
	}
}

// ReplaceNamed updates exactly one object in an existing file: the block
// whose identity key equals name is removed and the fragment is appended.
// When the name is not present the file must stay untouched, so an
// ObjectNotFoundError carrying the known keys is returned instead of
// silently appending.
func ReplaceNamed(existing, kind, name string, frag schema.Fragment) (Result, error) {
	blocks := findBlocks(existing)

	idx := -1
	known := make([]string, len(blocks))
	for i, b := range blocks {
		known[i] = b.key
		if b.key == name {
			idx = i
		}
	}
	if idx < 0 {
		return Result{}, &schema.ObjectNotFoundError{Kind: kind, Name: name, Known: known}
	}

	target := blocks[idx]
	remaining := existing[:target.start] + existing[target.end:]
	artifact := schema.GeneratedArtifact{Fragments: []schema.Fragment{frag}}
	return Result{
		Text:     appendTo(remaining, artifact),
		Replaced: 1,
	}, nil
}

// appendTo joins retained text and a rendered artifact with exactly one
// blank line between them. Deterministic spacing is what makes merge runs
// idempotent at the byte level.
func appendTo(retained string, artifact schema.GeneratedArtifact) string {
	base := strings.TrimRight(retained, "\n \t")
	if base == "" {
		return artifact.Render()
	}
	if artifact.Empty() {
		return base + "\n"
	}
	return base + "\n\n" + artifact.Render()
}
