package schema

import "strings"

// ArtifactKind selects the per-table file a generated artifact belongs to.
type ArtifactKind string

const (
	ArtifactRLS       ArtifactKind = "rls"
	ArtifactIndexes   ArtifactKind = "indexes"
	ArtifactTriggers  ArtifactKind = "triggers"
	ArtifactFunctions ArtifactKind = "functions"
	ArtifactViews     ArtifactKind = "views"
	ArtifactAnalysis  ArtifactKind = "analysis"
)

// Filename returns the on-disk file name for the artifact kind.
func (k ArtifactKind) Filename() string {
	return string(k) + ".sql"
}

// Fragment is one named database object rendered as SQL text. Key is the
// object name (policy, index, trigger, or function name) and is the unit of
// deduplication when merging into an existing file. Text is self-contained:
// a leading descriptive comment through the terminating statement.
type Fragment struct {
	Key  string
	Text string
}

// GeneratedArtifact is the output of artifact generation for one table and
// kind: an ordered list of fragments whose keys identify the objects the
// rendered SQL would create.
type GeneratedArtifact struct {
	Fragments []Fragment
}

// IdentityKeys returns the fragment keys in order.
func (a GeneratedArtifact) IdentityKeys() []string {
	keys := make([]string, len(a.Fragments))
	for i, f := range a.Fragments {
		keys[i] = f.Key
	}
	return keys
}

// HasKey reports whether the artifact contains a fragment with the given key.
func (a GeneratedArtifact) HasKey(key string) bool {
	for _, f := range a.Fragments {
		if f.Key == key {
			return true
		}
	}
	return false
}

// Fragment returns the fragment with the given key and true when present.
func (a GeneratedArtifact) Fragment(key string) (Fragment, bool) {
	for _, f := range a.Fragments {
		if f.Key == key {
			return f, true
		}
	}
	return Fragment{}, false
}

// Empty reports whether the artifact has no fragments.
func (a GeneratedArtifact) Empty() bool {
	return len(a.Fragments) == 0
}

// Render joins the fragment texts into file-ready SQL. Fragments are
// separated by a blank line and the result ends with a newline.
func (a GeneratedArtifact) Render() string {
	if a.Empty() {
		return ""
	}
	parts := make([]string, len(a.Fragments))
	for i, f := range a.Fragments {
		parts[i] = strings.TrimRight(f.Text, "\n")
	}
	return strings.Join(parts, "\n\n") + "\n"
}

// SQLFileState is a snapshot of an artifact file before merging: the path it
// will be written to, its current text (empty when the file does not exist),
// and the identity keys extractable from that text.
type SQLFileState struct {
	Path         string
	ExistingText string
	ExistingKeys []string
}

// Exists reports whether the snapshot captured a non-empty file.
func (s SQLFileState) Exists() bool {
	return strings.TrimSpace(s.ExistingText) != ""
}
