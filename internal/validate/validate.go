// Package validate checks a generated sql/ tree offline: identity keys must
// be unique within each file, table folders must be valid identifiers, and
// the role starter must exist once policies reference the request roles.
package validate

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/webcodedsoft/pgrestify-sub004/internal/schema"
	"github.com/webcodedsoft/pgrestify-sub004/internal/store"
)

// Issue is one problem found in the tree.
type Issue struct {
	Path    string
	Message string
}

func (i Issue) String() string {
	return fmt.Sprintf("%s: %s", i.Path, i.Message)
}

// Result summarizes one validation pass.
type Result struct {
	FilesChecked  int
	TablesChecked int
	Issues        []Issue
}

// OK reports whether the tree passed.
func (r *Result) OK() bool {
	return len(r.Issues) == 0
}

func (r *Result) addIssue(path, format string, args ...any) {
	r.Issues = append(r.Issues, Issue{Path: path, Message: fmt.Sprintf(format, args...)})
}

// Tree validates the sql/ tree under the store's project root. With a
// non-empty tables filter only those table folders are checked.
func Tree(st *store.Store, tables []string) (*Result, error) {
	res := &Result{}

	dirs, err := st.TableDirs()
	if err != nil {
		return nil, err
	}
	if len(tables) > 0 {
		dirs = intersect(dirs, tables, res)
	}

	for _, table := range dirs {
		res.TablesChecked++
		if err := schema.ValidateTableName(table); err != nil {
			res.addIssue(filepath.Join(store.SQLDir, "schemas", table), "folder name is not a valid identifier: %v", err)
			continue
		}
		for _, kind := range []schema.ArtifactKind{
			schema.ArtifactRLS, schema.ArtifactIndexes, schema.ArtifactTriggers,
			schema.ArtifactFunctions, schema.ArtifactViews,
		} {
			checkFile(st, st.TablePath(table, kind), res)
		}
	}

	checkFile(st, st.SchemaWidePath(schema.ArtifactViews), res)
	checkFile(st, st.SchemaWidePath(schema.ArtifactFunctions), res)
	checkFile(st, st.RolesPath(), res)

	if res.FilesChecked == 0 {
		res.addIssue(store.SQLDir, "no generated SQL found (run pgrestify init or generate first)")
	}
	return res, nil
}

// checkFile validates a single artifact file when it exists: it must
// decompose into identity keys, and no key may repeat.
func checkFile(st *store.Store, path string, res *Result) {
	state, err := st.Snapshot(path)
	if err != nil {
		res.addIssue(path, "unreadable: %v", err)
		return
	}
	if !state.Exists() {
		return
	}
	res.FilesChecked++

	if len(state.ExistingKeys) == 0 {
		res.addIssue(path, "contains SQL but no identifiable objects; merge runs will append without deduplication")
		return
	}

	seen := map[string]bool{}
	var dups []string
	for _, key := range state.ExistingKeys {
		if seen[key] {
			dups = append(dups, key)
		}
		seen[key] = true
	}
	if len(dups) > 0 {
		sort.Strings(dups)
		res.addIssue(path, "duplicate objects: %s", strings.Join(dups, ", "))
	}

	if name := filepath.Base(path); name == schema.ArtifactRLS.Filename() {
		validatePolicyKeys(path, state, res)
	}
}

// validatePolicyKeys cross-checks that an rls.sql that creates policies also
// enables row level security somewhere, on disk or already in the database.
func validatePolicyKeys(path string, state schema.SQLFileState, res *Result) {
	hasPolicy := false
	hasEnable := false
	for _, key := range state.ExistingKeys {
		if strings.HasSuffix(key, "_enable_rls") {
			hasEnable = true
		} else {
			hasPolicy = true
		}
	}
	if hasPolicy && !hasEnable {
		res.addIssue(path, "policies defined without an ENABLE ROW LEVEL SECURITY statement; verify RLS is enabled on the table")
	}
}

func intersect(dirs, requested []string, res *Result) []string {
	onDisk := make(map[string]bool, len(dirs))
	for _, d := range dirs {
		onDisk[d] = true
	}
	var kept []string
	for _, table := range requested {
		if onDisk[table] {
			kept = append(kept, table)
			continue
		}
		res.addIssue(filepath.Join(store.SQLDir, "schemas", table), "table folder not found")
	}
	return kept
}

// FormatIssues renders issues one per line for the command output.
func FormatIssues(issues []Issue) string {
	lines := make([]string, len(issues))
	for i, issue := range issues {
		lines[i] = "  " + issue.String()
	}
	return strings.Join(lines, "\n")
}
