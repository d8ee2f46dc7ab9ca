// Package store maps tables and artifact kinds to files under the generated
// SQL tree and performs the reads and writes the merge engine stays free of.
// Directories are created only when content is actually written, so analyzing
// a table never leaves an empty folder behind.
package store

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/webcodedsoft/pgrestify-sub004/internal/merge"
	"github.com/webcodedsoft/pgrestify-sub004/internal/schema"
)

// SQLDir is the root of the generated tree, relative to the project root.
const SQLDir = "sql"

// Store resolves artifact paths inside one project.
type Store struct {
	root string // project root; the sql/ tree lives directly under it
}

// New creates a Store rooted at the given project directory.
func New(root string) *Store {
	return &Store{root: root}
}

// Root returns the project root the store was created with.
func (s *Store) Root() string {
	return s.root
}

// TablePath returns the file for one table's artifact kind:
// sql/schemas/<table>/<kind>.sql.
func (s *Store) TablePath(table string, kind schema.ArtifactKind) string {
	return filepath.Join(s.root, SQLDir, "schemas", table, kind.Filename())
}

// SchemaWidePath returns the file for views or functions that have no single
// owning table: sql/schemas/<kind>.sql.
func (s *Store) SchemaWidePath(kind schema.ArtifactKind) string {
	return filepath.Join(s.root, SQLDir, "schemas", kind.Filename())
}

// RolesPath returns sql/roles.sql.
func (s *Store) RolesPath() string {
	return filepath.Join(s.root, SQLDir, "roles.sql")
}

// TableDirs lists the per-table directories under sql/schemas, in name order.
func (s *Store) TableDirs() ([]string, error) {
	entries, err := os.ReadDir(filepath.Join(s.root, SQLDir, "schemas"))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading schemas directory: %w", err)
	}
	var tables []string
	for _, e := range entries {
		if e.IsDir() {
			tables = append(tables, e.Name())
		}
	}
	return tables, nil
}

// Snapshot captures the state of an artifact file before merging. A missing
// file yields an empty snapshot, not an error.
func (s *Store) Snapshot(path string) (schema.SQLFileState, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return schema.SQLFileState{Path: path}, nil
	}
	if err != nil {
		return schema.SQLFileState{}, fmt.Errorf("reading %s: %w", path, err)
	}
	text := string(data)
	return schema.SQLFileState{
		Path:         path,
		ExistingText: text,
		ExistingKeys: merge.ExtractIdentityKeys(text),
	}, nil
}

// Write persists merged text, creating the parent directory on demand.
func (s *Store) Write(path, text string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
