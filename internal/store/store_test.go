package store

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/webcodedsoft/pgrestify-sub004/internal/schema"
)

func TestPathLayout(t *testing.T) {
	s := New("/project")

	assert.Equal(t, filepath.Join("/project", "sql", "schemas", "orders", "rls.sql"),
		s.TablePath("orders", schema.ArtifactRLS))
	assert.Equal(t, filepath.Join("/project", "sql", "schemas", "orders", "indexes.sql"),
		s.TablePath("orders", schema.ArtifactIndexes))
	assert.Equal(t, filepath.Join("/project", "sql", "schemas", "functions.sql"),
		s.SchemaWidePath(schema.ArtifactFunctions))
	assert.Equal(t, filepath.Join("/project", "sql", "roles.sql"), s.RolesPath())
}

func TestSnapshotMissingFile(t *testing.T) {
	s := New(t.TempDir())

	state, err := s.Snapshot(s.TablePath("orders", schema.ArtifactRLS))
	require.NoError(t, err)
	assert.False(t, state.Exists())
	assert.Empty(t, state.ExistingKeys)
}

func TestSnapshotReadsKeys(t *testing.T) {
	root := t.TempDir()
	s := New(root)
	path := s.TablePath("orders", schema.ArtifactRLS)
	require.NoError(t, s.Write(path, "CREATE POLICY p1 ON orders FOR ALL USING (true);\n"))

	state, err := s.Snapshot(path)
	require.NoError(t, err)
	assert.True(t, state.Exists())
	assert.Equal(t, []string{"p1"}, state.ExistingKeys)
}

func TestWriteCreatesDirectoriesLazily(t *testing.T) {
	root := t.TempDir()
	s := New(root)

	// Snapshotting a missing file must not create the table folder.
	path := s.TablePath("orders", schema.ArtifactTriggers)
	_, err := s.Snapshot(path)
	require.NoError(t, err)
	_, err = os.Stat(filepath.Dir(path))
	assert.True(t, os.IsNotExist(err), "snapshot must not create directories")

	require.NoError(t, s.Write(path, "-- content\n"))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "-- content\n", string(data))
}

func TestTableDirs(t *testing.T) {
	root := t.TempDir()
	s := New(root)

	dirs, err := s.TableDirs()
	require.NoError(t, err)
	assert.Empty(t, dirs, "no sql tree yet")

	require.NoError(t, s.Write(s.TablePath("orders", schema.ArtifactRLS), "-- a\n"))
	require.NoError(t, s.Write(s.TablePath("users", schema.ArtifactRLS), "-- b\n"))
	require.NoError(t, s.Write(s.SchemaWidePath(schema.ArtifactViews), "-- c\n"))

	dirs, err = s.TableDirs()
	require.NoError(t, err)
	assert.Equal(t, []string{"orders", "users"}, dirs)
}
