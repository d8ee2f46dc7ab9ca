package validate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/webcodedsoft/pgrestify-sub004/internal/schema"
	"github.com/webcodedsoft/pgrestify-sub004/internal/store"
)

func TestTreeEmptyProject(t *testing.T) {
	st := store.New(t.TempDir())

	res, err := Tree(st, nil)
	require.NoError(t, err)
	assert.False(t, res.OK())
	assert.Contains(t, res.Issues[0].Message, "no generated SQL found")
}

func TestTreeCleanFilePasses(t *testing.T) {
	st := store.New(t.TempDir())
	require.NoError(t, st.Write(st.TablePath("orders", schema.ArtifactRLS),
		"ALTER TABLE orders ENABLE ROW LEVEL SECURITY;\n\n"+
			"-- owner read\nCREATE POLICY orders_select_own ON orders FOR SELECT USING (true);\n"))
	require.NoError(t, st.Write(st.RolesPath(), "CREATE ROLE web_anon NOLOGIN;\n"))

	res, err := Tree(st, nil)
	require.NoError(t, err)
	assert.True(t, res.OK(), "issues: %v", res.Issues)
	assert.Equal(t, 2, res.FilesChecked)
	assert.Equal(t, 1, res.TablesChecked)
}

func TestTreeFlagsDuplicateKeys(t *testing.T) {
	st := store.New(t.TempDir())
	require.NoError(t, st.Write(st.TablePath("orders", schema.ArtifactIndexes),
		"CREATE INDEX idx_a ON orders (a);\nCREATE INDEX idx_a ON orders (a);\n"))

	res, err := Tree(st, nil)
	require.NoError(t, err)
	require.False(t, res.OK())
	assert.Contains(t, res.Issues[0].Message, "duplicate objects: idx_a")
}

func TestTreeFlagsUnparseableFile(t *testing.T) {
	st := store.New(t.TempDir())
	require.NoError(t, st.Write(st.TablePath("orders", schema.ArtifactTriggers),
		"GRANT SELECT ON orders TO web_user;\n"))

	res, err := Tree(st, nil)
	require.NoError(t, err)
	require.False(t, res.OK())
	assert.Contains(t, res.Issues[0].Message, "no identifiable objects")
}

func TestTreeFlagsPoliciesWithoutEnableRLS(t *testing.T) {
	st := store.New(t.TempDir())
	require.NoError(t, st.Write(st.TablePath("orders", schema.ArtifactRLS),
		"CREATE POLICY p1 ON orders FOR ALL USING (true);\n"))

	res, err := Tree(st, nil)
	require.NoError(t, err)
	require.False(t, res.OK())
	assert.Contains(t, res.Issues[0].Message, "ENABLE ROW LEVEL SECURITY")
}

func TestTreeTableFilter(t *testing.T) {
	st := store.New(t.TempDir())
	require.NoError(t, st.Write(st.TablePath("orders", schema.ArtifactRLS),
		"ALTER TABLE orders ENABLE ROW LEVEL SECURITY;\n"))

	res, err := Tree(st, []string{"orders", "missing"})
	require.NoError(t, err)
	assert.Equal(t, 1, res.TablesChecked)
	require.Len(t, res.Issues, 1)
	assert.Contains(t, res.Issues[0].Message, "table folder not found")
}
