package runner

import (
	"bytes"
	"context"
	"errors"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/webcodedsoft/pgrestify-sub004/internal/merge"
	"github.com/webcodedsoft/pgrestify-sub004/internal/report"
	"github.com/webcodedsoft/pgrestify-sub004/internal/schema"
	"github.com/webcodedsoft/pgrestify-sub004/internal/store"
)

// fakeIntrospector serves canned schema metadata from memory.
type fakeIntrospector struct {
	tables    map[string][]schema.Column
	ownership map[string]string
	rls       map[string]bool
	indexes   map[string][]string
	failAll   error // every call returns this when set
}

func (f *fakeIntrospector) ListTables(context.Context) ([]string, error) {
	if f.failAll != nil {
		return nil, f.failAll
	}
	var names []string
	for name := range f.tables {
		names = append(names, name)
	}
	// Deterministic order for assertions.
	for i := 1; i < len(names); i++ {
		for j := i; j > 0 && names[j] < names[j-1]; j-- {
			names[j], names[j-1] = names[j-1], names[j]
		}
	}
	return names, nil
}

func (f *fakeIntrospector) AnalyzeTable(_ context.Context, table string) ([]schema.Column, error) {
	if f.failAll != nil {
		return nil, f.failAll
	}
	cols, ok := f.tables[table]
	if !ok {
		return nil, &schema.ValidationError{Field: "table", Value: table, Reason: "not found in schema public"}
	}
	return cols, nil
}

func (f *fakeIntrospector) DetectUserOwnershipPatterns(context.Context) (map[string]string, error) {
	if f.failAll != nil {
		return nil, f.failAll
	}
	return f.ownership, nil
}

func (f *fakeIntrospector) GetTablePolicies(context.Context, string) ([]schema.ExistingPolicy, error) {
	if f.failAll != nil {
		return nil, f.failAll
	}
	return nil, nil
}

func (f *fakeIntrospector) CheckRLSStatus(context.Context) (map[string]bool, error) {
	if f.failAll != nil {
		return nil, f.failAll
	}
	return f.rls, nil
}

func (f *fakeIntrospector) ListIndexNames(_ context.Context, table string) ([]string, error) {
	if f.failAll != nil {
		return nil, f.failAll
	}
	return f.indexes[table], nil
}

func newTestRunner(t *testing.T, inspect Introspector) (*Runner, *store.Store) {
	t.Helper()
	st := store.New(t.TempDir())
	r := New(st, report.Silent{})
	r.Inspect = inspect
	r.Command = "pgrestify generate policy"
	return r, st
}

func ordersIntrospector() *fakeIntrospector {
	return &fakeIntrospector{
		tables: map[string][]schema.Column{
			"orders": {
				{Name: "id", Type: "uuid"},
				{Name: "user_id", Type: "uuid"},
				{Name: "total_amount", Type: "numeric"},
				{Name: "created_at", Type: "timestamptz"},
				{Name: "updated_at", Type: "timestamptz"},
			},
			"categories": {
				{Name: "id", Type: "int8"},
				{Name: "name", Type: "text"},
			},
		},
		rls: map[string]bool{"orders": false, "categories": false},
	}
}

func TestGeneratePoliciesWritesArtifact(t *testing.T) {
	r, st := newTestRunner(t, ordersIntrospector())

	rep, err := r.GeneratePolicies(context.Background(), PolicyOptions{Table: "orders"})
	require.NoError(t, err)
	assert.Equal(t, 1, rep.TablesProcessed)
	assert.Zero(t, rep.Warnings)

	state, err := st.Snapshot(st.TablePath("orders", schema.ArtifactRLS))
	require.NoError(t, err)
	require.True(t, state.Exists())
	assert.Contains(t, state.ExistingKeys, "orders_enable_rls")
	assert.Contains(t, state.ExistingKeys, "orders_select_own")
	assert.Contains(t, state.ExistingText, `"user_id"`)
}

func TestGeneratePoliciesIdempotent(t *testing.T) {
	r, st := newTestRunner(t, ordersIntrospector())
	ctx := context.Background()
	opts := PolicyOptions{Table: "orders", RunOptions: RunOptions{Mode: merge.ModeMerge}}

	_, err := r.GeneratePolicies(ctx, opts)
	require.NoError(t, err)
	first, err := os.ReadFile(st.TablePath("orders", schema.ArtifactRLS))
	require.NoError(t, err)

	rep, err := r.GeneratePolicies(ctx, opts)
	require.NoError(t, err)
	second, err := os.ReadFile(st.TablePath("orders", schema.ArtifactRLS))
	require.NoError(t, err)

	assert.Equal(t, string(first), string(second), "second merge run must be byte-identical")
	assert.Zero(t, rep.ObjectsAdded)
}

func TestGeneratePoliciesTemplateModeWithoutDatabase(t *testing.T) {
	r, st := newTestRunner(t, nil)

	rep, err := r.GeneratePolicies(context.Background(), PolicyOptions{Table: "orders"})
	require.NoError(t, err, "a missing database must never be fatal")
	assert.Equal(t, 1, rep.TablesProcessed)

	state, err := st.Snapshot(st.TablePath("orders", schema.ArtifactRLS))
	require.NoError(t, err)
	require.True(t, state.Exists())
	// No columns to detect ownership from: the locked custom placeholder.
	assert.Contains(t, state.ExistingKeys, "orders_custom_access")
	assert.Contains(t, state.ExistingText, "USING (false)")
}

func TestGeneratePoliciesDegradesOnIntrospectionFailure(t *testing.T) {
	inspect := ordersIntrospector()
	inspect.failAll = errors.New("connection reset")
	r, st := newTestRunner(t, inspect)

	rep, err := r.GeneratePolicies(context.Background(), PolicyOptions{Table: "orders"})
	require.NoError(t, err, "analysis failures degrade, they do not abort")
	assert.Greater(t, rep.Warnings, 0)

	state, err := st.Snapshot(st.TablePath("orders", schema.ArtifactRLS))
	require.NoError(t, err)
	assert.True(t, state.Exists(), "template generation must still produce a file")
}

func TestGeneratePoliciesAllTablesIsolatesFailures(t *testing.T) {
	inspect := ordersIntrospector()
	r, st := newTestRunner(t, inspect)

	// ListTables reports a table that then fails analysis.
	r.Inspect = &listOverride{fakeIntrospector: inspect, extra: "ghost"}

	rep, err := r.GeneratePolicies(context.Background(), PolicyOptions{
		RunOptions: RunOptions{AllTables: true},
	})
	require.NoError(t, err, "batch runs never abort on one table")
	assert.Equal(t, 2, rep.TablesProcessed)
	assert.Greater(t, rep.Warnings, 0)

	for _, table := range []string{"orders", "categories"} {
		state, err := st.Snapshot(st.TablePath(table, schema.ArtifactRLS))
		require.NoError(t, err)
		assert.True(t, state.Exists(), "table %s should still be generated", table)
	}
	state, err := st.Snapshot(st.TablePath("ghost", schema.ArtifactRLS))
	require.NoError(t, err)
	assert.False(t, state.Exists(), "the failed table must not get a file")
}

// listOverride adds one extra table name to ListTables results.
type listOverride struct {
	*fakeIntrospector
	extra string
}

func (l *listOverride) ListTables(ctx context.Context) ([]string, error) {
	names, err := l.fakeIntrospector.ListTables(ctx)
	if err != nil {
		return nil, err
	}
	return append(names, l.extra), nil
}

func TestNamedPolicyUpdateNotFoundLeavesFileUntouched(t *testing.T) {
	r, st := newTestRunner(t, ordersIntrospector())
	ctx := context.Background()

	_, err := r.GeneratePolicies(ctx, PolicyOptions{Table: "orders"})
	require.NoError(t, err)
	before, err := os.ReadFile(st.TablePath("orders", schema.ArtifactRLS))
	require.NoError(t, err)

	_, err = r.GeneratePolicies(ctx, PolicyOptions{Table: "orders", PolicyName: "no_such_policy"})
	require.Error(t, err)
	assert.True(t, schema.IsObjectNotFoundErr(err))
	assert.Contains(t, err.Error(), "orders_select_own", "error should list known objects")

	after, err := os.ReadFile(st.TablePath("orders", schema.ArtifactRLS))
	require.NoError(t, err)
	assert.Equal(t, string(before), string(after), "aborted update must not touch the file")
}

func TestNamedPolicyUpdateReplacesOneObject(t *testing.T) {
	r, st := newTestRunner(t, ordersIntrospector())
	ctx := context.Background()

	_, err := r.GeneratePolicies(ctx, PolicyOptions{Table: "orders"})
	require.NoError(t, err)

	rep, err := r.GeneratePolicies(ctx, PolicyOptions{Table: "orders", PolicyName: "orders_select_own"})
	require.NoError(t, err)
	assert.Equal(t, 1, rep.ObjectsReplaced)

	state, err := st.Snapshot(st.TablePath("orders", schema.ArtifactRLS))
	require.NoError(t, err)
	counts := map[string]int{}
	for _, k := range state.ExistingKeys {
		counts[k]++
	}
	assert.Equal(t, 1, counts["orders_select_own"], "named update must not duplicate the object")
}

func TestDryRunWritesNothing(t *testing.T) {
	r, st := newTestRunner(t, ordersIntrospector())
	var preview bytes.Buffer

	rep, err := r.GeneratePolicies(context.Background(), PolicyOptions{
		Table:      "orders",
		RunOptions: RunOptions{DryRun: &preview},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, rep.TablesProcessed)
	assert.Contains(t, preview.String(), "CREATE POLICY")

	state, err := st.Snapshot(st.TablePath("orders", schema.ArtifactRLS))
	require.NoError(t, err)
	assert.False(t, state.Exists(), "dry-run must not write files")
	_, err = os.Stat(st.Root() + "/sql")
	assert.True(t, os.IsNotExist(err), "dry-run must not create directories")
}

func TestGenerateTriggersSkipsTablesWithoutRules(t *testing.T) {
	inspect := &fakeIntrospector{tables: map[string][]schema.Column{
		"plain": {{Name: "id", Type: "int8"}, {Name: "note", Type: "text"}},
	}}
	r, st := newTestRunner(t, inspect)

	rep, err := r.GenerateTriggers(context.Background(), TriggerOptions{Table: "plain"})
	require.NoError(t, err)
	assert.Equal(t, 1, rep.TablesProcessed)
	assert.Zero(t, rep.ObjectsAdded)

	state, err := st.Snapshot(st.TablePath("plain", schema.ArtifactTriggers))
	require.NoError(t, err)
	assert.False(t, state.Exists(), "no suggestions means no file and no folder")
}

func TestGenerateTriggersWritesFunctionsAndTriggers(t *testing.T) {
	r, st := newTestRunner(t, ordersIntrospector())

	rep, err := r.GenerateTriggers(context.Background(), TriggerOptions{Table: "orders"})
	require.NoError(t, err)
	assert.Greater(t, rep.ObjectsAdded, 0)

	state, err := st.Snapshot(st.TablePath("orders", schema.ArtifactTriggers))
	require.NoError(t, err)
	assert.Contains(t, state.ExistingKeys, "orders_set_updated_at")
	assert.Contains(t, state.ExistingKeys, "orders_set_updated_at_fn")
	assert.Contains(t, state.ExistingKeys, "orders_timestamp_management")
}

func TestGenerateIndexesDedupesExisting(t *testing.T) {
	inspect := ordersIntrospector()
	inspect.indexes = map[string][]string{"orders": {"idx_orders_user_id"}}
	r, st := newTestRunner(t, inspect)

	_, err := r.GenerateIndexes(context.Background(), IndexOptions{Table: "orders"})
	require.NoError(t, err)

	state, err := st.Snapshot(st.TablePath("orders", schema.ArtifactIndexes))
	require.NoError(t, err)
	assert.NotContains(t, state.ExistingKeys, "idx_orders_user_id",
		"an index the database already has must not be regenerated")
	assert.Contains(t, state.ExistingKeys, "idx_orders_created_at")
}

func TestGenerateFunctionMergesByName(t *testing.T) {
	r, st := newTestRunner(t, nil)
	ctx := context.Background()

	_, err := r.GenerateFunction(ctx, FunctionOptions{Name: "current_user_id", Kind: schema.FunctionAuth})
	require.NoError(t, err)
	rep, err := r.GenerateFunction(ctx, FunctionOptions{Name: "current_user_id", Kind: schema.FunctionAuth})
	require.NoError(t, err)
	assert.Equal(t, 1, rep.ObjectsReplaced)

	state, err := st.Snapshot(st.SchemaWidePath(schema.ArtifactFunctions))
	require.NoError(t, err)
	assert.Equal(t, []string{"current_user_id"}, state.ExistingKeys)
}

func TestGenerateFunctionRejectsBadName(t *testing.T) {
	r, _ := newTestRunner(t, nil)

	_, err := r.GenerateFunction(context.Background(), FunctionOptions{Name: "has spaces", Kind: schema.FunctionCustom})
	require.Error(t, err)
	assert.True(t, schema.IsValidationErr(err))
}

func TestAnalyzeWritesReportWholesale(t *testing.T) {
	r, st := newTestRunner(t, ordersIntrospector())
	ctx := context.Background()

	_, err := r.Analyze(ctx, AnalyzeOptions{Table: "orders"})
	require.NoError(t, err)
	data, err := os.ReadFile(st.TablePath("orders", schema.ArtifactAnalysis))
	require.NoError(t, err)
	assert.Contains(t, string(data), "Access pattern: user_specific")
	assert.Contains(t, string(data), "Trigger suggestions:")

	// A second run rewrites rather than appends.
	_, err = r.Analyze(ctx, AnalyzeOptions{Table: "orders"})
	require.NoError(t, err)
	again, err := os.ReadFile(st.TablePath("orders", schema.ArtifactAnalysis))
	require.NoError(t, err)
	assert.Equal(t, len(data), len(again))
}

func TestGenerateRoles(t *testing.T) {
	r, st := newTestRunner(t, nil)

	rep, err := r.GenerateRoles(RunOptions{})
	require.NoError(t, err)
	assert.Equal(t, 4, rep.ObjectsAdded)

	state, err := st.Snapshot(st.RolesPath())
	require.NoError(t, err)
	assert.Contains(t, state.ExistingKeys, "web_anon")
	assert.Contains(t, state.ExistingKeys, "authenticator")
}
