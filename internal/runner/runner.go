// Package runner orchestrates one artifact-generation run: detect, generate,
// merge, write, report. Collaborators arrive as injected ports; every
// database-backed step is wrapped in error isolation so a run always produces
// something usable, with warnings, rather than failing outright.
package runner

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/webcodedsoft/pgrestify-sub004/internal/detect"
	"github.com/webcodedsoft/pgrestify-sub004/internal/merge"
	"github.com/webcodedsoft/pgrestify-sub004/internal/report"
	"github.com/webcodedsoft/pgrestify-sub004/internal/schema"
	"github.com/webcodedsoft/pgrestify-sub004/internal/sqlgen"
	"github.com/webcodedsoft/pgrestify-sub004/internal/store"
)

// Introspector is the schema-reading port. A nil Introspector on the Runner
// means no database is reachable and every run works in template mode.
type Introspector interface {
	ListTables(ctx context.Context) ([]string, error)
	AnalyzeTable(ctx context.Context, table string) ([]schema.Column, error)
	DetectUserOwnershipPatterns(ctx context.Context) (map[string]string, error)
	GetTablePolicies(ctx context.Context, table string) ([]schema.ExistingPolicy, error)
	CheckRLSStatus(ctx context.Context) (map[string]bool, error)
	ListIndexNames(ctx context.Context, table string) ([]string, error)
}

// PerfAnalyzer is the query-statistics port used by dynamic index analysis.
type PerfAnalyzer interface {
	RecommendIndexes(ctx context.Context, table string, columns []schema.Column) ([]schema.IndexRecommendation, error)
	UnusedIndexes(ctx context.Context, table string) ([]string, error)
}

// Runner drives artifact generation for one CLI invocation.
type Runner struct {
	Inspect Introspector // nil = template mode
	Perf    PerfAnalyzer // nil = no dynamic analysis
	Store   *store.Store
	Report  report.Reporter
	Command string           // provenance line for new-file headers
	Now     func() time.Time // defaults to time.Now
}

// New creates a Runner with the required collaborators. Inspect and Perf stay
// nil until a database is attached.
func New(st *store.Store, rep report.Reporter) *Runner {
	if rep == nil {
		rep = report.Silent{}
	}
	return &Runner{Store: st, Report: rep, Now: time.Now}
}

func (r *Runner) now() time.Time {
	if r.Now != nil {
		return r.Now()
	}
	return time.Now()
}

// RunOptions are the write-strategy knobs shared by every generation command.
type RunOptions struct {
	Mode      merge.Mode
	DryRun    io.Writer // non-nil = preview only, nothing is written
	Force     bool      // skip interactive confirmation
	AllTables bool
}

// RunReport accumulates what a run did, across all tables in a batch.
type RunReport struct {
	TablesProcessed int
	ObjectsAdded    int
	ObjectsReplaced int
	Warnings        int
}

// PolicyOptions configure one generate-policy run.
type PolicyOptions struct {
	RunOptions
	Table       string
	Pattern     schema.PatternKind // explicit override; empty = detect
	OwnerColumn string
	PolicyName  string // single named-policy update
}

// GeneratePolicies runs the RLS artifact pipeline for one table or, with
// AllTables, for every table in the schema. Batch runs isolate failures per
// table; a single-table run returns its error.
func (r *Runner) GeneratePolicies(ctx context.Context, opts PolicyOptions) (*RunReport, error) {
	rep := &RunReport{}
	tables, err := r.resolveTables(ctx, opts.Table, opts.AllTables)
	if err != nil {
		return rep, err
	}

	ownership := r.ownershipMap(ctx, rep)
	rlsStatus := r.rlsStatus(ctx, rep)

	for _, table := range tables {
		if err := r.policiesForTable(ctx, table, ownership, rlsStatus, opts, rep); err != nil {
			if !opts.AllTables {
				return rep, err
			}
			r.Report.Errorf("%s: %v", table, err)
			rep.Warnings++
			continue
		}
		rep.TablesProcessed++
	}
	return rep, nil
}

func (r *Runner) policiesForTable(ctx context.Context, table string, ownership map[string]string, rlsStatus map[string]bool, opts PolicyOptions, rep *RunReport) error {
	if err := schema.ValidateTableName(table); err != nil {
		return err
	}

	ts, err := r.tableSchema(ctx, table, rlsStatus, rep)
	if err != nil {
		return err
	}
	decision := detect.DetectPolicyPattern(table, ts.Columns, ownership, detect.Override{
		Pattern:     opts.Pattern,
		OwnerColumn: opts.OwnerColumn,
	})
	if decision.OwnerColumn != "" {
		r.Report.Detectedf("%s: pattern %s on column %s (%s)", table, decision.Kind, decision.OwnerColumn, decision.Reason)
	} else {
		r.Report.Detectedf("%s: pattern %s (%s)", table, decision.Kind, decision.Reason)
	}

	path := r.Store.TablePath(table, schema.ArtifactRLS)
	state, err := r.Store.Snapshot(path)
	if err != nil {
		return err
	}

	var res merge.Result
	if opts.PolicyName != "" {
		frag := sqlgen.RegeneratePolicy(ts, decision, opts.PolicyName)
		res, err = merge.ReplaceNamed(state.ExistingText, "policy", opts.PolicyName, frag)
		if err != nil {
			// Abort before Write: the file stays untouched.
			return err
		}
	} else {
		artifact := sqlgen.GeneratePolicies(ts, decision)
		res = merge.Merge(state.ExistingText, artifact, opts.Mode, sqlgen.Header(r.Command, r.now()))
	}

	return r.deliver(path, res, opts.RunOptions, rep)
}

// TriggerOptions configure one trigger-generation run.
type TriggerOptions struct {
	RunOptions
	Table   string
	Dynamic bool
}

// SuggestTriggers computes trigger suggestions for a table without writing
// anything. The suggest/analyze commands print these.
func (r *Runner) SuggestTriggers(ctx context.Context, table string) ([]schema.TriggerSuggestion, error) {
	if err := schema.ValidateTableName(table); err != nil {
		return nil, err
	}
	rep := &RunReport{}
	ts, err := r.tableSchema(ctx, table, nil, rep)
	if err != nil {
		return nil, err
	}
	return detect.AnalyzeTableForTriggers(table, ts.Columns), nil
}

// GenerateTriggers writes the triggers.sql artifact for the matched tables.
// Tables with no matching rules are skipped entirely so their folders are
// never created.
func (r *Runner) GenerateTriggers(ctx context.Context, opts TriggerOptions) (*RunReport, error) {
	rep := &RunReport{}
	tables, err := r.resolveTables(ctx, opts.Table, opts.AllTables)
	if err != nil {
		return rep, err
	}

	for _, table := range tables {
		if err := r.triggersForTable(ctx, table, opts, rep); err != nil {
			if !opts.AllTables {
				return rep, err
			}
			r.Report.Errorf("%s: %v", table, err)
			rep.Warnings++
			continue
		}
		rep.TablesProcessed++
	}
	return rep, nil
}

func (r *Runner) triggersForTable(ctx context.Context, table string, opts TriggerOptions, rep *RunReport) error {
	if err := schema.ValidateTableName(table); err != nil {
		return err
	}

	ts, err := r.tableSchema(ctx, table, nil, rep)
	if err != nil {
		return err
	}
	suggestions := detect.AnalyzeTableForTriggers(table, ts.Columns)
	if len(suggestions) == 0 {
		r.Report.Infof("%s: no trigger rules matched", table)
		return nil
	}
	for _, s := range suggestions {
		r.Report.Detectedf("%s: trigger %s [%s] (%s)", table, s.Name, s.Type, s.Reason)
	}

	path := r.Store.TablePath(table, schema.ArtifactTriggers)
	state, err := r.Store.Snapshot(path)
	if err != nil {
		return err
	}

	artifact := sqlgen.GenerateTriggers(ts, suggestions)
	res := merge.Merge(state.ExistingText, artifact, opts.Mode, sqlgen.Header(r.Command, r.now()))
	return r.deliver(path, res, opts.RunOptions, rep)
}

// IndexOptions configure one index-generation run.
type IndexOptions struct {
	RunOptions
	Table           string
	Dynamic         bool // use live query statistics when available
	PerformanceOnly bool // keep only High/Critical impact recommendations
}

// SuggestIndexes computes index recommendations for a table without writing
// anything.
func (r *Runner) SuggestIndexes(ctx context.Context, table string, opts IndexOptions) ([]schema.IndexRecommendation, error) {
	if err := schema.ValidateTableName(table); err != nil {
		return nil, err
	}
	rep := &RunReport{}
	ts, err := r.tableSchema(ctx, table, nil, rep)
	if err != nil {
		return nil, err
	}
	return r.recommendIndexes(ctx, table, ts.Columns, opts, rep), nil
}

// GenerateIndexes writes the indexes.sql artifact for the matched tables.
func (r *Runner) GenerateIndexes(ctx context.Context, opts IndexOptions) (*RunReport, error) {
	rep := &RunReport{}
	tables, err := r.resolveTables(ctx, opts.Table, opts.AllTables)
	if err != nil {
		return rep, err
	}

	for _, table := range tables {
		if err := r.indexesForTable(ctx, table, opts, rep); err != nil {
			if !opts.AllTables {
				return rep, err
			}
			r.Report.Errorf("%s: %v", table, err)
			rep.Warnings++
			continue
		}
		rep.TablesProcessed++
	}
	return rep, nil
}

func (r *Runner) indexesForTable(ctx context.Context, table string, opts IndexOptions, rep *RunReport) error {
	if err := schema.ValidateTableName(table); err != nil {
		return err
	}

	ts, err := r.tableSchema(ctx, table, nil, rep)
	if err != nil {
		return err
	}
	recs := r.recommendIndexes(ctx, table, ts.Columns, opts, rep)
	if len(recs) == 0 {
		r.Report.Infof("%s: no index recommendations", table)
		return nil
	}
	for _, rec := range recs {
		r.Report.Detectedf("%s: index %s on (%s), impact %s", table, rec.IndexName, joinColumns(rec.Columns), rec.Impact)
	}

	path := r.Store.TablePath(table, schema.ArtifactIndexes)
	state, err := r.Store.Snapshot(path)
	if err != nil {
		return err
	}

	artifact := sqlgen.GenerateIndexes(table, recs)
	res := merge.Merge(state.ExistingText, artifact, opts.Mode, sqlgen.Header(r.Command, r.now()))
	return r.deliver(path, res, opts.RunOptions, rep)
}

// recommendIndexes picks the dynamic or column-only path, filters by impact,
// and drops recommendations colliding with indexes the database already has.
func (r *Runner) recommendIndexes(ctx context.Context, table string, columns []schema.Column, opts IndexOptions, rep *RunReport) []schema.IndexRecommendation {
	var recs []schema.IndexRecommendation
	if opts.Dynamic && r.Perf != nil {
		dynamic, err := r.Perf.RecommendIndexes(ctx, table, columns)
		if err != nil {
			r.Report.Warnf("%s: performance analysis unavailable, using column heuristics: %v", table, err)
			rep.Warnings++
		} else {
			recs = dynamic
		}
	}
	if recs == nil {
		recs = detect.SuggestIndexes(table, columns)
	}

	recs = detect.FilterByImpact(recs, opts.PerformanceOnly)

	if r.Inspect != nil {
		existing, err := r.Inspect.ListIndexNames(ctx, table)
		if err != nil {
			r.Report.Warnf("%s: could not list existing indexes: %v", table, err)
			rep.Warnings++
		} else {
			recs = detect.DedupeExisting(recs, existing)
		}
	}
	return recs
}

// AnalyzeOptions configure one analyze run.
type AnalyzeOptions struct {
	RunOptions
	Table   string
	Dynamic bool
}

// Analyze writes the analysis.sql report for the matched tables. The report
// is commentary, not objects, so it is rewritten wholesale every run.
func (r *Runner) Analyze(ctx context.Context, opts AnalyzeOptions) (*RunReport, error) {
	rep := &RunReport{}
	tables, err := r.resolveTables(ctx, opts.Table, opts.AllTables)
	if err != nil {
		return rep, err
	}

	ownership := r.ownershipMap(ctx, rep)
	rlsStatus := r.rlsStatus(ctx, rep)

	for _, table := range tables {
		if err := r.analyzeTable(ctx, table, ownership, rlsStatus, opts, rep); err != nil {
			if !opts.AllTables {
				return rep, err
			}
			r.Report.Errorf("%s: %v", table, err)
			rep.Warnings++
			continue
		}
		rep.TablesProcessed++
	}
	return rep, nil
}

func (r *Runner) analyzeTable(ctx context.Context, table string, ownership map[string]string, rlsStatus map[string]bool, opts AnalyzeOptions, rep *RunReport) error {
	if err := schema.ValidateTableName(table); err != nil {
		return err
	}

	ts, err := r.tableSchema(ctx, table, rlsStatus, rep)
	if err != nil {
		return err
	}
	in := sqlgen.AnalysisInput{
		Table:    ts,
		Decision: detect.DetectPolicyPattern(table, ts.Columns, ownership, detect.Override{}),
		Triggers: detect.AnalyzeTableForTriggers(table, ts.Columns),
		Indexes: r.recommendIndexes(ctx, table, ts.Columns, IndexOptions{
			RunOptions: opts.RunOptions,
			Table:      table,
			Dynamic:    opts.Dynamic,
		}, rep),
	}

	if opts.Dynamic && r.Perf != nil {
		unused, err := r.Perf.UnusedIndexes(ctx, table)
		if err != nil {
			r.Report.Warnf("%s: unused-index analysis unavailable: %v", table, err)
			rep.Warnings++
		}
		for _, name := range unused {
			in.Warnings = append(in.Warnings, fmt.Sprintf("index %s has never been scanned", name))
		}
	}
	if len(ts.Columns) == 0 {
		in.Warnings = append(in.Warnings, "no column metadata available, analysis ran in template mode")
	}

	text := sqlgen.RenderAnalysis(in, r.now())
	path := r.Store.TablePath(table, schema.ArtifactAnalysis)
	if opts.DryRun != nil {
		r.preview(opts.DryRun, path, text)
		return nil
	}
	return r.Store.Write(path, text)
}

// FunctionOptions configure one generate-function run.
type FunctionOptions struct {
	RunOptions
	Name string
	Kind schema.FunctionKind
}

// GenerateFunction merges a schema-wide function template into
// sql/schemas/functions.sql.
func (r *Runner) GenerateFunction(ctx context.Context, opts FunctionOptions) (*RunReport, error) {
	rep := &RunReport{}
	if err := schema.ValidateIdentifier("function", opts.Name); err != nil {
		return rep, err
	}

	path := r.Store.SchemaWidePath(schema.ArtifactFunctions)
	state, err := r.Store.Snapshot(path)
	if err != nil {
		return rep, err
	}

	artifact := sqlgen.GenerateFunction(opts.Name, opts.Kind)
	res := merge.Merge(state.ExistingText, artifact, opts.Mode, sqlgen.Header(r.Command, r.now()))
	if err := r.deliver(path, res, opts.RunOptions, rep); err != nil {
		return rep, err
	}
	return rep, nil
}

// GenerateRoles merges the PostgREST role starter into sql/roles.sql.
func (r *Runner) GenerateRoles(opts RunOptions) (*RunReport, error) {
	rep := &RunReport{}
	path := r.Store.RolesPath()
	state, err := r.Store.Snapshot(path)
	if err != nil {
		return rep, err
	}

	res := merge.Merge(state.ExistingText, sqlgen.GenerateRoles(), opts.Mode, sqlgen.Header(r.Command, r.now()))
	if err := r.deliver(path, res, opts, rep); err != nil {
		return rep, err
	}
	return rep, nil
}

// deliver is the Write/Report tail of the state machine: preview on dry-run,
// persist otherwise, then fold the merge counts into the run report.
func (r *Runner) deliver(path string, res merge.Result, opts RunOptions, rep *RunReport) error {
	if res.Degraded {
		r.Report.Warnf("%s: existing content could not be parsed into objects, appended without deduplication", path)
		rep.Warnings++
	}

	if opts.DryRun != nil {
		r.preview(opts.DryRun, path, res.Text)
	} else if err := r.Store.Write(path, res.Text); err != nil {
		return err
	}

	rep.ObjectsAdded += res.Added
	rep.ObjectsReplaced += res.Replaced
	return nil
}

func (r *Runner) preview(w io.Writer, path, text string) {
	fmt.Fprintf(w, "-- ============================================================\n")
	fmt.Fprintf(w, "-- %s\n", path)
	fmt.Fprintf(w, "-- ============================================================\n")
	fmt.Fprint(w, text)
	fmt.Fprintln(w)
}

// resolveTables expands --all-tables against the live schema, or validates
// the single requested table.
func (r *Runner) resolveTables(ctx context.Context, table string, allTables bool) ([]string, error) {
	if allTables {
		if r.Inspect == nil {
			return nil, fmt.Errorf("--all-tables requires a reachable database: %w", schema.ErrConnectionUnavailable)
		}
		tables, err := r.Inspect.ListTables(ctx)
		if err != nil {
			return nil, fmt.Errorf("listing tables: %w", err)
		}
		return tables, nil
	}
	if table == "" {
		return nil, &schema.ValidationError{Field: "table", Value: table, Reason: "must not be empty"}
	}
	return []string{table}, nil
}

// tableSchema assembles the introspected view of one table, degrading to an
// empty column set when the database cannot answer. Sub-steps fail
// independently: a policy-read failure still leaves the columns usable. Only
// a validation failure (the table does not exist) aborts, so batch runs can
// skip it and continue.
func (r *Runner) tableSchema(ctx context.Context, table string, rlsStatus map[string]bool, rep *RunReport) (schema.TableSchema, error) {
	ts := schema.TableSchema{Name: table, RLSEnabled: rlsStatus[table]}
	if r.Inspect == nil {
		return ts, nil
	}

	columns, err := r.Inspect.AnalyzeTable(ctx, table)
	switch {
	case schema.IsValidationErr(err):
		return schema.TableSchema{}, err
	case err != nil:
		r.Report.Warnf("%s: column analysis unavailable, template mode: %v", table, err)
		rep.Warnings++
	default:
		ts.Columns = columns
	}

	policies, err := r.Inspect.GetTablePolicies(ctx, table)
	if err != nil {
		r.Report.Warnf("%s: could not read existing policies: %v", table, err)
		rep.Warnings++
	} else {
		ts.Policies = policies
	}

	return ts, nil
}

// ownershipMap runs the whole-schema ownership analysis once per run.
// Failure downgrades to column-only detection with a warning.
func (r *Runner) ownershipMap(ctx context.Context, rep *RunReport) map[string]string {
	if r.Inspect == nil {
		return nil
	}
	ownership, err := r.Inspect.DetectUserOwnershipPatterns(ctx)
	if err != nil {
		r.Report.Warnf("ownership analysis unavailable: %v", err)
		rep.Warnings++
		return nil
	}
	return ownership
}

func (r *Runner) rlsStatus(ctx context.Context, rep *RunReport) map[string]bool {
	if r.Inspect == nil {
		return nil
	}
	status, err := r.Inspect.CheckRLSStatus(ctx)
	if err != nil {
		r.Report.Warnf("RLS status check unavailable: %v", err)
		rep.Warnings++
		return nil
	}
	return status
}

func joinColumns(columns []string) string {
	j := sqlgen.NewJoiner(", ")
	j.Add(columns...)
	return j.String()
}
