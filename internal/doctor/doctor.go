// Package doctor provides health checks for a pgrestify project.
//
// The doctor command validates that both sides of the tool are in order: the
// generated sql/ tree on disk, and the database the artifacts are meant for.
// A missing database degrades the database checks to warnings; it never
// fails the run on its own.
//
// Example usage:
//
//	d := doctor.New(db, store.New("."), configPath)
//	report, err := d.Run(ctx)
//	if err != nil {
//		log.Fatal(err)
//	}
//	report.Print(os.Stdout, true) // verbose=true
package doctor

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/lib/pq"

	"github.com/webcodedsoft/pgrestify-sub004/internal/sqlgen"
	"github.com/webcodedsoft/pgrestify-sub004/internal/store"
	"github.com/webcodedsoft/pgrestify-sub004/internal/validate"
)

// Status represents the result of a health check.
type Status int

const (
	// StatusPass indicates the check passed.
	StatusPass Status = iota
	// StatusWarn indicates a non-critical issue.
	StatusWarn
	// StatusFail indicates a critical issue that will cause failures.
	StatusFail
)

func (s Status) String() string {
	switch s {
	case StatusPass:
		return "pass"
	case StatusWarn:
		return "warn"
	case StatusFail:
		return "fail"
	default:
		return "unknown"
	}
}

// Symbol returns a status indicator symbol for terminal output.
func (s Status) Symbol() string {
	switch s {
	case StatusPass:
		return "✓"
	case StatusWarn:
		return "⚠"
	case StatusFail:
		return "✗"
	default:
		return "?"
	}
}

// CheckResult represents the outcome of a single health check.
type CheckResult struct {
	// Category groups related checks (e.g., "Project", "Database").
	Category string

	// Name is a short identifier for the check.
	Name string

	// Status is the check outcome.
	Status Status

	// Message is a human-readable description of the result.
	Message string

	// Details provides additional information for verbose output.
	Details string

	// FixHint suggests how to resolve issues.
	FixHint string
}

// Report contains all health check results.
type Report struct {
	Checks []CheckResult

	// Summary counts.
	Passed   int
	Warnings int
	Errors   int
}

// AddCheck adds a check result and updates summary counts.
func (r *Report) AddCheck(check CheckResult) {
	r.Checks = append(r.Checks, check)
	switch check.Status {
	case StatusPass:
		r.Passed++
	case StatusWarn:
		r.Warnings++
	case StatusFail:
		r.Errors++
	}
}

// Print writes the report to the given writer.
func (r *Report) Print(w io.Writer, verbose bool) {
	// Group checks by category
	categories := make(map[string][]CheckResult)
	var categoryOrder []string
	for _, check := range r.Checks {
		if _, exists := categories[check.Category]; !exists {
			categoryOrder = append(categoryOrder, check.Category)
		}
		categories[check.Category] = append(categories[check.Category], check)
	}

	// Print each category
	for _, cat := range categoryOrder {
		_, _ = fmt.Fprintf(w, "\n%s\n", cat)
		for _, check := range categories[cat] {
			_, _ = fmt.Fprintf(w, "  %s %s\n", check.Status.Symbol(), check.Message)
			if verbose && check.Details != "" {
				// Indent details
				for _, line := range strings.Split(check.Details, "\n") {
					_, _ = fmt.Fprintf(w, "      %s\n", line)
				}
			}
			if check.Status != StatusPass && check.FixHint != "" {
				_, _ = fmt.Fprintf(w, "      Fix: %s\n", check.FixHint)
			}
		}
	}

	// Print summary
	_, _ = fmt.Fprintf(w, "\nSummary: %d passed, %d warnings, %d errors\n",
		r.Passed, r.Warnings, r.Errors)
}

// HasErrors returns true if any check failed.
func (r *Report) HasErrors() bool {
	return r.Errors > 0
}

// Doctor performs health checks on a pgrestify project and its database.
type Doctor struct {
	db         *sql.DB // nil when no database is configured
	store      *store.Store
	configPath string // empty when running on defaults
}

// New creates a new Doctor instance. db may be nil.
func New(db *sql.DB, st *store.Store, configPath string) *Doctor {
	return &Doctor{db: db, store: st, configPath: configPath}
}

// Run executes all health checks and returns a report.
func (d *Doctor) Run(ctx context.Context) (*Report, error) {
	report := &Report{}

	d.checkProject(report)
	d.checkGeneratedTree(report)
	if err := d.checkDatabase(ctx, report); err != nil {
		return nil, fmt.Errorf("checking database: %w", err)
	}

	return report, nil
}

// checkProject validates the configuration and project layout.
func (d *Doctor) checkProject(report *Report) {
	if d.configPath != "" {
		report.AddCheck(CheckResult{
			Category: "Project",
			Name:     "config",
			Status:   StatusPass,
			Message:  fmt.Sprintf("Config file found at %s", d.configPath),
		})
	} else {
		report.AddCheck(CheckResult{
			Category: "Project",
			Name:     "config",
			Status:   StatusWarn,
			Message:  "No pgrestify.yaml found, running on defaults",
			FixHint:  "Run 'pgrestify init' to scaffold a project",
		})
	}

	tables, err := d.store.TableDirs()
	if err != nil {
		report.AddCheck(CheckResult{
			Category: "Project",
			Name:     "sql-tree",
			Status:   StatusFail,
			Message:  "Cannot read the sql/schemas directory",
			Details:  err.Error(),
		})
		return
	}
	if len(tables) == 0 {
		report.AddCheck(CheckResult{
			Category: "Project",
			Name:     "sql-tree",
			Status:   StatusWarn,
			Message:  "No table folders under sql/schemas yet",
			FixHint:  "Run 'pgrestify generate policy <table>' to generate your first artifact",
		})
		return
	}
	report.AddCheck(CheckResult{
		Category: "Project",
		Name:     "sql-tree",
		Status:   StatusPass,
		Message:  fmt.Sprintf("Generated SQL for %d tables", len(tables)),
		Details:  strings.Join(tables, "\n"),
	})
}

// checkGeneratedTree runs the offline tree validation and reports issues.
func (d *Doctor) checkGeneratedTree(report *Report) {
	res, err := validate.Tree(d.store, nil)
	if err != nil {
		report.AddCheck(CheckResult{
			Category: "Generated SQL",
			Name:     "validate",
			Status:   StatusFail,
			Message:  "Tree validation could not run",
			Details:  err.Error(),
		})
		return
	}

	if res.FilesChecked == 0 {
		report.AddCheck(CheckResult{
			Category: "Generated SQL",
			Name:     "validate",
			Status:   StatusWarn,
			Message:  "Nothing generated yet",
		})
		return
	}

	if res.OK() {
		report.AddCheck(CheckResult{
			Category: "Generated SQL",
			Name:     "validate",
			Status:   StatusPass,
			Message:  fmt.Sprintf("%d files valid, no duplicate objects", res.FilesChecked),
		})
		return
	}

	report.AddCheck(CheckResult{
		Category: "Generated SQL",
		Name:     "validate",
		Status:   StatusFail,
		Message:  fmt.Sprintf("%d problems in the generated tree", len(res.Issues)),
		Details:  validate.FormatIssues(res.Issues),
		FixHint:  "Regenerate the affected files with --replace, or fix them by hand",
	})
}

// checkDatabase validates connectivity, RLS enablement, and the PostgREST
// roles. All checks here degrade to warnings when no database is configured.
func (d *Doctor) checkDatabase(ctx context.Context, report *Report) error {
	if d.db == nil {
		report.AddCheck(CheckResult{
			Category: "Database",
			Name:     "connect",
			Status:   StatusWarn,
			Message:  "No database configured, skipping live checks",
			FixHint:  "Set DATABASE_URL or the database section in pgrestify.yaml",
		})
		return nil
	}

	if err := d.db.PingContext(ctx); err != nil {
		report.AddCheck(CheckResult{
			Category: "Database",
			Name:     "connect",
			Status:   StatusWarn,
			Message:  "Database unreachable, skipping live checks",
			Details:  err.Error(),
			FixHint:  "Check the connection settings; generation still works in template mode",
		})
		return nil
	}
	report.AddCheck(CheckResult{
		Category: "Database",
		Name:     "connect",
		Status:   StatusPass,
		Message:  "Database connection OK",
	})

	if err := d.checkRLSCoverage(ctx, report); err != nil {
		return err
	}
	return d.checkRoles(ctx, report)
}

// checkRLSCoverage compares generated policy folders against tables that
// actually have row level security enabled.
func (d *Doctor) checkRLSCoverage(ctx context.Context, report *Report) error {
	rows, err := d.db.QueryContext(ctx, `
		SELECT c.relname, c.relrowsecurity
		FROM pg_class c
		JOIN pg_namespace n ON n.oid = c.relnamespace
		WHERE n.nspname = 'public' AND c.relkind = 'r'
		ORDER BY c.relname
	`)
	if err != nil {
		return fmt.Errorf("querying RLS status: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var total int
	var disabled []string
	for rows.Next() {
		var name string
		var enabled bool
		if err := rows.Scan(&name, &enabled); err != nil {
			return fmt.Errorf("scanning RLS row: %w", err)
		}
		total++
		if !enabled {
			disabled = append(disabled, name)
		}
	}
	if err := rows.Err(); err != nil {
		return err
	}

	if total == 0 {
		report.AddCheck(CheckResult{
			Category: "Database",
			Name:     "rls",
			Status:   StatusWarn,
			Message:  "Schema public has no tables",
		})
		return nil
	}

	if len(disabled) == 0 {
		report.AddCheck(CheckResult{
			Category: "Database",
			Name:     "rls",
			Status:   StatusPass,
			Message:  fmt.Sprintf("Row level security enabled on all %d tables", total),
		})
		return nil
	}

	sort.Strings(disabled)
	report.AddCheck(CheckResult{
		Category: "Database",
		Name:     "rls",
		Status:   StatusWarn,
		Message:  fmt.Sprintf("%d of %d tables have RLS disabled", len(disabled), total),
		Details:  strings.Join(disabled, "\n"),
		FixHint:  "Generate and apply policies: pgrestify generate policy --all-tables",
	})
	return nil
}

// checkRoles verifies the PostgREST request roles the generated policies
// reference actually exist.
func (d *Doctor) checkRoles(ctx context.Context, report *Report) error {
	expected := []string{"authenticator", sqlgen.RoleAnon, sqlgen.RoleUser, sqlgen.RoleAdmin}

	rows, err := d.db.QueryContext(ctx, `
		SELECT rolname FROM pg_roles WHERE rolname = ANY($1)
	`, pq.Array(expected))
	if err != nil {
		return fmt.Errorf("querying roles: %w", err)
	}
	defer func() { _ = rows.Close() }()

	present := map[string]bool{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return fmt.Errorf("scanning role: %w", err)
		}
		present[name] = true
	}
	if err := rows.Err(); err != nil {
		return err
	}

	var missing []string
	for _, role := range expected {
		if !present[role] {
			missing = append(missing, role)
		}
	}

	if len(missing) == 0 {
		report.AddCheck(CheckResult{
			Category: "Database",
			Name:     "roles",
			Status:   StatusPass,
			Message:  "PostgREST roles present (authenticator, web_anon, web_user, web_admin)",
		})
		return nil
	}

	report.AddCheck(CheckResult{
		Category: "Database",
		Name:     "roles",
		Status:   StatusFail,
		Message:  fmt.Sprintf("Missing roles: %s", strings.Join(missing, ", ")),
		FixHint:  "Apply sql/roles.sql (generated by 'pgrestify init')",
	})
	return nil
}
