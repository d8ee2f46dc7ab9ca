// Package inspect reads table metadata from a live PostgreSQL database:
// columns, existing row-level security policies, RLS enablement, and index
// names. Every method takes a context and returns plain data from the shared
// schema package; callers decide how to degrade when the database is away.
package inspect

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/webcodedsoft/pgrestify-sub004/internal/schema"
)

// connectTimeout bounds the initial reachability ping.
const connectTimeout = 5 * time.Second

// Introspector answers schema questions over one database connection.
type Introspector struct {
	db *sql.DB
}

// Connect opens and pings a connection. An unreachable database is reported
// as ErrConnectionUnavailable so callers can fall back to template mode
// instead of treating it as fatal.
func Connect(ctx context.Context, dsn string) (*Introspector, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", schema.ErrConnectionUnavailable, err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: %v", schema.ErrConnectionUnavailable, err)
	}

	return &Introspector{db: db}, nil
}

// NewWithDB wraps an already-open connection. Used by doctor and tests.
func NewWithDB(db *sql.DB) *Introspector {
	return &Introspector{db: db}
}

// Close releases the connection.
func (i *Introspector) Close() error {
	return i.db.Close()
}

// ListTables returns the base tables of the public schema in name order.
func (i *Introspector) ListTables(ctx context.Context) ([]string, error) {
	rows, err := i.db.QueryContext(ctx, `
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = 'public' AND table_type = 'BASE TABLE'
		ORDER BY table_name
	`)
	if err != nil {
		return nil, fmt.Errorf("listing tables: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var tables []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scanning table name: %w", err)
		}
		tables = append(tables, name)
	}
	return tables, rows.Err()
}

// AnalyzeTable returns the columns of one table in ordinal order. A table
// without columns does not exist, which surfaces as a ValidationError so
// batch runs skip it and continue.
func (i *Introspector) AnalyzeTable(ctx context.Context, table string) ([]schema.Column, error) {
	if err := schema.ValidateTableName(table); err != nil {
		return nil, err
	}

	rows, err := i.db.QueryContext(ctx, `
		SELECT column_name, udt_name, is_nullable = 'YES'
		FROM information_schema.columns
		WHERE table_schema = 'public' AND table_name = $1
		ORDER BY ordinal_position
	`, table)
	if err != nil {
		return nil, fmt.Errorf("analyzing table %s: %w", table, err)
	}
	defer func() { _ = rows.Close() }()

	var columns []schema.Column
	for rows.Next() {
		var c schema.Column
		if err := rows.Scan(&c.Name, &c.Type, &c.Nullable); err != nil {
			return nil, fmt.Errorf("scanning column: %w", err)
		}
		columns = append(columns, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(columns) == 0 {
		return nil, &schema.ValidationError{Field: "table", Value: table, Reason: "not found in schema public"}
	}
	return columns, nil
}

// DetectUserOwnershipPatterns scans the whole schema for ownership-shaped
// columns and maps each table to the first one found, in ordinal order.
// UUID and integer types qualify; a text user_id does not, because the
// generated policy could not cast the JWT subject safely.
func (i *Introspector) DetectUserOwnershipPatterns(ctx context.Context) (map[string]string, error) {
	rows, err := i.db.QueryContext(ctx, `
		SELECT c.table_name, c.column_name
		FROM information_schema.columns c
		JOIN information_schema.tables t
		  ON t.table_schema = c.table_schema AND t.table_name = c.table_name
		WHERE c.table_schema = 'public'
		  AND t.table_type = 'BASE TABLE'
		  AND c.column_name IN ('user_id', 'owner_id', 'created_by', 'author_id')
		  AND c.udt_name IN ('uuid', 'int2', 'int4', 'int8')
		ORDER BY c.table_name, c.ordinal_position
	`)
	if err != nil {
		return nil, fmt.Errorf("detecting ownership patterns: %w", err)
	}
	defer func() { _ = rows.Close() }()

	ownership := map[string]string{}
	for rows.Next() {
		var table, column string
		if err := rows.Scan(&table, &column); err != nil {
			return nil, fmt.Errorf("scanning ownership row: %w", err)
		}
		if _, seen := ownership[table]; !seen {
			ownership[table] = column
		}
	}
	return ownership, rows.Err()
}

// GetTablePolicies returns the RLS policies currently defined on a table.
func (i *Introspector) GetTablePolicies(ctx context.Context, table string) ([]schema.ExistingPolicy, error) {
	rows, err := i.db.QueryContext(ctx, `
		SELECT policyname, cmd, COALESCE(qual, ''), COALESCE(with_check, ''), roles
		FROM pg_policies
		WHERE schemaname = 'public' AND tablename = $1
		ORDER BY policyname
	`, table)
	if err != nil {
		return nil, fmt.Errorf("reading policies for %s: %w", table, err)
	}
	defer func() { _ = rows.Close() }()

	var policies []schema.ExistingPolicy
	for rows.Next() {
		var p schema.ExistingPolicy
		if err := rows.Scan(&p.Name, &p.Command, &p.Using, &p.WithCheck, pq.Array(&p.Roles)); err != nil {
			return nil, fmt.Errorf("scanning policy: %w", err)
		}
		policies = append(policies, p)
	}
	return policies, rows.Err()
}

// CheckRLSStatus maps every public table to whether row level security is
// enabled on it.
func (i *Introspector) CheckRLSStatus(ctx context.Context) (map[string]bool, error) {
	rows, err := i.db.QueryContext(ctx, `
		SELECT c.relname, c.relrowsecurity
		FROM pg_class c
		JOIN pg_namespace n ON n.oid = c.relnamespace
		WHERE n.nspname = 'public' AND c.relkind = 'r'
		ORDER BY c.relname
	`)
	if err != nil {
		return nil, fmt.Errorf("checking RLS status: %w", err)
	}
	defer func() { _ = rows.Close() }()

	status := map[string]bool{}
	for rows.Next() {
		var name string
		var enabled bool
		if err := rows.Scan(&name, &enabled); err != nil {
			return nil, fmt.Errorf("scanning RLS row: %w", err)
		}
		status[name] = enabled
	}
	return status, rows.Err()
}

// ListIndexNames returns the names of indexes already defined on a table,
// used to drop recommendations that would collide.
func (i *Introspector) ListIndexNames(ctx context.Context, table string) ([]string, error) {
	rows, err := i.db.QueryContext(ctx, `
		SELECT indexname
		FROM pg_indexes
		WHERE schemaname = 'public' AND tablename = $1
		ORDER BY indexname
	`, table)
	if err != nil {
		return nil, fmt.Errorf("listing indexes for %s: %w", table, err)
	}
	defer func() { _ = rows.Close() }()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scanning index name: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}
