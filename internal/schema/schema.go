// Package schema defines the shared data model for pgrestify: introspected
// table metadata, detection decisions, and generated SQL artifacts.
// Everything here is plain data; detection, rendering, and merging live in
// their own packages and communicate through these types.
package schema

import "strings"

// Column represents one column of an introspected table.
type Column struct {
	Name     string
	Type     string // PostgreSQL type name as reported by information_schema
	Nullable bool
}

// ExistingPolicy represents a row-level security policy already present on a
// table, as read from pg_policies.
type ExistingPolicy struct {
	Name      string
	Command   string // SELECT, INSERT, UPDATE, DELETE, or ALL
	Using     string
	WithCheck string
	Roles     []string
}

// TableSchema is the introspected shape of a single table. It is produced by
// the inspector (or assembled by hand in template mode) and read-only to the
// detection and generation code.
type TableSchema struct {
	Name       string
	Columns    []Column
	Policies   []ExistingPolicy
	RLSEnabled bool
}

// Column returns the named column and true when present.
func (t TableSchema) Column(name string) (Column, bool) {
	for _, c := range t.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return Column{}, false
}

// HasColumn returns true when the table has a column with the given name.
func (t TableSchema) HasColumn(name string) bool {
	_, ok := t.Column(name)
	return ok
}

// ColumnNames returns the column names in table order.
func (t TableSchema) ColumnNames() []string {
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}
	return names
}

// PolicyNames returns the names of the existing RLS policies in catalog order.
func (t TableSchema) PolicyNames() []string {
	names := make([]string, len(t.Policies))
	for i, p := range t.Policies {
		names[i] = p.Name
	}
	return names
}

// IsUUIDType reports whether a column type can hold a user identifier in UUID
// form. information_schema reports "uuid" but drivers occasionally surface
// the internal name.
func IsUUIDType(typ string) bool {
	t := strings.ToLower(typ)
	return t == "uuid" || strings.HasPrefix(t, "uuid")
}

// IsIntegerType reports whether a column type is one of the integer families
// usable as an owner key.
func IsIntegerType(typ string) bool {
	switch strings.ToLower(typ) {
	case "integer", "int", "int2", "int4", "int8", "smallint", "bigint", "serial", "bigserial", "smallserial":
		return true
	}
	return false
}
