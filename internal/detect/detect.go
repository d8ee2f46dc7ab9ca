// Package detect classifies tables into access-control patterns and derives
// trigger and index recommendations from column metadata and naming
// conventions. All functions are pure: database-backed inputs (ownership
// maps, query statistics) are gathered by callers and passed in.
package detect

import (
	"fmt"
	"strings"

	"github.com/webcodedsoft/pgrestify-sub004/internal/schema"
)

// ownerColumnCandidates are column names treated as row-ownership keys when
// their type can hold a user identifier.
var ownerColumnCandidates = map[string]bool{
	"user_id":    true,
	"owner_id":   true,
	"created_by": true,
	"author_id":  true,
}

// adminNameHints mark tables that hold administrative or configuration data.
var adminNameHints = []string{"admin", "config", "setting", "system"}

// lookupNameHints mark reference tables that are safe to expose read-only.
var lookupNameHints = []string{"category", "tag", "type", "status", "country", "currency"}

// Override carries the caller's explicit pattern choice. A zero Override
// means "detect automatically".
type Override struct {
	Pattern     schema.PatternKind // empty = not specified
	OwnerColumn string             // empty = not specified
}

// Explicit reports whether the override pins the pattern.
func (o Override) Explicit() bool {
	return o.Pattern != "" || o.OwnerColumn != ""
}

// DetectPolicyPattern classifies one table. Rules apply in order:
//
//  1. An explicit override is returned verbatim.
//  2. A prior whole-schema ownership analysis that mapped this table wins.
//  3. A column named user_id/owner_id/created_by/author_id with a UUID or
//     integer type makes the table user-specific (first such column wins).
//  4. Administrative table names become admin-only.
//  5. Reference/lookup table names become public-read.
//  6. Everything else falls back to a custom pattern that requires a manual
//     USING condition. The old behavior was user-specific with no owner
//     column, which generates a policy that cannot filter anything.
//
// ownership maps table name to owner column and may be nil when no database
// was reachable.
func DetectPolicyPattern(table string, columns []schema.Column, ownership map[string]string, override Override) schema.PatternDecision {
	if override.Explicit() {
		return explicitDecision(override)
	}

	if col, ok := ownership[table]; ok && col != "" {
		return schema.PatternDecision{
			Kind:        schema.PatternUserSpecific,
			OwnerColumn: col,
			Reason:      fmt.Sprintf("schema-wide ownership analysis mapped rows to %q", col),
		}
	}

	for _, c := range columns {
		if ownerColumnCandidates[c.Name] && (schema.IsUUIDType(c.Type) || schema.IsIntegerType(c.Type)) {
			return schema.PatternDecision{
				Kind:        schema.PatternUserSpecific,
				OwnerColumn: c.Name,
				Reason:      fmt.Sprintf("ownership column %q (%s) found", c.Name, c.Type),
			}
		}
	}

	if hint, ok := nameContainsAny(table, adminNameHints); ok {
		return schema.PatternDecision{
			Kind:   schema.PatternAdminOnly,
			Reason: fmt.Sprintf("Administrative/configuration table (name contains %q)", hint),
		}
	}

	if hint, ok := nameContainsAny(table, lookupNameHints); ok {
		return schema.PatternDecision{
			Kind:   schema.PatternPublicRead,
			Reason: fmt.Sprintf("reference/lookup table (name contains %q)", hint),
		}
	}

	return schema.PatternDecision{
		Kind:   schema.PatternCustom,
		Reason: "default for user-data table: no ownership column found, policy needs a manual USING condition",
	}
}

func explicitDecision(override Override) schema.PatternDecision {
	kind := override.Pattern
	if kind == "" {
		// Owner column without a pattern implies user-specific.
		kind = schema.PatternUserSpecific
	}
	return schema.PatternDecision{
		Kind:        kind,
		OwnerColumn: override.OwnerColumn,
		Reason:      "explicit",
	}
}

// nameContainsAny scans the table name for a hint, in both its literal and
// singularized forms so "product_categories" still matches "category".
func nameContainsAny(name string, hints []string) (string, bool) {
	lower := strings.ToLower(name)
	singular := singularize(lower)
	for _, hint := range hints {
		if strings.Contains(lower, hint) || strings.Contains(singular, hint) {
			return hint, true
		}
	}
	return "", false
}

// singularize undoes the common English plural endings on the final word of a
// table name.
func singularize(name string) string {
	switch {
	case strings.HasSuffix(name, "ies"):
		return strings.TrimSuffix(name, "ies") + "y"
	case strings.HasSuffix(name, "es"):
		return strings.TrimSuffix(name, "es")
	case strings.HasSuffix(name, "s"):
		return strings.TrimSuffix(name, "s")
	}
	return name
}
