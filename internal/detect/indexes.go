package detect

import (
	"strings"

	"github.com/webcodedsoft/pgrestify-sub004/internal/schema"
)

// SuggestIndexes derives index recommendations from column names and types
// alone. It is the offline path used when no database statistics are
// available; the perf analyzer produces statistics-backed recommendations
// with measured impact instead.
func SuggestIndexes(table string, columns []schema.Column) []schema.IndexRecommendation {
	var recs []schema.IndexRecommendation
	seen := map[string]bool{}

	add := func(rec schema.IndexRecommendation) {
		if seen[rec.IndexName] {
			return
		}
		seen[rec.IndexName] = true
		recs = append(recs, rec)
	}

	for _, c := range columns {
		lower := strings.ToLower(c.Name)
		typ := strings.ToLower(c.Type)

		switch {
		case lower != "id" && strings.HasSuffix(lower, "_id"):
			add(schema.IndexRecommendation{
				IndexName: indexName(table, c.Name),
				Columns:   []string{c.Name},
				IndexType: schema.IndexBTree,
				Reason:    "foreign-key-shaped column, used in joins and row filters",
				Impact:    schema.ImpactHigh,
			})
		case lower == "deleted_at":
			add(schema.IndexRecommendation{
				IndexName:        indexName(table, "active"),
				Columns:          []string{c.Name},
				IndexType:        schema.IndexBTree,
				PartialCondition: "deleted_at IS NULL",
				Reason:           "soft-delete filter, partial index keeps live-row scans small",
				Impact:           schema.ImpactHigh,
			})
		case lower == "created_at" || lower == "updated_at":
			add(schema.IndexRecommendation{
				IndexName: indexName(table, c.Name),
				Columns:   []string{c.Name},
				IndexType: schema.IndexBTree,
				Reason:    "timestamp column, supports ordering and range queries",
				Impact:    schema.ImpactMedium,
			})
		case lower == "email" || lower == "username" || lower == "slug":
			add(schema.IndexRecommendation{
				IndexName: indexName(table, c.Name),
				Columns:   []string{c.Name},
				IndexType: schema.IndexBTree,
				Unique:    true,
				Reason:    "natural lookup key, unique index enforces identity and speeds point lookups",
				Impact:    schema.ImpactHigh,
			})
		case strings.Contains(lower, "status") || strings.Contains(lower, "state") || lower == "type":
			add(schema.IndexRecommendation{
				IndexName: indexName(table, c.Name),
				Columns:   []string{c.Name},
				IndexType: schema.IndexBTree,
				Reason:    "enumeration column, commonly filtered in list endpoints",
				Impact:    schema.ImpactLow,
			})
		case typ == "jsonb" || strings.HasPrefix(typ, "json"):
			add(schema.IndexRecommendation{
				IndexName: indexName(table, c.Name),
				Columns:   []string{c.Name},
				IndexType: schema.IndexGIN,
				Reason:    "JSON document column, GIN enables containment queries",
				Impact:    schema.ImpactMedium,
			})
		case strings.HasSuffix(typ, "[]") || strings.HasPrefix(typ, "array"):
			add(schema.IndexRecommendation{
				IndexName: indexName(table, c.Name),
				Columns:   []string{c.Name},
				IndexType: schema.IndexGIN,
				Reason:    "array column, GIN enables element membership queries",
				Impact:    schema.ImpactMedium,
			})
		case typ == "tsvector":
			add(schema.IndexRecommendation{
				IndexName: indexName(table, c.Name),
				Columns:   []string{c.Name},
				IndexType: schema.IndexGIN,
				Reason:    "full-text search vector",
				Impact:    schema.ImpactMedium,
			})
		}
	}

	return recs
}

// FilterByImpact drops recommendations below High impact when performanceOnly
// is set. With performanceOnly unset the input is returned unchanged.
func FilterByImpact(recs []schema.IndexRecommendation, performanceOnly bool) []schema.IndexRecommendation {
	if !performanceOnly {
		return recs
	}
	var kept []schema.IndexRecommendation
	for _, rec := range recs {
		if rec.Impact.AtLeast(schema.ImpactHigh) {
			kept = append(kept, rec)
		}
	}
	return kept
}

// DedupeExisting drops recommendations whose index name already exists in the
// database or in a previously generated file.
func DedupeExisting(recs []schema.IndexRecommendation, existing []string) []schema.IndexRecommendation {
	if len(existing) == 0 {
		return recs
	}
	known := make(map[string]bool, len(existing))
	for _, name := range existing {
		known[name] = true
	}
	var kept []schema.IndexRecommendation
	for _, rec := range recs {
		if !known[rec.IndexName] {
			kept = append(kept, rec)
		}
	}
	return kept
}

// indexName builds idx_<table>_<suffix> clamped to the PostgreSQL identifier
// limit so generated names never get silently truncated by the server.
func indexName(table, suffix string) string {
	name := "idx_" + table + "_" + suffix
	if len(name) > schema.MaxIdentifierLength {
		name = name[:schema.MaxIdentifierLength]
	}
	return strings.TrimRight(name, "_")
}
