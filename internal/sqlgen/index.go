package sqlgen

import (
	"fmt"
	"strings"

	"github.com/webcodedsoft/pgrestify-sub004/internal/schema"
)

// GenerateIndexes renders one fragment per index recommendation. Index
// statements use IF NOT EXISTS so applying a file with pre-existing indexes
// stays harmless.
func GenerateIndexes(table string, recs []schema.IndexRecommendation) schema.GeneratedArtifact {
	fragments := make([]schema.Fragment, 0, len(recs))
	for _, rec := range recs {
		fragments = append(fragments, indexFragment(table, rec))
	}
	return schema.GeneratedArtifact{Fragments: fragments}
}

func indexFragment(table string, rec schema.IndexRecommendation) schema.Fragment {
	cols := NewJoiner(", ")
	for _, c := range rec.Columns {
		cols.Add(quoted(c))
	}

	var buf strings.Builder
	buf.WriteString("-- ")
	buf.WriteString(rec.Reason)
	if rec.Impact != "" {
		fmt.Fprintf(&buf, " (impact: %s)", rec.Impact)
	}
	buf.WriteString("\nCREATE ")
	if rec.Unique {
		buf.WriteString("UNIQUE ")
	}
	buf.WriteString("INDEX IF NOT EXISTS ")
	buf.WriteString(quoted(rec.IndexName))
	buf.WriteString(" ON ")
	buf.WriteString(quoted(table))
	if rec.IndexType != "" && rec.IndexType != schema.IndexBTree {
		fmt.Fprintf(&buf, " USING %s", rec.IndexType)
	}
	fmt.Fprintf(&buf, " (%s)", cols.String())
	if rec.PartialCondition != "" {
		fmt.Fprintf(&buf, " WHERE %s", rec.PartialCondition)
	}
	buf.WriteString(";")

	return schema.Fragment{Key: rec.IndexName, Text: buf.String()}
}
