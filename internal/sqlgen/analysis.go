package sqlgen

import (
	"strings"
	"time"

	"github.com/webcodedsoft/pgrestify-sub004/internal/schema"
)

// AnalysisInput bundles everything the analyze commands learned about one
// table. Fields left empty simply do not appear in the report.
type AnalysisInput struct {
	Table    schema.TableSchema
	Decision schema.PatternDecision
	Triggers []schema.TriggerSuggestion
	Indexes  []schema.IndexRecommendation
	Warnings []string
}

// RenderAnalysis renders the analysis.sql report for a table. The file is
// pure commentary (no executable statements) and is rewritten wholesale on
// every analyze run rather than merged.
func RenderAnalysis(in AnalysisInput, now time.Time) string {
	b := NewBuilder()
	b.Line("-- Analysis for %s", quoted(in.Table.Name))
	b.Line("-- Date: %s", now.Format("2006-01-02"))
	b.Line("--")
	b.Line("-- Access pattern: %s", in.Decision.Kind)
	b.Line("-- Reason: %s", in.Decision.Reason)
	b.LineIf(in.Decision.OwnerColumn != "", "-- Owner column: %s", in.Decision.OwnerColumn)
	if in.Table.RLSEnabled {
		b.Line("-- Row level security: enabled")
	} else {
		b.Line("-- Row level security: disabled")
	}
	if len(in.Table.Policies) > 0 {
		b.Line("-- Existing policies: %s", strings.Join(in.Table.PolicyNames(), ", "))
	} else {
		b.Line("-- Existing policies: none")
	}

	if len(in.Triggers) > 0 {
		b.Line("--")
		b.Line("-- Trigger suggestions:")
		for _, t := range in.Triggers {
			b.Line("--   * %s [%s]: %s (%s)", t.Name, t.Type, t.Description, t.Reason)
		}
	}

	if len(in.Indexes) > 0 {
		b.Line("--")
		b.Line("-- Index recommendations:")
		for _, rec := range in.Indexes {
			cols := NewJoiner(", ")
			cols.Add(rec.Columns...)
			line := "--   * " + rec.IndexName + " " + string(rec.IndexType) + " (" + cols.String() + ")"
			if rec.Impact != "" {
				line += " impact " + string(rec.Impact)
			}
			b.Line("%s: %s", line, rec.Reason)
		}
	}

	if len(in.Warnings) > 0 {
		b.Line("--")
		b.Line("-- Warnings:")
		for _, w := range in.Warnings {
			b.Line("--   * %s", w)
		}
	}

	return b.String() + "\n"
}
