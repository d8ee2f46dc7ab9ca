// Package perf turns PostgreSQL statistics views into index recommendations
// with measured impact. It is the only dynamic analysis path: everything else
// in the index pipeline works from column metadata alone.
package perf

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/webcodedsoft/pgrestify-sub004/internal/detect"
	"github.com/webcodedsoft/pgrestify-sub004/internal/schema"
)

// Analyzer reads pg_stat_* views over a pgx pool.
type Analyzer struct {
	pool *pgxpool.Pool
}

// Connect builds and pings a pool. Unreachable databases surface as
// ErrConnectionUnavailable; the caller skips performance analysis with a
// warning and continues.
func Connect(ctx context.Context, dsn string) (*Analyzer, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", schema.ErrConnectionUnavailable, err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("%w: %v", schema.ErrConnectionUnavailable, err)
	}
	return &Analyzer{pool: pool}, nil
}

// Close releases the pool.
func (a *Analyzer) Close() {
	a.pool.Close()
}

// TableStats is the access profile of one table from pg_stat_user_tables.
type TableStats struct {
	SeqScans    int64
	SeqRowsRead int64
	IndexScans  int64
	LiveRows    int64
}

// SeqScanHeavy reports whether reads bypass indexes often enough to matter:
// a mostly-sequential profile on a table large enough for it to hurt.
func (s TableStats) SeqScanHeavy() bool {
	total := s.SeqScans + s.IndexScans
	return s.LiveRows >= 10000 && total > 0 && float64(s.SeqScans)/float64(total) > 0.5
}

// Stats reads the access profile for a table. Tables that have never been
// touched since the stats reset come back zeroed, not as an error.
func (a *Analyzer) Stats(ctx context.Context, table string) (TableStats, error) {
	var s TableStats
	err := a.pool.QueryRow(ctx, `
		SELECT COALESCE(seq_scan, 0), COALESCE(seq_tup_read, 0),
		       COALESCE(idx_scan, 0), COALESCE(n_live_tup, 0)
		FROM pg_stat_user_tables
		WHERE schemaname = 'public' AND relname = $1
	`, table).Scan(&s.SeqScans, &s.SeqRowsRead, &s.IndexScans, &s.LiveRows)
	if err != nil {
		return TableStats{}, &schema.AnalysisError{Step: "performance", Err: err}
	}
	return s, nil
}

// UnusedIndexes lists indexes on a table that have never been scanned.
// Reported as analysis warnings; pgrestify never drops anything.
func (a *Analyzer) UnusedIndexes(ctx context.Context, table string) ([]string, error) {
	rows, err := a.pool.Query(ctx, `
		SELECT indexrelname
		FROM pg_stat_user_indexes
		WHERE schemaname = 'public' AND relname = $1 AND COALESCE(idx_scan, 0) = 0
		ORDER BY indexrelname
	`, table)
	if err != nil {
		return nil, &schema.AnalysisError{Step: "performance", Err: err}
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, &schema.AnalysisError{Step: "performance", Err: err}
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// RecommendIndexes grades the column-heuristic suggestions for a table
// against its live access profile. Sequential-scan-heavy tables get their
// join and filter indexes escalated; tables too small to benefit get
// everything demoted to Low so a performance-only run skips them.
func (a *Analyzer) RecommendIndexes(ctx context.Context, table string, columns []schema.Column) ([]schema.IndexRecommendation, error) {
	stats, err := a.Stats(ctx, table)
	if err != nil {
		return nil, err
	}

	recs := detect.SuggestIndexes(table, columns)
	for i := range recs {
		switch {
		case stats.SeqScanHeavy():
			recs[i].Impact = escalate(recs[i].Impact)
			recs[i].Reason = fmt.Sprintf("%s; %d sequential scans over %d live rows",
				recs[i].Reason, stats.SeqScans, stats.LiveRows)
		case stats.LiveRows > 0 && stats.LiveRows < 1000:
			recs[i].Impact = schema.ImpactLow
			recs[i].Reason = fmt.Sprintf("%s; table holds only %d rows", recs[i].Reason, stats.LiveRows)
		}
	}
	return recs, nil
}

func escalate(impact schema.Impact) schema.Impact {
	switch impact {
	case schema.ImpactLow:
		return schema.ImpactMedium
	case schema.ImpactMedium:
		return schema.ImpactHigh
	default:
		return schema.ImpactCritical
	}
}
