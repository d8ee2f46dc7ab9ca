package main

import (
	"context"
	"strings"

	"github.com/spf13/cobra"

	"github.com/webcodedsoft/pgrestify-sub004/internal/cli"
	"github.com/webcodedsoft/pgrestify-sub004/internal/report"
	"github.com/webcodedsoft/pgrestify-sub004/internal/runner"
)

var (
	featuresDB        string
	featuresDryRun    bool
	featuresForce     bool
	featuresReplace   bool
	featuresMerge     bool
	featuresAllTables bool
	featuresDynamic   bool

	indexesPerfOnly bool
)

var featuresCmd = &cobra.Command{
	Use:   "features",
	Short: "Trigger and index tooling",
	Long:  `Generate, suggest, and analyze triggers and indexes for tables.`,
}

var triggersCmd = &cobra.Command{
	Use:   "triggers",
	Short: "Trigger generation and analysis",
}

var triggersAddCmd = &cobra.Command{
	Use:   "add [table]",
	Short: "Generate triggers for a table",
	Long: `Generate triggers for a table based on its column shape.

Tables with created_at/updated_at get timestamp management, deleted_at gets
soft-delete protection, audit-style tables get change logging. Tables that
match no rule are skipped entirely.`,
	Example: `  # Generate triggers for one table
  pgrestify features triggers add orders

  # Generate for every table
  pgrestify features triggers add --all-tables`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		table, err := requireTableOrAll(args, featuresAllTables)
		if err != nil {
			return err
		}
		opts, err := runOptions(featuresReplace, featuresMerge, featuresDryRun, featuresForce, featuresAllTables)
		if err != nil {
			return err
		}

		ctx := context.Background()
		r, cleanup, err := newRunner(ctx, cmd, args, featuresDB, false)
		if err != nil {
			return err
		}
		defer cleanup()

		rep, err := r.GenerateTriggers(ctx, runner.TriggerOptions{
			RunOptions: opts,
			Table:      table,
			Dynamic:    resolveBool(featuresDynamic, cfg.Features.Dynamic),
		})
		return finishRun(rep, err, featuresDryRun)
	},
}

var triggersSuggestCmd = &cobra.Command{
	Use:   "suggest <table>",
	Short: "Show trigger suggestions without writing",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		r, cleanup, err := newRunner(ctx, cmd, args, featuresDB, false)
		if err != nil {
			return err
		}
		defer cleanup()

		suggestions, err := r.SuggestTriggers(ctx, args[0])
		if err != nil {
			return mapRunError(err)
		}

		rep := report.NewConsole(cmd.OutOrStdout(), false)
		if len(suggestions) == 0 {
			rep.Infof("%s: no trigger rules matched", args[0])
			return nil
		}
		for _, s := range suggestions {
			rep.Detectedf("%s [%s]: %s (%s)", s.Name, s.Type, s.Description, s.Reason)
		}
		return nil
	},
}

var triggersAnalyzeCmd = &cobra.Command{
	Use:   "analyze [table]",
	Short: "Write an analysis report for a table",
	Long: `Write a commented analysis report to sql/schemas/<table>/analysis.sql
covering the detected access pattern, trigger suggestions, and index
recommendations. The report is rewritten on every run.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runAnalyze,
}

var indexesCmd = &cobra.Command{
	Use:   "indexes",
	Short: "Index generation and analysis",
}

var indexesAddCmd = &cobra.Command{
	Use:   "add [table]",
	Short: "Generate indexes for a table",
	Long: `Generate index definitions for a table.

Recommendations come from column heuristics (foreign keys, timestamps, flags,
text search columns), or from live query statistics with --dynamic.
Recommendations matching indexes the database already has are dropped.`,
	Example: `  # Generate indexes from column heuristics
  pgrestify features indexes add orders

  # Use live query statistics to rank recommendations
  pgrestify features indexes add orders --dynamic

  # Only High and Critical impact recommendations
  pgrestify features indexes add orders --performance-only`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runIndexes(cmd, args, false)
	},
}

var indexesSuggestCmd = &cobra.Command{
	Use:   "suggest <table>",
	Short: "Show index recommendations without writing",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dynamic := resolveBool(featuresDynamic, cfg.Features.Dynamic)

		ctx := context.Background()
		r, cleanup, err := newRunner(ctx, cmd, args, featuresDB, dynamic)
		if err != nil {
			return err
		}
		defer cleanup()

		recs, err := r.SuggestIndexes(ctx, args[0], runner.IndexOptions{
			Table:           args[0],
			Dynamic:         dynamic,
			PerformanceOnly: resolveBool(indexesPerfOnly, cfg.Features.PerformanceOnly),
		})
		if err != nil {
			return mapRunError(err)
		}

		rep := report.NewConsole(cmd.OutOrStdout(), false)
		if len(recs) == 0 {
			rep.Infof("%s: no index recommendations", args[0])
			return nil
		}
		for _, rec := range recs {
			rep.Detectedf("%s on (%s) [%s, %s impact]: %s",
				rec.IndexName, strings.Join(rec.Columns, ", "), rec.IndexType, rec.Impact, rec.Reason)
		}
		return nil
	},
}

var indexesAnalyzeCmd = &cobra.Command{
	Use:   "analyze [table]",
	Short: "Write an analysis report for a table",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runAnalyze,
}

var indexesPerformanceCmd = &cobra.Command{
	Use:   "performance [table]",
	Short: "Generate only high-impact indexes from live statistics",
	Long: `Generate indexes using live query statistics, keeping only High and
Critical impact recommendations. Requires a reachable database with
pg_stat_user_tables populated.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		featuresDynamic = true
		indexesPerfOnly = true
		return runIndexes(cmd, args, true)
	},
}

func runIndexes(cmd *cobra.Command, args []string, requireDB bool) error {
	table, err := requireTableOrAll(args, featuresAllTables)
	if err != nil {
		return err
	}
	opts, err := runOptions(featuresReplace, featuresMerge, featuresDryRun, featuresForce, featuresAllTables)
	if err != nil {
		return err
	}
	dynamic := resolveBool(featuresDynamic, cfg.Features.Dynamic)

	ctx := context.Background()
	r, cleanup, err := newRunner(ctx, cmd, args, featuresDB, dynamic)
	if err != nil {
		return err
	}
	defer cleanup()

	if requireDB && r.Perf == nil {
		return cli.DBConnectError("performance analysis requires a reachable database", nil)
	}

	rep, err := r.GenerateIndexes(ctx, runner.IndexOptions{
		RunOptions:      opts,
		Table:           table,
		Dynamic:         dynamic,
		PerformanceOnly: resolveBool(indexesPerfOnly, cfg.Features.PerformanceOnly),
	})
	return finishRun(rep, err, featuresDryRun)
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	table, err := requireTableOrAll(args, featuresAllTables)
	if err != nil {
		return err
	}
	opts, err := runOptions(featuresReplace, featuresMerge, featuresDryRun, featuresForce, featuresAllTables)
	if err != nil {
		return err
	}
	dynamic := resolveBool(featuresDynamic, cfg.Features.Dynamic)

	ctx := context.Background()
	r, cleanup, err := newRunner(ctx, cmd, args, featuresDB, dynamic)
	if err != nil {
		return err
	}
	defer cleanup()

	rep, err := r.Analyze(ctx, runner.AnalyzeOptions{
		RunOptions: opts,
		Table:      table,
		Dynamic:    dynamic,
	})
	return finishRun(rep, err, featuresDryRun)
}

func requireTableOrAll(args []string, allTables bool) (string, error) {
	if len(args) == 1 {
		return args[0], nil
	}
	if !allTables {
		return "", cli.ValidationError("a table name or --all-tables is required", nil)
	}
	return "", nil
}

func init() {
	pf := featuresCmd.PersistentFlags()
	pf.StringVar(&featuresDB, "db", "", "database URL")
	pf.BoolVar(&featuresDryRun, "dry-run", false, "output SQL without writing files")
	pf.BoolVar(&featuresForce, "force", false, "skip confirmation prompts")
	pf.BoolVar(&featuresReplace, "replace", false, "discard existing file content")
	pf.BoolVar(&featuresMerge, "merge", false, "merge into existing files (default)")
	pf.BoolVar(&featuresAllTables, "all-tables", false, "process every table in the schema")
	pf.BoolVar(&featuresDynamic, "dynamic", false, "use live query statistics")

	indexesCmd.PersistentFlags().BoolVar(&indexesPerfOnly, "performance-only", false, "keep only High/Critical impact recommendations")

	triggersCmd.AddCommand(triggersAddCmd)
	triggersCmd.AddCommand(triggersSuggestCmd)
	triggersCmd.AddCommand(triggersAnalyzeCmd)

	indexesCmd.AddCommand(indexesAddCmd)
	indexesCmd.AddCommand(indexesSuggestCmd)
	indexesCmd.AddCommand(indexesAnalyzeCmd)
	indexesCmd.AddCommand(indexesPerformanceCmd)

	featuresCmd.AddCommand(triggersCmd)
	featuresCmd.AddCommand(indexesCmd)
}
