package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/webcodedsoft/pgrestify-sub004/internal/cli"
	"github.com/webcodedsoft/pgrestify-sub004/internal/inspect"
	"github.com/webcodedsoft/pgrestify-sub004/internal/merge"
	"github.com/webcodedsoft/pgrestify-sub004/internal/perf"
	"github.com/webcodedsoft/pgrestify-sub004/internal/report"
	"github.com/webcodedsoft/pgrestify-sub004/internal/runner"
	"github.com/webcodedsoft/pgrestify-sub004/internal/schema"
	"github.com/webcodedsoft/pgrestify-sub004/internal/store"
)

// newRunner assembles the generation pipeline for one command invocation.
// A missing or unreachable database is never fatal here: the runner degrades
// to template mode with a warning and connection errors only surface later
// for operations that genuinely need the database (like --all-tables).
//
// The returned cleanup func closes whatever connections were opened.
func newRunner(ctx context.Context, cmd *cobra.Command, args []string, dbFlag string, dynamic bool) (*runner.Runner, func(), error) {
	rep := report.NewConsole(os.Stdout, quiet)
	r := runner.New(store.New(cfg.ProjectRoot), rep)
	r.Command = commandLine(cmd, args)

	cleanup := func() {}

	dsn, err := resolveDSN(dbFlag)
	if err != nil {
		return nil, cleanup, err
	}
	if dsn == "" {
		rep.Warnf("no database configured, generating templates to fill in by hand")
		return r, cleanup, nil
	}

	in, err := inspect.Connect(ctx, dsn)
	if err != nil {
		rep.Warnf("database unreachable, generating templates to fill in by hand: %v", err)
		return r, cleanup, nil
	}
	r.Inspect = in
	cleanup = func() { _ = in.Close() }

	if dynamic {
		pa, err := perf.Connect(ctx, dsn)
		if err != nil {
			rep.Warnf("performance statistics unavailable: %v", err)
		} else {
			r.Perf = pa
			prev := cleanup
			cleanup = func() { pa.Close(); prev() }
		}
	}

	return r, cleanup, nil
}

// resolveDSN gets the database DSN from flag or config. Empty with no error
// means no database is configured, which is a supported state.
func resolveDSN(flagDSN string) (string, error) {
	if flagDSN != "" {
		return flagDSN, nil
	}

	dsn, err := cfg.DSN()
	if err != nil {
		return "", cli.ConfigError("database configuration", err)
	}
	return dsn, nil
}

// commandLine reconstructs the invocation for provenance headers in
// generated files.
func commandLine(cmd *cobra.Command, args []string) string {
	if len(args) == 0 {
		return cmd.CommandPath()
	}
	return cmd.CommandPath() + " " + strings.Join(args, " ")
}

// resolveMode turns the --replace/--merge flag pair and the configured
// default into a write strategy.
func resolveMode(replaceFlag, mergeFlag bool) (merge.Mode, error) {
	if replaceFlag && mergeFlag {
		return merge.ModeMerge, cli.ConfigError("--replace and --merge are mutually exclusive", nil)
	}
	if replaceFlag {
		return merge.ModeReplace, nil
	}
	if mergeFlag {
		return merge.ModeMerge, nil
	}

	switch cfg.Generate.Mode {
	case "", "merge":
		return merge.ModeMerge, nil
	case "replace":
		return merge.ModeReplace, nil
	default:
		return merge.ModeMerge, cli.ConfigError(fmt.Sprintf("generate.mode must be merge or replace, got %q", cfg.Generate.Mode), nil)
	}
}

// confirmReplace asks before a destructive replace run. Dry runs and --force
// skip the prompt.
func confirmReplace(opts runner.RunOptions) error {
	if opts.Mode != merge.ModeReplace || opts.Force || opts.DryRun != nil {
		return nil
	}

	fmt.Fprint(os.Stderr, "Replace mode discards existing file content, including manual edits. Continue? [y/N] ")
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return cli.GeneralError("reading confirmation", err)
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return nil
	}
	return cli.GeneralError("aborted", nil)
}

// dryRunWriter returns the preview destination, announcing dry-run mode on
// stderr so the SQL on stdout stays pipeable.
func dryRunWriter(dryRun bool) *os.File {
	if !dryRun {
		return nil
	}
	if !quiet {
		fmt.Fprintln(os.Stderr, "-- Dry-run mode: SQL will be output but not applied")
		fmt.Fprintln(os.Stderr, "")
	}
	return os.Stdout
}

// runOptions builds the shared write-strategy options from the common flag set.
func runOptions(replaceFlag, mergeFlag, dryRun, force, allTables bool) (runner.RunOptions, error) {
	mode, err := resolveMode(replaceFlag, mergeFlag)
	if err != nil {
		return runner.RunOptions{}, err
	}
	opts := runner.RunOptions{
		Mode:      mode,
		Force:     force,
		AllTables: allTables,
	}
	if w := dryRunWriter(dryRun); w != nil {
		opts.DryRun = w
	}
	if err := confirmReplace(opts); err != nil {
		return runner.RunOptions{}, err
	}
	return opts, nil
}

// finishRun maps domain errors to exit codes and prints the run summary.
func finishRun(rep *runner.RunReport, err error, dryRun bool) error {
	if err != nil {
		return mapRunError(err)
	}
	if dryRun || quiet {
		return nil
	}

	summary := fmt.Sprintf("%d tables processed: %d objects added, %d replaced",
		rep.TablesProcessed, rep.ObjectsAdded, rep.ObjectsReplaced)
	if rep.Warnings > 0 {
		summary += fmt.Sprintf(" (%d warnings)", rep.Warnings)
	}
	report.NewConsole(os.Stdout, false).Successf("%s", summary)
	return nil
}

// mapRunError classifies domain errors into the exit-code taxonomy.
func mapRunError(err error) error {
	switch {
	case err == nil:
		return nil
	case schema.IsObjectNotFoundErr(err):
		return cli.NotFoundError("object not found", err)
	case schema.IsValidationErr(err):
		return cli.ValidationError("validation failed", err)
	case schema.IsConnectionUnavailableErr(err):
		return cli.DBConnectError("database required", err)
	default:
		return cli.GeneralError("generation failed", err)
	}
}
