package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/webcodedsoft/pgrestify-sub004/internal/cli"
	"github.com/webcodedsoft/pgrestify-sub004/internal/report"
	"github.com/webcodedsoft/pgrestify-sub004/internal/runner"
	"github.com/webcodedsoft/pgrestify-sub004/internal/schema"
)

var (
	generateDB        string
	generateDryRun    bool
	generateForce     bool
	generateReplace   bool
	generateMerge     bool
	generateAllTables bool

	policyPattern     string
	policyOwnerColumn string
	policyName        string

	functionType string
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate SQL artifacts",
	Long:  `Generate RLS policies, functions, and roles for a PostgREST deployment.`,
}

var generatePolicyCmd = &cobra.Command{
	Use:   "policy [table]",
	Short: "Generate RLS policies for a table",
	Long: `Generate row level security policies for a table.

The access pattern is detected from the live schema when a database is
configured: ownership columns like user_id produce owner-scoped policies,
admin tables produce admin-only policies, lookup tables produce public-read
policies. Use --pattern and --owner-column to override detection.

Re-runs merge into the existing rls.sql without duplicating policies.`,
	Example: `  # Generate policies for one table
  pgrestify generate policy orders

  # Pin the pattern instead of detecting it
  pgrestify generate policy orders --pattern user_specific --owner-column user_id

  # Regenerate a single policy in place
  pgrestify generate policy orders --policy orders_select_own

  # Generate for every table, previewing without writing
  pgrestify generate policy --all-tables --dry-run`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var table string
		if len(args) == 1 {
			table = args[0]
		}
		if table == "" && !generateAllTables {
			return cli.ValidationError("a table name or --all-tables is required", nil)
		}

		opts, err := runOptions(generateReplace, generateMerge, generateDryRun, generateForce, generateAllTables)
		if err != nil {
			return err
		}

		pattern, err := resolvePattern(resolveString(policyPattern, cfg.Generate.Pattern))
		if err != nil {
			return err
		}

		ctx := context.Background()
		r, cleanup, err := newRunner(ctx, cmd, args, generateDB, false)
		if err != nil {
			return err
		}
		defer cleanup()

		rep, err := r.GeneratePolicies(ctx, runner.PolicyOptions{
			RunOptions:  opts,
			Table:       table,
			Pattern:     pattern,
			OwnerColumn: resolveString(policyOwnerColumn, cfg.Generate.OwnerColumn),
			PolicyName:  policyName,
		})
		return finishRun(rep, err, generateDryRun)
	},
}

var generateFunctionCmd = &cobra.Command{
	Use:   "function <name>",
	Short: "Generate a SQL function template",
	Long: `Generate a schema-wide SQL function template into sql/schemas/functions.sql.

The --type flag selects the template family: auth (JWT claim helpers), crud
(row manipulation), utility (maintenance), or custom (empty skeleton).`,
	Example: `  # Generate an auth helper function
  pgrestify generate function current_user_id --type auth

  # Generate an empty skeleton to fill in
  pgrestify generate function rebuild_totals --type custom`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		opts, err := runOptions(generateReplace, generateMerge, generateDryRun, generateForce, false)
		if err != nil {
			return err
		}

		kind, err := schema.ParseFunctionKind(functionType)
		if err != nil {
			return cli.ValidationError("invalid --type", err)
		}

		ctx := context.Background()
		r, cleanup, err := newRunner(ctx, cmd, args, generateDB, false)
		if err != nil {
			return err
		}
		defer cleanup()

		rep, err := r.GenerateFunction(ctx, runner.FunctionOptions{
			RunOptions: opts,
			Name:       args[0],
			Kind:       kind,
		})
		if err != nil {
			return mapRunError(err)
		}
		if !generateDryRun && !quiet {
			report.NewConsole(cmd.OutOrStdout(), false).Successf("function %s: %d objects added, %d replaced",
				args[0], rep.ObjectsAdded, rep.ObjectsReplaced)
		}
		return nil
	},
}

// resolvePattern parses an explicit pattern override; empty means detect.
func resolvePattern(s string) (schema.PatternKind, error) {
	if s == "" {
		return "", nil
	}
	kind, err := schema.ParsePatternKind(s)
	if err != nil {
		return "", cli.ValidationError(fmt.Sprintf("invalid --pattern %q", s), err)
	}
	return kind, nil
}

func init() {
	pf := generateCmd.PersistentFlags()
	pf.StringVar(&generateDB, "db", "", "database URL")
	pf.BoolVar(&generateDryRun, "dry-run", false, "output SQL without writing files")
	pf.BoolVar(&generateForce, "force", false, "skip confirmation prompts")
	pf.BoolVar(&generateReplace, "replace", false, "discard existing file content")
	pf.BoolVar(&generateMerge, "merge", false, "merge into existing files (default)")

	f := generatePolicyCmd.Flags()
	f.StringVar(&policyPattern, "pattern", "", "access pattern (user_specific, public_read, admin_only, custom)")
	f.StringVar(&policyOwnerColumn, "owner-column", "", "ownership column for user_specific policies")
	f.StringVar(&policyName, "policy", "", "regenerate a single named policy")
	f.BoolVar(&generateAllTables, "all-tables", false, "process every table in the schema")

	generateFunctionCmd.Flags().StringVar(&functionType, "type", "custom", "function template (auth, crud, utility, custom)")

	generateCmd.AddCommand(generatePolicyCmd)
	generateCmd.AddCommand(generateFunctionCmd)
}
