package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/webcodedsoft/pgrestify-sub004/internal/cli"
	"github.com/webcodedsoft/pgrestify-sub004/internal/store"
	"github.com/webcodedsoft/pgrestify-sub004/internal/validate"
)

var validateCmd = &cobra.Command{
	Use:   "validate [table...]",
	Short: "Validate the generated SQL tree",
	Long: `Validate the generated SQL tree without a database.

Checks that every file decomposes into uniquely named objects, that table
folders follow naming rules, and that policy files enable row level
security. Pass table names to restrict the check.`,
	Example: `  # Validate the whole tree
  pgrestify validate

  # Validate specific tables
  pgrestify validate orders users`,
	RunE: func(cmd *cobra.Command, args []string) error {
		res, err := validate.Tree(store.New(cfg.ProjectRoot), args)
		if err != nil {
			return cli.GeneralError("validating tree", err)
		}

		if res.OK() {
			if !quiet {
				fmt.Printf("Validated %d files across %d tables, no problems found.\n",
					res.FilesChecked, res.TablesChecked)
			}
			return nil
		}

		fmt.Print(validate.FormatIssues(res.Issues))
		return cli.ValidationError(fmt.Sprintf("%d problems found", len(res.Issues)), nil)
	},
}
