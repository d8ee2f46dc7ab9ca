package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"

	_ "github.com/lib/pq"
	"github.com/spf13/cobra"

	"github.com/webcodedsoft/pgrestify-sub004/internal/cli"
	"github.com/webcodedsoft/pgrestify-sub004/internal/doctor"
	"github.com/webcodedsoft/pgrestify-sub004/internal/store"
)

var (
	doctorDB      string
	doctorVerbose bool
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Run health checks",
	Long: `Run health checks on the project and database.

Checks the configuration, the generated SQL tree, database connectivity,
row level security coverage, and the PostgREST roles. Works without a
database; the live checks degrade to warnings.`,
	Example: `  # Run health checks
  pgrestify doctor

  # Run with verbose output against a specific database
  pgrestify doctor --db postgres://localhost/mydb --verbose`,
	RunE: func(cmd *cobra.Command, args []string) error {
		verboseFlag := resolveBool(doctorVerbose, cfg.Doctor.Verbose)

		dsn, err := resolveDSN(doctorDB)
		if err != nil {
			return err
		}

		var db *sql.DB
		if dsn != "" {
			db, err = sql.Open("postgres", dsn)
			if err != nil {
				return cli.DBConnectError("connecting to database", err)
			}
			defer func() { _ = db.Close() }()
		}

		if !quiet {
			fmt.Println("pgrestify doctor - Health Check")
		}

		d := doctor.New(db, store.New(cfg.ProjectRoot), configPath)
		report, err := d.Run(context.Background())
		if err != nil {
			return cli.GeneralError("running doctor", err)
		}

		report.Print(os.Stdout, verboseFlag)

		if report.HasErrors() {
			return cli.GeneralError("health checks failed", nil)
		}

		return nil
	},
}

func init() {
	f := doctorCmd.Flags()
	f.StringVar(&doctorDB, "db", "", "database URL")
	f.BoolVar(&doctorVerbose, "verbose", false, "show detailed output")
}
