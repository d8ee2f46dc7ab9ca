package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"sigs.k8s.io/yaml"
)

var configShowSource bool

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Configuration utilities",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show effective configuration",
	Long: `Show the effective configuration after merging defaults, pgrestify.yaml,
and PGRESTIFY_* environment variables.

Also reports whether a database connection is configured: without one,
generation commands run in template mode and emit placeholders instead of
introspected conditions.`,
	Example: `  # Show effective configuration
  pgrestify config show

  # Include where the config file was discovered
  pgrestify config show --source`,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()

		if configShowSource {
			if configPath != "" {
				fmt.Fprintf(out, "Config file: %s\n", configPath)
			} else {
				fmt.Fprintln(out, "Config file: (none, using defaults)")
			}
			fmt.Fprintln(out)
		}

		data, err := yaml.Marshal(cfg)
		if err != nil {
			return err
		}
		fmt.Fprint(out, string(data))

		dsn, err := cfg.DSN()
		if err != nil {
			fmt.Fprintf(out, "\nDatabase: invalid configuration (%v)\n", err)
			return nil
		}
		if dsn == "" {
			fmt.Fprintln(out, "\nDatabase: not configured, generation runs in template mode")
		}
		return nil
	},
}

func init() {
	configShowCmd.Flags().BoolVar(&configShowSource, "source", false, "show where the config file was discovered")
	configCmd.AddCommand(configShowCmd)
}
