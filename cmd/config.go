package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective configuration",
	Long:  "Prints the merged configuration (defaults, config.yaml, .env and CIVISORT_* variables) as YAML with the database password masked.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		redacted := cfg.Redacted()
		out, err := yaml.Marshal(&redacted)
		if err != nil {
			return eris.Wrap(err, "config: marshal yaml")
		}
		_, err = cmd.OutOrStdout().Write(out)
		return err
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
}
