package main

import (
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func configCmd(opts *globalOptions) *cobra.Command {
	var (
		format string
		write  string
	)

	cmd := &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration",
		Long: `Load loom.json or loom.yaml, apply --set overrides and defaults,
validate the result and print it.

Examples:
  loom config
  loom config --format json --set scheduler.maxErrorsPerPass=4
  loom config --write loom.yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}

			if write != "" {
				path := write
				if !filepath.IsAbs(path) {
					path = filepath.Join(opts.dir, path)
				}
				if err := cfg.SaveTo(path); err != nil {
					return err
				}
				success("Wrote %s", path)
				return nil
			}

			out := cmd.OutOrStdout()
			switch format {
			case "yaml":
				if cfg.Path() != "" {
					fmt.Fprintf(out, "# loaded from %s\n", cfg.Path())
				}
				enc := yaml.NewEncoder(out)
				enc.SetIndent(2)
				if err := enc.Encode(cfg); err != nil {
					return err
				}
				return enc.Close()
			case "json":
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(cfg)
			default:
				return fmt.Errorf("unknown format %q (want yaml or json)", format)
			}
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "yaml", "Output format: yaml or json")
	cmd.Flags().StringVar(&write, "write", "", "Write the effective config to this file instead of printing it")

	return cmd
}
