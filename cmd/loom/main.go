package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/vango-dev/loom/internal/errors"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

const banner = `
  ╦  ┌─┐┌─┐┌┬┐
  ║  │ ││ ││││
  ╩═╝└─┘└─┘┴ ┴
`

func main() {
	if err := rootCmd().Execute(); err != nil {
		errors.Fprint(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	opts := &globalOptions{}

	cmd := &cobra.Command{
		Use:   "loom",
		Short: "Reactive component runtime toolkit",
		Long: `Loom is a reactive component runtime for Go.

It pairs a fine-grained reactive graph with an asynchronous,
interruptible render scheduler. This tool runs the bundled
scenarios, benchmarks the scheduler and serves the devtools
inspector.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVarP(&opts.dir, "config", "c", ".", "Directory containing loom.json or loom.yaml")
	cmd.PersistentFlags().StringArrayVar(&opts.overrides, "set", nil, "Override a config value (key=value, repeatable)")

	cmd.AddCommand(
		demoCmd(opts),
		benchCmd(opts),
		inspectCmd(opts),
		configCmd(opts),
		versionCmd(),
	)
	return cmd
}

// printBanner prints the Loom ASCII art banner.
func printBanner() {
	fmt.Print(banner)
}

// success prints a success message.
func success(format string, args ...any) {
	fmt.Printf("\033[32m✓\033[0m %s\n", fmt.Sprintf(format, args...))
}

// info prints an info message.
func info(format string, args ...any) {
	fmt.Printf("  %s\n", fmt.Sprintf(format, args...))
}

// warn prints a warning message.
func warn(format string, args ...any) {
	fmt.Printf("\033[33m⚠\033[0m %s\n", fmt.Sprintf(format, args...))
}
