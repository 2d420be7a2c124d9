package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"halfbyte/internal/version"
)

var rootCmd = &cobra.Command{
	Use:   "halfbyte",
	Short: "6502 code generator for the Commodore 64",
	Long: `halfbyte compiles typed intermediate programs (.hbir) into 6502 machine
code and packages them as PRG files or D64 disk images.`,
	SilenceUsage:      true,
	PersistentPreRunE: setupRoot,
}

// session is the tracing state of the running command, closed by main.
var session *traceSession

// main registers the subcommands and persistent flags and runs the root
// command. Any error exits with status 1.
func main() {
	rootCmd.Version = version.Version

	rootCmd.AddCommand(buildCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(disasmCmd)
	rootCmd.AddCommand(inspectCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(versionCmd)

	flags := rootCmd.PersistentFlags()
	flags.String("color", "auto", "colorize output (auto|on|off)")
	flags.Bool("quiet", false, "suppress non-essential output")
	flags.Bool("timings", false, "show timing information")
	flags.Int("max-diagnostics", 100, "maximum number of diagnostics to show")
	flags.String("ui", "auto", "progress view (auto|tui|plain|off)")
	flags.String("trace", "", "write a trace to this file (- for stderr)")
	flags.String("trace-level", "off", "trace level (off|error|phase|detail)")
	flags.String("trace-mode", "stream", "trace storage (stream|ring|both)")
	flags.String("trace-format", "auto", "trace format (auto|text|ndjson|chrome)")
	flags.Int("trace-ring-size", 2048, "events kept by the ring buffer")
	flags.Duration("trace-heartbeat", 0, "emit a heartbeat event at this interval (0 disables)")

	err := rootCmd.ExecuteContext(context.Background())
	if session != nil {
		session.close(err)
	}
	if err != nil {
		os.Exit(1)
	}
}

func setupRoot(cmd *cobra.Command, args []string) error {
	mode, err := cmd.Flags().GetString("color")
	if err != nil {
		return err
	}
	if err := applyColor(mode); err != nil {
		return err
	}
	session, err = setupTracing(cmd)
	return err
}

// applyColor sets the process-wide color switch used by every printer.
func applyColor(mode string) error {
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case "", "auto":
		color.NoColor = color.NoColor || !isTerminal(os.Stderr)
	case "on":
		color.NoColor = false
	case "off":
		color.NoColor = true
	default:
		return fmt.Errorf("invalid --color value %q (expected auto|on|off)", mode)
	}
	return nil
}

// isTerminal reports whether f is an interactive terminal.
func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// intFlagOr returns the named flag when the user set it, and fallback
// otherwise.
func intFlagOr(cmd *cobra.Command, name string, fallback int) (int, error) {
	if !cmd.Flags().Changed(name) {
		return fallback, nil
	}
	return cmd.Flags().GetInt(name)
}

func quiet(cmd *cobra.Command) bool {
	q, _ := cmd.Flags().GetBool("quiet")
	return q
}
