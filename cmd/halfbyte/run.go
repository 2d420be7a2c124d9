package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"halfbyte/internal/observ"
	"halfbyte/internal/petscii"
	"halfbyte/internal/sim"
	"halfbyte/internal/trace"
)

var runCmd = &cobra.Command{
	Use:   "run <file.prg|file.d64|file.hbir>",
	Short: "Run a program on the built-in 6502 simulator",
	Long: `Load a program into the simulator, call its entry point and print what it
wrote through CHROUT. Only the CPU and the character output are simulated.`,
	Args: cobra.ExactArgs(1),
	RunE: runRun,
}

func init() {
	runCmd.Flags().String("file", "", "program to take from a .d64 (default: the first one)")
	runCmd.Flags().Uint64("steps", 50_000_000, "instruction limit (0 runs without one)")
	runCmd.Flags().Bool("raw", false, "write the PETSCII bytes as they are")
}

func runRun(cmd *cobra.Command, args []string) error {
	member, err := cmd.Flags().GetString("file")
	if err != nil {
		return err
	}
	steps, err := cmd.Flags().GetUint64("steps")
	if err != nil {
		return err
	}
	raw, err := cmd.Flags().GetBool("raw")
	if err != nil {
		return err
	}
	settings, _, err := resolveSettings()
	if err != nil {
		return err
	}
	var timer *observ.Timer
	if timings, _ := cmd.Flags().GetBool("timings"); timings {
		timer = observ.NewTimer()
	}

	var p *program
	err = timer.Track("load", func() error {
		var err error
		p, err = openProgram(cmd.Context(), args[0], member, settings.Target)
		return err
	})
	if err != nil {
		return err
	}

	cpu := sim.New()
	if err := cpu.Load(p.PRG.Load, p.PRG.Data); err != nil {
		return err
	}
	span := trace.Begin(trace.FromContext(cmd.Context()), trace.ScopeDriver, "run", 0).
		WithExtra("program", p.Name)
	idx := timer.Begin("run")
	runErr := cpu.Call(p.Entry, steps)
	timer.End(idx, fmt.Sprintf("%d steps", cpu.Steps))
	span.End(fmt.Sprintf("%d steps", cpu.Steps))

	if err := writeOutput(cmd.OutOrStdout(), cpu.Out, raw); err != nil {
		return err
	}
	if timer != nil {
		fmt.Fprint(cmd.ErrOrStderr(), timer.Summary())
	}
	switch {
	case runErr == nil:
		return nil
	case errors.Is(runErr, sim.ErrStepLimit):
		return fmt.Errorf("%s did not return: %w", p.Name, runErr)
	}
	return fmt.Errorf("%s: %w", p.Name, runErr)
}

func writeOutput(w io.Writer, out []byte, raw bool) error {
	if raw {
		_, err := w.Write(out)
		return err
	}
	text := petscii.Decode(out)
	if text != "" && text[len(text)-1] != '\n' {
		text += "\n"
	}
	_, err := io.WriteString(w, text)
	return err
}
