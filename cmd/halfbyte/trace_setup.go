package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"halfbyte/internal/trace"
)

// traceSession owns the tracer of one command run.
type traceSession struct {
	tracer    trace.Tracer
	heartbeat *trace.Heartbeat
	errOut    io.Writer
}

// setupTracing inspects the trace flags, builds the tracer and attaches it
// to the command context.
func setupTracing(cmd *cobra.Command) (*traceSession, error) {
	flags := cmd.Root().PersistentFlags()

	output, err := flags.GetString("trace")
	if err != nil {
		return nil, fmt.Errorf("failed to get trace flag: %w", err)
	}
	levelStr, err := flags.GetString("trace-level")
	if err != nil {
		return nil, fmt.Errorf("failed to get trace-level flag: %w", err)
	}
	modeStr, err := flags.GetString("trace-mode")
	if err != nil {
		return nil, fmt.Errorf("failed to get trace-mode flag: %w", err)
	}
	formatStr, err := flags.GetString("trace-format")
	if err != nil {
		return nil, fmt.Errorf("failed to get trace-format flag: %w", err)
	}
	ringSize, err := flags.GetInt("trace-ring-size")
	if err != nil {
		return nil, fmt.Errorf("failed to get trace-ring-size flag: %w", err)
	}
	interval, err := flags.GetDuration("trace-heartbeat")
	if err != nil {
		return nil, fmt.Errorf("failed to get trace-heartbeat flag: %w", err)
	}

	level, err := trace.ParseLevel(levelStr)
	if err != nil {
		return nil, err
	}
	if level == trace.LevelOff {
		if output == "" {
			cmd.SetContext(trace.WithTracer(cmd.Context(), trace.Nop))
			return nil, nil
		}
		// a trace file without a level records the phases
		level = trace.LevelPhase
	}
	mode, err := trace.ParseMode(modeStr)
	if err != nil {
		return nil, err
	}
	format, err := trace.ParseFormat(formatStr)
	if err != nil {
		return nil, err
	}

	tracer, err := trace.New(trace.Config{
		Level:      level,
		Mode:       mode,
		Format:     format,
		OutputPath: output,
		RingSize:   ringSize,
		Heartbeat:  interval,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create tracer: %w", err)
	}
	ctx := trace.WithTracer(cmd.Context(), tracer)
	cmd.SetContext(ctx)
	cmd.Root().SetContext(ctx)

	s := &traceSession{tracer: tracer, errOut: cmd.ErrOrStderr()}
	if interval > 0 {
		s.heartbeat = trace.StartHeartbeat(tracer, interval)
	}
	return s, nil
}

// close stops the heartbeat and flushes the tracer. When the command failed
// the ring buffer, if any, is dumped first.
func (s *traceSession) close(failed error) {
	if s.heartbeat != nil {
		s.heartbeat.Stop()
	}
	if failed != nil {
		if ring, ok := trace.RingOf(s.tracer); ok {
			fmt.Fprintln(s.errOut, "trace: last events before the failure:")
			if err := ring.Dump(s.errOut, trace.FormatText); err != nil {
				fmt.Fprintf(s.errOut, "trace: dump error: %v\n", err)
			}
		}
	}
	if err := s.tracer.Flush(); err != nil {
		fmt.Fprintf(s.errOut, "trace: flush error: %v\n", err)
	}
	if err := s.tracer.Close(); err != nil {
		fmt.Fprintf(s.errOut, "trace: close error: %v\n", err)
	}
}
