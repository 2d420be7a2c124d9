package main

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"sort"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"halfbyte/internal/diag"
	"halfbyte/internal/diagfmt"
	"halfbyte/internal/driver"
	"halfbyte/internal/observ"
	"halfbyte/internal/source"
	"halfbyte/internal/ui"
)

var buildCmd = &cobra.Command{
	Use:   "build [files...]",
	Short: "Compile .hbir programs to PRG files or a D64 image",
	Long: `Compile one or more .hbir programs. Without arguments every .hbir file in
the project directory (the one holding halfbyte.toml) is built. Flags override
the [output] and [build] sections of the manifest.`,
	RunE: runBuild,
}

func init() {
	buildCmd.Flags().String("format", "", "output format (prg|d64)")
	buildCmd.Flags().StringP("out-dir", "o", "", "directory for the output files")
	buildCmd.Flags().String("disk-name", "", "D64 disk name, also the .d64 file name")
	buildCmd.Flags().String("disk-id", "", "two-character D64 disk id")
	buildCmd.Flags().Bool("cache", false, "reuse images built earlier from the same input")
	buildCmd.Flags().IntP("jobs", "j", 0, "parallel builds (0 uses every CPU)")
	buildCmd.Flags().String("diagnostics", "pretty", "diagnostics format (pretty|json)")
}

var errBuildFailed = errors.New("build failed")

var noLocation source.Span

func runBuild(cmd *cobra.Command, args []string) error {
	settings, manifest, err := resolveSettings()
	if err != nil {
		return err
	}
	if err := applyBuildFlags(cmd, &settings); err != nil {
		return err
	}
	files, err := inputFiles(args, manifest)
	if err != nil {
		return err
	}

	var timer *observ.Timer
	if timings, _ := cmd.Flags().GetBool("timings"); timings {
		timer = observ.NewTimer()
	}
	var cache *driver.ImageCache
	if settings.Cache {
		dir, err := driver.CacheDir("halfbyte")
		if err != nil {
			return err
		}
		if cache, err = driver.OpenImageCache(dir); err != nil {
			return err
		}
	}
	jobs, err := cmd.Flags().GetInt("jobs")
	if err != nil {
		return err
	}
	diagFormat, err := cmd.Flags().GetString("diagnostics")
	if err != nil {
		return err
	}
	if diagFormat != "pretty" && diagFormat != "json" {
		return fmt.Errorf("invalid --diagnostics value %q (expected pretty|json)", diagFormat)
	}

	modeStr, err := cmd.Flags().GetString("ui")
	if err != nil {
		return err
	}
	mode, err := ui.ParseMode(modeStr)
	if err != nil {
		return err
	}
	if quiet(cmd) {
		mode = ui.ModeOff
	}
	errOut := cmd.ErrOrStderr()
	progress := ui.Start(cmd.Context(), mode, errOut, "halfbyte build", files)

	outcomes, err := driver.BuildAll(cmd.Context(), files, driver.Options{
		Target:         settings.Target,
		MaxDiagnostics: settings.MaxDiagnostics,
		Jobs:           jobs,
		Cache:          cache,
		Timer:          timer,
		Sink:           progress.Sink(),
	})
	var written []string
	var writeErr error
	if err == nil {
		out := settings.Output
		out.Sink = progress.Sink()
		idx := timer.Begin("write")
		written, writeErr = driver.WriteOutputs(outcomes, out)
		timer.End(idx, settings.Output.Format)
	}
	if uiErr := progress.Wait(); uiErr != nil && !quiet(cmd) {
		fmt.Fprintf(errOut, "ui: %v\n", uiErr)
	}
	if err != nil {
		return err
	}

	failed := 0
	for _, o := range outcomes {
		if o.Failed() {
			failed++
		}
		if err := printDiagnostics(errOut, o, quiet(cmd), diagFormat); err != nil {
			return err
		}
	}
	if writeErr != nil {
		bag := diag.NewBag(1)
		bag.Add(diag.NewError(diag.IOWriteError, noLocation, writeErr.Error()))
		if err := printBag(errOut, bag, nil, diagFormat); err != nil {
			return err
		}
	}
	if !quiet(cmd) {
		for _, path := range written {
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
		}
	}
	if timer != nil {
		fmt.Fprint(errOut, timer.Summary())
	}
	switch {
	case failed > 0:
		return fmt.Errorf("%w: %d of %d programs did not compile", errBuildFailed, failed, len(outcomes))
	case writeErr != nil:
		return fmt.Errorf("%w: %w", errBuildFailed, writeErr)
	}
	return nil
}

func applyBuildFlags(cmd *cobra.Command, s *buildSettings) error {
	flags := cmd.Flags()
	if flags.Changed("format") {
		format, _ := flags.GetString("format")
		switch format {
		case driver.FormatPRG, driver.FormatD64:
			s.Output.Format = format
		default:
			return fmt.Errorf("invalid --format value %q (expected prg|d64)", format)
		}
	}
	if flags.Changed("out-dir") {
		s.Output.Dir, _ = flags.GetString("out-dir")
	}
	if flags.Changed("disk-name") {
		s.Output.DiskName, _ = flags.GetString("disk-name")
	}
	if flags.Changed("disk-id") {
		s.Output.DiskID, _ = flags.GetString("disk-id")
	}
	if flags.Changed("cache") {
		s.Cache, _ = flags.GetBool("cache")
	}
	n, err := intFlagOr(cmd, "max-diagnostics", s.MaxDiagnostics)
	if err != nil {
		return err
	}
	s.MaxDiagnostics = n
	return nil
}

// inputFiles returns args, or every .hbir file next to the manifest.
func inputFiles(args []string, m *projectManifest) ([]string, error) {
	if len(args) > 0 {
		return args, nil
	}
	if m == nil {
		return nil, fmt.Errorf("no input files and no %s found\nplease name the programs to build, e.g.:\n  halfbyte build hello.hbir", manifestName)
	}
	files, err := filepath.Glob(filepath.Join(m.Root, "*.hbir"))
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("%s: no .hbir files in %s", m.Path, m.Root)
	}
	sort.Strings(files)
	return files, nil
}

func printDiagnostics(w io.Writer, o *driver.Outcome, quiet bool, format string) error {
	bag := o.Diagnostics()
	if quiet && !bag.HasErrors() {
		return nil
	}
	bag.Sort()
	return printBag(w, bag, o, format)
}

// printBag renders bag in the pretty or the JSON format.
func printBag(w io.Writer, bag *diag.Bag, o *driver.Outcome, format string) error {
	if bag.Len() == 0 {
		return nil
	}
	fs := sourceFiles(o)
	if format == "json" {
		return diagfmt.JSON(w, bag, fs, diagfmt.JSONOpts{IncludePositions: true, IncludeNotes: true})
	}
	if err := diagfmt.Pretty(w, bag, fs, diagfmt.PrettyOpts{
		Color:     !color.NoColor,
		Context:   1,
		ShowNotes: true,
	}); err != nil {
		return err
	}
	if n := bag.Dropped(); n > 0 {
		if _, err := fmt.Fprintf(w, "... %d more diagnostics not shown (see --max-diagnostics)\n", n); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w)
	return err
}

func sourceFiles(o *driver.Outcome) *source.FileSet {
	if o == nil {
		return source.NewFileSet()
	}
	return o.FileSet()
}
