package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"halfbyte/internal/hir"
	"halfbyte/internal/layout"
	"halfbyte/internal/types"
)

var initCmd = &cobra.Command{
	Use:   "init [path|name]",
	Short: "Initialize a new halfbyte project",
	Long: `Initialize a new halfbyte project by creating a project manifest
(halfbyte.toml) and a hello-world program (hello.hbir). If [path|name] is
omitted, initializes the current directory. A missing directory is created.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runInit,
}

// runInit writes halfbyte.toml and, unless one exists, hello.hbir into the
// target directory. It refuses to overwrite an existing manifest.
func runInit(cmd *cobra.Command, args []string) error {
	wd, err := os.Getwd()
	if err != nil {
		return err
	}
	target := wd
	if len(args) == 1 && args[0] != "." {
		target = args[0]
		if !filepath.IsAbs(target) {
			target = filepath.Join(wd, target)
		}
	}

	if st, err := os.Stat(target); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return err
		}
		if err = os.MkdirAll(target, 0o755); err != nil {
			return fmt.Errorf("failed to create directory %q: %w", target, err)
		}
	} else if !st.IsDir() {
		return fmt.Errorf("%q is not a directory", target)
	}

	name := strings.TrimSpace(filepath.Base(target))
	if name == "" || name == "." || name == string(filepath.Separator) {
		name = "halfbyte-project"
	}

	manifestPath := filepath.Join(target, manifestName)
	if _, err := os.Stat(manifestPath); err == nil {
		return fmt.Errorf("project already initialized: %s exists", manifestPath)
	}
	if err := os.WriteFile(manifestPath, []byte(defaultManifest(name)), 0o600); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}

	helloPath := filepath.Join(target, "hello.hbir")
	createdHello := false
	if _, err := os.Stat(helloPath); errors.Is(err, os.ErrNotExist) {
		if err := writeHello(helloPath); err != nil {
			return fmt.Errorf("failed to write hello.hbir: %w", err)
		}
		createdHello = true
	}

	rel := target
	if r, err := filepath.Rel(wd, target); err == nil {
		rel = r
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Initialized halfbyte project in %s\n", rel)
	fmt.Fprintf(out, "  - %s\n", manifestName)
	if createdHello {
		fmt.Fprintf(out, "  - hello.hbir\n")
	} else {
		fmt.Fprintf(out, "  - hello.hbir (existing)\n")
	}
	return nil
}

// defaultManifest spells out the C64 defaults so they are easy to edit.
func defaultManifest(name string) string {
	t := layout.C64()
	return fmt.Sprintf(`# halfbyte project manifest
[package]
name = %q

[target]
name = %q
load_address = 0x%04X
basic_stub = %t
var_base = 0x%04X
var_limit = 0x%04X

[output]
format = "prg"
dir = "build"
disk_name = %q
disk_id = "hb"

[build]
max_diagnostics = 100
cache = false
`, name, t.Name, t.LoadAddress, t.BasicStub, t.VarBase, t.VarLimit, strings.ToUpper(name))
}

// helloProgram prints a greeting and counts to three.
func helloProgram() *hir.Program {
	b := hir.NewBuilder("hello")
	main := b.Func("main", types.Void)
	i := main.Local("i", types.U8)
	main.Body(
		b.Println(b.Str("HELLO FROM HALFBYTE")),
		b.For(i, b.Int(types.U8, 1), b.Int(types.U8, 3), false,
			b.Println(b.Var(i)),
		),
	)
	return b.Program()
}

func writeHello(path string) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
	if err != nil {
		return err
	}
	if err := hir.Encode(f, helloProgram()); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
