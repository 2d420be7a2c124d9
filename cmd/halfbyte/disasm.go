package main

import (
	"bufio"
	"fmt"

	"github.com/spf13/cobra"

	"halfbyte/internal/isa"
)

var disasmCmd = &cobra.Command{
	Use:   "disasm <file.prg|file.d64|file.hbir>",
	Short: "Disassemble a program",
	Long: `Disassemble a PRG file, a program on a D64 image or a freshly compiled
.hbir program. Compiled programs carry their labels; the constant pool is
printed as data.`,
	Args: cobra.ExactArgs(1),
	RunE: runDisasm,
}

func init() {
	disasmCmd.Flags().String("file", "", "program to take from a .d64 (default: the first one)")
	disasmCmd.Flags().Bool("stub", false, "decode the BASIC stub as instructions too")
}

func runDisasm(cmd *cobra.Command, args []string) error {
	member, err := cmd.Flags().GetString("file")
	if err != nil {
		return err
	}
	withStub, err := cmd.Flags().GetBool("stub")
	if err != nil {
		return err
	}
	settings, _, err := resolveSettings()
	if err != nil {
		return err
	}
	p, err := openProgram(cmd.Context(), args[0], member, settings.Target)
	if err != nil {
		return err
	}

	w := bufio.NewWriter(cmd.OutOrStdout())
	code, origin := p.PRG.Data, p.PRG.Load
	if p.Stub > 0 && !withStub {
		fmt.Fprintf(w, "; $%04X  BASIC stub, %d bytes: SYS %d\n", p.PRG.Load, p.Stub, p.Entry)
		code, origin = code[p.Stub:], p.Entry
	}
	fmt.Fprintf(w, "; %s: $%04X-$%04X, entry $%04X\n", p.Name, p.PRG.Load, p.PRG.End()-1, p.Entry)
	for _, line := range isa.Disassemble(code, origin, isa.DisasmOptions{
		Symbols:   p.Symbols,
		DataStart: p.DataStart,
	}) {
		fmt.Fprintln(w, line.String())
	}
	return w.Flush()
}
