package main

import (
	"bufio"

	"github.com/spf13/cobra"

	"halfbyte/internal/driver"
	"halfbyte/internal/hir"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <file.hbir>",
	Short: "Print the program held in an .hbir file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		prog, err := driver.LoadProgram(args[0])
		if err != nil {
			return err
		}
		w := bufio.NewWriter(cmd.OutOrStdout())
		if err := hir.Dump(w, prog); err != nil {
			return err
		}
		return w.Flush()
	},
}
