package main

import (
	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "vlight",
		Short:         "VitteLight assembler, interpreter and disassembler",
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	root.AddCommand(
		newAsmCmd(),
		newDisCmd(),
		newRunCmd(),
		newDumpCmd(),
		newBenchCmd(),
		newReplCmd(),
	)

	return root
}
