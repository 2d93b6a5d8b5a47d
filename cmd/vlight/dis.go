package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vitte-lang/VitteLight-sub002/engine"
)

func newDisCmd() *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "dis <module.vlbc>",
		Short: "Disassemble a VLBC module into textual listing",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			mod, err := loadModule(args[0])
			if err != nil {
				return err
			}

			listing, err := engine.Disassemble(mod)
			if err != nil {
				return runtimeErr(err)
			}

			w, closeFn, err := openOutput(out)
			if err != nil {
				return ioErr(6, err)
			}
			defer closeFn()
			fmt.Fprint(w, listing)
			return nil
		},
	}

	cmd.Flags().StringVarP(&out, "output", "o", "", "output listing path (default: stdout)")
	return cmd
}
