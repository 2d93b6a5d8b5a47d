package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/vitte-lang/VitteLight-sub002/engine"
)

func newAsmCmd() *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "asm <source.vl>",
		Short: "Assemble textual VitteLight source into a VLBC module",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := readInput(args[0])
			if err != nil {
				return ioErr(3, err)
			}

			image, err := engine.AssembleToImage(string(src))
			if err != nil {
				return ioErr(4, err)
			}

			if out == "" {
				out = defaultOutputName(args[0], ".vlbc")
			}
			if err := os.WriteFile(out, image, 0o644); err != nil {
				return ioErr(6, err)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&out, "output", "o", "", "output module path (default: <source>.vlbc)")
	return cmd
}

func readInput(path string) ([]byte, error) {
	if path == "-" {
		return readAll(os.Stdin)
	}
	return os.ReadFile(path)
}

func defaultOutputName(srcPath, ext string) string {
	for i := len(srcPath) - 1; i >= 0 && srcPath[i] != '/'; i-- {
		if srcPath[i] == '.' {
			return srcPath[:i] + ext
		}
	}
	return srcPath + ext
}
