package main

import (
	"encoding/hex"
	"fmt"

	"github.com/samber/lo"
	"github.com/spf13/cobra"
)

func newDumpCmd() *cobra.Command {
	var hexdump bool
	var strings_ bool

	cmd := &cobra.Command{
		Use:   "dump <module.vlbc>",
		Short: "Print a VLBC module's header, string pool and code summary",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			mod, err := loadModule(args[0])
			if err != nil {
				return err
			}

			fmt.Printf("version: %d\n", mod.Version)
			fmt.Printf("strings: %d\n", mod.Pool.Len())
			fmt.Printf("code_size: %d\n", len(mod.Code))

			if strings_ {
				indices := lo.Range(int(mod.Pool.Len()))
				for _, i := range indices {
					b, _ := mod.Pool.Bytes(uint32(i))
					fmt.Printf("  [%d] %q\n", i, b)
				}
			}

			if hexdump {
				fmt.Println(hex.Dump(mod.Code))
			}

			return nil
		},
	}

	cmd.Flags().BoolVar(&hexdump, "hexdump", false, "hex-dump the raw code buffer")
	cmd.Flags().BoolVar(&strings_, "strings", false, "list every interned string with its pool index")
	return cmd
}
