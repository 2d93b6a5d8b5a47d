package main

import (
	"fmt"
	"runtime/debug"
	"time"

	"github.com/spf13/cobra"

	"github.com/vitte-lang/VitteLight-sub002/engine"
)

func newBenchCmd() *cobra.Command {
	var iterations int

	cmd := &cobra.Command{
		Use:   "bench <module.vlbc>",
		Short: "Time repeated attach-and-run cycles of a VLBC module",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			mod, err := loadModule(args[0])
			if err != nil {
				return err
			}
			if iterations <= 0 {
				return usageErr("-n must be positive, got %d", iterations)
			}

			ctx := engine.NewContext()
			ctx.SetOutput(discardWriter{})
			engine.StandardNatives(ctx)

			prevPercent := debug.SetGCPercent(-1)
			defer debug.SetGCPercent(prevPercent)

			start := time.Now()
			for i := 0; i < iterations; i++ {
				if err := ctx.Attach(mod); err != nil {
					return runtimeErr(err)
				}
				if _, err := ctx.Run(0); err != nil {
					return runtimeErr(err)
				}
			}
			elapsed := time.Since(start)

			fmt.Printf("iterations: %d\n", iterations)
			fmt.Printf("total: %s\n", elapsed)
			fmt.Printf("per-run: %s\n", elapsed/time.Duration(iterations))
			return nil
		},
	}

	cmd.Flags().IntVarP(&iterations, "iterations", "n", 1000, "number of attach-and-run cycles")
	return cmd
}

type discardWriter struct{}

func (discardWriter) Write(p []byte) (int, error) { return len(p), nil }
