package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vitte-lang/VitteLight-sub002/engine"
)

func newRunCmd() *cobra.Command {
	var trace string
	var maxSteps int
	var printStack bool

	cmd := &cobra.Command{
		Use:   "run <module.vlbc>",
		Short: "Load and execute a VLBC module",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			mod, err := loadModule(args[0])
			if err != nil {
				return err
			}

			mask, err := parseTraceMask(trace)
			if err != nil {
				return usageErr("--trace: %w", err)
			}

			ctx := engine.NewContext()
			ctx.SetTraceMask(mask)
			ctx.SetSink(cmd.OutOrStdout())
			engine.StandardNatives(ctx)
			if err := ctx.Attach(mod); err != nil {
				return runtimeErr(err)
			}

			status, err := ctx.Run(maxSteps)
			if err != nil {
				return runtimeErr(err)
			}

			if printStack {
				ctx.DumpStack(cmd.OutOrStdout())
			}

			if status != engine.StatusHalted {
				return runtimeErr(fmt.Errorf("run ended in status %s", status))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&trace, "trace", "", "comma-separated trace categories: op,stack,global,call,all")
	cmd.Flags().IntVar(&maxSteps, "max-steps", 0, "abort after this many steps (0 = unlimited)")
	cmd.Flags().BoolVar(&printStack, "print-stack", false, "print the operand stack after the run completes")
	return cmd
}

func parseTraceMask(s string) (engine.TraceMask, error) {
	var mask engine.TraceMask
	if s == "" {
		return mask, nil
	}
	for _, part := range strings.Split(s, ",") {
		switch strings.TrimSpace(strings.ToLower(part)) {
		case "op":
			mask |= engine.TraceOp
		case "stack":
			mask |= engine.TraceStack
		case "global":
			mask |= engine.TraceGlobal
		case "call":
			mask |= engine.TraceCall
		case "all":
			mask |= engine.TraceAll
		case "":
		default:
			return 0, fmt.Errorf("unknown trace category %q", part)
		}
	}
	return mask, nil
}
