package main

import (
	"bufio"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/vitte-lang/VitteLight-sub002/engine"
)

func newReplCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "repl",
		Short: "Interactively assemble and execute one line at a time",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			runRepl(cmd.InOrStdin(), cmd.OutOrStdout())
			return nil
		},
	}
	return cmd
}

// runRepl reads one line of VitteLight assembly at a time, assembling it
// against a pool shared across the whole session and executing it against
// a Context whose stack and globals likewise persist from line to line —
// only the program counter and the module's code buffer are local to each
// line. Each line's buffer gets its own trailing HALT appended before it
// runs: Step treats falling off the end of a buffer with no HALT as
// ErrIPOutOfBounds, and a typed line is never expected to supply its own.
func runRepl(in io.Reader, out io.Writer) {
	asm := engine.NewAssembler()
	ctx := engine.NewContext()
	ctx.SetOutput(out)
	engine.StandardNatives(ctx)

	scanner := bufio.NewScanner(in)
	fmt.Fprint(out, "> ")
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			fmt.Fprint(out, "> ")
			continue
		}

		code, err := asm.AssembleSource(line)
		if err != nil {
			fmt.Fprintln(out, "error:", err)
			fmt.Fprint(out, "> ")
			continue
		}
		code = append(code, byte(engine.OpHalt))

		if err := engine.ValidateCode(code, asm.Pool().Len()); err != nil {
			fmt.Fprintln(out, "error:", err)
			fmt.Fprint(out, "> ")
			continue
		}

		mod := &engine.Module{Version: engine.CurrentVersion, Pool: asm.Pool(), Code: code}
		if err := ctx.AttachKeepState(mod); err != nil {
			fmt.Fprintln(out, "error:", err)
			fmt.Fprint(out, "> ")
			continue
		}

		if _, err := ctx.Run(0); err != nil {
			fmt.Fprintln(out, "error:", err)
		}
		fmt.Fprint(out, "> ")
	}
	fmt.Fprintln(out)
}
