package engine

import (
	"fmt"
	"io"
)

// TraceMask selects which categories of event a Context emits to its
// output sink while stepping.
type TraceMask uint8

const (
	TraceOp TraceMask = 1 << iota
	TraceStack
	TraceGlobal
	TraceCall

	TraceAll = TraceOp | TraceStack | TraceGlobal | TraceCall
)

// traceOp writes the mnemonic and byte offset about to execute.
func (ctx *Context) traceOp(ip uint32, d DecodedInstr) {
	if ctx.traceMask&TraceOp == 0 {
		return
	}
	line, _, err := FormatInstruction(ctx.module.Pool, ctx.module.Code, ip)
	if err != nil {
		fmt.Fprintf(ctx.traceSink(), "op@%d: %s\n", ip, d.Op)
		return
	}
	fmt.Fprintf(ctx.traceSink(), "%d: %s\n", ip, line)
}

// traceStack dumps the current stack, deepest first.
func (ctx *Context) traceStack() {
	if ctx.traceMask&TraceStack == 0 {
		return
	}
	w := ctx.traceSink()
	fmt.Fprint(w, "  stack>")
	for _, v := range ctx.stack {
		fmt.Fprint(w, " ")
		Print(w, v)
	}
	fmt.Fprintln(w)
}

// traceGlobalWrite reports a STOREG.
func (ctx *Context) traceGlobalWrite(idx uint32, v Value) {
	if ctx.traceMask&TraceGlobal == 0 {
		return
	}
	w := ctx.traceSink()
	fmt.Fprintf(w, "  global[%d] =", idx)
	fmt.Fprint(w, " ")
	Print(w, v)
	fmt.Fprintln(w)
}

// traceCall reports a CALLN dispatch.
func (ctx *Context) traceCall(name string, argc int) {
	if ctx.traceMask&TraceCall == 0 {
		return
	}
	fmt.Fprintf(ctx.traceSink(), "  call> %s/%d\n", name, argc)
}

func (ctx *Context) traceSink() io.Writer {
	if ctx.sink != nil {
		return ctx.sink
	}
	return io.Discard
}

// DumpStack renders the current stack for external introspection (e.g. the
// CLI's --print-stack), deepest first.
func (ctx *Context) DumpStack(w io.Writer) {
	fmt.Fprint(w, "[")
	for i, v := range ctx.stack {
		if i > 0 {
			fmt.Fprint(w, ", ")
		}
		Print(w, v)
	}
	fmt.Fprintln(w, "]")
}

// DumpWindow prints the disassembled instruction at the current IP plus a
// handful of instructions before/after it, for debugging aids.
func (ctx *Context) DumpWindow(w io.Writer, radius int) {
	ips := instructionOffsets(ctx.module.Code)
	cur := -1
	for i, off := range ips {
		if off == ctx.ip {
			cur = i
			break
		}
	}
	if cur < 0 {
		fmt.Fprintln(w, "<ip out of bounds>")
		return
	}

	lo := cur - radius
	if lo < 0 {
		lo = 0
	}
	hi := cur + radius
	if hi >= len(ips) {
		hi = len(ips) - 1
	}

	for i := lo; i <= hi; i++ {
		line, _, err := FormatInstruction(ctx.module.Pool, ctx.module.Code, ips[i])
		if err != nil {
			continue
		}
		marker := "  "
		if i == cur {
			marker = "->"
		}
		fmt.Fprintf(w, "%s %d: %s\n", marker, ips[i], line)
	}
}

// instructionOffsets walks the code buffer once and returns the byte
// offset of every instruction boundary, used by DumpWindow.
func instructionOffsets(code []byte) []uint32 {
	offsets := make([]uint32, 0, len(code)/2)
	ip := uint32(0)
	for ip < uint32(len(code)) {
		offsets = append(offsets, ip)
		d, err := DecodeAt(code, ip)
		if err != nil {
			break
		}
		ip += uint32(d.Size)
	}
	return offsets
}
