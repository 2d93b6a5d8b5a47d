package engine

import (
	"bytes"
	"strings"
	"testing"
)

func TestVMPrintOpcodeWritesNewline(t *testing.T) {
	src := `
		PUSHI 2
		PUSHI 40
		ADD
		PRINT
		HALT
	`
	mod, err := AssembleToModule(src)
	assert(t, err == nil, "assemble: %v", err)

	var out bytes.Buffer
	ctx := NewContext()
	ctx.SetOutput(&out)
	assert(t, ctx.Attach(mod) == nil, "attach failed")

	status, err := ctx.Run(0)
	assert(t, err == nil, "run: %v", err)
	assert(t, status == StatusHalted, "want halted, got %v", status)
	assert(t, out.String() == "42\n", "got %q, want %q", out.String(), "42\n")
}

func TestVMCallNNativePrint(t *testing.T) {
	src := `
		PUSHS "hello"
		CALLN print 1
		HALT
	`
	mod, err := AssembleToModule(src)
	assert(t, err == nil, "assemble: %v", err)

	var out bytes.Buffer
	ctx := NewContext()
	ctx.SetOutput(&out)
	StandardNatives(ctx)
	assert(t, ctx.Attach(mod) == nil, "attach failed")

	status, err := ctx.Run(0)
	assert(t, err == nil, "run: %v", err)
	assert(t, status == StatusHalted, "want halted, got %v", status)
	assert(t, strings.TrimSpace(out.String()) == "hello", "got %q", out.String())
}

func TestVMUnknownNative(t *testing.T) {
	src := `
		CALLN nonexistent 0
		HALT
	`
	mod, err := AssembleToModule(src)
	assert(t, err == nil, "assemble: %v", err)

	ctx := NewContext()
	assert(t, ctx.Attach(mod) == nil, "attach failed")
	_, err = ctx.Run(0)
	assert(t, err != nil, "expected unknown native error")
}

func TestVMStackUnderflow(t *testing.T) {
	src := `
		ADD
		HALT
	`
	mod, err := AssembleToModule(src)
	assert(t, err == nil, "assemble: %v", err)

	ctx := NewContext()
	assert(t, ctx.Attach(mod) == nil, "attach failed")
	_, err = ctx.Run(0)
	assert(t, err == ErrStackUnderflow, "want ErrStackUnderflow, got %v", err)
}

func TestVMStackOverflow(t *testing.T) {
	var b strings.Builder
	for i := 0; i < DefaultMaxStack+10; i++ {
		b.WriteString("PUSHI 1\n")
	}
	b.WriteString("HALT\n")

	mod, err := AssembleToModule(b.String())
	assert(t, err == nil, "assemble: %v", err)

	ctx := NewContext()
	assert(t, ctx.Attach(mod) == nil, "attach failed")
	_, err = ctx.Run(0)
	assert(t, err == ErrStackOverflow, "want ErrStackOverflow, got %v", err)
}

func TestVMStepBudgetExhausted(t *testing.T) {
	src := `
		PUSHI 1
		POP
		PUSHI 1
		POP
		HALT
	`
	mod, err := AssembleToModule(src)
	assert(t, err == nil, "assemble: %v", err)

	ctx := NewContext()
	assert(t, ctx.Attach(mod) == nil, "attach failed")
	status, err := ctx.Run(2)
	assert(t, err == ErrStepBudgetExhausted, "want ErrStepBudgetExhausted, got %v", err)
	assert(t, status == StatusRunning, "want still running, got %v", status)
}

func TestVMTraceOp(t *testing.T) {
	src := `
		PUSHI 1
		PUSHI 2
		ADD
		HALT
	`
	mod, err := AssembleToModule(src)
	assert(t, err == nil, "assemble: %v", err)

	var sink bytes.Buffer
	ctx := NewContext()
	ctx.SetSink(&sink)
	ctx.SetTraceMask(TraceOp | TraceStack)
	assert(t, ctx.Attach(mod) == nil, "attach failed")
	_, err = ctx.Run(0)
	assert(t, err == nil, "run: %v", err)

	assert(t, strings.Contains(sink.String(), "PUSHI"), "expected trace to mention PUSHI, got %q", sink.String())
	assert(t, strings.Contains(sink.String(), "stack>"), "expected stack trace line, got %q", sink.String())
}

func TestVMReattachResetsState(t *testing.T) {
	mod, err := AssembleToModule("PUSHI 1\nSTOREG x\nHALT\n")
	assert(t, err == nil, "assemble: %v", err)

	ctx := NewContext()
	assert(t, ctx.Attach(mod) == nil, "attach failed")
	_, err = ctx.Run(0)
	assert(t, err == nil, "run: %v", err)

	assert(t, ctx.Attach(mod) == nil, "re-attach failed")
	assert(t, ctx.StackDepth() == 0, "expected empty stack after re-attach, got %d", ctx.StackDepth())
	v, ok := ctx.Global(0)
	assert(t, ok, "expected global slot 0 to exist")
	assert(t, v.IsNil(), "expected globals reset to Nil after re-attach")
}
