package engine

import (
	"io"
	"os"

	"github.com/pkg/errors"
)

// Status reports what a Step or Run call left the Context doing.
type Status int

const (
	StatusRunning Status = iota
	StatusHalted
)

func (s Status) String() string {
	switch s {
	case StatusRunning:
		return "running"
	case StatusHalted:
		return "halted"
	default:
		return "unknown"
	}
}

// DefaultMaxStack bounds the operand stack absent an explicit SetMaxStack
// call, chosen generously enough that no well-formed program trips it.
const DefaultMaxStack = 1 << 16

// Context is one running instance of a Module: its program counter,
// operand stack, globals vector (indexed by string-pool index, so the
// pool doubles as the symbol table) and native registry.
type Context struct {
	module *Module
	ip     uint32

	stack    []Value
	maxStack int

	globals []Value

	natives map[string]NativeHandle

	traceMask TraceMask
	sink      io.Writer
	out       io.Writer

	steps uint64
}

// NewContext returns an unattached Context. Call Attach before Step/Run.
func NewContext() *Context {
	return &Context{
		maxStack: DefaultMaxStack,
		natives:  make(map[string]NativeHandle),
		out:      os.Stdout,
	}
}

func (ctx *Context) SetTraceMask(m TraceMask) { ctx.traceMask = m }
func (ctx *Context) SetSink(w io.Writer)      { ctx.sink = w }
func (ctx *Context) SetOutput(w io.Writer)    { ctx.out = w }
func (ctx *Context) SetMaxStack(n int)        { ctx.maxStack = n }

func (ctx *Context) Module() *Module  { return ctx.module }
func (ctx *Context) IP() uint32       { return ctx.ip }
func (ctx *Context) Steps() uint64    { return ctx.steps }
func (ctx *Context) StackDepth() int  { return len(ctx.stack) }

// Global reads a global by pool index, for introspection.
func (ctx *Context) Global(idx uint32) (Value, bool) {
	if int(idx) >= len(ctx.globals) {
		return Value{}, false
	}
	return ctx.globals[idx], true
}

// Attach resets a Context to the start of mod: zeroed stack, a freshly
// sized and nil-filled globals vector (one slot per pool entry), and a
// reset step counter. Previously registered natives survive a re-attach.
func (ctx *Context) Attach(mod *Module) error {
	if mod == nil {
		return errors.New("vm: nil module")
	}
	ctx.module = mod
	ctx.ip = 0
	ctx.stack = ctx.stack[:0]
	ctx.globals = make([]Value, mod.Pool.Len())
	for i := range ctx.globals {
		ctx.globals[i] = Nil()
	}
	ctx.steps = 0
	return nil
}

// AttachKeepState points ctx at a new module sharing the previous one's
// string pool (or a superset of it, as produced by incremental assembly)
// without resetting the operand stack or globals vector — only growing
// globals to cover newly interned pool entries. The REPL uses this so
// each typed line can see state left behind by the ones before it; Attach
// itself is for the normal one-shot case of starting a module fresh.
func (ctx *Context) AttachKeepState(mod *Module) error {
	if mod == nil {
		return errors.New("vm: nil module")
	}
	ctx.module = mod
	ctx.ip = 0
	for uint32(len(ctx.globals)) < mod.Pool.Len() {
		ctx.globals = append(ctx.globals, Nil())
	}
	return nil
}

// RegisterNative binds name to fn, callable from CALLN by pool string.
func (ctx *Context) RegisterNative(name string, fn NativeFunc) {
	ctx.natives[name] = NativeHandle{Fn: fn, Name: name}
}

// RegisterNativeData is RegisterNative plus an opaque payload handed back
// to fn on every call, for natives that need shared state (a clock, a
// counter, an output buffer).
func (ctx *Context) RegisterNativeData(name string, fn NativeFunc, userData any) {
	ctx.natives[name] = NativeHandle{Fn: fn, UserData: userData, Name: name}
}

func (ctx *Context) push(v Value) error {
	if len(ctx.stack) >= ctx.maxStack {
		return ErrStackOverflow
	}
	ctx.stack = append(ctx.stack, v)
	return nil
}

func (ctx *Context) pop() (Value, error) {
	if len(ctx.stack) == 0 {
		return Value{}, ErrStackUnderflow
	}
	v := ctx.stack[len(ctx.stack)-1]
	ctx.stack = ctx.stack[:len(ctx.stack)-1]
	return v, nil
}

func (ctx *Context) peek() (Value, error) {
	if len(ctx.stack) == 0 {
		return Value{}, ErrStackUnderflow
	}
	return ctx.stack[len(ctx.stack)-1], nil
}

// popPair pops b then a, returning them in source order (a was pushed
// first, so it is the deeper of the two).
func (ctx *Context) popPair() (a, b Value, err error) {
	b, err = ctx.pop()
	if err != nil {
		return
	}
	a, err = ctx.pop()
	return
}

// Step decodes and executes exactly one instruction. It returns
// StatusHalted once HALT has run; calling Step again after that without a
// fresh Attach redecodes whatever is at the current (unmoved) ip.
func (ctx *Context) Step() (status Status, err error) {
	if ctx.module == nil {
		return StatusHalted, errors.New("vm: no module attached")
	}
	if ctx.ip >= uint32(len(ctx.module.Code)) {
		return StatusHalted, ErrIPOutOfBounds
	}

	defer func() {
		if r := recover(); r != nil {
			status = StatusHalted
			err = errors.Wrapf(ErrBadBytecode, "panic at ip=%d: %v", ctx.ip, r)
		}
	}()

	d, derr := DecodeAt(ctx.module.Code, ctx.ip)
	if derr != nil {
		return StatusHalted, derr
	}
	ctx.traceOp(ctx.ip, d)
	nextIP := ctx.ip + uint32(d.Size)

	switch d.Op {
	case OpNop:

	case OpPushI:
		if err := ctx.push(Int(d.I64)); err != nil {
			return StatusHalted, err
		}
	case OpPushF:
		if err := ctx.push(Float(d.F64)); err != nil {
			return StatusHalted, err
		}
	case OpPushS:
		if err := ctx.push(Str(ctx.module.Pool, d.U32)); err != nil {
			return StatusHalted, err
		}

	case OpAdd:
		if err := ctx.binaryArith(Add); err != nil {
			return StatusHalted, err
		}
	case OpSub:
		if err := ctx.binaryArith(Sub); err != nil {
			return StatusHalted, err
		}
	case OpMul:
		if err := ctx.binaryArith(Mul); err != nil {
			return StatusHalted, err
		}
	case OpDiv:
		if err := ctx.binaryArith(Div); err != nil {
			return StatusHalted, err
		}
	case OpLt:
		if err := ctx.binaryArith(Lt); err != nil {
			return StatusHalted, err
		}
	case OpGt:
		if err := ctx.binaryArith(Gt); err != nil {
			return StatusHalted, err
		}
	case OpLe:
		if err := ctx.binaryArith(Le); err != nil {
			return StatusHalted, err
		}
	case OpGe:
		if err := ctx.binaryArith(Ge); err != nil {
			return StatusHalted, err
		}

	case OpEq:
		a, b, err := ctx.popPair()
		if err != nil {
			return StatusHalted, err
		}
		if err := ctx.push(Bool(Eq(a, b))); err != nil {
			return StatusHalted, err
		}
	case OpNeq:
		a, b, err := ctx.popPair()
		if err != nil {
			return StatusHalted, err
		}
		if err := ctx.push(Bool(!Eq(a, b))); err != nil {
			return StatusHalted, err
		}

	case OpPrint:
		v, err := ctx.peek()
		if err != nil {
			return StatusHalted, err
		}
		if err := Print(ctx.out, v); err != nil {
			return StatusHalted, err
		}
		if _, err := io.WriteString(ctx.out, "\n"); err != nil {
			return StatusHalted, err
		}

	case OpPop:
		if _, err := ctx.pop(); err != nil {
			return StatusHalted, err
		}

	case OpStoreG:
		if int(d.U32) >= len(ctx.globals) {
			return StatusHalted, ErrStringIndexOutOfRange
		}
		v, err := ctx.pop()
		if err != nil {
			return StatusHalted, err
		}
		ctx.globals[d.U32] = v
		ctx.traceGlobalWrite(d.U32, v)

	case OpLoadG:
		if int(d.U32) >= len(ctx.globals) {
			return StatusHalted, ErrStringIndexOutOfRange
		}
		if err := ctx.push(ctx.globals[d.U32]); err != nil {
			return StatusHalted, err
		}

	case OpCallN:
		if err := ctx.execCallN(d); err != nil {
			return StatusHalted, err
		}

	case OpHalt:
		ctx.traceStack()
		return StatusHalted, nil

	default:
		return StatusHalted, ErrBadBytecode
	}

	ctx.traceStack()
	ctx.ip = nextIP
	ctx.steps++
	return StatusRunning, nil
}

func (ctx *Context) binaryArith(f func(a, b Value) (Value, error)) error {
	a, b, err := ctx.popPair()
	if err != nil {
		return err
	}
	r, err := f(a, b)
	if err != nil {
		return err
	}
	return ctx.push(r)
}

// execCallN pops argc values (deepest becomes args[0], preserving source
// order), resolves name by pool string, invokes the native, and pushes a
// non-Nil result.
func (ctx *Context) execCallN(d DecodedInstr) error {
	nameBytes, ok := ctx.module.Pool.Bytes(d.U32)
	if !ok {
		return ErrStringIndexOutOfRange
	}
	name := string(nameBytes)
	argc := int(d.U8)

	if len(ctx.stack) < argc {
		return ErrStackUnderflow
	}
	args := make([]Value, argc)
	copy(args, ctx.stack[len(ctx.stack)-argc:])
	ctx.stack = ctx.stack[:len(ctx.stack)-argc]

	handle, ok := ctx.natives[name]
	if !ok {
		return unknownNativeError(name)
	}

	ctx.traceCall(name, argc)
	result, err := handle.Fn(ctx, args, handle.UserData)
	if err != nil {
		return &NativeError{Name: name, Err: err}
	}
	if result.IsNil() {
		return nil
	}
	return ctx.push(result)
}

// Run steps until HALT, an error, or maxSteps executed steps (maxSteps<=0
// means unbounded). It returns ErrStepBudgetExhausted, wrapping
// StatusRunning, if the budget runs out first.
func (ctx *Context) Run(maxSteps int) (Status, error) {
	for i := 0; maxSteps <= 0 || i < maxSteps; i++ {
		status, err := ctx.Step()
		if err != nil {
			return status, err
		}
		if status == StatusHalted {
			return status, nil
		}
	}
	return StatusRunning, ErrStepBudgetExhausted
}
