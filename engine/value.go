package engine

import (
	"fmt"
	"io"
	"reflect"
	"strconv"
)

// ValueKind tags the cases of the Value union.
type ValueKind uint8

const (
	KindNil ValueKind = iota
	KindBool
	KindInt
	KindFloat
	KindStr
	KindNative
)

// NativeFunc is the Go-side shape of a registered native: it returns the
// value and error directly rather than using an out-parameter.
type NativeFunc func(ctx *Context, args []Value, userData any) (Value, error)

// NativeHandle is the opaque callable a Value of kind KindNative carries.
type NativeHandle struct {
	Fn       NativeFunc
	UserData any
	Name     string
}

// Value is VitteLight's tagged union: exactly one of the fields below is
// meaningful, selected by Kind. Numeric coercion is handled by explicit
// matches in arith.go, never an implicit Go conversion.
type Value struct {
	Kind ValueKind
	i    int64
	f    float64
	pool *StringPool
	sidx uint32
	nat  NativeHandle
}

func Nil() Value                { return Value{Kind: KindNil} }
func Bool(b bool) Value         { return Value{Kind: KindBool, i: boolToInt(b)} }
func Int(i int64) Value         { return Value{Kind: KindInt, i: i} }
func Float(f float64) Value     { return Value{Kind: KindFloat, f: f} }
func Native(h NativeHandle) Value { return Value{Kind: KindNative, nat: h} }

// Str builds a string Value referencing pool entry idx. The value borrows
// from pool for as long as the owning Module (and thus pool) is alive.
func Str(pool *StringPool, idx uint32) Value {
	return Value{Kind: KindStr, pool: pool, sidx: idx}
}

func boolToInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}

func (v Value) IsNil() bool { return v.Kind == KindNil }

func (v Value) AsBool() bool { return v.i != 0 }

// Bytes returns the raw content of a KindStr value. Panics if called on a
// non-string value — callers must check Kind first, same contract as the
// teacher's unchecked register/stack accessors.
func (v Value) Bytes() []byte {
	b, ok := v.pool.Bytes(v.sidx)
	if !ok {
		return nil
	}
	return b
}

func (v Value) NativeHandle() NativeHandle { return v.nat }

// AsInt succeeds for Int, truncates from Float, fails for everything else.
func (v Value) AsInt() (int64, error) {
	switch v.Kind {
	case KindInt:
		return v.i, nil
	case KindFloat:
		return int64(v.f), nil
	default:
		return 0, ErrTypeMismatch
	}
}

// AsFloat succeeds for Float and Int, fails otherwise.
func (v Value) AsFloat() (float64, error) {
	switch v.Kind {
	case KindFloat:
		return v.f, nil
	case KindInt:
		return float64(v.i), nil
	default:
		return 0, ErrTypeMismatch
	}
}

// Truthy reports whether v should be treated as true. Reserved for
// opcodes not in the current instruction set; not currently reachable
// from any defined instruction.
func (v Value) Truthy() bool {
	switch v.Kind {
	case KindNil:
		return false
	case KindBool:
		return v.i != 0
	case KindInt:
		return v.i != 0
	case KindFloat:
		return v.f != 0
	default:
		return true
	}
}

// Eq reports structural equality within a matching tag, numeric equality
// across Int/Float after widening, and false for every other cross-tag
// pairing.
func Eq(a, b Value) bool {
	if a.Kind == b.Kind {
		switch a.Kind {
		case KindNil:
			return true
		case KindBool, KindInt:
			return a.i == b.i
		case KindFloat:
			return a.f == b.f
		case KindStr:
			return bytesEqual(a.Bytes(), b.Bytes())
		case KindNative:
			return a.nat.Fn != nil && b.nat.Fn != nil && a.nat.Name == b.nat.Name &&
				reflect.ValueOf(a.nat.Fn).Pointer() == reflect.ValueOf(b.nat.Fn).Pointer()
		}
	}

	if isNumeric(a) && isNumeric(b) {
		af, _ := a.AsFloat()
		bf, _ := b.AsFloat()
		return af == bf
	}

	return false
}

func isNumeric(v Value) bool { return v.Kind == KindInt || v.Kind == KindFloat }

func bytesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// Print renders v to w in its canonical textual form. PRINT and the REPL
// both call through this.
func Print(w io.Writer, v Value) error {
	switch v.Kind {
	case KindNil:
		_, err := io.WriteString(w, "nil")
		return err
	case KindBool:
		_, err := io.WriteString(w, strconv.FormatBool(v.AsBool()))
		return err
	case KindInt:
		_, err := io.WriteString(w, strconv.FormatInt(v.i, 10))
		return err
	case KindFloat:
		_, err := io.WriteString(w, strconv.FormatFloat(v.f, 'g', 17, 64))
		return err
	case KindStr:
		_, err := w.Write(v.Bytes())
		return err
	case KindNative:
		_, err := fmt.Fprintf(w, "<native@%p>", v.nat.Fn)
		return err
	default:
		return ErrBadBytecode
	}
}
