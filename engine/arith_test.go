package engine

import (
	"math"
	"testing"
)

func TestArithIntegerOps(t *testing.T) {
	v, err := Add(Int(2), Int(3))
	assert(t, err == nil, "Add: %v", err)
	i, _ := v.AsInt()
	assert(t, i == 5, "2+3 = %d, want 5", i)

	v, err = Sub(Int(2), Int(3))
	i, _ = v.AsInt()
	assert(t, err == nil && i == -1, "2-3 = %d, want -1", i)

	v, err = Mul(Int(4), Int(5))
	i, _ = v.AsInt()
	assert(t, err == nil && i == 20, "4*5 = %d, want 20", i)

	v, err = Div(Int(7), Int(2))
	i, _ = v.AsInt()
	assert(t, err == nil && i == 3, "7/2 = %d, want 3 (truncating int division)", i)
}

func TestArithFloatWidening(t *testing.T) {
	v, err := Add(Int(2), Float(0.5))
	assert(t, err == nil, "Add: %v", err)
	assert(t, v.Kind == KindFloat, "mixed Int+Float must widen to Float")
	f, _ := v.AsFloat()
	assert(t, f == 2.5, "got %v, want 2.5", f)
}

func TestArithDivisionByZero(t *testing.T) {
	_, err := Div(Int(1), Int(0))
	assert(t, err == ErrDivisionByZero, "integer div by zero: got %v, want ErrDivisionByZero", err)

	v, err := Div(Float(1), Float(0))
	assert(t, err == nil, "float div by zero must not error, got %v", err)
	f, _ := v.AsFloat()
	assert(t, math.IsInf(f, 1), "want +Inf, got %v", f)
}

func TestArithTypeMismatch(t *testing.T) {
	_, err := Add(Bool(true), Int(1))
	assert(t, err == ErrTypeMismatch, "Bool operand must be a type mismatch, got %v", err)

	_, err = Add(Nil(), Int(1))
	assert(t, err == ErrTypeMismatch, "Nil operand must be a type mismatch, got %v", err)
}

func TestArithComparisons(t *testing.T) {
	v, err := Lt(Int(1), Int(2))
	assert(t, err == nil && v.AsBool(), "1 < 2 should be true")

	v, err = Ge(Float(2), Int(2))
	assert(t, err == nil && v.AsBool(), "2.0 >= 2 should be true")

	_, err = Lt(Bool(true), Int(1))
	assert(t, err == ErrTypeMismatch, "comparing Bool must fail, got %v", err)
}
