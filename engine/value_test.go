package engine

import (
	"bytes"
	"testing"
)

func TestValuePrintRenderings(t *testing.T) {
	pool := NewStringPool()
	idx, _ := pool.Intern([]byte("hi"))

	cases := []struct {
		v    Value
		want string
	}{
		{Nil(), "nil"},
		{Bool(true), "true"},
		{Bool(false), "false"},
		{Int(-7), "-7"},
		{Str(pool, idx), "hi"},
	}

	for _, c := range cases {
		var buf bytes.Buffer
		err := Print(&buf, c.v)
		assert(t, err == nil, "Print: %v", err)
		assert(t, buf.String() == c.want, "got %q, want %q", buf.String(), c.want)
	}
}

func TestValueAsIntAsFloat(t *testing.T) {
	i, err := Int(5).AsInt()
	assert(t, err == nil && i == 5, "Int.AsInt: %d, %v", i, err)

	f, err := Int(5).AsFloat()
	assert(t, err == nil && f == 5.0, "Int.AsFloat: %v, %v", f, err)

	i, err = Float(5.9).AsInt()
	assert(t, err == nil && i == 5, "Float.AsInt truncation: %d, %v", i, err)

	_, err = Bool(true).AsInt()
	assert(t, err == ErrTypeMismatch, "Bool.AsInt should fail, got %v", err)

	_, err = Nil().AsFloat()
	assert(t, err == ErrTypeMismatch, "Nil.AsFloat should fail, got %v", err)
}

func TestValueEqCrossTagNumeric(t *testing.T) {
	assert(t, Eq(Int(3), Float(3.0)), "expected 3 == 3.0")
	assert(t, !Eq(Int(3), Float(3.1)), "expected 3 != 3.1")
	assert(t, !Eq(Int(0), Bool(false)), "Int and Bool must never compare equal")
	assert(t, Eq(Nil(), Nil()), "nil must equal nil")

	pool := NewStringPool()
	i1, _ := pool.Intern([]byte("same"))
	i2, _ := pool.Intern([]byte("same"))
	assert(t, i1 == i2, "pool should have deduped")
	assert(t, Eq(Str(pool, i1), Str(pool, i2)), "equal string contents must compare equal")
}

func TestValueTruthy(t *testing.T) {
	assert(t, !Nil().Truthy(), "nil must be falsy")
	assert(t, !Bool(false).Truthy(), "false must be falsy")
	assert(t, !Int(0).Truthy(), "0 must be falsy")
	assert(t, !Float(0).Truthy(), "0.0 must be falsy")
	assert(t, Int(1).Truthy(), "1 must be truthy")
	assert(t, Bool(true).Truthy(), "true must be truthy")
}
