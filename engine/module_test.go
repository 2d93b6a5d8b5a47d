package engine

import (
	"bytes"
	"testing"
)

func TestStringPoolInternDedups(t *testing.T) {
	p := NewStringPool()
	i1, err := p.Intern([]byte("hello"))
	assert(t, err == nil, "intern: %v", err)
	i2, err := p.Intern([]byte("hello"))
	assert(t, err == nil, "intern: %v", err)
	assert(t, i1 == i2, "expected dedup, got %d and %d", i1, i2)

	i3, err := p.Intern([]byte("world"))
	assert(t, err == nil, "intern: %v", err)
	assert(t, i3 != i1, "expected distinct index for distinct string")
	assert(t, p.Len() == 2, "want pool len 2, got %d", p.Len())
}

func TestStringPoolIndexOf(t *testing.T) {
	p := NewStringPool()
	_, err := p.Intern([]byte("alpha"))
	assert(t, err == nil, "intern: %v", err)

	idx, ok := p.IndexOf([]byte("alpha"))
	assert(t, ok, "expected alpha to be found")
	b, _ := p.Bytes(idx)
	assert(t, bytes.Equal(b, []byte("alpha")), "got %q", b)

	_, ok = p.IndexOf([]byte("missing"))
	assert(t, !ok, "expected missing to be absent")
}

func TestEmitLoadRoundTrip(t *testing.T) {
	pool := NewStringPool()
	nameIdx, _ := pool.Intern([]byte("counter"))

	var code bytes.Buffer
	EmitPushI(&code, 10)
	EmitStoreG(&code, nameIdx)
	EmitLoadG(&code, nameIdx)
	EmitHalt(&code)

	image, err := Emit(pool, code.Bytes())
	assert(t, err == nil, "Emit: %v", err)

	mod, err := Load(image)
	assert(t, err == nil, "Load: %v", err)
	assert(t, mod.Version == CurrentVersion, "version mismatch")
	assert(t, mod.Pool.Len() == 1, "want 1 pool entry, got %d", mod.Pool.Len())
	assert(t, bytes.Equal(mod.Code, code.Bytes()), "code mismatch after round trip")
}

func TestLoadRejectsBadMagic(t *testing.T) {
	_, err := Load([]byte("XXXX"))
	assert(t, err == ErrMagicMismatch, "want ErrMagicMismatch, got %v", err)
}

func TestLoadRejectsTruncated(t *testing.T) {
	_, err := Load([]byte{'V', 'L'})
	assert(t, err != nil, "expected truncation error")
}

func TestLoadRejectsUnsupportedVersion(t *testing.T) {
	data := append([]byte{'V', 'L', 'B', 'C', 99}, 0, 0, 0, 0, 0, 0, 0, 0)
	_, err := Load(data)
	assert(t, err != nil, "expected unsupported-version error")
}

func TestLoadPreservesDuplicatePoolEntries(t *testing.T) {
	pool := NewStringPool()
	i0, err := pool.AppendRaw([]byte("a"))
	assert(t, err == nil, "append: %v", err)
	i1, err := pool.AppendRaw([]byte("b"))
	assert(t, err == nil, "append: %v", err)
	i2, err := pool.AppendRaw([]byte("a"))
	assert(t, err == nil, "append: %v", err)
	assert(t, i0 == 0 && i1 == 1 && i2 == 2, "want positional indices 0,1,2, got %d,%d,%d", i0, i1, i2)

	var code bytes.Buffer
	EmitPushI(&code, 9)
	EmitStoreG(&code, i2)
	EmitHalt(&code)

	image, err := Emit(pool, code.Bytes())
	assert(t, err == nil, "Emit: %v", err)

	mod, err := Load(image)
	assert(t, err == nil, "Load: %v", err)
	assert(t, mod.Pool.Len() == 3, "want 3 pool entries preserved, got %d", mod.Pool.Len())

	b2, ok := mod.Pool.Bytes(2)
	assert(t, ok, "expected pool entry 2 to exist")
	assert(t, string(b2) == "a", "got %q", b2)

	ctx := NewContext()
	assert(t, ctx.Attach(mod) == nil, "attach failed")
	_, err = ctx.Run(0)
	assert(t, err == nil, "run: %v", err)

	v2, ok := ctx.Global(2)
	assert(t, ok, "expected global slot 2 to exist")
	i, err := v2.AsInt()
	assert(t, err == nil && i == 9, "global[2] = %v, %v, want 9", i, err)

	v0, ok := ctx.Global(0)
	assert(t, ok && v0.IsNil(), "expected global[0] to stay untouched by a STOREG at index 2")
}

func TestLoadOwnsItsOwnCopy(t *testing.T) {
	pool := NewStringPool()
	var code bytes.Buffer
	EmitHalt(&code)
	image, err := Emit(pool, code.Bytes())
	assert(t, err == nil, "Emit: %v", err)

	mod, err := Load(image)
	assert(t, err == nil, "Load: %v", err)

	for i := range image {
		image[i] = 0xFF
	}
	assert(t, mod.Code[0] == byte(OpHalt), "Load must not alias the input buffer")
}
