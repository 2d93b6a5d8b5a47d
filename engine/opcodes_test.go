package engine

import (
	"bytes"
	"testing"
)

func TestOpcodeTableRoundTrip(t *testing.T) {
	for op, info := range opTable {
		got, ok := LookupMnemonic(info.mnemonic)
		assert(t, ok, "LookupMnemonic(%q) not found", info.mnemonic)
		assert(t, got == op, "LookupMnemonic(%q) = %v, want %v", info.mnemonic, got, op)
		assert(t, op.String() == info.mnemonic, "Opcode.String() = %q, want %q", op.String(), info.mnemonic)
	}
}

func TestOpcodeStringUnknown(t *testing.T) {
	var bogus Opcode = 0xFE
	assert(t, bogus.String() == "?unknown?", "want fallback string, got %q", bogus.String())
}

func TestDecodeAtRoundTripsEmit(t *testing.T) {
	var buf bytes.Buffer
	EmitPushI(&buf, -42)
	EmitPushF(&buf, 3.5)
	EmitAdd(&buf)
	EmitHalt(&buf)
	code := buf.Bytes()

	d, err := DecodeAt(code, 0)
	assert(t, err == nil, "decode PUSHI: %v", err)
	assert(t, d.Op == OpPushI, "want OpPushI, got %v", d.Op)
	assert(t, d.I64 == -42, "want -42, got %d", d.I64)

	ip := uint32(d.Size)
	d, err = DecodeAt(code, ip)
	assert(t, err == nil, "decode PUSHF: %v", err)
	assert(t, d.Op == OpPushF, "want OpPushF, got %v", d.Op)
	assert(t, d.F64 == 3.5, "want 3.5, got %v", d.F64)
	ip += uint32(d.Size)

	d, err = DecodeAt(code, ip)
	assert(t, err == nil, "decode ADD: %v", err)
	assert(t, d.Op == OpAdd, "want OpAdd, got %v", d.Op)
	ip += uint32(d.Size)

	d, err = DecodeAt(code, ip)
	assert(t, err == nil, "decode HALT: %v", err)
	assert(t, d.Op == OpHalt, "want OpHalt, got %v", d.Op)
}

func TestDecodeAtMalformed(t *testing.T) {
	_, err := DecodeAt([]byte{byte(OpPushI), 1, 2}, 0)
	assert(t, err == ErrMalformedInstruction, "want ErrMalformedInstruction, got %v", err)

	_, err = DecodeAt([]byte{0xFE}, 0)
	assert(t, err == ErrMalformedInstruction, "want ErrMalformedInstruction for unknown opcode, got %v", err)

	_, err = DecodeAt(nil, 0)
	assert(t, err == ErrMalformedInstruction, "want ErrMalformedInstruction for empty code, got %v", err)
}

func TestValidateCodeStringIndexOutOfRange(t *testing.T) {
	var buf bytes.Buffer
	EmitPushS(&buf, 7)
	EmitHalt(&buf)

	err := ValidateCode(buf.Bytes(), 1)
	assert(t, err == ErrStringIndexOutOfRange, "want ErrStringIndexOutOfRange, got %v", err)

	err = ValidateCode(buf.Bytes(), 8)
	assert(t, err == nil, "expected in-range validation to pass, got %v", err)
}
