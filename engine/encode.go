package engine

import (
	"bytes"
	"encoding/binary"
	"math"
)

// One emit function per mnemonic, each writing its opcode byte followed by
// little-endian operand bytes. The assembler and the round-trip tests both
// call through these rather than hand-rolling byte writes.

func EmitNop(w *bytes.Buffer) { w.WriteByte(byte(OpNop)) }

func EmitPushI(w *bytes.Buffer, v int64) {
	w.WriteByte(byte(OpPushI))
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], uint64(v))
	w.Write(buf[:])
}

func EmitPushF(w *bytes.Buffer, v float64) {
	w.WriteByte(byte(OpPushF))
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], math.Float64bits(v))
	w.Write(buf[:])
}

func EmitPushS(w *bytes.Buffer, poolIdx uint32) {
	w.WriteByte(byte(OpPushS))
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], poolIdx)
	w.Write(buf[:])
}

func EmitAdd(w *bytes.Buffer)   { w.WriteByte(byte(OpAdd)) }
func EmitSub(w *bytes.Buffer)   { w.WriteByte(byte(OpSub)) }
func EmitMul(w *bytes.Buffer)   { w.WriteByte(byte(OpMul)) }
func EmitDiv(w *bytes.Buffer)   { w.WriteByte(byte(OpDiv)) }
func EmitEq(w *bytes.Buffer)    { w.WriteByte(byte(OpEq)) }
func EmitNeq(w *bytes.Buffer)   { w.WriteByte(byte(OpNeq)) }
func EmitLt(w *bytes.Buffer)    { w.WriteByte(byte(OpLt)) }
func EmitGt(w *bytes.Buffer)    { w.WriteByte(byte(OpGt)) }
func EmitLe(w *bytes.Buffer)    { w.WriteByte(byte(OpLe)) }
func EmitGe(w *bytes.Buffer)    { w.WriteByte(byte(OpGe)) }
func EmitPrint(w *bytes.Buffer) { w.WriteByte(byte(OpPrint)) }
func EmitPop(w *bytes.Buffer)   { w.WriteByte(byte(OpPop)) }
func EmitHalt(w *bytes.Buffer)  { w.WriteByte(byte(OpHalt)) }

func EmitStoreG(w *bytes.Buffer, poolIdx uint32) {
	w.WriteByte(byte(OpStoreG))
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], poolIdx)
	w.Write(buf[:])
}

func EmitLoadG(w *bytes.Buffer, poolIdx uint32) {
	w.WriteByte(byte(OpLoadG))
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], poolIdx)
	w.Write(buf[:])
}

func EmitCallN(w *bytes.Buffer, nameIdx uint32, argc uint8) {
	w.WriteByte(byte(OpCallN))
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], nameIdx)
	w.Write(buf[:])
	w.WriteByte(argc)
}

// emitNoOperand dispatches to the zero-operand emitters above by opcode,
// used by the assembler once it has already validated the operand schema
// via asmSchema.
func emitNoOperand(w *bytes.Buffer, op Opcode) bool {
	switch op {
	case OpNop:
		EmitNop(w)
	case OpAdd:
		EmitAdd(w)
	case OpSub:
		EmitSub(w)
	case OpMul:
		EmitMul(w)
	case OpDiv:
		EmitDiv(w)
	case OpEq:
		EmitEq(w)
	case OpNeq:
		EmitNeq(w)
	case OpLt:
		EmitLt(w)
	case OpGt:
		EmitGt(w)
	case OpLe:
		EmitLe(w)
	case OpGe:
		EmitGe(w)
	case OpPrint:
		EmitPrint(w)
	case OpPop:
		EmitPop(w)
	case OpHalt:
		EmitHalt(w)
	default:
		return false
	}
	return true
}
