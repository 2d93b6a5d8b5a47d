package engine

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/samber/lo"
)

// Opcode is the single byte that begins every instruction. The table below
// (opTable) is the one source of truth the loader's validator, the
// assembler's encoder, the disassembler's formatter and the VM's dispatch
// all read from.
type Opcode byte

const (
	OpNop Opcode = iota
	OpPushI
	OpPushF
	OpPushS
	OpAdd
	OpSub
	OpMul
	OpDiv
	OpEq
	OpNeq
	OpLt
	OpGt
	OpLe
	OpGe
	OpPrint
	OpPop
	OpStoreG
	OpLoadG
	OpCallN
	OpHalt
)

// OperandKind enumerates the fixed operand shapes an instruction can carry.
type OperandKind uint8

const (
	OperandNone OperandKind = iota
	OperandU8
	OperandU32
	OperandU64
	OperandF64
)

// Size returns the encoded byte width of one operand of this kind.
func (k OperandKind) Size() int {
	switch k {
	case OperandNone:
		return 0
	case OperandU8:
		return 1
	case OperandU32:
		return 4
	case OperandU64, OperandF64:
		return 8
	default:
		return 0
	}
}

// VariableStack marks a declared stack effect as "depends on argc" (CALLN).
const VariableStack = -1

type opInfo struct {
	mnemonic string
	code     Opcode
	operands []OperandKind
	pop      int
	push     int
}

// Size returns 1 (the opcode byte) plus the width of every declared operand.
func (o opInfo) Size() int {
	size := 1
	for _, k := range o.operands {
		size += k.Size()
	}
	return size
}

// opTable is the opcode registry. Every other component (encoder, decoder,
// sizer, validator, disassembler) derives its behavior from this map
// instead of repeating a parallel switch.
var opTable = map[Opcode]opInfo{
	OpNop:    {"NOP", OpNop, nil, 0, 0},
	OpPushI:  {"PUSHI", OpPushI, []OperandKind{OperandU64}, 0, 1},
	OpPushF:  {"PUSHF", OpPushF, []OperandKind{OperandF64}, 0, 1},
	OpPushS:  {"PUSHS", OpPushS, []OperandKind{OperandU32}, 0, 1},
	OpAdd:    {"ADD", OpAdd, nil, 2, 1},
	OpSub:    {"SUB", OpSub, nil, 2, 1},
	OpMul:    {"MUL", OpMul, nil, 2, 1},
	OpDiv:    {"DIV", OpDiv, nil, 2, 1},
	OpEq:     {"EQ", OpEq, nil, 2, 1},
	OpNeq:    {"NEQ", OpNeq, nil, 2, 1},
	OpLt:     {"LT", OpLt, nil, 2, 1},
	OpGt:     {"GT", OpGt, nil, 2, 1},
	OpLe:     {"LE", OpLe, nil, 2, 1},
	OpGe:     {"GE", OpGe, nil, 2, 1},
	OpPrint:  {"PRINT", OpPrint, nil, 0, 0}, // peeks, doesn't pop — see Step
	OpPop:    {"POP", OpPop, nil, 1, 0},
	OpStoreG: {"STOREG", OpStoreG, []OperandKind{OperandU32}, 1, 0},
	OpLoadG:  {"LOADG", OpLoadG, []OperandKind{OperandU32}, 0, 1},
	OpCallN:  {"CALLN", OpCallN, []OperandKind{OperandU32, OperandU8}, VariableStack, VariableStack},
	OpHalt:   {"HALT", OpHalt, nil, 0, 0},
}

// mnemonicTable is built once from opTable so the two never drift apart.
var mnemonicTable map[string]Opcode

func init() {
	mnemonicTable = make(map[string]Opcode, len(opTable))
	for code, info := range opTable {
		mnemonicTable[info.mnemonic] = code
	}
}

func (op Opcode) info() (opInfo, bool) {
	info, ok := opTable[op]
	return info, ok
}

// String renders the opcode's mnemonic, or "?unknown?" for an unrecognized
// byte.
func (op Opcode) String() string {
	if info, ok := opTable[op]; ok {
		return info.mnemonic
	}
	return "?unknown?"
}

// LookupMnemonic resolves a textual mnemonic (already upper-cased) to its
// opcode.
func LookupMnemonic(mnemonic string) (Opcode, bool) {
	op, ok := mnemonicTable[mnemonic]
	return op, ok
}

// InstrSize returns the total encoded size, in bytes, of an instruction
// with this opcode.
func InstrSize(op Opcode) (int, bool) {
	info, ok := opTable[op]
	if !ok {
		return 0, false
	}
	return info.Size(), true
}

// DecodedInstr is one fully-decoded instruction: its opcode plus whichever
// operand fields apply to it.
type DecodedInstr struct {
	Op   Opcode
	U32  uint32
	U8   uint8
	I64  int64
	F64  float64
	Size int
}

// DecodeAt reads exactly one instruction starting at code[ip]. A short read
// of either the opcode byte or any declared operand returns
// ErrMalformedInstruction. The loader's validator and the VM's step loop
// both call through this one decode path.
func DecodeAt(code []byte, ip uint32) (DecodedInstr, error) {
	if int(ip) >= len(code) {
		return DecodedInstr{}, ErrMalformedInstruction
	}

	op := Opcode(code[ip])
	info, ok := opTable[op]
	if !ok {
		return DecodedInstr{}, ErrMalformedInstruction
	}

	size := info.Size()
	if int(ip)+size > len(code) {
		return DecodedInstr{}, ErrMalformedInstruction
	}

	d := DecodedInstr{Op: op, Size: size}
	offset := int(ip) + 1
	for _, kind := range info.operands {
		switch kind {
		case OperandU8:
			d.U8 = code[offset]
		case OperandU32:
			d.U32 = binary.LittleEndian.Uint32(code[offset:])
		case OperandU64:
			bits := binary.LittleEndian.Uint64(code[offset:])
			d.I64 = int64(bits)
		case OperandF64:
			bits := binary.LittleEndian.Uint64(code[offset:])
			d.F64 = math.Float64frombits(bits)
		}
		offset += kind.Size()
	}

	return d, nil
}

// stringIndexOperand reports whether this opcode's U32 operand is a
// pool index, used by the loader's validator.
func (op Opcode) stringIndexOperand() bool {
	return op == OpPushS || op == OpStoreG || op == OpLoadG || op == OpCallN
}

// ValidateCode walks the full code buffer once, checking operand bounds and
// string-pool index ranges. It never tracks stack balance or value types —
// those are the VM's job at run time.
func ValidateCode(code []byte, stringCount uint32) error {
	ip := uint32(0)
	for ip < uint32(len(code)) {
		d, err := DecodeAt(code, ip)
		if err != nil {
			return err
		}

		if d.Op.stringIndexOperand() && d.U32 >= stringCount {
			return ErrStringIndexOutOfRange
		}

		ip += uint32(d.Size)
	}
	return nil
}

// allMnemonics returns the sorted-by-nothing-in-particular list of known
// mnemonics, used only to report how many are known in an error message.
// Suggesting nearby spellings is deliberately not done here.
func allMnemonics() []string {
	return lo.Keys(mnemonicTable)
}

func unknownMnemonicError(line int, mnemonic string) error {
	return asmSentinelErr(line, ErrUnknownMnemonic, fmt.Sprintf("%q (have %d known mnemonics)", mnemonic, len(allMnemonics())))
}
