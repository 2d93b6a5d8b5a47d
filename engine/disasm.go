package engine

import (
	"fmt"
	"strconv"
	"strings"
)

// FormatInstruction renders the single instruction at code[ip] as one line
// of valid VitteLight assembly: mnemonic followed by its operands exactly
// as the Assembler's grammar expects them back — a bare identifier for
// STOREG/LOADG/CALLN's name operand, a quoted string literal for PUSHS,
// decimal for everything else. It carries no byte offset and no trailing
// comment, so feeding it straight back into AssembleSource reproduces the
// same instruction: FormatInstruction and Disassemble are the left
// inverse of the Assembler, not just a debug pretty-printer. Tracing
// (trace.go) adds its own offset prefix around this when it wants one.
func FormatInstruction(pool *StringPool, code []byte, ip uint32) (string, int, error) {
	d, err := DecodeAt(code, ip)
	if err != nil {
		return "", 0, err
	}

	info, ok := d.Op.info()
	if !ok {
		return "", 0, ErrMalformedInstruction
	}

	var b strings.Builder
	b.WriteString(info.mnemonic)

	switch d.Op {
	case OpPushS:
		raw, ok := pool.Bytes(d.U32)
		if !ok {
			return "", 0, ErrStringIndexOutOfRange
		}
		b.WriteByte(' ')
		b.WriteString(escapeStringLiteral(raw))

	case OpStoreG, OpLoadG:
		raw, ok := pool.Bytes(d.U32)
		if !ok {
			return "", 0, ErrStringIndexOutOfRange
		}
		b.WriteByte(' ')
		b.Write(raw)

	case OpCallN:
		raw, ok := pool.Bytes(d.U32)
		if !ok {
			return "", 0, ErrStringIndexOutOfRange
		}
		fmt.Fprintf(&b, " %s %d", raw, d.U8)

	default:
		for _, kind := range info.operands {
			switch kind {
			case OperandU8:
				fmt.Fprintf(&b, " %d", d.U8)
			case OperandU32:
				fmt.Fprintf(&b, " %d", d.U32)
			case OperandU64:
				fmt.Fprintf(&b, " %d", d.I64)
			case OperandF64:
				fmt.Fprintf(&b, " %s", strconv.FormatFloat(d.F64, 'g', -1, 64))
			}
		}
	}

	return b.String(), d.Size, nil
}

// escapeStringLiteral quotes b back into the escape vocabulary
// scanStringLiteral accepts, the minimum needed to round-trip through the
// assembler's tokenizer: backslash, double quote, newline, CR, tab.
func escapeStringLiteral(b []byte) string {
	var sb strings.Builder
	sb.WriteByte('"')
	for _, c := range b {
		switch c {
		case '"':
			sb.WriteString(`\"`)
		case '\\':
			sb.WriteString(`\\`)
		case '\n':
			sb.WriteString(`\n`)
		case '\r':
			sb.WriteString(`\r`)
		case '\t':
			sb.WriteString(`\t`)
		default:
			sb.WriteByte(c)
		}
	}
	sb.WriteByte('"')
	return sb.String()
}

// Disassemble walks a module's code buffer once and renders the whole
// program as reassemblable source, one instruction per line.
func Disassemble(mod *Module) (string, error) {
	var b strings.Builder
	ip := uint32(0)
	for ip < uint32(len(mod.Code)) {
		line, size, err := FormatInstruction(mod.Pool, mod.Code, ip)
		if err != nil {
			return "", err
		}
		b.WriteString(line)
		b.WriteByte('\n')
		ip += uint32(size)
	}
	return b.String(), nil
}
