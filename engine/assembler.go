package engine

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
)

// token is one lexical unit from a line of VitteLight assembly: either a
// bare word (mnemonic, identifier, or numeric literal) or the unescaped
// contents of a quoted string literal.
type token struct {
	text     string
	isString bool
}

// isIdentifier matches the identifier grammar: [A-Za-z_.][A-Za-z0-9_.]*
func isIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		alnum := (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || r == '_' || r == '.'
		if i > 0 {
			alnum = alnum || (r >= '0' && r <= '9')
		}
		if !alnum {
			return false
		}
	}
	return true
}

// tokenizeLine splits one line of source into tokens, stripping `//`, `#`
// and `;` line comments and resolving string-literal escapes
// (\n \r \t \" \\, with any other escape passed through verbatim).
func tokenizeLine(line string) ([]token, error) {
	var tokens []token
	i, n := 0, len(line)

	for i < n {
		c := line[i]
		switch {
		case c == ' ' || c == '\t':
			i++
		case c == '#' || c == ';':
			i = n
		case c == '/' && i+1 < n && line[i+1] == '/':
			i = n
		case c == '"':
			text, consumed, err := scanStringLiteral(line[i:])
			if err != nil {
				return nil, err
			}
			tokens = append(tokens, token{text: text, isString: true})
			i += consumed
		default:
			j := i
			for j < n && line[j] != ' ' && line[j] != '\t' {
				j++
			}
			tokens = append(tokens, token{text: line[i:j]})
			i = j
		}
	}

	return tokens, nil
}

// scanStringLiteral consumes a leading `"..."` from s (s[0] == '"') and
// returns its unescaped content plus the number of bytes of s consumed.
func scanStringLiteral(s string) (string, int, error) {
	var b strings.Builder
	i, n := 1, len(s)
	for i < n {
		switch {
		case s[i] == '\\' && i+1 < n:
			switch s[i+1] {
			case 'n':
				b.WriteByte('\n')
			case 'r':
				b.WriteByte('\r')
			case 't':
				b.WriteByte('\t')
			case '"':
				b.WriteByte('"')
			case '\\':
				b.WriteByte('\\')
			default:
				// pass-through for unrecognized escapes
				b.WriteByte('\\')
				b.WriteByte(s[i+1])
			}
			i += 2
		case s[i] == '"':
			return b.String(), i + 1, nil
		default:
			b.WriteByte(s[i])
			i++
		}
	}
	return "", 0, errUnterminatedStringSentinel
}

// errUnterminatedStringSentinel is a placeholder caught by the caller,
// which rewrites it into an AssembleError carrying the line number.
var errUnterminatedStringSentinel = fmt.Errorf("unterminated string")

// asmOperand describes how one assembly-level operand is parsed, which is
// a different axis than the wire-level OperandKind in opcodes.go: a bare
// identifier and a quoted string both end up interned into a u32 pool
// index, but only one of them is legal syntax at a given operand position.
type asmOperand int

const (
	asmInt asmOperand = iota
	asmFloat
	asmStringLiteral
	asmIdentifier
	asmByte
)

// asmSchema maps each opcode that takes operands to the ordered list of
// assembly-level operand kinds it expects. Opcodes absent from this map
// take no operands.
var asmSchema = map[Opcode][]asmOperand{
	OpPushI:  {asmInt},
	OpPushF:  {asmFloat},
	OpPushS:  {asmStringLiteral},
	OpStoreG: {asmIdentifier},
	OpLoadG:  {asmIdentifier},
	OpCallN:  {asmIdentifier, asmByte},
}

// Assembler tokenizes textual VitteLight source, interns strings into a
// pool, and emits a validated code buffer. NewAssembler plus Emit
// (module.go) is what the AssembleToModule convenience wrapper below
// composes into a full VLBC image.
type Assembler struct {
	pool *StringPool
}

func NewAssembler() *Assembler {
	return &Assembler{pool: NewStringPool()}
}

// Pool exposes the assembler's string pool, e.g. so a caller can reuse it
// across an incremental REPL session.
func (a *Assembler) Pool() *StringPool { return a.pool }

func parseIntLiteral(tok string) (int64, error) {
	s := tok
	neg := false
	if strings.HasPrefix(s, "+") {
		s = s[1:]
	} else if strings.HasPrefix(s, "-") {
		neg = true
		s = s[1:]
	}

	base := 10
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		base = 16
		s = s[2:]
	}

	val, err := strconv.ParseUint(s, base, 64)
	if err != nil {
		return 0, err
	}

	i64 := int64(val)
	if neg {
		i64 = -i64
	}
	return i64, nil
}

func parseFloatLiteral(tok string) (float64, error) {
	return strconv.ParseFloat(tok, 64)
}

// AssembleSource parses lines of VitteLight assembly and returns the raw
// code buffer. Strings are interned into the assembler's own pool (see
// Pool), which may already be non-empty when reused across a REPL session.
// One instruction is produced per non-blank, non-comment line.
func (a *Assembler) AssembleSource(src string) ([]byte, error) {
	var code bytes.Buffer

	lines := strings.Split(strings.ReplaceAll(src, "\r\n", "\n"), "\n")
	for i, raw := range lines {
		lineNo := i + 1

		toks, err := tokenizeLine(raw)
		if err != nil {
			return nil, asmSentinelErr(lineNo, ErrUnterminatedString, raw)
		}
		if len(toks) == 0 {
			continue
		}

		if toks[0].isString {
			return nil, asmErr(lineNo, "expected mnemonic, got string literal")
		}

		op, ok := LookupMnemonic(toks[0].text)
		if !ok {
			return nil, unknownMnemonicError(lineNo, toks[0].text)
		}

		operands := toks[1:]
		schema := asmSchema[op]

		if len(operands) < len(schema) {
			return nil, asmSentinelErr(lineNo, ErrExpectedLiteral,
				fmt.Sprintf("%s wants %d operand(s), got %d", op, len(schema), len(operands)))
		}
		if len(operands) > len(schema) {
			return nil, asmSentinelErr(lineNo, ErrTrailingGarbage, raw)
		}

		if err := a.emitInstruction(&code, lineNo, op, schema, operands); err != nil {
			return nil, err
		}
	}

	return code.Bytes(), nil
}

func (a *Assembler) emitInstruction(code *bytes.Buffer, lineNo int, op Opcode, schema []asmOperand, operands []token) error {
	if len(schema) == 0 {
		if !emitNoOperand(code, op) {
			return asmErr(lineNo, "internal: no emitter registered for %s", op)
		}
		return nil
	}

	switch op {
	case OpPushI:
		v, err := a.parseOperandInt(lineNo, operands[0])
		if err != nil {
			return err
		}
		EmitPushI(code, v)

	case OpPushF:
		if operands[0].isString {
			return asmSentinelErr(lineNo, ErrExpectedLiteral, "expected float literal")
		}
		v, err := parseFloatLiteral(operands[0].text)
		if err != nil {
			return asmSentinelErr(lineNo, ErrExpectedLiteral, operands[0].text)
		}
		EmitPushF(code, v)

	case OpPushS:
		if !operands[0].isString {
			return asmSentinelErr(lineNo, ErrExpectedLiteral, "expected string literal")
		}
		idx, err := a.pool.Intern([]byte(operands[0].text))
		if err != nil {
			return asmSentinelErr(lineNo, ErrLiteralOutOfRange, err.Error())
		}
		EmitPushS(code, idx)

	case OpStoreG, OpLoadG:
		idx, err := a.internIdentifier(lineNo, operands[0])
		if err != nil {
			return err
		}
		if op == OpStoreG {
			EmitStoreG(code, idx)
		} else {
			EmitLoadG(code, idx)
		}

	case OpCallN:
		idx, err := a.internIdentifier(lineNo, operands[0])
		if err != nil {
			return err
		}
		argc, err := a.parseOperandInt(lineNo, operands[1])
		if err != nil {
			return err
		}
		if argc < 0 || argc > 255 {
			return asmSentinelErr(lineNo, ErrLiteralOutOfRange, fmt.Sprintf("argc=%d", argc))
		}
		EmitCallN(code, idx, uint8(argc))

	default:
		return asmErr(lineNo, "internal: unhandled schema for %s", op)
	}

	return nil
}

func (a *Assembler) parseOperandInt(lineNo int, tok token) (int64, error) {
	if tok.isString {
		return 0, asmSentinelErr(lineNo, ErrExpectedLiteral, "expected integer literal")
	}
	v, err := parseIntLiteral(tok.text)
	if err != nil {
		return 0, asmSentinelErr(lineNo, ErrExpectedLiteral, tok.text)
	}
	return v, nil
}

func (a *Assembler) internIdentifier(lineNo int, tok token) (uint32, error) {
	name := tok.text
	if tok.isString {
		name = tok.text
	} else if !isIdentifier(name) {
		return 0, asmSentinelErr(lineNo, ErrExpectedLiteral, fmt.Sprintf("expected identifier, got %q", name))
	}
	idx, err := a.pool.Intern([]byte(name))
	if err != nil {
		return 0, asmSentinelErr(lineNo, ErrLiteralOutOfRange, err.Error())
	}
	return idx, nil
}

// AssembleToModule assembles src into a fully loaded, validated Module —
// the common case of "assemble then immediately run or inspect".
func AssembleToModule(src string) (*Module, error) {
	a := NewAssembler()
	code, err := a.AssembleSource(src)
	if err != nil {
		return nil, err
	}
	image, err := Emit(a.pool, code)
	if err != nil {
		return nil, err
	}
	return Load(image)
}

// AssembleToImage assembles src and returns the raw VLBC bytes without
// loading them back, the shape the `asm` sub-command needs.
func AssembleToImage(src string) ([]byte, error) {
	a := NewAssembler()
	code, err := a.AssembleSource(src)
	if err != nil {
		return nil, err
	}
	return Emit(a.pool, code)
}
