package asm

// ops.go implements parsing and code generation for every opcode, directive and pseudo-op.

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/nwatson/lc3/internal/vm"
)

// badGPR marks a register string that failed to resolve to a GPR.
const badGPR = uint16(vm.BadGPR)

// parseRegister canonicalizes a register operand ("r3", "R3") or returns "" if oper does not name
// a general-purpose register.
func parseRegister(oper string) string {
	oper = strings.ToUpper(strings.TrimSpace(oper))

	switch oper {
	case "R0", "R1", "R2", "R3", "R4", "R5", "R6", "R7":
		return oper
	default:
		return ""
	}
}

// registerVal returns the GPR number encoded by reg, or badGPR if reg does not name a register.
func registerVal(reg string) uint16 {
	switch reg {
	case "R0":
		return 0
	case "R1":
		return 1
	case "R2":
		return 2
	case "R3":
		return 3
	case "R4":
		return 4
	case "R5":
		return 5
	case "R6":
		return 6
	case "R7":
		return 7
	default:
		return badGPR
	}
}

// parseImmediate parses an operand that is either a numeric literal or a symbolic reference. When
// oper names a literal, val holds its value and sym is empty; otherwise sym holds the (trimmed)
// symbol name and val is zero.
func parseImmediate(oper string, bits uint8) (val uint16, sym string, err error) {
	oper = strings.TrimSpace(oper)

	if strings.HasPrefix(oper, "[") && strings.HasSuffix(oper, "]") {
		oper = strings.TrimSpace(oper[1 : len(oper)-1])
	}

	if !looksLikeLiteral(oper) {
		return 0, oper, nil
	}

	val, err = parseLiteral(oper, bits)

	return val, "", err
}

// looksLikeLiteral reports whether s has the lexical shape of a numeric literal: a '#'-prefixed
// decimal, an 'x'/'o'/'b'-prefixed radix literal, or a bare decimal number.
func looksLikeLiteral(s string) bool {
	if s == "" {
		return false
	}

	if s[0] == '#' {
		return len(s) > 1
	}

	if len(s) > 1 {
		switch s[0] {
		case 'x', 'X':
			return isRadixDigits(s[1:], 16)
		case 'o', 'O':
			return isRadixDigits(s[1:], 8)
		case 'b', 'B':
			return isRadixDigits(s[1:], 2)
		}
	}

	return isRadixDigits(s, 10)
}

func isRadixDigits(s string, base int) bool {
	if s == "" {
		return false
	}

	for i := 0; i < len(s); i++ {
		c := s[i]

		if i == 0 && c == '-' {
			continue
		}

		if c == '_' {
			continue
		}

		var digit int

		switch {
		case c >= '0' && c <= '9':
			digit = int(c - '0')
		case c >= 'a' && c <= 'f':
			digit = int(c-'a') + 10
		case c >= 'A' && c <= 'F':
			digit = int(c-'A') + 10
		default:
			return false
		}

		if digit >= base {
			return false
		}
	}

	return true
}

// parseLiteral parses a numeric literal, in decimal (with optional '#' prefix) or radix notation
// ('x', 'o', 'b'), and range-checks it against an n-bit, two's-complement field.
func parseLiteral(oper string, bits uint8) (uint16, error) {
	s := strings.TrimPrefix(strings.TrimSpace(oper), "#")
	s = strings.ReplaceAll(s, "_", "")

	if len(s) > 1 {
		switch s[0] {
		case 'x', 'X', 'o', 'O', 'b', 'B':
			s = "0" + s
		}
	}

	v, err := strconv.ParseInt(s, 0, 32)
	if err != nil {
		return 0, fmt.Errorf("%w: %q: %s", ErrLiteral, oper, err)
	}

	var lo, hi int64

	if bits >= 16 {
		lo, hi = -1<<15, 1<<16-1
	} else {
		lo, hi = -1<<(bits-1), 1<<(bits-1)-1
	}

	if v < lo || v > hi {
		return 0, &LiteralRangeError{Literal: oper, Bits: bits}
	}

	mask := int64(1)<<bits - 1
	if bits >= 16 {
		mask = 0xffff
	}

	return uint16(v) & uint16(mask), nil
}

// resolve turns a parsed immediate/symbol pair into an n-bit operand field, consulting the symbol
// table for PC-relative references.
func resolve(symbols SymbolTable, pc vm.Word, sym string, lit uint16, bits uint8) (uint16, error) {
	if sym == "" {
		mask := uint16(1)<<bits - 1
		return lit & mask, nil
	}

	return symbols.Offset(sym, pc, bits)
}

// BR: Conditional branch.
//
//	BR    [ LABEL | #LITERAL ]
//	BRn   [ LABEL | #LITERAL ]
//	BRz   [ LABEL | #LITERAL ]
//	BRp   [ LABEL | #LITERAL ]
//	BRnz, BRnp, BRzp, BRnzp also accepted.
//
//	| 0000 | NZP | OFFSET9 |
//	|------+-----+---------|
//	|15  12|11  9|8       0|
type BR struct {
	NZP    uint8
	SYMBOL string
	OFFSET uint16
}

func (br BR) String() string { return fmt.Sprintf("BR %#v", br) }

func (br *BR) Parse(opcode string, opers []string) error {
	var nzp uint8

	if len(opers) != 1 {
		return fmt.Errorf("%w: BR takes one operand", ErrOperand)
	}

	switch strings.ToUpper(opcode) {
	case "BR", "BRNZP":
		nzp = uint8(vm.ConditionNegative | vm.ConditionZero | vm.ConditionPositive)
	case "BRN":
		nzp = uint8(vm.ConditionNegative)
	case "BRZ":
		nzp = uint8(vm.ConditionZero)
	case "BRP":
		nzp = uint8(vm.ConditionPositive)
	case "BRNZ":
		nzp = uint8(vm.ConditionNegative | vm.ConditionZero)
	case "BRNP":
		nzp = uint8(vm.ConditionNegative | vm.ConditionPositive)
	case "BRZP":
		nzp = uint8(vm.ConditionZero | vm.ConditionPositive)
	default:
		return fmt.Errorf("%w: %s", ErrOpcode, opcode)
	}

	off, sym, err := parseImmediate(opers[0], 9)
	if err != nil {
		return fmt.Errorf("br: %w", err)
	}

	*br = BR{NZP: nzp, SYMBOL: sym, OFFSET: off}

	return nil
}

func (br *BR) Generate(symbols SymbolTable, pc vm.Word) ([]vm.Word, error) {
	offset, err := resolve(symbols, pc, br.SYMBOL, br.OFFSET, 9)
	if err != nil {
		return nil, fmt.Errorf("br: %w", err)
	}

	code := vm.NewInstruction(vm.BR, uint16(br.NZP)<<9)
	code.Operand(offset)

	return []vm.Word{code.Encode()}, nil
}

// AND: Bitwise AND binary operator.
//
//	AND DR,SR1,SR2         ; register mode
//	AND DR,SR1,#LITERAL    ; immediate mode
//	AND DR,SR1,LABEL
type AND struct {
	DR, SR1 string
	SR2     string // Register mode.
	SYMBOL  string // Symbolic immediate.
	OFFSET  uint16 // Literal immediate.
}

func (and AND) String() string { return fmt.Sprintf("AND %#v", and) }

func (and *AND) Parse(_ string, opers []string) error {
	if len(opers) != 3 {
		return fmt.Errorf("%w: AND takes three operands", ErrOperand)
	}

	*and = AND{DR: parseRegister(opers[0]), SR1: parseRegister(opers[1])}

	if sr2 := parseRegister(opers[2]); sr2 != "" {
		and.SR2 = sr2
		return nil
	}

	off, sym, err := parseImmediate(opers[2], 5)
	if err != nil {
		return fmt.Errorf("and: %w", err)
	}

	and.OFFSET, and.SYMBOL = off, sym

	return nil
}

func (and *AND) Generate(symbols SymbolTable, pc vm.Word) ([]vm.Word, error) {
	dr, sr1 := registerVal(and.DR), registerVal(and.SR1)

	if dr == badGPR {
		return nil, &RegisterError{"and", and.DR}
	} else if sr1 == badGPR {
		return nil, &RegisterError{"and", and.SR1}
	}

	code := vm.NewInstruction(vm.AND, dr<<9|sr1<<6)

	if and.SR2 != "" {
		sr2 := registerVal(and.SR2)
		if sr2 == badGPR {
			return nil, &RegisterError{"and", and.SR2}
		}

		code.Operand(sr2)
	} else {
		imm, err := resolve(symbols, pc, and.SYMBOL, and.OFFSET, 5)
		if err != nil {
			return nil, fmt.Errorf("and: %w", err)
		}

		code.Operand(1 << 5)
		code.Operand(imm)
	}

	return []vm.Word{code.Encode()}, nil
}

// ADD: Arithmetic addition.
//
//	ADD DR,SR1,SR2
//	ADD DR,SR1,#LITERAL
type ADD struct {
	DR, SR1 string
	SR2     string
	LITERAL uint16
}

func (add ADD) String() string { return fmt.Sprintf("ADD %#v", add) }

func (add *ADD) Parse(_ string, opers []string) error {
	if len(opers) != 3 {
		return fmt.Errorf("%w: ADD takes three operands", ErrOperand)
	}

	*add = ADD{DR: parseRegister(opers[0]), SR1: parseRegister(opers[1])}

	if sr2 := parseRegister(opers[2]); sr2 != "" {
		add.SR2 = sr2
		return nil
	}

	lit, _, err := parseImmediate(opers[2], 5)
	if err != nil {
		return fmt.Errorf("add: %w", err)
	}

	add.LITERAL = lit

	return nil
}

func (add *ADD) Generate(_ SymbolTable, _ vm.Word) ([]vm.Word, error) {
	dr, sr1 := registerVal(add.DR), registerVal(add.SR1)

	if dr == badGPR {
		return nil, &RegisterError{"add", add.DR}
	} else if sr1 == badGPR {
		return nil, &RegisterError{"add", add.SR1}
	}

	code := vm.NewInstruction(vm.ADD, dr<<9|sr1<<6)

	if add.SR2 != "" {
		sr2 := registerVal(add.SR2)
		if sr2 == badGPR {
			return nil, &RegisterError{"add", add.SR2}
		}

		code.Operand(sr2)
	} else {
		code.Operand(1 << 5)
		code.Operand(add.LITERAL & 0x001f)
	}

	return []vm.Word{code.Encode()}, nil
}

// NOT: Bitwise complement.
//
//	NOT DR,SR
type NOT struct {
	DR, SR string
}

func (not NOT) String() string { return fmt.Sprintf("NOT %#v", not) }

func (not *NOT) Parse(_ string, opers []string) error {
	if len(opers) != 2 {
		return fmt.Errorf("%w: NOT takes two operands", ErrOperand)
	}

	*not = NOT{DR: parseRegister(opers[0]), SR: parseRegister(opers[1])}

	return nil
}

func (not *NOT) Generate(_ SymbolTable, _ vm.Word) ([]vm.Word, error) {
	dr, sr := registerVal(not.DR), registerVal(not.SR)

	if dr == badGPR {
		return nil, &RegisterError{"not", not.DR}
	} else if sr == badGPR {
		return nil, &RegisterError{"not", not.SR}
	}

	code := vm.NewInstruction(vm.NOT, dr<<9|sr<<6|0x003f)

	return []vm.Word{code.Encode()}, nil
}

// pcOffset9 is shared by LD, LDI, LEA and ST: a destination/source register and a 9-bit,
// PC-relative offset or symbolic label.
type pcOffset9 struct {
	op     vm.Opcode
	name   string
	REG    string
	SYMBOL string
	OFFSET uint16
}

func (o *pcOffset9) parse(opcode, reg, operand string) error {
	o.name = opcode
	o.REG = parseRegister(reg)

	off, sym, err := parseImmediate(operand, 9)
	if err != nil {
		return fmt.Errorf("%s: %w", strings.ToLower(opcode), err)
	}

	o.OFFSET, o.SYMBOL = off, sym

	return nil
}

func (o *pcOffset9) generate(symbols SymbolTable, pc vm.Word) ([]vm.Word, error) {
	reg := registerVal(o.REG)
	if reg == badGPR {
		return nil, &RegisterError{strings.ToLower(o.name), o.REG}
	}

	offset, err := resolve(symbols, pc, o.SYMBOL, o.OFFSET, 9)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", strings.ToLower(o.name), err)
	}

	code := vm.NewInstruction(o.op, reg<<9)
	code.Operand(offset)

	return []vm.Word{code.Encode()}, nil
}

// LD: Load from memory, PC-relative.
//
//	LD DR,LABEL
//	LD DR,#LITERAL
type LD struct{ pcOffset9 }

func (ld LD) String() string { return fmt.Sprintf("LD %#v", ld.pcOffset9) }

func (ld *LD) Parse(opcode string, opers []string) error {
	if len(opers) != 2 {
		return fmt.Errorf("%w: LD takes two operands", ErrOperand)
	}

	ld.op = vm.LD

	return ld.parse(opcode, opers[0], opers[1])
}

func (ld *LD) Generate(symbols SymbolTable, pc vm.Word) ([]vm.Word, error) {
	return ld.generate(symbols, pc)
}

// LDI: Load indirect.
//
//	LDI DR,LABEL
//	LDI DR,#LITERAL
type LDI struct{ pcOffset9 }

func (ldi LDI) String() string { return fmt.Sprintf("LDI %#v", ldi.pcOffset9) }

func (ldi *LDI) Parse(opcode string, opers []string) error {
	if len(opers) != 2 {
		return fmt.Errorf("%w: LDI takes two operands", ErrOperand)
	}

	ldi.op = vm.LDI

	return ldi.parse(opcode, opers[0], opers[1])
}

func (ldi *LDI) Generate(symbols SymbolTable, pc vm.Word) ([]vm.Word, error) {
	return ldi.generate(symbols, pc)
}

// LEA: Load effective address.
//
//	LEA DR,LABEL
//	LEA DR,#LITERAL
type LEA struct{ pcOffset9 }

func (lea LEA) String() string { return fmt.Sprintf("LEA %#v", lea.pcOffset9) }

func (lea *LEA) Parse(opcode string, opers []string) error {
	if len(opers) != 2 {
		return fmt.Errorf("%w: LEA takes two operands", ErrOperand)
	}

	lea.op = vm.LEA

	return lea.parse(opcode, opers[0], opers[1])
}

func (lea *LEA) Generate(symbols SymbolTable, pc vm.Word) ([]vm.Word, error) {
	return lea.generate(symbols, pc)
}

// ST: Store to memory, PC-relative.
//
//	ST SR,LABEL
//	ST SR,#LITERAL
type ST struct{ pcOffset9 }

func (st ST) String() string { return fmt.Sprintf("ST %#v", st.pcOffset9) }

func (st *ST) Parse(opcode string, opers []string) error {
	if len(opers) != 2 {
		return fmt.Errorf("%w: ST takes two operands", ErrOperand)
	}

	st.op = vm.ST

	return st.parse(opcode, opers[0], opers[1])
}

func (st *ST) Generate(symbols SymbolTable, pc vm.Word) ([]vm.Word, error) {
	return st.generate(symbols, pc)
}

// STI: Store indirect.
//
//	STI SR,LABEL
//	STI SR,#LITERAL
type STI struct{ pcOffset9 }

func (sti STI) String() string { return fmt.Sprintf("STI %#v", sti.pcOffset9) }

func (sti *STI) Parse(opcode string, opers []string) error {
	if len(opers) != 2 {
		return fmt.Errorf("%w: STI takes two operands", ErrOperand)
	}

	sti.op = vm.STI

	return sti.parse(opcode, opers[0], opers[1])
}

func (sti *STI) Generate(symbols SymbolTable, pc vm.Word) ([]vm.Word, error) {
	return sti.generate(symbols, pc)
}

// baseOffset6 is shared by LDR and STR: a register, a base register and a 6-bit offset.
type baseOffset6 struct {
	op     vm.Opcode
	name   string
	REG    string
	BASE   string
	SYMBOL string
	OFFSET uint16
}

func (o *baseOffset6) parse(opcode string, reg, base, operand string) error {
	o.name = opcode
	o.REG = parseRegister(reg)
	o.BASE = parseRegister(base)

	off, sym, err := parseImmediate(operand, 6)
	if err != nil {
		return fmt.Errorf("%s: %w", strings.ToLower(opcode), err)
	}

	o.OFFSET, o.SYMBOL = off, sym

	return nil
}

func (o *baseOffset6) generate(symbols SymbolTable, pc vm.Word) ([]vm.Word, error) {
	reg, base := registerVal(o.REG), registerVal(o.BASE)

	if reg == badGPR {
		return nil, &RegisterError{strings.ToLower(o.name), o.REG}
	} else if base == badGPR {
		return nil, &RegisterError{strings.ToLower(o.name), o.BASE}
	}

	offset, err := resolve(symbols, pc, o.SYMBOL, o.OFFSET, 6)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", strings.ToLower(o.name), err)
	}

	code := vm.NewInstruction(o.op, reg<<9|base<<6)
	code.Operand(offset)

	return []vm.Word{code.Encode()}, nil
}

// LDR: Load from memory, register-relative.
//
//	LDR DR,SR,LABEL
//	LDR DR,SR,#LITERAL
type LDR struct{ baseOffset6 }

func (ldr LDR) String() string { return fmt.Sprintf("LDR %#v", ldr.baseOffset6) }

func (ldr *LDR) Parse(opcode string, opers []string) error {
	if len(opers) != 3 {
		return fmt.Errorf("%w: LDR takes three operands", ErrOperand)
	}

	ldr.op = vm.LDR

	return ldr.parse(opcode, opers[0], opers[1], opers[2])
}

func (ldr *LDR) Generate(symbols SymbolTable, pc vm.Word) ([]vm.Word, error) {
	return ldr.generate(symbols, pc)
}

// STR: Store to memory, register-relative.
//
//	STR SR,BASER,LABEL
//	STR SR,BASER,#LITERAL
type STR struct{ baseOffset6 }

func (str STR) String() string { return fmt.Sprintf("STR %#v", str.baseOffset6) }

func (str *STR) Parse(opcode string, opers []string) error {
	if len(opers) != 3 {
		return fmt.Errorf("%w: STR takes three operands", ErrOperand)
	}

	str.op = vm.STR

	return str.parse(opcode, opers[0], opers[1], opers[2])
}

func (str *STR) Generate(symbols SymbolTable, pc vm.Word) ([]vm.Word, error) {
	return str.generate(symbols, pc)
}

// JMP: Unconditional jump through a base register. RET is the special case BaseR == R7.
//
//	JMP BASER
//	RET
type JMP struct {
	BASER string
}

func (jmp JMP) String() string { return fmt.Sprintf("JMP %#v", jmp) }

func (jmp *JMP) Parse(opcode string, opers []string) error {
	if strings.ToUpper(opcode) == "RET" {
		if len(opers) != 0 {
			return fmt.Errorf("%w: RET takes no operands", ErrOperand)
		}

		jmp.BASER = "R7"

		return nil
	}

	if len(opers) != 1 {
		return fmt.Errorf("%w: JMP takes one operand", ErrOperand)
	}

	jmp.BASER = parseRegister(opers[0])

	return nil
}

func (jmp *JMP) Generate(_ SymbolTable, _ vm.Word) ([]vm.Word, error) {
	base := registerVal(jmp.BASER)
	if base == badGPR {
		return nil, &RegisterError{"jmp", jmp.BASER}
	}

	code := vm.NewInstruction(vm.JMP, base<<6)

	return []vm.Word{code.Encode()}, nil
}

// JSR: Jump to subroutine, PC-relative.
//
//	JSR LABEL
//	JSR #LITERAL
type JSR struct {
	SYMBOL string
	OFFSET uint16
}

func (jsr JSR) String() string { return fmt.Sprintf("JSR %#v", jsr) }

func (jsr *JSR) Parse(_ string, opers []string) error {
	if len(opers) != 1 {
		return fmt.Errorf("%w: JSR takes one operand", ErrOperand)
	}

	off, sym, err := parseImmediate(opers[0], 11)
	if err != nil {
		return fmt.Errorf("jsr: %w", err)
	}

	*jsr = JSR{SYMBOL: sym, OFFSET: off}

	return nil
}

func (jsr *JSR) Generate(symbols SymbolTable, pc vm.Word) ([]vm.Word, error) {
	offset, err := resolve(symbols, pc, jsr.SYMBOL, jsr.OFFSET, 11)
	if err != nil {
		return nil, fmt.Errorf("jsr: %w", err)
	}

	code := vm.NewInstruction(vm.JSR, 1<<11)
	code.Operand(offset)

	return []vm.Word{code.Encode()}, nil
}

// JSRR: Jump to subroutine through a base register.
//
//	JSRR BASER
type JSRR struct {
	BASER string
}

func (jsrr JSRR) String() string { return fmt.Sprintf("JSRR %#v", jsrr) }

func (jsrr *JSRR) Parse(_ string, opers []string) error {
	if len(opers) != 1 {
		return fmt.Errorf("%w: JSRR takes one operand", ErrOperand)
	}

	jsrr.BASER = parseRegister(opers[0])

	return nil
}

func (jsrr *JSRR) Generate(_ SymbolTable, _ vm.Word) ([]vm.Word, error) {
	base := registerVal(jsrr.BASER)
	if base == badGPR {
		return nil, &RegisterError{"jsrr", jsrr.BASER}
	}

	code := vm.NewInstruction(vm.JSR, base<<6)

	return []vm.Word{code.Encode()}, nil
}

// trapVectors maps named system-call mnemonics to their trap vectors.
var trapVectors = map[string]uint16{
	"GETC":  uint16(vm.TrapGETC),
	"OUT":   uint16(vm.TrapOUT),
	"PUTS":  uint16(vm.TrapPUTS),
	"IN":    uint16(vm.TrapIN),
	"PUTSP": uint16(vm.TrapPUTSP),
	"HALT":  uint16(vm.TrapHALT),
}

// TRAP: System call.
//
//	TRAP x25
//	HALT    ; and the other named trap vectors
type TRAP struct {
	VECTOR uint16
}

func (trap TRAP) String() string { return fmt.Sprintf("TRAP %#v", trap) }

func (trap *TRAP) Parse(opcode string, opers []string) error {
	if vec, ok := trapVectors[strings.ToUpper(opcode)]; ok {
		if len(opers) != 0 {
			return fmt.Errorf("%w: %s takes no operands", ErrOperand, opcode)
		}

		trap.VECTOR = vec

		return nil
	}

	if len(opers) != 1 {
		return fmt.Errorf("%w: TRAP takes one operand", ErrOperand)
	}

	vec, err := parseLiteral(opers[0], 16)
	if err != nil {
		return fmt.Errorf("trap: %w", err)
	}

	if vec > 0xff {
		return fmt.Errorf("trap: %w", &LiteralRangeError{Literal: opers[0], Bits: 8})
	}

	trap.VECTOR = vec

	return nil
}

func (trap *TRAP) Generate(_ SymbolTable, _ vm.Word) ([]vm.Word, error) {
	code := vm.NewInstruction(vm.TRAP, trap.VECTOR&0x00ff)

	return []vm.Word{code.Encode()}, nil
}

// RTI: Return from trap or interrupt. Not meaningful without a privileged execution mode; kept so
// that ported programs assemble, even though running RTI always faults at run time.
type RTI struct{}

func (rti RTI) String() string { return "RTI" }

func (rti *RTI) Parse(_ string, opers []string) error {
	if len(opers) != 0 {
		return fmt.Errorf("%w: RTI takes no operands", ErrOperand)
	}

	return nil
}

func (rti *RTI) Generate(_ SymbolTable, _ vm.Word) ([]vm.Word, error) {
	return []vm.Word{vm.NewInstruction(vm.RTI, 0).Encode()}, nil
}

// ORIG: Sets the location counter for the following code.
//
//	.ORIG x3000
type ORIG struct {
	LITERAL uint16
}

func (orig *ORIG) Parse(_ string, opers []string) error {
	if len(opers) != 1 {
		return fmt.Errorf("%w: .ORIG takes one operand", ErrOperand)
	}

	val, err := parseLiteral(opers[0], 16)
	if err != nil {
		return fmt.Errorf("orig: %w", err)
	}

	orig.LITERAL = val

	return nil
}

// Generate encodes the origin as the leading word of the object file. It must be the first
// operation of a syntax table.
func (orig *ORIG) Generate(_ SymbolTable, _ vm.Word) ([]vm.Word, error) {
	return []vm.Word{vm.Word(orig.LITERAL)}, nil
}

// FILL: Allocates and initializes one word of data.
//
//	.FILL x1234
//	.FILL #-1
//	.FILL LABEL
//
// A label operand resolves to that label's absolute address, not a PC-relative offset.
type FILL struct {
	LITERAL uint16
	SYMBOL  string
}

func (fill *FILL) Parse(_ string, opers []string) error {
	if len(opers) != 1 {
		return fmt.Errorf("%w: .FILL takes one operand", ErrOperand)
	}

	val, sym, err := parseImmediate(opers[0], 16)
	if err != nil {
		return fmt.Errorf("fill: %w", err)
	}

	fill.LITERAL, fill.SYMBOL = val, sym

	return nil
}

func (fill *FILL) Generate(symbols SymbolTable, pc vm.Word) ([]vm.Word, error) {
	if fill.SYMBOL == "" {
		return []vm.Word{vm.Word(fill.LITERAL)}, nil
	}

	loc, ok := symbols[fill.SYMBOL]
	if !ok {
		return nil, &SymbolError{Symbol: fill.SYMBOL, Loc: pc}
	}

	return []vm.Word{loc}, nil
}

// BLKW: Allocates n uninitialized (zero) words of data.
//
//	.BLKW 4
type BLKW struct {
	ALLOC uint16
}

func (blkw *BLKW) Parse(_ string, opers []string) error {
	if len(opers) != 1 {
		return fmt.Errorf("%w: .BLKW takes one operand", ErrOperand)
	}

	val, err := parseLiteral(opers[0], 16)
	if err != nil {
		return fmt.Errorf("blkw: %w", err)
	}

	blkw.ALLOC = val

	return nil
}

func (blkw *BLKW) Generate(_ SymbolTable, _ vm.Word) ([]vm.Word, error) {
	return make([]vm.Word, blkw.ALLOC), nil
}

// STRINGZ: Allocates a NUL-terminated, ASCII string. Backslash escapes \n, \t, \r, \\ and \" are
// recognized.
//
//	HELLO .STRINGZ "Hello, world!\n"
type STRINGZ struct {
	LITERAL string
}

func (s *STRINGZ) Parse(_ string, opers []string) error {
	if len(opers) != 1 {
		return fmt.Errorf("%w: .STRINGZ takes one operand", ErrOperand)
	}

	lit := strings.TrimSpace(opers[0])
	lit = strings.Trim(lit, `"`)

	unescaped, err := unescape(lit)
	if err != nil {
		return fmt.Errorf("stringz: %w", err)
	}

	s.LITERAL = unescaped

	return nil
}

func unescape(s string) (string, error) {
	var b strings.Builder

	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '\\' {
			b.WriteByte(c)
			continue
		}

		i++
		if i >= len(s) {
			return "", errors.New("dangling escape")
		}

		switch s[i] {
		case 'n':
			b.WriteByte('\n')
		case 't':
			b.WriteByte('\t')
		case 'r':
			b.WriteByte('\r')
		case '\\':
			b.WriteByte('\\')
		case '"':
			b.WriteByte('"')
		default:
			return "", fmt.Errorf("unknown escape: \\%c", s[i])
		}
	}

	return b.String(), nil
}

func (s *STRINGZ) Generate(_ SymbolTable, _ vm.Word) ([]vm.Word, error) {
	code := make([]vm.Word, 0, len(s.LITERAL)+1)

	for _, r := range s.LITERAL {
		code = append(code, vm.Word(r))
	}

	return append(code, 0), nil
}

// END: Marks the end of a translation unit. It generates no code.
type END struct{}

func (END) Parse(_ string, opers []string) error {
	if len(opers) != 0 {
		return fmt.Errorf("%w: .END takes no operands", ErrOperand)
	}

	return nil
}

func (END) Generate(_ SymbolTable, _ vm.Word) ([]vm.Word, error) {
	return nil, nil
}

// RESV: The reserved opcode. It has no assembly syntax of its own -- it exists only so Generate
// rejects any attempt to emit it directly.
type RESV struct{}

func (RESV) Parse(opcode string, _ []string) error {
	return fmt.Errorf("%w: %s is reserved", ErrOpcode, opcode)
}

func (RESV) Generate(_ SymbolTable, _ vm.Word) ([]vm.Word, error) {
	return nil, fmt.Errorf("%w: reserved opcode", ErrOpcode)
}

// operators maps a mnemonic to a constructor for its Operation. BR and TRAP's mnemonic variants
// (BRn, BRzp, HALT, GETC, ...) are resolved by name at Parse time by the single BR/TRAP types.
var operators = map[string]func() Operation{
	"BR": func() Operation { return &BR{} },
	"AND": func() Operation { return &AND{} },
	"ADD": func() Operation { return &ADD{} },
	"NOT": func() Operation { return &NOT{} },
	"LD":   func() Operation { return &LD{} },
	"LDI":  func() Operation { return &LDI{} },
	"LDR":  func() Operation { return &LDR{} },
	"LEA":  func() Operation { return &LEA{} },
	"ST":   func() Operation { return &ST{} },
	"STI":  func() Operation { return &STI{} },
	"STR":  func() Operation { return &STR{} },
	"JMP":  func() Operation { return &JMP{} },
	"RET":  func() Operation { return &JMP{} },
	"JSR":  func() Operation { return &JSR{} },
	"JSRR": func() Operation { return &JSRR{} },
	"TRAP": func() Operation { return &TRAP{} },
	"RTI":  func() Operation { return &RTI{} },

	".ORIG":    func() Operation { return &ORIG{} },
	".FILL":    func() Operation { return &FILL{} },
	".BLKW":    func() Operation { return &BLKW{} },
	".STRINGZ": func() Operation { return &STRINGZ{} },
	".END":     func() Operation { return &END{} },
}

func init() {
	for _, nzp := range []string{"BRN", "BRZ", "BRP", "BRNZ", "BRNP", "BRZP", "BRNZP"} {
		nzp := nzp
		operators[nzp] = func() Operation { return &BR{} }
	}

	for name := range trapVectors {
		name := name
		operators[name] = func() Operation { return &TRAP{} }
	}
}
