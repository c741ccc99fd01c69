package vm

// ops.go implements the semantics of each opcode.

import (
	"errors"
	"fmt"
)

// BR: Conditional branch.
//
//	| 0000 | NZP | OFFSET9 |
//	|------+-----+---------|
//	|15  12|11  9|8       0|
type br struct {
	mo
	cond   Condition
	offset Word
}

var _ executable = &br{}

func (op *br) Decode(vm *LC3) {
	*op = br{mo: mo{vm: vm}, cond: vm.IR.Cond(), offset: vm.IR.Offset(OFFSET9)}
}

func (op *br) Execute() {
	if op.vm.COND.Any(op.cond) {
		op.vm.PC = ProgramCounter(int16(op.vm.PC) + int16(op.offset))
	}
}

func (op br) String() string { return fmt.Sprintf("BR[cond:%s offset:%s]", op.cond, op.offset) }

// NOT: Bitwise complement.
//
//	| 1001 | DR | SR | 1 1111 |
//	|------+----+----+--------|
//	|15  12|11 9|8  6| 5     0|
type not struct {
	mo
	dr GPR
	sr GPR
}

var _ executable = &not{}

func (op *not) Decode(vm *LC3) {
	*op = not{mo: mo{vm: vm}, dr: vm.IR.DR(), sr: vm.IR.SR1()}
}

func (op *not) Execute() {
	op.vm.REG[op.dr] = op.vm.REG[op.sr] ^ 0xffff
	op.vm.COND.Set(op.vm.REG[op.dr])
}

// AND: Bitwise AND, register mode.
//
//	| 0101 | DR | SR1 | 0 | 00 | SR2 |
//	|------+----+-----+---+----+-----|
//	|15  12|11 9|8   6| 5 |4  3|2   0|
type and struct {
	mo
	dr, sr1, sr2 GPR
}

var _ executable = &and{}

func (op *and) Decode(vm *LC3) {
	*op = and{mo: mo{vm: vm}, dr: vm.IR.DR(), sr1: vm.IR.SR1(), sr2: vm.IR.SR2()}
}

func (op *and) Execute() {
	op.vm.REG[op.dr] = op.vm.REG[op.sr1] & op.vm.REG[op.sr2]
	op.vm.COND.Set(op.vm.REG[op.dr])
}

// AND: Bitwise AND, immediate mode.
//
//	| 0101 | DR | SR1 | 1 | IMM5 |
//	|------+----+-----+---+------|
//	|15  12|11 9|8   6| 5 |4    0|
type andImm struct {
	mo
	dr, sr GPR
	lit    Word
}

var _ executable = &andImm{}

func (op *andImm) Decode(vm *LC3) {
	*op = andImm{mo: mo{vm: vm}, dr: vm.IR.DR(), sr: vm.IR.SR1(), lit: vm.IR.Literal(IMM5)}
}

func (op *andImm) Execute() {
	op.vm.REG[op.dr] = op.vm.REG[op.sr] & Register(op.lit)
	op.vm.COND.Set(op.vm.REG[op.dr])
}

// ADD: Arithmetic addition, register mode.
//
//	| 0001 | DR | SR1 | 000 | SR2 |
//	|------+----+-----+-----+-----|
//	|15  12|11 9|8   6|5   3|2   0|
type add struct {
	mo
	dr, sr1, sr2 GPR
}

var _ executable = &add{}

func (op *add) Decode(vm *LC3) {
	*op = add{mo: mo{vm: vm}, dr: vm.IR.DR(), sr1: vm.IR.SR1(), sr2: vm.IR.SR2()}
}

func (op *add) Execute() {
	op.vm.REG[op.dr] = Register(int16(op.vm.REG[op.sr1]) + int16(op.vm.REG[op.sr2]))
	op.vm.COND.Set(op.vm.REG[op.dr])
}

// ADD: Arithmetic addition, immediate mode.
//
//	| 0001 | DR | SR1 | 1 | IMM5 |
//	|------+----+-----+---+------|
//	|15  12|11 9|8   6| 5 |4    0|
type addImm struct {
	mo
	dr, sr GPR
	lit    Word
}

var _ executable = &addImm{}

func (op *addImm) Decode(vm *LC3) {
	*op = addImm{mo: mo{vm: vm}, dr: vm.IR.DR(), sr: vm.IR.SR1(), lit: vm.IR.Literal(IMM5)}
}

func (op *addImm) Execute() {
	op.vm.REG[op.dr] = Register(int16(op.vm.REG[op.sr]) + int16(op.lit))
	op.vm.COND.Set(op.vm.REG[op.dr])
}

// LD: Load from memory, PC-relative.
//
//	| 0010 | DR | OFFSET9 |
//	|------+----+---------|
//	|15  12|11 9|8       0|
type ld struct {
	mo
	dr     GPR
	offset Word
}

var (
	_ addressable = &ld{}
	_ fetchable   = &ld{}
)

func (op *ld) Decode(vm *LC3) {
	*op = ld{mo: mo{vm: vm}, dr: vm.IR.DR(), offset: vm.IR.Offset(OFFSET9)}
}

func (op *ld) EvalAddress() {
	op.vm.Mem.MAR = Register(int16(op.vm.PC) + int16(op.offset))
}

func (op *ld) FetchOperands() {
	op.vm.REG[op.dr] = op.vm.Mem.MDR
	op.vm.COND.Set(op.vm.REG[op.dr])
}

// LDI: Load indirect.
//
//	| 1010 | DR | OFFSET9 |
//	|------+----+---------|
//	|15  12|11 9|8       0|
type ldi struct {
	mo
	dr     GPR
	offset Word
}

var (
	_ addressable = &ldi{}
	_ fetchable   = &ldi{}
)

func (op *ldi) Decode(vm *LC3) {
	*op = ldi{mo: mo{vm: vm}, dr: vm.IR.DR(), offset: vm.IR.Offset(OFFSET9)}
}

func (op *ldi) EvalAddress() {
	op.vm.Mem.MAR = Register(int16(op.vm.PC) + int16(op.offset))
}

func (op *ldi) FetchOperands() {
	op.vm.Mem.MAR = op.vm.Mem.MDR

	if err := op.vm.Mem.Fetch(); err != nil {
		op.Fail(fmt.Errorf("ldi: %w", err))
		return
	}

	op.vm.REG[op.dr] = op.vm.Mem.MDR
	op.vm.COND.Set(op.vm.REG[op.dr])
}

// LDR: Load from memory, register-relative.
//
//	| 0110 | DR | BASE | OFFSET6 |
//	|------+----+------+---------|
//	|15  12|11 9|8    6|5       0|
type ldr struct {
	mo
	dr, base GPR
	offset   Word
}

var (
	_ addressable = &ldr{}
	_ fetchable   = &ldr{}
)

func (op *ldr) Decode(vm *LC3) {
	*op = ldr{mo: mo{vm: vm}, dr: vm.IR.DR(), base: vm.IR.SR1(), offset: vm.IR.Offset(OFFSET6)}
}

func (op *ldr) EvalAddress() {
	op.vm.Mem.MAR = Register(int16(op.vm.REG[op.base]) + int16(op.offset))
}

func (op *ldr) FetchOperands() {
	op.vm.REG[op.dr] = op.vm.Mem.MDR
	op.vm.COND.Set(op.vm.REG[op.dr])
}

// LEA: Load effective address.
//
//	| 1110 | DR | OFFSET9 |
//	|------+----+---------|
//	|15  12|11 9|8       0|
type lea struct {
	mo
	dr     GPR
	offset Word
}

var _ addressable = &lea{}
var _ executable = &lea{}

func (op *lea) Decode(vm *LC3) {
	*op = lea{mo: mo{vm: vm}, dr: vm.IR.DR(), offset: vm.IR.Offset(OFFSET9)}
}

func (op *lea) EvalAddress() {
	op.vm.Mem.MAR = Register(int16(op.vm.PC) + int16(op.offset))
}

func (op *lea) Execute() {
	op.vm.REG[op.dr] = op.vm.Mem.MAR
	op.vm.COND.Set(op.vm.REG[op.dr])
}

// ST: Store to memory, PC-relative.
//
//	| 0011 | SR | OFFSET9 |
//	|------+----+---------|
//	|15  12|11 9|8       0|
type st struct {
	mo
	sr     GPR
	offset Word
}

var (
	_ addressable = &st{}
	_ executable  = &st{}
	_ storable    = &st{}
)

func (op *st) Decode(vm *LC3) {
	*op = st{mo: mo{vm: vm}, sr: vm.IR.SR(), offset: vm.IR.Offset(OFFSET9)}
}

func (op *st) EvalAddress() {
	op.vm.Mem.MAR = Register(int16(op.vm.PC) + int16(op.offset))
}

func (op *st) Execute() {
	op.vm.Mem.MDR = op.vm.REG[op.sr]
}

func (op *st) StoreResult() {}

// STI: Store indirect.
//
//	| 1011 | SR | OFFSET9 |
//	|------+----+---------|
//	|15  12|11 9|8       0|
type sti struct {
	mo
	sr     GPR
	offset Word
}

var (
	_ addressable = &sti{}
	_ fetchable   = &sti{}
	_ executable  = &sti{}
	_ storable    = &sti{}
)

func (op *sti) Decode(vm *LC3) {
	*op = sti{mo: mo{vm: vm}, sr: vm.IR.SR(), offset: vm.IR.Offset(OFFSET9)}
}

func (op *sti) EvalAddress() {
	op.vm.Mem.MAR = Register(int16(op.vm.PC) + int16(op.offset))
}

func (op *sti) FetchOperands() {
	op.vm.Mem.MAR = op.vm.Mem.MDR
}

func (op *sti) Execute() {
	op.vm.Mem.MDR = op.vm.REG[op.sr]
}

func (op *sti) StoreResult() {}

// STR: Store to memory, register-relative.
//
//	| 0111 | SR | BASE | OFFSET6 |
//	|------+----+------+---------|
//	|15  12|11 9|8    6|5       0|
type str struct {
	mo
	sr, base GPR
	offset   Word
}

var (
	_ addressable = &str{}
	_ executable  = &str{}
	_ storable    = &str{}
)

func (op *str) Decode(vm *LC3) {
	*op = str{mo: mo{vm: vm}, sr: vm.IR.SR(), base: vm.IR.SR1(), offset: vm.IR.Offset(OFFSET6)}
}

func (op *str) EvalAddress() {
	op.vm.Mem.MAR = Register(int16(op.vm.REG[op.base]) + int16(op.offset))
}

func (op *str) Execute() {
	op.vm.Mem.MDR = op.vm.REG[op.sr]
}

func (op *str) StoreResult() {}

// JMP: Unconditional branch; RET is JMP R7.
//
//	| 1100 | 000 | BASE | 00 0000 |
//	|------+-----+------+---------|
//	|15  12|11  9|8    6|5       0|
type jmp struct {
	mo
	base GPR
}

var _ executable = &jmp{}

func (op *jmp) Decode(vm *LC3) {
	*op = jmp{mo: mo{vm: vm}, base: vm.IR.SR1()}
}

func (op *jmp) Execute() {
	op.vm.PC = ProgramCounter(op.vm.REG[op.base])
}

// JSR: Jump to subroutine, PC-relative mode.
//
//	| 0100 | 1 | OFFSET11 |
//	|------+---+----------|
//	|15  12| 11|10       0|
type jsr struct {
	mo
	offset Word
}

var _ executable = &jsr{}

func (op *jsr) Decode(vm *LC3) {
	offset := Word(vm.IR & 0x07ff)
	offset.Sext(11)
	*op = jsr{mo: mo{vm: vm}, offset: offset}
}

func (op *jsr) Execute() {
	op.vm.REG[RET] = Register(op.vm.PC)
	op.vm.PC = ProgramCounter(int16(op.vm.PC) + int16(op.offset))
}

// JSRR: Jump to subroutine, register mode.
//
//	| 0100 | 0 | BASE | 00 0000 |
//	|------+---+------+---------|
//	|15  12| 11|10   6|5       0|
type jsrr struct {
	mo
	base GPR
}

var _ executable = &jsrr{}

func (op *jsrr) Decode(vm *LC3) {
	*op = jsrr{mo: mo{vm: vm}, base: vm.IR.SR1()}
}

func (op *jsrr) Execute() {
	target := op.vm.REG[op.base]
	op.vm.REG[RET] = Register(op.vm.PC)
	op.vm.PC = ProgramCounter(target)
}

// TRAP: System call.
//
//	| 1111 | 0000 | VECTOR8 |
//	|------+------+---------|
//	|15  12|11   8|7       0|
type trap struct {
	mo
	vec Word
}

var _ executable = &trap{}

func (op *trap) Decode(vm *LC3) {
	*op = trap{mo: mo{vm: vm}, vec: vm.IR.Vector(VECTOR8)}
}

func (op *trap) String() string { return fmt.Sprintf("TRAP %s", op.vec) }

// Trap service vectors. The LC-3 reference ISA loads these as addresses of in-memory service
// routines; this machine dispatches them directly instead of loading and executing a routine image.
const (
	TrapGETC  = Word(0x20)
	TrapOUT   = Word(0x21)
	TrapPUTS  = Word(0x22)
	TrapIN    = Word(0x23)
	TrapPUTSP = Word(0x24)
	TrapHALT  = Word(0x25)
)

// ErrIllegalTrap is returned when a TRAP names a vector this machine does not implement.
var ErrIllegalTrap = errors.New("vm: illegal trap vector")

func (op *trap) Execute() {
	vm := op.vm

	switch op.vec {
	case TrapGETC:
		b, ok := vm.Keyboard.dequeue()
		if !ok {
			vm.WaitingForInput = true
			vm.PC-- // Retry this TRAP once input arrives.

			return
		}

		vm.REG[R0] = Register(b)
		vm.COND.Set(vm.REG[R0])
	case TrapOUT:
		vm.output = append(vm.output, byte(vm.REG[R0]))
	case TrapPUTS:
		vm.writeString(Word(vm.REG[R0]), false)
	case TrapIN:
		b, ok := vm.Keyboard.dequeue()
		if !ok {
			vm.WaitingForInput = true
			vm.PC--

			return
		}

		vm.REG[R0] = Register(b)
		vm.COND.Set(vm.REG[R0])
		vm.output = append(vm.output, b)
	case TrapPUTSP:
		vm.writeString(Word(vm.REG[R0]), true)
	case TrapHALT:
		vm.output = append(vm.output, []byte("HALT\n")...)
		vm.Halted = true
	default:
		op.Fail(fmt.Errorf("%w: %s", ErrIllegalTrap, op.vec))
	}
}

// writeString appends the NUL-terminated string starting at addr to the output buffer. If packed is
// true, each memory word holds two packed characters (low byte first), per PUTSP; otherwise each
// word holds one character, per PUTS.
func (vm *LC3) writeString(addr Word, packed bool) {
	for {
		w, err := vm.Mem.Read(addr)
		if err != nil {
			return
		}

		if packed {
			lo := byte(w & 0x00ff)
			hi := byte(w >> 8)

			if lo == 0 {
				return
			}

			vm.output = append(vm.output, lo)

			if hi == 0 {
				return
			}

			vm.output = append(vm.output, hi)
		} else {
			if w == 0 {
				return
			}

			vm.output = append(vm.output, byte(w))
		}

		addr++
	}
}

// RTI: Return from trap or interrupt. This machine has no interrupt controller or supervisor stack,
// so RTI is always illegal.
type rti struct{ mo }

var _ executable = &rti{}

func (op *rti) Decode(vm *LC3) { op.vm = vm }

func (op *rti) Execute() {
	op.Fail(fmt.Errorf("%w: RTI", ErrIllegalOpcode))
}

// RESV: Reserved opcode; always illegal.
type resv struct{ mo }

var _ executable = &resv{}

func (op *resv) Decode(vm *LC3) { op.vm = vm }

func (op *resv) Execute() {
	op.Fail(fmt.Errorf("%w: RESV", ErrIllegalOpcode))
}

// ErrIllegalOpcode is returned when the machine decodes RTI or RESV, neither of which this machine
// implements.
var ErrIllegalOpcode = errors.New("vm: illegal opcode")
