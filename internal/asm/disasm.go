package asm

import (
	"fmt"

	"github.com/nwatson/lc3/internal/vm"
)

// Disassemble renders a single encoded word as an LC3ASM mnemonic and operand list, the inverse of
// one line of assembly source. It is a pure function of the word alone: a front-end wanting a
// symbolic label in place of a raw offset must resolve that itself, the same way a debugger's
// disassembly view would.
func Disassemble(word vm.Word) string {
	instr := vm.Instruction(word)
	op := instr.Opcode()

	switch op {
	case vm.BR:
		return fmt.Sprintf("BR%s %#x", condMnemonic(instr.Cond()), uint16(instr.Offset(vm.OFFSET9)))
	case vm.ADD, vm.AND:
		if instr.Imm() {
			return fmt.Sprintf("%s %s,%s,#%d", op, instr.DR(), instr.SR1(), instr.Literal(vm.IMM5))
		}

		return fmt.Sprintf("%s %s,%s,%s", op, instr.DR(), instr.SR1(), instr.SR2())
	case vm.NOT:
		return fmt.Sprintf("NOT %s,%s", instr.DR(), instr.SR1())
	case vm.LD, vm.LDI, vm.LEA:
		return fmt.Sprintf("%s %s,%#x", op, instr.DR(), uint16(instr.Offset(vm.OFFSET9)))
	case vm.ST, vm.STI:
		return fmt.Sprintf("%s %s,%#x", op, instr.SR(), uint16(instr.Offset(vm.OFFSET9)))
	case vm.LDR:
		return fmt.Sprintf("LDR %s,%s,%#x", instr.DR(), instr.SR1(), uint16(instr.Offset(vm.OFFSET6)))
	case vm.STR:
		return fmt.Sprintf("STR %s,%s,%#x", instr.SR(), instr.SR1(), uint16(instr.Offset(vm.OFFSET6)))
	case vm.JSR:
		if instr.Relative() {
			return fmt.Sprintf("JSR %#x", uint16(instr.Offset(vm.OFFSET11)))
		}

		return fmt.Sprintf("JSRR %s", instr.SR1())
	case vm.JMP:
		if instr.SR1() == vm.R7 {
			return "RET"
		}

		return fmt.Sprintf("JMP %s", instr.SR1())
	case vm.TRAP:
		return trapMnemonic(instr.Vector(vm.VECTOR8))
	case vm.RTI:
		return "RTI"
	case vm.RESV:
		return fmt.Sprintf("RESV %#03x", uint16(instr)&0x0fff)
	default:
		return instr.String()
	}
}

func condMnemonic(cond vm.Condition) string {
	var s string

	if cond.Negative() {
		s += "n"
	}

	if cond.Zero() {
		s += "z"
	}

	if cond.Positive() {
		s += "p"
	}

	return s
}

// trapMnemonic names the well-known trap vectors by their conventional mnemonic, falling back to
// the raw vector for anything else.
func trapMnemonic(vector vm.Word) string {
	switch vector {
	case vm.TrapGETC:
		return "GETC"
	case vm.TrapOUT:
		return "OUT"
	case vm.TrapPUTS:
		return "PUTS"
	case vm.TrapIN:
		return "IN"
	case vm.TrapPUTSP:
		return "PUTSP"
	case vm.TrapHALT:
		return "HALT"
	default:
		return fmt.Sprintf("TRAP %#x", uint16(vector))
	}
}
