package vm

// vm.go defines the virtual machine and assembles it from its smaller parts.

import (
	"fmt"
)

// LC3 is a computer simulated in software.
type LC3 struct {
	PC   ProgramCounter // Instruction pointer.
	IR   Instruction    // Instruction register.
	COND Condition      // Condition code: exactly one of N, Z, P is set.
	REG  RegisterFile   // General-purpose register file.
	Mem  Memory         // All the memory you'll ever need.

	Keyboard *Keyboard // The machine's only input device.

	Halted          bool // Set by TRAP HALT; execution stops.
	WaitingForInput bool // Set when GETC/IN finds no queued input.

	output []byte // Bytes written by OUT, PUTS, PUTSP, and HALT's signoff message.
}

// New creates and initializes a virtual machine, ready to load a program at UserSpaceAddr.
func New() *LC3 {
	machine := &LC3{
		Keyboard: NewKeyboard(),
	}

	machine.Mem = NewMemory()
	machine.Mem.Devices.Map(map[Word]Device{
		KBSRAddr: machine.Keyboard,
		KBDRAddr: machine.Keyboard,
	})

	machine.Reset()

	return machine
}

// Reset returns the machine to its initial state: PC at the bottom of user space, condition code Z,
// general-purpose registers zeroed, memory zeroed, halted and waiting-for-input flags cleared, and
// the output buffer emptied. The keyboard's pending input queue and any breakpoints owned by a
// front-end controller are left untouched.
func (vm *LC3) Reset() {
	vm.PC = ProgramCounter(UserSpaceAddr)
	vm.IR = 0
	vm.COND = ConditionZero
	vm.REG = RegisterFile{}
	vm.Mem.Clear()
	vm.Halted = false
	vm.WaitingForInput = false
	vm.output = vm.output[:0]
}

func (vm *LC3) String() string {
	return fmt.Sprintf("PC: %s IR: %s COND: %s\n%s", vm.PC, vm.IR, vm.COND, vm.REG.String())
}

// Output drains and returns any bytes written since the last call.
func (vm *LC3) Output() []byte {
	out := vm.output
	vm.output = nil

	return out
}

// Feed delivers one byte of input to the keyboard device and clears the waiting-for-input flag so
// the next Step retries the instruction that was blocked on it.
func (vm *LC3) Feed(b byte) {
	vm.Keyboard.Feed(b)
	vm.WaitingForInput = false
}
