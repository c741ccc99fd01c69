package vm

// exec.go defines the CPU instruction cycle.

import (
	"errors"
	"fmt"
)

// ErrHalted is returned by Step if the machine has already executed a HALT.
var ErrHalted = errors.New("vm: halted")

// Step runs a single instruction to completion.
//
// Each operation has as many as six steps:
//
//   - fetch instruction: using the program counter, fetch an instruction from memory into the
//     instruction register and increment the program counter.
//   - decode operation: get the operation from the instruction register.
//   - evaluate address: compute the memory address to be accessed, if any.
//   - fetch operands: load an operand from memory using the computed address, if any.
//   - execute operation: do the thing.
//   - store result: write the operation's result to memory, if any.
//
// An instruction implements methods for whichever of these stages its semantics require; see
// [operation].
func (vm *LC3) Step() error {
	if vm.Halted {
		return fmt.Errorf("step: %w", ErrHalted)
	}

	if err := vm.Fetch(); err != nil {
		return fmt.Errorf("step: %w", err)
	}

	op := vm.Decode()
	vm.EvalAddress(op)
	vm.FetchOperands(op)
	vm.Execute(op)
	vm.Writeback(op)

	if err := op.Err(); err != nil {
		return fmt.Errorf("step: %w", err)
	}

	return nil
}

// Fetch loads the word addressed by PC into IR and increments PC.
func (vm *LC3) Fetch() error {
	vm.Mem.MAR = Register(vm.PC)

	if err := vm.Mem.Fetch(); err != nil {
		return fmt.Errorf("fetch: %w", err)
	}

	vm.IR = Instruction(vm.Mem.MDR)
	vm.PC++

	return nil
}

// Decode returns the operation named by the opcode in IR.
func (vm *LC3) Decode() operation {
	var op operation

	switch vm.IR.Opcode() {
	case BR:
		op = &br{}
	case AND:
		if vm.IR.Imm() {
			op = &andImm{}
		} else {
			op = &and{}
		}
	case ADD:
		if vm.IR.Imm() {
			op = &addImm{}
		} else {
			op = &add{}
		}
	case NOT:
		op = &not{}
	case LD:
		op = &ld{}
	case LDI:
		op = &ldi{}
	case LDR:
		op = &ldr{}
	case LEA:
		op = &lea{}
	case ST:
		op = &st{}
	case STI:
		op = &sti{}
	case STR:
		op = &str{}
	case JMP:
		op = &jmp{}
	case JSR:
		if vm.IR.Relative() {
			op = &jsr{}
		} else {
			op = &jsrr{}
		}
	case TRAP:
		op = &trap{}
	case RTI:
		op = &rti{}
	default: // RESV
		op = &resv{}
	}

	op.Decode(vm)

	return op
}

// EvalAddress computes a memory address if the operation is addressable.
func (vm *LC3) EvalAddress(op operation) {
	if op, ok := op.(addressable); ok && op.Err() == nil {
		op.EvalAddress()
	}
}

// FetchOperands reads from memory into the data register if the operation is fetchable.
func (vm *LC3) FetchOperands(op operation) {
	if op.Err() != nil {
		return
	}

	if op, ok := op.(fetchable); ok {
		if err := vm.Mem.Fetch(); err != nil {
			op.Fail(fmt.Errorf("fetch operands: %w", err))
			return
		}

		op.FetchOperands()
	}
}

// Execute performs the operation's effect if it is executable.
func (vm *LC3) Execute(op operation) {
	if op.Err() != nil {
		return
	}

	if op, ok := op.(executable); ok {
		op.Execute()
	}
}

// Writeback stores the data register to memory if the operation is storable.
func (vm *LC3) Writeback(op operation) {
	if op.Err() != nil {
		return
	}

	if op, ok := op.(storable); ok {
		op.StoreResult()

		if err := vm.Mem.Store(); err != nil {
			op.Fail(fmt.Errorf("writeback: %w", err))
			return
		}
	}
}

// operation represents a single CPU instruction as it is being executed. Its semantics are defined
// by implementing whichever optional interfaces its execution stages require: [addressable],
// [fetchable], [executable], [storable].
type operation interface {
	// Decode initializes the operation from the machine's instruction register.
	Decode(vm *LC3)

	// Fail records an error that stops the remaining execution stages.
	Fail(err error)

	// Err returns the error, if any, that stopped execution.
	Err() error

	fmt.Stringer
}

// addressable operations compute the memory address register.
type addressable interface {
	operation
	EvalAddress()
}

// fetchable operations load operands from the memory data register.
type fetchable interface {
	addressable
	FetchOperands()
}

// executable operations update CPU state.
type executable interface {
	operation
	Execute()
}

// storable operations write the memory data register to memory.
type storable interface {
	addressable
	StoreResult()
}

// mo ("micro-op") holds the fields common to every operation: a back-reference to the machine and
// any error that halted execution early.
type mo struct {
	vm  *LC3
	err error
}

func (op mo) Err() error      { return op.err }
func (op *mo) Fail(err error) { op.err = err }
func (op mo) String() string  { return fmt.Sprintf("ins: %s", op.vm.IR.Opcode()) }
