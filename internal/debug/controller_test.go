package debug_test

import (
	"testing"
	"time"

	"github.com/nwatson/lc3/internal/debug"
	"github.com/nwatson/lc3/internal/vm"
)

// waitFor drains ctl's event channel until an event of kind k arrives or the deadline expires.
func waitFor(t *testing.T, ctl *debug.Controller, k debug.EventKind) debug.Event {
	t.Helper()

	deadline := time.After(2 * time.Second)

	for {
		select {
		case evt := <-ctl.Events():
			if evt.Kind == k {
				return evt
			}
		case <-deadline:
			t.Fatalf("timed out waiting for %s", k)
		}
	}
}

func assemble(t *testing.T, orig vm.Word, words ...vm.Word) vm.ObjectCode {
	t.Helper()

	return vm.ObjectCode{Orig: orig, Code: words}
}

func TestControllerRunHalts(t *testing.T) {
	t.Parallel()

	machine := vm.New()
	ctl := debug.New(machine, nil)
	defer ctl.Close()

	obj := assemble(t, 0x3000,
		vm.Word(vm.NewInstruction(vm.TRAP, uint16(vm.TrapHALT))),
	)

	if err := ctl.Load(obj); err != nil {
		t.Fatal(err)
	}

	ctl.Run()
	waitFor(t, ctl, debug.Halted)

	snap := ctl.Snapshot()
	if !snap.Halted {
		t.Error("expected machine halted")
	}
}

func TestControllerBreakpointStopsAndResumes(t *testing.T) {
	t.Parallel()

	machine := vm.New()
	ctl := debug.New(machine, nil)
	defer ctl.Close()

	and := vm.NewInstruction(vm.AND, 1<<5)     // AND R0,R0,#0
	add7 := vm.NewInstruction(vm.ADD, 1<<5|7)  // ADD R0,R0,#7
	addR1 := vm.NewInstruction(vm.ADD, 1<<9)   // ADD R1,R0,R0
	halt := vm.NewInstruction(vm.TRAP, uint16(vm.TrapHALT))

	obj := assemble(t, 0x3000,
		and.Encode(),
		add7.Encode(),
		addR1.Encode(),
		halt.Encode(),
	)

	if err := ctl.Load(obj); err != nil {
		t.Fatal(err)
	}

	ctl.AddBreakpoint(0x3002)

	ctl.Run()
	evt := waitFor(t, ctl, debug.BreakpointHit)

	if evt.PC != 0x3002 {
		t.Errorf("breakpoint PC = %#x, want 0x3002", evt.PC)
	}

	snap := ctl.Snapshot()
	if snap.Halted {
		t.Error("should not be halted at breakpoint")
	}

	ctl.Run()
	waitFor(t, ctl, debug.Halted)

	snap = ctl.Snapshot()
	if !snap.Halted {
		t.Error("expected machine halted after resuming past breakpoint")
	}
}

func TestControllerWaitingForInputAndFeed(t *testing.T) {
	t.Parallel()

	machine := vm.New()
	ctl := debug.New(machine, nil)
	defer ctl.Close()

	getc := vm.NewInstruction(vm.TRAP, uint16(vm.TrapGETC))
	out := vm.NewInstruction(vm.TRAP, uint16(vm.TrapOUT))
	halt := vm.NewInstruction(vm.TRAP, uint16(vm.TrapHALT))

	obj := assemble(t, 0x3000, getc.Encode(), out.Encode(), halt.Encode())

	if err := ctl.Load(obj); err != nil {
		t.Fatal(err)
	}

	ctl.Run()
	waitFor(t, ctl, debug.WaitingForInput)

	if snap := ctl.Snapshot(); !snap.WaitingForInput {
		t.Fatal("expected waiting for input")
	}

	ctl.FeedInput('A')
	ctl.Run()
	waitFor(t, ctl, debug.Halted)

	if got := string(ctl.Output()); got != "AHALT\n" {
		t.Errorf("output = %q, want %q", got, "AHALT\n")
	}
}

func TestControllerStep(t *testing.T) {
	t.Parallel()

	machine := vm.New()
	ctl := debug.New(machine, nil)
	defer ctl.Close()

	and := vm.NewInstruction(vm.AND, 1<<5)

	obj := assemble(t, 0x3000, and.Encode())
	if err := ctl.Load(obj); err != nil {
		t.Fatal(err)
	}

	if err := ctl.Step(); err != nil {
		t.Fatal(err)
	}

	snap := ctl.Snapshot()
	if snap.PC != 0x3001 {
		t.Errorf("PC = %#x, want 0x3001", snap.PC)
	}
}

func TestControllerPeekMemory(t *testing.T) {
	t.Parallel()

	machine := vm.New()
	ctl := debug.New(machine, nil)
	defer ctl.Close()

	and := vm.NewInstruction(vm.AND, 1<<5)
	halt := vm.NewInstruction(vm.TRAP, uint16(vm.TrapHALT))

	obj := assemble(t, 0x3000, and.Encode(), halt.Encode())
	if err := ctl.Load(obj); err != nil {
		t.Fatal(err)
	}

	word, err := ctl.PeekMemory(0x3001)
	if err != nil {
		t.Fatal(err)
	}

	if word != halt.Encode() {
		t.Errorf("PeekMemory(0x3001) = %#04x, want %#04x", word, halt.Encode())
	}

	// Peeking must not disturb the program counter or halt state.
	if snap := ctl.Snapshot(); snap.PC != 0x3000 || snap.Halted {
		t.Errorf("PeekMemory disturbed machine state: %+v", snap)
	}
}

func TestControllerReset(t *testing.T) {
	t.Parallel()

	machine := vm.New()
	ctl := debug.New(machine, nil)
	defer ctl.Close()

	halt := vm.NewInstruction(vm.TRAP, uint16(vm.TrapHALT))
	obj := assemble(t, 0x3000, halt.Encode())

	if err := ctl.Load(obj); err != nil {
		t.Fatal(err)
	}

	ctl.Run()
	waitFor(t, ctl, debug.Halted)

	ctl.Reset()

	snap := ctl.Snapshot()
	if snap.Halted || snap.PC != uint16(vm.UserSpaceAddr) {
		t.Errorf("reset left snapshot = %+v", snap)
	}
}
