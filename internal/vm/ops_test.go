package vm

import (
	"errors"
	"testing"
)

// load stores a single instruction at the machine's PC; the caller steps it.
func load(t *testing.T, m *LC3, instr Instruction) {
	t.Helper()

	if err := m.Mem.Write(Word(m.PC), instr.Encode()); err != nil {
		t.Fatalf("write instruction: %v", err)
	}
}

func TestADD(t *testing.T) {
	t.Parallel()

	t.Run("register mode", func(t *testing.T) {
		t.Parallel()

		m := New()
		m.REG[R1] = 2
		m.REG[R2] = 40

		load(t, m, NewInstruction(ADD, uint16(R0)<<9|uint16(R1)<<6|uint16(R2)))

		if err := m.Step(); err != nil {
			t.Fatal(err)
		}

		if m.REG[R0] != 42 {
			t.Errorf("R0 = %d, want 42", m.REG[R0])
		}

		if !m.COND.Positive() {
			t.Errorf("COND = %s, want P", m.COND)
		}
	})

	t.Run("immediate mode, negative result", func(t *testing.T) {
		t.Parallel()

		m := New()
		m.REG[R1] = 1

		// ADD R0, R1, #-2
		lit := uint16(0b11110) & 0x1f
		load(t, m, NewInstruction(ADD, uint16(R0)<<9|uint16(R1)<<6|1<<5|lit))

		if err := m.Step(); err != nil {
			t.Fatal(err)
		}

		if int16(m.REG[R0]) != -1 {
			t.Errorf("R0 = %d, want -1", int16(m.REG[R0]))
		}

		if !m.COND.Negative() {
			t.Errorf("COND = %s, want N", m.COND)
		}
	})
}

func TestANDZeroResult(t *testing.T) {
	t.Parallel()

	m := New()
	m.REG[R1] = 0x00ff

	// AND R0, R1, #0
	load(t, m, NewInstruction(AND, uint16(R0)<<9|uint16(R1)<<6|1<<5))

	if err := m.Step(); err != nil {
		t.Fatal(err)
	}

	if m.REG[R0] != 0 {
		t.Errorf("R0 = %d, want 0", m.REG[R0])
	}

	if !m.COND.Zero() {
		t.Errorf("COND = %s, want Z", m.COND)
	}
}

func TestNOT(t *testing.T) {
	t.Parallel()

	m := New()
	m.REG[R1] = 0x0000

	load(t, m, NewInstruction(NOT, uint16(R0)<<9|uint16(R1)<<6|0x3f))

	if err := m.Step(); err != nil {
		t.Fatal(err)
	}

	if m.REG[R0] != 0xffff {
		t.Errorf("R0 = %#x, want 0xffff", m.REG[R0])
	}
}

func TestBR(t *testing.T) {
	t.Parallel()

	t.Run("taken", func(t *testing.T) {
		t.Parallel()

		m := New()
		m.COND = ConditionZero
		start := m.PC

		load(t, m, NewInstruction(BR, uint16(ConditionZero)<<9|0x05))

		if err := m.Step(); err != nil {
			t.Fatal(err)
		}

		if m.PC != start+1+5 {
			t.Errorf("PC = %s, want %s", m.PC, start+1+5)
		}
	})

	t.Run("not taken", func(t *testing.T) {
		t.Parallel()

		m := New()
		m.COND = ConditionPositive
		start := m.PC

		load(t, m, NewInstruction(BR, uint16(ConditionZero)<<9|0x05))

		if err := m.Step(); err != nil {
			t.Fatal(err)
		}

		if m.PC != start+1 {
			t.Errorf("PC = %s, want %s", m.PC, start+1)
		}
	})

	t.Run("default BRnzp always taken", func(t *testing.T) {
		t.Parallel()

		m := New()
		m.COND = ConditionPositive
		start := m.PC
		nzp := uint16(ConditionNegative | ConditionZero | ConditionPositive)

		load(t, m, NewInstruction(BR, nzp<<9|0x01))

		if err := m.Step(); err != nil {
			t.Fatal(err)
		}

		if m.PC != start+1+1 {
			t.Errorf("PC = %s, want %s", m.PC, start+1+1)
		}
	})
}

func TestLDandST(t *testing.T) {
	t.Parallel()

	m := New()
	start := m.PC

	// ST R0, #2 ; then LD R1, #1 (reading the word just stored).
	m.REG[R0] = 0x1234

	load(t, m, NewInstruction(ST, uint16(R0)<<9|0x02))

	if err := m.Step(); err != nil {
		t.Fatal(err)
	}

	stored, err := m.Mem.Read(Word(start) + 1 + 2)
	if err != nil {
		t.Fatal(err)
	}

	if stored != 0x1234 {
		t.Errorf("stored = %#x, want 0x1234", stored)
	}

	load(t, m, NewInstruction(LD, uint16(R1)<<9|0x01))

	if err := m.Step(); err != nil {
		t.Fatal(err)
	}

	if m.REG[R1] != 0x1234 {
		t.Errorf("R1 = %#x, want 0x1234", m.REG[R1])
	}
}

func TestLDIandSTI(t *testing.T) {
	t.Parallel()

	m := New()
	ptrAddr := Word(m.PC) + 1 + 2
	dataAddr := Word(0x4000)

	_ = m.Mem.Write(ptrAddr, dataAddr)
	_ = m.Mem.Write(dataAddr, 0x5555)

	load(t, m, NewInstruction(LDI, uint16(R0)<<9|0x02))

	if err := m.Step(); err != nil {
		t.Fatal(err)
	}

	if m.REG[R0] != 0x5555 {
		t.Errorf("R0 = %#x, want 0x5555", m.REG[R0])
	}

	m.REG[R1] = 0x7777
	load(t, m, NewInstruction(STI, uint16(R1)<<9|0x01))

	if err := m.Step(); err != nil {
		t.Fatal(err)
	}

	got, err := m.Mem.Read(dataAddr)
	if err != nil {
		t.Fatal(err)
	}

	if got != 0x7777 {
		t.Errorf("stored = %#x, want 0x7777", got)
	}
}

func TestLDRandSTR(t *testing.T) {
	t.Parallel()

	m := New()
	m.REG[R1] = 0x4000

	_ = m.Mem.Write(0x4003, 0x2222)

	load(t, m, NewInstruction(LDR, uint16(R0)<<9|uint16(R1)<<6|0x03))

	if err := m.Step(); err != nil {
		t.Fatal(err)
	}

	if m.REG[R0] != 0x2222 {
		t.Errorf("R0 = %#x, want 0x2222", m.REG[R0])
	}

	m.REG[R0] = 0x4444
	load(t, m, NewInstruction(STR, uint16(R0)<<9|uint16(R1)<<6|0x04))

	if err := m.Step(); err != nil {
		t.Fatal(err)
	}

	got, err := m.Mem.Read(0x4004)
	if err != nil {
		t.Fatal(err)
	}

	if got != 0x4444 {
		t.Errorf("stored = %#x, want 0x4444", got)
	}
}

func TestLEA(t *testing.T) {
	t.Parallel()

	m := New()
	start := m.PC

	load(t, m, NewInstruction(LEA, uint16(R0)<<9|0x03))

	if err := m.Step(); err != nil {
		t.Fatal(err)
	}

	if m.REG[R0] != Register(start+1+3) {
		t.Errorf("R0 = %s, want %s", m.REG[R0], start+1+3)
	}
}

func TestJMPandRET(t *testing.T) {
	t.Parallel()

	m := New()
	m.REG[R3] = 0x5000

	load(t, m, NewInstruction(JMP, uint16(R3)<<6))

	if err := m.Step(); err != nil {
		t.Fatal(err)
	}

	if m.PC != 0x5000 {
		t.Errorf("PC = %s, want 0x5000", m.PC)
	}
}

func TestJSRandJSRR(t *testing.T) {
	t.Parallel()

	t.Run("JSR", func(t *testing.T) {
		t.Parallel()

		m := New()
		start := m.PC

		load(t, m, NewInstruction(JSR, 1<<11|0x010))

		if err := m.Step(); err != nil {
			t.Fatal(err)
		}

		if m.REG[RET] != Register(start+1) {
			t.Errorf("R7 = %s, want %s", m.REG[RET], start+1)
		}

		if m.PC != start+1+0x010 {
			t.Errorf("PC = %s, want %s", m.PC, start+1+0x010)
		}
	})

	t.Run("JSRR", func(t *testing.T) {
		t.Parallel()

		m := New()
		m.REG[R2] = 0x6000
		start := m.PC

		load(t, m, NewInstruction(JSR, uint16(R2)<<6))

		if err := m.Step(); err != nil {
			t.Fatal(err)
		}

		if m.REG[RET] != Register(start+1) {
			t.Errorf("R7 = %s, want %s", m.REG[RET], start+1)
		}

		if m.PC != 0x6000 {
			t.Errorf("PC = %s, want 0x6000", m.PC)
		}
	})
}

func TestTrapHALT(t *testing.T) {
	t.Parallel()

	m := New()
	load(t, m, NewInstruction(TRAP, uint16(TrapHALT)))

	if err := m.Step(); err != nil {
		t.Fatal(err)
	}

	if !m.Halted {
		t.Error("HALT should set Halted")
	}

	if got := string(m.Output()); got != "HALT\n" {
		t.Errorf("output = %q, want %q", got, "HALT\n")
	}
}

func TestTrapOUT(t *testing.T) {
	t.Parallel()

	m := New()
	m.REG[R0] = Register('A')

	load(t, m, NewInstruction(TRAP, uint16(TrapOUT)))

	if err := m.Step(); err != nil {
		t.Fatal(err)
	}

	if got := string(m.Output()); got != "A" {
		t.Errorf("output = %q, want %q", got, "A")
	}
}

func TestTrapPUTS(t *testing.T) {
	t.Parallel()

	m := New()
	addr := Word(0x4000)

	for i, c := range "hi" {
		_ = m.Mem.Write(addr+Word(i), Word(c))
	}

	_ = m.Mem.Write(addr+2, 0)
	m.REG[R0] = Register(addr)

	load(t, m, NewInstruction(TRAP, uint16(TrapPUTS)))

	if err := m.Step(); err != nil {
		t.Fatal(err)
	}

	if got := string(m.Output()); got != "hi" {
		t.Errorf("output = %q, want %q", got, "hi")
	}
}

func TestTrapGETCWaitsForInput(t *testing.T) {
	t.Parallel()

	m := New()
	start := m.PC

	load(t, m, NewInstruction(TRAP, uint16(TrapGETC)))

	if err := m.Step(); err != nil {
		t.Fatal(err)
	}

	if !m.WaitingForInput {
		t.Fatal("expected WaitingForInput to be set")
	}

	if m.PC != start {
		t.Errorf("PC = %s, want %s (should retry the TRAP)", m.PC, start)
	}

	m.Feed('q')

	if m.WaitingForInput {
		t.Fatal("Feed should clear WaitingForInput")
	}

	if err := m.Step(); err != nil {
		t.Fatal(err)
	}

	if m.REG[R0] != Register('q') {
		t.Errorf("R0 = %q, want 'q'", rune(m.REG[R0]))
	}
}

func TestRESVandRTIAreIllegal(t *testing.T) {
	t.Parallel()

	t.Run("RESV", func(t *testing.T) {
		t.Parallel()

		m := New()
		load(t, m, NewInstruction(RESV, 0))

		if err := m.Step(); !errors.Is(err, ErrIllegalOpcode) {
			t.Errorf("err = %v, want ErrIllegalOpcode", err)
		}
	})

	t.Run("RTI", func(t *testing.T) {
		t.Parallel()

		m := New()
		load(t, m, NewInstruction(RTI, 0))

		if err := m.Step(); !errors.Is(err, ErrIllegalOpcode) {
			t.Errorf("err = %v, want ErrIllegalOpcode", err)
		}
	})
}
