package asm

import (
	"errors"
	"testing"

	"github.com/nwatson/lc3/internal/vm"
)

func TestParseRegister(t *testing.T) {
	t.Parallel()

	if got := parseRegister("r3"); got != "R3" {
		t.Errorf("got %q, want R3", got)
	}

	if got := parseRegister("R9"); got != "" {
		t.Errorf("got %q, want empty", got)
	}
}

func TestParseLiteral(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   string
		bits uint8
		want uint16
	}{
		{"#10", 5, 10},
		{"#-1", 5, 0x1f},
		{"x0a", 9, 0x0a},
		{"o17", 9, 0x0f},
		{"b1010", 9, 0x0a},
		{"7", 5, 7},
	}

	for _, tc := range cases {
		got, err := parseLiteral(tc.in, tc.bits)
		if err != nil {
			t.Errorf("%s: %v", tc.in, err)
			continue
		}

		if got != tc.want {
			t.Errorf("%s: got %#x, want %#x", tc.in, got, tc.want)
		}
	}
}

func TestParseLiteralOutOfRange(t *testing.T) {
	t.Parallel()

	_, err := parseLiteral("#100", 5)
	if !errors.Is(err, ErrLiteral) {
		t.Errorf("err = %v, want ErrLiteral", err)
	}
}

func TestParseImmediateSymbol(t *testing.T) {
	t.Parallel()

	val, sym, err := parseImmediate("LOOP", 9)
	if err != nil {
		t.Fatal(err)
	}

	if sym != "LOOP" || val != 0 {
		t.Errorf("got (%d, %q), want (0, LOOP)", val, sym)
	}
}

func TestFILLParseAndGenerate(t *testing.T) {
	t.Parallel()

	t.Run("literal", func(t *testing.T) {
		t.Parallel()

		fill := &FILL{}
		if err := fill.Parse(".FILL", []string{"#-1"}); err != nil {
			t.Fatal(err)
		}

		words, err := fill.Generate(SymbolTable{}, 0)
		if err != nil {
			t.Fatal(err)
		}

		if words[0] != 0xffff {
			t.Errorf("got %#x, want 0xffff", words[0])
		}
	})

	t.Run("label resolves to absolute address", func(t *testing.T) {
		t.Parallel()

		fill := &FILL{}
		if err := fill.Parse(".FILL", []string{"TARGET"}); err != nil {
			t.Fatal(err)
		}

		symbols := SymbolTable{"TARGET": 0x3005}

		words, err := fill.Generate(symbols, 0x3009)
		if err != nil {
			t.Fatal(err)
		}

		if words[0] != 0x3005 {
			t.Errorf("got %#x, want 0x3005", words[0])
		}
	})

	t.Run("undefined label", func(t *testing.T) {
		t.Parallel()

		fill := &FILL{}
		if err := fill.Parse(".FILL", []string{"MISSING"}); err != nil {
			t.Fatal(err)
		}

		if _, err := fill.Generate(SymbolTable{}, 0); !errors.Is(err, &SymbolError{}) {
			t.Errorf("err = %v, want *SymbolError", err)
		}
	})
}

func TestANDParseAndGenerate(t *testing.T) {
	t.Parallel()

	t.Run("register mode", func(t *testing.T) {
		t.Parallel()

		and := &AND{}
		if err := and.Parse("AND", []string{"R0", "R1", "R2"}); err != nil {
			t.Fatal(err)
		}

		words, err := and.Generate(SymbolTable{}, 0)
		if err != nil {
			t.Fatal(err)
		}

		want := vm.NewInstruction(vm.AND, 0<<9|1<<6|2).Encode()
		if words[0] != want {
			t.Errorf("got %s, want %s", words[0], want)
		}
	})

	t.Run("immediate mode", func(t *testing.T) {
		t.Parallel()

		and := &AND{}
		if err := and.Parse("AND", []string{"R0", "R1", "#0"}); err != nil {
			t.Fatal(err)
		}

		words, err := and.Generate(SymbolTable{}, 0)
		if err != nil {
			t.Fatal(err)
		}

		want := vm.NewInstruction(vm.AND, 0<<9|1<<6|1<<5).Encode()
		if words[0] != want {
			t.Errorf("got %s, want %s", words[0], want)
		}
	})

	t.Run("bad register", func(t *testing.T) {
		t.Parallel()

		and := &AND{}
		if err := and.Parse("AND", []string{"R9", "R1", "R2"}); err != nil {
			t.Fatal(err)
		}

		_, err := and.Generate(SymbolTable{}, 0)

		var regErr *RegisterError
		if !errors.As(err, &regErr) {
			t.Errorf("err = %v, want *RegisterError", err)
		}
	})
}

func TestBRGenerateSymbolic(t *testing.T) {
	t.Parallel()

	br := &BR{}
	if err := br.Parse("BRZ", []string{"LOOP"}); err != nil {
		t.Fatal(err)
	}

	symbols := SymbolTable{"LOOP": 0x3005}

	words, err := br.Generate(symbols, 0x3000)
	if err != nil {
		t.Fatal(err)
	}

	want := vm.NewInstruction(vm.BR, uint16(vm.ConditionZero)<<9)
	want.Operand(5)

	if words[0] != want.Encode() {
		t.Errorf("got %s, want %s", words[0], want.Encode())
	}
}

func TestBRUndefinedSymbol(t *testing.T) {
	t.Parallel()

	br := &BR{}
	if err := br.Parse("BR", []string{"NOWHERE"}); err != nil {
		t.Fatal(err)
	}

	_, err := br.Generate(SymbolTable{}, 0x3000)

	var symErr *SymbolError
	if !errors.As(err, &symErr) {
		t.Errorf("err = %v, want *SymbolError", err)
	}
}

func TestJMPandRET(t *testing.T) {
	t.Parallel()

	ret := &JMP{}
	if err := ret.Parse("RET", nil); err != nil {
		t.Fatal(err)
	}

	words, err := ret.Generate(nil, 0)
	if err != nil {
		t.Fatal(err)
	}

	want := vm.NewInstruction(vm.JMP, 7<<6).Encode()
	if words[0] != want {
		t.Errorf("got %s, want %s", words[0], want)
	}
}

func TestTRAPNamedMnemonics(t *testing.T) {
	t.Parallel()

	trap := &TRAP{}
	if err := trap.Parse("HALT", nil); err != nil {
		t.Fatal(err)
	}

	if trap.VECTOR != uint16(vm.TrapHALT) {
		t.Errorf("vector = %#x, want %#x", trap.VECTOR, vm.TrapHALT)
	}
}

func TestSTRINGZEscapes(t *testing.T) {
	t.Parallel()

	s := &STRINGZ{}
	if err := s.Parse(".STRINGZ", []string{`"hi\n"`}); err != nil {
		t.Fatal(err)
	}

	if s.LITERAL != "hi\n" {
		t.Errorf("literal = %q, want %q", s.LITERAL, "hi\n")
	}

	words, err := s.Generate(nil, 0)
	if err != nil {
		t.Fatal(err)
	}

	if len(words) != 4 || words[3] != 0 {
		t.Errorf("words = %v, want 4 words, NUL terminated", words)
	}
}

func TestBLKWAllocatesZeroWords(t *testing.T) {
	t.Parallel()

	b := &BLKW{}
	if err := b.Parse(".BLKW", []string{"3"}); err != nil {
		t.Fatal(err)
	}

	words, err := b.Generate(nil, 0)
	if err != nil {
		t.Fatal(err)
	}

	if len(words) != 3 {
		t.Fatalf("len = %d, want 3", len(words))
	}

	for _, w := range words {
		if w != 0 {
			t.Errorf("word = %s, want 0", w)
		}
	}
}

func TestRESVIsNotAssemblable(t *testing.T) {
	t.Parallel()

	r := &RESV{}
	if err := r.Parse("RESV", nil); !errors.Is(err, ErrOpcode) {
		t.Errorf("err = %v, want ErrOpcode", err)
	}
}
