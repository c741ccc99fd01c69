package asm

// gen.go implements the code generation pass: given a syntax table and a resolved symbol table, it
// walks the parsed operations in order and encodes each to one or more words of object code.

import (
	"fmt"
	"io"

	"github.com/nwatson/lc3/internal/log"
	"github.com/nwatson/lc3/internal/vm"
)

// Generator drives the code generation pass of the assembler.
type Generator struct {
	pc      vm.Word
	symbols SymbolTable
	syntax  SyntaxTable
	log     *log.Logger
}

// NewGenerator creates a code generator using the given symbol and syntax tables, as produced by a
// Parser.
func NewGenerator(symbols SymbolTable, syntax SyntaxTable) *Generator {
	return &Generator{
		symbols: symbols,
		syntax:  syntax,
		log:     log.DefaultLogger(),
	}
}

// Generate runs the generation pass and returns the assembled object code.
func (gen *Generator) Generate() (vm.ObjectCode, error) {
	var obj vm.ObjectCode

	if len(gen.syntax) == 0 {
		return obj, nil
	}

	orig, ok := unwrap(gen.syntax[0]).(*ORIG)
	if !ok {
		return obj, fmt.Errorf("gen: .ORIG must be the first operation; was: %T", gen.syntax[0])
	}

	gen.pc = vm.Word(orig.LITERAL)
	obj.Orig = gen.pc

	gen.log.Debug("assembling", "orig", gen.pc, "operations", len(gen.syntax))

	for _, op := range gen.syntax {
		if _, ok := unwrap(op).(*ORIG); ok {
			continue
		}

		words, err := op.Generate(gen.symbols, gen.pc+1)
		if err != nil {
			return vm.ObjectCode{}, gen.annotate(op, err)
		}

		obj.Code = append(obj.Code, words...)
		gen.pc += vm.Word(len(words))
	}

	return obj, nil
}

// WriteTo generates object code and writes it, in the machine's binary object-file format, to out.
func (gen *Generator) WriteTo(out io.Writer) (int64, error) {
	obj, err := gen.Generate()
	if err != nil {
		return 0, err
	}

	data, err := obj.Bytes()
	if err != nil {
		return 0, fmt.Errorf("gen: %w", err)
	}

	n, err := out.Write(data)

	return int64(n), err
}

// annotate wraps a code-generation error with the offending operation's source location, if known.
func (gen *Generator) annotate(op Operation, err error) error {
	if src, ok := op.(*SourceInfo); ok {
		return &SyntaxError{
			File: src.Filename,
			Loc:  gen.pc,
			Pos:  src.Pos,
			Line: src.Line,
			Err:  err,
		}
	}

	return fmt.Errorf("gen: %w", err)
}
