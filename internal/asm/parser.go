package asm

// parser.go implements the scanning pass of the assembler: source is read line by line, building
// a symbol table of label addresses and a syntax table of parsed operations. The second pass,
// resolving symbols and encoding machine code, is implemented by Generator in gen.go.

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/nwatson/lc3/internal/log"
	"github.com/nwatson/lc3/internal/vm"
)

// Parser scans LC3ASM source, line by line, and builds a symbol table and a syntax table ready
// for code generation.
type Parser struct {
	log *log.Logger

	symbols SymbolTable
	syntax  SyntaxTable

	filename string
	pc       vm.Word
	lineNo   uint16
	sawOrig  bool

	err error
}

// NewParser creates a parser that logs to the given logger.
func NewParser(logger *log.Logger) *Parser {
	if logger == nil {
		logger = log.DefaultLogger()
	}

	return &Parser{
		log:     logger,
		symbols: make(SymbolTable),
		syntax:  make(SyntaxTable, 0, 64),
	}
}

// Symbols returns the symbol table built during the scan.
func (p *Parser) Symbols() SymbolTable { return p.symbols }

// Syntax returns the syntax table built during the scan.
func (p *Parser) Syntax() SyntaxTable { return p.syntax }

// Err returns the first error encountered while scanning, if any.
func (p *Parser) Err() error { return p.err }

// Parse scans all of in, line by line, stopping at the first error.
func (p *Parser) Parse(in io.Reader) {
	scanner := bufio.NewScanner(in)

	for scanner.Scan() && p.err == nil {
		p.lineNo++
		p.line(scanner.Text())
	}

	if err := scanner.Err(); err != nil && p.err == nil {
		p.err = fmt.Errorf("asm: read: %w", err)
	}
}

// line scans a single line of source, updating the symbol and syntax tables.
func (p *Parser) line(raw string) {
	text := stripComment(raw)
	text = strings.TrimSpace(text)

	if text == "" {
		return
	}

	label, rest := splitLabel(text)

	if label != "" {
		if err := p.symbols.Add(label, p.pc); err != nil {
			p.fail(raw, err)
			return
		}
	}

	if rest == "" {
		return
	}

	opcode, operands := splitOperation(rest)

	ctor, ok := operators[strings.ToUpper(opcode)]
	if !ok {
		p.fail(raw, fmt.Errorf("%w: %s", ErrOpcode, opcode))
		return
	}

	op := ctor()

	if err := op.Parse(strings.ToUpper(opcode), operands); err != nil {
		p.fail(raw, err)
		return
	}

	wrapped := &SourceInfo{Filename: p.filename, Pos: p.lineNo, Line: raw, Operation: op}

	if orig, ok := op.(*ORIG); ok {
		if p.sawOrig {
			p.fail(raw, fmt.Errorf("%w: .ORIG may only appear once", ErrOpcode))
			return
		}

		p.sawOrig = true
		p.pc = vm.Word(orig.LITERAL)
		p.syntax.Add(wrapped)

		return
	}

	p.syntax.Add(wrapped)
	p.pc += vm.Word(wordLen(op))
}

// fail records the first parse error, wrapping it with source location.
func (p *Parser) fail(line string, err error) {
	p.err = &SyntaxError{
		File: p.filename,
		Loc:  p.pc,
		Pos:  p.lineNo,
		Line: line,
		Err:  err,
	}
}

// wordLen returns the number of words an operation occupies in the object file.
func wordLen(op Operation) int {
	switch o := unwrap(op).(type) {
	case *BLKW:
		return int(o.ALLOC)
	case *STRINGZ:
		return len(o.LITERAL) + 1
	case *END:
		return 0
	default:
		return 1
	}
}

// stripComment returns line with any trailing ';' comment removed. Semicolons inside a
// double-quoted string (as in .STRINGZ) are not treated as comment markers.
func stripComment(line string) string {
	inQuote := false

	for i := 0; i < len(line); i++ {
		switch line[i] {
		case '"':
			inQuote = !inQuote
		case ';':
			if !inQuote {
				return line[:i]
			}
		}
	}

	return line
}

// splitLabel splits a line of source into an optional leading label and the remaining text. A
// label is either explicitly colon-terminated, or is simply the first word of the line when that
// word does not name a known opcode or directive.
func splitLabel(text string) (label, rest string) {
	word, remainder := splitField(text)

	if strings.HasSuffix(word, ":") {
		return strings.TrimSuffix(word, ":"), strings.TrimSpace(remainder)
	}

	if _, ok := operators[strings.ToUpper(word)]; ok {
		return "", text
	}

	return word, strings.TrimSpace(remainder)
}

// splitOperation splits the instruction part of a line into its opcode and operand strings.
func splitOperation(text string) (opcode string, operands []string) {
	opcode, rest := splitField(text)
	rest = strings.TrimSpace(rest)

	if rest == "" {
		return opcode, nil
	}

	if strings.EqualFold(opcode, ".STRINGZ") {
		return opcode, []string{rest}
	}

	for _, oper := range strings.Split(rest, ",") {
		operands = append(operands, strings.TrimSpace(oper))
	}

	return opcode, operands
}

// splitField splits text on its first run of whitespace, returning the leading field and
// whatever follows.
func splitField(text string) (field, rest string) {
	i := strings.IndexAny(text, " \t")
	if i < 0 {
		return text, ""
	}

	return text[:i], text[i+1:]
}
