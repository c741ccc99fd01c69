/*
Package asm implements a two-pass assembler for the machine.

The assembler translates LC3ASM source into machine code. A first pass scans the source line by
line, building a table of label symbols and their addresses; a second pass resolves those symbols
and encodes each instruction or directive to one or more words of object code.

	LABEL   AND R3,R3,R2
	        AND R1,R1,#-1
	        BRp LABEL

	       .ORIG x3010 ; comment
	IDENT  .FILL xff00
	       .END

See Grammar for a description of the source syntax, Parser for the scanning pass, and Generator
for the code generation pass.

# Bugs

There are ambiguities in the grammar and the code could be a whole lot simpler.
*/
package asm

// Grammar declares the syntax of LC3ASM in EBNF (with some liberties).
var Grammar = (`
program      = { line } ;
line         = ';' comment
             | label ':' [ ';' comment ]
             | label [ ':' ] instruction [ ';' comment ]
             | '.' directive [ ';' comment ]
             | instruction   [ ';' comment ] ;
comment      = { char } ;
directive    = "ORIG" literal
             | "FILL" literal
             | "BLKW" literal
             | "STRINGZ" string
             | "END" ;
ident        = \p{Letter} { identchar } ;
label        = ident ;
instruction  = opcode [ operands ] ;
opcode       = ident ;
operands     = operand { ',' operand } ;
operand      = immediate
             | register
             | indirect ;
immediate    = '#' integer
             | 'x' hex { hex }
             | 'o' octal { octal }
             | 'b' binary { binary } ;
register     = 'R' octal ;
indirect     = '[' ( identifier | literal | register ) ']' ;
binary       = '0' | '1' | '_' ;
octal        = '0' | '1' | '2' | '3' | '4' | '5' | '6' | '7' | '_' ;
decimal      = '0' | '1' | '2' | '3' | '4' | '5' | '6' | '7' | '8' | '9' | '_' ;
hex          = decimal
             | 'a' | 'b' | 'c' | 'd' | 'e' | 'f' | 'A' | 'B' | 'C' | 'D' | 'E' | 'F' ;
integer      = [ '-' ] decimal { decimal } ;
identchar    = \p{Letter}
             | \p{Decimal Digits}
             | \p{Connector Punctuation}
             | \p{Dash Punctuation} ;
`)
