/*
Package vm implements the LC-3 virtual machine: a 16-bit fetch-decode-execute CPU simulator.

The design mimics the micro-architecture described in Patt & Patel's Introduction to Computing
Systems. Executing an instruction runs through several discrete stages, just as it would on the
reference hardware: fetch, decode, evaluate address, fetch operands, execute, and store result. Most
instructions implement only the stages their semantics require.

# CPU #

The machine's CPU is simple. It has just:

  - a program counter and an instruction register
  - eight general-purpose registers
  - a 3-bit condition code (negative, zero, positive)
  - a memory controller

There is no privilege model, interrupt controller, or supervisor stack: every program runs with full
access to the 64 Ki word address space.

# Memory #

Memory is a flat array of 65,536 16-bit words. The top of the address space, the I/O page, is
memory-mapped to device registers rather than backed by storage cells.

	+========+========+===================+
	|        | 0xffff |                   |
	|        |        |  Memory-mapped    |
	|        |   ...  |     I/O page      |
	|        | 0xfe00 |  (keyboard, etc)  |
	+========+========+===================+
	|        | 0xfdff |                   |
	|        |        |                   |
	|        |   ...  |    User memory    |
	|        |        |   (code + data)   |
	|        | 0x3000 |                   |
	+========+========+===================+
	|        | 0x2fff |                   |
	|        |   ...  |   System space    |
	|        |        |                   |
	|        | 0x0000 |                   |
	+========+========+===================+

# Data Flow #

The memory controller translates a logical address into a read or write of a register, a memory
cell, or a device, via the address register (MAR) and data register (MDR): the CPU puts an address
into MAR and calls Fetch or Store; the controller reads into MDR or writes from it, respectively.
This indirection lets the same load/store instructions address RAM and devices uniformly.

# I/O #

The keyboard is a polled, memory-mapped device at 0xFE00 (status) and 0xFE02 (data). A program spins
on the status register's ready bit before reading the data register. Output is modeled as a byte
stream rather than a mapped display register: TRAP service routines append to it directly.
*/
package vm
