// Termtest is a testing tool for Unix terminal I/O. Lacking simple PTY support, running this tool
// manually is easier than writing automated tests.
//
// It assembles and runs a tiny program that echoes each key pressed back to the terminal, so a
// developer can confirm raw-mode input and output both work end to end through the debug
// controller and the tty console.
package main

import (
	"context"
	"os"
	"strings"
	"time"

	"github.com/nwatson/lc3/internal/asm"
	"github.com/nwatson/lc3/internal/debug"
	"github.com/nwatson/lc3/internal/log"
	"github.com/nwatson/lc3/internal/tty"
	"github.com/nwatson/lc3/internal/vm"
)

var logger = log.DefaultLogger()

// source reads a key and writes it back out, forever, until halted by the test harness.
const source = `
.ORIG x3000
ECHO   GETC
       OUT
       BR ECHO
       HALT
       .END
`

func main() {
	ctx := context.Background()

	parser := asm.NewParser(logger)
	parser.Parse(strings.NewReader(source))

	if err := parser.Err(); err != nil {
		logger.Error("assemble failed", "err", err)
		os.Exit(1)
	}

	generator := asm.NewGenerator(parser.Symbols(), parser.Syntax())

	obj, err := generator.Generate()
	if err != nil {
		logger.Error("generate failed", "err", err)
		os.Exit(1)
	}

	machine := vm.New()
	ctl := debug.New(machine, logger)
	defer ctl.Close()

	if err := ctl.Load(obj); err != nil {
		logger.Error(err.Error())
		os.Exit(1)
	}

	ctx, _, cancel := tty.ConsoleContext(ctx, ctl)
	defer cancel()

	if err := context.Cause(ctx); err != nil {
		logger.Error("console", "err", err)
		os.Exit(1)
	}

	logger.Info("Polling keyboard for up to 30 seconds. Type keys.")

	ctl.Run()

	select {
	case <-time.After(30 * time.Second):
		cancel()
	case <-ctx.Done():
		if err := context.Cause(ctx); err != nil {
			logger.Error(err.Error())
		} else {
			logger.Info("Done")
		}
	}
}
