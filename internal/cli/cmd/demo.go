package cmd

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/nwatson/lc3/internal/asm"
	"github.com/nwatson/lc3/internal/cli"
	"github.com/nwatson/lc3/internal/log"
	"github.com/nwatson/lc3/internal/vm"
)

// Demo is a demonstration command. It assembles and runs a small built-in program that greets the
// terminal, to exercise the assembler and machine together without any files on disk.
func Demo() cli.Command {
	return new(demo)
}

type demo struct {
	debug bool
	quiet bool
}

func (demo) Description() string {
	return "run demo program"
}

func (d demo) Usage(out io.Writer) error {
	var err error
	_, err = fmt.Fprintln(out, `
demo [ -debug | -quiet ]

Assemble and run a demonstration program while displaying VM state.`)

	return err
}

func (d *demo) FlagSet() *cli.FlagSet {
	fs := flag.NewFlagSet("demo", flag.ExitOnError)

	fs.BoolVar(&d.debug, "debug", false, "enable debug logging")
	fs.BoolVar(&d.quiet, "quiet", false, "enable quiet output, machine display only")

	return fs
}

// source is assembled fresh on every run of the demo, rather than shipped as a prebuilt object
// file, so that the command exercises both the assembler and the machine.
const source = `
.ORIG x3000
       LEA R0,GREETING
       PUTS
       HALT
GREETING .STRINGZ "Hello, LC-3!\n"
       .END
`

func (d demo) Run(ctx context.Context, args []string, out io.Writer, _ *log.Logger) int {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if d.quiet {
		log.LogLevel.Set(log.Error)
	}

	if d.debug {
		log.LogLevel.Set(log.Debug)
	}

	logger := log.NewFormattedLogger(os.Stdout)
	log.SetDefault(logger)
	log.DefaultLogger = func() *log.Logger {
		return logger
	}

	logger.Info("Assembling demo program")

	parser := asm.NewParser(logger)
	parser.Parse(strings.NewReader(source))

	if err := parser.Err(); err != nil {
		logger.Error("assemble failed", "err", err)
		return 2
	}

	generator := asm.NewGenerator(parser.Symbols(), parser.Syntax())

	obj, err := generator.Generate()
	if err != nil {
		logger.Error("generate failed", "err", err)
		return 2
	}

	logger.Info("Initializing machine")

	machine := vm.New()
	loader := vm.NewLoader(machine)

	if _, err := loader.Load(obj); err != nil {
		logger.Error("error loading code", "err", err)
		return 2
	}

	logger.Info("Starting machine")

	for !machine.Halted {
		select {
		case <-ctx.Done():
			logger.Warn("Demo timeout")
			return 0
		default:
		}

		if err := machine.Step(); err != nil {
			if errors.Is(err, vm.ErrHalted) {
				break
			}

			logger.Error("step failed", "err", err)
			return 2
		}

		if buf := machine.Output(); len(buf) > 0 {
			fmt.Fprint(out, string(buf))
		}
	}

	logger.Info("Demo completed")

	return 0
}
