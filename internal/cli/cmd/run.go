package cmd

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/nwatson/lc3/internal/cli"
	"github.com/nwatson/lc3/internal/debug"
	"github.com/nwatson/lc3/internal/log"
	"github.com/nwatson/lc3/internal/tty"
	"github.com/nwatson/lc3/internal/vm"
)

// Run is the command that loads an object file and runs it to completion on the terminal
// front-end, honoring any breakpoints given with -break.
//
//	lc3 run -break x3010 program.obj
func Run() cli.Command {
	return new(runner)
}

type runner struct {
	breaks breakpointFlag
}

// breakpointFlag accumulates one or more -break ADDR flags, each an LC-3 literal (x3000, #12288,
// o30000, or a bare decimal number).
type breakpointFlag []uint16

func (b *breakpointFlag) String() string {
	if b == nil {
		return ""
	}

	parts := make([]string, len(*b))
	for i, addr := range *b {
		parts[i] = fmt.Sprintf("%#x", addr)
	}

	return strings.Join(parts, ",")
}

func (b *breakpointFlag) Set(s string) error {
	addr, err := parseAddr(s)
	if err != nil {
		return err
	}

	*b = append(*b, addr)

	return nil
}

func parseAddr(s string) (uint16, error) {
	s = strings.TrimPrefix(s, "#")

	base := 10

	switch {
	case strings.HasPrefix(s, "x") || strings.HasPrefix(s, "X"):
		s, base = s[1:], 16
	case strings.HasPrefix(s, "o") || strings.HasPrefix(s, "O"):
		s, base = s[1:], 8
	case strings.HasPrefix(s, "b") || strings.HasPrefix(s, "B"):
		s, base = s[1:], 2
	}

	val, err := strconv.ParseUint(s, base, 16)
	if err != nil {
		return 0, fmt.Errorf("run: bad breakpoint address %q: %w", s, err)
	}

	return uint16(val), nil
}

func (runner) Description() string {
	return "run an object file to completion"
}

func (runner) Usage(out io.Writer) error {
	var err error
	_, err = fmt.Fprintln(out, `run [-break ADDR]... file.obj

Load and run an object file on the terminal front-end.`)

	return err
}

func (r *runner) FlagSet() *cli.FlagSet {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	fs.Var(&r.breaks, "break", "add a breakpoint `address` (may be repeated)")

	return fs
}

func (r *runner) Run(ctx context.Context, args []string, _ io.Writer, logger *log.Logger) int {
	if len(args) == 0 {
		logger.Error("run: missing object file")
		return 1
	}

	data, err := os.ReadFile(args[0])
	if err != nil {
		logger.Error("run: cannot read object file", "err", err)
		return 1
	}

	obj, err := vm.ReadObjectCode(data)
	if err != nil {
		logger.Error("run: bad object file", "err", err)
		return 1
	}

	machine := vm.New()
	ctl := debug.New(machine, logger)
	defer ctl.Close()

	if err := ctl.Load(obj); err != nil {
		logger.Error("run: load failed", "err", err)
		return 1
	}

	for _, addr := range r.breaks {
		ctl.AddBreakpoint(addr)
	}

	ctx, _, cancel := tty.ConsoleContext(ctx, ctl)
	defer cancel()

	if err := context.Cause(ctx); errors.Is(err, tty.ErrNoTTY) {
		logger.Error("run: stdin is not a terminal", "err", err)
		return 1
	}

	ctl.Run()

	<-ctx.Done()

	if err := context.Cause(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("run: terminated", "err", err)
		return 1
	}

	return 0
}
