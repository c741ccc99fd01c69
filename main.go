// lc3 is the command-line interface to an LC-3 simulator and tool suite.
package main

import (
	"context"
	"os"

	"github.com/nwatson/lc3/internal/cli"
	"github.com/nwatson/lc3/internal/cli/cmd"
)

var (
	commands = []cli.Command{
		cmd.Assembler(),
		cmd.Run(),
		cmd.Demo(),
	}
)

// Entry point.
func main() {
	result :=
		cli.New(context.Background()).
			WithLogger(os.Stderr).
			WithCommands(commands).
			WithHelp(cmd.Help(commands)).
			Execute(os.Args[1:])

	os.Exit(result)
}
