// Package cli contains the command-line interface: a small set of
// sub-commands dispatched by name, grounded on the teacher's
// internal/cli.Command/Commander pattern.
//
// Unlike the teacher, whose commands parse their own arguments with the
// standard library's flag.FlagSet, the run and debug sub-commands here
// parse with github.com/pborman/getopt/v2's per-instance option sets
// (getopt.New()), lifted from rcornwell-S370/main.go's top-level getopt
// usage, so the CLI exercises a second flag-parsing dependency from the
// retrieved example pack instead of only the standard library.
package cli

import (
	"context"
	"io"
	"os"

	"github.com/jhollis/lc3sim/internal/log"
)

// Command is a named sub-command.
type Command interface {
	// Name returns the sub-command's name, as typed on the command line.
	Name() string
	// Description returns a brief, one-line summary for the help command.
	Description() string
	// Usage prints detailed documentation for the sub-command.
	Usage(out io.Writer) error
	// Run executes the command with its un-consumed arguments (the
	// program name and sub-command name already sliced off). It returns
	// a process exit code.
	Run(ctx context.Context, args []string, out io.Writer, logger *log.Logger) int
}

// Commander dispatches to a Command by name.
type Commander struct {
	ctx context.Context
	log *log.Logger

	help     Command
	commands []Command
}

// New creates a Commander bound to ctx.
func New(ctx context.Context) *Commander {
	return &Commander{ctx: ctx, log: log.DefaultLogger()}
}

// WithCommands registers the Commander's sub-commands.
func (c *Commander) WithCommands(cmds []Command) *Commander {
	c.commands = append([]Command(nil), cmds...)
	return c
}

// WithHelp sets the command run when no sub-command is given or the given
// one is not found.
func (c *Commander) WithHelp(cmd Command) *Commander {
	c.help = cmd
	return c
}

// WithLogger overrides the Commander's logger, used by every sub-command.
func (c *Commander) WithLogger(l *log.Logger) *Commander {
	c.log = l
	log.SetDefault(l)

	return c
}

// Execute finds and runs the sub-command named by args[0], or the help
// command if args is empty or names no known sub-command.
func (c *Commander) Execute(args []string) int {
	if len(args) == 0 {
		return c.help.Run(c.ctx, nil, os.Stdout, c.log)
	}

	found := c.help

	for _, cmd := range c.commands {
		if cmd.Name() == args[0] {
			found = cmd
			break
		}
	}

	return found.Run(c.ctx, args[1:], os.Stdout, c.log)
}
