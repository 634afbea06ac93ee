// lc3sim is an LC-3 educational computer simulator.
package main

import (
	"context"
	"os"

	"github.com/jhollis/lc3sim/internal/cli"
	"github.com/jhollis/lc3sim/internal/cli/cmd"
	"github.com/jhollis/lc3sim/internal/log"
)

func main() {
	commands := []cli.Command{
		cmd.Run{},
		cmd.Debug{},
		cmd.VersionCmd{},
	}

	help := cmd.Help{Commands: namedCommands(commands)}

	commander := cli.New(context.Background()).
		WithLogger(log.DefaultLogger()).
		WithCommands(append(commands, help)).
		WithHelp(help)

	os.Exit(commander.Execute(os.Args[1:]))
}

func namedCommands(cmds []cli.Command) []interface {
	Name() string
	Description() string
} {
	named := make([]interface {
		Name() string
		Description() string
	}, len(cmds))

	for i, c := range cmds {
		named[i] = c
	}

	return named
}
