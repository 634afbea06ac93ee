package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/jhollis/lc3sim/internal/log"
)

// Help is both the Commander's fallback and the "help" sub-command: it
// lists every registered sub-command and a one-line description, grounded
// on the teacher's internal/cli/cmd/help.go.
type Help struct {
	Commands []interface {
		Name() string
		Description() string
	}
}

func (Help) Name() string        { return "help" }
func (Help) Description() string { return "show usage" }

func (Help) Usage(out io.Writer) error {
	_, err := fmt.Fprintln(out, "usage: lc3sim <command> [args]")
	return err
}

func (h Help) Run(ctx context.Context, args []string, out io.Writer, logger *log.Logger) int {
	fmt.Fprintln(out, "lc3sim: an LC-3 simulator")
	fmt.Fprintln(out)
	fmt.Fprintln(out, "commands:")

	for _, cmd := range h.Commands {
		fmt.Fprintf(out, "  %-10s %s\n", cmd.Name(), cmd.Description())
	}

	return 0
}
