package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	getopt "github.com/pborman/getopt/v2"

	"github.com/jhollis/lc3sim/internal/debugger"
	"github.com/jhollis/lc3sim/internal/ioline"
	"github.com/jhollis/lc3sim/internal/log"
	"github.com/jhollis/lc3sim/internal/objcode"
	"github.com/jhollis/lc3sim/internal/sim"
)

// Debug is the "debug" sub-command: start the interactive REPL described
// in spec.md §6, optionally pre-loading an object file.
type Debug struct{}

func (Debug) Name() string        { return "debug" }
func (Debug) Description() string { return "start the interactive debugger" }

func (Debug) Usage(out io.Writer) error {
	_, err := fmt.Fprintln(out, "usage: lc3sim debug [object-file]")
	return err
}

func (c Debug) Run(ctx context.Context, args []string, out io.Writer, logger *log.Logger) int {
	set := getopt.New()
	optHelp := set.BoolLong("help", 'h', "show usage")

	set.Parse(args)

	if *optHelp {
		set.Usage()
		return 0
	}

	s := sim.New(sim.WithLogger(logger))

	channel := ioline.NewBuffered(nil)
	wireIO(s, channel)

	rest := set.Args()
	if len(rest) > 0 {
		f, err := os.Open(rest[0])
		if err != nil {
			fmt.Fprintln(out, "debug:", err)
			return 1
		}

		prog, err := objcode.Read(f)
		f.Close()

		if err != nil {
			fmt.Fprintln(out, "debug:", err)
			return 1
		}

		s.LoadProgram(prog)
	}

	d := debugger.New(s, out)

	if err := d.Run(); err != nil {
		fmt.Fprintln(out, "debug:", err)
		return 1
	}

	return 0
}
