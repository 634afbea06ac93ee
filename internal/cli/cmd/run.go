package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	getopt "github.com/pborman/getopt/v2"

	"github.com/jhollis/lc3sim/internal/ioline"
	"github.com/jhollis/lc3sim/internal/log"
	"github.com/jhollis/lc3sim/internal/objcode"
	"github.com/jhollis/lc3sim/internal/sim"
)

// Run is the "run" sub-command: load an object file and execute it to
// completion, wiring the keyboard and display devices to the controlling
// terminal or, with -b, to an in-memory channel useful for scripting.
type Run struct{}

func (Run) Name() string        { return "run" }
func (Run) Description() string { return "load and run an object file" }

func (Run) Usage(out io.Writer) error {
	_, err := fmt.Fprintln(out, "usage: lc3sim run [-b] object-file")
	return err
}

func (c Run) Run(ctx context.Context, args []string, out io.Writer, logger *log.Logger) int {
	set := getopt.New()
	optBuffered := set.BoolLong("buffered", 'b', "use an in-memory I/O channel instead of the terminal")
	optHelp := set.BoolLong("help", 'h', "show usage")

	set.Parse(args)

	if *optHelp {
		set.Usage()
		return 0
	}

	rest := set.Args()
	if len(rest) < 1 {
		c.Usage(out)
		return 2
	}

	f, err := os.Open(rest[0])
	if err != nil {
		fmt.Fprintln(out, "run:", err)
		return 1
	}
	defer f.Close()

	prog, err := objcode.Read(f)
	if err != nil {
		fmt.Fprintln(out, "run:", err)
		return 1
	}

	s := sim.New(sim.WithLogger(logger))
	s.LoadProgram(prog)

	var channel ioline.Channel

	if *optBuffered {
		channel = ioline.NewBuffered(nil)
	} else {
		console, err := ioline.NewConsole(os.Stdin, os.Stdout)
		if err != nil {
			fmt.Fprintln(out, "run:", err)
			return 1
		}

		defer console.End()
		channel = console
	}

	if err := channel.Start(); err != nil {
		fmt.Fprintln(out, "run:", err)
		return 1
	}

	wireIO(s, channel)

	if err := s.Run(); err != nil {
		fmt.Fprintln(out, "run:", err)
		return 1
	}

	return 0
}
