package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/jhollis/lc3sim/internal/log"
)

// Version is printed by the "version" sub-command and overridden at build
// time via -ldflags, matching the teacher's convention for stamping a
// build version into the binary.
var Version = "dev"

// VersionCmd is the "version" sub-command.
type VersionCmd struct{}

func (VersionCmd) Name() string        { return "version" }
func (VersionCmd) Description() string { return "print the build version" }

func (VersionCmd) Usage(out io.Writer) error {
	_, err := fmt.Fprintln(out, "usage: lc3sim version")
	return err
}

func (VersionCmd) Run(ctx context.Context, args []string, out io.Writer, logger *log.Logger) int {
	fmt.Fprintln(out, "lc3sim", Version)
	return 0
}
