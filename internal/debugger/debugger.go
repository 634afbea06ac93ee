// Package debugger implements the interactive REPL described in spec.md
// §6: help, run, step [n], mem read/write, reg read/write, load, quit.
//
// It is an external collaborator, not part of the simulator core: nothing
// under internal/sim, internal/cpu, internal/bus, or internal/intr imports
// it. Line editing and history are delegated to github.com/peterh/liner,
// grounded on rcornwell-S370/command/reader's ConsoleReader, which wraps
// the same library the same way: a liner.Liner wrapping stdin/stdout, a
// completer, and a command dispatch function called per line.
package debugger

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/peterh/liner"

	"github.com/jhollis/lc3sim/internal/encoding"
	"github.com/jhollis/lc3sim/internal/objcode"
	"github.com/jhollis/lc3sim/internal/sim"
	"github.com/jhollis/lc3sim/internal/word"
)

// Machine is the subset of *sim.Simulator the debugger drives.
type Machine interface {
	Step() error
	Run() error
	ReadAddress(addr uint32) sim.AddressResult
	WriteAddress(addr uint32, val word.Word) error
	ReadRegister(r word.Register) word.Word
	WriteRegister(r word.Register, val word.Word)
	PC() word.Word
	SetPC(val word.Word)
	PSR() word.Word
	SetPSR(val word.Word)
	USP() word.Word
	SetUSP(val word.Word)
	SSP() word.Word
	SetSSP(val word.Word)
	LoadProgram(oc objcode.ObjectCode)
}

var _ Machine = (*sim.Simulator)(nil)

// Debugger runs the REPL against a Machine.
type Debugger struct {
	machine Machine
	out     io.Writer
	open    func(path string) (io.ReadCloser, error)
}

// New creates a Debugger over machine, writing command output to out.
func New(machine Machine, out io.Writer) *Debugger {
	return &Debugger{
		machine: machine,
		out:     out,
		open:    defaultOpen,
	}
}

// commandNames lists the command words offered by tab completion; dispatch
// selects each command's handler with a switch on the same words.
var commandNames = []string{"help", "run", "step", "mem", "reg", "load", "quit"}

// Run starts the liner-backed REPL loop. It returns when the user quits or
// the input stream ends.
func (d *Debugger) Run() error {
	line := liner.NewLiner()
	defer line.Close()

	line.SetCtrlCAborts(true)
	line.SetCompleter(func(partial string) []string {
		var matches []string

		for _, name := range commandNames {
			if strings.HasPrefix(name, partial) {
				matches = append(matches, name)
			}
		}

		return matches
	})

	for {
		input, err := line.Prompt("lc3sim> ")
		if errors.Is(err, liner.ErrPromptAborted) || errors.Is(err, io.EOF) {
			return nil
		} else if err != nil {
			return err
		}

		line.AppendHistory(input)

		quit, err := d.dispatch(input)
		if err != nil {
			fmt.Fprintln(d.out, "error:", err)
		}

		if quit {
			return nil
		}
	}
}

func (d *Debugger) dispatch(input string) (quit bool, err error) {
	fields := strings.Fields(input)
	if len(fields) == 0 {
		return false, nil
	}

	cmd, args := fields[0], fields[1:]

	switch cmd {
	case "help":
		d.help()
	case "run":
		err = d.machine.Run()
	case "step":
		err = d.step(args)
	case "mem":
		err = d.mem(args)
	case "reg":
		err = d.reg(args)
	case "load":
		err = d.load(args)
	case "quit", "exit":
		return true, nil
	default:
		return false, fmt.Errorf("unknown command: %s", cmd)
	}

	return false, err
}

func (d *Debugger) help() {
	fmt.Fprintln(d.out, "commands:")
	fmt.Fprintln(d.out, "  help                       show this text")
	fmt.Fprintln(d.out, "  run                        run until halted")
	fmt.Fprintln(d.out, "  step [n]                   run up to n ticks (default 1)")
	fmt.Fprintln(d.out, "  mem read addr [addr2]      display one cell or a range")
	fmt.Fprintln(d.out, "  mem write value addr [addr2]  set one cell or a range")
	fmt.Fprintln(d.out, "  reg read [reg]             dump all registers, or print one")
	fmt.Fprintln(d.out, "  reg write value reg        set a register (r0-r7, pc, psr, usp, ssp)")
	fmt.Fprintln(d.out, "  load path                  load an object file")
	fmt.Fprintln(d.out, "  quit                       leave the debugger")
}

func (d *Debugger) step(args []string) error {
	n := 1

	if len(args) > 0 {
		parsed, err := parseNumber(args[0])
		if err != nil {
			return err
		}

		n = int(parsed)
	}

	for i := 0; i < n; i++ {
		if err := d.machine.Step(); err != nil {
			return err
		}
	}

	return nil
}

// mem implements `mem read addr [addr2]` and `mem write value addr
// [addr2]`, per spec.md §6: value precedes the address on write, and an
// optional second address turns either form into an inclusive range.
func (d *Debugger) mem(args []string) error {
	if len(args) < 2 {
		return errors.New("usage: mem read addr [addr2] | mem write value addr [addr2]")
	}

	switch args[0] {
	case "read":
		low, high, err := parseRange(args[1:])
		if err != nil {
			return err
		}

		for addr := low; addr <= high; addr++ {
			d.printAddress(addr)

			if addr == 0xFFFFFFFF { // guard against wrap when high == 0xFFFFFFFF
				break
			}
		}
	case "write":
		if len(args) < 3 {
			return errors.New("usage: mem write value addr [addr2]")
		}

		val, err := parseNumber(args[1])
		if err != nil {
			return err
		}

		low, high, err := parseRange(args[2:])
		if err != nil {
			return err
		}

		for addr := low; addr <= high; addr++ {
			if err := d.machine.WriteAddress(addr, word.Word(val)); err != nil {
				return err
			}

			if addr == 0xFFFFFFFF {
				break
			}
		}
	default:
		return fmt.Errorf("unknown mem subcommand: %s", args[0])
	}

	return nil
}

// parseRange parses one address, or two forming an inclusive [low, high]
// range, swapping them if given in descending order.
func parseRange(args []string) (low, high uint32, err error) {
	low64, err := parseNumber(args[0])
	if err != nil {
		return 0, 0, err
	}

	low = uint32(low64)
	high = low

	if len(args) >= 2 {
		high64, err := parseNumber(args[1])
		if err != nil {
			return 0, 0, err
		}

		high = uint32(high64)
	}

	if high < low {
		low, high = high, low
	}

	return low, high, nil
}

func (d *Debugger) printAddress(addr uint32) {
	res := d.machine.ReadAddress(addr)

	switch res.Kind {
	case sim.ResultOutOfBounds:
		fmt.Fprintf(d.out, "%d: out of bounds\n", addr)
	case sim.ResultDeviceRegister:
		fmt.Fprintf(d.out, "%s: %s (device register)\n", word.Word(addr), res.Value)
	default:
		fmt.Fprintf(d.out, "%s: %s\n", word.Word(addr), res.Value)
	}
}

// reg implements `reg read [reg]` (bare form dumps every register) and
// `reg write value reg`, per spec.md §6.
func (d *Debugger) reg(args []string) error {
	if len(args) == 0 {
		return errors.New("usage: reg read [reg] | reg write value reg")
	}

	switch args[0] {
	case "read":
		if len(args) < 2 {
			d.dumpRegisters()
			return nil
		}

		val, err := d.readRegister(args[1])
		if err != nil {
			return err
		}

		fmt.Fprintf(d.out, "%s: %s\n", args[1], val)
	case "write":
		if len(args) < 3 {
			return errors.New("usage: reg write value reg")
		}

		val, err := parseNumber(args[1])
		if err != nil {
			return err
		}

		return d.writeRegister(args[2], word.Word(val))
	default:
		return fmt.Errorf("unknown reg subcommand: %s", args[0])
	}

	return nil
}

func (d *Debugger) dumpRegisters() {
	for r := word.R0; r < word.NumRegs; r++ {
		fmt.Fprintf(d.out, "%s: %s\n", r, d.machine.ReadRegister(r))
	}

	fmt.Fprintf(d.out, "pc: %s\n", d.machine.PC())
	fmt.Fprintf(d.out, "psr: %s\n", d.machine.PSR())
	fmt.Fprintf(d.out, "usp: %s\n", d.machine.USP())
	fmt.Fprintf(d.out, "ssp: %s\n", d.machine.SSP())
}

func (d *Debugger) readRegister(name string) (word.Word, error) {
	switch strings.ToLower(name) {
	case "pc":
		return d.machine.PC(), nil
	case "psr":
		return d.machine.PSR(), nil
	case "usp":
		return d.machine.USP(), nil
	case "ssp":
		return d.machine.SSP(), nil
	default:
		r, err := parseRegister(name)
		if err != nil {
			return 0, err
		}

		return d.machine.ReadRegister(r), nil
	}
}

func (d *Debugger) writeRegister(name string, val word.Word) error {
	switch strings.ToLower(name) {
	case "pc":
		d.machine.SetPC(val)
	case "psr":
		d.machine.SetPSR(val)
	case "usp":
		d.machine.SetUSP(val)
	case "ssp":
		d.machine.SetSSP(val)
	default:
		r, err := parseRegister(name)
		if err != nil {
			return err
		}

		d.machine.WriteRegister(r, val)
	}

	return nil
}

// load reads an object file and places it in memory. A ".hex" path is
// decoded as an Intel Hex file (one or more records, per
// internal/encoding's HexEncoding) instead of the raw big-endian object
// format objcode.Read expects, so a test fixture or hand-edited image can
// be loaded without a round trip through the assembler's output format.
func (d *Debugger) load(args []string) error {
	if len(args) < 1 {
		return errors.New("usage: load path")
	}

	f, err := d.open(args[0])
	if err != nil {
		return err
	}
	defer f.Close()

	var codes []objcode.ObjectCode

	if strings.HasSuffix(args[0], ".hex") {
		bs, err := io.ReadAll(f)
		if err != nil {
			return err
		}

		var hx encoding.HexEncoding
		if err := hx.UnmarshalText(bs); err != nil {
			return err
		}

		codes = hx.Code
	} else {
		oc, err := objcode.Read(f)
		if err != nil {
			return err
		}

		codes = []objcode.ObjectCode{oc}
	}

	for _, oc := range codes {
		d.machine.LoadProgram(oc)
		fmt.Fprintf(d.out, "loaded %d words at %s\n", len(oc.Code), oc.Orig)
	}

	return nil
}

// parseNumber accepts decimal or 0x-prefixed hexadecimal literals, per
// spec.md §6.
func parseNumber(s string) (uint64, error) {
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		return strconv.ParseUint(s[2:], 16, 32)
	}

	return strconv.ParseUint(s, 10, 32)
}

// parseRegister accepts r0-r7; pc/psr/usp/ssp are handled by the caller
// before falling back to this, since they have no word.Register encoding.
func parseRegister(s string) (word.Register, error) {
	switch strings.ToLower(s) {
	case "r0":
		return word.R0, nil
	case "r1":
		return word.R1, nil
	case "r2":
		return word.R2, nil
	case "r3":
		return word.R3, nil
	case "r4":
		return word.R4, nil
	case "r5":
		return word.R5, nil
	case "r6":
		return word.R6, nil
	case "r7":
		return word.R7, nil
	default:
		return 0, fmt.Errorf("unknown register: %s", s)
	}
}
