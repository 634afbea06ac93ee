package debugger

import (
	"bytes"
	"strings"
	"testing"

	"github.com/jhollis/lc3sim/internal/objcode"
	"github.com/jhollis/lc3sim/internal/sim"
	"github.com/jhollis/lc3sim/internal/word"
)

type fakeMachine struct {
	mem    map[word.Word]word.Word
	reg    [word.NumRegs]word.Word
	pc     word.Word
	psr    word.Word
	usp    word.Word
	ssp    word.Word
	steps  int
	ran    bool
	loaded objcode.ObjectCode
}

func newFakeMachine() *fakeMachine {
	return &fakeMachine{mem: map[word.Word]word.Word{}}
}

func (m *fakeMachine) Step() error { m.steps++; return nil }
func (m *fakeMachine) Run() error  { m.ran = true; return nil }

func (m *fakeMachine) ReadAddress(addr uint32) sim.AddressResult {
	if addr > 0xFFFF {
		return sim.AddressResult{Kind: sim.ResultOutOfBounds}
	}

	return sim.AddressResult{Kind: sim.ResultValue, Value: m.mem[word.Word(addr)]}
}

func (m *fakeMachine) WriteAddress(addr uint32, val word.Word) error {
	if addr > 0xFFFF {
		return sim.ErrOutOfBounds
	}

	m.mem[word.Word(addr)] = val

	return nil
}

func (m *fakeMachine) ReadRegister(r word.Register) word.Word       { return m.reg[r] }
func (m *fakeMachine) WriteRegister(r word.Register, val word.Word) { m.reg[r] = val }
func (m *fakeMachine) PC() word.Word                                { return m.pc }
func (m *fakeMachine) SetPC(val word.Word)                          { m.pc = val }
func (m *fakeMachine) PSR() word.Word                                { return m.psr }
func (m *fakeMachine) SetPSR(val word.Word)                          { m.psr = val }
func (m *fakeMachine) USP() word.Word                                { return m.usp }
func (m *fakeMachine) SetUSP(val word.Word)                          { m.usp = val }
func (m *fakeMachine) SSP() word.Word                                { return m.ssp }
func (m *fakeMachine) SetSSP(val word.Word)                          { m.ssp = val }
func (m *fakeMachine) LoadProgram(oc objcode.ObjectCode)             { m.loaded = oc }

var _ Machine = (*fakeMachine)(nil)

func TestDispatchStep(t *testing.T) {
	t.Parallel()

	m := newFakeMachine()
	var out bytes.Buffer
	d := New(m, &out)

	if _, err := d.dispatch("step 3"); err != nil {
		t.Fatalf("dispatch: %s", err)
	}

	if m.steps != 3 {
		t.Errorf("steps = %d, want 3", m.steps)
	}
}

func TestDispatchStepDefault(t *testing.T) {
	t.Parallel()

	m := newFakeMachine()
	var out bytes.Buffer
	d := New(m, &out)

	if _, err := d.dispatch("step"); err != nil {
		t.Fatalf("dispatch: %s", err)
	}

	if m.steps != 1 {
		t.Errorf("steps = %d, want 1", m.steps)
	}
}

func TestDispatchRun(t *testing.T) {
	t.Parallel()

	m := newFakeMachine()
	var out bytes.Buffer
	d := New(m, &out)

	if _, err := d.dispatch("run"); err != nil {
		t.Fatalf("dispatch: %s", err)
	}

	if !m.ran {
		t.Error("Run was not called")
	}
}

// mem write takes value before address, per spec.md §6.
func TestDispatchMemReadWriteHex(t *testing.T) {
	t.Parallel()

	m := newFakeMachine()
	var out bytes.Buffer
	d := New(m, &out)

	if _, err := d.dispatch("mem write 0x1234 0x3000"); err != nil {
		t.Fatalf("dispatch: %s", err)
	}

	if m.mem[0x3000] != 0x1234 {
		t.Errorf("mem[0x3000] = %s, want x1234", m.mem[0x3000])
	}

	out.Reset()

	if _, err := d.dispatch("mem read 0x3000"); err != nil {
		t.Fatalf("dispatch: %s", err)
	}

	if !strings.Contains(out.String(), "1234") {
		t.Errorf("output %q missing value", out.String())
	}
}

func TestDispatchMemReadRange(t *testing.T) {
	t.Parallel()

	m := newFakeMachine()
	var out bytes.Buffer
	d := New(m, &out)

	m.mem[0x3000] = 0x1111
	m.mem[0x3001] = 0x2222

	if _, err := d.dispatch("mem read 0x3000 0x3001"); err != nil {
		t.Fatalf("dispatch: %s", err)
	}

	if !strings.Contains(out.String(), "1111") || !strings.Contains(out.String(), "2222") {
		t.Errorf("output %q missing both values", out.String())
	}
}

func TestDispatchMemWriteRange(t *testing.T) {
	t.Parallel()

	m := newFakeMachine()
	var out bytes.Buffer
	d := New(m, &out)

	if _, err := d.dispatch("mem write 0x7 0x3000 0x3002"); err != nil {
		t.Fatalf("dispatch: %s", err)
	}

	for addr := word.Word(0x3000); addr <= 0x3002; addr++ {
		if m.mem[addr] != 0x7 {
			t.Errorf("mem[%s] = %s, want x7", addr, m.mem[addr])
		}
	}
}

// reg write takes value before register, per spec.md §6.
func TestDispatchRegReadWrite(t *testing.T) {
	t.Parallel()

	m := newFakeMachine()
	var out bytes.Buffer
	d := New(m, &out)

	if _, err := d.dispatch("reg write 42 r3"); err != nil {
		t.Fatalf("dispatch: %s", err)
	}

	if m.reg[word.R3] != 42 {
		t.Errorf("R3 = %s, want 42", m.reg[word.R3])
	}
}

func TestDispatchRegWritePC(t *testing.T) {
	t.Parallel()

	m := newFakeMachine()
	var out bytes.Buffer
	d := New(m, &out)

	if _, err := d.dispatch("reg write 0x3000 pc"); err != nil {
		t.Fatalf("dispatch: %s", err)
	}

	if m.pc != 0x3000 {
		t.Errorf("PC = %s, want x3000", m.pc)
	}
}

// Bare `reg read` dumps every register, per spec.md §6.
func TestDispatchRegReadDumpsAll(t *testing.T) {
	t.Parallel()

	m := newFakeMachine()
	m.reg[word.R0] = 7
	m.pc = 0x3000

	var out bytes.Buffer
	d := New(m, &out)

	if _, err := d.dispatch("reg read"); err != nil {
		t.Fatalf("dispatch: %s", err)
	}

	if !strings.Contains(out.String(), "pc") {
		t.Errorf("output %q missing pc", out.String())
	}

	if !strings.Contains(out.String(), "7") {
		t.Errorf("output %q missing r0 value", out.String())
	}
}

func TestDispatchQuit(t *testing.T) {
	t.Parallel()

	m := newFakeMachine()
	var out bytes.Buffer
	d := New(m, &out)

	quit, err := d.dispatch("quit")
	if err != nil {
		t.Fatalf("dispatch: %s", err)
	}

	if !quit {
		t.Error("quit should report true")
	}
}

func TestDispatchUnknownCommand(t *testing.T) {
	t.Parallel()

	m := newFakeMachine()
	var out bytes.Buffer
	d := New(m, &out)

	if _, err := d.dispatch("bogus"); err == nil {
		t.Error("expected error for unknown command")
	}
}

func TestParseNumberDecimalAndHex(t *testing.T) {
	t.Parallel()

	v, err := parseNumber("0x3000")
	if err != nil || v != 0x3000 {
		t.Errorf("parseNumber(0x3000) = %d, %v", v, err)
	}

	v, err = parseNumber("42")
	if err != nil || v != 42 {
		t.Errorf("parseNumber(42) = %d, %v", v, err)
	}
}
