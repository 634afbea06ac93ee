package bus_test

import (
	"errors"
	"testing"

	"github.com/jhollis/lc3sim/internal/bus"
	"github.com/jhollis/lc3sim/internal/word"
)

type fakeDevice struct {
	reg map[word.Word]word.Word
}

func newFakeDevice() *fakeDevice {
	return &fakeDevice{reg: map[word.Word]word.Word{}}
}

func (d *fakeDevice) ReadRegister(addr word.Word) (word.Word, error) {
	return d.reg[addr], nil
}

func (d *fakeDevice) WriteRegister(addr word.Word, val word.Word) error {
	d.reg[addr] = val
	return nil
}

func TestAttachDisjoint(t *testing.T) {
	t.Parallel()

	b := bus.New()
	dev := newFakeDevice()

	if err := b.Attach(0xfe00, 0xfe01, dev); err != nil {
		t.Fatalf("unexpected error: %s", err)
	}

	if err := b.Attach(0xfe02, 0xfe03, dev); err != nil {
		t.Fatalf("unexpected error on adjacent range: %s", err)
	}
}

func TestAttachOverlapConflict(t *testing.T) {
	t.Parallel()

	b := bus.New()
	dev := newFakeDevice()

	if err := b.Attach(0xfe00, 0xfe05, dev); err != nil {
		t.Fatalf("unexpected error: %s", err)
	}

	err := b.Attach(0xfe05, 0xfe06, dev)
	if !errors.Is(err, bus.ErrAddressConflict) {
		t.Errorf("want ErrAddressConflict, got %v", err)
	}
}

func TestIsDeviceCorrespondsToAttachment(t *testing.T) {
	t.Parallel()

	b := bus.New()
	dev := newFakeDevice()

	_ = b.Attach(0xfe00, 0xfe01, dev)

	for addr := word.Word(0); addr < 0xffff; addr++ {
		want := addr == 0xfe00 || addr == 0xfe01
		if got := b.IsDevice(addr); got != want {
			t.Errorf("IsDevice(%s) = %v, want %v", addr, got, want)
		}
	}
}

func TestReadWriteRoundTrip(t *testing.T) {
	t.Parallel()

	b := bus.New()

	if err := b.Write(0x3000, 0x1234); err != nil {
		t.Fatalf("unexpected error: %s", err)
	}

	got, err := b.Read(0x3000)
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}

	if got != 0x1234 {
		t.Errorf("got %s, want x1234", got)
	}
}

func TestDeviceDispatch(t *testing.T) {
	t.Parallel()

	b := bus.New()
	dev := newFakeDevice()

	_ = b.Attach(0xfe00, 0xfe00, dev)

	if err := b.Write(0xfe00, 0x0080); err != nil {
		t.Fatalf("unexpected error: %s", err)
	}

	got, err := b.Read(0xfe00)
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}

	if got != 0x0080 {
		t.Errorf("got %s, want x0080", got)
	}
}

// ReadMemory must never invoke a device's handler, even when the address
// falls within an attached device's range.
func TestReadMemoryBypassesDevices(t *testing.T) {
	t.Parallel()

	b := bus.New()
	dev := newFakeDevice()
	dev.reg[0xfe00] = 0xaaaa

	_ = b.Attach(0xfe00, 0xfe00, dev)
	b.WriteMemory(0xfe00, 0x5555)

	if got := b.ReadMemory(0xfe00); got != 0x5555 {
		t.Errorf("ReadMemory returned device-visible value %s, want x5555", got)
	}
}
