// Package bus implements the address bus: a sorted list of non-overlapping
// address-range attachments, mapping a 16-bit address space to either plain
// memory or a device's register file.
//
// It is grounded on the attachment list of the original simulator's bus.c: a
// sorted slice of intervals searched with a three-way comparator instead of a
// hash map, so that device ranges spanning more than one address resolve with
// a single binary search.
package bus

import (
	"errors"
	"fmt"
	"sort"

	"github.com/jhollis/lc3sim/internal/device"
	"github.com/jhollis/lc3sim/internal/log"
	"github.com/jhollis/lc3sim/internal/word"
)

// Device is the subset of the device contract the bus needs to dispatch
// reads and writes. See package device for the full contract devices
// implement.
type Device interface {
	ReadRegister(addr word.Word) (word.Word, error)
	WriteRegister(addr word.Word, val word.Word) error
}

// Interval is an inclusive range of addresses, [Low, High].
type Interval struct {
	Low, High word.Word
}

func (iv Interval) contains(addr word.Word) int {
	switch {
	case addr < iv.Low:
		return -1
	case addr > iv.High:
		return 1
	default:
		return 0
	}
}

func (iv Interval) overlaps(other Interval) bool {
	return iv.Low <= other.High && other.Low <= iv.High
}

// attachment binds a device to the interval of addresses it services.
type attachment struct {
	interval Interval
	device   Device
}

// ErrAddressConflict is returned by Attach when the requested interval
// overlaps an interval already attached.
var ErrAddressConflict = errors.New("bus: address range conflict")

// Bus is the simulator's sole means of address resolution. Plain memory
// reads and writes that do not land in an attached interval go directly to
// the backing RAM array; addresses within an attached interval are
// dispatched to the owning device instead.
type Bus struct {
	ram         [1 << 16]word.Word
	attachments []attachment
	isDevice    [1 << 16]bool
	log         *log.Logger
}

// Option configures a Bus at construction.
type Option func(*Bus)

// WithLogger overrides the bus's logger.
func WithLogger(l *log.Logger) Option {
	return func(b *Bus) { b.log = l }
}

// New creates an empty Bus with no devices attached.
func New(opts ...Option) *Bus {
	b := &Bus{log: log.DefaultLogger()}

	for _, opt := range opts {
		opt(b)
	}

	return b
}

// Attach registers a device to service the inclusive address range
// [low, high]. It returns ErrAddressConflict if the range overlaps any
// previously attached range.
func (b *Bus) Attach(low, high word.Word, dev Device) error {
	if high < low {
		low, high = high, low
	}

	iv := Interval{Low: low, High: high}

	for _, a := range b.attachments {
		if a.interval.overlaps(iv) {
			return fmt.Errorf("%w: [%s,%s] overlaps [%s,%s]",
				ErrAddressConflict, low, high, a.interval.Low, a.interval.High)
		}
	}

	b.attachments = append(b.attachments, attachment{interval: iv, device: dev})

	sort.Slice(b.attachments, func(i, j int) bool {
		return b.attachments[i].interval.Low < b.attachments[j].interval.Low
	})

	for addr := uint32(low); addr <= uint32(high); addr++ {
		b.isDevice[addr] = true
	}

	b.log.Debug("bus: attached device", "low", low, "high", high)

	return nil
}

// AttachDevice attaches dev over the interval(s) it declares itself,
// consulting Addresses and AddressMethod instead of requiring the caller
// to know the device's address layout, exactly as attach_device in the
// original walks a device's get_addresses/get_address_method callbacks.
// A device.Range device occupies the contiguous span bounded by its
// lowest and highest declared address; a device.Separate device is
// attached once per individual address, since those need not be
// contiguous (e.g. a keyboard's KBSR/KBDR straddling other devices).
func (b *Bus) AttachDevice(dev device.Device) error {
	addrs := dev.Addresses()
	if len(addrs) == 0 {
		return nil
	}

	if dev.AddressMethod() == device.Separate {
		for _, addr := range addrs {
			if err := b.Attach(addr, addr, dev); err != nil {
				return err
			}
		}

		return nil
	}

	low, high := addrs[0], addrs[0]
	for _, addr := range addrs[1:] {
		if addr < low {
			low = addr
		}

		if addr > high {
			high = addr
		}
	}

	return b.Attach(low, high, dev)
}

// find performs a binary search over the sorted attachment list, returning
// the attachment covering addr, if any.
func (b *Bus) find(addr word.Word) (Device, bool) {
	lo, hi := 0, len(b.attachments)-1

	for lo <= hi {
		mid := (lo + hi) / 2
		switch b.attachments[mid].interval.contains(addr) {
		case 0:
			return b.attachments[mid].device, true
		case -1:
			hi = mid - 1
		case 1:
			lo = mid + 1
		}
	}

	return nil, false
}

// IsDevice reports whether addr falls within an attached device's range.
func (b *Bus) IsDevice(addr word.Word) bool {
	return b.isDevice[addr]
}

// Read resolves addr, dispatching to the owning device's ReadRegister if one
// is attached, or returning the plain memory cell otherwise.
func (b *Bus) Read(addr word.Word) (word.Word, error) {
	if dev, ok := b.find(addr); ok {
		return dev.ReadRegister(addr)
	}

	return b.ram[addr], nil
}

// Write resolves addr exactly as Read does, but stores val.
func (b *Bus) Write(addr word.Word, val word.Word) error {
	if dev, ok := b.find(addr); ok {
		return dev.WriteRegister(addr, val)
	}

	b.ram[addr] = val

	return nil
}

// ReadMemory reads the backing RAM array directly, bypassing device
// dispatch entirely. It is used by the loader and by debugger memory dumps,
// which must never trigger a device's side effects (e.g. draining a
// keyboard buffer) merely by inspecting memory.
func (b *Bus) ReadMemory(addr word.Word) word.Word {
	return b.ram[addr]
}

// WriteMemory writes the backing RAM array directly, bypassing device
// dispatch. Used by the object loader to place a program image.
func (b *Bus) WriteMemory(addr word.Word, val word.Word) {
	b.ram[addr] = val
}
