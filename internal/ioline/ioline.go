// Package ioline implements the I/O Channel external collaborator: a
// non-blocking byte source/sink the keyboard and display devices are wired
// to, grounded on original_source/src/device_io_impl.c's non-blocking
// get_char/put_char pair (returning ok=false on EAGAIN/EWOULDBLOCK instead
// of erroring).
package ioline

import "errors"

// ErrIO wraps channel-level I/O failures distinct from "no data available
// right now", which is reported with ok=false rather than an error.
var ErrIO = errors.New("ioline: I/O error")

// Channel is a non-blocking byte-oriented I/O channel. GetChar returns
// ok=false, rather than blocking, when no input is currently available.
type Channel interface {
	GetChar() (b byte, ok bool)
	PutChar(b byte) error
	Start() error
	End() error
}

// Buffered is an in-memory Channel for tests and for non-interactive runs
// of the simulator (piping a fixed input script to a program).
type Buffered struct {
	in  chan byte
	out []byte
}

// NewBuffered creates a Buffered channel seeded with the given input bytes.
func NewBuffered(input []byte) *Buffered {
	b := &Buffered{in: make(chan byte, len(input)+1)}

	for _, c := range input {
		b.in <- c
	}

	return b
}

// Feed appends more input, as if typed after construction.
func (b *Buffered) Feed(c byte) {
	b.in <- c
}

func (b *Buffered) GetChar() (byte, bool) {
	select {
	case c := <-b.in:
		return c, true
	default:
		return 0, false
	}
}

func (b *Buffered) PutChar(c byte) error {
	b.out = append(b.out, c)
	return nil
}

// Output returns everything written via PutChar so far.
func (b *Buffered) Output() []byte {
	return b.out
}

func (b *Buffered) Start() error { return nil }
func (b *Buffered) End() error   { return nil }
