package ioline

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"syscall"
	"time"

	"golang.org/x/sys/unix"
	"golang.org/x/term"
)

// ErrNoTTY is returned by NewConsole when standard input is not a terminal.
var ErrNoTTY = errors.New("ioline: not a TTY")

// Console is a Channel backed by the process's real controlling terminal,
// switched to raw, non-blocking mode. It is grounded on the teacher's
// cmd/internal/tty.Console, adapted to satisfy the Channel interface
// (GetChar/PutChar/Start/End) instead of pushing directly into a
// vm.Keyboard, so it can be wired to this module's keyboard/display
// devices through the Simulator instead.
type Console struct {
	in    *os.File
	out   *term.Terminal
	fd    int
	state *term.State

	mu     sync.Mutex
	keyCh  chan byte
	cancel context.CancelFunc
}

// NewConsole puts stdin into raw mode and returns a Console reading from it
// and writing to stdout. Callers must call End to restore terminal state.
func NewConsole(sin, sout *os.File) (*Console, error) {
	fd := int(sin.Fd())

	if !term.IsTerminal(fd) {
		return nil, ErrNoTTY
	}

	saved, err := term.MakeRaw(fd)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrNoTTY, err)
	}

	c := &Console{
		fd:    fd,
		in:    sin,
		out:   term.NewTerminal(sout, ""),
		state: saved,
		keyCh: make(chan byte, 256),
	}

	if err := c.setTerminalParams(1, 0); err != nil {
		_ = term.Restore(fd, saved)
		return nil, err
	}

	return c, nil
}

func (c *Console) setTerminalParams(vmin, vtime byte) error {
	_ = syscall.SetNonblock(c.fd, true)

	termIO, err := unix.IoctlGetTermios(c.fd, getTermiosIoctl)
	if err != nil {
		return err
	}

	termIO.Cc[unix.VMIN] = vmin
	termIO.Cc[unix.VTIME] = vtime

	if err := unix.IoctlSetTermios(c.fd, setTermiosIoctl, termIO); err != nil {
		return err
	}

	_ = c.in.SetReadDeadline(time.Time{})

	return nil
}

// Start begins a background reader goroutine feeding GetChar.
func (c *Console) Start() error {
	ctx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel

	go c.readLoop(ctx)

	return nil
}

func (c *Console) readLoop(ctx context.Context) {
	buf := bufio.NewReader(c.in)
	_ = syscall.SetNonblock(c.fd, false)

	for {
		select {
		case <-ctx.Done():
			return
		default:
			b, err := buf.ReadByte()
			if err != nil {
				return
			}

			select {
			case c.keyCh <- b:
			case <-ctx.Done():
				return
			}
		}
	}
}

// GetChar returns the next typed byte, if any has arrived since the last
// call.
func (c *Console) GetChar() (byte, bool) {
	select {
	case b := <-c.keyCh:
		return b, true
	default:
		return 0, false
	}
}

// PutChar writes one byte to the terminal.
func (c *Console) PutChar(b byte) error {
	_, err := c.out.Write([]byte{b})
	return err
}

// End restores the terminal's original state and stops the reader
// goroutine.
func (c *Console) End() error {
	if c.cancel != nil {
		_ = c.in.SetReadDeadline(time.Now())
		c.cancel()
	}

	return term.Restore(c.fd, c.state)
}
