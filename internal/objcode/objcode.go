// Package objcode loads LC-3 object files: a big-endian stream of 16-bit
// words where the first word is the load address and the rest is the
// program image, per spec.md §6. Grounded on the teacher's
// internal/vm/loader.go ObjectCode.read.
package objcode

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/jhollis/lc3sim/internal/word"
)

// ErrLoad wraps failures reading or decoding an object file.
var ErrLoad = errors.New("objcode: load error")

// ObjectCode is one contiguous program image and the address it loads at.
type ObjectCode struct {
	Orig word.Word
	Code []word.Word
}

// Read decodes a single object-code stream: big-endian, first word is the
// load address, remaining words are the image. It reads until EOF, so the
// entire stream must be one program.
func Read(r io.Reader) (ObjectCode, error) {
	var oc ObjectCode

	var orig uint16
	if err := binary.Read(r, binary.BigEndian, &orig); err != nil {
		return oc, fmt.Errorf("%w: origin: %s", ErrLoad, err)
	}

	oc.Orig = word.Word(orig)

	for {
		var w uint16

		err := binary.Read(r, binary.BigEndian, &w)
		if errors.Is(err, io.EOF) {
			break
		} else if err != nil {
			return oc, fmt.Errorf("%w: %s", ErrLoad, err)
		}

		oc.Code = append(oc.Code, word.Word(w))
	}

	return oc, nil
}

// Write encodes an ObjectCode back to the big-endian object-file format.
func Write(w io.Writer, oc ObjectCode) error {
	if err := binary.Write(w, binary.BigEndian, uint16(oc.Orig)); err != nil {
		return fmt.Errorf("%w: %s", ErrLoad, err)
	}

	for _, word := range oc.Code {
		if err := binary.Write(w, binary.BigEndian, uint16(word)); err != nil {
			return fmt.Errorf("%w: %s", ErrLoad, err)
		}
	}

	return nil
}
