package cpu

import "github.com/jhollis/lc3sim/internal/word"

// PSR is the processor status register. Its layout follows the LC-3
// standard:
//
//	15    privilege: 1 = user, 0 = supervisor
//	14-11 unused
//	10-8  priority level, 0-7
//	2-0   condition codes (exactly one of N, Z, P)
//
// This resolves spec's flagged ambiguity over privilege-bit polarity: the
// original C source's SUPERVISOR_BIT macro treats bit 15 set as
// *privileged* in some call sites, which is the inverse of the LC-3
// standard. We follow the standard here, matching the bundled monitor
// image's expectations and the convention most LC-3 tooling assumes.
type PSR word.Word

const (
	StatusUser   word.Word = 0x8000
	StatusSystem word.Word = 0x0000

	priorityShift = 8
	priorityMask  = 0x0700
	conditionMask = 0x0007
)

// Privileged reports whether the processor is in supervisor mode.
func (p PSR) Privileged() bool {
	return word.Word(p)&StatusUser == 0
}

// SetPrivileged sets or clears the user-mode bit.
func (p PSR) SetPrivileged(yes bool) PSR {
	if yes {
		return PSR(word.Word(p) &^ StatusUser)
	}

	return PSR(word.Word(p) | StatusUser)
}

// Priority returns the processor's current priority level, 0-7.
func (p PSR) Priority() uint8 {
	return uint8((word.Word(p) & priorityMask) >> priorityShift)
}

// SetPriority returns a PSR with the priority field replaced.
func (p PSR) SetPriority(level uint8) PSR {
	cleared := word.Word(p) &^ priorityMask
	return PSR(cleared | (word.Word(level)<<priorityShift)&priorityMask)
}

// Condition returns the condition code bits.
func (p PSR) Condition() word.Condition {
	return word.Condition(word.Word(p) & conditionMask)
}

// SetCondition returns a PSR with its condition bits replaced to reflect c.
func (p PSR) SetCondition(c word.Condition) PSR {
	cleared := word.Word(p) &^ conditionMask
	return PSR(cleared | word.Word(c)&conditionMask)
}

// Word returns the PSR's bit pattern.
func (p PSR) Word() word.Word {
	return word.Word(p)
}

func (p PSR) String() string {
	mode := "system"
	if !p.Privileged() {
		mode = "user"
	}

	return mode + " PL" + itoa(p.Priority()) + " " + p.Condition().String()
}

func itoa(n uint8) string {
	if n < 10 {
		return string(rune('0' + n))
	}

	return string(rune('0'+n/10)) + string(rune('0'+n%10))
}
