package word_test

import (
	"testing"

	"github.com/jhollis/lc3sim/internal/word"
)

func TestSext(t *testing.T) {
	t.Parallel()

	tcs := []struct {
		in   word.Word
		bits uint8
		want word.Word
	}{
		{0x001f, 5, 0xffff},  // -1 in 5 bits
		{0x000f, 5, 0x000f},  // 15 in 5 bits, sign bit clear
		{0x0010, 5, 0xfff0},  // -16 in 5 bits
		{0x07ff, 11, 0xffff}, // -1 in 11 bits (PCoffset11)
	}

	for _, tc := range tcs {
		if got := tc.in.Sext(tc.bits); got != tc.want {
			t.Errorf("Sext(%s, %d) = %s, want %s", tc.in, tc.bits, got, tc.want)
		}
	}
}

func TestSextIdempotent(t *testing.T) {
	t.Parallel()

	for _, w := range []word.Word{0x0000, 0x000f, 0x07ff, 0xffff, 0x8000} {
		once := w.Zext(11).Sext(11)
		twice := once.Sext(11)

		if once != twice {
			t.Errorf("Sext not idempotent on re-application: %s != %s", once, twice)
		}
	}
}

func TestZext(t *testing.T) {
	t.Parallel()

	if got := word.Word(0xffff).Zext(8); got != 0x00ff {
		t.Errorf("Zext(8) = %s, want x00FF", got)
	}
}

func TestFromWord(t *testing.T) {
	t.Parallel()

	tcs := []struct {
		in   word.Word
		want word.Condition
	}{
		{0x0000, word.ConditionZero},
		{0x0001, word.ConditionPositive},
		{0x8000, word.ConditionNegative},
		{0xffff, word.ConditionNegative},
	}

	for _, tc := range tcs {
		if got := word.FromWord(tc.in); got != tc.want {
			t.Errorf("FromWord(%s) = %s, want %s", tc.in, got, tc.want)
		}
	}
}

func TestFromBytes(t *testing.T) {
	t.Parallel()

	if got := word.FromBytes(0x30, 0x00); got != 0x3000 {
		t.Errorf("FromBytes(0x30, 0x00) = %s, want x3000", got)
	}
}
