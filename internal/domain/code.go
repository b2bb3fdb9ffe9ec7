package domain

import (
	"fmt"
	"strconv"
	"time"
)

// Entry codes have the form {prefix}{YYYY}{MM}{NNNNN}: a one-letter type
// prefix, the operation period, and a 5-digit sequence unique within
// (tenant, type, period). Sequences run 1..99999; gaps are acceptable,
// reuse is not.
const (
	CodeSequenceWidth = 5
	CodeSequenceSpace = 100000
)

var codePrefixes = map[EntryType]string{
	EntryTypeInflow:   "E",
	EntryTypeOutflow:  "S",
	EntryTypeTransfer: "T",
	EntryTypeOpening:  "O",
	EntryTypeClosing:  "C",
}

// CodePrefix returns the one-letter code prefix for an entry type.
func CodePrefix(t EntryType) string {
	if p, ok := codePrefixes[t]; ok {
		return p
	}

	return "X"
}

// Period is the year-month bucket an entry code belongs to.
type Period struct {
	Year  int
	Month time.Month
}

// PeriodOf returns the code period for an operation date.
func PeriodOf(t time.Time) Period {
	return Period{Year: t.Year(), Month: t.Month()}
}

func (p Period) String() string {
	return fmt.Sprintf("%04d%02d", p.Year, int(p.Month))
}

// FormatCode builds the full entry code for a type, period and sequence.
func FormatCode(t EntryType, p Period, seq int) string {
	return fmt.Sprintf("%s%s%0*d", CodePrefix(t), p, CodeSequenceWidth, seq)
}

// CodeSequence extracts the numeric sequence from a code. It returns 0 when
// the code is malformed or too short.
func CodeSequence(code string) int {
	if len(code) < CodeSequenceWidth {
		return 0
	}

	seq, err := strconv.Atoi(code[len(code)-CodeSequenceWidth:])
	if err != nil {
		return 0
	}

	return seq
}

// NextSequence advances a sequence inside the fixed-width space, wrapping
// on overflow and never emitting 0.
func NextSequence(seq int) int {
	next := (seq + 1) % CodeSequenceSpace
	if next == 0 {
		next = 1
	}

	return next
}

// SaltSequence mixes a sub-second time component into a sequence to spread
// racing generators apart, then reduces back into the sequence space.
func SaltSequence(seq int, now time.Time) int {
	salt := int(now.Nanosecond()/1000) % CodeSequenceSpace

	mixed := (seq + salt) % CodeSequenceSpace
	if mixed == 0 {
		mixed = 1
	}

	return mixed
}
