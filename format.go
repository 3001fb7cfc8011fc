package katcp

import (
	"errors"
	"math"
	"strconv"

	"github.com/ska-sa/katcp-codec/internal/fsm"
)

// ErrSizeOverflow is panicked by WriteSize when the encoded length of a
// message would exceed the platform's natural integer range. There is no
// legitimate message this large, and the caller has no recovery beyond
// "format a smaller message".
var ErrSizeOverflow = errors.New("github.com/ska-sa/katcp-codec: encoded size overflowed")

// FormatMessage is the generic, formatter-facing view of a message: name
// and arguments are accepted as any byte-slice-viewable type, so callers
// can format from owned buffers, borrowed slices, or a named string type
// without copying into a common representation first.
type FormatMessage[N ~[]byte | ~string, A ~[]byte | ~string] struct {
	Type      MessageType
	ID        int32
	HasID     bool
	Name      N
	Arguments []A
}

func viewBytes[T ~[]byte | ~string](v T) []byte {
	return []byte(v)
}

// accumulator adds up the encoded size of a message, panicking with
// ErrSizeOverflow rather than silently wrapping.
type accumulator int

func (a *accumulator) add(n int) {
	if n > math.MaxInt-int(*a) {
		panic(ErrSizeOverflow)
	}
	*a += accumulator(n)
}

func encodedArgumentLen(b []byte) int {
	if len(b) == 0 {
		return 2 // `\@`
	}
	n := len(b)
	for _, c := range b {
		if fsm.EscapeFlag[c] {
			n++
		}
	}
	return n
}

// WriteSize computes the exact encoded byte length of m: 1 (sigil) +
// len(name) + (2 + decimal digits of ID, if present) + the space-prefixed,
// escape-expanded length of every argument + 1 (trailing LF).
func (m FormatMessage[N, A]) WriteSize() int {
	var size accumulator
	size.add(1)
	size.add(len(viewBytes(m.Name)))
	if m.HasID {
		size.add(2 + len(strconv.Itoa(int(m.ID))))
	}
	for _, a := range m.Arguments {
		size.add(1)
		size.add(encodedArgumentLen(viewBytes(a)))
	}
	size.add(1)
	return int(size)
}

// WriteOut encodes m into buf[0:m.WriteSize()] and returns the unused tail
// of buf. buf need not be initialized beforehand; WriteOut never reads from
// it. It panics if buf is shorter than m.WriteSize() — callers are expected
// to size buf from a prior WriteSize call.
func (m FormatMessage[N, A]) WriteOut(buf []byte) []byte {
	pos := 0

	buf[pos] = m.Type.Symbol()
	pos++

	pos += copy(buf[pos:], viewBytes(m.Name))

	if m.HasID {
		buf[pos] = '['
		pos++
		out := strconv.AppendInt(buf[:pos], int64(m.ID), 10)
		pos = len(out)
		buf[pos] = ']'
		pos++
	}

	for _, a := range m.Arguments {
		buf[pos] = ' '
		pos++

		b := viewBytes(a)
		if len(b) == 0 {
			buf[pos] = '\\'
			buf[pos+1] = '@'
			pos += 2
			continue
		}
		for _, c := range b {
			if fsm.EscapeFlag[c] {
				buf[pos] = '\\'
				buf[pos+1] = fsm.EscapeSymbol[c]
				pos += 2
			} else {
				buf[pos] = c
				pos++
			}
		}
	}

	buf[pos] = '\n'
	pos++

	return buf[pos:]
}

// ToBytes allocates a buffer of exactly WriteSize() bytes, writes m into
// it, and returns it. It panics if WriteOut leaves a non-empty tail, which
// would mean WriteSize and WriteOut disagree — a bug in this package, never
// a condition a caller can trigger.
func (m FormatMessage[N, A]) ToBytes() []byte {
	out := make([]byte, m.WriteSize())
	if tail := m.WriteOut(out); len(tail) != 0 {
		panic("github.com/ska-sa/katcp-codec: write_out left a non-empty tail")
	}
	return out
}
