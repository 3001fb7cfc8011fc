package katcp

import (
	"math"

	"github.com/ska-sa/katcp-codec/internal/fsm"
)

// Parser holds DFSM state across chunks of a byte stream and turns them
// into a sequence of Messages and ParseErrors. A Parser is single-owner:
// nothing in this package locks or otherwise coordinates concurrent use of
// one instance. Multiple independent Parsers may run on independent
// goroutines without coordination, sharing only the read-only transition
// tables built by the internal/fsm package's init().
type Parser struct {
	state         fsm.State
	lineLength    int
	maxLineLength int

	mtype fsm.MessageType
	id    int64
	hasID bool

	idOverflowed bool
	pendingErr   *ParseError

	buf        []byte
	boundaries []int
}

// NewParser returns a Parser in its initial state, accepting lines no
// longer than maxLineLength bytes.
func NewParser(maxLineLength int) *Parser {
	return &Parser{state: fsm.Start, maxLineLength: maxLineLength}
}

// BufferSize returns the number of bytes observed on the current,
// in-progress line, saturating at maxLineLength.
func (p *Parser) BufferSize() int {
	return p.lineLength
}

// Reset returns p to the state of a freshly constructed Parser with the
// same maxLineLength, discarding any in-progress line and pending error.
func (p *Parser) Reset() {
	p.state = fsm.Start
	p.lineLength = 0
	p.mtype = 0
	p.id = 0
	p.hasID = false
	p.idOverflowed = false
	p.pendingErr = nil
	p.buf = p.buf[:0]
	p.boundaries = p.boundaries[:0]
}

// Append feeds data to the parser and returns an iterator over the
// Messages and ParseErrors it yields. data is not copied or retained
// beyond the iterator's lifetime; in-progress line state that survives
// past the end of data is copied onto the Parser itself so that a
// subsequent Append can continue the same logical line. The sequence is
// lazy: nothing is parsed until Next is called.
func (p *Parser) Append(data []byte) *ParseIterator {
	return &ParseIterator{p: p, rest: data}
}

// ParseIterator is returned by Parser.Append. Callers should drain it
// fully with Next before handing the Parser more data, or before relying
// on it having an observable, complete state again: Next stops right after
// each completed line, so an undrained iterator leaves the rest of its data
// unparsed, and the Parser never sees those bytes.
type ParseIterator struct {
	p    *Parser
	rest []byte
}

// Next reports the next Message or ParseError, or ok=false once the
// iterator's data is exhausted without completing another line. Exactly
// one of the first two return values is non-nil when ok is true.
func (it *ParseIterator) Next() (*Message, *ParseError, bool) {
	for len(it.rest) > 0 {
		msg, perr, n := it.p.advance(it.rest)
		it.rest = it.rest[n:]
		if msg != nil {
			return msg, nil, true
		}
		if perr != nil {
			return nil, perr, true
		}
	}
	return nil, nil, false
}

// forceError records msg at position, if no error has already been
// recorded for the current line (the first error on a line wins), drops
// whatever name/argument bytes have been accumulated for the doomed line,
// and forces the state machine into the absorbing Error state even if the
// table lookup for this step had already computed a different next state.
// This matches the "Line too long" check (run before any table lookup) and
// an overflowed message ID (which must override the Id -> Id transition
// the table lookup already applied earlier in the same step).
func (p *Parser) forceError(msg string, position int) {
	p.state = fsm.Error
	p.signalError(msg, position)
}

// signalError records msg at position (first error on a line wins) and
// drops in-progress name/argument bytes, without touching p.state. Used
// for an invalid character, where the table lookup may have already
// computed a legitimate EndOfLine-family next state (the byte that makes
// a character invalid can simultaneously be the line terminator) that
// must not be overwritten.
func (p *Parser) signalError(msg string, position int) {
	if p.pendingErr == nil {
		p.pendingErr = &ParseError{Message: msg, Position: position}
	}
	p.buf = p.buf[:0]
	p.boundaries = p.boundaries[:0]
}

// advance performs one step of the per-chunk algorithm (design §4.3): one
// table lookup, optionally extended by a fast-table run, followed by
// applying its action. It returns any Message or ParseError completed by
// this step, and the number of bytes of data it consumed.
func (p *Parser) advance(data []byte) (msg *Message, perr *ParseError, consumed int) {
	position := p.lineLength + 1
	if p.lineLength >= p.maxLineLength && p.state != fsm.Error {
		p.forceError(errLineTooLong, position)
	}

	entry := &fsm.Tables[p.state][data[0]]
	if entry.CreateArgument {
		p.boundaries = append(p.boundaries, len(p.buf))
	}
	p.state = entry.Next

	n := 1
	if entry.Fast != nil {
		maxLen := p.maxLineLength - p.lineLength
		if p.lineLength >= p.maxLineLength {
			maxLen = len(data)
		} else if maxLen > len(data) {
			maxLen = len(data)
		}
		for n < maxLen && entry.Fast.Match(data[n]) {
			n++
		}
	}

	if p.lineLength < p.maxLineLength {
		p.lineLength += n
		if p.lineLength > p.maxLineLength {
			p.lineLength = p.maxLineLength
		}
	}

	p.apply(entry.Action, data[:n], position)

	switch p.state {
	case fsm.EndOfLine:
		msg = p.finish()
		p.Reset()
	case fsm.ErrorEndOfLine:
		perr = p.pendingErr
		p.Reset()
	}

	return msg, perr, n
}

func (p *Parser) apply(a fsm.Action, chunk []byte, position int) {
	switch a.Kind {
	case fsm.Nothing:
		// no effect
	case fsm.SetType:
		p.mtype = a.Type
	case fsm.NameByte, fsm.ArgumentByte:
		p.buf = append(p.buf, chunk...)
	case fsm.IDDigit:
		for _, d := range chunk {
			if p.idOverflowed {
				break
			}
			v := p.id*10 + int64(d-'0')
			if v > math.MaxInt32 {
				p.forceError(errIDOverflowed, position)
				p.idOverflowed = true
				break
			}
			p.id = v
			p.hasID = true
		}
	case fsm.ArgumentEscaped:
		p.buf = append(p.buf, a.Escaped)
	case fsm.ResetLineLength:
		p.lineLength = 0
	case fsm.InvalidChar:
		p.signalError(errInvalidCharacter, position)
	}
}

// finish builds the completed Message from the parser's current
// accumulated state. It must only be called while p.state == EndOfLine,
// i.e. after a SetType action has run earlier in the same line.
func (p *Parser) finish() *Message {
	buf := make([]byte, len(p.buf))
	copy(buf, p.buf)

	var boundaries []int
	if len(p.boundaries) > 0 {
		boundaries = make([]int, len(p.boundaries))
		copy(boundaries, p.boundaries)
	}

	return &Message{
		mtype:      p.mtype,
		id:         int32(p.id),
		hasID:      p.hasID,
		buf:        buf,
		boundaries: boundaries,
	}
}
