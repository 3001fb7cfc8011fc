package katcp

import "fmt"

// ParseError is a single lexical or protocol error detected while parsing
// one logical line. Position is the 1-based byte offset, within that line,
// at which the problem was detected.
type ParseError struct {
	Message  string
	Position int
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("github.com/ska-sa/katcp-codec: %s @ position %d", e.Message, e.Position)
}

const (
	errInvalidCharacter = "invalid character"
	errIDOverflowed     = "message ID overflowed"
	errLineTooLong      = "line too long"
)
