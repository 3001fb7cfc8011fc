package katcp

import "github.com/ska-sa/katcp-codec/internal/fsm"

// MessageType identifies which of the three katcp message kinds a line
// carries: Request, Reply, or Inform.
type MessageType = fsm.MessageType

const (
	Request MessageType = fsm.Request
	Reply   MessageType = fsm.Reply
	Inform  MessageType = fsm.Inform
)

// Message is a single parsed katcp line. It owns its storage: name and
// argument bytes are packed into one backing buffer, with boundaries
// recording where each argument begins.
//
// A zero Message is not meaningful; values are produced only by a Parser.
type Message struct {
	mtype MessageType
	id    int32
	hasID bool

	buf        []byte
	boundaries []int
}

// Type returns the message's sigil type.
func (m *Message) Type() MessageType {
	return m.mtype
}

// ID returns the message's identifier and whether one was present.
func (m *Message) ID() (id int32, ok bool) {
	return m.id, m.hasID
}

// Name returns the message name. The returned slice aliases the Message's
// own storage and must not be mutated.
func (m *Message) Name() []byte {
	if len(m.boundaries) == 0 {
		return m.buf
	}
	return m.buf[:m.boundaries[0]]
}

// NumArguments returns the number of arguments.
func (m *Message) NumArguments() int {
	return len(m.boundaries)
}

// Argument returns the i-th argument. The returned slice aliases the
// Message's own storage and must not be mutated. It panics if i is out of
// range, like any other Go slice index.
func (m *Message) Argument(i int) []byte {
	start := m.boundaries[i]
	end := len(m.buf)
	if i+1 < len(m.boundaries) {
		end = m.boundaries[i+1]
	}
	return m.buf[start:end]
}

// Arguments returns every argument, in order, as independent slices over
// the Message's own storage.
func (m *Message) Arguments() [][]byte {
	if len(m.boundaries) == 0 {
		return nil
	}
	out := make([][]byte, len(m.boundaries))
	for i := range out {
		out[i] = m.Argument(i)
	}
	return out
}

// AsFormat returns a FormatMessage view equal to m, suitable for
// round-tripping through a Formatter.
func (m *Message) AsFormat() FormatMessage[[]byte, []byte] {
	return FormatMessage[[]byte, []byte]{
		Type:      m.mtype,
		ID:        m.id,
		HasID:     m.hasID,
		Name:      m.Name(),
		Arguments: m.Arguments(),
	}
}
