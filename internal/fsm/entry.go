package fsm

import "github.com/ska-sa/katcp-codec/byteset"

// Entry is the (state, byte) -> outcome mapping the parser's dispatch loop
// consults on every byte: the action to perform, the state to move to,
// whether a new argument slot must be created before the action runs, and
// an optional fast table of following bytes that can be absorbed by the
// same action without re-entering the dispatch loop.
type Entry struct {
	Action         Action
	Next           State
	CreateArgument bool

	// Fast, when non-nil, matches every following byte that can be folded
	// into this entry's run: same destination state, same action kind, and
	// not itself a CreateArgument transition.
	Fast byteset.Matcher
}

// Table is the 256-entry row for a single source state.
type Table [256]Entry

func errorEntry() Entry {
	return Entry{Action: Action{Kind: InvalidChar}, Next: Error}
}
