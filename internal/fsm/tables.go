package fsm

import "github.com/ska-sa/katcp-codec/byteset"

// Tables holds the precomputed transition table, indexed by [State][byte].
// It is built once, during package initialization, and is read-only
// thereafter: safe to share across every Parser, on any number of
// goroutines, without locking.
var Tables [numStates]Table

// EscapeSymbol maps a raw argument byte to the escape letter a formatter
// must emit after a backslash, or 0 if the byte needs no escaping.
var EscapeSymbol [256]byte

// EscapeFlag is the boolean form of EscapeSymbol: EscapeFlag[c] == (EscapeSymbol[c] != 0).
var EscapeFlag [256]bool

func init() {
	Tables[Start] = buildTable(startRow)
	Tables[Empty] = buildTable(emptyRow)
	Tables[BeforeName] = buildTable(beforeNameRow)
	Tables[Name] = buildTable(nameRow)
	Tables[BeforeID] = buildTable(beforeIDRow)
	Tables[ID] = buildTable(idRow)
	Tables[AfterID] = buildTable(afterIDRow)
	Tables[BeforeArgument] = buildTable(argumentRow(true))
	Tables[Argument] = buildTable(argumentRow(false))
	Tables[ArgumentEscape] = buildTable(argumentEscapeRow)
	Tables[Error] = buildTable(func(byte) Entry { return errorEntry() })
	Tables[EndOfLine] = buildTable(func(byte) Entry { return errorEntry() })
	Tables[ErrorEndOfLine] = buildTable(func(byte) Entry { return errorEntry() })

	buildFastTables(&Tables)

	for i := 0; i < 256; i++ {
		EscapeSymbol[i] = escapeSymbolFor(byte(i))
		EscapeFlag[i] = EscapeSymbol[i] != 0
	}
}

var isLetter = byteset.Ranges(byteset.Range{Lo: 'A', Hi: 'Z'}, byteset.Range{Lo: 'a', Hi: 'z'})
var isDigit = byteset.Ranges(byteset.Range{Lo: '0', Hi: '9'})
var isNonZeroDigit = byteset.Ranges(byteset.Range{Lo: '1', Hi: '9'})
var isNameByte = byteset.Or(isLetter, isDigit, byteset.Exactly('-'))

// buildTable fills a 256-entry row from fn, then applies the equivalence
// rules that hold for every state: tab behaves as space, CR behaves as LF,
// and any row whose LF entry would be an error is promoted to
// ErrorEndOfLine, so a line's terminator is always reported as the end of
// that line rather than stalling recovery by one byte.
func buildTable(fn func(byte) Entry) Table {
	var t Table
	for i := 0; i < 256; i++ {
		t[i] = fn(byte(i))
	}
	if t['\n'].Next == Error {
		t['\n'].Next = ErrorEndOfLine
	}
	switch t['\n'].Next {
	case EndOfLine, ErrorEndOfLine, Start:
		// ok
	default:
		panic("fsm: row has an illegal LF transition")
	}
	t['\t'] = t[' ']
	t['\r'] = t['\n']
	return t
}

func startRow(ch byte) Entry {
	switch {
	case ch == ' ':
		return Entry{Action: Action{Kind: Nothing}, Next: Empty}
	case ch == '?':
		return Entry{Action: Action{Kind: SetType, Type: Request}, Next: BeforeName}
	case ch == '!':
		return Entry{Action: Action{Kind: SetType, Type: Reply}, Next: BeforeName}
	case ch == '#':
		return Entry{Action: Action{Kind: SetType, Type: Inform}, Next: BeforeName}
	case ch == '\n':
		return Entry{Action: Action{Kind: ResetLineLength}, Next: Start}
	default:
		return errorEntry()
	}
}

func emptyRow(ch byte) Entry {
	switch {
	case ch == ' ':
		return Entry{Action: Action{Kind: Nothing}, Next: Empty}
	case ch == '\n':
		return Entry{Action: Action{Kind: ResetLineLength}, Next: Start}
	default:
		return errorEntry()
	}
}

func beforeNameRow(ch byte) Entry {
	if isLetter.Match(ch) {
		return Entry{Action: Action{Kind: NameByte}, Next: Name}
	}
	return errorEntry()
}

func nameRow(ch byte) Entry {
	switch {
	case isNameByte.Match(ch):
		return Entry{Action: Action{Kind: NameByte}, Next: Name}
	case ch == ' ':
		return Entry{Action: Action{Kind: Nothing}, Next: BeforeArgument}
	case ch == '[':
		return Entry{Action: Action{Kind: Nothing}, Next: BeforeID}
	case ch == '\n':
		return Entry{Action: Action{Kind: Nothing}, Next: EndOfLine}
	default:
		return errorEntry()
	}
}

func beforeIDRow(ch byte) Entry {
	if isNonZeroDigit.Match(ch) {
		return Entry{Action: Action{Kind: IDDigit}, Next: ID}
	}
	return errorEntry()
}

func idRow(ch byte) Entry {
	switch {
	case isDigit.Match(ch):
		return Entry{Action: Action{Kind: IDDigit}, Next: ID}
	case ch == ']':
		return Entry{Action: Action{Kind: Nothing}, Next: AfterID}
	default:
		return errorEntry()
	}
}

func afterIDRow(ch byte) Entry {
	switch {
	case ch == ' ':
		return Entry{Action: Action{Kind: Nothing}, Next: BeforeArgument}
	case ch == '\n':
		return Entry{Action: Action{Kind: Nothing}, Next: EndOfLine}
	default:
		return errorEntry()
	}
}

// argumentRow builds the shared BeforeArgument/Argument row. createArgument
// is true only for BeforeArgument: it is the sole place a new argument slot
// is opened, which is what keeps trailing whitespace after the last
// argument from producing a spurious empty one.
func argumentRow(createArgument bool) func(byte) Entry {
	return func(ch byte) Entry {
		switch {
		case ch == ' ':
			return Entry{Action: Action{Kind: Nothing}, Next: BeforeArgument}
		case ch == '\n':
			return Entry{Action: Action{Kind: Nothing}, Next: EndOfLine}
		case ch == '\\':
			return Entry{Action: Action{Kind: Nothing}, Next: ArgumentEscape, CreateArgument: createArgument}
		case ch == 0 || ch == 0x1B:
			return errorEntry()
		default:
			return Entry{Action: Action{Kind: ArgumentByte}, Next: Argument, CreateArgument: createArgument}
		}
	}
}

func argumentEscapeRow(ch byte) Entry {
	switch ch {
	case '@':
		return Entry{Action: Action{Kind: Nothing}, Next: Argument}
	case '\\':
		return Entry{Action: Action{Kind: ArgumentEscaped, Escaped: '\\'}, Next: Argument}
	case '_':
		return Entry{Action: Action{Kind: ArgumentEscaped, Escaped: ' '}, Next: Argument}
	case '0':
		return Entry{Action: Action{Kind: ArgumentEscaped, Escaped: 0}, Next: Argument}
	case 'n':
		return Entry{Action: Action{Kind: ArgumentEscaped, Escaped: '\n'}, Next: Argument}
	case 'r':
		return Entry{Action: Action{Kind: ArgumentEscaped, Escaped: '\r'}, Next: Argument}
	case 'e':
		return Entry{Action: Action{Kind: ArgumentEscaped, Escaped: 0x1B}, Next: Argument}
	case 't':
		return Entry{Action: Action{Kind: ArgumentEscaped, Escaped: '\t'}, Next: Argument}
	default:
		return errorEntry()
	}
}

// fastKey identifies a run of bytes that can be folded into a single bulk
// copy: same destination state, same action kind.
type fastKey struct {
	state State
	kind  ActionKind
}

// buildFastTables computes, for every mergeable (state, byte) transition, a
// bitmap of the following bytes that stay in the same destination state
// with the same action kind and don't open a new argument. Matching
// fastKeys share a single byteset.Matcher, so the same bitmap gets computed
// once no matter how many source states reach that destination.
func buildFastTables(tables *[numStates]Table) {
	cache := make(map[fastKey]byteset.Matcher)

	for src := State(0); src < numStates; src++ {
		if src.IsTerminal() {
			continue
		}
		row := &tables[src]
		for ch := 0; ch < 256; ch++ {
			entry := &row[ch]
			if entry.Next.IsTerminal() || !entry.Action.Kind.Mergeable() {
				continue
			}
			key := fastKey{state: entry.Next, kind: entry.Action.Kind}
			m, ok := cache[key]
			if !ok {
				m = computeFastMatcher(tables, key)
				cache[key] = m
			}
			if m != nil {
				entry.Fast = m
			}
		}
	}
}

func computeFastMatcher(tables *[numStates]Table, key fastKey) byteset.Matcher {
	dest := &tables[key.state]
	var members []byte
	for ch := 0; ch < 256; ch++ {
		e := &dest[ch]
		if e.Next == key.state && e.Action.Kind == key.kind && !e.CreateArgument {
			members = append(members, byte(ch))
		}
	}
	if len(members) == 0 {
		return nil
	}
	return byteset.DenseSet(members...).Optimize()
}

func escapeSymbolFor(c byte) byte {
	switch c {
	case '\r':
		return 'r'
	case '\n':
		return 'n'
	case '\t':
		return 't'
	case 0x1B:
		return 'e'
	case 0:
		return '0'
	case '\\':
		return '\\'
	case ' ':
		return '_'
	}
	return 0
}
