package fsm

import (
	"testing"

	"github.com/ska-sa/katcp-codec/byteset"
)

type transitionRow struct {
	State    State
	Input    byte
	NextWant State
	KindWant ActionKind
}

func runTransitionTests(t *testing.T, rows []transitionRow) {
	t.Helper()
	for i, row := range rows {
		e := Tables[row.State][row.Input]
		if e.Next != row.NextWant || e.Action.Kind != row.KindWant {
			t.Errorf("%03d: Tables[%s][%q]: got (next=%s, kind=%d), want (next=%s, kind=%d)",
				i, row.State, row.Input, e.Next, e.Action.Kind, row.NextWant, row.KindWant)
		}
	}
}

func TestTables_Start(t *testing.T) {
	runTransitionTests(t, []transitionRow{
		{Start, ' ', Empty, Nothing},
		{Start, '\t', Empty, Nothing},
		{Start, '?', BeforeName, SetType},
		{Start, '!', BeforeName, SetType},
		{Start, '#', BeforeName, SetType},
		{Start, '\n', Start, ResetLineLength},
		{Start, '\r', Start, ResetLineLength},
		{Start, 'a', Error, InvalidChar},
	})
}

func TestTables_Name(t *testing.T) {
	runTransitionTests(t, []transitionRow{
		{Name, 'a', Name, NameByte},
		{Name, 'Z', Name, NameByte},
		{Name, '9', Name, NameByte},
		{Name, '-', Name, NameByte},
		{Name, ' ', BeforeArgument, Nothing},
		{Name, '[', BeforeID, Nothing},
		{Name, '\n', EndOfLine, Nothing},
		{Name, '_', Error, InvalidChar},
	})
}

func TestTables_BeforeID(t *testing.T) {
	runTransitionTests(t, []transitionRow{
		{BeforeID, '1', ID, IDDigit},
		{BeforeID, '9', ID, IDDigit},
		{BeforeID, '0', Error, InvalidChar},
	})
}

func TestTables_ID(t *testing.T) {
	runTransitionTests(t, []transitionRow{
		{ID, '0', ID, IDDigit},
		{ID, '9', ID, IDDigit},
		{ID, ']', AfterID, Nothing},
		{ID, 'x', Error, InvalidChar},
	})
}

func TestTables_Argument(t *testing.T) {
	runTransitionTests(t, []transitionRow{
		{Argument, 'x', Argument, ArgumentByte},
		{Argument, ' ', BeforeArgument, Nothing},
		{Argument, '\n', EndOfLine, Nothing},
		{Argument, '\\', ArgumentEscape, Nothing},
		{Argument, 0, Error, InvalidChar},
		{Argument, 0x1B, Error, InvalidChar},
	})
}

func TestTables_BeforeArgument_CreateArgument(t *testing.T) {
	if !Tables[BeforeArgument]['x'].CreateArgument {
		t.Errorf("BeforeArgument['x'].CreateArgument: got false, want true")
	}
	if !Tables[BeforeArgument]['\\'].CreateArgument {
		t.Errorf("BeforeArgument['\\\\'].CreateArgument: got false, want true")
	}
	if Tables[BeforeArgument][' '].CreateArgument {
		t.Errorf("BeforeArgument[' '].CreateArgument: got true, want false")
	}
	if Tables[Argument]['x'].CreateArgument {
		t.Errorf("Argument['x'].CreateArgument: got true, want false")
	}
}

func TestTables_ArgumentEscape(t *testing.T) {
	rows := []struct {
		Input byte
		Next  State
		Kind  ActionKind
		Value byte
	}{
		{'@', Argument, Nothing, 0},
		{'\\', Argument, ArgumentEscaped, '\\'},
		{'_', Argument, ArgumentEscaped, ' '},
		{'0', Argument, ArgumentEscaped, 0},
		{'n', Argument, ArgumentEscaped, '\n'},
		{'r', Argument, ArgumentEscaped, '\r'},
		{'e', Argument, ArgumentEscaped, 0x1B},
		{'t', Argument, ArgumentEscaped, '\t'},
		{'z', Error, InvalidChar, 0},
	}
	for i, row := range rows {
		e := Tables[ArgumentEscape][row.Input]
		if e.Next != row.Next || e.Action.Kind != row.Kind || e.Action.Escaped != row.Value {
			t.Errorf("%03d: ArgumentEscape[%q]: got (next=%s, kind=%d, escaped=%q), want (next=%s, kind=%d, escaped=%q)",
				i, row.Input, e.Next, e.Action.Kind, e.Action.Escaped, row.Next, row.Kind, row.Value)
		}
	}
}

func TestTables_LFPromotion(t *testing.T) {
	for s := State(0); s < numStates; s++ {
		if s.IsTerminal() {
			continue
		}
		next := Tables[s]['\n'].Next
		switch next {
		case EndOfLine, ErrorEndOfLine, Start:
		default:
			t.Errorf("Tables[%s]['\\n'].Next = %s, want one of EndOfLine/ErrorEndOfLine/Start", s, next)
		}
	}
}

func TestTables_TabEqualsSpace_CREqualsLF(t *testing.T) {
	for s := State(0); s < numStates; s++ {
		if s.IsTerminal() {
			continue
		}
		row := Tables[s]
		if row['\t'] != row[' '] {
			t.Errorf("Tables[%s]['\\t'] != Tables[%s][' ']", s, s)
		}
		if row['\r'] != row['\n'] {
			t.Errorf("Tables[%s]['\\r'] != Tables[%s]['\\n']", s, s)
		}
	}
}

func TestFastTables_Dedup(t *testing.T) {
	// Every NameByte-producing entry in the Name row should share the same
	// fast table instance, since they all key on (Name, NameByte).
	var want byteset.Matcher
	for ch := 0; ch < 256; ch++ {
		e := Tables[Name][ch]
		if e.Action.Kind != NameByte {
			continue
		}
		if want == nil {
			want = e.Fast
			continue
		}
		if e.Fast != want {
			t.Errorf("Tables[Name][%q].Fast is not shared with other NameByte entries", byte(ch))
		}
	}
}

func TestEscapeTables(t *testing.T) {
	rows := []struct {
		Input  byte
		Symbol byte
	}{
		{'\r', 'r'},
		{'\n', 'n'},
		{'\t', 't'},
		{0x1B, 'e'},
		{0, '0'},
		{'\\', '\\'},
		{' ', '_'},
		{'a', 0},
	}
	for i, row := range rows {
		if EscapeSymbol[row.Input] != row.Symbol {
			t.Errorf("%03d: EscapeSymbol[%q] = %q, want %q", i, row.Input, EscapeSymbol[row.Input], row.Symbol)
		}
		wantFlag := row.Symbol != 0
		if EscapeFlag[row.Input] != wantFlag {
			t.Errorf("%03d: EscapeFlag[%q] = %v, want %v", i, row.Input, EscapeFlag[row.Input], wantFlag)
		}
	}
}
