package katcp

import (
	"regexp"
	"testing"

	"github.com/sergi/go-diff/diffmatchpatch"
)

var reNL = regexp.MustCompile(`(?m)^`)

func diffBytes(t *testing.T, want, got []byte) string {
	t.Helper()
	dmp := diffmatchpatch.New()
	diffs := dmp.DiffMain(string(want), string(got), false)
	return reNL.ReplaceAllLiteralString(dmp.DiffPrettyText(diffs), "\t")
}

func TestFormatMessage_ToBytes(t *testing.T) {
	type row struct {
		Msg      FormatMessage[string, string]
		Expected string
	}
	data := []row{
		{
			Msg:      FormatMessage[string, string]{Type: Request, Name: "test", Arguments: []string{"simple"}},
			Expected: "?test simple\n",
		},
		{
			Msg:      FormatMessage[string, string]{Type: Reply, Name: "alternate", Arguments: []string{"separators"}},
			Expected: "!alternate separators\n",
		},
		{
			Msg:      FormatMessage[string, string]{Type: Inform, Name: "noargs"},
			Expected: "#noargs\n",
		},
		{
			Msg:      FormatMessage[string, string]{Type: Request, Name: "mid-args", ID: 2147483647, HasID: true, Arguments: []string{"foo", "bar"}},
			Expected: "?mid-args[2147483647] foo bar\n",
		},
		{
			Msg:      FormatMessage[string, string]{Type: Inform, Name: "escapes", Arguments: []string{"", "\t", "\r", "\n", "\x1B", "\\", " "}},
			Expected: "#escapes \\@ \\t \\r \\n \\e \\\\ \\_\n",
		},
	}
	for i, row := range data {
		got := row.Msg.ToBytes()
		if string(got) != row.Expected {
			t.Errorf("%03d: ToBytes mismatch:\n%s", i, diffBytes(t, []byte(row.Expected), got))
		}
	}
}

func TestFormatMessage_WriteOut_ExactTail(t *testing.T) {
	msg := FormatMessage[string, string]{Type: Request, Name: "foo", Arguments: []string{"bar", "baz"}}
	size := msg.WriteSize()
	buf := make([]byte, size+5)
	tail := msg.WriteOut(buf)
	if len(tail) != 5 {
		t.Errorf("WriteOut into oversized buffer: got tail len %d, want 5", len(tail))
	}
	if string(buf[:size]) != "?foo bar baz\n" {
		t.Errorf("WriteOut wrote %q, want %q", buf[:size], "?foo bar baz\n")
	}
}

func TestFormatMessage_ByteSlices(t *testing.T) {
	msg := FormatMessage[[]byte, []byte]{Type: Inform, Name: []byte("version"), Arguments: [][]byte{[]byte("1.0")}}
	got := msg.ToBytes()
	want := "#version 1.0\n"
	if string(got) != want {
		t.Errorf("ToBytes over []byte view: got %q, want %q", got, want)
	}
}
