package capability

import (
	"bytes"
	"fmt"
	"strings"
	"testing"

	"sockkit/internal/errors"
	"sockkit/parser"
	"sockkit/socket"
	"sockkit/util"
)

var peer = socket.AddressInfo{IP: "192.0.2.7", Port: 5353}

func TestDump_Formats(t *testing.T) {
	tests := []struct {
		name   string
		format string
		data   []byte
		want   string
	}{
		{"raw", FormatRaw, []byte("abc\n"), "abc\n"},
		{"text", FormatText, []byte("hello\r\n"), "[192.0.2.7:5353] hello\n"},
		{"hex", FormatHex, []byte{0x01, 0x02}, "[192.0.2.7:5353] 2 bytes\n00000000  01 02"},
		// A buffer is never a terminal, so auto degrades to raw.
		{"auto on a pipe", FormatAuto, []byte{0xff, 0x00}, "\xff\x00"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			d := NewDump(&out, tt.format)
			if err := d.Handle(tt.data, peer); err != nil {
				t.Fatal(err)
			}
			if !strings.HasPrefix(out.String(), tt.want) {
				t.Errorf("got %q, want prefix %q", out.String(), tt.want)
			}
		})
	}
}

func TestDump_AutoOnTerminal(t *testing.T) {
	var out bytes.Buffer
	d := NewDump(&out, FormatAuto)
	d.once.Do(func() {})
	d.terminal = true

	if got := d.resolve([]byte("plain text\n")); got != FormatText {
		t.Errorf("printable data resolved to %s", got)
	}
	if got := d.resolve([]byte{0x00, 0x9f}); got != FormatHex {
		t.Errorf("binary data resolved to %s", got)
	}
}

type failing struct{ err error }

func (f failing) Handle([]byte, socket.AddressInfo) error { return f.err }

func TestMulti_RunsAllAndJoinsErrors(t *testing.T) {
	var calls int
	count := Func(func([]byte, socket.AddressInfo) error { calls++; return nil })
	e1, e2 := fmt.Errorf("one"), fmt.Errorf("two")

	err := Multi{count, failing{e1}, count, failing{e2}}.Handle([]byte("x"), peer)
	if calls != 2 {
		t.Errorf("calls = %d, want 2", calls)
	}
	if !errors.Is(err, e1) || !errors.Is(err, e2) {
		t.Errorf("joined error = %v", err)
	}
	if err := (Multi{count}).Handle(nil, peer); err != nil {
		t.Errorf("no failures should yield nil, got %v", err)
	}
}

func TestCallback_LogsErrors(t *testing.T) {
	var logged bytes.Buffer
	logger := util.NewLogger(1)
	logger.SetOutput(&logged)

	var seen []byte
	ok := Func(func(data []byte, _ socket.AddressInfo) error { seen = data; return nil })
	Callback(ok, logger)([]byte("abcdef"), 3, peer)
	if string(seen) != "abc" {
		t.Errorf("handler saw %q, want the first n bytes", seen)
	}

	Callback(failing{fmt.Errorf("boom")}, logger)([]byte("x"), 1, peer)
	if !strings.Contains(logged.String(), "boom") {
		t.Errorf("error not logged: %q", logged.String())
	}
}

func TestParse(t *testing.T) {
	rule, err := parser.ParseRule([]byte(`
protocol-info: {name: demo}
filter:
  - {enable: true, offset: 0, length: 1, type: uint, value: 7}
classify:
  - {name: seven-one, offset: 1, length: 1, value: 1}
`))
	if err != nil {
		t.Fatal(err)
	}
	m := parser.NewManager(util.NewLogger(0))
	m.Register("demo", rule) //nolint:errcheck

	var out bytes.Buffer
	p := NewParse(m, &out)
	if err := p.Handle([]byte{7, 1}, peer); !errors.Is(err, errors.ErrNoParser) {
		t.Fatalf("no selection: %v", err)
	}

	m.Select("demo") //nolint:errcheck
	for _, data := range [][]byte{{7, 1}, {7, 2}, {8}} {
		if err := p.Handle(data, peer); err != nil {
			t.Fatal(err)
		}
	}
	want := "[192.0.2.7:5353] demo/seven-one (2 bytes)\n" +
		"[192.0.2.7:5353] demo (2 bytes)\n" +
		"[192.0.2.7:5353] demo: no match (1 bytes)\n"
	if out.String() != want {
		t.Errorf("got:\n%s\nwant:\n%s", out.String(), want)
	}
}

func TestNewDump_Defaults(t *testing.T) {
	d := NewDump(nil, "")
	if d.Format != FormatAuto || d.Out == nil {
		t.Errorf("defaults = %q %v", d.Format, d.Out)
	}
}
