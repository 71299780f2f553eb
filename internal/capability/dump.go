package capability

import (
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"sync"
	"unicode"
	"unicode/utf8"

	"golang.org/x/term"

	"sockkit/socket"
)

// Output formats accepted by Dump.
const (
	FormatAuto = "auto"
	FormatText = "text"
	FormatHex  = "hex"
	FormatRaw  = "raw"
)

// Dump writes every unit to Out.  Raw copies the bytes unchanged; text
// prefixes each unit with its sender; hex prints a hexdump under the
// same header.  Auto picks raw when Out is not a terminal and, on a
// terminal, text for printable payloads and hex otherwise.
type Dump struct {
	Out    io.Writer
	Format string

	once     sync.Once
	terminal bool
	mu       sync.Mutex
}

// NewDump returns a Dump writing to out in the given format.
func NewDump(out io.Writer, format string) *Dump {
	if out == nil {
		out = os.Stdout
	}
	if format == "" {
		format = FormatAuto
	}
	return &Dump{Out: out, Format: format}
}

// Handle implements Capability.
func (d *Dump) Handle(data []byte, sender socket.AddressInfo) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	var err error
	switch d.resolve(data) {
	case FormatRaw:
		_, err = d.Out.Write(data)
	case FormatHex:
		_, err = fmt.Fprintf(d.Out, "[%s] %d bytes\n%s", sender, len(data), hex.Dump(data))
	default:
		_, err = fmt.Fprintf(d.Out, "[%s] %s\n", sender, trimNewline(data))
	}
	return err
}

func (d *Dump) resolve(data []byte) string {
	if d.Format != FormatAuto {
		return d.Format
	}
	d.once.Do(func() {
		if f, ok := d.Out.(*os.File); ok {
			d.terminal = term.IsTerminal(int(f.Fd()))
		}
	})
	switch {
	case !d.terminal:
		return FormatRaw
	case printable(data):
		return FormatText
	}
	return FormatHex
}

func printable(data []byte) bool {
	if !utf8.Valid(data) {
		return false
	}
	for _, r := range string(data) {
		if !unicode.IsPrint(r) && !unicode.IsSpace(r) {
			return false
		}
	}
	return true
}

func trimNewline(data []byte) []byte {
	for len(data) > 0 && (data[len(data)-1] == '\n' || data[len(data)-1] == '\r') {
		data = data[:len(data)-1]
	}
	return data
}
