package capability

import (
	"fmt"
	"io"
	"os"
	"sync"

	"sockkit/parser"
	"sockkit/socket"
)

// Parse decodes each unit with the manager's selected parser and
// prints one line per result.
type Parse struct {
	Manager *parser.Manager
	Out     io.Writer

	mu sync.Mutex
}

// NewParse returns a Parse capability printing to out.
func NewParse(m *parser.Manager, out io.Writer) *Parse {
	if out == nil {
		out = os.Stdout
	}
	return &Parse{Manager: m, Out: out}
}

// Handle implements Capability.
func (p *Parse) Handle(data []byte, sender socket.AddressInfo) error {
	res, err := p.Manager.Parse(data, sender)
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	switch {
	case !res.Matched:
		_, err = fmt.Fprintf(p.Out, "[%s] %s: no match (%d bytes)\n", sender, res.Protocol, res.Length)
	case res.Class != "":
		_, err = fmt.Fprintf(p.Out, "[%s] %s/%s (%d bytes)\n", sender, res.Protocol, res.Class, res.Length)
	default:
		_, err = fmt.Fprintf(p.Out, "[%s] %s (%d bytes)\n", sender, res.Protocol, res.Length)
	}
	return err
}
