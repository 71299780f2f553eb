// Package parser decodes the units a socket receives into protocol
// results.  A Manager holds named parsers with at most one selected;
// its Callback method plugs it straight into a socket's Receive.
package parser

import (
	"sort"
	"sync"

	"sockkit/internal/errors"
	"sockkit/socket"
	"sockkit/util"
)

// Result is what a parser reports for one unit.
type Result struct {
	Protocol string `json:"protocol"`
	Matched  bool   `json:"matched"`
	Class    string `json:"class,omitempty"`
	Length   int    `json:"length"`
}

// Parser decodes one received unit.
type Parser interface {
	Parse(data []byte, sender socket.AddressInfo) (Result, error)
}

// Func adapts a function to Parser.
type Func func(data []byte, sender socket.AddressInfo) (Result, error)

// Parse implements Parser.
func (f Func) Parse(data []byte, sender socket.AddressInfo) (Result, error) {
	return f(data, sender)
}

// Manager is a registry of named parsers.  It is safe for concurrent use.
type Manager struct {
	mu       sync.RWMutex
	parsers  map[string]Parser
	selected string
	logger   *util.Logger
}

// NewManager returns an empty manager.  Without a logger, parse
// failures inside Callback go to stderr.
func NewManager(logger *util.Logger) *Manager {
	if logger == nil {
		logger = util.NewLogger(int(util.LogNormal))
	}
	return &Manager{parsers: make(map[string]Parser), logger: logger}
}

// Register adds p under name, replacing any parser of that name.
func (m *Manager) Register(name string, p Parser) error {
	if name == "" {
		return errors.Invalid("parser name", nil, "empty")
	}
	if p == nil {
		return errors.Invalid("parser", name, "nil")
	}
	m.mu.Lock()
	m.parsers[name] = p
	m.mu.Unlock()
	m.logger.Debug("parser %q registered", name)
	return nil
}

// Select makes name the active parser.  An unknown name clears the
// selection and returns ErrNoParser.
func (m *Manager) Select(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.parsers[name]; !ok {
		m.selected = ""
		return errors.ErrNoParser
	}
	m.selected = name
	return nil
}

// Selected returns the active parser name, or "".
func (m *Manager) Selected() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.selected
}

// Names lists the registered parsers in sorted order.
func (m *Manager) Names() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	names := make([]string, 0, len(m.parsers))
	for n := range m.parsers {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Remove unregisters name, clearing the selection if it was active.
func (m *Manager) Remove(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.parsers, name)
	if m.selected == name {
		m.selected = ""
	}
}

// Clear unregisters every parser.
func (m *Manager) Clear() {
	m.mu.Lock()
	m.parsers = make(map[string]Parser)
	m.selected = ""
	m.mu.Unlock()
}

// Parse runs the selected parser.
func (m *Manager) Parse(data []byte, sender socket.AddressInfo) (Result, error) {
	m.mu.RLock()
	p := m.parsers[m.selected]
	m.mu.RUnlock()
	if p == nil {
		return Result{}, errors.ErrNoParser
	}
	return p.Parse(data, sender)
}

// Callback adapts the manager into a receive callback.  Each result is
// passed to handle; parse errors are logged and dropped.
func (m *Manager) Callback(handle func(Result, socket.AddressInfo)) socket.ReceiveCallback {
	return func(buf []byte, n int, sender socket.AddressInfo) {
		res, err := m.Parse(buf[:n], sender)
		if err != nil {
			m.logger.Warn("parse %d bytes from %s: %v", n, sender, err)
			return
		}
		if handle != nil {
			handle(res, sender)
		}
	}
}
