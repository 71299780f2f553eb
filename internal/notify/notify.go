// Package notify is a small observer registry through which sockets
// publish lifecycle events (bound, connected, data sent, shut down).
//
// Observers run synchronously on the goroutine that raised the event;
// DataReceived events arrive on a receive worker.  A nil *Subject is a
// valid no-op receiver.
package notify

import (
	"sort"
	"strconv"
	"sync"
)

// StateType classifies a state change.
type StateType int

const (
	Update StateType = iota
	Error
	Connected
	Disconnected
	Initializing
	Shutdown
	DataReceived
	DataSent
	Ready
	Processing
	Completed
)

var stateNames = [...]string{
	"update", "error", "connected", "disconnected", "initializing",
	"shutdown", "data-received", "data-sent", "ready", "processing",
	"completed",
}

func (t StateType) String() string {
	if t < 0 || int(t) >= len(stateNames) {
		return "state(" + strconv.Itoa(int(t)) + ")"
	}
	return stateNames[t]
}

// Event is one state change.  Code is the byte count for data events
// and zero otherwise; Addr is the endpoint involved, if any.
type Event struct {
	Type    StateType
	Code    int
	Message string
	Source  string
	Addr    string
}

// Observer receives events.
type Observer interface {
	StateChanged(ev Event)
}

// ObserverFunc adapts a plain function to Observer.
type ObserverFunc func(ev Event)

// StateChanged implements Observer.
func (f ObserverFunc) StateChanged(ev Event) { f(ev) }

// Subject holds registered observers keyed by the id Add returns.
type Subject struct {
	mu        sync.RWMutex
	next      int
	observers map[int]Observer
}

// NewSubject returns an empty subject.
func NewSubject() *Subject {
	return &Subject{observers: make(map[int]Observer)}
}

// Add registers o and returns its id.  A nil observer is ignored and
// yields -1.
func (s *Subject) Add(o Observer) int {
	if s == nil || o == nil {
		return -1
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.observers == nil {
		s.observers = make(map[int]Observer)
	}
	id := s.next
	s.next++
	s.observers[id] = o
	return id
}

// Remove unregisters the observer with the given id.
func (s *Subject) Remove(id int) {
	if s == nil {
		return
	}
	s.mu.Lock()
	delete(s.observers, id)
	s.mu.Unlock()
}

// Len returns the number of registered observers.
func (s *Subject) Len() int {
	if s == nil {
		return 0
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.observers)
}

// Notify delivers ev to one registered observer and reports whether
// that observer exists.
func (s *Subject) Notify(id int, ev Event) bool {
	if s == nil {
		return false
	}
	s.mu.RLock()
	o, ok := s.observers[id]
	s.mu.RUnlock()
	if ok {
		o.StateChanged(ev)
	}
	return ok
}

// NotifyAll delivers ev to every observer in registration order.
// Observers may add or remove observers while being notified.
func (s *Subject) NotifyAll(ev Event) {
	if s == nil {
		return
	}
	for _, o := range s.snapshot() {
		o.StateChanged(ev)
	}
}

func (s *Subject) snapshot() []Observer {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.observers) == 0 {
		return nil
	}
	ids := make([]int, 0, len(s.observers))
	for id := range s.observers {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	out := make([]Observer, len(ids))
	for i, id := range ids {
		out[i] = s.observers[id]
	}
	return out
}
