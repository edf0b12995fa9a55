// Package netstatus reports connectivity to the remote service.
package netstatus

import (
	"sync"

	"github.com/vietddude/draftsync/internal/metrics"
)

// Monitor reports connectivity and notifies on transitions.
type Monitor interface {
	IsOnline() bool

	// OnChange registers fn for online/offline transitions and returns a
	// function that unregisters it.
	OnChange(fn func(online bool)) (unsubscribe func())
}

// state holds the current status and its subscribers.
type state struct {
	mu     sync.Mutex
	online bool
	nextID int
	subs   map[int]func(bool)
}

func newState(online bool) *state {
	setGauge(online)
	return &state{online: online, subs: make(map[int]func(bool))}
}

func (s *state) get() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.online
}

// set stores online and, on a transition, calls every subscriber outside the lock.
func (s *state) set(online bool) bool {
	s.mu.Lock()
	if s.online == online {
		s.mu.Unlock()
		return false
	}
	s.online = online
	fns := make([]func(bool), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	setGauge(online)
	for _, fn := range fns {
		fn(online)
	}
	return true
}

func (s *state) subscribe(fn func(bool)) func() {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subs, id)
			s.mu.Unlock()
		})
	}
}

func setGauge(online bool) {
	if online {
		metrics.Online.Set(1)
	} else {
		metrics.Online.Set(0)
	}
}

// Switch is a manually controlled Monitor.
type Switch struct {
	st *state
}

// NewSwitch creates a switch in the given state.
func NewSwitch(online bool) *Switch {
	return &Switch{st: newState(online)}
}

func (s *Switch) IsOnline() bool { return s.st.get() }

func (s *Switch) OnChange(fn func(bool)) func() { return s.st.subscribe(fn) }

// Set changes the state. Subscribers run synchronously on a transition.
func (s *Switch) Set(online bool) { s.st.set(online) }
