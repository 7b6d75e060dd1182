// Package coretest provides in-memory implementations of core interfaces for tests.
package coretest

import (
	"sync"

	"github.com/dkeye/VideoRoom/internal/core"
)

// Sink records every message it accepts.
type Sink struct {
	mu       sync.Mutex
	messages []core.Message
	closed   bool
	// Full makes TrySend report back-pressure.
	Full bool
}

func NewSink() *Sink { return &Sink{} }

func (s *Sink) TrySend(m core.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return core.ErrSinkClosed
	}
	if s.Full {
		return core.ErrBackpressure
	}
	s.messages = append(s.messages, m)
	return nil
}

func (s *Sink) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
}

func (s *Sink) IsClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func (s *Sink) SetFull(full bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Full = full
}

// Messages returns a copy of everything received so far.
func (s *Sink) Messages() []core.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Message(nil), s.messages...)
}

// OfType filters received messages by their "type".
func (s *Sink) OfType(typ string) []core.Message {
	var out []core.Message
	for _, m := range s.Messages() {
		if m.Type() == typ {
			out = append(out, m)
		}
	}
	return out
}

// Last returns the most recent message, or nil.
func (s *Sink) Last() core.Message {
	msgs := s.Messages()
	if len(msgs) == 0 {
		return nil
	}
	return msgs[len(msgs)-1]
}

func (s *Sink) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = nil
}
