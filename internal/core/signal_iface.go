package core

import "errors"

var (
	ErrBackpressure = errors.New("backpressure")
	ErrSinkClosed   = errors.New("connection closed")
)

// Message is one outbound notification: a flat mapping with a "type" key.
type Message map[string]any

func (m Message) Type() string {
	t, _ := m["type"].(string)
	return t
}

// SignalConnection abstracts for a system messaging transport
// Owned by the adapter; the adapter must Close() it.
type SignalConnection interface {
	// TrySend never blocks: a full buffer yields ErrBackpressure, a closed sink ErrSinkClosed.
	TrySend(Message) error
	Close()
	IsClosed() bool
}
