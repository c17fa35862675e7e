package h2

import (
	"bytes"
	"sync"

	impersonate "github.com/brightwire/impersonate"
)

// streamState mirrors §4.5's per-stream state machine: Idle -> Open ->
// HalfClosedLocal -> Closed on the normal path, Reset terminally.
type streamState int

const (
	streamOpen streamState = iota
	streamHalfClosedLocal
	streamClosed
	streamReset
)

// stream is one in-flight request/response exchange multiplexed over
// a shared Conn.
type stream struct {
	id uint32

	mu    sync.Mutex
	state streamState

	status int
	header *impersonate.Header
	body   bytes.Buffer

	// recvWindowConsumed counts DATA bytes received since the last
	// per-stream WINDOW_UPDATE; flushed once it exceeds half of the
	// initial window (§4.5 "emit a WINDOW_UPDATE when the accumulated
	// consumed bytes exceed half of the initial window").
	recvWindowConsumed uint32

	done chan struct{}
	err  error
}

func newStream(id uint32) *stream {
	return &stream{id: id, state: streamOpen, done: make(chan struct{})}
}

func (s *stream) setState(st streamState) {
	s.mu.Lock()
	s.state = st
	s.mu.Unlock()
}

func (s *stream) finish(err error) {
	s.mu.Lock()
	if s.state == streamClosed || s.state == streamReset {
		s.mu.Unlock()
		return
	}
	s.state = streamClosed
	s.err = err
	s.mu.Unlock()
	close(s.done)
}

func (s *stream) reset(err error) {
	s.mu.Lock()
	if s.state == streamClosed || s.state == streamReset {
		s.mu.Unlock()
		return
	}
	s.state = streamReset
	s.err = err
	s.mu.Unlock()
	close(s.done)
}
