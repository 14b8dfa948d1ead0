package testutil

import (
	"context"
	"net"
	"sync"

	"github.com/coder/websocket"
)

// MockConn is an in-memory implementation of the coordinator's Conn
// interface. Writes are recorded for assertions; reads block until a
// message is injected or the connection closes.
type MockConn struct {
	mu          sync.RWMutex
	messages    [][]byte
	closed      bool
	writeErr    error
	inbound     chan []byte
	closeSignal chan struct{}
}

// NewMockConn creates a new mock connection.
func NewMockConn() *MockConn {
	return &MockConn{
		messages:    make([][]byte, 0),
		inbound:     make(chan []byte, 16),
		closeSignal: make(chan struct{}),
	}
}

// Write records a message being sent to the client.
func (m *MockConn) Write(ctx context.Context, typ websocket.MessageType, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return net.ErrClosed
	}
	if m.writeErr != nil {
		return m.writeErr
	}

	dataCopy := make([]byte, len(data))
	copy(dataCopy, data)
	m.messages = append(m.messages, dataCopy)
	return nil
}

// Read blocks until a message is injected via Inject, the connection
// closes, or ctx expires.
func (m *MockConn) Read(ctx context.Context) (websocket.MessageType, []byte, error) {
	select {
	case data := <-m.inbound:
		return websocket.MessageText, data, nil
	case <-m.closeSignal:
		return 0, nil, net.ErrClosed
	case <-ctx.Done():
		return 0, nil, ctx.Err()
	}
}

// Inject queues data as if the remote peer had sent it.
func (m *MockConn) Inject(data []byte) {
	m.inbound <- data
}

// Ping pretends to ping the peer.
func (m *MockConn) Ping(ctx context.Context) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return net.ErrClosed
	}
	return nil
}

// Close marks the connection as closed.
func (m *MockConn) Close(status websocket.StatusCode, reason string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.closed {
		m.closed = true
		close(m.closeSignal)
	}
	return nil
}

// ReceivedMessages returns a copy of all messages written so far.
func (m *MockConn) ReceivedMessages() [][]byte {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([][]byte, len(m.messages))
	for i, msg := range m.messages {
		msgCopy := make([]byte, len(msg))
		copy(msgCopy, msg)
		result[i] = msgCopy
	}
	return result
}

// IsClosed reports whether the connection is closed.
func (m *MockConn) IsClosed() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.closed
}

// SetWriteErr makes subsequent writes fail with err.
func (m *MockConn) SetWriteErr(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.writeErr = err
}
